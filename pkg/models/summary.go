package models

import "time"

// FailureReason classifies why a source is unavailable. ReasonNotLicensed
// is deliberately distinct from ReasonUnknown: "the tenant does not have
// it" and "we could not find out" degrade differently downstream.
type FailureReason string

const (
	ReasonNone             FailureReason = ""
	ReasonNotLicensed      FailureReason = "NotLicensed"
	ReasonPermissionDenied FailureReason = "PermissionDenied"
	ReasonAuthError        FailureReason = "AuthError"
	ReasonTimeout          FailureReason = "Timeout"
	ReasonUnknown          FailureReason = "UnknownError"
)

// SourceSummary is one backend's normalized snapshot for a run. A
// collector produces exactly one, and it is read-only afterward. When
// Available is false, Reason and Detail explain the degradation; exactly
// one of the per-backend sections is populated otherwise.
type SourceSummary struct {
	Service     Service
	Available   bool
	Reason      FailureReason
	Detail      string
	CollectedAt time.Time

	Graph      *GraphSummary
	Platform   *PlatformSummary
	Security   *SecuritySummary
	Compliance *ComplianceSummary
}

// Unavailable builds a degraded summary for a service.
func Unavailable(svc Service, reason FailureReason, detail string) *SourceSummary {
	return &SourceSummary{
		Service:     svc,
		Available:   false,
		Reason:      reason,
		Detail:      detail,
		CollectedAt: time.Now(),
	}
}

// GraphSummary aggregates tenant usage data from the graph backend.
// Usage report figures cover the report period (default 30 days).
type GraphSummary struct {
	TenantName      string
	VerifiedDomains []string

	TotalUsers           int
	EnabledUsers         int
	CopilotLicensedUsers int
	TotalSites           int

	EmailActiveUsers   int
	EmailTotalSent     int
	EmailTotalReceived int

	TeamsActiveUsers  int
	TeamsMeetings     int
	TeamsChatMessages int

	SharePointActiveSites int
	SharePointTotalFiles  int

	OneDriveAccounts       int
	OneDriveActiveAccounts int

	ActivationsUsers   int
	ActivationsWindows int
	ActivationsMac     int
	ActivationsMobile  int

	// Report endpoints that answered 403; retained so recommendations can
	// flag missing report-reader permissions instead of guessing.
	MissingPermissions []string
}

// PlatformSummary aggregates environment, flow, app and connector data
// from the platform management backend.
type PlatformSummary struct {
	TotalEnvironments  int
	EnvironmentsByType map[string]int
	EnvironmentsReady  int

	TotalFlows     int
	CloudFlows     int
	DesktopFlows   int
	SuspendedFlows int

	TotalApps       int
	CanvasApps      int
	ModelDrivenApps int
	TeamsApps       int

	TotalConnections  int
	CustomConnectors  int
	PremiumConnectors int

	AgentCount int
}

// SecuritySummary aggregates alert, incident, device and score telemetry
// from the security backend.
type SecuritySummary struct {
	TotalAlerts      int
	AlertsBySeverity map[string]int

	TotalIncidents        int
	ActiveIncidents       int
	HighSeverityIncidents int

	SecureScore        float64
	SecureScoreMax     float64
	SecureScorePercent float64

	TotalDevices      int
	HighRiskDevices   int
	MediumRiskDevices int
	LowRiskDevices    int
}

// ComplianceSummary aggregates policy counts from the compliance backend.
type ComplianceSummary struct {
	DLPPolicies        int
	DLPEnabledPolicies int

	SensitivityLabels int
	LabelPolicies     int

	RetentionPolicies   int
	InsiderRiskPolicies int

	CommunicationCompliancePolicies int
	InformationBarrierPolicies      int
}
