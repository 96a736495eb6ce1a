// Package insights derives flat, read-only metric maps from collected
// summaries. Each extractor is a pure function: the pipeline calls it
// once per service per run and every recommendation generator for that
// service reads the same map.
package insights

import (
	"math"

	"github.com/opsassess/m365-readiness/pkg/models"
)

// Map is a derived set of aggregate metrics for one service. Treated as
// immutable once built; generators read it, never write it.
type Map map[string]any

// Int returns a numeric key, or zero when absent.
func (m Map) Int(key string) int {
	n, _ := m[key].(int)
	return n
}

// Float returns a float key, or zero when absent.
func (m Map) Float(key string) float64 {
	f, _ := m[key].(float64)
	return f
}

// Bool returns a boolean key, or false when absent.
func (m Map) Bool(key string) bool {
	b, _ := m[key].(bool)
	return b
}

// String returns a string key, or "" when absent.
func (m Map) String(key string) string {
	s, _ := m[key].(string)
	return s
}

// Strings returns a string-slice key, or nil when absent.
func (m Map) Strings(key string) []string {
	v, _ := m[key].([]string)
	return v
}

// Available reports whether the underlying service data was collected.
func (m Map) Available() bool {
	return m.Bool("available")
}

// ForService extracts the insights map for the summary's service.
func ForService(s *models.SourceSummary) Map {
	switch s.Service {
	case models.ServiceM365:
		return ExtractM365(s)
	case models.ServicePowerPlatform:
		return ExtractPowerPlatform(s)
	case models.ServiceDefender:
		return ExtractDefender(s)
	case models.ServicePurview:
		return ExtractPurview(s)
	default:
		return unavailable(s)
	}
}

func unavailable(s *models.SourceSummary) Map {
	return Map{
		"available": false,
		"reason":    string(s.Reason),
		"detail":    s.Detail,
	}
}

// ExtractM365 derives usage and adoption metrics from the graph summary.
func ExtractM365(s *models.SourceSummary) Map {
	if !s.Available || s.Graph == nil {
		return unavailable(s)
	}
	g := s.Graph

	m := Map{
		"available":              true,
		"tenant_name":            g.TenantName,
		"verified_domains":       g.VerifiedDomains,
		"total_users":            g.TotalUsers,
		"enabled_users":          g.EnabledUsers,
		"copilot_licensed_users": g.CopilotLicensedUsers,
		"copilot_adoption_rate":  rate(g.CopilotLicensedUsers, g.EnabledUsers),
		"total_sites":            g.TotalSites,

		"email_active_users":      g.EmailActiveUsers,
		"email_total_sent":        g.EmailTotalSent,
		"email_avg_sent_per_user": perUser(g.EmailTotalSent, g.EmailActiveUsers),

		"teams_active_users":         g.TeamsActiveUsers,
		"teams_total_meetings":       g.TeamsMeetings,
		"teams_avg_meetings_per_user": perUser(g.TeamsMeetings, g.TeamsActiveUsers),
		"teams_chat_messages":        g.TeamsChatMessages,

		"sharepoint_active_sites":  g.SharePointActiveSites,
		"sharepoint_activity_rate": rate(g.SharePointActiveSites, g.TotalSites),
		"sharepoint_total_files":   g.SharePointTotalFiles,

		"onedrive_accounts":        g.OneDriveAccounts,
		"onedrive_active_accounts": g.OneDriveActiveAccounts,
		"onedrive_adoption_rate":   rate(g.OneDriveActiveAccounts, g.OneDriveAccounts),

		"activations_users":   g.ActivationsUsers,
		"activations_windows": g.ActivationsWindows,
		"activations_mac":     g.ActivationsMac,
		"activations_mobile":  g.ActivationsMobile,

		"missing_permissions": g.MissingPermissions,
	}

	m["email_report_available"] = !contains(g.MissingPermissions, "email_activity")
	m["teams_report_available"] = !contains(g.MissingPermissions, "teams_activity")
	m["sharepoint_report_available"] = !contains(g.MissingPermissions, "sharepoint_usage")
	m["onedrive_report_available"] = !contains(g.MissingPermissions, "onedrive_usage")
	m["activations_report_available"] = !contains(g.MissingPermissions, "activations")
	return m
}

// ExtractPowerPlatform derives deployment metrics from the platform
// summary.
func ExtractPowerPlatform(s *models.SourceSummary) Map {
	if !s.Available || s.Platform == nil {
		return unavailable(s)
	}
	p := s.Platform

	return Map{
		"available": true,

		"environments_total": p.TotalEnvironments,
		"environments_ready": p.EnvironmentsReady,
		"production_envs":    p.EnvironmentsByType["production"],
		"sandbox_envs":       p.EnvironmentsByType["sandbox"],
		"developer_envs":     p.EnvironmentsByType["developer"],
		"trial_envs":         p.EnvironmentsByType["trial"],

		"flows_total":     p.TotalFlows,
		"cloud_flows":     p.CloudFlows,
		"desktop_flows":   p.DesktopFlows,
		"suspended_flows": p.SuspendedFlows,

		"apps_total":        p.TotalApps,
		"canvas_apps":       p.CanvasApps,
		"model_driven_apps": p.ModelDrivenApps,
		"teams_apps":        p.TeamsApps,

		"connections_total":  p.TotalConnections,
		"custom_connectors":  p.CustomConnectors,
		"premium_connectors": p.PremiumConnectors,

		"agents_total": p.AgentCount,
	}
}

// ExtractDefender derives security posture metrics from the security
// summary.
func ExtractDefender(s *models.SourceSummary) Map {
	if !s.Available || s.Security == nil {
		return unavailable(s)
	}
	sec := s.Security

	return Map{
		"available": true,

		"alerts_total":  sec.TotalAlerts,
		"alerts_high":   sec.AlertsBySeverity["high"],
		"alerts_medium": sec.AlertsBySeverity["medium"],
		"alerts_low":    sec.AlertsBySeverity["low"],

		"incidents_total":         sec.TotalIncidents,
		"incidents_active":        sec.ActiveIncidents,
		"incidents_high_severity": sec.HighSeverityIncidents,

		"secure_score":         sec.SecureScore,
		"secure_score_max":     sec.SecureScoreMax,
		"secure_score_percent": round1(sec.SecureScorePercent),

		"devices_total":       sec.TotalDevices,
		"devices_high_risk":   sec.HighRiskDevices,
		"devices_medium_risk": sec.MediumRiskDevices,
		"devices_low_risk":    sec.LowRiskDevices,
	}
}

// ExtractPurview derives policy coverage metrics from the compliance
// summary.
func ExtractPurview(s *models.SourceSummary) Map {
	if !s.Available || s.Compliance == nil {
		return unavailable(s)
	}
	c := s.Compliance

	return Map{
		"available": true,

		"dlp_policies":         c.DLPPolicies,
		"dlp_enabled_policies": c.DLPEnabledPolicies,

		"sensitivity_labels": c.SensitivityLabels,
		"label_policies":     c.LabelPolicies,
		"retention_policies": c.RetentionPolicies,

		"insider_risk_policies":             c.InsiderRiskPolicies,
		"communication_compliance_policies": c.CommunicationCompliancePolicies,
		"information_barrier_policies":      c.InformationBarrierPolicies,
	}
}

// rate is the percentage of part in whole, one decimal place.
func rate(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return round1(100 * float64(part) / float64(whole))
}

// perUser is an average over a possibly-empty user population.
func perUser(total, users int) float64 {
	if users == 0 {
		return 0
	}
	return round1(float64(total) / float64(users))
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
