package collector

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/opsassess/m365-readiness/pkg/bridge"
	"github.com/opsassess/m365-readiness/pkg/models"
)

// ComplianceCollector fetches compliance policy data. Like the platform
// backend, this surface requires interactive authentication, so data
// arrives through a bridged process.
type ComplianceCollector struct {
	runner *bridge.Runner
	logger *slog.Logger
}

// NewComplianceCollector creates the purview collector.
func NewComplianceCollector(runner *bridge.Runner, logger *slog.Logger) *ComplianceCollector {
	return &ComplianceCollector{runner: runner, logger: logger}
}

func (c *ComplianceCollector) Service() models.Service { return models.ServicePurview }
func (c *ComplianceCollector) Name() string            { return "compliance" }

type policyList struct {
	Policies []struct {
		Name    string `json:"name"`
		Enabled bool   `json:"enabled"`
	} `json:"policies"`
}

type labelList struct {
	Labels []struct {
		Name string `json:"name"`
	} `json:"labels"`
}

// compliancePayload is the single JSON document the bridged collector
// emits. Sections the remote side could not read are simply absent.
type compliancePayload struct {
	DLPPolicies             policyList `json:"dlp_policies"`
	SensitivityLabels       labelList  `json:"sensitivity_labels"`
	LabelPolicies           policyList `json:"label_policies"`
	RetentionPolicies       policyList `json:"retention_policies"`
	InsiderRiskPolicies     policyList `json:"insider_risk_policies"`
	CommunicationCompliance policyList `json:"communication_compliance"`
	InformationBarriers     policyList `json:"information_barriers"`
}

// Collect runs the bridged process and normalizes its payload.
func (c *ComplianceCollector) Collect(ctx context.Context) *models.SourceSummary {
	raw, err := c.runner.Fetch(ctx)
	if err != nil {
		c.logger.Warn("compliance data collection failed", "error", err)
		return degrade(models.ServicePurview, err)
	}

	var payload compliancePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return models.Unavailable(models.ServicePurview, models.ReasonUnknown,
			"bridged process returned malformed compliance data: "+err.Error())
	}

	summary := &models.ComplianceSummary{
		DLPPolicies:                     len(payload.DLPPolicies.Policies),
		SensitivityLabels:               len(payload.SensitivityLabels.Labels),
		LabelPolicies:                   len(payload.LabelPolicies.Policies),
		RetentionPolicies:               len(payload.RetentionPolicies.Policies),
		InsiderRiskPolicies:             len(payload.InsiderRiskPolicies.Policies),
		CommunicationCompliancePolicies: len(payload.CommunicationCompliance.Policies),
		InformationBarrierPolicies:      len(payload.InformationBarriers.Policies),
	}
	for _, p := range payload.DLPPolicies.Policies {
		if p.Enabled {
			summary.DLPEnabledPolicies++
		}
	}

	return &models.SourceSummary{
		Service:     models.ServicePurview,
		Available:   true,
		CollectedAt: time.Now(),
		Compliance:  summary,
	}
}
