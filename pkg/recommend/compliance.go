package recommend

import (
	"context"
	"fmt"

	"github.com/opsassess/m365-readiness/pkg/models"
	"github.com/opsassess/m365-readiness/pkg/registry"
)

func registerPurview(reg *registry.Registry) {
	reg.MustRegister("BPOS_S_DLPADDON", registry.Entry{Needs: registry.NeedsInsights, Generate: dlpCoverage})
	reg.MustRegister("DATA_LOSS_PREVENTION", registry.Entry{Needs: registry.NeedsInsights, Generate: dlpCoverage})
	reg.MustRegister("MIP_S_CLP1", registry.Entry{Needs: registry.NeedsInsights, Generate: labelCoverage})
	reg.MustRegister("MIP_S_CLP2", registry.Entry{Needs: registry.NeedsInsights, Generate: labelCoverage})
	reg.MustRegister("RECORDS_MANAGEMENT", registry.Entry{Needs: registry.NeedsInsights, Generate: retentionCoverage})
}

const purviewDocsText = "Microsoft Purview Documentation"
const purviewDocsURL = "https://learn.microsoft.com/purview/"

// dlpCoverage checks that loss-prevention policies exist and are on.
// An assistant can surface any content its user can read, so DLP is the
// control that keeps oversharing from becoming exfiltration.
func dlpCoverage(ctx context.Context, in registry.Input) ([]*models.Recommendation, error) {
	if in.Status != models.StatusSuccess {
		return registry.Fallback(in), nil
	}

	m := in.Insights
	if !m.Available() {
		return registry.Fallback(in), nil
	}

	total := m.Int("dlp_policies")
	enabled := m.Int("dlp_enabled_policies")

	switch {
	case total == 0:
		return one(newRec(models.ServicePurview, "Data Loss Prevention", in.Status,
			"No DLP policies are defined",
			"Create DLP policies for financial, health and personal data before assistant rollout; generated responses inherit whatever the user can access.",
			models.PriorityHigh, purviewDocsText, purviewDocsURL)), nil
	case enabled < total:
		return one(newRec(models.ServicePurview, "Data Loss Prevention", in.Status,
			fmt.Sprintf("%d of %d DLP policies are enabled", enabled, total),
			"Enable or remove the dormant DLP policies so coverage matches intent.",
			models.PriorityMedium, purviewDocsText, purviewDocsURL)), nil
	default:
		return one(newRec(models.ServicePurview, "Data Loss Prevention", in.Status,
			fmt.Sprintf("%d DLP policies defined and enabled", total), "",
			models.PriorityNone, purviewDocsText, purviewDocsURL)), nil
	}
}

func labelCoverage(ctx context.Context, in registry.Input) ([]*models.Recommendation, error) {
	if in.Status != models.StatusSuccess {
		return registry.Fallback(in), nil
	}

	m := in.Insights
	if !m.Available() {
		return registry.Fallback(in), nil
	}

	labels := m.Int("sensitivity_labels")
	policies := m.Int("label_policies")

	var recs []*models.Recommendation
	if labels == 0 {
		recs = append(recs, newRec(models.ServicePurview, "Sensitivity Labels", in.Status,
			"No sensitivity labels are defined",
			"Define a label taxonomy (Public, Internal, Confidential, Restricted) and publish it; labels are how the assistant's answers respect classification.",
			models.PriorityHigh, purviewDocsText, purviewDocsURL))
	} else if policies == 0 {
		recs = append(recs, newRec(models.ServicePurview, "Sensitivity Labels", in.Status,
			fmt.Sprintf("%d sensitivity labels exist but no label policy publishes them to users", labels),
			"Publish the labels through a label policy so users and auto-labeling can apply them.",
			models.PriorityHigh, purviewDocsText, purviewDocsURL))
	} else {
		recs = append(recs, newRec(models.ServicePurview, "Sensitivity Labels", in.Status,
			fmt.Sprintf("%d sensitivity labels published through %d policies", labels, policies), "",
			models.PriorityNone, purviewDocsText, purviewDocsURL))
	}
	return recs, nil
}

func retentionCoverage(ctx context.Context, in registry.Input) ([]*models.Recommendation, error) {
	if in.Status != models.StatusSuccess {
		return registry.Fallback(in), nil
	}

	m := in.Insights
	if !m.Available() {
		return registry.Fallback(in), nil
	}

	if m.Int("retention_policies") == 0 {
		return one(newRec(models.ServicePurview, "Retention Policies", in.Status,
			"No retention policies are defined",
			"Define retention policies for mail, sites and chat; assistant interactions are discoverable records and need governed lifecycles.",
			models.PriorityMedium, purviewDocsText, purviewDocsURL)), nil
	}
	return one(newRec(models.ServicePurview, "Retention Policies", in.Status,
		fmt.Sprintf("%d retention policies in place", m.Int("retention_policies")), "",
		models.PriorityNone, purviewDocsText, purviewDocsURL)), nil
}
