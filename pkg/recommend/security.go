package recommend

import (
	"context"
	"fmt"
	"strings"

	"github.com/opsassess/m365-readiness/pkg/models"
	"github.com/opsassess/m365-readiness/pkg/registry"
)

func registerDefender(reg *registry.Registry) {
	reg.MustRegister("MTP", registry.Entry{Needs: registry.NeedsLicenses, Generate: xdrActivation})

	// Endpoint onboarding probes the security backend directly, so it
	// runs deferred with the other network-touching generators.
	reg.MustRegister("WINDEFATP", registry.Entry{
		Needs:    registry.NeedsClient | registry.NeedsInsights,
		Deferred: true,
		Generate: endpointOnboarding,
	})

	reg.MustRegister("ATP_ENTERPRISE", registry.Entry{Needs: registry.NeedsInsights, Generate: securePosture})
	reg.MustRegister("THREAT_INTELLIGENCE", registry.Entry{Needs: registry.NeedsInsights, Generate: securePosture})
}

const defenderDocsText = "Microsoft Defender Documentation"
const defenderDocsURL = "https://learn.microsoft.com/defender-xdr/"

// xdrActivation reads provisioning state straight from license plans:
// a purchased but unactivated XDR plan is a high-priority gap because
// AI workloads widen the attack surface before defenses are on.
func xdrActivation(ctx context.Context, in registry.Input) ([]*models.Recommendation, error) {
	status := in.Status
	for _, lic := range in.Licenses {
		for _, plan := range lic.ServicePlans {
			if strings.EqualFold(plan.Name, "MTP") && plan.ProvisioningStatus != models.StatusSuccess {
				status = plan.ProvisioningStatus
			}
		}
	}

	if status == models.StatusSuccess {
		return one(newRec(models.ServiceDefender, "Defender XDR", status,
			"Defender XDR is provisioned, correlating signals across workloads", "",
			models.PriorityNone, defenderDocsText, defenderDocsURL)), nil
	}
	return one(newRec(models.ServiceDefender, "Defender XDR", status,
		fmt.Sprintf("Defender XDR is licensed but its provisioning status is %q", status),
		"Activate Defender XDR in the security portal; assistant rollouts expand data access paths that need unified detection coverage.",
		models.PriorityHigh, defenderDocsText, defenderDocsURL)), nil
}

// endpointOnboarding distinguishes "no devices onboarded" from a broken
// tenant by probing the machines endpoint.
func endpointOnboarding(ctx context.Context, in registry.Input) ([]*models.Recommendation, error) {
	if in.Insights.Available() && in.Insights.Int("devices_total") > 0 {
		return one(newRec(models.ServiceDefender, "Defender for Endpoint", in.Status,
			fmt.Sprintf("%d devices onboarded to Defender for Endpoint", in.Insights.Int("devices_total")), "",
			models.PriorityNone, defenderDocsText, defenderDocsURL)), nil
	}

	observation := "No devices onboarded to Defender for Endpoint"
	if in.Client != nil {
		if _, err := in.Client.Get(ctx, "/api/machines"); err == nil {
			observation = "Defender for Endpoint is reachable but reports zero onboarded devices"
		}
	}

	return one(newRec(models.ServiceDefender, "Defender for Endpoint", in.Status,
		observation,
		"Onboard managed devices to Defender for Endpoint before assistant rollout; unmanaged endpoints accessing AI-surfaced data are a blind spot.",
		models.PriorityHigh, defenderDocsText, defenderDocsURL)), nil
}

func securePosture(ctx context.Context, in registry.Input) ([]*models.Recommendation, error) {
	m := in.Insights
	if !m.Available() {
		return registry.Fallback(in), nil
	}

	var recs []*models.Recommendation

	percent := m.Float("secure_score_percent")
	if m.Float("secure_score_max") > 0 && percent < 50 {
		recs = append(recs, newRec(models.ServiceDefender, "Secure Score", in.Status,
			fmt.Sprintf("Secure score is %.1f%% of maximum", percent),
			"Work through the highest-impact secure score actions before expanding data access through assistant features.",
			models.PriorityHigh, defenderDocsText, defenderDocsURL))
	}

	if active := m.Int("incidents_active"); active > 0 {
		recs = append(recs, newRec(models.ServiceDefender, "Active Incidents", in.Status,
			fmt.Sprintf("%d security incidents are currently active (%d high severity)",
				active, m.Int("incidents_high_severity")),
			"Resolve open incidents; an active compromise plus broad AI data access compounds exposure.",
			models.PriorityHigh, defenderDocsText, defenderDocsURL))
	}

	if len(recs) == 0 {
		recs = append(recs, newRec(models.ServiceDefender, "Security Posture", in.Status,
			"No active incidents and secure score above threshold", "",
			models.PriorityNone, defenderDocsText, defenderDocsURL))
	}
	return recs, nil
}
