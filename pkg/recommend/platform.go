package recommend

import (
	"context"
	"fmt"

	"github.com/opsassess/m365-readiness/pkg/models"
	"github.com/opsassess/m365-readiness/pkg/registry"
)

func registerPowerPlatform(reg *registry.Registry) {
	reg.MustRegister("FLOW_P2", registry.Entry{Needs: registry.NeedsInsights, Generate: automationFlows})
	reg.MustRegister("FLOW_O365_P2", registry.Entry{Needs: registry.NeedsInsights, Generate: automationFlows})
	reg.MustRegister("POWERAPPS_O365_P2", registry.Entry{Needs: registry.NeedsInsights, Generate: platformApps})
	reg.MustRegister("POWERAPPS_P2", registry.Entry{Needs: registry.NeedsInsights, Generate: platformApps})
	reg.MustRegister("POWER_VIRTUAL_AGENTS_O365_P2", registry.Entry{Needs: registry.NeedsInsights, Generate: agentDeployment})
	reg.MustRegister("VIRTUAL_AGENT_BASE", registry.Entry{Needs: registry.NeedsInsights, Generate: agentDeployment})
	reg.MustRegister("DYN365_CDS_O365_P2", registry.Entry{Needs: registry.NeedsInsights, Generate: environmentHygiene})
}

const platformDocsText = "Power Platform Documentation"
const platformDocsURL = "https://learn.microsoft.com/power-platform/"

func automationFlows(ctx context.Context, in registry.Input) ([]*models.Recommendation, error) {
	if in.Status != models.StatusSuccess {
		return registry.Fallback(in), nil
	}

	m := in.Insights
	if !m.Available() {
		return one(newRec(models.ServicePowerPlatform, "Power Automate", in.Status,
			"Power Automate is licensed but deployment data could not be collected", "",
			models.PriorityNone, platformDocsText, platformDocsURL)), nil
	}

	total := m.Int("flows_total")
	suspended := m.Int("suspended_flows")

	var recs []*models.Recommendation
	if total == 0 {
		recs = append(recs, newRec(models.ServicePowerPlatform, "Power Automate", in.Status,
			"No flows deployed despite Power Automate licensing",
			"Start with approval and notification flows; automation patterns are the foundation agent-driven workflows build on.",
			models.PriorityMedium, platformDocsText, platformDocsURL))
	} else {
		recs = append(recs, newRec(models.ServicePowerPlatform, "Power Automate", in.Status,
			fmt.Sprintf("%d flows deployed (%d cloud, %d desktop)", total, m.Int("cloud_flows"), m.Int("desktop_flows")), "",
			models.PriorityNone, platformDocsText, platformDocsURL))
	}

	if suspended > 0 {
		recs = append(recs, newRec(models.ServicePowerPlatform, "Power Automate - Suspended Flows", in.Status,
			fmt.Sprintf("%d flows are suspended and not executing", suspended),
			"Review and fix or delete suspended flows; broken automation erodes trust before an agent rollout.",
			models.PriorityMedium, platformDocsText, platformDocsURL))
	}
	return recs, nil
}

func platformApps(ctx context.Context, in registry.Input) ([]*models.Recommendation, error) {
	if in.Status != models.StatusSuccess {
		return registry.Fallback(in), nil
	}

	m := in.Insights
	if !m.Available() {
		return one(newRec(models.ServicePowerPlatform, "Power Apps", in.Status,
			"Power Apps is licensed but deployment data could not be collected", "",
			models.PriorityNone, platformDocsText, platformDocsURL)), nil
	}

	total := m.Int("apps_total")
	if total == 0 {
		return one(newRec(models.ServicePowerPlatform, "Power Apps", in.Status,
			"No apps deployed despite Power Apps licensing",
			"Identify two or three manual processes and build canvas apps for them to establish maker skills in the tenant.",
			models.PriorityLow, platformDocsText, platformDocsURL)), nil
	}
	return one(newRec(models.ServicePowerPlatform, "Power Apps", in.Status,
		fmt.Sprintf("%d apps deployed (%d canvas, %d model-driven, %d Teams)",
			total, m.Int("canvas_apps"), m.Int("model_driven_apps"), m.Int("teams_apps")), "",
		models.PriorityNone, platformDocsText, platformDocsURL)), nil
}

func agentDeployment(ctx context.Context, in registry.Input) ([]*models.Recommendation, error) {
	if in.Status != models.StatusSuccess {
		return registry.Fallback(in), nil
	}

	m := in.Insights
	if !m.Available() {
		return registry.Fallback(in), nil
	}

	agents := m.Int("agents_total")
	if agents == 0 {
		return one(newRec(models.ServicePowerPlatform, "Custom Agents", in.Status,
			"No custom agents deployed yet",
			"Pilot a single-purpose agent (IT helpdesk or HR FAQ) to build operational experience before broader rollout.",
			models.PriorityMedium, platformDocsText, platformDocsURL)), nil
	}
	return one(newRec(models.ServicePowerPlatform, "Custom Agents", in.Status,
		fmt.Sprintf("%d custom agents deployed", agents), "",
		models.PriorityNone, platformDocsText, platformDocsURL)), nil
}

func environmentHygiene(ctx context.Context, in registry.Input) ([]*models.Recommendation, error) {
	if in.Status != models.StatusSuccess {
		return registry.Fallback(in), nil
	}

	m := in.Insights
	if !m.Available() {
		return registry.Fallback(in), nil
	}

	total := m.Int("environments_total")
	ready := m.Int("environments_ready")

	var recs []*models.Recommendation
	recs = append(recs, newRec(models.ServicePowerPlatform, "Environments", in.Status,
		fmt.Sprintf("%d environments (%d ready, %d production)", total, ready, m.Int("production_envs")), "",
		models.PriorityNone, platformDocsText, platformDocsURL))

	if total > 0 && m.Int("production_envs") == 0 {
		recs = append(recs, newRec(models.ServicePowerPlatform, "Environments - Governance", in.Status,
			"No dedicated production environment exists; everything runs in the default environment",
			"Create a production environment with DLP policies before deploying business-critical agents or flows.",
			models.PriorityMedium, platformDocsText, platformDocsURL))
	}
	return recs, nil
}
