package recommend

import (
	"context"
	"fmt"

	"github.com/opsassess/m365-readiness/pkg/models"
	"github.com/opsassess/m365-readiness/pkg/registry"
)

func registerM365(reg *registry.Registry) {
	// Collaboration surface
	reg.MustRegister("SHAREPOINTWAC", registry.Entry{Needs: registry.NeedsInsights, Generate: sharePointSites})
	reg.MustRegister("SHAREPOINTENTERPRISE", registry.Entry{Needs: registry.NeedsInsights, Generate: sharePointSites})
	reg.MustRegister("TEAMS1", registry.Entry{Needs: registry.NeedsInsights, Generate: teamsUsage})

	// Messaging
	reg.MustRegister("EXCHANGE_S_ENTERPRISE", registry.Entry{Needs: registry.NeedsInsights, Generate: exchangeUsage})
	reg.MustRegister("EXCHANGE_S_STANDARD", registry.Entry{Needs: registry.NeedsInsights, Generate: exchangeUsage})

	// Assistant licensing
	reg.MustRegister("COPILOT_ENTERPRISE", registry.Entry{Needs: registry.NeedsInsights | registry.NeedsLicenses, Generate: copilotAdoption})
	reg.MustRegister("M365_COPILOT_BUSINESS_CHAT", registry.Entry{Needs: registry.NeedsInsights, Generate: copilotAdoption})

	reg.MustRegister("ONEDRIVE_BASIC", registry.Entry{Needs: registry.NeedsInsights, Generate: oneDriveAdoption})
	reg.MustRegister("ONEDRIVESTANDARD", registry.Entry{Needs: registry.NeedsInsights, Generate: oneDriveAdoption})
}

const m365DocsText = "Microsoft 365 Documentation"
const m365DocsURL = "https://learn.microsoft.com/microsoft-365/"

// sharePointSites grades the tenant's content foundation. The assistant
// answers from organizational content, so a thin site estate limits it
// regardless of licensing.
func sharePointSites(ctx context.Context, in registry.Input) ([]*models.Recommendation, error) {
	if in.Status != models.StatusSuccess {
		return registry.Fallback(in), nil
	}

	m := in.Insights
	if !m.Available() {
		return one(newRec(models.ServiceM365, "SharePoint", in.Status,
			"SharePoint is licensed but usage data could not be collected", "",
			models.PriorityNone, m365DocsText, m365DocsURL)), nil
	}

	sites := m.Int("total_sites")
	switch {
	case sites == 0:
		return one(newRec(models.ServiceM365, "SharePoint", in.Status,
			"No SharePoint sites detected (Sites.Read.All permission may be missing)",
			"Grant Sites.Read.All and build out team sites; the assistant depends on SharePoint content to answer organizational questions.",
			models.PriorityHigh, m365DocsText, m365DocsURL)), nil
	case sites < 5:
		return one(newRec(models.ServiceM365, "SharePoint", in.Status,
			fmt.Sprintf("%d SharePoint sites deployed (limited content available for the assistant)", sites),
			"Create team sites for key departments and projects. Aim for at least 10-15 active sites so AI responses have meaningful organizational context.",
			models.PriorityMedium, m365DocsText, m365DocsURL)), nil
	case sites < 20:
		return one(newRec(models.ServiceM365, "SharePoint", in.Status,
			fmt.Sprintf("%d SharePoint sites deployed (moderate content foundation)", sites),
			"Expand site coverage to more teams and business processes to improve cross-functional answers.",
			models.PriorityLow, m365DocsText, m365DocsURL)), nil
	default:
		return one(newRec(models.ServiceM365, "SharePoint", in.Status,
			fmt.Sprintf("%d SharePoint sites deployed (strong content foundation)", sites), "",
			models.PriorityNone, m365DocsText, m365DocsURL)), nil
	}
}

func teamsUsage(ctx context.Context, in registry.Input) ([]*models.Recommendation, error) {
	if in.Status != models.StatusSuccess {
		return registry.Fallback(in), nil
	}

	m := in.Insights
	recs := one(newRec(models.ServiceM365, "Microsoft Teams", in.Status,
		"Teams is active, providing the meeting and chat surface the assistant summarizes", "",
		models.PriorityNone, m365DocsText, m365DocsURL))

	if m.Available() && m.Bool("teams_report_available") {
		active := m.Int("teams_active_users")
		enabled := m.Int("enabled_users")
		if enabled > 0 && active*2 < enabled {
			recs = append(recs, newRec(models.ServiceM365, "Microsoft Teams - Adoption", in.Status,
				fmt.Sprintf("Only %d of %d enabled users were active in Teams during the report period", active, enabled),
				"Drive Teams adoption before rolling out the assistant; meeting recaps and chat summarization only deliver value to active users.",
				models.PriorityMedium, m365DocsText, m365DocsURL))
		}
	}
	return recs, nil
}

func exchangeUsage(ctx context.Context, in registry.Input) ([]*models.Recommendation, error) {
	if in.Status != models.StatusSuccess {
		return registry.Fallback(in), nil
	}

	m := in.Insights
	obs := "Exchange Online is active, enabling mailbox-grounded assistant features"
	if m.Available() && m.Bool("email_report_available") {
		obs = fmt.Sprintf("Exchange Online is active; %d users showed email activity in the report period",
			m.Int("email_active_users"))
	}
	return one(newRec(models.ServiceM365, "Exchange Online", in.Status, obs, "",
		models.PriorityNone, m365DocsText, m365DocsURL)), nil
}

// copilotAdoption compares assistant seats against the enabled user
// population and against purchased units.
func copilotAdoption(ctx context.Context, in registry.Input) ([]*models.Recommendation, error) {
	m := in.Insights
	if !m.Available() {
		return registry.Fallback(in), nil
	}

	licensed := m.Int("copilot_licensed_users")
	enabled := m.Int("enabled_users")

	var recs []*models.Recommendation
	if licensed == 0 {
		recs = append(recs, newRec(models.ServiceM365, "Copilot Licensing", in.Status,
			"No users currently hold an assistant license",
			"Assign licenses to a pilot group of high-collaboration users to begin the readiness rollout.",
			models.PriorityHigh, m365DocsText, m365DocsURL))
	} else {
		recs = append(recs, newRec(models.ServiceM365, "Copilot Licensing", in.Status,
			fmt.Sprintf("%d of %d enabled users hold an assistant license (%.1f%%)",
				licensed, enabled, m.Float("copilot_adoption_rate")), "",
			models.PriorityNone, m365DocsText, m365DocsURL))
	}

	// Unassigned purchased seats are wasted spend.
	for _, lic := range in.Licenses {
		if lic.SkuID != "" && lic.AvailableUnits() > 0 && containsUpper(lic.SkuPartNumber, "COPILOT") {
			recs = append(recs, newRec(models.ServiceM365, "Copilot Licensing - Unassigned Seats", in.Status,
				fmt.Sprintf("%d purchased assistant seats in %s are not assigned to users", lic.AvailableUnits(), lic.SkuPartNumber),
				"Assign the remaining seats or reduce the purchased quantity at renewal.",
				models.PriorityMedium, m365DocsText, m365DocsURL))
		}
	}
	return recs, nil
}

func oneDriveAdoption(ctx context.Context, in registry.Input) ([]*models.Recommendation, error) {
	if in.Status != models.StatusSuccess {
		return registry.Fallback(in), nil
	}

	m := in.Insights
	if !m.Available() || !m.Bool("onedrive_report_available") {
		return one(newRec(models.ServiceM365, "OneDrive", in.Status,
			"OneDrive is active", "", models.PriorityNone, m365DocsText, m365DocsURL)), nil
	}

	rate := m.Float("onedrive_adoption_rate")
	if rate < 50 {
		return one(newRec(models.ServiceM365, "OneDrive", in.Status,
			fmt.Sprintf("Only %.1f%% of OneDrive accounts showed activity in the report period", rate),
			"Migrate personal working files to OneDrive; file-grounded assistant features only see content stored in the service.",
			models.PriorityMedium, m365DocsText, m365DocsURL)), nil
	}
	return one(newRec(models.ServiceM365, "OneDrive", in.Status,
		fmt.Sprintf("%.1f%% of OneDrive accounts active in the report period", rate), "",
		models.PriorityNone, m365DocsText, m365DocsURL)), nil
}
