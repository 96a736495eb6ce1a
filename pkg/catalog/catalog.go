// Package catalog holds reference data about service plans: which service
// category each technical plan name belongs to and the human-friendly
// names used in recommendations.
package catalog

import (
	"strings"

	"github.com/opsassess/m365-readiness/pkg/models"
)

// planCategories maps technical service plan names (uppercase) to the
// service category that analyzes them. Partial by design: plans outside
// the table are routed by keyword, and unknown plans default to m365.
var planCategories = map[string]models.Service{
	// Identity / device management features ship under the m365 category
	// alongside core productivity plans.
	"AAD_PREMIUM":                   models.ServiceM365,
	"AAD_PREMIUM_P2":                models.ServiceM365,
	"MFA_PREMIUM":                   models.ServiceM365,
	"INTUNE_A":                      models.ServiceM365,
	"EXCHANGE_S_ENTERPRISE":         models.ServiceM365,
	"EXCHANGE_S_STANDARD":           models.ServiceM365,
	"EXCHANGE_S_FOUNDATION":         models.ServiceM365,
	"SHAREPOINTENTERPRISE":          models.ServiceM365,
	"SHAREPOINTSTANDARD":            models.ServiceM365,
	"SHAREPOINTWAC":                 models.ServiceM365,
	"TEAMS1":                        models.ServiceM365,
	"MCOSTANDARD":                   models.ServiceM365,
	"OFFICESUBSCRIPTION":            models.ServiceM365,
	"EXCEL_PREMIUM":                 models.ServiceM365,
	"BING_CHAT_ENTERPRISE":          models.ServiceM365,
	"M365_COPILOT_APPS":             models.ServiceM365,
	"M365_COPILOT_BUSINESS_CHAT":    models.ServiceM365,
	"M365_COPILOT_CONNECTORS":       models.ServiceM365,
	"M365_COPILOT_INTELLIGENT_SEARCH": models.ServiceM365,
	"M365_COPILOT_SHAREPOINT":       models.ServiceM365,
	"M365_COPILOT_TEAMS":            models.ServiceM365,
	"GRAPH_CONNECTORS_COPILOT":      models.ServiceM365,
	"MICROSOFT_SEARCH":              models.ServiceM365,
	"MICROSOFT_LOOP":                models.ServiceM365,
	"PROJECTWORKMANAGEMENT":         models.ServiceM365,
	"SWAY":                          models.ServiceM365,
	"YAMMER_ENTERPRISE":             models.ServiceM365,
	"VIVAENGAGE_CORE":               models.ServiceM365,
	"STREAM_O365_E5":                models.ServiceM365,
	"WHITEBOARD_PLAN3":              models.ServiceM365,

	"ATP_ENTERPRISE":       models.ServiceDefender,
	"THREAT_INTELLIGENCE":  models.ServiceDefender,
	"WINDEFATP":            models.ServiceDefender,
	"MTP":                  models.ServiceDefender,
	"ADALLOM_S_O365":       models.ServiceDefender,
	"ADALLOM_S_STANDALONE": models.ServiceDefender,
	"ADALLOM_S_DISCOVERY":  models.ServiceDefender,
	"ATA":                  models.ServiceDefender,
	"SAFEDOCS":             models.ServiceDefender,
	"EOP_ENTERPRISE_PREMIUM": models.ServiceDefender,

	"RMS_S_ENTERPRISE":         models.ServicePurview,
	"RMS_S_PREMIUM":            models.ServicePurview,
	"RMS_S_PREMIUM2":           models.ServicePurview,
	"MIP_S_CLP1":               models.ServicePurview,
	"MIP_S_CLP2":               models.ServicePurview,
	"INFORMATION_BARRIERS":     models.ServicePurview,
	"INSIDER_RISK":             models.ServicePurview,
	"INSIDER_RISK_MANAGEMENT":  models.ServicePurview,
	"M365_ADVANCED_AUDITING":   models.ServicePurview,
	"MICROSOFTENDPOINTDLP":     models.ServicePurview,
	"COMMUNICATIONS_COMPLIANCE": models.ServicePurview,
	"RECORDS_MANAGEMENT":       models.ServicePurview,
	"EQUIVIO_ANALYTICS":        models.ServicePurview,
	"LOCKBOX_ENTERPRISE":       models.ServicePurview,
	"PREMIUM_ENCRYPTION":       models.ServicePurview,
	"CONTENT_EXPLORER":         models.ServicePurview,

	"FLOW_O365_P3":            models.ServicePowerPlatform,
	"FLOW_FREE":               models.ServicePowerPlatform,
	"POWERAPPS_O365_P3":       models.ServicePowerPlatform,
	"CDS_O365_P1":             models.ServicePowerPlatform,
	"CDS_O365_P2":             models.ServicePowerPlatform,
	"CDS_O365_P3":             models.ServicePowerPlatform,
	"DYN365_CDS_VIRAL":        models.ServicePowerPlatform,
	"AI_BUILDER_MODELS":       models.ServicePowerPlatform,
	"BI_AZURE_P2":             models.ServicePowerPlatform,
	"POWER_VIRTUAL_AGENTS":    models.ServicePowerPlatform,
	"POWER_VIRTUAL_AGENTS_O365_P3": models.ServicePowerPlatform,
	"CDS_VIRTUAL_AGENT_BASE_MESSAGES": models.ServicePowerPlatform,
	"COPILOT_STUDIO_IN_COPILOT_FOR_M365": models.ServicePowerPlatform,
}

// categoryKeywords routes plans missing from the table. Checked in order;
// first substring match wins.
var categoryKeywords = []struct {
	keyword string
	service models.Service
}{
	{"DEFENDER", models.ServiceDefender},
	{"ATP", models.ServiceDefender},
	{"THREAT", models.ServiceDefender},
	{"ADALLOM", models.ServiceDefender},
	{"EOP_", models.ServiceDefender},
	{"PURVIEW", models.ServicePurview},
	{"EDISCOVERY", models.ServicePurview},
	{"COMPLIANCE", models.ServicePurview},
	{"RMS_", models.ServicePurview},
	{"MIP_", models.ServicePurview},
	{"RETENTION", models.ServicePurview},
	{"FLOW_", models.ServicePowerPlatform},
	{"POWERAPPS", models.ServicePowerPlatform},
	{"POWER_", models.ServicePowerPlatform},
	{"CDS_", models.ServicePowerPlatform},
	{"DYN365_CDS", models.ServicePowerPlatform},
	{"VIRTUAL_AGENT", models.ServicePowerPlatform},
	{"CCIBOTS", models.ServicePowerPlatform},
}

// ServiceFor returns the service category that owns a service plan.
func ServiceFor(planName string) models.Service {
	upper := strings.ToUpper(strings.TrimSpace(planName))
	if svc, ok := planCategories[upper]; ok {
		return svc
	}
	for _, kw := range categoryKeywords {
		if strings.Contains(upper, kw.keyword) {
			return kw.service
		}
	}
	return models.ServiceM365
}

// friendlySKUNames maps SKU part numbers to marketing names. Unknown SKUs
// fall back to the part number itself.
var friendlySKUNames = map[string]string{
	"ENTERPRISEPACK":            "Office 365 E3",
	"ENTERPRISEPREMIUM":         "Office 365 E5",
	"SPE_E3":                    "Microsoft 365 E3",
	"SPE_E5":                    "Microsoft 365 E5",
	"SPB":                       "Microsoft 365 Business Premium",
	"O365_BUSINESS_PREMIUM":     "Microsoft 365 Business Standard",
	"O365_BUSINESS_ESSENTIALS":  "Microsoft 365 Business Basic",
	"EMS":                       "Enterprise Mobility + Security E3",
	"EMSPREMIUM":                "Enterprise Mobility + Security E5",
	"AAD_PREMIUM":               "Microsoft Entra ID P1",
	"AAD_PREMIUM_P2":            "Microsoft Entra ID P2",
	"DEFENDER_ENDPOINT_P1":      "Microsoft Defender for Endpoint P1",
	"WIN_DEF_ATP":               "Microsoft Defender for Endpoint P2",
	"ATP_ENTERPRISE":            "Microsoft Defender for Office 365 P1",
	"THREAT_INTELLIGENCE":       "Microsoft Defender for Office 365 P2",
	"Microsoft_365_Copilot":     "Microsoft 365 Copilot",
	"POWER_BI_PRO":              "Power BI Pro",
	"POWERAPPS_PER_USER":        "Power Apps Premium",
	"FLOW_PER_USER":             "Power Automate Premium",
	"VIRTUAL_AGENT_BASE":        "Copilot Studio",
	"CCIBOTS_PRIVPREV_VIRAL":    "Copilot Studio Trial",
}

// friendlyPlanNames maps technical plan names to readable feature names.
var friendlyPlanNames = map[string]string{
	"AAD_PREMIUM":                "Entra ID P1",
	"AAD_PREMIUM_P2":             "Entra ID P2",
	"MFA_PREMIUM":                "Multi-Factor Authentication",
	"INTUNE_A":                   "Intune",
	"EXCHANGE_S_ENTERPRISE":      "Exchange Online (Plan 2)",
	"EXCHANGE_S_STANDARD":        "Exchange Online (Plan 1)",
	"SHAREPOINTENTERPRISE":       "SharePoint (Plan 2)",
	"TEAMS1":                     "Microsoft Teams",
	"MCOSTANDARD":                "Skype for Business Online",
	"OFFICESUBSCRIPTION":         "Microsoft 365 Apps for Enterprise",
	"EXCEL_PREMIUM":              "Excel Advanced Analytics",
	"BING_CHAT_ENTERPRISE":       "Microsoft Copilot with Commercial Data Protection",
	"M365_COPILOT_APPS":          "Copilot in Office Apps",
	"M365_COPILOT_BUSINESS_CHAT": "Copilot Business Chat",
	"M365_COPILOT_TEAMS":         "Copilot in Teams",
	"M365_COPILOT_SHAREPOINT":    "Copilot in SharePoint",
	"GRAPH_CONNECTORS_COPILOT":   "Graph Connectors for Copilot",
	"MICROSOFT_SEARCH":           "Microsoft Search",
	"ATP_ENTERPRISE":             "Defender for Office 365 (Plan 1)",
	"THREAT_INTELLIGENCE":        "Defender for Office 365 (Plan 2)",
	"WINDEFATP":                  "Defender for Endpoint",
	"MTP":                        "Microsoft Defender XDR",
	"ADALLOM_S_O365":             "Defender for Cloud Apps (Office 365)",
	"ATA":                        "Defender for Identity",
	"SAFEDOCS":                   "Safe Documents",
	"RMS_S_ENTERPRISE":           "Azure Information Protection",
	"MIP_S_CLP1":                 "Information Protection (Plan 1)",
	"MIP_S_CLP2":                 "Information Protection (Plan 2)",
	"INFORMATION_BARRIERS":       "Information Barriers",
	"INSIDER_RISK_MANAGEMENT":    "Insider Risk Management",
	"M365_ADVANCED_AUDITING":     "Advanced Audit",
	"MICROSOFTENDPOINTDLP":       "Endpoint Data Loss Prevention",
	"COMMUNICATIONS_COMPLIANCE":  "Communication Compliance",
	"RECORDS_MANAGEMENT":         "Records Management",
	"FLOW_O365_P3":               "Power Automate for Office 365",
	"POWERAPPS_O365_P3":          "Power Apps for Office 365",
	"AI_BUILDER_MODELS":          "AI Builder",
	"POWER_VIRTUAL_AGENTS":       "Copilot Studio",
	"CDS_O365_P3":                "Dataverse for Teams",
}

// FriendlySKUName returns the marketing name for a SKU part number.
func FriendlySKUName(skuPartNumber string) string {
	if name, ok := friendlySKUNames[skuPartNumber]; ok {
		return name
	}
	return skuPartNumber
}

// FriendlyPlanName returns the readable feature name for a plan.
func FriendlyPlanName(planName string) string {
	if name, ok := friendlyPlanNames[strings.ToUpper(strings.TrimSpace(planName))]; ok {
		return name
	}
	return planName
}
