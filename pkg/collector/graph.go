package collector

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/opsassess/m365-readiness/pkg/auth"
	"github.com/opsassess/m365-readiness/pkg/catalog"
	"github.com/opsassess/m365-readiness/pkg/licensecache"
	"github.com/opsassess/m365-readiness/pkg/models"
)

// GraphCollector fetches tenant, user and usage-report data from the
// graph backend. License data itself goes through the shared cache so
// other services never trigger a second fetch.
type GraphCollector struct {
	client *auth.ScopedClient
	cache  *licensecache.Cache
	period string
	logger *slog.Logger
}

// NewGraphCollector creates the m365 collector.
func NewGraphCollector(client *auth.ScopedClient, cache *licensecache.Cache, period string, logger *slog.Logger) *GraphCollector {
	return &GraphCollector{client: client, cache: cache, period: period, logger: logger}
}

func (g *GraphCollector) Service() models.Service { return models.ServiceM365 }
func (g *GraphCollector) Name() string            { return "graph" }

type graphSKU struct {
	SkuID         string `json:"skuId"`
	SkuPartNumber string `json:"skuPartNumber"`
	ConsumedUnits int    `json:"consumedUnits"`
	PrepaidUnits  struct {
		Enabled int `json:"enabled"`
	} `json:"prepaidUnits"`
	ServicePlans []struct {
		ServicePlanName    string `json:"servicePlanName"`
		ProvisioningStatus string `json:"provisioningStatus"`
	} `json:"servicePlans"`
}

type graphOrganization struct {
	Value []struct {
		ID              string `json:"id"`
		DisplayName     string `json:"displayName"`
		VerifiedDomains []struct {
			Name string `json:"name"`
		} `json:"verifiedDomains"`
	} `json:"value"`
}

type graphUsers struct {
	Value []struct {
		AccountEnabled   bool `json:"accountEnabled"`
		AssignedLicenses []struct {
			SkuID string `json:"skuId"`
		} `json:"assignedLicenses"`
	} `json:"value"`
}

type graphSites struct {
	Value []struct {
		DisplayName string `json:"displayName"`
	} `json:"value"`
}

// FetchLicenses builds the shared cache's fetch function against the
// graph backend. Each license is pre-tagged with the service categories
// its plans belong to, so per-service lookups work as soon as the cache
// fills.
func FetchLicenses(client *auth.ScopedClient) licensecache.FetchFunc {
	return func(ctx context.Context) ([]*models.License, error) {
		var resp struct {
			Value []graphSKU `json:"value"`
		}
		if err := client.GetJSON(ctx, "/subscribedSkus", &resp); err != nil {
			return nil, err
		}

		licenses := make([]*models.License, 0, len(resp.Value))
		for _, sku := range resp.Value {
			lic := &models.License{
				SkuID:         sku.SkuID,
				SkuPartNumber: sku.SkuPartNumber,
				EnabledUnits:  sku.PrepaidUnits.Enabled,
				ConsumedUnits: sku.ConsumedUnits,
			}
			seen := make(map[models.Service]bool)
			for _, plan := range sku.ServicePlans {
				status := plan.ProvisioningStatus
				if status == "" {
					status = models.StatusUnknown
				}
				lic.ServicePlans = append(lic.ServicePlans, models.ServicePlan{
					Name:               plan.ServicePlanName,
					ProvisioningStatus: status,
				})
				svc := catalog.ServiceFor(plan.ServicePlanName)
				if !seen[svc] {
					seen[svc] = true
					lic.ServiceCategories = append(lic.ServiceCategories, svc)
				}
			}
			licenses = append(licenses, lic)
		}
		return licenses, nil
	}
}

// Collect gathers the m365 summary. License failure degrades the whole
// service; individual report failures only mark the missing permission
// and continue.
func (g *GraphCollector) Collect(ctx context.Context) *models.SourceSummary {
	licenses, err := g.cache.GetOrFetch(ctx)
	if err != nil {
		return degrade(models.ServiceM365, err)
	}

	summary := &models.GraphSummary{}

	g.collectOrganization(ctx, summary)
	g.collectUsers(ctx, summary, licenses)
	g.collectSites(ctx, summary)
	g.collectEmailActivity(ctx, summary)
	g.collectTeamsActivity(ctx, summary)
	g.collectSharePointUsage(ctx, summary)
	g.collectOneDriveUsage(ctx, summary)
	g.collectActivations(ctx, summary)

	return &models.SourceSummary{
		Service:     models.ServiceM365,
		Available:   true,
		CollectedAt: time.Now(),
		Graph:       summary,
	}
}

// recordMissing tracks report areas that answered 403/404 so downstream
// recommendations can flag the permission gap instead of reading zeroes
// as "no usage".
func (g *GraphCollector) recordMissing(summary *models.GraphSummary, area string, err error) {
	if auth.IsPermissionDenied(err) || auth.IsNotFound(err) {
		summary.MissingPermissions = append(summary.MissingPermissions, area)
	}
	g.logger.Debug("graph report unavailable", "area", area, "error", err)
}

func (g *GraphCollector) collectOrganization(ctx context.Context, summary *models.GraphSummary) {
	var org graphOrganization
	if err := g.client.GetJSON(ctx, "/organization", &org); err != nil {
		g.recordMissing(summary, "organization", err)
		return
	}
	if len(org.Value) == 0 {
		return
	}
	summary.TenantName = org.Value[0].DisplayName
	for _, d := range org.Value[0].VerifiedDomains {
		summary.VerifiedDomains = append(summary.VerifiedDomains, d.Name)
	}
}

func (g *GraphCollector) collectUsers(ctx context.Context, summary *models.GraphSummary, licenses []*models.License) {
	copilotSKUs := make(map[string]bool)
	for _, lic := range licenses {
		if strings.Contains(strings.ToUpper(lic.SkuPartNumber), "COPILOT") {
			copilotSKUs[lic.SkuID] = true
		}
	}

	var users graphUsers
	path := "/users?$top=999&$select=id,accountEnabled,assignedLicenses"
	if err := g.client.GetJSON(ctx, path, &users); err != nil {
		g.recordMissing(summary, "users", err)
		return
	}

	summary.TotalUsers = len(users.Value)
	for _, u := range users.Value {
		if u.AccountEnabled {
			summary.EnabledUsers++
		}
		for _, assigned := range u.AssignedLicenses {
			if copilotSKUs[assigned.SkuID] {
				summary.CopilotLicensedUsers++
				break
			}
		}
	}
}

func (g *GraphCollector) collectSites(ctx context.Context, summary *models.GraphSummary) {
	var sites graphSites
	if err := g.client.GetJSON(ctx, "/sites?search=*", &sites); err != nil {
		g.recordMissing(summary, "sites", err)
		return
	}
	summary.TotalSites = len(sites.Value)
}

func (g *GraphCollector) collectEmailActivity(ctx context.Context, summary *models.GraphSummary) {
	rows, err := g.report(ctx, "getEmailActivityUserDetail")
	if err != nil {
		g.recordMissing(summary, "email_activity", err)
		return
	}
	for _, row := range rows {
		if row.Active("Last Activity Date") {
			summary.EmailActiveUsers++
		}
		summary.EmailTotalSent += row.Int("Send Count")
		summary.EmailTotalReceived += row.Int("Receive Count")
	}
}

func (g *GraphCollector) collectTeamsActivity(ctx context.Context, summary *models.GraphSummary) {
	rows, err := g.report(ctx, "getTeamsUserActivityUserDetail")
	if err != nil {
		g.recordMissing(summary, "teams_activity", err)
		return
	}
	for _, row := range rows {
		if row.Active("Last Activity Date") {
			summary.TeamsActiveUsers++
		}
		summary.TeamsMeetings += row.Int("Meeting Count")
		summary.TeamsChatMessages += row.Int("Team Chat Message Count") + row.Int("Private Chat Message Count")
	}
}

func (g *GraphCollector) collectSharePointUsage(ctx context.Context, summary *models.GraphSummary) {
	rows, err := g.report(ctx, "getSharePointSiteUsageDetail")
	if err != nil {
		g.recordMissing(summary, "sharepoint_usage", err)
		return
	}
	for _, row := range rows {
		if row.Active("Last Activity Date") {
			summary.SharePointActiveSites++
		}
		summary.SharePointTotalFiles += row.Int("File Count")
	}
}

func (g *GraphCollector) collectOneDriveUsage(ctx context.Context, summary *models.GraphSummary) {
	rows, err := g.report(ctx, "getOneDriveUsageAccountDetail")
	if err != nil {
		g.recordMissing(summary, "onedrive_usage", err)
		return
	}
	summary.OneDriveAccounts = len(rows)
	for _, row := range rows {
		if row.Active("Last Activity Date") {
			summary.OneDriveActiveAccounts++
		}
	}
}

func (g *GraphCollector) collectActivations(ctx context.Context, summary *models.GraphSummary) {
	body, err := g.client.Get(ctx, "/reports/getOffice365ActivationsUserDetail")
	if err != nil {
		g.recordMissing(summary, "activations", err)
		return
	}
	rows := parseReport(body)
	summary.ActivationsUsers = len(rows)
	for _, row := range rows {
		summary.ActivationsWindows += row.Int("Windows")
		summary.ActivationsMac += row.Int("Mac")
		summary.ActivationsMobile += row.Int("iOS") + row.Int("Android")
	}
}

// report fetches one period-scoped tabular usage report.
func (g *GraphCollector) report(ctx context.Context, name string) ([]reportRow, error) {
	path := fmt.Sprintf("/reports/%s(period='%s')", name, g.period)
	body, err := g.client.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	return parseReport(body), nil
}
