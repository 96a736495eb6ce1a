package collector

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsassess/m365-readiness/pkg/auth"
	"github.com/opsassess/m365-readiness/pkg/licensecache"
	"github.com/opsassess/m365-readiness/pkg/models"
)

func graphHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/subscribedSkus", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"value":[
			{"skuId":"sku-e3","skuPartNumber":"SPE_E3","consumedUnits":40,
			 "prepaidUnits":{"enabled":50},
			 "servicePlans":[{"servicePlanName":"EXCHANGE_S_ENTERPRISE","provisioningStatus":"Success"}]},
			{"skuId":"sku-cop","skuPartNumber":"Microsoft_365_Copilot","consumedUnits":5,
			 "prepaidUnits":{"enabled":10},
			 "servicePlans":[{"servicePlanName":"COPILOT_ENTERPRISE","provisioningStatus":"Success"}]}
		]}`))
	})
	mux.HandleFunc("/organization", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"value":[{"id":"t1","displayName":"Contoso",
			"verifiedDomains":[{"name":"contoso.com"},{"name":"contoso.onmicrosoft.com"}]}]}`))
	})
	mux.HandleFunc("/users", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"value":[
			{"accountEnabled":true,"assignedLicenses":[{"skuId":"sku-e3"},{"skuId":"sku-cop"}]},
			{"accountEnabled":true,"assignedLicenses":[{"skuId":"sku-e3"}]},
			{"accountEnabled":false,"assignedLicenses":[]}
		]}`))
	})
	mux.HandleFunc("/sites", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"value":[{"displayName":"Intranet"},{"displayName":"HR"}]}`))
	})
	mux.HandleFunc("/reports/", func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "getEmailActivityUserDetail"):
			w.Write([]byte("\xEF\xBB\xBFUser Principal Name,Last Activity Date,Send Count,Receive Count\n" +
				"alice@contoso.com,2026-08-20,10,30\n" +
				"bob@contoso.com,,0,0\n"))
		case strings.Contains(r.URL.Path, "getTeamsUserActivityUserDetail"):
			w.Write([]byte("User Principal Name,Last Activity Date,Meeting Count,Team Chat Message Count,Private Chat Message Count\n" +
				"alice@contoso.com,2026-08-21,4,12,8\n"))
		case strings.Contains(r.URL.Path, "getSharePointSiteUsageDetail"):
			w.Write([]byte("Site Id,Last Activity Date,File Count\nsite-1,2026-08-19,120\nsite-2,,15\n"))
		case strings.Contains(r.URL.Path, "getOneDriveUsageAccountDetail"):
			w.Write([]byte("Owner,Last Activity Date\nalice,2026-08-18\nbob,\n"))
		case strings.Contains(r.URL.Path, "getOffice365ActivationsUserDetail"):
			w.Write([]byte("User Principal Name,Windows,Mac,iOS,Android\nalice,2,1,1,0\nbob,1,0,0,1\n"))
		default:
			http.NotFound(w, r)
		}
	})
	return mux
}

func TestGraphCollect(t *testing.T) {
	client := newTestClient(t, auth.BackendGraph, graphHandler())
	cache := staticCacheFromFetch(t, client)

	c := NewGraphCollector(client, cache, "D30", testLogger())
	summary := c.Collect(context.Background())

	require.True(t, summary.Available)
	require.NotNil(t, summary.Graph)
	g := summary.Graph

	assert.Equal(t, "Contoso", g.TenantName)
	assert.Equal(t, []string{"contoso.com", "contoso.onmicrosoft.com"}, g.VerifiedDomains)

	assert.Equal(t, 3, g.TotalUsers)
	assert.Equal(t, 2, g.EnabledUsers)
	assert.Equal(t, 1, g.CopilotLicensedUsers)
	assert.Equal(t, 2, g.TotalSites)

	assert.Equal(t, 1, g.EmailActiveUsers)
	assert.Equal(t, 10, g.EmailTotalSent)
	assert.Equal(t, 30, g.EmailTotalReceived)

	assert.Equal(t, 1, g.TeamsActiveUsers)
	assert.Equal(t, 4, g.TeamsMeetings)
	assert.Equal(t, 20, g.TeamsChatMessages)

	assert.Equal(t, 1, g.SharePointActiveSites)
	assert.Equal(t, 135, g.SharePointTotalFiles)

	assert.Equal(t, 2, g.OneDriveAccounts)
	assert.Equal(t, 1, g.OneDriveActiveAccounts)

	assert.Equal(t, 2, g.ActivationsUsers)
	assert.Equal(t, 3, g.ActivationsWindows)
	assert.Equal(t, 1, g.ActivationsMac)
	assert.Equal(t, 2, g.ActivationsMobile)

	assert.Empty(t, g.MissingPermissions)
}

func TestGraphCollectRecordsMissingPermissions(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/subscribedSkus", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"value":[]}`))
	})
	mux.HandleFunc("/organization", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"value":[{"displayName":"Contoso"}]}`))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":"Authorization_RequestDenied"}}`, http.StatusForbidden)
	})

	client := newTestClient(t, auth.BackendGraph, mux)
	cache := staticCacheFromFetch(t, client)

	c := NewGraphCollector(client, cache, "D30", testLogger())
	summary := c.Collect(context.Background())

	// Partial data still counts as available.
	require.True(t, summary.Available)
	g := summary.Graph
	assert.Equal(t, "Contoso", g.TenantName)
	assert.Contains(t, g.MissingPermissions, "users")
	assert.Contains(t, g.MissingPermissions, "email_activity")
	assert.NotContains(t, g.MissingPermissions, "organization")
}

func TestGraphCollectDegradesOnLicenseFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusForbidden)
	})

	client := newTestClient(t, auth.BackendGraph, mux)
	cache := staticCacheFromFetch(t, client)

	c := NewGraphCollector(client, cache, "D30", testLogger())
	summary := c.Collect(context.Background())

	require.False(t, summary.Available)
	assert.Equal(t, models.ReasonPermissionDenied, summary.Reason)
	assert.Nil(t, summary.Graph)
}

func TestFetchLicensesTagsCategories(t *testing.T) {
	client := newTestClient(t, auth.BackendGraph, graphHandler())

	licenses, err := FetchLicenses(client)(context.Background())
	require.NoError(t, err)
	require.Len(t, licenses, 2)

	e3 := licenses[0]
	assert.Equal(t, "SPE_E3", e3.SkuPartNumber)
	assert.Equal(t, 10, e3.AvailableUnits())
	assert.True(t, e3.HasCategory(models.ServiceM365))

	cop := licenses[1]
	assert.True(t, cop.HasCategory(models.ServiceM365))
}

// staticCacheFromFetch builds a cache around the real fetch path so
// tests exercise the same parsing the pipeline does.
func staticCacheFromFetch(t *testing.T, client *auth.ScopedClient) *licensecache.Cache {
	t.Helper()
	return licensecache.New(FetchLicenses(client), nil)
}
