package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsassess/m365-readiness/pkg/auth"
	"github.com/opsassess/m365-readiness/pkg/config"
	"github.com/opsassess/m365-readiness/pkg/metrics"
	"github.com/opsassess/m365-readiness/pkg/models"
	"github.com/opsassess/m365-readiness/pkg/recommend"
	"github.com/opsassess/m365-readiness/pkg/registry"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeBackends stands in for the identity provider plus the graph and
// security APIs.
type fakeBackends struct {
	idp      *httptest.Server
	graph    *httptest.Server
	security *httptest.Server
}

func newFakeBackends(t *testing.T) *fakeBackends {
	t.Helper()
	f := &fakeBackends{}

	f.idp = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "test-token", "token_type": "Bearer", "expires_in": 3600,
		})
	}))
	t.Cleanup(f.idp.Close)

	graphMux := http.NewServeMux()
	graphMux.HandleFunc("/subscribedSkus", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"value":[
			{"skuId":"sku-e5","skuPartNumber":"SPE_E5","consumedUnits":80,
			 "prepaidUnits":{"enabled":100},
			 "servicePlans":[
				{"servicePlanName":"EXCHANGE_S_ENTERPRISE","provisioningStatus":"Success"},
				{"servicePlanName":"MTP","provisioningStatus":"PendingActivation"},
				{"servicePlanName":"MIP_S_CLP1","provisioningStatus":"Success"},
				{"servicePlanName":"FLOW_P2","provisioningStatus":"Success"},
				{"servicePlanName":"SOME_UNKNOWN_PLAN","provisioningStatus":"Disabled"}
			 ]}
		]}`))
	})
	graphMux.HandleFunc("/organization", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"value":[{"displayName":"Contoso","verifiedDomains":[{"name":"contoso.com"}]}]}`))
	})
	graphMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"value":[]}`))
	})
	f.graph = httptest.NewServer(graphMux)
	t.Cleanup(f.graph.Close)

	secMux := http.NewServeMux()
	secMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"value":[]}`))
	})
	f.security = httptest.NewServer(secMux)
	t.Cleanup(f.security.Close)

	return f
}

// bridgeScript writes an executable stand-in for a bridged collector.
func bridgeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bridge.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func testConfig(f *fakeBackends) *config.Config {
	return &config.Config{
		TenantID:     "tenant-1",
		ClientID:     "client-1",
		ClientSecret: "secret",
		AuthorityURL: f.idp.URL,

		GraphBaseURL:    f.graph.URL,
		SecurityBaseURL: f.security.URL,

		PlatformScript:   "false",
		ComplianceScript: "false",
		BridgeTimeout:    5 * time.Second,
		CollectTimeout:   10 * time.Second,
		ReportPeriod:     "D30",
	}
}

func newBroker(cfg *config.Config) *auth.Broker {
	return auth.NewBroker(auth.Options{
		TenantID:     cfg.TenantID,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		AuthorityURL: cfg.AuthorityURL,
		Endpoints: map[auth.Backend]auth.Endpoint{
			auth.BackendGraph:    {Scope: "graph/.default", BaseURL: cfg.GraphBaseURL},
			auth.BackendSecurity: {Scope: "security/.default", BaseURL: cfg.SecurityBaseURL},
		},
	})
}

func fullRegistry() *registry.Registry {
	reg := registry.New()
	recommend.RegisterAll(reg)
	return reg
}

const emptyPlatformJSON = `{"environments":[],"flows":[],"apps":[],"connections":[],"agents":[]}`
const emptyComplianceJSON = `{"dlp_policies":{"policies":[]}}`

func TestRunUnknownServiceAbortsBeforeNetwork(t *testing.T) {
	f := newFakeBackends(t)
	f.graph.Config.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request to graph backend: %s", r.URL.Path)
	})

	cfg := testConfig(f)
	p := New(cfg, newBroker(cfg), fullRegistry(), metrics.New(), testLogger())

	_, err := p.Run(context.Background(), []string{"m365", "nonsense"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown service")
}

func TestRunMissingCredentialsIsFatal(t *testing.T) {
	f := newFakeBackends(t)
	cfg := testConfig(f)
	cfg.ClientSecret = ""

	p := New(cfg, newBroker(cfg), fullRegistry(), metrics.New(), testLogger())

	_, err := p.Run(context.Background(), nil)
	require.ErrorIs(t, err, auth.ErrAuthentication)
}

func TestRunRejectedCredentialIsFatal(t *testing.T) {
	f := newFakeBackends(t)
	f.idp.Config.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid_client"}`))
	})

	cfg := testConfig(f)
	p := New(cfg, newBroker(cfg), fullRegistry(), metrics.New(), testLogger())

	// A wrong secret must abort the whole run, not complete with every
	// service degraded.
	_, err := p.Run(context.Background(), nil)
	require.ErrorIs(t, err, auth.ErrCredentialUnavailable)
}

func TestRunDegradedBridgeDoesNotAbortRun(t *testing.T) {
	f := newFakeBackends(t)
	cfg := testConfig(f)
	cfg.PlatformScript = bridgeScript(t, "echo 'pac auth required' >&2; exit 1")
	t.Setenv("READINESS_COMPLIANCE_DATA", emptyComplianceJSON)

	p := New(cfg, newBroker(cfg), fullRegistry(), metrics.New(), testLogger())

	result, err := p.Run(context.Background(), nil)
	require.NoError(t, err)

	require.Contains(t, result.Degraded, models.ServicePowerPlatform)
	assert.False(t, result.Services[models.ServicePowerPlatform].Summary.Available)

	// The other sources still produced data.
	assert.True(t, result.Services[models.ServiceM365].Summary.Available)
	assert.True(t, result.Services[models.ServicePurview].Summary.Available)
	assert.NotEmpty(t, result.Recommendations)
}

func TestRunDegradedComplianceGetsFallbackOnly(t *testing.T) {
	f := newFakeBackends(t)
	cfg := testConfig(f)
	cfg.ComplianceScript = bridgeScript(t, "echo 'Connect-IPPSSession failed' >&2; exit 1")
	t.Setenv("READINESS_PLATFORM_DATA", emptyPlatformJSON)

	p := New(cfg, newBroker(cfg), fullRegistry(), metrics.New(), testLogger())

	result, err := p.Run(context.Background(), nil)
	require.NoError(t, err)
	require.Contains(t, result.Degraded, models.ServicePurview)

	// Generators that cannot see compliance data defer to the generic
	// status-driven record: an observation with no action for healthy
	// plans, never an insight-derived recommendation.
	purview := result.Services[models.ServicePurview]
	require.NotEmpty(t, purview.Recommendations)
	for _, rec := range purview.Recommendations {
		assert.Equal(t, models.StatusSuccess, rec.Status)
		assert.Empty(t, rec.Recommendation)
		assert.Equal(t, models.PriorityNone, rec.Priority)
	}
}

func TestRunFetchesLicensesOnce(t *testing.T) {
	f := newFakeBackends(t)
	cfg := testConfig(f)
	t.Setenv("READINESS_PLATFORM_DATA", emptyPlatformJSON)
	t.Setenv("READINESS_COMPLIANCE_DATA", emptyComplianceJSON)

	m := metrics.New()
	p := New(cfg, newBroker(cfg), fullRegistry(), m, testLogger())

	// m365, defender and the dispatch phase all read the license cache.
	_, err := p.Run(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.LicenseFetches))
}

func TestRunCollectsSourcesInParallel(t *testing.T) {
	f := newFakeBackends(t)
	cfg := testConfig(f)

	delay := "sleep 0.4"
	cfg.PlatformScript = bridgeScript(t, delay+fmt.Sprintf("\nprintf '%%s' '%s'", emptyPlatformJSON))
	cfg.ComplianceScript = bridgeScript(t, delay+fmt.Sprintf("\nprintf '%%s' '%s'", emptyComplianceJSON))

	p := New(cfg, newBroker(cfg), fullRegistry(), metrics.New(), testLogger())

	start := time.Now()
	result, err := p.Run(context.Background(), nil)
	elapsed := time.Since(start)

	require.NoError(t, err)
	require.Len(t, result.Services, 4)
	assert.Less(t, elapsed, 700*time.Millisecond,
		"collectors ran sequentially: two 400ms bridges took %v", elapsed)
}

func TestRunDispatchesFeaturesAtMostOnce(t *testing.T) {
	f := newFakeBackends(t)
	cfg := testConfig(f)
	t.Setenv("READINESS_PLATFORM_DATA", emptyPlatformJSON)
	t.Setenv("READINESS_COMPLIANCE_DATA", emptyComplianceJSON)

	p := New(cfg, newBroker(cfg), fullRegistry(), metrics.New(), testLogger())

	result, err := p.Run(context.Background(), nil)
	require.NoError(t, err)

	byFeature := make(map[string]int)
	for _, rec := range result.Recommendations {
		byFeature[rec.Feature]++
	}

	// The unknown plan appears once via the generic fallback, with the
	// Disabled status raising its priority.
	var fallback *models.Recommendation
	for _, rec := range result.Recommendations {
		if rec.Status == models.StatusDisabled && rec.Service == models.ServiceM365 {
			fallback = rec
		}
	}
	require.NotNil(t, fallback)
	assert.Equal(t, models.PriorityHigh, fallback.Priority)
	assert.Equal(t, 1, byFeature[fallback.Feature])
}

func TestRunScopesToRequestedServices(t *testing.T) {
	f := newFakeBackends(t)
	cfg := testConfig(f)
	t.Setenv("READINESS_PLATFORM_DATA", emptyPlatformJSON)

	p := New(cfg, newBroker(cfg), fullRegistry(), metrics.New(), testLogger())

	result, err := p.Run(context.Background(), []string{"Power Platform"})
	require.NoError(t, err)

	require.Len(t, result.Services, 1)
	assert.Contains(t, result.Services, models.ServicePowerPlatform)
	for _, rec := range result.Recommendations {
		assert.Equal(t, models.ServicePowerPlatform, rec.Service)
	}
}
