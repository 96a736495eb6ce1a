package collector

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsassess/m365-readiness/pkg/auth"
	"github.com/opsassess/m365-readiness/pkg/models"
)

func defenderLicenses() []*models.License {
	return []*models.License{{
		SkuID:             "sku-e5",
		SkuPartNumber:     "SPE_E5",
		ServiceCategories: []models.Service{models.ServiceM365, models.ServiceDefender},
	}}
}

func securityHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/alerts", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"value":[
			{"severity":"High"},{"severity":"high"},{"severity":"Medium"},{"severity":""}
		]}`))
	})
	mux.HandleFunc("/api/incidents", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"value":[
			{"status":"Active","severity":"High"},
			{"status":"InProgress","severity":"Medium"},
			{"status":"Resolved","severity":"High"}
		]}`))
	})
	mux.HandleFunc("/api/secureScores", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"value":[{"currentScore":45,"maxScore":90}]}`))
	})
	mux.HandleFunc("/api/machines", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"value":[
			{"riskScore":"High"},{"riskScore":"Medium"},{"riskScore":"Low"},{"riskScore":"None"}
		]}`))
	})
	return mux
}

func TestSecurityCollect(t *testing.T) {
	client := newTestClient(t, auth.BackendSecurity, securityHandler())

	c := NewSecurityCollector(client, staticCache(defenderLicenses()), testLogger())
	summary := c.Collect(context.Background())

	require.True(t, summary.Available)
	require.NotNil(t, summary.Security)
	s := summary.Security

	assert.Equal(t, 4, s.TotalAlerts)
	assert.Equal(t, 2, s.AlertsBySeverity["high"])
	assert.Equal(t, 1, s.AlertsBySeverity["unknown"])

	assert.Equal(t, 3, s.TotalIncidents)
	assert.Equal(t, 2, s.ActiveIncidents)
	assert.Equal(t, 2, s.HighSeverityIncidents)

	assert.Equal(t, 45.0, s.SecureScore)
	assert.Equal(t, 50.0, s.SecureScorePercent)

	assert.Equal(t, 4, s.TotalDevices)
	assert.Equal(t, 1, s.HighRiskDevices)
	assert.Equal(t, 1, s.MediumRiskDevices)
	assert.Equal(t, 2, s.LowRiskDevices)
}

func TestSecurityCollectNotLicensed(t *testing.T) {
	licenses := []*models.License{{
		SkuID:             "sku-e3",
		SkuPartNumber:     "SPE_E3",
		ServiceCategories: []models.Service{models.ServiceM365},
	}}

	// The collector must answer from license data without any API traffic.
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request to %s", r.URL.Path)
	})
	client := newTestClient(t, auth.BackendSecurity, handler)

	c := NewSecurityCollector(client, staticCache(licenses), testLogger())
	summary := c.Collect(context.Background())

	require.False(t, summary.Available)
	assert.Equal(t, models.ReasonNotLicensed, summary.Reason)
	assert.Contains(t, summary.Detail, "Business Premium")
}

func TestSecurityCollectDegradesOnAlertsDenied(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	})
	client := newTestClient(t, auth.BackendSecurity, handler)

	c := NewSecurityCollector(client, staticCache(defenderLicenses()), testLogger())
	summary := c.Collect(context.Background())

	require.False(t, summary.Available)
	assert.Equal(t, models.ReasonPermissionDenied, summary.Reason)
}

func TestSecurityCollectToleratesDeviceDenied(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/alerts", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"value":[]}`))
	})
	mux.HandleFunc("/api/machines", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no devices onboarded", http.StatusForbidden)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"value":[]}`))
	})

	client := newTestClient(t, auth.BackendSecurity, mux)

	c := NewSecurityCollector(client, staticCache(defenderLicenses()), testLogger())
	summary := c.Collect(context.Background())

	require.True(t, summary.Available)
	assert.Zero(t, summary.Security.TotalDevices)
}
