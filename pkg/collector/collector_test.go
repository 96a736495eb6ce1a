package collector

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opsassess/m365-readiness/pkg/auth"
	"github.com/opsassess/m365-readiness/pkg/bridge"
	"github.com/opsassess/m365-readiness/pkg/licensecache"
	"github.com/opsassess/m365-readiness/pkg/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestClient wires a scoped client against an in-process API server,
// with a stub identity provider answering the token mint.
func newTestClient(t *testing.T, backend auth.Backend, handler http.Handler) *auth.ScopedClient {
	t.Helper()

	idp := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "test-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))
	t.Cleanup(idp.Close)

	api := httptest.NewServer(handler)
	t.Cleanup(api.Close)

	broker := auth.NewBroker(auth.Options{
		TenantID:     "tenant-1",
		ClientID:     "client-1",
		ClientSecret: "secret",
		AuthorityURL: idp.URL,
		Endpoints: map[auth.Backend]auth.Endpoint{
			backend: {Scope: "https://example.test/.default", BaseURL: api.URL},
		},
	})

	client, err := broker.ScopedClient(context.Background(), backend)
	require.NoError(t, err)
	return client
}

// staticCache returns a pre-filled license cache that never touches the
// network.
func staticCache(licenses []*models.License) *licensecache.Cache {
	return licensecache.New(func(ctx context.Context) ([]*models.License, error) {
		return licenses, nil
	}, nil)
}

// shRunner builds a bridge runner around an inline shell script.
func shRunner(script string) *bridge.Runner {
	return &bridge.Runner{Command: "sh", Args: []string{"-c", script}}
}
