package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// APIError is a non-2xx backend response.
type APIError struct {
	Backend    Backend
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API returned HTTP %d: %s", e.Backend, e.StatusCode, e.Body)
}

// IsPermissionDenied reports whether err is a 401/403 backend response.
func IsPermissionDenied(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusForbidden || apiErr.StatusCode == http.StatusUnauthorized
	}
	return false
}

// IsNotFound reports whether err is a 404 backend response. Report
// endpoints answer 404 when the tenant's license does not include them.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// ScopedClient is a call surface bound to one backend's base URL, with a
// bearer token for that backend's scope injected on every request.
type ScopedClient struct {
	backend Backend
	baseURL string
	http    *http.Client
}

// Backend returns the backend this client is scoped to.
func (c *ScopedClient) Backend() Backend {
	return c.backend
}

// Get performs an authenticated GET and returns the raw body. Report
// endpoints return CSV rather than JSON, so the body stays opaque here.
func (c *ScopedClient) Get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", c.backend, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", c.backend, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Backend: c.backend, StatusCode: resp.StatusCode, Body: truncate(string(body), 300)}
	}
	return body, nil
}

// GetJSON performs an authenticated GET and decodes the JSON response.
func (c *ScopedClient) GetJSON(ctx context.Context, path string, v any) error {
	body, err := c.Get(ctx, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", c.backend, err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
