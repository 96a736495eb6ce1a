// Package auth obtains the run's service principal credential and mints
// scoped tokens for each backend.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// ErrAuthentication indicates required identity configuration (tenant,
// client id, client secret) is absent. Fatal for the whole run.
var ErrAuthentication = errors.New("authentication configuration missing")

// ErrCredentialUnavailable indicates the identity provider rejected the
// token request. Fatal for the whole run.
var ErrCredentialUnavailable = errors.New("credential unavailable")

// Backend names one API surface the broker can mint tokens for.
type Backend string

const (
	BackendGraph    Backend = "graph"
	BackendSecurity Backend = "security"
	BackendPlatform Backend = "platform"
)

// Endpoint declares the token scope and call surface of one backend.
type Endpoint struct {
	Scope   string
	BaseURL string
}

// Options configures a Broker.
type Options struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	AuthorityURL string
	Endpoints    map[Backend]Endpoint
	Timeout      time.Duration
}

// Broker mints and caches the run's credential. The credential is created
// lazily on first use and reused for the lifetime of the run.
type Broker struct {
	opts Options

	mu      sync.Mutex
	cred    *Credential
	clients map[Backend]*ScopedClient
}

// Credential is the run-wide service principal identity. It owns one
// token source per requested scope.
type Credential struct {
	tenantID  string
	authority string
	clientID  string
	secret    string

	mu      sync.Mutex
	sources map[string]oauth2.TokenSource
}

// NewBroker creates a broker for the given identity configuration. No
// network traffic happens until Credential or ScopedClient is called.
func NewBroker(opts Options) *Broker {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Broker{
		opts:    opts,
		clients: make(map[Backend]*ScopedClient),
	}
}

// Credential returns the run's credential, creating it on first call.
// Repeated calls return the same instance.
func (b *Broker) Credential(ctx context.Context) (*Credential, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.credentialLocked(ctx)
}

func (b *Broker) credentialLocked(ctx context.Context) (*Credential, error) {
	if b.cred != nil {
		return b.cred, nil
	}

	if b.opts.TenantID == "" || b.opts.ClientID == "" || b.opts.ClientSecret == "" {
		return nil, fmt.Errorf("%w: TENANT_ID, CLIENT_ID and CLIENT_SECRET must all be set", ErrAuthentication)
	}

	b.cred = &Credential{
		tenantID:  b.opts.TenantID,
		authority: strings.TrimRight(b.opts.AuthorityURL, "/"),
		clientID:  b.opts.ClientID,
		secret:    b.opts.ClientSecret,
		sources:   make(map[string]oauth2.TokenSource),
	}
	return b.cred, nil
}

// ScopedClient mints a token for the named backend's declared scope and
// returns a call surface bound to its base URL. Clients are cached per
// backend for the run.
func (b *Broker) ScopedClient(ctx context.Context, backend Backend) (*ScopedClient, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if c, ok := b.clients[backend]; ok {
		return c, nil
	}

	ep, ok := b.opts.Endpoints[backend]
	if !ok {
		return nil, fmt.Errorf("unknown backend %q", backend)
	}

	cred, err := b.credentialLocked(ctx)
	if err != nil {
		return nil, err
	}

	ts := cred.tokenSource(ctx, ep.Scope)

	// Mint eagerly so identity provider rejections surface as a typed
	// failure here instead of inside the first collector call.
	if _, err := ts.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCredentialUnavailable, err)
	}

	client := &ScopedClient{
		backend: backend,
		baseURL: strings.TrimRight(ep.BaseURL, "/"),
		http: &http.Client{
			Transport: &oauth2.Transport{Source: ts},
			Timeout:   b.opts.Timeout,
		},
	}
	b.clients[backend] = client
	return client, nil
}

// tokenSource returns the cached token source for a scope, creating one
// on first use. Callers must not assume exclusive use of the underlying
// token cache.
func (c *Credential) tokenSource(ctx context.Context, scope string) oauth2.TokenSource {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ts, ok := c.sources[scope]; ok {
		return ts
	}

	conf := &clientcredentials.Config{
		ClientID:     c.clientID,
		ClientSecret: c.secret,
		TokenURL:     fmt.Sprintf("%s/%s/oauth2/v2.0/token", c.authority, c.tenantID),
		Scopes:       []string{scope},
	}
	ts := conf.TokenSource(ctx)
	c.sources[scope] = ts
	return ts
}

// TenantID returns the tenant this credential authenticates against.
func (c *Credential) TenantID() string {
	return c.tenantID
}
