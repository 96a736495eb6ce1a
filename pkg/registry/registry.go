// Package registry maps feature identifiers to recommendation
// generators and dispatches collected tenant state through them. Every
// known feature gets a purpose-built generator registered at startup;
// anything else falls through to a status-driven generic template.
package registry

import (
	"fmt"
	"strings"
	"sync"
)

// Capability declares which dependencies a generator reads. The
// dispatcher passes a generator only the dependencies it declares,
// so generators that want a raw client handle and generators that only
// read pre-computed insights share one dispatch path.
type Capability uint8

const (
	NeedsInsights Capability = 1 << iota
	NeedsClient
	NeedsLicenses
)

// Entry is one registered generator.
type Entry struct {
	Needs    Capability
	Deferred bool
	Generate GenerateFunc
}

// Registry holds the feature-keyed generator table. Registration
// happens at startup; lookups are concurrent afterwards.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// Register binds a generator to a feature identifier. Keys are
// case-insensitive; registering the same feature twice is a programming
// error.
func (r *Registry) Register(feature string, e Entry) error {
	if feature == "" {
		return fmt.Errorf("feature key must not be empty")
	}
	if e.Generate == nil {
		return fmt.Errorf("generator for %q must not be nil", feature)
	}

	key := normalize(feature)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[key]; exists {
		return fmt.Errorf("feature %q already registered", feature)
	}
	r.entries[key] = e
	return nil
}

// MustRegister is Register for startup wiring, where a duplicate key is
// unrecoverable.
func (r *Registry) MustRegister(feature string, e Entry) {
	if err := r.Register(feature, e); err != nil {
		panic(err)
	}
}

// Lookup returns the entry for a feature identifier, if registered.
func (r *Registry) Lookup(feature string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[normalize(feature)]
	return e, ok
}

// Len returns the number of registered generators.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func normalize(feature string) string {
	return strings.ToUpper(strings.TrimSpace(feature))
}
