package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/opsassess/m365-readiness/pkg/auth"
	"github.com/opsassess/m365-readiness/pkg/catalog"
	"github.com/opsassess/m365-readiness/pkg/insights"
	"github.com/opsassess/m365-readiness/pkg/models"
)

// gatherConcurrency bounds how many deferred generators run at once.
const gatherConcurrency = 8

// GenerateFunc produces zero or more recommendations for one feature.
// The input has already been narrowed to the generator's declared needs.
type GenerateFunc func(ctx context.Context, in Input) ([]*models.Recommendation, error)

// Input carries everything a generator could ask for. The dispatcher
// blanks out any dependency the generator did not declare.
type Input struct {
	Service models.Service
	Feature string
	SKUName string
	Status  string

	Insights insights.Map
	Client   *auth.ScopedClient
	Licenses []*models.License
}

// Dispatcher routes features through the registry for one run. It
// tracks which features it has already handled: a feature appearing
// under several SKUs is dispatched for the first one only.
type Dispatcher struct {
	reg        *Registry
	dispatches *prometheus.CounterVec
	logger     *slog.Logger

	mu       sync.Mutex
	seen     map[string]bool
	deferred []deferredCall
}

type deferredCall struct {
	entry Entry
	in    Input
}

// NewDispatcher creates a run-scoped dispatcher. The counter vector,
// when non-nil, is labelled (service, path) per dispatch.
func NewDispatcher(reg *Registry, dispatches *prometheus.CounterVec, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		reg:        reg,
		dispatches: dispatches,
		logger:     logger,
		seen:       make(map[string]bool),
	}
}

// Dispatch handles one feature. Registered immediate generators run
// now; deferred generators are queued for Gather so their latency
// overlaps. Unregistered features get the generic template. Repeat
// dispatches of a feature return nil.
func (d *Dispatcher) Dispatch(ctx context.Context, in Input) []*models.Recommendation {
	key := normalize(in.Feature)

	d.mu.Lock()
	if d.seen[key] {
		d.mu.Unlock()
		return nil
	}
	d.seen[key] = true

	entry, registered := d.reg.Lookup(key)
	if registered && entry.Deferred {
		d.deferred = append(d.deferred, deferredCall{entry: entry, in: in})
		d.mu.Unlock()
		d.count(in.Service, "deferred")
		return nil
	}
	d.mu.Unlock()

	if !registered {
		d.count(in.Service, "fallback")
		return Fallback(in)
	}

	d.count(in.Service, "registered")
	return d.run(ctx, entry, in)
}

// Gather runs every queued deferred generator together and returns
// their recommendations in queue order.
func (d *Dispatcher) Gather(ctx context.Context) []*models.Recommendation {
	d.mu.Lock()
	calls := d.deferred
	d.deferred = nil
	d.mu.Unlock()

	if len(calls) == 0 {
		return nil
	}

	results := make([][]*models.Recommendation, len(calls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(gatherConcurrency)
	for i, call := range calls {
		g.Go(func() error {
			results[i] = d.run(gctx, call.entry, call.in)
			return nil
		})
	}
	g.Wait()

	var recs []*models.Recommendation
	for _, r := range results {
		recs = append(recs, r...)
	}
	return recs
}

// run executes one generator with dependency narrowing. A generator
// error or panic never escapes: the feature degrades to the generic
// template.
func (d *Dispatcher) run(ctx context.Context, e Entry, in Input) []*models.Recommendation {
	recs, err := safeGenerate(ctx, e, narrow(in, e.Needs))
	if err != nil {
		d.logger.Warn("recommendation generator failed",
			"feature", in.Feature, "service", in.Service, "error", err)
		return Fallback(in)
	}
	return recs
}

func safeGenerate(ctx context.Context, e Entry, in Input) (recs []*models.Recommendation, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("generator panicked: %v", p)
		}
	}()
	return e.Generate(ctx, in)
}

// narrow blanks out every dependency the generator did not declare.
func narrow(in Input, needs Capability) Input {
	out := Input{
		Service: in.Service,
		Feature: in.Feature,
		SKUName: in.SKUName,
		Status:  in.Status,
	}
	if needs&NeedsInsights != 0 {
		out.Insights = in.Insights
	}
	if needs&NeedsClient != 0 {
		out.Client = in.Client
	}
	if needs&NeedsLicenses != 0 {
		out.Licenses = in.Licenses
	}
	return out
}

func (d *Dispatcher) count(svc models.Service, path string) {
	if d.dispatches != nil {
		d.dispatches.WithLabelValues(string(svc), path).Inc()
	}
}

// serviceDocs holds the documentation link the generic template points
// at per service.
var serviceDocs = map[models.Service][2]string{
	models.ServiceM365:          {"Microsoft 365 Documentation", "https://learn.microsoft.com/microsoft-365/"},
	models.ServicePowerPlatform: {"Power Platform Documentation", "https://learn.microsoft.com/power-platform/"},
	models.ServiceDefender:      {"Microsoft Defender Documentation", "https://learn.microsoft.com/defender-xdr/"},
	models.ServicePurview:       {"Microsoft Purview Documentation", "https://learn.microsoft.com/purview/"},
}

// Fallback builds the status-driven generic recommendation for a
// feature with no registered generator. Healthy features yield a plain
// observation; disabled or stuck features carry an action.
func Fallback(in Input) []*models.Recommendation {
	feature := catalog.FriendlyPlanName(in.Feature)
	sku := catalog.FriendlySKUName(in.SKUName)
	docs := serviceDocs[in.Service]

	rec := &models.Recommendation{
		ID:        uuid.NewString(),
		Service:   in.Service,
		Feature:   feature,
		Status:    in.Status,
		LinkText:  docs[0],
		LinkURL:   docs[1],
		CreatedAt: time.Now(),
	}

	switch in.Status {
	case models.StatusSuccess:
		rec.Observation = fmt.Sprintf("%s is active in %s", feature, sku)
		rec.Priority = models.PriorityNone
	case models.StatusDisabled:
		rec.Observation = fmt.Sprintf("%s is disabled in %s", feature, sku)
		rec.Recommendation = fmt.Sprintf("Enable %s to make its capabilities available to the tenant's AI assistant workloads.", feature)
		rec.Priority = models.PriorityHigh
	case models.StatusPendingActivation:
		rec.Observation = fmt.Sprintf("%s is pending activation in %s", feature, sku)
		rec.Recommendation = fmt.Sprintf("Complete activation of %s so the licensed capability is actually usable.", feature)
		rec.Priority = models.PriorityHigh
	default:
		rec.Observation = fmt.Sprintf("%s has status %q in %s", feature, in.Status, sku)
		rec.Recommendation = fmt.Sprintf("Resolve the %q status for %s.", in.Status, feature)
		rec.Priority = models.PriorityMedium
	}
	return []*models.Recommendation{rec}
}
