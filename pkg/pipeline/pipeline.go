// Package pipeline orchestrates one assessment run: validate scope,
// collect every requested source concurrently, derive insights, then
// dispatch each service's licensed features through the recommendation
// registry.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/opsassess/m365-readiness/pkg/auth"
	"github.com/opsassess/m365-readiness/pkg/bridge"
	"github.com/opsassess/m365-readiness/pkg/catalog"
	"github.com/opsassess/m365-readiness/pkg/collector"
	"github.com/opsassess/m365-readiness/pkg/config"
	"github.com/opsassess/m365-readiness/pkg/insights"
	"github.com/opsassess/m365-readiness/pkg/licensecache"
	"github.com/opsassess/m365-readiness/pkg/metrics"
	"github.com/opsassess/m365-readiness/pkg/models"
	"github.com/opsassess/m365-readiness/pkg/registry"
)

// Phase names one stage of a run, in execution order.
type Phase string

const (
	PhaseInit          Phase = "init"
	PhaseValidateScope Phase = "validate_scope"
	PhaseCollect       Phase = "collect_sources"
	PhaseBuildInsights Phase = "build_insights"
	PhaseDispatch      Phase = "dispatch"
	PhaseAggregate     Phase = "aggregate"
	PhaseDone          Phase = "done"
)

// ServiceReport is one service's slice of the run output.
type ServiceReport struct {
	Service         models.Service
	Summary         *models.SourceSummary
	Insights        insights.Map
	Recommendations []*models.Recommendation
}

// Result is the aggregated outcome of a run.
type Result struct {
	RunID    string
	TenantID string

	Services        map[models.Service]*ServiceReport
	Recommendations []*models.Recommendation
	Degraded        []models.Service

	StartedAt   time.Time
	CompletedAt time.Time
}

// Pipeline wires the collectors, cache and registry for assessment runs.
type Pipeline struct {
	cfg     *config.Config
	broker  *auth.Broker
	reg     *registry.Registry
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates a pipeline. The registry is expected to be fully populated
// before the first run.
func New(cfg *config.Config, broker *auth.Broker, reg *registry.Registry, m *metrics.Metrics, logger *slog.Logger) *Pipeline {
	return &Pipeline{cfg: cfg, broker: broker, reg: reg, metrics: m, logger: logger}
}

// Run executes one assessment over the named services (empty means all).
// Scope and credential validation failures abort the run; any single
// backend failing only degrades that service.
func (p *Pipeline) Run(ctx context.Context, serviceNames []string) (*Result, error) {
	result := &Result{
		RunID:     uuid.NewString(),
		TenantID:  p.cfg.TenantID,
		Services:  make(map[models.Service]*ServiceReport),
		StartedAt: time.Now(),
	}
	p.logPhase(PhaseInit, "run_id", result.RunID)

	p.logPhase(PhaseValidateScope)
	req, err := models.NewServiceRequest(serviceNames)
	if err != nil {
		return nil, fmt.Errorf("invalid service scope: %w", err)
	}
	if err := p.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := p.broker.Credential(ctx); err != nil {
		return nil, err
	}

	services := req.Services()
	cache, collectors, preDegraded, err := p.buildCollectors(ctx, services)
	if err != nil {
		return nil, err
	}

	p.logPhase(PhaseCollect, "services", len(services))
	summaries := p.collect(ctx, collectors)
	for svc, summary := range preDegraded {
		summaries[svc] = summary
	}

	p.logPhase(PhaseBuildInsights)
	for _, svc := range services {
		summary := summaries[svc]
		result.Services[svc] = &ServiceReport{
			Service:  svc,
			Summary:  summary,
			Insights: insights.ForService(summary),
		}
		if !summary.Available {
			result.Degraded = append(result.Degraded, svc)
			p.logger.Warn("service degraded",
				"service", svc, "reason", summary.Reason, "detail", summary.Detail)
		}
	}

	p.logPhase(PhaseDispatch)
	dispatcher := registry.NewDispatcher(p.reg, p.metrics.Dispatches, p.logger)
	p.dispatch(ctx, dispatcher, cache, result)

	p.logPhase(PhaseAggregate)
	for _, svc := range services {
		result.Recommendations = append(result.Recommendations, result.Services[svc].Recommendations...)
	}
	result.CompletedAt = time.Now()

	p.logPhase(PhaseDone,
		"recommendations", len(result.Recommendations),
		"degraded", len(result.Degraded),
		"elapsed", result.CompletedAt.Sub(result.StartedAt).Round(time.Millisecond))
	return result, nil
}

// buildCollectors constructs the collector set for the requested scope.
// A failure to mint the primary (graph) credential aborts the run; a
// secondary backend whose scoped credential cannot be minted is only
// pre-degraded.
func (p *Pipeline) buildCollectors(ctx context.Context, services []models.Service) (*licensecache.Cache, []collector.Collector, map[models.Service]*models.SourceSummary, error) {
	var (
		collectors  []collector.Collector
		preDegraded = make(map[models.Service]*models.SourceSummary)
	)

	// Both the m365 and defender paths read the shared license cache, so
	// the graph client backs it whenever either is in scope.
	var cache *licensecache.Cache
	graphClient, graphErr := p.broker.ScopedClient(ctx, auth.BackendGraph)
	if graphErr != nil {
		if errors.Is(graphErr, auth.ErrAuthentication) || errors.Is(graphErr, auth.ErrCredentialUnavailable) {
			return nil, nil, nil, graphErr
		}
		cache = licensecache.New(func(context.Context) ([]*models.License, error) {
			return nil, graphErr
		}, p.metrics.LicenseFetches)
	} else {
		cache = licensecache.New(collector.FetchLicenses(graphClient), p.metrics.LicenseFetches)
	}

	for _, svc := range services {
		switch svc {
		case models.ServiceM365:
			if graphErr != nil {
				preDegraded[svc] = models.Unavailable(svc, models.ReasonAuthError, graphErr.Error())
				continue
			}
			collectors = append(collectors, collector.NewGraphCollector(graphClient, cache, p.cfg.ReportPeriod, p.logger))

		case models.ServiceDefender:
			secClient, err := p.broker.ScopedClient(ctx, auth.BackendSecurity)
			if err != nil {
				if errors.Is(err, auth.ErrAuthentication) {
					return nil, nil, nil, err
				}
				preDegraded[svc] = models.Unavailable(svc, models.ReasonAuthError, err.Error())
				continue
			}
			collectors = append(collectors, collector.NewSecurityCollector(secClient, cache, p.logger))

		case models.ServicePowerPlatform:
			collectors = append(collectors, collector.NewPlatformCollector(&bridge.Runner{
				Command: p.cfg.PlatformScript,
				Args:    []string{"-DataOnly"},
				Timeout: p.cfg.BridgeTimeout,
				EnvVar:  "READINESS_PLATFORM_DATA",
			}, p.logger))

		case models.ServicePurview:
			collectors = append(collectors, collector.NewComplianceCollector(&bridge.Runner{
				Command: p.cfg.ComplianceScript,
				Args:    []string{"-DataOnly"},
				Timeout: p.cfg.BridgeTimeout,
				EnvVar:  "READINESS_COMPLIANCE_DATA",
			}, p.logger))
		}
	}
	return cache, collectors, preDegraded, nil
}

// collect fans the collectors out and waits for all of them. Collectors
// never return errors; degradation is encoded in the summary.
func (p *Pipeline) collect(ctx context.Context, collectors []collector.Collector) map[models.Service]*models.SourceSummary {
	summaries := make(map[models.Service]*models.SourceSummary, len(collectors))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, c := range collectors {
		g.Go(func() error {
			start := time.Now()

			collectCtx := gctx
			if p.cfg.CollectTimeout > 0 && c.Service() != models.ServicePowerPlatform && c.Service() != models.ServicePurview {
				var cancel context.CancelFunc
				collectCtx, cancel = context.WithTimeout(gctx, p.cfg.CollectTimeout)
				defer cancel()
			}

			summary := c.Collect(collectCtx)

			elapsed := time.Since(start)
			outcome := "ok"
			if !summary.Available {
				outcome = "degraded"
			}
			p.metrics.CollectorRuns.WithLabelValues(string(c.Service()), outcome).Inc()
			p.metrics.CollectorDuration.WithLabelValues(string(c.Service())).Observe(elapsed.Seconds())
			p.logger.Debug("collector finished",
				"collector", c.Name(), "outcome", outcome, "elapsed", elapsed.Round(time.Millisecond))

			mu.Lock()
			summaries[c.Service()] = summary
			mu.Unlock()
			return nil
		})
	}
	g.Wait()
	return summaries
}

// dispatch walks each in-scope service's licensed features through the
// registry, in parallel across services. The shared dispatcher enforces
// at-most-once per feature; deferred generators are gathered at the end
// and attributed to their service.
func (p *Pipeline) dispatch(ctx context.Context, dispatcher *registry.Dispatcher, cache *licensecache.Cache, result *Result) {
	licenses, err := cache.GetOrFetch(ctx)
	if err != nil {
		p.logger.Warn("license data unavailable; skipping feature dispatch", "error", err)
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	for svc, report := range result.Services {
		g.Go(func() error {
			var recs []*models.Recommendation
			for _, lic := range licenses {
				for _, plan := range lic.ServicePlans {
					if catalog.ServiceFor(plan.Name) != svc {
						continue
					}
					// Tag the license as observed by this service's
					// analysis pass.
					cache.Merge(lic, svc)

					recs = append(recs, dispatcher.Dispatch(gctx, registry.Input{
						Service:  svc,
						Feature:  plan.Name,
						SKUName:  lic.SkuPartNumber,
						Status:   plan.ProvisioningStatus,
						Insights: report.Insights,
						Client:   p.clientFor(gctx, svc),
						Licenses: licenses,
					})...)
				}
			}
			report.Recommendations = recs
			return nil
		})
	}
	g.Wait()

	// Deferred generators ran nowhere yet; gather them together and file
	// each result under its service.
	for _, rec := range dispatcher.Gather(ctx) {
		if report, ok := result.Services[rec.Service]; ok {
			report.Recommendations = append(report.Recommendations, rec)
		} else {
			result.Recommendations = append(result.Recommendations, rec)
		}
	}
}

// clientFor returns the scoped client a generator with the client
// capability would use, or nil for bridged services.
func (p *Pipeline) clientFor(ctx context.Context, svc models.Service) *auth.ScopedClient {
	var backend auth.Backend
	switch svc {
	case models.ServiceM365:
		backend = auth.BackendGraph
	case models.ServiceDefender:
		backend = auth.BackendSecurity
	default:
		return nil
	}
	client, err := p.broker.ScopedClient(ctx, backend)
	if err != nil {
		return nil
	}
	return client
}

func (p *Pipeline) logPhase(phase Phase, args ...any) {
	p.logger.Info("pipeline phase", append([]any{"phase", string(phase)}, args...)...)
}
