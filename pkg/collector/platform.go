package collector

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/opsassess/m365-readiness/pkg/bridge"
	"github.com/opsassess/m365-readiness/pkg/models"
)

// PlatformCollector fetches environment, flow, app and connector data.
// The platform backend requires interactive authentication this process
// cannot perform, so the raw payload comes through a bridged process
// (or its environment-variable channel) rather than a direct API call.
type PlatformCollector struct {
	runner *bridge.Runner
	logger *slog.Logger
}

// NewPlatformCollector creates the power platform collector.
func NewPlatformCollector(runner *bridge.Runner, logger *slog.Logger) *PlatformCollector {
	return &PlatformCollector{runner: runner, logger: logger}
}

func (p *PlatformCollector) Service() models.Service { return models.ServicePowerPlatform }
func (p *PlatformCollector) Name() string            { return "platform" }

// platformPayload is the single JSON document the bridged collector
// emits.
type platformPayload struct {
	Environments []struct {
		Name  string `json:"name"`
		Type  string `json:"type"`
		State string `json:"state"`
	} `json:"environments"`
	Flows []struct {
		Name     string `json:"name"`
		Category string `json:"category"`
		State    string `json:"state"`
	} `json:"flows"`
	Apps []struct {
		Name string `json:"name"`
		Type string `json:"type"`
	} `json:"apps"`
	Connections []struct {
		Name   string `json:"name"`
		Tier   string `json:"tier"`
		Custom bool   `json:"custom"`
	} `json:"connections"`
	Agents []struct {
		Name string `json:"name"`
	} `json:"agents"`
}

// Collect runs the bridged process and normalizes its payload.
func (p *PlatformCollector) Collect(ctx context.Context) *models.SourceSummary {
	raw, err := p.runner.Fetch(ctx)
	if err != nil {
		p.logger.Warn("platform data collection failed", "error", err)
		return degrade(models.ServicePowerPlatform, err)
	}

	var payload platformPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return models.Unavailable(models.ServicePowerPlatform, models.ReasonUnknown,
			"bridged process returned malformed platform data: "+err.Error())
	}

	summary := &models.PlatformSummary{
		TotalEnvironments:  len(payload.Environments),
		EnvironmentsByType: make(map[string]int),
		TotalFlows:         len(payload.Flows),
		TotalApps:          len(payload.Apps),
		TotalConnections:   len(payload.Connections),
		AgentCount:         len(payload.Agents),
	}

	for _, env := range payload.Environments {
		summary.EnvironmentsByType[environmentType(env.Type)]++
		if strings.EqualFold(env.State, "Ready") {
			summary.EnvironmentsReady++
		}
	}

	for _, flow := range payload.Flows {
		if strings.EqualFold(flow.Category, "desktop") {
			summary.DesktopFlows++
		} else {
			summary.CloudFlows++
		}
		if strings.EqualFold(flow.State, "Suspended") {
			summary.SuspendedFlows++
		}
	}

	for _, app := range payload.Apps {
		switch strings.ToLower(app.Type) {
		case "canvas":
			summary.CanvasApps++
		case "model", "modeldriven", "model-driven":
			summary.ModelDrivenApps++
		case "teams":
			summary.TeamsApps++
		}
	}

	for _, conn := range payload.Connections {
		if conn.Custom {
			summary.CustomConnectors++
		}
		if strings.EqualFold(conn.Tier, "Premium") {
			summary.PremiumConnectors++
		}
	}

	return &models.SourceSummary{
		Service:     models.ServicePowerPlatform,
		Available:   true,
		CollectedAt: time.Now(),
		Platform:    summary,
	}
}

func environmentType(t string) string {
	switch strings.ToLower(t) {
	case "production", "sandbox", "developer", "default", "trial":
		return strings.ToLower(t)
	default:
		return "other"
	}
}
