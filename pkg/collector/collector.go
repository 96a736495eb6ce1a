// Package collector fetches raw domain objects from each backend and
// normalizes them into per-service summaries. Collectors never let an
// error escape: every failure is converted into a typed unavailable
// summary at this boundary.
package collector

import (
	"context"
	"errors"
	"fmt"

	"github.com/opsassess/m365-readiness/pkg/auth"
	"github.com/opsassess/m365-readiness/pkg/bridge"
	"github.com/opsassess/m365-readiness/pkg/models"
)

// Collector defines the interface for collecting one backend's data
type Collector interface {
	Collect(ctx context.Context) *models.SourceSummary
	Service() models.Service
	Name() string
}

// degrade converts a collection error into an unavailable summary with a
// typed reason. "Not licensed" never comes through here; collectors
// detect that state explicitly from license data.
func degrade(svc models.Service, err error) *models.SourceSummary {
	switch {
	case auth.IsPermissionDenied(err):
		return models.Unavailable(svc, models.ReasonPermissionDenied,
			fmt.Sprintf("Insufficient permissions: %v", err))
	case errors.Is(err, auth.ErrAuthentication), errors.Is(err, auth.ErrCredentialUnavailable):
		return models.Unavailable(svc, models.ReasonAuthError, err.Error())
	case errors.Is(err, bridge.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return models.Unavailable(svc, models.ReasonTimeout, err.Error())
	default:
		return models.Unavailable(svc, models.ReasonUnknown, err.Error())
	}
}
