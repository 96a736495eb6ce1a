// Package recommend holds the feature-specific recommendation
// generators and their registration tables. Generators read the
// pre-computed insights for their service; only generators that must
// probe a backend directly declare the client capability and run
// deferred.
package recommend

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/opsassess/m365-readiness/pkg/models"
	"github.com/opsassess/m365-readiness/pkg/registry"
)

// RegisterAll registers every feature generator with the registry.
func RegisterAll(reg *registry.Registry) {
	registerM365(reg)
	registerPowerPlatform(reg)
	registerDefender(reg)
	registerPurview(reg)
}

// newRec builds one recommendation record. Observations without an
// action carry no priority.
func newRec(svc models.Service, feature, status, observation, recommendation string, priority models.Priority, linkText, linkURL string) *models.Recommendation {
	if recommendation == "" {
		priority = models.PriorityNone
	}
	return &models.Recommendation{
		ID:             uuid.NewString(),
		Service:        svc,
		Feature:        feature,
		Status:         status,
		Observation:    observation,
		Recommendation: recommendation,
		Priority:       priority,
		LinkText:       linkText,
		LinkURL:        linkURL,
		CreatedAt:      time.Now(),
	}
}

// one wraps a single record as a generator result.
func one(rec *models.Recommendation) []*models.Recommendation {
	if rec == nil {
		return nil
	}
	return []*models.Recommendation{rec}
}

func containsUpper(s, substr string) bool {
	return strings.Contains(strings.ToUpper(s), substr)
}
