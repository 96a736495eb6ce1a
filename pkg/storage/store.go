package storage

import (
	"context"

	"github.com/opsassess/m365-readiness/pkg/models"
)

// Store defines the interface for assessment history persistence
type Store interface {
	SaveRun(ctx context.Context, run *models.RunRecord, recs []*models.Recommendation) error
	GetRun(ctx context.Context, id string) (*models.RunRecord, error)
	ListRuns(ctx context.Context, tenantID string, limit int) ([]*models.RunRecord, error)
	ListRecommendations(ctx context.Context, runID string) ([]*models.Recommendation, error)

	Ping(ctx context.Context) error
	Close() error
}

type Config struct {
	URL     string
	Timeout int
}
