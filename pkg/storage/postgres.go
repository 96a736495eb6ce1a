package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/opsassess/m365-readiness/pkg/models"
)

//go:embed migrations/*.sql
var postgresFS embed.FS

// PostgresStore implements Store interface using PostgreSQL
type PostgresStore struct {
	db  *sql.DB
	dsn string
}

// NewPostgresStore creates a new PostgreSQL store
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgresStore{
		db:  db,
		dsn: dsn,
	}

	// Run migrations
	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// migrate runs database migrations
func (s *PostgresStore) migrate() error {
	schema, err := postgresFS.ReadFile("migrations/001_postgres_schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema: %w", err)
	}

	if _, err := s.db.Exec(string(schema)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	return nil
}

// SaveRun persists one run and its recommendations atomically.
func (s *PostgresStore) SaveRun(ctx context.Context, run *models.RunRecord, recs []*models.Recommendation) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO assessment_runs (
			id, tenant_id, services, recommendation_count, degraded_services,
			started_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		run.ID, run.TenantID, joinServices(run.Services),
		run.RecommendationCount, joinServices(run.DegradedServices),
		run.StartedAt, run.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for _, rec := range recs {
		if rec.ID == "" {
			rec.ID = uuid.New().String()
		}
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = time.Now()
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO recommendations (
				id, run_id, service, feature, status, priority,
				observation, recommendation, link_text, link_url, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`,
			rec.ID, run.ID, string(rec.Service), rec.Feature, rec.Status,
			string(rec.Priority), rec.Observation, rec.Recommendation,
			rec.LinkText, rec.LinkURL, rec.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert recommendation: %w", err)
		}
	}

	return tx.Commit()
}

// GetRun retrieves a run by ID
func (s *PostgresStore) GetRun(ctx context.Context, id string) (*models.RunRecord, error) {
	var run models.RunRecord
	var services, degraded string

	err := s.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, services, recommendation_count, degraded_services,
			started_at, completed_at
		FROM assessment_runs
		WHERE id = $1
	`, id).Scan(
		&run.ID, &run.TenantID, &services, &run.RecommendationCount,
		&degraded, &run.StartedAt, &run.CompletedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, err
	}

	run.Services = splitServices(services)
	run.DegradedServices = splitServices(degraded)
	return &run, nil
}

// ListRuns retrieves recent runs, newest first. An empty tenantID lists
// runs for every tenant.
func (s *PostgresStore) ListRuns(ctx context.Context, tenantID string, limit int) ([]*models.RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, tenant_id, services, recommendation_count, degraded_services,
			started_at, completed_at
		FROM assessment_runs
	`
	args := []interface{}{}
	if tenantID != "" {
		query += " WHERE tenant_id = $1"
		args = append(args, tenantID)
	}
	query += fmt.Sprintf(" ORDER BY started_at DESC LIMIT %d", limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*models.RunRecord
	for rows.Next() {
		var run models.RunRecord
		var services, degraded string
		if err := rows.Scan(
			&run.ID, &run.TenantID, &services, &run.RecommendationCount,
			&degraded, &run.StartedAt, &run.CompletedAt,
		); err != nil {
			return nil, err
		}
		run.Services = splitServices(services)
		run.DegradedServices = splitServices(degraded)
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

// ListRecommendations retrieves all recommendations of one run
func (s *PostgresStore) ListRecommendations(ctx context.Context, runID string) ([]*models.Recommendation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, service, feature, status, priority,
			observation, recommendation, link_text, link_url, created_at
		FROM recommendations
		WHERE run_id = $1
		ORDER BY created_at
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*models.Recommendation
	for rows.Next() {
		var rec models.Recommendation
		var service, priority string
		if err := rows.Scan(
			&rec.ID, &service, &rec.Feature, &rec.Status, &priority,
			&rec.Observation, &rec.Recommendation, &rec.LinkText, &rec.LinkURL,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		rec.Service = models.Service(service)
		rec.Priority = models.Priority(priority)
		recs = append(recs, &rec)
	}
	return recs, rows.Err()
}

// Ping checks database connectivity
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func joinServices(services []models.Service) string {
	names := make([]string, len(services))
	for i, svc := range services {
		names[i] = string(svc)
	}
	return strings.Join(names, ",")
}

func splitServices(joined string) []models.Service {
	if joined == "" {
		return nil
	}
	parts := strings.Split(joined, ",")
	services := make([]models.Service, len(parts))
	for i, p := range parts {
		services[i] = models.Service(p)
	}
	return services
}
