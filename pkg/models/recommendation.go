package models

import "time"

// Priority indicates how urgently a recommendation should be acted on.
// Observations without a recommended action carry no priority.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
	PriorityNone   Priority = ""
)

// Recommendation is one structured observation/action record tied to a
// feature. Never mutated after creation.
type Recommendation struct {
	ID      string
	Service Service
	Feature string
	Status  string

	Observation    string
	Recommendation string
	Priority       Priority

	LinkText string
	LinkURL  string

	CreatedAt time.Time
}

// RunRecord captures one completed assessment run for history storage.
type RunRecord struct {
	ID                  string
	TenantID            string
	Services            []Service
	RecommendationCount int
	DegradedServices    []Service
	StartedAt           time.Time
	CompletedAt         time.Time
}
