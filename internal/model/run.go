package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	SourceBatch = "batch"
	SourceAPI   = "api"
)

// Run is one pass of the enrichment pipeline over a table.
type Run struct {
	ID         uuid.UUID `json:"id"`
	Source     string    `json:"source"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Summary    Summary   `json:"summary"`
}
