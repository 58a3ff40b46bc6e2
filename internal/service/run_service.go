package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/anyulbade/lei-cost-enricher/internal/model"
	"github.com/anyulbade/lei-cost-enricher/internal/registry"
)

var ErrPersistenceDisabled = errors.New("run persistence is disabled")

// RunStore persists finished runs. It is optional.
type RunStore interface {
	SaveRun(ctx context.Context, run *model.Run, rows []*model.Row) error
	FindRun(ctx context.Context, id uuid.UUID) (*model.Run, error)
	FindRows(ctx context.Context, runID uuid.UUID, limit, offset int) ([]*model.Row, error)
}

type RunService struct {
	fetcher registry.Fetcher
	store   RunStore
	workers int
	log     zerolog.Logger
	now     func() time.Time
}

func NewRunService(fetcher registry.Fetcher, store RunStore, workers int, log zerolog.Logger) *RunService {
	return &RunService{
		fetcher: fetcher,
		store:   store,
		workers: workers,
		log:     log,
		now:     time.Now,
	}
}

// Execute enriches rows with a cache that lives exactly as long as this call.
// A persistence failure is logged and does not fail the run.
func (s *RunService) Execute(ctx context.Context, source string, rows []*model.Row) *model.Run {
	run := &model.Run{ID: uuid.New(), Source: source, StartedAt: s.now().UTC()}
	log := s.log.With().Str("run_id", run.ID.String()).Str("source", source).Logger()

	cache := registry.NewCache(s.fetcher, log)
	run.Summary = NewEnrichmentService(cache, s.workers, log).Enrich(ctx, rows)
	run.FinishedAt = s.now().UTC()

	if s.store != nil {
		if err := s.store.SaveRun(ctx, run, rows); err != nil {
			log.Error().Err(err).Msg("failed to persist run")
		} else {
			log.Info().Int("rows", len(rows)).Msg("run persisted")
		}
	}
	return run
}

// Get returns a persisted run with one page of its rows.
func (s *RunService) Get(ctx context.Context, id uuid.UUID, limit, offset int) (*model.Run, []*model.Row, error) {
	if s.store == nil {
		return nil, nil, ErrPersistenceDisabled
	}
	run, err := s.store.FindRun(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rows, err := s.store.FindRows(ctx, id, limit, offset)
	if err != nil {
		return nil, nil, err
	}
	return run, rows, nil
}
