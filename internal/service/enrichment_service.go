package service

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/anyulbade/lei-cost-enricher/internal/model"
)

// Lookup is the memoized registry access the enricher depends on.
type Lookup interface {
	Get(ctx context.Context, lei string) (*model.RegistryRecord, bool)
}

type rowOutcome struct {
	lookupFailed bool
	extract      ExtractOutcome
	cost         model.CostKind
}

type EnrichmentService struct {
	lookup  Lookup
	workers int
	log     zerolog.Logger
}

func NewEnrichmentService(lookup Lookup, workers int, log zerolog.Logger) *EnrichmentService {
	if workers < 1 {
		workers = 1
	}
	return &EnrichmentService{
		lookup:  lookup,
		workers: workers,
		log:     log.With().Str("component", "enricher").Logger(),
	}
}

// Enrich mutates rows in place. Row-level failures are logged and leave the
// row's enrichment columns untouched; they never abort the run.
func (s *EnrichmentService) Enrich(ctx context.Context, rows []*model.Row) model.Summary {
	outcomes := make([]rowOutcome, len(rows))

	if s.workers == 1 {
		for i, row := range rows {
			outcomes[i] = s.enrichRow(ctx, row)
		}
	} else {
		g := new(errgroup.Group)
		g.SetLimit(s.workers)
		for i, row := range rows {
			g.Go(func() error {
				outcomes[i] = s.enrichRow(ctx, row)
				return nil
			})
		}
		_ = g.Wait()
	}

	summary := summarize(outcomes)
	s.log.Info().
		Int("rows", summary.Rows).
		Int("enriched", summary.Enriched).
		Int("lookup_failed", summary.LookupFailed).
		Int("no_attributes", summary.NoAttributes).
		Int("lei_mismatch", summary.LEIMismatch).
		Msg("enrichment finished")
	return summary
}

func (s *EnrichmentService) enrichRow(ctx context.Context, row *model.Row) rowOutcome {
	rec, ok := s.lookup.Get(ctx, row.LEI)
	if !ok {
		s.log.Warn().Int("row", row.Index).Str("lei", row.LEI).Msg("skipping row due to missing data")
		return rowOutcome{lookupFailed: true}
	}

	log := s.log.With().Int("row", row.Index).Str("lei", row.LEI).Logger()
	attrs, outcome := Extract(row.LEI, rec, log)
	if outcome != Extracted {
		return rowOutcome{extract: outcome}
	}

	cost := ComputeCost(attrs.Country, row.Notional, row.Rate, log)
	if v, ok := cost.Amount(); ok {
		event := log.Info().Str("legal_name", attrs.LegalName).Str("country", attrs.Country).Float64("transaction_costs", v)
		if attrs.BIC != nil {
			event = event.Str("bic", *attrs.BIC)
		}
		event.Msg("calculated transaction costs")
	}

	row.Apply(attrs, cost)
	return rowOutcome{extract: Extracted, cost: cost.Kind}
}

func summarize(outcomes []rowOutcome) model.Summary {
	summary := model.Summary{Rows: len(outcomes)}
	for _, o := range outcomes {
		switch {
		case o.lookupFailed:
			summary.LookupFailed++
		case o.extract == LEIMismatch:
			summary.LEIMismatch++
		case o.extract != Extracted:
			summary.NoAttributes++
		default:
			summary.Enriched++
		}
		switch o.cost {
		case model.CostComputed:
			summary.Computed++
		case model.CostUndefined:
			summary.Undefined++
		case model.CostUnsupported:
			summary.Unsupported++
		}
	}
	return summary
}
