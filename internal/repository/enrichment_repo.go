package repository

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/anyulbade/lei-cost-enricher/internal/model"
)

type EnrichmentRepository struct {
	pool *pgxpool.Pool
}

func NewEnrichmentRepository(pool *pgxpool.Pool) *EnrichmentRepository {
	return &EnrichmentRepository{pool: pool}
}

// SaveRun stores the run and all its rows in one transaction.
func (r *EnrichmentRepository) SaveRun(ctx context.Context, run *model.Run, rows []*model.Row) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin run transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	s := run.Summary
	_, err = tx.Exec(ctx,
		`INSERT INTO enrichment_runs (id, source, started_at, finished_at, row_count, enriched_count, lookup_failed,
			no_attributes, lei_mismatch, costs_computed, costs_undefined, costs_unsupported)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		run.ID, run.Source, run.StartedAt, run.FinishedAt, s.Rows, s.Enriched, s.LookupFailed,
		s.NoAttributes, s.LEIMismatch, s.Computed, s.Undefined, s.Unsupported,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	batch := &pgx.Batch{}
	for _, row := range rows {
		var status *string
		if row.Enriched {
			st := row.Cost.Kind.String()
			status = &st
		}
		batch.Queue(
			`INSERT INTO enriched_rows (run_id, row_index, lei, notional, rate, legal_name, bic, transaction_costs, cost_status, enriched)
			VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6, $7, $8::numeric, $9, $10)`,
			run.ID, row.Index, row.LEI, toDecimal(row.Notional), toDecimal(row.Rate),
			row.LegalName, row.BIC, toDecimalPtr(row.TransactionCosts), status, row.Enriched,
		)
	}

	br := tx.SendBatch(ctx, batch)
	for i := range rows {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("insert row %d: %w", i, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *EnrichmentRepository) FindRun(ctx context.Context, id uuid.UUID) (*model.Run, error) {
	run := &model.Run{}
	s := &run.Summary
	err := r.pool.QueryRow(ctx,
		`SELECT id, source, started_at, finished_at, row_count, enriched_count, lookup_failed,
			no_attributes, lei_mismatch, costs_computed, costs_undefined, costs_unsupported
		FROM enrichment_runs WHERE id = $1`, id).
		Scan(&run.ID, &run.Source, &run.StartedAt, &run.FinishedAt, &s.Rows, &s.Enriched, &s.LookupFailed,
			&s.NoAttributes, &s.LEIMismatch, &s.Computed, &s.Undefined, &s.Unsupported)
	if err != nil {
		return nil, err
	}
	return run, nil
}

func (r *EnrichmentRepository) FindRows(ctx context.Context, runID uuid.UUID, limit, offset int) ([]*model.Row, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT row_index, lei, COALESCE(notional::text, ''), COALESCE(rate::text, ''), legal_name, bic,
			COALESCE(transaction_costs::text, ''), COALESCE(cost_status, ''), enriched
		FROM enriched_rows WHERE run_id = $1 ORDER BY row_index
		LIMIT $2 OFFSET $3`, runID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer rows.Close()

	var result []*model.Row
	for rows.Next() {
		var (
			row                  model.Row
			notional, rate, cost string
			status               string
		)
		if err := rows.Scan(&row.Index, &row.LEI, &notional, &rate, &row.LegalName, &row.BIC, &cost, &status, &row.Enriched); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row.Notional = fromDecimal(notional)
		row.Rate = fromDecimal(rate)
		if cost != "" {
			v := fromDecimal(cost)
			row.TransactionCosts = &v
		}
		row.Cost = model.CostResult{Kind: model.ParseCostKind(status)}
		if row.TransactionCosts != nil {
			row.Cost.Value = *row.TransactionCosts
		}
		result = append(result, &row)
	}
	return result, rows.Err()
}

// toDecimal maps NaN to NULL.
func toDecimal(f float64) *string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	s := decimal.NewFromFloat(f).String()
	return &s
}

func toDecimalPtr(f *float64) *string {
	if f == nil {
		return nil
	}
	return toDecimal(*f)
}

func fromDecimal(s string) float64 {
	if s == "" {
		return math.NaN()
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return math.NaN()
	}
	return d.InexactFloat64()
}
