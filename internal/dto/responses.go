package dto

import (
	"math"
	"time"

	"github.com/anyulbade/lei-cost-enricher/internal/model"
)

type EnrichedRowResponse struct {
	Index            int      `json:"index"`
	LEI              string   `json:"lei"`
	Notional         *float64 `json:"notional"`
	Rate             *float64 `json:"rate"`
	LegalName        *string  `json:"legal_name"`
	BIC              *string  `json:"bic"`
	TransactionCosts *float64 `json:"transaction_costs"`
	CostStatus       string   `json:"cost_status,omitempty"`
	Enriched         bool     `json:"enriched"`
}

type RunResponse struct {
	ID         string                `json:"id"`
	Source     string                `json:"source"`
	StartedAt  time.Time             `json:"started_at"`
	FinishedAt time.Time             `json:"finished_at"`
	Summary    model.Summary         `json:"summary"`
	Rows       []EnrichedRowResponse `json:"rows"`
	Pagination *Pagination           `json:"pagination,omitempty"`
}

type ValidationError struct {
	Index   int    `json:"index,omitempty"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ErrorListResponse struct {
	Error  string            `json:"error"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

func NewRunResponse(run *model.Run, rows []*model.Row) RunResponse {
	resp := RunResponse{
		ID:         run.ID.String(),
		Source:     run.Source,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		Summary:    run.Summary,
		Rows:       make([]EnrichedRowResponse, len(rows)),
	}
	for i, row := range rows {
		resp.Rows[i] = NewEnrichedRowResponse(row)
	}
	return resp
}

func NewEnrichedRowResponse(row *model.Row) EnrichedRowResponse {
	r := EnrichedRowResponse{
		Index:            row.Index,
		LEI:              row.LEI,
		Notional:         finite(row.Notional),
		Rate:             finite(row.Rate),
		LegalName:        row.LegalName,
		BIC:              row.BIC,
		TransactionCosts: row.TransactionCosts,
		Enriched:         row.Enriched,
	}
	if row.Enriched {
		r.CostStatus = row.Cost.Kind.String()
	}
	return r
}

// finite maps NaN to null, which encoding/json cannot represent.
func finite(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
