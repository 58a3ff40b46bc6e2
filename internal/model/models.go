package model

import "fmt"

const (
	ColumnLEI              = "lei"
	ColumnNotional         = "notional"
	ColumnRate             = "rate"
	ColumnLegalName        = "legal_name"
	ColumnBIC              = "bic"
	ColumnTransactionCosts = "transaction_costs"
)

var (
	RequiredColumns   = []string{ColumnLEI, ColumnNotional, ColumnRate}
	EnrichmentColumns = []string{ColumnLegalName, ColumnBIC, ColumnTransactionCosts}
)

// Country routes the cost formula. Only the codes with a formula exist.
type Country string

const (
	CountryNL Country = "NL"
	CountryGB Country = "GB"
)

func ParseCountry(code string) (Country, bool) {
	switch Country(code) {
	case CountryNL:
		return CountryNL, true
	case CountryGB:
		return CountryGB, true
	}
	return "", false
}

type CostKind int

const (
	CostComputed CostKind = iota + 1
	CostUndefined
	CostUnsupported
)

func (k CostKind) String() string {
	switch k {
	case CostComputed:
		return "computed"
	case CostUndefined:
		return "undefined"
	case CostUnsupported:
		return "unsupported"
	}
	return fmt.Sprintf("CostKind(%d)", int(k))
}

// CostResult keeps "not computed" apart from a computed zero.
type CostResult struct {
	Kind  CostKind
	Value float64
}

func Computed(v float64) CostResult { return CostResult{Kind: CostComputed, Value: v} }
func Undefined() CostResult         { return CostResult{Kind: CostUndefined} }
func Unsupported() CostResult       { return CostResult{Kind: CostUnsupported} }

func (r CostResult) Amount() (float64, bool) {
	if r.Kind != CostComputed {
		return 0, false
	}
	return r.Value, true
}

type EntityAttributes struct {
	LegalName string
	BIC       *string
	Country   string
}

// Row is one input record. Index is its position in the input table.
type Row struct {
	Index            int
	LEI              string
	Notional         float64
	Rate             float64
	LegalName        *string
	BIC              *string
	TransactionCosts *float64
	Cost             CostResult
	Enriched         bool
}

// Apply overwrites all three enrichment columns.
func (r *Row) Apply(attrs EntityAttributes, cost CostResult) {
	name := attrs.LegalName
	r.LegalName = &name
	r.BIC = attrs.BIC
	r.Cost = cost
	r.TransactionCosts = nil
	if v, ok := cost.Amount(); ok {
		r.TransactionCosts = &v
	}
	r.Enriched = true
}

type Summary struct {
	Rows         int `json:"rows"`
	Enriched     int `json:"enriched"`
	LookupFailed int `json:"lookup_failed"`
	NoAttributes int `json:"no_attributes"`
	LEIMismatch  int `json:"lei_mismatch"`
	Computed     int `json:"costs_computed"`
	Undefined    int `json:"costs_undefined"`
	Unsupported  int `json:"costs_unsupported"`
}

func ParseCostKind(s string) CostKind {
	switch s {
	case "computed":
		return CostComputed
	case "undefined":
		return CostUndefined
	case "unsupported":
		return CostUnsupported
	}
	return 0
}
