package service

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/anyulbade/lei-cost-enricher/internal/model"
)

// ComputeCost applies the per-country transaction cost formula. The NL and GB
// formulas differ on purpose: NL divides by the rate and takes the absolute
// value, GB multiplies.
func ComputeCost(country string, notional, rate float64, log zerolog.Logger) model.CostResult {
	if math.IsNaN(rate) || math.IsNaN(notional) {
		log.Warn().Msg("notional or rate missing, skipping calculation")
		return model.Undefined()
	}
	if rate == 0 {
		log.Warn().Msg("rate is zero, skipping calculation")
		return model.Undefined()
	}

	c, ok := model.ParseCountry(country)
	if !ok {
		log.Warn().Str("country", country).Msg("unsupported country, no transaction costs calculated")
		return model.Unsupported()
	}

	switch c {
	case model.CountryNL:
		return model.Computed(math.Abs(float64(notional*(1/rate)) - notional))
	case model.CountryGB:
		return model.Computed(float64(notional*rate) - notional)
	}
	return model.Unsupported()
}
