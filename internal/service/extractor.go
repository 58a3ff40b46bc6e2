package service

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/anyulbade/lei-cost-enricher/internal/model"
)

type ExtractOutcome int

const (
	Extracted ExtractOutcome = iota + 1
	NoData
	MissingAttributes
	MissingLEI
	LEIMismatch
	MissingEntity
)

func (o ExtractOutcome) String() string {
	switch o {
	case Extracted:
		return "extracted"
	case NoData:
		return "no_data"
	case MissingAttributes:
		return "missing_attributes"
	case MissingLEI:
		return "missing_lei"
	case LEIMismatch:
		return "lei_mismatch"
	case MissingEntity:
		return "missing_entity"
	}
	return "unknown"
}

// Extract pulls the enrichment attributes out of a registry record. The
// attributes are only valid when the outcome is Extracted.
func Extract(requestedLEI string, rec *model.RegistryRecord, log zerolog.Logger) (model.EntityAttributes, ExtractOutcome) {
	data, ok := rec.First()
	if !ok {
		log.Warn().Str("lei", requestedLEI).Msg("no registry data")
		return model.EntityAttributes{}, NoData
	}

	attrs := data.Attributes
	if attrs == nil {
		log.Warn().Str("lei", requestedLEI).Msg("missing attributes")
		return model.EntityAttributes{}, MissingAttributes
	}

	if attrs.LEI == "" {
		return model.EntityAttributes{}, MissingLEI
	}
	if attrs.LEI != requestedLEI {
		log.Warn().Str("lei", requestedLEI).Str("returned_lei", attrs.LEI).Msg("LEI mismatch, skipping row")
		return model.EntityAttributes{}, LEIMismatch
	}

	var bic *string
	if list, ok := attrs.BICList(); ok {
		joined := strings.Join(list, ", ")
		bic = &joined
	}

	entity, ok := attrs.EntityObject()
	if !ok {
		return model.EntityAttributes{}, MissingEntity
	}

	return model.EntityAttributes{
		LegalName: entity.Name(),
		BIC:       bic,
		Country:   entity.Country(),
	}, Extracted
}
