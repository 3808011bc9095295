package booking

import (
	"fmt"

	"github.com/pawhaven/service-booking/internal/pkg/domain"
)

// Quote is the result of pricing a booking request.
type Quote struct {
	Price        int64 `json:"price"`
	NumberOfDays int   `json:"number_of_days"`
}

// PricingEngine computes the price and billed duration for a service over a
// date range, driven by the catalog's pricing model.
type PricingEngine struct {
	catalog Catalog
}

// NewPricingEngine creates a PricingEngine over the given catalog.
func NewPricingEngine(catalog Catalog) *PricingEngine {
	return &PricingEngine{catalog: catalog}
}

// Calculate returns the quote for the service between start and end.
//
// Flat-rate and per-day services bill a single unit regardless of the range.
// Per-night services bill nights, not calendar days: a stay checking in on
// day 1 and out on day 2 is one night.
func (e *PricingEngine) Calculate(serviceType ServiceType, start, end Date) (Quote, error) {
	def, err := e.catalog.Get(serviceType)
	if err != nil {
		return Quote{}, err
	}

	switch def.PricingModel {
	case PricingFlatRate, PricingPerDay:
		return Quote{Price: def.UnitPrice, NumberOfDays: 1}, nil
	case PricingPerNight:
		if !end.After(start) {
			return Quote{}, domain.NewValidationError("end date must be after start date")
		}
		nights := start.DaysUntil(end)
		return Quote{Price: def.UnitPrice * int64(nights), NumberOfDays: nights}, nil
	default:
		return Quote{}, fmt.Errorf("unhandled pricing model: %s", def.PricingModel)
	}
}
