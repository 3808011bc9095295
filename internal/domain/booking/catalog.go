package booking

import (
	"fmt"

	"github.com/pawhaven/service-booking/internal/pkg/domain"
)

// ServiceType identifies a care service offered by the facility.
type ServiceType string

const (
	ServiceDaycation ServiceType = "Daycation"
	ServiceBoarding  ServiceType = "Pet Boarding"
	ServiceGrooming  ServiceType = "Grooming"
)

// PricingModel determines how a service definition's unit price is applied.
type PricingModel string

const (
	PricingFlatRate PricingModel = "flat_rate"
	PricingPerDay   PricingModel = "per_day"
	PricingPerNight PricingModel = "per_night"
)

// ServiceDefinition is the static configuration for one service type.
type ServiceDefinition struct {
	ServiceType       ServiceType
	PricingModel      PricingModel
	UnitPrice         int64
	MaxCapacityPerDay int
	RequiresDateRange bool
}

// Catalog is an immutable lookup table of service definitions. It is built
// once at startup and injected into the engines, so tests can substitute
// their own capacities and prices.
type Catalog struct {
	defs map[ServiceType]ServiceDefinition
}

// NewCatalog builds a catalog from the given definitions.
func NewCatalog(defs ...ServiceDefinition) (Catalog, error) {
	m := make(map[ServiceType]ServiceDefinition, len(defs))
	for _, def := range defs {
		if def.UnitPrice <= 0 {
			return Catalog{}, fmt.Errorf("service %s: unit price must be positive", def.ServiceType)
		}
		if def.MaxCapacityPerDay <= 0 {
			return Catalog{}, fmt.Errorf("service %s: capacity must be positive", def.ServiceType)
		}
		if _, dup := m[def.ServiceType]; dup {
			return Catalog{}, fmt.Errorf("duplicate service definition: %s", def.ServiceType)
		}
		m[def.ServiceType] = def
	}
	return Catalog{defs: m}, nil
}

// DefaultCatalog returns the production service table.
func DefaultCatalog() Catalog {
	c, err := NewCatalog(
		ServiceDefinition{
			ServiceType:       ServiceDaycation,
			PricingModel:      PricingPerDay,
			UnitPrice:         1500,
			MaxCapacityPerDay: 10,
		},
		ServiceDefinition{
			ServiceType:       ServiceBoarding,
			PricingModel:      PricingPerNight,
			UnitPrice:         2000,
			MaxCapacityPerDay: 5,
			RequiresDateRange: true,
		},
		ServiceDefinition{
			ServiceType:       ServiceGrooming,
			PricingModel:      PricingFlatRate,
			UnitPrice:         3500,
			MaxCapacityPerDay: 8,
		},
	)
	if err != nil {
		panic(err) // definitions above are compile-time constants
	}
	return c
}

// Get looks up the definition for a service type.
func (c Catalog) Get(serviceType ServiceType) (ServiceDefinition, error) {
	def, ok := c.defs[serviceType]
	if !ok {
		return ServiceDefinition{}, domain.NewValidationError(fmt.Sprintf("unknown service type: %s", serviceType))
	}
	return def, nil
}
