package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingDomain "github.com/pawhaven/service-booking/internal/domain/booking"
	"github.com/pawhaven/service-booking/internal/pkg/domain"
)

// maxRangeDays caps how far a single stay may extend. Bounds the per-day
// capacity scan and the number of advisory locks taken per request.
const maxRangeDays = 60

// CheckAvailabilityRequest is the availability probe payload.
type CheckAvailabilityRequest struct {
	ServiceType string `json:"service_type" binding:"required"`
	StartDate   string `json:"start_date" binding:"required"`
	EndDate     string `json:"end_date"`
}

// AvailabilityResult reports whether a requested slot can be accepted.
// Remaining is set for single-day services, UnavailableDates for stays.
type AvailabilityResult struct {
	Available        bool     `json:"available"`
	Remaining        *int     `json:"remaining,omitempty"`
	UnavailableDates []string `json:"unavailable_dates,omitempty"`
	Message          string   `json:"message"`
}

// AvailabilityService decides whether a booking request fits under the
// per-day capacity ceiling of its service.
type AvailabilityService struct {
	catalog bookingDomain.Catalog
	repo    bookingDomain.BookingRepository
	loc     *time.Location
	logger  *zap.Logger
}

// NewAvailabilityService creates an AvailabilityService. loc anchors "today"
// for the past-date rejection.
func NewAvailabilityService(
	catalog bookingDomain.Catalog,
	repo bookingDomain.BookingRepository,
	loc *time.Location,
	logger *zap.Logger,
) *AvailabilityService {
	if loc == nil {
		loc = time.UTC
	}
	return &AvailabilityService{catalog: catalog, repo: repo, loc: loc, logger: logger}
}

// Check handles the standalone availability probe.
func (s *AvailabilityService) Check(ctx context.Context, req CheckAvailabilityRequest) (*AvailabilityResult, error) {
	def, err := s.catalog.Get(bookingDomain.ServiceType(req.ServiceType))
	if err != nil {
		return nil, err
	}
	start, end, err := s.ResolveRange(def, req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	return s.CheckDates(ctx, s.repo, def, start, end, uuid.Nil)
}

// ResolveRange parses and validates the requested dates against the service
// definition. Single-day services always get end == start.
func (s *AvailabilityService) ResolveRange(def bookingDomain.ServiceDefinition, startStr, endStr string) (bookingDomain.Date, bookingDomain.Date, error) {
	var zero bookingDomain.Date

	start, err := bookingDomain.ParseDate(startStr)
	if err != nil {
		return zero, zero, domain.NewValidationError(err.Error())
	}

	if !def.RequiresDateRange {
		return start, start, nil
	}

	if endStr == "" {
		return zero, zero, domain.NewValidationError(fmt.Sprintf("end date is required for %s", def.ServiceType))
	}
	end, err := bookingDomain.ParseDate(endStr)
	if err != nil {
		return zero, zero, domain.NewValidationError(err.Error())
	}
	if end.Before(start) {
		return zero, zero, domain.NewValidationError("end date cannot be before start date")
	}
	if start.DaysUntil(end) > maxRangeDays {
		return zero, zero, domain.NewValidationError(fmt.Sprintf("stays cannot exceed %d days", maxRangeDays))
	}
	return start, end, nil
}

// CheckDates evaluates capacity for [start, end] against repo. The booking
// service passes a transaction-scoped repo here so the check and the insert
// share one transaction; excludeID removes a rescheduled booking's own row
// from its overlap counts.
func (s *AvailabilityService) CheckDates(
	ctx context.Context,
	repo bookingDomain.BookingRepository,
	def bookingDomain.ServiceDefinition,
	start, end bookingDomain.Date,
	excludeID uuid.UUID,
) (*AvailabilityResult, error) {
	today := bookingDomain.Today(s.loc)
	if start.Before(today) {
		return &AvailabilityResult{
			Available: false,
			Message:   "start date is in the past",
		}, nil
	}

	if !def.RequiresDateRange {
		count, err := repo.CountActiveOnStartDate(ctx, def.ServiceType, start, excludeID)
		if err != nil {
			return nil, fmt.Errorf("failed to check availability: %w", err)
		}
		remaining := def.MaxCapacityPerDay - count
		if remaining < 0 {
			remaining = 0
		}
		if remaining == 0 {
			return &AvailabilityResult{
				Available: false,
				Remaining: &remaining,
				Message:   fmt.Sprintf("no %s slots remaining on %s", def.ServiceType, start),
			}, nil
		}
		return &AvailabilityResult{
			Available: true,
			Remaining: &remaining,
			Message:   fmt.Sprintf("%d slot(s) remaining on %s", remaining, start),
		}, nil
	}

	var unavailable []string
	for day := start; !day.After(end); day = day.AddDays(1) {
		count, err := repo.CountActiveOverlapping(ctx, def.ServiceType, day, excludeID)
		if err != nil {
			return nil, fmt.Errorf("failed to check availability: %w", err)
		}
		if count >= def.MaxCapacityPerDay {
			unavailable = append(unavailable, day.String())
		}
	}

	if len(unavailable) > 0 {
		return &AvailabilityResult{
			Available:        false,
			UnavailableDates: unavailable,
			Message:          fmt.Sprintf("%s is fully booked on %d day(s) in the requested range", def.ServiceType, len(unavailable)),
		}, nil
	}
	return &AvailabilityResult{
		Available: true,
		Message:   fmt.Sprintf("%s is available from %s to %s", def.ServiceType, start, end),
	}, nil
}

// Today returns the current calendar date in the service's time zone.
func (s *AvailabilityService) Today() bookingDomain.Date {
	return bookingDomain.Today(s.loc)
}
