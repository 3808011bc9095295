package booking

import (
	"context"

	"github.com/google/uuid"
)

// OwnerFilter narrows an owner's booking listing.
type OwnerFilter struct {
	Status *BookingStatus
	// Upcoming keeps bookings with StartDate >= Today.
	Upcoming bool
	// Past keeps bookings with EndDate < Today or a terminal status.
	Past bool
	// Today anchors the Upcoming/Past comparisons.
	Today Date
}

// AdminFilter narrows the admin's all-bookings listing.
type AdminFilter struct {
	ServiceType *ServiceType
	Status      *BookingStatus
	From        *Date
	To          *Date
}

// BookingRepository defines the persistence contract for booking aggregates.
type BookingRepository interface {
	// FindByID retrieves a booking by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindByConfirmationCode retrieves a booking by its shareable code.
	FindByConfirmationCode(ctx context.Context, code string) (*Booking, error)

	// FindByUserID retrieves a user's bookings with filters and pagination.
	FindByUserID(ctx context.Context, userID uuid.UUID, filter OwnerFilter, page, limit int) ([]*Booking, int64, error)

	// ListPending retrieves pending bookings awaiting admin review.
	ListPending(ctx context.Context, page, limit int) ([]*Booking, int64, error)

	// ListAll retrieves all bookings with filters and pagination (admin).
	ListAll(ctx context.Context, filter AdminFilter, page, limit int) ([]*Booking, int64, error)

	// CountByStatus returns booking counts grouped by status (admin).
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// CountActiveOnStartDate counts active bookings of the service type whose
	// start date is the given day, excluding the given booking ID if non-nil.
	CountActiveOnStartDate(ctx context.Context, serviceType ServiceType, day Date, excludeID uuid.UUID) (int, error)

	// CountActiveOverlapping counts active bookings of the service type whose
	// [start, end] interval covers the given day, excluding the given booking
	// ID if non-nil.
	CountActiveOverlapping(ctx context.Context, serviceType ServiceType, day Date, excludeID uuid.UUID) (int, error)

	// InCapacityTx runs fn inside a transaction holding per-(service, day)
	// advisory locks for every day in [start, end], serializing concurrent
	// check-then-insert sequences for the same capacity slots. fn receives a
	// transaction-scoped repository.
	InCapacityTx(ctx context.Context, serviceType ServiceType, start, end Date, fn func(txRepo BookingRepository) error) error

	// Save persists a new booking.
	Save(ctx context.Context, booking *Booking) error

	// Update persists changes to an existing booking with optimistic locking.
	Update(ctx context.Context, booking *Booking) error
}
