package booking

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/pawhaven/service-booking/internal/pkg/domain"
)

const confirmationCodeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// PickupInfo is a value object describing optional pet pickup/dropoff.
// When pickup is requested, the address and both times are mandatory and the
// dropoff address falls back to the pickup address.
type PickupInfo struct {
	RequiresPickup bool   `json:"requires_pickup"`
	PickupAddress  string `json:"pickup_address,omitempty"`
	DropoffAddress string `json:"dropoff_address,omitempty"`
	PickupTime     string `json:"pickup_time,omitempty"`
	DropoffTime    string `json:"dropoff_time,omitempty"`
}

// Validate checks the pickup fields and applies the dropoff-address default.
func (p *PickupInfo) Validate() error {
	if !p.RequiresPickup {
		return nil
	}
	if p.PickupAddress == "" {
		return domain.NewValidationError("pickup address is required when pickup is requested")
	}
	if p.PickupTime == "" {
		return domain.NewValidationError("pickup time is required when pickup is requested")
	}
	if p.DropoffTime == "" {
		return domain.NewValidationError("dropoff time is required when pickup is requested")
	}
	if p.DropoffAddress == "" {
		p.DropoffAddress = p.PickupAddress
	}
	return nil
}

// Booking is the aggregate root for the booking domain.
type Booking struct {
	id               uuid.UUID
	confirmationCode string
	userID           uuid.UUID
	petID            uuid.UUID
	serviceType      ServiceType
	startDate        Date
	endDate          Date
	numberOfDays     int
	price            int64
	status           BookingStatus
	pickup           PickupInfo
	notes            string

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// generateConfirmationCode creates a shareable code in the format
// "BK<unix-millis><5 random chars>".
func generateConfirmationCode() (string, error) {
	suffix := make([]byte, 5)
	for i := range suffix {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(confirmationCodeChars))))
		if err != nil {
			return "", fmt.Errorf("failed to generate confirmation code: %w", err)
		}
		suffix[i] = confirmationCodeChars[n.Int64()]
	}
	return fmt.Sprintf("BK%d%s", time.Now().UnixMilli(), suffix), nil
}

// NewBooking creates a new Booking aggregate with status=pending.
// The caller supplies the quote so pricing stays in the PricingEngine.
func NewBooking(
	userID, petID uuid.UUID,
	serviceType ServiceType,
	startDate, endDate Date,
	quote Quote,
	pickup PickupInfo,
	notes string,
) (*Booking, error) {
	if userID == uuid.Nil {
		return nil, domain.NewValidationError("user ID is required")
	}
	if petID == uuid.Nil {
		return nil, domain.NewValidationError("pet ID is required")
	}
	if startDate.IsZero() {
		return nil, domain.NewValidationError("start date is required")
	}
	if endDate.Before(startDate) {
		return nil, domain.NewValidationError("end date cannot be before start date")
	}
	if quote.NumberOfDays < 1 {
		return nil, domain.NewValidationError("booking must span at least one day")
	}
	if quote.Price < 0 {
		return nil, domain.NewValidationError("price cannot be negative")
	}
	if err := pickup.Validate(); err != nil {
		return nil, err
	}

	code, err := generateConfirmationCode()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Booking{
		id:               uuid.New(),
		confirmationCode: code,
		userID:           userID,
		petID:            petID,
		serviceType:      serviceType,
		startDate:        startDate,
		endDate:          endDate,
		numberOfDays:     quote.NumberOfDays,
		price:            quote.Price,
		status:           StatusPending,
		pickup:           pickup,
		notes:            notes,
		version:          1,
		createdAt:        now,
		updatedAt:        now,
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id uuid.UUID,
	confirmationCode string,
	userID, petID uuid.UUID,
	serviceType ServiceType,
	startDate, endDate Date,
	numberOfDays int,
	price int64,
	status BookingStatus,
	pickup PickupInfo,
	notes string,
	version int64,
	createdAt, updatedAt time.Time,
) *Booking {
	return &Booking{
		id:               id,
		confirmationCode: confirmationCode,
		userID:           userID,
		petID:            petID,
		serviceType:      serviceType,
		startDate:        startDate,
		endDate:          endDate,
		numberOfDays:     numberOfDays,
		price:            price,
		status:           status,
		pickup:           pickup,
		notes:            notes,
		version:          version,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// ConfirmationCode returns the human-shareable booking code.
func (b *Booking) ConfirmationCode() string { return b.confirmationCode }

// UserID returns the owning user's ID.
func (b *Booking) UserID() uuid.UUID { return b.userID }

// PetID returns the booked pet's ID.
func (b *Booking) PetID() uuid.UUID { return b.petID }

// ServiceType returns the booked service type.
func (b *Booking) ServiceType() ServiceType { return b.serviceType }

// StartDate returns the first day of the booking.
func (b *Booking) StartDate() Date { return b.startDate }

// EndDate returns the last day of the booking. Equal to StartDate for
// single-day services.
func (b *Booking) EndDate() Date { return b.endDate }

// NumberOfDays returns the billed duration.
func (b *Booking) NumberOfDays() int { return b.numberOfDays }

// Price returns the total price.
func (b *Booking) Price() int64 { return b.price }

// Status returns the current booking status.
func (b *Booking) Status() BookingStatus { return b.status }

// Pickup returns the pickup/dropoff details.
func (b *Booking) Pickup() PickupInfo { return b.pickup }

// Notes returns any additional notes for the booking.
func (b *Booking) Notes() string { return b.notes }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// IsOwnedBy checks if the booking belongs to the given user.
func (b *Booking) IsOwnedBy(userID uuid.UUID) bool {
	return b.userID == userID
}

// --- Behavior ---

// Approve transitions a pending booking to confirmed (admin).
func (b *Booking) Approve() error {
	if b.status != StatusPending {
		return domain.NewInvalidStateError(string(b.status), string(StatusConfirmed))
	}
	b.status = StatusConfirmed
	b.touch()
	return nil
}

// Reject transitions a pending booking to cancelled (admin).
func (b *Booking) Reject() error {
	if b.status != StatusPending {
		return domain.NewInvalidStateError(string(b.status), string(StatusCancelled))
	}
	b.status = StatusCancelled
	b.touch()
	return nil
}

// CancelByOwner cancels a pending or confirmed booking. Confirmed bookings
// cannot be cancelled on or after their start date.
func (b *Booking) CancelByOwner(today Date) error {
	if b.status.IsTerminal() {
		return domain.NewInvalidStateError(string(b.status), string(StatusCancelled))
	}
	if b.status == StatusConfirmed && !today.Before(b.startDate) {
		return domain.NewConflictError("confirmed bookings cannot be cancelled on or after their start date")
	}
	b.status = StatusCancelled
	b.touch()
	return nil
}

// Reschedule moves the booking to new dates with a fresh quote and resets the
// status to pending so an admin re-reviews it. Terminal bookings reject it.
func (b *Booking) Reschedule(startDate, endDate Date, quote Quote) error {
	if b.status.IsTerminal() {
		return domain.NewInvalidStateError(string(b.status), string(StatusPending))
	}
	if endDate.Before(startDate) {
		return domain.NewValidationError("end date cannot be before start date")
	}
	b.startDate = startDate
	b.endDate = endDate
	b.numberOfDays = quote.NumberOfDays
	b.price = quote.Price
	b.status = StatusPending
	b.touch()
	return nil
}

// UpdatePickup replaces the pickup details. Applied independently of any
// date change.
func (b *Booking) UpdatePickup(pickup PickupInfo) error {
	if b.status.IsTerminal() {
		return domain.NewInvalidStateError(string(b.status), string(b.status))
	}
	if err := pickup.Validate(); err != nil {
		return err
	}
	b.pickup = pickup
	b.touch()
	return nil
}

// Complete transitions a confirmed booking to completed. Driven by the care
// scheduler's completion events, never by owners or admins directly.
func (b *Booking) Complete() error {
	if !b.status.CanTransitionTo(StatusCompleted) {
		return domain.NewInvalidStateError(string(b.status), string(StatusCompleted))
	}
	b.status = StatusCompleted
	b.touch()
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}

func (b *Booking) touch() {
	b.updatedAt = time.Now().UTC()
}
