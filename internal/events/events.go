package events

import (
	"time"

	"github.com/google/uuid"
)

// Topics this service produces to and consumes from.
const (
	TopicBookingEvents = "booking.events"
	TopicCareEvents    = "care.events"
)

// Event types on booking.events.
const (
	BookingRequested   = "booking.requested"
	BookingConfirmed   = "booking.confirmed"
	BookingRejected    = "booking.rejected"
	BookingCancelled   = "booking.cancelled"
	BookingRescheduled = "booking.rescheduled"
	BookingCompleted   = "booking.completed"
)

// Event types on care.events, produced by the care scheduling service.
const (
	CareVisitCompleted = "care.visit_completed"
)

// BookingRequestedEvent announces a newly created booking. Downstream
// consumers (notifications, admin dashboard) fan out from here.
type BookingRequestedEvent struct {
	BookingID        uuid.UUID `json:"booking_id"`
	ConfirmationCode string    `json:"confirmation_code"`
	UserID           uuid.UUID `json:"user_id"`
	PetID            uuid.UUID `json:"pet_id"`
	ServiceType      string    `json:"service_type"`
	StartDate        string    `json:"start_date"`
	EndDate          string    `json:"end_date"`
	Price            int64     `json:"price"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// BookingTransitionedEvent announces a lifecycle status change.
type BookingTransitionedEvent struct {
	BookingID        uuid.UUID `json:"booking_id"`
	ConfirmationCode string    `json:"confirmation_code"`
	UserID           uuid.UUID `json:"user_id"`
	FromStatus       string    `json:"from_status"`
	ToStatus         string    `json:"to_status"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// CareVisitCompletedEvent is emitted by the care scheduler when a booked
// service has been delivered in full.
type CareVisitCompletedEvent struct {
	BookingID   uuid.UUID `json:"booking_id"`
	CompletedAt time.Time `json:"completed_at"`
	OccurredAt  time.Time `json:"occurred_at"`
}
