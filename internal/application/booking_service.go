package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingDomain "github.com/pawhaven/service-booking/internal/domain/booking"
	petDomain "github.com/pawhaven/service-booking/internal/domain/pet"
	"github.com/pawhaven/service-booking/internal/events"
	"github.com/pawhaven/service-booking/internal/pkg/auth"
	"github.com/pawhaven/service-booking/internal/pkg/domain"
	"github.com/pawhaven/service-booking/internal/pkg/kafka"
)

// CreateBookingRequest holds the data needed to create a new booking.
type CreateBookingRequest struct {
	PetID          uuid.UUID `json:"pet_id" binding:"required"`
	ServiceType    string    `json:"service_type" binding:"required"`
	StartDate      string    `json:"start_date" binding:"required"`
	EndDate        string    `json:"end_date"`
	RequiresPickup bool      `json:"requires_pickup"`
	PickupAddress  string    `json:"pickup_address"`
	DropoffAddress string    `json:"dropoff_address"`
	PickupTime     string    `json:"pickup_time"`
	DropoffTime    string    `json:"dropoff_time"`
	Notes          string    `json:"notes"`
}

// UpdateBookingRequest holds the mutable fields of an existing booking. Date
// fields trigger a reschedule; pickup fields apply independently of any date
// change. Nil/empty fields are left untouched.
type UpdateBookingRequest struct {
	StartDate      string  `json:"start_date"`
	EndDate        string  `json:"end_date"`
	RequiresPickup *bool   `json:"requires_pickup"`
	PickupAddress  *string `json:"pickup_address"`
	DropoffAddress *string `json:"dropoff_address"`
	PickupTime     *string `json:"pickup_time"`
	DropoffTime    *string `json:"dropoff_time"`
}

// OwnerListQuery narrows the owner's booking listing.
type OwnerListQuery struct {
	Status   string
	Upcoming bool
	Past     bool
}

// AdminListQuery narrows the admin's all-bookings listing.
type AdminListQuery struct {
	ServiceType string
	Status      string
	From        string
	To          string
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID               uuid.UUID                `json:"id"`
	ConfirmationCode string                   `json:"confirmation_code"`
	UserID           uuid.UUID                `json:"user_id"`
	PetID            uuid.UUID                `json:"pet_id"`
	ServiceType      string                   `json:"service_type"`
	StartDate        bookingDomain.Date       `json:"start_date"`
	EndDate          bookingDomain.Date       `json:"end_date"`
	NumberOfDays     int                      `json:"number_of_days"`
	Price            int64                    `json:"price"`
	Status           string                   `json:"status"`
	Pickup           bookingDomain.PickupInfo `json:"pickup"`
	Notes            string                   `json:"notes,omitempty"`
	Version          int64                    `json:"version"`
	CreatedAt        time.Time                `json:"created_at"`
	UpdatedAt        time.Time                `json:"updated_at"`
}

// BookingStatsDTO holds booking statistics for the admin dashboard.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// BookingService is the application service orchestrating booking use cases.
type BookingService struct {
	repo         bookingDomain.BookingRepository
	petRepo      petDomain.PetRepository
	catalog      bookingDomain.Catalog
	pricing      *bookingDomain.PricingEngine
	availability *AvailabilityService
	producer     *kafka.Producer
	logger       *zap.Logger
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	repo bookingDomain.BookingRepository,
	petRepo petDomain.PetRepository,
	catalog bookingDomain.Catalog,
	pricing *bookingDomain.PricingEngine,
	availability *AvailabilityService,
	producer *kafka.Producer,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		repo:         repo,
		petRepo:      petRepo,
		catalog:      catalog,
		pricing:      pricing,
		availability: availability,
		producer:     producer,
		logger:       logger,
	}
}

// CreateBooking creates a new booking for the given owner. The availability
// check and the insert run in one transaction under per-(service, day)
// advisory locks so concurrent requests cannot overshoot capacity.
func (s *BookingService) CreateBooking(ctx context.Context, userID uuid.UUID, req CreateBookingRequest) (*BookingDTO, error) {
	pet, err := s.petRepo.FindByID(ctx, req.PetID)
	if err != nil {
		return nil, err
	}
	if !pet.IsOwnedBy(userID) {
		return nil, domain.NewForbiddenError("pet does not belong to this user")
	}
	if !pet.IsActive() {
		return nil, domain.NewValidationError("cannot book an archived pet profile")
	}

	def, err := s.catalog.Get(bookingDomain.ServiceType(req.ServiceType))
	if err != nil {
		return nil, err
	}
	start, end, err := s.availability.ResolveRange(def, req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	quote, err := s.pricing.Calculate(def.ServiceType, start, end)
	if err != nil {
		return nil, err
	}

	pickup := bookingDomain.PickupInfo{
		RequiresPickup: req.RequiresPickup,
		PickupAddress:  req.PickupAddress,
		DropoffAddress: req.DropoffAddress,
		PickupTime:     req.PickupTime,
		DropoffTime:    req.DropoffTime,
	}

	bk, err := bookingDomain.NewBooking(userID, req.PetID, def.ServiceType, start, end, quote, pickup, req.Notes)
	if err != nil {
		return nil, err
	}

	err = s.repo.InCapacityTx(ctx, def.ServiceType, start, end, func(txRepo bookingDomain.BookingRepository) error {
		res, err := s.availability.CheckDates(ctx, txRepo, def, start, end, uuid.Nil)
		if err != nil {
			return err
		}
		if !res.Available {
			return capacityConflict(res)
		}
		return txRepo.Save(ctx, bk)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.BookingRequested, events.BookingRequestedEvent{
		BookingID:        bk.ID(),
		ConfirmationCode: bk.ConfirmationCode(),
		UserID:           bk.UserID(),
		PetID:            bk.PetID(),
		ServiceType:      string(bk.ServiceType()),
		StartDate:        bk.StartDate().String(),
		EndDate:          bk.EndDate().String(),
		Price:            bk.Price(),
		OccurredAt:       time.Now().UTC(),
	})

	result := toBookingDTO(bk)
	return &result, nil
}

// GetBooking retrieves a single booking. Owners can only see their own;
// staff and admin can see any.
func (s *BookingService) GetBooking(ctx context.Context, requesterID uuid.UUID, role auth.Role, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if role == auth.RolePetOwner && !bk.IsOwnedBy(requesterID) {
		return nil, domain.NewForbiddenError("booking does not belong to this user")
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// GetBookingByCode retrieves a booking by its confirmation code, with the
// same ownership gate as GetBooking.
func (s *BookingService) GetBookingByCode(ctx context.Context, requesterID uuid.UUID, role auth.Role, code string) (*BookingDTO, error) {
	bk, err := s.repo.FindByConfirmationCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if role == auth.RolePetOwner && !bk.IsOwnedBy(requesterID) {
		return nil, domain.NewForbiddenError("booking does not belong to this user")
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// ListUserBookings retrieves paginated bookings for the authenticated owner.
func (s *BookingService) ListUserBookings(ctx context.Context, userID uuid.UUID, query OwnerListQuery, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	filter := bookingDomain.OwnerFilter{
		Upcoming: query.Upcoming,
		Past:     query.Past,
		Today:    s.availability.Today(),
	}
	if query.Status != "" {
		status, err := bookingDomain.ParseBookingStatus(query.Status)
		if err != nil {
			return nil, err
		}
		filter.Status = &status
	}

	bookings, total, err := s.repo.FindByUserID(ctx, userID, filter, page, limit)
	if err != nil {
		return nil, err
	}
	result := domain.NewPaginatedResult(toBookingDTOs(bookings), total, page, limit)
	return &result, nil
}

// UpdateBooking reschedules a booking and/or updates its pickup details.
// A date change re-checks availability (excluding the booking's own rows from
// the counts), re-prices, and resets the status to pending for re-review.
func (s *BookingService) UpdateBooking(ctx context.Context, userID, bookingID uuid.UUID, req UpdateBookingRequest) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !bk.IsOwnedBy(userID) {
		return nil, domain.NewForbiddenError("booking does not belong to this user")
	}

	rescheduled := false
	from := string(bk.Status())
	if req.StartDate != "" || req.EndDate != "" {
		def, err := s.catalog.Get(bk.ServiceType())
		if err != nil {
			return nil, err
		}

		startStr := req.StartDate
		if startStr == "" {
			startStr = bk.StartDate().String()
		}
		endStr := req.EndDate
		if endStr == "" && def.RequiresDateRange {
			endStr = bk.EndDate().String()
		}
		start, end, err := s.availability.ResolveRange(def, startStr, endStr)
		if err != nil {
			return nil, err
		}

		if !start.Equal(bk.StartDate()) || !end.Equal(bk.EndDate()) {
			quote, err := s.pricing.Calculate(def.ServiceType, start, end)
			if err != nil {
				return nil, err
			}

			err = s.repo.InCapacityTx(ctx, def.ServiceType, start, end, func(txRepo bookingDomain.BookingRepository) error {
				res, err := s.availability.CheckDates(ctx, txRepo, def, start, end, bk.ID())
				if err != nil {
					return err
				}
				if !res.Available {
					return capacityConflict(res)
				}
				if err := bk.Reschedule(start, end, quote); err != nil {
					return err
				}
				bk.IncrementVersion()
				return txRepo.Update(ctx, bk)
			})
			if err != nil {
				return nil, err
			}
			rescheduled = true
		}
	}

	if pickup, changed := mergePickup(bk.Pickup(), req); changed {
		if err := bk.UpdatePickup(pickup); err != nil {
			return nil, err
		}
		bk.IncrementVersion()
		if err := s.repo.Update(ctx, bk); err != nil {
			return nil, err
		}
	}

	if rescheduled {
		s.publishTransitionFrom(ctx, events.BookingRescheduled, bk, from)
	}

	result := toBookingDTO(bk)
	return &result, nil
}

// CancelBooking cancels the owner's booking. Confirmed bookings cannot be
// cancelled on or after their start date.
func (s *BookingService) CancelBooking(ctx context.Context, userID, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !bk.IsOwnedBy(userID) {
		return nil, domain.NewForbiddenError("booking does not belong to this user")
	}

	from := string(bk.Status())
	if err := bk.CancelByOwner(s.availability.Today()); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	s.publishTransitionFrom(ctx, events.BookingCancelled, bk, from)

	result := toBookingDTO(bk)
	return &result, nil
}

// ApproveBooking confirms a pending booking (admin/staff).
func (s *BookingService) ApproveBooking(ctx context.Context, bookingID uuid.UUID) (*BookingDTO, error) {
	return s.review(ctx, bookingID, events.BookingConfirmed, (*bookingDomain.Booking).Approve)
}

// RejectBooking cancels a pending booking (admin/staff).
func (s *BookingService) RejectBooking(ctx context.Context, bookingID uuid.UUID) (*BookingDTO, error) {
	return s.review(ctx, bookingID, events.BookingRejected, (*bookingDomain.Booking).Reject)
}

func (s *BookingService) review(ctx context.Context, bookingID uuid.UUID, eventType string, transition func(*bookingDomain.Booking) error) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	from := string(bk.Status())
	if err := transition(bk); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	s.publishTransitionFrom(ctx, eventType, bk, from)

	result := toBookingDTO(bk)
	return &result, nil
}

// CompleteBooking marks a confirmed booking completed. Driven by the care
// scheduler's completion events, never by an HTTP route.
func (s *BookingService) CompleteBooking(ctx context.Context, bookingID uuid.UUID) error {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return err
	}

	from := string(bk.Status())
	if err := bk.Complete(); err != nil {
		return err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return err
	}

	s.publishTransitionFrom(ctx, events.BookingCompleted, bk, from)
	return nil
}

// --- Admin methods ---

// ListPendingBookings returns pending bookings awaiting review, oldest first.
func (s *BookingService) ListPendingBookings(ctx context.Context, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.repo.ListPending(ctx, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending bookings: %w", err)
	}
	result := domain.NewPaginatedResult(toBookingDTOs(bookings), total, page, limit)
	return &result, nil
}

// ListAllBookings returns a filtered, paginated list of all bookings (admin).
func (s *BookingService) ListAllBookings(ctx context.Context, query AdminListQuery, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	var filter bookingDomain.AdminFilter
	if query.ServiceType != "" {
		def, err := s.catalog.Get(bookingDomain.ServiceType(query.ServiceType))
		if err != nil {
			return nil, err
		}
		filter.ServiceType = &def.ServiceType
	}
	if query.Status != "" {
		status, err := bookingDomain.ParseBookingStatus(query.Status)
		if err != nil {
			return nil, err
		}
		filter.Status = &status
	}
	if query.From != "" {
		from, err := bookingDomain.ParseDate(query.From)
		if err != nil {
			return nil, domain.NewValidationError(err.Error())
		}
		filter.From = &from
	}
	if query.To != "" {
		to, err := bookingDomain.ParseDate(query.To)
		if err != nil {
			return nil, domain.NewValidationError(err.Error())
		}
		filter.To = &to
	}

	bookings, total, err := s.repo.ListAll(ctx, filter, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	result := domain.NewPaginatedResult(toBookingDTOs(bookings), total, page, limit)
	return &result, nil
}

// GetBookingStats returns aggregate booking statistics (admin).
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c
	}
	return &BookingStatsDTO{TotalBookings: total, ByStatus: counts}, nil
}

// --- Helpers ---

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
		ID:               bk.ID(),
		ConfirmationCode: bk.ConfirmationCode(),
		UserID:           bk.UserID(),
		PetID:            bk.PetID(),
		ServiceType:      string(bk.ServiceType()),
		StartDate:        bk.StartDate(),
		EndDate:          bk.EndDate(),
		NumberOfDays:     bk.NumberOfDays(),
		Price:            bk.Price(),
		Status:           string(bk.Status()),
		Pickup:           bk.Pickup(),
		Notes:            bk.Notes(),
		Version:          bk.Version(),
		CreatedAt:        bk.CreatedAt(),
		UpdatedAt:        bk.UpdatedAt(),
	}
}

func toBookingDTOs(bookings []*bookingDomain.Booking) []BookingDTO {
	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	return dtos
}

// capacityConflict converts a failed availability result into the conflict
// error surfaced to the caller, carrying the unavailable dates.
func capacityConflict(res *AvailabilityResult) error {
	if len(res.UnavailableDates) > 0 {
		return domain.NewConflictError(fmt.Sprintf(
			"requested dates are unavailable: %s",
			strings.Join(res.UnavailableDates, ", "),
		))
	}
	return domain.NewConflictError(res.Message)
}

// mergePickup folds the request's pickup/notes fields onto the current value
// object. Returns the merged value and whether anything changed.
func mergePickup(current bookingDomain.PickupInfo, req UpdateBookingRequest) (bookingDomain.PickupInfo, bool) {
	changed := false
	merged := current

	if req.RequiresPickup != nil && *req.RequiresPickup != merged.RequiresPickup {
		merged.RequiresPickup = *req.RequiresPickup
		changed = true
	}
	apply := func(dst *string, src *string) {
		if src != nil && *src != *dst {
			*dst = *src
			changed = true
		}
	}
	apply(&merged.PickupAddress, req.PickupAddress)
	apply(&merged.DropoffAddress, req.DropoffAddress)
	apply(&merged.PickupTime, req.PickupTime)
	apply(&merged.DropoffTime, req.DropoffTime)

	return merged, changed
}

func (s *BookingService) publishTransitionFrom(ctx context.Context, eventType string, bk *bookingDomain.Booking, from string) {
	s.publishEvent(ctx, eventType, events.BookingTransitionedEvent{
		BookingID:        bk.ID(),
		ConfirmationCode: bk.ConfirmationCode(),
		UserID:           bk.UserID(),
		FromStatus:       from,
		ToStatus:         string(bk.Status()),
		OccurredAt:       time.Now().UTC(),
	})
}

func (s *BookingService) publishEvent(ctx context.Context, eventType string, data interface{}) {
	if s.producer == nil {
		return
	}
	cloudEvent, err := kafka.NewCloudEvent("service-booking", eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}
	if err := s.producer.PublishEvent(ctx, events.TopicBookingEvents, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", events.TopicBookingEvents),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
