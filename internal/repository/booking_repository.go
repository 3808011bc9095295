package repository

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	bookingDomain "github.com/pawhaven/service-booking/internal/domain/booking"
	"github.com/pawhaven/service-booking/internal/pkg/domain"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	ConfirmationCode string    `gorm:"uniqueIndex;not null;size:30"`
	UserID           uuid.UUID `gorm:"type:uuid;index;not null"`
	PetID            uuid.UUID `gorm:"type:uuid;index;not null"`
	ServiceType      string    `gorm:"not null;size:40;index:idx_bookings_service_dates"`
	StartDate        time.Time `gorm:"type:date;not null;index:idx_bookings_service_dates"`
	EndDate          time.Time `gorm:"type:date;not null;index:idx_bookings_service_dates"`
	NumberOfDays     int       `gorm:"not null"`
	Price            int64     `gorm:"not null"`
	Status           string    `gorm:"not null;size:20;index"`
	RequiresPickup   bool      `gorm:"not null;default:false"`
	PickupAddress    string    `gorm:"size:500"`
	DropoffAddress   string    `gorm:"size:500"`
	PickupTime       string    `gorm:"size:10"`
	DropoffTime      string    `gorm:"size:10"`
	Notes            string    `gorm:"size:1000"`
	Version          int64     `gorm:"not null;default:1"`
	CreatedAt        time.Time `gorm:"not null"`
	UpdatedAt        time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

var activeStatuses = []string{
	string(bookingDomain.StatusPending),
	string(bookingDomain.StatusConfirmed),
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("booking", id.String())
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByConfirmationCode retrieves a booking by its shareable code.
func (r *GormBookingRepository) FindByConfirmationCode(ctx context.Context, code string) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("confirmation_code = ?", code).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("booking", code)
		}
		return nil, fmt.Errorf("failed to find booking by code: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByUserID retrieves a user's bookings with filters and pagination.
func (r *GormBookingRepository) FindByUserID(ctx context.Context, userID uuid.UUID, filter bookingDomain.OwnerFilter, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	q := r.db.WithContext(ctx).Model(&BookingModel{}).Where("user_id = ?", userID)

	if filter.Status != nil {
		q = q.Where("status = ?", string(*filter.Status))
	}
	if filter.Upcoming {
		q = q.Where("start_date >= ?", filter.Today.Time())
	}
	if filter.Past {
		q = q.Where("end_date < ? OR status IN ?", filter.Today.Time(),
			[]string{string(bookingDomain.StatusCompleted), string(bookingDomain.StatusCancelled)})
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count user bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := q.Order("start_date DESC, created_at DESC").Offset(offset).Limit(limit).Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find user bookings: %w", err)
	}

	return toDomainBookings(models, total)
}

// ListPending retrieves pending bookings awaiting admin review, oldest first.
func (r *GormBookingRepository) ListPending(ctx context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	q := r.db.WithContext(ctx).Model(&BookingModel{}).Where("status = ?", string(bookingDomain.StatusPending))

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count pending bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := q.Order("created_at ASC").Offset(offset).Limit(limit).Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list pending bookings: %w", err)
	}

	return toDomainBookings(models, total)
}

// ListAll retrieves all bookings with filters and pagination (admin).
func (r *GormBookingRepository) ListAll(ctx context.Context, filter bookingDomain.AdminFilter, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	q := r.db.WithContext(ctx).Model(&BookingModel{})

	if filter.ServiceType != nil {
		q = q.Where("service_type = ?", string(*filter.ServiceType))
	}
	if filter.Status != nil {
		q = q.Where("status = ?", string(*filter.Status))
	}
	if filter.From != nil {
		q = q.Where("start_date >= ?", filter.From.Time())
	}
	if filter.To != nil {
		q = q.Where("start_date <= ?", filter.To.Time())
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	return toDomainBookings(models, total)
}

// CountByStatus returns booking counts grouped by status (admin).
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// CountActiveOnStartDate counts active bookings of the service type starting
// on the given day.
func (r *GormBookingRepository) CountActiveOnStartDate(ctx context.Context, serviceType bookingDomain.ServiceType, day bookingDomain.Date, excludeID uuid.UUID) (int, error) {
	q := r.db.WithContext(ctx).Model(&BookingModel{}).
		Where("service_type = ? AND start_date = ? AND status IN ?", string(serviceType), day.Time(), activeStatuses)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count same-day bookings: %w", err)
	}
	return int(count), nil
}

// CountActiveOverlapping counts active bookings of the service type whose
// interval covers the given day.
func (r *GormBookingRepository) CountActiveOverlapping(ctx context.Context, serviceType bookingDomain.ServiceType, day bookingDomain.Date, excludeID uuid.UUID) (int, error) {
	q := r.db.WithContext(ctx).Model(&BookingModel{}).
		Where("service_type = ? AND start_date <= ? AND end_date >= ? AND status IN ?",
			string(serviceType), day.Time(), day.Time(), activeStatuses)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count overlapping bookings: %w", err)
	}
	return int(count), nil
}

// InCapacityTx runs fn in a transaction holding per-(service, day) advisory
// locks for every day in [start, end]. Concurrent submissions for the same
// service and day serialize on the lock, so a capacity check followed by an
// insert inside fn cannot overshoot the ceiling.
func (r *GormBookingRepository) InCapacityTx(ctx context.Context, serviceType bookingDomain.ServiceType, start, end bookingDomain.Date, fn func(txRepo bookingDomain.BookingRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for day := start; !day.After(end); day = day.AddDays(1) {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", capacityLockKey(serviceType, day)).Error; err != nil {
				return fmt.Errorf("failed to acquire capacity lock: %w", err)
			}
		}
		return fn(&GormBookingRepository{db: tx})
	})
}

// capacityLockKey derives a stable advisory-lock key for a (service, day) slot.
func capacityLockKey(serviceType bookingDomain.ServiceType, day bookingDomain.Date) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(string(serviceType)))
	_, _ = h.Write([]byte{'|'})
	_, _ = h.Write([]byte(day.String()))
	return int64(h.Sum64())
}

// Save persists a new booking.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save booking: %w", err)
	}
	return nil
}

// Update persists changes to an existing booking with optimistic locking.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)

	// Only update if the version matches (current version - 1, since
	// IncrementVersion was called before persisting).
	expectedVersion := bk.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"service_type":    model.ServiceType,
			"start_date":      model.StartDate,
			"end_date":        model.EndDate,
			"number_of_days":  model.NumberOfDays,
			"price":           model.Price,
			"status":          model.Status,
			"requires_pickup": model.RequiresPickup,
			"pickup_address":  model.PickupAddress,
			"dropoff_address": model.DropoffAddress,
			"pickup_time":     model.PickupTime,
			"dropoff_time":    model.DropoffTime,
			"notes":           model.Notes,
			"version":         model.Version,
			"updated_at":      model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	return nil
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) *BookingModel {
	pickup := bk.Pickup()
	return &BookingModel{
		ID:               bk.ID(),
		ConfirmationCode: bk.ConfirmationCode(),
		UserID:           bk.UserID(),
		PetID:            bk.PetID(),
		ServiceType:      string(bk.ServiceType()),
		StartDate:        bk.StartDate().Time(),
		EndDate:          bk.EndDate().Time(),
		NumberOfDays:     bk.NumberOfDays(),
		Price:            bk.Price(),
		Status:           string(bk.Status()),
		RequiresPickup:   pickup.RequiresPickup,
		PickupAddress:    pickup.PickupAddress,
		DropoffAddress:   pickup.DropoffAddress,
		PickupTime:       pickup.PickupTime,
		DropoffTime:      pickup.DropoffTime,
		Notes:            bk.Notes(),
		Version:          bk.Version(),
		CreatedAt:        bk.CreatedAt(),
		UpdatedAt:        bk.UpdatedAt(),
	}
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	status, err := bookingDomain.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, err
	}

	pickup := bookingDomain.PickupInfo{
		RequiresPickup: m.RequiresPickup,
		PickupAddress:  m.PickupAddress,
		DropoffAddress: m.DropoffAddress,
		PickupTime:     m.PickupTime,
		DropoffTime:    m.DropoffTime,
	}

	return bookingDomain.ReconstructBooking(
		m.ID,
		m.ConfirmationCode,
		m.UserID,
		m.PetID,
		bookingDomain.ServiceType(m.ServiceType),
		bookingDomain.DateOf(m.StartDate),
		bookingDomain.DateOf(m.EndDate),
		m.NumberOfDays,
		m.Price,
		status,
		pickup,
		m.Notes,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}

func toDomainBookings(models []BookingModel, total int64) ([]*bookingDomain.Booking, int64, error) {
	bookings := make([]*bookingDomain.Booking, len(models))
	for i, m := range models {
		bk, err := toDomainBooking(&m)
		if err != nil {
			return nil, 0, err
		}
		bookings[i] = bk
	}
	return bookings, total, nil
}
