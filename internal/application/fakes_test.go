package application

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	bookingDomain "github.com/pawhaven/service-booking/internal/domain/booking"
	petDomain "github.com/pawhaven/service-booking/internal/domain/pet"
	"github.com/pawhaven/service-booking/internal/pkg/domain"
)

// fakeBookingRepo is an in-memory BookingRepository for service tests. The
// mutex doubles as the capacity transaction boundary.
type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*bookingDomain.Booking
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[uuid.UUID]*bookingDomain.Booking)}
}

func (r *fakeBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bk, ok := r.bookings[id]
	if !ok {
		return nil, domain.NewNotFoundError("booking", id.String())
	}
	return bk, nil
}

func (r *fakeBookingRepo) FindByConfirmationCode(_ context.Context, code string) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, bk := range r.bookings {
		if bk.ConfirmationCode() == code {
			return bk, nil
		}
	}
	return nil, domain.NewNotFoundError("booking", code)
}

func (r *fakeBookingRepo) FindByUserID(_ context.Context, userID uuid.UUID, filter bookingDomain.OwnerFilter, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, bk := range r.bookings {
		if bk.UserID() != userID {
			continue
		}
		if filter.Status != nil && bk.Status() != *filter.Status {
			continue
		}
		if filter.Upcoming && bk.StartDate().Before(filter.Today) {
			continue
		}
		if filter.Past && !bk.EndDate().Before(filter.Today) && !bk.Status().IsTerminal() {
			continue
		}
		out = append(out, bk)
	}
	sortByStart(out)
	return paginate(out, page, limit), int64(len(out)), nil
}

func (r *fakeBookingRepo) ListPending(_ context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, bk := range r.bookings {
		if bk.Status() == bookingDomain.StatusPending {
			out = append(out, bk)
		}
	}
	sortByStart(out)
	return paginate(out, page, limit), int64(len(out)), nil
}

func (r *fakeBookingRepo) ListAll(_ context.Context, filter bookingDomain.AdminFilter, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, bk := range r.bookings {
		if filter.ServiceType != nil && bk.ServiceType() != *filter.ServiceType {
			continue
		}
		if filter.Status != nil && bk.Status() != *filter.Status {
			continue
		}
		if filter.From != nil && bk.StartDate().Before(*filter.From) {
			continue
		}
		if filter.To != nil && bk.StartDate().After(*filter.To) {
			continue
		}
		out = append(out, bk)
	}
	sortByStart(out)
	return paginate(out, page, limit), int64(len(out)), nil
}

func (r *fakeBookingRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int64)
	for _, bk := range r.bookings {
		counts[string(bk.Status())]++
	}
	return counts, nil
}

func (r *fakeBookingRepo) CountActiveOnStartDate(_ context.Context, serviceType bookingDomain.ServiceType, day bookingDomain.Date, excludeID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, bk := range r.bookings {
		if bk.ID() == excludeID || bk.ServiceType() != serviceType || !bk.Status().IsActive() {
			continue
		}
		if bk.StartDate().Equal(day) {
			count++
		}
	}
	return count, nil
}

func (r *fakeBookingRepo) CountActiveOverlapping(_ context.Context, serviceType bookingDomain.ServiceType, day bookingDomain.Date, excludeID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, bk := range r.bookings {
		if bk.ID() == excludeID || bk.ServiceType() != serviceType || !bk.Status().IsActive() {
			continue
		}
		if !bk.StartDate().After(day) && !bk.EndDate().Before(day) {
			count++
		}
	}
	return count, nil
}

func (r *fakeBookingRepo) InCapacityTx(_ context.Context, _ bookingDomain.ServiceType, _, _ bookingDomain.Date, fn func(txRepo bookingDomain.BookingRepository) error) error {
	// The whole store acts as one lock domain here; good enough to exercise
	// the check-then-insert path.
	return fn(&fakeTxRepo{r})
}

func (r *fakeBookingRepo) Save(_ context.Context, bk *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings[bk.ID()] = bk
	return nil
}

func (r *fakeBookingRepo) Update(_ context.Context, bk *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[bk.ID()]; !ok {
		return domain.NewNotFoundError("booking", bk.ID().String())
	}
	r.bookings[bk.ID()] = bk
	return nil
}

// fakeTxRepo delegates to the parent store; it exists so InCapacityTx hands
// the callback a distinct repository value like the real implementation does.
type fakeTxRepo struct{ *fakeBookingRepo }

func sortByStart(bookings []*bookingDomain.Booking) {
	sort.Slice(bookings, func(i, j int) bool {
		return bookings[i].StartDate().Before(bookings[j].StartDate())
	})
}

func paginate(bookings []*bookingDomain.Booking, page, limit int) []*bookingDomain.Booking {
	start := (page - 1) * limit
	if start >= len(bookings) {
		return nil
	}
	end := start + limit
	if end > len(bookings) {
		end = len(bookings)
	}
	return bookings[start:end]
}

// fakePetRepo is an in-memory PetRepository.
type fakePetRepo struct {
	mu   sync.Mutex
	pets map[uuid.UUID]*petDomain.Pet
}

func newFakePetRepo() *fakePetRepo {
	return &fakePetRepo{pets: make(map[uuid.UUID]*petDomain.Pet)}
}

func (r *fakePetRepo) FindByID(_ context.Context, id uuid.UUID) (*petDomain.Pet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pets[id]
	if !ok {
		return nil, domain.NewNotFoundError("pet", id.String())
	}
	return p, nil
}

func (r *fakePetRepo) FindByOwnerID(_ context.Context, ownerID uuid.UUID) ([]*petDomain.Pet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*petDomain.Pet
	for _, p := range r.pets {
		if p.OwnerID() == ownerID && p.IsActive() {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePetRepo) Save(_ context.Context, p *petDomain.Pet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pets[p.ID()] = p
	return nil
}

func (r *fakePetRepo) Update(_ context.Context, p *petDomain.Pet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pets[p.ID()]; !ok {
		return domain.NewNotFoundError("pet", p.ID().String())
	}
	r.pets[p.ID()] = p
	return nil
}
