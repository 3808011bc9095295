package booking

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawhaven/service-booking/internal/pkg/domain"
)

func newTestBooking(t *testing.T, serviceType ServiceType, start, end Date, quote Quote) *Booking {
	t.Helper()
	bk, err := NewBooking(uuid.New(), uuid.New(), serviceType, start, end, quote, PickupInfo{}, "")
	require.NoError(t, err)
	return bk
}

func TestNewBooking(t *testing.T) {
	start := NewDate(2025, time.June, 1)
	end := NewDate(2025, time.June, 4)
	quote := Quote{Price: 6000, NumberOfDays: 3}

	bk, err := NewBooking(uuid.New(), uuid.New(), ServiceBoarding, start, end, quote, PickupInfo{}, "bring blanket")
	require.NoError(t, err)

	assert.Equal(t, StatusPending, bk.Status())
	assert.Equal(t, int64(6000), bk.Price())
	assert.Equal(t, 3, bk.NumberOfDays())
	assert.Equal(t, int64(1), bk.Version())
	assert.Equal(t, "bring blanket", bk.Notes())
	assert.True(t, strings.HasPrefix(bk.ConfirmationCode(), "BK"))
	assert.Greater(t, len(bk.ConfirmationCode()), 7)
}

func TestNewBooking_Validation(t *testing.T) {
	start := NewDate(2025, time.June, 1)
	quote := Quote{Price: 3500, NumberOfDays: 1}

	_, err := NewBooking(uuid.Nil, uuid.New(), ServiceGrooming, start, start, quote, PickupInfo{}, "")
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = NewBooking(uuid.New(), uuid.Nil, ServiceGrooming, start, start, quote, PickupInfo{}, "")
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = NewBooking(uuid.New(), uuid.New(), ServiceGrooming, start, start.AddDays(-1), quote, PickupInfo{}, "")
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestConfirmationCode_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := generateConfirmationCode()
		require.NoError(t, err)
		assert.False(t, seen[code], "confirmation code repeated: %s", code)
		seen[code] = true
	}
}

func TestPickupInfo_Validate(t *testing.T) {
	tests := []struct {
		name    string
		pickup  PickupInfo
		wantErr bool
	}{
		{name: "no pickup needs nothing", pickup: PickupInfo{}},
		{
			name: "complete pickup",
			pickup: PickupInfo{
				RequiresPickup: true,
				PickupAddress:  "1 Bark Lane",
				PickupTime:     "08:00",
				DropoffTime:    "17:00",
			},
		},
		{
			name:    "missing address",
			pickup:  PickupInfo{RequiresPickup: true, PickupTime: "08:00", DropoffTime: "17:00"},
			wantErr: true,
		},
		{
			name:    "missing pickup time",
			pickup:  PickupInfo{RequiresPickup: true, PickupAddress: "1 Bark Lane", DropoffTime: "17:00"},
			wantErr: true,
		},
		{
			name:    "missing dropoff time",
			pickup:  PickupInfo{RequiresPickup: true, PickupAddress: "1 Bark Lane", PickupTime: "08:00"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.pickup.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestPickupInfo_DropoffDefaultsToPickup(t *testing.T) {
	p := PickupInfo{
		RequiresPickup: true,
		PickupAddress:  "1 Bark Lane",
		PickupTime:     "08:00",
		DropoffTime:    "17:00",
	}
	require.NoError(t, p.Validate())
	assert.Equal(t, "1 Bark Lane", p.DropoffAddress)
}

func TestBooking_ApproveReject(t *testing.T) {
	start := NewDate(2025, time.June, 1)
	quote := Quote{Price: 3500, NumberOfDays: 1}

	t.Run("approve pending", func(t *testing.T) {
		bk := newTestBooking(t, ServiceGrooming, start, start, quote)
		require.NoError(t, bk.Approve())
		assert.Equal(t, StatusConfirmed, bk.Status())
	})

	t.Run("approve is not idempotent", func(t *testing.T) {
		bk := newTestBooking(t, ServiceGrooming, start, start, quote)
		require.NoError(t, bk.Approve())
		err := bk.Approve()
		assert.Equal(t, domain.KindInvalidState, domain.KindOf(err))
	})

	t.Run("reject pending", func(t *testing.T) {
		bk := newTestBooking(t, ServiceGrooming, start, start, quote)
		require.NoError(t, bk.Reject())
		assert.Equal(t, StatusCancelled, bk.Status())
	})

	t.Run("reject after approve fails", func(t *testing.T) {
		bk := newTestBooking(t, ServiceGrooming, start, start, quote)
		require.NoError(t, bk.Approve())
		err := bk.Reject()
		assert.Equal(t, domain.KindInvalidState, domain.KindOf(err))
	})
}

func TestBooking_CancelByOwner(t *testing.T) {
	start := NewDate(2025, time.June, 10)
	quote := Quote{Price: 3500, NumberOfDays: 1}

	t.Run("pending cancels any time", func(t *testing.T) {
		bk := newTestBooking(t, ServiceGrooming, start, start, quote)
		require.NoError(t, bk.CancelByOwner(start)) // even on the start date
		assert.Equal(t, StatusCancelled, bk.Status())
	})

	t.Run("confirmed cancels before start date", func(t *testing.T) {
		bk := newTestBooking(t, ServiceGrooming, start, start, quote)
		require.NoError(t, bk.Approve())
		require.NoError(t, bk.CancelByOwner(start.AddDays(-1)))
		assert.Equal(t, StatusCancelled, bk.Status())
	})

	t.Run("confirmed cannot cancel on start date", func(t *testing.T) {
		bk := newTestBooking(t, ServiceGrooming, start, start, quote)
		require.NoError(t, bk.Approve())
		err := bk.CancelByOwner(start)
		assert.Equal(t, domain.KindConflict, domain.KindOf(err))
		assert.Equal(t, StatusConfirmed, bk.Status())
	})

	t.Run("confirmed cannot cancel after start date", func(t *testing.T) {
		bk := newTestBooking(t, ServiceGrooming, start, start, quote)
		require.NoError(t, bk.Approve())
		err := bk.CancelByOwner(start.AddDays(1))
		assert.Equal(t, domain.KindConflict, domain.KindOf(err))
	})

	t.Run("cancelled is terminal", func(t *testing.T) {
		bk := newTestBooking(t, ServiceGrooming, start, start, quote)
		require.NoError(t, bk.CancelByOwner(start.AddDays(-5)))
		err := bk.CancelByOwner(start.AddDays(-5))
		assert.Equal(t, domain.KindInvalidState, domain.KindOf(err))
	})
}

func TestBooking_Reschedule(t *testing.T) {
	start := NewDate(2025, time.June, 1)
	end := NewDate(2025, time.June, 4)
	quote := Quote{Price: 6000, NumberOfDays: 3}

	t.Run("confirmed booking returns to pending", func(t *testing.T) {
		bk := newTestBooking(t, ServiceBoarding, start, end, quote)
		require.NoError(t, bk.Approve())

		newStart := start.AddDays(7)
		newEnd := newStart.AddDays(2)
		require.NoError(t, bk.Reschedule(newStart, newEnd, Quote{Price: 4000, NumberOfDays: 2}))

		assert.Equal(t, StatusPending, bk.Status())
		assert.True(t, bk.StartDate().Equal(newStart))
		assert.True(t, bk.EndDate().Equal(newEnd))
		assert.Equal(t, int64(4000), bk.Price())
		assert.Equal(t, 2, bk.NumberOfDays())
	})

	t.Run("terminal booking rejects reschedule", func(t *testing.T) {
		bk := newTestBooking(t, ServiceBoarding, start, end, quote)
		require.NoError(t, bk.CancelByOwner(start.AddDays(-1)))
		err := bk.Reschedule(start.AddDays(7), end.AddDays(7), quote)
		assert.Equal(t, domain.KindInvalidState, domain.KindOf(err))
	})

	t.Run("reversed range rejected", func(t *testing.T) {
		bk := newTestBooking(t, ServiceBoarding, start, end, quote)
		err := bk.Reschedule(end, start, quote)
		assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	})
}

func TestBooking_Complete(t *testing.T) {
	start := NewDate(2025, time.June, 1)
	quote := Quote{Price: 3500, NumberOfDays: 1}

	t.Run("confirmed completes", func(t *testing.T) {
		bk := newTestBooking(t, ServiceGrooming, start, start, quote)
		require.NoError(t, bk.Approve())
		require.NoError(t, bk.Complete())
		assert.Equal(t, StatusCompleted, bk.Status())
	})

	t.Run("pending cannot complete", func(t *testing.T) {
		bk := newTestBooking(t, ServiceGrooming, start, start, quote)
		err := bk.Complete()
		assert.Equal(t, domain.KindInvalidState, domain.KindOf(err))
	})
}

func TestBooking_IsOwnedBy(t *testing.T) {
	ownerID := uuid.New()
	bk, err := NewBooking(ownerID, uuid.New(), ServiceGrooming,
		NewDate(2025, time.June, 1), NewDate(2025, time.June, 1),
		Quote{Price: 3500, NumberOfDays: 1}, PickupInfo{}, "")
	require.NoError(t, err)

	assert.True(t, bk.IsOwnedBy(ownerID))
	assert.False(t, bk.IsOwnedBy(uuid.New()))
}
