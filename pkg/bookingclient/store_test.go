package bookingclient

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaxportal/booking-api/internal/model"
)

func testSlot(remaining, capacity int) model.Slot {
	return model.Slot{
		Base:        model.Base{ID: uuid.New()},
		CenterID:    uuid.New(),
		StartTime:   time.Now().Add(24 * time.Hour),
		EndTime:     time.Now().Add(25 * time.Hour),
		Capacity:    capacity,
		Remaining:   remaining,
		VaccineType: "mRNA-1273",
		DoseNumber:  1,
		IsActive:    true,
	}
}

func TestStageBooking_DecrementsRemaining(t *testing.T) {
	store := NewStore()
	slot := testSlot(3, 5)
	store.PutSlot(slot)

	tempID, err := store.StageBooking(slot.ID, uuid.New())
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, tempID)

	cached, ok := store.Slot(slot.ID)
	require.True(t, ok)
	assert.Equal(t, 2, cached.Remaining)

	booking, speculative, ok := store.Booking(tempID)
	require.True(t, ok)
	assert.True(t, speculative)
	assert.Equal(t, model.BookingStatusPending, booking.Status)
	assert.Equal(t, slot.ID, booking.SlotID)
}

func TestStageBooking_SlotNotCached(t *testing.T) {
	store := NewStore()

	_, err := store.StageBooking(uuid.New(), uuid.New())
	assert.ErrorIs(t, err, errSlotNotCached)
}

func TestStageBooking_DistinctTempIDs(t *testing.T) {
	store := NewStore()
	slot := testSlot(10, 10)
	store.PutSlot(slot)

	seen := make(map[uuid.UUID]bool)
	for i := 0; i < 5; i++ {
		tempID, err := store.StageBooking(slot.ID, uuid.New())
		require.NoError(t, err)
		assert.False(t, seen[tempID], "temp id reused")
		seen[tempID] = true
	}
	assert.Equal(t, 5, store.SpeculativeCount())
}

func TestConfirmBooking_SingleTransition(t *testing.T) {
	store := NewStore()
	slot := testSlot(3, 5)
	store.PutSlot(slot)
	citizenID := uuid.New()

	tempID, err := store.StageBooking(slot.ID, citizenID)
	require.NoError(t, err)

	serverSlot := slot
	serverSlot.Remaining = 2
	serverBooking := model.Booking{
		Base:      model.Base{ID: uuid.New()},
		SlotID:    slot.ID,
		CenterID:  slot.CenterID,
		CitizenID: citizenID,
		Status:    model.BookingStatusConfirmed,
		BookedAt:  time.Now(),
	}
	store.ConfirmBooking(tempID, serverBooking, serverSlot)

	// Remaining reflects the server value once, not a second decrement.
	cached, ok := store.Slot(slot.ID)
	require.True(t, ok)
	assert.Equal(t, 2, cached.Remaining)

	// The temp record is gone; only the canonical booking remains.
	_, _, ok = store.Booking(tempID)
	assert.False(t, ok)
	booking, speculative, ok := store.Booking(serverBooking.ID)
	require.True(t, ok)
	assert.False(t, speculative)
	assert.Equal(t, model.BookingStatusConfirmed, booking.Status)
	assert.Len(t, store.Bookings(), 1)
	assert.Equal(t, 0, store.SpeculativeCount())
}

func TestRollbackBooking_RestoresRemaining(t *testing.T) {
	store := NewStore()
	slot := testSlot(3, 5)
	store.PutSlot(slot)

	tempID, err := store.StageBooking(slot.ID, uuid.New())
	require.NoError(t, err)

	store.RollbackBooking(tempID)

	cached, ok := store.Slot(slot.ID)
	require.True(t, ok)
	assert.Equal(t, 3, cached.Remaining)
	_, _, ok = store.Booking(tempID)
	assert.False(t, ok)

	// A repeated rollback of the same temp id must not release twice.
	store.RollbackBooking(tempID)
	cached, _ = store.Slot(slot.ID)
	assert.Equal(t, 3, cached.Remaining)
}

func TestRollbackBooking_ClampedAtCapacity(t *testing.T) {
	store := NewStore()
	slot := testSlot(5, 5)
	store.PutSlot(slot)

	tempID, err := store.StageBooking(slot.ID, uuid.New())
	require.NoError(t, err)

	// A concurrent refresh raced in with the slot already back at capacity.
	refreshed := slot
	refreshed.Remaining = 5
	store.PutSlot(refreshed)

	store.RollbackBooking(tempID)

	cached, _ := store.Slot(slot.ID)
	assert.Equal(t, 5, cached.Remaining, "rollback must never push remaining past capacity")
}

func TestRollbackBooking_NoReleaseForClampedStage(t *testing.T) {
	store := NewStore()
	slot := testSlot(0, 5)
	store.PutSlot(slot)

	// Staging at remaining = 0 clamps the decrement to a no-op; the
	// rollback must not invent a seat the stage never took.
	tempID, err := store.StageBooking(slot.ID, uuid.New())
	require.NoError(t, err)

	store.RollbackBooking(tempID)

	cached, ok := store.Slot(slot.ID)
	require.True(t, ok)
	assert.Equal(t, 0, cached.Remaining)
	_, _, ok = store.Booking(tempID)
	assert.False(t, ok)
}

func TestRollbackCancel_NoTakebackForClampedStage(t *testing.T) {
	store := NewStore()
	slot := testSlot(5, 5)
	store.PutSlot(slot)
	booking := model.Booking{
		Base:     model.Base{ID: uuid.New()},
		SlotID:   slot.ID,
		Status:   model.BookingStatusConfirmed,
		BookedAt: time.Now(),
	}
	store.PutBooking(booking)

	// The slot already shows full capacity, so the staged cancel's seat
	// release clamps; rolling the cancel back must leave remaining alone.
	previous, staged := store.StageCancel(booking.ID)
	require.True(t, staged)
	cached, _ := store.Slot(slot.ID)
	require.Equal(t, 5, cached.Remaining)

	store.RollbackCancel(booking.ID, previous)

	restored, _, ok := store.Booking(booking.ID)
	require.True(t, ok)
	assert.Equal(t, model.BookingStatusConfirmed, restored.Status)
	cached, _ = store.Slot(slot.ID)
	assert.Equal(t, 5, cached.Remaining)
}

func TestRollbackBooking_IgnoresCanonicalBookings(t *testing.T) {
	store := NewStore()
	slot := testSlot(3, 5)
	store.PutSlot(slot)
	booking := model.Booking{
		Base:     model.Base{ID: uuid.New()},
		SlotID:   slot.ID,
		Status:   model.BookingStatusConfirmed,
		BookedAt: time.Now(),
	}
	store.PutBooking(booking)

	store.RollbackBooking(booking.ID)

	_, speculative, ok := store.Booking(booking.ID)
	require.True(t, ok, "canonical booking must survive a stray rollback")
	assert.False(t, speculative)
	cached, _ := store.Slot(slot.ID)
	assert.Equal(t, 3, cached.Remaining)
}

func TestCancelLifecycle(t *testing.T) {
	store := NewStore()
	slot := testSlot(2, 5)
	store.PutSlot(slot)
	booking := model.Booking{
		Base:     model.Base{ID: uuid.New()},
		SlotID:   slot.ID,
		Status:   model.BookingStatusConfirmed,
		BookedAt: time.Now(),
	}
	store.PutBooking(booking)

	previous, staged := store.StageCancel(booking.ID)
	require.True(t, staged)
	assert.Equal(t, model.BookingStatusConfirmed, previous)

	cached, _ := store.Slot(slot.ID)
	assert.Equal(t, 3, cached.Remaining, "cancel frees the seat optimistically")

	store.RollbackCancel(booking.ID, previous)

	restored, speculative, ok := store.Booking(booking.ID)
	require.True(t, ok)
	assert.False(t, speculative)
	assert.Equal(t, model.BookingStatusConfirmed, restored.Status)
	cached, _ = store.Slot(slot.ID)
	assert.Equal(t, 2, cached.Remaining)

	previous, staged = store.StageCancel(booking.ID)
	require.True(t, staged)
	store.ConfirmCancel(booking.ID)

	final, speculative, ok := store.Booking(booking.ID)
	require.True(t, ok)
	assert.False(t, speculative)
	assert.Equal(t, model.BookingStatusCancelled, final.Status)
}

func TestStageCancel_MissingBooking(t *testing.T) {
	store := NewStore()

	_, staged := store.StageCancel(uuid.New())
	assert.False(t, staged)
}

func TestAssignmentLifecycle(t *testing.T) {
	store := NewStore()
	staffID, slotID := uuid.New(), uuid.New()

	store.StageAssignment(staffID, slotID)
	assert.Len(t, store.Assignments(slotID), 1)

	confirmed := model.StaffAssignment{StaffID: staffID, SlotID: slotID, AssignedAt: time.Now()}
	store.ConfirmAssignment(confirmed)

	assignments := store.Assignments(slotID)
	require.Len(t, assignments, 1)
	assert.Equal(t, staffID, assignments[0].StaffID)

	removed, had := store.RemoveAssignment(staffID, slotID)
	require.True(t, had)
	assert.Empty(t, store.Assignments(slotID))

	store.RestoreAssignment(removed)
	assert.Len(t, store.Assignments(slotID), 1)
}

func TestReplaceAll_DropsSpeculative(t *testing.T) {
	store := NewStore()
	slot := testSlot(3, 5)
	store.PutSlot(slot)

	_, err := store.StageBooking(slot.ID, uuid.New())
	require.NoError(t, err)
	require.Equal(t, 1, store.SpeculativeCount())

	canonical := model.Booking{
		Base:     model.Base{ID: uuid.New()},
		SlotID:   slot.ID,
		Status:   model.BookingStatusConfirmed,
		BookedAt: time.Now(),
	}
	refreshed := slot
	refreshed.Remaining = 2
	store.ReplaceAll([]model.Slot{refreshed}, []model.Booking{canonical})

	assert.Equal(t, 0, store.SpeculativeCount())
	assert.Len(t, store.Bookings(), 1)
	cached, ok := store.Slot(slot.ID)
	require.True(t, ok)
	assert.Equal(t, 2, cached.Remaining)
}

func TestSlotsByStartTime_Ordered(t *testing.T) {
	store := NewStore()
	late := testSlot(1, 1)
	late.StartTime = time.Now().Add(48 * time.Hour)
	early := testSlot(1, 1)
	early.StartTime = time.Now().Add(2 * time.Hour)
	store.PutSlot(late)
	store.PutSlot(early)

	slots := store.SlotsByStartTime()
	require.Len(t, slots, 2)
	assert.Equal(t, early.ID, slots[0].ID)
	assert.Equal(t, late.ID, slots[1].ID)
}

func TestBookingsOn_FiltersBySlotDay(t *testing.T) {
	store := NewStore()
	day := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	todaySlot := testSlot(5, 5)
	todaySlot.StartTime = day
	tomorrowSlot := testSlot(5, 5)
	tomorrowSlot.StartTime = day.Add(24 * time.Hour)
	store.PutSlot(todaySlot)
	store.PutSlot(tomorrowSlot)

	store.PutBooking(model.Booking{
		Base:     model.Base{ID: uuid.New()},
		SlotID:   todaySlot.ID,
		Status:   model.BookingStatusConfirmed,
		BookedAt: time.Now(),
	})
	store.PutBooking(model.Booking{
		Base:     model.Base{ID: uuid.New()},
		SlotID:   tomorrowSlot.ID,
		Status:   model.BookingStatusConfirmed,
		BookedAt: time.Now(),
	})

	assert.Len(t, store.BookingsOn(day), 1)
	assert.Len(t, store.BookingsOn(day.Add(24*time.Hour)), 1)
	assert.Empty(t, store.BookingsOn(day.Add(-24*time.Hour)))
}
