package slot

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaxportal/booking-api/internal/model"
	apperrors "github.com/vaxportal/booking-api/pkg/errors"
)

type fakeSlotRepo struct {
	slots map[uuid.UUID]*model.Slot
}

func newFakeSlotRepo() *fakeSlotRepo {
	return &fakeSlotRepo{slots: make(map[uuid.UUID]*model.Slot)}
}

func (r *fakeSlotRepo) Create(_ context.Context, slot *model.Slot) error {
	slot.ID = uuid.New()
	slot.Remaining = slot.Capacity
	slot.IsActive = true
	r.slots[slot.ID] = slot
	return nil
}

func (r *fakeSlotRepo) Get(_ context.Context, id uuid.UUID) (*model.Slot, error) {
	slot, ok := r.slots[id]
	if !ok {
		return nil, apperrors.SlotNotFound
	}
	return slot, nil
}

func (r *fakeSlotRepo) List(_ context.Context, filters *model.SlotFilters) ([]*model.Slot, error) {
	var out []*model.Slot
	for _, s := range r.slots {
		if s.CenterID == filters.CenterID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSlotRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	slot, ok := r.slots[id]
	if !ok {
		return apperrors.SlotNotFound
	}
	slot.IsActive = false
	return nil
}

func (r *fakeSlotRepo) ReserveSeat(_ context.Context, _ uuid.UUID) error { return nil }

func (r *fakeSlotRepo) ReleaseSeat(_ context.Context, _ uuid.UUID) error { return nil }

func (r *fakeSlotRepo) ListAlternatives(_ context.Context, _, _ uuid.UUID, _ int) ([]*model.Slot, error) {
	return nil, nil
}

type fakeCenterRepo struct {
	centers map[uuid.UUID]*model.Center
}

func (r *fakeCenterRepo) Get(_ context.Context, id uuid.UUID) (*model.Center, error) {
	center, ok := r.centers[id]
	if !ok {
		return nil, apperrors.NotFound("center", nil)
	}
	return center, nil
}

func (r *fakeCenterRepo) List(_ context.Context) ([]*model.Center, error) { return nil, nil }

type fakeOutboxRepo struct {
	events []*model.OutboxEvent
}

func (r *fakeOutboxRepo) Create(_ context.Context, event *model.OutboxEvent) error {
	r.events = append(r.events, event)
	return nil
}

func (r *fakeOutboxRepo) GetPendingEventsWithLock(_ context.Context, _ int) ([]*model.OutboxEvent, error) {
	return nil, nil
}

func (r *fakeOutboxRepo) UpdateStatusTx(_ context.Context, _ *sql.Tx, _ uuid.UUID, _ string, _ *string, _ *time.Time) error {
	return nil
}

func (r *fakeOutboxRepo) DeleteProcessedBefore(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func setup() (*Service, *fakeSlotRepo, *fakeOutboxRepo, uuid.UUID) {
	centerID := uuid.New()
	center := &model.Center{Name: "Central Clinic", Status: "active"}
	center.ID = centerID

	slots := newFakeSlotRepo()
	outbox := &fakeOutboxRepo{}
	centers := &fakeCenterRepo{centers: map[uuid.UUID]*model.Center{centerID: center}}

	return NewService(slots, centers, outbox, zerolog.Nop()), slots, outbox, centerID
}

func validSlot(centerID uuid.UUID) *model.Slot {
	start := time.Now().Add(24 * time.Hour)
	return &model.Slot{
		CenterID:    centerID,
		StartTime:   start,
		EndTime:     start.Add(time.Hour),
		Capacity:    20,
		VaccineType: "mrna-2",
		DoseNumber:  1,
	}
}

func TestCreateSlot(t *testing.T) {
	svc, _, _, centerID := setup()

	slot := validSlot(centerID)
	require.NoError(t, svc.CreateSlot(context.Background(), slot))

	assert.NotEqual(t, uuid.Nil, slot.ID)
	assert.Equal(t, 20, slot.Remaining, "remaining starts at capacity")
	assert.True(t, slot.IsActive)
}

func TestCreateSlot_Invalid(t *testing.T) {
	svc, _, _, centerID := setup()

	cases := []struct {
		name   string
		mutate func(*model.Slot)
	}{
		{"zero capacity", func(s *model.Slot) { s.Capacity = 0 }},
		{"missing center", func(s *model.Slot) { s.CenterID = uuid.Nil }},
		{"too short", func(s *model.Slot) { s.EndTime = s.StartTime.Add(time.Minute) }},
		{"missing vaccine type", func(s *model.Slot) { s.VaccineType = "" }},
		{"zero dose number", func(s *model.Slot) { s.DoseNumber = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			slot := validSlot(centerID)
			tc.mutate(slot)
			err := svc.CreateSlot(context.Background(), slot)
			require.Error(t, err)
		})
	}
}

func TestCreateSlot_UnknownCenter(t *testing.T) {
	svc, _, _, _ := setup()

	err := svc.CreateSlot(context.Background(), validSlot(uuid.New()))
	require.Error(t, err)
}

func TestDeactivateSlot(t *testing.T) {
	svc, slots, outbox, centerID := setup()

	slot := validSlot(centerID)
	require.NoError(t, svc.CreateSlot(context.Background(), slot))

	require.NoError(t, svc.DeactivateSlot(context.Background(), slot.ID))

	stored, err := slots.Get(context.Background(), slot.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive, "deactivation is a soft retire")

	require.Len(t, outbox.events, 1)
	assert.Equal(t, model.EventSlotDeactivated, outbox.events[0].EventType)
}

func TestDeactivateSlot_NotFound(t *testing.T) {
	svc, _, _, _ := setup()

	err := svc.DeactivateSlot(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperrors.SlotNotFound)
}
