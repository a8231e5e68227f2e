package assignment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaxportal/booking-api/internal/model"
	apperrors "github.com/vaxportal/booking-api/pkg/errors"
)

type fakeStaffRepo struct {
	staff map[uuid.UUID]*model.Staff
	calls int
}

func (r *fakeStaffRepo) Get(_ context.Context, id uuid.UUID) (*model.Staff, error) {
	r.calls++
	staff, ok := r.staff[id]
	if !ok {
		return nil, apperrors.StaffNotFound
	}
	return staff, nil
}

type fakeAssignmentRepo struct {
	links map[[2]uuid.UUID]time.Time
}

func newFakeAssignmentRepo() *fakeAssignmentRepo {
	return &fakeAssignmentRepo{links: make(map[[2]uuid.UUID]time.Time)}
}

func (r *fakeAssignmentRepo) Assign(_ context.Context, staffID, slotID uuid.UUID, assignedAt time.Time) error {
	key := [2]uuid.UUID{staffID, slotID}
	if _, ok := r.links[key]; !ok {
		r.links[key] = assignedAt
	}
	return nil
}

func (r *fakeAssignmentRepo) Unassign(_ context.Context, staffID, slotID uuid.UUID) (bool, error) {
	key := [2]uuid.UUID{staffID, slotID}
	if _, ok := r.links[key]; !ok {
		return false, nil
	}
	delete(r.links, key)
	return true, nil
}

func (r *fakeAssignmentRepo) ListForSlot(_ context.Context, slotID uuid.UUID) ([]*model.StaffAssignment, error) {
	var out []*model.StaffAssignment
	for key, at := range r.links {
		if key[1] == slotID {
			out = append(out, &model.StaffAssignment{StaffID: key[0], SlotID: slotID, AssignedAt: at})
		}
	}
	return out, nil
}

type fakeSlotRepo struct {
	slots map[uuid.UUID]*model.Slot
}

func (r *fakeSlotRepo) Create(_ context.Context, _ *model.Slot) error { return nil }

func (r *fakeSlotRepo) Get(_ context.Context, id uuid.UUID) (*model.Slot, error) {
	slot, ok := r.slots[id]
	if !ok {
		return nil, apperrors.SlotNotFound
	}
	return slot, nil
}

func (r *fakeSlotRepo) List(_ context.Context, _ *model.SlotFilters) ([]*model.Slot, error) {
	return nil, nil
}

func (r *fakeSlotRepo) Deactivate(_ context.Context, _ uuid.UUID) error { return nil }

func (r *fakeSlotRepo) ReserveSeat(_ context.Context, _ uuid.UUID) error { return nil }

func (r *fakeSlotRepo) ReleaseSeat(_ context.Context, _ uuid.UUID) error { return nil }

func (r *fakeSlotRepo) ListAlternatives(_ context.Context, _, _ uuid.UUID, _ int) ([]*model.Slot, error) {
	return nil, nil
}

func setup() (*Service, *fakeStaffRepo, *fakeAssignmentRepo, *model.Staff, *model.Slot) {
	centerID := uuid.New()

	staff := &model.Staff{CenterID: centerID, Name: "Nurse Example", Status: model.StaffStatusActive}
	staff.ID = uuid.New()

	slot := &model.Slot{CenterID: centerID, Capacity: 10, Remaining: 10, IsActive: true}
	slot.ID = uuid.New()

	staffRepo := &fakeStaffRepo{staff: map[uuid.UUID]*model.Staff{staff.ID: staff}}
	assignRepo := newFakeAssignmentRepo()
	slotRepo := &fakeSlotRepo{slots: map[uuid.UUID]*model.Slot{slot.ID: slot}}

	svc := NewService(staffRepo, assignRepo, slotRepo, zerolog.Nop())
	return svc, staffRepo, assignRepo, staff, slot
}

func TestAssignStaffToSlot(t *testing.T) {
	svc, _, repo, staff, slot := setup()

	assignment, err := svc.AssignStaffToSlot(context.Background(), staff.ID, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, staff.ID, assignment.StaffID)
	assert.Equal(t, slot.ID, assignment.SlotID)
	assert.False(t, assignment.AssignedAt.IsZero())

	linked, err := repo.ListForSlot(context.Background(), slot.ID)
	require.NoError(t, err)
	assert.Len(t, linked, 1)
}

func TestAssignStaffToSlot_StaffNotFound(t *testing.T) {
	svc, _, _, _, slot := setup()

	_, err := svc.AssignStaffToSlot(context.Background(), uuid.New(), slot.ID)
	assert.ErrorIs(t, err, apperrors.StaffNotFound)
}

func TestAssignStaffToSlot_StaffInactive(t *testing.T) {
	svc, staffRepo, _, staff, slot := setup()
	staffRepo.staff[staff.ID].Status = model.StaffStatusInactive

	_, err := svc.AssignStaffToSlot(context.Background(), staff.ID, slot.ID)
	assert.ErrorIs(t, err, apperrors.StaffInactive)
}

func TestAssignStaffToSlot_CenterMismatch(t *testing.T) {
	svc, _, _, staff, _ := setup()

	otherSlot := &model.Slot{CenterID: uuid.New(), IsActive: true}
	otherSlot.ID = uuid.New()
	svc.slots.(*fakeSlotRepo).slots[otherSlot.ID] = otherSlot

	_, err := svc.AssignStaffToSlot(context.Background(), staff.ID, otherSlot.ID)
	assert.ErrorIs(t, err, apperrors.CenterMismatch)
}

func TestAssignStaffToSlot_ManySlotsPerStaff(t *testing.T) {
	svc, _, repo, staff, slot := setup()

	second := &model.Slot{CenterID: staff.CenterID, IsActive: true}
	second.ID = uuid.New()
	svc.slots.(*fakeSlotRepo).slots[second.ID] = second

	_, err := svc.AssignStaffToSlot(context.Background(), staff.ID, slot.ID)
	require.NoError(t, err)
	_, err = svc.AssignStaffToSlot(context.Background(), staff.ID, second.ID)
	require.NoError(t, err)

	assert.Len(t, repo.links, 2, "no capacity coupling on staff assignments")
}

func TestUnassignStaffFromSlot(t *testing.T) {
	svc, _, repo, staff, slot := setup()

	_, err := svc.AssignStaffToSlot(context.Background(), staff.ID, slot.ID)
	require.NoError(t, err)

	require.NoError(t, svc.UnassignStaffFromSlot(context.Background(), staff.ID, slot.ID))
	assert.Empty(t, repo.links)
}

func TestUnassignStaffFromSlot_MissingLink(t *testing.T) {
	svc, _, _, staff, slot := setup()

	err := svc.UnassignStaffFromSlot(context.Background(), staff.ID, slot.ID)
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperrors.ErrNotFound, appErr.Code)
}

func TestLookupStaffCached(t *testing.T) {
	svc, staffRepo, _, staff, slot := setup()

	_, err := svc.AssignStaffToSlot(context.Background(), staff.ID, slot.ID)
	require.NoError(t, err)
	err = svc.UnassignStaffFromSlot(context.Background(), staff.ID, slot.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, staffRepo.calls, "second lookup must be served from the cache")
}
