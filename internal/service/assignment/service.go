package assignment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/vaxportal/booking-api/internal/model"
	"github.com/vaxportal/booking-api/internal/repository"
	apperrors "github.com/vaxportal/booking-api/pkg/errors"
)

const (
	staffCacheTTL     = 5 * time.Minute
	staffCacheCleanup = 15 * time.Minute
)

// Service applies the staff-to-slot assignment protocol. It is structurally
// the booking flow without capacity coupling: a staff member may be linked
// to any number of slots.
type Service struct {
	staff       repository.StaffRepository
	assignments repository.AssignmentRepository
	slots       repository.SlotRepository
	staffCache  *cache.Cache
	logger      zerolog.Logger
}

func NewService(
	staff repository.StaffRepository,
	assignments repository.AssignmentRepository,
	slots repository.SlotRepository,
	logger zerolog.Logger,
) *Service {
	return &Service{
		staff:       staff,
		assignments: assignments,
		slots:       slots,
		staffCache:  cache.New(staffCacheTTL, staffCacheCleanup),
		logger:      logger,
	}
}

func (s *Service) AssignStaffToSlot(ctx context.Context, staffID, slotID uuid.UUID) (*model.StaffAssignment, error) {
	staff, err := s.lookupStaff(ctx, staffID)
	if err != nil {
		return nil, err
	}

	if staff.Status != model.StaffStatusActive {
		return nil, apperrors.StaffInactive
	}

	slot, err := s.slots.Get(ctx, slotID)
	if err != nil {
		return nil, err
	}

	if slot.CenterID != staff.CenterID {
		return nil, apperrors.CenterMismatch
	}

	assignment := &model.StaffAssignment{
		StaffID:    staffID,
		SlotID:     slotID,
		AssignedAt: time.Now(),
	}
	if err := s.assignments.Assign(ctx, staffID, slotID, assignment.AssignedAt); err != nil {
		return nil, fmt.Errorf("failed to assign staff: %w", err)
	}

	s.logger.Info().
		Str("staff_id", staffID.String()).
		Str("slot_id", slotID.String()).
		Msg("staff assigned to slot")

	return assignment, nil
}

func (s *Service) UnassignStaffFromSlot(ctx context.Context, staffID, slotID uuid.UUID) error {
	if _, err := s.lookupStaff(ctx, staffID); err != nil {
		return err
	}

	removed, err := s.assignments.Unassign(ctx, staffID, slotID)
	if err != nil {
		return fmt.Errorf("failed to unassign staff: %w", err)
	}
	if !removed {
		return apperrors.NotFound("assignment", nil)
	}

	s.logger.Info().
		Str("staff_id", staffID.String()).
		Str("slot_id", slotID.String()).
		Msg("staff unassigned from slot")

	return nil
}

func (s *Service) ListAssignments(ctx context.Context, slotID uuid.UUID) ([]*model.StaffAssignment, error) {
	assignments, err := s.assignments.ListForSlot(ctx, slotID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	return assignments, nil
}

// lookupStaff consults the staff directory through a short TTL cache; the
// directory is an external collaborator and its answers change rarely.
func (s *Service) lookupStaff(ctx context.Context, staffID uuid.UUID) (*model.Staff, error) {
	if cached, ok := s.staffCache.Get(staffID.String()); ok {
		return cached.(*model.Staff), nil
	}

	staff, err := s.staff.Get(ctx, staffID)
	if err != nil {
		return nil, err
	}

	s.staffCache.Set(staffID.String(), staff, cache.DefaultExpiration)
	return staff, nil
}
