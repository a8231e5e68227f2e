package slot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vaxportal/booking-api/internal/model"
	"github.com/vaxportal/booking-api/internal/repository"
	apperrors "github.com/vaxportal/booking-api/pkg/errors"
)

const (
	MinSlotDuration = 15 * time.Minute
	MaxSlotDuration = 12 * time.Hour
)

type Service struct {
	repo    repository.SlotRepository
	centers repository.CenterRepository
	outbox  repository.OutboxRepository
	logger  zerolog.Logger
}

func NewService(repo repository.SlotRepository, centers repository.CenterRepository, outbox repository.OutboxRepository, logger zerolog.Logger) *Service {
	return &Service{
		repo:    repo,
		centers: centers,
		outbox:  outbox,
		logger:  logger,
	}
}

func (s *Service) CreateSlot(ctx context.Context, slot *model.Slot) error {
	if err := s.validateSlot(slot); err != nil {
		return apperrors.NewValidation("invalid slot", err)
	}

	if _, err := s.centers.Get(ctx, slot.CenterID); err != nil {
		return fmt.Errorf("failed to resolve center: %w", err)
	}

	if err := s.repo.Create(ctx, slot); err != nil {
		return fmt.Errorf("failed to create slot: %w", err)
	}

	s.logger.Info().
		Str("slot_id", slot.ID.String()).
		Str("center_id", slot.CenterID.String()).
		Int("capacity", slot.Capacity).
		Msg("slot created")

	return nil
}

func (s *Service) GetSlot(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) ListSlots(ctx context.Context, filters *model.SlotFilters) ([]*model.Slot, error) {
	slots, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}
	return slots, nil
}

// DeactivateSlot retires a slot. Slots are never hard-deleted; existing
// bookings stay valid and cancellable.
func (s *Service) DeactivateSlot(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return err
	}

	payload, err := json.Marshal(map[string]string{"slot_id": id.String()})
	if err == nil {
		event := &model.OutboxEvent{EventType: model.EventSlotDeactivated, Payload: payload}
		if err := s.outbox.Create(ctx, event); err != nil {
			s.logger.Error().Err(err).Str("slot_id", id.String()).Msg("failed to stage slot deactivation event")
		}
	}

	s.logger.Info().Str("slot_id", id.String()).Msg("slot deactivated")
	return nil
}

func (s *Service) validateSlot(slot *model.Slot) error {
	if slot.CenterID == uuid.Nil {
		return fmt.Errorf("center ID is required")
	}

	if slot.Capacity < 1 {
		return fmt.Errorf("capacity must be at least 1")
	}

	duration := slot.EndTime.Sub(slot.StartTime)
	if duration < MinSlotDuration || duration > MaxSlotDuration {
		return fmt.Errorf("invalid slot duration: must be between %v and %v", MinSlotDuration, MaxSlotDuration)
	}

	if slot.VaccineType == "" {
		return fmt.Errorf("vaccine type is required")
	}

	if slot.DoseNumber < 1 {
		return fmt.Errorf("dose number must be at least 1")
	}

	return nil
}
