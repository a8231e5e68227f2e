package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vaxportal/booking-api/internal/model"
	"github.com/vaxportal/booking-api/internal/repository"
	apperrors "github.com/vaxportal/booking-api/pkg/errors"
	"github.com/vaxportal/booking-api/pkg/metrics"
)

// MaxSuggestedAlternatives caps the alternatives attached to a conflict.
const MaxSuggestedAlternatives = 5

// ConflictError carries the structured rejection for a booking intent:
// the reason, ranked alternative slots at the same center, and the server's
// view of the contested slot.
type ConflictError struct {
	Conflict *model.BookingConflict
	err      error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("booking conflict: %s", e.Conflict.Reason)
}

func (e *ConflictError) Unwrap() error {
	return e.err
}

type Service struct {
	slots    repository.SlotRepository
	bookings repository.BookingRepository
	outbox   repository.OutboxRepository
	logger   zerolog.Logger
	metrics  *metrics.Metrics
}

func NewService(
	slots repository.SlotRepository,
	bookings repository.BookingRepository,
	outbox repository.OutboxRepository,
	logger zerolog.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		slots:    slots,
		bookings: bookings,
		outbox:   outbox,
		logger:   logger,
		metrics:  m,
	}
}

// CreateBooking turns a booking intent into a confirmed, capacity-correct
// booking or a well-defined conflict. The seat reservation and the booking
// insert form one logical transaction: any failure after the seat is taken
// releases it again before the error is returned.
func (s *Service) CreateBooking(ctx context.Context, citizenID, slotID uuid.UUID) (*model.BookingResult, error) {
	if citizenID == uuid.Nil {
		return nil, apperrors.NewValidation("citizen ID is required", nil)
	}
	if slotID == uuid.Nil {
		return nil, apperrors.NewValidation("slot ID is required", nil)
	}

	existing, err := s.bookings.FindActive(ctx, slotID, citizenID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing booking: %w", err)
	}
	if existing != nil {
		return nil, s.conflict(ctx, slotID, model.ConflictDoubleBooking, apperrors.DoubleBooking)
	}

	// The sole serialization point for the slot: a single conditional
	// decrement at the storage layer.
	if err := s.slots.ReserveSeat(ctx, slotID); err != nil {
		switch {
		case errors.Is(err, apperrors.SlotFull):
			return nil, s.conflict(ctx, slotID, model.ConflictOverbooked, err)
		case errors.Is(err, apperrors.SlotInactive):
			return nil, s.conflict(ctx, slotID, model.ConflictSlotInactive, err)
		default:
			return nil, err
		}
	}
	s.metrics.SeatsReserved.Inc()

	slot, err := s.slots.Get(ctx, slotID)
	if err != nil {
		s.compensate(ctx, slotID, err)
		return nil, fmt.Errorf("failed to read slot after reserve: %w", err)
	}

	booking := &model.Booking{
		SlotID:    slotID,
		CenterID:  slot.CenterID,
		CitizenID: citizenID,
		Status:    model.BookingStatusConfirmed,
		BookedAt:  time.Now(),
	}

	if err := s.bookings.Create(ctx, booking); err != nil {
		// A seat is never lost to an aborted attempt: release it before
		// surfacing the failure, including the duplicate-key race on the
		// uniqueness invariant.
		s.compensate(ctx, slotID, err)
		if errors.Is(err, apperrors.DoubleBooking) {
			return nil, s.conflict(ctx, slotID, model.ConflictDoubleBooking, err)
		}
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	s.metrics.BookingsCreated.Inc()
	s.publishEvent(ctx, model.EventBookingConfirmed, booking)

	s.logger.Info().
		Str("booking_id", booking.ID.String()).
		Str("slot_id", slotID.String()).
		Str("citizen_id", citizenID.String()).
		Int("remaining", slot.Remaining).
		Msg("booking confirmed")

	return &model.BookingResult{Booking: booking, Slot: slot}, nil
}

// CancelBooking is idempotent: cancelling an already-cancelled booking is a
// successful no-op and never double-releases a seat. Only the call that
// actually performs the transition releases.
func (s *Service) CancelBooking(ctx context.Context, id uuid.UUID) error {
	booking, err := s.bookings.Get(ctx, id)
	if err != nil {
		return err
	}

	transitioned, err := s.bookings.MarkCancelled(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to cancel booking: %w", err)
	}
	if !transitioned {
		return nil
	}

	if err := s.slots.ReleaseSeat(ctx, booking.SlotID); err != nil {
		// The booking row is already cancelled; a failed release leaves the
		// seat unavailable until reconciliation.
		s.metrics.CompensationFailures.Inc()
		s.logger.Error().
			Err(err).
			Str("booking_id", id.String()).
			Str("slot_id", booking.SlotID.String()).
			Msg("seat release after cancellation failed, slot capacity requires reconciliation")
		return fmt.Errorf("failed to release seat: %w", err)
	}
	s.metrics.SeatsReleased.Inc()
	s.metrics.BookingsCancelled.Inc()

	s.publishEvent(ctx, model.EventBookingCancelled, booking)

	s.logger.Info().
		Str("booking_id", id.String()).
		Str("slot_id", booking.SlotID.String()).
		Msg("booking cancelled")

	return nil
}

func (s *Service) GetBooking(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	return s.bookings.Get(ctx, id)
}

func (s *Service) ListBookings(ctx context.Context, filters *model.BookingFilters) ([]*model.Booking, error) {
	bookings, err := s.bookings.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

// compensate undoes a seat reservation after a later step failed. A failure
// here is the one state the subsystem cannot repair on its own, so it is
// logged at the highest severity for reconciliation.
func (s *Service) compensate(ctx context.Context, slotID uuid.UUID, cause error) {
	if err := s.slots.ReleaseSeat(ctx, slotID); err != nil {
		s.metrics.CompensationFailures.Inc()
		s.logger.Error().
			Err(err).
			AnErr("cause", cause).
			Str("slot_id", slotID.String()).
			Msg("FATAL: compensating seat release failed, slot capacity is inconsistent and requires reconciliation")
		return
	}
	s.metrics.SeatsReleased.Inc()
}

// conflict builds the structured rejection, attaching alternatives at the
// same center when the slot is still readable.
func (s *Service) conflict(ctx context.Context, slotID uuid.UUID, reason model.ConflictReason, cause error) error {
	s.metrics.BookingConflicts.WithLabelValues(string(reason)).Inc()

	conflict := &model.BookingConflict{
		Reason:                reason,
		SuggestedAlternatives: []*model.Slot{},
	}

	slot, err := s.slots.Get(ctx, slotID)
	if err == nil {
		conflict.ServerSlot = slot
		alternatives, altErr := s.slots.ListAlternatives(ctx, slot.CenterID, slotID, MaxSuggestedAlternatives)
		if altErr != nil {
			s.logger.Warn().Err(altErr).Str("slot_id", slotID.String()).Msg("failed to load alternative slots")
		} else {
			conflict.SuggestedAlternatives = alternatives
		}
	}

	return &ConflictError{Conflict: conflict, err: cause}
}

// publishEvent stages an outbox event; delivery failures never fail the
// booking operation itself.
func (s *Service) publishEvent(ctx context.Context, eventType string, booking *model.Booking) {
	payload, err := json.Marshal(booking)
	if err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Msg("failed to marshal booking event")
		return
	}

	event := &model.OutboxEvent{
		EventType: eventType,
		Payload:   payload,
	}
	if err := s.outbox.Create(ctx, event); err != nil {
		s.logger.Error().
			Err(err).
			Str("event_type", eventType).
			Str("booking_id", booking.ID.String()).
			Msg("failed to stage outbox event")
	}
}
