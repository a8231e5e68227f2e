package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/vaxportal/booking-api/internal/model"
)

// All repository interfaces in one file
type (
	// SlotRepository is the slot catalog. ReserveSeat and ReleaseSeat are
	// the only legal writers of a slot's remaining count.
	SlotRepository interface {
		Create(ctx context.Context, slot *model.Slot) error
		Get(ctx context.Context, id uuid.UUID) (*model.Slot, error)
		List(ctx context.Context, filters *model.SlotFilters) ([]*model.Slot, error)
		Deactivate(ctx context.Context, id uuid.UUID) error

		// ReserveSeat atomically decrements remaining iff remaining > 0 and
		// the slot is active. Fails with errors.SlotFull, errors.SlotInactive
		// or errors.SlotNotFound.
		ReserveSeat(ctx context.Context, id uuid.UUID) error
		// ReleaseSeat atomically increments remaining, clamped at capacity.
		ReleaseSeat(ctx context.Context, id uuid.UUID) error

		// ListAlternatives returns other active slots at the same center with
		// seats remaining, ordered by start time ascending.
		ListAlternatives(ctx context.Context, centerID, excludeSlotID uuid.UUID, limit int) ([]*model.Slot, error)
	}

	BookingRepository interface {
		Create(ctx context.Context, booking *model.Booking) error
		Get(ctx context.Context, id uuid.UUID) (*model.Booking, error)
		List(ctx context.Context, filters *model.BookingFilters) ([]*model.Booking, error)

		// FindActive returns the non-cancelled booking for the pair, or nil.
		FindActive(ctx context.Context, slotID, citizenID uuid.UUID) (*model.Booking, error)

		// MarkCancelled transitions the booking to cancelled and reports
		// whether this call performed the transition. A false return with a
		// nil error means the booking was already cancelled.
		MarkCancelled(ctx context.Context, id uuid.UUID) (bool, error)
	}

	StaffRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Staff, error)
	}

	AssignmentRepository interface {
		Assign(ctx context.Context, staffID, slotID uuid.UUID, assignedAt time.Time) error
		Unassign(ctx context.Context, staffID, slotID uuid.UUID) (bool, error)
		ListForSlot(ctx context.Context, slotID uuid.UUID) ([]*model.StaffAssignment, error)
	}

	CenterRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Center, error)
		List(ctx context.Context) ([]*model.Center, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uuid.UUID, status string, errorMessage *string, retryAt *time.Time) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
