package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vaxportal/booking-api/internal/model"
	"github.com/vaxportal/booking-api/pkg/errors"
)

// All slot repository methods here

func (r *slotRepository) Create(ctx context.Context, slot *model.Slot) error {
	query := `
		INSERT INTO slots (
			id, center_id, start_time, end_time, capacity, remaining,
			vaccine_type, dose_number, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	slot.ID = uuid.New()
	slot.Remaining = slot.Capacity
	slot.IsActive = true
	slot.CreatedAt = time.Now()
	slot.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		slot.ID,
		slot.CenterID,
		slot.StartTime,
		slot.EndTime,
		slot.Capacity,
		slot.Remaining,
		slot.VaccineType,
		slot.DoseNumber,
		slot.IsActive,
		slot.CreatedAt,
		slot.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create slot: %w", err)
	}
	return nil
}

func (r *slotRepository) Get(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	query := `
		SELECT id, center_id, start_time, end_time, capacity, remaining,
			   vaccine_type, dose_number, is_active, created_at, updated_at
		FROM slots
		WHERE id = $1
	`
	var slot model.Slot
	err := r.db.GetContext(ctx, &slot, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.Wrap(errors.SlotNotFound, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get slot: %w", err)
	}
	return &slot, nil
}

func (r *slotRepository) List(ctx context.Context, filters *model.SlotFilters) ([]*model.Slot, error) {
	query := `
		SELECT id, center_id, start_time, end_time, capacity, remaining,
			   vaccine_type, dose_number, is_active, created_at, updated_at
		FROM slots
		WHERE 1=1
	`
	args := []interface{}{}
	argCount := 1

	if filters.CenterID != uuid.Nil {
		query += fmt.Sprintf(" AND center_id = $%d", argCount)
		args = append(args, filters.CenterID)
		argCount++
	}

	if filters.ActiveOnly {
		query += " AND is_active = TRUE"
	}

	if filters.VaccineType != "" {
		query += fmt.Sprintf(" AND vaccine_type = $%d", argCount)
		args = append(args, filters.VaccineType)
		argCount++
	}

	if !filters.StartDate.IsZero() {
		query += fmt.Sprintf(" AND start_time >= $%d", argCount)
		args = append(args, filters.StartDate)
		argCount++
	}

	if !filters.EndDate.IsZero() {
		query += fmt.Sprintf(" AND end_time <= $%d", argCount)
		args = append(args, filters.EndDate)
		argCount++
	}

	query += " ORDER BY start_time ASC"

	var slots []*model.Slot
	err := r.db.SelectContext(ctx, &slots, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}
	return slots, nil
}

func (r *slotRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE slots
		SET is_active = FALSE, updated_at = $1
		WHERE id = $2
	`
	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to deactivate slot: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return errors.SlotNotFound
	}

	return nil
}

// ReserveSeat takes one seat in a single conditional write. The guard and
// the decrement execute in the same statement, so two racers for the last
// seat can never both succeed.
func (r *slotRepository) ReserveSeat(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE slots
		SET remaining = remaining - 1, updated_at = $1
		WHERE id = $2 AND remaining > 0 AND is_active = TRUE
	`
	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to reserve seat: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows > 0 {
		return nil
	}

	// The conditional write matched nothing; read the row to report why.
	slot, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if !slot.IsActive {
		return errors.SlotInactive
	}
	return errors.SlotFull
}

// ReleaseSeat returns a seat, clamped so remaining never exceeds capacity.
// Safe to call from compensation paths any number of times only when paired
// with a guarded cancel transition; the clamp covers crash-recovery replays.
func (r *slotRepository) ReleaseSeat(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE slots
		SET remaining = LEAST(remaining + 1, capacity), updated_at = $1
		WHERE id = $2
	`
	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to release seat: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return errors.SlotNotFound
	}

	return nil
}

func (r *slotRepository) ListAlternatives(ctx context.Context, centerID, excludeSlotID uuid.UUID, limit int) ([]*model.Slot, error) {
	query := `
		SELECT id, center_id, start_time, end_time, capacity, remaining,
			   vaccine_type, dose_number, is_active, created_at, updated_at
		FROM slots
		WHERE center_id = $1
		AND id != $2
		AND is_active = TRUE
		AND remaining > 0
		AND start_time > NOW()
		ORDER BY start_time ASC
		LIMIT $3
	`
	var slots []*model.Slot
	err := r.db.SelectContext(ctx, &slots, query, centerID, excludeSlotID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list alternative slots: %w", err)
	}
	return slots, nil
}
