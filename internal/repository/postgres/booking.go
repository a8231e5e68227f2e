package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/vaxportal/booking-api/internal/model"
	"github.com/vaxportal/booking-api/pkg/errors"
)

// uniqueViolation is the postgres error code raised by the partial unique
// index on (slot_id, citizen_id) WHERE status != 'cancelled'.
const uniqueViolation = "23505"

// All booking repository methods here

func (r *bookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	query := `
		INSERT INTO bookings (
			id, slot_id, center_id, citizen_id, status,
			booked_at, expires_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	booking.ID = uuid.New()
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		booking.ID,
		booking.SlotID,
		booking.CenterID,
		booking.CitizenID,
		booking.Status,
		booking.BookedAt,
		booking.ExpiresAt,
		booking.CreatedAt,
		booking.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == uniqueViolation {
			return errors.Wrap(errors.DoubleBooking, err)
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (r *bookingRepository) Get(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	query := `
		SELECT id, slot_id, center_id, citizen_id, status,
			   booked_at, expires_at, created_at, updated_at
		FROM bookings
		WHERE id = $1
	`
	var booking model.Booking
	err := r.db.GetContext(ctx, &booking, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("booking", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &booking, nil
}

func (r *bookingRepository) List(ctx context.Context, filters *model.BookingFilters) ([]*model.Booking, error) {
	query := `
		SELECT id, slot_id, center_id, citizen_id, status,
			   booked_at, expires_at, created_at, updated_at
		FROM bookings
		WHERE 1=1
	`
	args := []interface{}{}
	argCount := 1

	if filters.CitizenID != uuid.Nil {
		query += fmt.Sprintf(" AND citizen_id = $%d", argCount)
		args = append(args, filters.CitizenID)
		argCount++
	}

	if filters.SlotID != uuid.Nil {
		query += fmt.Sprintf(" AND slot_id = $%d", argCount)
		args = append(args, filters.SlotID)
		argCount++
	}

	if filters.CenterID != uuid.Nil {
		query += fmt.Sprintf(" AND center_id = $%d", argCount)
		args = append(args, filters.CenterID)
		argCount++
	}

	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, filters.Status)
		argCount++
	}

	if !filters.StartDate.IsZero() {
		query += fmt.Sprintf(" AND booked_at >= $%d", argCount)
		args = append(args, filters.StartDate)
		argCount++
	}

	if !filters.EndDate.IsZero() {
		query += fmt.Sprintf(" AND booked_at <= $%d", argCount)
		args = append(args, filters.EndDate)
		argCount++
	}

	query += " ORDER BY booked_at ASC"

	var bookings []*model.Booking
	err := r.db.SelectContext(ctx, &bookings, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

func (r *bookingRepository) FindActive(ctx context.Context, slotID, citizenID uuid.UUID) (*model.Booking, error) {
	query := `
		SELECT id, slot_id, center_id, citizen_id, status,
			   booked_at, expires_at, created_at, updated_at
		FROM bookings
		WHERE slot_id = $1 AND citizen_id = $2 AND status != $3
	`
	var booking model.Booking
	err := r.db.GetContext(ctx, &booking, query, slotID, citizenID, model.BookingStatusCancelled)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find active booking: %w", err)
	}
	return &booking, nil
}

// MarkCancelled only transitions rows that are not already cancelled, so the
// caller can tell a first cancellation apart from a repeat and release the
// seat exactly once.
func (r *bookingRepository) MarkCancelled(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE bookings
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status != $1
	`
	result, err := r.db.ExecContext(ctx, query, model.BookingStatusCancelled, time.Now(), id)
	if err != nil {
		return false, fmt.Errorf("failed to cancel booking: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}
