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

func (r *staffRepository) Get(ctx context.Context, id uuid.UUID) (*model.Staff, error) {
	query := `
		SELECT id, center_id, name, role, status, created_at, updated_at
		FROM staff
		WHERE id = $1
	`
	var staff model.Staff
	err := r.db.GetContext(ctx, &staff, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.Wrap(errors.StaffNotFound, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get staff member: %w", err)
	}
	return &staff, nil
}

// All assignment repository methods here

func (r *assignmentRepository) Assign(ctx context.Context, staffID, slotID uuid.UUID, assignedAt time.Time) error {
	query := `
		INSERT INTO staff_assignments (staff_id, slot_id, assigned_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (staff_id, slot_id) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, staffID, slotID, assignedAt)
	if err != nil {
		return fmt.Errorf("failed to assign staff to slot: %w", err)
	}
	return nil
}

func (r *assignmentRepository) Unassign(ctx context.Context, staffID, slotID uuid.UUID) (bool, error) {
	query := `
		DELETE FROM staff_assignments
		WHERE staff_id = $1 AND slot_id = $2
	`
	result, err := r.db.ExecContext(ctx, query, staffID, slotID)
	if err != nil {
		return false, fmt.Errorf("failed to unassign staff from slot: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *assignmentRepository) ListForSlot(ctx context.Context, slotID uuid.UUID) ([]*model.StaffAssignment, error) {
	query := `
		SELECT staff_id, slot_id, assigned_at
		FROM staff_assignments
		WHERE slot_id = $1
		ORDER BY assigned_at ASC
	`
	var assignments []*model.StaffAssignment
	err := r.db.SelectContext(ctx, &assignments, query, slotID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	return assignments, nil
}
