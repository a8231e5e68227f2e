package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/vaxportal/booking-api/internal/model"
	"github.com/vaxportal/booking-api/pkg/errors"
)

func (r *centerRepository) Get(ctx context.Context, id uuid.UUID) (*model.Center, error) {
	query := `
		SELECT id, name, location, status, created_at, updated_at
		FROM centers
		WHERE id = $1
	`
	var center model.Center
	err := r.db.GetContext(ctx, &center, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("center", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get center: %w", err)
	}
	return &center, nil
}

func (r *centerRepository) List(ctx context.Context) ([]*model.Center, error) {
	query := `
		SELECT id, name, location, status, created_at, updated_at
		FROM centers
		ORDER BY name ASC
	`
	var centers []*model.Center
	err := r.db.SelectContext(ctx, &centers, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list centers: %w", err)
	}
	return centers, nil
}
