package model

import (
	"time"

	"github.com/google/uuid"
)

// Base carries the identity and audit timestamps shared by every persisted
// record. Nothing in the booking domain is soft-deleted: slots deactivate
// and bookings cancel, so there is no deleted_at here.
type Base struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
