package model

import (
	"time"

	"github.com/google/uuid"
)

type StaffStatus string

const (
	StaffStatusActive   StaffStatus = "active"
	StaffStatusInactive StaffStatus = "inactive"
)

// Staff is a directory entry for a center worker. The directory itself is an
// external collaborator; this is the slice of it the gateway needs.
type Staff struct {
	Base
	CenterID uuid.UUID   `db:"center_id" json:"center_id"`
	Name     string      `db:"name" json:"name"`
	Role     string      `db:"role" json:"role"`
	Status   StaffStatus `db:"status" json:"status"`
}

// StaffAssignment links a staff member to a slot. Many-to-many, no capacity
// semantics.
type StaffAssignment struct {
	StaffID    uuid.UUID `db:"staff_id" json:"staff_id"`
	SlotID     uuid.UUID `db:"slot_id" json:"slot_id"`
	AssignedAt time.Time `db:"assigned_at" json:"assigned_at"`
}

type AssignStaffRequest struct {
	StaffID string `json:"staff_id" validate:"required,uuid"`
	SlotID  string `json:"slot_id" validate:"required,uuid"`
}
