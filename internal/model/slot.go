package model

import (
	"time"

	"github.com/google/uuid"
)

// Slot is a bookable time-and-capacity unit offered by a vaccination center.
// Remaining is only ever written through the slot repository's ReserveSeat
// and ReleaseSeat primitives; 0 <= Remaining <= Capacity holds at all times.
type Slot struct {
	Base
	CenterID    uuid.UUID `db:"center_id" json:"center_id"`
	StartTime   time.Time `db:"start_time" json:"start_time"`
	EndTime     time.Time `db:"end_time" json:"end_time"`
	Capacity    int       `db:"capacity" json:"capacity"`
	Remaining   int       `db:"remaining" json:"remaining"`
	VaccineType string    `db:"vaccine_type" json:"vaccine_type"`
	DoseNumber  int       `db:"dose_number" json:"dose_number"`
	IsActive    bool      `db:"is_active" json:"is_active"`
}

type CreateSlotRequest struct {
	CenterID    string    `json:"center_id" validate:"required,uuid"`
	StartTime   time.Time `json:"start_time" validate:"required"`
	EndTime     time.Time `json:"end_time" validate:"required,gtfield=StartTime"`
	Capacity    int       `json:"capacity" validate:"required,min=1"`
	VaccineType string    `json:"vaccine_type" validate:"required,max=100"`
	DoseNumber  int       `json:"dose_number" validate:"required,min=1,max=10"`
}

type SlotFilters struct {
	CenterID    uuid.UUID
	VaccineType string
	ActiveOnly  bool
	StartDate   time.Time
	EndDate     time.Time
}
