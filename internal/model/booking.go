package model

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCheckedIn BookingStatus = "checked_in"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusNoShow    BookingStatus = "no_show"
)

// Booking is a citizen's claim on one seat within a slot. At most one
// non-cancelled booking exists per (slot, citizen) pair.
type Booking struct {
	Base
	SlotID    uuid.UUID     `db:"slot_id" json:"slot_id"`
	CenterID  uuid.UUID     `db:"center_id" json:"center_id"`
	CitizenID uuid.UUID     `db:"citizen_id" json:"citizen_id"`
	Status    BookingStatus `db:"status" json:"status"`
	BookedAt  time.Time     `db:"booked_at" json:"booked_at"`
	ExpiresAt *time.Time    `db:"expires_at" json:"expires_at,omitempty"`
}

type CreateBookingRequest struct {
	SlotID string `json:"slot_id" validate:"required,uuid"`
}

// ConflictReason identifies why a booking intent was rejected.
type ConflictReason string

const (
	ConflictOverbooked    ConflictReason = "OVERBOOKED"
	ConflictSlotInactive  ConflictReason = "SLOT_INACTIVE"
	ConflictDoubleBooking ConflictReason = "DOUBLE_BOOKING"
)

// BookingConflict is the structured rejection returned to the caller so the
// UI can offer ranked alternatives instead of a generic failure.
type BookingConflict struct {
	Reason                ConflictReason `json:"conflict_reason"`
	SuggestedAlternatives []*Slot        `json:"suggested_alternatives"`
	ServerSlot            *Slot          `json:"server_slot,omitempty"`
}

// BookingResult pairs the confirmed booking with the slot state after the
// seat was taken, so clients can reconcile in one step.
type BookingResult struct {
	Booking *Booking `json:"booking"`
	Slot    *Slot    `json:"updated_slot"`
}

type BookingFilters struct {
	SlotID    uuid.UUID
	CenterID  uuid.UUID
	CitizenID uuid.UUID
	Status    BookingStatus
	StartDate time.Time
	EndDate   time.Time
}
