package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/vaxportal/booking-api/internal/repository"
)

type slotRepository struct {
	db *sqlx.DB
}

type bookingRepository struct {
	db *sqlx.DB
}

type staffRepository struct {
	db *sqlx.DB
}

type assignmentRepository struct {
	db *sqlx.DB
}

type centerRepository struct {
	db *sqlx.DB
}

func NewSlotRepository(db *sqlx.DB) repository.SlotRepository {
	return &slotRepository{db: db}
}

func NewBookingRepository(db *sqlx.DB) repository.BookingRepository {
	return &bookingRepository{db: db}
}

func NewStaffRepository(db *sqlx.DB) repository.StaffRepository {
	return &staffRepository{db: db}
}

func NewAssignmentRepository(db *sqlx.DB) repository.AssignmentRepository {
	return &assignmentRepository{db: db}
}

func NewCenterRepository(db *sqlx.DB) repository.CenterRepository {
	return &centerRepository{db: db}
}
