package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is lets sentinel comparisons work through wrapping.
func (e *AppError) Is(target error) bool {
	var appErr *AppError
	if !errors.As(target, &appErr) {
		return false
	}
	return e.Code == appErr.Code
}

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrBadRequest
	ErrUnauthorized
	ErrForbidden
	ErrConflict
	ErrInternal
)

// Booking domain error codes
const (
	ErrSlotFull ErrorCode = iota + 2000
	ErrSlotInactive
	ErrSlotNotFound
	ErrDoubleBooking
	ErrStaffNotFound
	ErrStaffInactive
	ErrCenterMismatch
	ErrValidation
	ErrNetworkFailure
)

// Sentinel errors for the reservation subsystem. Repositories and services
// return these so callers can branch with errors.Is instead of string checks.
var (
	SlotFull       = &AppError{Code: ErrSlotFull, Message: "slot has no remaining capacity"}
	SlotInactive   = &AppError{Code: ErrSlotInactive, Message: "slot is no longer active"}
	SlotNotFound   = &AppError{Code: ErrSlotNotFound, Message: "slot not found"}
	DoubleBooking  = &AppError{Code: ErrDoubleBooking, Message: "citizen already holds a booking for this slot"}
	StaffNotFound  = &AppError{Code: ErrStaffNotFound, Message: "staff member not found"}
	StaffInactive  = &AppError{Code: ErrStaffInactive, Message: "staff member is not active"}
	CenterMismatch = &AppError{Code: ErrCenterMismatch, Message: "staff member belongs to a different center"}
	NetworkFailure = &AppError{Code: ErrNetworkFailure, Message: "transient network failure"}
)

// Error constructors
func NewNotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func NewBadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    ErrBadRequest,
		Message: message,
		Err:     err,
	}
}

func NewValidation(message string, err error) *AppError {
	return &AppError{
		Code:    ErrValidation,
		Message: message,
		Err:     err,
	}
}

func NewInternal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}

// Common errors
func NotFound(resource string, err error) *AppError {
	return NewNotFound(resource, err)
}

func BadRequest(message string, err error) *AppError {
	return NewBadRequest(message, err)
}

func Internal(err error) *AppError {
	return NewInternal(err)
}

func Unauthorized(err error) *AppError {
	return &AppError{
		Code:    ErrUnauthorized,
		Message: "unauthorized",
		Err:     err,
	}
}

// Wrap attaches an underlying cause to a sentinel without mutating it.
func Wrap(sentinel *AppError, err error) *AppError {
	return &AppError{
		Code:    sentinel.Code,
		Message: sentinel.Message,
		Err:     err,
	}
}
