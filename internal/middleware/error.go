package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/vaxportal/booking-api/internal/handler"
	apperrors "github.com/vaxportal/booking-api/pkg/errors"
)

// ErrorHandler is the last line of defense for errors attached to the gin
// context that no handler translated itself. Handlers normally map domain
// errors to responses directly; anything that reaches this point is logged
// and rendered in the standard envelope.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		requestID := c.GetString(ContextRequestID)

		for _, e := range c.Errors {
			log.Error().
				Err(e.Err).
				Str("request_id", requestID).
				Str("path", c.Request.URL.Path).
				Str("method", c.Request.Method).
				Str("client_ip", c.ClientIP()).
				Msg("unhandled request error")
		}

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last().Err
		c.JSON(statusFor(lastErr), handler.NewErrorResponse(messageFor(lastErr)))
	}
}

func statusFor(err error) int {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError
	}

	switch appErr.Code {
	case apperrors.ErrNotFound, apperrors.ErrSlotNotFound, apperrors.ErrStaffNotFound:
		return http.StatusNotFound
	case apperrors.ErrBadRequest, apperrors.ErrValidation,
		apperrors.ErrStaffInactive, apperrors.ErrCenterMismatch:
		return http.StatusBadRequest
	case apperrors.ErrUnauthorized:
		return http.StatusUnauthorized
	case apperrors.ErrForbidden:
		return http.StatusForbidden
	case apperrors.ErrConflict, apperrors.ErrSlotFull, apperrors.ErrSlotInactive, apperrors.ErrDoubleBooking:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// messageFor hides internal detail for server-side failures.
func messageFor(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Code != apperrors.ErrInternal {
		return appErr.Message
	}
	return "internal server error"
}
