package bookingclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vaxportal/booking-api/internal/model"
	apperrors "github.com/vaxportal/booking-api/pkg/errors"
)

var errSlotNotCached = fmt.Errorf("slot not present in local cache")

// ConflictError carries the server's structured rejection so the caller can
// present the reason and ranked alternatives without a reload.
type ConflictError struct {
	Conflict *model.BookingConflict
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("booking conflict: %s", e.Conflict.Reason)
}

type Config struct {
	BaseURL string
	Token   string
	// Timeout bounds every request; an expired request is treated as a
	// transient failure and rolled back, never as success.
	Timeout time.Duration
}

// Client talks to the booking API and keeps its Store reconciled. Every
// mutation is applied speculatively before the network round trip and then
// confirmed or rolled back against the server's response.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	store      *Store
	logger     zerolog.Logger
}

func NewClient(cfg Config, logger zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		token:      cfg.Token,
		store:      NewStore(),
		logger:     logger,
	}
}

// Store exposes the client's domain cache. Its lifetime is tied to the
// client instance; there is no package-level shared state.
func (c *Client) Store() *Store {
	return c.store
}

type apiResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// CreateBooking stages the booking locally for immediate feedback, then
// performs the authoritative call. On success the speculative record is
// swapped for the canonical one; on conflict or transport failure the cache
// rolls back and the caller receives the structured reason. Transport
// failures are never retried automatically.
func (c *Client) CreateBooking(ctx context.Context, slotID, citizenID uuid.UUID) (*model.BookingResult, error) {
	tempID, err := c.store.StageBooking(slotID, citizenID)
	if err != nil {
		return nil, err
	}

	body := model.CreateBookingRequest{SlotID: slotID.String()}
	status, resp, err := c.do(ctx, http.MethodPost, "/api/v1/bookings", body)
	if err != nil {
		c.store.RollbackBooking(tempID)
		c.logger.Warn().Err(err).Str("slot_id", slotID.String()).Msg("booking request failed, speculative state rolled back")
		return nil, apperrors.Wrap(apperrors.NetworkFailure, err)
	}

	switch status {
	case http.StatusCreated:
		var result model.BookingResult
		if err := json.Unmarshal(resp.Data, &result); err != nil {
			c.store.RollbackBooking(tempID)
			return nil, fmt.Errorf("failed to decode booking response: %w", err)
		}
		c.store.ConfirmBooking(tempID, *result.Booking, *result.Slot)
		return &result, nil

	case http.StatusConflict:
		c.store.RollbackBooking(tempID)
		var conflict model.BookingConflict
		if err := json.Unmarshal(resp.Data, &conflict); err != nil {
			return nil, fmt.Errorf("failed to decode conflict response: %w", err)
		}
		if conflict.ServerSlot != nil {
			c.store.PutSlot(*conflict.ServerSlot)
		}
		return nil, &ConflictError{Conflict: &conflict}

	case http.StatusNotFound:
		c.store.RollbackBooking(tempID)
		return nil, apperrors.SlotNotFound

	default:
		c.store.RollbackBooking(tempID)
		return nil, fmt.Errorf("unexpected status %d: %s", status, resp.Message)
	}
}

// CancelBooking applies the cancellation speculatively, then confirms or
// restores. Cancelling is idempotent server-side, so a repeat call on an
// already-cancelled booking simply confirms.
func (c *Client) CancelBooking(ctx context.Context, bookingID uuid.UUID) error {
	previous, staged := c.store.StageCancel(bookingID)

	path := fmt.Sprintf("/api/v1/bookings/%s/cancel", bookingID)
	status, resp, err := c.do(ctx, http.MethodPost, path, nil)
	if err != nil {
		if staged {
			c.store.RollbackCancel(bookingID, previous)
		}
		return apperrors.Wrap(apperrors.NetworkFailure, err)
	}

	switch status {
	case http.StatusOK:
		if staged {
			c.store.ConfirmCancel(bookingID)
		}
		return nil
	case http.StatusNotFound:
		if staged {
			c.store.RollbackCancel(bookingID, previous)
		}
		return apperrors.NotFound("booking", nil)
	default:
		if staged {
			c.store.RollbackCancel(bookingID, previous)
		}
		return fmt.Errorf("unexpected status %d: %s", status, resp.Message)
	}
}

// AssignStaff follows the same stage/confirm/rollback discipline without any
// capacity coupling.
func (c *Client) AssignStaff(ctx context.Context, staffID, slotID uuid.UUID) (*model.StaffAssignment, error) {
	c.store.StageAssignment(staffID, slotID)

	body := model.AssignStaffRequest{StaffID: staffID.String(), SlotID: slotID.String()}
	status, resp, err := c.do(ctx, http.MethodPost, "/api/v1/assignments", body)
	if err != nil {
		c.store.RemoveAssignment(staffID, slotID)
		return nil, apperrors.Wrap(apperrors.NetworkFailure, err)
	}

	switch status {
	case http.StatusOK:
		var assignment model.StaffAssignment
		if err := json.Unmarshal(resp.Data, &assignment); err != nil {
			c.store.RemoveAssignment(staffID, slotID)
			return nil, fmt.Errorf("failed to decode assignment response: %w", err)
		}
		c.store.ConfirmAssignment(assignment)
		return &assignment, nil
	default:
		c.store.RemoveAssignment(staffID, slotID)
		return nil, decodeError(status, resp)
	}
}

// UnassignStaff removes the link optimistically and restores it when the
// server rejects the request.
func (c *Client) UnassignStaff(ctx context.Context, staffID, slotID uuid.UUID) error {
	removed, had := c.store.RemoveAssignment(staffID, slotID)

	body := model.AssignStaffRequest{StaffID: staffID.String(), SlotID: slotID.String()}
	status, resp, err := c.do(ctx, http.MethodDelete, "/api/v1/assignments", body)
	if err != nil {
		if had {
			c.store.RestoreAssignment(removed)
		}
		return apperrors.Wrap(apperrors.NetworkFailure, err)
	}

	switch status {
	case http.StatusOK:
		return nil
	default:
		if had {
			c.store.RestoreAssignment(removed)
		}
		return decodeError(status, resp)
	}
}

// Refresh reconciles the cache wholesale from the server, clearing any
// speculative leftovers from abandoned calls.
func (c *Client) Refresh(ctx context.Context, centerID, citizenID uuid.UUID) error {
	status, resp, err := c.do(ctx, http.MethodGet, "/api/v1/slots?center_id="+centerID.String(), nil)
	if err != nil {
		return apperrors.Wrap(apperrors.NetworkFailure, err)
	}
	if status != http.StatusOK {
		return decodeError(status, resp)
	}
	var slots []model.Slot
	if err := json.Unmarshal(resp.Data, &slots); err != nil {
		return fmt.Errorf("failed to decode slots: %w", err)
	}

	status, resp, err = c.do(ctx, http.MethodGet, "/api/v1/bookings?citizen_id="+citizenID.String(), nil)
	if err != nil {
		return apperrors.Wrap(apperrors.NetworkFailure, err)
	}
	if status != http.StatusOK {
		return decodeError(status, resp)
	}
	var bookings []model.Booking
	if err := json.Unmarshal(resp.Data, &bookings); err != nil {
		return fmt.Errorf("failed to decode bookings: %w", err)
	}

	c.store.ReplaceAll(slots, bookings)
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}) (int, *apiResponse, error) {
	var reqBody *bytes.Buffer
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(encoded)
	} else {
		reqBody = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	var decoded apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return resp.StatusCode, &decoded, nil
}

func decodeError(status int, resp *apiResponse) error {
	switch status {
	case http.StatusNotFound:
		return apperrors.NotFound("resource", nil)
	case http.StatusBadRequest:
		return apperrors.NewBadRequest(resp.Message, nil)
	default:
		return fmt.Errorf("unexpected status %d: %s", status, resp.Message)
	}
}
