package api_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotFlow(t *testing.T) {
	slotID := createTestSlot(t, 5)

	// Get slot
	getResp := makeRequest("GET", fmt.Sprintf("/slots/%s", slotID), nil, authToken)
	require.True(t, getResp.IsSuccess())
	assert.Equal(t, float64(5), getResp.GetNumber("capacity"))
	assert.Equal(t, float64(5), getResp.GetNumber("remaining"), "a new slot starts with full capacity")
	assert.Equal(t, true, getResp.Data["is_active"])

	// List slots for the center
	listResp := makeRequest("GET", fmt.Sprintf("/slots?center_id=%s&active_only=true", centerID), nil, authToken)
	assert.True(t, listResp.IsSuccess())

	// The center filter is optional; an unfiltered list still includes the
	// new slot.
	allResp := makeRequest("GET", "/slots?active_only=true", nil, authToken)
	require.True(t, allResp.IsSuccess())
	var allSlots []struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal([]byte(allResp.RawData), &allSlots))
	found := false
	for _, s := range allSlots {
		if s.ID == slotID {
			found = true
		}
	}
	assert.True(t, found, "unfiltered slot list did not contain the new slot")

	// Deactivate
	deactResp := makeRequest("POST", fmt.Sprintf("/slots/%s/deactivate", slotID), nil, authToken)
	require.True(t, deactResp.IsSuccess(), "failed to deactivate slot: %s", deactResp.Message)

	// Booking a deactivated slot must surface SLOT_INACTIVE.
	bookResp := makeRequest("POST", "/bookings", map[string]interface{}{
		"slot_id": slotID,
	}, authToken)
	assert.Equal(t, http.StatusConflict, bookResp.StatusCode)
	var conflict struct {
		Reason string `json:"conflict_reason"`
	}
	require.NoError(t, json.Unmarshal([]byte(bookResp.RawData), &conflict))
	assert.Equal(t, "SLOT_INACTIVE", conflict.Reason)
}

func TestSlotValidation(t *testing.T) {
	// End before start
	resp := makeRequest("POST", "/slots", map[string]interface{}{
		"center_id":    centerID,
		"start_time":   "2030-01-01T10:00:00Z",
		"end_time":     "2030-01-01T09:00:00Z",
		"capacity":     5,
		"vaccine_type": "mRNA-1273",
		"dose_number":  1,
	}, authToken)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Zero capacity
	resp = makeRequest("POST", "/slots", map[string]interface{}{
		"center_id":    centerID,
		"start_time":   "2030-01-01T10:00:00Z",
		"end_time":     "2030-01-01T11:00:00Z",
		"capacity":     0,
		"vaccine_type": "mRNA-1273",
		"dose_number":  1,
	}, authToken)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
