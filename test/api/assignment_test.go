package api_test

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignmentFlow(t *testing.T) {
	if staffID == "" {
		t.Skip("BOOKING_TEST_STAFF_ID not set")
	}

	slotID := createTestSlot(t, 3)

	// Assign staff to the slot
	assignResp := makeRequest("POST", "/assignments", map[string]interface{}{
		"staff_id": staffID,
		"slot_id":  slotID,
	}, authToken)
	require.True(t, assignResp.IsSuccess(), "failed to assign staff: %s", assignResp.Message)

	// Assigning never consumes citizen capacity.
	slotResp := makeRequest("GET", fmt.Sprintf("/slots/%s", slotID), nil, authToken)
	require.True(t, slotResp.IsSuccess())
	assert.Equal(t, float64(3), slotResp.GetNumber("remaining"))

	// Assignment shows up in the slot's roster.
	listResp := makeRequest("GET", fmt.Sprintf("/assignments?slot_id=%s", slotID), nil, authToken)
	require.True(t, listResp.IsSuccess())
	var assignments []struct {
		StaffID string `json:"staff_id"`
	}
	require.NoError(t, json.Unmarshal([]byte(listResp.RawData), &assignments))
	require.Len(t, assignments, 1)
	assert.Equal(t, staffID, assignments[0].StaffID)

	// Repeating the assignment is idempotent.
	repeatResp := makeRequest("POST", "/assignments", map[string]interface{}{
		"staff_id": staffID,
		"slot_id":  slotID,
	}, authToken)
	assert.True(t, repeatResp.IsSuccess())

	listResp = makeRequest("GET", fmt.Sprintf("/assignments?slot_id=%s", slotID), nil, authToken)
	require.True(t, listResp.IsSuccess())
	require.NoError(t, json.Unmarshal([]byte(listResp.RawData), &assignments))
	assert.Len(t, assignments, 1)

	// Unassign
	unassignResp := makeRequest("DELETE", "/assignments", map[string]interface{}{
		"staff_id": staffID,
		"slot_id":  slotID,
	}, authToken)
	require.True(t, unassignResp.IsSuccess(), "failed to unassign staff: %s", unassignResp.Message)

	listResp = makeRequest("GET", fmt.Sprintf("/assignments?slot_id=%s", slotID), nil, authToken)
	require.True(t, listResp.IsSuccess())
	require.NoError(t, json.Unmarshal([]byte(listResp.RawData), &assignments))
	assert.Empty(t, assignments)
}
