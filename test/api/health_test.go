package api_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadinessReportsBrokerState(t *testing.T) {
	resp, err := http.Get(baseURL + "/health/ready")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var ready struct {
		Status string `json:"status"`
		Broker string `json:"broker"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ready))
	assert.Equal(t, "UP", ready.Status)
	// The API wires a broker client purely for this report; the field must
	// carry a real probe result, never a placeholder.
	assert.Contains(t, []string{"UP", "DOWN"}, ready.Broker)
}
