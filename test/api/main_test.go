package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"
)

// Live-flow tests against a running API instance. They are skipped when the
// server is unreachable, so `go test ./...` stays green on a bare checkout.
//
// Required environment:
//
//	API_URL                   base URL (default http://localhost:8080)
//	BOOKING_API_TOKEN         a valid citizen bearer token
//	BOOKING_TEST_CENTER_ID    an existing center to create slots under
//	BOOKING_TEST_STAFF_ID     an active staff member at that center

var (
	baseURL   = "http://localhost:8080/api/v1"
	authToken string
	centerID  string
	staffID   string
)

// APIResponse represents the API response structure
type APIResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// TestResponse wraps the API response for testing
type TestResponse struct {
	StatusCode int
	Status     string
	Message    string
	Data       map[string]interface{}
	RawData    string
}

func (r TestResponse) IsSuccess() bool {
	return r.Status == "success"
}

func (r TestResponse) GetString(key string) string {
	if r.Data == nil {
		return ""
	}
	if v, ok := r.Data[key].(string); ok {
		return v
	}
	return ""
}

func (r TestResponse) GetNumber(key string) float64 {
	if r.Data == nil {
		return 0
	}
	if v, ok := r.Data[key].(float64); ok {
		return v
	}
	return 0
}

func makeRequest(method, path string, body interface{}, token string) TestResponse {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return TestResponse{Status: "error", Message: fmt.Sprintf("failed to marshal request body: %v", err)}
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, baseURL+path, reqBody)
	if err != nil {
		return TestResponse{Status: "error", Message: fmt.Sprintf("failed to create request: %v", err)}
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return TestResponse{Status: "error", Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return TestResponse{Status: "error", Message: fmt.Sprintf("failed to read response: %v", err)}
	}

	var apiResp APIResponse
	if err := json.Unmarshal(raw, &apiResp); err != nil {
		return TestResponse{StatusCode: resp.StatusCode, Status: "error", Message: string(raw), RawData: string(raw)}
	}

	out := TestResponse{
		StatusCode: resp.StatusCode,
		Status:     apiResp.Status,
		Message:    apiResp.Message,
		RawData:    string(apiResp.Data),
	}
	if len(apiResp.Data) > 0 {
		var data map[string]interface{}
		if err := json.Unmarshal(apiResp.Data, &data); err == nil {
			out.Data = data
		}
	}
	return out
}

func uniqueName(prefix string) string {
	return fmt.Sprintf("%s %d", prefix, time.Now().UnixNano())
}

func checkAPIServer() error {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(baseURL + "/health/live")
	if err != nil {
		return fmt.Errorf("API server not reachable: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected health status: %d", resp.StatusCode)
	}
	return nil
}

func TestMain(m *testing.M) {
	if url := os.Getenv("API_URL"); url != "" {
		baseURL = url + "/api/v1"
	}

	if err := checkAPIServer(); err != nil {
		fmt.Printf("Skipping API flow tests: %v\n", err)
		os.Exit(0)
	}

	authToken = os.Getenv("BOOKING_API_TOKEN")
	centerID = os.Getenv("BOOKING_TEST_CENTER_ID")
	staffID = os.Getenv("BOOKING_TEST_STAFF_ID")

	if authToken == "" || centerID == "" {
		fmt.Println("Skipping API flow tests: BOOKING_API_TOKEN and BOOKING_TEST_CENTER_ID must be set")
		os.Exit(0)
	}

	os.Exit(m.Run())
}

// createTestSlot provisions a fresh slot and returns its id.
func createTestSlot(t *testing.T, capacity int) string {
	t.Helper()

	start := time.Now().Add(48 * time.Hour).Truncate(time.Hour)
	resp := makeRequest("POST", "/slots", map[string]interface{}{
		"center_id":    centerID,
		"start_time":   start.Format(time.RFC3339),
		"end_time":     start.Add(time.Hour).Format(time.RFC3339),
		"capacity":     capacity,
		"vaccine_type": "mRNA-1273",
		"dose_number":  1,
	}, authToken)

	if !resp.IsSuccess() {
		t.Fatalf("failed to create slot: %s", resp.Message)
	}
	id := resp.GetString("id")
	if id == "" {
		t.Fatal("slot response had no id")
	}
	return id
}
