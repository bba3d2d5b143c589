package board

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// APIError is a non-2xx response from the board API. The server reports
// failures as {"detail": "..."} bodies; Detail carries that message when
// present and the raw (truncated) body otherwise.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("board: status %d", e.StatusCode)
	}
	return fmt.Sprintf("board: status %d: %s", e.StatusCode, e.Detail)
}

func readAPIError(resp *http.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != "" {
		apiErr.Detail = payload.Detail
	} else {
		apiErr.Detail = strings.TrimSpace(string(body))
	}
	return apiErr
}
