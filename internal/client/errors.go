package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	apierrors "github.com/yukikurage/timesheet-api/internal/errors"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details map[string]interface{}
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		apiErr.Message = http.StatusText(resp.StatusCode)
		return apiErr
	}

	var body struct {
		Code    string                 `json:"code"`
		Message string                 `json:"message"`
		Details map[string]interface{} `json:"details"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || body.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
		return apiErr
	}

	apiErr.Code = body.Code
	apiErr.Message = body.Message
	apiErr.Details = body.Details
	return apiErr
}

func asAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}

// IsInvalidTransition reports whether the action was illegal in the task's state.
func IsInvalidTransition(err error) bool {
	apiErr, ok := asAPIError(err)
	return ok && apiErr.Code == apierrors.ErrCodeInvalidTransition
}

// IsConcurrentTimer reports whether another task already had a running timer.
func IsConcurrentTimer(err error) bool {
	apiErr, ok := asAPIError(err)
	return ok && apiErr.Code == apierrors.ErrCodeConcurrentTimer
}

// IsNotClockedIn reports whether the server required a clock-in first.
func IsNotClockedIn(err error) bool {
	apiErr, ok := asAPIError(err)
	return ok && apiErr.Code == apierrors.ErrCodeNotClockedIn
}

// RunningTaskID returns the task holding the running timer named by a
// concurrent-timer error.
func RunningTaskID(err error) (uint64, bool) {
	if !IsConcurrentTimer(err) {
		return 0, false
	}
	apiErr, _ := asAPIError(err)
	id, ok := apiErr.Details["running_task_id"].(float64)
	if !ok || id <= 0 {
		return 0, false
	}
	return uint64(id), true
}
