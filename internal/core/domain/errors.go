package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for user operations.
var (
	// ErrUserNotFound indicates the requested user is not in the local list.
	ErrUserNotFound = errors.New("user not found")

	// ErrValidation indicates the form draft failed validation. The field
	// messages live on the form, never on the error.
	ErrValidation = errors.New("validation failed")

	// ErrBusy indicates a submission is already in flight.
	ErrBusy = errors.New("submission in progress")

	// ErrNoModal indicates a submit arrived with no matching form open.
	ErrNoModal = errors.New("no form open")
)

// NetworkErrorMessage is shown for any failure below the HTTP status layer.
const NetworkErrorMessage = "Network error occurred. Please check your connection."

// APIError is the single error shape produced by the request client.
// Status is 0 for network errors.
type APIError struct {
	Message string
	Status  int
	Err     error
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// NewHTTPError builds the error for a non-2xx response.
func NewHTTPError(status int) *APIError {
	return &APIError{
		Message: fmt.Sprintf("API Error: %d %s", status, http.StatusText(status)),
		Status:  status,
	}
}

// NewNetworkError builds the error for a request that could not complete.
func NewNetworkError(cause error) *APIError {
	return &APIError{
		Message: NetworkErrorMessage,
		Err:     cause,
	}
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
