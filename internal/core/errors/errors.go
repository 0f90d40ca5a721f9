package errors

import (
	"errors"
	"net/http"
	"slices"
	"strings"
)

// Sentinel errors returned by the broker service and its stores.
var (
	ErrBrokerNotFound    = errors.New("broker not found")
	ErrBrokerEmailExists = errors.New("a broker with this email already exists")
	ErrBrokerIDRequired  = errors.New("broker ID is required")

	ErrInvalidFilter   = errors.New("invalid broker status filter")
	ErrNothingToUpdate = errors.New("no fields to update")

	ErrRateLimited = errors.New("rate limit exceeded")
)

// AppError carries a client-facing message and status alongside the cause.
type AppError struct {
	Err        error
	Message    string
	Code       string
	StatusCode int
	Details    map[string]interface{}
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewBadRequestError reports a request the server could not parse.
func NewBadRequestError(err error, message string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		Code:       "BAD_REQUEST",
		StatusCode: http.StatusBadRequest,
	}
}

// NewRateLimitError is returned to clients that exceeded their request budget.
func NewRateLimitError() *AppError {
	return &AppError{
		Err:        ErrRateLimited,
		Message:    "Too many requests. Please try again later.",
		Code:       "RATE_LIMITED",
		StatusCode: http.StatusTooManyRequests,
	}
}

// ValidationErrors collects messages per field so a single response can
// report every problem with a payload.
type ValidationErrors struct {
	Errors map[string][]string `json:"errors"`
}

func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{
		Errors: make(map[string][]string),
	}
}

func (v *ValidationErrors) Add(field, message string) {
	v.Errors[field] = append(v.Errors[field], message)
}

func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

// Fields returns the names of the invalid fields in sorted order.
func (v *ValidationErrors) Fields() []string {
	fields := make([]string, 0, len(v.Errors))
	for f := range v.Errors {
		fields = append(fields, f)
	}
	slices.Sort(fields)
	return fields
}

func (v *ValidationErrors) Error() string {
	return "validation failed: " + strings.Join(v.Fields(), ", ")
}
