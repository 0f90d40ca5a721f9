package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	mw "github.com/lorrc/broker-roster/internal/adapters/primary/http/middleware"
	apperrors "github.com/lorrc/broker-roster/internal/core/errors"
)

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	return mw.GetRequestID(ctx)
}

// ErrorResponse is the standard JSON error response format
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ValidationErrorResponse includes field-level validation errors
type ValidationErrorResponse struct {
	Error  string              `json:"error"`
	Code   string              `json:"code"`
	Fields map[string][]string `json:"fields,omitempty"`
}

// domainError describes how a sentinel error is rendered
type domainError struct {
	target  error
	status  int
	message string
	code    string
}

// domainErrors is checked in order with errors.Is
var domainErrors = []domainError{
	{apperrors.ErrBrokerNotFound, http.StatusNotFound, "Broker not found", "BROKER_NOT_FOUND"},
	{apperrors.ErrBrokerEmailExists, http.StatusConflict, "A broker with this email already exists", "BROKER_EMAIL_EXISTS"},
	{apperrors.ErrInvalidFilter, http.StatusBadRequest, "Status filter must be one of: all, online, offline", "INVALID_FILTER"},
	{apperrors.ErrNothingToUpdate, http.StatusBadRequest, "No fields to update", "NOTHING_TO_UPDATE"},
	{apperrors.ErrBrokerIDRequired, http.StatusBadRequest, "Broker ID is required", "BAD_REQUEST"},
	{apperrors.ErrRateLimited, http.StatusTooManyRequests, "Too many requests. Please try again later.", "RATE_LIMITED"},
}

// ErrorHandler provides centralized error handling with logging
type ErrorHandler struct {
	logger *slog.Logger
}

// NewErrorHandler creates a new error handler with the given logger
func NewErrorHandler(logger *slog.Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle processes an error and writes the appropriate HTTP response
func (h *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	var (
		appErr         *apperrors.AppError
		validationErrs *apperrors.ValidationErrors
	)

	switch {
	case errors.As(err, &appErr):
		h.logError(r, appErr.StatusCode, err)
		WriteJSON(w, appErr.StatusCode, ErrorResponse{
			Error:   appErr.Message,
			Code:    appErr.Code,
			Details: appErr.Details,
		})

	case errors.As(err, &validationErrs):
		h.logError(r, http.StatusUnprocessableEntity, err)
		WriteJSON(w, http.StatusUnprocessableEntity, ValidationErrorResponse{
			Error:  "Validation failed",
			Code:   "VALIDATION_ERROR",
			Fields: validationErrs.Errors,
		})

	default:
		status, response := mapDomainError(err)
		h.logError(r, status, err)
		WriteJSON(w, status, response)
	}
}

// mapDomainError converts domain errors to HTTP status codes and responses.
// Unknown errors become a generic 500 so internals never leak to clients.
func mapDomainError(err error) (int, ErrorResponse) {
	for _, de := range domainErrors {
		if errors.Is(err, de.target) {
			return de.status, ErrorResponse{Error: de.message, Code: de.code}
		}
	}
	return http.StatusInternalServerError, ErrorResponse{
		Error: "An unexpected error occurred",
		Code:  "INTERNAL_ERROR",
	}
}

// logError logs server errors at error level and client errors at warn
func (h *ErrorHandler) logError(r *http.Request, status int, err error) {
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}

	h.logger.Log(r.Context(), level, "request failed",
		"request_id", GetRequestID(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
		"status_code", status,
		"error", err.Error(),
	)
}
