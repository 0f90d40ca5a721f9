// Package validation holds request-level checks for the HTTP adapter.
// Domain rules are enforced again by the core; these checks give clients
// field-level messages before a request reaches the service.
package validation

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	apperrors "github.com/lorrc/broker-roster/internal/core/errors"
)

// MaxBodyBytes caps the size of a decoded JSON request body
const MaxBodyBytes = 1 << 20

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Validator accumulates field errors through chained checks
type Validator struct {
	errors *apperrors.ValidationErrors
}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{errors: apperrors.NewValidationErrors()}
}

// HasErrors returns true if there are validation errors
func (v *Validator) HasErrors() bool {
	return v.errors.HasErrors()
}

// Errors returns the validation errors
func (v *Validator) Errors() *apperrors.ValidationErrors {
	return v.errors
}

// Required validates that a string is not blank
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.errors.Add(field, "This field is required")
	}
	return v
}

// RequiredBool validates that a boolean was supplied
func (v *Validator) RequiredBool(field string, value *bool) *Validator {
	if value == nil {
		v.errors.Add(field, "This field is required")
	}
	return v
}

// MaxLength validates the maximum length in characters
func (v *Validator) MaxLength(field, value string, max int) *Validator {
	if utf8.RuneCountInString(value) > max {
		v.errors.Add(field, "Must be at most "+strconv.Itoa(max)+" characters")
	}
	return v
}

// Email validates email format. Empty values are left to Required.
func (v *Validator) Email(field, value string) *Validator {
	if value != "" && !emailRegex.MatchString(strings.TrimSpace(value)) {
		v.errors.Add(field, "Must be a valid email address")
	}
	return v
}

// HTTPURL validates an absolute http or https URL. Empty values pass.
func (v *Validator) HTTPURL(field, value string) *Validator {
	value = strings.TrimSpace(value)
	if value == "" {
		return v
	}
	u, err := url.Parse(value)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		v.errors.Add(field, "Must be an absolute http or https URL")
	}
	return v
}

// DecodeJSON decodes a JSON request body of at most MaxBodyBytes into T.
// Decoding failures are returned as bad request errors.
func DecodeJSON[T any](r *http.Request) (*T, error) {
	var req T

	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, apperrors.NewBadRequestError(err, "Request body is required")
		}
		return nil, apperrors.NewBadRequestError(err, "Invalid request body")
	}

	return &req, nil
}

// ParseStringQueryParam returns a query parameter, or nil when it is absent or empty
func ParseStringQueryParam(r *http.Request, key string) *string {
	value := r.URL.Query().Get(key)
	if value == "" {
		return nil
	}
	return &value
}
