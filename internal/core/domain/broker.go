package domain

import (
	"net/mail"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	apperrors "github.com/lorrc/broker-roster/internal/core/errors"
)

// Field limits for broker records.
const (
	MaxNameLength     = 255
	MaxEmailLength    = 255
	MaxPhoneLength    = 32
	MaxPhotoURLLength = 2048
)

// StatusFilter narrows a broker listing by online status.
type StatusFilter string

const (
	FilterAll     StatusFilter = "all"
	FilterOnline  StatusFilter = "online"
	FilterOffline StatusFilter = "offline"
)

// IsValid reports whether the filter is a known value.
func (f StatusFilter) IsValid() bool {
	switch f {
	case FilterAll, FilterOnline, FilterOffline:
		return true
	}
	return false
}

// Matches reports whether a broker passes the filter.
func (f StatusFilter) Matches(b *Broker) bool {
	switch f {
	case FilterOnline:
		return b.IsOnline
	case FilterOffline:
		return !b.IsOnline
	default:
		return true
	}
}

// ParseStatusFilter converts a query value into a StatusFilter.
// An empty value means FilterAll.
func ParseStatusFilter(value string) (StatusFilter, error) {
	if value == "" {
		return FilterAll, nil
	}
	f := StatusFilter(strings.ToLower(value))
	if !f.IsValid() {
		return "", apperrors.ErrInvalidFilter
	}
	return f, nil
}

// Broker is a real-estate agent listed on the roster.
type Broker struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	PhotoURL  *string
	IsOnline  bool
	CreatedAt time.Time
}

// BrokerParams holds the fields supplied when creating a broker.
type BrokerParams struct {
	Name     string
	Email    string
	Phone    string
	PhotoURL *string
}

// Validate validates broker creation parameters
func (p *BrokerParams) Validate() error {
	errs := apperrors.NewValidationErrors()

	validateName(errs, p.Name)
	validateEmail(errs, p.Email)
	validatePhone(errs, p.Phone)
	if p.PhotoURL != nil {
		validatePhotoURL(errs, *p.PhotoURL)
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// NewBroker creates a new offline broker with a fresh ID.
func NewBroker(params BrokerParams) (*Broker, error) {
	params.Name = strings.TrimSpace(params.Name)
	params.Email = strings.TrimSpace(params.Email)
	params.Phone = strings.TrimSpace(params.Phone)
	params.PhotoURL = normalizePhotoURL(params.PhotoURL)

	if err := params.Validate(); err != nil {
		return nil, err
	}

	return &Broker{
		ID:        uuid.NewString(),
		Name:      params.Name,
		Email:     params.Email,
		Phone:     params.Phone,
		PhotoURL:  params.PhotoURL,
		IsOnline:  false,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// BrokerUpdate holds a partial update. Nil fields are left unchanged;
// an empty PhotoURL clears the photo.
type BrokerUpdate struct {
	Name     *string
	Email    *string
	Phone    *string
	PhotoURL *string
}

// IsEmpty reports whether the update changes nothing.
func (u BrokerUpdate) IsEmpty() bool {
	return u.Name == nil && u.Email == nil && u.Phone == nil && u.PhotoURL == nil
}

// Apply validates the update and applies it to the broker.
func (b *Broker) Apply(u BrokerUpdate) error {
	if u.IsEmpty() {
		return apperrors.ErrNothingToUpdate
	}

	next := *b
	errs := apperrors.NewValidationErrors()

	if u.Name != nil {
		next.Name = strings.TrimSpace(*u.Name)
		validateName(errs, next.Name)
	}
	if u.Email != nil {
		next.Email = strings.TrimSpace(*u.Email)
		validateEmail(errs, next.Email)
	}
	if u.Phone != nil {
		next.Phone = strings.TrimSpace(*u.Phone)
		validatePhone(errs, next.Phone)
	}
	if u.PhotoURL != nil {
		next.PhotoURL = normalizePhotoURL(u.PhotoURL)
		if next.PhotoURL != nil {
			validatePhotoURL(errs, *next.PhotoURL)
		}
	}

	if errs.HasErrors() {
		return errs
	}

	*b = next
	return nil
}

// SetOnline changes the broker's availability. It reports whether the
// value actually changed.
func (b *Broker) SetOnline(online bool) bool {
	if b.IsOnline == online {
		return false
	}
	b.IsOnline = online
	return true
}

// BrokerStats summarises the roster.
type BrokerStats struct {
	Total   int
	Online  int
	Offline int
}

func validateName(errs *apperrors.ValidationErrors, name string) {
	if name == "" {
		errs.Add("name", "Name is required")
	} else if utf8.RuneCountInString(name) > MaxNameLength {
		errs.Add("name", "Name must be 255 characters or less")
	}
}

func validateEmail(errs *apperrors.ValidationErrors, email string) {
	if email == "" {
		errs.Add("email", "Email is required")
	} else if utf8.RuneCountInString(email) > MaxEmailLength {
		errs.Add("email", "Email must be 255 characters or less")
	} else if !isValidEmail(email) {
		errs.Add("email", "Invalid email format")
	}
}

func validatePhone(errs *apperrors.ValidationErrors, phone string) {
	if phone == "" {
		errs.Add("phone", "Phone is required")
	} else if utf8.RuneCountInString(phone) > MaxPhoneLength {
		errs.Add("phone", "Phone must be 32 characters or less")
	}
}

func validatePhotoURL(errs *apperrors.ValidationErrors, raw string) {
	if utf8.RuneCountInString(raw) > MaxPhotoURLLength {
		errs.Add("photoUrl", "Photo URL must be 2048 characters or less")
		return
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		errs.Add("photoUrl", "Photo URL must be an absolute http(s) URL")
	}
}

// normalizePhotoURL trims the value and turns blanks into nil.
func normalizePhotoURL(photoURL *string) *string {
	if photoURL == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*photoURL)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// isValidEmail validates email format
func isValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
