package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Contact-specific validation errors
var (
	// ErrContactIDEmpty is returned when a contact ID is empty or nil.
	ErrContactIDEmpty = errors.New("contact ID cannot be empty")

	// ErrContactUserIDEmpty is returned when a contact's owner ID is empty or nil.
	ErrContactUserIDEmpty = errors.New("contact user ID cannot be empty")

	// ErrContactFirstNameEmpty is returned when a contact's first name is empty.
	ErrContactFirstNameEmpty = errors.New("contact first name cannot be empty")

	// ErrContactLastNameEmpty is returned when a contact's last name is empty.
	ErrContactLastNameEmpty = errors.New("contact last name cannot be empty")

	// ErrContactEmailEmpty is returned when a contact's email is empty.
	ErrContactEmailEmpty = errors.New("contact email cannot be empty")

	// ErrContactEmailInvalid is returned when a contact's email is malformed.
	ErrContactEmailInvalid = errors.New("contact email format is invalid")

	// ErrContactBirthdayZero is returned when a contact's birthday is unset.
	ErrContactBirthdayZero = errors.New("contact birthday must be set")
)

// Contact represents one address-book entry owned by exactly one user.
// The (UserID, Email) pair is unique: a user cannot have two contacts
// sharing an email address. Ownership is enforced by the store layer,
// which filters every query by UserID.
type Contact struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Birthday  time.Time `json:"birthday"`
	Notes     *string   `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ContactPatch is a partial update of a contact. Nil fields are left
// untouched; non-nil fields overwrite the stored values.
type ContactPatch struct {
	FirstName *string    `json:"first_name,omitempty"`
	LastName  *string    `json:"last_name,omitempty"`
	Email     *string    `json:"email,omitempty"`
	Phone     *string    `json:"phone,omitempty"`
	Birthday  *time.Time `json:"birthday,omitempty"`
	Notes     *string    `json:"notes,omitempty"`
}

// IsEmpty reports whether the patch carries no fields to update.
func (p ContactPatch) IsEmpty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Email == nil &&
		p.Phone == nil && p.Birthday == nil && p.Notes == nil
}

// ContactFilter holds the optional search criteria for contacts. Empty
// fields are ignored; supplied fields are combined with logical AND and
// matched as case-insensitive substrings.
type ContactFilter struct {
	FirstName string
	LastName  string
	Email     string
}

// IsEmpty reports whether no filter criteria were supplied.
func (f ContactFilter) IsEmpty() bool {
	return f.FirstName == "" && f.LastName == "" && f.Email == ""
}

// NewContact creates a new Contact owned by the given user.
// It generates a new UUID for the contact ID and sets the creation/update
// timestamps. Returns an error if validation fails.
func NewContact(
	userID uuid.UUID,
	firstName, lastName, email, phone string,
	birthday time.Time,
	notes *string,
) (*Contact, error) {
	contact := &Contact{
		ID:        uuid.New(),
		UserID:    userID,
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		Phone:     phone,
		Birthday:  birthday,
		Notes:     notes,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	if err := contact.Validate(); err != nil {
		return nil, err
	}

	return contact, nil
}

// Validate checks if the Contact has valid data.
// Returns an error if any field fails validation.
func (c *Contact) Validate() error {
	if c.ID == uuid.Nil {
		return ErrContactIDEmpty
	}

	if c.UserID == uuid.Nil {
		return ErrContactUserIDEmpty
	}

	if c.FirstName == "" {
		return ErrContactFirstNameEmpty
	}

	if c.LastName == "" {
		return ErrContactLastNameEmpty
	}

	if c.Email == "" {
		return ErrContactEmailEmpty
	}

	if !validEmailFormat(c.Email) {
		return ErrContactEmailInvalid
	}

	if c.Birthday.IsZero() {
		return ErrContactBirthdayZero
	}

	return nil
}

// BirthdayWindowDays is the length of the upcoming-birthday window: the
// current day plus the following six, compared by month and day only.
const BirthdayWindowDays = 7

// BirthdayKeys returns the "MM-DD" keys of the calendar days covered by the
// upcoming-birthday window starting at now. The window follows the actual
// calendar, so it wraps across the year boundary (Dec 30 covers Jan 3) and
// includes Feb 29 only in years that have it.
func BirthdayKeys(now time.Time) []string {
	keys := make([]string, 0, BirthdayWindowDays)
	for i := 0; i < BirthdayWindowDays; i++ {
		day := now.AddDate(0, 0, i)
		keys = append(keys, fmt.Sprintf("%02d-%02d", int(day.Month()), day.Day()))
	}
	return keys
}
