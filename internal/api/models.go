package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/vportnov/contacts-api/internal/domain"
)

// Common request/response structures

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=12,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// RefreshTokenRequest defines the payload for the token refresh endpoint.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// AuthResponse defines the successful response for authentication endpoints.
type AuthResponse struct {
	// UserID is the unique identifier for the authenticated user
	UserID uuid.UUID `json:"user_id"`

	// AccessToken is the JWT token used for API authorization
	AccessToken string `json:"access_token"`

	// RefreshToken is the JWT token used to obtain new access tokens
	RefreshToken string `json:"refresh_token"`
}

// CreateContactRequest defines the payload for creating a contact.
type CreateContactRequest struct {
	FirstName string    `json:"first_name" validate:"required,min=1,max=100"`
	LastName  string    `json:"last_name"  validate:"required,min=1,max=100"`
	Email     string    `json:"email"      validate:"required,email"`
	Phone     string    `json:"phone"      validate:"required,min=1,max=50"`
	Birthday  time.Time `json:"birthday"   validate:"required"`
	Notes     *string   `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// UpdateContactRequest defines the payload for the partial update endpoint.
// Omitted fields are left untouched; supplied fields replace the stored
// values.
type UpdateContactRequest struct {
	FirstName *string    `json:"first_name,omitempty" validate:"omitempty,min=1,max=100"`
	LastName  *string    `json:"last_name,omitempty"  validate:"omitempty,min=1,max=100"`
	Email     *string    `json:"email,omitempty"      validate:"omitempty,email"`
	Phone     *string    `json:"phone,omitempty"      validate:"omitempty,min=1,max=50"`
	Birthday  *time.Time `json:"birthday,omitempty"`
	Notes     *string    `json:"notes,omitempty"      validate:"omitempty,max=2000"`
}

// Patch converts the request into the domain-level partial update.
func (r UpdateContactRequest) Patch() domain.ContactPatch {
	return domain.ContactPatch{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Phone:     r.Phone,
		Birthday:  r.Birthday,
		Notes:     r.Notes,
	}
}

// ContactResponse represents the response data for a contact.
type ContactResponse struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Birthday  string    `json:"birthday"`
	Notes     *string   `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// contactToResponse converts a domain.Contact to a ContactResponse.
// The birthday is rendered as a plain date; the stored time component is an
// artifact of the DATE column round-trip and carries no meaning.
func contactToResponse(contact *domain.Contact) ContactResponse {
	return ContactResponse{
		ID:        contact.ID,
		UserID:    contact.UserID,
		FirstName: contact.FirstName,
		LastName:  contact.LastName,
		Email:     contact.Email,
		Phone:     contact.Phone,
		Birthday:  contact.Birthday.Format("2006-01-02"),
		Notes:     contact.Notes,
		CreatedAt: contact.CreatedAt,
		UpdatedAt: contact.UpdatedAt,
	}
}

// contactsToResponse converts a slice of contacts, always yielding a
// non-nil slice so empty results serialize as [].
func contactsToResponse(contacts []*domain.Contact) []ContactResponse {
	responses := make([]ContactResponse, 0, len(contacts))
	for _, contact := range contacts {
		responses = append(responses, contactToResponse(contact))
	}
	return responses
}
