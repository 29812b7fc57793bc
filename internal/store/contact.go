package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/vportnov/contacts-api/internal/domain"
)

// ContactStore defines the interface for contact data persistence.
//
// Every read and write is scoped to an owner: methods take the owning
// user's ID and never touch rows belonging to anyone else. A contact that
// exists under a different owner is reported as ErrContactNotFound, exactly
// like a contact that does not exist at all.
type ContactStore interface {
	// Create saves a new contact to the store.
	// The (UserID, Email) uniqueness is enforced by a database constraint;
	// a violation is returned as ErrContactEmailExists. Relying on the
	// constraint rather than a prior existence query keeps concurrent
	// creates with the same email from racing past each other.
	// Returns validation errors from the domain Contact if data is invalid.
	Create(ctx context.Context, contact *domain.Contact) error

	// GetByID retrieves an owned contact by its unique ID.
	// Returns ErrContactNotFound if no such contact is owned by ownerID.
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Contact, error)

	// List retrieves the owner's contacts in stable insertion order,
	// skipping the first skip records and returning at most limit.
	// An empty result is a valid outcome, not an error.
	List(ctx context.Context, ownerID uuid.UUID, skip, limit int) ([]*domain.Contact, error)

	// Update applies a partial patch to an owned contact: non-nil patch
	// fields overwrite stored values, nil fields are untouched. Returns the
	// updated contact.
	// Returns ErrContactNotFound if no such contact is owned by ownerID.
	// Returns ErrContactEmailExists if the patch email collides with
	// another contact of the same owner.
	Update(ctx context.Context, ownerID, id uuid.UUID, patch domain.ContactPatch) (*domain.Contact, error)

	// Delete removes an owned contact and returns its prior representation
	// for confirmation.
	// Returns ErrContactNotFound if no such contact is owned by ownerID.
	Delete(ctx context.Context, ownerID, id uuid.UUID) (*domain.Contact, error)

	// Search retrieves the owner's contacts matching all supplied filter
	// fields (case-insensitive substring match, logical AND). With an empty
	// filter it behaves like an unpaginated List. An empty result is a
	// valid outcome, not an error.
	Search(ctx context.Context, ownerID uuid.UUID, filter domain.ContactFilter) ([]*domain.Contact, error)

	// UpcomingBirthdays retrieves the owner's contacts whose birthday falls
	// within the seven-day window starting at now, compared by month and
	// day only and wrapping across the year boundary.
	UpcomingBirthdays(ctx context.Context, ownerID uuid.UUID, now time.Time) ([]*domain.Contact, error)

	// WithTx returns a new ContactStore instance that uses the provided
	// transaction, allowing multiple operations to execute atomically.
	WithTx(tx *sql.Tx) ContactStore
}
