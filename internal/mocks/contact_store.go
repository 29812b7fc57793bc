package mocks

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vportnov/contacts-api/internal/domain"
	"github.com/vportnov/contacts-api/internal/store"
)

// MockContactStore implements store.ContactStore for testing
type MockContactStore struct {
	// Function fields for customizable behavior
	CreateFn            func(ctx context.Context, contact *domain.Contact) error
	GetByIDFn           func(ctx context.Context, ownerID, id uuid.UUID) (*domain.Contact, error)
	ListFn              func(ctx context.Context, ownerID uuid.UUID, skip, limit int) ([]*domain.Contact, error)
	UpdateFn            func(ctx context.Context, ownerID, id uuid.UUID, patch domain.ContactPatch) (*domain.Contact, error)
	DeleteFn            func(ctx context.Context, ownerID, id uuid.UUID) (*domain.Contact, error)
	SearchFn            func(ctx context.Context, ownerID uuid.UUID, filter domain.ContactFilter) ([]*domain.Contact, error)
	UpcomingBirthdaysFn func(ctx context.Context, ownerID uuid.UUID, now time.Time) ([]*domain.Contact, error)

	// Data for default implementation
	Contacts    map[uuid.UUID]*domain.Contact
	CreateError error
}

// NewMockContactStore creates a new mock store with initialized defaults
func NewMockContactStore() *MockContactStore {
	return &MockContactStore{
		Contacts: make(map[uuid.UUID]*domain.Contact),
	}
}

// Create implements the ContactStore interface
func (m *MockContactStore) Create(ctx context.Context, contact *domain.Contact) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, contact)
	}

	if m.CreateError != nil {
		return m.CreateError
	}

	for _, existing := range m.Contacts {
		if existing.UserID == contact.UserID && existing.Email == contact.Email {
			return store.ErrContactEmailExists
		}
	}

	m.Contacts[contact.ID] = contact
	return nil
}

// GetByID implements the ContactStore interface
func (m *MockContactStore) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Contact, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, ownerID, id)
	}

	contact, exists := m.Contacts[id]
	if !exists || contact.UserID != ownerID {
		return nil, store.ErrContactNotFound
	}
	return contact, nil
}

// List implements the ContactStore interface
func (m *MockContactStore) List(ctx context.Context, ownerID uuid.UUID, skip, limit int) ([]*domain.Contact, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, ownerID, skip, limit)
	}

	owned := m.ownedByCreation(ownerID)
	if skip >= len(owned) {
		return []*domain.Contact{}, nil
	}
	owned = owned[skip:]
	if limit < len(owned) {
		owned = owned[:limit]
	}
	return owned, nil
}

// Update implements the ContactStore interface
func (m *MockContactStore) Update(ctx context.Context, ownerID, id uuid.UUID, patch domain.ContactPatch) (*domain.Contact, error) {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, ownerID, id, patch)
	}

	contact, exists := m.Contacts[id]
	if !exists || contact.UserID != ownerID {
		return nil, store.ErrContactNotFound
	}

	if patch.Email != nil {
		for _, existing := range m.Contacts {
			if existing.ID != id && existing.UserID == ownerID && existing.Email == *patch.Email {
				return nil, store.ErrContactEmailExists
			}
		}
		contact.Email = *patch.Email
	}
	if patch.FirstName != nil {
		contact.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		contact.LastName = *patch.LastName
	}
	if patch.Phone != nil {
		contact.Phone = *patch.Phone
	}
	if patch.Birthday != nil {
		contact.Birthday = *patch.Birthday
	}
	if patch.Notes != nil {
		contact.Notes = patch.Notes
	}
	contact.UpdatedAt = time.Now().UTC()

	return contact, nil
}

// Delete implements the ContactStore interface
func (m *MockContactStore) Delete(ctx context.Context, ownerID, id uuid.UUID) (*domain.Contact, error) {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, ownerID, id)
	}

	contact, exists := m.Contacts[id]
	if !exists || contact.UserID != ownerID {
		return nil, store.ErrContactNotFound
	}

	delete(m.Contacts, id)
	return contact, nil
}

// Search implements the ContactStore interface
func (m *MockContactStore) Search(ctx context.Context, ownerID uuid.UUID, filter domain.ContactFilter) ([]*domain.Contact, error) {
	if m.SearchFn != nil {
		return m.SearchFn(ctx, ownerID, filter)
	}

	matched := make([]*domain.Contact, 0)
	for _, contact := range m.ownedByCreation(ownerID) {
		if containsFold(contact.FirstName, filter.FirstName) &&
			containsFold(contact.LastName, filter.LastName) &&
			containsFold(contact.Email, filter.Email) {
			matched = append(matched, contact)
		}
	}
	return matched, nil
}

// UpcomingBirthdays implements the ContactStore interface
func (m *MockContactStore) UpcomingBirthdays(ctx context.Context, ownerID uuid.UUID, now time.Time) ([]*domain.Contact, error) {
	if m.UpcomingBirthdaysFn != nil {
		return m.UpcomingBirthdaysFn(ctx, ownerID, now)
	}

	keys := make(map[string]bool)
	for _, key := range domain.BirthdayKeys(now) {
		keys[key] = true
	}

	matched := make([]*domain.Contact, 0)
	for _, contact := range m.ownedByCreation(ownerID) {
		key := contact.Birthday.Format("01-02")
		if keys[key] {
			matched = append(matched, contact)
		}
	}
	return matched, nil
}

// WithTx implements the ContactStore interface. The mock has no real
// transaction semantics, so it returns itself.
func (m *MockContactStore) WithTx(tx *sql.Tx) store.ContactStore {
	return m
}

// ownedByCreation returns the owner's contacts in creation order, matching
// the stable ordering the real store guarantees.
func (m *MockContactStore) ownedByCreation(ownerID uuid.UUID) []*domain.Contact {
	owned := make([]*domain.Contact, 0)
	for _, contact := range m.Contacts {
		if contact.UserID == ownerID {
			owned = append(owned, contact)
		}
	}
	sort.Slice(owned, func(i, j int) bool {
		if !owned[i].CreatedAt.Equal(owned[j].CreatedAt) {
			return owned[i].CreatedAt.Before(owned[j].CreatedAt)
		}
		return owned[i].ID.String() < owned[j].ID.String()
	})
	return owned
}

// containsFold reports whether s contains substr case-insensitively. An
// empty substr matches everything.
func containsFold(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
