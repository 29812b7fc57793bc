package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vportnov/contacts-api/internal/domain"
	"github.com/vportnov/contacts-api/internal/store"
)

var contactRowColumns = []string{
	"id", "user_id", "first_name", "last_name", "email",
	"phone", "birthday", "notes", "created_at", "updated_at",
}

func newContactStoreMock(t *testing.T) (*PostgresContactStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewPostgresContactStore(db, nil), mock
}

func testContact(ownerID uuid.UUID) *domain.Contact {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	return &domain.Contact{
		ID:        uuid.New(),
		UserID:    ownerID,
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Phone:     "+1-555-0100",
		Birthday:  time.Date(1990, time.December, 10, 0, 0, 0, 0, time.UTC),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func contactRow(c *domain.Contact) *sqlmock.Rows {
	var notes interface{}
	if c.Notes != nil {
		notes = *c.Notes
	}
	return sqlmock.NewRows(contactRowColumns).AddRow(
		c.ID.String(), c.UserID.String(), c.FirstName, c.LastName, c.Email,
		c.Phone, c.Birthday, notes, c.CreatedAt, c.UpdatedAt,
	)
}

func TestContactStoreCreate(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		s, mock := newContactStoreMock(t)
		contact := testContact(ownerID)

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO contacts")).
			WithArgs(
				contact.ID, contact.UserID, contact.FirstName, contact.LastName,
				contact.Email, contact.Phone, contact.Birthday, contact.Notes,
				contact.CreatedAt, contact.UpdatedAt,
			).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := s.Create(context.Background(), contact)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate email maps to ErrContactEmailExists", func(t *testing.T) {
		t.Parallel()

		s, mock := newContactStoreMock(t)
		contact := testContact(ownerID)

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO contacts")).
			WillReturnError(&pgconn.PgError{
				Code:           "23505",
				ConstraintName: "contacts_user_id_email_key",
			})

		err := s.Create(context.Background(), contact)
		assert.ErrorIs(t, err, store.ErrContactEmailExists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown owner maps to ErrInvalidEntity", func(t *testing.T) {
		t.Parallel()

		s, mock := newContactStoreMock(t)
		contact := testContact(ownerID)

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO contacts")).
			WillReturnError(&pgconn.PgError{
				Code:           "23503",
				ConstraintName: "contacts_user_id_fkey",
			})

		err := s.Create(context.Background(), contact)
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid contact fails before touching the database", func(t *testing.T) {
		t.Parallel()

		s, mock := newContactStoreMock(t)
		contact := testContact(ownerID)
		contact.Email = ""

		err := s.Create(context.Background(), contact)
		assert.ErrorIs(t, err, domain.ErrContactEmailEmpty)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestContactStoreGetByID(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()

	t.Run("found", func(t *testing.T) {
		t.Parallel()

		s, mock := newContactStoreMock(t)
		contact := testContact(ownerID)

		mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1 AND user_id = $2")).
			WithArgs(contact.ID, ownerID).
			WillReturnRows(contactRow(contact))

		got, err := s.GetByID(context.Background(), ownerID, contact.ID)
		require.NoError(t, err)
		assert.Equal(t, contact.ID, got.ID)
		assert.Equal(t, contact.Email, got.Email)
		assert.Nil(t, got.Notes)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		s, mock := newContactStoreMock(t)
		missingID := uuid.New()

		mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1 AND user_id = $2")).
			WithArgs(missingID, ownerID).
			WillReturnRows(sqlmock.NewRows(contactRowColumns))

		_, err := s.GetByID(context.Background(), ownerID, missingID)
		assert.ErrorIs(t, err, store.ErrContactNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestContactStoreList(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()

	t.Run("applies pagination", func(t *testing.T) {
		t.Parallel()

		s, mock := newContactStoreMock(t)
		contact := testContact(ownerID)

		mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at, id LIMIT $2 OFFSET $3")).
			WithArgs(ownerID, 10, 5).
			WillReturnRows(contactRow(contact))

		got, err := s.List(context.Background(), ownerID, 5, 10)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, contact.ID, got[0].ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty result is a non-nil slice", func(t *testing.T) {
		t.Parallel()

		s, mock := newContactStoreMock(t)

		mock.ExpectQuery(regexp.QuoteMeta("FROM contacts")).
			WithArgs(ownerID, 10, 0).
			WillReturnRows(sqlmock.NewRows(contactRowColumns))

		got, err := s.List(context.Background(), ownerID, 0, 10)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestContactStoreUpdate(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()

	t.Run("patch builds SET from supplied fields only", func(t *testing.T) {
		t.Parallel()

		s, mock := newContactStoreMock(t)
		contact := testContact(ownerID)
		phone := "+1-555-0199"

		mock.ExpectQuery(regexp.QuoteMeta("SET phone = $1, updated_at = $2 WHERE id = $3 AND user_id = $4 RETURNING")).
			WithArgs(phone, sqlmock.AnyArg(), contact.ID, ownerID).
			WillReturnRows(contactRow(contact))

		_, err := s.Update(context.Background(), ownerID, contact.ID, domain.ContactPatch{Phone: &phone})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty patch behaves like a read", func(t *testing.T) {
		t.Parallel()

		s, mock := newContactStoreMock(t)
		contact := testContact(ownerID)

		mock.ExpectQuery(regexp.QuoteMeta("SELECT")).
			WithArgs(contact.ID, ownerID).
			WillReturnRows(contactRow(contact))

		got, err := s.Update(context.Background(), ownerID, contact.ID, domain.ContactPatch{})
		require.NoError(t, err)
		assert.Equal(t, contact.ID, got.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing contact maps to ErrContactNotFound", func(t *testing.T) {
		t.Parallel()

		s, mock := newContactStoreMock(t)
		phone := "+1-555-0199"

		mock.ExpectQuery(regexp.QuoteMeta("UPDATE contacts")).
			WillReturnRows(sqlmock.NewRows(contactRowColumns))

		_, err := s.Update(context.Background(), ownerID, uuid.New(), domain.ContactPatch{Phone: &phone})
		assert.ErrorIs(t, err, store.ErrContactNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("email collision maps to ErrContactEmailExists", func(t *testing.T) {
		t.Parallel()

		s, mock := newContactStoreMock(t)
		email := "taken@example.com"

		mock.ExpectQuery(regexp.QuoteMeta("UPDATE contacts")).
			WillReturnError(&pgconn.PgError{
				Code:           "23505",
				ConstraintName: "contacts_user_id_email_key",
			})

		_, err := s.Update(context.Background(), ownerID, uuid.New(), domain.ContactPatch{Email: &email})
		assert.ErrorIs(t, err, store.ErrContactEmailExists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestContactStoreDelete(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()

	t.Run("returns the deleted row", func(t *testing.T) {
		t.Parallel()

		s, mock := newContactStoreMock(t)
		contact := testContact(ownerID)

		mock.ExpectQuery(regexp.QuoteMeta("DELETE FROM contacts WHERE id = $1 AND user_id = $2 RETURNING")).
			WithArgs(contact.ID, ownerID).
			WillReturnRows(contactRow(contact))

		got, err := s.Delete(context.Background(), ownerID, contact.ID)
		require.NoError(t, err)
		assert.Equal(t, contact.ID, got.ID)
		assert.Equal(t, contact.Email, got.Email)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing contact maps to ErrContactNotFound", func(t *testing.T) {
		t.Parallel()

		s, mock := newContactStoreMock(t)

		mock.ExpectQuery(regexp.QuoteMeta("DELETE FROM contacts")).
			WillReturnRows(sqlmock.NewRows(contactRowColumns))

		_, err := s.Delete(context.Background(), ownerID, uuid.New())
		assert.ErrorIs(t, err, store.ErrContactNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestContactStoreSearch(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()

	t.Run("filters become ILIKE conditions", func(t *testing.T) {
		t.Parallel()

		s, mock := newContactStoreMock(t)
		contact := testContact(ownerID)

		mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1 AND first_name ILIKE $2 AND email ILIKE $3")).
			WithArgs(ownerID, "%ada%", "%example.com%").
			WillReturnRows(contactRow(contact))

		got, err := s.Search(context.Background(), ownerID, domain.ContactFilter{
			FirstName: "ada",
			Email:     "example.com",
		})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty filter lists everything owned", func(t *testing.T) {
		t.Parallel()

		s, mock := newContactStoreMock(t)

		mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1 ORDER BY created_at, id")).
			WithArgs(ownerID).
			WillReturnRows(sqlmock.NewRows(contactRowColumns))

		got, err := s.Search(context.Background(), ownerID, domain.ContactFilter{})
		require.NoError(t, err)
		assert.Empty(t, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestContactStoreUpcomingBirthdays(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()
	now := time.Date(2025, time.December, 30, 10, 0, 0, 0, time.UTC)

	s, mock := newContactStoreMock(t)
	contact := testContact(ownerID)

	// Dec 30 plus six days wraps into January.
	mock.ExpectQuery(regexp.QuoteMeta("to_char(birthday, 'MM-DD') IN ($2, $3, $4, $5, $6, $7, $8)")).
		WithArgs(ownerID, "12-30", "12-31", "01-01", "01-02", "01-03", "01-04", "01-05").
		WillReturnRows(contactRow(contact))

	got, err := s.UpcomingBirthdays(context.Background(), ownerID, now)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
