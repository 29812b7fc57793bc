package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vportnov/contacts-api/internal/domain"
	"github.com/vportnov/contacts-api/internal/platform/logger"
	"github.com/vportnov/contacts-api/internal/store"
)

// contactColumns is the column list shared by every contact query so that
// scanContact can rely on a single ordering.
const contactColumns = `id, user_id, first_name, last_name, email, phone, birthday, notes, created_at, updated_at`

// PostgresContactStore implements the store.ContactStore interface
// using a PostgreSQL database as the storage backend.
//
// Every query carries a user_id predicate, so a contact owned by another
// user is indistinguishable from one that does not exist.
type PostgresContactStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresContactStore creates a new PostgreSQL implementation of the
// ContactStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresContactStore(db store.DBTX, logger *slog.Logger) *PostgresContactStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresContactStore{
		db:     db,
		logger: logger.With(slog.String("component", "contact_store")),
	}
}

// Ensure PostgresContactStore implements store.ContactStore interface
var _ store.ContactStore = (*PostgresContactStore)(nil)

// WithTx implements store.ContactStore.WithTx
func (s *PostgresContactStore) WithTx(tx *sql.Tx) store.ContactStore {
	return &PostgresContactStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.ContactStore.Create
// The contacts_user_id_email_key unique constraint is the authoritative
// duplicate check; its violation is returned as store.ErrContactEmailExists.
func (s *PostgresContactStore) Create(ctx context.Context, contact *domain.Contact) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := contact.Validate(); err != nil {
		log.Warn("contact validation failed during create",
			slog.String("error", err.Error()),
			slog.String("contact_id", contact.ID.String()))
		return err
	}

	query := `
		INSERT INTO contacts (` + contactColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		contact.ID,
		contact.UserID,
		contact.FirstName,
		contact.LastName,
		contact.Email,
		contact.Phone,
		contact.Birthday,
		contact.Notes,
		contact.CreatedAt,
		contact.UpdatedAt,
	)

	if err != nil {
		if IsUniqueViolation(err) {
			log.Debug("duplicate contact email during create",
				slog.String("contact_id", contact.ID.String()),
				slog.String("user_id", contact.UserID.String()))
			return store.ErrContactEmailExists
		}
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during contact creation",
				slog.String("error", err.Error()),
				slog.String("contact_id", contact.ID.String()),
				slog.String("user_id", contact.UserID.String()))
			return fmt.Errorf("%w: user with ID %s not found",
				store.ErrInvalidEntity, contact.UserID)
		}

		log.Error("failed to create contact",
			slog.String("error", err.Error()),
			slog.String("contact_id", contact.ID.String()),
			slog.String("user_id", contact.UserID.String()))
		return MapError(err)
	}

	log.Info("contact created successfully",
		slog.String("contact_id", contact.ID.String()),
		slog.String("user_id", contact.UserID.String()))
	return nil
}

// GetByID implements store.ContactStore.GetByID
// Returns store.ErrContactNotFound if no such contact is owned by ownerID.
func (s *PostgresContactStore) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Contact, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + contactColumns + `
		FROM contacts
		WHERE id = $1 AND user_id = $2
	`

	contact, err := scanContact(s.db.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("contact not found",
				slog.String("contact_id", id.String()),
				slog.String("user_id", ownerID.String()))
			return nil, store.ErrContactNotFound
		}
		log.Error("failed to get contact by ID",
			slog.String("error", err.Error()),
			slog.String("contact_id", id.String()))
		return nil, MapError(err)
	}

	return contact, nil
}

// List implements store.ContactStore.List
// Results come back in stable insertion order (created_at, then id).
func (s *PostgresContactStore) List(
	ctx context.Context,
	ownerID uuid.UUID,
	skip, limit int,
) ([]*domain.Contact, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + contactColumns + `
		FROM contacts
		WHERE user_id = $1
		ORDER BY created_at, id
		LIMIT $2 OFFSET $3
	`

	rows, err := s.db.QueryContext(ctx, query, ownerID, limit, skip)
	if err != nil {
		log.Error("failed to list contacts",
			slog.String("error", err.Error()),
			slog.String("user_id", ownerID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	return collectContacts(rows)
}

// Update implements store.ContactStore.Update
// The SET clause is built from the non-nil patch fields only, so absent
// fields keep their stored values. RETURNING hands back the updated row in
// the same statement.
// Returns store.ErrContactNotFound if no such contact is owned by ownerID,
// and store.ErrContactEmailExists if the patch email collides with another
// contact of the same owner.
func (s *PostgresContactStore) Update(
	ctx context.Context,
	ownerID, id uuid.UUID,
	patch domain.ContactPatch,
) (*domain.Contact, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if patch.IsEmpty() {
		// Nothing to change; behave like a read so callers still get the
		// ownership check and the current row.
		return s.GetByID(ctx, ownerID, id)
	}

	var (
		assignments []string
		args        []any
	)
	appendSet := func(column string, value any) {
		args = append(args, value)
		assignments = append(assignments, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.FirstName != nil {
		appendSet("first_name", *patch.FirstName)
	}
	if patch.LastName != nil {
		appendSet("last_name", *patch.LastName)
	}
	if patch.Email != nil {
		appendSet("email", *patch.Email)
	}
	if patch.Phone != nil {
		appendSet("phone", *patch.Phone)
	}
	if patch.Birthday != nil {
		appendSet("birthday", *patch.Birthday)
	}
	if patch.Notes != nil {
		appendSet("notes", *patch.Notes)
	}
	appendSet("updated_at", time.Now().UTC())

	args = append(args, id, ownerID)
	query := fmt.Sprintf(`
		UPDATE contacts
		SET %s
		WHERE id = $%d AND user_id = $%d
		RETURNING `+contactColumns,
		strings.Join(assignments, ", "), len(args)-1, len(args))

	contact, err := scanContact(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("contact not found during update",
				slog.String("contact_id", id.String()),
				slog.String("user_id", ownerID.String()))
			return nil, store.ErrContactNotFound
		}
		if IsUniqueViolation(err) {
			log.Debug("duplicate contact email during update",
				slog.String("contact_id", id.String()),
				slog.String("user_id", ownerID.String()))
			return nil, store.ErrContactEmailExists
		}
		log.Error("failed to update contact",
			slog.String("error", err.Error()),
			slog.String("contact_id", id.String()))
		return nil, MapError(err)
	}

	log.Info("contact updated successfully",
		slog.String("contact_id", id.String()),
		slog.String("user_id", ownerID.String()))
	return contact, nil
}

// Delete implements store.ContactStore.Delete
// RETURNING yields the deleted row so callers can confirm what was removed.
// Returns store.ErrContactNotFound if no such contact is owned by ownerID.
func (s *PostgresContactStore) Delete(ctx context.Context, ownerID, id uuid.UUID) (*domain.Contact, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		DELETE FROM contacts
		WHERE id = $1 AND user_id = $2
		RETURNING ` + contactColumns

	contact, err := scanContact(s.db.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("contact not found during delete",
				slog.String("contact_id", id.String()),
				slog.String("user_id", ownerID.String()))
			return nil, store.ErrContactNotFound
		}
		log.Error("failed to delete contact",
			slog.String("error", err.Error()),
			slog.String("contact_id", id.String()))
		return nil, MapError(err)
	}

	log.Info("contact deleted successfully",
		slog.String("contact_id", id.String()),
		slog.String("user_id", ownerID.String()))
	return contact, nil
}

// Search implements store.ContactStore.Search
// Supplied filter fields are matched as case-insensitive substrings and
// combined with AND. An empty filter returns all of the owner's contacts.
func (s *PostgresContactStore) Search(
	ctx context.Context,
	ownerID uuid.UUID,
	filter domain.ContactFilter,
) ([]*domain.Contact, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	conditions := []string{"user_id = $1"}
	args := []any{ownerID}
	appendCondition := func(column, value string) {
		args = append(args, "%"+value+"%")
		conditions = append(conditions, fmt.Sprintf("%s ILIKE $%d", column, len(args)))
	}

	if filter.FirstName != "" {
		appendCondition("first_name", filter.FirstName)
	}
	if filter.LastName != "" {
		appendCondition("last_name", filter.LastName)
	}
	if filter.Email != "" {
		appendCondition("email", filter.Email)
	}

	query := fmt.Sprintf(`
		SELECT `+contactColumns+`
		FROM contacts
		WHERE %s
		ORDER BY created_at, id
	`, strings.Join(conditions, " AND "))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to search contacts",
			slog.String("error", err.Error()),
			slog.String("user_id", ownerID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	return collectContacts(rows)
}

// UpcomingBirthdays implements store.ContactStore.UpcomingBirthdays
// The window's month/day keys are computed in Go from the actual calendar
// (which handles the year-end wrap and Feb 29 for free) and matched against
// the birthday column formatted as MM-DD.
func (s *PostgresContactStore) UpcomingBirthdays(
	ctx context.Context,
	ownerID uuid.UUID,
	now time.Time,
) ([]*domain.Contact, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	keys := domain.BirthdayKeys(now)
	placeholders := make([]string, 0, len(keys))
	args := []any{ownerID}
	for _, key := range keys {
		args = append(args, key)
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
	}

	query := fmt.Sprintf(`
		SELECT `+contactColumns+`
		FROM contacts
		WHERE user_id = $1
			AND to_char(birthday, 'MM-DD') IN (%s)
		ORDER BY to_char(birthday, 'MM-DD'), id
	`, strings.Join(placeholders, ", "))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query upcoming birthdays",
			slog.String("error", err.Error()),
			slog.String("user_id", ownerID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	return collectContacts(rows)
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanContact reads one contact from a row using the contactColumns order.
func scanContact(row rowScanner) (*domain.Contact, error) {
	var (
		contact domain.Contact
		notes   sql.NullString
	)
	err := row.Scan(
		&contact.ID,
		&contact.UserID,
		&contact.FirstName,
		&contact.LastName,
		&contact.Email,
		&contact.Phone,
		&contact.Birthday,
		&notes,
		&contact.CreatedAt,
		&contact.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if notes.Valid {
		contact.Notes = &notes.String
	}
	return &contact, nil
}

// collectContacts drains rows into a slice. An empty result yields an empty
// slice, never nil, so handlers can serialize it as [] directly.
func collectContacts(rows *sql.Rows) ([]*domain.Contact, error) {
	contacts := make([]*domain.Contact, 0)
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, contact)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return contacts, nil
}
