package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vportnov/contacts-api/internal/api/shared"
	"github.com/vportnov/contacts-api/internal/domain"
	"github.com/vportnov/contacts-api/internal/mocks"
)

func testContactLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newContactRequest builds a request carrying the given user ID and chi
// route parameters.
func newContactRequest(
	t *testing.T,
	method, target string,
	body interface{},
	userID uuid.UUID,
	pathID string,
) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")

	rctx := chi.NewRouteContext()
	if pathID != "" {
		rctx.URLParams.Add("id", pathID)
	}
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	if userID != uuid.Nil {
		req = req.WithContext(context.WithValue(req.Context(), shared.UserIDContextKey, userID))
	}

	return req
}

func seedContact(t *testing.T, store *mocks.MockContactStore, ownerID uuid.UUID, email string) *domain.Contact {
	t.Helper()

	contact, err := domain.NewContact(
		ownerID,
		"Ada",
		"Lovelace",
		email,
		"+1-555-0100",
		time.Date(1990, time.December, 10, 0, 0, 0, 0, time.UTC),
		nil,
	)
	require.NoError(t, err)
	require.NoError(t, store.Create(context.Background(), contact))
	return contact
}

func TestCreateContact(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	validPayload := map[string]interface{}{
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"email":      "ada@example.com",
		"phone":      "+1-555-0100",
		"birthday":   "1990-12-10T00:00:00Z",
	}

	tests := []struct {
		name        string
		userIDInCtx uuid.UUID
		payload     map[string]interface{}
		seedEmail   string
		wantStatus  int
	}{
		{
			name:        "valid contact",
			userIDInCtx: userID,
			payload:     validPayload,
			wantStatus:  http.StatusCreated,
		},
		{
			name:        "duplicate email for same owner",
			userIDInCtx: userID,
			payload:     validPayload,
			seedEmail:   "ada@example.com",
			wantStatus:  http.StatusBadRequest,
		},
		{
			name:        "missing required field",
			userIDInCtx: userID,
			payload: map[string]interface{}{
				"first_name": "Ada",
				"email":      "ada@example.com",
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:        "invalid email",
			userIDInCtx: userID,
			payload: map[string]interface{}{
				"first_name": "Ada",
				"last_name":  "Lovelace",
				"email":      "not-an-email",
				"phone":      "+1-555-0100",
				"birthday":   "1990-12-10T00:00:00Z",
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:        "missing user ID",
			userIDInCtx: uuid.Nil,
			payload:     validPayload,
			wantStatus:  http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			contactStore := mocks.NewMockContactStore()
			if tt.seedEmail != "" {
				seedContact(t, contactStore, userID, tt.seedEmail)
			}
			handler := NewContactHandler(contactStore, testContactLogger())

			req := newContactRequest(t, http.MethodPost, "/contacts/create", tt.payload, tt.userIDInCtx, "")
			rr := httptest.NewRecorder()
			handler.CreateContact(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)

			if tt.wantStatus == http.StatusCreated {
				var resp ContactResponse
				require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
				assert.Equal(t, userID, resp.UserID)
				assert.Equal(t, "ada@example.com", resp.Email)
				assert.Equal(t, "1990-12-10", resp.Birthday)
				assert.NotEqual(t, uuid.Nil, resp.ID)
			}
		})
	}
}

func TestReadContacts(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	otherUserID := uuid.New()

	contactStore := mocks.NewMockContactStore()
	for i, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		contact := seedContact(t, contactStore, userID, email)
		// Spread creation times so the default ordering is deterministic.
		contact.CreatedAt = contact.CreatedAt.Add(time.Duration(i) * time.Second)
	}
	seedContact(t, contactStore, otherUserID, "other@example.com")

	handler := NewContactHandler(contactStore, testContactLogger())

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantCount  int
	}{
		{
			name:       "default pagination",
			target:     "/contacts/read_contacts",
			wantStatus: http.StatusOK,
			wantCount:  3,
		},
		{
			name:       "skip and limit",
			target:     "/contacts/read_contacts?skip=1&limit=1",
			wantStatus: http.StatusOK,
			wantCount:  1,
		},
		{
			name:       "skip beyond end",
			target:     "/contacts/read_contacts?skip=10",
			wantStatus: http.StatusOK,
			wantCount:  0,
		},
		{
			name:       "negative skip",
			target:     "/contacts/read_contacts?skip=-1",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "non-numeric limit",
			target:     "/contacts/read_contacts?limit=abc",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "zero limit",
			target:     "/contacts/read_contacts?limit=0",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := newContactRequest(t, http.MethodGet, tt.target, nil, userID, "")
			rr := httptest.NewRecorder()
			handler.ReadContacts(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)

			if tt.wantStatus == http.StatusOK {
				var resp []ContactResponse
				require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
				assert.Len(t, resp, tt.wantCount)
				for _, c := range resp {
					assert.Equal(t, userID, c.UserID)
				}
			}
		})
	}

	t.Run("empty list serializes as JSON array", func(t *testing.T) {
		t.Parallel()

		emptyStore := mocks.NewMockContactStore()
		h := NewContactHandler(emptyStore, testContactLogger())

		req := newContactRequest(t, http.MethodGet, "/contacts/read_contacts", nil, userID, "")
		rr := httptest.NewRecorder()
		h.ReadContacts(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, "[]", rr.Body.String())
	})
}

func TestReadContact(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	otherUserID := uuid.New()

	contactStore := mocks.NewMockContactStore()
	owned := seedContact(t, contactStore, userID, "ada@example.com")
	foreign := seedContact(t, contactStore, otherUserID, "grace@example.com")

	handler := NewContactHandler(contactStore, testContactLogger())

	tests := []struct {
		name       string
		pathID     string
		wantStatus int
	}{
		{
			name:       "owned contact",
			pathID:     owned.ID.String(),
			wantStatus: http.StatusOK,
		},
		{
			name:       "nonexistent contact",
			pathID:     uuid.New().String(),
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "contact owned by another user",
			pathID:     foreign.ID.String(),
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "malformed ID",
			pathID:     "not-a-uuid",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := newContactRequest(
				t,
				http.MethodGet,
				"/contacts/read_contact/"+tt.pathID,
				nil,
				userID,
				tt.pathID,
			)
			rr := httptest.NewRecorder()
			handler.ReadContact(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)

			if tt.wantStatus == http.StatusOK {
				var resp ContactResponse
				require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
				assert.Equal(t, owned.ID, resp.ID)
			}
		})
	}
}

func TestUpdateContact(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	t.Run("partial update touches only supplied fields", func(t *testing.T) {
		t.Parallel()

		contactStore := mocks.NewMockContactStore()
		contact := seedContact(t, contactStore, userID, "ada@example.com")
		handler := NewContactHandler(contactStore, testContactLogger())

		payload := map[string]interface{}{"phone": "+1-555-0199"}
		req := newContactRequest(
			t,
			http.MethodPut,
			"/contacts/update_contact/"+contact.ID.String(),
			payload,
			userID,
			contact.ID.String(),
		)
		rr := httptest.NewRecorder()
		handler.UpdateContact(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)

		var resp ContactResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, "+1-555-0199", resp.Phone)
		assert.Equal(t, "Ada", resp.FirstName)
		assert.Equal(t, "ada@example.com", resp.Email)
	})

	t.Run("update to email of sibling contact is rejected", func(t *testing.T) {
		t.Parallel()

		contactStore := mocks.NewMockContactStore()
		seedContact(t, contactStore, userID, "taken@example.com")
		contact := seedContact(t, contactStore, userID, "ada@example.com")
		handler := NewContactHandler(contactStore, testContactLogger())

		payload := map[string]interface{}{"email": "taken@example.com"}
		req := newContactRequest(
			t,
			http.MethodPut,
			"/contacts/update_contact/"+contact.ID.String(),
			payload,
			userID,
			contact.ID.String(),
		)
		rr := httptest.NewRecorder()
		handler.UpdateContact(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("update of missing contact yields 404", func(t *testing.T) {
		t.Parallel()

		contactStore := mocks.NewMockContactStore()
		handler := NewContactHandler(contactStore, testContactLogger())

		missingID := uuid.New().String()
		payload := map[string]interface{}{"phone": "+1-555-0199"}
		req := newContactRequest(
			t,
			http.MethodPut,
			"/contacts/update_contact/"+missingID,
			payload,
			userID,
			missingID,
		)
		rr := httptest.NewRecorder()
		handler.UpdateContact(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestDeleteContact(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	t.Run("delete returns prior representation", func(t *testing.T) {
		t.Parallel()

		contactStore := mocks.NewMockContactStore()
		contact := seedContact(t, contactStore, userID, "ada@example.com")
		handler := NewContactHandler(contactStore, testContactLogger())

		req := newContactRequest(
			t,
			http.MethodDelete,
			"/contacts/delete_contact/"+contact.ID.String(),
			nil,
			userID,
			contact.ID.String(),
		)
		rr := httptest.NewRecorder()
		handler.DeleteContact(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)

		var resp ContactResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, contact.ID, resp.ID)
		assert.Equal(t, "ada@example.com", resp.Email)

		// The contact is gone afterwards.
		_, err := contactStore.GetByID(context.Background(), userID, contact.ID)
		assert.Error(t, err)
	})

	t.Run("delete twice yields 404", func(t *testing.T) {
		t.Parallel()

		contactStore := mocks.NewMockContactStore()
		contact := seedContact(t, contactStore, userID, "ada@example.com")
		handler := NewContactHandler(contactStore, testContactLogger())

		_, err := contactStore.Delete(context.Background(), userID, contact.ID)
		require.NoError(t, err)

		req := newContactRequest(
			t,
			http.MethodDelete,
			"/contacts/delete_contact/"+contact.ID.String(),
			nil,
			userID,
			contact.ID.String(),
		)
		rr := httptest.NewRecorder()
		handler.DeleteContact(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestSearchContacts(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	contactStore := mocks.NewMockContactStore()
	seedContact(t, contactStore, userID, "ada@example.com")
	grace, err := domain.NewContact(
		userID,
		"Grace",
		"Hopper",
		"grace@navy.mil",
		"+1-555-0101",
		time.Date(1906, time.December, 9, 0, 0, 0, 0, time.UTC),
		nil,
	)
	require.NoError(t, err)
	require.NoError(t, contactStore.Create(context.Background(), grace))

	handler := NewContactHandler(contactStore, testContactLogger())

	tests := []struct {
		name       string
		target     string
		wantEmails []string
	}{
		{
			name:       "match by first name substring",
			target:     "/contacts/search?first_name=gra",
			wantEmails: []string{"grace@navy.mil"},
		},
		{
			name:       "case-insensitive match",
			target:     "/contacts/search?last_name=LOVELACE",
			wantEmails: []string{"ada@example.com"},
		},
		{
			name:       "multiple criteria are ANDed",
			target:     "/contacts/search?first_name=grace&email=example.com",
			wantEmails: []string{},
		},
		{
			name:       "no criteria returns everything",
			target:     "/contacts/search",
			wantEmails: []string{"ada@example.com", "grace@navy.mil"},
		},
		{
			name:       "no matches yields empty list",
			target:     "/contacts/search?first_name=nobody",
			wantEmails: []string{},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := newContactRequest(t, http.MethodGet, tt.target, nil, userID, "")
			rr := httptest.NewRecorder()
			handler.SearchContacts(rr, req)

			require.Equal(t, http.StatusOK, rr.Code)

			var resp []ContactResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))

			emails := make([]string, 0, len(resp))
			for _, c := range resp {
				emails = append(emails, c.Email)
			}
			assert.ElementsMatch(t, tt.wantEmails, emails)
		})
	}
}

func TestUpcomingBirthdays(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	now := time.Date(2025, time.December, 30, 10, 0, 0, 0, time.UTC)

	newBirthdayContact := func(t *testing.T, store *mocks.MockContactStore, email string, birthday time.Time) {
		t.Helper()
		contact, err := domain.NewContact(userID, "Test", "Person", email, "+1-555-0100", birthday, nil)
		require.NoError(t, err)
		require.NoError(t, store.Create(context.Background(), contact))
	}

	contactStore := mocks.NewMockContactStore()
	// Inside the window: today, and Jan 3 across the year boundary.
	newBirthdayContact(t, contactStore, "today@example.com", time.Date(1980, time.December, 30, 0, 0, 0, 0, time.UTC))
	newBirthdayContact(t, contactStore, "wrapped@example.com", time.Date(1992, time.January, 3, 0, 0, 0, 0, time.UTC))
	// Outside the window.
	newBirthdayContact(t, contactStore, "later@example.com", time.Date(1985, time.January, 10, 0, 0, 0, 0, time.UTC))

	handler := NewContactHandler(contactStore, testContactLogger())
	handler.timeFunc = func() time.Time { return now }

	req := newContactRequest(t, http.MethodGet, "/contacts/birthdays", nil, userID, "")
	rr := httptest.NewRecorder()
	handler.UpcomingBirthdays(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp []ContactResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))

	emails := make([]string, 0, len(resp))
	for _, c := range resp {
		emails = append(emails, c.Email)
	}
	assert.ElementsMatch(t, []string{"today@example.com", "wrapped@example.com"}, emails)
}
