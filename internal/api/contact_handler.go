package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/vportnov/contacts-api/internal/api/shared"
	"github.com/vportnov/contacts-api/internal/domain"
	"github.com/vportnov/contacts-api/internal/platform/logger"
	"github.com/vportnov/contacts-api/internal/redact"
	"github.com/vportnov/contacts-api/internal/store"
)

// Pagination bounds for the contact list endpoint.
const (
	defaultListLimit = 10
	maxListLimit     = 100
)

// ContactHandler handles contact-related HTTP requests.
// Every operation reads the authenticated user's ID from the request
// context and passes it to the ownership-scoped store.
type ContactHandler struct {
	contactStore store.ContactStore
	validator    *validator.Validate
	logger       *slog.Logger
	timeFunc     func() time.Time // Injectable for testing the birthday window
}

// NewContactHandler creates a new ContactHandler.
func NewContactHandler(contactStore store.ContactStore, logger *slog.Logger) *ContactHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for ContactHandler")
	}

	return &ContactHandler{
		contactStore: contactStore,
		validator:    validator.New(),
		logger:       logger.With(slog.String("component", "contact_handler")),
		timeFunc:     time.Now,
	}
}

// CreateContact handles POST /contacts/create requests.
func (h *ContactHandler) CreateContact(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	var req CreateContactRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format",
			slog.String("error", redact.Error(err)),
			slog.String("user_id", userID.String()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	contact, err := domain.NewContact(
		userID,
		req.FirstName,
		req.LastName,
		req.Email,
		req.Phone,
		req.Birthday,
		req.Notes,
	)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid contact data: "+err.Error())
		return
	}

	if err := h.contactStore.Create(r.Context(), contact); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Debug("contact created",
		slog.String("user_id", userID.String()),
		slog.String("contact_id", contact.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, contactToResponse(contact))
}

// ReadContacts handles GET /contacts/read_contacts requests.
// Supports skip/limit pagination; the route is additionally guarded by the
// per-user rate limiter.
func (h *ContactHandler) ReadContacts(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	skip, err := queryInt(r, "skip", 0)
	if err != nil || skip < 0 {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid skip parameter")
		return
	}

	limit, err := queryInt(r, "limit", defaultListLimit)
	if err != nil || limit < 1 {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid limit parameter")
		return
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	contacts, err := h.contactStore.List(r.Context(), userID, skip, limit)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), "Failed to list contacts", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, contactsToResponse(contacts))
}

// ReadContact handles GET /contacts/read_contact/{id} requests.
func (h *ContactHandler) ReadContact(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	contactID, ok := requireContactID(w, r, log)
	if !ok {
		return
	}

	contact, err := h.contactStore.GetByID(r.Context(), userID, contactID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, contactToResponse(contact))
}

// UpdateContact handles PUT /contacts/update_contact/{id} requests.
// Fields present in the payload overwrite stored values; absent fields are
// left untouched.
func (h *ContactHandler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	contactID, ok := requireContactID(w, r, log)
	if !ok {
		return
	}

	var req UpdateContactRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format",
			slog.String("error", redact.Error(err)),
			slog.String("user_id", userID.String()),
			slog.String("contact_id", contactID.String()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	contact, err := h.contactStore.Update(r.Context(), userID, contactID, req.Patch())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Debug("contact updated",
		slog.String("user_id", userID.String()),
		slog.String("contact_id", contactID.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, contactToResponse(contact))
}

// DeleteContact handles DELETE /contacts/delete_contact/{id} requests.
// The deleted contact's prior representation is returned for confirmation.
func (h *ContactHandler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	contactID, ok := requireContactID(w, r, log)
	if !ok {
		return
	}

	contact, err := h.contactStore.Delete(r.Context(), userID, contactID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Debug("contact deleted",
		slog.String("user_id", userID.String()),
		slog.String("contact_id", contactID.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, contactToResponse(contact))
}

// SearchContacts handles GET /contacts/search requests.
// The first_name, last_name, and email query parameters are each optional;
// supplied ones are ANDed together. No matches yields 200 with an empty
// list.
func (h *ContactHandler) SearchContacts(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	filter := domain.ContactFilter{
		FirstName: r.URL.Query().Get("first_name"),
		LastName:  r.URL.Query().Get("last_name"),
		Email:     r.URL.Query().Get("email"),
	}

	contacts, err := h.contactStore.Search(r.Context(), userID, filter)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), "Failed to search contacts", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, contactsToResponse(contacts))
}

// UpcomingBirthdays handles GET /contacts/birthdays requests.
// Returns the contacts whose birthday falls within the next seven days
// including today, compared by month and day only. No matches yields 200
// with an empty list.
func (h *ContactHandler) UpcomingBirthdays(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	contacts, err := h.contactStore.UpcomingBirthdays(r.Context(), userID, h.timeFunc().UTC())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), "Failed to query upcoming birthdays", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, contactsToResponse(contacts))
}

// requireUserID extracts the authenticated user's ID from the request
// context, responding with 401 when it is missing.
func requireUserID(w http.ResponseWriter, r *http.Request, log *slog.Logger) (uuid.UUID, bool) {
	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return uuid.Nil, false
	}
	return userID, true
}

// requireContactID extracts and parses the {id} URL parameter, responding
// with 400 when it is missing or malformed.
func requireContactID(w http.ResponseWriter, r *http.Request, log *slog.Logger) (uuid.UUID, bool) {
	pathID := chi.URLParam(r, "id")
	if pathID == "" {
		log.Warn("contact ID not found in URL path")
		shared.RespondWithError(w, r, http.StatusBadRequest, "Contact ID is required")
		return uuid.Nil, false
	}

	contactID, err := uuid.Parse(pathID)
	if err != nil {
		log.Warn("invalid contact ID format", slog.String("contact_id", pathID))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid contact ID format")
		return uuid.Nil, false
	}
	return contactID, true
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string, defaultValue int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(raw)
}
