package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/vportnov/contacts-api/internal/api/shared"
)

func rateLimitedRequest(userID uuid.UUID) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/contacts/read_contacts", nil)
	if userID != uuid.Nil {
		ctx := context.WithValue(req.Context(), shared.UserIDContextKey, userID)
		req = req.WithContext(ctx)
	}
	return req
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimiterAllowsUpToLimit(t *testing.T) {
	t.Parallel()

	limiter := NewRateLimiter(10, time.Minute)
	handler := limiter.Limit(okHandler())
	userID := uuid.New()

	for i := 0; i < 10; i++ {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, rateLimitedRequest(userID))
		assert.Equal(t, http.StatusOK, rr.Code, "request %d should be allowed", i+1)
	}

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, rateLimitedRequest(userID))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
}

func TestRateLimiterIsolatesUsers(t *testing.T) {
	t.Parallel()

	limiter := NewRateLimiter(2, time.Minute)
	handler := limiter.Limit(okHandler())

	first := uuid.New()
	second := uuid.New()

	// Exhaust the first user's budget.
	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, rateLimitedRequest(first))
		assert.Equal(t, http.StatusOK, rr.Code)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, rateLimitedRequest(first))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)

	// The second user is unaffected.
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, rateLimitedRequest(second))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRateLimiterRefillsAfterWindow(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(2, time.Minute)
	limiter.timeFunc = func() time.Time { return now }

	handler := limiter.Limit(okHandler())
	userID := uuid.New()

	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, rateLimitedRequest(userID))
		assert.Equal(t, http.StatusOK, rr.Code)
	}

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, rateLimitedRequest(userID))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)

	// A full window later the budget is back.
	now = now.Add(time.Minute)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, rateLimitedRequest(userID))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRateLimiterDoesNotRefillMidWindow(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(10, time.Minute)
	limiter.timeFunc = func() time.Time { return now }

	handler := limiter.Limit(okHandler())
	userID := uuid.New()

	// Requests spaced 2s apart: the first 10 land within the window; the
	// remaining 20 of the first minute must all be rejected, even though
	// time keeps advancing. Nothing trickles back before the window ends.
	allowed := 0
	for i := 0; i < 30; i++ {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, rateLimitedRequest(userID))
		if rr.Code == http.StatusOK {
			allowed++
		} else {
			assert.Equal(t, http.StatusTooManyRequests, rr.Code)
		}
		now = now.Add(2 * time.Second)
	}
	assert.Equal(t, 10, allowed)

	// The window opened at the first request, so the budget returns a full
	// minute after that, not at any point in between.
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, rateLimitedRequest(userID))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRateLimiterEvictsStaleWindows(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(5, time.Minute)
	limiter.timeFunc = func() time.Time { return now }

	handler := limiter.Limit(okHandler())

	stale := uuid.New()
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, rateLimitedRequest(stale))
	assert.Equal(t, http.StatusOK, rr.Code)

	// More than two windows later, a request from another user triggers
	// eviction of the idle entry.
	now = now.Add(3 * time.Minute)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, rateLimitedRequest(uuid.New()))
	assert.Equal(t, http.StatusOK, rr.Code)

	limiter.mu.Lock()
	_, stalePresent := limiter.windows[stale]
	limiter.mu.Unlock()
	assert.False(t, stalePresent)
}

func TestRateLimiterRequiresUserID(t *testing.T) {
	t.Parallel()

	limiter := NewRateLimiter(10, time.Minute)
	handler := limiter.Limit(okHandler())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, rateLimitedRequest(uuid.Nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestNewRateLimiterRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { NewRateLimiter(0, time.Minute) })
	assert.Panics(t, func() { NewRateLimiter(10, 0) })
}
