package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vportnov/contacts-api/internal/api/shared"
)

// RateLimiter throttles requests per authenticated user using fixed
// windows: each user may make at most limit requests per window, and the
// counter resets only once a full window has elapsed since it opened. No
// tokens trickle back mid-window, so a cold window never admits more than
// limit requests. Windows idle for more than two window lengths are evicted
// so the map does not grow with the user population.
//
// It must run after AuthMiddleware.Authenticate, which puts the user ID
// into the request context.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[uuid.UUID]*userWindow

	limit    int
	window   time.Duration
	timeFunc func() time.Time // Injectable for testing
}

type userWindow struct {
	count    int
	start    time.Time
	lastSeen time.Time
}

// NewRateLimiter creates a RateLimiter allowing limit requests per window
// for each user.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		panic("rate limit must be positive")
	}
	if window <= 0 {
		panic("rate window must be positive")
	}

	return &RateLimiter{
		windows:  make(map[uuid.UUID]*userWindow),
		limit:    limit,
		window:   window,
		timeFunc: time.Now,
	}
}

// Limit rejects requests exceeding the per-user budget with
// 429 Too Many Requests. Requests without a user ID in context are rejected
// with 401; that indicates a mis-ordered middleware chain.
func (l *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := GetUserID(r)
		if !ok || userID == uuid.Nil {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
			return
		}

		if !l.allow(userID) {
			shared.RespondWithErrorAndLog(w, r, http.StatusTooManyRequests,
				"Rate limit exceeded, try again later", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// allow reports whether the user has budget left in the current window,
// opening a fresh window when the previous one has fully elapsed and
// evicting stale entries along the way.
func (l *RateLimiter) allow(userID uuid.UUID) bool {
	now := l.timeFunc()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[userID]
	if !ok {
		w = &userWindow{start: now}
		l.windows[userID] = w
	}
	if now.Sub(w.start) >= l.window {
		w.start = now
		w.count = 0
	}
	w.lastSeen = now

	l.evictStale(now)

	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

// evictStale drops windows that have not been touched for two window
// lengths. Callers must hold l.mu.
func (l *RateLimiter) evictStale(now time.Time) {
	cutoff := now.Add(-2 * l.window)
	for id, w := range l.windows {
		if w.lastSeen.Before(cutoff) {
			delete(l.windows, id)
		}
	}
}
