// Package mocks provides centralized mock implementations for testing.
//
// Instead of defining inline mocks in individual test files, the mocks here
// are shared across test packages. Each mock exposes function fields for
// customizable behavior and a simple in-memory default implementation that
// covers the common cases.
//
// Usage:
//
//	import "github.com/vportnov/contacts-api/internal/mocks"
//
//	func TestSomething(t *testing.T) {
//	    jwtService := &mocks.MockJWTService{
//	        GenerateTokenFn: func(ctx context.Context, userID uuid.UUID) (string, error) {
//	            return "mocked-token", nil
//	        },
//	    }
//
//	    // Use the mock in your test...
//	}
package mocks
