// Package handlers holds the HTTP building blocks shared by the server:
// health checking, admin authentication, and request middleware.
package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// ADMIN AUTHENTICATION
// ══════════════════════════════════════════════════════════════════════════════

// APIKeyAuth guards the admin routes. The key set is fixed at construction;
// rotating keys means restarting the worker with new configuration.
type APIKeyAuth struct {
	headerName string
	validKeys  map[string]struct{}
}

// NewAPIKeyAuth creates an authenticator accepting any of the given keys.
// Empty keys are ignored.
func NewAPIKeyAuth(headerName string, keys []string) *APIKeyAuth {
	valid := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		if key != "" {
			valid[key] = struct{}{}
		}
	}
	return &APIKeyAuth{headerName: headerName, validKeys: valid}
}

// IsValid reports whether the key is in the configured set.
func (a *APIKeyAuth) IsValid(key string) bool {
	_, ok := a.validKeys[key]
	return ok
}

// Middleware rejects requests without a valid key. The key is read from the
// configured header first, then from a Bearer Authorization header.
func (a *APIKeyAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(a.headerName)
		if key == "" {
			if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
				key = strings.TrimPrefix(auth, "Bearer ")
			}
		}

		if key == "" {
			http.Error(w, `{"error":"missing_api_key","message":"API key is required"}`, http.StatusUnauthorized)
			return
		}
		if !a.IsValid(key) {
			http.Error(w, `{"error":"invalid_api_key","message":"Invalid API key"}`, http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

// TimeoutMiddleware bounds the request context. Admin commands fan out to the
// database and legacy store, so they get a hard deadline independent of the
// server write timeout.
func TimeoutMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			done := make(chan struct{})
			go func() {
				next.ServeHTTP(w, r.WithContext(ctx))
				close(done)
			}()

			select {
			case <-done:
			case <-ctx.Done():
				if ctx.Err() == context.DeadlineExceeded {
					http.Error(w, `{"error":"timeout","message":"Request timeout exceeded"}`, http.StatusGatewayTimeout)
				}
			}
		})
	}
}

// SecurityHeadersMiddleware sets the headers appropriate for a JSON-only API.
func SecurityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}
