// Package middleware holds the HTTP middleware of the REST interface.
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"cognitivediary/pkg/api"
	"cognitivediary/pkg/auth"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Authenticate validates the bearer token and stores its subject in the
// request context. A nil validator disables authentication, which is how
// the service runs locally.
func Authenticate(validator *auth.JWTService, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if validator == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				respondUnauthorized(w, "Missing authentication token")
				return
			}

			claims, err := validator.Validate(token)
			if err != nil {
				logger.Debug("Token validation failed",
					zap.String("path", r.URL.Path),
					zap.Error(err))
				if errors.Is(err, auth.ErrExpiredToken) {
					respondUnauthorized(w, "Token has expired")
					return
				}
				respondUnauthorized(w, "Invalid authentication token")
				return
			}

			ctx := auth.WithUsername(r.Context(), claims.Username())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireOwner rejects requests whose URL parameter does not name the
// authenticated user. Unauthenticated requests pass when authentication
// is disabled.
func RequireOwner(param string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !Owns(r, chi.URLParam(r, param)) {
				api.ErrorWithKind(w, http.StatusForbidden, "FORBIDDEN", "Access to another user's diary is not allowed")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Owns reports whether the request may act for username
func Owns(r *http.Request, username string) bool {
	authenticated, ok := auth.UsernameFromContext(r.Context())
	if !ok {
		return true
	}
	return authenticated == username
}

// extractToken reads the bearer token from the Authorization header, or
// from the token query parameter for websocket upgrades which cannot set
// headers.
func extractToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

func respondUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="cognitivediary"`)
	api.ErrorWithKind(w, http.StatusUnauthorized, "UNAUTHORIZED", message)
}
