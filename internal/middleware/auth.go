package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dukerupert/helpline/internal/auth"
	"github.com/dukerupert/helpline/internal/model"
	"github.com/dukerupert/helpline/internal/token"
)

// Verifier checks a bearer credential and resolves its account.
type Verifier interface {
	Verify(raw string) (*token.Identity, error)
}

// RequireAuth validates the bearer credential and populates AuthContext.
// Missing, malformed, expired, and unknown-account credentials all get 401.
func RequireAuth(verifier Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := BearerToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			ident, err := verifier.Verify(raw)
			if err != nil {
				if token.IsAuthError(err) {
					writeError(w, http.StatusUnauthorized, err.Error())
					return
				}
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}

			ac := auth.AuthContext{
				AccountID: ident.Account.ID,
				Role:      ident.Account.Role,
				TokenID:   ident.TokenID,
				ExpiresAt: ident.ExpiresAt,
			}

			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects callers whose role is not one of roles with 403.
// It must run after RequireAuth.
func RequireRole(roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := auth.FromContext(r.Context()); !ok {
				writeError(w, http.StatusUnauthorized, "unauthenticated")
				return
			}
			if !auth.HasRole(r.Context(), roles...) {
				writeError(w, http.StatusForbidden, "forbidden for role "+auth.Role(r.Context()).String())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// BearerToken extracts the credential from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, raw, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
