package middleware

import (
	"net/http"
	"strings"

	"silowatch/internal/realtime"
)

const bearerPrefix = "bearer "

// RequireAuth validates the Bearer token on every request and sets user_id and
// org_id in the request context. Requests with a missing, malformed, expired,
// or unknown credential get a 401.
func RequireAuth(identity realtime.IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearer(r)
			if token == "" {
				http.Error(w, "missing or invalid authorization", http.StatusUnauthorized)
				return
			}
			userID, orgID, err := identity.Resolve(r.Context(), token)
			if err != nil {
				http.Error(w, "missing or invalid authorization", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), userID, orgID)))
		})
	}
}

// extractBearer returns the Bearer token from the Authorization header, or ""
// if missing or malformed.
func extractBearer(r *http.Request) string {
	v := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
