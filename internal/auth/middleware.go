package auth

import (
	"net/http"
	"strings"

	"github.com/migios-apps/migios-pos-api/internal/common"
)

// Middleware guards HTTP routes with bearer-token authentication.
type Middleware struct {
	Verifier Verifier
}

// Require rejects requests without a valid staff token.
func (m Middleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := m.Verifier.Verify(bearerToken(r))
		if err != nil {
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(common.WithStaff(r.Context(), claims.StaffID, claims.Role)))
	})
}

// RequireRole additionally enforces a staff role, e.g. "admin" for tax
// rule management.
func (m Middleware) RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return m.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			current, _ := common.StaffRole(r.Context())
			if !strings.EqualFold(current, role) {
				common.JSONError(w, http.StatusForbidden, "FORBIDDEN", "insufficient role", nil)
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
