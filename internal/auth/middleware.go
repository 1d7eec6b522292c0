package auth

import (
	"net/http"
	"strconv"

	"github.com/tlaloc-sg/tlaloc-erp/internal/platform/httpx"
	"github.com/tlaloc-sg/tlaloc-erp/internal/shared"
)

// CurrentUserID extracts the authenticated user ID from the request
// session, returning 0 when anonymous.
func CurrentUserID(r *http.Request) int64 {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return 0
	}
	id, err := strconv.ParseInt(sess.User(), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// IsAdmin reports whether the request session carries the admin role.
func IsAdmin(r *http.Request) bool {
	sess := shared.SessionFromContext(r.Context())
	return sess != nil && sess.Role() == RoleAdmin
}

// RequireUser rejects anonymous requests.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if CurrentUserID(r) == 0 {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "login required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole rejects sessions whose role is not in the allowed set.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if CurrentUserID(r) == 0 {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "login required")
				return
			}
			sess := shared.SessionFromContext(r.Context())
			if _, ok := allowed[sess.Role()]; !ok {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
