package rbac

import (
	"log/slog"
	"net/http"
	"strings"
)

// Middleware wires authorization checks for HTTP handlers. The user snapshot
// is read from the request context, where the session middleware put it.
type Middleware struct {
	Logger *slog.Logger
}

// Require ensures the current user may perform action on module.
func (m Middleware) Require(module Module, action Action) func(http.Handler) http.Handler {
	return m.guard("rbac require", func(u *User) bool {
		return HasPermission(u, module, action)
	}, Permission(module, action))
}

// RequireAdmin restricts the route to admin users.
func (m Middleware) RequireAdmin() func(http.Handler) http.Handler {
	return m.guard("rbac require admin", IsAdmin, "role:"+RoleAdmin)
}

// RequireAny ensures the current user has at least one of the listed
// "module:action" permissions.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	normalized := normalizePermissions(perms)
	return m.guard("rbac require any", func(u *User) bool {
		if len(normalized) == 0 {
			return true
		}
		for _, p := range normalized {
			module, action, ok := ParsePermission(p)
			if ok && HasPermission(u, module, action) {
				return true
			}
		}
		return false
	}, strings.Join(normalized, ","))
}

func (m Middleware) guard(op string, allowed func(*User) bool, required string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if allowed(user) {
				next.ServeHTTP(w, r)
				return
			}
			if m.Logger != nil {
				actor := ""
				if user != nil {
					actor = user.ID
				}
				m.Logger.Warn(op+" denied",
					slog.String("user", actor),
					slog.String("required", required),
					slog.String("path", r.URL.Path))
			}
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})
	}
}

func normalizePermissions(perms []string) []string {
	unique := make(map[string]struct{}, len(perms))
	normalized := make([]string, 0, len(perms))
	for _, p := range perms {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, seen := unique[p]; seen {
			continue
		}
		unique[p] = struct{}{}
		normalized = append(normalized, p)
	}
	return normalized
}
