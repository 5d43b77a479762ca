package rbac

import (
	"context"
	"strings"
)

// RoleAdmin bypasses every permission check.
const RoleAdmin = "admin"

// Module names a functional domain used to scope permissions and API routes.
type Module string

// Modules known to the admin.
const (
	ModuleHealth        Module = "health"
	ModuleEducation     Module = "education"
	ModuleSocialJustice Module = "socialJustice"
)

// Modules returns the closed set of modules in display order.
func Modules() []Module {
	return []Module{ModuleHealth, ModuleEducation, ModuleSocialJustice}
}

// Valid reports whether m belongs to the known module set.
func (m Module) Valid() bool {
	for _, known := range Modules() {
		if m == known {
			return true
		}
	}
	return false
}

// Action is a capability that can be granted on a module.
type Action string

// Actions granted through "module:action" permission strings.
const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
	ActionExport Action = "export"
)

// Permission formats the "module:action" token for a pair.
func Permission(module Module, action Action) string {
	return string(module) + ":" + string(action)
}

// ParsePermission splits a permission token. ok is false for malformed tokens.
func ParsePermission(token string) (Module, Action, bool) {
	module, action, found := strings.Cut(token, ":")
	if !found || module == "" || action == "" {
		return "", "", false
	}
	return Module(module), Action(action), true
}

// User is the authenticated actor as reported by the backend at login.
type User struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

type userContextKey struct{}

// ContextWithUser stores the user snapshot in context.
func ContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext returns the user bound to ctx, or nil.
func UserFromContext(ctx context.Context) *User {
	user, _ := ctx.Value(userContextKey{}).(*User)
	return user
}
