package rbac

import "strings"

// HasPermission reports whether user may perform action on module.
// A nil user is never authorized; admins always are.
func HasPermission(user *User, module Module, action Action) bool {
	if user == nil {
		return false
	}
	if IsAdmin(user) {
		return true
	}
	want := Permission(module, action)
	for _, p := range user.Permissions {
		if p == want {
			return true
		}
	}
	return false
}

// HasModuleAccess reports whether user holds any permission on module.
func HasModuleAccess(user *User, module Module) bool {
	if user == nil {
		return false
	}
	if IsAdmin(user) {
		return true
	}
	prefix := string(module) + ":"
	for _, p := range user.Permissions {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the user carries the admin role.
func IsAdmin(user *User) bool {
	return user != nil && user.Role == RoleAdmin
}

// Permissions returns the user's permission list, never nil.
func Permissions(user *User) []string {
	if user == nil || user.Permissions == nil {
		return []string{}
	}
	return user.Permissions
}

func CanView(user *User, module Module) bool   { return HasPermission(user, module, ActionView) }
func CanCreate(user *User, module Module) bool { return HasPermission(user, module, ActionCreate) }
func CanEdit(user *User, module Module) bool   { return HasPermission(user, module, ActionEdit) }
func CanDelete(user *User, module Module) bool { return HasPermission(user, module, ActionDelete) }
func CanExport(user *User, module Module) bool { return HasPermission(user, module, ActionExport) }

// Evaluator binds the permission helpers to one user snapshot. Templates
// receive an Evaluator so they can ask {{ .Can.Edit "health" }}.
type Evaluator struct {
	user *User
}

// For returns an Evaluator over user. The user is read on every call.
func For(user *User) Evaluator {
	return Evaluator{user: user}
}

func (e Evaluator) User() *User { return e.user }
func (e Evaluator) Has(module Module, action Action) bool {
	return HasPermission(e.user, module, action)
}
func (e Evaluator) Module(module Module) bool { return HasModuleAccess(e.user, module) }
func (e Evaluator) View(module Module) bool   { return CanView(e.user, module) }
func (e Evaluator) Create(module Module) bool { return CanCreate(e.user, module) }
func (e Evaluator) Edit(module Module) bool   { return CanEdit(e.user, module) }
func (e Evaluator) Delete(module Module) bool { return CanDelete(e.user, module) }
func (e Evaluator) Export(module Module) bool { return CanExport(e.user, module) }
func (e Evaluator) Admin() bool               { return IsAdmin(e.user) }
func (e Evaluator) Permissions() []string     { return Permissions(e.user) }
