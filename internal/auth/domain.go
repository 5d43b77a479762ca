package auth

import (
	"context"
	"time"

	"github.com/welfaredesk/welfaredesk/internal/backend"
	"github.com/welfaredesk/welfaredesk/internal/rbac"
)

const (
	sessionKeyUser    = "auth.user"
	sessionKeyToken   = "auth.token"
	sessionKeyExpires = "auth.expires_at"
)

// Authenticator exchanges credentials with the backend.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (backend.LoginResult, error)
}

// Identity is what a signed-in session carries: the user snapshot taken at
// login, the backend token and the instant the session stops being valid.
type Identity struct {
	User      rbac.User
	Token     string
	ExpiresAt time.Time
}
