// Package auth signs users in against the backend and keeps the resulting
// identity in the Redis session.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/welfaredesk/welfaredesk/internal/backend"
	"github.com/welfaredesk/welfaredesk/internal/shared"
)

// ErrAnonymous is returned by Identify when the session holds no login.
var ErrAnonymous = errors.New("auth: anonymous session")

// Service wraps authentication business rules.
type Service struct {
	authn Authenticator
	ttl   time.Duration
	now   func() time.Time
}

// NewService constructs a new Service. ttl caps sessions whose token carries
// no expiry.
func NewService(authn Authenticator, ttl time.Duration) *Service {
	return &Service{authn: authn, ttl: ttl, now: time.Now}
}

// Authenticate validates credentials with the backend.
func (s *Service) Authenticate(ctx context.Context, email, password string) (Identity, error) {
	res, err := s.authn.Login(ctx, email, password)
	if err != nil {
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden || apiErr.Status == http.StatusBadRequest) {
			return Identity{}, shared.ErrInvalidCredentials
		}
		return Identity{}, fmt.Errorf("auth: login: %w", err)
	}
	return Identity{
		User:      res.User,
		Token:     res.Token,
		ExpiresAt: s.expiry(res.Token),
	}, nil
}

// expiry is the token's exp claim, capped by the session TTL.
func (s *Service) expiry(token string) time.Time {
	limit := s.now().Add(s.ttl)
	exp, ok := TokenExpiry(token)
	if !ok || exp.After(limit) {
		return limit
	}
	return exp
}

// TokenExpiry reads the exp claim without verifying the signature; the
// backend verifies its own tokens.
func TokenExpiry(token string) (time.Time, bool) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Store writes id into sess.
func (s *Service) Store(sess *shared.Session, id Identity) error {
	if sess == nil {
		return errors.New("auth: session missing")
	}
	payload, err := json.Marshal(id.User)
	if err != nil {
		return fmt.Errorf("auth: encode user: %w", err)
	}
	sess.SetUser(id.User.ID)
	sess.Set(sessionKeyUser, string(payload))
	sess.Set(sessionKeyToken, id.Token)
	sess.Set(sessionKeyExpires, id.ExpiresAt.UTC().Format(time.RFC3339))
	return nil
}

// Identify reads the identity back from sess. Expired sessions return
// shared.ErrSessionExpired.
func (s *Service) Identify(sess *shared.Session) (Identity, error) {
	if sess == nil || strings.TrimSpace(sess.Get(sessionKeyUser)) == "" {
		return Identity{}, ErrAnonymous
	}
	var id Identity
	if err := json.Unmarshal([]byte(sess.Get(sessionKeyUser)), &id.User); err != nil {
		return Identity{}, fmt.Errorf("auth: decode user: %w", err)
	}
	id.Token = sess.Get(sessionKeyToken)
	expires, err := time.Parse(time.RFC3339, sess.Get(sessionKeyExpires))
	if err != nil {
		return Identity{}, shared.ErrSessionExpired
	}
	id.ExpiresAt = expires
	if !s.now().Before(expires) {
		return Identity{}, shared.ErrSessionExpired
	}
	return id, nil
}
