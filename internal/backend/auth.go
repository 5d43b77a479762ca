package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/welfaredesk/welfaredesk/internal/rbac"
)

// ErrNoToken is returned when a login response carries no token.
var ErrNoToken = errors.New("backend: login response without token")

// LoginResult is the session material returned by the backend at login.
type LoginResult struct {
	Token string    `json:"token"`
	User  rbac.User `json:"user"`
}

// Login exchanges credentials for a token and the user's role/permissions.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	payload := map[string]string{"email": strings.TrimSpace(email), "password": password}
	body, err := c.do(ctx, http.MethodPost, "/auth/login", "/auth/login", nil, payload)
	if err != nil {
		return LoginResult{}, err
	}

	var result LoginResult
	var wrapped struct {
		Data *LoginResult `json:"data"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Data != nil && wrapped.Data.Token != "" {
		result = *wrapped.Data
	} else if err := json.Unmarshal(body, &result); err != nil {
		return LoginResult{}, fmt.Errorf("backend: decode login: %w", err)
	}
	if result.Token == "" {
		return LoginResult{}, ErrNoToken
	}
	if result.User.Permissions == nil {
		result.User.Permissions = []string{}
	}
	return result, nil
}
