package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/welfaredesk/welfaredesk/internal/backend"
	"github.com/welfaredesk/welfaredesk/internal/rbac"
	"github.com/welfaredesk/welfaredesk/internal/shared"
)

// SessionMiddleware resolves the session identity and binds the user and the
// backend token to the request context. It must run after the session
// loader. Expired sessions are cleared and the user is told so on the next
// page.
func SessionMiddleware(svc *Service, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := shared.SessionFromContext(r.Context())
			id, err := svc.Identify(sess)
			switch {
			case err == nil:
				user := id.User
				ctx := rbac.ContextWithUser(r.Context(), &user)
				ctx = backend.WithToken(ctx, id.Token)
				r = r.WithContext(ctx)
			case errors.Is(err, ErrAnonymous):
			case errors.Is(err, shared.ErrSessionExpired):
				logger.Info("session expired", slog.String("user", sess.User()))
				sess.Clear()
				sess.AddFlash(shared.FlashMessage{Kind: "info", Message: "Your session has expired. Please sign in again."})
			default:
				logger.Warn("unreadable session identity", slog.Any("error", err))
				sess.Clear()
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireLogin sends anonymous GET requests to the login page and rejects
// anything else with 401.
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rbac.UserFromContext(r.Context()) != nil {
			next.ServeHTTP(w, r)
			return
		}
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			target := "/login"
			if r.URL.Path != "/" {
				target += "?next=" + url.QueryEscape(r.URL.RequestURI())
			}
			http.Redirect(w, r, target, http.StatusSeeOther)
			return
		}
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
	})
}
