package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/welfaredesk/welfaredesk/internal/rbac"
	"github.com/welfaredesk/welfaredesk/internal/shared"
	"github.com/welfaredesk/welfaredesk/internal/view"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	templates      *view.Engine
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, sessions *shared.SessionManager, csrf *shared.CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:         logger,
		service:        service,
		templates:      templates,
		sessionManager: sessions,
		csrfManager:    csrf,
		validator:      validator.New(),
	}
}

// MountRoutes registers the public auth routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/login", h.showLogin)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
}

// MountAccountRoutes registers routes that need a signed-in user.
func (h *Handler) MountAccountRoutes(r chi.Router) {
	r.Get("/me/permissions", h.showPermissions)
}

type loginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
	Next     string
}

type loginPageData struct {
	Form   loginForm
	Errors map[string]string
}

// PermissionsPage lists what the signed-in user may do.
type PermissionsPage struct {
	Modules     []rbac.Module
	Actions     []rbac.Action
	Permissions []string
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	if rbac.UserFromContext(r.Context()) != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	data := loginPageData{Form: loginForm{Next: safeNext(r.URL.Query().Get("next"))}}
	h.renderLogin(w, r, http.StatusOK, data)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	form := loginForm{
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
		Next:     safeNext(r.PostFormValue("next")),
	}
	fieldErrors := make(map[string]string)
	if err := h.validator.Struct(form); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fieldErr := range verrs {
				fieldErrors[fieldErr.Field()] = loginMessage(fieldErr.Tag())
			}
		}
	}
	if len(fieldErrors) > 0 {
		h.renderLogin(w, r, http.StatusBadRequest, loginPageData{Form: loginForm{Email: form.Email, Next: form.Next}, Errors: fieldErrors})
		return
	}

	id, err := h.service.Authenticate(r.Context(), form.Email, form.Password)
	if err != nil {
		status := http.StatusBadRequest
		msg := "Invalid email or password"
		if !errors.Is(err, shared.ErrInvalidCredentials) {
			h.logger.Error("login", slog.Any("error", err))
			status = http.StatusServiceUnavailable
			msg = "Sign-in is unavailable right now. Please try again."
		}
		h.renderLogin(w, r, status, loginPageData{Form: loginForm{Email: form.Email, Next: form.Next}, Errors: map[string]string{"general": msg}})
		return
	}
	if sess == nil {
		h.logger.Error("session missing during login")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.sessionManager.Renew(sess)
	h.csrfManager.Rotate(sess)
	if err := h.service.Store(sess, id); err != nil {
		h.logger.Error("store identity", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	name := id.User.Name
	if name == "" {
		name = id.User.Email
	}
	sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Welcome back, " + name})
	h.logger.Info("login", slog.String("user", id.User.ID), slog.String("role", id.User.Role))

	target := form.Next
	if target == "" {
		target = "/"
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		h.sessionManager.Destroy(sess)
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *Handler) showPermissions(w http.ResponseWriter, r *http.Request) {
	user := rbac.UserFromContext(r.Context())
	page := PermissionsPage{
		Modules:     rbac.Modules(),
		Actions:     []rbac.Action{rbac.ActionView, rbac.ActionCreate, rbac.ActionEdit, rbac.ActionDelete, rbac.ActionExport},
		Permissions: rbac.Permissions(user),
	}
	if err := h.templates.Render(w, "pages/permissions.html", h.templates.Page(r, "My permissions", page)); err != nil {
		h.logger.Error("render permissions", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) renderLogin(w http.ResponseWriter, r *http.Request, status int, data loginPageData) {
	if err := h.templates.RenderStatus(w, status, "pages/login.html", h.templates.Page(r, "Sign in", data)); err != nil {
		h.logger.Error("render login", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func loginMessage(tag string) string {
	switch tag {
	case "required":
		return "This field is required"
	case "email":
		return "Enter a valid email address"
	default:
		return "Invalid value"
	}
}

// safeNext keeps only same-site relative redirect targets.
func safeNext(next string) string {
	next = strings.TrimSpace(next)
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return ""
	}
	return next
}
