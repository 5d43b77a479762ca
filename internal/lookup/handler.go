package lookup

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/welfaredesk/welfaredesk/internal/backend"
	"github.com/welfaredesk/welfaredesk/internal/platform/httpx"
	"github.com/welfaredesk/welfaredesk/internal/rbac"
)

// Handler exposes options as JSON for client-side widgets.
type Handler struct {
	service *Service
	access  map[string][]string
	guard   rbac.Middleware
	logger  *slog.Logger
}

// NewHandler constructs the handler. access maps each entity to the
// "module:action" permissions that may read it; entities missing from it are
// admin only.
func NewHandler(service *Service, access map[string][]string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, access: access, guard: rbac.Middleware{Logger: logger}, logger: logger}
}

// MountRoutes registers GET /{entity}.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.authorize).Get("/{entity}", h.handleOptions)
}

func (h *Handler) authorize(next http.Handler) http.Handler {
	guarded := make(map[string]http.Handler, len(h.access))
	for entity, perms := range h.access {
		if len(perms) > 0 {
			guarded[entity] = h.guard.RequireAny(perms...)(next)
		}
	}
	adminOnly := h.guard.RequireAdmin()(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g, ok := guarded[chi.URLParam(r, "entity")]; ok {
			g.ServeHTTP(w, r)
			return
		}
		adminOnly.ServeHTTP(w, r)
	})
}

func (h *Handler) handleOptions(w http.ResponseWriter, r *http.Request) {
	entity := chi.URLParam(r, "entity")
	opts, err := h.service.Options(r.Context(), entity)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnknownEntity), backend.IsNotFound(err):
			httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrNotFound, entity))
		default:
			h.logger.Error("lookup options", slog.String("entity", entity), slog.Any("error", err))
			httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrUpstream, entity))
		}
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": opts})
}
