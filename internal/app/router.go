package app

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	audithttp "github.com/welfaredesk/welfaredesk/internal/audit/http"
	"github.com/welfaredesk/welfaredesk/internal/auth"
	"github.com/welfaredesk/welfaredesk/internal/lookup"
	"github.com/welfaredesk/welfaredesk/internal/observability"
	"github.com/welfaredesk/welfaredesk/internal/platform/httpx"
	"github.com/welfaredesk/welfaredesk/internal/shared"
	"github.com/welfaredesk/welfaredesk/internal/view"
	"github.com/welfaredesk/welfaredesk/jobs"
	"github.com/welfaredesk/welfaredesk/web"
)

// RecordPages mounts the pages of one record type. MountRoutes registers
// everything under /{Name()}.
type RecordPages interface {
	Name() string
	MountRoutes(r chi.Router)
}

// Pinger is a dependency checked by /readyz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	Templates      *view.Engine
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	AuthService    *auth.Service
	AuthHandler    *auth.Handler
	AuditHandler   *audithttp.Handler
	LookupHandler  *lookup.Handler
	Records        []RecordPages
	JobHandler     *jobs.Handler
	Metrics        *observability.Metrics
	// Ready names the dependencies reported by /readyz.
	Ready map[string]Pinger
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		AuthService:    params.AuthService,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", readinessHandler(params.Ready, params.Logger))

	if params.AuthHandler != nil {
		params.AuthHandler.MountRoutes(r)
	}

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireLogin)
		r.Get("/", homeHandler(params.Templates, params.Logger))
		if params.AuthHandler != nil {
			params.AuthHandler.MountAccountRoutes(r)
		}
		for _, pages := range params.Records {
			pages.MountRoutes(r)
		}
		if params.LookupHandler != nil {
			r.Route("/lookups", params.LookupHandler.MountRoutes)
		}
		if params.AuditHandler != nil {
			params.AuditHandler.MountRoutes(r)
		}
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// staticCacheHandler lets browsers keep static assets for an hour.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}

func readinessHandler(deps map[string]Pinger, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		status := http.StatusOK
		report := make(map[string]string, len(deps))
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				logger.Warn("readiness check", slog.String("dependency", name), slog.Any("error", err))
				report[name] = "unavailable"
				status = http.StatusServiceUnavailable
				continue
			}
			report[name] = "ok"
		}
		httpx.JSON(w, status, report)
	}
}
