package app

import (
	"log/slog"
	"net/http"

	"github.com/welfaredesk/welfaredesk/internal/rbac"
	"github.com/welfaredesk/welfaredesk/internal/records"
	"github.com/welfaredesk/welfaredesk/internal/view"
)

// HomeModule is one dashboard card.
type HomeModule struct {
	Module  rbac.Module
	Entries []records.Entry
}

// HomePage lists the modules the user may open.
type HomePage struct {
	Modules []HomeModule
}

// BuildHome filters the record catalog by the user's module access.
func BuildHome(user *rbac.User) HomePage {
	grouped := records.ByModule()
	var page HomePage
	for _, m := range rbac.Modules() {
		if !rbac.HasModuleAccess(user, m) || len(grouped[m]) == 0 {
			continue
		}
		page.Modules = append(page.Modules, HomeModule{Module: m, Entries: grouped[m]})
	}
	return page
}

func homeHandler(templates *view.Engine, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := BuildHome(rbac.UserFromContext(r.Context()))
		if err := templates.Render(w, "pages/home.html", templates.Page(r, "Dashboard", data)); err != nil {
			logger.Error("render home", slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	}
}
