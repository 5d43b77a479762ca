// Package view renders the server-side HTML pages.
package view

import (
	"fmt"
	"html/template"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/welfaredesk/welfaredesk/internal/backend"
	"github.com/welfaredesk/welfaredesk/internal/rbac"
	"github.com/welfaredesk/welfaredesk/internal/shared"
	"github.com/welfaredesk/welfaredesk/web"
)

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
	csrf      *shared.CSRFManager
	nav       []NavLink
}

// NavLink is one entry of the sidebar.
type NavLink struct {
	Name   string
	Title  string
	Module rbac.Module
}

// Href returns the link target.
func (l NavLink) Href() string { return "/" + l.Name }

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title       string
	CSRFToken   string
	Flash       *shared.FlashMessage
	CurrentPath string
	User        *rbac.User
	Can         rbac.Evaluator
	Nav         []NavLink
	Data        any
}

// VisibleNav filters the sidebar to modules the user may open.
func (d TemplateData) VisibleNav() []NavLink {
	out := make([]NavLink, 0, len(d.Nav))
	for _, link := range d.Nav {
		if d.Can.View(link.Module) {
			out = append(out, link)
		}
	}
	return out
}

// Active reports whether path is the current section.
func (d TemplateData) Active(path string) bool {
	return d.CurrentPath == path || strings.HasPrefix(d.CurrentPath, path+"/")
}

var titleCaser = cases.Title(language.English)

// ModuleLabel turns "socialJustice" into "Social Justice".
func ModuleLabel(m rbac.Module) string {
	var b strings.Builder
	for i, r := range string(m) {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return titleCaser.String(b.String())
}

// NewEngine parses the embedded templates.
func NewEngine(csrf *shared.CSRFManager, nav []NavLink) (*Engine, error) {
	funcMap := template.FuncMap{
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02 Jan 2006 15:04")
		},
		"moduleLabel": ModuleLabel,
		"title":       titleCaser.String,
		"field": func(values url.Values, name string) string {
			return values.Get(name)
		},
		"fieldList": func(values url.Values, name string) []string {
			return values[name]
		},
		"contains": func(list []string, v string) bool {
			for _, item := range list {
				if item == v {
					return true
				}
			}
			return false
		},
		"optionLabel": func(options []backend.Option, id string) string {
			for _, o := range options {
				if o.ID == id {
					return o.Label
				}
			}
			return id
		},
		"dict": func(pairs ...any) (map[string]any, error) {
			if len(pairs)%2 != 0 {
				return nil, fmt.Errorf("dict: odd number of arguments")
			}
			out := make(map[string]any, len(pairs)/2)
			for i := 0; i < len(pairs); i += 2 {
				key, ok := pairs[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict: key %v is not a string", pairs[i])
				}
				out[key] = pairs[i+1]
			}
			return out, nil
		},
		"join": strings.Join,
		"add":  func(a, b int) int { return a + b },
		"safeURL": func(s string) template.URL {
			return template.URL(s)
		},
	}
	tpl, err := template.New("root").Funcs(funcMap).ParseFS(web.Templates, "templates/layouts/*.html", "templates/partials/*.html", "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	return &Engine{templates: tpl, csrf: csrf, nav: nav}, nil
}

// Page assembles TemplateData for r: CSRF token, pending flash, the session
// user and the sidebar.
func (e *Engine) Page(r *http.Request, title string, data any) TemplateData {
	ctx := r.Context()
	td := TemplateData{
		Title:       title,
		CurrentPath: r.URL.Path,
		Data:        data,
		Flash:       shared.PopFlash(ctx),
	}
	if e != nil {
		td.Nav = e.nav
		if e.csrf != nil {
			if token, err := e.csrf.EnsureToken(ctx, shared.SessionFromContext(ctx)); err == nil {
				td.CSRFToken = token
			}
		}
	}
	td.User = rbac.UserFromContext(ctx)
	td.Can = rbac.For(td.User)
	return td
}

// Render executes a named template with TemplateData.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	return e.RenderStatus(w, http.StatusOK, name, data)
}

// RenderStatus renders with an explicit status code.
func (e *Engine) RenderStatus(w http.ResponseWriter, status int, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	var buf strings.Builder
	if err := e.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := io.WriteString(w, buf.String())
	return err
}

// RenderTo writes a template to an arbitrary writer, e.g. as PDF source.
func (e *Engine) RenderTo(w io.Writer, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	return e.templates.ExecuteTemplate(w, name, data)
}
