// Package pages serves the list, form, view, delete and export pages of every
// record type through one generic handler.
package pages

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/welfaredesk/welfaredesk/internal/audit"
	"github.com/welfaredesk/welfaredesk/internal/backend"
	"github.com/welfaredesk/welfaredesk/internal/listquery"
	"github.com/welfaredesk/welfaredesk/internal/rbac"
	"github.com/welfaredesk/welfaredesk/internal/records"
	"github.com/welfaredesk/welfaredesk/internal/resource"
	"github.com/welfaredesk/welfaredesk/internal/shared"
	"github.com/welfaredesk/welfaredesk/internal/view"
)

// ReturnQueryField carries the encoded list query through forms so the list
// is shown as the user left it.
const ReturnQueryField = "q"

// ConfirmTokenField carries the one-time delete confirmation token.
const ConfirmTokenField = "confirm_token"

// Store is the backend surface of one record type.
type Store[T any] interface {
	resource.Store[T]
	Get(ctx context.Context, id string) (T, error)
}

// Idempotency rejects repeated submissions of the same form.
type Idempotency interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// AuditRecorder stores an entry per successful mutation.
type AuditRecorder interface {
	Record(ctx context.Context, e audit.Entry) error
}

// Lookups resolves dropdown options.
type Lookups interface {
	OptionsFor(ctx context.Context, entities []string) map[string][]backend.Option
	Invalidate(ctx context.Context, entity string) error
}

// PDFRenderer converts HTML to PDF.
type PDFRenderer interface {
	RenderHTML(ctx context.Context, html []byte) ([]byte, error)
}

// Deps are shared by every record handler.
type Deps struct {
	Logger      *slog.Logger
	Templates   *view.Engine
	CSRF        *shared.CSRFManager
	Idempotency Idempotency
	Audit       AuditRecorder
	Lookups     Lookups
	PDF         PDFRenderer
	PageSize    int
	ExportMax   int
}

// Handler serves one record type.
type Handler[T resource.Record[T]] struct {
	deps     Deps
	schema   resource.Schema[T]
	store    Store[T]
	binder   *records.Binder[T]
	validate *validator.Validate
	guard    rbac.Middleware
	view     SchemaView
}

// NewHandler builds the handler for schema backed by store.
func NewHandler[T resource.Record[T]](schema resource.Schema[T], store Store[T], deps Deps) *Handler[T] {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.PageSize <= 0 {
		deps.PageSize = shared.DefaultPageSize
	}
	if deps.ExportMax <= 0 {
		deps.ExportMax = 1000
	}
	return &Handler[T]{
		deps:     deps,
		schema:   schema,
		store:    store,
		binder:   records.NewBinder[T](),
		validate: resource.NewValidator(),
		guard:    rbac.Middleware{Logger: deps.Logger},
		view: SchemaView{
			Name:       schema.Name,
			Title:      schema.Title,
			Singular:   schema.Singular,
			Module:     schema.Module,
			Filters:    schema.Filters,
			Fields:     schema.Fields,
			ListFields: schema.ListFields(),
		},
	}
}

// Name is the URL segment the handler is mounted under.
func (h *Handler[T]) Name() string { return h.schema.Name }

// MountRoutes registers the record routes under /{name}.
func (h *Handler[T]) MountRoutes(r chi.Router) {
	module := h.schema.Module
	r.Route("/"+h.schema.Name, func(r chi.Router) {
		r.With(h.guard.Require(module, rbac.ActionView)).Get("/", h.list)
		r.With(h.guard.Require(module, rbac.ActionCreate)).Get("/new", h.newForm)
		r.With(h.guard.Require(module, rbac.ActionCreate)).Post("/", h.create)
		r.Group(func(r chi.Router) {
			r.Use(h.guard.Require(module, rbac.ActionExport))
			r.Get("/export.csv", h.exportCSV)
			r.Get("/export.pdf", h.exportPDF)
		})
		r.With(h.guard.Require(module, rbac.ActionView)).Get("/{id}", h.show)
		r.With(h.guard.Require(module, rbac.ActionEdit)).Get("/{id}/edit", h.editForm)
		r.With(h.guard.Require(module, rbac.ActionEdit)).Post("/{id}", h.update)
		r.With(h.guard.Require(module, rbac.ActionDelete)).Get("/{id}/delete", h.confirmDelete)
		r.With(h.guard.Require(module, rbac.ActionDelete)).Post("/{id}/delete", h.destroy)
	})
}

func (h *Handler[T]) controller(q listquery.Query, notices resource.Notifier) *resource.Controller[T] {
	return resource.NewController(h.schema, h.store, notices,
		resource.WithQuery[T](q),
		resource.WithLogger[T](h.deps.Logger),
		resource.WithValidator[T](h.validate),
	)
}

func (h *Handler[T]) listQuery(r *http.Request) listquery.Query {
	return listquery.FromRequest(r, h.schema.FilterKeys(), h.deps.PageSize)
}

// returnQuery reads the list query carried by a submitted form.
func (h *Handler[T]) returnQuery(r *http.Request) listquery.Query {
	values, err := url.ParseQuery(r.PostFormValue(ReturnQueryField))
	if err != nil {
		values = url.Values{}
	}
	return listquery.FromValues(values, h.schema.FilterKeys(), h.deps.PageSize)
}

func (h *Handler[T]) options(ctx context.Context) map[string][]backend.Option {
	lookups := h.schema.Lookups()
	if h.deps.Lookups == nil || len(lookups) == 0 {
		return map[string][]backend.Option{}
	}
	return h.deps.Lookups.OptionsFor(ctx, lookups)
}

func (h *Handler[T]) list(w http.ResponseWriter, r *http.Request) {
	notices := &resource.Recorder{}
	ctrl := h.controller(h.listQuery(r), notices)
	ctrl.Fetch(r.Context())
	h.renderList(w, r, http.StatusOK, ctrl, notices)
}

func (h *Handler[T]) renderList(w http.ResponseWriter, r *http.Request, status int, ctrl *resource.Controller[T], notices *resource.Recorder) {
	st := ctrl.Snapshot()
	page := ListPage{
		Schema:     h.view,
		Rows:       h.rows(st.Records),
		Pagination: st.Pagination,
		Query:      st.Query,
		Options:    h.options(r.Context()),
		Notices:    notices.Notices(),
	}
	h.render(w, r, status, "pages/resource_list.html", h.schema.Title, page)
}

func (h *Handler[T]) newForm(w http.ResponseWriter, r *http.Request) {
	ctrl := h.controller(h.listQuery(r), nil)
	ctrl.BeginCreate()
	h.renderForm(w, r, http.StatusOK, formState[T]{
		mode:   resource.ModalCreate,
		form:   ctrl.Snapshot().Form,
		key:    uuid.NewString(),
		retQ:   h.listQuery(r).Encode(),
		errors: map[string]string{},
	})
}

func (h *Handler[T]) editForm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, ok := h.load(w, r, id)
	if !ok {
		return
	}
	ctrl := h.controller(h.listQuery(r), nil)
	ctrl.BeginEdit(rec)
	h.renderForm(w, r, http.StatusOK, formState[T]{
		mode:   resource.ModalEdit,
		id:     id,
		form:   ctrl.Snapshot().Form,
		key:    uuid.NewString(),
		retQ:   h.listQuery(r).Encode(),
		errors: map[string]string{},
	})
}

func (h *Handler[T]) create(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, "")
}

func (h *Handler[T]) update(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, chi.URLParam(r, "id"))
}

// submit drives the form workflow for a create (id empty) or an update. On
// success the browser is redirected to the list, which shows the outcome.
func (h *Handler[T]) submit(w http.ResponseWriter, r *http.Request, id string) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	ctx := r.Context()
	q := h.returnQuery(r)
	key := r.PostFormValue(shared.IdempotencyFormField)

	form, err := h.binder.Decode(r.PostForm)
	if err != nil {
		h.deps.Logger.Warn("decode form", slog.String("resource", h.schema.Name), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	notices := &resource.Recorder{}
	ctrl := h.controller(q, notices)
	mode := resource.ModalCreate
	action := rbac.ActionCreate
	if id != "" {
		existing, ok := h.load(w, r, id)
		if !ok {
			return
		}
		ctrl.BeginEdit(existing)
		mode = resource.ModalEdit
		action = rbac.ActionEdit
	} else {
		ctrl.BeginCreate()
	}
	if err := ctrl.SetForm(form); err != nil {
		h.serverError(w, "set form", err)
		return
	}

	if !h.claim(w, r, key, q) {
		return
	}

	saved, err := ctrl.Submit(ctx)
	if err != nil {
		h.release(ctx, key)
		status := http.StatusBadGateway
		fieldErrors := map[string]string{}
		if verr, ok := resource.AsValidation(err); ok {
			status = http.StatusUnprocessableEntity
			fieldErrors = verr.Fields
		}
		h.renderForm(w, r, status, formState[T]{
			mode:    mode,
			id:      id,
			form:    form,
			key:     key,
			retQ:    q.Encode(),
			errors:  fieldErrors,
			notices: notices.Notices(),
		})
		return
	}

	savedID := saved.RecordID()
	if savedID == "" {
		savedID = id
	}
	h.afterMutation(ctx, action, savedID)
	h.redirectToList(w, r, q, notices)
}

// redirectToList carries the success notice over in the session and sends the
// browser back to the list, so reloading the result page does not post again.
func (h *Handler[T]) redirectToList(w http.ResponseWriter, r *http.Request, q listquery.Query, notices *resource.Recorder) {
	for _, n := range notices.Notices() {
		if n.Kind == resource.NoticeSuccess {
			shared.AddFlash(r.Context(), string(n.Kind), n.Message)
			break
		}
	}
	http.Redirect(w, r, h.view.Base()+"?"+q.Encode(), http.StatusSeeOther)
}

// claim reserves the idempotency key. A replayed key sends the user back to
// the list instead of saving twice.
func (h *Handler[T]) claim(w http.ResponseWriter, r *http.Request, key string, q listquery.Query) bool {
	if h.deps.Idempotency == nil || key == "" {
		return true
	}
	err := h.deps.Idempotency.CheckAndInsert(r.Context(), key, h.schema.Name)
	switch {
	case err == nil:
		return true
	case errors.Is(err, shared.ErrIdempotencyConflict):
		shared.AddFlash(r.Context(), "info", "This form was already submitted.")
		http.Redirect(w, r, h.view.Base()+"?"+q.Encode(), http.StatusSeeOther)
		return false
	default:
		h.deps.Logger.Warn("idempotency check", slog.String("resource", h.schema.Name), slog.Any("error", err))
		return true
	}
}

func (h *Handler[T]) release(ctx context.Context, key string) {
	if h.deps.Idempotency == nil || key == "" {
		return
	}
	if err := h.deps.Idempotency.Delete(ctx, key); err != nil {
		h.deps.Logger.Warn("release idempotency key", slog.Any("error", err))
	}
}

func (h *Handler[T]) show(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, ok := h.load(w, r, id)
	if !ok {
		return
	}
	page := ViewPage{
		Schema:      h.view,
		Row:         h.row(rec),
		Options:     h.options(r.Context()),
		ReturnQuery: h.listQuery(r).Encode(),
	}
	h.render(w, r, http.StatusOK, "pages/resource_view.html", h.schema.Singular, page)
}

func (h *Handler[T]) confirmDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, ok := h.load(w, r, id)
	if !ok {
		return
	}
	notices := &resource.Recorder{}
	ctrl := h.controller(h.listQuery(r), notices)
	if err := ctrl.RequestDelete(id); err != nil {
		h.serverError(w, "request delete", err)
		return
	}
	token, err := h.deps.CSRF.IssueOnce(shared.SessionFromContext(r.Context()), h.deletePurpose(id))
	if err != nil {
		h.serverError(w, "issue confirm token", err)
		return
	}
	page := ConfirmPage{
		Schema:       h.view,
		Row:          h.row(rec),
		Options:      h.options(r.Context()),
		ConfirmToken: token,
		ReturnQuery:  h.listQuery(r).Encode(),
	}
	h.render(w, r, http.StatusOK, "pages/resource_confirm.html", "Delete "+h.schema.Singular, page)
}

func (h *Handler[T]) destroy(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	q := h.returnQuery(r)
	back := h.view.Base() + "?" + q.Encode()

	notices := &resource.Recorder{}
	ctrl := h.controller(q, notices)
	if err := ctrl.RequestDelete(id); err != nil {
		h.serverError(w, "request delete", err)
		return
	}
	sess := shared.SessionFromContext(ctx)
	if r.PostFormValue("cancel") != "" {
		ctrl.CancelDelete()
		_ = h.deps.CSRF.ConsumeOnce(sess, h.deletePurpose(id), r.PostFormValue(ConfirmTokenField))
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}
	if err := h.deps.CSRF.ConsumeOnce(sess, h.deletePurpose(id), r.PostFormValue(ConfirmTokenField)); err != nil {
		ctrl.CancelDelete()
		h.deps.Logger.Warn("delete without confirmation", slog.String("resource", h.schema.Name), slog.String("id", id))
		shared.AddFlash(ctx, "error", "Deletion was not confirmed. Please try again.")
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}

	if err := ctrl.ConfirmDelete(ctx); err != nil {
		ctrl.Fetch(ctx)
		h.renderList(w, r, http.StatusBadGateway, ctrl, notices)
		return
	}
	h.afterMutation(ctx, rbac.ActionDelete, id)
	h.redirectToList(w, r, q, notices)
}

func (h *Handler[T]) deletePurpose(id string) string {
	return "delete:" + h.schema.Name + ":" + id
}

// afterMutation records the audit entry and drops cached dropdowns built from
// this record type. Neither failure undoes the mutation.
func (h *Handler[T]) afterMutation(ctx context.Context, action rbac.Action, id string) {
	if h.deps.Audit != nil {
		entry := audit.Entry{
			Module:   h.schema.Module,
			Action:   action,
			Entity:   h.schema.Name,
			EntityID: id,
		}
		if user := rbac.UserFromContext(ctx); user != nil {
			entry.ActorID = user.ID
			entry.ActorEmail = user.Email
		}
		if err := h.deps.Audit.Record(ctx, entry); err != nil {
			h.deps.Logger.Error("record audit entry", slog.String("resource", h.schema.Name), slog.Any("error", err))
		}
	}
	if h.deps.Lookups != nil {
		if err := h.deps.Lookups.Invalidate(ctx, h.schema.Name); err != nil {
			h.deps.Logger.Warn("invalidate lookup", slog.String("entity", h.schema.Name), slog.Any("error", err))
		}
	}
}

// load fetches one record, answering 404 or 502 itself when it fails.
func (h *Handler[T]) load(w http.ResponseWriter, r *http.Request, id string) (T, bool) {
	rec, err := h.store.Get(r.Context(), id)
	if err != nil {
		var zero T
		if backend.IsNotFound(err) {
			http.Error(w, h.schema.Singular+" not found", http.StatusNotFound)
			return zero, false
		}
		h.deps.Logger.Error("load record", slog.String("resource", h.schema.Name), slog.String("id", id), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return zero, false
	}
	return rec, true
}

type formState[T any] struct {
	mode    resource.Modal
	id      string
	form    T
	key     string
	retQ    string
	errors  map[string]string
	notices []resource.Notice
}

func (h *Handler[T]) renderForm(w http.ResponseWriter, r *http.Request, status int, st formState[T]) {
	values, err := h.binder.Values(st.form)
	if err != nil {
		h.serverError(w, "encode form", err)
		return
	}
	page := FormPage{
		Schema:         h.view,
		Mode:           st.mode,
		RecordID:       st.id,
		Values:         values,
		Errors:         st.errors,
		Options:        h.options(r.Context()),
		IdempotencyKey: st.key,
		ReturnQuery:    st.retQ,
		Notices:        st.notices,
	}
	title := "New " + h.schema.Singular
	if st.mode == resource.ModalEdit {
		title = "Edit " + h.schema.Singular
	}
	h.render(w, r, status, "pages/resource_form.html", title, page)
}

func (h *Handler[T]) rows(recs []T) []Row {
	out := make([]Row, 0, len(recs))
	for _, rec := range recs {
		out = append(out, h.row(rec))
	}
	return out
}

func (h *Handler[T]) row(rec T) Row {
	values, err := h.binder.Values(rec)
	if err != nil {
		h.deps.Logger.Warn("flatten record", slog.String("resource", h.schema.Name), slog.Any("error", err))
		values = url.Values{}
	}
	return Row{ID: rec.RecordID(), Values: values}
}

func (h *Handler[T]) render(w http.ResponseWriter, r *http.Request, status int, name, title string, data any) {
	if err := h.deps.Templates.RenderStatus(w, status, name, h.deps.Templates.Page(r, title, data)); err != nil {
		h.serverError(w, "render "+name, err)
	}
}

func (h *Handler[T]) serverError(w http.ResponseWriter, op string, err error) {
	h.deps.Logger.Error(op, slog.String("resource", h.schema.Name), slog.Any("error", err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
