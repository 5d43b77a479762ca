package resource

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/welfaredesk/welfaredesk/internal/backend"
	"github.com/welfaredesk/welfaredesk/internal/listquery"
	"github.com/welfaredesk/welfaredesk/internal/shared"
)

// Store is the backend surface a controller drives. *backend.Collection
// satisfies it.
type Store[T any] interface {
	List(ctx context.Context, params url.Values) (backend.Page[T], error)
	Create(ctx context.Context, rec T) (T, error)
	Update(ctx context.Context, id string, rec T) (T, error)
	Delete(ctx context.Context, id string) error
}

// Modal identifies the open form.
type Modal string

const (
	ModalNone   Modal = ""
	ModalCreate Modal = "create"
	ModalEdit   Modal = "edit"
)

// Phase is the controller's position in the form/delete state machine.
type Phase string

const (
	PhaseIdle           Phase = "idle"
	PhaseModalOpen      Phase = "modal_open"
	PhaseSubmitting     Phase = "submitting"
	PhaseConfirmPending Phase = "confirm_pending"
	PhaseDeleting       Phase = "deleting"
)

// State is a read-only snapshot of a controller.
type State[T any] struct {
	Query         listquery.Query
	Records       []T
	Pagination    shared.Pagination
	Loading       bool
	Phase         Phase
	Modal         Modal
	Selected      *T
	Form          T
	PendingDelete string
}

// Controller runs the list, form and delete workflows of one record type.
type Controller[T Record[T]] struct {
	schema   Schema[T]
	store    Store[T]
	notifier Notifier
	validate *validator.Validate
	logger   *slog.Logger

	mu            sync.Mutex
	query         listquery.Query
	records       []T
	pagination    shared.Pagination
	loading       bool
	generation    uint64
	phase         Phase
	modal         Modal
	selected      *T
	form          T
	pendingDelete string
}

// Option customises a Controller.
type Option[T Record[T]] func(*Controller[T])

// WithValidator overrides the validator used on submit.
func WithValidator[T Record[T]](v *validator.Validate) Option[T] {
	return func(c *Controller[T]) { c.validate = v }
}

// WithLogger sets the logger used for backend failures.
func WithLogger[T Record[T]](logger *slog.Logger) Option[T] {
	return func(c *Controller[T]) { c.logger = logger }
}

// WithQuery seeds the list query.
func WithQuery[T Record[T]](q listquery.Query) Option[T] {
	return func(c *Controller[T]) { c.query = q.Normalize() }
}

// NewController builds a controller in the Idle phase.
func NewController[T Record[T]](schema Schema[T], store Store[T], notifier Notifier, opts ...Option[T]) *Controller[T] {
	if notifier == nil {
		notifier = Discard
	}
	c := &Controller[T]{
		schema:   schema,
		store:    store,
		notifier: notifier,
		logger:   slog.Default(),
		query:    listquery.New(shared.DefaultPageSize),
		records:  []T{},
		phase:    PhaseIdle,
		form:     schema.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.validate == nil {
		c.validate = NewValidator()
	}
	c.pagination = shared.NewPagination(c.query.Page, c.query.Limit, 0)
	return c
}

// Schema returns the record schema.
func (c *Controller[T]) Schema() Schema[T] { return c.schema }

// Snapshot copies the current state.
func (c *Controller[T]) Snapshot() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	records := make([]T, len(c.records))
	copy(records, c.records)
	st := State[T]{
		Query:         c.query.WithPage(c.query.Page),
		Records:       records,
		Pagination:    c.pagination,
		Loading:       c.loading,
		Phase:         c.phase,
		Modal:         c.modal,
		Form:          c.form,
		PendingDelete: c.pendingDelete,
	}
	if c.selected != nil {
		sel := *c.selected
		st.Selected = &sel
	}
	return st
}

// Fetch reads the current page. Failures empty the list and emit an error
// notice; they are not returned. Only the most recently issued fetch may
// update the list.
func (c *Controller[T]) Fetch(ctx context.Context) {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.loading = true
	params := c.query.Params()
	c.mu.Unlock()

	page, err := c.store.List(ctx, params)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return
	}
	c.loading = false
	if err != nil {
		c.records = []T{}
		c.logger.Error("fetch records", slog.String("resource", c.schema.Name), slog.Any("error", err))
		c.notifier.Notify(Notice{Kind: NoticeError, Message: failureMessage(err, "Failed to load "+c.schema.Title)})
		return
	}
	c.records = page.Records
	if c.records == nil {
		c.records = []T{}
	}
	c.pagination = page.Pagination
}

// SetPage moves to page and refetches.
func (c *Controller[T]) SetPage(ctx context.Context, page int) {
	c.mu.Lock()
	c.query = c.query.WithPage(page).Normalize()
	c.mu.Unlock()
	c.Fetch(ctx)
}

// SetLimit changes the page size and refetches.
func (c *Controller[T]) SetLimit(ctx context.Context, limit int) {
	c.mu.Lock()
	c.query.Limit = limit
	c.query = c.query.Normalize()
	c.mu.Unlock()
	c.Fetch(ctx)
}

// SetSearch changes the search term, resets to page 1 and refetches once.
func (c *Controller[T]) SetSearch(ctx context.Context, term string) {
	c.mu.Lock()
	c.query.Search = term
	c.query.Page = 1
	c.mu.Unlock()
	c.Fetch(ctx)
}

// SetFilter changes one filter, resets to page 1 and refetches once.
func (c *Controller[T]) SetFilter(ctx context.Context, key, value string) {
	c.mu.Lock()
	q := c.query.WithPage(1)
	if q.Filters == nil {
		q.Filters = make(map[string]string)
	}
	q.Filters[key] = value
	c.query = q
	c.mu.Unlock()
	c.Fetch(ctx)
}

// ClearFilters drops the search term and every filter, then refetches.
func (c *Controller[T]) ClearFilters(ctx context.Context) {
	c.mu.Lock()
	c.query = listquery.Query{Page: 1, Limit: c.query.Limit}.Normalize()
	c.mu.Unlock()
	c.Fetch(ctx)
}

// Apply replaces the whole query and refetches once. A changed search or
// filter set always lands on page 1.
func (c *Controller[T]) Apply(ctx context.Context, q listquery.Query) {
	q = q.Normalize()
	c.mu.Lock()
	if q.Search != c.query.Search || !sameFilters(q, c.query) {
		q.Page = 1
	}
	c.query = q
	c.mu.Unlock()
	c.Fetch(ctx)
}

func sameFilters(a, b listquery.Query) bool {
	left, right := a.ActiveFilters(), b.ActiveFilters()
	if len(left) != len(right) {
		return false
	}
	for k, v := range left {
		if right[k] != v {
			return false
		}
	}
	return true
}

// BeginCreate opens an empty create form.
func (c *Controller[T]) BeginCreate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = nil
	c.form = c.schema.New()
	c.modal = ModalCreate
	c.phase = PhaseModalOpen
}

// BeginEdit opens the edit form for rec.
func (c *Controller[T]) BeginEdit(rec T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sel := rec
	c.selected = &sel
	c.form = rec.EditForm()
	c.modal = ModalEdit
	c.phase = PhaseModalOpen
}

// SetForm replaces the form contents with user input.
func (c *Controller[T]) SetForm(form T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseModalOpen {
		return ErrNoModal
	}
	c.form = form
	return nil
}

// Cancel closes the open form without saving.
func (c *Controller[T]) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseModalOpen {
		return
	}
	c.closeModal()
}

func (c *Controller[T]) closeModal() {
	c.modal = ModalNone
	c.selected = nil
	c.form = c.schema.New()
	c.phase = PhaseIdle
}

// Submit saves the open form. It creates or updates depending on which form
// is open; on success the list is refetched, on failure the form stays open
// and unchanged. The saved record is returned on success.
func (c *Controller[T]) Submit(ctx context.Context) (T, error) {
	var zero T
	c.mu.Lock()
	switch c.phase {
	case PhaseModalOpen:
	case PhaseSubmitting, PhaseDeleting:
		c.mu.Unlock()
		return zero, ErrBusy
	default:
		c.mu.Unlock()
		return zero, ErrNoModal
	}
	form := c.form
	if err := Validate(c.validate, form); err != nil {
		c.mu.Unlock()
		c.notifier.Notify(Notice{Kind: NoticeError, Message: "Please correct the highlighted fields"})
		return zero, err
	}
	var selectedID string
	editing := c.selected != nil
	if editing {
		selectedID = (*c.selected).RecordID()
	}
	c.phase = PhaseSubmitting
	c.mu.Unlock()

	var (
		saved T
		err   error
		verb  string
	)
	if editing {
		verb = "update"
		saved, err = c.store.Update(ctx, selectedID, form)
	} else {
		verb = "create"
		saved, err = c.store.Create(ctx, form)
	}

	c.mu.Lock()
	if err != nil {
		c.phase = PhaseModalOpen
		c.mu.Unlock()
		c.logger.Error("submit record", slog.String("resource", c.schema.Name), slog.String("op", verb), slog.Any("error", err))
		c.notifier.Notify(Notice{Kind: NoticeError, Message: failureMessage(err, "Failed to "+verb+" "+c.schema.Singular)})
		return zero, err
	}
	c.closeModal()
	c.mu.Unlock()

	c.notifier.Notify(Notice{Kind: NoticeSuccess, Message: capitalize(c.schema.Singular) + " " + verb + "d successfully"})
	c.Fetch(ctx)
	return saved, nil
}

// RequestDelete asks for confirmation before deleting id.
func (c *Controller[T]) RequestDelete(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == PhaseSubmitting || c.phase == PhaseDeleting {
		return ErrBusy
	}
	c.modal = ModalNone
	c.selected = nil
	c.pendingDelete = id
	c.phase = PhaseConfirmPending
	return nil
}

// CancelDelete abandons a pending delete.
func (c *Controller[T]) CancelDelete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseConfirmPending {
		return
	}
	c.pendingDelete = ""
	c.phase = PhaseIdle
}

// ConfirmDelete deletes the record named by RequestDelete. It is the only
// path to the backend delete call.
func (c *Controller[T]) ConfirmDelete(ctx context.Context) error {
	c.mu.Lock()
	if c.phase != PhaseConfirmPending || c.pendingDelete == "" {
		c.mu.Unlock()
		return ErrNotConfirmed
	}
	id := c.pendingDelete
	c.phase = PhaseDeleting
	c.mu.Unlock()

	err := c.store.Delete(ctx, id)

	c.mu.Lock()
	c.pendingDelete = ""
	c.phase = PhaseIdle
	c.mu.Unlock()
	if err != nil {
		c.logger.Error("delete record", slog.String("resource", c.schema.Name), slog.String("id", id), slog.Any("error", err))
		c.notifier.Notify(Notice{Kind: NoticeError, Message: failureMessage(err, "Failed to delete "+c.schema.Singular)})
		return err
	}
	c.notifier.Notify(Notice{Kind: NoticeSuccess, Message: capitalize(c.schema.Singular) + " deleted successfully"})
	c.Fetch(ctx)
	return nil
}

func failureMessage(err error, fallback string) string {
	if msg, ok := backend.Message(err); ok {
		return msg
	}
	return fallback
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
