package pages_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/welfaredesk/welfaredesk/internal/audit"
	"github.com/welfaredesk/welfaredesk/internal/backend"
	"github.com/welfaredesk/welfaredesk/internal/pages"
	"github.com/welfaredesk/welfaredesk/internal/rbac"
	"github.com/welfaredesk/welfaredesk/internal/records"
	"github.com/welfaredesk/welfaredesk/internal/shared"
	"github.com/welfaredesk/welfaredesk/internal/view"
	"github.com/welfaredesk/welfaredesk/report"
)

type centerStore struct {
	mu        sync.Mutex
	items     map[string]records.StudyCenter
	listed    []url.Values
	created   []records.StudyCenter
	updated   []string
	deleted   []string
	total     int
	listErr   error
	createErr error
}

func newCenterStore() *centerStore {
	return &centerStore{items: map[string]records.StudyCenter{
		"sc1": {ID: "sc1", CenterName: "Ambedkar Nagar", CenterCode: "SC-01", Address: "Ward 4", TeacherID: "t1", Status: "Active", StudentIDs: []string{}},
	}}
}

func (s *centerStore) List(_ context.Context, params url.Values) (backend.Page[records.StudyCenter], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listed = append(s.listed, params)
	if s.listErr != nil {
		return backend.Page[records.StudyCenter]{}, s.listErr
	}
	out := make([]records.StudyCenter, 0, len(s.items))
	for _, rec := range s.items {
		out = append(out, rec)
	}
	total := s.total
	if total == 0 {
		total = len(out)
	}
	return backend.Page[records.StudyCenter]{Records: out, Pagination: shared.NewPagination(1, 10, total)}, nil
}

func (s *centerStore) Get(_ context.Context, id string) (records.StudyCenter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.items[id]
	if !ok {
		return records.StudyCenter{}, &backend.APIError{Status: http.StatusNotFound, Message: "Not Found"}
	}
	return rec, nil
}

func (s *centerStore) Create(_ context.Context, rec records.StudyCenter) (records.StudyCenter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return records.StudyCenter{}, s.createErr
	}
	rec.ID = "sc-new"
	s.created = append(s.created, rec)
	s.items[rec.ID] = rec
	return rec, nil
}

func (s *centerStore) Update(_ context.Context, id string, rec records.StudyCenter) (records.StudyCenter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.ID = id
	s.updated = append(s.updated, id)
	s.items[id] = rec
	return rec, nil
}

func (s *centerStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, id)
	delete(s.items, id)
	return nil
}

type memoryKeys struct {
	claimed  map[string]bool
	released []string
}

func (m *memoryKeys) CheckAndInsert(_ context.Context, key, _ string) error {
	if m.claimed[key] {
		return shared.ErrIdempotencyConflict
	}
	m.claimed[key] = true
	return nil
}

func (m *memoryKeys) Delete(_ context.Context, key string) error {
	delete(m.claimed, key)
	m.released = append(m.released, key)
	return nil
}

type auditLog struct {
	entries []audit.Entry
}

func (a *auditLog) Record(_ context.Context, e audit.Entry) error {
	a.entries = append(a.entries, e)
	return nil
}

type staticLookups struct {
	invalidated []string
}

func (l *staticLookups) OptionsFor(_ context.Context, entities []string) map[string][]backend.Option {
	out := map[string][]backend.Option{}
	for _, e := range entities {
		if e == "teachers" {
			out[e] = []backend.Option{{ID: "t1", Label: "Meena Kumari"}}
		}
	}
	return out
}

func (l *staticLookups) Invalidate(_ context.Context, entity string) error {
	l.invalidated = append(l.invalidated, entity)
	return nil
}

type fakePDF struct {
	html []byte
	err  error
}

func (f *fakePDF) RenderHTML(_ context.Context, html []byte) ([]byte, error) {
	f.html = html
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.7"), nil
}

type harness struct {
	router  http.Handler
	store   *centerStore
	keys    *memoryKeys
	audit   *auditLog
	lookups *staticLookups
	pdf     *fakePDF
	user    *rbac.User
	sess    *shared.Session
}

func newHarness(t *testing.T, perms ...string) *harness {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessions := shared.NewSessionManager(client, "test_session", "secret", time.Hour, false)
	csrf := shared.NewCSRFManager("csrfsecret")
	templates, err := view.NewEngine(csrf, nil)
	require.NoError(t, err)

	sess, err := sessions.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	h := &harness{
		store:   newCenterStore(),
		keys:    &memoryKeys{claimed: map[string]bool{}},
		audit:   &auditLog{},
		lookups: &staticLookups{},
		pdf:     &fakePDF{},
		user:    &rbac.User{ID: "u1", Email: "clerk@example.org", Permissions: perms},
		sess:    sess,
	}
	handler := pages.NewHandler(records.StudyCenterSchema, h.store, pages.Deps{
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		Templates:   templates,
		CSRF:        csrf,
		Idempotency: h.keys,
		Audit:       h.audit,
		Lookups:     h.lookups,
		PDF:         h.pdf,
		PageSize:    10,
		ExportMax:   50,
	})
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := shared.ContextWithSession(req.Context(), h.sess)
			ctx = rbac.ContextWithUser(ctx, h.user)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	handler.MountRoutes(r)
	h.router = r
	return h
}

func (h *harness) get(path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func (h *harness) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

var allPerms = []string{"education:view", "education:create", "education:edit", "education:delete", "education:export"}

func validCenter(key string) url.Values {
	return url.Values{
		"centerName":                {"Phule Study Center"},
		"centerCode":                {"SC-02"},
		"address":                   {"Ward 9"},
		"teacherId":                 {"t1"},
		"status":                    {"Active"},
		shared.IdempotencyFormField: {key},
		pages.ReturnQueryField:      {"page=1&limit=10&search=phule&status=Active"},
	}
}

func TestListRendersRowsWithLookupLabels(t *testing.T) {
	h := newHarness(t, allPerms...)
	rec := h.get("/study-centers?search=amb&status=Active&page=1")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Ambedkar Nagar")
	assert.Contains(t, body, "Meena Kumari")
	assert.Contains(t, body, "Export CSV")

	require.Len(t, h.store.listed, 1)
	params := h.store.listed[0]
	assert.Equal(t, "amb", params.Get("search"))
	assert.Equal(t, "Active", params.Get("status"))
	assert.Equal(t, "10", params.Get("limit"))
}

func TestListFailureShowsNotice(t *testing.T) {
	h := newHarness(t, allPerms...)
	h.store.listErr = &backend.APIError{Status: http.StatusInternalServerError, Message: "database offline"}

	rec := h.get("/study-centers")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "database offline")
	assert.Contains(t, rec.Body.String(), "No Study Centers found.")
}

func TestRoutesRequirePermission(t *testing.T) {
	h := newHarness(t, "education:view")

	assert.Equal(t, http.StatusOK, h.get("/study-centers").Code)
	assert.Equal(t, http.StatusForbidden, h.get("/study-centers/new").Code)
	assert.Equal(t, http.StatusForbidden, h.get("/study-centers/export.csv").Code)
	assert.Equal(t, http.StatusForbidden, h.post("/study-centers/sc1/delete", url.Values{}).Code)
	assert.Empty(t, h.store.deleted)

	other := newHarness(t, "health:view")
	assert.Equal(t, http.StatusForbidden, other.get("/study-centers").Code)
}

func TestNewFormCarriesKeysAndQuery(t *testing.T) {
	h := newHarness(t, allPerms...)
	rec := h.get("/study-centers/new?search=x")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Regexp(t, regexp.MustCompile(`name="idempotency_key" value="[0-9a-f-]{36}"`), body)
	assert.Contains(t, body, `name="q"`)
	assert.Contains(t, body, "search=x")
}

func TestCreateRedirectsWithNoticeAndRecordsAudit(t *testing.T) {
	h := newHarness(t, allPerms...)
	rec := h.post("/study-centers", validCenter("key-1"))

	require.Equal(t, http.StatusSeeOther, rec.Code)
	location := rec.Header().Get("Location")
	assert.True(t, strings.HasPrefix(location, "/study-centers?"))
	assert.Contains(t, location, "search=phule")
	require.Len(t, h.store.created, 1)
	assert.Equal(t, "Phule Study Center", h.store.created[0].CenterName)

	require.Len(t, h.audit.entries, 1)
	entry := h.audit.entries[0]
	assert.Equal(t, rbac.ActionCreate, entry.Action)
	assert.Equal(t, rbac.ModuleEducation, entry.Module)
	assert.Equal(t, "study-centers", entry.Entity)
	assert.Equal(t, "sc-new", entry.EntityID)
	assert.Equal(t, "u1", entry.ActorID)
	assert.Equal(t, []string{"study-centers"}, h.lookups.invalidated)

	// the list reached through the redirect shows the outcome once
	page := h.get(location)
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), "Study center created successfully")
	assert.Contains(t, page.Body.String(), "Phule Study Center")
	last := h.store.listed[len(h.store.listed)-1]
	assert.Equal(t, "phule", last.Get("search"))
	assert.Equal(t, "Active", last.Get("status"))

	again := h.get(location)
	assert.NotContains(t, again.Body.String(), "Study center created successfully")
	assert.Len(t, h.store.created, 1)
}

func TestCreateReplayRedirects(t *testing.T) {
	h := newHarness(t, allPerms...)
	require.Equal(t, http.StatusSeeOther, h.post("/study-centers", validCenter("key-1")).Code)
	created := h.sess.PopFlash()
	require.NotNil(t, created)
	assert.Equal(t, "success", created.Kind)

	rec := h.post("/study-centers", validCenter("key-1"))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "/study-centers?"))
	assert.Len(t, h.store.created, 1)
	flash := h.sess.PopFlash()
	require.NotNil(t, flash)
	assert.Equal(t, "info", flash.Kind)
}

func TestCreateValidationFailure(t *testing.T) {
	h := newHarness(t, allPerms...)
	form := validCenter("key-2")
	form.Del("centerName")
	form.Set("status", "Closed")

	rec := h.post("/study-centers", form)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Please correct the highlighted fields")
	assert.Empty(t, h.store.created)
	assert.Empty(t, h.audit.entries)
	assert.Equal(t, []string{"key-2"}, h.keys.released)
}

func TestCreateBackendFailureKeepsForm(t *testing.T) {
	h := newHarness(t, allPerms...)
	h.store.createErr = &backend.APIError{Status: http.StatusConflict, Message: "Center code already exists"}

	rec := h.post("/study-centers", validCenter("key-3"))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Center code already exists")
	assert.Contains(t, body, "Phule Study Center")
	assert.False(t, h.keys.claimed["key-3"])
}

func TestUpdateUsesRecordID(t *testing.T) {
	h := newHarness(t, allPerms...)
	form := validCenter("key-4")
	form.Set("centerName", "Ambedkar Nagar East")

	rec := h.post("/study-centers/sc1", form)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	flash := h.sess.PopFlash()
	require.NotNil(t, flash)
	assert.Equal(t, "Study center updated successfully", flash.Message)
	assert.Equal(t, []string{"sc1"}, h.store.updated)
	assert.Equal(t, "Ambedkar Nagar East", h.store.items["sc1"].CenterName)
	require.Len(t, h.audit.entries, 1)
	assert.Equal(t, rbac.ActionEdit, h.audit.entries[0].Action)
	assert.Equal(t, "sc1", h.audit.entries[0].EntityID)
}

func TestEditAndShowMissingRecord(t *testing.T) {
	h := newHarness(t, allPerms...)
	assert.Equal(t, http.StatusNotFound, h.get("/study-centers/missing").Code)
	assert.Equal(t, http.StatusNotFound, h.get("/study-centers/missing/edit").Code)

	rec := h.get("/study-centers/sc1/edit")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Ambedkar Nagar")
}

var confirmToken = regexp.MustCompile(`name="confirm_token" value="([^"]+)"`)

func TestDeleteRequiresConfirmation(t *testing.T) {
	h := newHarness(t, allPerms...)

	rec := h.post("/study-centers/sc1/delete", url.Values{pages.ConfirmTokenField: {"forged"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Empty(t, h.store.deleted)

	page := h.get("/study-centers/sc1/delete")
	require.Equal(t, http.StatusOK, page.Code)
	match := confirmToken.FindStringSubmatch(page.Body.String())
	require.Len(t, match, 2)

	rec = h.post("/study-centers/sc1/delete", url.Values{pages.ConfirmTokenField: {match[1]}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	flash := h.sess.PopFlash()
	require.NotNil(t, flash)
	assert.Equal(t, "Study center deleted successfully", flash.Message)
	assert.Equal(t, []string{"sc1"}, h.store.deleted)
	require.Len(t, h.audit.entries, 1)
	assert.Equal(t, rbac.ActionDelete, h.audit.entries[0].Action)

	// the token is single use
	rec = h.post("/study-centers/sc1/delete", url.Values{pages.ConfirmTokenField: {match[1]}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Len(t, h.store.deleted, 1)
}

func TestDeleteCancel(t *testing.T) {
	h := newHarness(t, allPerms...)
	page := h.get("/study-centers/sc1/delete")
	match := confirmToken.FindStringSubmatch(page.Body.String())
	require.Len(t, match, 2)

	rec := h.post("/study-centers/sc1/delete", url.Values{pages.ConfirmTokenField: {match[1]}, "cancel": {"1"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Empty(t, h.store.deleted)
}

func TestExportCSV(t *testing.T) {
	h := newHarness(t, allPerms...)
	h.store.total = 120

	rec := h.get("/study-centers/export.csv?status=Active&page=3")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "study-centers-")
	assert.Equal(t, "120", rec.Header().Get("X-Export-Truncated"))

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "ID,Center code,Center name,Address,Teacher"))
	assert.Contains(t, lines[1], "Meena Kumari")

	params := h.store.listed[0]
	assert.Equal(t, "1", params.Get("page"))
	assert.Equal(t, "50", params.Get("limit"))
	assert.Equal(t, "Active", params.Get("status"))
}

func TestExportPDF(t *testing.T) {
	h := newHarness(t, allPerms...)
	rec := h.get("/study-centers/export.pdf")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, "%PDF-1.7", rec.Body.String())
	assert.Contains(t, string(h.pdf.html), "Ambedkar Nagar")

	h.pdf.err = report.ErrUnavailable
	assert.Equal(t, http.StatusNotImplemented, h.get("/study-centers/export.pdf").Code)

	h.pdf.err = errors.New("gotenberg 500")
	assert.Equal(t, http.StatusBadGateway, h.get("/study-centers/export.pdf").Code)
}

func TestWriteCSVJoinsMultiValues(t *testing.T) {
	data := pages.ExportPage{
		Schema: pages.SchemaView{Fields: records.StudyCenterSchema.Fields},
		Rows: []pages.Row{{ID: "sc9", Values: url.Values{
			"centerCode": {"SC-9"},
			"studentIds": {"s1", "s2"},
		}}},
		Options: map[string][]backend.Option{"sc-students": {{ID: "s1", Label: "Asha"}}},
	}
	out, err := pages.WriteCSV(data)
	require.NoError(t, err)
	assert.Contains(t, string(out), "sc9,SC-9,")
	assert.Contains(t, string(out), "Asha; s2")
}
