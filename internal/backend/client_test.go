package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *prometheus.Registry) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	reg := prometheus.NewRegistry()
	return NewClient(srv.URL+"/", 5*time.Second, reg), reg
}

func TestCollectionListSendsParamsAndToken(t *testing.T) {
	var gotQuery url.Values
	var gotAuth string
	client, reg := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/dropouts", r.URL.Path)
		gotQuery = r.URL.Query()
		gotAuth = r.Header.Get("Authorization")
		_, _ = io.WriteString(w, `{"data":{"data":[{"id":"a","name":"x"}],"pagination":{"currentPage":1,"recordsPerPage":5,"totalRecords":1,"totalPages":1}}}`)
	})

	col := NewCollection[item](client, "dropouts")
	params := url.Values{"page": {"1"}, "limit": {"5"}, "search": {"ravi"}}
	page, err := col.List(WithToken(context.Background(), "tok"), params)
	require.NoError(t, err)

	assert.Equal(t, "ravi", gotQuery.Get("search"))
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, []item{{ID: "a", Name: "x"}}, page.Records)
	assert.Equal(t, 5, page.Pagination.Limit)
	assert.Equal(t, 1, mustGatherCount(t, reg, "welfaredesk_backend_requests_total"))
}

func TestCollectionMutations(t *testing.T) {
	var calls []string
	var lastBody map[string]any
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&lastBody)
		}
		switch r.Method {
		case http.MethodPost:
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"data":{"id":"new","name":"created"}}`)
		case http.MethodPut:
			w.WriteHeader(http.StatusNoContent)
		case http.MethodDelete:
			w.WriteHeader(http.StatusOK)
		case http.MethodGet:
			_, _ = io.WriteString(w, `{"id":"g 1","name":"got"}`)
		}
	})
	col := NewCollection[item](client, "/study-centers/")
	ctx := context.Background()

	created, err := col.Create(ctx, item{Name: "created"})
	require.NoError(t, err)
	assert.Equal(t, "new", created.ID)
	assert.Equal(t, "created", lastBody["name"])

	updated, err := col.Update(ctx, "new", item{ID: "new", Name: "renamed"})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Name, "empty update body falls back to the sent record")

	got, err := col.Get(ctx, "g 1")
	require.NoError(t, err)
	assert.Equal(t, "got", got.Name)

	require.NoError(t, col.Delete(ctx, "new"))

	assert.Equal(t, []string{
		"POST /study-centers",
		"PUT /study-centers/new",
		"GET /study-centers/g 1",
		"DELETE /study-centers/new",
	}, calls)
}

func TestAPIErrorCarriesServerMessage(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cbucbo":
			w.WriteHeader(http.StatusConflict)
			_, _ = io.WriteString(w, `{"message":"Group ID already exists"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `not json`)
		}
	})

	_, err := NewCollection[item](client, "cbucbo").Create(context.Background(), item{})
	require.Error(t, err)
	msg, ok := Message(err)
	assert.True(t, ok)
	assert.Equal(t, "Group ID already exists", msg)

	_, err = NewCollection[item](client, "missing").Get(context.Background(), "1")
	assert.True(t, IsNotFound(err))
	msg, ok = Message(err)
	assert.False(t, ok, "a body without a message yields none")
	assert.Empty(t, msg)
	assert.EqualError(t, err, "backend: status 404: Not Found")
}

func TestDropdown(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/teachers/dropdown", r.URL.Path)
		_, _ = io.WriteString(w, `[{"id":"t1","label":"Meena"}]`)
	})
	opts, err := client.Dropdown(context.Background(), "teachers")
	require.NoError(t, err)
	assert.Equal(t, []Option{{ID: "t1", Label: "Meena"}}, opts)
}

func TestLogin(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var creds map[string]string
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds["password"] != "secret123" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"error":"Invalid credentials"}`)
			return
		}
		_, _ = io.WriteString(w, `{"data":{"token":"jwt","user":{"id":"u1","email":"a@b.c","role":"staff","permissions":["health:view"]}}}`)
	})

	res, err := client.Login(context.Background(), " a@b.c ", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "jwt", res.Token)
	assert.Equal(t, "staff", res.User.Role)
	assert.Equal(t, []string{"health:view"}, res.User.Permissions)

	_, err = client.Login(context.Background(), "a@b.c", "wrong")
	msg, _ := Message(err)
	assert.Equal(t, "Invalid credentials", msg)
}

func TestLoginWithoutToken(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"user":{"id":"u1"}}`)
	})
	_, err := client.Login(context.Background(), "a@b.c", "x")
	assert.ErrorIs(t, err, ErrNoToken)
}

func mustGatherCount(t *testing.T, reg *prometheus.Registry, name string) int {
	t.Helper()
	n, err := testutil.GatherAndCount(reg, name)
	require.NoError(t, err)
	return n
}
