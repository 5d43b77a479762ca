package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSessions(t *testing.T) (*SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewSessionManager(client, "wd_session", "secret", time.Hour, false), mr
}

// roundTrip commits sess and returns a request carrying the issued cookie.
func roundTrip(t *testing.T, sm *SessionManager, sess *Session) *http.Request {
	t.Helper()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.NoError(t, sm.Commit(context.Background(), rr, req, sess))
	next := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rr.Result().Cookies() {
		next.AddCookie(c)
	}
	return next
}

func TestFlashSurvivesRedirect(t *testing.T) {
	sm, _ := newTestSessions(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.AddFlash(FlashMessage{Kind: "success", Message: "Saved"})
	next := roundTrip(t, sm, sess)

	loaded, err := sm.Load(ctx, next)
	require.NoError(t, err)
	flash := loaded.PopFlash()
	require.NotNil(t, flash)
	assert.Equal(t, "Saved", flash.Message)
	assert.Nil(t, loaded.PopFlash())

	after := roundTrip(t, sm, loaded)
	again, err := sm.Load(ctx, after)
	require.NoError(t, err)
	assert.Nil(t, again.PopFlash(), "flash is shown once")
}

func TestRenewMovesSessionToNewID(t *testing.T) {
	sm, mr := newTestSessions(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.Set("k", "v")
	next := roundTrip(t, sm, sess)
	oldID := sess.ID

	loaded, err := sm.Load(ctx, next)
	require.NoError(t, err)
	sm.Renew(loaded)
	assert.NotEqual(t, oldID, loaded.ID)
	renewed := roundTrip(t, sm, loaded)

	assert.False(t, mr.Exists("welfaredesk:session:"+oldID))
	assert.True(t, mr.Exists("welfaredesk:session:"+loaded.ID))

	got, err := sm.Load(ctx, renewed)
	require.NoError(t, err)
	assert.Equal(t, "v", got.Get("k"))
}

func TestDestroyRemovesSession(t *testing.T) {
	sm, mr := newTestSessions(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.SetUser("u1")
	roundTrip(t, sm, sess)
	require.True(t, mr.Exists("welfaredesk:session:"+sess.ID))

	sm.Destroy(sess)
	rr := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rr, httptest.NewRequest(http.MethodGet, "/", nil), sess))
	assert.False(t, mr.Exists("welfaredesk:session:"+sess.ID))
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestSessionClear(t *testing.T) {
	sm, _ := newTestSessions(t)
	sess, err := sm.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.Set("user", "{}")
	sess.SetUser("u1")
	sess.AddFlash(FlashMessage{Kind: "info", Message: "x"})

	sess.Clear()
	assert.Empty(t, sess.Get("user"))
	assert.Empty(t, sess.User())
	assert.Nil(t, sess.PopFlash())
}
