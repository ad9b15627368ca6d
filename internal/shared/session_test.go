package shared_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/hotelia/frontdesk/internal/shared"
	_ "github.com/hotelia/frontdesk/testing"
)

func newSessionManager(t *testing.T) (*shared.SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return shared.NewSessionManager(client, "fd_session", time.Hour, false), mr
}

func TestSessionRoundTrip(t *testing.T) {
	sm, mr := newSessionManager(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.False(t, sess.Authenticated())

	sess.SetUser("42", shared.RoleAdmin)
	sess.Set("checkIn", "2025-07-01")
	res := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, res, sess))
	require.True(t, mr.Exists("session:"+sess.ID))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: sm.CookieName(), Value: sess.ID})
	loaded, err := sm.Load(ctx, req)
	require.NoError(t, err)
	require.Equal(t, sess.ID, loaded.ID)
	require.Equal(t, "42", loaded.User())
	require.Equal(t, shared.RoleAdmin, loaded.Role())
	require.Equal(t, "2025-07-01", loaded.Get("checkIn"))
}

func TestSessionUnknownCookieStartsFresh(t *testing.T) {
	sm, _ := newSessionManager(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: sm.CookieName(), Value: "forged"})

	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	require.NotEqual(t, "forged", sess.ID)
}

func TestSessionDestroyAndRenew(t *testing.T) {
	sm, mr := newSessionManager(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.NoError(t, sm.Commit(ctx, httptest.NewRecorder(), sess))
	oldID := sess.ID

	require.NoError(t, sm.Renew(ctx, sess))
	require.NotEqual(t, oldID, sess.ID)
	require.False(t, mr.Exists("session:"+oldID))

	require.NoError(t, sm.Commit(ctx, httptest.NewRecorder(), sess))
	sm.Destroy(sess)
	res := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, res, sess))
	require.False(t, mr.Exists("session:"+sess.ID))
	require.Contains(t, res.Header().Get("Set-Cookie"), "Max-Age=0")
}

func TestCSRFToken(t *testing.T) {
	sm, _ := newSessionManager(t)
	sess, err := sm.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	csrf := shared.NewCSRFManager("secret")
	token, err := csrf.EnsureToken(sess)
	require.NoError(t, err)
	again, err := csrf.EnsureToken(sess)
	require.NoError(t, err)
	require.Equal(t, token, again)

	require.NoError(t, csrf.VerifyToken(sess, token))
	require.ErrorIs(t, csrf.VerifyToken(sess, ""), shared.ErrCSRFTokenMissing)
	require.ErrorIs(t, csrf.VerifyToken(sess, "other"), shared.ErrCSRFTokenMismatch)
}

func TestPaginationBounds(t *testing.T) {
	p := shared.NewPagination(2, 10, 25)
	require.Equal(t, 3, p.TotalPages)
	start, end := p.Bounds()
	require.Equal(t, 10, start)
	require.Equal(t, 20, end)

	start, end = shared.NewPagination(5, 10, 25).Bounds()
	require.Equal(t, 25, start)
	require.Equal(t, 25, end)
}

func TestMiddlewareCommitsBeforeBody(t *testing.T) {
	sm, mr := newSessionManager(t)
	h := sm.Middleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		shared.SessionFromContext(r.Context()).SetUser("5", shared.RoleCustomer)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("ok"))
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", nil))
	require.Equal(t, http.StatusCreated, rr.Code)
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	require.True(t, mr.Exists("session:"+cookies[0].Value))
}
