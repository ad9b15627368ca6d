package rbac_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/hotelia/frontdesk/internal/rbac"
	"github.com/hotelia/frontdesk/internal/shared"
	_ "github.com/hotelia/frontdesk/testing"
)

func requestAs(t *testing.T, role shared.Role) *http.Request {
	t.Helper()
	mr := miniredis.RunT(t)
	sm := shared.NewSessionManager(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "s", time.Hour, false)
	req := httptest.NewRequest(http.MethodGet, "/admin/employees", nil)
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	if role != "" {
		sess.SetUser("7", role)
	}
	return req.WithContext(shared.ContextWithSession(req.Context(), sess))
}

func serve(h http.Handler, req *http.Request) int {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr.Code
}

func TestRequireAll(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	mw := rbac.Middleware{}
	guarded := mw.RequireAll(rbac.PermEmployeesManage)(ok)

	require.Equal(t, http.StatusNoContent, serve(guarded, requestAs(t, shared.RoleAdmin)))
	require.Equal(t, http.StatusForbidden, serve(guarded, requestAs(t, shared.RoleEmployee)))
	require.Equal(t, http.StatusForbidden, serve(guarded, requestAs(t, shared.RoleCustomer)))
	require.Equal(t, http.StatusUnauthorized, serve(guarded, requestAs(t, "")))
}

func TestRequireAnyAndRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	mw := rbac.Middleware{}

	anyPerm := mw.RequireAny(rbac.PermSelfService, rbac.PermBookingsView)(ok)
	require.Equal(t, http.StatusNoContent, serve(anyPerm, requestAs(t, shared.RoleCustomer)))
	require.Equal(t, http.StatusNoContent, serve(anyPerm, requestAs(t, shared.RoleEmployee)))

	customerOnly := mw.RequireRole(shared.RoleCustomer)(ok)
	require.Equal(t, http.StatusForbidden, serve(customerOnly, requestAs(t, shared.RoleAdmin)))
	require.Equal(t, http.StatusNoContent, serve(customerOnly, requestAs(t, shared.RoleCustomer)))
}
