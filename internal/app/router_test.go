package app

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/observability"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/shared"
)

func TestRouterHealthAndMetrics(t *testing.T) {
	router := NewRouter(RouterParams{
		Config:  &Config{RateLimitPerMinute: 60},
		Metrics: observability.NewMetrics(),
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	require.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	require.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `lezit_http_requests_total{code="200",route="/healthz"} 1`)
}

func TestActorMiddleware(t *testing.T) {
	var got shared.Actor
	var present bool
	handler := ActorMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, present = shared.ActorFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	require.False(t, present)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set(HeaderActorID, " vendor-7 ")
	req.Header.Set(HeaderActorRole, "Vendor")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	require.True(t, present)
	require.Equal(t, shared.Actor{ID: "vendor-7", Role: shared.RoleVendor}, got)
}

func TestRouterWithoutOrdersHandler(t *testing.T) {
	router := NewRouter(RouterParams{})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.True(t, strings.Contains(rr.Header().Get("Content-Security-Policy"), "default-src 'none'"))
}
