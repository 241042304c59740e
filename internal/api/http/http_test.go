package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ifooddash/dashboard/internal/apisrv/auth"
	"github.com/ifooddash/dashboard/internal/apisrv/dashboard"
	"github.com/ifooddash/dashboard/internal/dependency"
	"github.com/ifooddash/dashboard/internal/ordersource"
	"github.com/ifooddash/dashboard/internal/ratelimit"
)

// nilRepo satisfies dependency.Repository but panics on use; the routes
// under test must reject the request before touching it.
type nilRepo struct {
	dependency.Repository
}

func newTestRouter(t *testing.T) http.Handler {
	authSrv, err := auth.New(&auth.Config{JWTSecret: "secret", JWTTTL: "1h"}, &nilRepo{})
	assert.NoError(t, err)

	dashboardSrv := dashboard.New(&nilRepo{}, ordersource.NewMock(), ratelimit.NewAuthLimiter())

	s := New(&Config{Port: "8080", Address: "localhost"})
	return s.router(authSrv, dashboardSrv)
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r := newTestRouter(t)

	paths := []string{
		"/restaurants",
		"/orders",
		"/orders/1",
		"/orders/1/export",
		"/metrics/monthly-revenue",
		"/metrics/top-selling-products",
		"/metrics/cancellation-cost",
		"/metrics/daily-overview",
		"/metrics/daily",
		"/metrics/summary",
		"/insights/orders-heatmap",
		"/insights/negative-feedbacks",
	}
	for _, path := range paths {
		rec := httptest.NewRecorder()
		// the nilRepo would panic if a handler ran a query
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}
