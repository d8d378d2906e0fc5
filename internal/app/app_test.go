package app

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WiresAllComponents(t *testing.T) {
	app := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {})

	assert.NotNil(t, app.Auth)
	assert.NotNil(t, app.Sessions)
	assert.NotNil(t, app.Customers)
	require.NotNil(t, app.HTTPServer)
	require.NotNil(t, app.MetricsServer)
	assert.NotEqual(t, app.HTTPServer.Addr, app.MetricsServer.Addr)
}

func TestRoutes(t *testing.T) {
	app := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {})
	handler := app.HTTPServer.Handler

	tests := []struct {
		name       string
		method     string
		target     string
		wantStatus int
	}{
		{
			name:       "login page",
			method:     http.MethodGet,
			target:     "/login",
			wantStatus: http.StatusOK,
		},
		{
			name:       "debug endpoint",
			method:     http.MethodGet,
			target:     "/api/auth/debug",
			wantStatus: http.StatusOK,
		},
		{
			name:       "logout rejects GET",
			method:     http.MethodGet,
			target:     "/api/auth/logout",
			wantStatus: http.StatusMethodNotAllowed,
		},
		{
			name:       "root redirects",
			method:     http.MethodGet,
			target:     "/",
			wantStatus: http.StatusSeeOther,
		},
		{
			name:       "account redirects anonymous visitors",
			method:     http.MethodGet,
			target:     "/account",
			wantStatus: http.StatusSeeOther,
		},
		{
			name:       "unknown path",
			method:     http.MethodGet,
			target:     "/cart",
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, nil)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			assert.Equal(t, tt.wantStatus, rr.Code)
		})
	}
}

func TestCallbackRouteStartsFlowThroughMux(t *testing.T) {
	app := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {})

	req := httptest.NewRequest(http.MethodGet, "/api/auth/callback", nil)
	rr := httptest.NewRecorder()
	app.HTTPServer.Handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusSeeOther, rr.Code)
	location, err := rr.Result().Location()
	require.NoError(t, err)
	assert.Contains(t, location.String(), "/oauth/authorize")
}
