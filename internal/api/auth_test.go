package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"stayhub/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authConfig(keys ...config.APIClientKey) config.APIConfig {
	return config.APIConfig{
		Auth: config.APIAuthConfig{
			Enabled:      true,
			HeaderAPIKey: "x-api-key",
			HeaderUserID: "x-user-id",
			APIKeys:      keys,
		},
	}
}

func wrapOK(auth *HTTPAuth) http.Handler {
	return auth.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
}

func TestAuth_MissingAndInvalidKey(t *testing.T) {
	auth := NewHTTPAuth(authConfig(config.APIClientKey{Key: "secret-1", Name: "gateway"}))
	handler := wrapOK(auth)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/availability/1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req.Header.Set("x-api-key", "wrong")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req.Header.Set("x-api-key", "secret-1")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAuth_Permissions(t *testing.T) {
	auth := NewHTTPAuth(authConfig(config.APIClientKey{
		Key:         "reader",
		Name:        "read-only client",
		Permissions: []string{"read:availability", "read:reports"},
	}))
	handler := wrapOK(auth)

	cases := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/api/v1/availability/1", http.StatusNoContent},
		{http.MethodGet, "/api/v1/reports/occupancy", http.StatusNoContent},
		{http.MethodGet, "/api/v1/room-types", http.StatusNoContent},
		{http.MethodPost, "/api/v1/reservations", http.StatusForbidden},
		{http.MethodPut, "/api/v1/room-types/1/capacity", http.StatusForbidden},
		{http.MethodGet, "/api/v1/notifications", http.StatusForbidden},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		req.Header.Set("x-api-key", "reader")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, tc.want, rec.Code, "%s %s", tc.method, tc.path)
	}
}

func TestAuth_EmptyPermissionsAllowAll(t *testing.T) {
	auth := NewHTTPAuth(authConfig(config.APIClientKey{Key: "admin", Name: "admin"}))
	handler := wrapOK(auth)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/room-types/1/capacity", nil)
	req.Header.Set("x-api-key", "admin")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAuth_RateLimit(t *testing.T) {
	cfg := authConfig(config.APIClientKey{Key: "busy", Name: "busy client"})
	cfg.RateLimit = config.APIRateLimitConfig{RPS: 1, Burst: 2}
	handler := wrapOK(NewHTTPAuth(cfg))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/availability/1", nil)
		req.Header.Set("x-api-key", "busy")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)
}

func TestAuth_RateLimitPerKey(t *testing.T) {
	cfg := authConfig(
		config.APIClientKey{Key: "first", Name: "first"},
		config.APIClientKey{Key: "second", Name: "second"},
	)
	cfg.RateLimit = config.APIRateLimitConfig{RPS: 1, Burst: 1}
	handler := wrapOK(NewHTTPAuth(cfg))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/availability/1", nil)
	req.Header.Set("x-api-key", "first")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// Exhausting one key's budget must not affect another.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	req2 := httptest.NewRequest(http.MethodGet, "/api/v1/availability/1", nil)
	req2.Header.Set("x-api-key", "second")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req2)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAuth_DisabledSkipsKeyCheck(t *testing.T) {
	auth := NewHTTPAuth(config.APIConfig{})
	handler := wrapOK(auth)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCallerID(t *testing.T) {
	auth := NewHTTPAuth(config.APIConfig{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings", nil)
	_, err := auth.CallerID(req)
	assert.ErrorContains(t, err, "missing x-user-id header")

	req.Header.Set("x-user-id", "abc")
	_, err = auth.CallerID(req)
	assert.ErrorContains(t, err, "invalid x-user-id header")

	req.Header.Set("x-user-id", "-4")
	_, err = auth.CallerID(req)
	assert.Error(t, err)

	req.Header.Set("x-user-id", "42")
	id, err := auth.CallerID(req)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}
