package routes

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"cardboard/app/middleware"
	"cardboard/app/requestid"

	"github.com/stretchr/testify/assert"
)

func TestSetupRoutes(t *testing.T) {
	env := setupTestRouter(t)
	id := env.createPost(t, "Pikachu", "Base Set", "12")

	tests := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
		expectedHeader string
	}{
		{"GET posts", http.MethodGet, "/api/posts", http.StatusOK, "application/json"},
		{"GET single post", http.MethodGet, "/api/posts/" + id, http.StatusOK, "application/json"},
		{"GET post reviews", http.MethodGet, "/api/posts/" + id + "/reviews", http.StatusOK, "application/json"},
		{"GET collections", http.MethodGet, "/api/collections", http.StatusOK, "application/json"},
		{"title probe", http.MethodGet, "/api/validate/title?title=Pikachu", http.StatusOK, "application/json"},
		{"Invalid post ID", http.MethodGet, "/api/posts/invalid", http.StatusNotFound, "application/json"},
		{"Unknown API route", http.MethodGet, "/api/nope", http.StatusNotFound, "application/json"},
		{"Home page", http.MethodGet, "/", http.StatusOK, "text/html; charset=utf-8"},
		{"Posts page", http.MethodGet, "/posts", http.StatusOK, "text/html; charset=utf-8"},
		{"New post form", http.MethodGet, "/posts/new", http.StatusOK, "text/html; charset=utf-8"},
		{"Post page", http.MethodGet, "/posts/" + id, http.StatusOK, "text/html; charset=utf-8"},
		{"Edit form", http.MethodGet, "/posts/" + id + "/edit", http.StatusOK, "text/html; charset=utf-8"},
		{"Image download", http.MethodGet, "/posts/" + id + "/image", http.StatusOK, "image/png"},
		{"Unknown page", http.MethodGet, "/nope", http.StatusNotFound, "text/html; charset=utf-8"},
		{"Stylesheet", http.MethodGet, "/static/css/app.css", http.StatusOK, "text/css; charset=utf-8"},
		{"Health", http.MethodGet, "/healthz", http.StatusOK, "text/plain; charset=utf-8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedHeader, w.Header().Get("Content-Type"))
			assert.NotEmpty(t, w.Header().Get(requestid.Header))
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := setupTestRouter(t)
	env.do(httptest.NewRequest(http.MethodGet, "/api/posts?page=2", nil))

	w := env.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "cardboard_listing_requests_total")
	assert.Contains(t, body, "cardboard_http_requests_total")
}

func TestHealthDown(t *testing.T) {
	env := setupTestRouter(t, func(o *Options) {
		o.Health = func(context.Context) error { return errors.New("store unreachable") }
	})

	w := env.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestTitleProbeRateLimit(t *testing.T) {
	env := setupTestRouter(t, func(o *Options) {
		o.TitleProbe = middleware.NewRateLimiter(0.01, 3)
	})
	var limited bool
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/validate/title?title=Mew", nil)
		if env.do(req).Code == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	assert.True(t, limited)
}

func TestRequestIDPropagation(t *testing.T) {
	env := setupTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	req.Header.Set(requestid.Header, "trace-me-1")

	w := env.do(req)
	assert.Equal(t, "trace-me-1", w.Header().Get(requestid.Header))
}
