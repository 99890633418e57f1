package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowPerKey(t *testing.T) {
	now := time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)
	l := New(1, 2)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"))

	now = now.Add(time.Second)
	assert.True(t, l.Allow("a"))
	assert.Equal(t, 2, l.Len())
}

func TestIdleKeysForgotten(t *testing.T) {
	now := time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)
	l := New(1, 1)
	l.now = func() time.Time { return now }

	l.Allow("a")
	l.Allow("b")
	require.Equal(t, 2, l.Len())

	now = now.Add(11 * time.Minute)
	l.Allow("c")
	assert.Equal(t, 1, l.Len())
}

func TestMiddleware(t *testing.T) {
	e := echo.New()
	l := New(0.001, 1)
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, l.Middleware())

	do := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.RemoteAddr = ip + ":4000"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, do("10.0.0.1").Code)
	rec := do("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Equal(t, http.StatusNoContent, do("10.0.0.2").Code)
}

func TestMiddlewareDisabled(t *testing.T) {
	e := echo.New()
	l := New(0, 1)
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, l.Middleware())

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}
}
