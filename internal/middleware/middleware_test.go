package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(mw...)
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return router
}

func get(router *gin.Engine, header, value string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if header != "" {
		req.Header.Set(header, value)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRequireAPIKey(t *testing.T) {
	router := newRouter(RequireAPIKey("s3cret"))

	assert.Equal(t, http.StatusUnauthorized, get(router, "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(router, APIKeyHeader, "wrong").Code)
	assert.Equal(t, http.StatusOK, get(router, APIKeyHeader, "s3cret").Code)

	misconfigured := newRouter(RequireAPIKey(""))
	assert.Equal(t, http.StatusInternalServerError, get(misconfigured, APIKeyHeader, "").Code)
}

func TestIPRateLimiter(t *testing.T) {
	clock := time.Date(2024, time.March, 15, 9, 0, 0, 0, time.UTC)
	rl := NewIPRateLimiter(RateLimiterConfig{RequestsPerSecond: 1, BurstSize: 2, IdleTimeout: time.Minute})
	rl.now = func() time.Time { return clock }

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"), "burst exhausted")
	assert.True(t, rl.Allow("10.0.0.2"), "clients are limited independently")

	clock = clock.Add(time.Second)
	assert.True(t, rl.Allow("10.0.0.1"), "one token refilled")

	clock = clock.Add(30 * time.Second)
	rl.Allow("10.0.0.2")
	clock = clock.Add(45 * time.Second)
	assert.Equal(t, 1, rl.Cleanup())
	assert.Equal(t, 1, rl.Len())
}

func TestRateLimitMiddleware(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	router := newRouter(RateLimitMiddleware(ctx, RateLimiterConfig{RequestsPerSecond: 0.001, BurstSize: 1}))

	require.Equal(t, http.StatusOK, get(router, "", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(router, "", "").Code)
}

func TestRequestLogger(t *testing.T) {
	router := newRouter(RequestLogger())

	w := get(router, "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	w = get(router, RequestIDHeader, "req-123")
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
}
