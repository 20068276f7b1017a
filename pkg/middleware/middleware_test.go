package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"profile-service/pkg/cache"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestRateLimiterDisabledWithoutRedis(t *testing.T) {
	called := 0
	h := RateLimiter(nil, 1, time.Minute, time.Minute, "test")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called++
	}))
	for i := 0; i < 3; i++ {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil))
	}
	assert.Equal(t, 3, called)
}

func TestRateLimiterFailsOpenWhenRedisDown(t *testing.T) {
	c := cache.NewCache([]string{"127.0.0.1:1"}, "", 0)
	defer c.Close()

	called := 0
	h := RateLimiter(c, 1, time.Minute, time.Minute, "test")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called++
	}))
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, 3, called)
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.7:5555"
	assert.Equal(t, "10.0.0.7", clientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", clientIP(r))
}

func TestObserveKeepsStatus(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Observe(zap.NewNop()))
	r.Get("/teapot", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/teapot", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
