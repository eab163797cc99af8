package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestID_GeneratesAndEchoes(t *testing.T) {
	var seen string
	r := gin.New()
	r.Use(RequestID())
	r.GET("/test", func(c *gin.Context) {
		seen = GetRequestID(c)
		c.Status(http.StatusOK)
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/test", nil))

	if seen == "" {
		t.Fatal("no request id in context")
	}
	if got := w.Header().Get(RequestIDHeader); got != seen {
		t.Errorf("header = %q, want %q", got, seen)
	}
}

func TestRequestID_KeepsCallerID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := serve(r, req)

	if got := w.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("header = %q, want abc-123", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("x", 65))
	w = serve(r, req)

	if got := w.Header().Get(RequestIDHeader); len(got) > 64 {
		t.Errorf("oversized caller id was kept: %q", got)
	}
}

func TestLogger_LevelFollowsStatus(t *testing.T) {
	tests := []struct {
		status int
		level  zapcore.Level
	}{
		{http.StatusOK, zapcore.InfoLevel},
		{http.StatusBadRequest, zapcore.WarnLevel},
		{http.StatusInternalServerError, zapcore.ErrorLevel},
	}

	for _, tc := range tests {
		core, logs := observer.New(zapcore.DebugLevel)
		r := gin.New()
		r.Use(RequestID(), Logger(zap.New(core)))
		r.GET("/test", func(c *gin.Context) { c.Status(tc.status) })

		serve(r, httptest.NewRequest(http.MethodGet, "/test?q=1", nil))

		entries := logs.All()
		if len(entries) != 1 {
			t.Fatalf("status %d: %d log entries, want 1", tc.status, len(entries))
		}
		e := entries[0]
		if e.Level != tc.level {
			t.Errorf("status %d: level = %v, want %v", tc.status, e.Level, tc.level)
		}
		fields := e.ContextMap()
		if fields["path"] != "/test" || fields["query"] != "q=1" {
			t.Errorf("status %d: fields = %v", tc.status, fields)
		}
		if fields["request_id"] == "" {
			t.Errorf("status %d: request id not logged", tc.status)
		}
	}
}

func TestRecovery_Returns500(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	r := gin.New()
	r.Use(Recovery(zap.New(core)))
	r.GET("/test", func(c *gin.Context) { panic("boom") })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/test", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if logs.FilterMessage("panic recovered").Len() != 1 {
		t.Error("panic not logged")
	}
}

func newLimitedRouter(rl *RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(rl.Middleware())
	r.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func requestFrom(ip string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = ip + ":40000"
	return req
}

func TestRateLimiter_RejectsOverBurst(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	defer rl.Stop()
	r := newLimitedRouter(rl)

	for i := 0; i < 2; i++ {
		if w := serve(r, requestFrom("10.0.0.1")); w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, w.Code)
		}
	}

	w := serve(r, requestFrom("10.0.0.1"))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header missing")
	}
}

func TestRateLimiter_PerClient(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	defer rl.Stop()
	r := newLimitedRouter(rl)

	serve(r, requestFrom("10.0.0.1"))
	if w := serve(r, requestFrom("10.0.0.1")); w.Code != http.StatusTooManyRequests {
		t.Errorf("first client: status = %d, want 429", w.Code)
	}
	if w := serve(r, requestFrom("10.0.0.2")); w.Code != http.StatusOK {
		t.Errorf("second client: status = %d, want 200", w.Code)
	}
}

func TestRateLimiter_SweepDropsIdleClients(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	defer rl.Stop()

	now := time.Now()
	rl.now = func() time.Time { return now }
	rl.allow("10.0.0.1")

	now = now.Add(limiterIdleTTL + time.Second)
	rl.allow("10.0.0.2")
	rl.sweep()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.clients["10.0.0.1"]; ok {
		t.Error("idle client was not swept")
	}
	if _, ok := rl.clients["10.0.0.2"]; !ok {
		t.Error("active client was swept")
	}
}
