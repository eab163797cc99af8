package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func newTimeoutRouter(d time.Duration, handler gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(Timeout(d))
	r.GET("/test", handler)
	return r
}

func TestTimeout_HandlerCompletesInTime(t *testing.T) {
	r := newTimeoutRouter(100*time.Millisecond, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/test", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestTimeout_ContextHasDeadline(t *testing.T) {
	r := newTimeoutRouter(500*time.Millisecond, func(c *gin.Context) {
		if _, ok := c.Request.Context().Deadline(); !ok {
			t.Error("request context has no deadline")
		}
		c.Status(http.StatusOK)
	})

	serve(r, httptest.NewRequest(http.MethodGet, "/test", nil))
}

func TestTimeout_503WithEnvelopeWhenNothingWritten(t *testing.T) {
	r := newTimeoutRouter(5*time.Millisecond, func(c *gin.Context) {
		<-c.Request.Context().Done()
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/test", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
	var body struct {
		Error struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error.Code != "timeout" {
		t.Errorf("code = %q, want timeout", body.Error.Code)
	}
}

func TestTimeout_WrittenResponseKept(t *testing.T) {
	r := newTimeoutRouter(5*time.Millisecond, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
		time.Sleep(20 * time.Millisecond)
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/test", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 (written response must survive the deadline)", w.Code)
	}
}

func TestTimeout_SlowQueryAbandoned(t *testing.T) {
	r := newTimeoutRouter(10*time.Millisecond, func(c *gin.Context) {
		query := time.After(200 * time.Millisecond)
		select {
		case <-c.Request.Context().Done():
			return
		case <-query:
			c.JSON(http.StatusOK, gin.H{"message": "ok"})
		}
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/test", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestTimeout_ClientAlreadyGone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := newTimeoutRouter(100*time.Millisecond, func(c *gin.Context) {
		if c.Request.Context().Err() == nil {
			t.Error("expected cancelled context")
		}
		c.Status(http.StatusOK)
	})

	serve(r, httptest.NewRequest(http.MethodGet, "/test", nil).WithContext(ctx))
}
