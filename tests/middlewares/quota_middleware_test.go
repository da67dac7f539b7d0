package tests

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"skillhub/middlewares"
)

// Limit=2: two requests pass, the third is rejected for the window.
func TestQuota_Exceed429(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	t.Cleanup(func() { mr.Close() })
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	s := gin.New()
	s.Use(func(c *gin.Context) { c.Set("userId", int64(7)); c.Next() })
	s.Use(middlewares.Quota(rdb, middlewares.QuotaRule{
		Limit:  2,
		Window: time.Hour,
		KeyFn: func(c *gin.Context) string {
			return fmt.Sprintf("quota:user:%d:day", c.GetInt64("userId"))
		},
	}))
	s.GET("/x", func(c *gin.Context) { c.String(200, "ok") })

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		s.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		if w.Code != 200 {
			t.Fatalf("request %d: unexpected %d", i, w.Code)
		}
		want := fmt.Sprintf("%d/2", i+1)
		if got := w.Header().Get("X-Quota-Used"); got != want {
			t.Fatalf("want X-Quota-Used %q, got %q", want, got)
		}
	}

	w := httptest.NewRecorder()
	s.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != 429 {
		t.Fatalf("want 429, got %d; body=%s", w.Code, w.Body.String())
	}
}
