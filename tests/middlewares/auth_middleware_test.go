package tests

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"skillhub/middlewares"
	"skillhub/utils"
)

func protected(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middlewares.Authenticate)
	r.GET("/p", func(c *gin.Context) { c.String(200, "ok") })
	return r
}

func TestAuthMiddleware_MissingToken_401(t *testing.T) {
	r := protected(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("want 401, got %d", w.Code)
	}
}

func TestAuthMiddleware_InvalidToken_401(t *testing.T) {
	r := protected(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Set("Authorization", "this-is-not-a-jwt")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("want 401, got %d", w.Code)
	}
}

// The browser transport: a valid token in the session cookie passes the gate.
func TestAuthMiddleware_SessionCookie_OK(t *testing.T) {
	r := protected(t)

	token, err := utils.GenerateToken("a@example.com", 42)
	if err != nil {
		t.Fatalf("gen token: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.AddCookie(&http.Cookie{Name: middlewares.SessionCookie, Value: token})
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d body=%s", w.Code, w.Body.String())
	}
}
