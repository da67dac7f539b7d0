package tests

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"skillhub/models"
	"skillhub/routes"
	"skillhub/tests/mocks"
	"skillhub/utils"
)

type serverDeps struct {
	s  *gin.Engine
	ur *mocks.MockUserRepo
	rr *mocks.MockReservationRepo
	er *mocks.MockEventRepo
}

func setupServerWithDeps(t *testing.T) serverDeps {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	t.Cleanup(func() { mr.Close() })

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	inv := utils.NewCacheInvalidator(rdb)

	ur := mocks.NewMockUserRepo()
	rr := mocks.NewMockReservationRepo()
	er := mocks.NewMockEventRepo()

	s := gin.New()
	routes.RegisterRoutes(s, ur, rr, er, rdb, inv)
	return serverDeps{s: s, ur: ur, rr: rr, er: er}
}

func authToken(t *testing.T, uid int64) string {
	t.Helper()
	token, err := utils.GenerateToken("tester@example.com", uid)
	if err != nil {
		t.Fatalf("gen token: %v", err)
	}
	return token
}

func doReq(s *gin.Engine, method, path, body, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	s.ServeHTTP(w, req)
	return w
}

// seedEvent plants a catalog record plus its seat counter, bypassing HTTP.
func seedEvent(t *testing.T, d serverDeps, title string, capacity int) string {
	t.Helper()
	id := uuid.NewString()
	err := d.er.Create(&models.Event{
		ID: id, Title: title, Date: "2026-10-01", Time: "18:00",
		City: "Berlin", Location: "Hall 4", Capacity: capacity,
	})
	if err != nil {
		t.Fatalf("seed event: %v", err)
	}
	if err := d.rr.CreateSeats(context.Background(), id, capacity); err != nil {
		t.Fatalf("seed seats: %v", err)
	}
	return id
}

func kindOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	return body.Kind
}

func seatsLeft(t *testing.T, d serverDeps, eventID string) int {
	t.Helper()
	left, err := d.rr.SeatsLeft(context.Background(), eventID)
	if err != nil {
		t.Fatalf("seats left: %v", err)
	}
	return left
}
