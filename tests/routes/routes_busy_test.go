package tests

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
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

// contentionRepo simulates an event row whose lock can never be taken: every
// reservation and cancellation comes back as contention.
type contentionRepo struct {
	*mocks.MockReservationRepo
}

func (r *contentionRepo) Reserve(ctx context.Context, eventID string, userID int64) (models.Booking, error) {
	return models.Booking{}, models.ErrBusy
}

func (r *contentionRepo) Cancel(ctx context.Context, bookingID string, userID int64) error {
	return models.ErrBusy
}

// countlessRepo books fine but cannot answer the follow-up seat count read.
type countlessRepo struct {
	*mocks.MockReservationRepo
}

func (r *countlessRepo) SeatsLeft(ctx context.Context, eventID string) (int, error) {
	return 0, errors.New("seats left: connection reset")
}

func setupServerWithResv(t *testing.T, rr models.ReservationRepository) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	t.Cleanup(func() { mr.Close() })
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	s := gin.New()
	routes.RegisterRoutes(s, mocks.NewMockUserRepo(), rr, mocks.NewMockEventRepo(), rdb, utils.NewCacheInvalidator(rdb))
	return s
}

func TestBooking_Contention_503WithRetryAfter(t *testing.T) {
	s := setupServerWithResv(t, &contentionRepo{mocks.NewMockReservationRepo()})
	token := authToken(t, 1)

	w := doReq(s, "POST", "/events/"+uuid.NewString()+"/book", "", token)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "1" {
		t.Fatalf("Retry-After = %q, want %q", got, "1")
	}
	if k := kindOf(t, w); k != models.KindBusy {
		t.Fatalf("kind = %q, want %q", k, models.KindBusy)
	}
}

func TestCancel_Contention_503WithRetryAfter(t *testing.T) {
	s := setupServerWithResv(t, &contentionRepo{mocks.NewMockReservationRepo()})
	token := authToken(t, 1)

	w := doReq(s, "DELETE", "/bookings/"+uuid.NewString(), "", token)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "1" {
		t.Fatalf("Retry-After = %q, want %q", got, "1")
	}
	if k := kindOf(t, w); k != models.KindBusy {
		t.Fatalf("kind = %q, want %q", k, models.KindBusy)
	}
}

// A committed booking stands even when the confirmation count read fails; the
// response then simply omits seats_left instead of reporting a wrong number.
func TestBooking_SeatCountReadFails_OmitsSeatsLeft(t *testing.T) {
	rr := &countlessRepo{mocks.NewMockReservationRepo()}
	s := setupServerWithResv(t, rr)

	eventID := uuid.NewString()
	if err := rr.MockReservationRepo.CreateSeats(context.Background(), eventID, 5); err != nil {
		t.Fatalf("seed seats: %v", err)
	}

	token := authToken(t, 1)
	w := doReq(s, "POST", "/events/"+eventID+"/book", "", token)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}

	var body map[string]json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if _, ok := body["seats_left"]; ok {
		t.Fatalf("seats_left present despite failed count read: %s", w.Body.String())
	}
	if _, ok := body["booking"]; !ok {
		t.Fatalf("booking missing from confirmation: %s", w.Body.String())
	}
}
