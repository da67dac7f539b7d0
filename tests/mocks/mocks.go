// Package mocks holds in-memory implementations of the model repositories
// for handler tests. The reservation mock honors the same contract as the
// SQL coordinator: per-event serialization of the check-and-write, the
// one-active-booking rule, and the explicit already-cancelled error.
package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"skillhub/models"
)

/* ---------------- users ---------------- */

type MockUserRepo struct {
	mu    sync.Mutex
	Users map[string]models.User // by email
}

func NewMockUserRepo() *MockUserRepo {
	return &MockUserRepo{Users: map[string]models.User{}}
}

func (m *MockUserRepo) Create(u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Users[u.Email]; ok {
		return models.ErrEmailTaken
	}
	u.ID = int64(len(m.Users) + 1)
	m.Users[u.Email] = *u
	return nil
}

func (m *MockUserRepo) ValidateCredentials(email, plain string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.Users[email]
	// Plaintext compare keeps test setup cheap; hashing is covered in the
	// utils tests.
	if !ok || u.Password != plain {
		return models.User{}, models.ErrInvalidCredentials
	}
	return u, nil
}

func (m *MockUserRepo) GetByID(id int64) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.Users {
		if u.ID == id {
			return u, nil
		}
	}
	return models.User{}, models.ErrNotFound
}

/* ---------------- event catalog ---------------- */

type MockEventRepo struct {
	mu    sync.Mutex
	Items map[string]models.Event
}

func NewMockEventRepo() *MockEventRepo {
	return &MockEventRepo{Items: map[string]models.Event{}}
}

func (m *MockEventRepo) GetAll() ([]models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Event, 0, len(m.Items))
	for _, e := range m.Items {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Time < out[j].Time
	})
	return out, nil
}

func (m *MockEventRepo) GetByID(id string) (models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.Items[id]
	if !ok {
		return models.Event{}, models.ErrNotFound
	}
	return e, nil
}

func (m *MockEventRepo) GetByIDs(ids []string) (map[string]models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]models.Event, len(ids))
	for _, id := range ids {
		if e, ok := m.Items[id]; ok {
			out[id] = e
		}
	}
	return out, nil
}

func (m *MockEventRepo) Create(e *models.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Items[e.ID] = *e
	return nil
}

func (m *MockEventRepo) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Items, id)
	return nil
}

/* ---------------- reservation coordinator ---------------- */

type SeatCounter struct {
	Capacity int
	Booked   int
}

type MockReservationRepo struct {
	mu       sync.Mutex
	locks    map[string]*sync.Mutex // per-event critical section
	Seats    map[string]*SeatCounter
	Bookings map[string]models.Booking
	seq      int64
}

func NewMockReservationRepo() *MockReservationRepo {
	return &MockReservationRepo{
		locks:    map[string]*sync.Mutex{},
		Seats:    map[string]*SeatCounter{},
		Bookings: map[string]models.Booking{},
	}
}

func (m *MockReservationRepo) eventLock(id string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.locks[id]; ok {
		return l
	}
	l := &sync.Mutex{}
	m.locks[id] = l
	return l
}

func (m *MockReservationRepo) Reserve(ctx context.Context, eventID string, userID int64) (models.Booking, error) {
	l := m.eventLock(eventID)
	l.Lock()
	defer l.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	seat, ok := m.Seats[eventID]
	if !ok {
		return models.Booking{}, models.ErrNotFound
	}
	for _, b := range m.Bookings {
		if b.UserID == userID && b.EventID == eventID && b.State == models.BookingActive {
			return models.Booking{}, models.ErrAlreadyBooked
		}
	}
	if seat.Booked >= seat.Capacity {
		return models.Booking{}, models.ErrSoldOut
	}

	m.seq++
	b := models.Booking{
		ID:        uuid.NewString(),
		EventID:   eventID,
		UserID:    userID,
		State:     models.BookingActive,
		CreatedAt: time.Now().UTC().Add(time.Duration(m.seq) * time.Microsecond),
	}
	m.Bookings[b.ID] = b
	seat.Booked++
	return b, nil
}

func (m *MockReservationRepo) Cancel(ctx context.Context, bookingID string, userID int64) error {
	m.mu.Lock()
	b, ok := m.Bookings[bookingID]
	m.mu.Unlock()
	if !ok {
		return models.ErrNotFound
	}

	l := m.eventLock(b.EventID)
	l.Lock()
	defer l.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	b = m.Bookings[bookingID]
	if b.UserID != userID {
		return models.ErrNotOwner
	}
	if b.State == models.BookingCancelled {
		return models.ErrAlreadyCancelled
	}

	b.State = models.BookingCancelled
	m.Bookings[bookingID] = b
	m.Seats[b.EventID].Booked--
	return nil
}

func (m *MockReservationRepo) CreateSeats(ctx context.Context, eventID string, capacity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Seats[eventID] = &SeatCounter{Capacity: capacity}
	return nil
}

func (m *MockReservationRepo) SeatsLeft(ctx context.Context, eventID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seat, ok := m.Seats[eventID]
	if !ok {
		return 0, models.ErrNotFound
	}
	return seat.Capacity - seat.Booked, nil
}

func (m *MockReservationRepo) SeatsLeftByEvent(ctx context.Context, eventIDs []string) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int, len(eventIDs))
	for _, id := range eventIDs {
		if seat, ok := m.Seats[id]; ok {
			out[id] = seat.Capacity - seat.Booked
		}
	}
	return out, nil
}

func (m *MockReservationRepo) ListByUser(ctx context.Context, userID int64) ([]models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Booking
	for _, b := range m.Bookings {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
