package models

import (
	"context"
	"time"
)

// Event is the catalog record. The catalog lives in Mongo; the seat counter
// backing SeatsLeft lives in Postgres and is attached on the read path.
type Event struct {
	ID          string  `json:"id" bson:"id"`
	Title       string  `json:"title" bson:"title"`
	Description string  `json:"description" bson:"description"`
	Date        string  `json:"date" bson:"date"` // YYYY-MM-DD
	Time        string  `json:"time" bson:"time"` // HH:MM
	City        string  `json:"city" bson:"city"`
	Location    string  `json:"location" bson:"location"`
	Price       float64 `json:"price" bson:"price"`
	Capacity    int     `json:"capacity" bson:"capacity"` // immutable after create
	CreatedBy   int64   `json:"created_by" bson:"created_by"`
	SeatsLeft   int     `json:"seats_left" bson:"-"`
}

// Booking lifecycle states. Cancelled is terminal; rows are never deleted.
const (
	BookingActive    = "active"
	BookingCancelled = "cancelled"
)

type Booking struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	UserID    int64     `json:"user_id"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"created_at"`
}

// BookingWithEvent is the /my-bookings response shape: a ledger row joined
// with its catalog record.
type BookingWithEvent struct {
	Booking
	Event Event `json:"event"`
}

type User struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"-"`
}

// ===== Event catalog =====
type EventRepository interface {
	GetAll() ([]Event, error) // ordered by date ascending
	GetByID(id string) (Event, error)
	GetByIDs(ids []string) (map[string]Event, error)
	Create(e *Event) error
	Delete(id string) error
}

// ===== Users =====
type UserRepository interface {
	Create(u *User) error
	ValidateCredentials(email, plain string) (User, error)
	GetByID(id int64) (User, error)
}

// ReservationRepository is the booking ledger plus the reservation
// coordinator. Reserve and Cancel are the only writers of seat counters and
// booking state; both are atomic and serialized per event, never globally.
type ReservationRepository interface {
	// Reserve creates an Active booking and takes one seat, or fails with
	// ErrNotFound, ErrAlreadyBooked, ErrSoldOut or ErrBusy.
	Reserve(ctx context.Context, eventID string, userID int64) (Booking, error)
	// Cancel transitions the caller's booking to Cancelled and frees its
	// seat, or fails with ErrNotFound, ErrNotOwner, ErrAlreadyCancelled or
	// ErrBusy. A second cancel of the same booking is reported, not
	// swallowed.
	Cancel(ctx context.Context, bookingID string, userID int64) error

	CreateSeats(ctx context.Context, eventID string, capacity int) error
	SeatsLeft(ctx context.Context, eventID string) (int, error)
	SeatsLeftByEvent(ctx context.Context, eventIDs []string) (map[string]int, error)
	ListByUser(ctx context.Context, userID int64) ([]Booking, error)
}
