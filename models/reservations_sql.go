package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Postgres error codes the coordinator reacts to.
const (
	pgLockNotAvailable = "55P03" // FOR UPDATE NOWAIT lost the race
	pgUniqueViolation  = "23505" // bookings_one_active / users email
	pgInvalidUUID      = "22P02" // malformed id in the URL
)

// Contention policy: a transaction that cannot take the event row lock is
// retried a few times before the request fails with ErrBusy.
const (
	reserveAttempts = 3
	reserveBackoff  = 25 * time.Millisecond
)

type sqlReservationRepo struct{ db *sql.DB }

// NewSQLReservationRepository returns the Postgres-backed booking ledger and
// reservation coordinator.
//
// Both Reserve and Cancel run as one transaction that first locks the
// event's seat-counter row with SELECT ... FOR UPDATE NOWAIT. The row lock is
// the per-event critical section: two reservations for the same event are
// serialized, reservations for different events run in parallel, and the
// seat decrement can never commit without its booking row (or vice versa).
//
// A naive read-then-write would let two requests both observe the last free
// seat and both insert; the row lock closes that window, and the partial
// unique index on active bookings plus the CHECK on seats_booked back it up
// at the schema level.
func NewSQLReservationRepository(db *sql.DB) ReservationRepository {
	return &sqlReservationRepo{db}
}

func (r *sqlReservationRepo) Reserve(ctx context.Context, eventID string, userID int64) (Booking, error) {
	var b Booking
	err := r.withRetry(ctx, func() error {
		var err error
		b, err = r.reserveOnce(ctx, eventID, userID)
		return err
	})
	return b, err
}

func (r *sqlReservationRepo) reserveOnce(ctx context.Context, eventID string, userID int64) (Booking, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Booking{}, fmt.Errorf("begin reserve: %w", err)
	}
	defer tx.Rollback()

	var capacity, booked int
	err = tx.QueryRowContext(ctx,
		`SELECT capacity, seats_booked FROM event_seats WHERE event_id = $1 FOR UPDATE NOWAIT`,
		eventID,
	).Scan(&capacity, &booked)
	if err != nil {
		return Booking{}, mapLockErr(err)
	}

	var dup bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM bookings WHERE user_id = $1 AND event_id = $2 AND state = $3)`,
		userID, eventID, BookingActive,
	).Scan(&dup)
	if err != nil {
		return Booking{}, fmt.Errorf("check existing booking: %w", err)
	}
	if dup {
		return Booking{}, ErrAlreadyBooked
	}

	if booked >= capacity {
		return Booking{}, ErrSoldOut
	}

	b := Booking{
		ID:        uuid.NewString(),
		EventID:   eventID,
		UserID:    userID,
		State:     BookingActive,
		CreatedAt: time.Now().UTC(),
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO bookings (id, user_id, event_id, state, created_at) VALUES ($1, $2, $3, $4, $5)`,
		b.ID, b.UserID, b.EventID, b.State, b.CreatedAt,
	)
	if err != nil {
		if pgCode(err) == pgUniqueViolation {
			return Booking{}, ErrAlreadyBooked
		}
		return Booking{}, fmt.Errorf("insert booking: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE event_seats SET seats_booked = seats_booked + 1 WHERE event_id = $1`,
		eventID,
	)
	if err != nil {
		return Booking{}, fmt.Errorf("take seat: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Booking{}, fmt.Errorf("commit reserve: %w", err)
	}
	return b, nil
}

func (r *sqlReservationRepo) Cancel(ctx context.Context, bookingID string, userID int64) error {
	return r.withRetry(ctx, func() error {
		return r.cancelOnce(ctx, bookingID, userID)
	})
}

func (r *sqlReservationRepo) cancelOnce(ctx context.Context, bookingID string, userID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin cancel: %w", err)
	}
	defer tx.Rollback()

	var owner int64
	var eventID, state string
	err = tx.QueryRowContext(ctx,
		`SELECT user_id, event_id, state FROM bookings WHERE id = $1 FOR UPDATE`,
		bookingID,
	).Scan(&owner, &eventID, &state)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || pgCode(err) == pgInvalidUUID {
			return ErrNotFound
		}
		return fmt.Errorf("lock booking: %w", err)
	}
	// Ownership before state, so a stranger's probe never learns whether a
	// booking is live.
	if owner != userID {
		return ErrNotOwner
	}
	if state == BookingCancelled {
		return ErrAlreadyCancelled
	}

	// Same critical section as Reserve: the event row lock orders this
	// decrement against concurrent seat takes.
	var discard int
	err = tx.QueryRowContext(ctx,
		`SELECT seats_booked FROM event_seats WHERE event_id = $1 FOR UPDATE NOWAIT`,
		eventID,
	).Scan(&discard)
	if err != nil {
		return mapLockErr(err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE bookings SET state = $1 WHERE id = $2`,
		BookingCancelled, bookingID,
	); err != nil {
		return fmt.Errorf("cancel booking: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE event_seats SET seats_booked = seats_booked - 1 WHERE event_id = $1`,
		eventID,
	); err != nil {
		return fmt.Errorf("free seat: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cancel: %w", err)
	}
	return nil
}

// withRetry reruns f while it reports lock contention, then surfaces ErrBusy.
func (r *sqlReservationRepo) withRetry(ctx context.Context, f func() error) error {
	var err error
	for attempt := 0; attempt < reserveAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(reserveBackoff):
			case <-ctx.Done():
				return ErrBusy
			}
		}
		err = f()
		if !errors.Is(err, ErrBusy) {
			return err
		}
	}
	return err
}

/* ---------------- ledger reads ---------------- */

func (r *sqlReservationRepo) CreateSeats(ctx context.Context, eventID string, capacity int) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO event_seats (event_id, capacity, seats_booked) VALUES ($1, $2, 0)`,
		eventID, capacity,
	)
	if err != nil {
		return fmt.Errorf("create seat counter: %w", err)
	}
	return nil
}

func (r *sqlReservationRepo) SeatsLeft(ctx context.Context, eventID string) (int, error) {
	var left int
	err := r.db.QueryRowContext(ctx,
		`SELECT capacity - seats_booked FROM event_seats WHERE event_id = $1`,
		eventID,
	).Scan(&left)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || pgCode(err) == pgInvalidUUID {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("seats left: %w", err)
	}
	return left, nil
}

func (r *sqlReservationRepo) SeatsLeftByEvent(ctx context.Context, eventIDs []string) (map[string]int, error) {
	out := make(map[string]int, len(eventIDs))
	if len(eventIDs) == 0 {
		return out, nil
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT event_id, capacity - seats_booked FROM event_seats WHERE event_id = ANY($1)`,
		pq.Array(eventIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("seats left batch: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var left int
		if err := rows.Scan(&id, &left); err != nil {
			return nil, fmt.Errorf("scan seats left: %w", err)
		}
		out[id] = left
	}
	return out, rows.Err()
}

func (r *sqlReservationRepo) ListByUser(ctx context.Context, userID int64) ([]Booking, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, event_id, state, created_at
		 FROM bookings WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		var b Booking
		if err := rows.Scan(&b.ID, &b.UserID, &b.EventID, &b.State, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

/* ---------------- pg error helpers ---------------- */

func pgCode(err error) pq.ErrorCode {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code
	}
	return ""
}

func mapLockErr(err error) error {
	switch {
	case errors.Is(err, sql.ErrNoRows), pgCode(err) == pgInvalidUUID:
		return ErrNotFound
	case pgCode(err) == pgLockNotAvailable:
		return ErrBusy
	default:
		return fmt.Errorf("lock event row: %w", err)
	}
}
