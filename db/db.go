package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// Open connects to Postgres and creates the schema if it does not exist.
func Open(dsn string) (*sql.DB, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	conn.SetMaxOpenConns(20)
	conn.SetMaxIdleConns(10)

	if err := createTables(conn); err != nil {
		return nil, err
	}
	return conn, nil
}

func createTables(conn *sql.DB) error {
	createUsersTable := `
	CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL
	);`
	if _, err := conn.Exec(createUsersTable); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}

	// One row per event: the seat counter the coordinator locks. The CHECK
	// constraints are the last line of defense behind the transactional
	// check-and-write; they must never fire.
	createEventSeatsTable := `
	CREATE TABLE IF NOT EXISTS event_seats (
		event_id UUID PRIMARY KEY,
		capacity INT NOT NULL CHECK (capacity >= 0),
		seats_booked INT NOT NULL DEFAULT 0
			CHECK (seats_booked >= 0 AND seats_booked <= capacity)
	);`
	if _, err := conn.Exec(createEventSeatsTable); err != nil {
		return fmt.Errorf("create event_seats table: %w", err)
	}

	// Cancelled rows are kept for history, so uniqueness only binds the
	// active row: at most one active booking per (user, event).
	createBookingsTable := `
	CREATE TABLE IF NOT EXISTS bookings (
		id UUID PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id),
		event_id UUID NOT NULL REFERENCES event_seats(event_id),
		state TEXT NOT NULL DEFAULT 'active',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE UNIQUE INDEX IF NOT EXISTS bookings_one_active
		ON bookings (user_id, event_id) WHERE state = 'active';`
	if _, err := conn.Exec(createBookingsTable); err != nil {
		return fmt.Errorf("create bookings table: %w", err)
	}
	return nil
}
