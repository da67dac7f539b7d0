package models

import "errors"

// Business outcomes are sentinel errors so handlers can map them to an HTTP
// status and a machine-readable kind without matching on message strings.
var (
	ErrNotFound         = errors.New("not found")
	ErrSoldOut          = errors.New("event is sold out")
	ErrAlreadyBooked    = errors.New("already booked for this event")
	ErrNotOwner         = errors.New("booking belongs to another user")
	ErrAlreadyCancelled = errors.New("booking is already cancelled")
	ErrBusy             = errors.New("event is busy, retry")
)

// Kind values carried in error response bodies.
const (
	KindUnauthenticated  = "unauthenticated"
	KindNotFound         = "not_found"
	KindAlreadyBooked    = "already_booked"
	KindSoldOut          = "sold_out"
	KindNotOwner         = "not_owner"
	KindAlreadyCancelled = "already_cancelled"
	KindBusy             = "busy"
	KindValidation       = "validation"
	KindStorage          = "storage"
)

// Kind maps a coordinator/repository error to its wire kind. Unknown errors
// are storage faults.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrSoldOut):
		return KindSoldOut
	case errors.Is(err, ErrAlreadyBooked):
		return KindAlreadyBooked
	case errors.Is(err, ErrNotOwner):
		return KindNotOwner
	case errors.Is(err, ErrAlreadyCancelled):
		return KindAlreadyCancelled
	case errors.Is(err, ErrBusy):
		return KindBusy
	default:
		return KindStorage
	}
}
