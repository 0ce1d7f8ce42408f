package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicate         = errors.New("duplicate")
	ErrNoPrice           = errors.New("no price for cabin")
	ErrNoSeatInfo        = errors.New("no seat info for cabin")
	ErrInsufficientSeats = errors.New("insufficient seats")
	// ErrStatusChanged is returned when a guarded status update finds the row in another status.
	ErrStatusChanged = errors.New("booking status changed concurrently")
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
