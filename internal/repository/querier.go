package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/Domenick1991/flightdesk/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate applies the embedded schema. Statements are idempotent.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	entries, err := migrations.ReadDir("migrations")
	if err != nil {
		return err
	}
	for _, e := range entries {
		body, err := migrations.ReadFile("migrations/" + e.Name())
		if err != nil {
			return err
		}
		if _, err := db.Exec(ctx, string(body)); err != nil {
			return fmt.Errorf("apply %s: %w", e.Name(), err)
		}
	}
	return nil
}

// adjustSeats moves the seat pool of flight+cabin by delta in one conditional statement,
// so the count can never drop below zero.
func adjustSeats(ctx context.Context, q querier, flightID string, cabin domain.CabinClass, delta int) (domain.SeatChange, error) {
	change := domain.SeatChange{FlightID: flightID, CabinClass: cabin, Delta: delta}
	err := q.QueryRow(ctx, `
		UPDATE flight_seats
		SET available_seats = available_seats + $3, updated_at = now()
		WHERE flight_id = $1 AND cabin_class = $2 AND available_seats + $3 >= 0
		RETURNING available_seats`, flightID, cabin, delta).Scan(&change.AvailableSeats)
	if err == nil {
		return change, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return change, err
	}

	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM flight_seats WHERE flight_id = $1 AND cabin_class = $2)`, flightID, cabin).Scan(&exists); err != nil {
		return change, err
	}
	if !exists {
		return change, ErrNoSeatInfo
	}
	return change, ErrInsufficientSeats
}
