package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Domenick1991/flightdesk/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRepositories(t *testing.T) {
	pool := &pgxpool.Pool{}
	assert.NotNil(t, NewFlightRepository(pool))
	assert.NotNil(t, NewBookingRepository(pool))
	assert.NotNil(t, NewAirportRepository(pool))
	assert.NotNil(t, NewUserRepository(pool))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("boom")))
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrations.ReadDir("migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	body, err := migrations.ReadFile("migrations/" + entries[0].Name())
	require.NoError(t, err)
	assert.Contains(t, string(body), "CREATE TABLE IF NOT EXISTS flight_seats")
	assert.Contains(t, string(body), "CHECK (available_seats >= 0)")
}

type scriptedRow func(dest ...any) error

func (f scriptedRow) Scan(dest ...any) error { return f(dest...) }

// scriptedQuerier answers QueryRow calls with rows in order and records the statements.
type scriptedQuerier struct {
	rows []scriptedRow
	sql  []string
	args [][]any
}

func (q *scriptedQuerier) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errors.New("unexpected Exec")
}

func (q *scriptedQuerier) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("unexpected Query")
}

func (q *scriptedQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	q.sql = append(q.sql, sql)
	q.args = append(q.args, args)
	if len(q.rows) == 0 {
		return scriptedRow(func(...any) error { return errors.New("unexpected QueryRow") })
	}
	row := q.rows[0]
	q.rows = q.rows[1:]
	return row
}

var errDriver = errors.New("conn reset")

func noRows(...any) error { return pgx.ErrNoRows }

func failRow(...any) error { return errDriver }

func seatsRow(n int) scriptedRow {
	return func(dest ...any) error {
		*dest[0].(*int) = n
		return nil
	}
}

func existsRow(exists bool) scriptedRow {
	return func(dest ...any) error {
		*dest[0].(*bool) = exists
		return nil
	}
}

func TestAdjustSeats(t *testing.T) {
	cases := []struct {
		name    string
		delta   int
		rows    []scriptedRow
		wantErr error
		seats   int
		queries int
	}{
		{name: "Take seats", delta: -2, rows: []scriptedRow{seatsRow(3)}, seats: 3, queries: 1},
		{name: "Return seats", delta: 2, rows: []scriptedRow{seatsRow(5)}, seats: 5, queries: 1},
		{name: "Pool too small", delta: -6, rows: []scriptedRow{noRows, existsRow(true)}, wantErr: ErrInsufficientSeats, queries: 2},
		{name: "Cabin has no seat row", delta: -1, rows: []scriptedRow{noRows, existsRow(false)}, wantErr: ErrNoSeatInfo, queries: 2},
		{name: "Driver error", delta: -1, rows: []scriptedRow{failRow}, wantErr: errDriver, queries: 1},
		{name: "Existence check fails", delta: -1, rows: []scriptedRow{noRows, failRow}, wantErr: errDriver, queries: 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := &scriptedQuerier{rows: tc.rows}

			change, err := adjustSeats(context.Background(), q, "f-1", domain.CabinEconomy, tc.delta)

			assert.Len(t, q.sql, tc.queries)
			assert.Contains(t, q.sql[0], "available_seats + $3 >= 0")
			assert.Equal(t, []any{"f-1", domain.CabinEconomy, tc.delta}, q.args[0])
			assert.Equal(t, tc.delta, change.Delta)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.seats, change.AvailableSeats)
		})
	}
}

func TestMarkCancelled(t *testing.T) {
	booking := &domain.Booking{ID: "b-1", Status: domain.BookingStatusConfirmed}
	updatedRow := scriptedRow(func(dest ...any) error {
		*dest[0].(*string) = "b-1"
		*dest[6].(*domain.BookingStatus) = domain.BookingStatusCancelled
		return nil
	})

	cases := []struct {
		name    string
		rows    []scriptedRow
		wantErr error
	}{
		{name: "Still in read status", rows: []scriptedRow{updatedRow}},
		{name: "Status moved underneath", rows: []scriptedRow{noRows, existsRow(true)}, wantErr: ErrStatusChanged},
		{name: "Booking gone", rows: []scriptedRow{noRows, existsRow(false)}, wantErr: ErrNotFound},
		{name: "Driver error", rows: []scriptedRow{failRow}, wantErr: errDriver},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := &scriptedQuerier{rows: tc.rows}

			b, err := markCancelled(context.Background(), q, booking)

			assert.Contains(t, q.sql[0], "WHERE id=$1 AND status=$2")
			assert.Equal(t, []any{"b-1", domain.BookingStatusConfirmed, domain.BookingStatusCancelled}, q.args[0])
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "b-1", b.ID)
			assert.Equal(t, domain.BookingStatusCancelled, b.Status)
		})
	}
}
