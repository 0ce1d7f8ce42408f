package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/flightdesk/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingRepository interface {
	// Create takes the booking's seats and inserts it with its passengers in one transaction.
	Create(ctx context.Context, booking *domain.Booking) (domain.SeatChange, error)
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Booking, error)
	// Update applies patch if the booking is still in status expected.
	Update(ctx context.Context, id string, expected domain.BookingStatus, patch domain.BookingPatch) (*domain.Booking, error)
	// Cancel moves the booking from its current status to cancelled and returns its seats.
	Cancel(ctx context.Context, booking *domain.Booking) (*domain.Booking, domain.SeatChange, error)
	CompleteArrivedBefore(ctx context.Context, deadline time.Time) ([]domain.Booking, error)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, user_id, flight_id, return_flight_id, cabin_class, total_price_cents, status, booking_reference, special_requests, created_at, updated_at`

func scanBooking(row pgx.Row, b *domain.Booking) error {
	return row.Scan(&b.ID, &b.UserID, &b.FlightID, &b.ReturnFlightID, &b.CabinClass, &b.TotalPriceCents, &b.Status, &b.Reference, &b.SpecialRequests, &b.CreatedAt, &b.UpdatedAt)
}

func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) (domain.SeatChange, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.SeatChange{}, err
	}
	defer tx.Rollback(ctx)

	change, err := adjustSeats(ctx, tx, booking.FlightID, booking.CabinClass, -booking.SeatCount())
	if err != nil {
		return change, err
	}

	if err := tx.QueryRow(ctx, `
		INSERT INTO bookings (id, user_id, flight_id, return_flight_id, cabin_class, total_price_cents, status, booking_reference, special_requests)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`,
		booking.ID, booking.UserID, booking.FlightID, booking.ReturnFlightID, booking.CabinClass,
		booking.TotalPriceCents, booking.Status, booking.Reference, booking.SpecialRequests).
		Scan(&booking.CreatedAt, &booking.UpdatedAt); err != nil {
		return change, fmt.Errorf("insert booking: %w", err)
	}

	batch := &pgx.Batch{}
	for i, p := range booking.Passengers {
		batch.Queue(`
			INSERT INTO passengers (id, booking_id, first_name, last_name, date_of_birth, nationality, passport_number, national_id, age, seat_number, special_requests, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			p.ID, booking.ID, p.FirstName, p.LastName, p.DateOfBirth, p.Nationality, p.PassportNumber, p.NationalID, p.Age, p.SeatNumber, p.SpecialRequests, i)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return change, fmt.Errorf("insert passengers: %w", err)
	}

	return change, tx.Commit(ctx)
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	var b domain.Booking
	if err := scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id), &b); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	bookings := []domain.Booking{b}
	if err := attachPassengers(ctx, r.db, bookings); err != nil {
		return nil, err
	}
	return &bookings[0], nil
}

func (r *PGBookingRepository) ListByUser(ctx context.Context, userID string) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		var b domain.Booking
		if err := scanBooking(rows, &b); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := attachPassengers(ctx, r.db, bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *PGBookingRepository) Update(ctx context.Context, id string, expected domain.BookingStatus, patch domain.BookingPatch) (*domain.Booking, error) {
	sets := []string{"updated_at=now()"}
	args := []any{id, expected}
	if patch.Status != nil {
		args = append(args, *patch.Status)
		sets = append(sets, fmt.Sprintf("status=$%d", len(args)))
	}
	if patch.SpecialRequests != nil {
		args = append(args, *patch.SpecialRequests)
		sets = append(sets, fmt.Sprintf("special_requests=$%d", len(args)))
	}

	var b domain.Booking
	err := scanBooking(r.db.QueryRow(ctx, `UPDATE bookings SET `+strings.Join(sets, ", ")+` WHERE id=$1 AND status=$2 RETURNING `+bookingColumns, args...), &b)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, missOrStale(ctx, r.db, id)
	}
	if err != nil {
		return nil, err
	}

	bookings := []domain.Booking{b}
	if err := attachPassengers(ctx, r.db, bookings); err != nil {
		return nil, err
	}
	return &bookings[0], nil
}

func (r *PGBookingRepository) Cancel(ctx context.Context, booking *domain.Booking) (*domain.Booking, domain.SeatChange, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, domain.SeatChange{}, err
	}
	defer tx.Rollback(ctx)

	b, err := markCancelled(ctx, tx, booking)
	if err != nil {
		return nil, domain.SeatChange{}, err
	}

	change, err := adjustSeats(ctx, tx, b.FlightID, b.CabinClass, booking.SeatCount())
	if err != nil {
		return nil, change, fmt.Errorf("restore seats: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, change, err
	}

	b.Passengers = booking.Passengers
	return &b, change, nil
}

func (r *PGBookingRepository) CompleteArrivedBefore(ctx context.Context, deadline time.Time) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `
		UPDATE bookings b SET status=$1, updated_at=now()
		FROM flights f
		WHERE b.flight_id = f.id AND b.status=$2 AND f.arrival_time <= $3
		RETURNING b.id, b.user_id, b.flight_id, b.return_flight_id, b.cabin_class, b.total_price_cents, b.status, b.booking_reference, b.special_requests, b.created_at, b.updated_at`,
		domain.BookingStatusCompleted, domain.BookingStatusConfirmed, deadline)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var completed []domain.Booking
	for rows.Next() {
		var b domain.Booking
		if err := scanBooking(rows, &b); err != nil {
			return nil, err
		}
		completed = append(completed, b)
	}
	return completed, rows.Err()
}

// markCancelled moves the booking to cancelled only while it is still in the status it was read in.
func markCancelled(ctx context.Context, q querier, booking *domain.Booking) (domain.Booking, error) {
	var b domain.Booking
	err := scanBooking(q.QueryRow(ctx, `
		UPDATE bookings SET status=$3, updated_at=now()
		WHERE id=$1 AND status=$2
		RETURNING `+bookingColumns, booking.ID, booking.Status, domain.BookingStatusCancelled), &b)
	if errors.Is(err, pgx.ErrNoRows) {
		return b, missOrStale(ctx, q, booking.ID)
	}
	return b, err
}

// missOrStale explains why a guarded update matched no row.
func missOrStale(ctx context.Context, q querier, id string) error {
	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM bookings WHERE id=$1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrStatusChanged
}

func attachPassengers(ctx context.Context, q querier, bookings []domain.Booking) error {
	if len(bookings) == 0 {
		return nil
	}
	ids := make([]string, len(bookings))
	index := make(map[string]int, len(bookings))
	for i, b := range bookings {
		ids[i] = b.ID
		index[b.ID] = i
		bookings[i].Passengers = make([]domain.Passenger, 0)
	}

	rows, err := q.Query(ctx, `
		SELECT id, booking_id, first_name, last_name, date_of_birth, nationality, passport_number, national_id, age, seat_number, special_requests
		FROM passengers
		WHERE booking_id = ANY($1)
		ORDER BY booking_id, position`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.Passenger
		if err := rows.Scan(&p.ID, &p.BookingID, &p.FirstName, &p.LastName, &p.DateOfBirth, &p.Nationality, &p.PassportNumber, &p.NationalID, &p.Age, &p.SeatNumber, &p.SpecialRequests); err != nil {
			return err
		}
		i := index[p.BookingID]
		bookings[i].Passengers = append(bookings[i].Passengers, p)
	}
	return rows.Err()
}

var _ BookingRepository = (*PGBookingRepository)(nil)
