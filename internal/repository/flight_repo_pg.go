package repository

import (
	"context"
	"errors"

	"github.com/Domenick1991/flightdesk/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type FlightRepository interface {
	List(ctx context.Context) ([]domain.Flight, error)
	GetByID(ctx context.Context, id string) (*domain.Flight, error)
	// Search returns flights on the route that sell the given cabin.
	Search(ctx context.Context, origin, destination string, cabin domain.CabinClass) ([]domain.Flight, error)
	GetFare(ctx context.Context, flightID string, cabin domain.CabinClass) (domain.Fare, error)
}

type PGFlightRepository struct {
	db *pgxpool.Pool
}

func NewFlightRepository(db *pgxpool.Pool) FlightRepository {
	return &PGFlightRepository{db: db}
}

const flightColumns = `f.id, f.flight_number, f.airline, f.aircraft, f.origin, f.destination, f.departure_time, f.arrival_time, f.duration, f.status, f.created_at, f.updated_at`

func scanFlight(row pgx.Row, f *domain.Flight) error {
	return row.Scan(&f.ID, &f.FlightNumber, &f.Airline, &f.Aircraft, &f.Origin, &f.Destination, &f.DepartureTime, &f.ArrivalTime, &f.DurationMinutes, &f.Status, &f.CreatedAt, &f.UpdatedAt)
}

func (r *PGFlightRepository) List(ctx context.Context) ([]domain.Flight, error) {
	return r.queryFlights(ctx, `SELECT `+flightColumns+` FROM flights f ORDER BY f.departure_time`)
}

func (r *PGFlightRepository) GetByID(ctx context.Context, id string) (*domain.Flight, error) {
	var f domain.Flight
	if err := scanFlight(r.db.QueryRow(ctx, `SELECT `+flightColumns+` FROM flights f WHERE f.id=$1`, id), &f); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	flights := []domain.Flight{f}
	if err := r.attachFares(ctx, flights); err != nil {
		return nil, err
	}
	return &flights[0], nil
}

func (r *PGFlightRepository) Search(ctx context.Context, origin, destination string, cabin domain.CabinClass) ([]domain.Flight, error) {
	return r.queryFlights(ctx, `
		SELECT `+flightColumns+`
		FROM flights f
		JOIN flight_prices p ON p.flight_id = f.id AND p.cabin_class = $3
		WHERE f.origin = $1 AND f.destination = $2
		ORDER BY f.departure_time`, origin, destination, cabin)
}

func (r *PGFlightRepository) GetFare(ctx context.Context, flightID string, cabin domain.CabinClass) (domain.Fare, error) {
	fare := domain.Fare{CabinClass: cabin}
	err := r.db.QueryRow(ctx, `SELECT price_cents FROM flight_prices WHERE flight_id=$1 AND cabin_class=$2`, flightID, cabin).Scan(&fare.PriceCents)
	if errors.Is(err, pgx.ErrNoRows) {
		return fare, ErrNoPrice
	}
	if err != nil {
		return fare, err
	}

	err = r.db.QueryRow(ctx, `SELECT available_seats FROM flight_seats WHERE flight_id=$1 AND cabin_class=$2`, flightID, cabin).Scan(&fare.AvailableSeats)
	if errors.Is(err, pgx.ErrNoRows) {
		return fare, ErrNoSeatInfo
	}
	return fare, err
}

func (r *PGFlightRepository) queryFlights(ctx context.Context, sql string, args ...any) ([]domain.Flight, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	flights := make([]domain.Flight, 0)
	for rows.Next() {
		var f domain.Flight
		if err := scanFlight(rows, &f); err != nil {
			return nil, err
		}
		flights = append(flights, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachFares(ctx, flights); err != nil {
		return nil, err
	}
	return flights, nil
}

// attachFares loads every cabin fare for the given flights in one query.
func (r *PGFlightRepository) attachFares(ctx context.Context, flights []domain.Flight) error {
	if len(flights) == 0 {
		return nil
	}
	ids := make([]string, len(flights))
	index := make(map[string]int, len(flights))
	for i, f := range flights {
		ids[i] = f.ID
		index[f.ID] = i
	}

	rows, err := r.db.Query(ctx, `
		SELECT p.flight_id, p.cabin_class, p.price_cents, COALESCE(s.available_seats, 0)
		FROM flight_prices p
		LEFT JOIN flight_seats s ON s.flight_id = p.flight_id AND s.cabin_class = p.cabin_class
		WHERE p.flight_id = ANY($1)
		ORDER BY p.flight_id, p.price_cents`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var flightID string
		var fare domain.Fare
		if err := rows.Scan(&flightID, &fare.CabinClass, &fare.PriceCents, &fare.AvailableSeats); err != nil {
			return err
		}
		i := index[flightID]
		flights[i].Fares = append(flights[i].Fares, fare)
	}
	return rows.Err()
}

var _ FlightRepository = (*PGFlightRepository)(nil)
