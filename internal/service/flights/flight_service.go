package flights

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Domenick1991/flightdesk/internal/domain"
	"github.com/Domenick1991/flightdesk/internal/errs"
	"github.com/Domenick1991/flightdesk/internal/repository"
	"go.uber.org/zap"
)

const maxPassengers = 9

type FlightUseCase interface {
	Search(ctx context.Context, input SearchInput) (*SearchResult, error)
	List(ctx context.Context) ([]domain.Flight, error)
	GetByID(ctx context.Context, id string) (*domain.Flight, error)
}

type FlightCache interface {
	GetFlights(ctx context.Context) ([]domain.Flight, error)
	SetFlights(ctx context.Context, flights []domain.Flight) error
}

type SearchInput struct {
	Origin        string            `json:"origin"`
	Destination   string            `json:"destination"`
	DepartureDate string            `json:"departureDate"`
	CabinClass    domain.CabinClass `json:"cabinClass"`
	Passengers    int               `json:"passengers"`
}

type SearchResult struct {
	Flights        []domain.Flight `json:"flights"`
	Total          int             `json:"total"`
	SearchCriteria SearchInput     `json:"searchCriteria"`
}

type FlightService struct {
	repo  repository.FlightRepository
	cache FlightCache
	loc   *time.Location
	log   *zap.Logger
}

type Option func(*FlightService)

// WithLocation sets the timezone that defines a calendar day for search.
func WithLocation(loc *time.Location) Option {
	return func(s *FlightService) {
		s.loc = loc
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *FlightService) {
		s.log = l
	}
}

func NewFlightService(repo repository.FlightRepository, cache FlightCache, opts ...Option) *FlightService {
	s := &FlightService{repo: repo, cache: cache, loc: time.UTC, log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search returns flights on the route departing within the requested day that still have
// enough seats in the cabin.
func (s *FlightService) Search(ctx context.Context, input SearchInput) (*SearchResult, error) {
	criteria, day, err := s.normalize(input)
	if err != nil {
		return nil, err
	}

	candidates, err := s.repo.Search(ctx, criteria.Origin, criteria.Destination, criteria.CabinClass)
	if err != nil {
		return nil, errs.Internal("failed to search flights", err)
	}

	next := day.AddDate(0, 0, 1)
	matched := make([]domain.Flight, 0, len(candidates))
	for _, f := range candidates {
		if f.DepartureTime.Before(day) || !f.DepartureTime.Before(next) {
			continue
		}
		fare, ok := f.Fare(criteria.CabinClass)
		if !ok || fare.AvailableSeats < criteria.Passengers {
			continue
		}
		matched = append(matched, f)
	}

	return &SearchResult{Flights: matched, Total: len(matched), SearchCriteria: criteria}, nil
}

func (s *FlightService) normalize(input SearchInput) (SearchInput, time.Time, error) {
	input.Origin = strings.ToUpper(strings.TrimSpace(input.Origin))
	input.Destination = strings.ToUpper(strings.TrimSpace(input.Destination))
	if input.Origin == "" || input.Destination == "" {
		return input, time.Time{}, errs.Validation("origin and destination are required")
	}
	if input.CabinClass == "" {
		input.CabinClass = domain.CabinEconomy
	}
	if !input.CabinClass.Valid() {
		return input, time.Time{}, errs.Validation("unknown cabin class %q", input.CabinClass)
	}
	if input.Passengers == 0 {
		input.Passengers = 1
	}
	if input.Passengers < 1 || input.Passengers > maxPassengers {
		return input, time.Time{}, errs.Validation("passengers must be between 1 and %d", maxPassengers)
	}
	day, err := time.ParseInLocation(time.DateOnly, input.DepartureDate, s.loc)
	if err != nil {
		return input, time.Time{}, errs.Validation("departure date must be YYYY-MM-DD")
	}
	return input, day, nil
}

func (s *FlightService) List(ctx context.Context) ([]domain.Flight, error) {
	if s.cache != nil {
		cached, err := s.cache.GetFlights(ctx)
		if err != nil {
			s.log.Warn("flights cache read failed", zap.Error(err))
		}
		if cached != nil {
			return cached, nil
		}
	}

	flights, err := s.repo.List(ctx)
	if err != nil {
		return nil, errs.Internal("failed to list flights", err)
	}
	if s.cache != nil {
		if err := s.cache.SetFlights(ctx, flights); err != nil {
			s.log.Warn("flights cache write failed", zap.Error(err))
		}
	}
	return flights, nil
}

func (s *FlightService) GetByID(ctx context.Context, id string) (*domain.Flight, error) {
	f, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, errs.NotFound("flight not found")
	}
	if err != nil {
		return nil, errs.Internal("failed to load flight", err)
	}
	return f, nil
}

var _ FlightUseCase = (*FlightService)(nil)
