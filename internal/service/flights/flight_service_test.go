package flights

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/flightdesk/internal/domain"
	"github.com/Domenick1991/flightdesk/internal/errs"
	"github.com/Domenick1991/flightdesk/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockFlightRepository struct {
	mock.Mock
}

func (m *MockFlightRepository) List(ctx context.Context) ([]domain.Flight, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) GetByID(ctx context.Context, id string) (*domain.Flight, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) Search(ctx context.Context, origin, destination string, cabin domain.CabinClass) ([]domain.Flight, error) {
	args := m.Called(ctx, origin, destination, cabin)
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) GetFare(ctx context.Context, flightID string, cabin domain.CabinClass) (domain.Fare, error) {
	args := m.Called(ctx, flightID, cabin)
	return args.Get(0).(domain.Fare), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetFlights(ctx context.Context) ([]domain.Flight, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockCache) SetFlights(ctx context.Context, flights []domain.Flight) error {
	args := m.Called(ctx, flights)
	return args.Error(0)
}

func flight(id string, departure time.Time, seats int) domain.Flight {
	return domain.Flight{
		ID:            id,
		FlightNumber:  "AI" + id,
		Origin:        "DEL",
		Destination:   "BOM",
		DepartureTime: departure,
		ArrivalTime:   departure.Add(2 * time.Hour),
		Fares:         []domain.Fare{{CabinClass: domain.CabinEconomy, PriceCents: 550000, AvailableSeats: seats}},
	}
}

func TestFlightService_Search_FiltersDayAndSeats(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	service := NewFlightService(mockRepo, nil)
	ctx := context.Background()

	day := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	candidates := []domain.Flight{
		flight("1", day, 4),                                 // midnight, included
		flight("2", day.Add(23*time.Hour+59*time.Minute), 2), // late evening, included
		flight("3", day.Add(24*time.Hour), 9),              // next day
		flight("4", day.Add(-time.Minute), 9),              // previous day
		flight("5", day.Add(12*time.Hour), 1),              // not enough seats
	}
	mockRepo.On("Search", ctx, "DEL", "BOM", domain.CabinEconomy).Return(candidates, nil).Once()

	res, err := service.Search(ctx, SearchInput{Origin: "del", Destination: "bom", DepartureDate: "2026-05-10", Passengers: 2})

	require.NoError(t, err)
	require.Equal(t, 2, res.Total)
	assert.Equal(t, "1", res.Flights[0].ID)
	assert.Equal(t, "2", res.Flights[1].ID)
	assert.Equal(t, domain.CabinEconomy, res.SearchCriteria.CabinClass)
	assert.Equal(t, "DEL", res.SearchCriteria.Origin)
	mockRepo.AssertExpectations(t)
}

func TestFlightService_Search_UsesConfiguredTimezone(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	loc := time.FixedZone("IST", 5*3600+1800)
	service := NewFlightService(mockRepo, nil, WithLocation(loc))
	ctx := context.Background()

	// 20:00 UTC on the 9th is 01:30 on the 10th in IST.
	early := flight("1", time.Date(2026, 5, 9, 20, 0, 0, 0, time.UTC), 5)
	mockRepo.On("Search", ctx, "DEL", "BOM", domain.CabinEconomy).Return([]domain.Flight{early}, nil).Once()

	res, err := service.Search(ctx, SearchInput{Origin: "DEL", Destination: "BOM", DepartureDate: "2026-05-10"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, 1, res.SearchCriteria.Passengers)
}

func TestFlightService_Search_Validation(t *testing.T) {
	service := NewFlightService(&MockFlightRepository{}, nil)

	testCases := []struct {
		name  string
		input SearchInput
	}{
		{"Missing origin", SearchInput{Destination: "BOM", DepartureDate: "2026-05-10"}},
		{"Bad date", SearchInput{Origin: "DEL", Destination: "BOM", DepartureDate: "10.05.2026"}},
		{"Too many passengers", SearchInput{Origin: "DEL", Destination: "BOM", DepartureDate: "2026-05-10", Passengers: 10}},
		{"Negative passengers", SearchInput{Origin: "DEL", Destination: "BOM", DepartureDate: "2026-05-10", Passengers: -1}},
		{"Unknown cabin", SearchInput{Origin: "DEL", Destination: "BOM", DepartureDate: "2026-05-10", CabinClass: "COACH"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.Search(context.Background(), tc.input)
			assert.True(t, errs.Is(err, errs.KindValidation))
		})
	}
}

func TestFlightService_List_CacheMiss(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockCache := &MockCache{}
	service := NewFlightService(mockRepo, mockCache)
	ctx := context.Background()

	flights := []domain.Flight{flight("1", time.Now(), 10)}
	mockCache.On("GetFlights", ctx).Return(nil, nil).Once()
	mockRepo.On("List", ctx).Return(flights, nil).Once()
	mockCache.On("SetFlights", ctx, flights).Return(nil).Once()

	result, err := service.List(ctx)

	assert.NoError(t, err)
	assert.Equal(t, flights, result)
	mockRepo.AssertExpectations(t)
	mockCache.AssertExpectations(t)
}

func TestFlightService_List_CacheHit(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockCache := &MockCache{}
	service := NewFlightService(mockRepo, mockCache)
	ctx := context.Background()

	flights := []domain.Flight{flight("1", time.Now(), 10)}
	mockCache.On("GetFlights", ctx).Return(flights, nil).Once()

	result, err := service.List(ctx)

	assert.NoError(t, err)
	assert.Equal(t, flights, result)
	mockRepo.AssertNotCalled(t, "List", mock.Anything)
}

func TestFlightService_List_CacheErrorFallsBackToRepo(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockCache := &MockCache{}
	service := NewFlightService(mockRepo, mockCache)
	ctx := context.Background()

	flights := []domain.Flight{flight("1", time.Now(), 10)}
	mockCache.On("GetFlights", ctx).Return(nil, errors.New("redis down")).Once()
	mockRepo.On("List", ctx).Return(flights, nil).Once()
	mockCache.On("SetFlights", ctx, flights).Return(errors.New("redis down")).Once()

	result, err := service.List(ctx)

	assert.NoError(t, err)
	assert.Equal(t, flights, result)
}

func TestFlightService_List_RepoError(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	service := NewFlightService(mockRepo, nil)
	mockRepo.On("List", mock.Anything).Return([]domain.Flight(nil), errors.New("db down")).Once()

	_, err := service.List(context.Background())
	assert.True(t, errs.Is(err, errs.KindInternal))
}

func TestFlightService_GetByID(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	service := NewFlightService(mockRepo, nil)
	ctx := context.Background()

	expected := flight("1", time.Now(), 10)
	mockRepo.On("GetByID", ctx, "1").Return(&expected, nil).Once()
	mockRepo.On("GetByID", ctx, "404").Return(nil, repository.ErrNotFound).Once()

	got, err := service.GetByID(ctx, "1")
	assert.NoError(t, err)
	assert.Equal(t, &expected, got)

	_, err = service.GetByID(ctx, "404")
	assert.True(t, errs.Is(err, errs.KindNotFound))
}
