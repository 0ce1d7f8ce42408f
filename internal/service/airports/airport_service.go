package airports

import (
	"context"
	"strings"

	"github.com/Domenick1991/flightdesk/internal/domain"
	"github.com/Domenick1991/flightdesk/internal/errs"
	"github.com/Domenick1991/flightdesk/internal/repository"
	"go.uber.org/zap"
)

type AirportUseCase interface {
	List(ctx context.Context) ([]domain.Airport, error)
	Search(ctx context.Context, q string) ([]domain.Airport, error)
}

type AirportCache interface {
	GetAirports(ctx context.Context) ([]domain.Airport, error)
	SetAirports(ctx context.Context, airports []domain.Airport) error
}

type AirportService struct {
	repo  repository.AirportRepository
	cache AirportCache
	log   *zap.Logger
}

func NewAirportService(repo repository.AirportRepository, cache AirportCache, log *zap.Logger) *AirportService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AirportService{repo: repo, cache: cache, log: log}
}

func (s *AirportService) List(ctx context.Context) ([]domain.Airport, error) {
	if s.cache != nil {
		cached, err := s.cache.GetAirports(ctx)
		if err != nil {
			s.log.Warn("airports cache read failed", zap.Error(err))
		}
		if cached != nil {
			return cached, nil
		}
	}

	airports, err := s.repo.List(ctx)
	if err != nil {
		return nil, errs.Internal("failed to list airports", err)
	}
	if s.cache != nil {
		if err := s.cache.SetAirports(ctx, airports); err != nil {
			s.log.Warn("airports cache write failed", zap.Error(err))
		}
	}
	return airports, nil
}

// Search matches q against code, name and city. An empty query matches nothing.
func (s *AirportService) Search(ctx context.Context, q string) ([]domain.Airport, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []domain.Airport{}, nil
	}
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]domain.Airport, 0)
	for _, a := range all {
		if a.Matches(q) {
			matched = append(matched, a)
		}
	}
	return matched, nil
}

var _ AirportUseCase = (*AirportService)(nil)
