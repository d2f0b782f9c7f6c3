package flights

import (
	"context"
	"log"
	"strings"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/filter"
	"github.com/Domenick1991/flightbooking/internal/metrics"
	"github.com/Domenick1991/flightbooking/internal/repository"
)

type FlightUseCase interface {
	Search(ctx context.Context, raw map[string]string) ([]domain.FlightDetails, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	Create(ctx context.Context, flight *domain.Flight) (*domain.Flight, error)
	Delete(ctx context.Context, id int64) error
}

// FlightCache holds search results under a version that InvalidateFlights
// bumps. GetSearch reports the version it looked under; SetSearch writes
// under the version it is given. Cache errors never fail a request.
type FlightCache interface {
	GetSearch(ctx context.Context, key string) ([]domain.FlightDetails, int64, bool, error)
	SetSearch(ctx context.Context, version int64, key string, flights []domain.FlightDetails) error
	InvalidateFlights(ctx context.Context) error
}

type FlightService struct {
	repo    repository.FlightRepository
	builder *filter.Builder
	cache   FlightCache
}

// NewFlightService accepts a nil cache.
func NewFlightService(repo repository.FlightRepository, builder *filter.Builder, cache FlightCache) *FlightService {
	return &FlightService{repo: repo, builder: builder, cache: cache}
}

// Search parses raw query parameters and returns matching flights. Invalid
// parameters yield domain.ErrInvalidFilter without touching storage.
// Results are cached under the version seen before the storage read, so an
// invalidation that races the read leaves the write unreachable.
func (s *FlightService) Search(ctx context.Context, raw map[string]string) ([]domain.FlightDetails, error) {
	f, order, err := s.builder.Build(raw)
	if err != nil {
		metrics.IncSearch("invalid")
		return nil, err
	}

	key := filter.CacheKey(f, order)
	cacheable := false
	var version int64
	if s.cache != nil {
		cached, v, ok, err := s.cache.GetSearch(ctx, key)
		switch {
		case err != nil:
			log.Printf("flight search cache read %q: %v", key, err)
		case ok:
			metrics.IncSearch("hit")
			return cached, nil
		default:
			cacheable, version = true, v
		}
	}

	flights, err := s.repo.Search(ctx, f, order)
	if err != nil {
		return nil, err
	}
	metrics.IncSearch("miss")

	if cacheable {
		if err := s.cache.SetSearch(ctx, version, key, flights); err != nil {
			log.Printf("flight search cache write %q: %v", key, err)
		}
	}
	return flights, nil
}

func (s *FlightService) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	return s.repo.Get(ctx, id)
}

func (s *FlightService) Create(ctx context.Context, flight *domain.Flight) (*domain.Flight, error) {
	if err := flight.Validate(); err != nil {
		return nil, err
	}
	flight.DepartureAirportCode = strings.ToUpper(flight.DepartureAirportCode)
	flight.ArrivalAirportCode = strings.ToUpper(flight.ArrivalAirportCode)

	created, err := s.repo.Create(ctx, flight)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return created, nil
}

func (s *FlightService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Destroy(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *FlightService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateFlights(ctx); err != nil {
		log.Printf("invalidate flights cache: %v", err)
	}
}

var _ FlightUseCase = (*FlightService)(nil)
