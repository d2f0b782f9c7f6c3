package flights

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/flightbooking/internal/cache"
	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/filter"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockFlightRepository struct {
	mock.Mock
}

func (m *MockFlightRepository) Create(ctx context.Context, flight *domain.Flight) (*domain.Flight, error) {
	args := m.Called(ctx, flight)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) Get(ctx context.Context, id int64) (*domain.Flight, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) Destroy(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockFlightRepository) Search(ctx context.Context, f filter.FlightFilter, order filter.SortOrder) ([]domain.FlightDetails, error) {
	args := m.Called(ctx, f, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FlightDetails), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetSearch(ctx context.Context, key string) ([]domain.FlightDetails, int64, bool, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Bool(2), args.Error(3)
	}
	return args.Get(0).([]domain.FlightDetails), args.Get(1).(int64), args.Bool(2), args.Error(3)
}

func (m *MockCache) SetSearch(ctx context.Context, version int64, key string, flights []domain.FlightDetails) error {
	args := m.Called(ctx, version, key, flights)
	return args.Error(0)
}

func (m *MockCache) InvalidateFlights(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func newBuilder() *filter.Builder {
	return filter.NewBuilder(filter.DefaultPriceCeiling, time.UTC)
}

func sampleFlight() domain.Flight {
	dep := time.Date(2026, 1, 20, 6, 15, 0, 0, time.UTC)
	return domain.Flight{
		ID:                   4,
		FlightNumber:         "UK 808",
		AirplaneID:           1,
		DepartureAirportCode: "MUM",
		ArrivalAirportCode:   "LGB",
		DepartureTime:        dep,
		ArrivalTime:          dep.Add(time.Hour),
		Price:                7800,
		TotalSeats:           149,
	}
}

func sampleDetails() domain.FlightDetails {
	return domain.FlightDetails{
		Flight:   sampleFlight(),
		Airplane: domain.Airplane{ID: 1, ModelNumber: "Airbus A320", Capacity: 180},
	}
}

func TestFlightService_Search_CacheMiss(t *testing.T) {
	repo := &MockFlightRepository{}
	cache := &MockCache{}
	service := NewFlightService(repo, newBuilder(), cache)
	ctx := context.Background()

	flights := []domain.FlightDetails{sampleDetails()}
	wantFilter := filter.FlightFilter{Route: &filter.Route{DepartureAirportCode: "MUM", ArrivalAirportCode: "LGB"}}
	wantOrder := filter.SortOrder{{Field: filter.SortPrice, Direction: filter.Asc}}
	key := filter.CacheKey(wantFilter, wantOrder)

	cache.On("GetSearch", ctx, key).Return(nil, int64(7), false, nil).Once()
	repo.On("Search", ctx, wantFilter, wantOrder).Return(flights, nil).Once()
	cache.On("SetSearch", ctx, int64(7), key, flights).Return(nil).Once()

	result, err := service.Search(ctx, map[string]string{"trips": "MUM-LGB", "sort": "price_ASC"})
	require.NoError(t, err)
	assert.Equal(t, flights, result)
	cache.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestFlightService_Search_CacheHit(t *testing.T) {
	repo := &MockFlightRepository{}
	cache := &MockCache{}
	service := NewFlightService(repo, newBuilder(), cache)
	ctx := context.Background()

	flights := []domain.FlightDetails{sampleDetails()}
	cache.On("GetSearch", ctx, "sort=").Return(flights, int64(2), true, nil).Once()

	result, err := service.Search(ctx, map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, flights, result)
	repo.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)
	cache.AssertNotCalled(t, "SetSearch", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestFlightService_Search_CacheErrorFallsBack(t *testing.T) {
	repo := &MockFlightRepository{}
	cache := &MockCache{}
	service := NewFlightService(repo, newBuilder(), cache)
	ctx := context.Background()

	flights := []domain.FlightDetails{sampleDetails()}
	cache.On("GetSearch", ctx, "sort=").Return(nil, int64(0), false, errors.New("cache error")).Once()
	repo.On("Search", ctx, filter.FlightFilter{}, filter.SortOrder(nil)).Return(flights, nil).Once()

	result, err := service.Search(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, flights, result)
	cache.AssertNotCalled(t, "SetSearch", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	cache.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestFlightService_Search_CacheWriteErrorIgnored(t *testing.T) {
	repo := &MockFlightRepository{}
	cache := &MockCache{}
	service := NewFlightService(repo, newBuilder(), cache)
	ctx := context.Background()

	flights := []domain.FlightDetails{sampleDetails()}
	cache.On("GetSearch", ctx, "sort=").Return(nil, int64(1), false, nil).Once()
	repo.On("Search", ctx, filter.FlightFilter{}, filter.SortOrder(nil)).Return(flights, nil).Once()
	cache.On("SetSearch", ctx, int64(1), "sort=", flights).Return(errors.New("cache error")).Once()

	result, err := service.Search(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, flights, result)
	cache.AssertExpectations(t)
}

// An adjustment that commits and invalidates while a search is reading must
// not leave the pre-commit rows visible to later searches.
func TestFlightService_Search_InvalidationDuringReadIsNotCached(t *testing.T) {
	db, rmock := redismock.NewClientMock()
	redisCache := cache.NewRedisCacheWithClient(db, time.Minute)
	repo := &MockFlightRepository{}
	service := NewFlightService(repo, newBuilder(), redisCache)
	ctx := context.Background()

	wantFilter := filter.FlightFilter{MinSeats: func() *int { n := 5; return &n }()}
	key := filter.CacheKey(wantFilter, nil)

	before := sampleDetails()
	before.TotalSeats = 5
	stale := []domain.FlightDetails{before}
	stalePayload, err := json.Marshal(stale)
	require.NoError(t, err)
	fresh := []domain.FlightDetails{}
	freshPayload, err := json.Marshal(fresh)
	require.NoError(t, err)

	rmock.ExpectGet("cache:flights:version").SetVal("3")
	rmock.ExpectGet("cache:flights:v3:" + key).RedisNil()
	rmock.ExpectIncr("cache:flights:version").SetVal(4)
	rmock.ExpectSet("cache:flights:v3:"+key, stalePayload, time.Minute).SetVal("OK")
	rmock.ExpectGet("cache:flights:version").SetVal("4")
	rmock.ExpectGet("cache:flights:v4:" + key).RedisNil()
	rmock.ExpectSet("cache:flights:v4:"+key, freshPayload, time.Minute).SetVal("OK")

	repo.On("Search", ctx, wantFilter, filter.SortOrder(nil)).
		Run(func(mock.Arguments) {
			// the last five seats are sold while the rows are in flight
			require.NoError(t, redisCache.InvalidateFlights(ctx))
		}).
		Return(stale, nil).Once()
	repo.On("Search", ctx, wantFilter, filter.SortOrder(nil)).Return(fresh, nil).Once()

	first, err := service.Search(ctx, map[string]string{"travellers": "5"})
	require.NoError(t, err)
	assert.Equal(t, stale, first)

	second, err := service.Search(ctx, map[string]string{"travellers": "5"})
	require.NoError(t, err)
	assert.Empty(t, second)
	repo.AssertExpectations(t)
	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestFlightService_Search_InvalidFilter(t *testing.T) {
	repo := &MockFlightRepository{}
	cache := &MockCache{}
	service := NewFlightService(repo, newBuilder(), cache)

	_, err := service.Search(context.Background(), map[string]string{"price": "9000-100"})
	assert.ErrorIs(t, err, domain.ErrInvalidFilter)
	repo.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)
	cache.AssertNotCalled(t, "GetSearch", mock.Anything, mock.Anything)
}

func TestFlightService_Search_RepositoryError(t *testing.T) {
	repo := &MockFlightRepository{}
	service := NewFlightService(repo, newBuilder(), nil)
	ctx := context.Background()

	repo.On("Search", ctx, filter.FlightFilter{}, filter.SortOrder(nil)).Return(nil, domain.ErrStorageFailure).Once()

	result, err := service.Search(ctx, map[string]string{})
	assert.ErrorIs(t, err, domain.ErrStorageFailure)
	assert.Nil(t, result)
}

func TestFlightService_GetByID(t *testing.T) {
	repo := &MockFlightRepository{}
	service := NewFlightService(repo, newBuilder(), nil)
	ctx := context.Background()

	flight := sampleFlight()
	repo.On("Get", ctx, int64(4)).Return(&flight, nil).Once()
	repo.On("Get", ctx, int64(999)).Return(nil, domain.ErrNotFound).Once()

	result, err := service.GetByID(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, &flight, result)

	_, err = service.GetByID(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFlightService_Create(t *testing.T) {
	repo := &MockFlightRepository{}
	cache := &MockCache{}
	service := NewFlightService(repo, newBuilder(), cache)
	ctx := context.Background()

	input := sampleFlight()
	input.ID = 0
	input.DepartureAirportCode = "mum"
	created := sampleFlight()

	repo.On("Create", ctx, mock.MatchedBy(func(f *domain.Flight) bool {
		return f.DepartureAirportCode == "MUM"
	})).Return(&created, nil).Once()
	cache.On("InvalidateFlights", ctx).Return(nil).Once()

	result, err := service.Create(ctx, &input)
	require.NoError(t, err)
	assert.Equal(t, int64(4), result.ID)
	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestFlightService_Create_Invalid(t *testing.T) {
	repo := &MockFlightRepository{}
	service := NewFlightService(repo, newBuilder(), nil)

	input := sampleFlight()
	input.ArrivalTime = input.DepartureTime.Add(-time.Hour)

	_, err := service.Create(context.Background(), &input)
	assert.ErrorIs(t, err, domain.ErrValidation)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestFlightService_Delete(t *testing.T) {
	repo := &MockFlightRepository{}
	cache := &MockCache{}
	service := NewFlightService(repo, newBuilder(), cache)
	ctx := context.Background()

	repo.On("Destroy", ctx, int64(4)).Return(nil).Once()
	repo.On("Destroy", ctx, int64(5)).Return(domain.ErrNotFound).Once()
	cache.On("InvalidateFlights", ctx).Return(errors.New("redis down")).Once()

	require.NoError(t, service.Delete(ctx, 4))
	assert.ErrorIs(t, service.Delete(ctx, 5), domain.ErrNotFound)
	cache.AssertExpectations(t)
}
