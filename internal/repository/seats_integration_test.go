package repository_test

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/repository"
	"github.com/Domenick1991/flightbooking/internal/service/inventory"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

const flightsDDL = `CREATE TABLE flights (
	id BIGSERIAL PRIMARY KEY,
	flight_number TEXT NOT NULL,
	airplane_id BIGINT NOT NULL,
	departure_airport_code TEXT NOT NULL,
	arrival_airport_code TEXT NOT NULL,
	departure_time TIMESTAMPTZ NOT NULL,
	arrival_time TIMESTAMPTZ NOT NULL,
	price INTEGER NOT NULL,
	boarding_gate TEXT,
	total_seats INTEGER NOT NULL CHECK (total_seats >= 0),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// testPool connects to POSTGRES_DSN inside a throwaway schema.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_DSN not set")
	}
	ctx := context.Background()

	admin, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	if err := admin.Ping(ctx); err != nil {
		admin.Close()
		t.Skipf("postgres unreachable: %v", err)
	}

	schema := fmt.Sprintf("seats_test_%d", time.Now().UnixNano())
	_, err = admin.Exec(ctx, "CREATE SCHEMA "+schema)
	require.NoError(t, err)

	cfg, err := pgxpool.ParseConfig(dsn)
	require.NoError(t, err)
	cfg.ConnConfig.RuntimeParams["search_path"] = schema
	cfg.MaxConns = 16
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	require.NoError(t, err)

	t.Cleanup(func() {
		pool.Close()
		_, _ = admin.Exec(context.Background(), "DROP SCHEMA "+schema+" CASCADE")
		admin.Close()
	})

	_, err = pool.Exec(ctx, flightsDDL)
	require.NoError(t, err)
	return pool
}

func seedFlight(t *testing.T, repo *repository.PGFlightRepository, number string, seats int) *domain.Flight {
	t.Helper()
	dep := time.Date(2026, 1, 20, 6, 15, 0, 0, time.UTC)
	f, err := repo.Create(context.Background(), &domain.Flight{
		FlightNumber:         number,
		AirplaneID:           1,
		DepartureAirportCode: "MUM",
		ArrivalAirportCode:   "LGB",
		DepartureTime:        dep,
		ArrivalTime:          dep.Add(time.Hour),
		Price:                5000,
		TotalSeats:           seats,
	})
	require.NoError(t, err)
	return f
}

func TestSeats_ConcurrentAdjustmentsSumUp(t *testing.T) {
	pool := testPool(t)
	repo := repository.NewFlightRepository(pool, 5*time.Second)
	m := inventory.NewManager(repo)
	flight := seedFlight(t, repo, "UK 808", 100)

	var g errgroup.Group
	for i := 0; i < 40; i++ {
		dir := domain.SeatDecrement
		if i%4 == 0 {
			dir = domain.SeatIncrement
		}
		g.Go(func() error {
			_, err := m.AdjustSeats(context.Background(), domain.SeatAdjustment{FlightID: flight.ID, Seats: 2, Direction: dir})
			return err
		})
	}
	require.NoError(t, g.Wait())

	// 10 increments and 30 decrements of 2 seats each.
	got, err := repo.Get(context.Background(), flight.ID)
	require.NoError(t, err)
	assert.Equal(t, 100+10*2-30*2, got.TotalSeats)
}

func TestSeats_NeverOversold(t *testing.T) {
	pool := testPool(t)
	repo := repository.NewFlightRepository(pool, 5*time.Second)
	m := inventory.NewManager(repo)
	flight := seedFlight(t, repo, "AI 101", 5)

	var ok, rejected atomic.Int32
	var g errgroup.Group
	for i := 0; i < 12; i++ {
		g.Go(func() error {
			_, err := m.AdjustSeats(context.Background(), domain.SeatAdjustment{FlightID: flight.ID, Seats: 1, Direction: domain.SeatDecrement})
			switch {
			case err == nil:
				ok.Add(1)
			case assert.ErrorIs(t, err, domain.ErrCapacityExceeded):
				rejected.Add(1)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(5), ok.Load())
	assert.Equal(t, int32(7), rejected.Load())
	got, err := repo.Get(context.Background(), flight.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.TotalSeats)
}

func TestSeats_LockTimeoutAndIndependentFlights(t *testing.T) {
	pool := testPool(t)
	repo := repository.NewFlightRepository(pool, 200*time.Millisecond)
	m := inventory.NewManager(repo)
	held := seedFlight(t, repo, "6E 200", 10)
	other := seedFlight(t, repo, "6E 201", 10)
	ctx := context.Background()

	tx, err := repo.BeginSeatTx(ctx)
	require.NoError(t, err)
	_, err = tx.LockFlight(ctx, held.ID)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = m.AdjustSeats(ctx, domain.SeatAdjustment{FlightID: held.ID, Seats: 1, Direction: domain.SeatDecrement})
	assert.ErrorIs(t, err, domain.ErrContentionTimeout)

	f, err := m.AdjustSeats(ctx, domain.SeatAdjustment{FlightID: other.ID, Seats: 1, Direction: domain.SeatDecrement})
	require.NoError(t, err)
	assert.Equal(t, 9, f.TotalSeats)

	require.NoError(t, tx.Rollback(ctx))
	got, err := repo.Get(ctx, held.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.TotalSeats)
}

func TestSeats_UnknownFlight(t *testing.T) {
	pool := testPool(t)
	repo := repository.NewFlightRepository(pool, time.Second)
	m := inventory.NewManager(repo)

	_, err := m.AdjustSeats(context.Background(), domain.SeatAdjustment{FlightID: 999999, Seats: 1, Direction: domain.SeatIncrement})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
