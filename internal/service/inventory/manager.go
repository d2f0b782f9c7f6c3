// Package inventory serializes seat-count changes per flight. Mutual
// exclusion comes from the storage row lock held for the whole
// read-modify-write; the manager itself holds no in-process locks.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/kafka"
	"github.com/Domenick1991/flightbooking/internal/metrics"
	"github.com/Domenick1991/flightbooking/internal/repository"
	"github.com/google/uuid"
)

type SeatAdjuster interface {
	AdjustSeats(ctx context.Context, adj domain.SeatAdjustment) (*domain.Flight, error)
}

// Cache scopes idempotency keys to a flight, so one key may be reused
// across flights.
type Cache interface {
	ClaimIdempotencyKey(ctx context.Context, flightID int64, key string, ttl time.Duration) (bool, error)
	ReleaseIdempotencyKey(ctx context.Context, flightID int64, key string) error
	InvalidateFlights(ctx context.Context) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type Manager struct {
	store          repository.SeatStore
	cache          Cache
	producer       Producer
	topic          string
	opTimeout      time.Duration
	idempotencyTTL time.Duration
}

type Option func(*Manager)

// WithCache enables idempotency claims and search cache invalidation.
func WithCache(cache Cache, idempotencyTTL time.Duration) Option {
	return func(m *Manager) {
		m.cache = cache
		m.idempotencyTTL = idempotencyTTL
	}
}

func WithEvents(producer Producer, topic string) Option {
	return func(m *Manager) {
		m.producer = producer
		m.topic = topic
	}
}

// WithOperationTimeout bounds begin, lock, write and commit together.
func WithOperationTimeout(d time.Duration) Option {
	return func(m *Manager) {
		m.opTimeout = d
	}
}

func NewManager(store repository.SeatStore, opts ...Option) *Manager {
	m := &Manager{store: store}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AdjustSeats applies adj to the flight's remaining seats and returns the
// committed flight. Concurrent calls on one flight are totally ordered by the
// row lock; calls on different flights do not block each other.
func (m *Manager) AdjustSeats(ctx context.Context, adj domain.SeatAdjustment) (*domain.Flight, error) {
	start := time.Now()
	flight, err := m.adjustSeats(ctx, adj)
	metrics.ObserveSeatAdjustment(string(adj.Direction), outcome(err), time.Since(start))
	return flight, err
}

func (m *Manager) adjustSeats(ctx context.Context, adj domain.SeatAdjustment) (*domain.Flight, error) {
	if err := adj.Validate(); err != nil {
		return nil, err
	}

	claimed := false
	if adj.IdempotencyKey != "" && m.cache != nil {
		ok, err := m.cache.ClaimIdempotencyKey(ctx, adj.FlightID, adj.IdempotencyKey, m.idempotencyTTL)
		if err != nil {
			return nil, fmt.Errorf("%w: claim idempotency key: %w", domain.ErrStorageFailure, err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: idempotency key %q already used", domain.ErrDuplicateRequest, adj.IdempotencyKey)
		}
		claimed = true
	}

	flight, err := m.lockAndApply(ctx, adj)
	if err != nil {
		if claimed {
			if relErr := m.cache.ReleaseIdempotencyKey(context.WithoutCancel(ctx), adj.FlightID, adj.IdempotencyKey); relErr != nil {
				log.Printf("release idempotency key %q: %v", adj.IdempotencyKey, relErr)
			}
		}
		return nil, err
	}

	m.afterCommit(ctx, adj, flight)
	return flight, nil
}

func (m *Manager) lockAndApply(ctx context.Context, adj domain.SeatAdjustment) (*domain.Flight, error) {
	if m.opTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.opTimeout)
		defer cancel()
	}

	tx, err := m.store.BeginSeatTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin seat tx: %w", classify(err))
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			log.Printf("rollback seat tx for flight %d: %v", adj.FlightID, rbErr)
		}
	}()

	flight, err := tx.LockFlight(ctx, adj.FlightID)
	if err != nil {
		return nil, fmt.Errorf("lock flight %d: %w", adj.FlightID, classify(err))
	}

	next, err := adj.Apply(flight.TotalSeats)
	if err != nil {
		return nil, fmt.Errorf("flight %d: %w", adj.FlightID, err)
	}
	flight.TotalSeats = next

	if err := tx.UpdateTotalSeats(ctx, flight); err != nil {
		return nil, fmt.Errorf("update seats of flight %d: %w", adj.FlightID, classify(err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit seats of flight %d: %w", adj.FlightID, classify(err))
	}
	committed = true

	return flight, nil
}

// afterCommit runs side effects that must not fail a committed adjustment.
func (m *Manager) afterCommit(ctx context.Context, adj domain.SeatAdjustment, flight *domain.Flight) {
	if m.cache != nil {
		if err := m.cache.InvalidateFlights(ctx); err != nil {
			log.Printf("invalidate flights cache after adjusting flight %d: %v", flight.ID, err)
		}
	}

	if m.producer == nil || m.topic == "" {
		return
	}
	eventType := kafka.SeatsReleased
	if adj.Direction == domain.SeatDecrement {
		eventType = kafka.SeatsReserved
	}
	event := kafka.SeatEvent{
		EventID:        uuid.NewString(),
		Type:           eventType,
		FlightID:       flight.ID,
		FlightNumber:   flight.FlightNumber,
		Seats:          adj.Seats,
		RemainingSeats: flight.TotalSeats,
		OccurredAt:     time.Now().UTC(),
	}
	if err := m.producer.Publish(ctx, m.topic, fmt.Sprint(flight.ID), event); err != nil {
		log.Printf("WARNING: failed to publish %s event for flight %d: %v", event.Type, flight.ID, err)
	}
}

// classify keeps errors that already carry a domain sentinel and files
// everything else under ErrStorageFailure.
func classify(err error) error {
	for _, known := range []error{
		domain.ErrNotFound,
		domain.ErrCapacityExceeded,
		domain.ErrContentionTimeout,
		domain.ErrStorageFailure,
	} {
		if errors.Is(err, known) {
			return err
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", domain.ErrContentionTimeout, err)
	}
	return fmt.Errorf("%w: %w", domain.ErrStorageFailure, err)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrInvalidAdjustment):
		return "invalid"
	case errors.Is(err, domain.ErrDuplicateRequest):
		return "duplicate"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrCapacityExceeded):
		return "capacity_exceeded"
	case errors.Is(err, domain.ErrContentionTimeout):
		return "contention"
	default:
		return "storage_failure"
	}
}

var _ SeatAdjuster = (*Manager)(nil)
