package domain

import (
	"fmt"
	"math"
	"strings"
)

// MaxCount bounds every integer stored in an INTEGER column: prices, seat
// counters and the deltas applied to them.
const MaxCount = math.MaxInt32

type SeatDirection string

const (
	// SeatDecrement reserves seats (booking).
	SeatDecrement SeatDirection = "decrement"
	// SeatIncrement releases seats (cancellation, refund).
	SeatIncrement SeatDirection = "increment"
)

// ParseSeatDirection accepts the direction names case-insensitively.
func ParseSeatDirection(s string) (SeatDirection, error) {
	switch SeatDirection(strings.ToLower(strings.TrimSpace(s))) {
	case SeatDecrement:
		return SeatDecrement, nil
	case SeatIncrement:
		return SeatIncrement, nil
	}
	return "", fmt.Errorf("%w: unknown direction %q", ErrInvalidAdjustment, s)
}

// SeatAdjustment lives for the duration of a single adjust call.
type SeatAdjustment struct {
	FlightID       int64
	Seats          int
	Direction      SeatDirection
	IdempotencyKey string
}

func (a SeatAdjustment) Validate() error {
	if a.FlightID <= 0 {
		return fmt.Errorf("%w: flight id must be positive", ErrInvalidAdjustment)
	}
	if a.Seats <= 0 || a.Seats > MaxCount {
		return fmt.Errorf("%w: seats must be between 1 and %d", ErrInvalidAdjustment, MaxCount)
	}
	if a.Direction != SeatDecrement && a.Direction != SeatIncrement {
		return fmt.Errorf("%w: unknown direction %q", ErrInvalidAdjustment, a.Direction)
	}
	return nil
}

// Apply returns the counter after the adjustment. A decrement larger than
// the current count fails with ErrCapacityExceeded; an increment past
// MaxCount fails with ErrInvalidAdjustment.
func (a SeatAdjustment) Apply(current int) (int, error) {
	if a.Direction == SeatIncrement {
		if a.Seats > MaxCount-current {
			return current, fmt.Errorf("%w: %d remaining plus %d seats exceeds %d", ErrInvalidAdjustment, current, a.Seats, MaxCount)
		}
		return current + a.Seats, nil
	}
	if a.Seats > current {
		return current, fmt.Errorf("%w: requested %d seats, %d remaining", ErrCapacityExceeded, a.Seats, current)
	}
	return current - a.Seats, nil
}

// Signed is the delta as it affects the counter.
func (a SeatAdjustment) Signed() int {
	if a.Direction == SeatDecrement {
		return -a.Seats
	}
	return a.Seats
}
