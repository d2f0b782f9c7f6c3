// Package notify tells downstream parties about committed seat changes.
package notify

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/Domenick1991/flightbooking/internal/kafka"
)

type Sender struct {
	out io.Writer
}

// NewSender writes notices to out, or stdout when out is nil.
func NewSender(out io.Writer) *Sender {
	if out == nil {
		out = os.Stdout
	}
	return &Sender{out: out}
}

func (s *Sender) Send(ctx context.Context, event kafka.SeatEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(s.out, Message(event))
	return err
}

// Message renders the operator notice for event.
func Message(event kafka.SeatEvent) string {
	switch {
	case event.SoldOut():
		return fmt.Sprintf("flight %s (id %d) is sold out after %d seats were reserved",
			event.FlightNumber, event.FlightID, event.Seats)
	case event.Type == kafka.SeatsReserved:
		return fmt.Sprintf("%d seats reserved on flight %s (id %d), %d remaining",
			event.Seats, event.FlightNumber, event.FlightID, event.RemainingSeats)
	case event.Type == kafka.SeatsReleased:
		return fmt.Sprintf("%d seats released on flight %s (id %d), %d remaining",
			event.Seats, event.FlightNumber, event.FlightID, event.RemainingSeats)
	default:
		return fmt.Sprintf("unknown seat event %q for flight id %d", event.Type, event.FlightID)
	}
}
