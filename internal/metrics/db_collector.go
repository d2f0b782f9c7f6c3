package metrics

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
)

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const inventoryGaugesSQL = `
SELECT COUNT(*) FILTER (WHERE total_seats = 0), COALESCE(SUM(total_seats), 0)
FROM flights
WHERE departure_time > now()`

// StartDBCollectors refreshes the inventory gauges every interval until ctx
// is done.
func StartDBCollectors(ctx context.Context, db querier, interval time.Duration, logger *log.Logger) {
	if db == nil {
		return
	}
	if logger == nil {
		logger = log.Default()
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()

		updateDBGauges(ctx, db, logger)
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				updateDBGauges(ctx, db, logger)
			}
		}
	}()
}

func updateDBGauges(ctx context.Context, db querier, logger *log.Logger) {
	var soldOut, remaining int64
	if err := db.QueryRow(ctx, inventoryGaugesSQL).Scan(&soldOut, &remaining); err != nil {
		logger.Printf("metrics db query flights: %v", err)
		return
	}
	SetInventoryGauges(soldOut, remaining)
}
