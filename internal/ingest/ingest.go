package ingest

import (
	"context"
	"log/slog"
	"time"

	"fraudguard/internal/normalize"
)

func SendNonBlocking(ctx context.Context, out chan<- normalize.RawTransaction, raw normalize.RawTransaction, logger *slog.Logger) bool {
	select {
	case out <- raw:
		return true
	case <-ctx.Done():
		return false
	default:
		if logger != nil {
			logger.Warn("transaction channel full, dropping event", "user_id", raw.UserID, "txn_id", raw.TxnID)
		}
		return false
	}
}

func BackoffSleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		d = 200 * time.Millisecond
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
