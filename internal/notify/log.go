package notify

import (
	"context"
	"log/slog"

	"fraudguard/internal/model"
)

type logPublisher struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) Publisher {
	return &logPublisher{logger: logger}
}

func (p *logPublisher) Publish(ctx context.Context, payload model.AlertPayload) error {
	if p.logger != nil {
		p.logger.Warn("high-risk transaction",
			"txn_id", payload.Transaction.TxnID,
			"user_id", payload.Transaction.UserID,
			"risk", payload.Risk,
			"rules", payload.Explanation.Rules,
		)
	}
	return nil
}

func (p *logPublisher) Close() error { return nil }
