package notify

import (
	"context"
	"log/slog"

	"fraudguard/internal/config"
	"fraudguard/internal/model"
)

// Publisher delivers high-risk alert payloads. Delivery is at-most-once and
// a failure never changes the decision that triggered it.
type Publisher interface {
	Publish(ctx context.Context, payload model.AlertPayload) error
	Close() error
}

// NewPublisher picks the kafka publisher when configured, otherwise a
// logging publisher so alerts are still visible.
func NewPublisher(cfg config.AlertsConfig, logger *slog.Logger) Publisher {
	if cfg.Kafka.Enabled {
		return NewKafka(cfg.Kafka)
	}
	return NewLog(logger)
}
