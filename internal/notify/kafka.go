package notify

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"fraudguard/internal/config"
	"fraudguard/internal/model"
)

type kafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafka(cfg config.KafkaAlertConfig) Publisher {
	return &kafkaPublisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(cfg.Brokers...),
			Topic:    cfg.Topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

func (p *kafkaPublisher) Publish(ctx context.Context, payload model.AlertPayload) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(payload.Transaction.TxnID),
		Value: value,
	})
}

func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}
