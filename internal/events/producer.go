package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

const publishTimeout = 5 * time.Second

// Producer writes order lifecycle audit records to the order_events topic,
// keyed by order id so one order's records stay in sequence.
type Producer struct {
	writer *kafka.Writer
	log    *slog.Logger
}

func NewProducer(brokers []string, topic string, log *slog.Logger) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.Hash{},
		},
		log: log,
	}
}

func (p *Producer) publish(ctx context.Context, orderID uint, event map[string]any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("kafka: json.Marshal failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(orderID), 10)),
		Value: data,
	})
}

// Emit publishes one audit record. Failures are logged, never propagated: the
// audit stream must not fail the triggering request.
func (p *Producer) Emit(ctx context.Context, orderID uint, eventType string, fields map[string]any) {
	if p == nil || p.writer == nil {
		return
	}
	event := map[string]any{
		"type":     eventType,
		"order_id": orderID,
		"at":       time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range fields {
		event[k] = v
	}
	if err := p.publish(ctx, orderID, event); err != nil {
		p.log.Error("kafka publish failed", "type", eventType, "order_id", orderID, "err", err)
	}
}

func (p *Producer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
