// Package relay bridges telemetry between processes over Kafka: the producer
// side mirrors device readings onto a shared topic keyed by device id, and the
// consumer side republishes received messages onto this process's event bus as
// device-update events on per-device channels.
package relay

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
)

// Producer writes device readings to the shared relay topic.
type Producer struct {
	writer *kafka.Writer
}

// NewProducer creates a relay producer. brokers must be non-empty. Call Close
// when shutting down.
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
	}
	return &Producer{writer: writer}
}

// Publish writes a reading keyed by device id so all readings for one device
// land on the same partition, preserving their order for consumers.
func (p *Producer) Publish(ctx context.Context, deviceID string, payload []byte) error {
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return p.writer.WriteMessages(writeCtx, kafka.Message{
		Key:   []byte(deviceID),
		Value: payload,
	})
}

// Close closes the Kafka writer. Safe to call multiple times.
func (p *Producer) Close() error {
	return p.writer.Close()
}
