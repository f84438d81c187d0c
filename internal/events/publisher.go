package events

import (
	"context"
	"strings"

	"github.com/segmentio/kafka-go"
)

// Publisher writes order events to a kafka topic. A publisher built
// with no brokers is disabled and publishes nothing.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher creates new Publisher instance for the given brokers
// (comma separated) and topic
func NewPublisher(brokersCSV, topic string) *Publisher {
	brokers := []string{}
	for _, b := range strings.Split(brokersCSV, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	if len(brokers) == 0 {
		return &Publisher{}
	}

	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
	}
}

// Enabled reports whether the publisher has brokers configured
func (p *Publisher) Enabled() bool {
	return p.writer != nil
}

// Publish writes one message keyed by order id
func (p *Publisher) Publish(ctx context.Context, key string, payload []byte) error {
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: payload,
	})
}

// Close closes the underlying writer
func (p *Publisher) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
