package worker

import (
	"context"
	"time"

	"github.com/vendora/vendora/internal/logger"
	"github.com/vendora/vendora/internal/models"
	"go.uber.org/zap"
)

const (
	drainInterval = 5 * time.Second
	drainBatch    = 100
)

// EventRepository is the outbox view the processor drains
type EventRepository interface {
	// GetUnpublishedEvents returns up to limit pending outbox rows
	GetUnpublishedEvents(ctx context.Context, limit int) ([]models.OrderEvent, error)
	// MarkEventPublished stamps the outbox row as delivered
	MarkEventPublished(ctx context.Context, id uint64) error
}

// EventPublisher delivers outbox payloads to the broker
type EventPublisher interface {
	Publish(ctx context.Context, key string, payload []byte) error
}

// OutboxProcessor is worker draining order events to the broker
type OutboxProcessor struct {
	repo EventRepository
	pub  EventPublisher
}

// NewOutboxProcessor creates new outbox processor
func NewOutboxProcessor(repo EventRepository, pub EventPublisher) *OutboxProcessor {
	return &OutboxProcessor{repo: repo, pub: pub}
}

// ProcessEvents polls the outbox and publishes pending events in insert
// order until the context is cancelled. A failed publish stops the
// batch so ordering is preserved on retry.
func (op *OutboxProcessor) ProcessEvents(ctx context.Context) {
	ticker := time.NewTicker(drainInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Log.Debug("outbox processor is done")
			return
		case <-ticker.C:
			if err := op.drain(ctx); err != nil {
				logger.Log.Error("drain outbox", zap.Error(err))
			}
		}
	}
}

func (op *OutboxProcessor) drain(ctx context.Context) error {
	events, err := op.repo.GetUnpublishedEvents(ctx, drainBatch)
	if err != nil {
		return err
	}

	for _, event := range events {
		if err := op.pub.Publish(ctx, event.OrderID.String(), event.Payload); err != nil {
			return err
		}
		if err := op.repo.MarkEventPublished(ctx, event.ID); err != nil {
			return err
		}
		logger.Log.Debug("order event published",
			zap.Uint64("id", event.ID),
			zap.String("type", event.EventType))
	}

	return nil
}
