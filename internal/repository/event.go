package repository

import (
	"context"

	"github.com/vendora/vendora/internal/models"
	"github.com/vendora/vendora/internal/repository/postgres"
)

const (
	selectUnpublishedEventsQuery = `
						SELECT id, order_id, event_type, payload, created_at FROM order_events
						WHERE published_at IS NULL
						ORDER BY id
						LIMIT $1
`
	markEventPublishedQuery = `
						UPDATE order_events
						SET published_at = now()
						WHERE id = $1
`
)

// EventRepository implements the order event outbox
type EventRepository struct {
	db *postgres.DB
}

// NewEventRepository creates new EventRepository instance
func NewEventRepository(db *postgres.DB) *EventRepository {
	return &EventRepository{db: db}
}

// GetUnpublishedEvents returns up to limit pending outbox rows in insert order
func (er *EventRepository) GetUnpublishedEvents(ctx context.Context, limit int) ([]models.OrderEvent, error) {
	rows, err := er.db.Query(ctx, selectUnpublishedEventsQuery, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []models.OrderEvent{}

	for rows.Next() {
		event := models.OrderEvent{}
		err = rows.Scan(&event.ID, &event.OrderID, &event.EventType, &event.Payload, &event.CreatedAt)
		if err != nil {
			continue
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

// MarkEventPublished stamps the outbox row as delivered
func (er *EventRepository) MarkEventPublished(ctx context.Context, id uint64) error {
	cmd, err := er.db.Exec(ctx, markEventPublishedQuery, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrDataNotFound
	}
	return nil
}
