package models

import (
	"time"

	"github.com/google/uuid"
)

// order event types
const (
	EventOrderCreated       = "order_created"
	EventOrderStatusChanged = "order_status_changed"
)

// OrderEvent is one outbox row. Rows are written in the same transaction
// as the order change and drained by the outbox worker.
type OrderEvent struct {
	ID          uint64
	OrderID     uuid.UUID
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
	PublishedAt *time.Time
}
