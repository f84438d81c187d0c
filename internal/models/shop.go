package models

import "github.com/google/uuid"

// shop status
const (
	ShopStatusActive    = "active"
	ShopStatusPending   = "pending"
	ShopStatusClosed    = "closed"
	ShopStatusSuspended = "suspended"
)

// Shop is the partial shop view used for order acceptance and
// delivery-roster checks. Never mutated here.
type Shop struct {
	ID     uuid.UUID
	Name   string
	Status string
}
