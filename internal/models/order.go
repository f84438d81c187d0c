package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// order lifecycle status
const (
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
	OrderStatusReturned   = "returned"
)

// payment status
const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

// payment method
const (
	PaymentMethodCash   = "cash"
	PaymentMethodCard   = "card"
	PaymentMethodPaypal = "paypal"
)

// delivery type
const (
	DeliveryTypeShop   = "shop"
	DeliveryTypeGlobal = "global"
)

// ValidTransitions maps each order status to the set of statuses it may
// move to. Cancelled and returned are terminal.
var ValidTransitions = map[string][]string{
	OrderStatusPending:    {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered, OrderStatusReturned},
	OrderStatusDelivered:  {OrderStatusReturned},
	OrderStatusCancelled:  {},
	OrderStatusReturned:   {},
}

// FormatOrderNumber renders the external ORD-YYMMDD-NNNN order number.
// The counter is a single global sequence: it keeps incrementing across
// day rollovers even though the number carries a date prefix.
func FormatOrderNumber(now time.Time, counter int64) string {
	return fmt.Sprintf("ORD-%s-%04d", now.Format("060102"), counter)
}

// OrderItem is a captured order line: product name and price are frozen
// at creation time.
type OrderItem struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	ProductID  uuid.UUID
	Name       string
	Quantity   int
	Price      float64
	TotalPrice float64
}

// StatusHistoryEntry is one append-only status log record
type StatusHistoryEntry struct {
	ID        uint64
	OrderID   uuid.UUID
	Status    string
	Note      string
	UpdatedBy uuid.UUID
	CreatedAt time.Time
}

// ShippingAddress is the order destination
type ShippingAddress struct {
	Street  string
	City    string
	State   string
	ZipCode string
	Country string
}

// PaymentDetails holds processor data attached on payment update
type PaymentDetails struct {
	TransactionID string
	Provider      string
	Amount        float64
	Date          time.Time
}

// ScheduledDelivery is an optional delivery window
type ScheduledDelivery struct {
	Date     time.Time
	TimeSlot string
}

// Order is the order aggregate
type Order struct {
	ID                  uuid.UUID
	OrderNumber         string
	CustomerID          uuid.UUID
	ShopID              uuid.UUID
	Items               []OrderItem
	Subtotal            float64
	Tax                 float64
	DeliveryFee         float64
	Discount            float64
	Total               float64
	PaymentMethod       string
	PaymentStatus       string
	PaymentDetails      *PaymentDetails
	Status              string
	StatusHistory       []StatusHistoryEntry
	ShippingAddress     *ShippingAddress
	DeliveryPersonnelID *uuid.UUID
	DeliveryType        string
	ScheduledDelivery   *ScheduledDelivery
	Notes               string
	CreatedAt           time.Time
	UpdatedAt           time.Time

	// display names resolved on single-order reads
	CustomerName          string
	ShopName              string
	DeliveryPersonnelName string
}

// OrderFilter narrows order listing. Nil/zero fields mean "no constraint".
type OrderFilter struct {
	CustomerID          *uuid.UUID
	ShopID              *uuid.UUID
	DeliveryPersonnelID *uuid.UUID
	Status              string
	StartDate           *time.Time
	EndDate             *time.Time
	Page                int
	Limit               int
}
