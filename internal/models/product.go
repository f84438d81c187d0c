package models

import (
	"time"

	"github.com/google/uuid"
)

// discount kind
const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

// Discount is a time-bounded price reduction on a product
type Discount struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	Kind      string
	Value     float64
	StartDate time.Time
	EndDate   time.Time
	IsActive  bool
}

// Product is the partial catalog view the order engine operates on.
// Stock is the only field the engine writes.
type Product struct {
	ID        uuid.UUID
	ShopID    uuid.UUID
	Name      string
	Price     float64
	Stock     int
	IsActive  bool
	Discounts []Discount
}

// EffectivePrice returns the unit price after applying the first discount
// active at the given time. At most one discount is applied.
func (p *Product) EffectivePrice(now time.Time) float64 {
	price := p.Price
	for _, d := range p.Discounts {
		if !d.IsActive || now.Before(d.StartDate) || now.After(d.EndDate) {
			continue
		}
		switch d.Kind {
		case DiscountPercentage:
			price = price * (1 - d.Value/100)
		case DiscountFixed:
			price = price - d.Value
			if price < 0 {
				price = 0
			}
		}
		break
	}
	return price
}
