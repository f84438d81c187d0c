package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProduct_EffectivePrice(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	window := func(kind string, value float64, start, end time.Time, active bool) Discount {
		return Discount{Kind: kind, Value: value, StartDate: start, EndDate: end, IsActive: active}
	}

	tests := []struct {
		name      string
		price     float64
		discounts []Discount
		want      float64
	}{
		{
			name:  "no_discounts",
			price: 100,
			want:  100,
		},
		{
			name:  "percentage",
			price: 100,
			discounts: []Discount{
				window(DiscountPercentage, 10, now.Add(-time.Hour), now.Add(time.Hour), true),
			},
			want: 90,
		},
		{
			name:  "fixed",
			price: 100,
			discounts: []Discount{
				window(DiscountFixed, 20, now.Add(-time.Hour), now.Add(time.Hour), true),
			},
			want: 80,
		},
		{
			name:  "fixed_never_negative",
			price: 10,
			discounts: []Discount{
				window(DiscountFixed, 25, now.Add(-time.Hour), now.Add(time.Hour), true),
			},
			want: 0,
		},
		{
			name:  "inactive_skipped",
			price: 100,
			discounts: []Discount{
				window(DiscountPercentage, 10, now.Add(-time.Hour), now.Add(time.Hour), false),
			},
			want: 100,
		},
		{
			name:  "before_window",
			price: 100,
			discounts: []Discount{
				window(DiscountPercentage, 10, now.Add(time.Hour), now.Add(2*time.Hour), true),
			},
			want: 100,
		},
		{
			name:  "after_window",
			price: 100,
			discounts: []Discount{
				window(DiscountPercentage, 10, now.Add(-2*time.Hour), now.Add(-time.Hour), true),
			},
			want: 100,
		},
		{
			name:  "window_edges_inclusive",
			price: 100,
			discounts: []Discount{
				window(DiscountPercentage, 10, now, now, true),
			},
			want: 90,
		},
		{
			name:  "first_active_wins",
			price: 100,
			discounts: []Discount{
				window(DiscountPercentage, 10, now.Add(time.Hour), now.Add(2*time.Hour), true),
				window(DiscountFixed, 30, now.Add(-time.Hour), now.Add(time.Hour), true),
				window(DiscountPercentage, 50, now.Add(-time.Hour), now.Add(time.Hour), true),
			},
			want: 70,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Product{Price: tt.price, Discounts: tt.discounts}
			assert.Equal(t, tt.want, p.EffectivePrice(now))
		})
	}
}
