package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Coupon is a discount code. Codes are stored lower-cased.
type Coupon struct {
	ID            string          `json:"id"`
	Code          string          `json:"code"`
	DiscountType  DiscountType    `json:"discount_type"`
	DiscountValue decimal.Decimal `json:"discount_value"`
	Active        bool            `json:"active"`
	UsageCount    int             `json:"usage_count"`
	MaxUsage      int             `json:"max_usage"` // 0 means unlimited
	ExpiresAt     time.Time       `json:"expires_at,omitempty"`
}

// Usable reports whether the coupon can still be redeemed at the given
// time: active, under its usage ceiling and not expired.
func (c *Coupon) Usable(now time.Time) bool {
	if !c.Active {
		return false
	}
	if c.MaxUsage > 0 && c.UsageCount >= c.MaxUsage {
		return false
	}
	if !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt) {
		return false
	}
	return true
}

// Apply returns the discounted price for the given original price.
// The result is always within [0, price].
func (c *Coupon) Apply(price decimal.Decimal) decimal.Decimal {
	var discounted decimal.Decimal
	switch c.DiscountType {
	case DiscountPercentage:
		discounted = price.Sub(price.Mul(c.DiscountValue).Div(decimal.NewFromInt(100)))
	case DiscountFixed:
		discounted = price.Sub(c.DiscountValue)
	default:
		return price
	}

	if discounted.IsNegative() {
		return decimal.Zero
	}
	if discounted.GreaterThan(price) {
		return price
	}
	return discounted
}
