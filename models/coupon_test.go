package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCouponUsable(t *testing.T) {
	now := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		coupon Coupon
		want   bool
	}{
		{"active no limits", Coupon{Active: true}, true},
		{"inactive", Coupon{Active: false}, false},
		{"under usage ceiling", Coupon{Active: true, MaxUsage: 5, UsageCount: 4}, true},
		{"at usage ceiling", Coupon{Active: true, MaxUsage: 5, UsageCount: 5}, false},
		{"zero max means unlimited", Coupon{Active: true, MaxUsage: 0, UsageCount: 1000}, true},
		{"not yet expired", Coupon{Active: true, ExpiresAt: now.Add(time.Hour)}, true},
		{"expired", Coupon{Active: true, ExpiresAt: now.Add(-time.Hour)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.coupon.Usable(now))
		})
	}
}

func TestCouponApply(t *testing.T) {
	price := decimal.RequireFromString("918.75")

	tests := []struct {
		name   string
		coupon Coupon
		want   string
	}{
		{
			"ten percent off",
			Coupon{DiscountType: DiscountPercentage, DiscountValue: decimal.RequireFromString("10")},
			"826.875",
		},
		{
			"fixed amount off",
			Coupon{DiscountType: DiscountFixed, DiscountValue: decimal.RequireFromString("100")},
			"818.75",
		},
		{
			"fixed larger than price clamps to zero",
			Coupon{DiscountType: DiscountFixed, DiscountValue: decimal.RequireFromString("2000")},
			"0",
		},
		{
			"hundred percent",
			Coupon{DiscountType: DiscountPercentage, DiscountValue: decimal.RequireFromString("100")},
			"0",
		},
		{
			"negative value never raises the price",
			Coupon{DiscountType: DiscountFixed, DiscountValue: decimal.RequireFromString("-50")},
			"918.75",
		},
		{
			"unknown type leaves price unchanged",
			Coupon{DiscountType: "buy_one_get_one", DiscountValue: decimal.RequireFromString("10")},
			"918.75",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.coupon.Apply(price)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)),
				"got %s, want %s", got, tt.want)
		})
	}
}
