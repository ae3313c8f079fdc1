package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"ticketbot/internal/status"
	"ticketbot/models"
)

// PBCouponStore serves coupon codes from the "coupons" collection.
type PBCouponStore struct {
	app core.App
}

func NewPBCouponStore(app core.App) *PBCouponStore {
	return &PBCouponStore{app: app}
}

func (s *PBCouponStore) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	record, err := s.app.FindFirstRecordByFilter(
		"coupons",
		"code = {:code}",
		dbx.Params{"code": strings.ToLower(strings.TrimSpace(code))},
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrCouponNotFound
		}
		return nil, err
	}

	value, err := decimal.NewFromString(record.GetString("discount_value"))
	if err != nil {
		value = decimal.NewFromFloat(record.GetFloat("discount_value"))
	}

	return &models.Coupon{
		ID:            record.Id,
		Code:          record.GetString("code"),
		DiscountType:  models.DiscountType(record.GetString("discount_type")),
		DiscountValue: value,
		Active:        record.GetBool("active"),
		UsageCount:    record.GetInt("usage_count"),
		MaxUsage:      record.GetInt("max_usage"),
		ExpiresAt:     record.GetDateTime("expires_at").Time(),
	}, nil
}

// Redeem increments the usage count only while it is still under the
// ceiling. The guard and the increment are one SQL statement, so
// concurrent redemptions cannot over-redeem.
func (s *PBCouponStore) Redeem(ctx context.Context, id string) error {
	result, err := s.app.DB().NewQuery(
		"UPDATE coupons SET usage_count = usage_count + 1 " +
			"WHERE id = {:id} AND (max_usage = 0 OR usage_count < max_usage)",
	).Bind(dbx.Params{"id": id}).WithContext(ctx).Execute()
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return status.ErrCouponExhausted
	}
	return nil
}
