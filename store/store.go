// Package store defines the persistence contracts of the core and
// their Redis / PocketBase implementations. Sessions live in Redis
// hashes so every write can be a field-level merge; payments, coupons
// and reminder data live in PocketBase collections.
package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"ticketbot/models"
)

// SessionStore is the per-chat-identity session document contract.
// Update is a merge: only the given fields are written, never the
// whole document.
type SessionStore interface {
	Get(ctx context.Context, chatID string) (*models.Session, error)
	GetOrCreate(ctx context.Context, chatID, userName string) (*models.Session, bool, error)
	Update(ctx context.Context, chatID string, fields map[string]any) error
	Reset(ctx context.Context, chatID string) error
	Scan(ctx context.Context, fn func(*models.Session) error) error
	Delete(ctx context.Context, chatID string) error
}

// PaymentStore persists one record per payment-link attempt.
type PaymentStore interface {
	Create(ctx context.Context, p *models.Payment) error
	FindByReference(ctx context.Context, reference string) (*models.Payment, error)
	MarkStatus(ctx context.Context, reference string, st models.PaymentStatus, paidAt time.Time) error
	CountSuccessful(ctx context.Context, tt models.TicketType) (int64, error)
}

// CouponStore looks up and redeems coupon codes. Redeem must be an
// atomic conditional increment so concurrent redemptions cannot push
// usage past the ceiling.
type CouponStore interface {
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
	Redeem(ctx context.Context, id string) error
}

// TemplateStore serves the active reminder templates.
type TemplateStore interface {
	ListActive(ctx context.Context) ([]models.ReminderTemplate, error)
}

// ReminderLogStore records send attempts, append-only.
type ReminderLogStore interface {
	Append(ctx context.Context, entry models.ReminderLog) error
}

// WalletTransferStore records executed wallet transfers.
type WalletTransferStore interface {
	Append(ctx context.Context, chatID string, amount decimal.Decimal, dest models.WalletDestination) error
}
