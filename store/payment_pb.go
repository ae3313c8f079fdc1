package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"ticketbot/internal/status"
	"ticketbot/models"
)

// PBPaymentStore persists payment records in the "payments" collection.
type PBPaymentStore struct {
	app core.App
}

func NewPBPaymentStore(app core.App) *PBPaymentStore {
	return &PBPaymentStore{app: app}
}

func (s *PBPaymentStore) Create(ctx context.Context, p *models.Payment) error {
	collection, err := s.app.FindCollectionByNameOrId("payments")
	if err != nil {
		return err
	}

	record := core.NewRecord(collection)
	record.Set("reference", p.Reference)
	record.Set("chat_id", p.ChatID)
	record.Set("amount", p.Amount.InexactFloat64())
	record.Set("currency", p.Currency)
	record.Set("status", string(p.Status))
	record.Set("ticket_type", string(p.TicketType))
	record.Set("payment_type", string(p.PaymentType))
	record.Set("coupon", p.Coupon)

	if err := s.app.SaveWithContext(ctx, record); err != nil {
		return err
	}
	p.ID = record.Id
	return nil
}

func (s *PBPaymentStore) FindByReference(ctx context.Context, reference string) (*models.Payment, error) {
	record, err := s.app.FindFirstRecordByFilter(
		"payments",
		"reference = {:reference}",
		dbx.Params{"reference": reference},
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrPaymentNotFound
		}
		return nil, err
	}
	return paymentFromRecord(record), nil
}

// MarkStatus moves a payment to a new status. Records already in a
// terminal status are left untouched so webhook replays are no-ops.
func (s *PBPaymentStore) MarkStatus(ctx context.Context, reference string, st models.PaymentStatus, paidAt time.Time) error {
	record, err := s.app.FindFirstRecordByFilter(
		"payments",
		"reference = {:reference}",
		dbx.Params{"reference": reference},
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return status.ErrPaymentNotFound
		}
		return err
	}

	current := models.PaymentStatus(record.GetString("status"))
	if current == models.PaymentSuccess || current == models.PaymentFailed {
		return nil
	}

	record.Set("status", string(st))
	if !paidAt.IsZero() {
		record.Set("paid_at", paidAt)
	}
	return s.app.SaveWithContext(ctx, record)
}

func (s *PBPaymentStore) CountSuccessful(ctx context.Context, tt models.TicketType) (int64, error) {
	return s.app.CountRecords("payments", dbx.HashExp{
		"status":      string(models.PaymentSuccess),
		"ticket_type": string(tt),
	})
}

func paymentFromRecord(record *core.Record) *models.Payment {
	return &models.Payment{
		ID:          record.Id,
		Reference:   record.GetString("reference"),
		ChatID:      record.GetString("chat_id"),
		Amount:      decimal.NewFromFloat(record.GetFloat("amount")),
		Currency:    record.GetString("currency"),
		Status:      models.PaymentStatus(record.GetString("status")),
		TicketType:  models.TicketType(record.GetString("ticket_type")),
		PaymentType: models.PaymentType(record.GetString("payment_type")),
		Coupon:      record.GetString("coupon"),
		PaidAt:      record.GetDateTime("paid_at").Time(),
		CreatedAt:   record.GetDateTime("created").Time(),
	}
}
