package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"ticketbot/internal/gateway"
	"ticketbot/internal/gateway/paystack"
	"ticketbot/internal/status"
	"ticketbot/messages"
	"ticketbot/models"
	"ticketbot/monitoring"
	"ticketbot/store"
)

// PaymentService reconciles provider notifications (webhook or browser
// callback) against the payment and session records. Reconciliation is
// idempotent: a payment already in a terminal status is left untouched
// no matter how many times the provider replays the event.
type PaymentService struct {
	payments store.PaymentStore
	sessions store.SessionStore
	gateway  gateway.PaymentGateway
	sender   ChatSender

	webhookSecret string
	currency      string
}

func NewPaymentService(
	payments store.PaymentStore,
	sessions store.SessionStore,
	gw gateway.PaymentGateway,
	sender ChatSender,
	webhookSecret, currency string,
) *PaymentService {
	return &PaymentService{
		payments:      payments,
		sessions:      sessions,
		gateway:       gw,
		sender:        sender,
		webhookSecret: webhookSecret,
		currency:      currency,
	}
}

type webhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
		Status    string `json:"status"`
		Amount    int64  `json:"amount"`
		Currency  string `json:"currency"`
		PaidAt    string `json:"paid_at"`
	} `json:"data"`
}

// HandleWebhookEvent processes one raw webhook delivery. The signature
// is checked against the raw body before anything is parsed.
func (s *PaymentService) HandleWebhookEvent(ctx context.Context, body []byte, signature string) error {
	if !paystack.VerifyWebhookSignature(body, signature, s.webhookSecret) {
		monitoring.TrackWebhookEvent("bad_signature")
		return status.ErrInvalidSignature
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		monitoring.TrackWebhookEvent("malformed")
		return fmt.Errorf("webhook: parse event: %w", err)
	}

	if event.Event != "charge.success" {
		monitoring.TrackWebhookEvent("ignored")
		slog.Info("webhook: ignoring event", "event", event.Event)
		return nil
	}

	paidAt, err := time.Parse(time.RFC3339, event.Data.PaidAt)
	if err != nil {
		paidAt = time.Now()
	}

	if err := s.reconcile(ctx, event.Data.Reference, paidAt, "webhook"); err != nil {
		monitoring.TrackWebhookEvent("failed")
		return err
	}
	monitoring.TrackWebhookEvent("reconciled")
	return nil
}

// HandleCallback re-verifies a transaction with the provider after the
// buyer's browser returns from the payment page. The callback carries
// no trusted payload, so the reference is checked server-to-server.
func (s *PaymentService) HandleCallback(ctx context.Context, reference string) error {
	ts, err := s.gateway.VerifyTransaction(ctx, reference)
	if err != nil {
		return err
	}

	if ts.Status != "success" {
		slog.Info("callback: transaction not successful", "reference", reference, "status", ts.Status)
		return nil
	}

	paidAt := ts.PaidAt
	if paidAt.IsZero() {
		paidAt = time.Now()
	}
	return s.reconcile(ctx, reference, paidAt, "callback")
}

// reconcile marks the payment successful and folds the amount into the
// session. Unknown references are logged and dropped: the provider may
// notify about transactions created outside this system.
func (s *PaymentService) reconcile(ctx context.Context, reference string, paidAt time.Time, trigger string) error {
	payment, err := s.payments.FindByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, status.ErrPaymentNotFound) {
			slog.Warn("reconcile: unknown reference", "reference", reference, "trigger", trigger)
			return nil
		}
		return fmt.Errorf("reconcile: find payment %s: %w", reference, err)
	}

	if payment.Terminal() {
		slog.Info("reconcile: payment already settled", "reference", reference, "status", payment.Status)
		return nil
	}

	if err := s.payments.MarkStatus(ctx, reference, models.PaymentSuccess, paidAt); err != nil {
		return fmt.Errorf("reconcile: mark payment %s: %w", reference, err)
	}

	if err := s.applyToSession(ctx, payment); err != nil {
		return err
	}

	monitoring.TrackPaymentConfirmed(trigger)
	return nil
}

func (s *PaymentService) applyToSession(ctx context.Context, payment *models.Payment) error {
	sess, err := s.sessions.Get(ctx, payment.ChatID)
	if err != nil {
		return fmt.Errorf("reconcile: load session %s: %w", payment.ChatID, err)
	}
	if sess == nil {
		slog.Warn("reconcile: no session for payment", "reference", payment.Reference, "chatID", payment.ChatID)
		return nil
	}

	paid := sess.AmountPaid.Add(payment.Amount)
	remaining := sess.TotalPrice.Sub(paid)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	fields := map[string]any{
		models.FieldAmountPaid:       paid,
		models.FieldRemainingBalance: remaining,
	}
	if payment.PaymentType == models.PaymentInstallment {
		fields[models.FieldInstallmentNumber] = sess.InstallmentNumber + 1
	}
	if remaining.IsZero() {
		fields[models.FieldState] = string(models.StateMainMenu)
	}

	if err := s.sessions.Update(ctx, payment.ChatID, fields); err != nil {
		return fmt.Errorf("reconcile: update session %s: %w", payment.ChatID, err)
	}

	confirmation := messages.Render(messages.PaymentConfirmed, map[string]string{
		"amount":   payment.Amount.StringFixed(2),
		"currency": s.currency,
	})
	if err := s.sender.SendText(ctx, payment.ChatID, confirmation); err != nil {
		// The money is already recorded; a lost confirmation is not
		// worth failing the webhook over.
		slog.Error("reconcile: send confirmation", "chatID", payment.ChatID, "error", err)
	}
	return nil
}
