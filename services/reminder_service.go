package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"ticketbot/config"
	"ticketbot/internal/gateway"
	"ticketbot/messages"
	"ticketbot/models"
	"ticketbot/monitoring"
	"ticketbot/store"
)

// ReminderService sweeps every session on a fixed interval and nudges
// buyers whose installment balance comes due. Each reminder carries a
// fresh payment link. Sent-markers on the session are monotone, so a
// sweep can run as often as it likes without double-sending.
type ReminderService struct {
	sessions  store.SessionStore
	templates store.TemplateStore
	logs      store.ReminderLogStore
	payments  store.PaymentStore
	gateway   gateway.PaymentGateway
	sender    ChatSender
	cfg       *config.Config
}

func NewReminderService(
	sessions store.SessionStore,
	templates store.TemplateStore,
	logs store.ReminderLogStore,
	payments store.PaymentStore,
	gw gateway.PaymentGateway,
	sender ChatSender,
	cfg *config.Config,
) *ReminderService {
	return &ReminderService{
		sessions:  sessions,
		templates: templates,
		logs:      logs,
		payments:  payments,
		gateway:   gw,
		sender:    sender,
		cfg:       cfg,
	}
}

// Start runs the sweep loop until ctx is cancelled. The first sweep
// runs shortly after startup so a restarted process catches up without
// waiting a full interval.
func (s *ReminderService) Start(ctx context.Context) {
	go func() {
		initial := time.NewTimer(s.cfg.ReminderInitialDelay)
		defer initial.Stop()

		select {
		case <-initial.C:
			s.runSweep(ctx)
		case <-ctx.Done():
			return
		}

		ticker := time.NewTicker(s.cfg.ReminderInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.runSweep(ctx)
			case <-ctx.Done():
				slog.Info("reminder sweep stopped")
				return
			}
		}
	}()
}

func (s *ReminderService) runSweep(ctx context.Context) {
	if err := s.Sweep(ctx, time.Now()); err != nil {
		slog.Error("reminder sweep failed", "error", err)
	}
}

// Sweep visits every session once. Failures on one session are logged
// and never block the rest.
func (s *ReminderService) Sweep(ctx context.Context, now time.Time) error {
	templates, err := s.templates.ListActive(ctx)
	if err != nil {
		// Fall back to the built-in 5-day and 1-day texts rather than
		// skipping a whole sweep window.
		slog.Error("reminder sweep: load templates", "error", err)
		templates = nil
	}

	return s.sessions.Scan(ctx, func(sess *models.Session) error {
		if err := s.remind(ctx, sess, templates, now); err != nil {
			slog.Error("reminder sweep: session failed", "chatID", sess.ChatID, "error", err)
		}
		return nil
	})
}

func (s *ReminderService) remind(ctx context.Context, sess *models.Session, templates []models.ReminderTemplate, now time.Time) error {
	if sess.TicketID != "" || !sess.RemainingBalance.IsPositive() || sess.NextDueDateISO == "" {
		return nil
	}

	due, err := time.Parse(time.RFC3339, sess.NextDueDateISO)
	if err != nil {
		return fmt.Errorf("parse due date %q: %w", sess.NextDueDateISO, err)
	}

	daysLeft := daysUntil(now, due)
	if daysLeft < 0 {
		// Overdue balances belong to the deadline sweep.
		return nil
	}

	templateID, body, ok := s.pickTemplate(templates, daysLeft)
	if !ok {
		return nil
	}

	flag := models.ReminderFlag(daysLeft)
	if sess.Reminders[flag] {
		return nil
	}

	link, err := s.freshPaymentLink(ctx, sess)
	if err != nil {
		return err
	}

	text := messages.Render(body, map[string]string{
		"name":         sess.UserName,
		"ticket_type":  strings.ToUpper(string(sess.TicketType)),
		"amount":       sess.RemainingBalance.StringFixed(2),
		"currency":     s.cfg.Currency,
		"days_left":    fmt.Sprintf("%d", daysLeft),
		"due_date":     sess.NextDueDate,
		"payment_link": link,
	})

	logStatus := "sent"
	if err := s.sender.SendText(ctx, sess.ChatID, text); err != nil {
		logStatus = "failed"
		slog.Error("reminder send failed", "chatID", sess.ChatID, "error", err)
	}

	if err := s.logs.Append(ctx, models.ReminderLog{
		TemplateID:  templateID,
		ChatID:      sess.ChatID,
		Status:      logStatus,
		TriggerType: "scheduled",
		SentAt:      time.Now(),
	}); err != nil {
		slog.Error("reminder log append failed", "chatID", sess.ChatID, "error", err)
	}

	if logStatus != "sent" {
		return nil
	}

	if err := s.sessions.Update(ctx, sess.ChatID, map[string]any{flag: true}); err != nil {
		return fmt.Errorf("set reminder flag: %w", err)
	}
	monitoring.TrackReminderSent(fmt.Sprintf("%dd", daysLeft))

	// Spread sends so the chat transport is not burst-flooded.
	time.Sleep(s.cfg.SendThrottle)
	return nil
}

// pickTemplate matches an admin template on the exact day threshold,
// then falls back to the built-in 5-day and 1-day texts.
func (s *ReminderService) pickTemplate(templates []models.ReminderTemplate, daysLeft int) (id, body string, ok bool) {
	for _, t := range templates {
		if t.DaysBefore == daysLeft {
			return t.ID, t.Body, true
		}
	}
	switch daysLeft {
	case 5:
		return "", messages.ReminderFallback5Day, true
	case 1:
		return "", messages.ReminderFallback1Day, true
	}
	return "", "", false
}

// freshPaymentLink creates a new provider transaction for the
// outstanding balance; stale links from earlier reminders simply
// expire at the provider.
func (s *ReminderService) freshPaymentLink(ctx context.Context, sess *models.Session) (string, error) {
	md := gateway.Metadata{
		ChatID:            sess.ChatID,
		TicketType:        string(sess.TicketType),
		PaymentType:       string(sess.PaymentType),
		InstallmentNumber: sess.InstallmentNumber + 1,
	}

	tx, err := s.gateway.InitializeTransaction(ctx, sess.RemainingBalance, sess.Email, md)
	if err != nil {
		return "", fmt.Errorf("initialize reminder transaction: %w", err)
	}

	payment := &models.Payment{
		Reference:   tx.Reference,
		ChatID:      sess.ChatID,
		Amount:      sess.RemainingBalance,
		Currency:    s.cfg.Currency,
		Status:      models.PaymentPending,
		TicketType:  sess.TicketType,
		PaymentType: sess.PaymentType,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return "", fmt.Errorf("record reminder payment: %w", err)
	}

	return tx.AuthorizationURL, nil
}

// daysUntil counts whole calendar days between now and due, both taken
// in due's location.
func daysUntil(now, due time.Time) int {
	now = now.In(due.Location())
	nowDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, due.Location())
	dueDate := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, due.Location())
	return int(dueDate.Sub(nowDate).Hours() / 24)
}
