package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ticketbot/config"
	"ticketbot/messages"
	"ticketbot/models"
	"ticketbot/monitoring"
	"ticketbot/store"
)

// DeadlineService settles unfinished installment plans once the
// cutoff date has passed. A buyer whose partial payments cover some
// tier keeps a (possibly downgraded) ticket and gets the difference in
// their wallet; otherwise the whole paid amount moves to the wallet.
// Each session is settled exactly once, marked by deadline_processed.
type DeadlineService struct {
	sessions store.SessionStore
	sender   ChatSender
	cfg      *config.Config
}

func NewDeadlineService(sessions store.SessionStore, sender ChatSender, cfg *config.Config) *DeadlineService {
	return &DeadlineService{sessions: sessions, sender: sender, cfg: cfg}
}

// Start runs the sweep loop until ctx is cancelled. A zero cutoff in
// the config disables the sweep entirely.
func (s *DeadlineService) Start(ctx context.Context) {
	if s.cfg.DeadlineCutoff.IsZero() {
		slog.Info("deadline sweep disabled: no cutoff configured")
		return
	}

	go func() {
		ticker := time.NewTicker(s.cfg.DeadlineInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := s.Sweep(ctx, time.Now()); err != nil {
					slog.Error("deadline sweep failed", "error", err)
				}
			case <-ctx.Done():
				slog.Info("deadline sweep stopped")
				return
			}
		}
	}()
}

// Sweep settles every eligible session. It is a no-op before the
// cutoff, and per-session failures never block the rest.
func (s *DeadlineService) Sweep(ctx context.Context, now time.Time) error {
	if s.cfg.DeadlineCutoff.IsZero() || now.Before(s.cfg.DeadlineCutoff) {
		return nil
	}

	return s.sessions.Scan(ctx, func(sess *models.Session) error {
		if err := s.settle(ctx, sess); err != nil {
			slog.Error("deadline sweep: session failed", "chatID", sess.ChatID, "error", err)
		}
		return nil
	})
}

func (s *DeadlineService) settle(ctx context.Context, sess *models.Session) error {
	if sess.TicketID != "" || sess.DeadlineProcessed {
		return nil
	}
	if !sess.AmountPaid.IsPositive() || !sess.RemainingBalance.IsPositive() {
		return nil
	}

	// Highest tier the paid amount fully covers, checked dearest first.
	tiers := []struct {
		tt    models.TicketType
		price decimal.Decimal
	}{
		{models.TicketVIP, s.cfg.VIPPrice},
		{models.TicketGA, s.cfg.GAPrice},
	}

	for _, tier := range tiers {
		if sess.AmountPaid.LessThan(tier.price) {
			continue
		}
		return s.downgrade(ctx, sess, tier.tt, tier.price)
	}
	return s.rollover(ctx, sess)
}

func (s *DeadlineService) downgrade(ctx context.Context, sess *models.Session, tt models.TicketType, price decimal.Decimal) error {
	surplus := sess.AmountPaid.Sub(price)
	wallet := sess.WalletBalance.Add(surplus)

	fields := map[string]any{
		models.FieldTicketType:        string(tt),
		models.FieldRemainingBalance:  decimal.Zero,
		models.FieldWalletBalance:     wallet,
		models.FieldState:             string(models.StateWalletTransfer),
		models.FieldDeadlineProcessed: true,
	}
	if err := s.sessions.Update(ctx, sess.ChatID, fields); err != nil {
		return fmt.Errorf("downgrade %s: %w", sess.ChatID, err)
	}
	monitoring.TrackDeadlineOutcome("downgrade")

	text := messages.Render(messages.DeadlineDowngrade, map[string]string{
		"name":           sess.UserName,
		"amount_paid":    sess.AmountPaid.StringFixed(2),
		"ticket_type":    strings.ToUpper(string(tt)),
		"wallet_balance": surplus.StringFixed(2),
		"currency":       s.cfg.Currency,
	})
	s.notify(ctx, sess.ChatID, text)
	return nil
}

func (s *DeadlineService) rollover(ctx context.Context, sess *models.Session) error {
	wallet := sess.WalletBalance.Add(sess.AmountPaid)

	fields := map[string]any{
		models.FieldRemainingBalance:  decimal.Zero,
		models.FieldWalletBalance:     wallet,
		models.FieldState:             string(models.StateWalletTransfer),
		models.FieldDeadlineProcessed: true,
	}
	if err := s.sessions.Update(ctx, sess.ChatID, fields); err != nil {
		return fmt.Errorf("rollover %s: %w", sess.ChatID, err)
	}
	monitoring.TrackDeadlineOutcome("rollover")

	text := messages.Render(messages.DeadlineRollover, map[string]string{
		"name":        sess.UserName,
		"amount_paid": sess.AmountPaid.StringFixed(2),
		"currency":    s.cfg.Currency,
	})
	s.notify(ctx, sess.ChatID, text)
	return nil
}

func (s *DeadlineService) notify(ctx context.Context, chatID, text string) {
	if err := s.sender.SendText(ctx, chatID, text); err != nil {
		slog.Error("deadline notify failed", "chatID", chatID, "error", err)
	}
	time.Sleep(s.cfg.SendThrottle)
}
