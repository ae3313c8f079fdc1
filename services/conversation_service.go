package services

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ticketbot/config"
	"ticketbot/internal/gateway"
	"ticketbot/internal/status"
	"ticketbot/messages"
	"ticketbot/models"
	"ticketbot/monitoring"
	"ticketbot/store"
	"ticketbot/validation"
)

// AvailabilityChecker reports whether the constrained VIP tier can
// still be sold.
type AvailabilityChecker interface {
	VIPAvailable(ctx context.Context) (bool, error)
}

// ConversationService routes every inbound chat message through the
// purchase state machine. State handlers return the fields to merge
// into the session plus the reply text; nothing is written until a
// handler returns successfully, so a rejected or failed message never
// leaves a partial transition behind.
type ConversationService struct {
	sessions     store.SessionStore
	payments     store.PaymentStore
	coupons      store.CouponStore
	gateway      gateway.PaymentGateway
	availability AvailabilityChecker
	wallet       WalletTransferrer
	sender       ChatSender
	cfg          *config.Config
}

func NewConversationService(
	sessions store.SessionStore,
	payments store.PaymentStore,
	coupons store.CouponStore,
	gw gateway.PaymentGateway,
	availability AvailabilityChecker,
	wallet WalletTransferrer,
	sender ChatSender,
	cfg *config.Config,
) *ConversationService {
	return &ConversationService{
		sessions:     sessions,
		payments:     payments,
		coupons:      coupons,
		gateway:      gw,
		availability: availability,
		wallet:       wallet,
		sender:       sender,
		cfg:          cfg,
	}
}

// ProcessInboundMessage is the entry point for the chat transport.
// It is the only place that catches and classifies handler errors; the
// user always gets some reply (or the failure to reply is logged).
func (s *ConversationService) ProcessInboundMessage(ctx context.Context, chatID, userName, text string) {
	text = validation.Sanitize(text)

	sess, _, err := s.sessions.GetOrCreate(ctx, chatID, userName)
	if err != nil {
		slog.Error("conversation: load session", "chatID", chatID, "error", err)
		monitoring.TrackMessage("unknown", "session_error")
		s.reply(ctx, chatID, messages.GenericApology)
		return
	}
	if sess.UserName == "" {
		sess.UserName = userName
	}

	reply, err := s.handle(ctx, sess, text)
	outcome := "ok"
	if err != nil {
		var ve *status.ValidationError
		switch {
		case errors.As(err, &ve):
			outcome = "validation"
			reply = ve.Message
		case status.IsBackend(err):
			outcome = "backend"
			slog.Error("conversation: backend failure", "chatID", chatID, "state", sess.State, "error", err)
			reply = messages.TryAgainLater
		case status.IsSession(err):
			outcome = "session_error"
			slog.Error("conversation: session store failure", "chatID", chatID, "state", sess.State, "error", err)
			reply = messages.GenericApology
		default:
			outcome = "error"
			slog.Error("conversation: unexpected failure", "chatID", chatID, "state", sess.State, "error", err)
			reply = messages.GenericApology
		}
	}
	monitoring.TrackMessage(string(sess.State), outcome)

	if reply != "" {
		s.reply(ctx, sess.ChatID, reply)
	}
}

func (s *ConversationService) reply(ctx context.Context, chatID, text string) {
	if err := s.sender.SendText(ctx, chatID, text); err != nil {
		slog.Error("conversation: reply failed", "chatID", chatID, "error", err)
	}
}

func (s *ConversationService) handle(ctx context.Context, sess *models.Session, text string) (string, error) {
	// "menu" and "start" are a hard reset from any state. Purchase
	// fields are cleared; wallet balance and paid amounts survive.
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "menu" || lower == "start" {
		if err := s.sessions.Reset(ctx, sess.ChatID); err != nil {
			return "", err
		}
		return s.renderWelcome(sess), nil
	}

	update, reply, err := s.dispatch(ctx, sess, text)
	if err != nil {
		return "", err
	}
	if len(update) > 0 {
		if err := s.sessions.Update(ctx, sess.ChatID, update); err != nil {
			return "", err
		}
	}
	return reply, nil
}

func (s *ConversationService) dispatch(ctx context.Context, sess *models.Session, text string) (map[string]any, string, error) {
	switch sess.State {
	case models.StateMainMenu:
		return s.handleMainMenu(ctx, sess, text)
	case models.StateSelectTicket:
		return s.handleSelectTicket(ctx, sess, text)
	case models.StateAwaitingEmail:
		return s.handleAwaitingEmail(sess, text)
	case models.StateAwaitingCouponAnswer:
		return s.handleAwaitingCouponAnswer(ctx, sess, text)
	case models.StateAwaitingCouponCode:
		return s.handleAwaitingCouponCode(ctx, sess, text)
	case models.StateAwaitingContinueAnswer:
		return s.handleAwaitingContinueAnswer(ctx, sess, text)
	case models.StateAwaitingPayment:
		// Progression out of this state belongs to the webhook
		// processor, never to chat input.
		return nil, messages.FinishPayment, nil
	case models.StateWalletTransfer:
		return s.handleWalletTransfer(ctx, sess, text)
	default:
		// StateWelcome and anything unrecognized (retired states from
		// older funnel versions) land on the menu. Unlike a hard reset
		// this keeps prior purchase fields.
		reply := messages.MainMenu
		if sess.State == models.StateWelcome || sess.State == "" {
			reply = s.renderWelcome(sess)
		}
		return map[string]any{models.FieldState: string(models.StateMainMenu)}, reply, nil
	}
}

func (s *ConversationService) handleMainMenu(ctx context.Context, sess *models.Session, text string) (map[string]any, string, error) {
	opt, err := validation.MenuOption(text)
	if err != nil {
		return nil, "", err
	}

	switch opt {
	case "1":
		available, err := s.availability.VIPAvailable(ctx)
		if err != nil {
			return nil, "", status.NewBackendError("availability", err)
		}
		return map[string]any{models.FieldState: string(models.StateSelectTicket)},
			s.renderTicketMenu(available), nil

	case "2":
		return nil, s.renderStatusReport(sess), nil

	case "3":
		if !sess.WalletBalance.IsPositive() {
			return nil, messages.WalletEmpty, nil
		}
		reply := messages.Render(messages.WalletBalanceMenu, map[string]string{
			"wallet_balance": sess.WalletBalance.StringFixed(2),
			"currency":       s.cfg.Currency,
		})
		return map[string]any{models.FieldState: string(models.StateWalletTransfer)}, reply, nil

	default: // "4"
		return nil, messages.HelpText, nil
	}
}

func (s *ConversationService) handleSelectTicket(ctx context.Context, sess *models.Session, text string) (map[string]any, string, error) {
	available, err := s.availability.VIPAvailable(ctx)
	if err != nil {
		return nil, "", status.NewBackendError("availability", err)
	}

	tt, err := validation.TicketType(text, available)
	if err != nil {
		return nil, "", err
	}

	update := map[string]any{
		models.FieldTicketType:  string(tt),
		models.FieldTotalPrice:  s.priceFor(tt),
		models.FieldPaymentType: string(models.PaymentFull),
		models.FieldState:       string(models.StateAwaitingEmail),
	}
	return update, messages.AskEmail, nil
}

func (s *ConversationService) handleAwaitingEmail(sess *models.Session, text string) (map[string]any, string, error) {
	email, err := validation.Email(text)
	if err != nil {
		return nil, "", err
	}

	update := map[string]any{
		models.FieldEmail: email,
		models.FieldState: string(models.StateAwaitingCouponAnswer),
	}
	return update, messages.AskCouponAnswer, nil
}

func (s *ConversationService) handleAwaitingCouponAnswer(ctx context.Context, sess *models.Session, text string) (map[string]any, string, error) {
	hasCoupon, err := validation.YesNo(text)
	if err != nil {
		return nil, "", err
	}

	if hasCoupon {
		return map[string]any{models.FieldState: string(models.StateAwaitingCouponCode)},
			messages.AskCouponCode, nil
	}

	link, err := s.createPaymentLink(ctx, sess, sess.TotalPrice, "")
	if err != nil {
		return nil, "", err
	}
	return map[string]any{models.FieldState: string(models.StateAwaitingPayment)},
		s.renderPaymentLink(sess.TotalPrice, link), nil
}

func (s *ConversationService) handleAwaitingCouponCode(ctx context.Context, sess *models.Session, text string) (map[string]any, string, error) {
	code := strings.ToLower(strings.TrimSpace(text))

	coupon, err := s.coupons.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, status.ErrCouponNotFound) {
			return s.couponRejected(sess)
		}
		return nil, "", status.NewBackendError("coupon lookup", err)
	}
	if !coupon.Usable(time.Now()) {
		return s.couponRejected(sess)
	}

	discounted := coupon.Apply(sess.TotalPrice)

	if err := s.coupons.Redeem(ctx, coupon.ID); err != nil {
		if errors.Is(err, status.ErrCouponExhausted) {
			return s.couponRejected(sess)
		}
		return nil, "", status.NewBackendError("coupon redeem", err)
	}

	link, err := s.createPaymentLink(ctx, sess, discounted, coupon.Code)
	if err != nil {
		return nil, "", err
	}

	// The discounted amount becomes the price to settle against;
	// original_price keeps the pre-coupon figure for reporting.
	update := map[string]any{
		models.FieldAppliedCoupon:   coupon.Code,
		models.FieldOriginalPrice:   sess.TotalPrice,
		models.FieldDiscountedPrice: discounted,
		models.FieldTotalPrice:      discounted,
		models.FieldState:           string(models.StateAwaitingPayment),
	}
	reply := messages.Render(messages.CouponApplied, map[string]string{
		"coupon":           coupon.Code,
		"original_price":   sess.TotalPrice.StringFixed(2),
		"discounted_price": discounted.StringFixed(2),
		"currency":         s.cfg.Currency,
	}) + "\n\n" + s.renderPaymentLink(discounted, link)
	return update, reply, nil
}

func (s *ConversationService) couponRejected(sess *models.Session) (map[string]any, string, error) {
	reply := messages.Render(messages.CouponInvalidContinue, map[string]string{
		"amount":   sess.TotalPrice.StringFixed(2),
		"currency": s.cfg.Currency,
	})
	return map[string]any{models.FieldState: string(models.StateAwaitingContinueAnswer)}, reply, nil
}

func (s *ConversationService) handleAwaitingContinueAnswer(ctx context.Context, sess *models.Session, text string) (map[string]any, string, error) {
	proceed, err := validation.YesNo(text)
	if err != nil {
		return nil, "", err
	}

	if !proceed {
		if err := s.sessions.Reset(ctx, sess.ChatID); err != nil {
			return nil, "", err
		}
		return nil, s.renderWelcome(sess), nil
	}

	link, err := s.createPaymentLink(ctx, sess, sess.TotalPrice, "")
	if err != nil {
		return nil, "", err
	}
	return map[string]any{models.FieldState: string(models.StateAwaitingPayment)},
		s.renderPaymentLink(sess.TotalPrice, link), nil
}

func (s *ConversationService) handleWalletTransfer(ctx context.Context, sess *models.Session, text string) (map[string]any, string, error) {
	dest, err := validation.WalletOption(text)
	if err != nil {
		return nil, "", err
	}

	if err := s.wallet.Transfer(ctx, sess.ChatID, sess.WalletBalance, dest); err != nil {
		return nil, "", err
	}

	update := map[string]any{
		models.FieldWalletBalance: decimal.Zero,
		models.FieldState:         string(models.StateMainMenu),
	}
	reply := messages.Render(messages.WalletTransferDone, map[string]string{
		"wallet_balance": sess.WalletBalance.StringFixed(2),
		"currency":       s.cfg.Currency,
	})
	return update, reply, nil
}

// createPaymentLink initializes a provider transaction and records the
// pending payment attempt.
func (s *ConversationService) createPaymentLink(ctx context.Context, sess *models.Session, amount decimal.Decimal, coupon string) (string, error) {
	md := gateway.Metadata{
		ChatID:      sess.ChatID,
		TicketType:  string(sess.TicketType),
		PaymentType: string(sess.PaymentType),
		Coupon:      coupon,
	}

	tx, err := s.gateway.InitializeTransaction(ctx, amount, sess.Email, md)
	if err != nil {
		return "", err
	}

	payment := &models.Payment{
		Reference:   tx.Reference,
		ChatID:      sess.ChatID,
		Amount:      amount,
		Currency:    s.cfg.Currency,
		Status:      models.PaymentPending,
		TicketType:  sess.TicketType,
		PaymentType: sess.PaymentType,
		Coupon:      coupon,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return "", status.NewBackendError("payment record", err)
	}

	return tx.AuthorizationURL, nil
}

func (s *ConversationService) priceFor(tt models.TicketType) decimal.Decimal {
	if tt == models.TicketVIP {
		return s.cfg.VIPPrice
	}
	return s.cfg.GAPrice
}

func (s *ConversationService) renderWelcome(sess *models.Session) string {
	return messages.Render(messages.WelcomeMenu, map[string]string{"name": sess.UserName})
}

func (s *ConversationService) renderPaymentLink(amount decimal.Decimal, link string) string {
	return messages.Render(messages.PaymentLink, map[string]string{
		"amount":       amount.StringFixed(2),
		"currency":     s.cfg.Currency,
		"payment_link": link,
	})
}

func (s *ConversationService) renderTicketMenu(vipAvailable bool) string {
	vars := map[string]string{
		"ga_price":  s.cfg.GAPrice.StringFixed(2),
		"vip_price": s.cfg.VIPPrice.StringFixed(2),
		"currency":  s.cfg.Currency,
	}
	if !vipAvailable {
		return messages.Render(messages.TicketMenuVIPSoldOut, vars)
	}
	return messages.Render(messages.TicketMenu, vars)
}

func (s *ConversationService) renderStatusReport(sess *models.Session) string {
	if sess.AmountPaid.IsZero() && sess.TotalPrice.IsZero() {
		return messages.StatusReportEmpty
	}

	vars := map[string]string{
		"ticket_type":        strings.ToUpper(string(sess.TicketType)),
		"amount_paid":        sess.AmountPaid.StringFixed(2),
		"remaining_balance":  sess.RemainingBalance.StringFixed(2),
		"currency":           s.cfg.Currency,
		"installment_number": strconv.Itoa(sess.InstallmentNumber),
		"total_installments": strconv.Itoa(sess.TotalInstallments),
		"due_date":           sess.NextDueDate,
	}
	if sess.PaymentType == models.PaymentInstallment && sess.TotalInstallments > 0 {
		return messages.Render(messages.StatusReportInstallment, vars)
	}
	return messages.Render(messages.StatusReport, vars)
}
