package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketbot/config"
	"ticketbot/internal/status"
	"ticketbot/messages"
	"ticketbot/models"
)

type conversationFixture struct {
	engine       *ConversationService
	sessions     *fakeSessionStore
	payments     *fakePaymentStore
	coupons      *fakeCouponStore
	gateway      *fakeGateway
	availability *fakeAvailability
	wallet       *fakeWalletTransferStore
	sender       *fakeSender
}

func setupConversation(t *testing.T, coupons ...*models.Coupon) *conversationFixture {
	t.Helper()

	cfg := &config.Config{
		Currency: "GHS",
		GAPrice:  decimal.RequireFromString("918.75"),
		VIPPrice: decimal.RequireFromString("1531.25"),
	}

	f := &conversationFixture{
		sessions:     newFakeSessionStore(),
		payments:     newFakePaymentStore(),
		coupons:      newFakeCouponStore(coupons...),
		gateway:      &fakeGateway{},
		availability: &fakeAvailability{available: true},
		wallet:       &fakeWalletTransferStore{},
		sender:       &fakeSender{},
	}
	f.engine = NewConversationService(
		f.sessions, f.payments, f.coupons, f.gateway,
		f.availability, NewWalletService(f.wallet), f.sender, cfg,
	)
	return f
}

func (f *conversationFixture) send(chatID, text string) {
	f.engine.ProcessInboundMessage(context.Background(), chatID, "Ama", text)
}

func TestConversation_FullFunnelWithoutCoupon(t *testing.T) {
	f := setupConversation(t)
	ctx := context.Background()

	f.send("chat-1", "hi")
	assert.Equal(t, string(models.StateMainMenu), f.sessions.field("chat-1", models.FieldState))
	assert.Contains(t, f.sender.last().text, "1. Buy a ticket")

	f.send("chat-1", "1")
	assert.Equal(t, string(models.StateSelectTicket), f.sessions.field("chat-1", models.FieldState))
	assert.Contains(t, f.sender.last().text, "General Admission")

	f.send("chat-1", "a")
	assert.Equal(t, string(models.StateAwaitingEmail), f.sessions.field("chat-1", models.FieldState))
	assert.Equal(t, "ga", f.sessions.field("chat-1", models.FieldTicketType))
	assert.Equal(t, "918.75", f.sessions.field("chat-1", models.FieldTotalPrice))

	f.send("chat-1", "Ama@Example.com")
	assert.Equal(t, string(models.StateAwaitingCouponAnswer), f.sessions.field("chat-1", models.FieldState))
	assert.Equal(t, "ama@example.com", f.sessions.field("chat-1", models.FieldEmail))

	f.send("chat-1", "no")
	assert.Equal(t, string(models.StateAwaitingPayment), f.sessions.field("chat-1", models.FieldState))
	assert.Contains(t, f.sender.last().text, "Pay 918.75 GHS")
	assert.Contains(t, f.sender.last().text, "https://pay.example/REF-1")

	// The pending payment record matches the link.
	p, err := f.payments.FindByReference(ctx, "REF-1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, p.Status)
	assert.True(t, p.Amount.Equal(decimal.RequireFromString("918.75")))
	assert.Equal(t, models.TicketGA, p.TicketType)
	assert.Equal(t, "chat-1", p.ChatID)

	require.Len(t, f.gateway.initCalls, 1)
	assert.Equal(t, "ama@example.com", f.gateway.initCalls[0].email)
	assert.Equal(t, "chat-1", f.gateway.initCalls[0].md.ChatID)
}

func TestConversation_InvalidInputLeavesSessionUnchanged(t *testing.T) {
	f := setupConversation(t)
	f.sessions.seed("chat-1", map[string]string{
		models.FieldState:    string(models.StateMainMenu),
		models.FieldUserName: "Ama",
	})

	f.send("chat-1", "9")

	assert.Equal(t, string(models.StateMainMenu), f.sessions.field("chat-1", models.FieldState))
	assert.Contains(t, f.sender.last().text, "Valid options are 1, 2, 3 or 4")
}

func TestConversation_MenuResetClearsPurchaseFields(t *testing.T) {
	f := setupConversation(t)
	f.sessions.seed("chat-1", map[string]string{
		models.FieldState:         string(models.StateAwaitingPayment),
		models.FieldUserName:      "Ama",
		models.FieldTicketType:    "vip",
		models.FieldTotalPrice:    "1531.25",
		models.FieldEmail:         "ama@example.com",
		models.FieldWalletBalance: "40",
	})

	f.send("chat-1", "menu")

	assert.Equal(t, string(models.StateMainMenu), f.sessions.field("chat-1", models.FieldState))
	assert.Empty(t, f.sessions.field("chat-1", models.FieldTicketType))
	assert.Empty(t, f.sessions.field("chat-1", models.FieldTotalPrice))
	// Email and wallet balance survive a reset.
	assert.Equal(t, "ama@example.com", f.sessions.field("chat-1", models.FieldEmail))
	assert.Equal(t, "40", f.sessions.field("chat-1", models.FieldWalletBalance))
}

func TestConversation_VIPSoldOut(t *testing.T) {
	f := setupConversation(t)
	f.availability.available = false
	f.sessions.seed("chat-1", map[string]string{
		models.FieldState:    string(models.StateSelectTicket),
		models.FieldUserName: "Ama",
	})

	f.send("chat-1", "b")

	assert.Equal(t, string(models.StateSelectTicket), f.sessions.field("chat-1", models.FieldState))
	assert.Contains(t, f.sender.last().text, "VIP tickets are sold out")
}

func TestConversation_CouponApplied(t *testing.T) {
	f := setupConversation(t, &models.Coupon{
		ID:            "c1",
		Code:          "early10",
		DiscountType:  models.DiscountPercentage,
		DiscountValue: decimal.RequireFromString("10"),
		Active:        true,
		MaxUsage:      5,
	})
	f.sessions.seed("chat-1", map[string]string{
		models.FieldState:      string(models.StateAwaitingCouponCode),
		models.FieldUserName:   "Ama",
		models.FieldTicketType: "ga",
		models.FieldTotalPrice: "918.75",
		models.FieldEmail:      "ama@example.com",
	})

	f.send("chat-1", "EARLY10")

	assert.Equal(t, string(models.StateAwaitingPayment), f.sessions.field("chat-1", models.FieldState))
	assert.Equal(t, "early10", f.sessions.field("chat-1", models.FieldAppliedCoupon))
	assert.Equal(t, "918.75", f.sessions.field("chat-1", models.FieldOriginalPrice))
	assert.Equal(t, "826.875", f.sessions.field("chat-1", models.FieldDiscountedPrice))
	// The discounted amount is now the price to settle against.
	assert.Equal(t, "826.875", f.sessions.field("chat-1", models.FieldTotalPrice))

	require.Len(t, f.gateway.initCalls, 1)
	assert.True(t, f.gateway.initCalls[0].amount.Equal(decimal.RequireFromString("826.875")))
	assert.Equal(t, 1, f.coupons.coupons["early10"].UsageCount)
	assert.Contains(t, f.sender.last().text, "Coupon early10 applied")
}

func TestConversation_UnknownCouponOffersContinue(t *testing.T) {
	f := setupConversation(t)
	f.sessions.seed("chat-1", map[string]string{
		models.FieldState:      string(models.StateAwaitingCouponCode),
		models.FieldUserName:   "Ama",
		models.FieldTotalPrice: "918.75",
		models.FieldEmail:      "ama@example.com",
	})

	f.send("chat-1", "nosuchcode")

	assert.Equal(t, string(models.StateAwaitingContinueAnswer), f.sessions.field("chat-1", models.FieldState))
	assert.Contains(t, f.sender.last().text, "invalid or has expired")
	assert.Empty(t, f.gateway.initCalls)
}

func TestConversation_ContinueAtFullPrice(t *testing.T) {
	f := setupConversation(t)
	f.sessions.seed("chat-1", map[string]string{
		models.FieldState:      string(models.StateAwaitingContinueAnswer),
		models.FieldUserName:   "Ama",
		models.FieldTicketType: "ga",
		models.FieldTotalPrice: "918.75",
		models.FieldEmail:      "ama@example.com",
	})

	f.send("chat-1", "yes")

	assert.Equal(t, string(models.StateAwaitingPayment), f.sessions.field("chat-1", models.FieldState))
	require.Len(t, f.gateway.initCalls, 1)
	assert.True(t, f.gateway.initCalls[0].amount.Equal(decimal.RequireFromString("918.75")))
}

func TestConversation_DeclineContinueResets(t *testing.T) {
	f := setupConversation(t)
	f.sessions.seed("chat-1", map[string]string{
		models.FieldState:      string(models.StateAwaitingContinueAnswer),
		models.FieldUserName:   "Ama",
		models.FieldTicketType: "ga",
		models.FieldTotalPrice: "918.75",
	})

	f.send("chat-1", "no")

	assert.Equal(t, string(models.StateMainMenu), f.sessions.field("chat-1", models.FieldState))
	assert.Empty(t, f.sessions.field("chat-1", models.FieldTicketType))
	assert.Empty(t, f.gateway.initCalls)
}

func TestConversation_GatewayFailureKeepsState(t *testing.T) {
	f := setupConversation(t)
	// The real gateway surfaces every failure as a BackendError.
	f.gateway.initErr = status.NewBackendError("paystack initialize", assert.AnError)
	f.sessions.seed("chat-1", map[string]string{
		models.FieldState:      string(models.StateAwaitingCouponAnswer),
		models.FieldUserName:   "Ama",
		models.FieldTotalPrice: "918.75",
		models.FieldEmail:      "ama@example.com",
	})

	f.send("chat-1", "no")

	assert.Equal(t, string(models.StateAwaitingCouponAnswer), f.sessions.field("chat-1", models.FieldState))
	assert.Equal(t, messages.TryAgainLater, f.sender.last().text)
}

func TestConversation_AwaitingPaymentNudgesToFinish(t *testing.T) {
	f := setupConversation(t)
	f.sessions.seed("chat-1", map[string]string{
		models.FieldState:    string(models.StateAwaitingPayment),
		models.FieldUserName: "Ama",
	})

	f.send("chat-1", "hello?")

	assert.Equal(t, string(models.StateAwaitingPayment), f.sessions.field("chat-1", models.FieldState))
	assert.Equal(t, messages.FinishPayment, f.sender.last().text)
}

func TestConversation_WalletFlow(t *testing.T) {
	f := setupConversation(t)
	f.sessions.seed("chat-1", map[string]string{
		models.FieldState:         string(models.StateMainMenu),
		models.FieldUserName:      "Ama",
		models.FieldWalletBalance: "81.25",
	})

	f.send("chat-1", "3")
	assert.Equal(t, string(models.StateWalletTransfer), f.sessions.field("chat-1", models.FieldState))
	assert.Contains(t, f.sender.last().text, "81.25 GHS")

	f.send("chat-1", "2")
	assert.Equal(t, string(models.StateMainMenu), f.sessions.field("chat-1", models.FieldState))
	assert.Equal(t, "0", f.sessions.field("chat-1", models.FieldWalletBalance))

	require.Len(t, f.wallet.entries, 1)
	assert.Equal(t, models.WalletDestMobileMoney, f.wallet.entries[0].dest)
	assert.True(t, f.wallet.entries[0].amount.Equal(decimal.RequireFromString("81.25")))
}

func TestConversation_EmptyWalletStaysInMenu(t *testing.T) {
	f := setupConversation(t)
	f.sessions.seed("chat-1", map[string]string{
		models.FieldState:    string(models.StateMainMenu),
		models.FieldUserName: "Ama",
	})

	f.send("chat-1", "3")

	assert.Equal(t, string(models.StateMainMenu), f.sessions.field("chat-1", models.FieldState))
	assert.Equal(t, messages.WalletEmpty, f.sender.last().text)
}

func TestConversation_CouponSettlementClearsBalance(t *testing.T) {
	f := setupConversation(t, &models.Coupon{
		ID:            "c1",
		Code:          "early10",
		DiscountType:  models.DiscountPercentage,
		DiscountValue: decimal.RequireFromString("10"),
		Active:        true,
	})
	recon := NewPaymentService(f.payments, f.sessions, f.gateway, f.sender, testWebhookSecret, "GHS")
	ctx := context.Background()

	f.sessions.seed("chat-1", map[string]string{
		models.FieldState:      string(models.StateAwaitingCouponCode),
		models.FieldUserName:   "Ama",
		models.FieldTicketType: "ga",
		models.FieldTotalPrice: "918.75",
		models.FieldEmail:      "ama@example.com",
	})

	f.send("chat-1", "early10")
	require.Len(t, f.gateway.initCalls, 1)

	// The provider confirms the discounted charge for that link.
	body, sig := signedBody(`{
		"event": "charge.success",
		"data": {"reference": "REF-1", "paid_at": "2025-08-01T12:00:00Z"}
	}`)
	require.NoError(t, recon.HandleWebhookEvent(ctx, body, sig))

	// Paying the discounted amount settles the purchase completely.
	assert.Equal(t, "826.875", f.sessions.field("chat-1", models.FieldAmountPaid))
	assert.Equal(t, "0", f.sessions.field("chat-1", models.FieldRemainingBalance))
	assert.Equal(t, string(models.StateMainMenu), f.sessions.field("chat-1", models.FieldState))
	assert.Contains(t, f.sender.last().text, "Payment received")
}

func TestConversation_RetiredStateLandsOnMainMenu(t *testing.T) {
	f := setupConversation(t)
	f.sessions.seed("chat-1", map[string]string{
		models.FieldState:      "SELECT_PAYMENT_TYPE",
		models.FieldUserName:   "Ama",
		models.FieldTicketType: "ga",
		models.FieldTotalPrice: "918.75",
	})

	f.send("chat-1", "hello")

	assert.Equal(t, string(models.StateMainMenu), f.sessions.field("chat-1", models.FieldState))
	assert.Equal(t, messages.MainMenu, f.sender.last().text)
	// Purchase fields survive, unlike a hard reset.
	assert.Equal(t, "ga", f.sessions.field("chat-1", models.FieldTicketType))
}

func TestConversation_StatusReport(t *testing.T) {
	f := setupConversation(t)
	f.sessions.seed("chat-1", map[string]string{
		models.FieldState:            string(models.StateMainMenu),
		models.FieldUserName:         "Ama",
		models.FieldTicketType:       "ga",
		models.FieldAmountPaid:       "500",
		models.FieldTotalPrice:       "918.75",
		models.FieldRemainingBalance: "418.75",
	})

	f.send("chat-1", "2")

	last := f.sender.last().text
	assert.Contains(t, last, "Paid so far: 500.00 GHS")
	assert.Contains(t, last, "Outstanding: 418.75 GHS")
	assert.Equal(t, string(models.StateMainMenu), f.sessions.field("chat-1", models.FieldState))
}
