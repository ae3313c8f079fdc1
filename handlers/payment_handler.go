package handlers

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"ticketbot/internal/gateway/paystack"
	"ticketbot/services"
)

type PaymentHandler struct {
	payments *services.PaymentService
}

func NewPaymentHandler(payments *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// Webhook receives provider event deliveries. It always answers 200 so
// the provider does not retry events we have already classified; real
// failures are logged and picked up by the callback/verify path.
func (h *PaymentHandler) Webhook(re *core.RequestEvent) error {
	body, err := io.ReadAll(re.Request.Body)
	if err != nil {
		slog.Error("webhook: read body", "error", err)
		return re.JSON(http.StatusOK, map[string]string{"status": "received"})
	}

	signature := re.Request.Header.Get(paystack.SignatureHeader)
	if err := h.payments.HandleWebhookEvent(re.Request.Context(), body, signature); err != nil {
		slog.Error("webhook: handle event", "error", err)
	}

	return re.JSON(http.StatusOK, map[string]string{"status": "received"})
}

// Callback is where the provider redirects the buyer's browser after
// payment. The reference is re-verified server side before anything is
// recorded.
func (h *PaymentHandler) Callback(re *core.RequestEvent) error {
	reference := re.Request.URL.Query().Get("reference")
	if reference == "" {
		return re.BadRequestError("missing reference", nil)
	}

	if err := h.payments.HandleCallback(re.Request.Context(), reference); err != nil {
		slog.Error("callback: verify transaction", "reference", reference, "error", err)
		return re.String(http.StatusOK, "We could not confirm your payment yet. Please return to the chat and check your status.")
	}

	return re.String(http.StatusOK, "Thank you! You can close this page and return to the chat.")
}
