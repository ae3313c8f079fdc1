package gateway

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Metadata is the closed set of context fields attached to a payment
// link and echoed back on verification.
type Metadata struct {
	ChatID            string `json:"chat_id"`
	TicketType        string `json:"ticket_type,omitempty"`
	PaymentType       string `json:"payment_type,omitempty"`
	InstallmentNumber int    `json:"installment_number,omitempty"`
	Coupon            string `json:"coupon,omitempty"`
}

// InitializedTransaction is the result of creating a payment link.
type InitializedTransaction struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

// TransactionStatus is the provider's view of one transaction.
// Amount is in major currency units.
type TransactionStatus struct {
	Reference string
	Status    string
	Amount    decimal.Decimal
	Currency  string
	PaidAt    time.Time
	Metadata  Metadata
}

// PaymentGateway wraps the external payment provider. Every failure,
// transport or provider-reported, surfaces as a BackendError.
type PaymentGateway interface {
	// InitializeTransaction creates a payment link for the given amount
	// (major units) and returns the link plus a unique reference.
	InitializeTransaction(ctx context.Context, amount decimal.Decimal, email string, md Metadata) (*InitializedTransaction, error)

	// VerifyTransaction checks a transaction's status directly against
	// the provider.
	VerifyTransaction(ctx context.Context, reference string) (*TransactionStatus, error)
}
