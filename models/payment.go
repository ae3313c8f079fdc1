package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentSuccess   PaymentStatus = "success"
	PaymentFailed    PaymentStatus = "failed"
	PaymentAbandoned PaymentStatus = "abandoned"
)

// Payment is one payment-link generation attempt. The reference is
// unique per attempt and correlates webhook/callback events back to it.
type Payment struct {
	ID          string          `json:"id"`
	Reference   string          `json:"reference"`
	ChatID      string          `json:"chat_id"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Status      PaymentStatus   `json:"status"`
	TicketType  TicketType      `json:"ticket_type,omitempty"`
	PaymentType PaymentType     `json:"payment_type,omitempty"`
	Coupon      string          `json:"coupon,omitempty"`
	PaidAt      time.Time       `json:"paid_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Terminal reports whether the record already reached a final status.
// Terminal payments are never re-processed.
func (p *Payment) Terminal() bool {
	return p.Status == PaymentSuccess || p.Status == PaymentFailed
}
