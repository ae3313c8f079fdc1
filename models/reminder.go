package models

import "time"

// ReminderTemplate is an admin-editable installment reminder, matched
// by the number of days left until the next due date.
type ReminderTemplate struct {
	ID         string `json:"id"`
	DaysBefore int    `json:"days_before"`
	Body       string `json:"body"`
	Active     bool   `json:"active"`
}

// ReminderLog is one send attempt, append-only, kept for reporting.
type ReminderLog struct {
	TemplateID  string    `json:"template_id,omitempty"`
	ChatID      string    `json:"chat_id"`
	Status      string    `json:"status"` // sent, failed
	TriggerType string    `json:"trigger_type"`
	SentAt      time.Time `json:"sent_at"`
}

// WalletDestination is one of the fixed wallet-transfer options.
type WalletDestination string

const (
	WalletDestNextEvent   WalletDestination = "next_event"
	WalletDestMobileMoney WalletDestination = "mobile_money"
	WalletDestDonate      WalletDestination = "donate"
)
