package models

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// ConversationState is the current node of the chat funnel.
type ConversationState string

const (
	StateWelcome                ConversationState = "WELCOME"
	StateMainMenu               ConversationState = "MAIN_MENU"
	StateSelectTicket           ConversationState = "SELECT_TICKET"
	StateAwaitingEmail          ConversationState = "AWAITING_EMAIL"
	StateAwaitingCouponAnswer   ConversationState = "AWAITING_COUPON_ANSWER"
	StateAwaitingCouponCode     ConversationState = "AWAITING_COUPON_CODE"
	StateAwaitingContinueAnswer ConversationState = "AWAITING_CONTINUE_ANSWER"
	StateAwaitingPayment        ConversationState = "AWAITING_PAYMENT"
	StateWalletTransfer         ConversationState = "WALLET_TRANSFER"
)

type TicketType string

const (
	TicketGA  TicketType = "ga"
	TicketVIP TicketType = "vip"
)

type PaymentType string

const (
	PaymentFull        PaymentType = "full"
	PaymentInstallment PaymentType = "installment"
)

// Session field names as stored in the Redis hash. Every write goes
// through these so merge updates touch only the fields that changed.
const (
	FieldState             = "state"
	FieldUserName          = "user_name"
	FieldTicketType        = "ticket_type"
	FieldPaymentType       = "payment_type"
	FieldEmail             = "email"
	FieldAppliedCoupon     = "applied_coupon"
	FieldOriginalPrice     = "original_price"
	FieldDiscountedPrice   = "discounted_price"
	FieldTicketID          = "ticket_id"
	FieldAmountPaid        = "amount_paid"
	FieldTotalPrice        = "total_price"
	FieldRemainingBalance  = "remaining_balance"
	FieldInstallmentNumber = "installment_number"
	FieldTotalInstallments = "total_installments"
	FieldNextDueDate       = "next_due_date"
	FieldNextDueDateISO    = "next_due_date_iso"
	FieldWalletBalance     = "wallet_balance"
	FieldDeadlineProcessed = "deadline_processed"
)

// ReminderFlagPrefix prefixes the per-threshold sent markers, e.g.
// "reminder_5d". Flags are monotone: once set they are never cleared.
const ReminderFlagPrefix = "reminder_"

// Session is the per-chat-identity conversation and purchase record.
type Session struct {
	ChatID   string
	UserName string
	State    ConversationState

	TicketType  TicketType
	PaymentType PaymentType
	Email       string

	AppliedCoupon   string
	OriginalPrice   decimal.Decimal
	DiscountedPrice decimal.Decimal

	// TicketID is set by the admin once the purchase is fully honored.
	TicketID string

	AmountPaid       decimal.Decimal
	TotalPrice       decimal.Decimal
	RemainingBalance decimal.Decimal

	InstallmentNumber int
	TotalInstallments int
	NextDueDate       string
	NextDueDateISO    string

	WalletBalance decimal.Decimal

	// Reminders maps a threshold flag (e.g. "reminder_5d") to whether
	// that reminder was already sent.
	Reminders map[string]bool

	// DeadlineProcessed marks that the deadline sweep already handled
	// this session.
	DeadlineProcessed bool
}

// SessionFromHash rebuilds a Session from its Redis hash fields.
func SessionFromHash(chatID string, fields map[string]string) *Session {
	s := &Session{
		ChatID:            chatID,
		UserName:          fields[FieldUserName],
		State:             ConversationState(fields[FieldState]),
		TicketType:        TicketType(fields[FieldTicketType]),
		PaymentType:       PaymentType(fields[FieldPaymentType]),
		Email:             fields[FieldEmail],
		AppliedCoupon:     fields[FieldAppliedCoupon],
		TicketID:          fields[FieldTicketID],
		NextDueDate:       fields[FieldNextDueDate],
		NextDueDateISO:    fields[FieldNextDueDateISO],
		OriginalPrice:     parseDecimal(fields[FieldOriginalPrice]),
		DiscountedPrice:   parseDecimal(fields[FieldDiscountedPrice]),
		AmountPaid:        parseDecimal(fields[FieldAmountPaid]),
		TotalPrice:        parseDecimal(fields[FieldTotalPrice]),
		RemainingBalance:  parseDecimal(fields[FieldRemainingBalance]),
		WalletBalance:     parseDecimal(fields[FieldWalletBalance]),
		InstallmentNumber: parseInt(fields[FieldInstallmentNumber]),
		TotalInstallments: parseInt(fields[FieldTotalInstallments]),
		DeadlineProcessed: fields[FieldDeadlineProcessed] == "1",
		Reminders:         map[string]bool{},
	}

	for k, v := range fields {
		if len(k) > len(ReminderFlagPrefix) && k[:len(ReminderFlagPrefix)] == ReminderFlagPrefix {
			s.Reminders[k] = v == "1"
		}
	}

	return s
}

// ReminderFlag returns the sent-marker field name for a day threshold.
func ReminderFlag(daysBefore int) string {
	return fmt.Sprintf("%s%dd", ReminderFlagPrefix, daysBefore)
}

func parseDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseInt(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
