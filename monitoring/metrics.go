package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_messages_processed_total",
			Help: "Inbound chat messages processed, by state and outcome",
		},
		[]string{"state", "outcome"},
	)

	paymentsConfirmed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_confirmed_total",
			Help: "Payments reconciled to success, by trigger",
		},
		[]string{"trigger"},
	)

	webhookEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_webhook_events_total",
			Help: "Webhook events received, by outcome",
		},
		[]string{"outcome"},
	)

	remindersSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "installment_reminders_sent_total",
			Help: "Installment reminders sent, by threshold",
		},
		[]string{"threshold"},
	)

	deadlineRollovers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deadline_rollovers_total",
			Help: "Deadline sweep outcomes, by kind (downgrade or rollover)",
		},
		[]string{"kind"},
	)

	vipSold = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vip_tickets_sold_total",
			Help: "Successful VIP payments observed by the availability gate",
		},
	)
)

// Track inbound message handling outcome
func TrackMessage(state, outcome string) {
	messagesProcessed.WithLabelValues(state, outcome).Inc()
}

// Track a payment reconciled to success
func TrackPaymentConfirmed(trigger string) {
	paymentsConfirmed.WithLabelValues(trigger).Inc()
}

// Track a webhook delivery
func TrackWebhookEvent(outcome string) {
	webhookEvents.WithLabelValues(outcome).Inc()
}

// Track a reminder send
func TrackReminderSent(threshold string) {
	remindersSent.WithLabelValues(threshold).Inc()
}

// Track a deadline sweep outcome
func TrackDeadlineOutcome(kind string) {
	deadlineRollovers.WithLabelValues(kind).Inc()
}

// Track the VIP sales count observed by the availability gate
func TrackVIPSold(count int64) {
	vipSold.Set(float64(count))
}
