package store

import (
	"context"

	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"ticketbot/models"
)

// PBTemplateStore reads the admin-maintained reminder templates.
type PBTemplateStore struct {
	app core.App
}

func NewPBTemplateStore(app core.App) *PBTemplateStore {
	return &PBTemplateStore{app: app}
}

func (s *PBTemplateStore) ListActive(ctx context.Context) ([]models.ReminderTemplate, error) {
	records, err := s.app.FindRecordsByFilter(
		"reminder_templates",
		"active = true",
		"-days_before",
		0,
		0,
	)
	if err != nil {
		return nil, err
	}

	templates := make([]models.ReminderTemplate, 0, len(records))
	for _, record := range records {
		templates = append(templates, models.ReminderTemplate{
			ID:         record.Id,
			DaysBefore: record.GetInt("days_before"),
			Body:       record.GetString("body"),
			Active:     record.GetBool("active"),
		})
	}
	return templates, nil
}

// PBReminderLogStore appends one record per send attempt.
type PBReminderLogStore struct {
	app core.App
}

func NewPBReminderLogStore(app core.App) *PBReminderLogStore {
	return &PBReminderLogStore{app: app}
}

func (s *PBReminderLogStore) Append(ctx context.Context, entry models.ReminderLog) error {
	collection, err := s.app.FindCollectionByNameOrId("reminder_logs")
	if err != nil {
		return err
	}

	record := core.NewRecord(collection)
	record.Set("template_id", entry.TemplateID)
	record.Set("chat_id", entry.ChatID)
	record.Set("status", entry.Status)
	record.Set("trigger_type", entry.TriggerType)
	record.Set("sent_at", entry.SentAt)

	return s.app.SaveWithContext(ctx, record)
}

// PBWalletTransferStore appends one record per executed transfer.
type PBWalletTransferStore struct {
	app core.App
}

func NewPBWalletTransferStore(app core.App) *PBWalletTransferStore {
	return &PBWalletTransferStore{app: app}
}

func (s *PBWalletTransferStore) Append(ctx context.Context, chatID string, amount decimal.Decimal, dest models.WalletDestination) error {
	collection, err := s.app.FindCollectionByNameOrId("wallet_transfers")
	if err != nil {
		return err
	}

	record := core.NewRecord(collection)
	record.Set("chat_id", chatID)
	record.Set("amount", amount.InexactFloat64())
	record.Set("destination", string(dest))

	return s.app.SaveWithContext(ctx, record)
}
