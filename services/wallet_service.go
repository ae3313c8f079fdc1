package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"

	"ticketbot/internal/status"
	"ticketbot/models"
	"ticketbot/store"
)

// WalletTransferrer executes a wallet payout to one of the fixed
// destinations.
type WalletTransferrer interface {
	Transfer(ctx context.Context, chatID string, amount decimal.Decimal, dest models.WalletDestination) error
}

// WalletService records wallet transfers in the document store. The
// actual payout (mobile money, donation remittance) is settled by the
// finance team from that record.
type WalletService struct {
	transfers store.WalletTransferStore
}

func NewWalletService(transfers store.WalletTransferStore) *WalletService {
	return &WalletService{transfers: transfers}
}

func (s *WalletService) Transfer(ctx context.Context, chatID string, amount decimal.Decimal, dest models.WalletDestination) error {
	if amount.IsZero() || amount.IsNegative() {
		return status.NewBackendError("wallet transfer", errEmptyWallet)
	}

	if err := s.transfers.Append(ctx, chatID, amount, dest); err != nil {
		return status.NewBackendError("wallet transfer", err)
	}

	slog.Info("wallet transfer recorded", "chatID", chatID, "amount", amount.String(), "destination", dest)
	return nil
}

var errEmptyWallet = errors.New("wallet balance is empty")
