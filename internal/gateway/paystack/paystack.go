// Package paystack implements the payment gateway against the
// Paystack HTTPS API. Amounts cross the wire in minor currency units;
// webhook pushes are authenticated with an HMAC-SHA512 signature over
// the raw request body.
package paystack

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"ticketbot/internal/gateway"
	"ticketbot/internal/status"
	"ticketbot/utils"
)

type Paystack struct {
	client *client
}

// New returns a new Paystack gateway instance.
func New(ctx context.Context, cfg *ClientConfig) *Paystack {
	return &Paystack{client: newClient(ctx, cfg)}
}

func (p *Paystack) InitializeTransaction(ctx context.Context, amount decimal.Decimal, email string, md gateway.Metadata) (*gateway.InitializedTransaction, error) {
	reference, err := newReference()
	if err != nil {
		return nil, status.NewBackendError("paystack initialize", err)
	}

	tx, err := p.client.initializeTransaction(ctx, reference, email, amount, md)
	if err != nil {
		return nil, status.NewBackendError("paystack initialize", err)
	}
	return tx, nil
}

func (p *Paystack) VerifyTransaction(ctx context.Context, reference string) (*gateway.TransactionStatus, error) {
	tx, err := p.client.verifyTransaction(ctx, reference)
	if err != nil {
		return nil, status.NewBackendError("paystack verify", err)
	}
	return tx, nil
}

// newReference builds a globally unique transaction reference.
func newReference() (string, error) {
	code, err := utils.GenerateCode(6)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("TKT-%d-%s", time.Now().Unix(), code), nil
}
