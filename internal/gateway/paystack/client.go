package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"ticketbot/internal/gateway"
	"ticketbot/utils"
)

type ClientConfig struct {
	BaseURL     string `json:"baseUrl" mapstructure:"base_url"`
	SecretKey   string `json:"secretKey" mapstructure:"secret_key"`
	CallbackURL string `json:"callbackUrl" mapstructure:"callback_url"`
	Currency    string `json:"currency" mapstructure:"currency"`
}

type client struct {
	// baseURL is the base url of the Paystack API.
	baseURL string

	// secretKey authenticates every API call.
	secretKey string

	// callbackURL is where the provider redirects after checkout.
	callbackURL string

	// currency for all initialized transactions.
	currency string

	// hc is the http client.
	hc *http.Client

	// breaker trips when the provider keeps failing, so a Paystack
	// outage degrades to fast errors instead of piling up timeouts.
	breaker *utils.CircuitBreaker
}

func newClient(_ context.Context, c *ClientConfig) *client {
	return &client{
		baseURL:     c.BaseURL,
		secretKey:   c.SecretKey,
		callbackURL: c.CallbackURL,
		currency:    c.Currency,

		// set http client with timeout.
		hc: &http.Client{
			Timeout: 10 * time.Second,
		},

		breaker: utils.NewCircuitBreaker("paystack"),
	}
}

// do runs one provider request through the circuit breaker.
func (c *client) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	result, err := c.breaker.Execute(ctx, func() (interface{}, error) {
		return c.hc.Do(req)
	})
	if err != nil {
		return nil, err
	}
	return result.(*http.Response), nil
}

type initializePayload struct {
	Email       string           `json:"email"`
	Amount      int64            `json:"amount"` // minor units
	Currency    string           `json:"currency"`
	Reference   string           `json:"reference"`
	CallbackURL string           `json:"callback_url,omitempty"`
	Metadata    gateway.Metadata `json:"metadata"`
}

type verifyData struct {
	Reference string           `json:"reference"`
	Status    string           `json:"status"`
	Amount    int64            `json:"amount"` // minor units
	Currency  string           `json:"currency"`
	PaidAt    string           `json:"paid_at"`
	Metadata  gateway.Metadata `json:"metadata"`
}

// initializeTransaction creates a checkout link from the Paystack API.
func (c *client) initializeTransaction(ctx context.Context, reference, email string, amount decimal.Decimal, md gateway.Metadata) (*gateway.InitializedTransaction, error) {
	payload := initializePayload{
		Email:       email,
		Amount:      toMinorUnits(amount),
		Currency:    c.currency,
		Reference:   reference,
		CallbackURL: c.callbackURL,
		Metadata:    md,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("initializeTransaction: json.Marshal: %w", err)
	}

	_baseURL, _ := url.Parse(c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s%s", _baseURL.String(), "/transaction/initialize"), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("initializeTransaction: http.NewReq: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("initializeTransaction: http.Do: %w", err)
	}
	defer resp.Body.Close()

	var reply struct {
		Status  bool   `json:"status"`
		Message string `json:"message"`
		Data    struct {
			AuthorizationURL string `json:"authorization_url"`
			AccessCode       string `json:"access_code"`
			Reference        string `json:"reference"`
		} `json:"data"`
	}
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&reply); err != nil {
		return nil, fmt.Errorf("initializeTransaction: json.Decode: %w", err)
	}
	if !reply.Status {
		return nil, fmt.Errorf("initializeTransaction: reply.Status: false, reply.Message: %v", reply.Message)
	}

	return &gateway.InitializedTransaction{
		AuthorizationURL: reply.Data.AuthorizationURL,
		AccessCode:       reply.Data.AccessCode,
		Reference:        reply.Data.Reference,
	}, nil
}

// verifyTransaction checks transaction status from the Paystack API.
func (c *client) verifyTransaction(ctx context.Context, reference string) (*gateway.TransactionStatus, error) {
	_baseURL, _ := url.Parse(c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/transaction/verify/%s", _baseURL.String(), url.PathEscape(reference)), nil)
	if err != nil {
		return nil, fmt.Errorf("verifyTransaction: http.NewReq: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("verifyTransaction: http.Do: %w", err)
	}
	defer resp.Body.Close()

	var reply struct {
		Status  bool       `json:"status"`
		Message string     `json:"message"`
		Data    verifyData `json:"data"`
	}
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&reply); err != nil {
		return nil, fmt.Errorf("verifyTransaction: json.Decode: %w", err)
	}
	if !reply.Status {
		return nil, fmt.Errorf("verifyTransaction: reply.Status: false, reply.Message: %v", reply.Message)
	}

	return reply.Data.toDomain()
}

func (d *verifyData) toDomain() (*gateway.TransactionStatus, error) {
	var paidAt time.Time
	if d.PaidAt != "" {
		ts, err := time.Parse(time.RFC3339, d.PaidAt)
		if err != nil {
			return nil, fmt.Errorf("verifyTransaction: paid_at: %w", err)
		}
		paidAt = ts
	}

	return &gateway.TransactionStatus{
		Reference: d.Reference,
		Status:    d.Status,
		Amount:    fromMinorUnits(d.Amount),
		Currency:  d.Currency,
		PaidAt:    paidAt,
		Metadata:  d.Metadata,
	}, nil
}

// toMinorUnits converts a major-unit amount to the provider's minor
// units (e.g. GHS 918.75 -> 91875 pesewas).
func toMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func fromMinorUnits(amount int64) decimal.Decimal {
	return decimal.NewFromInt(amount).Div(decimal.NewFromInt(100))
}
