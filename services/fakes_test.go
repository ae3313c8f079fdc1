package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"ticketbot/internal/gateway"
	"ticketbot/internal/status"
	"ticketbot/models"
)

// fakeSessionStore mirrors the Redis hash semantics in memory so the
// funnel tests can assert on merge updates and resets.
type fakeSessionStore struct {
	mu     sync.Mutex
	hashes map[string]map[string]string

	getErr    error
	updateErr error
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{hashes: map[string]map[string]string{}}
}

func (s *fakeSessionStore) seed(chatID string, fields map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := map[string]string{}
	for k, v := range fields {
		h[k] = v
	}
	s.hashes[chatID] = h
}

func (s *fakeSessionStore) Get(ctx context.Context, chatID string) (*models.Session, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.hashes[chatID]
	if !ok {
		return nil, nil
	}
	return models.SessionFromHash(chatID, h), nil
}

func (s *fakeSessionStore) GetOrCreate(ctx context.Context, chatID, userName string) (*models.Session, bool, error) {
	sess, err := s.Get(ctx, chatID)
	if err != nil {
		return nil, false, err
	}
	if sess != nil {
		return sess, false, nil
	}
	s.seed(chatID, map[string]string{
		models.FieldState:    string(models.StateWelcome),
		models.FieldUserName: userName,
	})
	return &models.Session{
		ChatID:    chatID,
		UserName:  userName,
		State:     models.StateWelcome,
		Reminders: map[string]bool{},
	}, true, nil
}

func (s *fakeSessionStore) Update(ctx context.Context, chatID string, fields map[string]any) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.hashes[chatID]
	if !ok {
		h = map[string]string{}
		s.hashes[chatID] = h
	}
	for k, v := range fields {
		h[k] = stringify(v)
	}
	return nil
}

func (s *fakeSessionStore) Reset(ctx context.Context, chatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.hashes[chatID]
	if !ok {
		return nil
	}
	for _, f := range []string{
		models.FieldTicketType,
		models.FieldPaymentType,
		models.FieldAppliedCoupon,
		models.FieldOriginalPrice,
		models.FieldDiscountedPrice,
		models.FieldTotalPrice,
	} {
		delete(h, f)
	}
	h[models.FieldState] = string(models.StateMainMenu)
	return nil
}

func (s *fakeSessionStore) Scan(ctx context.Context, fn func(*models.Session) error) error {
	s.mu.Lock()
	ids := make([]string, 0, len(s.hashes))
	for id := range s.hashes {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		sess, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		if sess == nil {
			continue
		}
		if err := fn(sess); err != nil {
			return err
		}
	}
	return nil
}

func (s *fakeSessionStore) Delete(ctx context.Context, chatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.hashes, chatID)
	return nil
}

func (s *fakeSessionStore) field(chatID, name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hashes[chatID][name]
}

func stringify(v any) string {
	switch val := v.(type) {
	case decimal.Decimal:
		return val.String()
	case bool:
		if val {
			return "1"
		}
		return "0"
	case string:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}

type fakePaymentStore struct {
	mu       sync.Mutex
	payments map[string]*models.Payment

	createErr error
	countErr  error
}

func newFakePaymentStore() *fakePaymentStore {
	return &fakePaymentStore{payments: map[string]*models.Payment{}}
}

func (s *fakePaymentStore) Create(ctx context.Context, p *models.Payment) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.payments[p.Reference] = &cp
	return nil
}

func (s *fakePaymentStore) FindByReference(ctx context.Context, reference string) (*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[reference]
	if !ok {
		return nil, status.ErrPaymentNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *fakePaymentStore) MarkStatus(ctx context.Context, reference string, st models.PaymentStatus, paidAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[reference]
	if !ok {
		return status.ErrPaymentNotFound
	}
	p.Status = st
	p.PaidAt = paidAt
	return nil
}

func (s *fakePaymentStore) CountSuccessful(ctx context.Context, tt models.TicketType) (int64, error) {
	if s.countErr != nil {
		return 0, s.countErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, p := range s.payments {
		if p.TicketType == tt && p.Status == models.PaymentSuccess {
			n++
		}
	}
	return n, nil
}

type fakeCouponStore struct {
	coupons   map[string]*models.Coupon
	redeemErr error
}

func newFakeCouponStore(coupons ...*models.Coupon) *fakeCouponStore {
	s := &fakeCouponStore{coupons: map[string]*models.Coupon{}}
	for _, c := range coupons {
		s.coupons[strings.ToLower(c.Code)] = c
	}
	return s
}

func (s *fakeCouponStore) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	c, ok := s.coupons[strings.ToLower(code)]
	if !ok {
		return nil, status.ErrCouponNotFound
	}
	return c, nil
}

func (s *fakeCouponStore) Redeem(ctx context.Context, id string) error {
	if s.redeemErr != nil {
		return s.redeemErr
	}
	for _, c := range s.coupons {
		if c.ID == id {
			if c.MaxUsage > 0 && c.UsageCount >= c.MaxUsage {
				return status.ErrCouponExhausted
			}
			c.UsageCount++
			return nil
		}
	}
	return status.ErrCouponNotFound
}

type fakeTemplateStore struct {
	templates []models.ReminderTemplate
	err       error
}

func (s *fakeTemplateStore) ListActive(ctx context.Context) ([]models.ReminderTemplate, error) {
	return s.templates, s.err
}

type fakeReminderLogStore struct {
	mu      sync.Mutex
	entries []models.ReminderLog
}

func (s *fakeReminderLogStore) Append(ctx context.Context, entry models.ReminderLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

type fakeWalletTransferStore struct {
	mu      sync.Mutex
	entries []walletEntry
	err     error
}

type walletEntry struct {
	chatID string
	amount decimal.Decimal
	dest   models.WalletDestination
}

func (s *fakeWalletTransferStore) Append(ctx context.Context, chatID string, amount decimal.Decimal, dest models.WalletDestination) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, walletEntry{chatID: chatID, amount: amount, dest: dest})
	return nil
}

type initCall struct {
	amount decimal.Decimal
	email  string
	md     gateway.Metadata
}

type fakeGateway struct {
	mu        sync.Mutex
	initCalls []initCall
	initErr   error

	verifyResult *gateway.TransactionStatus
	verifyErr    error
}

func (g *fakeGateway) InitializeTransaction(ctx context.Context, amount decimal.Decimal, email string, md gateway.Metadata) (*gateway.InitializedTransaction, error) {
	if g.initErr != nil {
		return nil, g.initErr
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.initCalls = append(g.initCalls, initCall{amount: amount, email: email, md: md})
	ref := fmt.Sprintf("REF-%d", len(g.initCalls))
	return &gateway.InitializedTransaction{
		AuthorizationURL: "https://pay.example/" + ref,
		AccessCode:       "ac_" + ref,
		Reference:        ref,
	}, nil
}

func (g *fakeGateway) VerifyTransaction(ctx context.Context, reference string) (*gateway.TransactionStatus, error) {
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	return g.verifyResult, nil
}

type sentMessage struct {
	chatID string
	text   string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (s *fakeSender) SendText(ctx context.Context, chatID, text string) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

func (s *fakeSender) last() sentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		return sentMessage{}
	}
	return s.sent[len(s.sent)-1]
}

type fakeAvailability struct {
	available bool
	err       error
}

func (a *fakeAvailability) VIPAvailable(ctx context.Context) (bool, error) {
	return a.available, a.err
}
