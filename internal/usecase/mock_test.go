//go:build !integration

package usecase_test

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"gym-membership-billing/internal/domain"
	"gym-membership-billing/internal/domain/model"
	"gym-membership-billing/internal/domain/ports/adapter"
	"gym-membership-billing/internal/domain/ports/repository"
)

// -----------------------------
// Utilities: tiny helpers
// -----------------------------

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func clonePayment(p *model.Payment) *model.Payment {
	cp := *p
	return &cp
}

// newTestLogger creates a silent zerolog.Logger for use in tests.
// It writes to io.Discard to prevent logs from cluttering test output.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// =============================
// Adapters
// =============================

// ---- Mock PaymentGateway ----

type MockPaymentGateway struct {
	mu        sync.Mutex
	seq       int
	Orders    []int64 // amounts (minor units) of every created order
	Receipts  []string
	IsLive    bool
	Key       string
	ValidSigs map[string]string // orderID -> accepted signature

	CreateOrderFunc func(ctx context.Context, amountMinor int64, currency, receipt string) (string, error)
}

var _ adapter.PaymentGateway = (*MockPaymentGateway)(nil)

func (g *MockPaymentGateway) Name() string      { return "mock" }
func (g *MockPaymentGateway) Configured() bool  { return g.IsLive }
func (g *MockPaymentGateway) PublicKey() string { return g.Key }

func (g *MockPaymentGateway) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (string, error) {
	if g.CreateOrderFunc != nil {
		return g.CreateOrderFunc(ctx, amountMinor, currency, receipt)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	g.Orders = append(g.Orders, amountMinor)
	g.Receipts = append(g.Receipts, receipt)
	return fmt.Sprintf("order_%d", g.seq), nil
}

func (g *MockPaymentGateway) VerifySignature(orderID, gatewayPaymentID, signature string) bool {
	if !g.IsLive {
		return true
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	want, ok := g.ValidSigs[orderID]
	return ok && want == signature
}

// ---- Mock Messenger ----

type sentMessage struct {
	ChatID int64
	Text   string
}

type MockMessenger struct {
	mu   sync.Mutex
	Sent []sentMessage

	SendFunc func(ctx context.Context, chatID int64, text string) error
}

var _ adapter.Messenger = (*MockMessenger)(nil)

func (m *MockMessenger) Send(ctx context.Context, chatID int64, text string) error {
	if m.SendFunc != nil {
		return m.SendFunc(ctx, chatID, text)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, sentMessage{ChatID: chatID, Text: text})
	return nil
}

// ---- Dispatchers ----

// inlineDispatcher runs every task synchronously so fan-out is observable in tests.
type inlineDispatcher struct {
	mu     sync.Mutex
	Errors []error
}

func (d *inlineDispatcher) Submit(task func(ctx context.Context) error) error {
	err := task(context.Background())
	d.mu.Lock()
	d.Errors = append(d.Errors, err)
	d.mu.Unlock()
	return nil
}

// fullDispatcher rejects every task, like a saturated worker pool.
type fullDispatcher struct{}

func (fullDispatcher) Submit(task func(ctx context.Context) error) error {
	return fmt.Errorf("worker queue full")
}

// =============================
// Repositories (in-memory)
// =============================

// ---- Payments ----

type MockPaymentRepo struct {
	mu      sync.Mutex
	data    map[string]*model.Payment // by id
	byOrder map[string]string         // orderID -> id
	invoice map[string]bool

	SaveFunc             func(ctx context.Context, tx repository.Tx, p *model.Payment) error
	FindByIDFunc         func(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error)
	TransitionStatusFunc func(ctx context.Context, tx repository.Tx, m repository.PaymentMatch, c model.StatusChange) (*model.Payment, bool, error)
}

var _ repository.PaymentRepository = (*MockPaymentRepo)(nil)

func NewMockPaymentRepo() *MockPaymentRepo {
	return &MockPaymentRepo{data: map[string]*model.Payment{}, byOrder: map[string]string{}, invoice: map[string]bool{}}
}

func (m *MockPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.data[p.ID]; (!ok || old.InvoiceNumber != p.InvoiceNumber) && m.invoice[p.InvoiceNumber] {
		return domain.ErrAlreadyExists
	}
	m.data[p.ID] = clonePayment(p)
	m.invoice[p.InvoiceNumber] = true
	if p.OrderID != nil {
		m.byOrder[*p.OrderID] = p.ID
	}
	return nil
}

func (m *MockPaymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, tx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.data[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return clonePayment(p), nil
}

func (m *MockPaymentRepo) FindByOrderID(ctx context.Context, tx repository.Tx, orderID string) (*model.Payment, error) {
	m.mu.Lock()
	id, ok := m.byOrder[orderID]
	m.mu.Unlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	return m.FindByID(ctx, tx, id)
}

func (m *MockPaymentRepo) List(ctx context.Context, tx repository.Tx, f repository.PaymentFilter) ([]*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Payment
	for _, p := range m.data {
		if f.MemberID != "" && p.MemberID != f.MemberID {
			continue
		}
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if f.Type != "" && p.Type != f.Type {
			continue
		}
		out = append(out, clonePayment(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

// TransitionStatus mirrors the conditional UPDATE: check and write happen under one lock.
func (m *MockPaymentRepo) TransitionStatus(ctx context.Context, tx repository.Tx, match repository.PaymentMatch, c model.StatusChange) (*model.Payment, bool, error) {
	if m.TransitionStatusFunc != nil {
		return m.TransitionStatusFunc(ctx, tx, match, c)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	id := match.ID
	if id == "" {
		id = m.byOrder[match.OrderID]
	}
	p, ok := m.data[id]
	if !ok {
		return nil, false, nil
	}
	if match.MemberID != "" && p.MemberID != match.MemberID {
		return nil, false, nil
	}
	allowed := false
	for _, s := range match.From {
		if p.Status == s {
			allowed = true
		}
	}
	if !allowed {
		return nil, false, nil
	}
	p.Status = c.To
	if c.To == model.PaymentStatusPaid {
		p.Date = c.At
	}
	if c.RazorpayPaymentID != nil {
		p.RazorpayPaymentID = c.RazorpayPaymentID
	}
	if c.RazorpaySignature != nil {
		p.RazorpaySignature = c.RazorpaySignature
	}
	p.UpdatedAt = c.At
	return clonePayment(p), true, nil
}

func (m *MockPaymentRepo) MarkEffectsApplied(ctx context.Context, tx repository.Tx, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.data[id]
	if !ok || p.EffectsAppliedAt != nil {
		return domain.ErrEffectsAlreadyApplied
	}
	p.EffectsAppliedAt = &at
	return nil
}

func (m *MockPaymentRepo) ListPaidWithoutEffects(ctx context.Context, tx repository.Tx, paidBefore time.Time, limit int) ([]*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Payment
	for _, p := range m.data {
		if p.Status == model.PaymentStatusPaid && p.EffectsAppliedAt == nil && p.Date.Before(paidBefore) {
			out = append(out, clonePayment(p))
		}
	}
	return out, nil
}

func (m *MockPaymentRepo) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

// ---- Counters ----

type MockCounterRepo struct {
	mu   sync.Mutex
	seqs map[string]int64

	NextFunc func(ctx context.Context, tx repository.Tx, series string) (int64, error)
}

var _ repository.CounterRepository = (*MockCounterRepo)(nil)

func NewMockCounterRepo() *MockCounterRepo { return &MockCounterRepo{seqs: map[string]int64{}} }

func (m *MockCounterRepo) Next(ctx context.Context, tx repository.Tx, series string) (int64, error) {
	if m.NextFunc != nil {
		return m.NextFunc(ctx, tx, series)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seqs[series]++
	return m.seqs[series], nil
}

func (m *MockCounterRepo) Value(series string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seqs[series]
}

// ---- Members ----

type MockMemberRepo struct {
	mu   sync.Mutex
	data map[string]*model.Member

	UpdateMembershipFunc func(ctx context.Context, tx repository.Tx, mem *model.Member) error
	updates              int
}

var _ repository.MemberRepository = (*MockMemberRepo)(nil)

func NewMockMemberRepo() *MockMemberRepo { return &MockMemberRepo{data: map[string]*model.Member{}} }

func (m *MockMemberRepo) Save(ctx context.Context, tx repository.Tx, mem *model.Member) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *mem
	m.data[mem.ID] = &cp
	return nil
}

func (m *MockMemberRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mem, ok := m.data[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *mem
	return &cp, nil
}

func (m *MockMemberRepo) UpdateMembership(ctx context.Context, tx repository.Tx, mem *model.Member) error {
	if m.UpdateMembershipFunc != nil {
		return m.UpdateMembershipFunc(ctx, tx, mem)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[mem.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *mem
	m.data[mem.ID] = &cp
	m.updates++
	return nil
}

func (m *MockMemberRepo) Updates() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updates
}

// ---- Plans ----

type MockPlanRepo struct {
	mu   sync.Mutex
	data map[string]*model.MembershipPlan
}

var _ repository.MembershipPlanRepository = (*MockPlanRepo)(nil)

func NewMockPlanRepo() *MockPlanRepo { return &MockPlanRepo{data: map[string]*model.MembershipPlan{}} }

func (m *MockPlanRepo) Save(ctx context.Context, tx repository.Tx, p *model.MembershipPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.data[p.ID] = &cp
	return nil
}

func (m *MockPlanRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.MembershipPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.data[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPlanRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.MembershipPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.MembershipPlan
	for _, p := range m.data {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

// ---- Products ----

type MockProductRepo struct {
	data map[string]*model.Product
}

var _ repository.ProductRepository = (*MockProductRepo)(nil)

func NewMockProductRepo(products ...*model.Product) *MockProductRepo {
	m := &MockProductRepo{data: map[string]*model.Product{}}
	for _, p := range products {
		m.data[p.ID] = p
	}
	return m
}

func (m *MockProductRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Product, error) {
	p, ok := m.data[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// ---- Settings ----

type MockSettingsRepo struct {
	mu       sync.Mutex
	settings *model.Settings
}

var _ repository.SettingsRepository = (*MockSettingsRepo)(nil)

func (m *MockSettingsRepo) Get(ctx context.Context, tx repository.Tx) (*model.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.settings == nil {
		return nil, nil
	}
	cp := *m.settings
	return &cp, nil
}

func (m *MockSettingsRepo) Save(ctx context.Context, tx repository.Tx, s *model.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.settings = &cp
	return nil
}

// ---- Users ----

type MockUserRepo struct {
	mu   sync.Mutex
	data map[string]*model.User

	ListActiveAdminsFunc func(ctx context.Context, tx repository.Tx) ([]*model.User, error)
}

var _ repository.UserRepository = (*MockUserRepo)(nil)

func NewMockUserRepo() *MockUserRepo { return &MockUserRepo{data: map[string]*model.User{}} }

func (m *MockUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.data[u.ID] = &cp
	return nil
}

func (m *MockUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.data[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MockUserRepo) ListActiveAdmins(ctx context.Context, tx repository.Tx) ([]*model.User, error) {
	if m.ListActiveAdminsFunc != nil {
		return m.ListActiveAdminsFunc(ctx, tx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.User
	for _, u := range m.data {
		if u.Role == model.RoleAdmin && u.IsActive {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ---- Notifications ----

type MockNotificationRepo struct {
	mu    sync.Mutex
	items []*model.Notification
	seq   int

	SaveFunc func(ctx context.Context, tx repository.Tx, n *model.Notification) error
}

var _ repository.NotificationRepository = (*MockNotificationRepo)(nil)

func (m *MockNotificationRepo) Save(ctx context.Context, tx repository.Tx, n *model.Notification) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, n)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	if n.ID == "" {
		n.ID = fmt.Sprintf("n-%d", m.seq)
	}
	cp := *n
	m.items = append(m.items, &cp)
	return nil
}

func (m *MockNotificationRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, unreadOnly bool, limit int) ([]*model.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Notification
	for _, n := range m.items {
		if n.UserID == userID && (!unreadOnly || !n.IsRead) {
			cp := *n
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockNotificationRepo) MarkRead(ctx context.Context, tx repository.Tx, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.items {
		if n.ID == id && n.UserID == userID {
			n.IsRead = true
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *MockNotificationRepo) All() []*model.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Notification, len(m.items))
	copy(out, m.items)
	return out
}

// ---- Transaction manager ----

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

// WithTx provides a way to control transaction behavior during tests.
// By default, it runs the function immediately without a real transaction.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}
