package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sahilchouksey/coursehub-api/database"
	"github.com/sahilchouksey/coursehub-api/model"
	"github.com/sahilchouksey/coursehub-api/services/abuse"
	"github.com/sahilchouksey/coursehub-api/services/events"
	"github.com/sahilchouksey/coursehub-api/services/notify"
	"github.com/sahilchouksey/coursehub-api/services/payment"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps the in-memory database shared and serializes writers
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func createUser(t *testing.T, db *gorm.DB, email string, customerID *string) *model.User {
	t.Helper()
	user := &model.User{
		Email:            email,
		PasswordHash:     "x",
		Name:             "Test " + email,
		Role:             model.RoleStudent,
		StripeCustomerID: customerID,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createCourse(t *testing.T, db *gorm.DB, slug, price string, priceRef *string) *model.Course {
	t.Helper()
	course := &model.Course{
		Title:         "Course " + slug,
		Slug:          slug,
		Price:         decimal.RequireFromString(price),
		Currency:      "usd",
		IsPublished:   true,
		StripePriceID: priceRef,
	}
	require.NoError(t, db.Create(course).Error)
	return course
}

func strPtr(s string) *string { return &s }

func countEnrollments(t *testing.T, db *gorm.DB, userID, courseID uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&model.Enrollment{}).Where("user_id = ? AND course_id = ?", userID, courseID).Count(&n).Error)
	return n
}

func loadEnrollment(t *testing.T, db *gorm.DB, userID, courseID uint) model.Enrollment {
	t.Helper()
	var e model.Enrollment
	require.NoError(t, db.Where("user_id = ? AND course_id = ?", userID, courseID).Take(&e).Error)
	return e
}

// fakeProcessor is an in-memory payment.Processor
type fakeProcessor struct {
	mu sync.Mutex

	customers []payment.CustomerParams
	checkouts []payment.CheckoutParams
	sessions  map[string]*payment.CheckoutSession

	customerErr error
	checkoutErr error
	// beforeCustomerReturn runs after the customer is "created" and before it is returned
	beforeCustomerReturn func()

	nextEvent *payment.Event
}

func newFakeProcessor() *fakeProcessor {
	return &fakeProcessor{sessions: make(map[string]*payment.CheckoutSession)}
}

func (f *fakeProcessor) Name() string { return "fake" }

func (f *fakeProcessor) CreateCustomer(ctx context.Context, params payment.CustomerParams) (*payment.Customer, error) {
	f.mu.Lock()
	if f.customerErr != nil {
		f.mu.Unlock()
		return nil, fmt.Errorf("%w: %v", payment.ErrProcessor, f.customerErr)
	}
	f.customers = append(f.customers, params)
	id := fmt.Sprintf("cus_%d", len(f.customers))
	hook := f.beforeCustomerReturn
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	return &payment.Customer{ID: id}, nil
}

func (f *fakeProcessor) CreateCheckoutSession(ctx context.Context, params payment.CheckoutParams) (*payment.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.checkoutErr != nil {
		return nil, fmt.Errorf("%w: %v", payment.ErrProcessor, f.checkoutErr)
	}
	f.checkouts = append(f.checkouts, params)
	id := fmt.Sprintf("cs_test_%d", len(f.checkouts))
	session := &payment.CheckoutSession{
		ID:            id,
		URL:           "https://checkout.example.com/pay/" + id,
		Status:        payment.SessionStatusOpen,
		PaymentStatus: payment.PaymentStatusUnpaid,
		Metadata:      params.Metadata,
	}
	f.sessions[id] = session
	return session, nil
}

func (f *fakeProcessor) GetCheckoutSession(ctx context.Context, sessionID string) (*payment.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	session, ok := f.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: no such session %s", payment.ErrProcessor, sessionID)
	}
	copied := *session
	return &copied, nil
}

func (f *fakeProcessor) ParseWebhook(payload []byte, signature string) (*payment.Event, error) {
	if signature != "valid" {
		return nil, payment.ErrInvalidSignature
	}
	if f.nextEvent == nil {
		return nil, errors.New("no event queued")
	}
	return f.nextEvent, nil
}

func (f *fakeProcessor) setSession(id, status, paymentStatus string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sessions[id]; ok {
		s.Status = status
		s.PaymentStatus = paymentStatus
	}
}

func (f *fakeProcessor) customerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.customers)
}

func (f *fakeProcessor) checkoutCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.checkouts)
}

func (f *fakeProcessor) lastCheckout() payment.CheckoutParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.checkouts[len(f.checkouts)-1]
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.EnrollmentEvent
}

func (p *recordingPublisher) Publish(_ context.Context, evt events.EnrollmentEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []notify.EnrollmentConfirmation
}

func (m *recordingMailer) SendEnrollmentConfirmation(_ context.Context, msg notify.EnrollmentConfirmation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

type failingGuard struct{}

func (failingGuard) Protect(context.Context, string) (abuse.Decision, error) {
	return abuse.Decision{}, errors.New("redis: connection refused")
}

type testEnv struct {
	db        *gorm.DB
	processor *fakeProcessor
	publisher *recordingPublisher
	mailer    *recordingMailer
	service   *EnrollmentService
}

func newTestEnv(t *testing.T, guard abuse.Guard) *testEnv {
	t.Helper()
	db := newTestDB(t)
	env := &testEnv{
		db:        db,
		processor: newFakeProcessor(),
		publisher: &recordingPublisher{},
		mailer:    &recordingMailer{},
	}
	if guard == nil {
		guard = abuse.NewMemoryGuard(abuse.Config{Limit: 100, Window: time.Minute})
	}
	env.service = NewEnrollmentService(db, guard, env.processor, env.publisher, env.mailer, EnrollmentConfig{
		AppURL:         "http://localhost:3000",
		PaymentTimeout: time.Second,
		UpsertDelay:    time.Millisecond,
	})
	return env
}

func principalFor(u *model.User) Principal {
	return Principal{UserID: u.ID, Email: u.Email, Name: u.Name}
}
