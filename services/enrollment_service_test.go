package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sahilchouksey/coursehub-api/model"
	"github.com/sahilchouksey/coursehub-api/services/abuse"
	"github.com/sahilchouksey/coursehub-api/services/events"
	"github.com/sahilchouksey/coursehub-api/services/payment"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func requireKind(t *testing.T, err error, kind EnrollmentErrorKind) {
	t.Helper()
	require.Error(t, err)
	var enrollErr *EnrollmentError
	require.True(t, errors.As(err, &enrollErr), "expected *EnrollmentError, got %T", err)
	assert.Equal(t, kind, enrollErr.Kind)
	assert.NotEmpty(t, enrollErr.Message)
}

func TestRequestEnrollment_HappyPath(t *testing.T) {
	env := newTestEnv(t, nil)
	user := createUser(t, env.db, "u1@example.com", nil)
	course := createCourse(t, env.db, "c1", "49.99", strPtr("price_c1"))

	res, err := env.service.RequestEnrollment(context.Background(), principalFor(user), course.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCheckoutCreated, res.Outcome)
	assert.Equal(t, "https://checkout.example.com/pay/cs_test_1", res.RedirectURL)

	e := loadEnrollment(t, env.db, user.ID, course.ID)
	assert.Equal(t, model.EnrollmentStatusPending, e.Status)
	assert.True(t, e.Amount.Equal(decimal.RequireFromString("49.99")), "amount = %s", e.Amount)
	require.NotNil(t, e.CheckoutSessionID)
	assert.Equal(t, "cs_test_1", *e.CheckoutSessionID)

	var reloaded model.User
	require.NoError(t, env.db.First(&reloaded, user.ID).Error)
	require.True(t, reloaded.HasCustomerReference())
	assert.Equal(t, "cus_1", *reloaded.StripeCustomerID)

	require.Equal(t, 1, env.processor.customerCount())
	assert.Equal(t, map[string]string{payment.MetaUserID: "1"}, env.processor.customers[0].Metadata)

	checkout := env.processor.lastCheckout()
	assert.Equal(t, "cus_1", checkout.CustomerID)
	assert.Equal(t, "price_c1", checkout.PriceRef)
	assert.Equal(t, int64(1), checkout.Quantity)
	assert.NotEmpty(t, checkout.IdempotencyKey)
	assert.Equal(t, "1", checkout.Metadata[payment.MetaUserID])
	assert.Equal(t, "1", checkout.Metadata[payment.MetaCourseID])
	assert.Equal(t, "1", checkout.Metadata[payment.MetaEnrollmentID])
	assert.Contains(t, checkout.SuccessURL, "http://localhost:3000/courses/c1")

	assert.Equal(t, []string{events.TypeCheckoutCreated}, env.publisher.types())
}

func TestRequestEnrollment_AlreadyActive(t *testing.T) {
	env := newTestEnv(t, nil)
	user := createUser(t, env.db, "u1@example.com", strPtr("cus_existing"))
	course := createCourse(t, env.db, "c1", "49.99", strPtr("price_c1"))

	activatedAt := time.Now().Add(-time.Hour)
	active := &model.Enrollment{
		UserID:      user.ID,
		CourseID:    course.ID,
		Amount:      decimal.RequireFromString("19.00"),
		Currency:    "usd",
		Status:      model.EnrollmentStatusActive,
		ActivatedAt: &activatedAt,
	}
	require.NoError(t, env.db.Create(active).Error)
	before := loadEnrollment(t, env.db, user.ID, course.ID)

	res, err := env.service.RequestEnrollment(context.Background(), principalFor(user), course.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyEnrolled, res.Outcome)
	assert.Empty(t, res.RedirectURL)

	after := loadEnrollment(t, env.db, user.ID, course.ID)
	assert.Equal(t, model.EnrollmentStatusActive, after.Status)
	assert.True(t, after.Amount.Equal(before.Amount))
	assert.True(t, after.UpdatedAt.Equal(before.UpdatedAt))
	assert.Equal(t, 0, env.processor.checkoutCount())
	assert.Empty(t, env.publisher.types())
}

func TestRequestEnrollment_PendingReentrancy(t *testing.T) {
	env := newTestEnv(t, nil)
	user := createUser(t, env.db, "u1@example.com", nil)
	course := createCourse(t, env.db, "c1", "49.99", strPtr("price_c1"))
	ctx := context.Background()

	first, err := env.service.RequestEnrollment(ctx, principalFor(user), course.ID)
	require.NoError(t, err)

	require.NoError(t, env.db.Model(&model.Course{}).Where("id = ?", course.ID).
		Update("price", decimal.RequireFromString("59.99")).Error)

	second, err := env.service.RequestEnrollment(ctx, principalFor(user), course.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCheckoutCreated, second.Outcome)
	assert.NotEqual(t, first.RedirectURL, second.RedirectURL)

	e := loadEnrollment(t, env.db, user.ID, course.ID)
	assert.Equal(t, model.EnrollmentStatusPending, e.Status)
	assert.True(t, e.Amount.Equal(decimal.RequireFromString("59.99")), "amount = %s", e.Amount)
	require.NotNil(t, e.CheckoutSessionID)
	assert.Equal(t, "cs_test_2", *e.CheckoutSessionID)

	assert.Equal(t, int64(1), countEnrollments(t, env.db, user.ID, course.ID))
	assert.Equal(t, 1, env.processor.customerCount())
	assert.NotEqual(t, env.processor.checkouts[0].IdempotencyKey, env.processor.checkouts[1].IdempotencyKey)
}

func TestRequestEnrollment_MissingPriceReference(t *testing.T) {
	env := newTestEnv(t, nil)
	user := createUser(t, env.db, "u1@example.com", nil)
	course := createCourse(t, env.db, "draft", "10.00", nil)

	_, err := env.service.RequestEnrollment(context.Background(), principalFor(user), course.ID)
	requireKind(t, err, ErrKindPricingNotConfigured)

	assert.Equal(t, int64(0), countEnrollments(t, env.db, user.ID, course.ID))
	assert.Equal(t, 0, env.processor.customerCount())

	var reloaded model.User
	require.NoError(t, env.db.First(&reloaded, user.ID).Error)
	assert.False(t, reloaded.HasCustomerReference())
}

func TestRequestEnrollment_CourseNotFound(t *testing.T) {
	env := newTestEnv(t, nil)
	user := createUser(t, env.db, "u1@example.com", nil)

	_, err := env.service.RequestEnrollment(context.Background(), principalFor(user), 999)
	requireKind(t, err, ErrKindCourseNotFound)

	unpublished := createCourse(t, env.db, "hidden", "10.00", strPtr("price_hidden"))
	require.NoError(t, env.db.Model(unpublished).Update("is_published", false).Error)

	_, err = env.service.RequestEnrollment(context.Background(), principalFor(user), unpublished.ID)
	requireKind(t, err, ErrKindCourseNotFound)
}

func TestRequestEnrollment_RateLimited(t *testing.T) {
	env := newTestEnv(t, abuse.NewMemoryGuard(abuse.Config{Limit: 5, Window: time.Minute}))
	user := createUser(t, env.db, "u1@example.com", nil)
	course := createCourse(t, env.db, "c1", "49.99", strPtr("price_c1"))
	ctx := context.Background()

	// Five attempts that never reach the enrollment table
	for i := 0; i < 5; i++ {
		_, err := env.service.RequestEnrollment(ctx, principalFor(user), 999)
		requireKind(t, err, ErrKindCourseNotFound)
	}

	_, err := env.service.RequestEnrollment(ctx, principalFor(user), course.ID)
	requireKind(t, err, ErrKindRateLimited)
	assert.Equal(t, int64(0), countEnrollments(t, env.db, user.ID, course.ID))
	assert.Equal(t, 0, env.processor.customerCount())

	// Other users are unaffected
	other := createUser(t, env.db, "u2@example.com", nil)
	res, err := env.service.RequestEnrollment(ctx, principalFor(other), course.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCheckoutCreated, res.Outcome)
}

func TestRequestEnrollment_GuardFailureAllowsRequest(t *testing.T) {
	env := newTestEnv(t, failingGuard{})
	user := createUser(t, env.db, "u1@example.com", nil)
	course := createCourse(t, env.db, "c1", "49.99", strPtr("price_c1"))

	res, err := env.service.RequestEnrollment(context.Background(), principalFor(user), course.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCheckoutCreated, res.Outcome)
}

func TestRequestEnrollment_CustomerReuse(t *testing.T) {
	env := newTestEnv(t, nil)
	user := createUser(t, env.db, "u1@example.com", strPtr("cus_existing"))
	c1 := createCourse(t, env.db, "c1", "49.99", strPtr("price_c1"))
	c2 := createCourse(t, env.db, "c2", "29.00", strPtr("price_c2"))
	ctx := context.Background()

	for _, c := range []*model.Course{c1, c2, c1} {
		_, err := env.service.RequestEnrollment(ctx, principalFor(user), c.ID)
		require.NoError(t, err)
		assert.Equal(t, "cus_existing", env.processor.lastCheckout().CustomerID)
	}
	assert.Equal(t, 0, env.processor.customerCount())
}

func TestRequestEnrollment_ConcurrentCustomerCreationConverges(t *testing.T) {
	env := newTestEnv(t, nil)
	user := createUser(t, env.db, "u1@example.com", nil)
	course := createCourse(t, env.db, "c1", "49.99", strPtr("price_c1"))

	// Another request stores its customer while ours is in flight
	env.processor.beforeCustomerReturn = func() {
		require.NoError(t, env.db.Model(&model.User{}).Where("id = ?", user.ID).
			Update("stripe_customer_id", "cus_winner").Error)
	}

	res, err := env.service.RequestEnrollment(context.Background(), principalFor(user), course.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCheckoutCreated, res.Outcome)
	assert.Equal(t, "cus_winner", env.processor.lastCheckout().CustomerID)

	var reloaded model.User
	require.NoError(t, env.db.First(&reloaded, user.ID).Error)
	assert.Equal(t, "cus_winner", *reloaded.StripeCustomerID)
}

func TestRequestEnrollment_DoubleClick(t *testing.T) {
	env := newTestEnv(t, nil)
	user := createUser(t, env.db, "u1@example.com", nil)
	course := createCourse(t, env.db, "c1", "49.99", strPtr("price_c1"))

	var wg sync.WaitGroup
	results := make([]*EnrollmentResult, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = env.service.RequestEnrollment(context.Background(), principalFor(user), course.ID)
		}(i)
	}
	wg.Wait()

	for i := 0; i < 2; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, OutcomeCheckoutCreated, results[i].Outcome)
		assert.NotEmpty(t, results[i].RedirectURL)
	}
	assert.Equal(t, int64(1), countEnrollments(t, env.db, user.ID, course.ID))
	assert.Equal(t, results[0].Enrollment.ID, results[1].Enrollment.ID)

	var reloaded model.User
	require.NoError(t, env.db.First(&reloaded, user.ID).Error)
	assert.True(t, reloaded.HasCustomerReference())
}

// failEnrollmentInserts makes the next len(errs) enrollment inserts fail with
// the given errors and reports how many inserts were attempted.
func failEnrollmentInserts(t *testing.T, db *gorm.DB, errs ...error) *int {
	t.Helper()
	attempts := 0
	err := db.Callback().Create().Before("gorm:create").Register("test:fail_enrollment_insert", func(tx *gorm.DB) {
		if tx.Statement.Schema == nil || tx.Statement.Schema.Table != "enrollments" {
			return
		}
		attempts++
		if attempts <= len(errs) {
			_ = tx.AddError(errs[attempts-1])
		}
	})
	require.NoError(t, err)
	return &attempts
}

func TestRequestEnrollment_DuplicateInsertIsRetried(t *testing.T) {
	env := newTestEnv(t, nil)
	user := createUser(t, env.db, "u1@example.com", nil)
	course := createCourse(t, env.db, "c1", "49.99", strPtr("price_c1"))

	attempts := failEnrollmentInserts(t, env.db, gorm.ErrDuplicatedKey)

	res, err := env.service.RequestEnrollment(context.Background(), principalFor(user), course.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCheckoutCreated, res.Outcome)
	assert.Equal(t, 2, *attempts)
	assert.Equal(t, int64(1), countEnrollments(t, env.db, user.ID, course.ID))
	assert.Equal(t, 1, env.processor.checkoutCount())

	e := loadEnrollment(t, env.db, user.ID, course.ID)
	assert.Equal(t, model.EnrollmentStatusPending, e.Status)
	require.NotNil(t, e.CheckoutSessionID)
}

func TestRequestEnrollment_DuplicateInsertRetriesAreBounded(t *testing.T) {
	env := newTestEnv(t, nil)
	user := createUser(t, env.db, "u1@example.com", nil)
	course := createCourse(t, env.db, "c1", "49.99", strPtr("price_c1"))

	attempts := failEnrollmentInserts(t, env.db, gorm.ErrDuplicatedKey, gorm.ErrDuplicatedKey, gorm.ErrDuplicatedKey, gorm.ErrDuplicatedKey)

	_, err := env.service.RequestEnrollment(context.Background(), principalFor(user), course.ID)
	requireKind(t, err, ErrKindUnknown)
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
	assert.Equal(t, 3, *attempts)
	assert.Equal(t, int64(0), countEnrollments(t, env.db, user.ID, course.ID))
	assert.Equal(t, 0, env.processor.checkoutCount())
}

func TestRequestEnrollment_OtherInsertErrorsAreNotRetried(t *testing.T) {
	env := newTestEnv(t, nil)
	user := createUser(t, env.db, "u1@example.com", nil)
	course := createCourse(t, env.db, "c1", "49.99", strPtr("price_c1"))

	diskFull := errors.New("disk full")
	attempts := failEnrollmentInserts(t, env.db, diskFull, diskFull)

	_, err := env.service.RequestEnrollment(context.Background(), principalFor(user), course.ID)
	requireKind(t, err, ErrKindUnknown)
	assert.ErrorIs(t, err, diskFull)
	assert.Equal(t, 1, *attempts)
	assert.Equal(t, int64(0), countEnrollments(t, env.db, user.ID, course.ID))
	assert.Equal(t, 0, env.processor.checkoutCount())
}

func TestRequestEnrollment_CheckoutFailureLeavesPendingAndRetrySucceeds(t *testing.T) {
	env := newTestEnv(t, nil)
	user := createUser(t, env.db, "u1@example.com", nil)
	course := createCourse(t, env.db, "c1", "49.99", strPtr("price_c1"))
	ctx := context.Background()

	env.processor.checkoutErr = context.DeadlineExceeded
	_, err := env.service.RequestEnrollment(ctx, principalFor(user), course.ID)
	requireKind(t, err, ErrKindPaymentSystem)
	assert.ErrorIs(t, err, payment.ErrProcessor)

	e := loadEnrollment(t, env.db, user.ID, course.ID)
	assert.Equal(t, model.EnrollmentStatusPending, e.Status)
	assert.Nil(t, e.CheckoutSessionID)

	env.processor.checkoutErr = nil
	res, err := env.service.RequestEnrollment(ctx, principalFor(user), course.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCheckoutCreated, res.Outcome)
	assert.Equal(t, int64(1), countEnrollments(t, env.db, user.ID, course.ID))
}

func TestRequestEnrollment_CustomerFailure(t *testing.T) {
	env := newTestEnv(t, nil)
	user := createUser(t, env.db, "u1@example.com", nil)
	course := createCourse(t, env.db, "c1", "49.99", strPtr("price_c1"))

	env.processor.customerErr = errors.New("api down")
	_, err := env.service.RequestEnrollment(context.Background(), principalFor(user), course.ID)
	requireKind(t, err, ErrKindPaymentSystem)
	assert.Equal(t, int64(0), countEnrollments(t, env.db, user.ID, course.ID))
}

func TestRequestEnrollment_CancelledIsReopened(t *testing.T) {
	env := newTestEnv(t, nil)
	user := createUser(t, env.db, "u1@example.com", strPtr("cus_existing"))
	course := createCourse(t, env.db, "c1", "49.99", strPtr("price_c1"))

	cancelledAt := time.Now().Add(-time.Hour)
	require.NoError(t, env.db.Create(&model.Enrollment{
		UserID:      user.ID,
		CourseID:    course.ID,
		Amount:      decimal.RequireFromString("10.00"),
		Currency:    "usd",
		Status:      model.EnrollmentStatusCancelled,
		CancelledAt: &cancelledAt,
	}).Error)

	res, err := env.service.RequestEnrollment(context.Background(), principalFor(user), course.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCheckoutCreated, res.Outcome)

	e := loadEnrollment(t, env.db, user.ID, course.ID)
	assert.Equal(t, model.EnrollmentStatusPending, e.Status)
	assert.Nil(t, e.CancelledAt)
	assert.True(t, e.Amount.Equal(decimal.RequireFromString("49.99")))
}

func TestActivateEnrollment_Idempotent(t *testing.T) {
	env := newTestEnv(t, nil)
	user := createUser(t, env.db, "u1@example.com", nil)
	course := createCourse(t, env.db, "c1", "49.99", strPtr("price_c1"))
	ctx := context.Background()

	res, err := env.service.RequestEnrollment(ctx, principalFor(user), course.ID)
	require.NoError(t, err)

	e, changed, err := env.service.ActivateEnrollment(ctx, res.Enrollment.ID, "cs_test_1", ActivationSourceWebhook)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, model.EnrollmentStatusActive, e.Status)
	assert.NotNil(t, e.ActivatedAt)

	_, changed, err = env.service.ActivateEnrollment(ctx, res.Enrollment.ID, "cs_test_1", ActivationSourceWebhook)
	require.NoError(t, err)
	assert.False(t, changed)

	assert.Equal(t, []string{events.TypeCheckoutCreated, events.TypeActivated}, env.publisher.types())
	require.Len(t, env.mailer.sent, 1)
	assert.Equal(t, "u1@example.com", env.mailer.sent[0].ToEmail)
	assert.Equal(t, "Course c1", env.mailer.sent[0].CourseTitle)

	// Active rows short-circuit further requests
	again, err := env.service.RequestEnrollment(ctx, principalFor(user), course.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyEnrolled, again.Outcome)

	_, _, err = env.service.ActivateEnrollment(ctx, 12345, "cs_x", ActivationSourceWebhook)
	assert.ErrorIs(t, err, ErrEnrollmentNotFound)
}

func TestCancelEnrollment(t *testing.T) {
	env := newTestEnv(t, nil)
	user := createUser(t, env.db, "u1@example.com", nil)
	course := createCourse(t, env.db, "c1", "49.99", strPtr("price_c1"))
	ctx := context.Background()

	res, err := env.service.RequestEnrollment(ctx, principalFor(user), course.ID)
	require.NoError(t, err)

	e, err := env.service.CancelEnrollment(ctx, res.Enrollment.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EnrollmentStatusCancelled, e.Status)
	assert.NotNil(t, e.CancelledAt)

	// Second cancel is a no-op
	_, err = env.service.CancelEnrollment(ctx, res.Enrollment.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{events.TypeCheckoutCreated, events.TypeCancelled}, env.publisher.types())

	_, err = env.service.CancelEnrollment(ctx, 999)
	assert.ErrorIs(t, err, ErrEnrollmentNotFound)
}

func TestReconcilePending(t *testing.T) {
	env := newTestEnv(t, nil)
	paid := createUser(t, env.db, "paid@example.com", nil)
	expired := createUser(t, env.db, "expired@example.com", nil)
	open := createUser(t, env.db, "open@example.com", nil)
	course := createCourse(t, env.db, "c1", "49.99", strPtr("price_c1"))
	ctx := context.Background()

	var enrollments []*model.Enrollment
	for _, u := range []*model.User{paid, expired, open} {
		res, err := env.service.RequestEnrollment(ctx, principalFor(u), course.ID)
		require.NoError(t, err)
		enrollments = append(enrollments, res.Enrollment)
	}

	env.processor.setSession("cs_test_1", payment.SessionStatusComplete, payment.PaymentStatusPaid)
	env.processor.setSession("cs_test_2", payment.SessionStatusExpired, payment.PaymentStatusUnpaid)

	// Too fresh to be picked up
	result, err := env.service.ReconcilePending(ctx, 10*time.Minute, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Checked)

	require.NoError(t, env.db.Model(&model.Enrollment{}).Where("1 = 1").
		UpdateColumn("updated_at", time.Now().Add(-time.Hour)).Error)

	result, err = env.service.ReconcilePending(ctx, 10*time.Minute, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Checked)
	assert.Equal(t, 1, result.Activated)
	assert.Equal(t, 1, result.Released)
	assert.Equal(t, 0, result.Failed)

	assert.Equal(t, model.EnrollmentStatusActive, loadEnrollment(t, env.db, paid.ID, course.ID).Status)

	e := loadEnrollment(t, env.db, expired.ID, course.ID)
	assert.Equal(t, model.EnrollmentStatusPending, e.Status)
	assert.Nil(t, e.CheckoutSessionID)

	e = loadEnrollment(t, env.db, open.ID, course.ID)
	assert.Equal(t, model.EnrollmentStatusPending, e.Status)
	require.NotNil(t, e.CheckoutSessionID)
	assert.Equal(t, enrollments[2].ID, e.ID)
	assert.Equal(t, 1, result.Deferred)
	assert.WithinDuration(t, time.Now(), e.UpdatedAt, time.Minute)

	// The open session was pushed back and is not rechecked right away
	result, err = env.service.ReconcilePending(ctx, 10*time.Minute, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Checked)
}

func TestReconcilePending_OpenSessionsDoNotStarveOthers(t *testing.T) {
	env := newTestEnv(t, nil)
	course := createCourse(t, env.db, "c1", "49.99", strPtr("price_c1"))
	ctx := context.Background()

	// Three checkouts, aged so that the two open ones are the oldest
	var users []*model.User
	for i, email := range []string{"open1@example.com", "open2@example.com", "paid@example.com"} {
		u := createUser(t, env.db, email, nil)
		res, err := env.service.RequestEnrollment(ctx, principalFor(u), course.ID)
		require.NoError(t, err)
		require.NoError(t, env.db.Model(&model.Enrollment{}).Where("id = ?", res.Enrollment.ID).
			UpdateColumn("updated_at", time.Now().Add(-time.Duration(3-i)*time.Hour)).Error)
		users = append(users, u)
	}
	env.processor.setSession("cs_test_3", payment.SessionStatusComplete, payment.PaymentStatusPaid)

	result, err := env.service.ReconcilePending(ctx, 10*time.Minute, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Checked)
	assert.Equal(t, 2, result.Deferred)
	assert.Equal(t, 0, result.Activated)

	result, err = env.service.ReconcilePending(ctx, 10*time.Minute, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Checked)
	assert.Equal(t, 1, result.Activated)
	assert.Equal(t, model.EnrollmentStatusActive, loadEnrollment(t, env.db, users[2].ID, course.ID).Status)
}

func TestListEnrollments(t *testing.T) {
	env := newTestEnv(t, nil)
	u1 := createUser(t, env.db, "u1@example.com", nil)
	u2 := createUser(t, env.db, "u2@example.com", nil)
	c1 := createCourse(t, env.db, "c1", "49.99", strPtr("price_c1"))
	c2 := createCourse(t, env.db, "c2", "19.99", strPtr("price_c2"))
	ctx := context.Background()

	for _, u := range []*model.User{u1, u2} {
		for _, c := range []*model.Course{c1, c2} {
			_, err := env.service.RequestEnrollment(ctx, principalFor(u), c.ID)
			require.NoError(t, err)
		}
	}
	first, err := env.service.GetUserEnrollment(ctx, u1.ID, c1.ID)
	require.NoError(t, err)
	_, _, err = env.service.ActivateEnrollment(ctx, first.ID, "", ActivationSourceWebhook)
	require.NoError(t, err)

	list, total, err := env.service.ListEnrollments(ctx, EnrollmentFilter{CourseID: c1.ID, Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, list, 2)

	_, total, err = env.service.ListEnrollments(ctx, EnrollmentFilter{Status: model.EnrollmentStatusActive})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	mine, err := env.service.ListUserEnrollments(ctx, u1.ID, "")
	require.NoError(t, err)
	assert.Len(t, mine, 2)
	for _, e := range mine {
		require.NotNil(t, e.Course)
	}

	_, err = env.service.GetUserEnrollment(ctx, u1.ID, 999)
	assert.ErrorIs(t, err, ErrEnrollmentNotFound)
}
