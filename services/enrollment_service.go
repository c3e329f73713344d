package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/avast/retry-go"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/sahilchouksey/coursehub-api/metrics"
	"github.com/sahilchouksey/coursehub-api/model"
	"github.com/sahilchouksey/coursehub-api/services/abuse"
	"github.com/sahilchouksey/coursehub-api/services/events"
	"github.com/sahilchouksey/coursehub-api/services/notify"
	"github.com/sahilchouksey/coursehub-api/services/payment"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EnrollmentOutcome is the successful result of an enrollment request
type EnrollmentOutcome string

const (
	OutcomeAlreadyEnrolled EnrollmentOutcome = "already_enrolled"
	OutcomeCheckoutCreated EnrollmentOutcome = "checkout_created"
)

// Activation sources
const (
	ActivationSourceWebhook   = "webhook"
	ActivationSourceReconcile = "reconcile"
)

// Principal is the authenticated caller
type Principal struct {
	UserID uint
	Email  string
	Name   string
}

// EnrollmentResult is returned when RequestEnrollment succeeds.
// RedirectURL is only set for OutcomeCheckoutCreated.
type EnrollmentResult struct {
	Outcome     EnrollmentOutcome
	RedirectURL string
	Enrollment  *model.Enrollment
}

// EnrollmentConfig holds tunables for the enrollment workflow
type EnrollmentConfig struct {
	AppURL         string
	PaymentTimeout time.Duration
	// UpsertAttempts bounds retries when a concurrent request wins the insert
	UpsertAttempts uint
	UpsertDelay    time.Duration
}

// EnrollmentService reconciles enrollment rows with checkout sessions
type EnrollmentService struct {
	db        *gorm.DB
	guard     abuse.Guard
	processor payment.Processor
	publisher events.Publisher
	mailer    notify.Mailer
	cfg       EnrollmentConfig
}

// NewEnrollmentService creates a new enrollment service
func NewEnrollmentService(db *gorm.DB, guard abuse.Guard, processor payment.Processor, publisher events.Publisher, mailer notify.Mailer, cfg EnrollmentConfig) *EnrollmentService {
	if cfg.PaymentTimeout <= 0 {
		cfg.PaymentTimeout = 10 * time.Second
	}
	if cfg.UpsertAttempts == 0 {
		cfg.UpsertAttempts = 3
	}
	if cfg.UpsertDelay <= 0 {
		cfg.UpsertDelay = 25 * time.Millisecond
	}
	if guard == nil {
		guard = abuse.AllowAll{}
	}
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if mailer == nil {
		mailer = notify.LogMailer{}
	}

	return &EnrollmentService{
		db:        db,
		guard:     guard,
		processor: processor,
		publisher: publisher,
		mailer:    mailer,
		cfg:       cfg,
	}
}

// RequestEnrollment either reports an existing active enrollment or leaves a
// pending enrollment behind and returns a checkout URL for it. Every failure
// is an *EnrollmentError.
func (s *EnrollmentService) RequestEnrollment(ctx context.Context, principal Principal, courseID uint) (*EnrollmentResult, error) {
	result, err := s.requestEnrollment(ctx, principal, courseID)
	if err != nil {
		var enrollErr *EnrollmentError
		if !errors.As(err, &enrollErr) {
			enrollErr = newEnrollmentError(ErrKindUnknown, err)
		}
		if enrollErr.Kind == ErrKindUnknown {
			log.Errorw("enrollment request failed", "user_id", principal.UserID, "course_id", courseID, "error", enrollErr.Err)
		}
		metrics.EnrollmentRequests.WithLabelValues(string(enrollErr.Kind)).Inc()
		return nil, enrollErr
	}

	metrics.EnrollmentRequests.WithLabelValues(string(result.Outcome)).Inc()
	return result, nil
}

func (s *EnrollmentService) requestEnrollment(ctx context.Context, principal Principal, courseID uint) (*EnrollmentResult, error) {
	// Pre-flight gate, outside any transaction
	decision, err := s.guard.Protect(ctx, strconv.FormatUint(uint64(principal.UserID), 10))
	if err != nil {
		log.Warnw("abuse guard unavailable, allowing request", "user_id", principal.UserID, "error", err)
	} else if decision.IsDenied() {
		rateErr := newEnrollmentError(ErrKindRateLimited, fmt.Errorf("retry after %s", decision.RetryAfter))
		rateErr.RetryAfter = decision.RetryAfter
		return nil, rateErr
	}

	course, err := s.loadPurchasableCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	customerID, err := s.resolveCustomer(ctx, principal)
	if err != nil {
		return nil, err
	}

	enrollment, alreadyActive, err := s.reserveEnrollment(ctx, principal.UserID, course)
	if err != nil {
		return nil, newEnrollmentError(ErrKindUnknown, fmt.Errorf("reserve enrollment: %w", err))
	}
	if alreadyActive {
		return &EnrollmentResult{Outcome: OutcomeAlreadyEnrolled, Enrollment: enrollment}, nil
	}

	session, err := s.openCheckout(ctx, customerID, course, enrollment)
	if err != nil {
		log.Warnw("checkout session creation failed, enrollment left pending",
			"enrollment_id", enrollment.ID, "user_id", principal.UserID, "course_id", course.ID, "error", err)
		return nil, newEnrollmentError(ErrKindPaymentSystem, err)
	}

	// The checkout exists now; finish bookkeeping even if the caller went away.
	bookkeepingCtx := context.WithoutCancel(ctx)
	s.attachCheckoutSession(bookkeepingCtx, enrollment, session.ID)
	s.publish(bookkeepingCtx, events.TypeCheckoutCreated, enrollment, "")

	log.Infow("checkout session created",
		"enrollment_id", enrollment.ID, "user_id", principal.UserID, "course_id", course.ID, "session_id", session.ID)

	return &EnrollmentResult{
		Outcome:     OutcomeCheckoutCreated,
		RedirectURL: session.URL,
		Enrollment:  enrollment,
	}, nil
}

// loadPurchasableCourse fetches the fields checkout needs. Unpublished courses are treated as missing.
func (s *EnrollmentService) loadPurchasableCourse(ctx context.Context, courseID uint) (*model.Course, error) {
	var course model.Course
	err := s.db.WithContext(ctx).
		Select("id", "title", "slug", "price", "currency", "stripe_price_id").
		Where("is_published = ?", true).
		First(&course, courseID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newEnrollmentError(ErrKindCourseNotFound, err)
	}
	if err != nil {
		return nil, newEnrollmentError(ErrKindUnknown, fmt.Errorf("load course %d: %w", courseID, err))
	}

	if !course.HasPriceReference() {
		log.Errorw("course has no processor price configured", "course_id", course.ID, "slug", course.Slug)
		return nil, newEnrollmentError(ErrKindPricingNotConfigured, fmt.Errorf("course %d has no price reference", course.ID))
	}
	return &course, nil
}

// resolveCustomer returns the user's processor customer, creating it on first use.
// The reference is claimed with a conditional update so that concurrent first
// attempts converge on a single stored id; the loser's customer is orphaned and logged.
func (s *EnrollmentService) resolveCustomer(ctx context.Context, principal Principal) (string, error) {
	user, err := s.loadCustomerFields(ctx, principal.UserID)
	if err != nil {
		return "", err
	}
	if user.HasCustomerReference() {
		return *user.StripeCustomerID, nil
	}

	email, name := principal.Email, principal.Name
	if email == "" {
		email = user.Email
	}
	if name == "" {
		name = user.Name
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.PaymentTimeout)
	defer cancel()

	customer, err := s.processor.CreateCustomer(callCtx, payment.CustomerParams{
		Email:    email,
		Name:     name,
		Metadata: map[string]string{payment.MetaUserID: strconv.FormatUint(uint64(user.ID), 10)},
	})
	if err != nil {
		return "", newEnrollmentError(ErrKindPaymentSystem, err)
	}

	res := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ? AND (stripe_customer_id IS NULL OR stripe_customer_id = '')", user.ID).
		Update("stripe_customer_id", customer.ID)
	if res.Error != nil {
		return "", newEnrollmentError(ErrKindUnknown, fmt.Errorf("store customer reference: %w", res.Error))
	}
	if res.RowsAffected == 1 {
		return customer.ID, nil
	}

	// Another request stored its customer first
	winner, err := s.loadCustomerFields(ctx, user.ID)
	if err != nil {
		return "", err
	}
	if !winner.HasCustomerReference() {
		return "", newEnrollmentError(ErrKindUnknown, fmt.Errorf("customer reference for user %d vanished", user.ID))
	}
	log.Warnw("concurrent customer creation, orphaned processor customer",
		"user_id", user.ID, "orphan_customer_id", customer.ID, "customer_id", *winner.StripeCustomerID)
	return *winner.StripeCustomerID, nil
}

func (s *EnrollmentService) loadCustomerFields(ctx context.Context, userID uint) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).
		Select("id", "email", "name", "stripe_customer_id").
		First(&user, userID).Error
	if err != nil {
		return nil, newEnrollmentError(ErrKindUnknown, fmt.Errorf("load user %d: %w", userID, err))
	}
	return &user, nil
}

// reserveEnrollment runs the upsert in a short transaction. A duplicate key
// means a concurrent request inserted the row first; the retry then sees it
// and updates instead.
func (s *EnrollmentService) reserveEnrollment(ctx context.Context, userID uint, course *model.Course) (*model.Enrollment, bool, error) {
	var (
		enrollment    *model.Enrollment
		alreadyActive bool
	)

	err := retry.Do(
		func() error {
			return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				var err error
				enrollment, alreadyActive, err = upsertPendingEnrollment(tx, userID, course)
				return err
			})
		},
		retry.Attempts(s.cfg.UpsertAttempts),
		retry.Delay(s.cfg.UpsertDelay),
		retry.MaxDelay(time.Second),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, gorm.ErrDuplicatedKey) && ctx.Err() == nil
		}),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, false, err
	}
	return enrollment, alreadyActive, nil
}

// upsertPendingEnrollment must be called with an open transaction
func upsertPendingEnrollment(tx *gorm.DB, userID uint, course *model.Course) (*model.Enrollment, bool, error) {
	var existing model.Enrollment
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND course_id = ?", userID, course.ID).
		Take(&existing).Error

	switch {
	case err == nil:
		if existing.Status == model.EnrollmentStatusActive {
			return &existing, true, nil
		}

		now := time.Now()
		err = tx.Model(&model.Enrollment{}).
			Where("id = ?", existing.ID).
			Updates(map[string]interface{}{
				"amount":       course.Price,
				"currency":     course.Currency,
				"status":       model.EnrollmentStatusPending,
				"cancelled_at": nil,
				"updated_at":   now,
			}).Error
		if err != nil {
			return nil, false, err
		}
		existing.Amount = course.Price
		existing.Currency = course.Currency
		existing.Status = model.EnrollmentStatusPending
		existing.CancelledAt = nil
		existing.UpdatedAt = now
		return &existing, false, nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		enrollment := &model.Enrollment{
			UserID:   userID,
			CourseID: course.ID,
			Amount:   course.Price,
			Currency: course.Currency,
			Status:   model.EnrollmentStatusPending,
		}
		if err := tx.Create(enrollment).Error; err != nil {
			return nil, false, err
		}
		return enrollment, false, nil

	default:
		return nil, false, err
	}
}

func (s *EnrollmentService) openCheckout(ctx context.Context, customerID string, course *model.Course, enrollment *model.Enrollment) (*payment.CheckoutSession, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.PaymentTimeout)
	defer cancel()

	session, err := s.processor.CreateCheckoutSession(callCtx, payment.CheckoutParams{
		CustomerID: customerID,
		PriceRef:   *course.StripePriceID,
		Quantity:   1,
		SuccessURL: fmt.Sprintf("%s/courses/%s?checkout=success&session_id={CHECKOUT_SESSION_ID}", s.cfg.AppURL, course.Slug),
		CancelURL:  fmt.Sprintf("%s/courses/%s?checkout=cancelled", s.cfg.AppURL, course.Slug),
		Metadata: map[string]string{
			payment.MetaUserID:       strconv.FormatUint(uint64(enrollment.UserID), 10),
			payment.MetaCourseID:     strconv.FormatUint(uint64(enrollment.CourseID), 10),
			payment.MetaEnrollmentID: strconv.FormatUint(uint64(enrollment.ID), 10),
		},
		IdempotencyKey: checkoutIdempotencyKey(enrollment),
	})
	if err != nil {
		return nil, err
	}
	if session.URL == "" {
		return nil, fmt.Errorf("%w: checkout session %s has no url", payment.ErrProcessor, session.ID)
	}
	return session, nil
}

// checkoutIdempotencyKey is stable for one reservation: a network retry of the
// same attempt reuses the session, a new attempt bumps updated_at and gets a new one.
func checkoutIdempotencyKey(enrollment *model.Enrollment) string {
	name := fmt.Sprintf("enrollment/%d/%d", enrollment.ID, enrollment.UpdatedAt.UnixNano())
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

func (s *EnrollmentService) attachCheckoutSession(ctx context.Context, enrollment *model.Enrollment, sessionID string) {
	res := s.db.WithContext(ctx).
		Model(&model.Enrollment{}).
		Where("id = ? AND status = ?", enrollment.ID, model.EnrollmentStatusPending).
		Update("checkout_session_id", sessionID)
	if res.Error != nil {
		log.Warnw("failed to attach checkout session", "enrollment_id", enrollment.ID, "session_id", sessionID, "error", res.Error)
		return
	}
	if res.RowsAffected == 1 {
		enrollment.CheckoutSessionID = &sessionID
	}
}

// ActivateEnrollment marks an enrollment active after the processor confirmed payment.
// Repeated confirmations are no-ops; changed reports whether this call did the transition.
func (s *EnrollmentService) ActivateEnrollment(ctx context.Context, enrollmentID uint, sessionID, source string) (enrollment *model.Enrollment, changed bool, err error) {
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var e model.Enrollment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&e, enrollmentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEnrollmentNotFound
			}
			return err
		}
		enrollment = &e

		if e.Status == model.EnrollmentStatusActive {
			return nil
		}
		if e.Status == model.EnrollmentStatusCancelled {
			log.Warnw("payment confirmed for cancelled enrollment, reactivating", "enrollment_id", e.ID, "session_id", sessionID)
		}

		now := time.Now()
		updates := map[string]interface{}{
			"status":       model.EnrollmentStatusActive,
			"activated_at": now,
			"cancelled_at": nil,
		}
		if sessionID != "" {
			updates["checkout_session_id"] = sessionID
		}
		if err := tx.Model(&model.Enrollment{}).Where("id = ?", e.ID).Updates(updates).Error; err != nil {
			return err
		}

		e.Status = model.EnrollmentStatusActive
		e.ActivatedAt = &now
		e.CancelledAt = nil
		if sessionID != "" {
			e.CheckoutSessionID = &sessionID
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if changed {
		metrics.EnrollmentActivations.WithLabelValues(source).Inc()
		log.Infow("enrollment activated", "enrollment_id", enrollment.ID, "user_id", enrollment.UserID, "course_id", enrollment.CourseID, "source", source)

		afterCtx := context.WithoutCancel(ctx)
		s.publish(afterCtx, events.TypeActivated, enrollment, source)
		s.sendConfirmation(afterCtx, enrollment)
	}
	return enrollment, changed, nil
}

// CancelEnrollment is the administrative path to Cancelled
func (s *EnrollmentService) CancelEnrollment(ctx context.Context, enrollmentID uint) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	changed := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&enrollment, enrollmentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEnrollmentNotFound
			}
			return err
		}
		if enrollment.Status == model.EnrollmentStatusCancelled {
			return nil
		}

		now := time.Now()
		if err := tx.Model(&model.Enrollment{}).Where("id = ?", enrollment.ID).Updates(map[string]interface{}{
			"status":       model.EnrollmentStatusCancelled,
			"cancelled_at": now,
		}).Error; err != nil {
			return err
		}
		enrollment.Status = model.EnrollmentStatusCancelled
		enrollment.CancelledAt = &now
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		log.Infow("enrollment cancelled", "enrollment_id", enrollment.ID, "user_id", enrollment.UserID, "course_id", enrollment.CourseID)
		s.publish(context.WithoutCancel(ctx), events.TypeCancelled, &enrollment, "admin")
	}
	return &enrollment, nil
}

// ReleaseCheckout forgets an expired checkout session so that the next attempt starts clean
func (s *EnrollmentService) ReleaseCheckout(ctx context.Context, enrollmentID uint, sessionID string) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&model.Enrollment{}).
		Where("id = ? AND checkout_session_id = ? AND status = ?", enrollmentID, sessionID, model.EnrollmentStatusPending).
		Update("checkout_session_id", nil)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// GetUserEnrollment returns the caller's enrollment for one course
func (s *EnrollmentService) GetUserEnrollment(ctx context.Context, userID, courseID uint) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	err := s.db.WithContext(ctx).
		Preload("Course").
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Take(&enrollment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEnrollmentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// ListUserEnrollments returns every enrollment the user has, newest first
func (s *EnrollmentService) ListUserEnrollments(ctx context.Context, userID uint, status model.EnrollmentStatus) ([]model.Enrollment, error) {
	query := s.db.WithContext(ctx).Preload("Course").Where("user_id = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var enrollments []model.Enrollment
	if err := query.Order("updated_at DESC").Find(&enrollments).Error; err != nil {
		return nil, err
	}
	return enrollments, nil
}

// EnrollmentFilter narrows the admin listing
type EnrollmentFilter struct {
	Status   model.EnrollmentStatus
	UserID   uint
	CourseID uint
	Page     int
	Limit    int
}

// ListEnrollments returns a page of enrollments and the total matching count
func (s *EnrollmentService) ListEnrollments(ctx context.Context, filter EnrollmentFilter) ([]model.Enrollment, int64, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 20
	}

	query := s.db.WithContext(ctx).Model(&model.Enrollment{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.CourseID != 0 {
		query = query.Where("course_id = ?", filter.CourseID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var enrollments []model.Enrollment
	err := query.
		Preload("User", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "email", "name", "role")
		}).
		Preload("Course").
		Order("created_at DESC").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&enrollments).Error
	if err != nil {
		return nil, 0, err
	}
	return enrollments, total, nil
}

// ReconcileResult summarizes one pass over stale pending enrollments
type ReconcileResult struct {
	Checked   int `json:"checked"`
	Activated int `json:"activated"`
	Released  int `json:"released"`
	// Deferred counts sessions still open; they move to the back of the queue
	Deferred int `json:"deferred"`
	Failed   int `json:"failed"`
}

// ReconcilePending asks the processor about pending enrollments whose checkout
// has been idle longer than olderThan. Catches confirmations whose webhook never arrived.
func (s *EnrollmentService) ReconcilePending(ctx context.Context, olderThan time.Duration, limit int) (*ReconcileResult, error) {
	if limit <= 0 {
		limit = 100
	}

	var stale []model.Enrollment
	err := s.db.WithContext(ctx).
		Where("status = ? AND checkout_session_id IS NOT NULL AND updated_at < ?", model.EnrollmentStatusPending, time.Now().Add(-olderThan)).
		Order("updated_at ASC").
		Limit(limit).
		Find(&stale).Error
	if err != nil {
		return nil, fmt.Errorf("load stale enrollments: %w", err)
	}

	result := &ReconcileResult{}
	for i := range stale {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		e := &stale[i]
		result.Checked++

		callCtx, cancel := context.WithTimeout(ctx, s.cfg.PaymentTimeout)
		session, err := s.processor.GetCheckoutSession(callCtx, *e.CheckoutSessionID)
		cancel()
		if err != nil {
			result.Failed++
			log.Warnw("reconcile: failed to fetch checkout session", "enrollment_id", e.ID, "session_id", *e.CheckoutSessionID, "error", err)
			s.deferReconcile(ctx, e)
			continue
		}

		switch {
		case session.IsPaid():
			if _, _, err := s.ActivateEnrollment(ctx, e.ID, session.ID, ActivationSourceReconcile); err != nil {
				result.Failed++
				log.Warnw("reconcile: activation failed", "enrollment_id", e.ID, "error", err)
				continue
			}
			result.Activated++
		case session.Status == payment.SessionStatusExpired:
			released, err := s.ReleaseCheckout(ctx, e.ID, session.ID)
			if err != nil {
				result.Failed++
				log.Warnw("reconcile: release failed", "enrollment_id", e.ID, "error", err)
				continue
			}
			if released {
				result.Released++
			}
		default:
			s.deferReconcile(ctx, e)
			result.Deferred++
		}
	}

	return result, nil
}

// deferReconcile bumps updated_at so rows that cannot be settled yet stop
// occupying the head of the oldest-first batch
func (s *EnrollmentService) deferReconcile(ctx context.Context, e *model.Enrollment) {
	err := s.db.WithContext(ctx).
		Model(&model.Enrollment{}).
		Where("id = ? AND status = ? AND checkout_session_id = ?", e.ID, model.EnrollmentStatusPending, *e.CheckoutSessionID).
		UpdateColumn("updated_at", time.Now()).Error
	if err != nil {
		log.Warnw("reconcile: failed to defer enrollment", "enrollment_id", e.ID, "error", err)
	}
}

func (s *EnrollmentService) publish(ctx context.Context, eventType string, enrollment *model.Enrollment, source string) {
	evt := events.EnrollmentEvent{
		Type:         eventType,
		EnrollmentID: enrollment.ID,
		UserID:       enrollment.UserID,
		CourseID:     enrollment.CourseID,
		Status:       string(enrollment.Status),
		Amount:       enrollment.Amount.StringFixed(2),
		Currency:     enrollment.Currency,
		Source:       source,
		OccurredAt:   time.Now().UTC(),
	}
	if enrollment.CheckoutSessionID != nil {
		evt.CheckoutSessionID = *enrollment.CheckoutSessionID
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		log.Warnw("failed to publish enrollment event", "type", eventType, "enrollment_id", enrollment.ID, "error", err)
	}
}

func (s *EnrollmentService) sendConfirmation(ctx context.Context, enrollment *model.Enrollment) {
	var full model.Enrollment
	err := s.db.WithContext(ctx).Preload("User").Preload("Course").First(&full, enrollment.ID).Error
	if err != nil || full.User == nil || full.Course == nil {
		log.Warnw("could not load enrollment for confirmation email", "enrollment_id", enrollment.ID, "error", err)
		return
	}

	err = s.mailer.SendEnrollmentConfirmation(ctx, notify.EnrollmentConfirmation{
		ToEmail:     full.User.Email,
		ToName:      full.User.Name,
		CourseTitle: full.Course.Title,
		CourseURL:   fmt.Sprintf("%s/courses/%s", s.cfg.AppURL, full.Course.Slug),
	})
	if err != nil {
		log.Warnw("failed to send enrollment confirmation", "enrollment_id", enrollment.ID, "error", err)
	}
}
