package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/sahilchouksey/coursehub-api/metrics"
	"github.com/sahilchouksey/coursehub-api/model"
	"github.com/sahilchouksey/coursehub-api/services/payment"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Webhook handling results, used as the metrics "result" label
const (
	WebhookResultProcessed = "processed"
	WebhookResultDuplicate = "duplicate"
	WebhookResultIgnored   = "ignored"
	WebhookResultFailed    = "failed"
	WebhookResultRejected  = "rejected"
)

// WebhookService turns verified processor deliveries into enrollment transitions
type WebhookService struct {
	db          *gorm.DB
	processor   payment.Processor
	enrollments *EnrollmentService
}

// NewWebhookService creates a new webhook service
func NewWebhookService(db *gorm.DB, processor payment.Processor, enrollments *EnrollmentService) *WebhookService {
	return &WebhookService{
		db:          db,
		processor:   processor,
		enrollments: enrollments,
	}
}

// HandleDelivery verifies and processes one webhook delivery. A nil error
// means the delivery should be acknowledged; payment.ErrInvalidSignature
// means it must be rejected; anything else asks the processor to redeliver.
func (s *WebhookService) HandleDelivery(ctx context.Context, payload []byte, signature string) (string, error) {
	event, err := s.processor.ParseWebhook(payload, signature)
	if err != nil {
		metrics.WebhookEvents.WithLabelValues("unknown", WebhookResultRejected).Inc()
		return WebhookResultRejected, err
	}

	result, err := s.handleEvent(ctx, event)
	metrics.WebhookEvents.WithLabelValues(event.Type, result).Inc()
	return result, err
}

func (s *WebhookService) handleEvent(ctx context.Context, event *payment.Event) (string, error) {
	record, duplicate, err := s.recordEvent(ctx, event)
	if err != nil {
		return WebhookResultFailed, err
	}
	if duplicate {
		log.Infow("webhook event already processed", "event_id", event.ID, "type", event.Type)
		return WebhookResultDuplicate, nil
	}

	result, procErr := s.process(ctx, event)

	updates := map[string]interface{}{"processing_error": ""}
	if procErr != nil {
		updates["processing_error"] = procErr.Error()
	} else {
		updates["processed_at"] = time.Now()
	}
	if err := s.db.WithContext(context.WithoutCancel(ctx)).Model(&model.PaymentEvent{}).Where("id = ?", record.ID).Updates(updates).Error; err != nil {
		log.Errorw("failed to update payment event", "event_id", event.ID, "error", err)
	}

	if procErr != nil {
		log.Errorw("webhook event processing failed", "event_id", event.ID, "type", event.Type, "error", procErr)
		return WebhookResultFailed, procErr
	}
	return result, nil
}

// recordEvent stores the delivery once per provider event id. An existing row
// that was never processed successfully is handed back for another attempt.
func (s *WebhookService) recordEvent(ctx context.Context, event *payment.Event) (*model.PaymentEvent, bool, error) {
	record := &model.PaymentEvent{
		Provider:        s.processor.Name(),
		ProviderEventID: event.ID,
		EventType:       event.Type,
		Payload:         datatypes.JSON(event.Raw),
	}

	err := s.db.WithContext(ctx).Create(record).Error
	if err == nil {
		return record, false, nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, false, fmt.Errorf("store payment event: %w", err)
	}

	var existing model.PaymentEvent
	if err := s.db.WithContext(ctx).
		Where("provider = ? AND provider_event_id = ?", record.Provider, event.ID).
		Take(&existing).Error; err != nil {
		return nil, false, fmt.Errorf("load payment event: %w", err)
	}
	return &existing, existing.ProcessedAt != nil, nil
}

func (s *WebhookService) process(ctx context.Context, event *payment.Event) (string, error) {
	switch event.Type {
	case payment.EventCheckoutCompleted, payment.EventCheckoutAsyncSucceeded:
		if event.Session == nil {
			return WebhookResultFailed, fmt.Errorf("event %s carries no checkout session", event.ID)
		}
		// Delayed payment methods complete the session before the money arrives
		if !event.Session.IsPaid() {
			log.Infow("checkout completed without payment yet", "event_id", event.ID, "session_id", event.Session.ID)
			return WebhookResultIgnored, nil
		}
		enrollmentID, ok := enrollmentIDFromSession(event.Session)
		if !ok {
			log.Warnw("checkout session without enrollment metadata", "event_id", event.ID, "session_id", event.Session.ID)
			return WebhookResultIgnored, nil
		}

		_, _, err := s.enrollments.ActivateEnrollment(ctx, enrollmentID, event.Session.ID, ActivationSourceWebhook)
		if errors.Is(err, ErrEnrollmentNotFound) {
			log.Warnw("payment confirmed for unknown enrollment", "event_id", event.ID, "enrollment_id", enrollmentID)
			return WebhookResultIgnored, nil
		}
		if err != nil {
			return WebhookResultFailed, err
		}
		return WebhookResultProcessed, nil

	case payment.EventCheckoutExpired:
		if event.Session == nil {
			return WebhookResultFailed, fmt.Errorf("event %s carries no checkout session", event.ID)
		}
		enrollmentID, ok := enrollmentIDFromSession(event.Session)
		if !ok {
			return WebhookResultIgnored, nil
		}
		if _, err := s.enrollments.ReleaseCheckout(ctx, enrollmentID, event.Session.ID); err != nil {
			return WebhookResultFailed, err
		}
		return WebhookResultProcessed, nil

	default:
		return WebhookResultIgnored, nil
	}
}

func enrollmentIDFromSession(session *payment.CheckoutSession) (uint, bool) {
	raw, ok := session.Metadata[payment.MetaEnrollmentID]
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
