package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sahilchouksey/coursehub-api/metrics"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// ProviderStripe identifies Stripe deliveries in payment_events
const ProviderStripe = "stripe"

// StripeConfig holds Stripe credentials
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
}

// StripeProcessor implements Processor on top of the Stripe API
type StripeProcessor struct {
	api           *client.API
	webhookSecret string
}

// NewStripeProcessor creates a Stripe backed processor
func NewStripeProcessor(cfg StripeConfig) *StripeProcessor {
	p := &StripeProcessor{webhookSecret: cfg.WebhookSecret}
	if cfg.SecretKey != "" {
		p.api = client.New(cfg.SecretKey, nil)
	}
	return p
}

// CreateCustomer creates a Stripe customer tagged with the given metadata
func (p *StripeProcessor) CreateCustomer(ctx context.Context, params CustomerParams) (*Customer, error) {
	if p.api == nil {
		return nil, fmt.Errorf("%w: %w", ErrProcessor, ErrNotConfigured)
	}
	defer observe("create_customer", time.Now())

	cp := &stripe.CustomerParams{
		Email: stripe.String(params.Email),
		Name:  stripe.String(params.Name),
	}
	cp.Context = ctx
	for k, v := range params.Metadata {
		cp.AddMetadata(k, v)
	}

	cus, err := p.api.Customers.New(cp)
	if err != nil {
		return nil, wrapStripeError("create customer", err)
	}
	return &Customer{ID: cus.ID}, nil
}

// CreateCheckoutSession opens a hosted checkout for a single price
func (p *StripeProcessor) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error) {
	if p.api == nil {
		return nil, fmt.Errorf("%w: %w", ErrProcessor, ErrNotConfigured)
	}
	defer observe("create_checkout_session", time.Now())

	quantity := params.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	sp := &stripe.CheckoutSessionParams{
		Customer: stripe.String(params.CustomerID),
		Mode:     stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(params.PriceRef),
				Quantity: stripe.Int64(quantity),
			},
		},
		SuccessURL: stripe.String(params.SuccessURL),
		CancelURL:  stripe.String(params.CancelURL),
	}
	sp.Context = ctx
	if params.IdempotencyKey != "" {
		sp.SetIdempotencyKey(params.IdempotencyKey)
	}
	for k, v := range params.Metadata {
		sp.AddMetadata(k, v)
	}

	sess, err := p.api.CheckoutSessions.New(sp)
	if err != nil {
		return nil, wrapStripeError("create checkout session", err)
	}
	return sessionFromStripe(sess), nil
}

// GetCheckoutSession fetches the current state of a checkout session
func (p *StripeProcessor) GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	if p.api == nil {
		return nil, fmt.Errorf("%w: %w", ErrProcessor, ErrNotConfigured)
	}
	defer observe("get_checkout_session", time.Now())

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	sess, err := p.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, wrapStripeError("get checkout session", err)
	}
	return sessionFromStripe(sess), nil
}

func (p *StripeProcessor) Name() string {
	return ProviderStripe
}

// ParseWebhook verifies the Stripe-Signature header and decodes checkout events
func (p *StripeProcessor) ParseWebhook(payload []byte, signature string) (*Event, error) {
	if p.webhookSecret == "" {
		return nil, ErrNotConfigured
	}

	evt, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	return decodeEvent(evt, payload)
}

// decodeEvent converts a verified stripe.Event; only checkout.session.* events carry a session
func decodeEvent(evt stripe.Event, payload []byte) (*Event, error) {
	out := &Event{
		ID:   evt.ID,
		Type: string(evt.Type),
		Raw:  payload,
	}

	switch out.Type {
	case EventCheckoutCompleted, EventCheckoutAsyncSucceeded, EventCheckoutExpired:
		if evt.Data == nil {
			return nil, fmt.Errorf("event %s has no data", evt.ID)
		}
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(evt.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("decode checkout session of event %s: %w", evt.ID, err)
		}
		out.Session = sessionFromStripe(&sess)
	}

	return out, nil
}

func sessionFromStripe(sess *stripe.CheckoutSession) *CheckoutSession {
	return &CheckoutSession{
		ID:            sess.ID,
		URL:           sess.URL,
		Status:        string(sess.Status),
		PaymentStatus: string(sess.PaymentStatus),
		Metadata:      sess.Metadata,
	}
}

// wrapStripeError keeps Stripe's message and request id for the logs while
// making every failure match ErrProcessor.
func wrapStripeError(op string, err error) error {
	var serr *stripe.Error
	if errors.As(err, &serr) {
		return fmt.Errorf("%w: %s: %s (type=%s code=%s status=%d request=%s)",
			ErrProcessor, op, serr.Msg, serr.Type, serr.Code, serr.HTTPStatusCode, serr.RequestID)
	}
	return fmt.Errorf("%w: %s: %v", ErrProcessor, op, err)
}

func observe(operation string, start time.Time) {
	metrics.PaymentProcessorCallTime.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
