package webhook

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/sahilchouksey/coursehub-api/services/payment"
	"github.com/sahilchouksey/coursehub-api/utils/response"
)

// DeliveryHandler verifies and applies one processor delivery
type DeliveryHandler interface {
	HandleDelivery(ctx context.Context, payload []byte, signature string) (string, error)
}

// StripeHandler receives Stripe webhook deliveries
type StripeHandler struct {
	deliveries DeliveryHandler
}

// NewStripeHandler creates a new Stripe webhook handler
func NewStripeHandler(deliveries DeliveryHandler) *StripeHandler {
	return &StripeHandler{deliveries: deliveries}
}

// Handle handles POST /api/v1/webhooks/stripe. Any non-2xx answer makes
// Stripe redeliver, so only a bad signature is answered with 400. Body size
// is bounded by the server's BodyLimit.
func (h *StripeHandler) Handle(c *fiber.Ctx) error {
	payload := c.Body()
	if len(payload) == 0 {
		return response.BadRequest(c, "Invalid payload")
	}

	signature := c.Get("Stripe-Signature")
	if signature == "" {
		return response.BadRequest(c, "Missing signature")
	}

	// fasthttp reuses the body buffer once the handler returns
	body := append([]byte(nil), payload...)

	result, err := h.deliveries.HandleDelivery(c.UserContext(), body, signature)
	if err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) {
			log.Warnw("rejected webhook with invalid signature", "ip", c.IP())
			return response.BadRequest(c, "Invalid signature")
		}
		return response.InternalServerError(c, "Failed to process event")
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true, "result": result})
}
