package webhook

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/coursehub-api/services/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDeliveries struct {
	err       error
	signature string
	payload   string
}

func (s *stubDeliveries) HandleDelivery(_ context.Context, payload []byte, signature string) (string, error) {
	s.payload = string(payload)
	s.signature = signature
	if s.err != nil {
		return "failed", s.err
	}
	return "processed", nil
}

func post(t *testing.T, deliveries DeliveryHandler, body, signature string) int {
	t.Helper()
	app := fiber.New()
	app.Post("/webhooks/stripe", NewStripeHandler(deliveries).Handle)

	req := httptest.NewRequest(fiber.MethodPost, "/webhooks/stripe", strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestStripeWebhook(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		stub := &stubDeliveries{}
		assert.Equal(t, fiber.StatusOK, post(t, stub, `{"id":"evt_1"}`, "t=1,v1=abc"))
		assert.Equal(t, "t=1,v1=abc", stub.signature)
		assert.Equal(t, `{"id":"evt_1"}`, stub.payload)
	})

	t.Run("large event", func(t *testing.T) {
		stub := &stubDeliveries{}
		body := `{"id":"evt_2","metadata":"` + strings.Repeat("x", 200*1024) + `"}`
		assert.Equal(t, fiber.StatusOK, post(t, stub, body, "t=1,v1=abc"))
		assert.Equal(t, body, stub.payload)
	})

	t.Run("empty body", func(t *testing.T) {
		assert.Equal(t, fiber.StatusBadRequest, post(t, &stubDeliveries{}, "", "t=1,v1=abc"))
	})

	t.Run("missing signature", func(t *testing.T) {
		assert.Equal(t, fiber.StatusBadRequest, post(t, &stubDeliveries{}, `{}`, ""))
	})

	t.Run("invalid signature", func(t *testing.T) {
		stub := &stubDeliveries{err: payment.ErrInvalidSignature}
		assert.Equal(t, fiber.StatusBadRequest, post(t, stub, `{}`, "forged"))
	})

	t.Run("processing failure asks for redelivery", func(t *testing.T) {
		stub := &stubDeliveries{err: errors.New("database is down")}
		assert.Equal(t, fiber.StatusInternalServerError, post(t, stub, `{}`, "t=1,v1=abc"))
	})
}
