package handlers

import (
	"errors"
	"log"

	"paydesk/internal/services/webhook"
	"paydesk/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

// SignatureHeader carries the processor's HMAC over the raw body.
const SignatureHeader = "X-Payout-Signature"

type WebhookHandler struct {
	service webhook.Service
}

func NewWebhookHandler(service webhook.Service) *WebhookHandler {
	return &WebhookHandler{service: service}
}

// HandlePayoutEvent ingests one processor webhook. A bad signature is the
// only rejection; any downstream outcome answers 200 so the sender's retry
// loop never amplifies an internal failure into duplicate deliveries.
func (h *WebhookHandler) HandlePayoutEvent(c *fiber.Ctx) error {
	rawBody := c.Body()
	signature := c.Get(SignatureHeader)

	result, err := h.service.Handle(c.Context(), rawBody, signature)
	if err != nil {
		if errors.Is(err, webhook.ErrInvalidSignature) {
			return response.Unauthorized(c)
		}
		log.Printf("webhook processing error: %v", err)
		// Internal failure after a valid signature: the reconciler is the
		// backstop, not the sender's retries.
		return response.Success(c, "accepted", nil)
	}

	return response.Success(c, "accepted", result)
}
