// Package webhook turns at-least-once processor deliveries into
// exactly-once state transitions. The dedup record is created before any
// business mutation; of two racing deliveries only one wins the insert.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"paydesk/internal/events"
	"paydesk/internal/models"
	"paydesk/internal/processor"
	"paydesk/internal/repositories"
	"paydesk/internal/services/payout"
	"paydesk/internal/statemachine"
)

// Service processes inbound processor webhooks.
type Service interface {
	Handle(ctx context.Context, rawBody []byte, signature string) (*Result, error)
}

type service struct {
	transactions repositories.TransactionRepository
	webhookRepo  repositories.WebhookEventRepository
	client       processor.Client
	cache        payout.CacheOperator
	publisher    events.Publisher
	metrics      payout.MetricsCollector
}

// NewService creates a new webhook processing service
func NewService(
	transactions repositories.TransactionRepository,
	webhookRepo repositories.WebhookEventRepository,
	client processor.Client,
	cache payout.CacheOperator,
	publisher events.Publisher,
	metrics payout.MetricsCollector,
) Service {
	if transactions == nil {
		panic("transaction repo is required")
	}
	if webhookRepo == nil {
		panic("webhook event repo is required")
	}
	if client == nil {
		panic("processor client is required")
	}
	if cache == nil {
		panic("cache is required")
	}
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if metrics == nil {
		metrics = payout.NoopMetricsCollector{}
	}

	return &service{
		transactions: transactions,
		webhookRepo:  webhookRepo,
		client:       client,
		cache:        cache,
		publisher:    publisher,
		metrics:      metrics,
	}
}

func (s *service) Handle(ctx context.Context, rawBody []byte, signature string) (*Result, error) {
	if !s.client.VerifySignature(rawBody, signature) {
		s.metrics.RecordError("webhook", "invalid_signature")
		return nil, ErrInvalidSignature
	}

	var payload Payload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		// Signature was valid, so rejecting would only trigger a retry
		// storm for a payload we will never parse.
		log.Printf("webhook: discarding malformed payload: %v", err)
		return &Result{Note: "malformed payload"}, nil
	}

	eventID := payload.EventID()

	if existing, err := s.webhookRepo.GetByEventID(ctx, eventID); err == nil {
		return &Result{Duplicate: true, TransactionID: existing.TransactionID}, nil
	}

	event := &models.WebhookEvent{
		EventID:     eventID,
		EventType:   payload.Event,
		PayloadHash: PayloadHash(rawBody),
	}
	if err := s.webhookRepo.Create(ctx, event); err != nil {
		if errors.Is(err, repositories.ErrAlreadyExists) {
			// Lost the insert race against a concurrent delivery of the
			// same event.
			return &Result{Duplicate: true}, nil
		}
		return nil, fmt.Errorf("failed to record webhook event: %w", err)
	}

	result := s.process(ctx, &payload)

	if err := s.webhookRepo.MarkProcessed(ctx, eventID, result.TransactionID, result.Note); err != nil {
		log.Printf("webhook: failed to mark event %s processed: %v", eventID, err)
	}
	return result, nil
}

func (s *service) process(ctx context.Context, payload *Payload) *Result {
	if !payload.IsPayoutEvent() {
		return &Result{Note: "ignored event type " + payload.Event}
	}

	entity := payload.Payload.Payout.Entity

	tx, err := s.transactions.GetByExternalPayoutID(ctx, entity.ID)
	if errors.Is(err, repositories.ErrNotFound) && entity.ReferenceID != "" {
		// The webhook can outrun the synchronous submission response that
		// stores the external payout ID; the reference ID still matches.
		tx, err = s.transactions.GetByIdempotencyKey(ctx, entity.ReferenceID)
	}
	if err != nil {
		s.metrics.RecordError("webhook", "transaction_not_found")
		return &Result{Note: fmt.Sprintf("no transaction for payout %s", entity.ID)}
	}

	mapped, ok := statemachine.FromProcessorStatus(entity.Status)
	if !ok {
		s.metrics.RecordError("webhook", "unrecognized_status")
		return &Result{
			TransactionID: tx.TransactionID,
			Note:          fmt.Sprintf("discrepancy: unrecognized status %q", entity.Status),
		}
	}

	if mapped == tx.State {
		return &Result{TransactionID: tx.TransactionID, Note: "state already " + mapped}
	}

	if !statemachine.IsValidTransition(tx.State, mapped) {
		// Stale or out-of-order signal. Recorded for operators, never
		// applied: terminal states do not re-open.
		s.metrics.RecordError("webhook", "invalid_transition")
		return &Result{
			TransactionID: tx.TransactionID,
			Note:          fmt.Sprintf("discrepancy: invalid transition %s -> %s", tx.State, mapped),
		}
	}

	now := time.Now().UTC()
	record := models.TransitionRecord{
		From:        tx.State,
		To:          mapped,
		Source:      models.SourceWebhook,
		Description: payload.Event,
		At:          now,
	}

	updated, err := s.transactions.ApplyTransition(ctx, tx.TransactionID, tx.State, mapped, record, payout.TransitionUpdates(&entity, mapped, now))
	if err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			// Another writer moved the transaction first; reconciliation
			// converges the record if anything is still off.
			return &Result{TransactionID: tx.TransactionID, Note: "lost transition race"}
		}
		s.metrics.RecordError("webhook", "apply_failed")
		return &Result{TransactionID: tx.TransactionID, Note: "apply failed: " + err.Error()}
	}

	s.metrics.RecordTransition(record.From, record.To, record.Source)
	if err := s.cache.InvalidateTransaction(ctx, tx.TransactionID); err != nil {
		log.Printf("webhook: failed to invalidate cache for %s: %v", tx.TransactionID, err)
	}
	if err := s.publisher.PublishTransition(ctx, events.TransitionEvent{
		TransactionID:    updated.TransactionID,
		ExternalPayoutID: updated.ExternalPayoutID,
		From:             record.From,
		To:               record.To,
		Source:           record.Source,
		Amount:           updated.Amount,
		Currency:         updated.Currency,
		At:               now,
	}); err != nil {
		log.Printf("webhook: failed to publish transition event for %s: %v", tx.TransactionID, err)
	}

	return &Result{Applied: true, TransactionID: tx.TransactionID}
}
