// Package scheduler re-submits payouts whose submission never reached the
// processor. Retries reuse the original idempotency key, so a submission
// that actually landed can never be duplicated.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"paydesk/internal/events"
	"paydesk/internal/models"
	"paydesk/internal/processor"
	"paydesk/internal/repositories"
	"paydesk/internal/services/payout"
	"paydesk/internal/statemachine"
)

// Service runs retry ticks. The trigger (cron, timer) lives outside.
type Service interface {
	ProcessRetries(ctx context.Context) (*RunSummary, error)
}

type service struct {
	transactions repositories.TransactionRepository
	client       processor.Client
	cache        payout.CacheOperator
	publisher    events.Publisher
	metrics      payout.MetricsCollector
	config       Config
}

// NewService creates a new retry scheduler
func NewService(
	transactions repositories.TransactionRepository,
	client processor.Client,
	cache payout.CacheOperator,
	publisher events.Publisher,
	metrics payout.MetricsCollector,
	config Config,
) Service {
	if transactions == nil {
		panic("transaction repo is required")
	}
	if client == nil {
		panic("processor client is required")
	}
	if cache == nil {
		panic("cache is required")
	}

	if config.BatchSize == 0 {
		config.BatchSize = DefaultBatchSize
	}
	if config.InitialDelay == 0 {
		config.InitialDelay = DefaultInitialDelay
	}
	if config.BackoffMultiplier == 0 {
		config.BackoffMultiplier = DefaultBackoffMultiplier
	}
	if config.MaxDelay == 0 {
		config.MaxDelay = DefaultMaxDelay
	}

	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if metrics == nil {
		metrics = payout.NoopMetricsCollector{}
	}

	return &service{
		transactions: transactions,
		client:       client,
		cache:        cache,
		publisher:    publisher,
		metrics:      metrics,
		config:       config,
	}
}

func (s *service) ProcessRetries(ctx context.Context) (*RunSummary, error) {
	now := time.Now().UTC()
	due, err := s.transactions.FindDueForRetry(ctx, now, s.config.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to find due transactions: %w", err)
	}

	summary := &RunSummary{}
	for i := range due {
		tx := due[i]
		summary.Processed++
		if err := s.retryOne(ctx, &tx); err != nil {
			summary.Failed++
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", tx.TransactionID, err))
		} else {
			summary.Succeeded++
		}
	}
	return summary, nil
}

func (s *service) retryOne(ctx context.Context, tx *models.Transaction) error {
	now := time.Now().UTC()
	attempt := tx.RetryCount + 1

	// Same reference ID as the original submission: if the earlier call
	// landed despite its error, the processor returns the existing payout
	// instead of creating a second one.
	entity, err := s.client.CreatePayout(ctx, processor.CreatePayoutRequest{
		FundAccountID: tx.FundAccountID,
		Amount:        tx.Amount,
		Currency:      tx.Currency,
		Mode:          tx.Mode,
		Purpose:       tx.Purpose,
		ReferenceID:   tx.IdempotencyKey,
		Narration:     tx.Narration,
	})
	if err != nil {
		return s.retryFailed(ctx, tx, attempt, now, err)
	}

	mapped, ok := statemachine.FromProcessorStatus(entity.Status)
	if !ok {
		// Unrecognized vocabulary: leave the state untouched and keep the
		// retry slot, the next attempt resolves via the same key.
		s.metrics.RecordError("retry", "unrecognized_status")
		next := now.Add(s.backoffDelay(attempt))
		if err := s.transactions.ScheduleRetry(ctx, tx.TransactionID, models.StateSubmitted, attempt, &next, entity.ID, "unrecognized processor status: "+entity.Status); err != nil {
			return err
		}
		return fmt.Errorf("unrecognized processor status %q", entity.Status)
	}

	if !statemachine.IsValidTransition(tx.State, mapped) {
		// An earlier submission landed despite its error and the processor
		// is already past every state reachable from submitted. Store the
		// payout ID and burn the attempt so selection stays bounded and the
		// reconciler can reach the record through the external ID.
		s.metrics.RecordError("retry", "state_drift")
		next := now.Add(s.backoffDelay(attempt))
		if err := s.transactions.ScheduleRetry(ctx, tx.TransactionID, models.StateSubmitted, attempt, &next, entity.ID, "processor already "+entity.Status); err != nil {
			if errors.Is(err, repositories.ErrConflict) {
				return nil
			}
			return err
		}
		return fmt.Errorf("processor state %q unreachable from %s", entity.Status, tx.State)
	}

	updates := payout.TransitionUpdates(entity, mapped, now)
	updates["retry_count"] = attempt
	updates["next_retry_at"] = nil
	if tx.SubmittedAt == nil {
		updates["submitted_at"] = &now
	}

	record := models.TransitionRecord{
		From:        models.StateSubmitted,
		To:          mapped,
		Source:      models.SourceScheduler,
		Description: fmt.Sprintf("retry attempt %d", attempt),
		At:          now,
	}

	updated, err := s.transactions.ApplyTransition(ctx, tx.TransactionID, tx.State, mapped, record, updates)
	if err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			// Someone else moved this forward; drop and re-read next tick.
			return nil
		}
		return err
	}

	s.afterTransition(ctx, updated, record)
	return nil
}

func (s *service) retryFailed(ctx context.Context, tx *models.Transaction, attempt int, now time.Time, cause error) error {
	permanent := errors.Is(cause, processor.ErrRejected)

	if permanent || attempt >= tx.MaxRetries {
		reason := models.FailureReasonMaxRetries
		if permanent {
			reason = models.FailureReasonRejected
		}
		record := models.TransitionRecord{
			From:        models.StateSubmitted,
			To:          models.StateFailed,
			Source:      models.SourceScheduler,
			Description: cause.Error(),
			At:          now,
		}
		updated, err := s.transactions.ApplyTransition(ctx, tx.TransactionID, models.StateSubmitted, models.StateFailed, record, map[string]interface{}{
			"retry_count":         attempt,
			"next_retry_at":       nil,
			"failed_at":           &now,
			"failure_reason":      reason,
			"failure_description": cause.Error(),
		})
		if err != nil {
			if errors.Is(err, repositories.ErrConflict) {
				return nil
			}
			return err
		}
		s.afterTransition(ctx, updated, record)
		return fmt.Errorf("terminal failure after attempt %d: %w", attempt, cause)
	}

	next := now.Add(s.backoffDelay(attempt))
	if err := s.transactions.ScheduleRetry(ctx, tx.TransactionID, models.StateSubmitted, attempt, &next, "", cause.Error()); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return nil
		}
		return err
	}
	return fmt.Errorf("attempt %d failed, next retry at %s: %w", attempt, next.Format(time.RFC3339), cause)
}

// backoffDelay grows exponentially with a hard ceiling to bound staleness.
func (s *service) backoffDelay(attempt int) time.Duration {
	delay := time.Duration(float64(s.config.InitialDelay) * math.Pow(s.config.BackoffMultiplier, float64(attempt)))
	if delay > s.config.MaxDelay {
		delay = s.config.MaxDelay
	}
	return delay
}

func (s *service) afterTransition(ctx context.Context, tx *models.Transaction, record models.TransitionRecord) {
	s.metrics.RecordTransition(record.From, record.To, record.Source)
	if err := s.cache.InvalidateTransaction(ctx, tx.TransactionID); err != nil {
		log.Printf("scheduler: failed to invalidate cache for %s: %v", tx.TransactionID, err)
	}
	if err := s.publisher.PublishTransition(ctx, events.TransitionEvent{
		TransactionID:    tx.TransactionID,
		ExternalPayoutID: tx.ExternalPayoutID,
		From:             record.From,
		To:               record.To,
		Source:           record.Source,
		Amount:           tx.Amount,
		Currency:         tx.Currency,
		At:               record.At,
	}); err != nil {
		log.Printf("scheduler: failed to publish transition event for %s: %v", tx.TransactionID, err)
	}
}
