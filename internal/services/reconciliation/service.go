// Package reconciliation polls the processor's source of truth for
// non-terminal payouts and corrects local drift from missed webhooks. It is
// idempotent and safe to run concurrently with webhook delivery: the
// conditional transition update makes one of two racing writers a no-op.
package reconciliation

import (
	"context"
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

// Service corrects local state drift against the processor.
type Service interface {
	ReconcileOne(ctx context.Context, transactionID string) (*Result, error)
	ReconcileAllPending(ctx context.Context) (*RunSummary, error)
}

type service struct {
	transactions repositories.TransactionRepository
	client       processor.Client
	cache        payout.CacheOperator
	publisher    events.Publisher
	metrics      payout.MetricsCollector
	config       Config
}

// NewService creates a new reconciliation service
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

func (s *service) ReconcileOne(ctx context.Context, transactionID string) (*Result, error) {
	tx, err := s.transactions.GetByTransactionID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, payout.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return s.reconcile(ctx, tx)
}

func (s *service) ReconcileAllPending(ctx context.Context) (*RunSummary, error) {
	nonTerminal := []string{
		models.StateSubmitted,
		models.StateQueued,
		models.StatePending,
		models.StateProcessing,
		models.StateRefundPending,
	}

	txs, err := s.transactions.FindNonTerminalWithExternalID(ctx, nonTerminal, s.config.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending transactions: %w", err)
	}

	summary := &RunSummary{}
	for i := range txs {
		summary.Checked++
		res, err := s.reconcile(ctx, &txs[i])
		if err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", txs[i].TransactionID, err))
			continue
		}
		if res.Reconciled {
			summary.Reconciled++
		} else {
			summary.Discrepant++
		}
	}
	return summary, nil
}

func (s *service) reconcile(ctx context.Context, tx *models.Transaction) (*Result, error) {
	if statemachine.IsTerminal(tx.State) {
		return &Result{TransactionID: tx.TransactionID, Reconciled: true, FromState: tx.State}, nil
	}
	if tx.ExternalPayoutID == "" {
		return &Result{
			TransactionID: tx.TransactionID,
			Reconciled:    false,
			Discrepancy:   "no external payout id; nothing to poll",
		}, nil
	}

	entity, err := s.client.GetPayout(ctx, tx.ExternalPayoutID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payout %s: %w", tx.ExternalPayoutID, err)
	}

	mapped, ok := statemachine.FromProcessorStatus(entity.Status)
	if !ok {
		s.metrics.RecordError("reconciliation", "unrecognized_status")
		return &Result{
			TransactionID: tx.TransactionID,
			Reconciled:    false,
			FromState:     tx.State,
			Discrepancy:   fmt.Sprintf("unrecognized processor status %q", entity.Status),
		}, nil
	}

	if mapped == tx.State {
		return &Result{TransactionID: tx.TransactionID, Reconciled: true, FromState: tx.State}, nil
	}

	if !statemachine.IsValidTransition(tx.State, mapped) {
		// Acting on this would re-open a settled record or jump the
		// lifecycle; keep local state and surface the mismatch.
		s.metrics.RecordError("reconciliation", "invalid_transition")
		return &Result{
			TransactionID: tx.TransactionID,
			Reconciled:    false,
			FromState:     tx.State,
			ToState:       mapped,
			Discrepancy:   fmt.Sprintf("invalid transition %s -> %s", tx.State, mapped),
		}, nil
	}

	now := time.Now().UTC()
	record := models.TransitionRecord{
		From:        tx.State,
		To:          mapped,
		Source:      models.SourceReconciliation,
		Description: "status poll",
		At:          now,
	}

	updated, err := s.transactions.ApplyTransition(ctx, tx.TransactionID, tx.State, mapped, record, payout.TransitionUpdates(entity, mapped, now))
	if err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			// A webhook won the race; by definition the record moved
			// forward, so there is nothing left to correct here.
			return &Result{TransactionID: tx.TransactionID, Reconciled: true, FromState: tx.State}, nil
		}
		return nil, err
	}

	s.metrics.RecordTransition(record.From, record.To, record.Source)
	if err := s.cache.InvalidateTransaction(ctx, tx.TransactionID); err != nil {
		log.Printf("reconciliation: failed to invalidate cache for %s: %v", tx.TransactionID, err)
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
		log.Printf("reconciliation: failed to publish transition event for %s: %v", tx.TransactionID, err)
	}

	return &Result{
		TransactionID: tx.TransactionID,
		Reconciled:    true,
		Changed:       true,
		FromState:     record.From,
		ToState:       record.To,
	}, nil
}
