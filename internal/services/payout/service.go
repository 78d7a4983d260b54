package payout

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
	"paydesk/internal/statemachine"
)

type service struct {
	repo      repositories.TransactionRepository
	accounts  repositories.FundAccountRepository
	client    processor.Client
	cache     CacheOperator
	publisher events.Publisher
	metrics   MetricsCollector
	config    Config
}

// NewService creates a new payout service
func NewService(
	repo repositories.TransactionRepository,
	accounts repositories.FundAccountRepository,
	client processor.Client,
	cache CacheOperator,
	publisher events.Publisher,
	metrics MetricsCollector,
	config Config,
) Service {
	if repo == nil {
		panic("repo is required")
	}
	if accounts == nil {
		panic("fund account repo is required")
	}
	if client == nil {
		panic("processor client is required")
	}
	if cache == nil {
		panic("cache is required")
	}

	if config.MaxRetries == 0 {
		config.MaxRetries = DefaultMaxRetries
	}
	if config.InitialRetryDelay == 0 {
		config.InitialRetryDelay = DefaultInitialRetryDelay
	}
	if config.BackoffMultiplier == 0 {
		config.BackoffMultiplier = DefaultBackoffMultiplier
	}
	if config.MaxRetryDelay == 0 {
		config.MaxRetryDelay = DefaultMaxRetryDelay
	}
	if config.Currency == "" {
		config.Currency = DefaultCurrency
	}
	if config.ModeLimits == nil {
		config.ModeLimits = defaultModeLimits
	}

	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if metrics == nil {
		metrics = NoopMetricsCollector{}
	}

	return &service{
		repo:      repo,
		accounts:  accounts,
		client:    client,
		cache:     cache,
		publisher: publisher,
		metrics:   metrics,
		config:    config,
	}
}

func (s *service) validate(req InitiateRequest) error {
	limits, ok := s.config.ModeLimits[req.Mode]
	if !ok {
		return ErrInvalidMode
	}
	if req.Amount < limits.Min || req.Amount > limits.Max {
		return fmt.Errorf("%w: %d not in [%d, %d] for %s", ErrInvalidAmount, req.Amount, limits.Min, limits.Max, req.Mode)
	}
	if !validTypes[req.Type] {
		return ErrInvalidType
	}
	if !validPurposes[req.Purpose] {
		return ErrInvalidPurpose
	}
	return nil
}

func (s *service) Initiate(ctx context.Context, userID uint, req InitiateRequest) (*InitiateResult, error) {
	if req.Type == "" {
		req.Type = models.TypeTransfer
	}
	if req.Purpose == "" {
		req.Purpose = models.PurposePayout
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}

	account, err := s.accounts.GetActiveForUser(ctx, userID, req.FundAccountID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrFundAccountNotFound
		}
		return nil, fmt.Errorf("failed to resolve fund account: %w", err)
	}

	key := IdempotencyKey(userID, req.ClientNonce)

	// A nonce makes the key deterministic: a resubmitted identical call
	// returns the transaction already created for it.
	if req.ClientNonce != "" {
		if existing, err := s.repo.GetByIdempotencyKey(ctx, key); err == nil {
			return resultFor(existing), nil
		}
	}

	now := time.Now().UTC()
	tx := &models.Transaction{
		TransactionID:  NewTransactionID(),
		IdempotencyKey: key,
		UserID:         userID,
		FundAccountID:  account.FundAccountID,
		Type:           req.Type,
		Mode:           req.Mode,
		Purpose:        req.Purpose,
		Amount:         req.Amount,
		Currency:       s.config.Currency,
		State:          models.StateInitiated,
		MaxRetries:     s.config.MaxRetries,
		Narration:      req.Narration,
		Metadata:       models.NewJSON(req.Metadata),
		Transitions: models.TransitionList{{
			From:   models.StateInitiated,
			To:     models.StateInitiated,
			Source: models.SourceAPI,
			At:     now,
		}},
	}

	if err := s.repo.Create(ctx, tx); err != nil {
		if errors.Is(err, repositories.ErrAlreadyExists) {
			// Lost a create race on the same nonce; the winner's record is
			// the transaction for this logical request.
			if existing, lookupErr := s.repo.GetByIdempotencyKey(ctx, key); lookupErr == nil {
				return resultFor(existing), nil
			}
		}
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	s.metrics.RecordInitiated(req.Mode)

	entity, err := s.client.CreatePayout(ctx, processor.CreatePayoutRequest{
		FundAccountID: account.FundAccountID,
		Amount:        req.Amount,
		Currency:      tx.Currency,
		Mode:          req.Mode,
		Purpose:       req.Purpose,
		ReferenceID:   key,
		Narration:     req.Narration,
		Notes:         req.Metadata,
	})
	if err != nil {
		return s.initiateFailed(ctx, tx, err)
	}

	mapped, ok := statemachine.FromProcessorStatus(entity.Status)
	description := ""
	if !ok {
		// Unknown vocabulary from the processor: park the payout in
		// submitted and let reconciliation settle it from source of truth.
		mapped = models.StateSubmitted
		description = "unrecognized processor status: " + entity.Status
		s.metrics.RecordError("initiate", "unrecognized_status")
	}

	updates := TransitionUpdates(entity, mapped, now)
	updates["submitted_at"] = &now

	updated, err := s.applyTransition(ctx, tx, mapped, models.TransitionRecord{
		From:        models.StateInitiated,
		To:          mapped,
		Source:      models.SourceAPI,
		Description: description,
		At:          time.Now().UTC(),
	}, updates)
	if err != nil {
		return nil, err
	}

	return resultFor(updated), nil
}

// initiateFailed handles a failed submission call. A definitive rejection
// goes terminal; anything transient leaves the transaction retryable and
// reports success=false so the caller can poll.
func (s *service) initiateFailed(ctx context.Context, tx *models.Transaction, cause error) (*InitiateResult, error) {
	now := time.Now().UTC()

	if errors.Is(cause, processor.ErrRejected) {
		s.metrics.RecordError("initiate", "rejected")
		updated, err := s.applyTransition(ctx, tx, models.StateFailed, models.TransitionRecord{
			From:        models.StateInitiated,
			To:          models.StateFailed,
			Source:      models.SourceAPI,
			Description: cause.Error(),
			At:          now,
		}, map[string]interface{}{
			"failed_at":           &now,
			"failure_reason":      models.FailureReasonRejected,
			"failure_description": cause.Error(),
		})
		if err != nil {
			return nil, err
		}
		res := resultFor(updated)
		res.Success = false
		res.Error = cause.Error()
		return res, nil
	}

	s.metrics.RecordError("initiate", "unavailable")
	nextRetry := now.Add(s.config.InitialRetryDelay)
	updated, err := s.applyTransition(ctx, tx, models.StateSubmitted, models.TransitionRecord{
		From:        models.StateInitiated,
		To:          models.StateSubmitted,
		Source:      models.SourceAPI,
		Description: cause.Error(),
		At:          now,
	}, map[string]interface{}{
		"next_retry_at":       &nextRetry,
		"failure_reason":      models.FailureReasonNetwork,
		"failure_description": cause.Error(),
	})
	if err != nil {
		return nil, err
	}

	res := resultFor(updated)
	res.Success = false
	res.Error = cause.Error()
	return res, nil
}

func (s *service) applyTransition(ctx context.Context, tx *models.Transaction, to string, record models.TransitionRecord, updates map[string]interface{}) (*models.Transaction, error) {
	if !statemachine.IsValidTransition(tx.State, to) {
		return nil, fmt.Errorf("invalid transition %s -> %s", tx.State, to)
	}

	updated, err := s.repo.ApplyTransition(ctx, tx.TransactionID, tx.State, to, record, updates)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordTransition(record.From, record.To, record.Source)
	if err := s.cache.InvalidateTransaction(ctx, tx.TransactionID); err != nil {
		log.Printf("failed to invalidate transaction cache for %s: %v", tx.TransactionID, err)
	}
	if err := s.publisher.PublishTransition(ctx, events.TransitionEvent{
		TransactionID:    updated.TransactionID,
		ExternalPayoutID: updated.ExternalPayoutID,
		From:             record.From,
		To:               record.To,
		Source:           record.Source,
		Amount:           updated.Amount,
		Currency:         updated.Currency,
		At:               record.At,
	}); err != nil {
		log.Printf("failed to publish transition event for %s: %v", tx.TransactionID, err)
	}

	return updated, nil
}

func (s *service) Get(ctx context.Context, userID uint, transactionID string) (*models.Transaction, error) {
	if tx, found, _ := s.cache.GetTransaction(ctx, transactionID); found {
		if userID != 0 && tx.UserID != userID {
			return nil, ErrNotOwned
		}
		return tx, nil
	}

	tx, err := s.repo.GetByTransactionID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	if userID != 0 && tx.UserID != userID {
		return nil, ErrNotOwned
	}

	if err := s.cache.CacheTransaction(ctx, tx); err != nil {
		log.Printf("failed to cache transaction %s: %v", transactionID, err)
	}
	return tx, nil
}

func (s *service) List(ctx context.Context, filter repositories.TransactionFilter) ([]models.Transaction, int64, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) Stats(ctx context.Context, userID uint) ([]repositories.StateBucket, error) {
	return s.repo.Stats(ctx, userID)
}

// Cancel is best-effort against the processor and only allowed while the
// payout is still queued.
func (s *service) Cancel(ctx context.Context, userID uint, transactionID string) (*models.Transaction, error) {
	tx, err := s.Get(ctx, userID, transactionID)
	if err != nil {
		return nil, err
	}
	if tx.State != models.StateQueued {
		return nil, ErrNotCancellable
	}

	entity, err := s.client.CancelPayout(ctx, tx.ExternalPayoutID)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel payout: %w", err)
	}

	now := time.Now().UTC()
	return s.applyTransition(ctx, tx, models.StateCancelled, models.TransitionRecord{
		From:   models.StateQueued,
		To:     models.StateCancelled,
		Source: models.SourceAPI,
		At:     now,
	}, TransitionUpdates(entity, models.StateCancelled, now))
}

func resultFor(tx *models.Transaction) *InitiateResult {
	return &InitiateResult{
		Success:          !statemachine.IsTerminal(tx.State) || tx.State == models.StateCompleted,
		TransactionID:    tx.TransactionID,
		ExternalPayoutID: tx.ExternalPayoutID,
		State:            tx.State,
	}
}
