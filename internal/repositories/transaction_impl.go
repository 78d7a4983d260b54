package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"paydesk/internal/models"

	"gorm.io/gorm"
)

type transactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	err := r.db.WithContext(ctx).Create(tx).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrAlreadyExists
	}
	return err
}

func (r *transactionRepository) getBy(ctx context.Context, query string, arg string) (*models.Transaction, error) {
	var tx models.Transaction
	err := r.db.WithContext(ctx).Where(query, arg).First(&tx).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *transactionRepository) GetByTransactionID(ctx context.Context, id string) (*models.Transaction, error) {
	return r.getBy(ctx, "transaction_id = ?", id)
}

func (r *transactionRepository) GetByExternalPayoutID(ctx context.Context, externalID string) (*models.Transaction, error) {
	return r.getBy(ctx, "external_payout_id = ?", externalID)
}

func (r *transactionRepository) GetByIdempotencyKey(ctx context.Context, key string) (*models.Transaction, error) {
	return r.getBy(ctx, "idempotency_key = ?", key)
}

func (r *transactionRepository) ApplyTransition(ctx context.Context, transactionID, expectedState, newState string, record models.TransitionRecord, updates map[string]interface{}) (*models.Transaction, error) {
	current, err := r.GetByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if current.State != expectedState {
		return nil, fmt.Errorf("%w: expected %s, found %s", ErrConflict, expectedState, current.State)
	}

	history := append(current.Transitions, record)

	values := map[string]interface{}{
		"state":          newState,
		"previous_state": expectedState,
		"transitions":    history,
	}
	for k, v := range updates {
		values[k] = v
	}

	// The WHERE clause on the old state is the compare-and-swap: a
	// concurrent writer that got there first leaves zero rows to update.
	res := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("transaction_id = ? AND state = ?", transactionID, expectedState).
		Updates(values)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: %s no longer in state %s", ErrConflict, transactionID, expectedState)
	}

	return r.GetByTransactionID(ctx, transactionID)
}

func (r *transactionRepository) ScheduleRetry(ctx context.Context, transactionID, expectedState string, retryCount int, nextRetryAt *time.Time, externalPayoutID, failureDescription string) error {
	values := map[string]interface{}{
		"retry_count":   retryCount,
		"next_retry_at": nextRetryAt,
	}
	if externalPayoutID != "" {
		values["external_payout_id"] = externalPayoutID
	}
	if failureDescription != "" {
		values["failure_description"] = failureDescription
	}

	res := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("transaction_id = ? AND state = ?", transactionID, expectedState).
		Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s no longer in state %s", ErrConflict, transactionID, expectedState)
	}
	return nil
}

func (r *transactionRepository) FindDueForRetry(ctx context.Context, now time.Time, limit int) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := r.db.WithContext(ctx).
		Where("state = ? AND next_retry_at IS NOT NULL AND next_retry_at <= ? AND retry_count < max_retries",
			models.StateSubmitted, now).
		Order("next_retry_at ASC").
		Limit(limit).
		Find(&txs).Error
	return txs, err
}

func (r *transactionRepository) FindNonTerminalWithExternalID(ctx context.Context, states []string, limit int) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := r.db.WithContext(ctx).
		Where("state IN ? AND external_payout_id <> ''", states).
		Order("updated_at ASC").
		Limit(limit).
		Find(&txs).Error
	return txs, err
}

func (r *transactionRepository) List(ctx context.Context, filter TransactionFilter) ([]models.Transaction, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Transaction{})

	if filter.UserID != 0 {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.State != "" {
		q = q.Where("state = ?", filter.State)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.Mode != "" {
		q = q.Where("mode = ?", filter.Mode)
	}
	if !filter.From.IsZero() {
		q = q.Where("created_at >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		q = q.Where("created_at <= ?", filter.To)
	}
	if filter.MinAmount > 0 {
		q = q.Where("amount >= ?", filter.MinAmount)
	}
	if filter.MaxAmount > 0 {
		q = q.Where("amount <= ?", filter.MaxAmount)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortBy := filter.SortBy
	switch sortBy {
	case "amount", "updated_at", "state":
	default:
		sortBy = "created_at"
	}
	dir := "ASC"
	if filter.SortDesc {
		dir = "DESC"
	}

	var txs []models.Transaction
	err := q.Order(sortBy + " " + dir).
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&txs).Error
	return txs, total, err
}

func (r *transactionRepository) Stats(ctx context.Context, userID uint) ([]StateBucket, error) {
	var buckets []StateBucket
	q := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Select("state, COUNT(*) as count, COALESCE(SUM(amount), 0) as amount").
		Group("state")
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	}
	err := q.Scan(&buckets).Error
	return buckets, err
}
