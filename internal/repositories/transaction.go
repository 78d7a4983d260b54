package repositories

import (
	"context"
	"time"

	"paydesk/internal/models"
)

// TransactionFilter narrows List queries. Zero values mean "no filter".
type TransactionFilter struct {
	UserID    uint
	State     string
	Type      string
	Mode      string
	From      time.Time
	To        time.Time
	MinAmount int64
	MaxAmount int64
	Limit     int
	Offset    int
	SortBy    string
	SortDesc  bool
}

// StateBucket is one row of the aggregate statistics.
type StateBucket struct {
	State  string `json:"state"`
	Count  int64  `json:"count"`
	Amount int64  `json:"amount"`
}

// TransactionRepository is the single choke point for payout records.
// ApplyTransition is the only mutation path for state; everything else is
// reads plus retry bookkeeping.
type TransactionRepository interface {
	Create(ctx context.Context, tx *models.Transaction) error
	GetByTransactionID(ctx context.Context, id string) (*models.Transaction, error)
	GetByExternalPayoutID(ctx context.Context, externalID string) (*models.Transaction, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*models.Transaction, error)

	// ApplyTransition performs a conditional update: it fails with
	// ErrConflict when the stored state no longer equals expectedState at
	// write time. It sets the new state, records the previous one, appends
	// the transition record and applies the field updates atomically.
	ApplyTransition(ctx context.Context, transactionID, expectedState, newState string, record models.TransitionRecord, updates map[string]interface{}) (*models.Transaction, error)

	// ScheduleRetry updates retry bookkeeping without a state change, under
	// the same state guard as ApplyTransition. A non-empty externalPayoutID
	// is persisted so the reconciler can reach a payout that landed even
	// when its state never advanced.
	ScheduleRetry(ctx context.Context, transactionID, expectedState string, retryCount int, nextRetryAt *time.Time, externalPayoutID, failureDescription string) error

	FindDueForRetry(ctx context.Context, now time.Time, limit int) ([]models.Transaction, error)
	FindNonTerminalWithExternalID(ctx context.Context, states []string, limit int) ([]models.Transaction, error)

	List(ctx context.Context, filter TransactionFilter) ([]models.Transaction, int64, error)
	Stats(ctx context.Context, userID uint) ([]StateBucket, error)
}
