package payout

import (
	"context"

	"paydesk/internal/models"
	"paydesk/internal/repositories"
)

// Service is the caller-facing payout surface.
type Service interface {
	Initiate(ctx context.Context, userID uint, req InitiateRequest) (*InitiateResult, error)
	Get(ctx context.Context, userID uint, transactionID string) (*models.Transaction, error)
	List(ctx context.Context, filter repositories.TransactionFilter) ([]models.Transaction, int64, error)
	Cancel(ctx context.Context, userID uint, transactionID string) (*models.Transaction, error)
	Stats(ctx context.Context, userID uint) ([]repositories.StateBucket, error)
}

// CacheOperator is the slice of the cache service the payout flow needs.
type CacheOperator interface {
	CacheTransaction(ctx context.Context, tx *models.Transaction) error
	GetTransaction(ctx context.Context, transactionID string) (*models.Transaction, bool, error)
	InvalidateTransaction(ctx context.Context, transactionID string) error
}
