package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"paydesk/internal/models"

	"github.com/redis/go-redis/v9"
)

type CacheService struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCacheService(client *redis.Client, defaultTTL time.Duration) *CacheService {
	return &CacheService{
		client: client,
		ttl:    defaultTTL,
	}
}

// Base operations
func (s *CacheService) Set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	return s.client.Set(ctx, key, data, s.ttl).Err()
}

func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("failed to get cache value: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return true, nil
}

func (s *CacheService) Delete(ctx context.Context, keys ...string) error {
	return s.client.Del(ctx, keys...).Err()
}

func (s *CacheService) Close() error {
	return s.client.Close()
}

func transactionKey(transactionID string) string {
	return "transaction:id:" + transactionID
}

// CacheTransaction stores a payout record for read-through lookups.
func (s *CacheService) CacheTransaction(ctx context.Context, tx *models.Transaction) error {
	if tx == nil {
		return fmt.Errorf("cannot cache nil transaction")
	}
	return s.Set(ctx, transactionKey(tx.TransactionID), tx)
}

// GetTransaction returns a cached payout record, or found=false on a miss.
func (s *CacheService) GetTransaction(ctx context.Context, transactionID string) (*models.Transaction, bool, error) {
	var tx models.Transaction
	found, err := s.Get(ctx, transactionKey(transactionID), &tx)
	if err != nil || !found {
		return nil, false, err
	}
	return &tx, true, nil
}

// InvalidateTransaction drops a payout record after a state change so the
// next read goes to the database.
func (s *CacheService) InvalidateTransaction(ctx context.Context, transactionID string) error {
	return s.Delete(ctx, transactionKey(transactionID))
}
