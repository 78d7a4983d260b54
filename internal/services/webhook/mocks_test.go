package webhook

import (
	"context"
	"time"

	"paydesk/internal/models"
	"paydesk/internal/processor"
	"paydesk/internal/repositories"

	"github.com/stretchr/testify/mock"
)

type MockTransactionRepo struct {
	mock.Mock
}

func (m *MockTransactionRepo) Create(ctx context.Context, tx *models.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTransactionRepo) GetByTransactionID(ctx context.Context, id string) (*models.Transaction, error) {
	args := m.Called(ctx, id)
	if tx, ok := args.Get(0).(*models.Transaction); ok {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTransactionRepo) GetByExternalPayoutID(ctx context.Context, externalID string) (*models.Transaction, error) {
	args := m.Called(ctx, externalID)
	if tx, ok := args.Get(0).(*models.Transaction); ok {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTransactionRepo) GetByIdempotencyKey(ctx context.Context, key string) (*models.Transaction, error) {
	args := m.Called(ctx, key)
	if tx, ok := args.Get(0).(*models.Transaction); ok {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTransactionRepo) ApplyTransition(ctx context.Context, transactionID, expectedState, newState string, record models.TransitionRecord, updates map[string]interface{}) (*models.Transaction, error) {
	args := m.Called(ctx, transactionID, expectedState, newState, record, updates)
	if tx, ok := args.Get(0).(*models.Transaction); ok {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTransactionRepo) ScheduleRetry(ctx context.Context, transactionID, expectedState string, retryCount int, nextRetryAt *time.Time, externalPayoutID, failureDescription string) error {
	args := m.Called(ctx, transactionID, expectedState, retryCount, nextRetryAt, externalPayoutID, failureDescription)
	return args.Error(0)
}

func (m *MockTransactionRepo) FindDueForRetry(ctx context.Context, now time.Time, limit int) ([]models.Transaction, error) {
	args := m.Called(ctx, now, limit)
	if txs, ok := args.Get(0).([]models.Transaction); ok {
		return txs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTransactionRepo) FindNonTerminalWithExternalID(ctx context.Context, states []string, limit int) ([]models.Transaction, error) {
	args := m.Called(ctx, states, limit)
	if txs, ok := args.Get(0).([]models.Transaction); ok {
		return txs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTransactionRepo) List(ctx context.Context, filter repositories.TransactionFilter) ([]models.Transaction, int64, error) {
	args := m.Called(ctx, filter)
	if txs, ok := args.Get(0).([]models.Transaction); ok {
		return txs, args.Get(1).(int64), args.Error(2)
	}
	return nil, 0, args.Error(2)
}

func (m *MockTransactionRepo) Stats(ctx context.Context, userID uint) ([]repositories.StateBucket, error) {
	args := m.Called(ctx, userID)
	if buckets, ok := args.Get(0).([]repositories.StateBucket); ok {
		return buckets, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockWebhookEventRepo struct {
	mock.Mock
}

func (m *MockWebhookEventRepo) Create(ctx context.Context, event *models.WebhookEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockWebhookEventRepo) GetByEventID(ctx context.Context, eventID string) (*models.WebhookEvent, error) {
	args := m.Called(ctx, eventID)
	if event, ok := args.Get(0).(*models.WebhookEvent); ok {
		return event, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockWebhookEventRepo) MarkProcessed(ctx context.Context, eventID, transactionID, errText string) error {
	args := m.Called(ctx, eventID, transactionID, errText)
	return args.Error(0)
}

type MockProcessorClient struct {
	mock.Mock
}

func (m *MockProcessorClient) CreatePayout(ctx context.Context, req processor.CreatePayoutRequest) (*processor.PayoutEntity, error) {
	args := m.Called(ctx, req)
	if entity, ok := args.Get(0).(*processor.PayoutEntity); ok {
		return entity, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProcessorClient) GetPayout(ctx context.Context, externalID string) (*processor.PayoutEntity, error) {
	args := m.Called(ctx, externalID)
	if entity, ok := args.Get(0).(*processor.PayoutEntity); ok {
		return entity, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProcessorClient) CancelPayout(ctx context.Context, externalID string) (*processor.PayoutEntity, error) {
	args := m.Called(ctx, externalID)
	if entity, ok := args.Get(0).(*processor.PayoutEntity); ok {
		return entity, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProcessorClient) VerifySignature(rawBody []byte, signature string) bool {
	args := m.Called(rawBody, signature)
	return args.Bool(0)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) CacheTransaction(ctx context.Context, tx *models.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockCache) GetTransaction(ctx context.Context, transactionID string) (*models.Transaction, bool, error) {
	args := m.Called(ctx, transactionID)
	if tx, ok := args.Get(0).(*models.Transaction); ok {
		return tx, args.Bool(1), args.Error(2)
	}
	return nil, args.Bool(1), args.Error(2)
}

func (m *MockCache) InvalidateTransaction(ctx context.Context, transactionID string) error {
	args := m.Called(ctx, transactionID)
	return args.Error(0)
}
