// Package processor wraps the external payout processor's REST API behind a
// typed client. Transient failures (network, timeout, 5xx) and explicit
// rejections are distinguishable via sentinel errors so callers can decide
// between retry and terminal failure.
package processor

import (
	"context"
	"errors"
)

// Client errors
var (
	// ErrUnavailable covers network errors, timeouts and 5xx responses.
	// Callers treat all three the same: retryable, not a terminal signal.
	ErrUnavailable = errors.New("processor unavailable")
	// ErrRejected is a definitive 4xx rejection of the request.
	ErrRejected = errors.New("processor rejected request")
	ErrNotFound = errors.New("payout not found")
)

// PayoutEntity is the processor's representation of a payout.
type PayoutEntity struct {
	ID            string `json:"id"`
	Entity        string `json:"entity"`
	FundAccountID string `json:"fund_account_id"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	Fees          int64  `json:"fees"`
	Tax           int64  `json:"tax"`
	Status        string `json:"status"`
	UTR           string `json:"utr,omitempty"`
	Mode          string `json:"mode"`
	Purpose       string `json:"purpose"`
	ReferenceID   string `json:"reference_id"`
	Narration     string `json:"narration,omitempty"`
	FailureReason string `json:"failure_reason,omitempty"`
	CreatedAt     int64  `json:"created_at"`
}

// CreatePayoutRequest carries one payout submission. ReferenceID is the
// idempotency key: retries must reuse it so the processor never creates a
// duplicate payout.
type CreatePayoutRequest struct {
	AccountNumber string                 `json:"account_number"`
	FundAccountID string                 `json:"fund_account_id"`
	Amount        int64                  `json:"amount"`
	Currency      string                 `json:"currency"`
	Mode          string                 `json:"mode"`
	Purpose       string                 `json:"purpose"`
	ReferenceID   string                 `json:"reference_id"`
	Narration     string                 `json:"narration,omitempty"`
	Notes         map[string]interface{} `json:"notes,omitempty"`
}

// Client is the typed surface of the payout processor.
type Client interface {
	CreatePayout(ctx context.Context, req CreatePayoutRequest) (*PayoutEntity, error)
	GetPayout(ctx context.Context, externalID string) (*PayoutEntity, error)
	CancelPayout(ctx context.Context, externalID string) (*PayoutEntity, error)
	VerifySignature(rawBody []byte, signature string) bool
}
