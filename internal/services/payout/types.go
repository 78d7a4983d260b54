package payout

import (
	"time"

	"paydesk/internal/models"
)

// Config holds payout processing configuration. It is filled by the
// composition root; the service never reads the environment itself.
type Config struct {
	MaxRetries        int
	InitialRetryDelay time.Duration
	BackoffMultiplier float64
	MaxRetryDelay     time.Duration
	Currency          string
	ModeLimits        map[string]models.ModeLimits
}

// InitiateRequest is one payout submission from a caller.
type InitiateRequest struct {
	FundAccountID string                 `json:"fund_account_id"`
	Amount        int64                  `json:"amount"`
	Type          string                 `json:"type"`
	Mode          string                 `json:"mode"`
	Purpose       string                 `json:"purpose"`
	Narration     string                 `json:"narration,omitempty"`
	ClientNonce   string                 `json:"client_nonce,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}

// InitiateResult reports the outcome of a submission. A transient
// submission failure is not an error: the transaction is left retryable and
// the caller polls by transaction ID.
type InitiateResult struct {
	Success          bool   `json:"success"`
	TransactionID    string `json:"transaction_id"`
	ExternalPayoutID string `json:"external_payout_id,omitempty"`
	State            string `json:"state"`
	Error            string `json:"error,omitempty"`
}
