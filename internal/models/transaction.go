package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// Payout transaction states
const (
	StateInitiated       = "initiated"
	StateSubmitted       = "submitted"
	StateQueued          = "queued"
	StatePending         = "pending"
	StateProcessing      = "processing"
	StateCompleted       = "completed"
	StateFailed          = "failed"
	StateReversed        = "reversed"
	StateCancelled       = "cancelled"
	StateRefundPending   = "refund_pending"
	StateRefundCompleted = "refund_completed"
)

// Transaction types
const (
	TypeTransfer = "transfer"
	TypePayment  = "payment"
	TypeRefund   = "refund"
	TypeCashback = "cashback"
	TypeSalary   = "salary"
)

// Settlement rails
const (
	ModeUPI  = "UPI"
	ModeIMPS = "IMPS"
	ModeNEFT = "NEFT"
	ModeRTGS = "RTGS"
)

// Payout purposes mandated by regulation
const (
	PurposePayout      = "payout"
	PurposeRefund      = "refund"
	PurposeCashback    = "cashback"
	PurposeSalary      = "salary"
	PurposeUtilityBill = "utility_bill"
	PurposeVendorBill  = "vendor_bill"
)

// Transition sources
const (
	SourceAPI            = "api"
	SourceWebhook        = "webhook"
	SourceScheduler      = "scheduler"
	SourceReconciliation = "reconciliation"
)

// Failure reason codes
const (
	FailureReasonNetwork      = "network_error"
	FailureReasonRejected     = "processor_rejected"
	FailureReasonMaxRetries   = "max_retries_exhausted"
	FailureReasonBankReversal = "bank_reversal"
)

// TransitionRecord is one entry in a transaction's append-only state history.
type TransitionRecord struct {
	From        string    `json:"from"`
	To          string    `json:"to"`
	Source      string    `json:"source"`
	Description string    `json:"description,omitempty"`
	At          time.Time `json:"at"`
}

// TransitionList stores the ordered transition history as a jsonb column.
type TransitionList []TransitionRecord

// Value implements the driver.Valuer interface
func (l TransitionList) Value() (driver.Value, error) {
	if l == nil {
		l = TransitionList{}
	}
	return json.Marshal(l)
}

// Scan implements the sql.Scanner interface
func (l *TransitionList) Scan(value interface{}) error {
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, l)
}

// Transaction is the central payout record. State only ever changes through
// the repository's ApplyTransition so the history stays append-only.
type Transaction struct {
	ID               uint   `gorm:"primarykey" json:"-"`
	TransactionID    string `gorm:"uniqueIndex;not null" json:"transaction_id"`
	IdempotencyKey   string `gorm:"uniqueIndex;not null" json:"idempotency_key"`
	ExternalPayoutID string `gorm:"index" json:"external_payout_id,omitempty"`

	UserID        uint   `gorm:"index;not null" json:"user_id"`
	FundAccountID string `gorm:"not null" json:"fund_account_id"`

	Type    string `gorm:"not null" json:"type"`
	Mode    string `gorm:"not null" json:"mode"`
	Purpose string `gorm:"not null" json:"purpose"`

	Amount   int64  `gorm:"not null" json:"amount"` // smallest currency unit
	Currency string `gorm:"not null;default:'INR'" json:"currency"`
	Fees     int64  `gorm:"default:0" json:"fees"`
	Tax      int64  `gorm:"default:0" json:"tax"`

	State         string         `gorm:"index;not null;default:'initiated'" json:"state"`
	PreviousState string         `json:"previous_state,omitempty"`
	Transitions   TransitionList `gorm:"type:jsonb" json:"transitions"`

	RetryCount  int        `gorm:"default:0" json:"retry_count"`
	MaxRetries  int        `gorm:"default:3" json:"max_retries"`
	NextRetryAt *time.Time `gorm:"index" json:"next_retry_at,omitempty"`

	FailureReason      string `json:"failure_reason,omitempty"`
	FailureDescription string `json:"failure_description,omitempty"`

	UTR       string `json:"utr,omitempty"` // bank settlement reference
	Narration string `json:"narration,omitempty"`
	Metadata  JSON   `gorm:"type:jsonb" json:"metadata,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	FailedAt    *time.Time `json:"failed_at,omitempty"`
}

// ModeLimits defines the amount window for a settlement rail, in the
// smallest currency unit.
type ModeLimits struct {
	Min int64
	Max int64
}
