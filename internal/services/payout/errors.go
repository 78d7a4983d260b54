package payout

import "errors"

// Service errors
var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrFundAccountNotFound = errors.New("fund account not found or inactive")
	ErrInvalidAmount       = errors.New("invalid amount for settlement mode")
	ErrInvalidMode         = errors.New("invalid settlement mode")
	ErrInvalidType         = errors.New("invalid transaction type")
	ErrInvalidPurpose      = errors.New("invalid payout purpose")
	ErrNotCancellable      = errors.New("payout can only be cancelled while queued")
	ErrNotOwned            = errors.New("transaction does not belong to caller")
)
