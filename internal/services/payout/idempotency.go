package payout

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// IdempotencyKey derives the submission reference passed to the processor.
// With a client nonce the key is deterministic, so a resubmitted identical
// call collapses onto the existing transaction. Without one, every call is
// a new logical request and gets a fresh key.
func IdempotencyKey(userID uint, clientNonce string) string {
	if clientNonce != "" {
		sum := sha256.Sum256([]byte(fmt.Sprintf("%d:%s", userID, clientNonce)))
		return "key_" + hex.EncodeToString(sum[:])[:40]
	}
	return fmt.Sprintf("key_%d_%d_%s", userID, time.Now().UnixNano(), uuid.NewString()[:8])
}

// NewTransactionID mints the caller-visible transaction identifier.
func NewTransactionID() string {
	return "txn_" + uuid.NewString()
}
