package webhook

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"paydesk/internal/processor"
)

// Payload is the processor's webhook envelope.
type Payload struct {
	AccountID string   `json:"account_id"`
	Event     string   `json:"event"`
	Contains  []string `json:"contains"`
	CreatedAt int64    `json:"created_at"`
	Payload   struct {
		Payout struct {
			Entity processor.PayoutEntity `json:"entity"`
		} `json:"payout"`
	} `json:"payload"`
}

// IsPayoutEvent reports whether the event concerns a payout lifecycle
// subject.
func (p *Payload) IsPayoutEvent() bool {
	return strings.HasPrefix(p.Event, "payout.")
}

// EventID derives the stable deduplication key. It hashes fixed fields
// rather than raw bytes so two deliveries of the same logical event hash
// identically even when JSON key order differs.
func (p *Payload) EventID() string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s|%d",
		p.AccountID, p.Event, p.Payload.Payout.Entity.ID, p.CreatedAt)))
	return hex.EncodeToString(sum[:])
}

// PayloadHash fingerprints the raw body for audit. A redelivery with a
// mutated payload but identical identity fields shows up as a duplicate
// with a different hash.
func PayloadHash(rawBody []byte) string {
	sum := sha256.Sum256(rawBody)
	return hex.EncodeToString(sum[:])
}

// Result is the outcome reported to the ingress handler. Once the
// signature check passes the handler always answers success-shaped, so
// internal failures are carried in Note rather than as errors.
type Result struct {
	Duplicate     bool   `json:"duplicate"`
	Applied       bool   `json:"applied"`
	TransactionID string `json:"transaction_id,omitempty"`
	Note          string `json:"note,omitempty"`
}
