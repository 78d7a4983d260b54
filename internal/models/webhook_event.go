package models

import "time"

// WebhookEvent stores one externally delivered processor event with
// deduplication metadata for idempotent processing. The record is created
// before any business mutation so a racing duplicate delivery fails its
// insert and exits as a no-op.
type WebhookEvent struct {
	ID            uint       `gorm:"primarykey" json:"-"`
	EventID       string     `gorm:"uniqueIndex;not null" json:"event_id"`
	EventType     string     `gorm:"index;not null" json:"event_type"`
	PayloadHash   string     `gorm:"not null" json:"payload_hash"`
	Processed     bool       `gorm:"index;default:false" json:"processed"`
	TransactionID string     `gorm:"index" json:"transaction_id,omitempty"`
	Error         string     `json:"error,omitempty"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
