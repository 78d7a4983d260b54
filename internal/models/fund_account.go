package models

import "time"

// FundAccount is the local mirror of a processor-side payee account.
// Account CRUD lives elsewhere; payouts only need ownership and status.
type FundAccount struct {
	ID            uint      `gorm:"primarykey" json:"-"`
	FundAccountID string    `gorm:"uniqueIndex;not null" json:"fund_account_id"`
	UserID        uint      `gorm:"index;not null" json:"user_id"`
	AccountType   string    `json:"account_type"` // bank_account or vpa
	Active        bool      `gorm:"default:true" json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
