package repositories

import (
	"context"
	"errors"

	"paydesk/internal/models"

	"gorm.io/gorm"
)

// FundAccountRepository resolves payee fund accounts for ownership checks.
type FundAccountRepository interface {
	GetActiveForUser(ctx context.Context, userID uint, fundAccountID string) (*models.FundAccount, error)
}

type fundAccountRepository struct {
	db *gorm.DB
}

func NewFundAccountRepository(db *gorm.DB) FundAccountRepository {
	return &fundAccountRepository{db: db}
}

func (r *fundAccountRepository) GetActiveForUser(ctx context.Context, userID uint, fundAccountID string) (*models.FundAccount, error) {
	var account models.FundAccount
	err := r.db.WithContext(ctx).
		Where("fund_account_id = ? AND user_id = ? AND active = true", fundAccountID, userID).
		First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}
