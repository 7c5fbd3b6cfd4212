package persistence

import (
	"context"
	"errors"

	"github.com/ficore/backend/internal/domain/credit"
	"github.com/ficore/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormBalanceRepository implements credit.BalanceRepository using GORM
type GormBalanceRepository struct {
	db *gorm.DB
}

// NewGormBalanceRepository creates a new GormBalanceRepository
func NewGormBalanceRepository(db *gorm.DB) *GormBalanceRepository {
	return &GormBalanceRepository{db: db}
}

// Get returns the user's balance, creating a zero balance row on first access
func (r *GormBalanceRepository) Get(ctx context.Context, userID uuid.UUID) (*credit.Balance, error) {
	var model models.CreditBalanceModel
	err := r.db.WithContext(ctx).First(&model, "user_id = ?", userID).Error
	if err == nil {
		return model.ToDomain(), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if err := r.ensureExists(ctx, userID); err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).First(&model, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// ApplyDelta atomically adjusts the balance by delta in a single conditional
// UPDATE and returns the new value. The WHERE clause guards the never-negative
// invariant at the database, so concurrent debits cannot overdraw no matter
// how they interleave.
func (r *GormBalanceRepository) ApplyDelta(ctx context.Context, userID uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	result := r.db.WithContext(ctx).
		Model(&models.CreditBalanceModel{}).
		Where("user_id = ? AND balance + ? >= 0", userID, delta).
		Update("balance", gorm.Expr("balance + ?", delta))
	if result.Error != nil {
		return decimal.Zero, result.Error
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&models.CreditBalanceModel{}).
			Where("user_id = ?", userID).
			Count(&count).Error; err != nil {
			return decimal.Zero, err
		}
		if count > 0 {
			return decimal.Zero, credit.ErrInsufficientFunds
		}
		if delta.IsNegative() {
			return decimal.Zero, credit.ErrAccountNotFound
		}
		// First credit for this user: create the zero row and retry once
		if err := r.ensureExists(ctx, userID); err != nil {
			return decimal.Zero, err
		}
		retry := r.db.WithContext(ctx).
			Model(&models.CreditBalanceModel{}).
			Where("user_id = ? AND balance + ? >= 0", userID, delta).
			Update("balance", gorm.Expr("balance + ?", delta))
		if retry.Error != nil {
			return decimal.Zero, retry.Error
		}
		if retry.RowsAffected == 0 {
			return decimal.Zero, credit.ErrAccountNotFound
		}
	}

	var model models.CreditBalanceModel
	if err := r.db.WithContext(ctx).First(&model, "user_id = ?", userID).Error; err != nil {
		return decimal.Zero, err
	}
	return model.Balance, nil
}

// ensureExists inserts the zero balance row for a user if missing. Safe under
// races through the unique index on user_id.
func (r *GormBalanceRepository) ensureExists(ctx context.Context, userID uuid.UUID) error {
	balance, err := credit.NewBalance(userID)
	if err != nil {
		return err
	}
	var model models.CreditBalanceModel
	model.FromDomain(balance)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(&model).Error
}

// Ensure GormBalanceRepository implements the interface
var _ credit.BalanceRepository = (*GormBalanceRepository)(nil)
