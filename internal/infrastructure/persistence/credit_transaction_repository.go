package persistence

import (
	"context"
	"errors"

	"github.com/ficore/backend/internal/domain/credit"
	"github.com/ficore/backend/internal/domain/shared"
	"github.com/ficore/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormCreditTransactionRepository implements credit.TransactionRepository
// using GORM. The table is append-only; rows are never updated or deleted.
type GormCreditTransactionRepository struct {
	db *gorm.DB
}

// NewGormCreditTransactionRepository creates a new GormCreditTransactionRepository
func NewGormCreditTransactionRepository(db *gorm.DB) *GormCreditTransactionRepository {
	return &GormCreditTransactionRepository{db: db}
}

// Create appends a ledger record. A second refund for the same original
// transaction trips the partial unique index and returns ErrAlreadyRefunded.
func (r *GormCreditTransactionRepository) Create(ctx context.Context, transaction *credit.Transaction) error {
	model := models.CreditTransactionModelFromDomain(transaction)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if transaction.Type == credit.TransactionTypeRefund && errors.Is(err, gorm.ErrDuplicatedKey) {
			return credit.ErrAlreadyRefunded
		}
		return err
	}
	return nil
}

// FindByID finds a ledger record by ID
func (r *GormCreditTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*credit.Transaction, error) {
	var model models.CreditTransactionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByUserID returns the user's ledger records, newest first
func (r *GormCreditTransactionRepository) FindByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*credit.Transaction, error) {
	var modelList []models.CreditTransactionModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&modelList).Error; err != nil {
		return nil, err
	}

	transactions := make([]*credit.Transaction, len(modelList))
	for i := range modelList {
		transactions[i] = modelList[i].ToDomain()
	}
	return transactions, nil
}

// FindRefundByOriginalID returns the refund referencing the given debit
func (r *GormCreditTransactionRepository) FindRefundByOriginalID(ctx context.Context, originalID uuid.UUID) (*credit.Transaction, error) {
	var model models.CreditTransactionModel
	if err := r.db.WithContext(ctx).
		First(&model, "original_transaction_id = ? AND type = ?", originalID, credit.TransactionTypeRefund).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// SumCompletedByUserID returns the signed sum of all applied records for a
// user: debits count negative, refunds and top-ups positive, failed records
// not at all.
func (r *GormCreditTransactionRepository) SumCompletedByUserID(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := r.db.WithContext(ctx).
		Model(&models.CreditTransactionModel{}).
		Select("COALESCE(SUM(CASE WHEN type = ? THEN -amount ELSE amount END), 0)", credit.TransactionTypeDebit).
		Where("user_id = ? AND status = ?", userID, credit.TransactionStatusCompleted).
		Scan(&sum).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

// Ensure GormCreditTransactionRepository implements the interface
var _ credit.TransactionRepository = (*GormCreditTransactionRepository)(nil)
