package persistence

import (
	"context"
	"errors"

	"github.com/ficore/backend/internal/domain/budget"
	"github.com/ficore/backend/internal/domain/shared"
	"github.com/ficore/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormBudgetRepository implements budget.Repository using GORM
type GormBudgetRepository struct {
	db *gorm.DB
}

// NewGormBudgetRepository creates a new GormBudgetRepository
func NewGormBudgetRepository(db *gorm.DB) *GormBudgetRepository {
	return &GormBudgetRepository{db: db}
}

// Create stores a new budget
func (r *GormBudgetRepository) Create(ctx context.Context, b *budget.Budget) error {
	var model models.BudgetModel
	if err := model.FromDomain(b); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

// FindByID finds a budget by ID
func (r *GormBudgetRepository) FindByID(ctx context.Context, id uuid.UUID) (*budget.Budget, error) {
	var model models.BudgetModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByUserID returns all budgets owned by a user, newest first
func (r *GormBudgetRepository) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*budget.Budget, error) {
	var modelList []models.BudgetModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&modelList).Error; err != nil {
		return nil, err
	}

	budgets := make([]*budget.Budget, len(modelList))
	for i := range modelList {
		budgets[i] = modelList[i].ToDomain()
	}
	return budgets, nil
}

// Delete removes a budget row. Ledger records referencing it are kept.
func (r *GormBudgetRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.BudgetModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormBudgetRepository implements the interface
var _ budget.Repository = (*GormBudgetRepository)(nil)
