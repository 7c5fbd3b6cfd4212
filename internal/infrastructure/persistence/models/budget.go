package models

import (
	"encoding/json"

	"github.com/ficore/backend/internal/domain/budget"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BudgetModel is the persistence model for the Budget domain entity.
type BudgetModel struct {
	BaseModel
	UserID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name         string          `gorm:"type:varchar(200);not null"`
	Items        string          `gorm:"type:jsonb"`
	TotalIncome  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalExpense decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (BudgetModel) TableName() string {
	return "budgets"
}

// ToDomain converts the persistence model to a domain Budget entity.
func (m *BudgetModel) ToDomain() *budget.Budget {
	var items []budget.Item
	if m.Items != "" {
		_ = json.Unmarshal([]byte(m.Items), &items)
	}
	return &budget.Budget{
		BaseEntity:   m.BaseModel.ToDomain(),
		UserID:       m.UserID,
		Name:         m.Name,
		Items:        items,
		TotalIncome:  m.TotalIncome,
		TotalExpense: m.TotalExpense,
	}
}

// FromDomain populates the persistence model from a domain Budget entity.
func (m *BudgetModel) FromDomain(b *budget.Budget) error {
	items, err := json.Marshal(b.Items)
	if err != nil {
		return err
	}
	m.FromDomainBaseEntity(b.BaseEntity)
	m.UserID = b.UserID
	m.Name = b.Name
	m.Items = string(items)
	m.TotalIncome = b.TotalIncome
	m.TotalExpense = b.TotalExpense
	return nil
}
