package budget

import (
	"github.com/ficore/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemCategory groups budget line items
type ItemCategory string

const (
	ItemCategoryIncome     ItemCategory = "income"
	ItemCategoryExpense    ItemCategory = "expense"
	ItemCategoryInvestment ItemCategory = "investment"
	ItemCategorySaving     ItemCategory = "saving"
)

// Item is a single named line within a budget
type Item struct {
	Name     string          `json:"name"`
	Category ItemCategory    `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// Budget is a user's monthly plan of income and spending. Creating,
// deleting, duplicating and exporting a budget are paid actions that
// charge the user's credit balance in the same transaction as the
// budget mutation itself.
type Budget struct {
	shared.BaseEntity
	UserID       uuid.UUID
	Name         string
	Items        []Item
	TotalIncome  decimal.Decimal
	TotalExpense decimal.Decimal
}

// NewBudget creates a budget and derives its totals from the items
func NewBudget(userID uuid.UUID, name string, items []Item) (*Budget, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Budget name cannot be empty")
	}
	for _, item := range items {
		if item.Name == "" {
			return nil, shared.NewDomainError("INVALID_ITEM", "Budget item name cannot be empty")
		}
		if item.Amount.IsNegative() {
			return nil, shared.NewDomainError("INVALID_ITEM", "Budget item amount cannot be negative")
		}
	}
	b := &Budget{
		BaseEntity: shared.NewBaseEntity(),
		UserID:     userID,
		Name:       name,
		Items:      items,
	}
	b.recalculate()
	return b, nil
}

func (b *Budget) recalculate() {
	income := decimal.Zero
	expense := decimal.Zero
	for _, item := range b.Items {
		if item.Category == ItemCategoryIncome {
			income = income.Add(item.Amount)
		} else {
			expense = expense.Add(item.Amount)
		}
	}
	b.TotalIncome = income
	b.TotalExpense = expense
}

// SurplusDeficit is income minus everything allocated away from it
func (b *Budget) SurplusDeficit() decimal.Decimal {
	return b.TotalIncome.Sub(b.TotalExpense)
}

// Duplicate returns a copy under a new id with a derived name, owned by the
// same user
func (b *Budget) Duplicate() *Budget {
	items := make([]Item, len(b.Items))
	copy(items, b.Items)
	dup := &Budget{
		BaseEntity:   shared.NewBaseEntity(),
		UserID:       b.UserID,
		Name:         b.Name + " (copy)",
		Items:        items,
		TotalIncome:  b.TotalIncome,
		TotalExpense: b.TotalExpense,
	}
	return dup
}
