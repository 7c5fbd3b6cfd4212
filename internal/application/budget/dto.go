package budget

import (
	"time"

	"github.com/ficore/backend/internal/domain/budget"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemInput is a budget line item in a create request
type ItemInput struct {
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// CreateBudgetRequest describes a new budget for a user
type CreateBudgetRequest struct {
	UserID    uuid.UUID
	Name      string
	Items     []ItemInput
	IsAdmin   bool
	Actor     string
	SessionID string
}

// BudgetActionRequest targets an existing budget
type BudgetActionRequest struct {
	UserID    uuid.UUID
	BudgetID  uuid.UUID
	IsAdmin   bool
	Actor     string
	SessionID string
}

// ExportRequest asks for a PDF export grant. A nil BudgetID exports the
// user's full budget history at the higher cost.
type ExportRequest struct {
	UserID    uuid.UUID
	BudgetID  *uuid.UUID
	IsAdmin   bool
	Actor     string
	SessionID string
}

// BudgetResponse is the read model for a budget
type BudgetResponse struct {
	ID             uuid.UUID       `json:"id"`
	UserID         uuid.UUID       `json:"user_id"`
	Name           string          `json:"name"`
	Items          []budget.Item   `json:"items"`
	TotalIncome    decimal.Decimal `json:"total_income"`
	TotalExpense   decimal.Decimal `json:"total_expense"`
	SurplusDeficit decimal.Decimal `json:"surplus_deficit"`
	CreatedAt      time.Time       `json:"created_at"`
}

// ExportGrantResponse confirms a paid export. PDF rendering happens in a
// separate service; the grant proves the charge was applied.
type ExportGrantResponse struct {
	Scope         string     `json:"scope"`
	BudgetID      *uuid.UUID `json:"budget_id,omitempty"`
	TransactionID *uuid.UUID `json:"transaction_id,omitempty"`
	ChargedAmount string     `json:"charged_amount"`
}

// ToBudgetResponse converts a budget to its read model
func ToBudgetResponse(b *budget.Budget) BudgetResponse {
	return BudgetResponse{
		ID:             b.ID,
		UserID:         b.UserID,
		Name:           b.Name,
		Items:          b.Items,
		TotalIncome:    b.TotalIncome,
		TotalExpense:   b.TotalExpense,
		SurplusDeficit: b.SurplusDeficit(),
		CreatedAt:      b.CreatedAt,
	}
}

// ToBudgetResponses converts a list of budgets
func ToBudgetResponses(budgets []*budget.Budget) []BudgetResponse {
	responses := make([]BudgetResponse, len(budgets))
	for i, b := range budgets {
		responses[i] = ToBudgetResponse(b)
	}
	return responses
}
