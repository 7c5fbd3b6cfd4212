package budget

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists budgets
type Repository interface {
	Create(ctx context.Context, budget *Budget) error
	FindByID(ctx context.Context, id uuid.UUID) (*Budget, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]*Budget, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
