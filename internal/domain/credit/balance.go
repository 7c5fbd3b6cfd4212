package credit

import (
	"github.com/ficore/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Balance is the single source of truth for a user's prepaid credits.
// It is created implicitly on the first read or write for a user and is
// only ever mutated through relative deltas (see BalanceRepository.ApplyDelta),
// never through absolute overwrites.
type Balance struct {
	shared.BaseEntity
	UserID  uuid.UUID
	Balance decimal.Decimal
}

// NewBalance creates a zero balance for a user
func NewBalance(userID uuid.UUID) (*Balance, error) {
	return NewBalanceWithAmount(userID, decimal.Zero)
}

// NewBalanceWithAmount creates a balance with a provisioned starting amount
func NewBalanceWithAmount(userID uuid.UUID, amount decimal.Decimal) (*Balance, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	if amount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_BALANCE", "Balance cannot be negative")
	}
	return &Balance{
		BaseEntity: shared.NewBaseEntity(),
		UserID:     userID,
		Balance:    amount,
	}, nil
}

// CanAfford reports whether the balance covers the given amount
func (b *Balance) CanAfford(amount decimal.Decimal) bool {
	return b.Balance.GreaterThanOrEqual(amount)
}
