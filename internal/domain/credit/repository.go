package credit

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BalanceRepository is the single writer surface for user balances.
// Implementations must make ApplyDelta a single atomic conditional update so
// that the never-negative invariant holds under concurrent debits.
type BalanceRepository interface {
	// Get returns the user's balance, creating a zero balance on first access
	Get(ctx context.Context, userID uuid.UUID) (*Balance, error)
	// ApplyDelta atomically adjusts the balance by delta and returns the new
	// value. A negative delta that would take the balance below zero returns
	// ErrInsufficientFunds and leaves the balance untouched.
	ApplyDelta(ctx context.Context, userID uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error)
}

// TransactionRepository persists append-only ledger records
type TransactionRepository interface {
	Create(ctx context.Context, transaction *Transaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*Transaction, error)
	// FindRefundByOriginalID returns the refund referencing the given debit,
	// or shared.ErrNotFound when none exists
	FindRefundByOriginalID(ctx context.Context, originalID uuid.UUID) (*Transaction, error)
	// SumCompletedByUserID returns the signed sum of all applied records,
	// used to reconcile the ledger against the stored balance
	SumCompletedByUserID(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
}

// AuditLogRepository persists write-once audit entries
type AuditLogRepository interface {
	Create(ctx context.Context, entry *AuditEntry) error
	ListByUserID(ctx context.Context, userID uuid.UUID, limit int) ([]*AuditEntry, error)
	ListRecent(ctx context.Context, limit int) ([]*AuditEntry, error)
}
