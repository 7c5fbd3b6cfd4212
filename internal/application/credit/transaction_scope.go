package credit

import (
	"context"

	budgetdomain "github.com/ficore/backend/internal/domain/budget"
	"github.com/ficore/backend/internal/domain/credit"
)

// TransactionScope provides transactional access to the repositories that
// participate in a charge. When a function is executed within a transaction
// scope, all repository operations are part of the same database transaction
// and commit or roll back atomically. This is what lets a business mutation
// and its credit debit share one fate: neither can land without the other.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all repositories within a
// transaction. All repositories returned share the same underlying database
// transaction.
//
// BudgetRepo is included so paid budget actions can mutate the budget and
// charge the user's balance in the same scope.
type TransactionalRepositories interface {
	// BalanceRepo returns the balance repository scoped to the current transaction
	BalanceRepo() credit.BalanceRepository
	// TransactionRepo returns the ledger transaction repository scoped to the current transaction
	TransactionRepo() credit.TransactionRepository
	// AuditRepo returns the audit log repository scoped to the current transaction
	AuditRepo() credit.AuditLogRepository
	// BudgetRepo returns the budget repository scoped to the current transaction
	BudgetRepo() budgetdomain.Repository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. This is useful for testing or when transaction support is not
// required.
type NoOpTransactionScope struct {
	balanceRepo     credit.BalanceRepository
	transactionRepo credit.TransactionRepository
	auditRepo       credit.AuditLogRepository
	budgetRepo      budgetdomain.Repository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	balanceRepo credit.BalanceRepository,
	transactionRepo credit.TransactionRepository,
	auditRepo credit.AuditLogRepository,
	budgetRepo budgetdomain.Repository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		balanceRepo:     balanceRepo,
		transactionRepo: transactionRepo,
		auditRepo:       auditRepo,
		budgetRepo:      budgetRepo,
	}
}

// Execute runs the function without a real transaction (for testing/compatibility).
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// BalanceRepo returns the balance repository.
func (s *NoOpTransactionScope) BalanceRepo() credit.BalanceRepository {
	return s.balanceRepo
}

// TransactionRepo returns the ledger transaction repository.
func (s *NoOpTransactionScope) TransactionRepo() credit.TransactionRepository {
	return s.transactionRepo
}

// AuditRepo returns the audit log repository.
func (s *NoOpTransactionScope) AuditRepo() credit.AuditLogRepository {
	return s.auditRepo
}

// BudgetRepo returns the budget repository.
func (s *NoOpTransactionScope) BudgetRepo() budgetdomain.Repository {
	return s.budgetRepo
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
