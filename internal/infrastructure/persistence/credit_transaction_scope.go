package persistence

import (
	"context"

	appcredit "github.com/ficore/backend/internal/application/credit"
	"github.com/ficore/backend/internal/domain/budget"
	"github.com/ficore/backend/internal/domain/credit"
	"gorm.io/gorm"
)

// GormTransactionScope implements appcredit.TransactionScope using GORM
// transactions. Everything executed inside the scope shares one database
// transaction, so a budget mutation and its charge commit or roll back
// together.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appcredit.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormTransactionalRepositories{tx: tx}
		return fn(repos)
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// BalanceRepo returns the balance repository scoped to the current transaction.
func (r *gormTransactionalRepositories) BalanceRepo() credit.BalanceRepository {
	return NewGormBalanceRepository(r.tx)
}

// TransactionRepo returns the ledger transaction repository scoped to the current transaction.
func (r *gormTransactionalRepositories) TransactionRepo() credit.TransactionRepository {
	return NewGormCreditTransactionRepository(r.tx)
}

// AuditRepo returns the audit log repository scoped to the current transaction.
func (r *gormTransactionalRepositories) AuditRepo() credit.AuditLogRepository {
	return NewGormAuditLogRepository(r.tx)
}

// BudgetRepo returns the budget repository scoped to the current transaction.
func (r *gormTransactionalRepositories) BudgetRepo() budget.Repository {
	return NewGormBudgetRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appcredit.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appcredit.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
