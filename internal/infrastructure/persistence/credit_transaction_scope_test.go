package persistence

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	appcredit "github.com/ficore/backend/internal/application/credit"
	budgetdomain "github.com/ficore/backend/internal/domain/budget"
	"github.com/ficore/backend/internal/domain/credit"
	"github.com/ficore/backend/internal/domain/shared"
	"github.com/ficore/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory database with the full schema,
// including the partial unique index that enforces exactly-once refunds.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.CreditBalanceModel{},
		&models.CreditTransactionModel{},
		&models.AuditLogModel{},
		&models.BudgetModel{},
	))
	require.NoError(t, db.Exec(
		`CREATE UNIQUE INDEX idx_credit_transactions_refund_original
		 ON credit_transactions (original_transaction_id) WHERE type = 'REFUND'`,
	).Error)

	return db
}

func newTestCoordinator(t *testing.T, db *gorm.DB) *appcredit.Coordinator {
	t.Helper()
	return appcredit.NewCoordinator(
		NewGormTransactionScope(db),
		NewGormBalanceRepository(db),
		NewGormCreditTransactionRepository(db),
		NewGormAuditLogRepository(db),
		zap.NewNop(),
	)
}

func seedBalance(t *testing.T, db *gorm.DB, userID uuid.UUID, amount int64) {
	t.Helper()
	_, err := NewGormBalanceRepository(db).ApplyDelta(context.Background(), userID, decimal.NewFromInt(amount))
	require.NoError(t, err)
}

func TestGormTransactionScope_RollsBackAllRepositories(t *testing.T) {
	db := newTestDB(t)
	scope := NewGormTransactionScope(db)
	userID := uuid.New()
	seedBalance(t, db, userID, 10)

	entity, err := budgetdomain.NewBudget(userID, "September", nil)
	require.NoError(t, err)

	execErr := scope.Execute(context.Background(), func(repos appcredit.TransactionalRepositories) error {
		if err := repos.BudgetRepo().Create(context.Background(), entity); err != nil {
			return err
		}
		if _, err := repos.BalanceRepo().ApplyDelta(context.Background(), userID, decimal.NewFromInt(-1)); err != nil {
			return err
		}
		return errors.New("forced failure after both writes")
	})
	require.Error(t, execErr)

	// Neither the budget nor the debit survived the rollback
	_, err = NewGormBudgetRepository(db).FindByID(context.Background(), entity.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)

	balance, err := NewGormBalanceRepository(db).Get(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, balance.Balance.Equal(decimal.NewFromInt(10)))
}

func TestCoordinator_ChargeWithMutation_InsufficientFundsRollsBackBudget(t *testing.T) {
	db := newTestDB(t)
	coordinator := newTestCoordinator(t, db)
	userID := uuid.New()
	seedBalance(t, db, userID, 2)

	entity, err := budgetdomain.NewBudget(userID, "September", nil)
	require.NoError(t, err)

	_, err = coordinator.ChargeWithMutation(context.Background(), appcredit.ChargeRequest{
		UserID:    userID,
		Amount:    decimal.NewFromInt(5),
		ActionTag: "create_budget",
	}, func(repos appcredit.TransactionalRepositories) error {
		return repos.BudgetRepo().Create(context.Background(), entity)
	})
	require.ErrorIs(t, err, credit.ErrInsufficientFunds)

	// The budget insert was rolled back with the aborted charge
	_, err = NewGormBudgetRepository(db).FindByID(context.Background(), entity.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)

	balance, err := NewGormBalanceRepository(db).Get(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, balance.Balance.Equal(decimal.NewFromInt(2)))

	// The declined attempt is still visible as a failed record
	history, err := NewGormCreditTransactionRepository(db).FindByUserID(context.Background(), userID, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, credit.TransactionStatusFailed, history[0].Status)
}

func TestCoordinator_ChargeForAction_ExactBalance(t *testing.T) {
	db := newTestDB(t)
	coordinator := newTestCoordinator(t, db)
	userID := uuid.New()
	seedBalance(t, db, userID, 3)

	result, err := coordinator.ChargeForAction(context.Background(), appcredit.ChargeRequest{
		UserID:    userID,
		Amount:    decimal.NewFromInt(3),
		ActionTag: "export_history_pdf",
	})
	require.NoError(t, err)
	assert.True(t, result.BalanceAfter.IsZero())

	// The next single-credit charge is declined
	_, err = coordinator.ChargeForAction(context.Background(), appcredit.ChargeRequest{
		UserID:    userID,
		Amount:    decimal.NewFromInt(1),
		ActionTag: "create_budget",
	})
	require.ErrorIs(t, err, credit.ErrInsufficientFunds)
}

func TestGormBalanceRepository_ConcurrentDebits(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormBalanceRepository(db)
	userID := uuid.New()
	seedBalance(t, db, userID, 40)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = repo.ApplyDelta(context.Background(), userID, decimal.NewFromInt(-30))
		}(i)
	}
	wg.Wait()

	var succeeded, declined int
	for _, err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, credit.ErrInsufficientFunds):
			declined++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, declined)

	balance, err := repo.Get(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, balance.Balance.Equal(decimal.NewFromInt(10)))
}

func TestGormCreditTransactionRepository_RefundUniqueIndex(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormCreditTransactionRepository(db)
	userID := uuid.New()

	debit, err := credit.NewDebitTransaction(userID, decimal.NewFromInt(2), decimal.NewFromInt(10), decimal.NewFromInt(8), "export_pdf")
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), debit))

	first, err := credit.NewRefundTransaction(userID, decimal.NewFromInt(2), decimal.NewFromInt(8), decimal.NewFromInt(10), debit.ID, "export_pdf")
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), first))

	second, err := credit.NewRefundTransaction(userID, decimal.NewFromInt(2), decimal.NewFromInt(10), decimal.NewFromInt(12), debit.ID, "export_pdf")
	require.NoError(t, err)
	err = repo.Create(context.Background(), second)
	require.ErrorIs(t, err, credit.ErrAlreadyRefunded)
}

func TestCoordinator_Refund_EndToEnd(t *testing.T) {
	db := newTestDB(t)
	coordinator := newTestCoordinator(t, db)
	txnRepo := NewGormCreditTransactionRepository(db)
	userID := uuid.New()
	seedBalance(t, db, userID, 10)

	charged, err := coordinator.ChargeForAction(context.Background(), appcredit.ChargeRequest{
		UserID:    userID,
		Amount:    decimal.NewFromInt(4),
		ActionTag: "create_budget",
	})
	require.NoError(t, err)

	refunded, err := coordinator.Refund(context.Background(), appcredit.RefundRequest{
		UserID:                userID,
		OriginalTransactionID: charged.TransactionID,
		Reason:                "downstream failure",
	})
	require.NoError(t, err)
	assert.True(t, refunded.BalanceAfter.Equal(decimal.NewFromInt(10)))

	// The original debit row is untouched; the refund is a separate record
	original, err := txnRepo.FindByID(context.Background(), charged.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, credit.TransactionStatusCompleted, original.Status)
	assert.True(t, original.Amount.Equal(decimal.NewFromInt(4)))
	assert.Nil(t, original.OriginalTransactionID)

	// A second refund is rejected
	_, err = coordinator.Refund(context.Background(), appcredit.RefundRequest{
		UserID:                userID,
		OriginalTransactionID: charged.TransactionID,
	})
	require.ErrorIs(t, err, credit.ErrAlreadyRefunded)
}

func TestLedger_ReconciliationRoundTrip(t *testing.T) {
	db := newTestDB(t)
	coordinator := newTestCoordinator(t, db)
	userID := uuid.New()

	_, err := coordinator.TopUp(context.Background(), appcredit.TopUpRequest{
		UserID: userID,
		Amount: decimal.NewFromInt(10),
		Actor:  "admin:ops",
	})
	require.NoError(t, err)

	charged, err := coordinator.ChargeForAction(context.Background(), appcredit.ChargeRequest{
		UserID:    userID,
		Amount:    decimal.NewFromInt(3),
		ActionTag: "create_budget",
	})
	require.NoError(t, err)

	_, err = coordinator.Refund(context.Background(), appcredit.RefundRequest{
		UserID:                userID,
		OriginalTransactionID: charged.TransactionID,
	})
	require.NoError(t, err)

	// Replaying the ledger reproduces the stored balance exactly
	sum, err := NewGormCreditTransactionRepository(db).SumCompletedByUserID(context.Background(), userID)
	require.NoError(t, err)

	balance, err := NewGormBalanceRepository(db).Get(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, sum.Equal(balance.Balance), "ledger sum %s != balance %s", sum, balance.Balance)
}
