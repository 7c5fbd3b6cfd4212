package credit

import (
	"context"
	"testing"

	"github.com/ficore/backend/internal/domain/credit"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newQueryFixture() (*MockBalanceRepository, *MockTransactionRepository, *MockAuditLogRepository, *QueryService) {
	balanceRepo := new(MockBalanceRepository)
	txnRepo := new(MockTransactionRepository)
	auditRepo := new(MockAuditLogRepository)
	return balanceRepo, txnRepo, auditRepo, NewQueryService(balanceRepo, txnRepo, auditRepo)
}

func TestQueryService_GetBalance(t *testing.T) {
	balanceRepo, _, _, svc := newQueryFixture()
	userID := uuid.New()

	balance, err := credit.NewBalanceWithAmount(userID, decimal.NewFromInt(7))
	require.NoError(t, err)
	balanceRepo.On("Get", mock.Anything, userID).Return(balance, nil)

	got, err := svc.GetBalance(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.NewFromInt(7)))
}

func TestQueryService_HasSufficientBalance(t *testing.T) {
	balanceRepo, _, _, svc := newQueryFixture()
	userID := uuid.New()

	balance, err := credit.NewBalanceWithAmount(userID, decimal.NewFromInt(10))
	require.NoError(t, err)
	balanceRepo.On("Get", mock.Anything, userID).Return(balance, nil)

	tests := []struct {
		name     string
		amount   decimal.Decimal
		expected bool
	}{
		{"exact balance", decimal.NewFromInt(10), true},
		{"below balance", decimal.NewFromInt(1), true},
		{"one above balance", decimal.NewFromInt(11), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := svc.HasSufficientBalance(context.Background(), userID, tt.amount)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ok)
		})
	}

	t.Run("non-positive amount", func(t *testing.T) {
		_, err := svc.HasSufficientBalance(context.Background(), userID, decimal.Zero)
		require.ErrorIs(t, err, credit.ErrInvalidAmount)
	})
}

func TestQueryService_GetHistory(t *testing.T) {
	_, txnRepo, _, svc := newQueryFixture()
	userID := uuid.New()

	debit, err := credit.NewDebitTransaction(userID, decimal.NewFromInt(1), decimal.NewFromInt(5), decimal.NewFromInt(4), "create_budget")
	require.NoError(t, err)
	txnRepo.On("FindByUserID", mock.Anything, userID, defaultHistoryLimit).
		Return([]*credit.Transaction{debit}, nil)

	history, err := svc.GetHistory(context.Background(), userID, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, debit.ID, history[0].ID)
	assert.Equal(t, "DEBIT", history[0].Type)
}

func TestQueryService_Reconcile(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name      string
		stored    decimal.Decimal
		ledgerSum decimal.Decimal
		balanced  bool
	}{
		{"ledger matches balance", decimal.NewFromInt(8), decimal.NewFromInt(8), true},
		{"ledger drifted", decimal.NewFromInt(8), decimal.NewFromInt(6), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			balanceRepo, txnRepo, _, svc := newQueryFixture()

			balance, err := credit.NewBalanceWithAmount(userID, tt.stored)
			require.NoError(t, err)
			balanceRepo.On("Get", mock.Anything, userID).Return(balance, nil)
			txnRepo.On("SumCompletedByUserID", mock.Anything, userID).Return(tt.ledgerSum, nil)

			report, err := svc.Reconcile(context.Background(), userID)
			require.NoError(t, err)
			assert.Equal(t, tt.balanced, report.Balanced)
			assert.True(t, report.Drift.Equal(tt.stored.Sub(tt.ledgerSum)))
		})
	}
}
