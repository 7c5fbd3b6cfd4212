package credit

import (
	"context"

	"github.com/ficore/backend/internal/domain/credit"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const defaultHistoryLimit = 50

// QueryService serves read-only balance and ledger queries. It never mutates
// state; affordability answers are advisory and the debit itself re-checks
// atomically.
type QueryService struct {
	balanceRepo credit.BalanceRepository
	txnRepo     credit.TransactionRepository
	auditRepo   credit.AuditLogRepository
}

// NewQueryService creates a QueryService
func NewQueryService(
	balanceRepo credit.BalanceRepository,
	txnRepo credit.TransactionRepository,
	auditRepo credit.AuditLogRepository,
) *QueryService {
	return &QueryService{
		balanceRepo: balanceRepo,
		txnRepo:     txnRepo,
		auditRepo:   auditRepo,
	}
}

// GetBalance returns the user's current balance
func (s *QueryService) GetBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	balance, err := s.balanceRepo.Get(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return balance.Balance, nil
}

// HasSufficientBalance checks whether the user can afford the given amount.
// Callers use this for early feedback only; the authoritative check happens
// inside the charge.
func (s *QueryService) HasSufficientBalance(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (bool, error) {
	if !amount.IsPositive() {
		return false, credit.ErrInvalidAmount
	}
	balance, err := s.balanceRepo.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	return balance.CanAfford(amount), nil
}

// GetHistory returns the user's ledger records, newest first
func (s *QueryService) GetHistory(ctx context.Context, userID uuid.UUID, limit int) ([]TransactionResponse, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	transactions, err := s.txnRepo.FindByUserID(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	return ToTransactionResponses(transactions), nil
}

// GetAuditTrail returns the user's audit entries, newest first
func (s *QueryService) GetAuditTrail(ctx context.Context, userID uuid.UUID, limit int) ([]AuditEntryResponse, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	entries, err := s.auditRepo.ListByUserID(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	return ToAuditEntryResponses(entries), nil
}

// ListRecentAudit returns the newest audit entries across all users
func (s *QueryService) ListRecentAudit(ctx context.Context, limit int) ([]AuditEntryResponse, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	entries, err := s.auditRepo.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}
	return ToAuditEntryResponses(entries), nil
}

// Reconcile sums the user's applied ledger records and compares the result
// with the stored balance. A nonzero drift means the ledger and the balance
// store disagree and needs investigation.
func (s *QueryService) Reconcile(ctx context.Context, userID uuid.UUID) (*ReconciliationResponse, error) {
	balance, err := s.balanceRepo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	sum, err := s.txnRepo.SumCompletedByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	drift := balance.Balance.Sub(sum)
	return &ReconciliationResponse{
		UserID:        userID,
		StoredBalance: balance.Balance,
		LedgerSum:     sum,
		Drift:         drift,
		Balanced:      drift.IsZero(),
	}, nil
}
