package credit

import (
	"context"
	"errors"

	"github.com/ficore/backend/internal/domain/credit"
	"github.com/ficore/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Audit action labels
const (
	auditActionCharge = "credits_deducted"
	auditActionRefund = "credits_refunded"
	auditActionTopUp  = "credits_granted"
	auditActionBypass = "credits_bypassed"
)

// Coordinator runs the check-balance, debit, record protocol for paid
// actions. Every balance change goes through a TransactionScope so the debit,
// the ledger record, and the caller's own mutation commit or roll back as one.
//
// Audit entries are written after the scope commits, best effort: a committed
// charge whose audit write fails is logged and kept, never rolled back.
type Coordinator struct {
	scope       TransactionScope
	balanceRepo credit.BalanceRepository
	txnRepo     credit.TransactionRepository
	auditRepo   credit.AuditLogRepository
	logger      *zap.Logger
}

// NewCoordinator creates a Coordinator. The repositories given here are
// unscoped and used only outside transactions (failed-attempt records and
// post-commit audit writes).
func NewCoordinator(
	scope TransactionScope,
	balanceRepo credit.BalanceRepository,
	txnRepo credit.TransactionRepository,
	auditRepo credit.AuditLogRepository,
	logger *zap.Logger,
) *Coordinator {
	return &Coordinator{
		scope:       scope,
		balanceRepo: balanceRepo,
		txnRepo:     txnRepo,
		auditRepo:   auditRepo,
		logger:      logger,
	}
}

// ChargeForAction debits the user's balance for a paid action and records the
// ledger transaction atomically.
func (c *Coordinator) ChargeForAction(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	return c.ChargeWithMutation(ctx, req, nil)
}

// ChargeWithMutation runs the caller's business mutation and the charge in a
// single transaction scope. If the mutation fails, nothing is charged; if the
// charge fails, the mutation is rolled back. A nil mutate charges alone.
func (c *Coordinator) ChargeWithMutation(
	ctx context.Context,
	req ChargeRequest,
	mutate func(repos TransactionalRepositories) error,
) (*ChargeResult, error) {
	if !req.Amount.IsPositive() {
		return nil, credit.ErrInvalidAmount
	}

	var record *credit.Transaction
	err := c.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if mutate != nil {
			if err := mutate(repos); err != nil {
				return err
			}
		}

		rec, err := c.chargeInScope(ctx, repos, req)
		if err != nil {
			return err
		}
		record = rec
		return nil
	})
	if err != nil {
		if errors.Is(err, credit.ErrInsufficientFunds) {
			c.recordDeclinedCharge(ctx, req)
		}
		return nil, c.normalizeScopeError(err, "charge",
			zap.String("user_id", req.UserID.String()),
			zap.String("action", req.ActionTag))
	}

	c.emitAudit(ctx, record, credit.ActorSystem, auditActionCharge)
	return ToChargeResult(record), nil
}

// chargeInScope applies the debit and appends the ledger record inside the
// caller's transaction.
func (c *Coordinator) chargeInScope(ctx context.Context, repos TransactionalRepositories, req ChargeRequest) (*credit.Transaction, error) {
	newBalance, err := repos.BalanceRepo().ApplyDelta(ctx, req.UserID, req.Amount.Neg())
	if err != nil {
		return nil, err
	}
	balanceBefore := newBalance.Add(req.Amount)

	record, err := credit.NewDebitTransaction(req.UserID, req.Amount, balanceBefore, newBalance, req.ActionTag)
	if err != nil {
		return nil, err
	}
	if req.Description != "" {
		record.WithDescription(req.Description)
	}
	if req.RelatedEntityID != nil {
		record.WithRelatedEntity(req.RelatedEntityType, *req.RelatedEntityID)
	}
	if req.SessionID != "" {
		record.WithSessionID(req.SessionID)
	}

	if err := repos.TransactionRepo().Create(ctx, record); err != nil {
		c.logger.Error("failed to append ledger record",
			zap.String("user_id", req.UserID.String()),
			zap.String("action", req.ActionTag),
			zap.Error(err))
		return nil, credit.ErrLedgerWriteFailed
	}
	return record, nil
}

// Refund applies a compensating credit for a prior completed debit. The
// refund is a new REFUND record referencing the original; the original record
// is never touched. A repeat refund for the same debit returns
// ErrAlreadyRefunded, enforced by the pre-check here and by the partial
// unique index on refund records.
func (c *Coordinator) Refund(ctx context.Context, req RefundRequest) (*ChargeResult, error) {
	var record *credit.Transaction
	err := c.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		original, err := repos.TransactionRepo().FindByID(ctx, req.OriginalTransactionID)
		if err != nil {
			return err
		}
		if original.UserID != req.UserID {
			return shared.ErrNotFound
		}
		if original.Type != credit.TransactionTypeDebit || !original.IsCompleted() {
			return credit.ErrRefundFailed
		}
		if _, err := repos.TransactionRepo().FindRefundByOriginalID(ctx, original.ID); err == nil {
			return credit.ErrAlreadyRefunded
		} else if !errors.Is(err, shared.ErrNotFound) {
			return err
		}

		newBalance, err := repos.BalanceRepo().ApplyDelta(ctx, req.UserID, original.Amount)
		if err != nil {
			return err
		}
		balanceBefore := newBalance.Sub(original.Amount)

		refund, err := credit.NewRefundTransaction(req.UserID, original.Amount, balanceBefore, newBalance, original.ID, original.ActionTag)
		if err != nil {
			return err
		}
		if req.Reason != "" {
			refund.WithDescription(req.Reason)
		}
		if req.SessionID != "" {
			refund.WithSessionID(req.SessionID)
		}

		if err := repos.TransactionRepo().Create(ctx, refund); err != nil {
			if errors.Is(err, credit.ErrAlreadyRefunded) {
				return credit.ErrAlreadyRefunded
			}
			c.logger.Error("failed to append refund record",
				zap.String("original_transaction_id", original.ID.String()),
				zap.Error(err))
			return credit.ErrLedgerWriteFailed
		}
		record = refund
		return nil
	})
	if err != nil {
		return nil, c.normalizeScopeError(err, "refund",
			zap.String("user_id", req.UserID.String()),
			zap.String("original_transaction_id", req.OriginalTransactionID.String()))
	}

	c.emitAudit(ctx, record, credit.ActorSystem, auditActionRefund)
	return ToChargeResult(record), nil
}

// TopUp applies an administrative credit grant. Payment collection is assumed
// to have happened upstream.
func (c *Coordinator) TopUp(ctx context.Context, req TopUpRequest) (*ChargeResult, error) {
	if !req.Amount.IsPositive() {
		return nil, credit.ErrInvalidAmount
	}
	actor := req.Actor
	if actor == "" {
		actor = credit.ActorSystem
	}

	var record *credit.Transaction
	err := c.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		newBalance, err := repos.BalanceRepo().ApplyDelta(ctx, req.UserID, req.Amount)
		if err != nil {
			return err
		}
		balanceBefore := newBalance.Sub(req.Amount)

		topUp, err := credit.NewTopUpTransaction(req.UserID, req.Amount, balanceBefore, newBalance, "admin_top_up")
		if err != nil {
			return err
		}
		if req.Description != "" {
			topUp.WithDescription(req.Description)
		}
		if req.SessionID != "" {
			topUp.WithSessionID(req.SessionID)
		}

		if err := repos.TransactionRepo().Create(ctx, topUp); err != nil {
			c.logger.Error("failed to append top-up record",
				zap.String("user_id", req.UserID.String()),
				zap.Error(err))
			return credit.ErrLedgerWriteFailed
		}
		record = topUp
		return nil
	})
	if err != nil {
		return nil, c.normalizeScopeError(err, "top_up",
			zap.String("user_id", req.UserID.String()))
	}

	c.emitAudit(ctx, record, actor, auditActionTopUp)
	return ToChargeResult(record), nil
}

// RecordAdminBypass writes a zero-amount audit entry for a privileged action
// that skipped the charge, so bypassed actions stay traceable. Best effort.
func (c *Coordinator) RecordAdminBypass(ctx context.Context, userID uuid.UUID, actor, actionTag string) {
	entry, err := credit.NewAuditEntry(userID, actor, auditActionBypass, map[string]any{
		"action_tag": actionTag,
		"amount":     "0",
		"bypass":     true,
	})
	if err != nil {
		c.logger.Warn("failed to build bypass audit entry", zap.Error(err))
		return
	}
	if err := c.auditRepo.Create(ctx, entry); err != nil {
		c.logger.Warn("failed to write bypass audit entry",
			zap.String("user_id", userID.String()),
			zap.Error(err))
	}
}

// recordDeclinedCharge appends a failed ledger record for an insufficient
// balance attempt. It runs outside the aborted scope and is best effort.
func (c *Coordinator) recordDeclinedCharge(ctx context.Context, req ChargeRequest) {
	balance, err := c.balanceRepo.Get(ctx, req.UserID)
	if err != nil {
		c.logger.Warn("failed to load balance for declined charge record", zap.Error(err))
		return
	}
	record, err := credit.NewFailedDebitTransaction(req.UserID, req.Amount, balance.Balance, req.ActionTag)
	if err != nil {
		c.logger.Warn("failed to build declined charge record", zap.Error(err))
		return
	}
	if req.SessionID != "" {
		record.WithSessionID(req.SessionID)
	}
	if err := c.txnRepo.Create(ctx, record); err != nil {
		c.logger.Warn("failed to record declined charge",
			zap.String("user_id", req.UserID.String()),
			zap.String("action", req.ActionTag),
			zap.Error(err))
	}
}

// emitAudit writes the post-commit audit entry. Failures are logged, never
// propagated: the committed balance change stands regardless.
func (c *Coordinator) emitAudit(ctx context.Context, record *credit.Transaction, actor, action string) {
	entry, err := credit.NewAuditEntry(record.UserID, actor, action, map[string]any{
		"action_tag":       record.ActionTag,
		"amount":           record.Amount.String(),
		"previous_balance": record.BalanceBefore.String(),
		"new_balance":      record.BalanceAfter.String(),
	})
	if err != nil {
		c.logger.Warn("failed to build audit entry", zap.Error(err))
		return
	}
	entry.WithTransaction(record.ID)
	if err := c.auditRepo.Create(ctx, entry); err != nil {
		c.logger.Warn("failed to write audit entry",
			zap.String("transaction_id", record.ID.String()),
			zap.Error(err))
	}
}

// normalizeScopeError passes domain errors through unchanged and collapses
// infrastructure failures (connection loss, commit failure) into
// ErrTransactionAborted.
func (c *Coordinator) normalizeScopeError(err error, operation string, fields ...zap.Field) error {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	c.logger.Error("transaction scope aborted",
		append(fields, zap.String("operation", operation), zap.Error(err))...)
	return credit.ErrTransactionAborted
}
