package credit

import (
	"time"

	"github.com/ficore/backend/internal/domain/credit"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ChargeRequest describes a debit against a user's credit balance
type ChargeRequest struct {
	UserID            uuid.UUID
	Amount            decimal.Decimal
	ActionTag         string
	Description       string
	RelatedEntityType string
	RelatedEntityID   *uuid.UUID
	SessionID         string
}

// RefundRequest describes a compensating credit for a prior debit
type RefundRequest struct {
	UserID                uuid.UUID
	OriginalTransactionID uuid.UUID
	Reason                string
	SessionID             string
}

// TopUpRequest describes an administrative credit grant. Payment collection
// happens upstream; the ledger only applies the credit.
type TopUpRequest struct {
	UserID      uuid.UUID
	Amount      decimal.Decimal
	Actor       string
	Description string
	SessionID   string
}

// ChargeResult reports the outcome of an applied balance change
type ChargeResult struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	UserID        uuid.UUID       `json:"user_id"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	ActionTag     string          `json:"action_tag"`
	CreatedAt     time.Time       `json:"created_at"`
}

// TransactionResponse is the read model for a ledger record
type TransactionResponse struct {
	ID                    uuid.UUID       `json:"id"`
	UserID                uuid.UUID       `json:"user_id"`
	Type                  string          `json:"type"`
	Status                string          `json:"status"`
	Amount                decimal.Decimal `json:"amount"`
	BalanceBefore         decimal.Decimal `json:"balance_before"`
	BalanceAfter          decimal.Decimal `json:"balance_after"`
	ActionTag             string          `json:"action_tag"`
	Description           string          `json:"description,omitempty"`
	RelatedEntityType     string          `json:"related_entity_type,omitempty"`
	RelatedEntityID       *uuid.UUID      `json:"related_entity_id,omitempty"`
	OriginalTransactionID *uuid.UUID      `json:"original_transaction_id,omitempty"`
	SessionID             string          `json:"session_id,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
}

// ReconciliationResponse compares the stored balance with the ledger sum
type ReconciliationResponse struct {
	UserID        uuid.UUID       `json:"user_id"`
	StoredBalance decimal.Decimal `json:"stored_balance"`
	LedgerSum     decimal.Decimal `json:"ledger_sum"`
	Drift         decimal.Decimal `json:"drift"`
	Balanced      bool            `json:"balanced"`
}

// AuditEntryResponse is the read model for an audit trail entry
type AuditEntryResponse struct {
	ID            uuid.UUID      `json:"id"`
	UserID        uuid.UUID      `json:"user_id"`
	Actor         string         `json:"actor"`
	Action        string         `json:"action"`
	TransactionID *uuid.UUID     `json:"transaction_id,omitempty"`
	Detail        map[string]any `json:"detail"`
	CreatedAt     time.Time      `json:"created_at"`
}

// ToChargeResult converts an applied ledger record to its result view
func ToChargeResult(t *credit.Transaction) *ChargeResult {
	return &ChargeResult{
		TransactionID: t.ID,
		UserID:        t.UserID,
		Type:          string(t.Type),
		Amount:        t.Amount,
		BalanceBefore: t.BalanceBefore,
		BalanceAfter:  t.BalanceAfter,
		ActionTag:     t.ActionTag,
		CreatedAt:     t.CreatedAt,
	}
}

// ToTransactionResponse converts a ledger record to its read model
func ToTransactionResponse(t *credit.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:                    t.ID,
		UserID:                t.UserID,
		Type:                  string(t.Type),
		Status:                string(t.Status),
		Amount:                t.Amount,
		BalanceBefore:         t.BalanceBefore,
		BalanceAfter:          t.BalanceAfter,
		ActionTag:             t.ActionTag,
		Description:           t.Description,
		RelatedEntityType:     t.RelatedEntityType,
		RelatedEntityID:       t.RelatedEntityID,
		OriginalTransactionID: t.OriginalTransactionID,
		SessionID:             t.SessionID,
		CreatedAt:             t.CreatedAt,
	}
}

// ToTransactionResponses converts a list of ledger records
func ToTransactionResponses(transactions []*credit.Transaction) []TransactionResponse {
	responses := make([]TransactionResponse, len(transactions))
	for i, t := range transactions {
		responses[i] = ToTransactionResponse(t)
	}
	return responses
}

// ToAuditEntryResponse converts an audit entry to its read model
func ToAuditEntryResponse(e *credit.AuditEntry) AuditEntryResponse {
	return AuditEntryResponse{
		ID:            e.ID,
		UserID:        e.UserID,
		Actor:         e.Actor,
		Action:        e.Action,
		TransactionID: e.TransactionID,
		Detail:        e.Detail,
		CreatedAt:     e.CreatedAt,
	}
}

// ToAuditEntryResponses converts a list of audit entries
func ToAuditEntryResponses(entries []*credit.AuditEntry) []AuditEntryResponse {
	responses := make([]AuditEntryResponse, len(entries))
	for i, e := range entries {
		responses[i] = ToAuditEntryResponse(e)
	}
	return responses
}
