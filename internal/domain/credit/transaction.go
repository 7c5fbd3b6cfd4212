package credit

import (
	"github.com/ficore/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType classifies a ledger record
type TransactionType string

const (
	TransactionTypeDebit  TransactionType = "DEBIT"
	TransactionTypeRefund TransactionType = "REFUND"
	TransactionTypeTopUp  TransactionType = "TOPUP"
)

// TransactionStatus reflects the outcome of the attempted operation
type TransactionStatus string

const (
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// Transaction is an append-only ledger record. Records are never updated or
// deleted after creation; a refund is expressed as a new REFUND record that
// references the original.
type Transaction struct {
	shared.BaseEntity
	UserID                uuid.UUID
	Type                  TransactionType
	Status                TransactionStatus
	Amount                decimal.Decimal
	BalanceBefore         decimal.Decimal
	BalanceAfter          decimal.Decimal
	ActionTag             string
	Description           string
	RelatedEntityID       *uuid.UUID
	RelatedEntityType     string
	OriginalTransactionID *uuid.UUID
	SessionID             string
}

// NewDebitTransaction creates a completed debit record
func NewDebitTransaction(userID uuid.UUID, amount, balanceBefore, balanceAfter decimal.Decimal, actionTag string) (*Transaction, error) {
	if err := validateTransactionInput(userID, amount, actionTag); err != nil {
		return nil, err
	}
	return &Transaction{
		BaseEntity:    shared.NewBaseEntity(),
		UserID:        userID,
		Type:          TransactionTypeDebit,
		Status:        TransactionStatusCompleted,
		Amount:        amount,
		BalanceBefore: balanceBefore,
		BalanceAfter:  balanceAfter,
		ActionTag:     actionTag,
	}, nil
}

// NewFailedDebitTransaction records a debit attempt that was rejected. The
// balance is unchanged, so before and after carry the same value.
func NewFailedDebitTransaction(userID uuid.UUID, amount, balance decimal.Decimal, actionTag string) (*Transaction, error) {
	if err := validateTransactionInput(userID, amount, actionTag); err != nil {
		return nil, err
	}
	return &Transaction{
		BaseEntity:    shared.NewBaseEntity(),
		UserID:        userID,
		Type:          TransactionTypeDebit,
		Status:        TransactionStatusFailed,
		Amount:        amount,
		BalanceBefore: balance,
		BalanceAfter:  balance,
		ActionTag:     actionTag,
	}, nil
}

// NewRefundTransaction creates a compensating credit referencing the original debit
func NewRefundTransaction(userID uuid.UUID, amount, balanceBefore, balanceAfter decimal.Decimal, originalID uuid.UUID, actionTag string) (*Transaction, error) {
	if err := validateTransactionInput(userID, amount, actionTag); err != nil {
		return nil, err
	}
	if originalID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_REFERENCE", "Refund must reference the original transaction")
	}
	original := originalID
	return &Transaction{
		BaseEntity:            shared.NewBaseEntity(),
		UserID:                userID,
		Type:                  TransactionTypeRefund,
		Status:                TransactionStatusCompleted,
		Amount:                amount,
		BalanceBefore:         balanceBefore,
		BalanceAfter:          balanceAfter,
		ActionTag:             actionTag,
		OriginalTransactionID: &original,
	}, nil
}

// NewTopUpTransaction creates a credit grant record
func NewTopUpTransaction(userID uuid.UUID, amount, balanceBefore, balanceAfter decimal.Decimal, actionTag string) (*Transaction, error) {
	if err := validateTransactionInput(userID, amount, actionTag); err != nil {
		return nil, err
	}
	return &Transaction{
		BaseEntity:    shared.NewBaseEntity(),
		UserID:        userID,
		Type:          TransactionTypeTopUp,
		Status:        TransactionStatusCompleted,
		Amount:        amount,
		BalanceBefore: balanceBefore,
		BalanceAfter:  balanceAfter,
		ActionTag:     actionTag,
	}, nil
}

func validateTransactionInput(userID uuid.UUID, amount decimal.Decimal, actionTag string) error {
	if userID == uuid.Nil {
		return shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if actionTag == "" {
		return shared.NewDomainError("INVALID_ACTION", "Action tag cannot be empty")
	}
	return nil
}

// WithDescription sets a human-readable description
func (t *Transaction) WithDescription(description string) *Transaction {
	t.Description = description
	return t
}

// WithRelatedEntity links the record to the business entity that caused it
func (t *Transaction) WithRelatedEntity(entityType string, entityID uuid.UUID) *Transaction {
	t.RelatedEntityType = entityType
	t.RelatedEntityID = &entityID
	return t
}

// WithSessionID attaches the caller's correlation id
func (t *Transaction) WithSessionID(sessionID string) *Transaction {
	t.SessionID = sessionID
	return t
}

// GetSignedAmount returns the amount with the sign of its balance effect:
// negative for debits, positive for refunds and top-ups. Failed records
// contribute zero.
func (t *Transaction) GetSignedAmount() decimal.Decimal {
	if t.Status != TransactionStatusCompleted {
		return decimal.Zero
	}
	if t.Type == TransactionTypeDebit {
		return t.Amount.Neg()
	}
	return t.Amount
}

// IsCompleted reports whether the record represents an applied balance change
func (t *Transaction) IsCompleted() bool {
	return t.Status == TransactionStatusCompleted
}
