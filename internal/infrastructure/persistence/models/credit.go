package models

import (
	"encoding/json"

	"github.com/ficore/backend/internal/domain/credit"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreditBalanceModel is the persistence model for the Balance domain entity.
type CreditBalanceModel struct {
	BaseModel
	UserID  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	Balance decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (CreditBalanceModel) TableName() string {
	return "credit_balances"
}

// ToDomain converts the persistence model to a domain Balance entity.
func (m *CreditBalanceModel) ToDomain() *credit.Balance {
	return &credit.Balance{
		BaseEntity: m.BaseModel.ToDomain(),
		UserID:     m.UserID,
		Balance:    m.Balance,
	}
}

// FromDomain populates the persistence model from a domain Balance entity.
func (m *CreditBalanceModel) FromDomain(b *credit.Balance) {
	m.FromDomainBaseEntity(b.BaseEntity)
	m.UserID = b.UserID
	m.Balance = b.Balance
}

// CreditTransactionModel is the persistence model for ledger Transaction
// records. Rows are append-only and never updated or deleted.
type CreditTransactionModel struct {
	BaseModel
	UserID                uuid.UUID                `gorm:"type:uuid;not null;index"`
	Type                  credit.TransactionType   `gorm:"type:varchar(20);not null"`
	Status                credit.TransactionStatus `gorm:"type:varchar(20);not null;default:'completed'"`
	Amount                decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	BalanceBefore         decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	BalanceAfter          decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	ActionTag             string                   `gorm:"type:varchar(100);not null;index"`
	Description           string                   `gorm:"type:text"`
	RelatedEntityID       *uuid.UUID               `gorm:"type:uuid;index"`
	RelatedEntityType     string                   `gorm:"type:varchar(50)"`
	OriginalTransactionID *uuid.UUID               `gorm:"type:uuid"`
	SessionID             string                   `gorm:"type:varchar(100);index"`
}

// TableName returns the table name for GORM
func (CreditTransactionModel) TableName() string {
	return "credit_transactions"
}

// ToDomain converts the persistence model to a domain Transaction entity.
func (m *CreditTransactionModel) ToDomain() *credit.Transaction {
	return &credit.Transaction{
		BaseEntity:            m.BaseModel.ToDomain(),
		UserID:                m.UserID,
		Type:                  m.Type,
		Status:                m.Status,
		Amount:                m.Amount,
		BalanceBefore:         m.BalanceBefore,
		BalanceAfter:          m.BalanceAfter,
		ActionTag:             m.ActionTag,
		Description:           m.Description,
		RelatedEntityID:       m.RelatedEntityID,
		RelatedEntityType:     m.RelatedEntityType,
		OriginalTransactionID: m.OriginalTransactionID,
		SessionID:             m.SessionID,
	}
}

// FromDomain populates the persistence model from a domain Transaction entity.
func (m *CreditTransactionModel) FromDomain(t *credit.Transaction) {
	m.FromDomainBaseEntity(t.BaseEntity)
	m.UserID = t.UserID
	m.Type = t.Type
	m.Status = t.Status
	m.Amount = t.Amount
	m.BalanceBefore = t.BalanceBefore
	m.BalanceAfter = t.BalanceAfter
	m.ActionTag = t.ActionTag
	m.Description = t.Description
	m.RelatedEntityID = t.RelatedEntityID
	m.RelatedEntityType = t.RelatedEntityType
	m.OriginalTransactionID = t.OriginalTransactionID
	m.SessionID = t.SessionID
}

// CreditTransactionModelFromDomain creates a new persistence model from a domain Transaction entity.
func CreditTransactionModelFromDomain(t *credit.Transaction) *CreditTransactionModel {
	m := &CreditTransactionModel{}
	m.FromDomain(t)
	return m
}

// AuditLogModel is the persistence model for AuditEntry records.
type AuditLogModel struct {
	BaseModel
	UserID        uuid.UUID  `gorm:"type:uuid;not null;index"`
	Actor         string     `gorm:"type:varchar(100);not null"`
	Action        string     `gorm:"type:varchar(100);not null;index"`
	TransactionID *uuid.UUID `gorm:"type:uuid;index"`
	Detail        string     `gorm:"type:jsonb"`
}

// TableName returns the table name for GORM
func (AuditLogModel) TableName() string {
	return "audit_logs"
}

// ToDomain converts the persistence model to a domain AuditEntry entity.
func (m *AuditLogModel) ToDomain() *credit.AuditEntry {
	detail := map[string]any{}
	if m.Detail != "" {
		// A malformed payload yields an empty detail map rather than an error
		_ = json.Unmarshal([]byte(m.Detail), &detail)
	}
	return &credit.AuditEntry{
		BaseEntity:    m.BaseModel.ToDomain(),
		UserID:        m.UserID,
		Actor:         m.Actor,
		Action:        m.Action,
		TransactionID: m.TransactionID,
		Detail:        detail,
	}
}

// FromDomain populates the persistence model from a domain AuditEntry entity.
func (m *AuditLogModel) FromDomain(e *credit.AuditEntry) error {
	detail, err := json.Marshal(e.Detail)
	if err != nil {
		return err
	}
	m.FromDomainBaseEntity(e.BaseEntity)
	m.UserID = e.UserID
	m.Actor = e.Actor
	m.Action = e.Action
	m.TransactionID = e.TransactionID
	m.Detail = string(detail)
	return nil
}
