package credit

import (
	"github.com/ficore/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ActorSystem is the actor recorded on entries the ledger writes on its own
// behalf, as opposed to an explicit administrator action.
const ActorSystem = "system"

// AuditEntry is a write-once trail record for a balance-affecting operation.
// Entries are emitted after the owning transaction commits and are never
// updated or deleted.
type AuditEntry struct {
	shared.BaseEntity
	UserID        uuid.UUID
	Actor         string
	Action        string
	TransactionID *uuid.UUID
	Detail        map[string]any
}

// NewAuditEntry creates an audit record for a committed operation
func NewAuditEntry(userID uuid.UUID, actor, action string, detail map[string]any) (*AuditEntry, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	if action == "" {
		return nil, shared.NewDomainError("INVALID_ACTION", "Audit action cannot be empty")
	}
	if actor == "" {
		actor = ActorSystem
	}
	if detail == nil {
		detail = map[string]any{}
	}
	return &AuditEntry{
		BaseEntity: shared.NewBaseEntity(),
		UserID:     userID,
		Actor:      actor,
		Action:     action,
		Detail:     detail,
	}, nil
}

// WithTransaction links the entry to the ledger record it describes
func (e *AuditEntry) WithTransaction(transactionID uuid.UUID) *AuditEntry {
	e.TransactionID = &transactionID
	return e
}
