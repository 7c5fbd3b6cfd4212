package credit

import "github.com/ficore/backend/internal/domain/shared"

// Ledger error taxonomy. Every coordinator outcome is one of these typed
// errors so callers can map each to its own user-facing message.
var (
	// ErrAccountNotFound signals that no credit account exists for the user
	ErrAccountNotFound = shared.NewDomainError("ACCOUNT_NOT_FOUND", "Credit account not found")
	// ErrInvalidAmount signals a zero or negative requested amount
	ErrInvalidAmount = shared.NewDomainError("INVALID_AMOUNT", "Amount must be positive")
	// ErrInsufficientFunds signals that a debit would overdraw the balance
	ErrInsufficientFunds = shared.NewDomainError("INSUFFICIENT_CREDITS", "Insufficient credits for this action")
	// ErrLedgerWriteFailed signals that the transaction record could not be written
	ErrLedgerWriteFailed = shared.NewDomainError("LEDGER_WRITE_FAILED", "Failed to record ledger transaction")
	// ErrTransactionAborted signals that the shared transactional scope was rolled back
	ErrTransactionAborted = shared.NewDomainError("TRANSACTION_ABORTED", "Credit transaction was aborted")
	// ErrRefundFailed signals that a compensating credit could not be applied
	ErrRefundFailed = shared.NewDomainError("REFUND_FAILED", "Failed to refund credits")
	// ErrAlreadyRefunded signals a repeated refund for the same original transaction
	ErrAlreadyRefunded = shared.NewDomainError("ALREADY_REFUNDED", "Transaction has already been refunded")
)
