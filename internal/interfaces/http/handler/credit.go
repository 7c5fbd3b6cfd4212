package handler

import (
	"strconv"
	"time"

	creditapp "github.com/ficore/backend/internal/application/credit"
	"github.com/ficore/backend/internal/domain/shared"
	"github.com/ficore/backend/internal/interfaces/http/dto"
	"github.com/ficore/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// IdempotencyKeyHeader carries the client-chosen key for retry-safe writes
const IdempotencyKeyHeader = "Idempotency-Key"

// CreditHandler handles credit ledger HTTP requests
type CreditHandler struct {
	BaseHandler
	coordinator    *creditapp.Coordinator
	queries        *creditapp.QueryService
	idempotency    shared.IdempotencyStore
	idempotencyTTL time.Duration
}

// NewCreditHandler creates a new credit handler
func NewCreditHandler(
	coordinator *creditapp.Coordinator,
	queries *creditapp.QueryService,
	idempotency shared.IdempotencyStore,
	idempotencyTTL time.Duration,
) *CreditHandler {
	return &CreditHandler{
		coordinator:    coordinator,
		queries:        queries,
		idempotency:    idempotency,
		idempotencyTTL: idempotencyTTL,
	}
}

// RegisterRoutes registers credit routes on the given group
func (h *CreditHandler) RegisterRoutes(rg *gin.RouterGroup) {
	credits := rg.Group("/credits")
	{
		credits.GET("/balance", h.GetBalance)
		credits.GET("/balance/check", h.CheckBalance)
		credits.GET("/transactions", h.GetHistory)
		credits.POST("/refunds", h.Refund)
		credits.GET("/audit", h.GetAuditTrail)

		admin := credits.Group("", middleware.RequireAdmin())
		{
			admin.POST("/topups", h.TopUp)
			admin.GET("/audit/recent", h.ListRecentAudit)
			admin.GET("/reconciliation/:user_id", h.Reconcile)
		}
	}
}

// RefundCreditRequest asks to reverse a prior debit
type RefundCreditRequest struct {
	OriginalTransactionID string `json:"original_transaction_id" binding:"required,uuid"`
	Reason                string `json:"reason"`
	SessionID             string `json:"session_id"`
}

// TopUpCreditRequest grants credits to a user account
type TopUpCreditRequest struct {
	UserID      string `json:"user_id" binding:"required,uuid"`
	Amount      string `json:"amount" binding:"required"`
	Description string `json:"description"`
}

// BalanceResponse reports a user's current credit balance
type BalanceResponse struct {
	UserID  uuid.UUID       `json:"user_id"`
	Balance decimal.Decimal `json:"balance"`
}

// BalanceCheckResponse reports whether a balance covers an amount
type BalanceCheckResponse struct {
	UserID     uuid.UUID       `json:"user_id"`
	Amount     decimal.Decimal `json:"amount"`
	Sufficient bool            `json:"sufficient"`
}

// GetBalance returns the authenticated user's credit balance
func (h *CreditHandler) GetBalance(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	balance, err := h.queries.GetBalance(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, BalanceResponse{UserID: userID, Balance: balance})
}

// CheckBalance reports whether the user's balance covers the given amount
func (h *CreditHandler) CheckBalance(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	amount, err := decimal.NewFromString(c.Query("amount"))
	if err != nil {
		h.Error(c, 400, dto.ErrCodeInvalidAmount, "Invalid amount")
		return
	}

	sufficient, err := h.queries.HasSufficientBalance(c.Request.Context(), userID, amount)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, BalanceCheckResponse{UserID: userID, Amount: amount, Sufficient: sufficient})
}

// GetHistory returns the user's ledger records, newest first
func (h *CreditHandler) GetHistory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	limit := parseLimit(c, 0)
	history, err := h.queries.GetHistory(c.Request.Context(), userID, limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, history)
}

// Refund reverses a completed debit back to the user's balance
func (h *CreditHandler) Refund(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req RefundCreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	originalID, err := uuid.Parse(req.OriginalTransactionID)
	if err != nil {
		h.BadRequest(c, "Invalid original transaction ID")
		return
	}

	idemKey := h.idempotencyKey(c, "refund", userID)
	if h.rejectReplay(c, idemKey) {
		return
	}

	result, err := h.coordinator.Refund(c.Request.Context(), creditapp.RefundRequest{
		UserID:                userID,
		OriginalTransactionID: originalID,
		Reason:                req.Reason,
		SessionID:             req.SessionID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.recordIdempotencyKey(c, idemKey)
	h.Created(c, result)
}

// TopUp grants credits to a user account. Admin only.
func (h *CreditHandler) TopUp(c *gin.Context) {
	var req TopUpCreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	targetID, err := uuid.Parse(req.UserID)
	if err != nil {
		h.BadRequest(c, "Invalid user ID")
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		h.Error(c, 400, dto.ErrCodeInvalidAmount, "Invalid amount")
		return
	}

	actorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	idemKey := h.idempotencyKey(c, "topup", actorID)
	if h.rejectReplay(c, idemKey) {
		return
	}

	result, err := h.coordinator.TopUp(c.Request.Context(), creditapp.TopUpRequest{
		UserID:      targetID,
		Amount:      amount,
		Actor:       actorID.String(),
		Description: req.Description,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.recordIdempotencyKey(c, idemKey)
	h.Created(c, result)
}

// GetAuditTrail returns the user's own audit entries
func (h *CreditHandler) GetAuditTrail(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	entries, err := h.queries.GetAuditTrail(c.Request.Context(), userID, parseLimit(c, 0))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, entries)
}

// ListRecentAudit returns the most recent audit entries across all users. Admin only.
func (h *CreditHandler) ListRecentAudit(c *gin.Context) {
	entries, err := h.queries.ListRecentAudit(c.Request.Context(), parseLimit(c, 0))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, entries)
}

// Reconcile compares a user's stored balance with the ledger sum. Admin only.
func (h *CreditHandler) Reconcile(c *gin.Context) {
	targetID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		h.BadRequest(c, "Invalid user ID")
		return
	}

	report, err := h.queries.Reconcile(c.Request.Context(), targetID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, report)
}

// idempotencyKey builds the store key for the request, or "" when the client
// sent no Idempotency-Key header
func (h *CreditHandler) idempotencyKey(c *gin.Context, operation string, userID uuid.UUID) string {
	key := c.GetHeader(IdempotencyKeyHeader)
	if key == "" || h.idempotency == nil {
		return ""
	}
	return operation + ":" + userID.String() + ":" + key
}

// rejectReplay writes a 409 response and returns true when the key was
// already recorded. Keys are recorded only after the operation succeeds, so
// a failed attempt never burns the client's key.
func (h *CreditHandler) rejectReplay(c *gin.Context, key string) bool {
	if key == "" {
		return false
	}
	seen, err := h.idempotency.IsProcessed(c.Request.Context(), key)
	if err != nil {
		// Idempotency storage being down should not block the request
		return false
	}
	if seen {
		h.Conflict(c, dto.ErrCodeConflict, "Request with this idempotency key was already processed")
		return true
	}
	return false
}

// recordIdempotencyKey marks the key processed after a successful operation.
// Best effort; the ledger-level guards stop double application regardless.
func (h *CreditHandler) recordIdempotencyKey(c *gin.Context, key string) {
	if key == "" {
		return
	}
	_, _ = h.idempotency.MarkProcessed(c.Request.Context(), key, h.idempotencyTTL)
}

// parseLimit reads the limit query parameter, falling back to def
func parseLimit(c *gin.Context, def int) int {
	raw := c.Query("limit")
	if raw == "" {
		return def
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return def
	}
	return limit
}
