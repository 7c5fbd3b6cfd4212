package handler

import (
	budgetapp "github.com/ficore/backend/internal/application/budget"
	"github.com/ficore/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BudgetHandler handles budget HTTP requests
type BudgetHandler struct {
	BaseHandler
	service *budgetapp.Service
}

// NewBudgetHandler creates a new budget handler
func NewBudgetHandler(service *budgetapp.Service) *BudgetHandler {
	return &BudgetHandler{service: service}
}

// RegisterRoutes registers budget routes on the given group
func (h *BudgetHandler) RegisterRoutes(rg *gin.RouterGroup) {
	budgets := rg.Group("/budgets")
	{
		budgets.POST("", h.Create)
		budgets.GET("", h.List)
		budgets.GET("/:id", h.Get)
		budgets.DELETE("/:id", h.Delete)
		budgets.POST("/:id/duplicate", h.Duplicate)
		budgets.POST("/exports", h.Export)
	}
}

// BudgetItemRequest is a budget line item in a create request
type BudgetItemRequest struct {
	Name     string `json:"name" binding:"required"`
	Category string `json:"category" binding:"required,oneof=income expense investment saving"`
	Amount   string `json:"amount" binding:"required"`
}

// CreateBudgetRequest describes a new budget
type CreateBudgetRequest struct {
	Name      string              `json:"name" binding:"required"`
	Items     []BudgetItemRequest `json:"items"`
	SessionID string              `json:"session_id"`
}

// ExportBudgetRequest asks for a PDF export grant. Omitting budget_id
// requests a full-history export at the higher cost.
type ExportBudgetRequest struct {
	BudgetID  *string `json:"budget_id" binding:"omitempty,uuid"`
	SessionID string  `json:"session_id"`
}

// Create creates a budget, charging the action cost
func (h *BudgetHandler) Create(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req CreateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	items := make([]budgetapp.ItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		amount, err := decimal.NewFromString(item.Amount)
		if err != nil {
			h.BadRequest(c, "Invalid amount for item "+item.Name)
			return
		}
		items = append(items, budgetapp.ItemInput{
			Name:     item.Name,
			Category: item.Category,
			Amount:   amount,
		})
	}

	result, err := h.service.Create(c.Request.Context(), budgetapp.CreateBudgetRequest{
		UserID:    userID,
		Name:      req.Name,
		Items:     items,
		IsAdmin:   middleware.IsAdminRequest(c),
		Actor:     userID.String(),
		SessionID: req.SessionID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// List returns the user's budgets
func (h *BudgetHandler) List(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	budgets, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, budgets)
}

// Get returns a single budget owned by the user
func (h *BudgetHandler) Get(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	budgetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid budget ID")
		return
	}

	result, err := h.service.Get(c.Request.Context(), userID, budgetID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Delete deletes a budget, charging the action cost
func (h *BudgetHandler) Delete(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	budgetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid budget ID")
		return
	}

	if err := h.service.Delete(c.Request.Context(), budgetapp.BudgetActionRequest{
		UserID:   userID,
		BudgetID: budgetID,
		IsAdmin:  middleware.IsAdminRequest(c),
		Actor:    userID.String(),
	}); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Duplicate copies a budget, charging the action cost
func (h *BudgetHandler) Duplicate(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	budgetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid budget ID")
		return
	}

	result, err := h.service.Duplicate(c.Request.Context(), budgetapp.BudgetActionRequest{
		UserID:   userID,
		BudgetID: budgetID,
		IsAdmin:  middleware.IsAdminRequest(c),
		Actor:    userID.String(),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// Export grants a PDF export after charging the export cost
func (h *BudgetHandler) Export(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req ExportBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	var budgetID *uuid.UUID
	if req.BudgetID != nil {
		parsed, err := uuid.Parse(*req.BudgetID)
		if err != nil {
			h.BadRequest(c, "Invalid budget ID")
			return
		}
		budgetID = &parsed
	}

	result, err := h.service.ExportPDF(c.Request.Context(), budgetapp.ExportRequest{
		UserID:    userID,
		BudgetID:  budgetID,
		IsAdmin:   middleware.IsAdminRequest(c),
		Actor:     userID.String(),
		SessionID: req.SessionID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}
