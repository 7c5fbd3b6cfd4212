package budget

import (
	"context"
	"fmt"

	creditapp "github.com/ficore/backend/internal/application/credit"
	"github.com/ficore/backend/internal/domain/budget"
	"github.com/ficore/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Paid action tags
const (
	ActionCreateBudget    = "create_budget"
	ActionDeleteBudget    = "delete_budget"
	ActionDuplicateBudget = "duplicate_budget"
	ActionExportBudget    = "export_budget_pdf"
	ActionExportHistory   = "export_history_pdf"
)

// ActionCosts holds the credit price of each paid budget action
type ActionCosts struct {
	CreateBudget    decimal.Decimal
	DeleteBudget    decimal.Decimal
	DuplicateBudget decimal.Decimal
	ExportBudget    decimal.Decimal
	ExportHistory   decimal.Decimal
}

// DefaultActionCosts returns the standard pricing: one credit per budget
// mutation and per single export, two for a full history export.
func DefaultActionCosts() ActionCosts {
	return ActionCosts{
		CreateBudget:    decimal.NewFromInt(1),
		DeleteBudget:    decimal.NewFromInt(1),
		DuplicateBudget: decimal.NewFromInt(1),
		ExportBudget:    decimal.NewFromInt(1),
		ExportHistory:   decimal.NewFromInt(2),
	}
}

// Service handles budget operations. Every paid action runs its budget
// mutation and its credit charge through the coordinator in one transaction
// scope, so a budget can never be created without its charge or charged
// without being created.
//
// Admin callers bypass the charge entirely; the bypass is still audited.
type Service struct {
	coordinator *creditapp.Coordinator
	budgetRepo  budget.Repository
	costs       ActionCosts
	logger      *zap.Logger
}

// NewService creates a budget Service
func NewService(coordinator *creditapp.Coordinator, budgetRepo budget.Repository, costs ActionCosts, logger *zap.Logger) *Service {
	return &Service{
		coordinator: coordinator,
		budgetRepo:  budgetRepo,
		costs:       costs,
		logger:      logger,
	}
}

// Create stores a new budget and charges the creation fee atomically
func (s *Service) Create(ctx context.Context, req CreateBudgetRequest) (*BudgetResponse, error) {
	items := make([]budget.Item, len(req.Items))
	for i, item := range req.Items {
		items[i] = budget.Item{
			Name:     item.Name,
			Category: budget.ItemCategory(item.Category),
			Amount:   item.Amount,
		}
	}
	entity, err := budget.NewBudget(req.UserID, req.Name, items)
	if err != nil {
		return nil, err
	}

	if req.IsAdmin {
		if err := s.budgetRepo.Create(ctx, entity); err != nil {
			return nil, err
		}
		s.coordinator.RecordAdminBypass(ctx, req.UserID, req.Actor, ActionCreateBudget)
		response := ToBudgetResponse(entity)
		return &response, nil
	}

	budgetID := entity.ID
	_, err = s.coordinator.ChargeWithMutation(ctx, creditapp.ChargeRequest{
		UserID:            req.UserID,
		Amount:            s.costs.CreateBudget,
		ActionTag:         ActionCreateBudget,
		Description:       fmt.Sprintf("Created budget %q", entity.Name),
		RelatedEntityType: "budget",
		RelatedEntityID:   &budgetID,
		SessionID:         req.SessionID,
	}, func(repos creditapp.TransactionalRepositories) error {
		return repos.BudgetRepo().Create(ctx, entity)
	})
	if err != nil {
		return nil, err
	}

	response := ToBudgetResponse(entity)
	return &response, nil
}

// Delete removes a budget and charges the deletion fee atomically. The
// ledger records of past charges against the budget are kept.
func (s *Service) Delete(ctx context.Context, req BudgetActionRequest) error {
	entity, err := s.findOwned(ctx, req.UserID, req.BudgetID)
	if err != nil {
		return err
	}

	if req.IsAdmin {
		if err := s.budgetRepo.Delete(ctx, entity.ID); err != nil {
			return err
		}
		s.coordinator.RecordAdminBypass(ctx, req.UserID, req.Actor, ActionDeleteBudget)
		return nil
	}

	budgetID := entity.ID
	_, err = s.coordinator.ChargeWithMutation(ctx, creditapp.ChargeRequest{
		UserID:            req.UserID,
		Amount:            s.costs.DeleteBudget,
		ActionTag:         ActionDeleteBudget,
		Description:       fmt.Sprintf("Deleted budget %q", entity.Name),
		RelatedEntityType: "budget",
		RelatedEntityID:   &budgetID,
		SessionID:         req.SessionID,
	}, func(repos creditapp.TransactionalRepositories) error {
		return repos.BudgetRepo().Delete(ctx, entity.ID)
	})
	return err
}

// Duplicate copies a budget under a new id and charges the duplication fee
// atomically
func (s *Service) Duplicate(ctx context.Context, req BudgetActionRequest) (*BudgetResponse, error) {
	entity, err := s.findOwned(ctx, req.UserID, req.BudgetID)
	if err != nil {
		return nil, err
	}
	duplicate := entity.Duplicate()

	if req.IsAdmin {
		if err := s.budgetRepo.Create(ctx, duplicate); err != nil {
			return nil, err
		}
		s.coordinator.RecordAdminBypass(ctx, req.UserID, req.Actor, ActionDuplicateBudget)
		response := ToBudgetResponse(duplicate)
		return &response, nil
	}

	duplicateID := duplicate.ID
	_, err = s.coordinator.ChargeWithMutation(ctx, creditapp.ChargeRequest{
		UserID:            req.UserID,
		Amount:            s.costs.DuplicateBudget,
		ActionTag:         ActionDuplicateBudget,
		Description:       fmt.Sprintf("Duplicated budget %q", entity.Name),
		RelatedEntityType: "budget",
		RelatedEntityID:   &duplicateID,
		SessionID:         req.SessionID,
	}, func(repos creditapp.TransactionalRepositories) error {
		return repos.BudgetRepo().Create(ctx, duplicate)
	})
	if err != nil {
		return nil, err
	}

	response := ToBudgetResponse(duplicate)
	return &response, nil
}

// ExportPDF charges for a PDF export and returns the export grant. A single
// budget export costs less than a full history export.
func (s *Service) ExportPDF(ctx context.Context, req ExportRequest) (*ExportGrantResponse, error) {
	actionTag := ActionExportHistory
	amount := s.costs.ExportHistory
	scope := "full_history"
	var relatedID *uuid.UUID

	if req.BudgetID != nil {
		entity, err := s.findOwned(ctx, req.UserID, *req.BudgetID)
		if err != nil {
			return nil, err
		}
		actionTag = ActionExportBudget
		amount = s.costs.ExportBudget
		scope = "single"
		budgetID := entity.ID
		relatedID = &budgetID
	}

	if req.IsAdmin {
		s.coordinator.RecordAdminBypass(ctx, req.UserID, req.Actor, actionTag)
		return &ExportGrantResponse{
			Scope:         scope,
			BudgetID:      relatedID,
			ChargedAmount: "0",
		}, nil
	}

	result, err := s.coordinator.ChargeForAction(ctx, creditapp.ChargeRequest{
		UserID:            req.UserID,
		Amount:            amount,
		ActionTag:         actionTag,
		Description:       "Budget PDF export",
		RelatedEntityType: "budget",
		RelatedEntityID:   relatedID,
		SessionID:         req.SessionID,
	})
	if err != nil {
		return nil, err
	}

	transactionID := result.TransactionID
	return &ExportGrantResponse{
		Scope:         scope,
		BudgetID:      relatedID,
		TransactionID: &transactionID,
		ChargedAmount: result.Amount.String(),
	}, nil
}

// Get returns a budget owned by the user
func (s *Service) Get(ctx context.Context, userID, budgetID uuid.UUID) (*BudgetResponse, error) {
	entity, err := s.findOwned(ctx, userID, budgetID)
	if err != nil {
		return nil, err
	}
	response := ToBudgetResponse(entity)
	return &response, nil
}

// List returns all budgets owned by the user
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]BudgetResponse, error) {
	budgets, err := s.budgetRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ToBudgetResponses(budgets), nil
}

func (s *Service) findOwned(ctx context.Context, userID, budgetID uuid.UUID) (*budget.Budget, error) {
	entity, err := s.budgetRepo.FindByID(ctx, budgetID)
	if err != nil {
		return nil, err
	}
	if entity.UserID != userID {
		return nil, shared.ErrNotFound
	}
	return entity, nil
}
