package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	budgetapp "github.com/ficore/backend/internal/application/budget"
	creditapp "github.com/ficore/backend/internal/application/credit"
	budgetdomain "github.com/ficore/backend/internal/domain/budget"
	"github.com/ficore/backend/internal/domain/credit"
	"github.com/ficore/backend/internal/domain/shared"
	"github.com/ficore/backend/internal/infrastructure/auth"
	"github.com/ficore/backend/internal/infrastructure/cache"
	"github.com/ficore/backend/internal/infrastructure/config"
	"github.com/ficore/backend/internal/interfaces/http/middleware"
	"github.com/ficore/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type fakeBalanceRepo struct {
	mu       sync.Mutex
	balances map[uuid.UUID]decimal.Decimal
}

func newFakeBalanceRepo() *fakeBalanceRepo {
	return &fakeBalanceRepo{balances: make(map[uuid.UUID]decimal.Decimal)}
}

func (r *fakeBalanceRepo) Get(_ context.Context, userID uuid.UUID) (*credit.Balance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	amount, ok := r.balances[userID]
	if !ok {
		amount = decimal.Zero
		r.balances[userID] = amount
	}
	return credit.NewBalanceWithAmount(userID, amount)
}

func (r *fakeBalanceRepo) ApplyDelta(_ context.Context, userID uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.balances[userID]
	if !ok {
		if delta.IsNegative() {
			return decimal.Zero, credit.ErrAccountNotFound
		}
		current = decimal.Zero
	}
	next := current.Add(delta)
	if next.IsNegative() {
		return decimal.Zero, credit.ErrInsufficientFunds
	}
	r.balances[userID] = next
	return next, nil
}

func (r *fakeBalanceRepo) set(userID uuid.UUID, amount int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.balances[userID] = decimal.NewFromInt(amount)
}

type fakeTxnRepo struct {
	mu      sync.Mutex
	records []*credit.Transaction
}

func (r *fakeTxnRepo) Create(_ context.Context, t *credit.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.Type == credit.TransactionTypeRefund && t.OriginalTransactionID != nil {
		for _, existing := range r.records {
			if existing.Type == credit.TransactionTypeRefund &&
				existing.OriginalTransactionID != nil &&
				*existing.OriginalTransactionID == *t.OriginalTransactionID {
				return credit.ErrAlreadyRefunded
			}
		}
	}
	r.records = append(r.records, t)
	return nil
}

func (r *fakeTxnRepo) FindByID(_ context.Context, id uuid.UUID) (*credit.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.records {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeTxnRepo) FindByUserID(_ context.Context, userID uuid.UUID, limit int) ([]*credit.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*credit.Transaction
	for i := len(r.records) - 1; i >= 0; i-- {
		if r.records[i].UserID == userID {
			out = append(out, r.records[i])
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (r *fakeTxnRepo) FindRefundByOriginalID(_ context.Context, originalID uuid.UUID) (*credit.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.records {
		if t.Type == credit.TransactionTypeRefund &&
			t.OriginalTransactionID != nil && *t.OriginalTransactionID == originalID {
			return t, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeTxnRepo) SumCompletedByUserID(_ context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := decimal.Zero
	for _, t := range r.records {
		if t.UserID == userID {
			sum = sum.Add(t.GetSignedAmount())
		}
	}
	return sum, nil
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []*credit.AuditEntry
}

func (r *fakeAuditRepo) Create(_ context.Context, e *credit.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

func (r *fakeAuditRepo) ListByUserID(_ context.Context, userID uuid.UUID, limit int) ([]*credit.AuditEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*credit.AuditEntry
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].UserID == userID {
			out = append(out, r.entries[i])
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (r *fakeAuditRepo) ListRecent(_ context.Context, limit int) ([]*credit.AuditEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*credit.AuditEntry
	for i := len(r.entries) - 1; i >= 0; i-- {
		out = append(out, r.entries[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

type fakeBudgetRepo struct {
	mu      sync.Mutex
	budgets map[uuid.UUID]*budgetdomain.Budget
}

func newFakeBudgetRepo() *fakeBudgetRepo {
	return &fakeBudgetRepo{budgets: make(map[uuid.UUID]*budgetdomain.Budget)}
}

func (r *fakeBudgetRepo) Create(_ context.Context, b *budgetdomain.Budget) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.budgets[b.ID] = b
	return nil
}

func (r *fakeBudgetRepo) FindByID(_ context.Context, id uuid.UUID) (*budgetdomain.Budget, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.budgets[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return b, nil
}

func (r *fakeBudgetRepo) FindByUserID(_ context.Context, userID uuid.UUID) ([]*budgetdomain.Budget, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*budgetdomain.Budget
	for _, b := range r.budgets {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeBudgetRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.budgets[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.budgets, id)
	return nil
}

// fixture wires real application services over in-memory repositories
// behind a gin engine with the production middleware chain
type fixture struct {
	engine      *gin.Engine
	jwt         *auth.JWTService
	balances    *fakeBalanceRepo
	txns        *fakeTxnRepo
	audits      *fakeAuditRepo
	budgets     *fakeBudgetRepo
	coordinator *creditapp.Coordinator
}

func newFixture() *fixture {
	gin.SetMode(gin.TestMode)

	balances := newFakeBalanceRepo()
	txns := &fakeTxnRepo{}
	audits := &fakeAuditRepo{}
	budgets := newFakeBudgetRepo()

	scope := creditapp.NewNoOpTransactionScope(balances, txns, audits, budgets)
	coordinator := creditapp.NewCoordinator(scope, balances, txns, audits, zap.NewNop())
	queries := creditapp.NewQueryService(balances, txns, audits)
	budgetService := budgetapp.NewService(coordinator, budgets, budgetapp.DefaultActionCosts(), zap.NewNop())

	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                "handler-test-secret-not-for-production",
		AccessTokenExpiration: time.Hour,
		Issuer:                "ficore-backend",
	})

	idempotency := cache.NewInMemoryIdempotencyStore()

	engine := gin.New()
	engine.Use(middleware.RequestID())

	r := router.NewRouter(engine,
		router.WithMiddleware(middleware.JWTAuthMiddleware(jwtService)),
	)
	r.Register(NewCreditHandler(coordinator, queries, idempotency, time.Hour))
	r.Register(NewBudgetHandler(budgetService))
	r.Setup()

	return &fixture{
		engine:      engine,
		jwt:         jwtService,
		balances:    balances,
		txns:        txns,
		audits:      audits,
		budgets:     budgets,
		coordinator: coordinator,
	}
}

func (f *fixture) token(userID uuid.UUID, role string) string {
	token, _, err := f.jwt.GenerateToken(auth.GenerateTokenInput{UserID: userID, Role: role})
	if err != nil {
		panic(err)
	}
	return token
}

func (f *fixture) request(method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}
