package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	budgetapp "github.com/ficore/backend/internal/application/budget"
	"github.com/ficore/backend/internal/infrastructure/auth"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createBudget(t *testing.T, f *fixture, token string) budgetapp.BudgetResponse {
	t.Helper()

	body := `{"name":"September","items":[{"name":"Salary","category":"income","amount":"3000"},{"name":"Rent","category":"expense","amount":"1200"}]}`
	w := f.request(http.MethodPost, "/api/v1/budgets", token, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Data budgetapp.BudgetResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Data
}

func TestBudgetHandler_Create(t *testing.T) {
	f := newFixture()
	userID := uuid.New()
	f.balances.set(userID, 5)

	created := createBudget(t, f, f.token(userID, auth.RoleUser))

	assert.Equal(t, "September", created.Name)
	assert.True(t, created.SurplusDeficit.Equal(decimal.NewFromInt(1800)))

	// Creation cost one credit
	balance, err := f.balances.Get(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, balance.Balance.Equal(decimal.NewFromInt(4)))
}

func TestBudgetHandler_Create_InsufficientCredits(t *testing.T) {
	f := newFixture()
	userID := uuid.New()
	f.balances.set(userID, 0)

	body := `{"name":"Empty wallet"}`
	w := f.request(http.MethodPost, "/api/v1/budgets", f.token(userID, auth.RoleUser), body)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_INSUFFICIENT_CREDITS")

	// Declined charge leaves no budget behind
	budgets, err := f.budgets.FindByUserID(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, budgets)
}

func TestBudgetHandler_Create_AdminBypassesCharge(t *testing.T) {
	f := newFixture()
	adminID := uuid.New()
	f.balances.set(adminID, 0)

	body := `{"name":"Admin budget"}`
	w := f.request(http.MethodPost, "/api/v1/budgets", f.token(adminID, auth.RoleAdmin), body)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	balance, err := f.balances.Get(context.Background(), adminID)
	require.NoError(t, err)
	assert.True(t, balance.Balance.IsZero())
}

func TestBudgetHandler_GetAndList(t *testing.T) {
	f := newFixture()
	userID := uuid.New()
	f.balances.set(userID, 5)
	token := f.token(userID, auth.RoleUser)

	created := createBudget(t, f, token)

	w := f.request(http.MethodGet, "/api/v1/budgets/"+created.ID.String(), token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "September")

	w = f.request(http.MethodGet, "/api/v1/budgets", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), created.ID.String())

	// Another user cannot see it
	w = f.request(http.MethodGet, "/api/v1/budgets/"+created.ID.String(), f.token(uuid.New(), auth.RoleUser), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBudgetHandler_Delete(t *testing.T) {
	f := newFixture()
	userID := uuid.New()
	f.balances.set(userID, 5)
	token := f.token(userID, auth.RoleUser)

	created := createBudget(t, f, token)

	w := f.request(http.MethodDelete, "/api/v1/budgets/"+created.ID.String(), token, "")
	require.Equal(t, http.StatusNoContent, w.Code)

	// Create then delete cost one credit each
	balance, err := f.balances.Get(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, balance.Balance.Equal(decimal.NewFromInt(3)))

	w = f.request(http.MethodGet, "/api/v1/budgets/"+created.ID.String(), token, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBudgetHandler_Duplicate(t *testing.T) {
	f := newFixture()
	userID := uuid.New()
	f.balances.set(userID, 5)
	token := f.token(userID, auth.RoleUser)

	created := createBudget(t, f, token)

	w := f.request(http.MethodPost, "/api/v1/budgets/"+created.ID.String()+"/duplicate", token, "")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "September (copy)")
}

func TestBudgetHandler_Export(t *testing.T) {
	f := newFixture()
	userID := uuid.New()
	f.balances.set(userID, 5)
	token := f.token(userID, auth.RoleUser)

	created := createBudget(t, f, token) // balance 4

	t.Run("single budget export costs one credit", func(t *testing.T) {
		body := `{"budget_id":"` + created.ID.String() + `"}`
		w := f.request(http.MethodPost, "/api/v1/budgets/exports", token, body)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), `"charged_amount":"1"`)

		balance, err := f.balances.Get(context.Background(), userID)
		require.NoError(t, err)
		assert.True(t, balance.Balance.Equal(decimal.NewFromInt(3)))
	})

	t.Run("full history export costs two credits", func(t *testing.T) {
		w := f.request(http.MethodPost, "/api/v1/budgets/exports", token, `{}`)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), `"charged_amount":"2"`)

		balance, err := f.balances.Get(context.Background(), userID)
		require.NoError(t, err)
		assert.True(t, balance.Balance.Equal(decimal.NewFromInt(1)))
	})

	t.Run("export declined when balance too low", func(t *testing.T) {
		w := f.request(http.MethodPost, "/api/v1/budgets/exports", token, `{}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_INSUFFICIENT_CREDITS")
	})
}
