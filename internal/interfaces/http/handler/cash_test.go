package handler

import (
	"net/http"
	"testing"

	appfinance "github.com/erp/billing/internal/application/finance"
	"github.com/erp/billing/internal/domain/shared"
	"github.com/erp/billing/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newCashRouter(svc *MockCashService) *gin.Engine {
	h := NewCashHandler(svc)
	router := newTestRouter()
	router.POST("/cash-accounts", h.CreateAccount)
	router.GET("/cash-accounts", h.ListAccounts)
	router.GET("/cash-accounts/:id", h.GetAccount)
	router.POST("/cash-accounts/:id/deactivate", h.DeactivateAccount)
	router.POST("/cash-accounts/:id/movements", h.RecordMovement)
	router.GET("/cash-accounts/:id/transactions", h.ListTransactions)
	return router
}

func TestCashHandler_CreateAccount(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		svc := new(MockCashService)
		req := appfinance.CreateCashAccountRequest{Kind: "BANK_ACCOUNT", Name: "BCP Soles", Currency: "PEN", BankName: "BCP"}
		svc.On("CreateAccount", mock.Anything, testCompanyID, req).
			Return(&appfinance.CashAccountResponse{ID: uuid.New(), Name: "BCP Soles"}, nil)

		w := doJSON(newCashRouter(svc), http.MethodPost, "/cash-accounts", req)

		assert.Equal(t, http.StatusCreated, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("unknown kind", func(t *testing.T) {
		svc := new(MockCashService)
		w := doJSON(newCashRouter(svc), http.MethodPost, "/cash-accounts",
			map[string]string{"kind": "WALLET", "name": "x", "currency": "PEN"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeResponse(t, w)
		require.Len(t, resp.Error.Details, 1)
		assert.Equal(t, "kind", resp.Error.Details[0].Field)
	})
}

func TestCashHandler_RecordMovement(t *testing.T) {
	accountID := uuid.New()

	t.Run("recorded", func(t *testing.T) {
		svc := new(MockCashService)
		svc.On("RecordMovement", mock.Anything, testCompanyID, accountID, mock.MatchedBy(func(req appfinance.RecordMovementRequest) bool {
			return req.Type == "EXPENSE" && req.Amount.Equal(decimal.NewFromInt(45))
		})).Return(&appfinance.CashTransactionResponse{ID: uuid.New()}, nil)

		w := doJSON(newCashRouter(svc), http.MethodPost, "/cash-accounts/"+accountID.String()+"/movements", map[string]any{
			"type":   "EXPENSE",
			"method": "CASH",
			"amount": "45.00",
		})

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("inactive account", func(t *testing.T) {
		svc := new(MockCashService)
		svc.On("RecordMovement", mock.Anything, testCompanyID, accountID, mock.Anything).
			Return(nil, shared.NewDomainError("ACCOUNT_INACTIVE", "Cash account is inactive"))

		w := doJSON(newCashRouter(svc), http.MethodPost, "/cash-accounts/"+accountID.String()+"/movements", map[string]any{
			"type":   "INCOME",
			"method": "DEPOSIT",
			"amount": "10",
		})

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, dto.ErrCodeAccountInactive, decodeResponse(t, w).Error.Code)
	})

	t.Run("insufficient balance", func(t *testing.T) {
		svc := new(MockCashService)
		svc.On("RecordMovement", mock.Anything, testCompanyID, accountID, mock.Anything).
			Return(nil, shared.ErrInsufficientBalance)

		w := doJSON(newCashRouter(svc), http.MethodPost, "/cash-accounts/"+accountID.String()+"/movements", map[string]any{
			"type":   "EXPENSE",
			"method": "CASH",
			"amount": "1000000",
		})

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, dto.ErrCodeInsufficientBalance, decodeResponse(t, w).Error.Code)
	})
}

func TestCashHandler_Queries(t *testing.T) {
	accountID := uuid.New()
	svc := new(MockCashService)
	svc.On("GetAccount", mock.Anything, testCompanyID, accountID).Return(&appfinance.CashAccountResponse{ID: accountID}, nil)
	svc.On("DeactivateAccount", mock.Anything, testCompanyID, accountID).Return(&appfinance.CashAccountResponse{ID: accountID}, nil)
	svc.On("ListAccounts", mock.Anything, testCompanyID, mock.MatchedBy(func(f appfinance.CashAccountListFilter) bool {
		return f.Kind == "CASH_REGISTER" && f.Active != nil && *f.Active
	})).Return([]appfinance.CashAccountResponse{{ID: accountID}}, int64(1), nil)
	svc.On("ListTransactions", mock.Anything, testCompanyID, accountID, mock.MatchedBy(func(f appfinance.CashTransactionListFilter) bool {
		return f.Origin == "REVERSAL"
	})).Return([]appfinance.CashTransactionResponse{}, int64(0), nil)
	router := newCashRouter(svc)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/cash-accounts/" + accountID.String()},
		{http.MethodPost, "/cash-accounts/" + accountID.String() + "/deactivate"},
		{http.MethodGet, "/cash-accounts?kind=CASH_REGISTER&active=true"},
		{http.MethodGet, "/cash-accounts/" + accountID.String() + "/transactions?origin=REVERSAL"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := doJSON(router, tt.method, tt.path, nil)
			assert.Equal(t, http.StatusOK, w.Code)
		})
	}
	svc.AssertExpectations(t)
}
