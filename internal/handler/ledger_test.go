package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bdhishab/internal/dto"
	"bdhishab/internal/middleware"
	"bdhishab/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubLedgerService returns canned responses; per-test hooks override the
// behavior under test.
type stubLedgerService struct {
	applyFn      func(p service.ApplyParams) (*dto.MovementResponse, error)
	getBalanceFn func(storeID uuid.UUID) (*dto.BalanceResponse, error)
}

func (s *stubLedgerService) Apply(_ context.Context, p service.ApplyParams) (*dto.MovementResponse, error) {
	return s.applyFn(p)
}

func (s *stubLedgerService) ManualAdd(_ context.Context, storeID uuid.UUID, amount decimal.Decimal, notes *string, actor uuid.UUID) (*dto.MovementResponse, error) {
	return s.applyFn(service.ApplyParams{StoreID: storeID, Amount: amount, Actor: actor})
}

func (s *stubLedgerService) ManualDeduct(_ context.Context, storeID uuid.UUID, amount decimal.Decimal, notes *string, actor uuid.UUID) (*dto.MovementResponse, error) {
	return s.applyFn(service.ApplyParams{StoreID: storeID, Amount: amount.Neg(), Actor: actor})
}

func (s *stubLedgerService) RecordSaleIncome(_ context.Context, storeID, _ uuid.UUID, amount decimal.Decimal, actor uuid.UUID) (*dto.MovementResponse, error) {
	return s.applyFn(service.ApplyParams{StoreID: storeID, Amount: amount, Actor: actor})
}

func (s *stubLedgerService) RecordExpense(_ context.Context, storeID, _ uuid.UUID, amount decimal.Decimal, _ bool, _ *string, actor uuid.UUID) (*dto.MovementResponse, error) {
	return s.applyFn(service.ApplyParams{StoreID: storeID, Amount: amount.Neg(), Actor: actor})
}

func (s *stubLedgerService) Refund(_ context.Context, storeID, _ uuid.UUID, amount decimal.Decimal, _ *string, actor uuid.UUID) (*dto.MovementResponse, error) {
	return s.applyFn(service.ApplyParams{StoreID: storeID, Amount: amount.Neg(), Actor: actor})
}

func (s *stubLedgerService) SettleSupplierDue(_ context.Context, storeID uuid.UUID, _ string, amount decimal.Decimal, _ bool, _ *string, actor uuid.UUID) (*dto.MovementResponse, error) {
	return s.applyFn(service.ApplyParams{StoreID: storeID, Amount: amount.Neg(), Actor: actor})
}

func (s *stubLedgerService) SettlePurchasePayment(_ context.Context, storeID uuid.UUID, _ string, amount decimal.Decimal, _ bool, _ *string, actor uuid.UUID) (*dto.MovementResponse, error) {
	return s.applyFn(service.ApplyParams{StoreID: storeID, Amount: amount.Neg(), Actor: actor})
}

func (s *stubLedgerService) GetBalance(_ context.Context, storeID uuid.UUID) (*dto.BalanceResponse, error) {
	return s.getBalanceFn(storeID)
}

func (s *stubLedgerService) ListEntries(_ context.Context, _ uuid.UUID, _ dto.EntryFilter) (*dto.EntryListResponse, error) {
	return &dto.EntryListResponse{Data: []dto.LedgerEntryResponse{}, Page: 1, Limit: 50}, nil
}

func (s *stubLedgerService) VerifyBalance(_ context.Context, storeID uuid.UUID) (*dto.AuditResponse, error) {
	return &dto.AuditResponse{StoreID: storeID.String(), Consistent: true}, nil
}

var _ service.LedgerService = (*stubLedgerService)(nil)

func newLedgerRouter(svc service.LedgerService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	// Inject claims the way JWTAuth would
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ClaimsKey, &middleware.JWTClaims{
			UserID:           uuid.New().String(),
			Username:         "tester",
			Role:             "admin",
			RegisteredClaims: jwt.RegisteredClaims{},
		})
	})
	h := NewLedgerHandler(svc)
	r.GET("/v1/stores/:id/balance", h.GetBalance)
	r.GET("/v1/stores/:id/ledger/audit", h.Audit)
	r.POST("/v1/stores/:id/ledger/add", h.ManualAdd)
	r.POST("/v1/stores/:id/ledger/deduct", h.ManualDeduct)
	return r
}

func TestGetBalanceOK(t *testing.T) {
	storeID := uuid.New()
	svc := &stubLedgerService{
		getBalanceFn: func(id uuid.UUID) (*dto.BalanceResponse, error) {
			return &dto.BalanceResponse{StoreID: id.String(), CurrentBalance: decimal.NewFromInt(1500)}, nil
		},
	}
	r := newLedgerRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/stores/"+storeID.String()+"/balance", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.BalanceResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, storeID.String(), resp.StoreID)
	assert.True(t, resp.CurrentBalance.Equal(decimal.NewFromInt(1500)))
}

func TestGetBalanceStoreNotFound(t *testing.T) {
	svc := &stubLedgerService{
		getBalanceFn: func(uuid.UUID) (*dto.BalanceResponse, error) {
			return nil, service.ErrStoreNotFound
		},
	}
	r := newLedgerRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/stores/"+uuid.New().String()+"/balance", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetBalanceInvalidID(t *testing.T) {
	r := newLedgerRouter(&stubLedgerService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/stores/not-a-uuid/balance", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestManualAddCreated(t *testing.T) {
	svc := &stubLedgerService{
		applyFn: func(p service.ApplyParams) (*dto.MovementResponse, error) {
			return &dto.MovementResponse{NewBalance: p.Amount}, nil
		},
	}
	r := newLedgerRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/stores/"+uuid.New().String()+"/ledger/add",
		strings.NewReader(`{"amount": 250}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestManualAddRejectsNonPositiveAmount(t *testing.T) {
	r := newLedgerRouter(&stubLedgerService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/stores/"+uuid.New().String()+"/ledger/add",
		strings.NewReader(`{"amount": -5}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestManualDeductInsufficientBalance(t *testing.T) {
	svc := &stubLedgerService{
		applyFn: func(service.ApplyParams) (*dto.MovementResponse, error) {
			return nil, service.ErrInsufficientBalance
		},
	}
	r := newLedgerRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/stores/"+uuid.New().String()+"/ledger/deduct",
		strings.NewReader(`{"amount": 2000}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestManualDeductConcurrentConflict(t *testing.T) {
	svc := &stubLedgerService{
		applyFn: func(service.ApplyParams) (*dto.MovementResponse, error) {
			return nil, service.ErrConcurrentConflict
		},
	}
	r := newLedgerRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/stores/"+uuid.New().String()+"/ledger/deduct",
		strings.NewReader(`{"amount": 10}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAuditEndpoint(t *testing.T) {
	r := newLedgerRouter(&stubLedgerService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/stores/"+uuid.New().String()+"/ledger/audit", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.AuditResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Consistent)
}
