package service

import (
	"context"
	"sync"
	"testing"

	"bdhishab/internal/dto"
	"bdhishab/internal/model"
	"bdhishab/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── In-memory SupplierRepository stub ─────────────────────────────────────────

type stubSupplierRepo struct {
	mu        sync.Mutex
	suppliers map[uuid.UUID]*model.Supplier
}

func newStubSupplierRepo() *stubSupplierRepo {
	return &stubSupplierRepo{suppliers: make(map[uuid.UUID]*model.Supplier)}
}

func (r *stubSupplierRepo) Create(_ context.Context, s *model.Supplier) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	cloned := *s
	r.suppliers[s.ID] = &cloned
	return nil
}

func (r *stubSupplierRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Supplier, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.suppliers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cloned := *s
	return &cloned, nil
}

func (r *stubSupplierRepo) List(_ context.Context) ([]model.Supplier, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Supplier
	for _, s := range r.suppliers {
		if s.Active {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *stubSupplierRepo) AdjustDue(_ context.Context, id uuid.UUID, delta decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.suppliers[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.DueAmount = s.DueAmount.Add(delta)
	return nil
}

func (r *stubSupplierRepo) AdjustDueTx(_ *gorm.DB, id uuid.UUID, delta decimal.Decimal) error {
	return r.AdjustDue(context.Background(), id, delta)
}

var _ repository.SupplierRepository = (*stubSupplierRepo)(nil)

// ── Tests ─────────────────────────────────────────────────────────────────────

func newTestSupplier(t *testing.T, due string) (SupplierService, *stubSupplierRepo, *stubLedgerRepo, uuid.UUID, uuid.UUID) {
	t.Helper()
	ledgerRepo := newStubLedgerRepo()
	stores := newStubStoreRepo()
	store := model.Store{ID: uuid.New(), Name: "Test Store", Active: true}
	require.NoError(t, stores.Create(context.Background(), &store))
	ledgerSvc := NewLedgerService(ledgerRepo, stores, nil, nil)

	repo := newStubSupplierRepo()
	supplier := model.Supplier{ID: uuid.New(), Name: "Acme", DueAmount: dec(due), Active: true}
	require.NoError(t, repo.Create(context.Background(), &supplier))

	svc := NewSupplierService(repo, ledgerSvc)
	return svc, repo, ledgerRepo, store.ID, supplier.ID
}

func TestSettleDueReducesDueAndBalance(t *testing.T) {
	svc, repo, ledgerRepo, storeID, supplierID := newTestSupplier(t, "800")
	ctx := context.Background()
	seedBalance(t, ledgerRepo, storeID, "1000")

	resp, err := svc.SettleDue(ctx, supplierID, dto.SettleDueRequest{
		StoreID: storeID.String(),
		Amount:  dec("300"),
	}, uuid.New())
	require.NoError(t, err)

	assert.True(t, resp.PaidAmount.Equal(dec("300")))
	assert.True(t, resp.RemainingDue.Equal(dec("500")))
	assert.True(t, resp.NewBalance.Equal(dec("700")))

	supplier, err := repo.FindByID(ctx, supplierID)
	require.NoError(t, err)
	assert.True(t, supplier.DueAmount.Equal(dec("500")))
}

func TestSettleDueInsufficientBalanceRevertsDue(t *testing.T) {
	svc, repo, ledgerRepo, storeID, supplierID := newTestSupplier(t, "800")
	ctx := context.Background()
	seedBalance(t, ledgerRepo, storeID, "100")

	_, err := svc.SettleDue(ctx, supplierID, dto.SettleDueRequest{
		StoreID: storeID.String(),
		Amount:  dec("300"),
	}, uuid.New())
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	supplier, err := repo.FindByID(ctx, supplierID)
	require.NoError(t, err)
	assert.True(t, supplier.DueAmount.Equal(dec("800")), "due must be restored after a rejected debit")
}

func TestSettleDueIdempotentRetry(t *testing.T) {
	svc, repo, ledgerRepo, storeID, supplierID := newTestSupplier(t, "800")
	ctx := context.Background()
	seedBalance(t, ledgerRepo, storeID, "1000")
	ref := uuid.New().String()

	req := dto.SettleDueRequest{
		StoreID:     storeID.String(),
		Amount:      dec("300"),
		ReferenceID: &ref,
	}

	first, err := svc.SettleDue(ctx, supplierID, req, uuid.New())
	require.NoError(t, err)

	second, err := svc.SettleDue(ctx, supplierID, req, uuid.New())
	require.NoError(t, err)

	// Retrying the same payment reference settles nothing twice.
	assert.True(t, second.NewBalance.Equal(first.NewBalance))
	assert.True(t, second.RemainingDue.Equal(dec("500")))

	supplier, err := repo.FindByID(ctx, supplierID)
	require.NoError(t, err)
	assert.True(t, supplier.DueAmount.Equal(dec("500")))

	_, count, err := ledgerRepo.SumEntries(ctx, storeID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestSettleDueExceedingDueRejected(t *testing.T) {
	svc, _, ledgerRepo, storeID, supplierID := newTestSupplier(t, "200")
	seedBalance(t, ledgerRepo, storeID, "1000")

	_, err := svc.SettleDue(context.Background(), supplierID, dto.SettleDueRequest{
		StoreID: storeID.String(),
		Amount:  dec("300"),
	}, uuid.New())
	assert.ErrorIs(t, err, ErrSettlementTooLarge)
}

func TestSettleDueUnknownSupplier(t *testing.T) {
	svc, _, _, storeID, _ := newTestSupplier(t, "200")

	_, err := svc.SettleDue(context.Background(), uuid.New(), dto.SettleDueRequest{
		StoreID: storeID.String(),
		Amount:  dec("50"),
	}, uuid.New())
	assert.ErrorIs(t, err, ErrSupplierNotFound)
}
