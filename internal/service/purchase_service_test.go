package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"bdhishab/internal/dto"
	"bdhishab/internal/model"
	"bdhishab/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── In-memory PurchaseRepository stub ─────────────────────────────────────────

type stubPurchaseRepo struct {
	mu        sync.Mutex
	purchases map[uuid.UUID]*model.Purchase
}

func newStubPurchaseRepo() *stubPurchaseRepo {
	return &stubPurchaseRepo{purchases: make(map[uuid.UUID]*model.Purchase)}
}

func (r *stubPurchaseRepo) DB() *gorm.DB { return nil }

func (r *stubPurchaseRepo) CreateTx(_ context.Context, _ *gorm.DB, p *model.Purchase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()
	cloned := *p
	cloned.Supplier = nil
	r.purchases[p.ID] = &cloned
	return nil
}

func (r *stubPurchaseRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.purchases[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cloned := *p
	return &cloned, nil
}

func (r *stubPurchaseRepo) UpdatePayment(_ context.Context, id uuid.UUID, paid, due decimal.Decimal, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.purchases[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.PaidAmount = paid
	p.DueAmount = due
	p.Status = status
	return nil
}

func (r *stubPurchaseRepo) List(_ context.Context, filter dto.PurchaseFilter) ([]model.Purchase, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Purchase
	for _, p := range r.purchases {
		if filter.StoreID != "" && p.StoreID.String() != filter.StoreID {
			continue
		}
		if filter.Status != "" && filter.Status != "all" && p.Status != filter.Status {
			continue
		}
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

var _ repository.PurchaseRepository = (*stubPurchaseRepo)(nil)

// ── Tests ─────────────────────────────────────────────────────────────────────

type purchaseFixture struct {
	svc        PurchaseService
	repo       *stubPurchaseRepo
	suppliers  *stubSupplierRepo
	ledgerRepo *stubLedgerRepo
	storeID    uuid.UUID
	supplierID uuid.UUID
}

func newTestPurchase(t *testing.T) purchaseFixture {
	t.Helper()
	ledgerRepo := newStubLedgerRepo()
	stores := newStubStoreRepo()
	store := model.Store{ID: uuid.New(), Name: "Test Store", Active: true}
	require.NoError(t, stores.Create(context.Background(), &store))
	ledgerSvc := NewLedgerService(ledgerRepo, stores, nil, nil)

	suppliers := newStubSupplierRepo()
	supplier := model.Supplier{ID: uuid.New(), Name: "Acme", Active: true}
	require.NoError(t, suppliers.Create(context.Background(), &supplier))

	repo := newStubPurchaseRepo()
	svc := NewPurchaseService(repo, suppliers, stores, ledgerSvc)
	return purchaseFixture{
		svc:        svc,
		repo:       repo,
		suppliers:  suppliers,
		ledgerRepo: ledgerRepo,
		storeID:    store.ID,
		supplierID: supplier.ID,
	}
}

func TestCreatePurchaseOnCredit(t *testing.T) {
	f := newTestPurchase(t)
	ctx := context.Background()

	resp, err := f.svc.Create(ctx, dto.CreatePurchaseRequest{
		StoreID:    f.storeID.String(),
		SupplierID: f.supplierID.String(),
		Total:      dec("600"),
	}, uuid.New())
	require.NoError(t, err)

	assert.Equal(t, model.PurchaseStatusDue, resp.Status)
	assert.True(t, resp.DueAmount.Equal(dec("600")))
	assert.True(t, resp.PaidAmount.IsZero())

	supplier, err := f.suppliers.FindByID(ctx, f.supplierID)
	require.NoError(t, err)
	assert.True(t, supplier.DueAmount.Equal(dec("600")))

	// On credit: the ledger stays untouched
	_, count, err := f.ledgerRepo.SumEntries(ctx, f.storeID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestPayPurchasePartialThenFull(t *testing.T) {
	f := newTestPurchase(t)
	ctx := context.Background()
	actor := uuid.New()
	seedBalance(t, f.ledgerRepo, f.storeID, "1000")

	created, err := f.svc.Create(ctx, dto.CreatePurchaseRequest{
		StoreID:    f.storeID.String(),
		SupplierID: f.supplierID.String(),
		Total:      dec("600"),
	}, actor)
	require.NoError(t, err)
	purchaseID, _ := uuid.Parse(created.ID)

	partial, err := f.svc.Pay(ctx, purchaseID, dto.PayPurchaseRequest{Amount: dec("200")}, actor)
	require.NoError(t, err)
	assert.Equal(t, model.PurchaseStatusPartial, partial.Status)
	assert.True(t, partial.DueAmount.Equal(dec("400")))
	assert.True(t, partial.PaidAmount.Equal(dec("200")))

	full, err := f.svc.Pay(ctx, purchaseID, dto.PayPurchaseRequest{Amount: dec("400")}, actor)
	require.NoError(t, err)
	assert.Equal(t, model.PurchaseStatusPaid, full.Status)
	assert.True(t, full.DueAmount.IsZero())

	supplier, err := f.suppliers.FindByID(ctx, f.supplierID)
	require.NoError(t, err)
	assert.True(t, supplier.DueAmount.IsZero())

	sum, count, err := f.ledgerRepo.SumEntries(ctx, f.storeID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.True(t, sum.Equal(dec("-600")))
}

func TestPayPurchaseInsufficientBalanceReverts(t *testing.T) {
	f := newTestPurchase(t)
	ctx := context.Background()
	actor := uuid.New()
	seedBalance(t, f.ledgerRepo, f.storeID, "50")

	created, err := f.svc.Create(ctx, dto.CreatePurchaseRequest{
		StoreID:    f.storeID.String(),
		SupplierID: f.supplierID.String(),
		Total:      dec("600"),
	}, actor)
	require.NoError(t, err)
	purchaseID, _ := uuid.Parse(created.ID)

	_, err = f.svc.Pay(ctx, purchaseID, dto.PayPurchaseRequest{Amount: dec("200")}, actor)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	reloaded, err := f.repo.FindByID(ctx, purchaseID)
	require.NoError(t, err)
	assert.True(t, reloaded.DueAmount.Equal(dec("600")), "purchase due must be restored")
	assert.Equal(t, model.PurchaseStatusDue, reloaded.Status)

	supplier, err := f.suppliers.FindByID(ctx, f.supplierID)
	require.NoError(t, err)
	assert.True(t, supplier.DueAmount.Equal(dec("600")), "supplier due must be restored")
}

func TestPayPurchaseIdempotentRetry(t *testing.T) {
	f := newTestPurchase(t)
	ctx := context.Background()
	actor := uuid.New()
	seedBalance(t, f.ledgerRepo, f.storeID, "1000")

	created, err := f.svc.Create(ctx, dto.CreatePurchaseRequest{
		StoreID:    f.storeID.String(),
		SupplierID: f.supplierID.String(),
		Total:      dec("600"),
	}, actor)
	require.NoError(t, err)
	purchaseID, _ := uuid.Parse(created.ID)

	ref := uuid.New().String()
	req := dto.PayPurchaseRequest{Amount: dec("200"), ReferenceID: &ref}

	_, err = f.svc.Pay(ctx, purchaseID, req, actor)
	require.NoError(t, err)
	second, err := f.svc.Pay(ctx, purchaseID, req, actor)
	require.NoError(t, err)

	assert.True(t, second.DueAmount.Equal(dec("400")))
	assert.True(t, second.PaidAmount.Equal(dec("200")))

	_, count, err := f.ledgerRepo.SumEntries(ctx, f.storeID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestPayPurchaseExceedingDueRejected(t *testing.T) {
	f := newTestPurchase(t)
	ctx := context.Background()
	actor := uuid.New()
	seedBalance(t, f.ledgerRepo, f.storeID, "1000")

	created, err := f.svc.Create(ctx, dto.CreatePurchaseRequest{
		StoreID:    f.storeID.String(),
		SupplierID: f.supplierID.String(),
		Total:      dec("100"),
	}, actor)
	require.NoError(t, err)
	purchaseID, _ := uuid.Parse(created.ID)

	_, err = f.svc.Pay(ctx, purchaseID, dto.PayPurchaseRequest{Amount: dec("200")}, actor)
	assert.ErrorIs(t, err, ErrPaymentTooLarge)
}
