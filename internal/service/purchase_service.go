package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bdhishab/internal/dto"
	"bdhishab/internal/model"
	"bdhishab/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var (
	ErrPurchaseNotFound = errors.New("purchase not found")
	ErrPaymentTooLarge  = errors.New("payment amount exceeds purchase due")
)

type PurchaseService interface {
	Create(ctx context.Context, req dto.CreatePurchaseRequest, actor uuid.UUID) (*dto.PurchaseResponse, error)
	Pay(ctx context.Context, purchaseID uuid.UUID, req dto.PayPurchaseRequest, actor uuid.UUID) (*dto.PurchaseResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.PurchaseResponse, error)
	List(ctx context.Context, filter dto.PurchaseFilter) (*dto.PurchaseListResponse, error)
}

type purchaseService struct {
	repo      repository.PurchaseRepository
	suppliers repository.SupplierRepository
	stores    repository.StoreRepository
	ledger    LedgerService
}

func NewPurchaseService(repo repository.PurchaseRepository, suppliers repository.SupplierRepository, stores repository.StoreRepository, ledger LedgerService) PurchaseService {
	return &purchaseService{repo: repo, suppliers: suppliers, stores: stores, ledger: ledger}
}

// Create records a purchase on credit: the purchase row and the supplier's
// due increase commit in one transaction. No cash moves, so the ledger is
// not involved until a payment is made.
func (s *purchaseService) Create(ctx context.Context, req dto.CreatePurchaseRequest, actor uuid.UUID) (*dto.PurchaseResponse, error) {
	storeID, err := uuid.Parse(req.StoreID)
	if err != nil {
		return nil, fmt.Errorf("invalid store_id: %w", err)
	}
	supplierID, err := uuid.Parse(req.SupplierID)
	if err != nil {
		return nil, fmt.Errorf("invalid supplier_id: %w", err)
	}

	exists, err := s.stores.Exists(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("%w: check store: %v", ErrPersistence, err)
	}
	if !exists {
		return nil, ErrStoreNotFound
	}
	supplier, err := s.suppliers.FindByID(ctx, supplierID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSupplierNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find supplier: %w", err)
	}

	purchase := model.Purchase{
		ID:         uuid.New(),
		StoreID:    storeID,
		SupplierID: supplierID,
		Total:      req.Total,
		DueAmount:  req.Total,
		Status:     model.PurchaseStatusDue,
		Notes:      req.Notes,
		CreatedBy:  actor,
	}
	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.CreateTx(ctx, tx, &purchase); err != nil {
			return fmt.Errorf("create purchase: %w", err)
		}
		return s.suppliers.AdjustDueTx(tx, supplierID, req.Total)
	})
	if err != nil {
		return nil, err
	}

	purchase.Supplier = supplier
	return purchaseToResponse(purchase), nil
}

// Pay settles part or all of the purchase's due from the store balance.
// Purchase and supplier dues are reduced first, then the ledger debited
// under the payment reference; failures (or an idempotent replay) revert
// the reductions. Status moves due → partial → paid as the due reaches 0.
func (s *purchaseService) Pay(ctx context.Context, purchaseID uuid.UUID, req dto.PayPurchaseRequest, actor uuid.UUID) (*dto.PurchaseResponse, error) {
	purchase, err := s.repo.FindByID(ctx, purchaseID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPurchaseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find purchase: %w", err)
	}
	if req.Amount.GreaterThan(purchase.DueAmount) {
		return nil, ErrPaymentTooLarge
	}

	paymentID := uuid.New().String()
	if req.ReferenceID != nil {
		paymentID = *req.ReferenceID
	}

	newPaid := purchase.PaidAmount.Add(req.Amount)
	newDue := purchase.DueAmount.Sub(req.Amount)
	newStatus := model.PurchaseStatusPartial
	if newDue.IsZero() {
		newStatus = model.PurchaseStatusPaid
	}

	if err := s.repo.UpdatePayment(ctx, purchaseID, newPaid, newDue, newStatus); err != nil {
		return nil, fmt.Errorf("update purchase payment: %w", err)
	}
	if err := s.suppliers.AdjustDue(ctx, purchase.SupplierID, req.Amount.Neg()); err != nil {
		if revertErr := s.repo.UpdatePayment(ctx, purchaseID, purchase.PaidAmount, purchase.DueAmount, purchase.Status); revertErr != nil {
			log.Error().Err(revertErr).Str("purchase_id", purchaseID.String()).Msg("purchase: payment revert failed")
		}
		return nil, fmt.Errorf("reduce supplier due: %w", err)
	}

	movement, err := s.ledger.SettlePurchasePayment(ctx, purchase.StoreID, paymentID, req.Amount, !req.AllowNegativeBalance, req.Notes, actor)
	if err != nil || movement.Duplicate {
		if revertErr := s.repo.UpdatePayment(ctx, purchaseID, purchase.PaidAmount, purchase.DueAmount, purchase.Status); revertErr != nil {
			log.Error().Err(revertErr).Str("purchase_id", purchaseID.String()).Msg("purchase: payment revert failed")
		}
		if revertErr := s.suppliers.AdjustDue(ctx, purchase.SupplierID, req.Amount); revertErr != nil {
			log.Error().Err(revertErr).Str("purchase_id", purchaseID.String()).Msg("purchase: supplier due revert failed")
		}
		if err != nil {
			return nil, err
		}
	}

	updated, err := s.repo.FindByID(ctx, purchaseID)
	if err != nil {
		return nil, fmt.Errorf("reload purchase: %w", err)
	}
	return purchaseToResponse(*updated), nil
}

func (s *purchaseService) Get(ctx context.Context, id uuid.UUID) (*dto.PurchaseResponse, error) {
	purchase, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPurchaseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find purchase: %w", err)
	}
	return purchaseToResponse(*purchase), nil
}

func (s *purchaseService) List(ctx context.Context, filter dto.PurchaseFilter) (*dto.PurchaseListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 200 {
		filter.Limit = 50
	}
	purchases, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	items := make([]dto.PurchaseResponse, 0, len(purchases))
	for _, p := range purchases {
		items = append(items, *purchaseToResponse(p))
	}
	return &dto.PurchaseListResponse{Data: items, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func purchaseToResponse(p model.Purchase) *dto.PurchaseResponse {
	resp := &dto.PurchaseResponse{
		ID:         p.ID.String(),
		StoreID:    p.StoreID.String(),
		SupplierID: p.SupplierID.String(),
		Total:      p.Total,
		PaidAmount: p.PaidAmount,
		DueAmount:  p.DueAmount,
		Status:     p.Status,
		Notes:      p.Notes,
		CreatedAt:  p.CreatedAt.Format(time.RFC3339),
	}
	if p.Supplier != nil {
		resp.Supplier = p.Supplier.Name
	}
	return resp
}
