package service

import (
	"context"
	"errors"
	"fmt"

	"bdhishab/internal/dto"
	"bdhishab/internal/model"
	"bdhishab/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var (
	ErrSupplierNotFound   = errors.New("supplier not found")
	ErrSettlementTooLarge = errors.New("settlement amount exceeds supplier due")
)

type SupplierService interface {
	Create(ctx context.Context, req dto.CreateSupplierRequest) (*dto.SupplierResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.SupplierResponse, error)
	List(ctx context.Context) ([]dto.SupplierResponse, error)
	SettleDue(ctx context.Context, supplierID uuid.UUID, req dto.SettleDueRequest, actor uuid.UUID) (*dto.SettlementResponse, error)
}

type supplierService struct {
	repo   repository.SupplierRepository
	ledger LedgerService
}

func NewSupplierService(repo repository.SupplierRepository, ledger LedgerService) SupplierService {
	return &supplierService{repo: repo, ledger: ledger}
}

func (s *supplierService) Create(ctx context.Context, req dto.CreateSupplierRequest) (*dto.SupplierResponse, error) {
	supplier := model.Supplier{
		ID:     uuid.New(),
		Name:   req.Name,
		Phone:  req.Phone,
		Email:  req.Email,
		Active: true,
	}
	if err := s.repo.Create(ctx, &supplier); err != nil {
		return nil, fmt.Errorf("create supplier: %w", err)
	}
	return supplierToResponse(supplier), nil
}

func (s *supplierService) Get(ctx context.Context, id uuid.UUID) (*dto.SupplierResponse, error) {
	supplier, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSupplierNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find supplier: %w", err)
	}
	return supplierToResponse(*supplier), nil
}

func (s *supplierService) List(ctx context.Context) ([]dto.SupplierResponse, error) {
	suppliers, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list suppliers: %w", err)
	}
	items := make([]dto.SupplierResponse, 0, len(suppliers))
	for _, sup := range suppliers {
		items = append(items, *supplierToResponse(sup))
	}
	return items, nil
}

// SettleDue pays down the supplier's due from a store's cash balance. The
// due is reduced first, then the ledger is debited under the shared payment
// reference; a rejected debit adds the due back. A retried settlement with
// the same reference hits the idempotency guard in the ledger, so the
// second due reduction is reverted and the original entry's result returned.
func (s *supplierService) SettleDue(ctx context.Context, supplierID uuid.UUID, req dto.SettleDueRequest, actor uuid.UUID) (*dto.SettlementResponse, error) {
	storeID, err := uuid.Parse(req.StoreID)
	if err != nil {
		return nil, fmt.Errorf("invalid store_id: %w", err)
	}

	supplier, err := s.repo.FindByID(ctx, supplierID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSupplierNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find supplier: %w", err)
	}
	if req.Amount.GreaterThan(supplier.DueAmount) {
		return nil, ErrSettlementTooLarge
	}

	paymentID := uuid.New().String()
	if req.ReferenceID != nil {
		paymentID = *req.ReferenceID
	}

	if err := s.repo.AdjustDue(ctx, supplierID, req.Amount.Neg()); err != nil {
		return nil, fmt.Errorf("reduce supplier due: %w", err)
	}

	movement, err := s.ledger.SettleSupplierDue(ctx, storeID, paymentID, req.Amount, !req.AllowNegativeBalance, req.Notes, actor)
	if err != nil || movement.Duplicate {
		if revertErr := s.repo.AdjustDue(ctx, supplierID, req.Amount); revertErr != nil {
			log.Error().Err(revertErr).Str("supplier_id", supplierID.String()).Msg("supplier: due revert failed")
		}
		if err != nil {
			return nil, err
		}
	}

	updated, err := s.repo.FindByID(ctx, supplierID)
	if err != nil {
		return nil, fmt.Errorf("reload supplier: %w", err)
	}
	return &dto.SettlementResponse{
		ReferenceID:  paymentID,
		PaidAmount:   movement.Entry.Amount.Abs(),
		RemainingDue: updated.DueAmount,
		NewBalance:   movement.NewBalance,
	}, nil
}

func supplierToResponse(s model.Supplier) *dto.SupplierResponse {
	return &dto.SupplierResponse{
		ID:        s.ID.String(),
		Name:      s.Name,
		Phone:     s.Phone,
		Email:     s.Email,
		DueAmount: s.DueAmount,
		Active:    s.Active,
	}
}
