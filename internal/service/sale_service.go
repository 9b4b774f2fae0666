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
	ErrSaleNotFound        = errors.New("sale not found")
	ErrSaleAlreadyRefunded = errors.New("sale already refunded")
	ErrRefundExceedsTotal  = errors.New("refund amount exceeds sale total")
)

type SaleService interface {
	Create(ctx context.Context, req dto.CreateSaleRequest, actor uuid.UUID) (*dto.SaleResponse, error)
	Refund(ctx context.Context, saleID uuid.UUID, req dto.RefundSaleRequest, actor uuid.UUID) (*dto.SaleResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.SaleResponse, error)
	List(ctx context.Context, filter dto.SaleFilter) (*dto.SaleListResponse, error)
}

type saleService struct {
	repo   repository.SaleRepository
	ledger LedgerService
}

func NewSaleService(repo repository.SaleRepository, ledger LedgerService) SaleService {
	return &saleService{repo: repo, ledger: ledger}
}

// Create records the sale and credits the store balance. The sale's own id
// is the ledger reference, so a retried credit for the same sale is a no-op.
func (s *saleService) Create(ctx context.Context, req dto.CreateSaleRequest, actor uuid.UUID) (*dto.SaleResponse, error) {
	storeID, err := uuid.Parse(req.StoreID)
	if err != nil {
		return nil, fmt.Errorf("invalid store_id: %w", err)
	}

	sale := model.Sale{
		ID:        uuid.New(),
		StoreID:   storeID,
		Total:     req.Total,
		Notes:     req.Notes,
		Status:    model.SaleStatusCompleted,
		CreatedBy: actor,
	}
	if err := s.repo.Create(ctx, &sale); err != nil {
		return nil, fmt.Errorf("create sale: %w", err)
	}

	movement, err := s.ledger.RecordSaleIncome(ctx, storeID, sale.ID, sale.Total, actor)
	if err != nil {
		// The sale row must not survive without its ledger credit.
		if delErr := s.repo.Delete(ctx, sale.ID); delErr != nil {
			log.Error().Err(delErr).Str("sale_id", sale.ID.String()).Msg("sale: compensation delete failed")
		}
		return nil, err
	}

	resp := saleToResponse(sale)
	resp.NewBalance = movement.NewBalance
	return resp, nil
}

// Refund debits the balance for a completed sale and marks it refunded.
// One refund per sale: the sale id is the ledger reference, so a second
// attempt returns the original refund entry instead of debiting again.
func (s *saleService) Refund(ctx context.Context, saleID uuid.UUID, req dto.RefundSaleRequest, actor uuid.UUID) (*dto.SaleResponse, error) {
	sale, err := s.repo.FindByID(ctx, saleID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSaleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find sale: %w", err)
	}
	if sale.Status == model.SaleStatusRefunded {
		return nil, ErrSaleAlreadyRefunded
	}

	amount := sale.Total
	if req.Amount != nil {
		amount = *req.Amount
		if amount.GreaterThan(sale.Total) {
			return nil, ErrRefundExceedsTotal
		}
		if !amount.IsPositive() {
			return nil, errors.New("refund amount must be positive")
		}
	}

	movement, err := s.ledger.Refund(ctx, sale.StoreID, sale.ID, amount, req.Notes, actor)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, sale.ID, model.SaleStatusRefunded); err != nil {
		return nil, fmt.Errorf("mark sale refunded: %w", err)
	}

	sale.Status = model.SaleStatusRefunded
	resp := saleToResponse(*sale)
	resp.NewBalance = movement.NewBalance
	return resp, nil
}

func (s *saleService) Get(ctx context.Context, id uuid.UUID) (*dto.SaleResponse, error) {
	sale, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSaleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find sale: %w", err)
	}
	return saleToResponse(*sale), nil
}

func (s *saleService) List(ctx context.Context, filter dto.SaleFilter) (*dto.SaleListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 200 {
		filter.Limit = 50
	}
	sales, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	items := make([]dto.SaleResponse, 0, len(sales))
	for _, sale := range sales {
		items = append(items, *saleToResponse(sale))
	}
	return &dto.SaleListResponse{Data: items, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func saleToResponse(sale model.Sale) *dto.SaleResponse {
	return &dto.SaleResponse{
		ID:        sale.ID.String(),
		StoreID:   sale.StoreID.String(),
		Total:     sale.Total,
		Status:    sale.Status,
		Notes:     sale.Notes,
		CreatedAt: sale.CreatedAt.Format(time.RFC3339),
	}
}
