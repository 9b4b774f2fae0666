package service

import (
	"context"
	"fmt"
	"time"

	"bdhishab/internal/dto"
	"bdhishab/internal/model"
	"bdhishab/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type ExpenseService interface {
	Create(ctx context.Context, req dto.CreateExpenseRequest, actor uuid.UUID) (*dto.ExpenseResponse, error)
	List(ctx context.Context, filter dto.ExpenseFilter) (*dto.ExpenseListResponse, error)
}

type expenseService struct {
	repo   repository.ExpenseRepository
	stores repository.StoreRepository
	ledger LedgerService
}

func NewExpenseService(repo repository.ExpenseRepository, stores repository.StoreRepository, ledger LedgerService) ExpenseService {
	return &expenseService{repo: repo, stores: stores, ledger: ledger}
}

// Create records the expense and, when DeductFromBalance is set, debits the
// store balance. A rejected deduction (insufficient funds) rolls the expense
// row back too: the expense table never shows a deducting expense the ledger
// refused.
func (s *expenseService) Create(ctx context.Context, req dto.CreateExpenseRequest, actor uuid.UUID) (*dto.ExpenseResponse, error) {
	storeID, err := uuid.Parse(req.StoreID)
	if err != nil {
		return nil, fmt.Errorf("invalid store_id: %w", err)
	}
	exists, err := s.stores.Exists(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("%w: check store: %v", ErrPersistence, err)
	}
	if !exists {
		return nil, ErrStoreNotFound
	}

	expense := model.Expense{
		ID:                uuid.New(),
		StoreID:           storeID,
		Category:          req.Category,
		Amount:            req.Amount,
		Notes:             req.Notes,
		DeductFromBalance: req.DeductFromBalance,
		CreatedBy:         actor,
	}
	if err := s.repo.Create(ctx, &expense); err != nil {
		return nil, fmt.Errorf("create expense: %w", err)
	}

	resp := expenseToResponse(expense)

	if req.DeductFromBalance {
		movement, err := s.ledger.RecordExpense(ctx, storeID, expense.ID, req.Amount, !req.AllowNegativeBalance, req.Notes, actor)
		if err != nil {
			if delErr := s.repo.Delete(ctx, expense.ID); delErr != nil {
				log.Error().Err(delErr).Str("expense_id", expense.ID.String()).Msg("expense: compensation delete failed")
			}
			return nil, err
		}
		resp.NewBalance = &movement.NewBalance
	}
	return resp, nil
}

func (s *expenseService) List(ctx context.Context, filter dto.ExpenseFilter) (*dto.ExpenseListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 200 {
		filter.Limit = 50
	}
	expenses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	items := make([]dto.ExpenseResponse, 0, len(expenses))
	for _, e := range expenses {
		items = append(items, *expenseToResponse(e))
	}
	return &dto.ExpenseListResponse{Data: items, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func expenseToResponse(e model.Expense) *dto.ExpenseResponse {
	return &dto.ExpenseResponse{
		ID:                e.ID.String(),
		StoreID:           e.StoreID.String(),
		Category:          e.Category,
		Amount:            e.Amount,
		Notes:             e.Notes,
		DeductFromBalance: e.DeductFromBalance,
		CreatedAt:         e.CreatedAt.Format(time.RFC3339),
	}
}
