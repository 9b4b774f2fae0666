package service

import (
	"context"
	"errors"
	"fmt"

	"bdhishab/internal/dto"
	"bdhishab/internal/model"
	"bdhishab/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StoreService interface {
	Create(ctx context.Context, req dto.CreateStoreRequest) (*dto.StoreResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.StoreResponse, error)
	List(ctx context.Context) ([]dto.StoreResponse, error)
}

type storeService struct {
	repo repository.StoreRepository
}

func NewStoreService(repo repository.StoreRepository) StoreService {
	return &storeService{repo: repo}
}

// Create registers the store only. Its balance row is created lazily by the
// ledger on the first movement.
func (s *storeService) Create(ctx context.Context, req dto.CreateStoreRequest) (*dto.StoreResponse, error) {
	store := model.Store{
		ID:      uuid.New(),
		Name:    req.Name,
		Address: req.Address,
		Phone:   req.Phone,
		Active:  true,
	}
	if err := s.repo.Create(ctx, &store); err != nil {
		return nil, fmt.Errorf("create store: %w", err)
	}
	return storeToResponse(store), nil
}

func (s *storeService) Get(ctx context.Context, id uuid.UUID) (*dto.StoreResponse, error) {
	store, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrStoreNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find store: %w", err)
	}
	return storeToResponse(*store), nil
}

func (s *storeService) List(ctx context.Context) ([]dto.StoreResponse, error) {
	stores, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stores: %w", err)
	}
	items := make([]dto.StoreResponse, 0, len(stores))
	for _, st := range stores {
		items = append(items, *storeToResponse(st))
	}
	return items, nil
}

func storeToResponse(st model.Store) *dto.StoreResponse {
	return &dto.StoreResponse{
		ID:      st.ID.String(),
		Name:    st.Name,
		Address: st.Address,
		Phone:   st.Phone,
		Active:  st.Active,
	}
}
