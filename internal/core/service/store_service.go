package service

import (
	"context"

	"github.com/rl1809/store-inventory/internal/apperr"
	"github.com/rl1809/store-inventory/internal/core/domain"
	"github.com/rl1809/store-inventory/internal/port"
)

type StoreService struct {
	repo port.StoreRepository
}

func NewStoreService(repo port.StoreRepository) *StoreService {
	return &StoreService{repo: repo}
}

func (s *StoreService) AddStore(ctx context.Context, name, address string) (*domain.Store, error) {
	store, err := s.repo.CreateStore(ctx, name, address)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, err, "")
	}
	return store, nil
}

func (s *StoreService) GetStore(ctx context.Context, storeID int64) (*domain.Store, error) {
	store, err := s.repo.GetStore(ctx, storeID)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, err, "")
	}
	if store == nil {
		return nil, apperr.New(apperr.CodeNotFound, "Store not found")
	}
	return store, nil
}

func (s *StoreService) ListStores(ctx context.Context) ([]domain.Store, error) {
	stores, err := s.repo.ListStores(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, err, "")
	}
	return stores, nil
}
