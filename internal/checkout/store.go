package checkout

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/lapzone/lapzone-backend/internal/orders"
	"github.com/lapzone/lapzone-backend/pkg/db/models"
)

// RepositoryStore adapts the orders repository to the checkout order
// store, binding writes to the checkout transaction.
type RepositoryStore struct {
	repo *orders.Repository
}

// NewRepositoryStore wraps the orders repository.
func NewRepositoryStore(repo *orders.Repository) (*RepositoryStore, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &RepositoryStore{repo: repo}, nil
}

// CreateOrder writes the order and its items inside tx when one is given.
func (s *RepositoryStore) CreateOrder(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	if tx != nil {
		return s.repo.WithTx(tx).Create(ctx, order)
	}
	return s.repo.Create(ctx, order)
}
