package mailing

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lapzone/lapzone-backend/internal/users"
	"github.com/lapzone/lapzone-backend/pkg/db/models"
)

// Repository persists mailing-list subscribers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a subscriber. A duplicate email surfaces as the driver's
// unique violation for the caller to translate.
func (r *Repository) Create(ctx context.Context, subscriber *models.Subscriber) (*models.Subscriber, error) {
	if subscriber.ID == uuid.Nil {
		subscriber.ID = uuid.New()
	}
	subscriber.Email = users.NormalizeEmail(subscriber.Email)
	if err := r.db.WithContext(ctx).Create(subscriber).Error; err != nil {
		return nil, err
	}
	return subscriber, nil
}

// DeleteByEmail removes a subscriber and reports how many rows went away.
func (r *Repository) DeleteByEmail(ctx context.Context, email string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("email = ?", users.NormalizeEmail(email)).
		Delete(&models.Subscriber{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
