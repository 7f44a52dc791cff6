package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry. The cart and orders reference products but
// never mutate them; price changes after a cart line is created do not
// affect that line's snapshot.
type Product struct {
	ID          int64           `gorm:"column:id;primaryKey;autoIncrement"`
	Name        string          `gorm:"column:name;not null"`
	Slug        string          `gorm:"column:slug;not null;uniqueIndex"`
	Description string          `gorm:"column:description;not null;default:''"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Brand       string          `gorm:"column:brand;not null;default:''"`
	Category    string          `gorm:"column:category;not null;default:''"`
	Year        int             `gorm:"column:year;not null;default:0"`
	ImageURL    *string         `gorm:"column:image_url"`
	IsActive    bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
