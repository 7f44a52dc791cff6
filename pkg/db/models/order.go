package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is the durable result of a checkout. The id is supplied by the
// caller so the receipt email can reference it before the row exists, and
// total_price is a frozen snapshot of the cart total, never recomputed
// from the items.
type Order struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	UserID     uuid.UUID       `gorm:"column:user_id;type:uuid;not null;index"`
	TotalPrice decimal.Decimal `gorm:"column:total_price;type:numeric(12,2);not null"`
	Items      []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// OrderItem freezes one cart line at order-creation time. Items are never
// mutated afterwards; they disappear only via the order cascade or when
// the referenced product is deleted.
type OrderItem struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID    uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID  int64           `gorm:"column:product_id;not null"`
	Product    *Product        `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Price      decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Quantity   int             `gorm:"column:quantity;not null"`
	TotalPrice decimal.Decimal `gorm:"column:total_price;type:numeric(12,2);not null"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
}
