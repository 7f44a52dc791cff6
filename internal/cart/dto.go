package cart

import (
	"github.com/shopspring/decimal"
)

// ItemView is one resolved cart line joined with its catalog product.
type ItemView struct {
	ProductID  int64           `json:"product_id"`
	Name       string          `json:"name"`
	Slug       string          `json:"slug"`
	ImageURL   *string         `json:"image_url,omitempty"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Quantity   int             `json:"quantity"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// View is the full cart payload returned to clients.
type View struct {
	Items         []ItemView      `json:"items"`
	TotalQuantity int             `json:"total_quantity"`
	TotalPrice    decimal.Decimal `json:"total_price"`
}
