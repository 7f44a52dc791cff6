package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lapzone/lapzone-backend/pkg/db/models"
)

// ItemDTO is one frozen order line as returned to clients.
type ItemDTO struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

// OrderDTO is the client view of a persisted order.
type OrderDTO struct {
	ID         uuid.UUID       `json:"id"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Items      []ItemDTO       `json:"items"`
	CreatedAt  time.Time       `json:"created_at"`
}

func toOrderDTO(order *models.Order) *OrderDTO {
	items := make([]ItemDTO, 0, len(order.Items))
	for i := range order.Items {
		item := &order.Items[i]
		dto := ItemDTO{
			ProductID:  item.ProductID,
			Price:      item.Price,
			Quantity:   item.Quantity,
			TotalPrice: item.TotalPrice,
		}
		if item.Product != nil {
			dto.ProductName = item.Product.Name
		}
		items = append(items, dto)
	}
	return &OrderDTO{
		ID:         order.ID,
		TotalPrice: order.TotalPrice,
		Items:      items,
		CreatedAt:  order.CreatedAt,
	}
}
