package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/lapzone/lapzone-backend/internal/products"
	"github.com/lapzone/lapzone-backend/pkg/db/models"
	pkgerrors "github.com/lapzone/lapzone-backend/pkg/errors"
)

// User-facing notices. The storefront shows these verbatim.
const (
	MsgAdded   = "Product has successfully added to your cart."
	MsgUpdated = "The product quantity has successfully updated."
	MsgRemoved = "Product has successfully removed from your cart."
	MsgError   = "There was an error! Try again later."
)

// AddInput carries one add/update request.
type AddInput struct {
	ProductID      int64
	Quantity       int
	UpdateQuantity bool
}

// Service exposes the session cart operations.
type Service interface {
	Add(ctx context.Context, sessionID string, input AddInput) (string, error)
	Update(ctx context.Context, sessionID string, productID int64, quantity int) (string, error)
	Remove(ctx context.Context, sessionID string, productID int64) (string, error)
	View(ctx context.Context, sessionID string) (*View, error)
	Load(ctx context.Context, sessionID string) (*Cart, error)
	Clear(ctx context.Context, sessionID string) error
}

type service struct {
	store   Store
	catalog products.Reader
}

// NewService builds the cart service on a snapshot store and the catalog.
func NewService(store Store, catalog products.Reader) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("product reader required")
	}
	return &service{store: store, catalog: catalog}, nil
}

// Add validates the request, snapshots the product price on first add, and
// persists the new quantity.
func (s *service) Add(ctx context.Context, sessionID string, input AddInput) (string, error) {
	if err := validateSession(sessionID); err != nil {
		return "", err
	}
	if input.Quantity < 1 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, MsgError)
	}

	product, err := s.resolveProduct(ctx, input.ProductID)
	if err != nil {
		return "", err
	}

	current, err := New(ctx, s.store, sessionID)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if err := current.Add(ctx, product, input.Quantity, input.UpdateQuantity); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}

	return MsgAdded, nil
}

// Update sets the quantity of an existing line. The product must exist
// in the catalog; a line absent from the cart is left alone and the
// caller still gets a success notice.
func (s *service) Update(ctx context.Context, sessionID string, productID int64, quantity int) (string, error) {
	if err := validateSession(sessionID); err != nil {
		return "", err
	}
	if quantity < 1 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, MsgError)
	}

	product, err := s.resolveProduct(ctx, productID)
	if err != nil {
		return "", err
	}

	current, err := New(ctx, s.store, sessionID)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if err := current.Update(ctx, product.ID, quantity); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}

	return MsgUpdated, nil
}

func (s *service) Remove(ctx context.Context, sessionID string, productID int64) (string, error) {
	if err := validateSession(sessionID); err != nil {
		return "", err
	}

	product, err := s.resolveProduct(ctx, productID)
	if err != nil {
		return "", err
	}

	current, err := New(ctx, s.store, sessionID)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if err := current.Remove(ctx, product.ID); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}

	return MsgRemoved, nil
}

// View resolves every line against the catalog in one batched query and
// returns the lines in ascending product id order.
func (s *service) View(ctx context.Context, sessionID string) (*View, error) {
	if err := validateSession(sessionID); err != nil {
		return nil, err
	}

	current, err := New(ctx, s.store, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	ids := current.ProductIDs()
	rows, err := s.catalog.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart products")
	}

	items := make([]ItemView, 0, len(rows))
	for i := range rows {
		product := &rows[i]
		line, ok := current.Line(product.ID)
		if !ok {
			continue
		}
		items = append(items, ItemView{
			ProductID:  product.ID,
			Name:       product.Name,
			Slug:       product.Slug,
			ImageURL:   product.ImageURL,
			UnitPrice:  line.Price,
			Quantity:   line.Quantity,
			TotalPrice: line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))),
		})
	}

	return &View{
		Items:         items,
		TotalQuantity: current.Len(),
		TotalPrice:    current.TotalPrice(),
	}, nil
}

// Load materializes the raw cart for checkout.
func (s *service) Load(ctx context.Context, sessionID string) (*Cart, error) {
	if err := validateSession(sessionID); err != nil {
		return nil, err
	}
	current, err := New(ctx, s.store, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return current, nil
}

func (s *service) Clear(ctx context.Context, sessionID string) error {
	if err := validateSession(sessionID); err != nil {
		return err
	}
	current, err := New(ctx, s.store, sessionID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if err := current.Clear(ctx); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

func (s *service) resolveProduct(ctx context.Context, productID int64) (*models.Product, error) {
	product, err := s.catalog.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func validateSession(sessionID string) error {
	if sessionID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart session required")
	}
	return nil
}
