package cart

import (
	"context"
	"slices"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/lapzone/lapzone-backend/pkg/db/models"
)

// Line is one cart entry: a quantity plus the unit price snapshotted when
// the line was first created. The snapshot is deliberately never refreshed;
// catalog price changes do not move lines already in a cart.
type Line struct {
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// Store persists cart snapshots keyed by session id. A missing snapshot is
// an empty cart, not an error.
type Store interface {
	Load(ctx context.Context, sessionID string) (map[string]Line, error)
	Save(ctx context.Context, sessionID string, lines map[string]Line) error
	Delete(ctx context.Context, sessionID string) error
}

// Cart materializes one shopper's session cart. It is rebuilt per request
// from the store; concurrent writers to the same session are last-write-wins.
type Cart struct {
	store     Store
	sessionID string
	lines     map[string]Line
}

// New loads the cart snapshot for the session.
func New(ctx context.Context, store Store, sessionID string) (*Cart, error) {
	lines, err := store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if lines == nil {
		lines = map[string]Line{}
	}
	return &Cart{store: store, sessionID: sessionID, lines: lines}, nil
}

func lineKey(productID int64) string {
	return strconv.FormatInt(productID, 10)
}

// Add puts the product in the cart. A missing line is created with
// quantity 0 and the product's current price as its snapshot; the quantity
// is then either replaced (updateQuantity) or incremented.
func (c *Cart) Add(ctx context.Context, product *models.Product, quantity int, updateQuantity bool) error {
	key := lineKey(product.ID)
	line, ok := c.lines[key]
	if !ok {
		line = Line{Quantity: 0, Price: product.Price}
	}

	if updateQuantity {
		line.Quantity = quantity
	} else {
		line.Quantity += quantity
	}
	c.lines[key] = line

	return c.save(ctx)
}

// Update replaces the quantity of an existing line and is a silent no-op
// when the product is not in the cart. The price snapshot is untouched.
func (c *Cart) Update(ctx context.Context, productID int64, quantity int) error {
	key := lineKey(productID)
	line, ok := c.lines[key]
	if !ok {
		return nil
	}
	line.Quantity = quantity
	c.lines[key] = line

	return c.save(ctx)
}

// Remove drops the product's line; no-op when absent.
func (c *Cart) Remove(ctx context.Context, productID int64) error {
	key := lineKey(productID)
	if _, ok := c.lines[key]; !ok {
		return nil
	}
	delete(c.lines, key)

	return c.save(ctx)
}

// Clear deletes the whole session snapshot. Safe to call on an empty cart.
func (c *Cart) Clear(ctx context.Context) error {
	c.lines = map[string]Line{}
	return c.store.Delete(ctx, c.sessionID)
}

// Len is the total number of units across all lines.
func (c *Cart) Len() int {
	total := 0
	for _, line := range c.lines {
		total += line.Quantity
	}
	return total
}

// TotalPrice sums unit price times quantity over the stored snapshots.
func (c *Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.lines {
		total = total.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}

// ProductIDs returns the ids of all lines in ascending order.
func (c *Cart) ProductIDs() []int64 {
	ids := make([]int64, 0, len(c.lines))
	for key := range c.lines {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Line returns the entry for the product and whether it exists.
func (c *Cart) Line(productID int64) (Line, bool) {
	line, ok := c.lines[lineKey(productID)]
	return line, ok
}

// Empty reports whether the cart holds no lines.
func (c *Cart) Empty() bool {
	return len(c.lines) == 0
}

func (c *Cart) save(ctx context.Context) error {
	return c.store.Save(ctx, c.sessionID, c.lines)
}
