package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ProductID identifies a catalog product.
type ProductID int64

var (
	ErrInvalidProductID = errors.New("product id must be greater than zero")
	ErrInvalidAmount    = errors.New("amount must be greater than zero")
	ErrDuplicateItem    = errors.New("cart already contains the product")
	ErrItemNotFound     = errors.New("product is not in the cart")
)

// Product carries the catalog details copied into a line item.
type Product struct {
	ID    ProductID
	Title string
	Price decimal.Decimal
	Image string
}

// Stock is the purchasable quantity reported by the inventory at fetch time.
type Stock struct {
	ProductID ProductID
	Amount    int
}

// Allows reports whether the requested amount fits in stock.
func (s Stock) Allows(amount int) bool {
	return amount <= s.Amount
}

// LineItem is one product in the cart with the quantity the shopper wants.
type LineItem struct {
	ID        ProductID
	Title     string
	Price     decimal.Decimal
	Image     string
	Available *int
	Amount    int
}

// NewLineItem builds a line item for a freshly fetched product.
func NewLineItem(product Product, stock Stock, amount int) (LineItem, error) {
	if product.ID <= 0 {
		return LineItem{}, ErrInvalidProductID
	}
	if amount <= 0 {
		return LineItem{}, ErrInvalidAmount
	}
	available := stock.Amount
	return LineItem{
		ID:        product.ID,
		Title:     product.Title,
		Price:     product.Price,
		Image:     product.Image,
		Available: &available,
		Amount:    amount,
	}, nil
}

// Subtotal is price times amount.
func (i LineItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Amount)))
}

func (i LineItem) clone() LineItem {
	if i.Available != nil {
		available := *i.Available
		i.Available = &available
	}
	return i
}

// Cart is the ordered set of line items, unique by product id.
// Values are treated as immutable snapshots: every mutator returns a copy.
type Cart []LineItem

// Validate enforces the amount and uniqueness invariants.
func (c Cart) Validate() error {
	seen := make(map[ProductID]struct{}, len(c))
	for _, item := range c {
		if item.ID <= 0 {
			return ErrInvalidProductID
		}
		if item.Amount <= 0 {
			return ErrInvalidAmount
		}
		if _, dup := seen[item.ID]; dup {
			return ErrDuplicateItem
		}
		seen[item.ID] = struct{}{}
	}
	return nil
}

// IndexOf returns the position of the product or -1.
func (c Cart) IndexOf(id ProductID) int {
	for i, item := range c {
		if item.ID == id {
			return i
		}
	}
	return -1
}

// Find returns a copy of the line item for the product.
func (c Cart) Find(id ProductID) (LineItem, bool) {
	idx := c.IndexOf(id)
	if idx < 0 {
		return LineItem{}, false
	}
	return c[idx].clone(), true
}

// AmountOf is the quantity in the cart, zero when absent.
func (c Cart) AmountOf(id ProductID) int {
	if item, ok := c.Find(id); ok {
		return item.Amount
	}
	return 0
}

// Clone deep-copies the cart.
func (c Cart) Clone() Cart {
	out := make(Cart, 0, len(c))
	for _, item := range c {
		out = append(out, item.clone())
	}
	return out
}

// Append adds a new line item at the end of the cart.
func (c Cart) Append(item LineItem) (Cart, error) {
	if item.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if c.IndexOf(item.ID) >= 0 {
		return nil, ErrDuplicateItem
	}
	return append(c.Clone(), item.clone()), nil
}

// WithAmount sets the exact amount of an existing line item in place.
func (c Cart) WithAmount(id ProductID, amount int, stock Stock) (Cart, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	idx := c.IndexOf(id)
	if idx < 0 {
		return nil, ErrItemNotFound
	}
	out := c.Clone()
	available := stock.Amount
	out[idx].Amount = amount
	out[idx].Available = &available
	return out, nil
}

// Without removes the line item for the product, keeping the order of the rest.
func (c Cart) Without(id ProductID) (Cart, error) {
	idx := c.IndexOf(id)
	if idx < 0 {
		return nil, ErrItemNotFound
	}
	out := make(Cart, 0, len(c)-1)
	for i, item := range c {
		if i == idx {
			continue
		}
		out = append(out, item.clone())
	}
	return out, nil
}

// Quantity sums the amounts of every line item.
func (c Cart) Quantity() int {
	total := 0
	for _, item := range c {
		total += item.Amount
	}
	return total
}

// Total sums the line item subtotals.
func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c {
		total = total.Add(item.Subtotal())
	}
	return total
}
