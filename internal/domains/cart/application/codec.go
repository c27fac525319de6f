package application

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Th0mes/ignite-cart/internal/domains/cart/domain"
)

// lineItemRecord is the persisted shape of a line item. Field names follow the
// catalog payload so a stored cart reads like the product list it came from.
type lineItemRecord struct {
	ID        int64           `json:"id"`
	Title     string          `json:"title"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image"`
	Available *int            `json:"available,omitempty"`
	Amount    int             `json:"amount"`
}

// EncodeCart serializes the cart as an ordered JSON array.
func EncodeCart(cart domain.Cart) (string, error) {
	records := make([]lineItemRecord, 0, len(cart))
	for _, item := range cart {
		records = append(records, lineItemRecord{
			ID:        int64(item.ID),
			Title:     item.Title,
			Price:     item.Price,
			Image:     item.Image,
			Available: item.Available,
			Amount:    item.Amount,
		})
	}
	payload, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("encode cart: %w", err)
	}
	return string(payload), nil
}

// DecodeCart parses a stored cart and rejects values breaking cart invariants.
func DecodeCart(raw string) (domain.Cart, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return domain.Cart{}, nil
	}
	var records []lineItemRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	cart := make(domain.Cart, 0, len(records))
	for _, rec := range records {
		cart = append(cart, domain.LineItem{
			ID:        domain.ProductID(rec.ID),
			Title:     rec.Title,
			Price:     rec.Price,
			Image:     rec.Image,
			Available: rec.Available,
			Amount:    rec.Amount,
		})
	}
	if err := cart.Validate(); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return cart, nil
}
