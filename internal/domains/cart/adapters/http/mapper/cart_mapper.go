package mapper

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Th0mes/ignite-cart/internal/domains/cart/adapters/notify"
	cartdomain "github.com/Th0mes/ignite-cart/internal/domains/cart/domain"
)

// LineItem is the transport shape of a cart row.
type LineItem struct {
	ID                int64  `json:"id"`
	Title             string `json:"title"`
	Image             string `json:"image"`
	Price             string `json:"price"`
	PriceFormatted    string `json:"priceFormatted"`
	Amount            int    `json:"amount"`
	Available         *int   `json:"available,omitempty"`
	Subtotal          string `json:"subtotal"`
	SubtotalFormatted string `json:"subtotalFormatted"`
}

type Cart struct {
	Items          []LineItem `json:"items"`
	Quantity       int        `json:"quantity"`
	Total          string     `json:"total"`
	TotalFormatted string     `json:"totalFormatted"`
}

type Notification struct {
	Level   string    `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// CartResponse is returned by every cart endpoint.
type CartResponse struct {
	Cart          Cart           `json:"cart"`
	Notifications []Notification `json:"notifications"`
}

// SetQuantityRequest is the PUT body. Amount is a pointer so a missing field
// can be told apart from zero.
type SetQuantityRequest struct {
	Amount *int `json:"amount" binding:"required"`
}

func FromDomainCart(cart cartdomain.Cart) Cart {
	items := make([]LineItem, 0, len(cart))
	for _, item := range cart {
		subtotal := item.Subtotal()
		items = append(items, LineItem{
			ID:                int64(item.ID),
			Title:             item.Title,
			Image:             item.Image,
			Price:             item.Price.StringFixed(2),
			PriceFormatted:    FormatBRL(item.Price),
			Amount:            item.Amount,
			Available:         item.Available,
			Subtotal:          subtotal.StringFixed(2),
			SubtotalFormatted: FormatBRL(subtotal),
		})
	}
	total := cart.Total()
	return Cart{
		Items:          items,
		Quantity:       cart.Quantity(),
		Total:          total.StringFixed(2),
		TotalFormatted: FormatBRL(total),
	}
}

func FromNotifications(in []notify.Notification) []Notification {
	out := make([]Notification, 0, len(in))
	for _, n := range in {
		out = append(out, Notification{Level: n.Level, Message: n.Message, At: n.At})
	}
	return out
}

// FormatBRL renders an amount the way the storefront shows prices, e.g. "R$ 1.234,50".
func FormatBRL(amount decimal.Decimal) string {
	fixed := amount.Abs().StringFixed(2)
	whole, cents, _ := strings.Cut(fixed, ".")

	var grouped strings.Builder
	for i, digit := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(digit)
	}
	sign := ""
	if amount.IsNegative() {
		sign = "-"
	}
	return sign + "R$ " + grouped.String() + "," + cents
}
