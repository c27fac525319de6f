package ports

import (
	"context"
	"errors"

	"github.com/Th0mes/ignite-cart/internal/domains/cart/domain"
)

var ErrProductNotFound = errors.New("product not found in inventory")

// InventoryService is the read-only catalog and stock lookup.
// Every call may fail with a transport or server error.
type InventoryService interface {
	Stock(ctx context.Context, id domain.ProductID) (domain.Stock, error)
	Product(ctx context.Context, id domain.ProductID) (domain.Product, error)
}
