package ports

import (
	"context"

	"github.com/Th0mes/ignite-cart/internal/domains/cart/domain"
)

// Service exposes the cart use cases to the UI layer (inbound/driving port).
// Operations never return errors: failures are reported through the Notifier
// and leave the cart untouched.
type Service interface {
	Cart(ctx context.Context) domain.Cart
	AddItem(ctx context.Context, id domain.ProductID)
	RemoveItem(ctx context.Context, id domain.ProductID)
	SetQuantity(ctx context.Context, id domain.ProductID, amount int)
}

// Sessions resolves the cart service owned by a browser session. The service
// stays pinned to the session until release is called.
type Sessions interface {
	Open(ctx context.Context, sessionID string) (svc Service, release func(), err error)
}
