package application

import (
	"errors"
	"fmt"

	"github.com/Th0mes/ignite-cart/internal/domains/cart/domain"
	"github.com/Th0mes/ignite-cart/internal/domains/cart/ports"
)

var (
	// ErrExternalService signals the inventory lookup failed.
	ErrExternalService = errors.New("inventory service call failed")
	// ErrStockExceeded signals the requested amount is above the available stock.
	ErrStockExceeded = errors.New("requested amount exceeds available stock")
	// ErrInvalidTarget signals the operation referenced a product absent from the cart.
	ErrInvalidTarget = errors.New("product is not in the cart")
	// ErrInvalidAmount signals a non-positive amount; it is never notified.
	ErrInvalidAmount = errors.New("amount must be greater than zero")
	// ErrPersistence signals the cart could not be written to the persistent store.
	ErrPersistence = errors.New("cart could not be persisted")
)

// Operation names a mutating cart use case.
type Operation string

const (
	OpAddItem     Operation = "add_item"
	OpRemoveItem  Operation = "remove_item"
	OpSetQuantity Operation = "set_quantity"
)

// User-facing notifier messages.
const (
	MsgAddFailed      = "Erro na adição do produto"
	MsgOutOfStock     = "Quantidade solicitada fora de estoque"
	MsgRemoveFailed   = "Erro na remoção do produto"
	MsgQuantityFailed = "Erro na alteração de quantidade do produto"
)

// Notice maps an operation failure to the message shown to the shopper.
// It reports false when the failure must stay silent.
func Notice(op Operation, err error) (string, bool) {
	switch {
	case err == nil, errors.Is(err, ErrInvalidAmount):
		return "", false
	case errors.Is(err, ErrStockExceeded):
		return MsgOutOfStock, true
	}
	switch op {
	case OpAddItem:
		return MsgAddFailed, true
	case OpRemoveItem:
		return MsgRemoveFailed, true
	case OpSetQuantity:
		return MsgQuantityFailed, true
	default:
		return "", false
	}
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, domain.ErrItemNotFound):
		return fmt.Errorf("%w: %w", ErrInvalidTarget, err)
	case errors.Is(err, domain.ErrInvalidAmount):
		return fmt.Errorf("%w: %w", ErrInvalidAmount, err)
	case errors.Is(err, ports.ErrProductNotFound):
		return fmt.Errorf("%w: %w", ErrExternalService, err)
	}
	return err
}
