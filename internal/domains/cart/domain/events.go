package domain

import "time"

// Event is the base interface for all cart events.
type Event interface {
	EventName() string
	OccurredAt() time.Time
	SessionID() string
	Product() ProductID
}

// BaseEvent provides common event metadata.
type BaseEvent struct {
	Session   string
	Timestamp time.Time
}

// OccurredAt returns when the event occurred.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// SessionID returns the session owning the cart.
func (e BaseEvent) SessionID() string {
	return e.Session
}

// ItemAdded is raised when addItem commits, either inserting or incrementing.
type ItemAdded struct {
	BaseEvent
	ProductID ProductID
	Amount    int
}

// EventName returns the event type identifier.
func (e ItemAdded) EventName() string {
	return "cart.item.added"
}

// Product returns the affected product.
func (e ItemAdded) Product() ProductID {
	return e.ProductID
}

// ItemRemoved is raised when a line item leaves the cart.
type ItemRemoved struct {
	BaseEvent
	ProductID ProductID
}

// EventName returns the event type identifier.
func (e ItemRemoved) EventName() string {
	return "cart.item.removed"
}

// Product returns the affected product.
func (e ItemRemoved) Product() ProductID {
	return e.ProductID
}

// QuantityChanged is raised when setQuantity commits.
type QuantityChanged struct {
	BaseEvent
	ProductID ProductID
	From      int
	To        int
}

// EventName returns the event type identifier.
func (e QuantityChanged) EventName() string {
	return "cart.item.quantity_changed"
}

// Product returns the affected product.
func (e QuantityChanged) Product() ProductID {
	return e.ProductID
}
