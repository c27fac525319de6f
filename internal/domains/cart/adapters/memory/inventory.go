package memory

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/Th0mes/ignite-cart/internal/domains/cart/domain"
	"github.com/Th0mes/ignite-cart/internal/domains/cart/ports"
)

var _ ports.InventoryService = (*Inventory)(nil)

// Inventory is an in-memory catalog used for local runs and tests.
type Inventory struct {
	mu       sync.RWMutex
	products map[domain.ProductID]domain.Product
	stock    map[domain.ProductID]int
}

func NewInventory() *Inventory {
	return &Inventory{
		products: map[domain.ProductID]domain.Product{},
		stock:    map[domain.ProductID]int{},
	}
}

// Put registers a product and its available amount.
func (i *Inventory) Put(product domain.Product, amount int) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.products[product.ID] = product
	i.stock[product.ID] = amount
}

// SetStock changes the available amount of a registered product.
func (i *Inventory) SetStock(id domain.ProductID, amount int) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.stock[id] = amount
}

func (i *Inventory) Stock(_ context.Context, id domain.ProductID) (domain.Stock, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	amount, ok := i.stock[id]
	if !ok {
		return domain.Stock{}, ports.ErrProductNotFound
	}
	return domain.Stock{ProductID: id, Amount: amount}, nil
}

func (i *Inventory) Product(_ context.Context, id domain.ProductID) (domain.Product, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	product, ok := i.products[id]
	if !ok {
		return domain.Product{}, ports.ErrProductNotFound
	}
	return product, nil
}

// NewDemoInventory seeds the RocketShoes catalog used when no inventory URL is configured.
func NewDemoInventory() *Inventory {
	inv := NewInventory()
	seed := []struct {
		title string
		price string
		image string
		stock int
	}{
		{"Tênis de Caminhada Leve Confortável", "179.9", "https://rocketseat-cdn.s3-sa-east-1.amazonaws.com/modulo-redux/tenis1.jpg", 3},
		{"Tênis VR Caminhada Confortável Detalhes Couro Masculino", "139.9", "https://rocketseat-cdn.s3-sa-east-1.amazonaws.com/modulo-redux/tenis2.jpg", 5},
		{"Tênis Adidas Duramo Lite 2.0", "219.9", "https://rocketseat-cdn.s3-sa-east-1.amazonaws.com/modulo-redux/tenis3.jpg", 2},
		{"Tênis VR Caminhada Confortável Detalhes Couro Masculino", "139.9", "https://rocketseat-cdn.s3-sa-east-1.amazonaws.com/modulo-redux/tenis2.jpg", 1},
		{"Tênis VR Caminhada Confortável Detalhes Couro Masculino", "139.9", "https://rocketseat-cdn.s3-sa-east-1.amazonaws.com/modulo-redux/tenis2.jpg", 5},
		{"Tênis de Caminhada Leve Confortável", "179.9", "https://rocketseat-cdn.s3-sa-east-1.amazonaws.com/modulo-redux/tenis1.jpg", 10},
	}
	for idx, p := range seed {
		id := domain.ProductID(idx + 1)
		inv.Put(domain.Product{ID: id, Title: p.title, Price: decimal.RequireFromString(p.price), Image: p.image}, p.stock)
	}
	return inv
}
