//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// The cart API consumes the inventory and is consumed by the storefront.
const (
	CartProvider      = "ignite-cart-api"
	StorefrontName    = "rocketshoes-storefront"
	InventoryProvider = "rocketshoes-inventory"
	CartConsumer      = "ignite-cart"

	StateProductInStock = "product 1 has 3 units in stock"
	StateProductMissing = "no product with id 404"
	StateCartEmpty      = "the pact session cart is empty"
	StateCartHasProduct = "the pact session cart holds product 1"
)

const (
	StockedProductID int64 = 1
	MissingProductID int64 = 404
	SessionID              = "pact-session"
)

// ExampleProductPayload mirrors the catalog fixture for product 1.
func ExampleProductPayload() map[string]any {
	return map[string]any{
		"id":    StockedProductID,
		"title": "Tênis de Caminhada Leve Confortável",
		"price": 179.9,
		"image": "https://rocketseat-cdn.s3-sa-east-1.amazonaws.com/modulo-redux/tenis1.jpg",
	}
}

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the pact file path written for consumer against provider.
func PactFile(t testing.TB, consumer, provider string) string {
	t.Helper()
	return filepath.Join(PactDir(t), consumer+"-"+provider+".json")
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// projectRoot walks up from this file to the workspace root.
func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
