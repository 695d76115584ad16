//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const (
	PedidosProviderName = "farmasync-pedidos"
	PortalConsumerName  = "farmasync-portal"

	InventarioProviderName = "farmasync-inventario"
	VentasConsumerName     = "farmasync-ventas"

	StateOrdersBaseline = "no supplier orders"
	StateOrderPending   = "pending order with id 1 exists"

	StateProductExists  = "product p-100 exists with stock"
	StateProductMissing = "product p-404 does not exist"
)

const (
	ExistingOrderID int64 = 1
	MissingOrderID  int64 = 404

	SupplierID int64 = 7
	CreatorID  int64 = 3

	ExistingProductID = "p-100"
	MissingProductID  = "p-404"

	// BearerToken is accepted by the provider under verification without a signature check.
	BearerToken = "Bearer pact-token"
)

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the canonical pact file path for a consumer/provider pair.
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

// ExampleProductPayload mirrors the inventory product resource.
func ExampleProductPayload() map[string]any {
	return map[string]any{
		"id":         ExistingProductID,
		"nombre":     "Acetaminofén 500mg",
		"precio":     2.5,
		"stock":      40,
		"imagen_url": "https://example.pact/productos/acetaminofen.png",
	}
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
