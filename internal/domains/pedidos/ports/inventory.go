package ports

import (
	"context"
	"errors"
	"fmt"

	"github.com/Apurer/farmasync/internal/domains/pedidos/domain"
)

// ErrProductNotFound is returned by Inventory when a product reference is unknown.
var ErrProductNotFound = errors.New("product not found in inventory")

// Inventory is the outbound port to the inventory service.
type Inventory interface {
	// CheckProduct returns ErrProductNotFound for unknown references.
	CheckProduct(ctx context.Context, productRef string) error
	RegisterStockIn(ctx context.Context, productRef string, quantity int) error
}

// StockInOrchestrator registers the received quantities of a persisted order.
type StockInOrchestrator interface {
	RegisterStockIn(ctx context.Context, orderID int64, lines []domain.Line) error
}

// StockInError identifies the line whose stock-in failed.
type StockInError struct {
	ProductRef string
	Err        error
}

func (e *StockInError) Error() string {
	return fmt.Sprintf("stock-in failed for product %s: %v", e.ProductRef, e.Err)
}

func (e *StockInError) Unwrap() error { return e.Err }
