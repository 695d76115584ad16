package pedidos

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	pedidosports "github.com/Apurer/farmasync/internal/domains/pedidos/ports"
)

const (
	// RegisterStockInActivityName posts one inventory "entrada" for an order line.
	RegisterStockInActivityName = "pedidos.activities.RegisterStockIn"
	// ProductNotFoundErrorType marks a reference inventory does not know.
	ProductNotFoundErrorType = "ProductNotFound"
)

// StockInLine is the activity payload for a single order line.
type StockInLine struct {
	OrderID    int64
	ProductRef string
	Quantity   int
}

// Activities groups the inventory side effects of the pedidos bounded context.
type Activities struct {
	inventory pedidosports.Inventory
}

// NewActivities wires the inventory port into the Temporal activities bundle.
func NewActivities(inventory pedidosports.Inventory) *Activities {
	return &Activities{inventory: inventory}
}

// RegisterStockIn adds the line quantity to the product stock.
func (a *Activities) RegisterStockIn(ctx context.Context, line StockInLine) error {
	logger := activity.GetLogger(ctx)
	if a == nil || a.inventory == nil {
		logger.Error("stock-in activity not initialized", "orderId", line.OrderID)
		return errors.New("stock-in activity not initialized")
	}

	logger.Info("RegisterStockIn activity started", "orderId", line.OrderID, "productRef", line.ProductRef, "quantity", line.Quantity)
	if err := a.inventory.RegisterStockIn(ctx, line.ProductRef, line.Quantity); err != nil {
		logger.Error("RegisterStockIn activity failed", "orderId", line.OrderID, "productRef", line.ProductRef, "error", err)
		if errors.Is(err, pedidosports.ErrProductNotFound) {
			return temporal.NewNonRetryableApplicationError(err.Error(), ProductNotFoundErrorType, err)
		}
		return err
	}
	logger.Info("RegisterStockIn activity completed", "orderId", line.OrderID, "productRef", line.ProductRef)
	return nil
}
