package ports

import (
	"context"
	"errors"

	"github.com/Apurer/farmasync/internal/domains/ventas/domain"
)

// ErrProductNotFound is returned by Inventory when a product reference is unknown.
var ErrProductNotFound = errors.New("product not found in inventory")

// Inventory is the outbound port to the inventory service.
type Inventory interface {
	// FindProduct resolves ref as a product id first and as a name second.
	// It returns ErrProductNotFound when neither matches.
	FindProduct(ctx context.Context, ref string) (domain.Product, error)
	RegisterStockOut(ctx context.Context, productRef string, quantity int) error
}
