// Package inventario adapts the inventory HTTP client to the pedidos inventory port.
package inventario

import (
	"context"
	"errors"
	"fmt"

	inventarioclient "github.com/Apurer/farmasync/internal/clients/http/inventario"
	"github.com/Apurer/farmasync/internal/domains/pedidos/ports"
)

// ProductClient is the subset of the inventory client used by pedidos.
type ProductClient interface {
	GetProduct(ctx context.Context, id string) (*inventarioclient.Product, error)
	RegisterStockIn(ctx context.Context, id string, quantity int) error
}

// Inventory implements ports.Inventory over HTTP.
type Inventory struct {
	client ProductClient
}

func NewInventory(client ProductClient) *Inventory {
	return &Inventory{client: client}
}

// CheckProduct confirms the product exists in inventory.
func (i *Inventory) CheckProduct(ctx context.Context, productRef string) error {
	if i == nil || i.client == nil {
		return errors.New("inventory adapter not configured")
	}
	_, err := i.client.GetProduct(ctx, productRef)
	if errors.Is(err, inventarioclient.ErrProductNotFound) {
		return fmt.Errorf("%w: %s", ports.ErrProductNotFound, productRef)
	}
	return err
}

func (i *Inventory) RegisterStockIn(ctx context.Context, productRef string, quantity int) error {
	if i == nil || i.client == nil {
		return errors.New("inventory adapter not configured")
	}
	err := i.client.RegisterStockIn(ctx, productRef, quantity)
	if errors.Is(err, inventarioclient.ErrProductNotFound) {
		return fmt.Errorf("%w: %s", ports.ErrProductNotFound, productRef)
	}
	return err
}

var _ ports.Inventory = (*Inventory)(nil)
