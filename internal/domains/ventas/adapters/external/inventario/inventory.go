// Package inventario adapts the inventory HTTP client to the ventas inventory port.
package inventario

import (
	"context"
	"errors"
	"fmt"
	"strings"

	inventarioclient "github.com/Apurer/farmasync/internal/clients/http/inventario"
	"github.com/Apurer/farmasync/internal/domains/ventas/domain"
	"github.com/Apurer/farmasync/internal/domains/ventas/ports"
)

// ProductClient is the subset of the inventory client used by ventas.
type ProductClient interface {
	GetProduct(ctx context.Context, id string) (*inventarioclient.Product, error)
	SearchProducts(ctx context.Context, name string) ([]inventarioclient.Product, error)
	RegisterStockOut(ctx context.Context, id string, quantity int) error
}

// Inventory implements ports.Inventory over HTTP.
type Inventory struct {
	client ProductClient
}

func NewInventory(client ProductClient) *Inventory {
	return &Inventory{client: client}
}

// FindProduct looks ref up as a product id and, when that lookup fails for any reason, as a product name.
// An exact case-insensitive name match wins over the first search result.
func (i *Inventory) FindProduct(ctx context.Context, ref string) (domain.Product, error) {
	if i == nil || i.client == nil {
		return domain.Product{}, errors.New("inventory adapter not configured")
	}
	product, directErr := i.client.GetProduct(ctx, ref)
	if directErr == nil {
		return toDomain(*product), nil
	}
	matches, err := i.client.SearchProducts(ctx, ref)
	if err != nil {
		return domain.Product{}, errors.Join(directErr, err)
	}
	if len(matches) == 0 {
		return domain.Product{}, fmt.Errorf("%w: %s", ports.ErrProductNotFound, ref)
	}
	for _, match := range matches {
		if strings.EqualFold(match.Name, ref) {
			return toDomain(match), nil
		}
	}
	return toDomain(matches[0]), nil
}

func (i *Inventory) RegisterStockOut(ctx context.Context, productRef string, quantity int) error {
	if i == nil || i.client == nil {
		return errors.New("inventory adapter not configured")
	}
	err := i.client.RegisterStockOut(ctx, productRef, quantity)
	if errors.Is(err, inventarioclient.ErrProductNotFound) {
		return fmt.Errorf("%w: %s", ports.ErrProductNotFound, productRef)
	}
	return err
}

func toDomain(p inventarioclient.Product) domain.Product {
	return domain.Product{
		Ref:      p.ID,
		Name:     p.Name,
		ImageURL: p.ImageURL,
		Price:    p.Price,
		Stock:    p.Stock,
	}
}

var _ ports.Inventory = (*Inventory)(nil)
