package ports

import (
	"context"

	"github.com/Apurer/farmasync/internal/domains/ventas/domain"
)

// Service exposes sales use cases to adapters.
type Service interface {
	CreateSale(ctx context.Context, draft domain.Draft) (*domain.Sale, error)
	GetSale(ctx context.Context, id int64) (*domain.Sale, error)
	ListSales(ctx context.Context, filter SaleFilter) ([]*domain.Sale, error)
	// UpdateSale replaces client, total and, when draft carries any, the lines.
	UpdateSale(ctx context.Context, id int64, draft domain.Draft) (*domain.Sale, error)
	DeleteSale(ctx context.Context, id int64) error
	Lines(ctx context.Context, saleID int64) ([]domain.Line, error)
	History(ctx context.Context, saleID int64) ([]domain.HistoryEntry, error)
}
