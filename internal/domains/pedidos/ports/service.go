package ports

import (
	"context"

	"github.com/Apurer/farmasync/internal/domains/pedidos/domain"
)

// ChangeStatusInput carries a lifecycle transition request.
type ChangeStatusInput struct {
	OrderID int64
	Status  domain.Status
	UserID  int64
	Notes   string
}

// Service exposes supplier order use cases to adapters.
type Service interface {
	CreateOrder(ctx context.Context, draft domain.Draft) (*domain.Order, error)
	GetOrder(ctx context.Context, id int64) (*domain.Order, error)
	ListOrders(ctx context.Context, filter OrderFilter) ([]*domain.Order, error)
	UpdateOrder(ctx context.Context, id int64, draft domain.Draft) (*domain.Order, error)
	DeleteOrder(ctx context.Context, id int64) error
	ChangeStatus(ctx context.Context, input ChangeStatusInput) (*domain.Order, error)
	History(ctx context.Context, orderID int64) ([]domain.HistoryEntry, error)
}
