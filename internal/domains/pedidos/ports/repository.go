package ports

import (
	"context"
	"errors"
	"time"

	"github.com/Apurer/farmasync/internal/domains/pedidos/domain"
)

var ErrNotFound = errors.New("order not found")

// OrderFilter narrows List. Zero values match everything.
type OrderFilter struct {
	SupplierID *int64
	CreatedBy  *int64
	Statuses   []domain.Status
	// OrderedFrom and OrderedTo bound OrderedAt inclusively.
	OrderedFrom *time.Time
	OrderedTo   *time.Time
}

// Repository persists orders together with their lines and history.
type Repository interface {
	// Save inserts the order when ID is zero, otherwise updates its header. Stored lines are
	// replaced only when the order carries a line without ID; otherwise they keep their IDs.
	Save(ctx context.Context, order *domain.Order) (*domain.Order, error)
	// SaveWithHistory saves the order and appends entry for it as one unit. entry.OrderID is
	// taken from the saved order. Nothing is stored when either write fails.
	SaveWithHistory(ctx context.Context, order *domain.Order, entry domain.HistoryEntry) (*domain.Order, error)
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	// Delete removes the order along with its lines and history.
	Delete(ctx context.Context, id int64) error
	// List returns matching orders, newest OrderedAt first.
	List(ctx context.Context, filter OrderFilter) ([]*domain.Order, error)
	AppendHistory(ctx context.Context, entry domain.HistoryEntry) (domain.HistoryEntry, error)
	// History returns the entries of an order, newest first.
	History(ctx context.Context, orderID int64) ([]domain.HistoryEntry, error)
}
