package ports

import (
	"context"
	"errors"
	"time"

	"github.com/Apurer/farmasync/internal/domains/ventas/domain"
)

var ErrNotFound = errors.New("sale not found")

// SaleFilter narrows List. Zero values match everything.
type SaleFilter struct {
	SellerID *int64
	ClientID *int64
	// SoldFrom and SoldTo bound SoldOn inclusively.
	SoldFrom *time.Time
	SoldTo   *time.Time
}

// Repository persists sales together with their lines and history.
type Repository interface {
	// Save inserts the sale when ID is zero, otherwise updates its header. Stored lines are
	// replaced only when the sale carries a line without ID.
	Save(ctx context.Context, sale *domain.Sale) (*domain.Sale, error)
	// SaveWithHistory saves the sale and appends entry for it atomically. entry.SaleID is
	// taken from the saved sale.
	SaveWithHistory(ctx context.Context, sale *domain.Sale, entry domain.HistoryEntry) (*domain.Sale, error)
	GetByID(ctx context.Context, id int64) (*domain.Sale, error)
	// Delete removes the sale along with its lines and history.
	Delete(ctx context.Context, id int64) error
	// List returns matching sales, newest SoldOn first.
	List(ctx context.Context, filter SaleFilter) ([]*domain.Sale, error)
	AppendHistory(ctx context.Context, entry domain.HistoryEntry) (domain.HistoryEntry, error)
	// History returns the entries of a sale, newest first.
	History(ctx context.Context, saleID int64) ([]domain.HistoryEntry, error)
}
