package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/Apurer/farmasync/internal/domains/ventas/domain"
	"github.com/Apurer/farmasync/internal/domains/ventas/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is an in-memory sale persistence adapter.
type Repository struct {
	mu          sync.RWMutex
	sales       map[int64]*domain.Sale
	history     map[int64][]domain.HistoryEntry
	nextID      int64
	nextLineID  int64
	nextEntryID int64
}

func NewRepository() *Repository {
	return &Repository{
		sales:   map[int64]*domain.Sale{},
		history: map[int64][]domain.HistoryEntry{},
	}
}

func (r *Repository) Save(_ context.Context, sale *domain.Sale) (*domain.Sale, error) {
	if sale == nil {
		return nil, errors.New("sale is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	saved, err := r.save(sale)
	if err != nil {
		return nil, err
	}
	return saved.Clone(), nil
}

func (r *Repository) SaveWithHistory(_ context.Context, sale *domain.Sale, entry domain.HistoryEntry) (*domain.Sale, error) {
	if sale == nil {
		return nil, errors.New("sale is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	saved, err := r.save(sale)
	if err != nil {
		return nil, err
	}
	entry.SaleID = saved.ID
	r.appendHistory(entry)
	return saved.Clone(), nil
}

func (r *Repository) save(sale *domain.Sale) (*domain.Sale, error) {
	clone := sale.Clone()
	if clone.ID == 0 {
		r.nextID++
		clone.ID = r.nextID
	} else if _, ok := r.sales[clone.ID]; !ok {
		return nil, ports.ErrNotFound
	}
	for i := range clone.Lines {
		if clone.Lines[i].ID == 0 {
			r.nextLineID++
			clone.Lines[i].ID = r.nextLineID
		}
	}
	r.sales[clone.ID] = clone
	return clone, nil
}

func (r *Repository) GetByID(_ context.Context, id int64) (*domain.Sale, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sale, ok := r.sales[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return sale.Clone(), nil
}

// Delete drops the sale and its history like the cascading foreign keys of the schema.
func (r *Repository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sales[id]; !ok {
		return ports.ErrNotFound
	}
	delete(r.sales, id)
	delete(r.history, id)
	return nil
}

func (r *Repository) List(_ context.Context, filter ports.SaleFilter) ([]*domain.Sale, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]*domain.Sale, 0, len(r.sales))
	for _, sale := range r.sales {
		if matches(sale, filter) {
			list = append(list, sale.Clone())
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].SoldOn.Equal(list[j].SoldOn) {
			return list[i].ID > list[j].ID
		}
		return list[i].SoldOn.After(list[j].SoldOn)
	})
	return list, nil
}

func (r *Repository) AppendHistory(_ context.Context, entry domain.HistoryEntry) (domain.HistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sales[entry.SaleID]; !ok {
		return domain.HistoryEntry{}, ports.ErrNotFound
	}
	return r.appendHistory(entry), nil
}

func (r *Repository) appendHistory(entry domain.HistoryEntry) domain.HistoryEntry {
	r.nextEntryID++
	entry.ID = r.nextEntryID
	r.history[entry.SaleID] = append(r.history[entry.SaleID], entry)
	return entry
}

func (r *Repository) History(_ context.Context, saleID int64) ([]domain.HistoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := r.history[saleID]
	out := make([]domain.HistoryEntry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		out = append(out, entries[i])
	}
	return out, nil
}

func matches(sale *domain.Sale, filter ports.SaleFilter) bool {
	if filter.SellerID != nil && sale.SellerID != *filter.SellerID {
		return false
	}
	if filter.ClientID != nil && sale.ClientID != *filter.ClientID {
		return false
	}
	if filter.SoldFrom != nil && sale.SoldOn.Before(*filter.SoldFrom) {
		return false
	}
	if filter.SoldTo != nil && sale.SoldOn.After(*filter.SoldTo) {
		return false
	}
	return true
}
