package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/Apurer/farmasync/internal/domains/pedidos/domain"
	"github.com/Apurer/farmasync/internal/domains/pedidos/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is an in-memory order persistence adapter.
type Repository struct {
	mu          sync.RWMutex
	orders      map[int64]*domain.Order
	history     map[int64][]domain.HistoryEntry
	nextID      int64
	nextLineID  int64
	nextEntryID int64
}

func NewRepository() *Repository {
	return &Repository{
		orders:  map[int64]*domain.Order{},
		history: map[int64][]domain.HistoryEntry{},
	}
}

func (r *Repository) Save(_ context.Context, order *domain.Order) (*domain.Order, error) {
	if order == nil {
		return nil, errors.New("order is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	saved, err := r.save(order)
	if err != nil {
		return nil, err
	}
	return saved.Clone(), nil
}

// SaveWithHistory stores the order and appends entry under a single lock.
func (r *Repository) SaveWithHistory(_ context.Context, order *domain.Order, entry domain.HistoryEntry) (*domain.Order, error) {
	if order == nil {
		return nil, errors.New("order is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	saved, err := r.save(order)
	if err != nil {
		return nil, err
	}
	entry.OrderID = saved.ID
	r.appendHistory(entry)
	return saved.Clone(), nil
}

// save must be called with mu held.
func (r *Repository) save(order *domain.Order) (*domain.Order, error) {
	clone := order.Clone()
	if clone.ID == 0 {
		r.nextID++
		clone.ID = r.nextID
	} else if _, ok := r.orders[clone.ID]; !ok {
		return nil, ports.ErrNotFound
	}
	for i := range clone.Lines {
		if clone.Lines[i].ID == 0 {
			r.nextLineID++
			clone.Lines[i].ID = r.nextLineID
		}
	}
	r.orders[clone.ID] = clone
	return clone, nil
}

func (r *Repository) GetByID(_ context.Context, id int64) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return order.Clone(), nil
}

// Delete drops the order and its history, mirroring the cascade of the relational schema.
func (r *Repository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[id]; !ok {
		return ports.ErrNotFound
	}
	delete(r.orders, id)
	delete(r.history, id)
	return nil
}

func (r *Repository) List(_ context.Context, filter ports.OrderFilter) ([]*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]*domain.Order, 0, len(r.orders))
	for _, order := range r.orders {
		if matches(order, filter) {
			list = append(list, order.Clone())
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].OrderedAt.Equal(list[j].OrderedAt) {
			return list[i].ID > list[j].ID
		}
		return list[i].OrderedAt.After(list[j].OrderedAt)
	})
	return list, nil
}

func (r *Repository) AppendHistory(_ context.Context, entry domain.HistoryEntry) (domain.HistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[entry.OrderID]; !ok {
		return domain.HistoryEntry{}, ports.ErrNotFound
	}
	return r.appendHistory(entry), nil
}

func (r *Repository) appendHistory(entry domain.HistoryEntry) domain.HistoryEntry {
	r.nextEntryID++
	entry.ID = r.nextEntryID
	r.history[entry.OrderID] = append(r.history[entry.OrderID], entry)
	return entry
}

func (r *Repository) History(_ context.Context, orderID int64) ([]domain.HistoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := r.history[orderID]
	out := make([]domain.HistoryEntry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		out = append(out, entries[i])
	}
	return out, nil
}

func matches(order *domain.Order, filter ports.OrderFilter) bool {
	if filter.SupplierID != nil && order.SupplierID != *filter.SupplierID {
		return false
	}
	if filter.CreatedBy != nil && order.CreatedBy != *filter.CreatedBy {
		return false
	}
	if len(filter.Statuses) > 0 {
		found := false
		for _, status := range filter.Statuses {
			if order.Status == status {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.OrderedFrom != nil && order.OrderedAt.Before(*filter.OrderedFrom) {
		return false
	}
	if filter.OrderedTo != nil && order.OrderedAt.After(*filter.OrderedTo) {
		return false
	}
	return true
}
