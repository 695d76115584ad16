package mapper

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Apurer/farmasync/internal/domains/pedidos/domain"
)

// Line is the transport-layer shape of an order line.
type Line struct {
	ID         int64
	ProductRef string
	Quantity   int
}

// Order represents the transport-layer shape used by the HTTP handlers.
type Order struct {
	ID           int64
	SupplierID   int64
	CreatedBy    int64
	Status       string
	Notes        string
	OrderedAt    time.Time
	DeliveryDate *time.Time
	Total        *decimal.Decimal
	Lines        []Line
}

// HistoryEntry is the transport-layer shape of a status history record.
type HistoryEntry struct {
	ID         int64
	Status     string
	UserID     int64
	Notes      string
	RecordedAt time.Time
}

// ToDraft converts a transport order into the fields a caller may set.
// Status, identifiers and timestamps are server-owned and ignored.
func ToDraft(order Order) domain.Draft {
	draft := domain.Draft{
		SupplierID:   order.SupplierID,
		CreatedBy:    order.CreatedBy,
		Notes:        order.Notes,
		DeliveryDate: order.DeliveryDate,
		Lines:        make([]domain.Line, 0, len(order.Lines)),
	}
	if order.Total != nil {
		total := *order.Total
		draft.Total = &total
	}
	for _, line := range order.Lines {
		draft.Lines = append(draft.Lines, domain.Line{ProductRef: line.ProductRef, Quantity: line.Quantity})
	}
	return draft
}

// FromDomainOrder converts a domain order to the transport representation.
func FromDomainOrder(order *domain.Order) Order {
	if order == nil {
		return Order{}
	}
	total := order.Total
	out := Order{
		ID:           order.ID,
		SupplierID:   order.SupplierID,
		CreatedBy:    order.CreatedBy,
		Status:       string(order.Status),
		Notes:        order.Notes,
		OrderedAt:    order.OrderedAt,
		DeliveryDate: order.DeliveryDate,
		Total:        &total,
		Lines:        make([]Line, 0, len(order.Lines)),
	}
	for _, line := range order.Lines {
		out.Lines = append(out.Lines, Line{ID: line.ID, ProductRef: line.ProductRef, Quantity: line.Quantity})
	}
	return out
}

func FromDomainOrders(orders []*domain.Order) []Order {
	out := make([]Order, 0, len(orders))
	for _, order := range orders {
		out = append(out, FromDomainOrder(order))
	}
	return out
}

func FromDomainHistory(entries []domain.HistoryEntry) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, HistoryEntry{
			ID:         entry.ID,
			Status:     string(entry.Status),
			UserID:     entry.UserID,
			Notes:      entry.Notes,
			RecordedAt: entry.RecordedAt,
		})
	}
	return out
}
