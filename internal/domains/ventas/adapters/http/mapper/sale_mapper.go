package mapper

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Apurer/farmasync/internal/domains/ventas/domain"
)

// Line is the transport-layer shape of a sale line.
type Line struct {
	ID              int64
	ProductRef      string
	Quantity        int
	UnitPrice       decimal.Decimal
	Subtotal        decimal.Decimal
	ProductName     string
	ProductImageURL string
}

// Sale represents the transport-layer shape used by the HTTP handlers.
type Sale struct {
	ID       int64
	SellerID int64
	ClientID int64
	SoldOn   time.Time
	Total    *decimal.Decimal
	Lines    []Line
}

// HistoryEntry is the transport-layer shape of a sale audit record.
type HistoryEntry struct {
	ID     int64
	SaleID int64
	Date   time.Time
	Type   string
	UserID int64
	Note   string
}

// ToDraft keeps only caller owned fields. Prices, subtotals, names and the sale date
// are resolved server side.
func ToDraft(sale Sale) domain.Draft {
	draft := domain.Draft{
		SellerID: sale.SellerID,
		ClientID: sale.ClientID,
		Lines:    make([]domain.Line, 0, len(sale.Lines)),
	}
	if sale.Total != nil {
		total := *sale.Total
		draft.Total = &total
	}
	for _, line := range sale.Lines {
		draft.Lines = append(draft.Lines, domain.Line{ProductRef: line.ProductRef, Quantity: line.Quantity})
	}
	return draft
}

func FromDomainSale(sale *domain.Sale) Sale {
	if sale == nil {
		return Sale{}
	}
	total := sale.Total
	return Sale{
		ID:       sale.ID,
		SellerID: sale.SellerID,
		ClientID: sale.ClientID,
		SoldOn:   sale.SoldOn,
		Total:    &total,
		Lines:    FromDomainLines(sale.Lines),
	}
}

func FromDomainSales(sales []*domain.Sale) []Sale {
	out := make([]Sale, 0, len(sales))
	for _, sale := range sales {
		out = append(out, FromDomainSale(sale))
	}
	return out
}

func FromDomainLines(lines []domain.Line) []Line {
	out := make([]Line, 0, len(lines))
	for _, line := range lines {
		out = append(out, Line{
			ID:              line.ID,
			ProductRef:      line.ProductRef,
			Quantity:        line.Quantity,
			UnitPrice:       line.UnitPrice,
			Subtotal:        line.Subtotal,
			ProductName:     line.ProductName,
			ProductImageURL: line.ProductImageURL,
		})
	}
	return out
}

func FromDomainHistory(entries []domain.HistoryEntry) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, HistoryEntry{
			ID:     entry.ID,
			SaleID: entry.SaleID,
			Date:   entry.Date,
			Type:   entry.Type,
			UserID: entry.UserID,
			Note:   entry.Note,
		})
	}
	return out
}
