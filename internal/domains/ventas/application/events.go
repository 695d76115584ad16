package application

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Apurer/farmasync/internal/domains/ventas/domain"
)

// SaleEvent is published after every successful sale write.
type SaleEvent struct {
	Type     string          `json:"-"`
	SaleID   int64           `json:"idVenta"`
	SellerID int64           `json:"idVendedor,omitempty"`
	ClientID int64           `json:"idCliente,omitempty"`
	Total    decimal.Decimal `json:"total"`
	Lines    []SaleEventLine `json:"detalles,omitempty"`
	At       time.Time       `json:"fecha"`
}

type SaleEventLine struct {
	ProductRef string `json:"idProducto"`
	Quantity   int    `json:"cantidad"`
}

// EventType implements messaging.Typed.
func (e SaleEvent) EventType() string { return e.Type }

const (
	EventSaleRegistered = "venta.registrada"
	EventSaleUpdated    = "venta.actualizada"
	EventSaleDeleted    = "venta.eliminada"
)

func newSaleEvent(eventType string, sale *domain.Sale, at time.Time) SaleEvent {
	event := SaleEvent{
		Type:     eventType,
		SaleID:   sale.ID,
		SellerID: sale.SellerID,
		ClientID: sale.ClientID,
		Total:    sale.Total,
		At:       at,
	}
	for _, line := range sale.Lines {
		event.Lines = append(event.Lines, SaleEventLine{ProductRef: line.ProductRef, Quantity: line.Quantity})
	}
	return event
}
