package application

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Apurer/farmasync/internal/domains/pedidos/domain"
)

// OrderEvent is published after every successful order write.
type OrderEvent struct {
	Type       string          `json:"-"`
	OrderID    int64           `json:"idPedido"`
	SupplierID int64           `json:"idProveedor,omitempty"`
	Status     domain.Status   `json:"estado,omitempty"`
	Previous   domain.Status   `json:"estadoAnterior,omitempty"`
	UserID     int64           `json:"idUsuario,omitempty"`
	Total      decimal.Decimal `json:"total"`
	At         time.Time       `json:"fecha"`
}

// EventType implements messaging.Typed.
func (e OrderEvent) EventType() string { return e.Type }

const (
	EventOrderCreated       = "pedido.creado"
	EventOrderUpdated       = "pedido.actualizado"
	EventOrderStatusChanged = "pedido.estado_cambiado"
	EventOrderDeleted       = "pedido.eliminado"
)

func newOrderEvent(eventType string, order *domain.Order, userID int64, at time.Time) OrderEvent {
	return OrderEvent{
		Type:       eventType,
		OrderID:    order.ID,
		SupplierID: order.SupplierID,
		Status:     order.Status,
		UserID:     userID,
		Total:      order.Total,
		At:         at,
	}
}
