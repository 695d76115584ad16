package farmasyncserver

import (
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/shopspring/decimal"
)

// Pedido is a supplier order.
type Pedido struct {
	IdPedido int64 `json:"idPedido,omitempty"`

	IdProveedor int64 `json:"idProveedor" binding:"required,gt=0"`

	IdUsuarioCreador int64 `json:"idUsuarioCreador" binding:"required,gt=0"`

	// Estado is server-owned: creation always starts at PENDIENTE.
	Estado string `json:"estado,omitempty"`

	Observaciones string `json:"observaciones,omitempty" binding:"max=500"`

	FechaPedido *time.Time `json:"fechaPedido,omitempty"`

	FechaEntrega *openapi_types.Date `json:"fechaEntrega,omitempty"`

	Total *decimal.Decimal `json:"total,omitempty"`

	Detalles []DetallePedido `json:"detalles" binding:"dive"`
}

// DetallePedido is one product line of a supplier order.
type DetallePedido struct {
	IdDetalle int64 `json:"idDetalle,omitempty"`

	IdProductoPedido string `json:"idProductoPedido" binding:"required,max=64"`

	Cantidad int `json:"cantidad"`
}

// HistorialEstado is one status history record of an order.
type HistorialEstado struct {
	IdHistorial int64 `json:"idHistorial"`

	Estado string `json:"estado"`

	IdUsuario int64 `json:"idUsuario"`

	Observaciones string `json:"observaciones,omitempty"`

	Fecha time.Time `json:"fecha"`
}
