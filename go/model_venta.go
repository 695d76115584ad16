package farmasyncserver

import (
	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/shopspring/decimal"
)

// Venta is a registered sale.
type Venta struct {
	Id int64 `json:"id,omitempty"`

	// IdVendedor is required on creation and ignored on update.
	IdVendedor int64 `json:"idVendedor"`

	IdCliente int64 `json:"idCliente" binding:"required,gt=0"`

	// FechaVenta is server-owned: every sale is dated on the day it is registered.
	FechaVenta *openapi_types.Date `json:"fechaVenta,omitempty"`

	Total *decimal.Decimal `json:"total,omitempty"`

	DetallesVenta []DetalleVenta `json:"detallesVenta" binding:"dive"`
}

// DetalleVenta is one product line of a sale. Prices and product metadata come from inventory.
type DetalleVenta struct {
	Id int64 `json:"id,omitempty"`

	IdProducto string `json:"idProducto" binding:"required,max=64"`

	Cantidad int `json:"cantidad"`

	PrecioUnitario *decimal.Decimal `json:"precioUnitario,omitempty"`

	Subtotal *decimal.Decimal `json:"subtotal,omitempty"`

	ProductoNombre string `json:"productoNombre,omitempty"`

	ProductoImagenUrl string `json:"productoImagenUrl,omitempty"`
}

// HistorialVenta is one audit record of a sale.
type HistorialVenta struct {
	Id int64 `json:"id"`

	IdVenta int64 `json:"idVenta"`

	FechaEvento openapi_types.Date `json:"fechaEvento"`

	TipoEvento string `json:"tipoEvento"`

	IdUsuario int64 `json:"idUsuario"`

	Observacion string `json:"observacion,omitempty"`
}
