package farmasyncserver

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	openapi_types "github.com/oapi-codegen/runtime/types"

	ventasmapper "github.com/Apurer/farmasync/internal/domains/ventas/adapters/http/mapper"
	ventasapp "github.com/Apurer/farmasync/internal/domains/ventas/application"
	ventasports "github.com/Apurer/farmasync/internal/domains/ventas/ports"
	apierrors "github.com/Apurer/farmasync/internal/shared/errors"
)

// VentasAPI implements the sales endpoints.
type VentasAPI struct {
	service   ventasports.Service
	responder *apierrors.ChainedResponder
}

// NewVentasAPI wires dependencies.
func NewVentasAPI(service ventasports.Service, logger *slog.Logger) *VentasAPI {
	responder := apierrors.NewChainedResponder(apierrors.DefaultResponder.WithLogger(logger),
		apierrors.MapSentinel(ventasports.ErrNotFound, apierrors.ErrNotFound),
		apierrors.MapSentinel(ventasapp.ErrInvalidInput, apierrors.ErrValidation),
		apierrors.MapSentinel(ventasapp.ErrBusinessRule, apierrors.ErrBusinessRule),
	)
	return &VentasAPI{service: service, responder: responder}
}

func toTransportSale(model Venta) ventasmapper.Sale {
	sale := ventasmapper.Sale{
		SellerID: model.IdVendedor,
		ClientID: model.IdCliente,
		Total:    model.Total,
		Lines:    make([]ventasmapper.Line, 0, len(model.DetallesVenta)),
	}
	for _, line := range model.DetallesVenta {
		sale.Lines = append(sale.Lines, ventasmapper.Line{ProductRef: line.IdProducto, Quantity: line.Cantidad})
	}
	return sale
}

func fromTransportLine(line ventasmapper.Line) DetalleVenta {
	price, subtotal := line.UnitPrice, line.Subtotal
	return DetalleVenta{
		Id:                line.ID,
		IdProducto:        line.ProductRef,
		Cantidad:          line.Quantity,
		PrecioUnitario:    &price,
		Subtotal:          &subtotal,
		ProductoNombre:    line.ProductName,
		ProductoImagenUrl: line.ProductImageURL,
	}
}

func fromTransportLines(lines []ventasmapper.Line) []DetalleVenta {
	result := make([]DetalleVenta, 0, len(lines))
	for _, line := range lines {
		result = append(result, fromTransportLine(line))
	}
	return result
}

func fromTransportSale(sale ventasmapper.Sale) Venta {
	return Venta{
		Id:            sale.ID,
		IdVendedor:    sale.SellerID,
		IdCliente:     sale.ClientID,
		FechaVenta:    dateOf(&sale.SoldOn),
		Total:         sale.Total,
		DetallesVenta: fromTransportLines(sale.Lines),
	}
}

func fromTransportSales(sales []ventasmapper.Sale) []Venta {
	result := make([]Venta, 0, len(sales))
	for _, sale := range sales {
		result = append(result, fromTransportSale(sale))
	}
	return result
}

// Post /ventas
// Register a sale, pricing each line from inventory and taking the units out of stock
func (api *VentasAPI) CreateVenta(c *gin.Context) {
	var payload Venta
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindingError(c, err)
		return
	}
	created, err := api.service.CreateSale(c.Request.Context(), ventasmapper.ToDraft(toTransportSale(payload)))
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, fromTransportSale(ventasmapper.FromDomainSale(created)))
}

// Get /ventas
// List every sale, newest first
func (api *VentasAPI) ListVentas(c *gin.Context) {
	api.list(c, ventasports.SaleFilter{})
}

// Get /ventas/:id
func (api *VentasAPI) GetVenta(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	sale, err := api.service.GetSale(c.Request.Context(), id)
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromTransportSale(ventasmapper.FromDomainSale(sale)))
}

// Put /ventas/:id
// Replace the client, total and lines of a sale. Stock is not moved.
func (api *VentasAPI) UpdateVenta(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var payload Venta
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindingError(c, err)
		return
	}
	updated, err := api.service.UpdateSale(c.Request.Context(), id, ventasmapper.ToDraft(toTransportSale(payload)))
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromTransportSale(ventasmapper.FromDomainSale(updated)))
}

// Delete /ventas/:id
func (api *VentasAPI) DeleteVenta(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := api.service.DeleteSale(c.Request.Context(), id); err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Get /ventas/detalles/:id
// Lines of a sale as recorded when it was registered
func (api *VentasAPI) GetDetalles(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	lines, err := api.service.Lines(c.Request.Context(), id)
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromTransportLines(ventasmapper.FromDomainLines(lines)))
}

// Get /ventas/:id/historial
// Audit trail of a sale, newest first
func (api *VentasAPI) GetHistorial(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	entries, err := api.service.History(c.Request.Context(), id)
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	transport := ventasmapper.FromDomainHistory(entries)
	result := make([]HistorialVenta, 0, len(transport))
	for _, entry := range transport {
		result = append(result, HistorialVenta{
			Id:          entry.ID,
			IdVenta:     entry.SaleID,
			FechaEvento: openapi_types.Date{Time: entry.Date},
			TipoEvento:  entry.Type,
			IdUsuario:   entry.UserID,
			Observacion: entry.Note,
		})
	}
	c.JSON(http.StatusOK, result)
}

// Get /ventas/cliente/:id
func (api *VentasAPI) ListByCliente(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	api.list(c, ventasports.SaleFilter{ClientID: &id})
}

// Get /ventas/vendedor/:id
func (api *VentasAPI) ListByVendedor(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	api.list(c, ventasports.SaleFilter{SellerID: &id})
}

// Get /ventas/fecha
// Sales dated between fechaInicio and fechaFin, both inclusive
func (api *VentasAPI) ListByFecha(c *gin.Context) {
	start, end, ok := dateRange(c)
	if !ok {
		return
	}
	api.list(c, ventasports.SaleFilter{SoldFrom: &start, SoldTo: &end})
}

func (api *VentasAPI) list(c *gin.Context, filter ventasports.SaleFilter) {
	sales, err := api.service.ListSales(c.Request.Context(), filter)
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromTransportSales(ventasmapper.FromDomainSales(sales)))
}
