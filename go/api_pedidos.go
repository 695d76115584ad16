package farmasyncserver

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	pedidosmapper "github.com/Apurer/farmasync/internal/domains/pedidos/adapters/http/mapper"
	pedidosapp "github.com/Apurer/farmasync/internal/domains/pedidos/application"
	"github.com/Apurer/farmasync/internal/domains/pedidos/domain"
	pedidosports "github.com/Apurer/farmasync/internal/domains/pedidos/ports"
	apierrors "github.com/Apurer/farmasync/internal/shared/errors"
)

// PedidosAPI implements the supplier order endpoints.
type PedidosAPI struct {
	service   pedidosports.Service
	responder *apierrors.ChainedResponder
}

// NewPedidosAPI wires dependencies.
func NewPedidosAPI(service pedidosports.Service, logger *slog.Logger) *PedidosAPI {
	responder := apierrors.NewChainedResponder(apierrors.DefaultResponder.WithLogger(logger),
		apierrors.MapSentinel(pedidosports.ErrNotFound, apierrors.ErrNotFound),
		apierrors.MapSentinel(pedidosapp.ErrInvalidInput, apierrors.ErrValidation),
		apierrors.MapSentinel(pedidosapp.ErrBusinessRule, apierrors.ErrBusinessRule),
	)
	return &PedidosAPI{service: service, responder: responder}
}

func toTransportOrder(model Pedido) pedidosmapper.Order {
	order := pedidosmapper.Order{
		SupplierID:   model.IdProveedor,
		CreatedBy:    model.IdUsuarioCreador,
		Notes:        model.Observaciones,
		DeliveryDate: timeOf(model.FechaEntrega),
		Total:        model.Total,
		Lines:        make([]pedidosmapper.Line, 0, len(model.Detalles)),
	}
	for _, line := range model.Detalles {
		order.Lines = append(order.Lines, pedidosmapper.Line{ProductRef: line.IdProductoPedido, Quantity: line.Cantidad})
	}
	return order
}

func fromTransportOrder(order pedidosmapper.Order) Pedido {
	orderedAt := order.OrderedAt
	model := Pedido{
		IdPedido:         order.ID,
		IdProveedor:      order.SupplierID,
		IdUsuarioCreador: order.CreatedBy,
		Estado:           order.Status,
		Observaciones:    order.Notes,
		FechaPedido:      &orderedAt,
		FechaEntrega:     dateOf(order.DeliveryDate),
		Total:            order.Total,
		Detalles:         make([]DetallePedido, 0, len(order.Lines)),
	}
	for _, line := range order.Lines {
		model.Detalles = append(model.Detalles, DetallePedido{
			IdDetalle:        line.ID,
			IdProductoPedido: line.ProductRef,
			Cantidad:         line.Quantity,
		})
	}
	return model
}

func fromTransportOrders(orders []pedidosmapper.Order) []Pedido {
	result := make([]Pedido, 0, len(orders))
	for _, order := range orders {
		result = append(result, fromTransportOrder(order))
	}
	return result
}

// Post /pedidos
// Create a supplier order
func (api *PedidosAPI) CreatePedido(c *gin.Context) {
	var payload Pedido
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindingError(c, err)
		return
	}
	created, err := api.service.CreateOrder(c.Request.Context(), pedidosmapper.ToDraft(toTransportOrder(payload)))
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, fromTransportOrder(pedidosmapper.FromDomainOrder(created)))
}

// Get /pedidos
// List every supplier order, newest first
func (api *PedidosAPI) ListPedidos(c *gin.Context) {
	api.list(c, pedidosports.OrderFilter{})
}

// Get /pedidos/:id
// Find a supplier order by id
func (api *PedidosAPI) GetPedido(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := api.service.GetOrder(c.Request.Context(), id)
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromTransportOrder(pedidosmapper.FromDomainOrder(order)))
}

// Put /pedidos/:id
// Update a non-terminal supplier order
func (api *PedidosAPI) UpdatePedido(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var payload Pedido
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindingError(c, err)
		return
	}
	updated, err := api.service.UpdateOrder(c.Request.Context(), id, pedidosmapper.ToDraft(toTransportOrder(payload)))
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromTransportOrder(pedidosmapper.FromDomainOrder(updated)))
}

// Delete /pedidos/:id
// Delete a supplier order
func (api *PedidosAPI) DeletePedido(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := api.service.DeleteOrder(c.Request.Context(), id); err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Patch /pedidos/:id/estado
// Move an order along its lifecycle
func (api *PedidosAPI) CambiarEstado(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var (
		estado        string
		idUsuario     int64
		observaciones string
	)
	if !bindQuery(c, "estado", true, &estado) ||
		!bindQuery(c, "idUsuario", true, &idUsuario) ||
		!bindQuery(c, "observaciones", false, &observaciones) {
		return
	}
	status, err := domain.ParseStatus(estado)
	if err != nil {
		api.responder.BadRequest(c, err.Error())
		return
	}
	updated, err := api.service.ChangeStatus(c.Request.Context(), pedidosports.ChangeStatusInput{
		OrderID: id,
		Status:  status,
		UserID:  idUsuario,
		Notes:   observaciones,
	})
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromTransportOrder(pedidosmapper.FromDomainOrder(updated)))
}

// Get /pedidos/:id/historial
// Status history of an order, newest first
func (api *PedidosAPI) GetHistorial(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	entries, err := api.service.History(c.Request.Context(), id)
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	transport := pedidosmapper.FromDomainHistory(entries)
	result := make([]HistorialEstado, 0, len(transport))
	for _, entry := range transport {
		result = append(result, HistorialEstado{
			IdHistorial:   entry.ID,
			Estado:        entry.Status,
			IdUsuario:     entry.UserID,
			Observaciones: entry.Notes,
			Fecha:         entry.RecordedAt,
		})
	}
	c.JSON(http.StatusOK, result)
}

// Get /pedidos/proveedor/:id
func (api *PedidosAPI) ListByProveedor(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	api.list(c, pedidosports.OrderFilter{SupplierID: &id})
}

// Get /pedidos/usuario/:id
func (api *PedidosAPI) ListByUsuario(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	api.list(c, pedidosports.OrderFilter{CreatedBy: &id})
}

// Get /pedidos/estado/:estado
func (api *PedidosAPI) ListByEstado(c *gin.Context) {
	status, err := domain.ParseStatus(c.Param("estado"))
	if err != nil {
		api.responder.BadRequest(c, err.Error())
		return
	}
	api.list(c, pedidosports.OrderFilter{Statuses: []domain.Status{status}})
}

// Get /pedidos/pendientes
// Orders that are still open, newest first
func (api *PedidosAPI) ListPendientes(c *gin.Context) {
	api.list(c, pedidosports.OrderFilter{Statuses: domain.OpenStatuses()})
}

// Get /pedidos/fecha
// Orders placed between fechaInicio and fechaFin, both inclusive
func (api *PedidosAPI) ListByFecha(c *gin.Context) {
	start, end, ok := dateRange(c)
	if !ok {
		return
	}
	to := endOfDay(end)
	api.list(c, pedidosports.OrderFilter{OrderedFrom: &start, OrderedTo: &to})
}

func (api *PedidosAPI) list(c *gin.Context, filter pedidosports.OrderFilter) {
	orders, err := api.service.ListOrders(c.Request.Context(), filter)
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromTransportOrders(pedidosmapper.FromDomainOrders(orders)))
}
