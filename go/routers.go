package farmasyncserver

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	usuariosdomain "github.com/Apurer/farmasync/internal/domains/usuarios/domain"
	"github.com/Apurer/farmasync/internal/platform/auth"
)

func init() {
	// Money travels as JSON numbers, as the web client expects.
	decimal.MarshalJSONWithoutQuotes = true
}

// DefaultAllowedOrigin is the web client served by the Angular dev server.
const DefaultAllowedOrigin = "http://localhost:4200"

// Route is the information for every URI.
type Route struct {
	// Name is the name of this Route.
	Name string
	// Method is the string for the HTTP method. ex) GET, POST etc..
	Method string
	// Pattern is the pattern of the URI.
	Pattern string
	// HandlerFunc is the handler function of this route.
	HandlerFunc gin.HandlerFunc
	// Policy runs before HandlerFunc; empty means public.
	Policy []gin.HandlerFunc
}

// RouterOptions carries the cross-cutting middleware of a service router.
type RouterOptions struct {
	ServiceName    string
	BasePath       string
	AllowedOrigins []string
	// Verifier authenticates bearer tokens; nil leaves every request anonymous.
	Verifier auth.Verifier
	Metrics  http.Handler
	Logger   *slog.Logger
}

// NewRouter returns a new router.
func NewRouter(routes []Route, opts RouterOptions) *gin.Engine {
	return NewRouterWithGinEngine(gin.New(), routes, opts)
}

// NewRouterWithGinEngine adds routes and the shared middleware to an existing gin engine.
func NewRouterWithGinEngine(router *gin.Engine, routes []Route, opts RouterOptions) *gin.Engine {
	router.Use(gin.Recovery())
	if opts.ServiceName != "" {
		router.Use(otelgin.Middleware(opts.ServiceName))
	}
	router.Use(cors.New(corsConfig(opts.AllowedOrigins)))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if opts.Metrics != nil {
		router.GET("/metrics", gin.WrapH(opts.Metrics))
	}

	group := router.Group(strings.TrimRight(opts.BasePath, "/"))
	if opts.Verifier != nil {
		group.Use(auth.Authenticate(opts.Verifier, opts.Logger))
	}
	for _, route := range routes {
		handlers := make([]gin.HandlerFunc, 0, len(route.Policy)+1)
		handlers = append(handlers, route.Policy...)
		handlers = append(handlers, route.HandlerFunc)
		group.Handle(route.Method, route.Pattern, handlers...)
	}
	return router
}

func corsConfig(origins []string) cors.Config {
	config := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, origin := range origins {
		if strings.TrimSpace(origin) == "*" {
			config.AllowAllOrigins = true
			config.AllowCredentials = false
			return config
		}
	}
	if len(origins) == 0 {
		origins = []string{DefaultAllowedOrigin}
	}
	config.AllowOrigins = origins
	return config
}

func authenticated() []gin.HandlerFunc {
	return []gin.HandlerFunc{auth.RequireAuthenticated()}
}

func adminOnly() []gin.HandlerFunc {
	return []gin.HandlerFunc{auth.RequireRole(usuariosdomain.RoleAdmin)}
}

// UsuariosRoutes lists the user and role endpoints. Login and registration are public,
// /usuarios/me needs any principal, the rest is reserved to administrators.
func UsuariosRoutes(api *UsuariosAPI) []Route {
	return []Route{
		{"Login", http.MethodPost, "/usuarios/login", api.Login, nil},
		{"Register", http.MethodPost, "/usuarios/register", api.Register, nil},
		{"Me", http.MethodGet, "/usuarios/me", api.Me, authenticated()},
		{"CreateUsuario", http.MethodPost, "/usuarios", api.CreateUsuario, adminOnly()},
		{"ListUsuarios", http.MethodGet, "/usuarios", api.ListUsuarios, adminOnly()},
		{"GetUsuario", http.MethodGet, "/usuarios/:id", api.GetUsuario, adminOnly()},
		{"UpdateUsuario", http.MethodPut, "/usuarios/:id", api.UpdateUsuario, adminOnly()},
		{"DeleteUsuario", http.MethodDelete, "/usuarios/:id", api.DeleteUsuario, adminOnly()},
		{"ListRoles", http.MethodGet, "/roles", api.ListRoles, adminOnly()},
		{"GetRol", http.MethodGet, "/roles/:id", api.GetRol, adminOnly()},
		{"CreateRol", http.MethodPost, "/roles", api.CreateRol, adminOnly()},
		{"DeleteRol", http.MethodDelete, "/roles/:id", api.DeleteRol, adminOnly()},
	}
}

// VentasRoutes lists the sales endpoints; every one needs an authenticated caller.
func VentasRoutes(api *VentasAPI) []Route {
	routes := []Route{
		{"CreateVenta", http.MethodPost, "/ventas", api.CreateVenta, nil},
		{"ListVentas", http.MethodGet, "/ventas", api.ListVentas, nil},
		{"ListVentasByFecha", http.MethodGet, "/ventas/fecha", api.ListByFecha, nil},
		{"ListVentasByCliente", http.MethodGet, "/ventas/cliente/:id", api.ListByCliente, nil},
		{"ListVentasByVendedor", http.MethodGet, "/ventas/vendedor/:id", api.ListByVendedor, nil},
		{"GetDetallesVenta", http.MethodGet, "/ventas/detalles/:id", api.GetDetalles, nil},
		{"GetVenta", http.MethodGet, "/ventas/:id", api.GetVenta, nil},
		{"UpdateVenta", http.MethodPut, "/ventas/:id", api.UpdateVenta, nil},
		{"DeleteVenta", http.MethodDelete, "/ventas/:id", api.DeleteVenta, nil},
		{"GetHistorialVenta", http.MethodGet, "/ventas/:id/historial", api.GetHistorial, nil},
	}
	return withPolicy(routes, authenticated())
}

// PedidosRoutes lists the supplier order endpoints; every one needs an authenticated caller.
func PedidosRoutes(api *PedidosAPI) []Route {
	routes := []Route{
		{"CreatePedido", http.MethodPost, "/pedidos", api.CreatePedido, nil},
		{"ListPedidos", http.MethodGet, "/pedidos", api.ListPedidos, nil},
		{"ListPedidosPendientes", http.MethodGet, "/pedidos/pendientes", api.ListPendientes, nil},
		{"ListPedidosByFecha", http.MethodGet, "/pedidos/fecha", api.ListByFecha, nil},
		{"ListPedidosByProveedor", http.MethodGet, "/pedidos/proveedor/:id", api.ListByProveedor, nil},
		{"ListPedidosByUsuario", http.MethodGet, "/pedidos/usuario/:id", api.ListByUsuario, nil},
		{"ListPedidosByEstado", http.MethodGet, "/pedidos/estado/:estado", api.ListByEstado, nil},
		{"GetPedido", http.MethodGet, "/pedidos/:id", api.GetPedido, nil},
		{"UpdatePedido", http.MethodPut, "/pedidos/:id", api.UpdatePedido, nil},
		{"DeletePedido", http.MethodDelete, "/pedidos/:id", api.DeletePedido, nil},
		{"CambiarEstadoPedido", http.MethodPatch, "/pedidos/:id/estado", api.CambiarEstado, nil},
		{"GetHistorialPedido", http.MethodGet, "/pedidos/:id/historial", api.GetHistorial, nil},
	}
	return withPolicy(routes, authenticated())
}

func withPolicy(routes []Route, policy []gin.HandlerFunc) []Route {
	for i := range routes {
		routes[i].Policy = policy
	}
	return routes
}
