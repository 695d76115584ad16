package farmasyncserver

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	usuariosmapper "github.com/Apurer/farmasync/internal/domains/usuarios/adapters/http/mapper"
	usuariosapp "github.com/Apurer/farmasync/internal/domains/usuarios/application"
	usuariosports "github.com/Apurer/farmasync/internal/domains/usuarios/ports"
	"github.com/Apurer/farmasync/internal/platform/auth"
	apierrors "github.com/Apurer/farmasync/internal/shared/errors"
)

// UsuariosAPI implements the user, authentication and role endpoints.
type UsuariosAPI struct {
	service   usuariosports.Service
	responder *apierrors.ChainedResponder
}

// NewUsuariosAPI wires dependencies.
func NewUsuariosAPI(service usuariosports.Service, logger *slog.Logger) *UsuariosAPI {
	responder := apierrors.NewChainedResponder(apierrors.DefaultResponder.WithLogger(logger),
		apierrors.MapSentinel(usuariosapp.ErrAuthentication, apierrors.ErrUnauthorized),
		apierrors.MapSentinel(usuariosports.ErrNotFound, apierrors.ErrNotFound),
		apierrors.MapSentinel(usuariosports.ErrRoleNotFound, apierrors.ErrNotFound),
		apierrors.MapSentinel(usuariosapp.ErrInvalidInput, apierrors.ErrValidation),
		apierrors.MapSentinel(usuariosapp.ErrBusinessRule, apierrors.ErrBusinessRule),
	)
	return &UsuariosAPI{service: service, responder: responder}
}

func toUserInput(model UsuarioCreate) usuariosmapper.UserInput {
	return usuariosmapper.UserInput{
		FirstName: model.Nombre,
		LastName:  model.Apellido,
		Email:     model.Email,
		Address:   model.Direccion,
		Phone:     model.Telefono,
		Password:  model.Password,
		RoleID:    model.IdRol,
	}
}

func fromTransportUser(user usuariosmapper.User) Usuario {
	return Usuario{
		Id:        user.ID,
		Nombre:    user.FirstName,
		Apellido:  user.LastName,
		Telefono:  user.Phone,
		Email:     user.Email,
		Direccion: user.Address,
		NombreRol: user.RoleName,
	}
}

func fromTransportUsers(users []usuariosmapper.User) []Usuario {
	result := make([]Usuario, 0, len(users))
	for _, user := range users {
		result = append(result, fromTransportUser(user))
	}
	return result
}

func fromTransportRoles(roles []usuariosmapper.Role) []Rol {
	result := make([]Rol, 0, len(roles))
	for _, role := range roles {
		result = append(result, Rol{IdRol: role.ID, Nombre: role.Name})
	}
	return result
}

// Post /usuarios/login
// Exchange credentials for a bearer token
func (api *UsuariosAPI) Login(c *gin.Context) {
	var payload LoginRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindingError(c, err)
		return
	}
	token, err := api.service.Login(c.Request.Context(), payload.Email, payload.Password)
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, LoginResponse{Token: token.Value})
}

// Post /usuarios/register
// Self-register a client account
func (api *UsuariosAPI) Register(c *gin.Context) {
	var payload UsuarioCreate
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindingError(c, err)
		return
	}
	user, err := api.service.Register(c.Request.Context(), usuariosmapper.ToProfile(toUserInput(payload)))
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, fromTransportUser(usuariosmapper.FromDomainUser(user)))
}

// Get /usuarios/me
// Return the authenticated user
func (api *UsuariosAPI) Me(c *gin.Context) {
	principal, ok := auth.PrincipalFrom(c)
	if !ok {
		api.responder.Unauthorized(c, "authentication required")
		return
	}
	user, err := api.service.Me(c.Request.Context(), principal.Email)
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromTransportUser(usuariosmapper.FromDomainUser(user)))
}

// Post /usuarios
// Create a user with an explicit role
func (api *UsuariosAPI) CreateUsuario(c *gin.Context) {
	var payload UsuarioCreate
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindingError(c, err)
		return
	}
	user, err := api.service.CreateUser(c.Request.Context(), usuariosmapper.ToProfile(toUserInput(payload)))
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, fromTransportUser(usuariosmapper.FromDomainUser(user)))
}

// Get /usuarios
// List users
func (api *UsuariosAPI) ListUsuarios(c *gin.Context) {
	users, err := api.service.ListUsers(c.Request.Context())
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromTransportUsers(usuariosmapper.FromDomainUsers(users)))
}

// Get /usuarios/:id
// Find a user by id
func (api *UsuariosAPI) GetUsuario(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	user, err := api.service.GetUser(c.Request.Context(), id)
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromTransportUser(usuariosmapper.FromDomainUser(user)))
}

// Put /usuarios/:id
// Replace a user's profile
func (api *UsuariosAPI) UpdateUsuario(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var payload UsuarioCreate
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindingError(c, err)
		return
	}
	user, err := api.service.UpdateUser(c.Request.Context(), id, usuariosmapper.ToProfile(toUserInput(payload)))
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromTransportUser(usuariosmapper.FromDomainUser(user)))
}

// Delete /usuarios/:id
// Delete a user and revoke its sessions
func (api *UsuariosAPI) DeleteUsuario(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := api.service.DeleteUser(c.Request.Context(), id); err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Get /roles
// List roles
func (api *UsuariosAPI) ListRoles(c *gin.Context) {
	roles, err := api.service.ListRoles(c.Request.Context())
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromTransportRoles(usuariosmapper.FromDomainRoles(roles)))
}

// Get /roles/:id
// Find a role by id
func (api *UsuariosAPI) GetRol(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	role, err := api.service.GetRole(c.Request.Context(), id)
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	out := usuariosmapper.FromDomainRole(role)
	c.JSON(http.StatusOK, Rol{IdRol: out.ID, Nombre: out.Name})
}

// Post /roles
// Create a role
func (api *UsuariosAPI) CreateRol(c *gin.Context) {
	var payload Rol
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindingError(c, err)
		return
	}
	role, err := api.service.CreateRole(c.Request.Context(), payload.Nombre)
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	out := usuariosmapper.FromDomainRole(role)
	c.JSON(http.StatusCreated, Rol{IdRol: out.ID, Nombre: out.Name})
}

// Delete /roles/:id
// Delete a role that no user holds
func (api *UsuariosAPI) DeleteRol(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := api.service.DeleteRole(c.Request.Context(), id); err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
