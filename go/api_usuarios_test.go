package farmasyncserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	usuariosmemory "github.com/Apurer/farmasync/internal/domains/usuarios/adapters/memory"
	usuariosapp "github.com/Apurer/farmasync/internal/domains/usuarios/application"
	"github.com/Apurer/farmasync/internal/domains/usuarios/domain"
	"github.com/Apurer/farmasync/internal/platform/auth"
	apierrors "github.com/Apurer/farmasync/internal/shared/errors"
)

type usuariosHarness struct {
	router  *gin.Engine
	service *usuariosapp.Service
	issuer  *auth.Issuer
}

func newUsuariosRouter(t *testing.T) usuariosHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	issuer := newTestIssuer(t)
	sessions := usuariosmemory.NewSessionStore()
	service := usuariosapp.NewService(usuariosmemory.NewRepository(), usuariosmemory.NewRoleRepository(),
		auth.NewBcryptHasher(4), issuer, usuariosapp.WithSessionStore(sessions))
	router := NewRouter(UsuariosRoutes(NewUsuariosAPI(service, nil)), RouterOptions{
		Verifier: auth.NewRevocationVerifier(issuer, sessions),
	})
	return usuariosHarness{router: router, service: service, issuer: issuer}
}

func (h usuariosHarness) login(t *testing.T, email, password string) string {
	t.Helper()
	rec := doJSON(h.router, http.MethodPost, "/usuarios/login", "", map[string]any{"email": email, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.Token)
	return "Bearer " + body.Token
}

func (h usuariosHarness) seedAdmin(t *testing.T) string {
	t.Helper()
	_, err := h.service.CreateUser(t.Context(), domain.Profile{Email: "admin@farmasync.co", Password: "admin123", RoleID: 1})
	require.NoError(t, err)
	return h.login(t, "admin@farmasync.co", "admin123")
}

func TestUsuariosAPI_RegisterLoginAndMe(t *testing.T) {
	h := newUsuariosRouter(t)

	rec := doJSON(h.router, http.MethodPost, "/usuarios/register", "", map[string]any{
		"nombre":   "Ana",
		"apellido": "Pérez",
		"email":    "ana@farmasync.co",
		"password": "secreto",
		"idRol":    1,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var registered Usuario
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &registered))
	assert.Equal(t, "CLIENTE", registered.NombreRol)
	assert.NotContains(t, rec.Body.String(), "password")

	token := h.login(t, "ana@farmasync.co", "secreto")

	rec = doJSON(h.router, http.MethodGet, "/usuarios/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me Usuario
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, registered.Id, me.Id)
	assert.Equal(t, "Ana", me.Nombre)

	rec = doJSON(h.router, http.MethodGet, "/usuarios/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUsuariosAPI_LoginRejectsWrongPassword(t *testing.T) {
	h := newUsuariosRouter(t)
	rec := doJSON(h.router, http.MethodPost, "/usuarios/register", "", map[string]any{
		"email": "ana@farmasync.co", "password": "secreto",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(h.router, http.MethodPost, "/usuarios/login", "", map[string]any{"email": "ana@farmasync.co", "password": "otra"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, apierrors.TypeUnauthorized, decodeProblem(t, rec).Type)
}

func TestUsuariosAPI_AdminEndpointsRequireAdminRole(t *testing.T) {
	h := newUsuariosRouter(t)
	rec := doJSON(h.router, http.MethodPost, "/usuarios/register", "", map[string]any{
		"email": "cliente@farmasync.co", "password": "secreto",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	client := h.login(t, "cliente@farmasync.co", "secreto")

	assert.Equal(t, http.StatusUnauthorized, doJSON(h.router, http.MethodGet, "/usuarios", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, doJSON(h.router, http.MethodGet, "/usuarios", client, nil).Code)
	assert.Equal(t, http.StatusForbidden, doJSON(h.router, http.MethodGet, "/roles", client, nil).Code)
	// Signed but never issued through login, so the session store does not know it.
	assert.Equal(t, http.StatusUnauthorized, doJSON(h.router, http.MethodGet, "/usuarios", bearer(t, h.issuer, "ADMIN"), nil).Code)

	admin := h.seedAdmin(t)
	rec = doJSON(h.router, http.MethodGet, "/usuarios", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var users []Usuario
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	assert.Len(t, users, 2)
}

func TestUsuariosAPI_AdminCrud(t *testing.T) {
	h := newUsuariosRouter(t)
	admin := h.seedAdmin(t)

	rec := doJSON(h.router, http.MethodPost, "/usuarios", admin, map[string]any{
		"nombre": "Luis", "email": "luis@farmasync.co", "password": "clave1", "idRol": 3,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created Usuario
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "EMPLEADO", created.NombreRol)

	rec = doJSON(h.router, http.MethodPost, "/usuarios", admin, map[string]any{
		"email": "LUIS@farmasync.co", "password": "clave1", "idRol": 3,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apierrors.TypeBusinessRule, decodeProblem(t, rec).Type)

	rec = doJSON(h.router, http.MethodPost, "/usuarios", admin, map[string]any{
		"email": "otro@farmasync.co", "password": "clave1", "idRol": 99,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeProblem(t, rec).Detail, "role does not exist")

	rec = doJSON(h.router, http.MethodPost, "/usuarios", admin, map[string]any{"email": "no-es-correo", "password": "clave1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	problem := decodeProblem(t, rec)
	assert.Equal(t, apierrors.TypeValidation, problem.Type)
	assert.Contains(t, problem.Extensions["fields"], "email")

	path := "/usuarios/" + strconv.FormatInt(created.Id, 10)
	rec = doJSON(h.router, http.MethodPut, path, admin, map[string]any{
		"nombre": "Luis Alberto", "email": "luis@farmasync.co", "idRol": 3,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated Usuario
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "Luis Alberto", updated.Nombre)
	h.login(t, "luis@farmasync.co", "clave1")

	assert.Equal(t, http.StatusOK, doJSON(h.router, http.MethodGet, path, admin, nil).Code)
	assert.Equal(t, http.StatusNoContent, doJSON(h.router, http.MethodDelete, path, admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(h.router, http.MethodGet, path, admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(h.router, http.MethodDelete, path, admin, nil).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(h.router, http.MethodGet, "/usuarios/abc", admin, nil).Code)
}

func TestUsuariosAPI_DeletedUserTokenIsRevoked(t *testing.T) {
	h := newUsuariosRouter(t)
	admin := h.seedAdmin(t)
	rec := doJSON(h.router, http.MethodPost, "/usuarios/register", "", map[string]any{
		"email": "ana@farmasync.co", "password": "secreto",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var user Usuario
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	token := h.login(t, "ana@farmasync.co", "secreto")

	require.Equal(t, http.StatusNoContent, doJSON(h.router, http.MethodDelete, "/usuarios/"+strconv.FormatInt(user.Id, 10), admin, nil).Code)

	rec = doJSON(h.router, http.MethodGet, "/usuarios/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, auth.ErrRevokedToken.Error(), decodeProblem(t, rec).Detail)
}

func TestUsuariosAPI_Roles(t *testing.T) {
	h := newUsuariosRouter(t)
	admin := h.seedAdmin(t)

	rec := doJSON(h.router, http.MethodGet, "/roles", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var roles []Rol
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &roles))
	assert.Equal(t, []Rol{{1, "ADMIN"}, {2, "CLIENTE"}, {3, "EMPLEADO"}}, roles)

	rec = doJSON(h.router, http.MethodPost, "/roles", admin, map[string]any{"nombre": "auditor"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created Rol
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, Rol{IdRol: 4, Nombre: "AUDITOR"}, created)

	assert.Equal(t, http.StatusBadRequest, doJSON(h.router, http.MethodPost, "/roles", admin, map[string]any{"nombre": "AUDITOR"}).Code)
	assert.Equal(t, http.StatusOK, doJSON(h.router, http.MethodGet, "/roles/4", admin, nil).Code)
	assert.Equal(t, http.StatusNoContent, doJSON(h.router, http.MethodDelete, "/roles/4", admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(h.router, http.MethodGet, "/roles/4", admin, nil).Code)
}
