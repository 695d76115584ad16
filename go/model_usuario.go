package farmasyncserver

// UsuarioCreate is the body of create, register and update requests.
type UsuarioCreate struct {
	Nombre string `json:"nombre" binding:"max=100"`

	Apellido string `json:"apellido" binding:"max=100"`

	Email string `json:"email" binding:"required,email,max=255"`

	Direccion string `json:"direccion,omitempty" binding:"max=255"`

	Telefono string `json:"telefono,omitempty" binding:"max=30"`

	// Password is optional on update; an empty value keeps the current one.
	Password string `json:"password,omitempty"`

	// IdRol is ignored by /usuarios/register.
	IdRol int64 `json:"idRol,omitempty" binding:"omitempty,gt=0"`
}

// Usuario is a user as returned by the API.
type Usuario struct {
	Id int64 `json:"id"`

	Nombre string `json:"nombre"`

	Apellido string `json:"apellido"`

	Telefono string `json:"telefono"`

	Email string `json:"email"`

	Direccion string `json:"direccion"`

	NombreRol string `json:"nombreRol"`
}

// LoginRequest carries the credentials of /usuarios/login.
type LoginRequest struct {
	Email string `json:"email" binding:"required"`

	Password string `json:"password" binding:"required"`
}

// LoginResponse wraps the issued bearer token.
type LoginResponse struct {
	Token string `json:"token"`
}

// Rol is a user role.
type Rol struct {
	IdRol int64 `json:"idRol,omitempty"`

	Nombre string `json:"nombre" binding:"required,max=50"`
}
