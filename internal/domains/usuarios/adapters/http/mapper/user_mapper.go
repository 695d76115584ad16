package mapper

import (
	"github.com/Apurer/farmasync/internal/domains/usuarios/domain"
)

// UserInput is the transport-layer shape of a create, register or update request.
type UserInput struct {
	FirstName string
	LastName  string
	Email     string
	Address   string
	Phone     string
	Password  string
	RoleID    int64
}

// User is the transport-layer shape returned by the HTTP handlers. It never carries the password hash.
type User struct {
	ID        int64
	FirstName string
	LastName  string
	Email     string
	Address   string
	Phone     string
	RoleName  string
}

// Role is the transport-layer shape of a role.
type Role struct {
	ID   int64
	Name string
}

func ToProfile(in UserInput) domain.Profile {
	return domain.Profile{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Address:   in.Address,
		Phone:     in.Phone,
		Password:  in.Password,
		RoleID:    in.RoleID,
	}
}

func FromDomainUser(user *domain.User) User {
	if user == nil {
		return User{}
	}
	return User{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Address:   user.Address,
		Phone:     user.Phone,
		RoleName:  user.Role.Name,
	}
}

func FromDomainUsers(users []*domain.User) []User {
	out := make([]User, 0, len(users))
	for _, user := range users {
		out = append(out, FromDomainUser(user))
	}
	return out
}

func FromDomainRole(role domain.Role) Role {
	return Role{ID: role.ID, Name: role.Name}
}

func FromDomainRoles(roles []domain.Role) []Role {
	out := make([]Role, 0, len(roles))
	for _, role := range roles {
		out = append(out, FromDomainRole(role))
	}
	return out
}
