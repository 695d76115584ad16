package domain

import (
	"errors"
	"strings"
)

// Seeded roles.
const (
	RoleAdmin    = "ADMIN"
	RoleClient   = "CLIENTE"
	RoleEmployee = "EMPLEADO"
)

// ClientRoleID is the seeded id of RoleClient, assigned on self registration.
const ClientRoleID int64 = 2

// MaxRoleNameLength matches the roles.nombre column.
const MaxRoleNameLength = 50

var (
	ErrEmptyRoleName   = errors.New("role name is required")
	ErrRoleNameTooLong = errors.New("role name must not exceed 50 characters")
)

// Role groups the permissions granted to users.
type Role struct {
	ID   int64
	Name string
}

// NewRole normalizes name to upper case.
func NewRole(name string) (Role, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "" {
		return Role{}, ErrEmptyRoleName
	}
	if len(name) > MaxRoleNameLength {
		return Role{}, ErrRoleNameTooLong
	}
	return Role{Name: name}, nil
}
