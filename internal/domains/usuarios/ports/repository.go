package ports

import (
	"context"
	"errors"

	"github.com/Apurer/farmasync/internal/domains/usuarios/domain"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrRoleNotFound  = errors.New("role not found")
	ErrEmailTaken    = errors.New("email already registered")
	ErrRoleNameTaken = errors.New("a role with that name already exists")
	ErrRoleInUse     = errors.New("role is assigned to existing users")
)

// Repository persists users. Emails are stored normalized.
type Repository interface {
	// Save inserts the user when ID is zero, otherwise updates it. Returns ErrEmailTaken on conflicts.
	Save(ctx context.Context, user *domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*domain.User, error)
}

// RoleRepository persists roles.
type RoleRepository interface {
	Create(ctx context.Context, role domain.Role) (domain.Role, error)
	GetByID(ctx context.Context, id int64) (domain.Role, error)
	GetByName(ctx context.Context, name string) (domain.Role, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]domain.Role, error)
}
