package ports

import (
	"context"

	"github.com/Apurer/farmasync/internal/domains/usuarios/domain"
	"github.com/Apurer/farmasync/internal/platform/auth"
)

// Service exposes user and role use cases to adapters.
type Service interface {
	CreateUser(ctx context.Context, profile domain.Profile) (*domain.User, error)
	// Register creates a user with the client role regardless of profile.RoleID.
	Register(ctx context.Context, profile domain.Profile) (*domain.User, error)
	Login(ctx context.Context, email, password string) (auth.Token, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)
	UpdateUser(ctx context.Context, id int64, profile domain.Profile) (*domain.User, error)
	DeleteUser(ctx context.Context, id int64) error
	// Me resolves the user behind an authenticated email.
	Me(ctx context.Context, email string) (*domain.User, error)

	ListRoles(ctx context.Context) ([]domain.Role, error)
	GetRole(ctx context.Context, id int64) (domain.Role, error)
	CreateRole(ctx context.Context, name string) (domain.Role, error)
	DeleteRole(ctx context.Context, id int64) error

	PurgeExpiredSessions(ctx context.Context) (int64, error)
}
