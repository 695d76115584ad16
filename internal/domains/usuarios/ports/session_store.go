package ports

import (
	"context"
	"time"

	"github.com/Apurer/farmasync/internal/domains/usuarios/domain"
)

// SessionStore tracks issued tokens for server-side revocation.
type SessionStore interface {
	Save(ctx context.Context, session domain.Session) error
	// IsActive reports whether tokenID was issued and has not been revoked or expired.
	IsActive(ctx context.Context, tokenID string) (bool, error)
	DeleteByEmail(ctx context.Context, email string) error
	// PurgeExpired removes sessions that expired at or before now and returns how many were removed.
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// NoopSessionStore accepts every token. Revocation is disabled when it is used.
var NoopSessionStore SessionStore = noopSessionStore{}

type noopSessionStore struct{}

func (noopSessionStore) Save(context.Context, domain.Session) error { return nil }
func (noopSessionStore) IsActive(context.Context, string) (bool, error) { return true, nil }
func (noopSessionStore) DeleteByEmail(context.Context, string) error { return nil }
func (noopSessionStore) PurgeExpired(context.Context, time.Time) (int64, error) { return 0, nil }
