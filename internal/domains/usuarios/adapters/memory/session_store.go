package memory

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/Apurer/farmasync/internal/domains/usuarios/domain"
	"github.com/Apurer/farmasync/internal/domains/usuarios/ports"
)

// SessionStore is an in-memory SessionStore keyed by token id.
type SessionStore struct {
	sessions sync.Map
	now      func() time.Time
}

func NewSessionStore() *SessionStore {
	return &SessionStore{now: time.Now}
}

func (s *SessionStore) Save(_ context.Context, session domain.Session) error {
	if strings.TrimSpace(session.TokenID) == "" {
		return errors.New("token id is required")
	}
	s.sessions.Store(session.TokenID, session)
	return nil
}

func (s *SessionStore) IsActive(_ context.Context, tokenID string) (bool, error) {
	value, ok := s.sessions.Load(tokenID)
	if !ok {
		return false, nil
	}
	return !value.(domain.Session).Expired(s.now()), nil
}

func (s *SessionStore) DeleteByEmail(_ context.Context, email string) error {
	email = domain.NormalizeEmail(email)
	s.sessions.Range(func(key, value any) bool {
		if value.(domain.Session).Email == email {
			s.sessions.Delete(key)
		}
		return true
	})
	return nil
}

func (s *SessionStore) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	var purged int64
	s.sessions.Range(func(key, value any) bool {
		if value.(domain.Session).Expired(now) {
			s.sessions.Delete(key)
			purged++
		}
		return true
	})
	return purged, nil
}

var _ ports.SessionStore = (*SessionStore)(nil)
