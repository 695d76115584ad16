package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/farmasync/internal/domains/usuarios/domain"
	"github.com/Apurer/farmasync/internal/domains/usuarios/ports"
)

// DefaultSessionTTL applies to sessions saved without an expiry.
const DefaultSessionTTL = 24 * time.Hour

// SessionStore persists issued token ids in PostgreSQL.
type SessionStore struct {
	db       *gorm.DB
	sessionT time.Duration
	now      func() time.Time
}

// NewSessionStore wires a PostgreSQL-backed session store. Caller owns DB lifecycle.
func NewSessionStore(db *gorm.DB, sessionTTL time.Duration) *SessionStore {
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	return &SessionStore{db: db, sessionT: sessionTTL, now: time.Now}
}

type sessionRecord struct {
	TokenID   string    `gorm:"primaryKey;column:token_id;size:64"`
	Email     string    `gorm:"column:email;not null;index"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null;index"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (sessionRecord) TableName() string { return "sesiones" }

// Save upserts a session keyed by token id.
func (s *SessionStore) Save(ctx context.Context, session domain.Session) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	tokenID := strings.TrimSpace(session.TokenID)
	email := domain.NormalizeEmail(session.Email)
	if tokenID == "" || email == "" {
		return errors.New("token id and email are required")
	}
	expiry := session.ExpiresAt
	if expiry.IsZero() {
		expiry = s.now().Add(s.sessionT)
	}
	rec := sessionRecord{TokenID: tokenID, Email: email, ExpiresAt: expiry, CreatedAt: session.CreatedAt}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "token_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"email", "expires_at"}),
		}).
		Create(&rec).Error
}

func (s *SessionStore) IsActive(ctx context.Context, tokenID string) (bool, error) {
	if err := s.ensureDB(); err != nil {
		return false, err
	}
	var count int64
	err := s.db.WithContext(ctx).Model(&sessionRecord{}).
		Where("token_id = ? AND expires_at > ?", strings.TrimSpace(tokenID), s.now()).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// DeleteByEmail revokes every session of a user.
func (s *SessionStore) DeleteByEmail(ctx context.Context, email string) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	email = domain.NormalizeEmail(email)
	if email == "" {
		return nil
	}
	return s.db.WithContext(ctx).Delete(&sessionRecord{}, "email = ?", email).Error
}

// PurgeExpired removes all sessions expired at now. Use for housekeeping or cron.
func (s *SessionStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	if err := s.ensureDB(); err != nil {
		return 0, err
	}
	result := s.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&sessionRecord{})
	return result.RowsAffected, result.Error
}

func (s *SessionStore) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("postgres session store not configured")
	}
	return nil
}

var _ ports.SessionStore = (*SessionStore)(nil)
