package domain

import "time"

// Session tracks an issued token so it can be revoked before it expires.
type Session struct {
	TokenID   string
	Email     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
