package application

import (
	"time"

	"github.com/Apurer/farmasync/internal/domains/usuarios/domain"
)

const EventUserRegistered = "usuario.registrado"

// UserEvent is published after a user account is created.
type UserEvent struct {
	Type   string    `json:"-"`
	UserID int64     `json:"idUsuario"`
	Email  string    `json:"email"`
	Role   string    `json:"rol"`
	At     time.Time `json:"fecha"`
}

// EventType implements messaging.Typed.
func (e UserEvent) EventType() string { return e.Type }

func newUserEvent(user *domain.User, at time.Time) UserEvent {
	return UserEvent{
		Type:   EventUserRegistered,
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role.Name,
		At:     at,
	}
}
