package application

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Apurer/farmasync/internal/domains/usuarios/domain"
	"github.com/Apurer/farmasync/internal/domains/usuarios/ports"
	"github.com/Apurer/farmasync/internal/platform/auth"
)

// Service exposes user bounded context use cases.
type Service struct {
	repo     ports.Repository
	roles    ports.RoleRepository
	sessions ports.SessionStore
	hasher   ports.PasswordHasher
	tokens   ports.TokenIssuer
	events   ports.EventPublisher
	now      func() time.Time
}

// Option configures the Service.
type Option func(*Service)

func WithSessionStore(store ports.SessionStore) Option {
	return func(s *Service) {
		if store != nil {
			s.sessions = store
		}
	}
}

func WithEventPublisher(p ports.EventPublisher) Option {
	return func(s *Service) {
		if p != nil {
			s.events = p
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(repo ports.Repository, roles ports.RoleRepository, hasher ports.PasswordHasher, tokens ports.TokenIssuer, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		roles:    roles,
		hasher:   hasher,
		tokens:   tokens,
		sessions: ports.NoopSessionStore,
		events:   ports.NoopEventPublisher,
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Service) CreateUser(ctx context.Context, profile domain.Profile) (*domain.User, error) {
	return s.create(ctx, profile.Normalize())
}

// Register is the public sign-up path; the role is always the client role.
func (s *Service) Register(ctx context.Context, profile domain.Profile) (*domain.User, error) {
	profile = profile.Normalize()
	profile.RoleID = domain.ClientRoleID
	return s.create(ctx, profile)
}

func (s *Service) create(ctx context.Context, profile domain.Profile) (*domain.User, error) {
	if err := profile.Validate(true); err != nil {
		return nil, mapError(err)
	}
	if err := s.ensureEmailAvailable(ctx, profile.Email, 0); err != nil {
		return nil, err
	}
	role, err := s.resolveRole(ctx, profile.RoleID)
	if err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(profile.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := s.now()
	saved, err := s.repo.Save(ctx, domain.NewUser(profile, role, hash, now))
	if err != nil {
		return nil, mapError(err)
	}
	_ = s.events.Publish(ctx, userKey(saved.ID), newUserEvent(saved, now))
	return saved, nil
}

// Login verifies the credentials and returns a signed token whose id is tracked in the session store.
// Unknown emails and wrong passwords produce the same error.
func (s *Service) Login(ctx context.Context, email, password string) (auth.Token, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return auth.Token{}, mapError(ErrInvalidCredentials)
	}
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return auth.Token{}, mapError(ErrInvalidCredentials)
		}
		return auth.Token{}, err
	}
	if !s.hasher.Compare(user.PasswordHash, password) {
		return auth.Token{}, mapError(ErrInvalidCredentials)
	}
	token, err := s.tokens.Issue(user.Email, user.Role.Name)
	if err != nil {
		return auth.Token{}, err
	}
	session := domain.Session{TokenID: token.ID, Email: user.Email, ExpiresAt: token.ExpiresAt, CreatedAt: s.now()}
	if err := s.sessions.Save(ctx, session); err != nil {
		return auth.Token{}, fmt.Errorf("record session: %w", err)
	}
	return token, nil
}

func (s *Service) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.repo.List(ctx)
}

// UpdateUser replaces the profile of an existing user. Changing the email revokes the
// sessions issued for the previous one.
func (s *Service) UpdateUser(ctx context.Context, id int64, profile domain.Profile) (*domain.User, error) {
	profile = profile.Normalize()
	if err := profile.Validate(false); err != nil {
		return nil, mapError(err)
	}
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previousEmail := user.Email
	if profile.Email != previousEmail {
		if err := s.ensureEmailAvailable(ctx, profile.Email, id); err != nil {
			return nil, err
		}
	}
	role, err := s.resolveRole(ctx, profile.RoleID)
	if err != nil {
		return nil, err
	}
	var hash string
	if profile.Password != "" {
		if hash, err = s.hasher.Hash(profile.Password); err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
	}
	user.ApplyProfile(profile, role, hash)
	saved, err := s.repo.Save(ctx, user)
	if err != nil {
		return nil, mapError(err)
	}
	if saved.Email != previousEmail {
		_ = s.sessions.DeleteByEmail(ctx, previousEmail)
	}
	return saved, nil
}

// DeleteUser removes the user and revokes every token issued to it.
func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	return s.sessions.DeleteByEmail(ctx, user.Email)
}

func (s *Service) Me(ctx context.Context, email string) (*domain.User, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return nil, mapError(ErrInvalidCredentials)
	}
	return s.repo.GetByEmail(ctx, email)
}

func (s *Service) ListRoles(ctx context.Context) ([]domain.Role, error) {
	return s.roles.List(ctx)
}

func (s *Service) GetRole(ctx context.Context, id int64) (domain.Role, error) {
	return s.roles.GetByID(ctx, id)
}

func (s *Service) CreateRole(ctx context.Context, name string) (domain.Role, error) {
	role, err := domain.NewRole(name)
	if err != nil {
		return domain.Role{}, mapError(err)
	}
	if _, err := s.roles.GetByName(ctx, role.Name); err == nil {
		return domain.Role{}, mapError(ports.ErrRoleNameTaken)
	} else if !errors.Is(err, ports.ErrRoleNotFound) {
		return domain.Role{}, err
	}
	created, err := s.roles.Create(ctx, role)
	if err != nil {
		return domain.Role{}, mapError(err)
	}
	return created, nil
}

func (s *Service) DeleteRole(ctx context.Context, id int64) error {
	return mapError(s.roles.Delete(ctx, id))
}

// PurgeExpiredSessions drops sessions whose tokens have expired.
func (s *Service) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	return s.sessions.PurgeExpired(ctx, s.now())
}

func (s *Service) ensureEmailAvailable(ctx context.Context, email string, ownerID int64) error {
	existing, err := s.repo.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, ports.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != ownerID:
		return mapError(ports.ErrEmailTaken)
	}
	return nil
}

func (s *Service) resolveRole(ctx context.Context, id int64) (domain.Role, error) {
	role, err := s.roles.GetByID(ctx, id)
	if errors.Is(err, ports.ErrRoleNotFound) {
		return domain.Role{}, fmt.Errorf("%w: role does not exist", ErrBusinessRule)
	}
	return role, err
}

func userKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

var _ ports.Service = (*Service)(nil)
