package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/farmasync/internal/domains/usuarios/adapters/memory"
	"github.com/Apurer/farmasync/internal/domains/usuarios/domain"
	"github.com/Apurer/farmasync/internal/domains/usuarios/ports"
	"github.com/Apurer/farmasync/internal/platform/auth"
)

var fixedNow = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

type plainHasher struct{}

func (plainHasher) Hash(plain string) (string, error) { return "hashed:" + plain, nil }

func (plainHasher) Compare(hashed, plain string) bool { return hashed == "hashed:"+plain }

type fakeIssuer struct {
	issued int
}

func (f *fakeIssuer) Issue(email, role string) (auth.Token, error) {
	f.issued++
	return auth.Token{
		Value:     fmt.Sprintf("%s|%s", email, role),
		ID:        fmt.Sprintf("jti-%d", f.issued),
		ExpiresAt: fixedNow.Add(time.Hour),
	}, nil
}

type fakeSessionStore struct {
	sessions map[string]domain.Session
	failSave bool
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: map[string]domain.Session{}}
}

func (f *fakeSessionStore) Save(_ context.Context, session domain.Session) error {
	if f.failSave {
		return errors.New("session store unavailable")
	}
	f.sessions[session.TokenID] = session
	return nil
}

func (f *fakeSessionStore) IsActive(_ context.Context, tokenID string) (bool, error) {
	_, ok := f.sessions[tokenID]
	return ok, nil
}

func (f *fakeSessionStore) DeleteByEmail(_ context.Context, email string) error {
	for id, session := range f.sessions {
		if session.Email == email {
			delete(f.sessions, id)
		}
	}
	return nil
}

func (f *fakeSessionStore) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	var purged int64
	for id, session := range f.sessions {
		if session.Expired(now) {
			delete(f.sessions, id)
			purged++
		}
	}
	return purged, nil
}

type recordingPublisher struct {
	events []UserEvent
}

func (r *recordingPublisher) Publish(_ context.Context, _ string, event any) error {
	if e, ok := event.(UserEvent); ok {
		r.events = append(r.events, e)
	}
	return nil
}

type fixture struct {
	svc       *Service
	sessions  *fakeSessionStore
	issuer    *fakeIssuer
	publisher *recordingPublisher
}

func newFixture() fixture {
	f := fixture{
		sessions:  newFakeSessionStore(),
		issuer:    &fakeIssuer{},
		publisher: &recordingPublisher{},
	}
	f.svc = NewService(memory.NewRepository(), memory.NewRoleRepository(), plainHasher{}, f.issuer,
		WithSessionStore(f.sessions),
		WithEventPublisher(f.publisher),
		WithClock(func() time.Time { return fixedNow }),
	)
	return f
}

func anaProfile() domain.Profile {
	return domain.Profile{
		FirstName: "Ana",
		LastName:  "Pérez",
		Email:     "Ana@FarmaSync.co",
		Password:  "secreto",
		RoleID:    1,
	}
}

func TestCreateUser_HashesPasswordAndPublishes(t *testing.T) {
	f := newFixture()

	user, err := f.svc.CreateUser(context.Background(), anaProfile())
	require.NoError(t, err)
	assert.Equal(t, "ana@farmasync.co", user.Email)
	assert.Equal(t, "hashed:secreto", user.PasswordHash)
	assert.Equal(t, domain.RoleAdmin, user.Role.Name)
	assert.Equal(t, fixedNow, user.CreatedAt)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, EventUserRegistered, f.publisher.events[0].EventType())
	assert.Equal(t, user.ID, f.publisher.events[0].UserID)
}

func TestCreateUser_RejectsDuplicateEmail(t *testing.T) {
	f := newFixture()
	_, err := f.svc.CreateUser(context.Background(), anaProfile())
	require.NoError(t, err)

	profile := anaProfile()
	profile.Email = " ana@farmasync.co"
	_, err = f.svc.CreateUser(context.Background(), profile)
	assert.ErrorIs(t, err, ErrBusinessRule)
	assert.ErrorIs(t, err, ports.ErrEmailTaken)
}

func TestCreateUser_RejectsUnknownRole(t *testing.T) {
	f := newFixture()
	profile := anaProfile()
	profile.RoleID = 42

	_, err := f.svc.CreateUser(context.Background(), profile)
	assert.ErrorIs(t, err, ErrBusinessRule)
	assert.Contains(t, err.Error(), "role does not exist")
	assert.Empty(t, f.publisher.events)
}

func TestCreateUser_RejectsInvalidProfile(t *testing.T) {
	f := newFixture()
	profile := anaProfile()
	profile.Email = "no-es-un-correo"

	_, err := f.svc.CreateUser(context.Background(), profile)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)
}

func TestRegister_AlwaysAssignsClientRole(t *testing.T) {
	f := newFixture()
	profile := anaProfile()
	profile.RoleID = 1

	user, err := f.svc.Register(context.Background(), profile)
	require.NoError(t, err)
	assert.Equal(t, domain.ClientRoleID, user.Role.ID)
	assert.Equal(t, domain.RoleClient, user.Role.Name)
}

func TestLogin_IssuesTokenAndRecordsSession(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Register(context.Background(), anaProfile())
	require.NoError(t, err)

	token, err := f.svc.Login(context.Background(), "ANA@farmasync.co", "secreto")
	require.NoError(t, err)
	assert.Equal(t, "ana@farmasync.co|CLIENTE", token.Value)

	session, ok := f.sessions.sessions[token.ID]
	require.True(t, ok)
	assert.Equal(t, "ana@farmasync.co", session.Email)
	assert.Equal(t, token.ExpiresAt, session.ExpiresAt)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Register(context.Background(), anaProfile())
	require.NoError(t, err)

	for name, creds := range map[string][2]string{
		"wrong password": {"ana@farmasync.co", "otra"},
		"unknown email":  {"nadie@farmasync.co", "secreto"},
		"empty password": {"ana@farmasync.co", ""},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.Login(context.Background(), creds[0], creds[1])
			assert.ErrorIs(t, err, ErrAuthentication)
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		})
	}
	assert.Zero(t, f.issuer.issued)
}

func TestLogin_FailsWhenSessionCannotBeRecorded(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Register(context.Background(), anaProfile())
	require.NoError(t, err)
	f.sessions.failSave = true

	_, err = f.svc.Login(context.Background(), "ana@farmasync.co", "secreto")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAuthentication)
}

func TestUpdateUser_KeepsPasswordWhenEmpty(t *testing.T) {
	f := newFixture()
	created, err := f.svc.CreateUser(context.Background(), anaProfile())
	require.NoError(t, err)

	profile := anaProfile()
	profile.Password = ""
	profile.Phone = "3001234567"
	profile.RoleID = 3
	updated, err := f.svc.UpdateUser(context.Background(), created.ID, profile)
	require.NoError(t, err)
	assert.Equal(t, "hashed:secreto", updated.PasswordHash)
	assert.Equal(t, "3001234567", updated.Phone)
	assert.Equal(t, domain.RoleEmployee, updated.Role.Name)

	profile.Password = "nueva"
	updated, err = f.svc.UpdateUser(context.Background(), created.ID, profile)
	require.NoError(t, err)
	assert.Equal(t, "hashed:nueva", updated.PasswordHash)
}

func TestUpdateUser_EmailChangeRevokesSessionsAndChecksUniqueness(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	ana, err := f.svc.CreateUser(ctx, anaProfile())
	require.NoError(t, err)
	luis := anaProfile()
	luis.Email = "luis@farmasync.co"
	_, err = f.svc.CreateUser(ctx, luis)
	require.NoError(t, err)

	token, err := f.svc.Login(ctx, "ana@farmasync.co", "secreto")
	require.NoError(t, err)

	taken := anaProfile()
	taken.Email = "luis@farmasync.co"
	_, err = f.svc.UpdateUser(ctx, ana.ID, taken)
	assert.ErrorIs(t, err, ports.ErrEmailTaken)

	moved := anaProfile()
	moved.Email = "ana.perez@farmasync.co"
	_, err = f.svc.UpdateUser(ctx, ana.ID, moved)
	require.NoError(t, err)
	assert.NotContains(t, f.sessions.sessions, token.ID)
}

func TestUpdateUser_MissingUser(t *testing.T) {
	f := newFixture()
	_, err := f.svc.UpdateUser(context.Background(), 99, anaProfile())
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestDeleteUser_RevokesSessions(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	user, err := f.svc.Register(ctx, anaProfile())
	require.NoError(t, err)
	token, err := f.svc.Login(ctx, "ana@farmasync.co", "secreto")
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteUser(ctx, user.ID))
	assert.NotContains(t, f.sessions.sessions, token.ID)
	assert.ErrorIs(t, f.svc.DeleteUser(ctx, user.ID), ports.ErrNotFound)
}

func TestMe(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	user, err := f.svc.Register(ctx, anaProfile())
	require.NoError(t, err)

	me, err := f.svc.Me(ctx, "ana@farmasync.co")
	require.NoError(t, err)
	assert.Equal(t, user.ID, me.ID)

	_, err = f.svc.Me(ctx, "ghost@farmasync.co")
	assert.ErrorIs(t, err, ports.ErrNotFound)

	_, err = f.svc.Me(ctx, "  ")
	assert.ErrorIs(t, err, ErrAuthentication)
}

func TestRoles(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	roles, err := f.svc.ListRoles(ctx)
	require.NoError(t, err)
	assert.Len(t, roles, 3)

	created, err := f.svc.CreateRole(ctx, "auditor")
	require.NoError(t, err)
	assert.Equal(t, "AUDITOR", created.Name)

	_, err = f.svc.CreateRole(ctx, "Auditor")
	assert.ErrorIs(t, err, ErrBusinessRule)
	assert.ErrorIs(t, err, ports.ErrRoleNameTaken)

	_, err = f.svc.CreateRole(ctx, strings.Repeat("x", domain.MaxRoleNameLength+1))
	assert.ErrorIs(t, err, ErrInvalidInput)

	got, err := f.svc.GetRole(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	require.NoError(t, f.svc.DeleteRole(ctx, created.ID))
	assert.ErrorIs(t, f.svc.DeleteRole(ctx, created.ID), ports.ErrRoleNotFound)
}

func TestPurgeExpiredSessions(t *testing.T) {
	f := newFixture()
	f.sessions.sessions["old"] = domain.Session{TokenID: "old", ExpiresAt: fixedNow.Add(-time.Minute)}
	f.sessions.sessions["new"] = domain.Session{TokenID: "new", ExpiresAt: fixedNow.Add(time.Minute)}

	purged, err := f.svc.PurgeExpiredSessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)
	assert.Contains(t, f.sessions.sessions, "new")
}
