package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestIssuer(t *testing.T, now func() time.Time) *Issuer {
	t.Helper()
	issuer, err := NewIssuer(testSecret, time.Hour, WithClock(now))
	require.NoError(t, err)
	return issuer
}

func TestIssueAndVerify_RoundTripsClaims(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	issuer := newTestIssuer(t, func() time.Time { return now })

	token, err := issuer.Issue("ana@farmasync.co", "ADMIN")
	require.NoError(t, err)
	assert.NotEmpty(t, token.ID)
	assert.Equal(t, now.Add(time.Hour), token.ExpiresAt)

	principal, err := issuer.Verify(context.Background(), token.Value)
	require.NoError(t, err)
	assert.Equal(t, "ana@farmasync.co", principal.Email)
	assert.Equal(t, "ADMIN", principal.Role)
	assert.Equal(t, token.ID, principal.TokenID)
	assert.True(t, principal.HasRole("admin"))
}

func TestVerify_RejectsExpiredToken(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	issuer := newTestIssuer(t, func() time.Time { return now })
	token, err := issuer.Issue("ana@farmasync.co", "CLIENTE")
	require.NoError(t, err)

	later := newTestIssuer(t, func() time.Time { return now.Add(2 * time.Hour) })
	_, err = later.Verify(context.Background(), token.Value)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_RejectsForeignSignature(t *testing.T) {
	issuer := newTestIssuer(t, time.Now)
	other, err := NewIssuer([]byte(strings.Repeat("z", 32)), time.Hour)
	require.NoError(t, err)
	token, err := other.Issue("ana@farmasync.co", "ADMIN")
	require.NoError(t, err)

	_, err = issuer.Verify(context.Background(), token.Value)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewIssuer_RequiresLongSecret(t *testing.T) {
	_, err := NewIssuer([]byte("short"), time.Hour)
	require.Error(t, err)
}

func TestDecodeSecret(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString(testSecret)
	secret, err := DecodeSecret(encoded)
	require.NoError(t, err)
	assert.Equal(t, testSecret, secret)

	_, err = DecodeSecret("%%%")
	require.Error(t, err)
}

type fakeTokenChecker struct {
	active map[string]bool
	err    error
}

func (f fakeTokenChecker) IsActive(_ context.Context, id string) (bool, error) {
	return f.active[id], f.err
}

func TestRevocationVerifier(t *testing.T) {
	issuer := newTestIssuer(t, time.Now)
	token, err := issuer.Issue("ana@farmasync.co", "ADMIN")
	require.NoError(t, err)

	active := NewRevocationVerifier(issuer, fakeTokenChecker{active: map[string]bool{token.ID: true}})
	_, err = active.Verify(context.Background(), token.Value)
	require.NoError(t, err)

	revoked := NewRevocationVerifier(issuer, fakeTokenChecker{active: map[string]bool{}})
	_, err = revoked.Verify(context.Background(), token.Value)
	require.ErrorIs(t, err, ErrRevokedToken)

	failing := NewRevocationVerifier(issuer, fakeTokenChecker{err: errors.New("db down")})
	_, err = failing.Verify(context.Background(), token.Value)
	require.ErrorIs(t, err, ErrTokenStoreUnavailable)
	assert.NotErrorIs(t, err, ErrRevokedToken)
	assert.Contains(t, err.Error(), "db down")
}

func TestBcryptHasher(t *testing.T) {
	hasher := NewBcryptHasher(4)
	hashed, err := hasher.Hash("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hashed)
	assert.True(t, hasher.Compare(hashed, "s3cret"))
	assert.False(t, hasher.Compare(hashed, "other"))
	assert.False(t, hasher.Compare("", "s3cret"))
}
