// Package auth issues and verifies bearer tokens and exposes the gin middleware chain
// shared by the FarmaSync services.
package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenTTL matches the session length handed to the web client.
const DefaultTokenTTL = 10 * time.Hour

var (
	// ErrInvalidToken covers malformed, expired, or badly signed tokens.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrRevokedToken is returned when the token id is no longer active.
	ErrRevokedToken = errors.New("token has been revoked")
	// ErrTokenStoreUnavailable wraps a failed revocation lookup. The token itself may be valid.
	ErrTokenStoreUnavailable = errors.New("token store unavailable")
)

// Principal is the authenticated caller extracted from a token.
type Principal struct {
	Email     string
	Role      string
	TokenID   string
	ExpiresAt time.Time
}

// HasRole reports whether the principal carries one of roles (case-insensitive).
func (p *Principal) HasRole(roles ...string) bool {
	if p == nil {
		return false
	}
	for _, role := range roles {
		if strings.EqualFold(p.Role, role) {
			return true
		}
	}
	return false
}

// Token is a signed JWT plus the metadata needed to track it server-side.
type Token struct {
	Value     string
	ID        string
	ExpiresAt time.Time
}

// Verifier turns a raw bearer token into a Principal.
type Verifier interface {
	Verify(ctx context.Context, raw string) (*Principal, error)
}

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 tokens with a shared secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	name   string
	now    func() time.Time
}

// IssuerOption configures an Issuer.
type IssuerOption func(*Issuer)

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) IssuerOption {
	return func(i *Issuer) {
		if now != nil {
			i.now = now
		}
	}
}

// WithIssuerName sets the iss claim.
func WithIssuerName(name string) IssuerOption {
	return func(i *Issuer) {
		i.name = strings.TrimSpace(name)
	}
}

// NewIssuer validates the secret and applies DefaultTokenTTL when ttl is not positive.
func NewIssuer(secret []byte, ttl time.Duration, opts ...IssuerOption) (*Issuer, error) {
	if len(secret) < 32 {
		return nil, errors.New("jwt secret must be at least 32 bytes")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	issuer := &Issuer{secret: secret, ttl: ttl, name: "farmasync", now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(issuer)
		}
	}
	return issuer, nil
}

// DecodeSecret decodes a base64 encoded signing key.
func DecodeSecret(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, errors.New("jwt secret is empty")
	}
	secret, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode jwt secret: %w", err)
	}
	return secret, nil
}

// Issue signs a token for email carrying role.
func (i *Issuer) Issue(email, role string) (Token, error) {
	if i == nil {
		return Token{}, errors.New("token issuer not configured")
	}
	now := i.now()
	expiresAt := now.Add(i.ttl)
	id := uuid.NewString()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Subject:   email,
			Issuer:    i.name,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}
	return Token{Value: signed, ID: id, ExpiresAt: expiresAt}, nil
}

// Verify checks signature, algorithm, and expiry.
func (i *Issuer) Verify(_ context.Context, raw string) (*Principal, error) {
	if i == nil {
		return nil, errors.New("token issuer not configured")
	}
	var parsed claims
	_, err := jwt.ParseWithClaims(strings.TrimSpace(raw), &parsed, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if strings.TrimSpace(parsed.Subject) == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	principal := &Principal{Email: parsed.Subject, Role: parsed.Role, TokenID: parsed.ID}
	if parsed.ExpiresAt != nil {
		principal.ExpiresAt = parsed.ExpiresAt.Time
	}
	return principal, nil
}

var _ Verifier = (*Issuer)(nil)

// ActiveTokenChecker reports whether a token id is still valid server-side.
type ActiveTokenChecker interface {
	IsActive(ctx context.Context, tokenID string) (bool, error)
}

// RevocationVerifier rejects tokens whose id is no longer active.
type RevocationVerifier struct {
	inner  Verifier
	tokens ActiveTokenChecker
}

// NewRevocationVerifier decorates inner with a server-side revocation check.
func NewRevocationVerifier(inner Verifier, tokens ActiveTokenChecker) *RevocationVerifier {
	return &RevocationVerifier{inner: inner, tokens: tokens}
}

// Verify delegates to the inner verifier, then consults the token store.
func (v *RevocationVerifier) Verify(ctx context.Context, raw string) (*Principal, error) {
	principal, err := v.inner.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	if v.tokens == nil || principal.TokenID == "" {
		return principal, nil
	}
	active, err := v.tokens.IsActive(ctx, principal.TokenID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenStoreUnavailable, err)
	}
	if !active {
		return nil, ErrRevokedToken
	}
	return principal, nil
}
