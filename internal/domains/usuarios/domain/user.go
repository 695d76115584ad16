package domain

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

// MinPasswordLength is the shortest accepted plain-text password.
const MinPasswordLength = 4

var (
	ErrEmptyEmail    = errors.New("email is required")
	ErrInvalidEmail  = errors.New("email must be a valid address")
	ErrEmptyPassword = errors.New("password is required")
	ErrWeakPassword  = errors.New("password must be at least 4 characters")
	ErrRoleRequired  = errors.New("role id is required")
)

// User is a registered account of the pharmacy platform.
type User struct {
	ID           int64
	FirstName    string
	LastName     string
	Email        string
	Address      string
	Phone        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// Profile carries the caller supplied fields of a new or updated user.
type Profile struct {
	FirstName string
	LastName  string
	Email     string
	Address   string
	Phone     string
	// Password is plain text; empty on update keeps the stored hash.
	Password string
	RoleID   int64
}

// Normalize trims every field and lower-cases the email.
func (p Profile) Normalize() Profile {
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	p.Email = NormalizeEmail(p.Email)
	p.Address = strings.TrimSpace(p.Address)
	p.Phone = strings.TrimSpace(p.Phone)
	return p
}

// Validate checks the profile. requirePassword is false for updates.
func (p Profile) Validate(requirePassword bool) error {
	if err := ValidateEmail(p.Email); err != nil {
		return err
	}
	if p.Password == "" {
		if requirePassword {
			return ErrEmptyPassword
		}
	} else if len(strings.TrimSpace(p.Password)) < MinPasswordLength {
		return ErrWeakPassword
	}
	if p.RoleID <= 0 {
		return ErrRoleRequired
	}
	return nil
}

// NormalizeEmail is the canonical form used for lookups and uniqueness.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ValidateEmail(email string) error {
	if email == "" {
		return ErrEmptyEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmail
	}
	return nil
}

// NewUser builds a user from a validated profile, its resolved role and the password hash.
func NewUser(profile Profile, role Role, passwordHash string, now time.Time) *User {
	u := &User{PasswordHash: passwordHash, CreatedAt: now}
	u.apply(profile, role)
	return u
}

// ApplyProfile replaces the editable fields. The hash changes only when passwordHash is non-empty.
func (u *User) ApplyProfile(profile Profile, role Role, passwordHash string) {
	u.apply(profile, role)
	if passwordHash != "" {
		u.PasswordHash = passwordHash
	}
}

func (u *User) apply(profile Profile, role Role) {
	u.FirstName = profile.FirstName
	u.LastName = profile.LastName
	u.Email = profile.Email
	u.Address = profile.Address
	u.Phone = profile.Phone
	u.Role = role
}

// Clone returns a copy safe to hand across adapter boundaries.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}
