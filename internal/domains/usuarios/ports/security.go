package ports

import "github.com/Apurer/farmasync/internal/platform/auth"

// PasswordHasher hashes and compares plain-text passwords.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Compare(hashed, plain string) bool
}

// TokenIssuer signs bearer tokens for authenticated users.
type TokenIssuer interface {
	Issue(email, role string) (auth.Token, error)
}
