package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/farmasync/internal/domains/usuarios/domain"
	"github.com/Apurer/farmasync/internal/domains/usuarios/ports"
)

var (
	// ErrInvalidInput signals the request violated a domain invariant.
	ErrInvalidInput = errors.New("invalid user input")
	// ErrBusinessRule signals a uniqueness or reference rule rejected the request.
	ErrBusinessRule = errors.New("user business rule violated")
	// ErrAuthentication wraps authentication failures.
	ErrAuthentication = errors.New("authentication failed")
	// ErrInvalidCredentials is the only detail exposed on failed logins.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrEmptyEmail) ||
		errors.Is(err, domain.ErrInvalidEmail) ||
		errors.Is(err, domain.ErrEmptyPassword) ||
		errors.Is(err, domain.ErrWeakPassword) ||
		errors.Is(err, domain.ErrRoleRequired) ||
		errors.Is(err, domain.ErrEmptyRoleName) ||
		errors.Is(err, domain.ErrRoleNameTooLong) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if errors.Is(err, ports.ErrEmailTaken) ||
		errors.Is(err, ports.ErrRoleNameTaken) ||
		errors.Is(err, ports.ErrRoleInUse) {
		return fmt.Errorf("%w: %w", ErrBusinessRule, err)
	}
	if errors.Is(err, ErrInvalidCredentials) {
		return fmt.Errorf("%w: %w", ErrAuthentication, err)
	}
	return err
}
