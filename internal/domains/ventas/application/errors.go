package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/farmasync/internal/domains/ventas/domain"
)

var (
	// ErrInvalidInput signals the request violated a field-level invariant.
	ErrInvalidInput = errors.New("invalid sale input")
	// ErrBusinessRule signals an inventory or composition rule rejected the request.
	ErrBusinessRule = errors.New("sale business rule violated")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrInvalidSeller) ||
		errors.Is(err, domain.ErrInvalidClient) ||
		errors.Is(err, domain.ErrNegativeTotal) ||
		errors.Is(err, domain.ErrEmptyProductRef) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if errors.Is(err, domain.ErrNoLines) ||
		errors.Is(err, domain.ErrInvalidQuantity) ||
		errors.Is(err, domain.ErrDuplicateProduct) ||
		errors.Is(err, domain.ErrInsufficientStock) {
		return fmt.Errorf("%w: %w", ErrBusinessRule, err)
	}
	return err
}
