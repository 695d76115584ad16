package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/farmasync/internal/domains/pedidos/domain"
)

var (
	// ErrInvalidInput signals the request violated a field-level invariant.
	ErrInvalidInput = errors.New("invalid order input")
	// ErrBusinessRule signals a lifecycle or inventory rule rejected the request.
	ErrBusinessRule = errors.New("order business rule violated")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrInvalidSupplier) ||
		errors.Is(err, domain.ErrInvalidCreator) ||
		errors.Is(err, domain.ErrInvalidTotal) ||
		errors.Is(err, domain.ErrDeliveryNotFuture) ||
		errors.Is(err, domain.ErrNotesTooLong) ||
		errors.Is(err, domain.ErrEmptyProductRef) ||
		errors.Is(err, domain.ErrInvalidStatus) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if errors.Is(err, domain.ErrNoLines) ||
		errors.Is(err, domain.ErrInvalidQuantity) ||
		errors.Is(err, domain.ErrDuplicateProduct) ||
		errors.Is(err, domain.ErrInvalidTransition) ||
		errors.Is(err, domain.ErrNotUpdatable) ||
		errors.Is(err, domain.ErrNotDeletable) {
		return fmt.Errorf("%w: %w", ErrBusinessRule, err)
	}
	return err
}
