package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// MaxNotesLength bounds free-text observations on orders.
const MaxNotesLength = 500

var (
	ErrNoLines           = errors.New("order must contain at least one product")
	ErrInvalidQuantity   = errors.New("product quantities must be greater than zero")
	ErrDuplicateProduct  = errors.New("order contains duplicate products")
	ErrEmptyProductRef   = errors.New("product reference is required")
	ErrInvalidSupplier   = errors.New("supplier id is required")
	ErrInvalidCreator    = errors.New("creating user id is required")
	ErrInvalidTotal      = errors.New("total must be greater than zero")
	ErrDeliveryNotFuture = errors.New("delivery date must be in the future")
	ErrNotesTooLong      = errors.New("observations must not exceed 500 characters")
	ErrNotUpdatable      = errors.New("order cannot be updated in its current status")
	ErrNotDeletable      = errors.New("order cannot be deleted in its current status")
)

// Line is one product-quantity pair of an order.
type Line struct {
	ID         int64
	ProductRef string
	Quantity   int
}

// Order is the supplier order aggregate.
type Order struct {
	ID           int64
	SupplierID   int64
	CreatedBy    int64
	Status       Status
	Notes        string
	OrderedAt    time.Time
	DeliveryDate *time.Time
	Total        decimal.Decimal
	Lines        []Line
}

// Draft carries the caller supplied fields of a new or updated order.
type Draft struct {
	SupplierID   int64
	CreatedBy    int64
	Notes        string
	DeliveryDate *time.Time
	// Total is optional; nil means "not supplied".
	Total *decimal.Decimal
	Lines []Line
}

// NewOrder validates draft and builds a PENDING order stamped at now.
func NewOrder(draft Draft, now time.Time) (*Order, error) {
	if draft.CreatedBy <= 0 {
		return nil, ErrInvalidCreator
	}
	if err := ValidateLines(draft.Lines); err != nil {
		return nil, err
	}
	if err := validateHeader(draft, now); err != nil {
		return nil, err
	}
	return &Order{
		SupplierID:   draft.SupplierID,
		CreatedBy:    draft.CreatedBy,
		Status:       StatusPending,
		Notes:        strings.TrimSpace(draft.Notes),
		OrderedAt:    now,
		DeliveryDate: truncateDate(draft.DeliveryDate),
		Total:        totalOrZero(draft.Total),
		Lines:        normalizeLines(draft.Lines),
	}, nil
}

// ValidateLines enforces non-empty, positive quantities, and unique product references, in that order.
func ValidateLines(lines []Line) error {
	if len(lines) == 0 {
		return ErrNoLines
	}
	for _, line := range lines {
		if line.Quantity <= 0 {
			return ErrInvalidQuantity
		}
	}
	seen := make(map[string]struct{}, len(lines))
	for _, line := range lines {
		ref := strings.TrimSpace(line.ProductRef)
		if ref == "" {
			return ErrEmptyProductRef
		}
		if _, dup := seen[ref]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateProduct, ref)
		}
		seen[ref] = struct{}{}
	}
	return nil
}

// ApplyUpdate replaces the editable fields. Lines are replaced only when draft carries some.
func (o *Order) ApplyUpdate(draft Draft, now time.Time) error {
	if err := o.EnsureUpdatable(); err != nil {
		return err
	}
	if len(draft.Lines) > 0 {
		if err := ValidateLines(draft.Lines); err != nil {
			return err
		}
	}
	if err := validateHeader(draft, now); err != nil {
		return err
	}
	o.SupplierID = draft.SupplierID
	o.Notes = strings.TrimSpace(draft.Notes)
	o.DeliveryDate = truncateDate(draft.DeliveryDate)
	if draft.Total != nil {
		o.Total = *draft.Total
	}
	if len(draft.Lines) > 0 {
		o.Lines = normalizeLines(draft.Lines)
	}
	return nil
}

// ChangeStatus moves the order along the lifecycle table. notes are the observations that
// will accompany the history entry. Reaching DELIVERED stamps the delivery date with the
// calendar day of now.
func (o *Order) ChangeStatus(to Status, notes string, now time.Time) error {
	if !to.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, to)
	}
	if !CanTransition(o.Status, to) {
		return fmt.Errorf("%w: cannot change status from %s to %s", ErrInvalidTransition, o.Status, to)
	}
	if utf8.RuneCountInString(notes) > MaxNotesLength {
		return ErrNotesTooLong
	}
	o.Status = to
	if to == StatusDelivered {
		o.DeliveryDate = truncateDate(&now)
	}
	return nil
}

// EnsureUpdatable rejects edits on DELIVERED and CANCELLED orders.
func (o *Order) EnsureUpdatable() error {
	if o.Status == StatusDelivered || o.Status == StatusCancelled {
		return fmt.Errorf("%w: %s", ErrNotUpdatable, o.Status)
	}
	return nil
}

// EnsureDeletable rejects deletion of orders IN_PROCESS or SHIPPED.
func (o *Order) EnsureDeletable() error {
	if o.Status == StatusInProcess || o.Status == StatusShipped {
		return fmt.Errorf("%w: %s", ErrNotDeletable, o.Status)
	}
	return nil
}

// Clone returns a deep copy.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	if o.DeliveryDate != nil {
		d := *o.DeliveryDate
		clone.DeliveryDate = &d
	}
	clone.Lines = append([]Line(nil), o.Lines...)
	return &clone
}

func validateHeader(draft Draft, now time.Time) error {
	if draft.SupplierID <= 0 {
		return ErrInvalidSupplier
	}
	if utf8.RuneCountInString(draft.Notes) > MaxNotesLength {
		return ErrNotesTooLong
	}
	if draft.Total != nil && !draft.Total.IsPositive() {
		return ErrInvalidTotal
	}
	if draft.DeliveryDate != nil && !truncateDate(draft.DeliveryDate).After(*truncateDate(&now)) {
		return ErrDeliveryNotFuture
	}
	return nil
}

func normalizeLines(lines []Line) []Line {
	out := make([]Line, 0, len(lines))
	for _, line := range lines {
		line.ID = 0
		line.ProductRef = strings.TrimSpace(line.ProductRef)
		out = append(out, line)
	}
	return out
}

func totalOrZero(total *decimal.Decimal) decimal.Decimal {
	if total == nil || !total.IsPositive() {
		return decimal.Zero
	}
	return *total
}

func truncateDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &day
}
