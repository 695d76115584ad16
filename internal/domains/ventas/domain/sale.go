package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNoLines          = errors.New("sale must contain at least one product")
	ErrInvalidQuantity  = errors.New("product quantities must be greater than zero")
	ErrDuplicateProduct = errors.New("duplicate products are not allowed in a sale")
	ErrEmptyProductRef  = errors.New("product id is required")
	ErrInvalidSeller    = errors.New("seller id is required")
	ErrInvalidClient    = errors.New("client id is required")
	ErrNegativeTotal    = errors.New("total must not be negative")
)

// ErrInsufficientStock is returned when inventory cannot cover a requested quantity.
var ErrInsufficientStock = errors.New("insufficient stock")

// Product is the inventory view of a product needed to price and describe a sale line.
type Product struct {
	Ref      string
	Name     string
	ImageURL string
	Price    decimal.Decimal
	Stock    int
}

// Line is one priced product of a sale. Name and image are a snapshot taken at sale time
// and refreshed from inventory on reads.
type Line struct {
	ID              int64
	ProductRef      string
	Quantity        int
	UnitPrice       decimal.Decimal
	Subtotal        decimal.Decimal
	ProductName     string
	ProductImageURL string
}

// Price copies the inventory price and metadata onto the line and computes its subtotal.
// A line resolved by name is re-keyed to the product id so stock movements address the product.
func (l *Line) Price(product Product) {
	if product.Ref != "" {
		l.ProductRef = product.Ref
	}
	l.UnitPrice = product.Price
	l.Subtotal = product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
	l.Describe(product)
}

// Describe overwrites the product metadata when inventory supplies it.
func (l *Line) Describe(product Product) {
	if product.Name != "" {
		l.ProductName = product.Name
	}
	if product.ImageURL != "" {
		l.ProductImageURL = product.ImageURL
	}
}

// EnsureStock fails when product cannot cover the line quantity.
func (l Line) EnsureStock(product Product) error {
	if product.Stock < l.Quantity {
		return fmt.Errorf("%w for product %s: available %d, requested %d", ErrInsufficientStock, l.ProductRef, product.Stock, l.Quantity)
	}
	return nil
}

// Sale is the sales aggregate.
type Sale struct {
	ID       int64
	SellerID int64
	ClientID int64
	// SoldOn is a calendar date at UTC midnight.
	SoldOn time.Time
	Total  decimal.Decimal
	Lines  []Line
}

// Draft carries the caller supplied fields of a new or updated sale.
type Draft struct {
	SellerID int64
	ClientID int64
	// Total is optional; nil or zero means "sum of subtotals".
	Total *decimal.Decimal
	Lines []Line
}

// Normalize trims product references.
func (d Draft) Normalize() Draft {
	lines := make([]Line, len(d.Lines))
	for i, line := range d.Lines {
		line.ID = 0
		line.ProductRef = strings.TrimSpace(line.ProductRef)
		lines[i] = line
	}
	d.Lines = lines
	return d
}

// Validate checks the draft of a new sale.
func (d Draft) Validate() error {
	if d.SellerID <= 0 {
		return ErrInvalidSeller
	}
	if d.ClientID <= 0 {
		return ErrInvalidClient
	}
	if d.Total != nil && d.Total.IsNegative() {
		return ErrNegativeTotal
	}
	return ValidateLines(d.Lines)
}

// ValidateLines enforces at least one line, positive quantities and unique products.
func ValidateLines(lines []Line) error {
	if len(lines) == 0 {
		return ErrNoLines
	}
	seen := make(map[string]struct{}, len(lines))
	for _, line := range lines {
		ref := strings.TrimSpace(line.ProductRef)
		if ref == "" {
			return ErrEmptyProductRef
		}
		if line.Quantity <= 0 {
			return fmt.Errorf("%w: product %s", ErrInvalidQuantity, ref)
		}
		if _, dup := seen[ref]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateProduct, ref)
		}
		seen[ref] = struct{}{}
	}
	return nil
}

// NewSale builds a sale dated today from priced lines.
func NewSale(draft Draft, lines []Line, now time.Time) *Sale {
	sale := &Sale{
		SellerID: draft.SellerID,
		ClientID: draft.ClientID,
		SoldOn:   DateOf(now),
		Lines:    cloneLines(lines),
	}
	sale.Total = resolveTotal(draft.Total, sale.Lines)
	return sale
}

// ApplyUpdate replaces the client and total, and the lines when lines is non-empty.
func (s *Sale) ApplyUpdate(clientID int64, total *decimal.Decimal, lines []Line) error {
	if clientID <= 0 {
		return ErrInvalidClient
	}
	if total != nil && total.IsNegative() {
		return ErrNegativeTotal
	}
	s.ClientID = clientID
	if len(lines) > 0 {
		s.Lines = cloneLines(lines)
	}
	s.Total = resolveTotal(total, s.Lines)
	return nil
}

// SumSubtotals adds the subtotal of every line.
func SumSubtotals(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, line := range lines {
		sum = sum.Add(line.Subtotal)
	}
	return sum
}

func resolveTotal(total *decimal.Decimal, lines []Line) decimal.Decimal {
	if total != nil && total.IsPositive() {
		return *total
	}
	return SumSubtotals(lines)
}

// DateOf truncates t to its UTC calendar date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Clone returns a deep copy.
func (s *Sale) Clone() *Sale {
	if s == nil {
		return nil
	}
	clone := *s
	clone.Lines = cloneLines(s.Lines)
	return &clone
}

func cloneLines(lines []Line) []Line {
	if lines == nil {
		return nil
	}
	out := make([]Line, len(lines))
	copy(out, lines)
	return out
}
