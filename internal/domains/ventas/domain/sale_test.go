package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 3, 17, 45, 0, 0, time.UTC)

func validDraft() Draft {
	return Draft{
		SellerID: 4,
		ClientID: 9,
		Lines: []Line{
			{ProductRef: "p-1", Quantity: 2},
			{ProductRef: "p-2", Quantity: 1},
		},
	}
}

func TestDraft_Validate(t *testing.T) {
	negative := decimal.NewFromInt(-5)
	cases := []struct {
		name   string
		mutate func(*Draft)
		want   error
	}{
		{"no lines", func(d *Draft) { d.Lines = nil }, ErrNoLines},
		{"zero quantity", func(d *Draft) { d.Lines[0].Quantity = 0 }, ErrInvalidQuantity},
		{"negative quantity", func(d *Draft) { d.Lines[1].Quantity = -1 }, ErrInvalidQuantity},
		{"duplicate product", func(d *Draft) { d.Lines[1].ProductRef = " p-1" }, ErrDuplicateProduct},
		{"blank product", func(d *Draft) { d.Lines[0].ProductRef = " " }, ErrEmptyProductRef},
		{"missing seller", func(d *Draft) { d.SellerID = 0 }, ErrInvalidSeller},
		{"missing client", func(d *Draft) { d.ClientID = -1 }, ErrInvalidClient},
		{"negative total", func(d *Draft) { d.Total = &negative }, ErrNegativeTotal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			draft := validDraft()
			tc.mutate(&draft)
			assert.ErrorIs(t, draft.Validate(), tc.want)
		})
	}
	assert.NoError(t, validDraft().Validate())
}

func TestDraft_NormalizeTrimsRefs(t *testing.T) {
	draft := validDraft()
	draft.Lines[0].ProductRef = "  p-1 "
	normalized := draft.Normalize()
	assert.Equal(t, "p-1", normalized.Lines[0].ProductRef)
	assert.Equal(t, "  p-1 ", draft.Lines[0].ProductRef)
}

func TestLine_PriceAndStock(t *testing.T) {
	line := Line{ProductRef: "p-1", Quantity: 3}
	product := Product{Ref: "p-1", Name: "Acetaminofén", ImageURL: "http://img/1.png", Price: decimal.RequireFromString("2.50"), Stock: 2}

	line.Price(product)
	assert.True(t, decimal.RequireFromString("7.50").Equal(line.Subtotal))
	assert.True(t, product.Price.Equal(line.UnitPrice))
	assert.Equal(t, "Acetaminofén", line.ProductName)
	assert.Equal(t, "http://img/1.png", line.ProductImageURL)

	err := line.EnsureStock(product)
	require.ErrorIs(t, err, ErrInsufficientStock)
	assert.Contains(t, err.Error(), "available 2, requested 3")

	product.Stock = 3
	assert.NoError(t, line.EnsureStock(product))
}

func TestLine_DescribeKeepsSnapshotWhenEmpty(t *testing.T) {
	line := Line{ProductName: "Ibuprofeno", ProductImageURL: "old.png"}
	line.Describe(Product{})
	assert.Equal(t, "Ibuprofeno", line.ProductName)
	assert.Equal(t, "old.png", line.ProductImageURL)
}

func TestNewSale_TotalAndDate(t *testing.T) {
	lines := []Line{
		{ProductRef: "p-1", Quantity: 2, Subtotal: decimal.RequireFromString("10.00")},
		{ProductRef: "p-2", Quantity: 1, Subtotal: decimal.RequireFromString("4.25")},
	}
	sale := NewSale(validDraft(), lines, testNow)
	assert.Equal(t, time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC), sale.SoldOn)
	assert.True(t, decimal.RequireFromString("14.25").Equal(sale.Total))

	zero := decimal.Zero
	draft := validDraft()
	draft.Total = &zero
	assert.True(t, decimal.RequireFromString("14.25").Equal(NewSale(draft, lines, testNow).Total))

	explicit := decimal.RequireFromString("13.00")
	draft.Total = &explicit
	assert.True(t, explicit.Equal(NewSale(draft, lines, testNow).Total))
}

func TestSale_ApplyUpdate(t *testing.T) {
	sale := NewSale(validDraft(), []Line{{ProductRef: "p-1", Quantity: 1, Subtotal: decimal.NewFromInt(5)}}, testNow)

	require.NoError(t, sale.ApplyUpdate(11, nil, nil))
	assert.Equal(t, int64(11), sale.ClientID)
	assert.Len(t, sale.Lines, 1)
	assert.True(t, decimal.NewFromInt(5).Equal(sale.Total))

	replaced := []Line{{ProductRef: "p-3", Quantity: 2, Subtotal: decimal.NewFromInt(8)}}
	require.NoError(t, sale.ApplyUpdate(11, nil, replaced))
	assert.Equal(t, "p-3", sale.Lines[0].ProductRef)
	assert.True(t, decimal.NewFromInt(8).Equal(sale.Total))

	assert.ErrorIs(t, sale.ApplyUpdate(0, nil, nil), ErrInvalidClient)
	negative := decimal.NewFromInt(-1)
	assert.ErrorIs(t, sale.ApplyUpdate(11, &negative, nil), ErrNegativeTotal)
}

func TestSale_CloneIsDeep(t *testing.T) {
	sale := NewSale(validDraft(), validDraft().Lines, testNow)
	clone := sale.Clone()
	clone.Lines[0].Quantity = 99
	assert.Equal(t, 2, sale.Lines[0].Quantity)
	assert.Nil(t, (*Sale)(nil).Clone())
}
