package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/farmasync/internal/domains/ventas/adapters/memory"
	"github.com/Apurer/farmasync/internal/domains/ventas/domain"
	"github.com/Apurer/farmasync/internal/domains/ventas/ports"
)

var fixedNow = time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC)

type stockCall struct {
	ref string
	qty int
}

type fakeInventory struct {
	products   map[string]domain.Product
	lookupErr  error
	failStock  map[string]error
	lookups    []string
	stockCalls []stockCall
}

func newFakeInventory(products ...domain.Product) *fakeInventory {
	f := &fakeInventory{products: map[string]domain.Product{}, failStock: map[string]error{}}
	for _, p := range products {
		f.products[p.Ref] = p
	}
	return f
}

func (f *fakeInventory) FindProduct(_ context.Context, ref string) (domain.Product, error) {
	f.lookups = append(f.lookups, ref)
	if f.lookupErr != nil {
		return domain.Product{}, f.lookupErr
	}
	p, ok := f.products[ref]
	if !ok {
		return domain.Product{}, ports.ErrProductNotFound
	}
	return p, nil
}

func (f *fakeInventory) RegisterStockOut(_ context.Context, ref string, qty int) error {
	f.stockCalls = append(f.stockCalls, stockCall{ref: ref, qty: qty})
	return f.failStock[ref]
}

type recordingPublisher struct {
	events []SaleEvent
}

func (r *recordingPublisher) Publish(_ context.Context, _ string, event any) error {
	r.events = append(r.events, event.(SaleEvent))
	return nil
}

func aspirin() domain.Product {
	return domain.Product{Ref: "p-1", Name: "Aspirina", ImageURL: "http://img/aspirina.png", Price: decimal.RequireFromString("1.50"), Stock: 20}
}

func syrup() domain.Product {
	return domain.Product{Ref: "p-2", Name: "Jarabe", Price: decimal.RequireFromString("8.00"), Stock: 5}
}

func newTestService(inv *fakeInventory) (*Service, *memory.Repository, *recordingPublisher) {
	repo := memory.NewRepository()
	pub := &recordingPublisher{}
	svc := NewService(repo, inv, WithEventPublisher(pub), WithClock(func() time.Time { return fixedNow }))
	return svc, repo, pub
}

func saleDraft(lines ...domain.Line) domain.Draft {
	return domain.Draft{SellerID: 4, ClientID: 9, Lines: lines}
}

func TestCreateSale_PricesPersistsAndRegistersStockOut(t *testing.T) {
	inv := newFakeInventory(aspirin(), syrup())
	svc, repo, pub := newTestService(inv)
	ctx := context.Background()

	sale, err := svc.CreateSale(ctx, saleDraft(
		domain.Line{ProductRef: " p-1 ", Quantity: 4},
		domain.Line{ProductRef: "p-2", Quantity: 1},
	))
	require.NoError(t, err)
	assert.Equal(t, domain.DateOf(fixedNow), sale.SoldOn)
	assert.True(t, decimal.RequireFromString("14.00").Equal(sale.Total), sale.Total.String())
	assert.Equal(t, "p-1", sale.Lines[0].ProductRef)
	assert.Equal(t, "Aspirina", sale.Lines[0].ProductName)
	assert.True(t, decimal.RequireFromString("6.00").Equal(sale.Lines[0].Subtotal))
	assert.Equal(t, []stockCall{{"p-1", 4}, {"p-2", 1}}, inv.stockCalls)

	history, err := repo.History(ctx, sale.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.EventRegistered, history[0].Type)
	assert.Equal(t, domain.NoteRegistered, history[0].Note)
	assert.Equal(t, int64(4), history[0].UserID)

	require.Len(t, pub.events, 1)
	assert.Equal(t, EventSaleRegistered, pub.events[0].Type)
	assert.Len(t, pub.events[0].Lines, 2)
}

func TestCreateSale_KeepsPositiveSuppliedTotal(t *testing.T) {
	svc, _, _ := newTestService(newFakeInventory(aspirin()))
	total := decimal.RequireFromString("5.00")
	draft := saleDraft(domain.Line{ProductRef: "p-1", Quantity: 4})
	draft.Total = &total

	sale, err := svc.CreateSale(context.Background(), draft)
	require.NoError(t, err)
	assert.True(t, total.Equal(sale.Total))
}

func TestCreateSale_InsufficientStockPersistsNothing(t *testing.T) {
	inv := newFakeInventory(aspirin(), syrup())
	svc, repo, pub := newTestService(inv)
	ctx := context.Background()

	_, err := svc.CreateSale(ctx, saleDraft(
		domain.Line{ProductRef: "p-1", Quantity: 1},
		domain.Line{ProductRef: "p-2", Quantity: 10},
	))
	require.ErrorIs(t, err, ErrBusinessRule)
	assert.Contains(t, err.Error(), "insufficient stock for product p-2: available 5, requested 10")

	all, listErr := repo.List(ctx, ports.SaleFilter{})
	require.NoError(t, listErr)
	assert.Empty(t, all)
	assert.Empty(t, inv.stockCalls)
	assert.Empty(t, pub.events)
}

func TestCreateSale_Rejections(t *testing.T) {
	cases := []struct {
		name    string
		draft   domain.Draft
		inv     *fakeInventory
		want    error
		message string
	}{
		{"no lines", saleDraft(), newFakeInventory(), ErrBusinessRule, "at least one product"},
		{"zero quantity", saleDraft(domain.Line{ProductRef: "p-1"}), newFakeInventory(aspirin()), ErrBusinessRule, "greater than zero"},
		{"duplicate", saleDraft(domain.Line{ProductRef: "p-1", Quantity: 1}, domain.Line{ProductRef: "p-1", Quantity: 2}),
			newFakeInventory(aspirin()), ErrBusinessRule, "duplicate"},
		{"unknown product", saleDraft(domain.Line{ProductRef: "x-9", Quantity: 1}), newFakeInventory(), ErrBusinessRule,
			"product not found in inventory with ID or SKU: x-9"},
		{"missing client", domain.Draft{SellerID: 1, Lines: []domain.Line{{ProductRef: "p-1", Quantity: 1}}},
			newFakeInventory(aspirin()), ErrInvalidInput, "client id"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, _, _ := newTestService(tc.inv)
			_, err := svc.CreateSale(context.Background(), tc.draft)
			require.ErrorIs(t, err, tc.want)
			assert.Contains(t, err.Error(), tc.message)
		})
	}
}

func TestCreateSale_InventoryOutage(t *testing.T) {
	inv := newFakeInventory()
	inv.lookupErr = errors.New("connection refused")
	svc, _, _ := newTestService(inv)

	_, err := svc.CreateSale(context.Background(), saleDraft(domain.Line{ProductRef: "p-1", Quantity: 1}))
	require.ErrorIs(t, err, ErrBusinessRule)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestCreateSale_StockOutFailureKeepsSale(t *testing.T) {
	inv := newFakeInventory(aspirin(), syrup())
	inv.failStock["p-2"] = errors.New("inventory unavailable")
	svc, repo, pub := newTestService(inv)
	ctx := context.Background()

	sale, err := svc.CreateSale(ctx, saleDraft(
		domain.Line{ProductRef: "p-1", Quantity: 1},
		domain.Line{ProductRef: "p-2", Quantity: 1},
	))
	require.ErrorIs(t, err, ErrBusinessRule)
	assert.Contains(t, err.Error(), "product ID: p-2")
	require.NotNil(t, sale)

	_, getErr := repo.GetByID(ctx, sale.ID)
	assert.NoError(t, getErr)
	history, _ := repo.History(ctx, sale.ID)
	assert.Empty(t, history)
	assert.Empty(t, pub.events)
}

func TestReads_EnrichAndSwallowLookupErrors(t *testing.T) {
	inv := newFakeInventory(aspirin())
	svc, _, _ := newTestService(inv)
	ctx := context.Background()

	sale, err := svc.CreateSale(ctx, saleDraft(domain.Line{ProductRef: "p-1", Quantity: 1}))
	require.NoError(t, err)

	renamed := aspirin()
	renamed.Name = "Aspirina 500mg"
	inv.products["p-1"] = renamed
	got, err := svc.GetSale(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, "Aspirina 500mg", got.Lines[0].ProductName)

	inv.lookupErr = errors.New("timeout")
	list, err := svc.ListSales(ctx, ports.SaleFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Aspirina", list[0].Lines[0].ProductName)

	lines, err := svc.Lines(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, "Aspirina", lines[0].ProductName)
}

func TestListSales_RejectsInvertedRange(t *testing.T) {
	svc, _, _ := newTestService(newFakeInventory())
	from, to := fixedNow, fixedNow.AddDate(0, 0, -1)
	_, err := svc.ListSales(context.Background(), ports.SaleFilter{SoldFrom: &from, SoldTo: &to})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateSale_ReplacesLinesWithoutMovingStock(t *testing.T) {
	inv := newFakeInventory(aspirin(), syrup())
	svc, repo, pub := newTestService(inv)
	ctx := context.Background()
	sale, err := svc.CreateSale(ctx, saleDraft(domain.Line{ProductRef: "p-1", Quantity: 2}))
	require.NoError(t, err)
	inv.stockCalls = nil

	updated, err := svc.UpdateSale(ctx, sale.ID, domain.Draft{ClientID: 12, Lines: []domain.Line{{ProductRef: "p-2", Quantity: 9}}})
	require.NoError(t, err)
	assert.Equal(t, int64(12), updated.ClientID)
	require.Len(t, updated.Lines, 1)
	assert.Equal(t, "p-2", updated.Lines[0].ProductRef)
	assert.True(t, decimal.RequireFromString("72.00").Equal(updated.Total))
	assert.Empty(t, inv.stockCalls)

	history, err := svc.History(ctx, sale.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.EventUpdated, history[0].Type)
	assert.Equal(t, domain.NoteUpdated, history[0].Note)
	assert.Equal(t, EventSaleUpdated, pub.events[len(pub.events)-1].Type)

	stored, err := repo.GetByID(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(12), stored.ClientID)
}

func TestUpdateSale_KeepsLinesWhenNoneGiven(t *testing.T) {
	svc, _, _ := newTestService(newFakeInventory(aspirin()))
	ctx := context.Background()
	sale, err := svc.CreateSale(ctx, saleDraft(domain.Line{ProductRef: "p-1", Quantity: 2}))
	require.NoError(t, err)

	total := decimal.RequireFromString("2.00")
	updated, err := svc.UpdateSale(ctx, sale.ID, domain.Draft{ClientID: 9, Total: &total})
	require.NoError(t, err)
	assert.Equal(t, sale.Lines[0].ProductRef, updated.Lines[0].ProductRef)
	assert.True(t, total.Equal(updated.Total))

	_, err = svc.UpdateSale(ctx, sale.ID, domain.Draft{})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.UpdateSale(ctx, 404, domain.Draft{ClientID: 9})
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestDeleteSale(t *testing.T) {
	svc, _, pub := newTestService(newFakeInventory(aspirin()))
	ctx := context.Background()
	sale, err := svc.CreateSale(ctx, saleDraft(domain.Line{ProductRef: "p-1", Quantity: 1}))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteSale(ctx, sale.ID))
	assert.Equal(t, EventSaleDeleted, pub.events[len(pub.events)-1].Type)
	assert.ErrorIs(t, svc.DeleteSale(ctx, sale.ID), ports.ErrNotFound)
	_, err = svc.History(ctx, sale.ID)
	assert.ErrorIs(t, err, ports.ErrNotFound)
	_, err = svc.Lines(ctx, sale.ID)
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

// historyFailingRepo fails every combined save so the stored sale must stay as it was.
type historyFailingRepo struct {
	*memory.Repository
	err error
}

func (r *historyFailingRepo) SaveWithHistory(context.Context, *domain.Sale, domain.HistoryEntry) (*domain.Sale, error) {
	return nil, r.err
}

func TestUpdateSale_HistoryFailureLeavesSaleUnchanged(t *testing.T) {
	inv := newFakeInventory(aspirin(), syrup())
	svc, repo, pub := newTestService(inv)
	ctx := context.Background()
	sale, err := svc.CreateSale(ctx, saleDraft(domain.Line{ProductRef: "p-1", Quantity: 2}))
	require.NoError(t, err)
	published := len(pub.events)

	failing := NewService(&historyFailingRepo{Repository: repo, err: errors.New("connection reset")}, inv,
		WithEventPublisher(pub), WithClock(func() time.Time { return fixedNow }))
	_, err = failing.UpdateSale(ctx, sale.ID, domain.Draft{ClientID: 12, Lines: []domain.Line{{ProductRef: "p-2", Quantity: 1}}})
	require.Error(t, err)

	stored, err := repo.GetByID(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(9), stored.ClientID)
	assert.Equal(t, "p-1", stored.Lines[0].ProductRef)
	history, err := repo.History(ctx, sale.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
	assert.Len(t, pub.events, published)
}
