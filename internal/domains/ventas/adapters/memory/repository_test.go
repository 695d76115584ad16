package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/farmasync/internal/domains/ventas/domain"
	"github.com/Apurer/farmasync/internal/domains/ventas/ports"
)

func newSale(seller, client int64, at time.Time) *domain.Sale {
	return domain.NewSale(domain.Draft{SellerID: seller, ClientID: client}, []domain.Line{
		{ProductRef: "p-1", Quantity: 1, UnitPrice: decimal.NewFromInt(3), Subtotal: decimal.NewFromInt(3)},
	}, at)
}

func TestRepository_SaveAssignsIDsAndIsolatesCopies(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()

	saved, err := repo.Save(ctx, newSale(1, 2, time.Now()))
	require.NoError(t, err)
	assert.Equal(t, int64(1), saved.ID)
	assert.NotZero(t, saved.Lines[0].ID)

	saved.Lines[0].Quantity = 40
	stored, err := repo.GetByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Lines[0].Quantity)

	unknown := newSale(1, 2, time.Now())
	unknown.ID = 77
	_, err = repo.Save(ctx, unknown)
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestRepository_ListFiltersAndSortsNewestFirst(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()
	base := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)

	first, _ := repo.Save(ctx, newSale(1, 10, base))
	second, _ := repo.Save(ctx, newSale(2, 10, base.AddDate(0, 0, 1)))
	third, _ := repo.Save(ctx, newSale(1, 20, base.AddDate(0, 0, 2)))

	all, err := repo.List(ctx, ports.SaleFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{third.ID, second.ID, first.ID}, []int64{all[0].ID, all[1].ID, all[2].ID})

	seller := int64(1)
	bySeller, err := repo.List(ctx, ports.SaleFilter{SellerID: &seller})
	require.NoError(t, err)
	assert.Len(t, bySeller, 2)

	client := int64(10)
	byClient, err := repo.List(ctx, ports.SaleFilter{ClientID: &client})
	require.NoError(t, err)
	assert.Len(t, byClient, 2)

	day := domain.DateOf(base.AddDate(0, 0, 1))
	ranged, err := repo.List(ctx, ports.SaleFilter{SoldFrom: &day, SoldTo: &day})
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	assert.Equal(t, second.ID, ranged[0].ID)
}

func TestRepository_HistoryNewestFirstAndCascadesOnDelete(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()
	sale, err := repo.Save(ctx, newSale(1, 2, time.Now()))
	require.NoError(t, err)

	_, err = repo.AppendHistory(ctx, domain.NewHistoryEntry(sale.ID, domain.EventRegistered, 1, domain.NoteRegistered, time.Now()))
	require.NoError(t, err)
	_, err = repo.AppendHistory(ctx, domain.NewHistoryEntry(sale.ID, domain.EventUpdated, 1, domain.NoteUpdated, time.Now()))
	require.NoError(t, err)

	entries, err := repo.History(ctx, sale.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.EventUpdated, entries[0].Type)

	_, err = repo.AppendHistory(ctx, domain.HistoryEntry{SaleID: 999})
	assert.ErrorIs(t, err, ports.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, sale.ID))
	entries, err = repo.History(ctx, sale.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.ErrorIs(t, repo.Delete(ctx, sale.ID), ports.ErrNotFound)
}

func TestRepository_SaveWithHistory(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()
	sale, err := repo.Save(ctx, newSale(1, 2, time.Now()))
	require.NoError(t, err)
	lineID := sale.Lines[0].ID

	sale.ClientID = 3
	updated, err := repo.SaveWithHistory(ctx, sale, domain.NewHistoryEntry(0, domain.EventUpdated, 1, domain.NoteUpdated, time.Now()))
	require.NoError(t, err)
	assert.Equal(t, int64(3), updated.ClientID)
	assert.Equal(t, lineID, updated.Lines[0].ID)

	entries, err := repo.History(ctx, sale.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, sale.ID, entries[0].SaleID)

	ghost := sale.Clone()
	ghost.ID = 404
	_, err = repo.SaveWithHistory(ctx, ghost, domain.NewHistoryEntry(404, domain.EventUpdated, 1, domain.NoteUpdated, time.Now()))
	require.ErrorIs(t, err, ports.ErrNotFound)
	entries, err = repo.History(ctx, 404)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
