package application

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/farmasync/internal/domains/pedidos/domain"
	"github.com/Apurer/farmasync/internal/domains/pedidos/ports"
)

type fakeOrderRepo struct {
	orders      map[int64]*domain.Order
	history     []domain.HistoryEntry
	nextID      int64
	saves       int
	failSave    error
	failHistory error
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[int64]*domain.Order{}}
}

func (f *fakeOrderRepo) Save(_ context.Context, order *domain.Order) (*domain.Order, error) {
	if f.failSave != nil {
		return nil, f.failSave
	}
	f.saves++
	clone := order.Clone()
	if clone.ID == 0 {
		f.nextID++
		clone.ID = f.nextID
	}
	f.orders[clone.ID] = clone
	return clone.Clone(), nil
}

// SaveWithHistory rolls the order back when the history write fails.
func (f *fakeOrderRepo) SaveWithHistory(ctx context.Context, order *domain.Order, entry domain.HistoryEntry) (*domain.Order, error) {
	if f.failSave != nil {
		return nil, f.failSave
	}
	if f.failHistory != nil {
		return nil, f.failHistory
	}
	saved, err := f.Save(ctx, order)
	if err != nil {
		return nil, err
	}
	entry.OrderID = saved.ID
	_, err = f.AppendHistory(ctx, entry)
	return saved, err
}

func (f *fakeOrderRepo) GetByID(_ context.Context, id int64) (*domain.Order, error) {
	if o, ok := f.orders[id]; ok {
		return o.Clone(), nil
	}
	return nil, ports.ErrNotFound
}

func (f *fakeOrderRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.orders[id]; !ok {
		return ports.ErrNotFound
	}
	delete(f.orders, id)
	return nil
}

func (f *fakeOrderRepo) List(_ context.Context, filter ports.OrderFilter) ([]*domain.Order, error) {
	var list []*domain.Order
	for _, o := range f.orders {
		if filter.SupplierID != nil && o.SupplierID != *filter.SupplierID {
			continue
		}
		list = append(list, o.Clone())
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	return list, nil
}

func (f *fakeOrderRepo) AppendHistory(_ context.Context, entry domain.HistoryEntry) (domain.HistoryEntry, error) {
	entry.ID = int64(len(f.history) + 1)
	f.history = append(f.history, entry)
	return entry, nil
}

func (f *fakeOrderRepo) History(_ context.Context, orderID int64) ([]domain.HistoryEntry, error) {
	var out []domain.HistoryEntry
	for i := len(f.history) - 1; i >= 0; i-- {
		if f.history[i].OrderID == orderID {
			out = append(out, f.history[i])
		}
	}
	return out, nil
}

type stockCall struct {
	ref string
	qty int
}

type fakeInventory struct {
	known      map[string]bool
	lookupErr  error
	failStock  map[string]error
	checks     []string
	stockCalls []stockCall
}

func newFakeInventory(refs ...string) *fakeInventory {
	known := map[string]bool{}
	for _, ref := range refs {
		known[ref] = true
	}
	return &fakeInventory{known: known, failStock: map[string]error{}}
}

func (f *fakeInventory) CheckProduct(_ context.Context, ref string) error {
	f.checks = append(f.checks, ref)
	if f.lookupErr != nil {
		return f.lookupErr
	}
	if !f.known[ref] {
		return ports.ErrProductNotFound
	}
	return nil
}

func (f *fakeInventory) RegisterStockIn(_ context.Context, ref string, qty int) error {
	f.stockCalls = append(f.stockCalls, stockCall{ref: ref, qty: qty})
	return f.failStock[ref]
}

type recordingPublisher struct {
	types []string
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, event any) error {
	if e, ok := event.(OrderEvent); ok {
		p.types = append(p.types, e.Type)
	}
	return nil
}

var fixedNow = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func newTestService(repo *fakeOrderRepo, inv *fakeInventory, opts ...Option) *Service {
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewService(repo, inv, opts...)
}

func twoLineDraft() domain.Draft {
	return domain.Draft{
		SupplierID: 4,
		CreatedBy:  11,
		Lines: []domain.Line{
			{ProductRef: "p-1", Quantity: 2},
			{ProductRef: "p-2", Quantity: 3},
		},
	}
}

func TestCreateOrder_PersistsPendingAndRegistersStockIn(t *testing.T) {
	repo := newFakeOrderRepo()
	inv := newFakeInventory("p-1", "p-2")
	publisher := &recordingPublisher{}
	svc := newTestService(repo, inv, WithEventPublisher(publisher))

	order, err := svc.CreateOrder(context.Background(), twoLineDraft())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, order.Status)
	assert.True(t, order.Total.IsZero())
	assert.Equal(t, fixedNow, order.OrderedAt)

	assert.Equal(t, []string{"p-1", "p-2"}, inv.checks)
	assert.Equal(t, []stockCall{{"p-1", 2}, {"p-2", 3}}, inv.stockCalls)

	require.Len(t, repo.history, 1)
	assert.Equal(t, domain.StatusPending, repo.history[0].Status)
	assert.Equal(t, int64(11), repo.history[0].UserID)
	assert.Equal(t, domain.NoteCreated, repo.history[0].Notes)
	assert.Equal(t, []string{EventOrderCreated}, publisher.types)
}

func TestCreateOrder_UsesSuppliedTotal(t *testing.T) {
	svc := newTestService(newFakeOrderRepo(), newFakeInventory("p-1", "p-2"))
	draft := twoLineDraft()
	total := decimal.RequireFromString("99.90")
	draft.Total = &total

	order, err := svc.CreateOrder(context.Background(), draft)
	require.NoError(t, err)
	assert.True(t, total.Equal(order.Total))
}

func TestCreateOrder_DuplicateProductsFailBeforeSideEffects(t *testing.T) {
	repo := newFakeOrderRepo()
	inv := newFakeInventory("p-1")
	svc := newTestService(repo, inv)

	draft := twoLineDraft()
	draft.Lines[1].ProductRef = "p-1"
	_, err := svc.CreateOrder(context.Background(), draft)
	require.ErrorIs(t, err, ErrBusinessRule)
	require.ErrorIs(t, err, domain.ErrDuplicateProduct)
	assert.Empty(t, inv.checks)
	assert.Zero(t, repo.saves)
}

func TestCreateOrder_NonPositiveQuantityFailsBeforePersistence(t *testing.T) {
	repo := newFakeOrderRepo()
	inv := newFakeInventory("p-1", "p-2")
	svc := newTestService(repo, inv)

	draft := twoLineDraft()
	draft.Lines[0].Quantity = 0
	_, err := svc.CreateOrder(context.Background(), draft)
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)
	assert.Zero(t, repo.saves)
	assert.Empty(t, inv.checks)
}

func TestCreateOrder_MissingProductAbortsWithoutPersisting(t *testing.T) {
	repo := newFakeOrderRepo()
	inv := newFakeInventory("p-1")
	svc := newTestService(repo, inv)

	_, err := svc.CreateOrder(context.Background(), twoLineDraft())
	require.ErrorIs(t, err, ErrBusinessRule)
	assert.Contains(t, err.Error(), "p-2")
	assert.Zero(t, repo.saves)
	assert.Empty(t, inv.stockCalls)
}

func TestCreateOrder_InventoryTransportFailureAborts(t *testing.T) {
	repo := newFakeOrderRepo()
	inv := newFakeInventory("p-1", "p-2")
	inv.lookupErr = errors.New("connection refused")
	svc := newTestService(repo, inv)

	_, err := svc.CreateOrder(context.Background(), twoLineDraft())
	require.ErrorIs(t, err, ErrBusinessRule)
	assert.Contains(t, err.Error(), "p-1")
	assert.Zero(t, repo.saves)
}

func TestCreateOrder_StockInFailureKeepsOrder(t *testing.T) {
	repo := newFakeOrderRepo()
	inv := newFakeInventory("p-1", "p-2")
	inv.failStock["p-1"] = errors.New("inventory unavailable")
	svc := newTestService(repo, inv)

	order, err := svc.CreateOrder(context.Background(), twoLineDraft())
	require.ErrorIs(t, err, ErrBusinessRule)
	assert.Contains(t, err.Error(), "p-1")
	require.NotNil(t, order)
	assert.Len(t, repo.orders, 1, "second phase failures do not roll back the order")
	assert.Equal(t, []stockCall{{"p-1", 2}}, inv.stockCalls, "stops at the first failing line")
}

type fakeOrchestrator struct {
	orderID int64
	lines   []domain.Line
	err     error
}

func (f *fakeOrchestrator) RegisterStockIn(_ context.Context, orderID int64, lines []domain.Line) error {
	f.orderID = orderID
	f.lines = lines
	return f.err
}

func TestCreateOrder_DelegatesToOrchestrator(t *testing.T) {
	repo := newFakeOrderRepo()
	inv := newFakeInventory("p-1", "p-2")
	orchestrator := &fakeOrchestrator{err: &ports.StockInError{ProductRef: "p-2", Err: errors.New("timeout")}}
	svc := newTestService(repo, inv, WithStockInOrchestrator(orchestrator))

	order, err := svc.CreateOrder(context.Background(), twoLineDraft())
	require.ErrorIs(t, err, ErrBusinessRule)
	assert.Contains(t, err.Error(), "p-2")
	assert.Equal(t, order.ID, orchestrator.orderID)
	assert.Len(t, orchestrator.lines, 2)
	assert.Empty(t, inv.stockCalls)
}

func seedOrder(t *testing.T, repo *fakeOrderRepo, status domain.Status) *domain.Order {
	t.Helper()
	order, err := domain.NewOrder(twoLineDraft(), fixedNow)
	require.NoError(t, err)
	order.Status = status
	saved, err := repo.Save(context.Background(), order)
	require.NoError(t, err)
	return saved
}

func TestChangeStatus_AllowedTransitionAppendsOneEntry(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newTestService(repo, newFakeInventory())
	order := seedOrder(t, repo, domain.StatusPending)

	updated, err := svc.ChangeStatus(context.Background(), ports.ChangeStatusInput{
		OrderID: order.ID, Status: domain.StatusInProcess, UserID: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProcess, updated.Status)
	require.Len(t, repo.history, 1)
	assert.Equal(t, domain.StatusInProcess, repo.history[0].Status)
	assert.Equal(t, int64(5), repo.history[0].UserID)
	assert.Equal(t, "Cambio de estado: PENDIENTE → EN_PROCESO", repo.history[0].Notes)
}

func TestChangeStatus_RejectsEveryPairOutsideTable(t *testing.T) {
	for _, from := range domain.AllStatuses() {
		for _, to := range domain.AllStatuses() {
			if domain.CanTransition(from, to) {
				continue
			}
			repo := newFakeOrderRepo()
			svc := newTestService(repo, newFakeInventory())
			order := seedOrder(t, repo, from)

			_, err := svc.ChangeStatus(context.Background(), ports.ChangeStatusInput{OrderID: order.ID, Status: to, UserID: 1})
			require.ErrorIs(t, err, ErrBusinessRule, "%s -> %s", from, to)
			stored, _ := repo.GetByID(context.Background(), order.ID)
			assert.Equal(t, from, stored.Status)
			assert.Empty(t, repo.history)
		}
	}
}

func TestChangeStatus_CancelShippedThenDeliverFails(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newTestService(repo, newFakeInventory())
	order := seedOrder(t, repo, domain.StatusShipped)

	cancelled, err := svc.ChangeStatus(context.Background(), ports.ChangeStatusInput{
		OrderID: order.ID, Status: domain.StatusCancelled, UserID: 2, Notes: "proveedor sin stock",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)
	require.Len(t, repo.history, 1)
	assert.Equal(t, domain.StatusCancelled, repo.history[0].Status)
	assert.Equal(t, "proveedor sin stock", repo.history[0].Notes)

	_, err = svc.ChangeStatus(context.Background(), ports.ChangeStatusInput{
		OrderID: order.ID, Status: domain.StatusDelivered, UserID: 2,
	})
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Len(t, repo.history, 1)
}

func TestChangeStatus_SaveFailureWritesNoHistory(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newTestService(repo, newFakeInventory())
	order := seedOrder(t, repo, domain.StatusPending)
	repo.failSave = errors.New("db down")

	_, err := svc.ChangeStatus(context.Background(), ports.ChangeStatusInput{OrderID: order.ID, Status: domain.StatusInProcess, UserID: 1})
	require.Error(t, err)
	assert.Empty(t, repo.history)
}

func TestChangeStatus_HistoryFailureLeavesStatusUnchanged(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newTestService(repo, newFakeInventory())
	order := seedOrder(t, repo, domain.StatusPending)
	repo.failHistory = errors.New("value too long for type character varying(500)")

	_, err := svc.ChangeStatus(context.Background(), ports.ChangeStatusInput{OrderID: order.ID, Status: domain.StatusInProcess, UserID: 1})
	require.Error(t, err)

	stored, err := repo.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, stored.Status)
	assert.Empty(t, repo.history)
}

func TestChangeStatus_NotesTooLongRejectedBeforeWrite(t *testing.T) {
	repo := newFakeOrderRepo()
	publisher := &recordingPublisher{}
	svc := newTestService(repo, newFakeInventory(), WithEventPublisher(publisher))
	order := seedOrder(t, repo, domain.StatusPending)
	saves := repo.saves

	_, err := svc.ChangeStatus(context.Background(), ports.ChangeStatusInput{
		OrderID: order.ID, Status: domain.StatusInProcess, UserID: 1, Notes: strings.Repeat("x", domain.MaxNotesLength+1),
	})
	require.ErrorIs(t, err, ErrInvalidInput)
	require.ErrorIs(t, err, domain.ErrNotesTooLong)
	assert.Equal(t, saves, repo.saves)
	assert.Empty(t, repo.history)
	assert.Empty(t, publisher.types)

	stored, _ := repo.GetByID(context.Background(), order.ID)
	assert.Equal(t, domain.StatusPending, stored.Status)
}

func TestCreateOrder_HistoryFailureStoresNothing(t *testing.T) {
	repo := newFakeOrderRepo()
	repo.failHistory = errors.New("connection reset")
	inv := newFakeInventory("p-1", "p-2")
	svc := newTestService(repo, inv)

	_, err := svc.CreateOrder(context.Background(), twoLineDraft())
	require.Error(t, err)
	assert.Empty(t, repo.orders)
	assert.Empty(t, inv.stockCalls)
}

func TestChangeStatus_DeliveredStampsToday(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newTestService(repo, newFakeInventory())
	order := seedOrder(t, repo, domain.StatusShipped)

	delivered, err := svc.ChangeStatus(context.Background(), ports.ChangeStatusInput{OrderID: order.ID, Status: domain.StatusDelivered, UserID: 1})
	require.NoError(t, err)
	require.NotNil(t, delivered.DeliveryDate)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), *delivered.DeliveryDate)
}

func TestChangeStatus_RequiresUser(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newTestService(repo, newFakeInventory())
	order := seedOrder(t, repo, domain.StatusPending)

	_, err := svc.ChangeStatus(context.Background(), ports.ChangeStatusInput{OrderID: order.ID, Status: domain.StatusInProcess})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestDeleteOrder_GatedByStatus(t *testing.T) {
	for _, status := range domain.AllStatuses() {
		repo := newFakeOrderRepo()
		svc := newTestService(repo, newFakeInventory())
		order := seedOrder(t, repo, status)

		err := svc.DeleteOrder(context.Background(), order.ID)
		if status == domain.StatusInProcess || status == domain.StatusShipped {
			require.ErrorIs(t, err, ErrBusinessRule, status)
			assert.Len(t, repo.orders, 1)
		} else {
			require.NoError(t, err, status)
			assert.Empty(t, repo.orders)
		}
	}
}

func TestDeleteOrder_NotFound(t *testing.T) {
	svc := newTestService(newFakeOrderRepo(), newFakeInventory())
	require.ErrorIs(t, svc.DeleteOrder(context.Background(), 404), ports.ErrNotFound)
}

func TestUpdateOrder_RecordsHistoryAndRejectsTerminal(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newTestService(repo, newFakeInventory())
	order := seedOrder(t, repo, domain.StatusInProcess)

	draft := twoLineDraft()
	draft.SupplierID = 8
	draft.Lines = []domain.Line{{ProductRef: "p-3", Quantity: 1}}
	updated, err := svc.UpdateOrder(context.Background(), order.ID, draft)
	require.NoError(t, err)
	assert.Equal(t, int64(8), updated.SupplierID)
	assert.Equal(t, []domain.Line{{ProductRef: "p-3", Quantity: 1}}, updated.Lines)
	require.Len(t, repo.history, 1)
	assert.Equal(t, domain.NoteUpdated, repo.history[0].Notes)
	assert.Equal(t, domain.StatusInProcess, repo.history[0].Status)

	terminal := seedOrder(t, repo, domain.StatusDelivered)
	_, err = svc.UpdateOrder(context.Background(), terminal.ID, twoLineDraft())
	require.ErrorIs(t, err, domain.ErrNotUpdatable)
}

func TestHistory_NewestFirstAndMissingOrder(t *testing.T) {
	repo := newFakeOrderRepo()
	svc := newTestService(repo, newFakeInventory())
	order := seedOrder(t, repo, domain.StatusPending)

	_, err := svc.ChangeStatus(context.Background(), ports.ChangeStatusInput{OrderID: order.ID, Status: domain.StatusInProcess, UserID: 1})
	require.NoError(t, err)
	_, err = svc.ChangeStatus(context.Background(), ports.ChangeStatusInput{OrderID: order.ID, Status: domain.StatusShipped, UserID: 1})
	require.NoError(t, err)

	history, err := svc.History(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.StatusShipped, history[0].Status)

	_, err = svc.History(context.Background(), 999)
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestListOrders_RejectsUnknownStatus(t *testing.T) {
	svc := newTestService(newFakeOrderRepo(), newFakeInventory())
	_, err := svc.ListOrders(context.Background(), ports.OrderFilter{Statuses: []domain.Status{"ARCHIVADO"}})
	require.ErrorIs(t, err, ErrInvalidInput)
}
