package application

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Apurer/farmasync/internal/domains/pedidos/domain"
	"github.com/Apurer/farmasync/internal/domains/pedidos/ports"
)

// Service orchestrates supplier order use cases.
type Service struct {
	repo      ports.Repository
	inventory ports.Inventory
	stockIn   ports.StockInOrchestrator
	events    ports.EventPublisher
	now       func() time.Time
}

// Option configures the Service.
type Option func(*Service)

// WithStockInOrchestrator routes the post-persistence stock-in phase through o
// instead of calling the inventory port line by line.
func WithStockInOrchestrator(o ports.StockInOrchestrator) Option {
	return func(s *Service) {
		s.stockIn = o
	}
}

// WithEventPublisher sets the publisher used after successful writes.
func WithEventPublisher(p ports.EventPublisher) Option {
	return func(s *Service) {
		if p != nil {
			s.events = p
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(repo ports.Repository, inventory ports.Inventory, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		inventory: inventory,
		events:    ports.NoopEventPublisher,
		now:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// CreateOrder validates the draft, confirms every product with inventory, persists the order
// along with its creation history, and finally registers the stock-in of each line.
// A stock-in failure is reported as a business error but the order stays persisted.
func (s *Service) CreateOrder(ctx context.Context, draft domain.Draft) (*domain.Order, error) {
	now := s.now()
	order, err := domain.NewOrder(draft, now)
	if err != nil {
		return nil, mapError(err)
	}
	for _, line := range order.Lines {
		if err := s.checkProduct(ctx, line.ProductRef); err != nil {
			return nil, err
		}
	}
	entry := domain.NewHistoryEntry(0, order.Status, order.CreatedBy, domain.NoteCreated, now)
	saved, err := s.repo.SaveWithHistory(ctx, order, entry)
	if err != nil {
		return nil, err
	}
	_ = s.events.Publish(ctx, orderKey(saved.ID), newOrderEvent(EventOrderCreated, saved, saved.CreatedBy, now))

	if err := s.registerStockIn(ctx, saved); err != nil {
		return saved, err
	}
	return saved, nil
}

func (s *Service) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListOrders(ctx context.Context, filter ports.OrderFilter) ([]*domain.Order, error) {
	for _, status := range filter.Statuses {
		if !status.IsValid() {
			return nil, mapError(fmt.Errorf("%w: %q", domain.ErrInvalidStatus, status))
		}
	}
	if filter.OrderedFrom != nil && filter.OrderedTo != nil && filter.OrderedTo.Before(*filter.OrderedFrom) {
		return nil, fmt.Errorf("%w: date range end precedes its start", ErrInvalidInput)
	}
	return s.repo.List(ctx, filter)
}

// UpdateOrder edits a non-terminal order and records an update history entry attributed to its creator.
func (s *Service) UpdateOrder(ctx context.Context, id int64, draft domain.Draft) (*domain.Order, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := order.ApplyUpdate(draft, now); err != nil {
		return nil, mapError(err)
	}
	entry := domain.NewHistoryEntry(order.ID, order.Status, order.CreatedBy, domain.NoteUpdated, now)
	saved, err := s.repo.SaveWithHistory(ctx, order, entry)
	if err != nil {
		return nil, err
	}
	_ = s.events.Publish(ctx, orderKey(saved.ID), newOrderEvent(EventOrderUpdated, saved, saved.CreatedBy, now))
	return saved, nil
}

func (s *Service) DeleteOrder(ctx context.Context, id int64) error {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := order.EnsureDeletable(); err != nil {
		return mapError(err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	_ = s.events.Publish(ctx, orderKey(id), newOrderEvent(EventOrderDeleted, order, 0, s.now()))
	return nil
}

// ChangeStatus validates against the lifecycle table, then persists the order together with
// exactly one history entry. Either both are stored or neither is.
func (s *Service) ChangeStatus(ctx context.Context, input ports.ChangeStatusInput) (*domain.Order, error) {
	if input.UserID <= 0 {
		return nil, fmt.Errorf("%w: acting user id is required", ErrInvalidInput)
	}
	order, err := s.repo.GetByID(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	previous := order.Status
	now := s.now()
	if err := order.ChangeStatus(input.Status, input.Notes, now); err != nil {
		return nil, mapError(err)
	}
	notes := input.Notes
	if notes == "" {
		notes = domain.TransitionNote(previous, order.Status)
	}
	entry := domain.NewHistoryEntry(order.ID, order.Status, input.UserID, notes, now)
	saved, err := s.repo.SaveWithHistory(ctx, order, entry)
	if err != nil {
		return nil, err
	}
	event := newOrderEvent(EventOrderStatusChanged, saved, input.UserID, now)
	event.Previous = previous
	_ = s.events.Publish(ctx, orderKey(saved.ID), event)
	return saved, nil
}

// History returns the audit trail of an existing order, newest first.
func (s *Service) History(ctx context.Context, orderID int64) ([]domain.HistoryEntry, error) {
	if _, err := s.repo.GetByID(ctx, orderID); err != nil {
		return nil, err
	}
	return s.repo.History(ctx, orderID)
}

func (s *Service) checkProduct(ctx context.Context, ref string) error {
	if s.inventory == nil {
		return errors.New("inventory port not configured")
	}
	err := s.inventory.CheckProduct(ctx, ref)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ports.ErrProductNotFound):
		return fmt.Errorf("%w: product not found in inventory with ID: %s", ErrBusinessRule, ref)
	default:
		return fmt.Errorf("%w: inventory lookup failed for product ID: %s -> %v", ErrBusinessRule, ref, err)
	}
}

func (s *Service) registerStockIn(ctx context.Context, order *domain.Order) error {
	var err error
	if s.stockIn != nil {
		err = s.stockIn.RegisterStockIn(ctx, order.ID, order.Lines)
	} else {
		err = s.registerStockInInline(ctx, order.Lines)
	}
	if err == nil {
		return nil
	}
	var stockErr *ports.StockInError
	if errors.As(err, &stockErr) {
		return fmt.Errorf("%w: could not register the inventory entry for product ID: %s. Error: %v",
			ErrBusinessRule, stockErr.ProductRef, stockErr.Err)
	}
	return fmt.Errorf("%w: could not register the inventory entries for order %d: %v", ErrBusinessRule, order.ID, err)
}

func (s *Service) registerStockInInline(ctx context.Context, lines []domain.Line) error {
	if s.inventory == nil {
		return errors.New("inventory port not configured")
	}
	for _, line := range lines {
		if err := s.inventory.RegisterStockIn(ctx, line.ProductRef, line.Quantity); err != nil {
			return &ports.StockInError{ProductRef: line.ProductRef, Err: err}
		}
	}
	return nil
}

func orderKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

var _ ports.Service = (*Service)(nil)
