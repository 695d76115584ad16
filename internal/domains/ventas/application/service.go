package application

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Apurer/farmasync/internal/domains/ventas/domain"
	"github.com/Apurer/farmasync/internal/domains/ventas/ports"
)

// Service orchestrates sales use cases.
type Service struct {
	repo      ports.Repository
	inventory ports.Inventory
	events    ports.EventPublisher
	now       func() time.Time
}

// Option configures the Service.
type Option func(*Service)

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

// CreateSale prices every line from inventory and verifies stock before anything is written.
// The sale is then persisted, one stock exit is registered per line and the creation is recorded
// in the history. A stock exit failure is reported as a business error while the sale stays persisted.
func (s *Service) CreateSale(ctx context.Context, draft domain.Draft) (*domain.Sale, error) {
	draft = draft.Normalize()
	if err := draft.Validate(); err != nil {
		return nil, mapError(err)
	}
	lines := make([]domain.Line, len(draft.Lines))
	for i, line := range draft.Lines {
		product, err := s.findProduct(ctx, line.ProductRef)
		if err != nil {
			return nil, err
		}
		if err := line.EnsureStock(product); err != nil {
			return nil, mapError(err)
		}
		line.Price(product)
		lines[i] = line
	}
	if err := domain.ValidateLines(lines); err != nil {
		return nil, mapError(err)
	}

	now := s.now()
	saved, err := s.repo.Save(ctx, domain.NewSale(draft, lines, now))
	if err != nil {
		return nil, err
	}
	if err := s.registerStockOut(ctx, saved.Lines); err != nil {
		return saved, err
	}
	entry := domain.NewHistoryEntry(saved.ID, domain.EventRegistered, saved.SellerID, domain.NoteRegistered, now)
	if _, err := s.repo.AppendHistory(ctx, entry); err != nil {
		return nil, err
	}
	_ = s.events.Publish(ctx, saleKey(saved.ID), newSaleEvent(EventSaleRegistered, saved, now))
	return saved, nil
}

func (s *Service) GetSale(ctx context.Context, id int64) (*domain.Sale, error) {
	sale, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.enrich(ctx, sale)
	return sale, nil
}

func (s *Service) ListSales(ctx context.Context, filter ports.SaleFilter) ([]*domain.Sale, error) {
	if filter.SoldFrom != nil && filter.SoldTo != nil && filter.SoldTo.Before(*filter.SoldFrom) {
		return nil, fmt.Errorf("%w: date range end precedes its start", ErrInvalidInput)
	}
	sales, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	for _, sale := range sales {
		s.enrich(ctx, sale)
	}
	return sales, nil
}

// UpdateSale replaces client and total and, when the draft carries lines, re-prices and replaces them.
// Updates never move stock.
func (s *Service) UpdateSale(ctx context.Context, id int64, draft domain.Draft) (*domain.Sale, error) {
	draft = draft.Normalize()
	sale, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	var lines []domain.Line
	if len(draft.Lines) > 0 {
		if err := domain.ValidateLines(draft.Lines); err != nil {
			return nil, mapError(err)
		}
		lines = make([]domain.Line, len(draft.Lines))
		for i, line := range draft.Lines {
			product, err := s.findProduct(ctx, line.ProductRef)
			if err != nil {
				return nil, err
			}
			line.Price(product)
			lines[i] = line
		}
		if err := domain.ValidateLines(lines); err != nil {
			return nil, mapError(err)
		}
	}
	if err := sale.ApplyUpdate(draft.ClientID, draft.Total, lines); err != nil {
		return nil, mapError(err)
	}
	now := s.now()
	entry := domain.NewHistoryEntry(sale.ID, domain.EventUpdated, sale.SellerID, domain.NoteUpdated, now)
	saved, err := s.repo.SaveWithHistory(ctx, sale, entry)
	if err != nil {
		return nil, err
	}
	_ = s.events.Publish(ctx, saleKey(saved.ID), newSaleEvent(EventSaleUpdated, saved, now))
	return saved, nil
}

func (s *Service) DeleteSale(ctx context.Context, id int64) error {
	sale, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	_ = s.events.Publish(ctx, saleKey(id), newSaleEvent(EventSaleDeleted, sale, s.now()))
	return nil
}

// Lines returns the persisted lines of a sale as snapshotted at sale time.
func (s *Service) Lines(ctx context.Context, saleID int64) ([]domain.Line, error) {
	sale, err := s.repo.GetByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	return sale.Lines, nil
}

// History returns the audit trail of an existing sale, newest first.
func (s *Service) History(ctx context.Context, saleID int64) ([]domain.HistoryEntry, error) {
	if _, err := s.repo.GetByID(ctx, saleID); err != nil {
		return nil, err
	}
	return s.repo.History(ctx, saleID)
}

func (s *Service) findProduct(ctx context.Context, ref string) (domain.Product, error) {
	if s.inventory == nil {
		return domain.Product{}, errors.New("inventory port not configured")
	}
	product, err := s.inventory.FindProduct(ctx, ref)
	switch {
	case err == nil:
		return product, nil
	case errors.Is(err, ports.ErrProductNotFound):
		return domain.Product{}, fmt.Errorf("%w: product not found in inventory with ID or SKU: %s", ErrBusinessRule, ref)
	default:
		return domain.Product{}, fmt.Errorf("%w: inventory lookup failed for product ID: %s -> %v", ErrBusinessRule, ref, err)
	}
}

func (s *Service) registerStockOut(ctx context.Context, lines []domain.Line) error {
	if s.inventory == nil {
		return errors.New("inventory port not configured")
	}
	for _, line := range lines {
		if err := s.inventory.RegisterStockOut(ctx, line.ProductRef, line.Quantity); err != nil {
			return fmt.Errorf("%w: could not register the inventory exit for product ID: %s. Error: %v",
				ErrBusinessRule, line.ProductRef, err)
		}
	}
	return nil
}

// enrich refreshes line names and images from inventory. Lookup failures keep the stored snapshot.
func (s *Service) enrich(ctx context.Context, sale *domain.Sale) {
	if s.inventory == nil || sale == nil {
		return
	}
	for i := range sale.Lines {
		product, err := s.inventory.FindProduct(ctx, sale.Lines[i].ProductRef)
		if err != nil {
			continue
		}
		sale.Lines[i].Describe(product)
	}
}

func saleKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

var _ ports.Service = (*Service)(nil)
