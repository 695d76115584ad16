package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/farmasync/internal/domains/pedidos/domain"
	"github.com/Apurer/farmasync/internal/domains/pedidos/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists supplier orders in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle and schema.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type orderRecord struct {
	ID           int64           `gorm:"primaryKey;column:id_pedido"`
	SupplierID   int64           `gorm:"column:id_proveedor;not null;index"`
	CreatedBy    int64           `gorm:"column:id_usuario_creador;not null;index"`
	Status       string          `gorm:"column:estado;type:varchar(32);not null;index"`
	Notes        string          `gorm:"column:observaciones;type:varchar(500)"`
	OrderedAt    time.Time       `gorm:"column:fecha_pedido;not null;index"`
	DeliveryDate *time.Time      `gorm:"column:fecha_entrega;type:date"`
	Total        decimal.Decimal `gorm:"column:total;type:numeric(12,2);not null;default:0"`
	Lines        []lineRecord    `gorm:"foreignKey:OrderID;references:ID;constraint:OnDelete:CASCADE"`
	History      []historyRecord `gorm:"foreignKey:OrderID;references:ID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time       `gorm:"column:created_at"`
	UpdatedAt    time.Time       `gorm:"column:updated_at"`
}

func (orderRecord) TableName() string { return "pedidos" }

type lineRecord struct {
	ID         int64  `gorm:"primaryKey;column:id_detalle"`
	OrderID    int64  `gorm:"column:id_pedido;not null;uniqueIndex:idx_detalle_pedido_producto"`
	ProductRef string `gorm:"column:id_producto_pedido;type:varchar(64);not null;uniqueIndex:idx_detalle_pedido_producto"`
	Quantity   int    `gorm:"column:cantidad;not null"`
}

func (lineRecord) TableName() string { return "detalle_pedido" }

type historyRecord struct {
	ID         int64     `gorm:"primaryKey;column:id_historial"`
	OrderID    int64     `gorm:"column:id_pedido;not null;index"`
	Status     string    `gorm:"column:estado;type:varchar(32);not null"`
	UserID     int64     `gorm:"column:id_usuario;not null"`
	Notes      string    `gorm:"column:observaciones;type:varchar(500)"`
	RecordedAt time.Time `gorm:"column:fecha;not null;index"`
}

func (historyRecord) TableName() string { return "historial_estados_pedido" }

// Save inserts or updates the order header and, when needed, replaces its lines in one transaction.
func (r *Repository) Save(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("order is nil")
	}
	var id int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		id, err = saveOrder(tx, order)
		return err
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// SaveWithHistory writes the order and its history entry in the same transaction.
func (r *Repository) SaveWithHistory(ctx context.Context, order *domain.Order, entry domain.HistoryEntry) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("order is nil")
	}
	var id int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if id, err = saveOrder(tx, order); err != nil {
			return err
		}
		entry.OrderID = id
		record := toHistoryRecord(entry)
		return tx.Create(&record).Error
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func saveOrder(tx *gorm.DB, order *domain.Order) (int64, error) {
	record := toRecord(order)
	lines := record.Lines
	record.Lines = nil
	if err := tx.Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id_pedido"}},
			DoUpdates: clause.Assignments(map[string]any{
				"id_proveedor":  record.SupplierID,
				"estado":        record.Status,
				"observaciones": record.Notes,
				"fecha_entrega": record.DeliveryDate,
				"total":         record.Total,
				"updated_at":    gorm.Expr("NOW()"),
			}),
		}).Create(&record).Error; err != nil {
		return 0, err
	}
	if !hasNewLines(lines) {
		return record.ID, nil
	}
	if err := tx.Where("id_pedido = ?", record.ID).Delete(&lineRecord{}).Error; err != nil {
		return 0, err
	}
	for i := range lines {
		lines[i].ID = 0
		lines[i].OrderID = record.ID
	}
	return record.ID, tx.Create(&lines).Error
}

// hasNewLines reports whether lines came from a draft rather than from storage.
func hasNewLines(lines []lineRecord) bool {
	for _, line := range lines {
		if line.ID == 0 {
			return true
		}
	}
	return false
}

// GetByID fetches an order and its lines.
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record orderRecord
	if err := r.db.WithContext(ctx).
		Preload("Lines", orderLines).
		First(&record, "id_pedido = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

// Delete removes an order. Lines and history go with it through ON DELETE CASCADE.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Delete(&orderRecord{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// List returns orders matching filter, newest first.
func (r *Repository) List(ctx context.Context, filter ports.OrderFilter) ([]*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	query := r.db.WithContext(ctx).Preload("Lines", orderLines)
	if filter.SupplierID != nil {
		query = query.Where("id_proveedor = ?", *filter.SupplierID)
	}
	if filter.CreatedBy != nil {
		query = query.Where("id_usuario_creador = ?", *filter.CreatedBy)
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, string(s))
		}
		query = query.Where("estado IN ?", statuses)
	}
	if filter.OrderedFrom != nil {
		query = query.Where("fecha_pedido >= ?", *filter.OrderedFrom)
	}
	if filter.OrderedTo != nil {
		query = query.Where("fecha_pedido <= ?", *filter.OrderedTo)
	}
	var records []orderRecord
	if err := query.Order("fecha_pedido DESC").Order("id_pedido DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	orders := make([]*domain.Order, 0, len(records))
	for i := range records {
		orders = append(orders, records[i].toDomain())
	}
	return orders, nil
}

// AppendHistory inserts an audit entry and returns it with its identifier.
func (r *Repository) AppendHistory(ctx context.Context, entry domain.HistoryEntry) (domain.HistoryEntry, error) {
	if err := r.ensureDB(); err != nil {
		return domain.HistoryEntry{}, err
	}
	record := toHistoryRecord(entry)
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return domain.HistoryEntry{}, err
	}
	return record.toDomain(), nil
}

// History lists the audit trail of an order, newest first.
func (r *Repository) History(ctx context.Context, orderID int64) ([]domain.HistoryEntry, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []historyRecord
	if err := r.db.WithContext(ctx).
		Where("id_pedido = ?", orderID).
		Order("fecha DESC").Order("id_historial DESC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	entries := make([]domain.HistoryEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, rec.toDomain())
	}
	return entries, nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres order repository not configured")
	}
	return nil
}

func orderLines(db *gorm.DB) *gorm.DB {
	return db.Order("id_detalle")
}

func toRecord(order *domain.Order) orderRecord {
	rec := orderRecord{
		ID:           order.ID,
		SupplierID:   order.SupplierID,
		CreatedBy:    order.CreatedBy,
		Status:       string(order.Status),
		Notes:        order.Notes,
		OrderedAt:    order.OrderedAt,
		DeliveryDate: order.DeliveryDate,
		Total:        order.Total,
	}
	for _, line := range order.Lines {
		rec.Lines = append(rec.Lines, lineRecord{
			ID:         line.ID,
			OrderID:    order.ID,
			ProductRef: line.ProductRef,
			Quantity:   line.Quantity,
		})
	}
	return rec
}

func (r orderRecord) toDomain() *domain.Order {
	order := &domain.Order{
		ID:         r.ID,
		SupplierID: r.SupplierID,
		CreatedBy:  r.CreatedBy,
		Status:     domain.Status(r.Status),
		Notes:      r.Notes,
		OrderedAt:  r.OrderedAt,
		Total:      r.Total,
	}
	if r.DeliveryDate != nil {
		d := r.DeliveryDate.UTC()
		day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
		order.DeliveryDate = &day
	}
	order.Lines = make([]domain.Line, 0, len(r.Lines))
	for _, line := range r.Lines {
		order.Lines = append(order.Lines, domain.Line{
			ID:         line.ID,
			ProductRef: line.ProductRef,
			Quantity:   line.Quantity,
		})
	}
	return order
}

func toHistoryRecord(entry domain.HistoryEntry) historyRecord {
	return historyRecord{
		OrderID:    entry.OrderID,
		Status:     string(entry.Status),
		UserID:     entry.UserID,
		Notes:      entry.Notes,
		RecordedAt: entry.RecordedAt,
	}
}

func (r historyRecord) toDomain() domain.HistoryEntry {
	return domain.HistoryEntry{
		ID:         r.ID,
		OrderID:    r.OrderID,
		Status:     domain.Status(r.Status),
		UserID:     r.UserID,
		Notes:      r.Notes,
		RecordedAt: r.RecordedAt,
	}
}
