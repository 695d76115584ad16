package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/farmasync/internal/domains/ventas/domain"
	"github.com/Apurer/farmasync/internal/domains/ventas/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists sales in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle and schema.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type saleRecord struct {
	ID        int64           `gorm:"primaryKey;column:id_venta"`
	SellerID  int64           `gorm:"column:id_vendedor;not null;index"`
	ClientID  int64           `gorm:"column:id_cliente;not null;index"`
	SoldOn    time.Time       `gorm:"column:fecha_venta;type:date;not null;index"`
	Total     decimal.Decimal `gorm:"column:total;type:numeric(12,2);not null;default:0"`
	Lines     []lineRecord    `gorm:"foreignKey:SaleID;references:ID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time       `gorm:"column:created_at"`
	UpdatedAt time.Time       `gorm:"column:updated_at"`
}

func (saleRecord) TableName() string { return "ventas" }

type lineRecord struct {
	ID              int64           `gorm:"primaryKey;column:id_detalle"`
	SaleID          int64           `gorm:"column:id_venta;not null"`
	ProductRef      string          `gorm:"column:id_producto;type:varchar(64);not null"`
	Quantity        int             `gorm:"column:cantidad;not null"`
	UnitPrice       decimal.Decimal `gorm:"column:precio_unitario;type:numeric(12,2);not null"`
	Subtotal        decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null"`
	ProductName     string          `gorm:"column:producto_nombre;type:varchar(255)"`
	ProductImageURL string          `gorm:"column:producto_imagen_url;type:text"`
}

func (lineRecord) TableName() string { return "detalles_venta" }

type historyRecord struct {
	ID     int64     `gorm:"primaryKey;column:id_historial"`
	SaleID int64     `gorm:"column:id_venta;not null;index"`
	Date   time.Time `gorm:"column:fecha_evento;type:date;not null"`
	Type   string    `gorm:"column:tipo_evento;type:varchar(32);not null"`
	UserID int64     `gorm:"column:id_usuario;not null"`
	Note   string    `gorm:"column:observacion;type:varchar(500)"`
}

func (historyRecord) TableName() string { return "historial_venta" }

// Save inserts or updates the sale header and, when needed, replaces its lines in one transaction.
func (r *Repository) Save(ctx context.Context, sale *domain.Sale) (*domain.Sale, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, errors.New("sale is nil")
	}
	var id int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		id, err = saveSale(tx, sale)
		return err
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// SaveWithHistory writes the sale and its history entry in the same transaction.
func (r *Repository) SaveWithHistory(ctx context.Context, sale *domain.Sale, entry domain.HistoryEntry) (*domain.Sale, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, errors.New("sale is nil")
	}
	var id int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if id, err = saveSale(tx, sale); err != nil {
			return err
		}
		entry.SaleID = id
		record := toHistoryRecord(entry)
		return tx.Create(&record).Error
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func saveSale(tx *gorm.DB, sale *domain.Sale) (int64, error) {
	record := toRecord(sale)
	lines := record.Lines
	record.Lines = nil
	if record.ID == 0 {
		if err := tx.Omit(clause.Associations).Create(&record).Error; err != nil {
			return 0, err
		}
	} else {
		result := tx.Model(&saleRecord{}).Where("id_venta = ?", record.ID).Updates(map[string]any{
			"id_cliente": record.ClientID,
			"total":      record.Total,
			"updated_at": gorm.Expr("NOW()"),
		})
		if result.Error != nil {
			return 0, result.Error
		}
		if result.RowsAffected == 0 {
			return 0, ports.ErrNotFound
		}
	}
	if !hasNewLines(lines) {
		return record.ID, nil
	}
	if err := tx.Where("id_venta = ?", record.ID).Delete(&lineRecord{}).Error; err != nil {
		return 0, err
	}
	for i := range lines {
		lines[i].ID = 0
		lines[i].SaleID = record.ID
	}
	return record.ID, tx.Create(&lines).Error
}

func hasNewLines(lines []lineRecord) bool {
	for _, line := range lines {
		if line.ID == 0 {
			return true
		}
	}
	return false
}

// GetByID fetches a sale and its lines.
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Sale, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record saleRecord
	if err := r.db.WithContext(ctx).
		Preload("Lines", saleLines).
		First(&record, "id_venta = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

// Delete removes a sale. Lines and history go with it through ON DELETE CASCADE.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Delete(&saleRecord{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// List returns sales matching filter, newest first.
func (r *Repository) List(ctx context.Context, filter ports.SaleFilter) ([]*domain.Sale, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	query := r.db.WithContext(ctx).Preload("Lines", saleLines)
	if filter.SellerID != nil {
		query = query.Where("id_vendedor = ?", *filter.SellerID)
	}
	if filter.ClientID != nil {
		query = query.Where("id_cliente = ?", *filter.ClientID)
	}
	if filter.SoldFrom != nil {
		query = query.Where("fecha_venta >= ?", domain.DateOf(*filter.SoldFrom))
	}
	if filter.SoldTo != nil {
		query = query.Where("fecha_venta <= ?", domain.DateOf(*filter.SoldTo))
	}
	var records []saleRecord
	if err := query.Order("fecha_venta DESC").Order("id_venta DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	sales := make([]*domain.Sale, 0, len(records))
	for i := range records {
		sales = append(sales, records[i].toDomain())
	}
	return sales, nil
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

// History lists the audit trail of a sale, newest first.
func (r *Repository) History(ctx context.Context, saleID int64) ([]domain.HistoryEntry, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []historyRecord
	if err := r.db.WithContext(ctx).
		Where("id_venta = ?", saleID).
		Order("fecha_evento DESC").Order("id_historial DESC").
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
		return errors.New("postgres sale repository not configured")
	}
	return nil
}

func saleLines(db *gorm.DB) *gorm.DB {
	return db.Order("id_detalle")
}

func toRecord(sale *domain.Sale) saleRecord {
	rec := saleRecord{
		ID:       sale.ID,
		SellerID: sale.SellerID,
		ClientID: sale.ClientID,
		SoldOn:   sale.SoldOn,
		Total:    sale.Total,
	}
	for _, line := range sale.Lines {
		rec.Lines = append(rec.Lines, lineRecord{
			ID:              line.ID,
			SaleID:          sale.ID,
			ProductRef:      line.ProductRef,
			Quantity:        line.Quantity,
			UnitPrice:       line.UnitPrice,
			Subtotal:        line.Subtotal,
			ProductName:     line.ProductName,
			ProductImageURL: line.ProductImageURL,
		})
	}
	return rec
}

func (r saleRecord) toDomain() *domain.Sale {
	sale := &domain.Sale{
		ID:       r.ID,
		SellerID: r.SellerID,
		ClientID: r.ClientID,
		SoldOn:   domain.DateOf(r.SoldOn),
		Total:    r.Total,
	}
	sale.Lines = make([]domain.Line, 0, len(r.Lines))
	for _, line := range r.Lines {
		sale.Lines = append(sale.Lines, domain.Line{
			ID:              line.ID,
			ProductRef:      line.ProductRef,
			Quantity:        line.Quantity,
			UnitPrice:       line.UnitPrice,
			Subtotal:        line.Subtotal,
			ProductName:     line.ProductName,
			ProductImageURL: line.ProductImageURL,
		})
	}
	return sale
}

func toHistoryRecord(entry domain.HistoryEntry) historyRecord {
	return historyRecord{
		SaleID: entry.SaleID,
		Date:   entry.Date,
		Type:   entry.Type,
		UserID: entry.UserID,
		Note:   entry.Note,
	}
}

func (r historyRecord) toDomain() domain.HistoryEntry {
	return domain.HistoryEntry{
		ID:     r.ID,
		SaleID: r.SaleID,
		Date:   domain.DateOf(r.Date),
		Type:   r.Type,
		UserID: r.UserID,
		Note:   r.Note,
	}
}
