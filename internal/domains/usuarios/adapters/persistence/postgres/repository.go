package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/farmasync/internal/domains/usuarios/domain"
	"github.com/Apurer/farmasync/internal/domains/usuarios/ports"
)

var _ ports.Repository = (*Repository)(nil)

// PostgreSQL SQLSTATE codes mapped to port errors.
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// Repository persists users in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle and schema.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type userRecord struct {
	ID           int64      `gorm:"primaryKey;column:id_usuario"`
	FirstName    string     `gorm:"column:nombre"`
	LastName     string     `gorm:"column:apellido"`
	Email        string     `gorm:"column:email;not null"`
	Address      string     `gorm:"column:direccion"`
	Phone        string     `gorm:"column:telefono"`
	PasswordHash string     `gorm:"column:password_hash;not null"`
	RoleID       int64      `gorm:"column:id_rol;not null"`
	Role         roleRecord `gorm:"foreignKey:RoleID;references:ID"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at"`
}

func (userRecord) TableName() string { return "usuarios" }

// Save inserts a new user or updates an existing one keyed by id.
func (r *Repository) Save(ctx context.Context, user *domain.User) (*domain.User, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.New("user is nil")
	}
	record := toRecord(user)
	db := r.db.WithContext(ctx)
	if record.ID == 0 {
		if err := db.Omit(clause.Associations).Create(&record).Error; err != nil {
			return nil, translateError(err)
		}
		return r.GetByID(ctx, record.ID)
	}
	result := db.Model(&userRecord{}).
		Where("id_usuario = ?", record.ID).
		Updates(map[string]any{
			"nombre":        record.FirstName,
			"apellido":      record.LastName,
			"email":         record.Email,
			"direccion":     record.Address,
			"telefono":      record.Phone,
			"password_hash": record.PasswordHash,
			"id_rol":        record.RoleID,
			"updated_at":    gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return nil, translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ports.ErrNotFound
	}
	return r.GetByID(ctx, record.ID)
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.first(ctx, "id_usuario = ?", id)
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.first(ctx, "lower(email) = ?", domain.NormalizeEmail(email))
}

func (r *Repository) first(ctx context.Context, query string, args ...any) (*domain.User, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record userRecord
	if err := r.db.WithContext(ctx).Preload("Role").Where(query, args...).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Delete(&userRecord{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// List returns users ordered by id.
func (r *Repository) List(ctx context.Context) ([]*domain.User, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []userRecord
	if err := r.db.WithContext(ctx).Preload("Role").Order("id_usuario").Find(&records).Error; err != nil {
		return nil, err
	}
	users := make([]*domain.User, 0, len(records))
	for i := range records {
		users = append(users, records[i].toDomain())
	}
	return users, nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres repository not configured")
	}
	return nil
}

func toRecord(user *domain.User) userRecord {
	return userRecord{
		ID:           user.ID,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		Email:        domain.NormalizeEmail(user.Email),
		Address:      user.Address,
		Phone:        user.Phone,
		PasswordHash: user.PasswordHash,
		RoleID:       user.Role.ID,
		CreatedAt:    user.CreatedAt,
	}
}

func (r userRecord) toDomain() *domain.User {
	return &domain.User{
		ID:           r.ID,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		Email:        r.Email,
		Address:      r.Address,
		Phone:        r.Phone,
		PasswordHash: r.PasswordHash,
		Role:         r.Role.toDomain(),
		CreatedAt:    r.CreatedAt,
	}
}

// translateError maps unique violations reported by lib/pq to port errors.
func translateError(err error) error {
	if pqCode(err) != uniqueViolation {
		return err
	}
	if pqTable(err) == "roles" {
		return ports.ErrRoleNameTaken
	}
	return ports.ErrEmailTaken
}

func pqCode(err error) pq.ErrorCode {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code
	}
	return ""
}

func pqTable(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Table
	}
	return ""
}
