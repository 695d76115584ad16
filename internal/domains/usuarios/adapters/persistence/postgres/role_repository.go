package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Apurer/farmasync/internal/domains/usuarios/domain"
	"github.com/Apurer/farmasync/internal/domains/usuarios/ports"
)

var _ ports.RoleRepository = (*RoleRepository)(nil)

// RoleRepository persists roles in PostgreSQL. The seeded roles come from the migrations.
type RoleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

type roleRecord struct {
	ID   int64  `gorm:"primaryKey;column:id_rol"`
	Name string `gorm:"column:nombre;not null"`
}

func (roleRecord) TableName() string { return "roles" }

func (r roleRecord) toDomain() domain.Role {
	return domain.Role{ID: r.ID, Name: r.Name}
}

func (r *RoleRepository) Create(ctx context.Context, role domain.Role) (domain.Role, error) {
	if err := r.ensureDB(); err != nil {
		return domain.Role{}, err
	}
	record := roleRecord{Name: role.Name}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return domain.Role{}, translateError(err)
	}
	return record.toDomain(), nil
}

func (r *RoleRepository) GetByID(ctx context.Context, id int64) (domain.Role, error) {
	return r.first(ctx, "id_rol = ?", id)
}

func (r *RoleRepository) GetByName(ctx context.Context, name string) (domain.Role, error) {
	return r.first(ctx, "upper(nombre) = upper(?)", name)
}

func (r *RoleRepository) first(ctx context.Context, query string, args ...any) (domain.Role, error) {
	if err := r.ensureDB(); err != nil {
		return domain.Role{}, err
	}
	var record roleRecord
	if err := r.db.WithContext(ctx).Where(query, args...).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Role{}, ports.ErrRoleNotFound
		}
		return domain.Role{}, err
	}
	return record.toDomain(), nil
}

// Delete returns ports.ErrRoleInUse while users still reference the role.
func (r *RoleRepository) Delete(ctx context.Context, id int64) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Delete(&roleRecord{}, id)
	if result.Error != nil {
		if pqCode(result.Error) == foreignKeyViolation {
			return ports.ErrRoleInUse
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrRoleNotFound
	}
	return nil
}

func (r *RoleRepository) List(ctx context.Context) ([]domain.Role, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []roleRecord
	if err := r.db.WithContext(ctx).Order("id_rol").Find(&records).Error; err != nil {
		return nil, err
	}
	roles := make([]domain.Role, 0, len(records))
	for _, record := range records {
		roles = append(roles, record.toDomain())
	}
	return roles, nil
}

func (r *RoleRepository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres role repository not configured")
	}
	return nil
}
