package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/Apurer/farmasync/internal/domains/usuarios/domain"
	"github.com/Apurer/farmasync/internal/domains/usuarios/ports"
)

var _ ports.RoleRepository = (*RoleRepository)(nil)

// RoleRepository keeps roles in memory, seeded like the database.
type RoleRepository struct {
	mu     sync.RWMutex
	roles  map[int64]domain.Role
	nextID int64
}

func NewRoleRepository() *RoleRepository {
	r := &RoleRepository{roles: map[int64]domain.Role{}}
	for _, name := range []string{domain.RoleAdmin, domain.RoleClient, domain.RoleEmployee} {
		r.nextID++
		r.roles[r.nextID] = domain.Role{ID: r.nextID, Name: name}
	}
	return r
}

func (r *RoleRepository) Create(_ context.Context, role domain.Role) (domain.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.roles {
		if strings.EqualFold(existing.Name, role.Name) {
			return domain.Role{}, ports.ErrRoleNameTaken
		}
	}
	r.nextID++
	role.ID = r.nextID
	r.roles[role.ID] = role
	return role, nil
}

func (r *RoleRepository) GetByID(_ context.Context, id int64) (domain.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	role, ok := r.roles[id]
	if !ok {
		return domain.Role{}, ports.ErrRoleNotFound
	}
	return role, nil
}

func (r *RoleRepository) GetByName(_ context.Context, name string) (domain.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, role := range r.roles {
		if strings.EqualFold(role.Name, name) {
			return role, nil
		}
	}
	return domain.Role{}, ports.ErrRoleNotFound
}

// Delete does not check whether users still reference the role.
func (r *RoleRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.roles[id]; !ok {
		return ports.ErrRoleNotFound
	}
	delete(r.roles, id)
	return nil
}

func (r *RoleRepository) List(_ context.Context) ([]domain.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	roles := make([]domain.Role, 0, len(r.roles))
	for _, role := range r.roles {
		roles = append(roles, role)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].ID < roles[j].ID })
	return roles, nil
}
