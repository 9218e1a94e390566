package role

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// InMemoryRoleRepository implements RoleRepository using in-memory storage.
// The session argument is ignored.
type InMemoryRoleRepository struct {
	mu        sync.RWMutex
	userRoles map[uuid.UUID]map[Role]struct{} // userID -> roles
}

// NewInMemoryRoleRepository creates a new in-memory role repository
func NewInMemoryRoleRepository() *InMemoryRoleRepository {
	return &InMemoryRoleRepository{
		userRoles: make(map[uuid.UUID]map[Role]struct{}),
	}
}

func (r *InMemoryRoleRepository) GetRoles(ctx context.Context, _ bun.IDB, userID uuid.UUID) ([]Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	roles := make([]Role, 0, len(r.userRoles[userID]))
	for role := range r.userRoles[userID] {
		roles = append(roles, role)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })
	return roles, nil
}

func (r *InMemoryRoleRepository) HasRole(ctx context.Context, _ bun.IDB, userID uuid.UUID, role Role) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.userRoles[userID][role]
	return ok, nil
}

func (r *InMemoryRoleRepository) AssignRole(ctx context.Context, db bun.IDB, userID uuid.UUID, role Role) error {
	return r.AssignRoles(ctx, db, userID, []Role{role})
}

func (r *InMemoryRoleRepository) AssignRoles(ctx context.Context, _ bun.IDB, userID uuid.UUID, roles []Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	held, ok := r.userRoles[userID]
	if !ok {
		held = make(map[Role]struct{})
		r.userRoles[userID] = held
	}
	for _, role := range roles {
		held[role] = struct{}{}
	}
	return nil
}

func (r *InMemoryRoleRepository) RemoveRole(ctx context.Context, _ bun.IDB, userID uuid.UUID, role Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.userRoles[userID], role)
	return nil
}

func (r *InMemoryRoleRepository) FindRoles(ctx context.Context, _ bun.IDB) ([]RoleRecord, error) {
	records := make([]RoleRecord, 0, len(Stored))
	for _, role := range Stored {
		records = append(records, RoleRecord{ID: role, Name: role.String()})
	}
	return records, nil
}
