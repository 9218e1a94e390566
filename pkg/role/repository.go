package role

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RoleRepository is the role store. Every method runs on the given session so
// callers can read and write inside their own transaction.
type RoleRepository interface {
	// GetRoles returns the roles held by userID, possibly none.
	GetRoles(ctx context.Context, db bun.IDB, userID uuid.UUID) ([]Role, error)
	HasRole(ctx context.Context, db bun.IDB, userID uuid.UUID, role Role) (bool, error)
	// AssignRole is idempotent.
	AssignRole(ctx context.Context, db bun.IDB, userID uuid.UUID, role Role) error
	// AssignRoles assigns every role in roles, skipping pairs that already exist.
	AssignRoles(ctx context.Context, db bun.IDB, userID uuid.UUID, roles []Role) error
	// RemoveRole is a no-op when the association does not exist.
	RemoveRole(ctx context.Context, db bun.IDB, userID uuid.UUID, role Role) error
	FindRoles(ctx context.Context, db bun.IDB) ([]RoleRecord, error)
}

type BunRoleRepository struct{}

func NewBunRoleRepository() *BunRoleRepository {
	return &BunRoleRepository{}
}

func (r *BunRoleRepository) GetRoles(ctx context.Context, db bun.IDB, userID uuid.UUID) ([]Role, error) {
	var rows []UserRole
	err := db.NewSelect().
		Model(&rows).
		Where("ur.user_id = ?", userID).
		Order("ur.role_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("selecting roles of user %s: %w", userID, err)
	}

	roles := make([]Role, 0, len(rows))
	for _, row := range rows {
		roles = append(roles, row.RoleID)
	}
	return roles, nil
}

func (r *BunRoleRepository) HasRole(ctx context.Context, db bun.IDB, userID uuid.UUID, role Role) (bool, error) {
	exists, err := db.NewSelect().
		Model((*UserRole)(nil)).
		Where("ur.user_id = ?", userID).
		Where("ur.role_id = ?", role).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("checking role %s of user %s: %w", role, userID, err)
	}
	return exists, nil
}

func (r *BunRoleRepository) AssignRole(ctx context.Context, db bun.IDB, userID uuid.UUID, role Role) error {
	return r.AssignRoles(ctx, db, userID, []Role{role})
}

func (r *BunRoleRepository) AssignRoles(ctx context.Context, db bun.IDB, userID uuid.UUID, roles []Role) error {
	roles = Dedupe(roles)
	if len(roles) == 0 {
		return nil
	}

	rows := make([]UserRole, 0, len(roles))
	for _, role := range roles {
		rows = append(rows, UserRole{UserID: userID, RoleID: role})
	}

	_, err := db.NewInsert().
		Model(&rows).
		On("CONFLICT DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("assigning roles %v to user %s: %w", roles, userID, err)
	}
	return nil
}

func (r *BunRoleRepository) RemoveRole(ctx context.Context, db bun.IDB, userID uuid.UUID, role Role) error {
	_, err := db.NewDelete().
		Model((*UserRole)(nil)).
		Where("user_id = ?", userID).
		Where("role_id = ?", role).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("removing role %s from user %s: %w", role, userID, err)
	}
	return nil
}

func (r *BunRoleRepository) FindRoles(ctx context.Context, db bun.IDB) ([]RoleRecord, error) {
	var roles []RoleRecord
	if err := db.NewSelect().Model(&roles).Order("r.id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("selecting roles: %w", err)
	}
	return roles, nil
}
