package iam

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	pkgerrors "github.com/tendant/eligibility-idm/pkg/errors"
	"github.com/tendant/eligibility-idm/pkg/role"
	"github.com/uptrace/bun"
)

// UserRepository stores users. Every method runs on the given session so the
// registration workflow can use it inside its transaction.
type UserRepository interface {
	Create(ctx context.Context, db bun.IDB, user *User) error
	ExistsByEmail(ctx context.Context, db bun.IDB, email string) (bool, error)
	ExistsByID(ctx context.Context, db bun.IDB, id uuid.UUID) (bool, error)
	// GetByEmail and GetByID fail with a NotFound error for unknown users.
	GetByEmail(ctx context.Context, db bun.IDB, email string) (*User, error)
	GetByID(ctx context.Context, db bun.IDB, id uuid.UUID) (*User, error)
	// List returns users holding filter (any user for role.All), newest first.
	List(ctx context.Context, db bun.IDB, filter role.Role, limit, offset int) ([]*User, error)
	Count(ctx context.Context, db bun.IDB, filter role.Role) (int, error)
	SetPassword(ctx context.Context, db bun.IDB, id uuid.UUID, hash string) error
}

type BunUserRepository struct{}

func NewBunUserRepository() *BunUserRepository {
	return &BunUserRepository{}
}

func (r *BunUserRepository) Create(ctx context.Context, db bun.IDB, user *User) error {
	if _, err := db.NewInsert().Model(user).Exec(ctx); err != nil {
		return fmt.Errorf("inserting user %s: %w", user.Email, err)
	}
	return nil
}

func (r *BunUserRepository) ExistsByEmail(ctx context.Context, db bun.IDB, email string) (bool, error) {
	exists, err := db.NewSelect().
		Model((*User)(nil)).
		Where("u.email = ?", email).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("checking user email: %w", err)
	}
	return exists, nil
}

func (r *BunUserRepository) ExistsByID(ctx context.Context, db bun.IDB, id uuid.UUID) (bool, error) {
	exists, err := db.NewSelect().
		Model((*User)(nil)).
		Where("u.id = ?", id).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("checking user %s: %w", id, err)
	}
	return exists, nil
}

func (r *BunUserRepository) GetByEmail(ctx context.Context, db bun.IDB, email string) (*User, error) {
	user := new(User)
	err := db.NewSelect().
		Model(user).
		Relation("Roles", orderRoles).
		Where("u.email = ?", email).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkgerrors.NotFound("user", email)
	}
	if err != nil {
		return nil, fmt.Errorf("selecting user by email: %w", err)
	}
	return user, nil
}

func (r *BunUserRepository) GetByID(ctx context.Context, db bun.IDB, id uuid.UUID) (*User, error) {
	user := new(User)
	err := db.NewSelect().
		Model(user).
		Relation("Roles", orderRoles).
		Where("u.id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkgerrors.NotFound("user", id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("selecting user %s: %w", id, err)
	}
	return user, nil
}

// List loads the page with one query and the roles of the whole page with a
// second one.
func (r *BunUserRepository) List(ctx context.Context, db bun.IDB, filter role.Role, limit, offset int) ([]*User, error) {
	users := make([]*User, 0, limit)
	q := db.NewSelect().
		Model(&users).
		Relation("Roles", orderRoles).
		OrderExpr("u.created_at DESC, u.id DESC").
		Limit(limit).
		Offset(offset)
	q = applyRoleFilter(q, filter)

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

func (r *BunUserRepository) Count(ctx context.Context, db bun.IDB, filter role.Role) (int, error) {
	q := db.NewSelect().Model((*User)(nil))
	count, err := applyRoleFilter(q, filter).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return count, nil
}

func (r *BunUserRepository) SetPassword(ctx context.Context, db bun.IDB, id uuid.UUID, hash string) error {
	res, err := db.NewUpdate().
		Model((*User)(nil)).
		Set("password = ?", hash).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("updating password of user %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return pkgerrors.NotFound("user", id.String())
	}
	return nil
}

// applyRoleFilter uses EXISTS so a user is returned once however many roles
// they hold.
func applyRoleFilter(q *bun.SelectQuery, filter role.Role) *bun.SelectQuery {
	if filter == role.All {
		return q
	}
	return q.Where("EXISTS (SELECT 1 FROM user_roles AS f WHERE f.user_id = u.id AND f.role_id = ?)", filter)
}

func orderRoles(q *bun.SelectQuery) *bun.SelectQuery {
	return q.Order("ur.role_id ASC")
}
