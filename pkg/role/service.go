package role

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/tendant/eligibility-idm/pkg/client"
	"github.com/tendant/eligibility-idm/pkg/database"
	pkgerrors "github.com/tendant/eligibility-idm/pkg/errors"
	"github.com/uptrace/bun"
)

// UserLookup reports whether a user exists. It is implemented by the iam
// user repository.
type UserLookup interface {
	ExistsByID(ctx context.Context, db bun.IDB, id uuid.UUID) (bool, error)
}

// RequireAdmin checks the live role store and fails with Forbidden unless
// userID holds Admin. Call it with the transaction that performs the write.
func RequireAdmin(ctx context.Context, db bun.IDB, repo RoleRepository, userID uuid.UUID) error {
	isAdmin, err := repo.HasRole(ctx, db, userID, Admin)
	if err != nil {
		return pkgerrors.InternalWrap(err, "failed to check caller roles")
	}
	if !isAdmin {
		slog.Info("Rejecting non-admin caller", "userId", userID)
		return pkgerrors.Forbidden("admin role required")
	}
	return nil
}

// RoleService provides admin-gated role management
type RoleService struct {
	db    bun.IDB
	repo  RoleRepository
	users UserLookup
}

func NewRoleService(db bun.IDB, repo RoleRepository, users UserLookup) *RoleService {
	return &RoleService{
		db:    db,
		repo:  repo,
		users: users,
	}
}

func (s *RoleService) FindRoles(ctx context.Context) ([]RoleRecord, error) {
	roles, err := s.repo.FindRoles(ctx, s.db)
	if err != nil {
		return nil, pkgerrors.InternalWrap(err, "failed to find roles")
	}
	return roles, nil
}

// GetRoles returns the roles currently held by userID
func (s *RoleService) GetRoles(ctx context.Context, userID uuid.UUID) ([]Role, error) {
	roles, err := s.repo.GetRoles(ctx, s.db, userID)
	if err != nil {
		return nil, pkgerrors.InternalWrap(err, "failed to get roles")
	}
	return roles, nil
}

// AssignRole grants role to userID. Assigning a role the user already holds
// succeeds without change.
func (s *RoleService) AssignRole(ctx context.Context, caller client.Caller, userID uuid.UUID, role Role) error {
	slog.Info("Assigning role", "callerId", caller.ID, "userId", userID, "role", role)
	return s.mutate(ctx, caller, userID, role, s.repo.AssignRole)
}

// RemoveRole revokes role from userID. Removing a role the user does not hold
// succeeds without change.
func (s *RoleService) RemoveRole(ctx context.Context, caller client.Caller, userID uuid.UUID, role Role) error {
	slog.Info("Removing role", "callerId", caller.ID, "userId", userID, "role", role)
	return s.mutate(ctx, caller, userID, role, s.repo.RemoveRole)
}

type roleMutation func(ctx context.Context, db bun.IDB, userID uuid.UUID, role Role) error

func (s *RoleService) mutate(ctx context.Context, caller client.Caller, userID uuid.UUID, role Role, apply roleMutation) error {
	return database.RunInTx(ctx, s.db, func(ctx context.Context, tx bun.Tx) error {
		if err := RequireAdmin(ctx, tx, s.repo, caller.ID); err != nil {
			return err
		}

		exists, err := s.users.ExistsByID(ctx, tx, userID)
		if err != nil {
			return pkgerrors.InternalWrap(err, "failed to look up user")
		}
		if !exists {
			return pkgerrors.NotFound("user", userID.String())
		}

		if !role.Valid() {
			return pkgerrors.InvalidInput("role", role.String()+" cannot be held by a user")
		}

		if err := apply(ctx, tx, userID, role); err != nil {
			return pkgerrors.InternalWrap(err, "failed to update user roles")
		}
		return nil
	})
}
