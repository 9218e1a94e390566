package iam

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	pkgerrors "github.com/tendant/eligibility-idm/pkg/errors"
	"github.com/tendant/eligibility-idm/pkg/role"
	"github.com/uptrace/bun"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// IamService answers read-only user queries
type IamService struct {
	db   bun.IDB
	repo UserRepository
}

func NewIamService(db bun.IDB, repo UserRepository) *IamService {
	return &IamService{
		db:   db,
		repo: repo,
	}
}

// ListUsers returns one page of users holding filter, newest first. Limits
// above MaxPageLimit are capped. Callers without a limit pass DefaultPageLimit.
func (s *IamService) ListUsers(ctx context.Context, filter role.Role, limit, offset int) (*Page, error) {
	if offset < 0 {
		return nil, pkgerrors.InvalidInput("offset", "must not be negative")
	}
	if filter != role.All && !filter.Valid() {
		return nil, pkgerrors.InvalidInput("filter_for_users", filter.String())
	}
	if limit <= 0 {
		return nil, pkgerrors.InvalidInput("limit", "must be positive")
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}

	users, err := s.repo.List(ctx, s.db, filter, limit, offset)
	if err != nil {
		return nil, pkgerrors.InternalWrap(err, "failed to list users")
	}
	total, err := s.repo.Count(ctx, s.db, filter)
	if err != nil {
		return nil, pkgerrors.InternalWrap(err, "failed to count users")
	}

	slog.Debug("Listed users", "filter", filter, "limit", limit, "offset", offset, "total", total)
	return &Page{
		Items:  users,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}, nil
}

// GetUserByID returns the user with its roles, or a NotFound error.
func (s *IamService) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	user, err := s.repo.GetByID(ctx, s.db, id)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.ErrCodeNotFound) {
			return nil, err
		}
		return nil, pkgerrors.InternalWrap(err, "failed to get user")
	}
	return user, nil
}
