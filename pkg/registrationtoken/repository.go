package registrationtoken

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	pkgerrors "github.com/tendant/eligibility-idm/pkg/errors"
	"github.com/uptrace/bun"
)

type Repository interface {
	Exists(ctx context.Context, db bun.IDB, value string) (bool, error)
	Create(ctx context.Context, db bun.IDB, token *RegistrationToken) error
	// GetByValue fails with a NotFound error for unknown values.
	GetByValue(ctx context.Context, db bun.IDB, value string) (*RegistrationToken, error)
	// Transition moves a PENDING token to to. It fails with Conflict when the
	// token is no longer PENDING, so concurrent callers cannot both succeed.
	Transition(ctx context.Context, db bun.IDB, id uuid.UUID, to Status) error
	CountByUser(ctx context.Context, db bun.IDB, userID uuid.UUID) (int, error)
}

type BunRepository struct{}

func NewBunRepository() *BunRepository {
	return &BunRepository{}
}

func (r *BunRepository) Exists(ctx context.Context, db bun.IDB, value string) (bool, error) {
	exists, err := db.NewSelect().
		Model((*RegistrationToken)(nil)).
		Where("t.token = ?", value).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("checking token existence: %w", err)
	}
	return exists, nil
}

func (r *BunRepository) Create(ctx context.Context, db bun.IDB, token *RegistrationToken) error {
	if _, err := db.NewInsert().Model(token).Exec(ctx); err != nil {
		return fmt.Errorf("inserting token for user %s: %w", token.UserID, err)
	}
	return nil
}

func (r *BunRepository) GetByValue(ctx context.Context, db bun.IDB, value string) (*RegistrationToken, error) {
	token := new(RegistrationToken)
	err := db.NewSelect().
		Model(token).
		Where("t.token = ?", value).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkgerrors.New(pkgerrors.ErrCodeNotFound, "registration token not found")
	}
	if err != nil {
		return nil, fmt.Errorf("selecting token: %w", err)
	}
	return token, nil
}

func (r *BunRepository) Transition(ctx context.Context, db bun.IDB, id uuid.UUID, to Status) error {
	if to == StatusPending {
		return pkgerrors.Internal("registration token cannot move back to PENDING")
	}

	res, err := db.NewUpdate().
		Model((*RegistrationToken)(nil)).
		Set("status = ?", to).
		Where("id = ?", id).
		Where("status = ?", StatusPending).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("updating token %s to %s: %w", id, to, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating token %s to %s: %w", id, to, err)
	}
	if n == 0 {
		return pkgerrors.Conflict("registration token is not pending").WithDetail("tokenId", id.String())
	}
	return nil
}

func (r *BunRepository) CountByUser(ctx context.Context, db bun.IDB, userID uuid.UUID) (int, error) {
	count, err := db.NewSelect().
		Model((*RegistrationToken)(nil)).
		Where("t.user_id = ?", userID).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting tokens of user %s: %w", userID, err)
	}
	return count, nil
}
