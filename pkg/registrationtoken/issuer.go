package registrationtoken

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/eligibility-idm/pkg/database"
	pkgerrors "github.com/tendant/eligibility-idm/pkg/errors"
	"github.com/uptrace/bun"
)

const (
	// TokenBytes is the amount of randomness in a token value (256 bits).
	TokenBytes = 32

	DefaultMaxAttempts = 5
)

// Issuer generates unguessable token values and stores PENDING tokens.
type Issuer struct {
	repo        Repository
	random      io.Reader
	maxAttempts int
	now         func() time.Time
}

type Option func(*Issuer)

func WithMaxAttempts(n int) Option {
	return func(i *Issuer) {
		if n > 0 {
			i.maxAttempts = n
		}
	}
}

// WithRandom replaces crypto/rand as the randomness source.
func WithRandom(r io.Reader) Option {
	return func(i *Issuer) {
		i.random = r
	}
}

func WithClock(now func() time.Time) Option {
	return func(i *Issuer) {
		i.now = now
	}
}

func NewIssuer(repo Repository, opts ...Option) *Issuer {
	i := &Issuer{
		repo:        repo,
		random:      rand.Reader,
		maxAttempts: DefaultMaxAttempts,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func (i *Issuer) newValue() (string, error) {
	b := make([]byte, TokenBytes)
	if _, err := io.ReadFull(i.random, b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateUniqueToken returns a value not held by any stored token. A
// collision is retried up to the configured number of attempts.
func (i *Issuer) GenerateUniqueToken(ctx context.Context, db bun.IDB) (string, error) {
	for attempt := 1; attempt <= i.maxAttempts; attempt++ {
		value, err := i.newValue()
		if err != nil {
			return "", pkgerrors.InternalWrap(err, "failed to generate registration token")
		}

		exists, err := i.repo.Exists(ctx, db, value)
		if err != nil {
			return "", pkgerrors.InternalWrap(err, "failed to check registration token")
		}
		if !exists {
			return value, nil
		}
		slog.Warn("Registration token collision, retrying", "attempt", attempt, "maxAttempts", i.maxAttempts)
	}
	return "", pkgerrors.Internal("token space exhausted")
}

// Issue stores a new PENDING token owned by userID and created by createdBy.
func (i *Issuer) Issue(ctx context.Context, db bun.IDB, userID, createdBy uuid.UUID) (*RegistrationToken, error) {
	value, err := i.GenerateUniqueToken(ctx, db)
	if err != nil {
		return nil, err
	}

	token := &RegistrationToken{
		ID:        uuid.New(),
		UserID:    userID,
		Token:     value,
		CreatedBy: createdBy,
		Status:    StatusPending,
		CreatedAt: i.now().UTC(),
	}
	if err := i.repo.Create(ctx, db, token); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, pkgerrors.Wrap(err, pkgerrors.ErrCodeConflict, "registration token already issued")
		}
		return nil, pkgerrors.InternalWrap(err, "failed to store registration token")
	}

	slog.Info("Issued registration token", "userId", userID, "createdBy", createdBy, "tokenId", token.ID)
	return token, nil
}
