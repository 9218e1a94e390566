package login

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/tendant/eligibility-idm/pkg/errors"
	"github.com/tendant/eligibility-idm/pkg/iam"
	"github.com/tendant/eligibility-idm/pkg/tokengenerator"
	"github.com/uptrace/bun"
)

const DefaultAccessTokenExpiry = 15 * time.Minute

type LoginService struct {
	db          bun.IDB
	users       iam.UserRepository
	hasher      PasswordHasher
	tokens      tokengenerator.TokenGenerator
	tokenExpiry time.Duration
}

type Option func(*LoginService)

func WithPasswordHasher(hasher PasswordHasher) Option {
	return func(s *LoginService) {
		s.hasher = hasher
	}
}

func WithAccessTokenExpiry(expiry time.Duration) Option {
	return func(s *LoginService) {
		if expiry > 0 {
			s.tokenExpiry = expiry
		}
	}
}

func NewLoginService(db bun.IDB, users iam.UserRepository, tokens tokengenerator.TokenGenerator, opts ...Option) *LoginService {
	s := &LoginService{
		db:          db,
		users:       users,
		hasher:      &BcryptV1Hasher{},
		tokens:      tokens,
		tokenExpiry: DefaultAccessTokenExpiry,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type LoginResult struct {
	UserID      uuid.UUID
	Email       string
	AccessToken string
	ExpiresAt   time.Time
}

// Login checks email and password and mints an access token. Unknown users,
// users that have not completed registration and wrong passwords all fail
// with the same Unauthorized error.
func (s *LoginService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = NormalizeEmail(email)
	invalid := pkgerrors.Unauthorized("invalid credentials")

	user, err := s.users.GetByEmail(ctx, s.db, email)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.ErrCodeNotFound) {
			slog.Info("Login failed, unknown email", "email", email)
			return nil, invalid
		}
		return nil, pkgerrors.InternalWrap(err, "failed to look up user")
	}
	if !user.Registered() {
		slog.Info("Login failed, registration not completed", "userId", user.ID)
		return nil, invalid
	}

	ok, err := s.hasher.Verify(password, *user.Password)
	if err != nil || !ok {
		slog.Info("Login failed, password mismatch", "userId", user.ID, "err", err)
		return nil, invalid
	}

	token, expiresAt, err := s.tokens.GenerateToken(user.ID.String(), s.tokenExpiry, map[string]interface{}{
		"email": user.Email,
	})
	if err != nil {
		return nil, pkgerrors.InternalWrap(err, "failed to generate access token")
	}

	slog.Info("Login succeeded", "userId", user.ID)
	return &LoginResult{
		UserID:      user.ID,
		Email:       user.Email,
		AccessToken: token,
		ExpiresAt:   expiresAt,
	}, nil
}

// NormalizeEmail trims and lowercases an address. Emails are stored
// normalized so lookups are exact matches.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
