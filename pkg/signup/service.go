package signup

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/eligibility-idm/pkg/client"
	"github.com/tendant/eligibility-idm/pkg/database"
	pkgerrors "github.com/tendant/eligibility-idm/pkg/errors"
	"github.com/tendant/eligibility-idm/pkg/iam"
	"github.com/tendant/eligibility-idm/pkg/login"
	"github.com/tendant/eligibility-idm/pkg/notification"
	"github.com/tendant/eligibility-idm/pkg/registrationtoken"
	"github.com/tendant/eligibility-idm/pkg/role"
	"github.com/uptrace/bun"
)

const (
	DefaultTokenTTL            = 72 * time.Hour
	DefaultNotificationTimeout = 10 * time.Second

	RegisterUserMessage         = "A link has been sent to the user to complete the registration"
	CompleteRegistrationMessage = "Registration completed"
)

// SignupService runs the invitation based registration workflow
type SignupService struct {
	db                  bun.IDB
	users               iam.UserRepository
	roles               role.RoleRepository
	tokens              registrationtoken.Repository
	issuer              *registrationtoken.Issuer
	notifications       *notification.NotificationManager
	hasher              login.PasswordHasher
	policy              *login.PasswordPolicy
	tokenTTL            time.Duration
	notificationTimeout time.Duration
	now                 func() time.Time
}

// SignupServiceOption is a functional option for configuring SignupService
type SignupServiceOption func(*SignupService)

func NewSignupService(db bun.IDB, opts ...SignupServiceOption) *SignupService {
	tokens := registrationtoken.NewBunRepository()
	s := &SignupService{
		db:                  db,
		users:               iam.NewBunUserRepository(),
		roles:               role.NewBunRoleRepository(),
		tokens:              tokens,
		hasher:              &login.BcryptV1Hasher{},
		policy:              login.DefaultPasswordPolicy(),
		tokenTTL:            DefaultTokenTTL,
		notificationTimeout: DefaultNotificationTimeout,
		now:                 time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.issuer == nil {
		s.issuer = registrationtoken.NewIssuer(s.tokens)
	}
	return s
}

func WithUserRepository(repo iam.UserRepository) SignupServiceOption {
	return func(s *SignupService) {
		s.users = repo
	}
}

func WithRoleRepository(repo role.RoleRepository) SignupServiceOption {
	return func(s *SignupService) {
		s.roles = repo
	}
}

// WithTokenRepository also resets the issuer unless WithTokenIssuer is given.
func WithTokenRepository(repo registrationtoken.Repository) SignupServiceOption {
	return func(s *SignupService) {
		s.tokens = repo
	}
}

func WithTokenIssuer(issuer *registrationtoken.Issuer) SignupServiceOption {
	return func(s *SignupService) {
		s.issuer = issuer
	}
}

func WithNotificationManager(nm *notification.NotificationManager) SignupServiceOption {
	return func(s *SignupService) {
		s.notifications = nm
	}
}

func WithPasswordHasher(hasher login.PasswordHasher) SignupServiceOption {
	return func(s *SignupService) {
		s.hasher = hasher
	}
}

func WithPasswordPolicy(policy *login.PasswordPolicy) SignupServiceOption {
	return func(s *SignupService) {
		s.policy = policy
	}
}

func WithTokenTTL(ttl time.Duration) SignupServiceOption {
	return func(s *SignupService) {
		if ttl > 0 {
			s.tokenTTL = ttl
		}
	}
}

func WithNotificationTimeout(timeout time.Duration) SignupServiceOption {
	return func(s *SignupService) {
		if timeout > 0 {
			s.notificationTimeout = timeout
		}
	}
}

func WithClock(now func() time.Time) SignupServiceOption {
	return func(s *SignupService) {
		s.now = now
	}
}

type RegisterUserResult struct {
	UserID  uuid.UUID
	Email   string
	TokenID uuid.UUID
	Message string
}

// RegisterUser creates a user without a password, grants the requested roles
// and issues a PENDING registration token, all in one transaction. The caller
// must hold Admin in the role store at the time of the call. After commit the
// invitation link origin + "/register/" + token is sent to the new user;
// delivery failures are logged and do not undo the registration.
func (s *SignupService) RegisterUser(ctx context.Context, caller client.Caller, req RegisterUserRequest, origin string) (*RegisterUserResult, error) {
	req = req.normalized()
	if err := req.Validate(); err != nil {
		return nil, pkgerrors.ValidationFailed(ValidationDetails(err))
	}

	user := &iam.User{
		ID:        uuid.New(),
		FullName:  req.FullName,
		Email:     req.Email,
		CreatedAt: s.now().UTC(),
	}
	var token *registrationtoken.RegistrationToken

	err := database.RunInTx(ctx, s.db, func(ctx context.Context, tx bun.Tx) error {
		if err := role.RequireAdmin(ctx, tx, s.roles, caller.ID); err != nil {
			return err
		}

		exists, err := s.users.ExistsByEmail(ctx, tx, user.Email)
		if err != nil {
			return pkgerrors.InternalWrap(err, "failed to check email")
		}
		if exists {
			return emailTaken(user.Email)
		}

		if err := s.users.Create(ctx, tx, user); err != nil {
			if database.IsUniqueViolation(err) {
				return emailTaken(user.Email)
			}
			return pkgerrors.InternalWrap(err, "failed to create user")
		}

		slog.Info("Assigning roles to user", "userId", user.ID, "roles", req.Roles)
		if err := s.roles.AssignRoles(ctx, tx, user.ID, req.Roles); err != nil {
			return pkgerrors.InternalWrap(err, "failed to assign roles")
		}

		token, err = s.issuer.Issue(ctx, tx, user.ID, caller.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Registered user", "userId", user.ID, "callerId", caller.ID, "roles", req.Roles)
	s.sendInvitation(ctx, user, InvitationURL(origin, token.Token))

	return &RegisterUserResult{
		UserID:  user.ID,
		Email:   user.Email,
		TokenID: token.ID,
		Message: RegisterUserMessage,
	}, nil
}

func emailTaken(email string) error {
	return pkgerrors.Conflict("A user with this email already exists").WithDetail("email", email)
}

// sendInvitation runs after commit. It is bounded by notificationTimeout and
// is not cancelled when the request context is.
func (s *SignupService) sendInvitation(ctx context.Context, user *iam.User, url string) {
	if s.notifications == nil {
		slog.Warn("No notification manager configured, invitation not sent", "userId", user.ID)
		return
	}

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notificationTimeout)
	defer cancel()

	err := s.notifications.Send(sendCtx, notification.RegistrationInvite, user.Email, notification.RegistrationInviteData{
		FullName: user.FullName,
		URL:      url,
	})
	if err != nil {
		slog.Error("Failed to send registration invitation", "userId", user.ID, "email", user.Email, "err", err)
		return
	}
	slog.Info("Sent registration invitation", "userId", user.ID)
}

// InvitationURL joins origin (scheme and host) and the registration path.
func InvitationURL(origin, token string) string {
	return strings.TrimRight(origin, "/") + "/register/" + token
}

type CompleteRegistrationResult struct {
	UserID  uuid.UUID
	Message string
}

// CompleteRegistration sets the password of the user owning tokenValue and
// marks the token USED. A PENDING token older than the TTL is marked EXPIRED
// and the call fails with Conflict. The password is hashed only once the token
// is known to be usable.
func (s *SignupService) CompleteRegistration(ctx context.Context, tokenValue, password string) (*CompleteRegistrationResult, error) {
	if err := s.policy.Check(password); err != nil {
		return nil, pkgerrors.InvalidInput("password", err.Error())
	}

	token, err := s.tokens.GetByValue(ctx, s.db, tokenValue)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.ErrCodeNotFound) {
			return nil, err
		}
		return nil, pkgerrors.InternalWrap(err, "failed to look up registration token")
	}
	if err := checkPending(token.Status); err != nil {
		return nil, err
	}

	if token.ExpiredAt(s.now(), s.tokenTTL) {
		if err := s.transitionToken(ctx, s.db, token, registrationtoken.StatusExpired); err != nil && !pkgerrors.IsCode(err, pkgerrors.ErrCodeConflict) {
			return nil, err
		}
		return nil, pkgerrors.Conflict("token expired")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, pkgerrors.InternalWrap(err, "failed to hash password")
	}

	err = database.RunInTx(ctx, s.db, func(ctx context.Context, tx bun.Tx) error {
		// Claim the token first so a concurrent completion loses here.
		if err := s.transitionToken(ctx, tx, token, registrationtoken.StatusUsed); err != nil {
			if pkgerrors.IsCode(err, pkgerrors.ErrCodeConflict) {
				return pkgerrors.Conflict("token already used")
			}
			return err
		}
		if err := s.users.SetPassword(ctx, tx, token.UserID, hash); err != nil {
			if pkgerrors.IsCode(err, pkgerrors.ErrCodeNotFound) {
				return err
			}
			return pkgerrors.InternalWrap(err, "failed to set password")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Completed registration", "userId", token.UserID)
	return &CompleteRegistrationResult{
		UserID:  token.UserID,
		Message: CompleteRegistrationMessage,
	}, nil
}

// checkPending maps a terminal token status to the Conflict returned to callers.
func checkPending(status registrationtoken.Status) error {
	switch status {
	case registrationtoken.StatusPending:
		return nil
	case registrationtoken.StatusUsed:
		return pkgerrors.Conflict("token already used")
	case registrationtoken.StatusExpired:
		return pkgerrors.Conflict("token expired")
	default:
		return pkgerrors.Internal("unknown token status " + status.String())
	}
}

func (s *SignupService) transitionToken(ctx context.Context, db bun.IDB, token *registrationtoken.RegistrationToken, to registrationtoken.Status) error {
	if err := s.tokens.Transition(ctx, db, token.ID, to); err != nil {
		if pkgerrors.IsCode(err, pkgerrors.ErrCodeConflict) {
			return err
		}
		return pkgerrors.InternalWrap(err, "failed to update registration token")
	}
	slog.Info("Registration token status changed", "tokenId", token.ID, "userId", token.UserID, "status", to)
	return nil
}

// CreateRegisteredUser creates a user that can log in right away, without an
// invitation or an admin caller. It bootstraps the first administrator.
func (s *SignupService) CreateRegisteredUser(ctx context.Context, req RegisterUserRequest, password string) (*iam.User, error) {
	req = req.normalized()
	if err := req.Validate(); err != nil {
		return nil, pkgerrors.ValidationFailed(ValidationDetails(err))
	}
	if err := s.policy.Check(password); err != nil {
		return nil, pkgerrors.InvalidInput("password", err.Error())
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, pkgerrors.InternalWrap(err, "failed to hash password")
	}

	user := &iam.User{
		ID:        uuid.New(),
		FullName:  req.FullName,
		Email:     req.Email,
		Password:  &hash,
		CreatedAt: s.now().UTC(),
	}
	err = database.RunInTx(ctx, s.db, func(ctx context.Context, tx bun.Tx) error {
		exists, err := s.users.ExistsByEmail(ctx, tx, user.Email)
		if err != nil {
			return pkgerrors.InternalWrap(err, "failed to check email")
		}
		if exists {
			return emailTaken(user.Email)
		}
		if err := s.users.Create(ctx, tx, user); err != nil {
			if database.IsUniqueViolation(err) {
				return emailTaken(user.Email)
			}
			return pkgerrors.InternalWrap(err, "failed to create user")
		}
		if err := s.roles.AssignRoles(ctx, tx, user.ID, req.Roles); err != nil {
			return pkgerrors.InternalWrap(err, "failed to assign roles")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Created registered user", "userId", user.ID, "roles", req.Roles)
	return user, nil
}
