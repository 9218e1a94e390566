package router

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/jwtauth/v5"
	"github.com/tendant/eligibility-idm/pkg/client"
	pkgconfig "github.com/tendant/eligibility-idm/pkg/config"
	"github.com/tendant/eligibility-idm/pkg/iam"
	iamapi "github.com/tendant/eligibility-idm/pkg/iam/api"
	"github.com/tendant/eligibility-idm/pkg/login"
	loginapi "github.com/tendant/eligibility-idm/pkg/login/api"
	"github.com/tendant/eligibility-idm/pkg/notification"
	"github.com/tendant/eligibility-idm/pkg/ratelimit"
	"github.com/tendant/eligibility-idm/pkg/registrationtoken"
	"github.com/tendant/eligibility-idm/pkg/role"
	roleapi "github.com/tendant/eligibility-idm/pkg/role/api"
	"github.com/tendant/eligibility-idm/pkg/signup"
	signupapi "github.com/tendant/eligibility-idm/pkg/signup/api"
	"github.com/tendant/eligibility-idm/pkg/tokengenerator"
	"github.com/uptrace/bun"
)

// Option adjusts the services built by NewConfig
type Option func(*options)

type options struct {
	notifier notification.Notifier
	hasher   login.PasswordHasher
}

// WithNotifier replaces the notifier chosen from the SMTP settings.
func WithNotifier(notifier notification.Notifier) Option {
	return func(o *options) {
		o.notifier = notifier
	}
}

func WithPasswordHasher(hasher login.PasswordHasher) Option {
	return func(o *options) {
		o.hasher = hasher
	}
}

// NewConfig wires repositories, services and handlers on db from the
// runtime configuration.
//
// Example:
//
//	cfg, err := router.NewConfig(appConfig, db)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	router.SetupRoutes(r, cfg)
func NewConfig(appConfig pkgconfig.Config, db *bun.DB, opts ...Option) (Config, error) {
	o := options{hasher: &login.BcryptV1Hasher{}}
	for _, opt := range opts {
		opt(&o)
	}

	if o.notifier == nil {
		notifier, err := notification.NewNotifier(appConfig.EmailConfig.ToSMTPConfig())
		if err != nil {
			return Config{}, fmt.Errorf("creating notifier: %w", err)
		}
		o.notifier = notifier
	}
	if !appConfig.EmailConfig.IsConfigured() {
		slog.Warn("SMTP_HOST not set, invitations are written to the log")
	}
	notificationManager, err := notification.NewNotificationManager(o.notifier, notification.WithDefaultTemplates())
	if err != nil {
		return Config{}, fmt.Errorf("creating notification manager: %w", err)
	}

	users := iam.NewBunUserRepository()
	roles := role.NewBunRoleRepository()
	tokens := registrationtoken.NewBunRepository()

	jwtConfig := appConfig.JWTConfig
	tokenGenerator := tokengenerator.NewJwtTokenGenerator(jwtConfig.Secret, jwtConfig.Issuer, jwtConfig.Audience)
	loginService := login.NewLoginService(db, users, tokenGenerator,
		login.WithPasswordHasher(o.hasher),
		login.WithAccessTokenExpiry(jwtConfig.AccessTokenExpiry))

	regConfig := appConfig.RegistrationConfig
	signupService := signup.NewSignupService(db,
		signup.WithUserRepository(users),
		signup.WithRoleRepository(roles),
		signup.WithTokenRepository(tokens),
		signup.WithTokenIssuer(registrationtoken.NewIssuer(tokens, registrationtoken.WithMaxAttempts(regConfig.TokenMaxAttempts))),
		signup.WithNotificationManager(notificationManager),
		signup.WithPasswordHasher(o.hasher),
		signup.WithTokenTTL(regConfig.TokenTTL),
		signup.WithNotificationTimeout(regConfig.NotificationTimeout),
	)

	iamService := iam.NewIamService(db, users)
	roleService := role.NewRoleService(db, roles, users)

	secureCookie := strings.HasPrefix(regConfig.BaseURL, "https://")
	var signupOpts []signupapi.Option
	if regConfig.BaseURL != "" {
		signupOpts = append(signupOpts, signupapi.WithBaseURL(regConfig.BaseURL))
	}
	if regConfig.TrustProxyHeaders {
		signupOpts = append(signupOpts, signupapi.WithTrustedProxy())
	}

	var rateLimit func(http.Handler) http.Handler
	if rl := appConfig.RateLimitConfig; rl.Enabled {
		rateLimit = ratelimit.NewLimiter(rl.Burst, rl.PerMinute).Middleware
	}

	return Config{
		LoginHandle: loginapi.NewHandle(loginService,
			loginapi.WithCookieSetter(tokengenerator.NewCookieSetter(client.ACCESS_TOKEN_NAME, secureCookie))),
		SignupHandle: signupapi.NewHandle(signupService, signupOpts...),
		UserHandle:   iamapi.NewHandle(iamService),
		RoleHandle:   roleapi.NewHandle(roleService),
		TokenAuth:    jwtauth.New("HS256", []byte(jwtConfig.Secret), nil),
		RateLimit:    rateLimit,
		IamService:   iamService,
		HealthCheck:  db.PingContext,
	}, nil
}
