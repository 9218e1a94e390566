package router

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
	"github.com/go-chi/render"
	"github.com/tendant/eligibility-idm/pkg/client"
	pkgerrors "github.com/tendant/eligibility-idm/pkg/errors"
	"github.com/tendant/eligibility-idm/pkg/iam"
	iamapi "github.com/tendant/eligibility-idm/pkg/iam/api"
	loginapi "github.com/tendant/eligibility-idm/pkg/login/api"
	roleapi "github.com/tendant/eligibility-idm/pkg/role/api"
	signupapi "github.com/tendant/eligibility-idm/pkg/signup/api"
)

// Config holds the handlers and token verifier the routes are built from
type Config struct {
	LoginHandle  loginapi.Handle
	SignupHandle signupapi.Handle
	UserHandle   iamapi.Handle
	RoleHandle   *roleapi.Handle

	TokenAuth *jwtauth.JWTAuth

	// RateLimit guards the public credential routes. Nil disables it.
	RateLimit func(http.Handler) http.Handler

	// IamService backs GET /me. The route is skipped when nil.
	IamService *iam.IamService

	// HealthCheck backs GET /health. A nil check always reports ok.
	HealthCheck func(ctx context.Context) error
}

// SetupRoutes mounts the public and the authenticated routes
func SetupRoutes(r chi.Router, cfg Config) {
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	SetupPublicRoutes(r, cfg)
	SetupAuthenticatedRoutes(r, cfg)
}

// SetupPublicRoutes mounts only public routes (no authentication required)
func SetupPublicRoutes(r chi.Router, cfg Config) {
	r.Get("/health", health(cfg.HealthCheck))
	r.Group(func(r chi.Router) {
		if cfg.RateLimit != nil {
			r.Use(cfg.RateLimit)
		}
		cfg.LoginHandle.Routes(r)
		cfg.SignupHandle.PublicRoutes(r)
	})
}

// SetupAuthenticatedRoutes mounts only authenticated routes. Authorization
// beyond identity is done by the services against the role store.
func SetupAuthenticatedRoutes(r chi.Router, cfg Config) {
	r.Group(func(r chi.Router) {
		r.Use(client.Verifier(cfg.TokenAuth))
		r.Use(jwtauth.Authenticator(cfg.TokenAuth))
		r.Use(client.AuthUserMiddleware)

		if cfg.IamService != nil {
			r.Get("/me", me(cfg.IamService))
		}

		cfg.SignupHandle.Routes(r)
		cfg.UserHandle.Routes(r)
		cfg.RoleHandle.Routes(r)
	})
}

func health(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				slog.Error("Health check failed", "err", err)
				render.Status(r, http.StatusServiceUnavailable)
				render.JSON(w, r, map[string]string{"status": "unavailable"})
				return
			}
		}
		render.JSON(w, r, map[string]string{"status": "ok"})
	}
}

func me(iamService *iam.IamService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := client.GetCaller(r.Context())
		if !ok {
			pkgerrors.RenderError(w, r, pkgerrors.Unauthorized("authentication required"))
			return
		}
		user, err := iamService.GetUserByID(r.Context(), caller.ID)
		if err != nil {
			pkgerrors.RenderError(w, r, err)
			return
		}
		render.JSON(w, r, iamapi.ToUserItem(user))
	}
}
