package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	pkgerrors "github.com/tendant/eligibility-idm/pkg/errors"
	"github.com/tendant/eligibility-idm/pkg/login"
	tg "github.com/tendant/eligibility-idm/pkg/tokengenerator"
)

type Handle struct {
	loginService *login.LoginService
	cookies      *tg.CookieSetter
}

type Option func(*Handle)

// WithCookieSetter makes the handler also write the access token cookie.
func WithCookieSetter(cookies *tg.CookieSetter) Option {
	return func(h *Handle) {
		h.cookies = cookies
	}
}

func NewHandle(loginService *login.LoginService, opts ...Option) Handle {
	h := Handle{
		loginService: loginService,
	}
	for _, opt := range opts {
		opt(&h)
	}
	return h
}

func (h Handle) Routes(r chi.Router) {
	r.Post("/login", h.PostLogin)
	r.Post("/logout", h.PostLogout)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (req LoginRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Email, validation.Required, is.Email),
		validation.Field(&req.Password, validation.Required),
	)
}

type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Login a user
// (POST /login)
func (h Handle) PostLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		pkgerrors.RenderError(w, r, pkgerrors.InvalidInput("request body", err.Error()))
		return
	}
	if err := req.Validate(); err != nil {
		pkgerrors.RenderError(w, r, pkgerrors.Unauthorized("invalid credentials"))
		return
	}

	result, err := h.loginService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		pkgerrors.RenderError(w, r, err)
		return
	}

	if h.cookies != nil {
		h.cookies.SetCookie(w, result.AccessToken, result.ExpiresAt)
	}
	render.JSON(w, r, LoginResponse{
		AccessToken: result.AccessToken,
		TokenType:   "Bearer",
		ExpiresAt:   result.ExpiresAt,
	})
}

// Logout clears the access token cookie
// (POST /logout)
func (h Handle) PostLogout(w http.ResponseWriter, r *http.Request) {
	if h.cookies != nil {
		h.cookies.ClearCookie(w)
	}
	w.WriteHeader(http.StatusNoContent)
}
