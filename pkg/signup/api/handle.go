package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/tendant/eligibility-idm/pkg/client"
	pkgerrors "github.com/tendant/eligibility-idm/pkg/errors"
	"github.com/tendant/eligibility-idm/pkg/signup"
)

type Handle struct {
	signupService *signup.SignupService
	baseURL       string
	trustProxy    bool
}

type Option func(*Handle)

// WithBaseURL fixes the origin of invitation links instead of deriving it
// from each request.
func WithBaseURL(baseURL string) Option {
	return func(h *Handle) {
		h.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithTrustedProxy derives the origin from X-Forwarded-Proto and
// X-Forwarded-Host. Without it those headers are ignored.
func WithTrustedProxy() Option {
	return func(h *Handle) {
		h.trustProxy = true
	}
}

func NewHandle(signupService *signup.SignupService, opts ...Option) Handle {
	h := Handle{
		signupService: signupService,
	}
	for _, opt := range opts {
		opt(&h)
	}
	return h
}

// Routes mounts the admin registration endpoint. It expects
// client.AuthUserMiddleware upstream.
func (h Handle) Routes(r chi.Router) {
	r.Post("/users/create", h.PostCreateUser)
}

// PublicRoutes mounts the endpoint invited users complete registration with.
func (h Handle) PublicRoutes(r chi.Router) {
	r.Post("/register/{token}", h.PostRegister)
}

type MessageResponse struct {
	Message string `json:"message"`
	UserID  string `json:"user_id,omitempty"`
}

// Register a user and send them an invitation
// (POST /users/create)
func (h Handle) PostCreateUser(w http.ResponseWriter, r *http.Request) {
	caller, ok := client.GetCaller(r.Context())
	if !ok {
		pkgerrors.RenderError(w, r, pkgerrors.Unauthorized("authentication required"))
		return
	}

	var req signup.RegisterUserRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		pkgerrors.RenderError(w, r, pkgerrors.InvalidInput("request body", err.Error()))
		return
	}

	result, err := h.signupService.RegisterUser(r.Context(), caller, req, h.origin(r))
	if err != nil {
		pkgerrors.RenderError(w, r, err)
		return
	}

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, MessageResponse{Message: result.Message, UserID: result.UserID.String()})
}

type CompleteRegistrationRequest struct {
	Password string `json:"password"`
}

// Complete registration by setting a password
// (POST /register/{token})
func (h Handle) PostRegister(w http.ResponseWriter, r *http.Request) {
	var req CompleteRegistrationRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		pkgerrors.RenderError(w, r, pkgerrors.InvalidInput("request body", err.Error()))
		return
	}

	result, err := h.signupService.CompleteRegistration(r.Context(), chi.URLParam(r, "token"), req.Password)
	if err != nil {
		pkgerrors.RenderError(w, r, err)
		return
	}

	render.JSON(w, r, MessageResponse{Message: result.Message, UserID: result.UserID.String()})
}

func (h Handle) origin(r *http.Request) string {
	if h.baseURL != "" {
		return h.baseURL
	}
	return RequestOrigin(r, h.trustProxy)
}

// RequestOrigin returns scheme://host of the request. Forwarded headers are
// read only when trustProxy is set, since any client can send them.
func RequestOrigin(r *http.Request, trustProxy bool) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	host := r.Host
	if !trustProxy {
		return scheme + "://" + host
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
	}
	if fwd := r.Header.Get("X-Forwarded-Host"); fwd != "" {
		host = strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	return scheme + "://" + host
}
