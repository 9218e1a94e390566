package client

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
	pkgerrors "github.com/tendant/eligibility-idm/pkg/errors"
)

// Caller is the authenticated identity behind a request. It carries no roles;
// authorization is always checked against the role store.
type Caller struct {
	ID    uuid.UUID `json:"user_id"`
	Email string    `json:"email,omitempty"`
}

func (c Caller) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("user_id", c.ID.String()),
		slog.String("email", c.Email),
	)
}

// contextKey is a value for use with context.WithValue. It's used as
// a pointer so it fits in an interface{} without allocation.
type contextKey struct {
	name string
}

func (k *contextKey) String() string {
	return "idm context value " + k.name
}

const ACCESS_TOKEN_NAME = "access_token"

var CallerKey = &contextKey{"Caller"}

// WithCaller returns a copy of ctx carrying caller.
func WithCaller(ctx context.Context, caller Caller) context.Context {
	return context.WithValue(ctx, CallerKey, caller)
}

// GetCaller returns the caller stored by AuthUserMiddleware.
func GetCaller(ctx context.Context) (Caller, bool) {
	caller, ok := ctx.Value(CallerKey).(Caller)
	return caller, ok
}

// AuthUserMiddleware turns verified jwtauth claims into a Caller. The user id
// is read from the user_id claim, falling back to sub.
func AuthUserMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil || claims == nil {
			slog.Debug("Missing or invalid JWT", "err", err)
			pkgerrors.RenderError(w, r, pkgerrors.Unauthorized("missing or invalid token"))
			return
		}

		caller, err := callerFromClaims(claims)
		if err != nil {
			slog.Warn("Rejecting token claims", "err", err)
			pkgerrors.RenderError(w, r, err)
			return
		}

		slog.Debug("authenticated caller", "caller", caller)
		next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
	})
}

func callerFromClaims(claims map[string]interface{}) (Caller, error) {
	userID, _ := claims["user_id"].(string)
	if userID == "" {
		userID, _ = claims["sub"].(string)
	}
	if userID == "" {
		return Caller{}, pkgerrors.Unauthorized("missing user id in token")
	}

	id, err := uuid.Parse(userID)
	if err != nil {
		return Caller{}, pkgerrors.Unauthorized("invalid user id in token")
	}

	email, _ := claims["email"].(string)
	return Caller{ID: id, Email: email}, nil
}

// Verifier looks for a token in the Authorization header, then in the
// access_token cookie.
func Verifier(ja *jwtauth.JWTAuth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return jwtauth.Verify(ja, jwtauth.TokenFromHeader, TokenFromCookie)(next)
	}
}

func TokenFromCookie(r *http.Request) string {
	cookie, err := r.Cookie(ACCESS_TOKEN_NAME)
	if err != nil {
		return ""
	}
	return cookie.Value
}
