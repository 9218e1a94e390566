package api

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/eligibility-idm/pkg/client"
	"github.com/tendant/eligibility-idm/pkg/database/dbtest"
	pkgerrors "github.com/tendant/eligibility-idm/pkg/errors"
	"github.com/tendant/eligibility-idm/pkg/iam"
	"github.com/tendant/eligibility-idm/pkg/login"
	"github.com/tendant/eligibility-idm/pkg/notification"
	"github.com/tendant/eligibility-idm/pkg/role"
	"github.com/tendant/eligibility-idm/pkg/signup"
	"golang.org/x/crypto/bcrypt"
)

func setupRouter(t *testing.T, opts ...Option) (http.Handler, uuid.UUID, *notification.MockNotifier) {
	t.Helper()
	ctx := context.Background()
	db := dbtest.NewSQLite(t)

	adminID := uuid.New()
	require.NoError(t, iam.NewBunUserRepository().Create(ctx, db, &iam.User{
		ID: adminID, FullName: "Admin", Email: "admin@x.com", CreatedAt: time.Now().UTC(),
	}))
	require.NoError(t, role.NewBunRoleRepository().AssignRole(ctx, db, adminID, role.Admin))

	mock := &notification.MockNotifier{}
	nm, err := notification.NewNotificationManager(mock, notification.WithDefaultTemplates())
	require.NoError(t, err)
	svc := signup.NewSignupService(db,
		signup.WithNotificationManager(nm),
		signup.WithPasswordHasher(&login.BcryptV1Hasher{Cost: bcrypt.MinCost}))

	h := NewHandle(svc, opts...)
	r := chi.NewRouter()
	h.PublicRoutes(r)
	r.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				if id, err := uuid.Parse(req.Header.Get("X-Test-Caller")); err == nil {
					req = req.WithContext(client.WithCaller(req.Context(), client.Caller{ID: id}))
				}
				next.ServeHTTP(w, req)
			})
		})
		h.Routes(r)
	})
	return r, adminID, mock
}

func postJSON(router http.Handler, path, body string, caller uuid.UUID) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if caller != uuid.Nil {
		req.Header.Set("X-Test-Caller", caller.String())
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestCreateUser(t *testing.T) {
	router, adminID, _ := setupRouter(t)

	tests := []struct {
		name       string
		body       string
		caller     uuid.UUID
		wantStatus int
		wantCode   pkgerrors.ErrorCode
	}{
		{
			name:       "admin registers user",
			body:       `{"full_name":"Jane Doe","email":"jane@x.com","roles":["EMPLOYEE"]}`,
			caller:     adminID,
			wantStatus: http.StatusAccepted,
		},
		{
			name:       "duplicate email",
			body:       `{"full_name":"Jane Doe","email":"jane@x.com","roles":[1]}`,
			caller:     adminID,
			wantStatus: http.StatusConflict,
			wantCode:   pkgerrors.ErrCodeConflict,
		},
		{
			name:       "non admin caller",
			body:       `{"full_name":"John Doe","email":"john@x.com","roles":["EMPLOYEE"]}`,
			caller:     uuid.New(),
			wantStatus: http.StatusForbidden,
			wantCode:   pkgerrors.ErrCodeForbidden,
		},
		{
			name:       "no caller",
			body:       `{"full_name":"John Doe","email":"john@x.com","roles":["EMPLOYEE"]}`,
			wantStatus: http.StatusUnauthorized,
			wantCode:   pkgerrors.ErrCodeUnauthorized,
		},
		{
			name:       "invalid request",
			body:       `{"full_name":"","email":"john","roles":[]}`,
			caller:     adminID,
			wantStatus: http.StatusBadRequest,
			wantCode:   pkgerrors.ErrCodeValidationFailed,
		},
		{
			name:       "unknown role name",
			body:       `{"full_name":"John Doe","email":"john@x.com","roles":["JANITOR"]}`,
			caller:     adminID,
			wantStatus: http.StatusBadRequest,
			wantCode:   pkgerrors.ErrCodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := postJSON(router, "/users/create", tt.body, tt.caller)
			require.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())

			if tt.wantCode == "" {
				var resp MessageResponse
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
				assert.Equal(t, signup.RegisterUserMessage, resp.Message)
				return
			}
			var body pkgerrors.ErrorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Code)
		})
	}
}

func TestInvitationAndCompletion(t *testing.T) {
	router, adminID, mock := setupRouter(t)

	rr := postJSON(router, "/users/create", `{"full_name":"Jane Doe","email":"jane@x.com","roles":["EMPLOYEE"]}`, adminID)
	require.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())

	sent := mock.Sent()
	require.Len(t, sent, 1)
	idx := strings.Index(sent[0].Body, "http://example.com/register/")
	require.GreaterOrEqual(t, idx, 0, sent[0].Body)
	path := strings.TrimPrefix(sent[0].Body[idx:], "http://example.com")

	rr = postJSON(router, path, `{"password":"short"}`, uuid.Nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = postJSON(router, path, `{"password":"long enough password"}`, uuid.Nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = postJSON(router, path, `{"password":"long enough password"}`, uuid.Nil)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = postJSON(router, "/register/unknown", `{"password":"long enough password"}`, uuid.Nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestBaseURLOverridesRequestOrigin(t *testing.T) {
	router, adminID, mock := setupRouter(t, WithBaseURL("https://idm.example.org/"))

	rr := postJSON(router, "/users/create", `{"full_name":"Jane Doe","email":"jane@x.com","roles":["EMPLOYEE"]}`, adminID)
	require.Equal(t, http.StatusAccepted, rr.Code)

	sent := mock.Sent()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Body, "https://idm.example.org/register/")
}

func TestRequestOrigin(t *testing.T) {
	forwarded := func(r *http.Request) {
		r.Header.Set("X-Forwarded-Proto", "https, http")
		r.Header.Set("X-Forwarded-Host", "attacker.example.net")
	}

	tests := []struct {
		name       string
		prepare    func(r *http.Request)
		trustProxy bool
		want       string
	}{
		{name: "plain http", prepare: func(r *http.Request) {}, want: "http://idm.local:4000"},
		{name: "tls", prepare: func(r *http.Request) { r.TLS = &tls.ConnectionState{} }, want: "https://idm.local:4000"},
		{name: "forwarded headers ignored", prepare: forwarded, want: "http://idm.local:4000"},
		{name: "trusted proxy", prepare: forwarded, trustProxy: true, want: "https://attacker.example.net"},
		{name: "trusted proxy without headers", prepare: func(r *http.Request) {}, trustProxy: true, want: "http://idm.local:4000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "http://idm.local:4000/users/create", nil)
			tt.prepare(req)
			assert.Equal(t, tt.want, RequestOrigin(req, tt.trustProxy))
		})
	}
}

func TestForwardedHostIgnoredInInvitation(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		want string
	}{
		{name: "untrusted", want: "http://example.com/register/"},
		{name: "trusted proxy", opts: []Option{WithTrustedProxy()}, want: "https://idm.example.com/register/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, adminID, mock := setupRouter(t, tt.opts...)

			req := httptest.NewRequest(http.MethodPost, "/users/create",
				strings.NewReader(`{"full_name":"Jane Doe","email":"jane@x.com","roles":["EMPLOYEE"]}`))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("X-Forwarded-Proto", "https")
			req.Header.Set("X-Forwarded-Host", "idm.example.com")
			req.Header.Set("X-Test-Caller", adminID.String())
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)
			require.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())

			sent := mock.Sent()
			require.Len(t, sent, 1)
			assert.Contains(t, sent[0].Body, tt.want)
		})
	}
}
