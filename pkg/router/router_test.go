package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pkgconfig "github.com/tendant/eligibility-idm/pkg/config"
	"github.com/tendant/eligibility-idm/pkg/database/dbtest"
	iamapi "github.com/tendant/eligibility-idm/pkg/iam/api"
	"github.com/tendant/eligibility-idm/pkg/login"
	loginapi "github.com/tendant/eligibility-idm/pkg/login/api"
	"github.com/tendant/eligibility-idm/pkg/notification"
	"github.com/tendant/eligibility-idm/pkg/role"
	"github.com/tendant/eligibility-idm/pkg/signup"
	"golang.org/x/crypto/bcrypt"
)

type testServer struct {
	t        *testing.T
	handler  http.Handler
	notifier *notification.MockNotifier
}

func newTestServer(t *testing.T, configure ...func(*pkgconfig.Config)) *testServer {
	t.Helper()
	db := dbtest.NewSQLite(t)
	hasher := &login.BcryptV1Hasher{Cost: bcrypt.MinCost}
	notifier := &notification.MockNotifier{}

	appConfig := pkgconfig.Config{
		JWTConfig: pkgconfig.JWTConfig{
			Secret:            "test-secret-key-for-testing-only",
			Issuer:            "eligibility-idm",
			Audience:          "eligibility-idm",
			AccessTokenExpiry: 15 * time.Minute,
		},
		RegistrationConfig: pkgconfig.RegistrationConfig{
			TokenTTL:            72 * time.Hour,
			TokenMaxAttempts:    5,
			NotificationTimeout: time.Second,
		},
	}
	for _, fn := range configure {
		fn(&appConfig)
	}
	cfg, err := NewConfig(appConfig, db, WithNotifier(notifier), WithPasswordHasher(hasher))
	require.NoError(t, err)

	_, err = signup.NewSignupService(db, signup.WithPasswordHasher(hasher)).CreateRegisteredUser(context.Background(),
		signup.RegisterUserRequest{FullName: "Admin", Email: "admin@x.com", Roles: []role.Role{role.Admin}},
		"admin password")
	require.NoError(t, err)

	r := chi.NewRouter()
	SetupRoutes(r, cfg)
	return &testServer{t: t, handler: r, notifier: notifier}
}

func (s *testServer) do(method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

func (s *testServer) login(email, password string) string {
	s.t.Helper()
	rr := s.do(http.MethodPost, "/login", "", `{"email":"`+email+`","password":"`+password+`"}`)
	require.Equal(s.t, http.StatusOK, rr.Code, rr.Body.String())
	var resp loginapi.LoginResponse
	require.NoError(s.t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.AccessToken
}

func (s *testServer) lastInvitationPath() string {
	s.t.Helper()
	sent := s.notifier.Sent()
	require.NotEmpty(s.t, sent)
	body := sent[len(sent)-1].Body
	idx := strings.Index(body, "/register/")
	require.GreaterOrEqual(s.t, idx, 0, body)
	return body[idx:]
}

func TestRegistrationFlow(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin@x.com", "admin password")

	rr := s.do(http.MethodPost, "/users/create", admin, `{"full_name":"Jane Doe","email":"jane@x.com","roles":["EMPLOYEE"]}`)
	require.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), "A link has been sent to the user to complete the registration")

	sent := s.notifier.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "jane@x.com", sent[0].To)
	assert.Contains(t, sent[0].Body, "http://example.com/register/")

	rr = s.do(http.MethodPost, "/users/create", admin, `{"full_name":"Jane Doe","email":"jane@x.com","roles":["EMPLOYEE"]}`)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = s.do(http.MethodGet, "/users/get/?filter_for_users=EMPLOYEE", admin, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var page iamapi.ListUsersResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &page))
	require.Equal(t, 1, page.Total)
	jane := page.Items[0]
	assert.Equal(t, "jane@x.com", jane.Email)
	assert.Equal(t, []string{"EMPLOYEE"}, jane.RoleNames)
	assert.False(t, jane.Registered)

	rr = s.do(http.MethodGet, "/users/"+jane.ID.String(), admin, "")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = s.do(http.MethodPost, s.lastInvitationPath(), "", `{"password":"jane password"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	janeToken := s.login("jane@x.com", "jane password")

	rr = s.do(http.MethodGet, "/me", janeToken, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var me iamapi.UserItem
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &me))
	assert.Equal(t, jane.ID, me.ID)
	assert.True(t, me.Registered)

	rr = s.do(http.MethodPost, "/users/create", janeToken, `{"full_name":"John Doe","email":"john@x.com","roles":["SECURITY"]}`)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	// Granting ADMIN takes effect on Jane's existing token.
	rr = s.do(http.MethodPost, "/roles/assign", admin, `{"user_id":"`+jane.ID.String()+`","role":"ADMIN"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = s.do(http.MethodPost, "/users/create", janeToken, `{"full_name":"John Doe","email":"john@x.com","roles":["SECURITY"]}`)
	assert.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())

	rr = s.do(http.MethodPost, "/roles/remove", admin, `{"user_id":"`+jane.ID.String()+`","role":"ADMIN"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = s.do(http.MethodPost, "/users/create", janeToken, `{"full_name":"Jim Doe","email":"jim@x.com","roles":["SECURITY"]}`)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = s.do(http.MethodGet, "/users/get/", admin, "")
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &page))
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, "john@x.com", page.Items[0].Email)
}

func TestAuthentication(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name       string
		method     string
		path       string
		token      string
		wantStatus int
	}{
		{name: "health is public", method: http.MethodGet, path: "/health", wantStatus: http.StatusOK},
		{name: "list users needs a token", method: http.MethodGet, path: "/users/get/", wantStatus: http.StatusUnauthorized},
		{name: "roles need a token", method: http.MethodGet, path: "/roles", wantStatus: http.StatusUnauthorized},
		{name: "me needs a token", method: http.MethodGet, path: "/me", wantStatus: http.StatusUnauthorized},
		{name: "garbage token", method: http.MethodGet, path: "/users/get/", token: "garbage", wantStatus: http.StatusUnauthorized},
		{name: "valid token", method: http.MethodGet, path: "/roles", token: s.login("admin@x.com", "admin password"), wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := s.do(tt.method, tt.path, tt.token, "")
			assert.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())
		})
	}
}

func TestLoginCookieAuthenticates(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(http.MethodPost, "/login", "", `{"email":"admin@x.com","password":"admin password"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)

	req := httptest.NewRequest(http.MethodGet, "/roles", nil)
	req.AddCookie(cookies[0])
	rr = httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestPublicRoutesRateLimited(t *testing.T) {
	s := newTestServer(t, func(c *pkgconfig.Config) {
		c.RateLimitConfig = pkgconfig.RateLimitConfig{Enabled: true, Burst: 2, PerMinute: 1}
	})

	wrong := `{"email":"admin@x.com","password":"wrong password"}`
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodPost, "/login", "", wrong).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodPost, "/login", "", wrong).Code)

	rr := s.do(http.MethodPost, "/login", "", wrong)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))

	rr = s.do(http.MethodPost, "/register/some-token", "", `{"password":"jane password"}`)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code, "limit is shared by the credential routes")

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/health", "", "").Code)
}
