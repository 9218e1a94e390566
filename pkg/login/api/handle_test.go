package api

import (
	"context"
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
	"github.com/tendant/eligibility-idm/pkg/database/dbtest"
	"github.com/tendant/eligibility-idm/pkg/iam"
	"github.com/tendant/eligibility-idm/pkg/login"
	tg "github.com/tendant/eligibility-idm/pkg/tokengenerator"
	"golang.org/x/crypto/bcrypt"
)

func setupRouter(t *testing.T) http.Handler {
	t.Helper()
	ctx := context.Background()
	db := dbtest.NewSQLite(t)
	users := iam.NewBunUserRepository()
	hasher := &login.BcryptV1Hasher{Cost: bcrypt.MinCost}

	hash, err := hasher.Hash("correct horse")
	require.NoError(t, err)
	require.NoError(t, users.Create(ctx, db, &iam.User{
		ID:        uuid.New(),
		FullName:  "Jane Doe",
		Email:     "jane@x.com",
		Password:  &hash,
		CreatedAt: time.Now().UTC(),
	}))

	svc := login.NewLoginService(db, users, tg.NewJwtTokenGenerator("secret", "idm", "idm"), login.WithPasswordHasher(hasher))
	r := chi.NewRouter()
	NewHandle(svc, WithCookieSetter(tg.NewCookieSetter("access_token", false))).Routes(r)
	return r
}

func TestPostLogin(t *testing.T) {
	router := setupRouter(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{name: "valid", body: `{"email":"jane@x.com","password":"correct horse"}`, wantStatus: http.StatusOK},
		{name: "wrong password", body: `{"email":"jane@x.com","password":"nope"}`, wantStatus: http.StatusUnauthorized},
		{name: "not an email", body: `{"email":"jane","password":"correct horse"}`, wantStatus: http.StatusUnauthorized},
		{name: "malformed body", body: `{"email":`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())
			if tt.wantStatus != http.StatusOK {
				assert.Empty(t, rr.Result().Cookies())
				return
			}

			var resp LoginResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.AccessToken)
			assert.Equal(t, "Bearer", resp.TokenType)
			assert.True(t, resp.ExpiresAt.After(time.Now()))

			cookies := rr.Result().Cookies()
			require.Len(t, cookies, 1)
			assert.Equal(t, resp.AccessToken, cookies[0].Value)
		})
	}
}

func TestPostLogout(t *testing.T) {
	router := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "access_token", cookies[0].Name)
	assert.True(t, cookies[0].MaxAge < 0)
}
