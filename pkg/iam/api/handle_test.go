package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/eligibility-idm/pkg/database/dbtest"
	pkgerrors "github.com/tendant/eligibility-idm/pkg/errors"
	"github.com/tendant/eligibility-idm/pkg/iam"
	"github.com/tendant/eligibility-idm/pkg/role"
)

func setupRouter(t *testing.T) (http.Handler, []uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	db := dbtest.NewSQLite(t)
	users := iam.NewBunUserRepository()
	roles := role.NewBunRoleRepository()

	hash := "$2a$10$hash"
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		u := &iam.User{
			ID:        uuid.New(),
			FullName:  fmt.Sprintf("User %d", i),
			Email:     fmt.Sprintf("user%d@x.com", i),
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		if i == 0 {
			u.Password = &hash
		}
		require.NoError(t, users.Create(ctx, db, u))
		held := []role.Role{role.Employee}
		if i == 2 {
			held = []role.Role{role.Confirming, role.Admin}
		}
		require.NoError(t, roles.AssignRoles(ctx, db, u.ID, held))
		ids = append(ids, u.ID)
	}

	r := chi.NewRouter()
	NewHandle(iam.NewIamService(db, users)).Routes(r)
	return r, ids
}

func TestListUsers(t *testing.T) {
	router, ids := setupRouter(t)

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantTotal  int
		wantIDs    []uuid.UUID
		wantCode   pkgerrors.ErrorCode
	}{
		{
			name:       "all users newest first",
			query:      "",
			wantStatus: http.StatusOK,
			wantTotal:  3,
			wantIDs:    []uuid.UUID{ids[2], ids[1], ids[0]},
		},
		{
			name:       "filter by role name with paging",
			query:      "?filter_for_users=EMPLOYEE&limit=1&offset=1",
			wantStatus: http.StatusOK,
			wantTotal:  2,
			wantIDs:    []uuid.UUID{ids[0]},
		},
		{
			name:       "filter by role id",
			query:      "?filter_for_users=4",
			wantStatus: http.StatusOK,
			wantTotal:  1,
			wantIDs:    []uuid.UUID{ids[2]},
		},
		{
			name:       "explicit ALL",
			query:      "?filter_for_users=ALL&limit=2",
			wantStatus: http.StatusOK,
			wantTotal:  3,
			wantIDs:    []uuid.UUID{ids[2], ids[1]},
		},
		{
			name:       "unknown role",
			query:      "?filter_for_users=JANITOR",
			wantStatus: http.StatusBadRequest,
			wantCode:   pkgerrors.ErrCodeInvalidInput,
		},
		{
			name:       "bad limit",
			query:      "?limit=ten",
			wantStatus: http.StatusBadRequest,
			wantCode:   pkgerrors.ErrCodeInvalidInput,
		},
		{
			name:       "zero limit",
			query:      "?limit=0",
			wantStatus: http.StatusBadRequest,
			wantCode:   pkgerrors.ErrCodeInvalidInput,
		},
		{
			name:       "negative offset",
			query:      "?offset=-3",
			wantStatus: http.StatusBadRequest,
			wantCode:   pkgerrors.ErrCodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/users/get/"+tt.query, nil)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())
			if tt.wantCode != "" {
				var body pkgerrors.ErrorResponse
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
				assert.Equal(t, tt.wantCode, body.Code)
				return
			}

			var resp ListUsersResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantTotal, resp.Total)
			got := make([]uuid.UUID, 0, len(resp.Items))
			for _, item := range resp.Items {
				got = append(got, item.ID)
			}
			assert.Equal(t, tt.wantIDs, got)
		})
	}
}

func TestListUsersItemShape(t *testing.T) {
	router, ids := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/users/get", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	assert.NotContains(t, rr.Body.String(), "password")
	assert.NotContains(t, rr.Body.String(), "$2a$")

	var resp ListUsersResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 3)

	newest := resp.Items[0]
	assert.Equal(t, ids[2], newest.ID)
	assert.Equal(t, "User 2", newest.FullName)
	assert.Equal(t, "user2@x.com", newest.Email)
	assert.Equal(t, []string{"CONFIRMING", "ADMIN"}, newest.RoleNames)
	assert.False(t, newest.Registered)
	assert.True(t, resp.Items[2].Registered)
	assert.Equal(t, iam.DefaultPageLimit, resp.Limit, "absent limit selects the default")
}

func TestGetUser(t *testing.T) {
	router, ids := setupRouter(t)

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{name: "existing user", path: "/users/" + ids[1].String(), wantStatus: http.StatusOK},
		{name: "unknown user", path: "/users/" + uuid.NewString(), wantStatus: http.StatusNotFound},
		{name: "malformed id", path: "/users/not-a-uuid", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())
			if tt.wantStatus != http.StatusOK {
				return
			}
			var item UserItem
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &item))
			assert.Equal(t, ids[1], item.ID)
			assert.Equal(t, []string{"EMPLOYEE"}, item.RoleNames)
		})
	}
}
