package iam

import (
	"time"

	"github.com/google/uuid"
	"github.com/tendant/eligibility-idm/pkg/role"
	"github.com/uptrace/bun"
)

// User is a row of the users table. Password holds the bcrypt hash and stays
// nil until the user completes registration.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID        uuid.UUID        `bun:"id,pk,type:uuid"`
	FullName  string           `bun:"full_name,notnull"`
	Email     string           `bun:"email,notnull"`
	Password  *string          `bun:"password"`
	CreatedAt time.Time        `bun:"created_at,notnull"`
	Roles     []*role.UserRole `bun:"rel:has-many,join:id=user_id"`
}

// Registered reports whether the user has set a password.
func (u *User) Registered() bool {
	return u.Password != nil && *u.Password != ""
}

// RoleIDs returns the roles loaded with the user.
func (u *User) RoleIDs() []role.Role {
	roles := make([]role.Role, 0, len(u.Roles))
	for _, ur := range u.Roles {
		roles = append(roles, ur.RoleID)
	}
	return role.Dedupe(roles)
}

// Page is one page of a user listing. Total counts every matching user, not
// only the ones in Items.
type Page struct {
	Items  []*User
	Total  int
	Limit  int
	Offset int
}
