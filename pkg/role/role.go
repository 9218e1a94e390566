package role

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Role identifies a capability class. All is only meaningful as a listing
// filter and is never stored.
type Role int

const (
	All        Role = 0
	Employee   Role = 1
	Security   Role = 2
	Confirming Role = 3
	Admin      Role = 4
)

var roleNames = map[Role]string{
	All:        "ALL",
	Employee:   "EMPLOYEE",
	Security:   "SECURITY",
	Confirming: "CONFIRMING",
	Admin:      "ADMIN",
}

// Stored lists the roles that can be held by a user, in id order.
var Stored = []Role{Employee, Security, Confirming, Admin}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "Role(" + strconv.Itoa(int(r)) + ")"
}

// Valid reports whether r can be assigned to a user.
func (r Role) Valid() bool {
	return r >= Employee && r <= Admin
}

// ParseRole accepts a role name (case-insensitive) or its numeric id.
func ParseRole(s string) (Role, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		r := Role(n)
		if _, ok := roleNames[r]; !ok {
			return 0, fmt.Errorf("unknown role id %d", n)
		}
		return r, nil
	}
	for r, name := range roleNames {
		if strings.EqualFold(name, s) {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown role %q", s)
}

func (r Role) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// UnmarshalJSON accepts either "EMPLOYEE" or 1.
func (r *Role) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		parsed, err := ParseRole(name)
		if err != nil {
			return err
		}
		*r = parsed
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("role must be a name or an id: %w", err)
	}
	parsed, err := ParseRole(strconv.Itoa(n))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// RoleRecord is a row of the roles table.
type RoleRecord struct {
	bun.BaseModel `bun:"table:roles,alias:r"`

	ID   Role   `bun:"id,pk" json:"id"`
	Name string `bun:"name,notnull" json:"name"`
}

// UserRole associates a user with one role. The pair is the primary key.
type UserRole struct {
	bun.BaseModel `bun:"table:user_roles,alias:ur"`

	UserID uuid.UUID `bun:"user_id,pk,type:uuid"`
	RoleID Role      `bun:"role_id,pk"`
}

// Dedupe drops repeated roles, keeping first occurrence order.
func Dedupe(roles []Role) []Role {
	seen := make(map[Role]struct{}, len(roles))
	out := make([]Role, 0, len(roles))
	for _, r := range roles {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
