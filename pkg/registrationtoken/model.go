// Package registrationtoken issues the single-use tokens embedded in
// registration invitations.
package registrationtoken

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Status is the lifecycle state of a token. PENDING moves to USED on
// completion or to EXPIRED when completion is attempted after the TTL. USED
// and EXPIRED are terminal.
type Status int

const (
	StatusPending Status = 0
	StatusUsed    Status = 1
	StatusExpired Status = 2
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "PENDING"
	case StatusUsed:
		return "USED"
	case StatusExpired:
		return "EXPIRED"
	default:
		return "Status(" + strconv.Itoa(int(s)) + ")"
	}
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

type RegistrationToken struct {
	bun.BaseModel `bun:"table:tokens,alias:t"`

	ID        uuid.UUID `bun:"id,pk,type:uuid"`
	UserID    uuid.UUID `bun:"user_id,notnull,type:uuid"`
	Token     string    `bun:"token,notnull"`
	CreatedBy uuid.UUID `bun:"created_by,type:uuid,nullzero"`
	Status    Status    `bun:"status,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

// ExpiredAt reports whether the token is older than ttl at now.
func (t *RegistrationToken) ExpiredAt(now time.Time, ttl time.Duration) bool {
	return now.Sub(t.CreatedAt) > ttl
}
