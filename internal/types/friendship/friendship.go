package friendship

import (
	"bytes"
	"time"

	"github.com/google/uuid"
)

// Edge is one symmetric friendship fact. It is stored once per unordered
// pair with UserA < UserB, so both lookup directions resolve to the same row.
type Edge struct {
	UserA     uuid.UUID `json:"userA" db:"user_a"`
	UserB     uuid.UUID `json:"userB" db:"user_b"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// CanonicalPair orders two identities by bytewise UUID comparison. Every
// place that needs one deterministic key for an unordered pair (edge rows,
// conversation channels) goes through this.
func CanonicalPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if bytes.Compare(a[:], b[:]) > 0 {
		return b, a
	}
	return a, b
}
