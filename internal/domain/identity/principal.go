package identity

import "github.com/google/uuid"

// Principal is an already-authenticated caller.
type Principal struct {
	UserID      uuid.UUID
	Username    string
	IsSuperuser bool
}

// IsZero reports whether the principal is unset
func (p Principal) IsZero() bool {
	return p.UserID == uuid.Nil
}
