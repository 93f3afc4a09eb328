package session

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleGuest  Role = "guest"
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

// Identity is the resolved user principal attached to a connection after a
// successful authenticate. Immutable once stored; a re-authenticate replaces
// it wholesale.
type Identity struct {
	UserID   string
	Username string
	Role     Role
}

// DisplayName is the name shown in rosters and relayed messages.
func (id *Identity) DisplayName() string {
	if id == nil || id.Username == "" {
		return "Anonymous"
	}
	return id.Username
}

// EffectiveRole is the role used for authorization decisions. A nil identity
// (unauthenticated) acts as a guest.
func (id *Identity) EffectiveRole() Role {
	if id == nil {
		return RoleGuest
	}
	return id.Role
}

// Transport is the send side of a live client connection. The concrete
// implementation lives in pkg/transport; tests substitute a recorder.
type Transport interface {
	Send(message []byte)
	Close(err error)
}

// representation of a single live client session.
type Connection struct {
	ID        uuid.UUID
	IPAddress string
	Transport Transport
	Identity  *Identity // nil until authenticated
	Room      string    // "" when not in a room; mutated only by the Manager
	CreatedAt time.Time
}

// EffectiveRole is the role used for authorization decisions.
// Unauthenticated connections act as guests.
func (c *Connection) EffectiveRole() Role {
	return c.Identity.EffectiveRole()
}
