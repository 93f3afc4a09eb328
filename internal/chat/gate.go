package chat

import (
	"github.com/Tashu22-hub/BridgeOn/internal/auth"
	"github.com/Tashu22-hub/BridgeOn/internal/store"
	"github.com/Tashu22-hub/BridgeOn/pkg/session"
)

// DenyReason is the message surfaced to a client whose join was refused.
type DenyReason string

const (
	DenyRoomNotFound          DenyReason = "Room not found"
	DenyMembersOnly           DenyReason = "Members only room"
	DenyPasswordNotConfigured DenyReason = "Room password is not set"
	DenyInvalidPassword       DenyReason = "Invalid room password"
)

type DenyError struct {
	Reason DenyReason
}

func (e *DenyError) Error() string {
	return string(e.Reason)
}

// authorizeJoin decides whether a connection with the given effective role may
// enter the room. Rules, in order: public rooms admit anyone, guests are
// categorically barred from private rooms, admins bypass the password, and
// members must match the room's bcrypt password hash.
func authorizeJoin(role session.Role, room *store.Room, password string) error {
	if !room.IsPrivate {
		return nil
	}
	switch role {
	case session.RoleAdmin:
		return nil
	case session.RoleMember:
		if room.PasswordHash == "" {
			return &DenyError{Reason: DenyPasswordNotConfigured}
		}
		if !auth.VerifyPassword(password, room.PasswordHash) {
			return &DenyError{Reason: DenyInvalidPassword}
		}
		return nil
	default:
		return &DenyError{Reason: DenyMembersOnly}
	}
}
