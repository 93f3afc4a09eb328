package chat

import (
	"errors"
	"testing"

	"github.com/Tashu22-hub/BridgeOn/internal/auth"
	"github.com/Tashu22-hub/BridgeOn/internal/store"
	"github.com/Tashu22-hub/BridgeOn/pkg/session"
)

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	return hash
}

func denyReason(t *testing.T, err error) DenyReason {
	t.Helper()
	var deny *DenyError
	if !errors.As(err, &deny) {
		t.Fatalf("Expected DenyError, got %v", err)
	}
	return deny.Reason
}

func TestPublicRoomAdmitsAnyone(t *testing.T) {
	room := &store.Room{ID: "lobby", Name: "Lobby"}
	for _, role := range []session.Role{session.RoleGuest, session.RoleMember, session.RoleAdmin} {
		if err := authorizeJoin(role, room, ""); err != nil {
			t.Errorf("Role %s denied from public room: %v", role, err)
		}
	}
}

func TestGuestsBarredFromPrivateRooms(t *testing.T) {
	room := &store.Room{ID: "staff", Name: "Staff", IsPrivate: true, PasswordHash: mustHash(t, "secret")}

	// Even with the correct password, guests never get in.
	err := authorizeJoin(session.RoleGuest, room, "secret")
	if got := denyReason(t, err); got != DenyMembersOnly {
		t.Errorf("Expected %q, got %q", DenyMembersOnly, got)
	}
}

func TestAdminBypassesPassword(t *testing.T) {
	room := &store.Room{ID: "staff", Name: "Staff", IsPrivate: true, PasswordHash: mustHash(t, "secret")}
	if err := authorizeJoin(session.RoleAdmin, room, ""); err != nil {
		t.Errorf("Admin denied from private room: %v", err)
	}
}

func TestMemberPasswordRules(t *testing.T) {
	room := &store.Room{ID: "staff", Name: "Staff", IsPrivate: true, PasswordHash: mustHash(t, "secret")}

	if err := authorizeJoin(session.RoleMember, room, "secret"); err != nil {
		t.Errorf("Member with correct password denied: %v", err)
	}

	err := authorizeJoin(session.RoleMember, room, "wrong")
	if got := denyReason(t, err); got != DenyInvalidPassword {
		t.Errorf("Expected %q, got %q", DenyInvalidPassword, got)
	}

	unset := &store.Room{ID: "vault", Name: "Vault", IsPrivate: true}
	err = authorizeJoin(session.RoleMember, unset, "anything")
	if got := denyReason(t, err); got != DenyPasswordNotConfigured {
		t.Errorf("Expected %q, got %q", DenyPasswordNotConfigured, got)
	}
}
