package identity

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/Tashu22-hub/BridgeOn/internal/auth"
	"github.com/Tashu22-hub/BridgeOn/internal/store"
	"github.com/Tashu22-hub/BridgeOn/pkg/session"
)

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError + 1})
	return slog.New(handler)
}

type fakeUsers struct {
	users map[string]*store.User
}

func (f *fakeUsers) FindByID(ctx context.Context, id string) (*store.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return user, nil
}

func TestResolveValidToken(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	users := &fakeUsers{users: map[string]*store.User{
		"u1": {ID: "u1", Username: "ada", Role: "member"},
	}}
	r := NewResolver(tokens, users, newTestLogger())

	token, _ := tokens.Sign("u1", "member")
	ident, err := r.Resolve(context.Background(), token)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if ident.UserID != "u1" || ident.Username != "ada" || ident.Role != session.RoleMember {
		t.Errorf("Unexpected identity: %+v", ident)
	}
}

func TestResolveFailures(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	users := &fakeUsers{users: map[string]*store.User{}}
	r := NewResolver(tokens, users, newTestLogger())

	if _, err := r.Resolve(context.Background(), "garbage"); err == nil {
		t.Error("Malformed token resolved")
	}

	// Valid signature but the subject no longer exists.
	token, _ := tokens.Sign("ghost", "member")
	if _, err := r.Resolve(context.Background(), token); err == nil {
		t.Error("Token for unknown user resolved")
	}
}
