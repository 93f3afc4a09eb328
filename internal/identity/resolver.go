package identity

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Tashu22-hub/BridgeOn/internal/auth"
	"github.com/Tashu22-hub/BridgeOn/internal/store"
	"github.com/Tashu22-hub/BridgeOn/pkg/session"
)

// UserFinder is the slice of the user store the resolver needs.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*store.User, error)
}

// Resolver turns a credential token into a verified identity. Any failure
// (bad token, unknown user, store unavailable) is returned as an error; the
// caller degrades the connection to guest rather than surfacing it.
type Resolver struct {
	tokens *auth.TokenManager
	users  UserFinder
	logger *slog.Logger
}

func NewResolver(tokens *auth.TokenManager, users UserFinder, logger *slog.Logger) *Resolver {
	return &Resolver{
		tokens: tokens,
		users:  users,
		logger: logger.With(slog.String("component", "identity_resolver")),
	}
}

func (r *Resolver) Resolve(ctx context.Context, token string) (session.Identity, error) {
	claims, err := r.tokens.Verify(token)
	if err != nil {
		return session.Identity{}, err
	}

	user, err := r.users.FindByID(ctx, claims.Subject)
	if err != nil {
		return session.Identity{}, fmt.Errorf("resolving token subject: %w", err)
	}

	return session.Identity{
		UserID:   user.ID,
		Username: user.Username,
		Role:     session.Role(user.Role),
	}, nil
}
