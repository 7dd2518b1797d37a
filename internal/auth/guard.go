package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/hongminglow/expense-api/internal/apperr"
	"github.com/hongminglow/expense-api/internal/models"
	"github.com/hongminglow/expense-api/internal/storage"
)

const (
	msgNoToken      = "Not authorized, no token"
	msgInvalidToken = "Invalid authentication token."
)

// Context key type to avoid collisions.
type contextKey string

const identityContextKey contextKey = "identity"

// WithIdentity attaches a resolved caller to ctx.
func WithIdentity(ctx context.Context, identity models.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// IdentityFromContext retrieves the caller attached by WithIdentity.
func IdentityFromContext(ctx context.Context) (models.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(models.Identity)
	return identity, ok && !identity.IsZero()
}

// Guard resolves the caller of a request from its bearer token.
type Guard struct {
	tokens *TokenManager
	users  *Directory
}

func NewGuard(tokens *TokenManager, users *Directory) *Guard {
	return &Guard{tokens: tokens, users: users}
}

// Resolve returns the caller identity or an Unauthenticated error. A token whose
// subject no longer resolves to a user is rejected.
func (g *Guard) Resolve(r *http.Request) (models.Identity, error) {
	token, ok := BearerToken(r.Header.Get("Authorization"))
	if !ok {
		return models.Identity{}, apperr.Unauthenticated(msgNoToken)
	}
	userID, err := g.tokens.Verify(token)
	if err != nil {
		return models.Identity{}, apperr.Unauthenticated(msgInvalidToken)
	}
	user, err := g.users.FindByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Identity{}, apperr.Unauthenticated(msgInvalidToken)
		}
		return models.Identity{}, apperr.Internal(err)
	}
	return user.Identity(), nil
}

// BearerToken extracts the credential from an "Authorization: Bearer <token>" value.
func BearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
