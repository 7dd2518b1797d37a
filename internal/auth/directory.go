package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hongminglow/expense-api/internal/models"
	"github.com/hongminglow/expense-api/internal/storage"
)

// Directory stores credentials and verifies passwords.
type Directory struct {
	store storage.UserStore
}

func NewDirectory(store storage.UserStore) *Directory {
	return &Directory{store: store}
}

// NormalizeEmail trims and lower-cases an address before storage or lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// FindByEmail returns storage.ErrNotFound when no user has the address.
func (d *Directory) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return d.store.FindByEmail(ctx, NormalizeEmail(email))
}

func (d *Directory) FindByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	return d.store.FindByID(ctx, id)
}

// Create hashes password and stores the user. Only the hash is persisted.
func (d *Directory) Create(ctx context.Context, name, email, password string) (models.User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}
	return d.store.CreateUser(ctx, models.User{
		Name:         strings.TrimSpace(name),
		Email:        NormalizeEmail(email),
		PasswordHash: hash,
	})
}

func (d *Directory) VerifyPassword(user models.User, candidate string) bool {
	return CheckPassword(candidate, user.PasswordHash)
}
