package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/expense-api/internal/config"
	"github.com/hongminglow/expense-api/internal/models"
	"github.com/hongminglow/expense-api/internal/storage/memory"
	"github.com/hongminglow/expense-api/internal/storage/sqlite"
)

func TestOpenMemory(t *testing.T) {
	store, err := Open(context.Background(), config.StoreConfig{Backend: config.BackendMemory}, zerolog.Nop())
	require.NoError(t, err)
	defer store.Close()
	assert.IsType(t, &memory.Store{}, store)
}

func TestOpenSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "expenses.db")

	store, err := Open(ctx, config.StoreConfig{Backend: config.BackendSQLite, SQLiteDBPath: path}, zerolog.Nop())
	require.NoError(t, err)
	defer store.Close()
	assert.IsType(t, &sqlite.Store{}, store)

	_, err = store.CreateUser(ctx, models.User{Name: "Backend", Email: "backend@example.com", PasswordHash: "x"})
	assert.NoError(t, err)
}

func TestOpenUnknown(t *testing.T) {
	_, err := Open(context.Background(), config.StoreConfig{Backend: "sheets"}, zerolog.Nop())
	assert.ErrorContains(t, err, "unsupported backend")
}
