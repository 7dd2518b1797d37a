package memory

import (
	"testing"

	"github.com/hongminglow/expense-api/internal/storage"
	"github.com/hongminglow/expense-api/internal/storage/storetest"
)

func TestMemoryStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storage.Store {
		return New()
	})
}
