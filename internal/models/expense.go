package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func init() {
	// Amounts render as JSON numbers rather than quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Expense is a single spending record owned by exactly one user.
type Expense struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"userId"`
	Title     string          `json:"title"`
	Amount    decimal.Decimal `json:"amount"`
	Category  Category        `json:"category"`
	Date      time.Time       `json:"date"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// OwnedBy reports whether the expense belongs to the given user.
func (e Expense) OwnedBy(userID uuid.UUID) bool {
	return e.UserID == userID
}
