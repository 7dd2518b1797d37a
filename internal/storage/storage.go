package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/hongminglow/expense-api/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// UserStore captures user persistence needed by the directory.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (models.User, error)
}

// ExpenseStore captures expense persistence. Every mutating call is scoped to an owner.
type ExpenseStore interface {
	CreateExpense(ctx context.Context, expense models.Expense) (models.Expense, error)
	FindExpenses(ctx context.Context, filter ExpenseFilter) ([]models.Expense, error)
	CountExpenses(ctx context.Context, filter ExpenseFilter) (int64, error)
	FindExpenseByID(ctx context.Context, id uuid.UUID) (models.Expense, error)
	FindOwnedExpense(ctx context.Context, id, ownerID uuid.UUID) (models.Expense, error)
	// UpdateExpense overwrites every mutable field of the expense matching
	// expense.ID and expense.UserID.
	UpdateExpense(ctx context.Context, expense models.Expense) (models.Expense, error)
	DeleteOwnedExpense(ctx context.Context, id, ownerID uuid.UUID) error
}

// Store is a complete backend.
type Store interface {
	UserStore
	ExpenseStore
	Close() error
}

// ExpenseFilter is an owner-scoped query. From and To are inclusive bounds on
// the expense date. Results are ordered by date descending.
type ExpenseFilter struct {
	UserID   uuid.UUID
	Category models.Category
	From     *time.Time
	To       *time.Time
	Offset   int
	Limit    int
}

// Matches reports whether e satisfies the filter predicates, ignoring pagination.
func (f ExpenseFilter) Matches(e models.Expense) bool {
	if e.UserID != f.UserID {
		return false
	}
	if f.Category != "" && e.Category != f.Category {
		return false
	}
	if f.From != nil && e.Date.Before(*f.From) {
		return false
	}
	if f.To != nil && e.Date.After(*f.To) {
		return false
	}
	return true
}
