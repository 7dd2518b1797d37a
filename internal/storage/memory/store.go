// Package memory is an in-process backend used for local development and tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hongminglow/expense-api/internal/models"
	"github.com/hongminglow/expense-api/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store keeps users and expenses in maps guarded by a single lock.
type Store struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]models.User
	emails   map[string]uuid.UUID
	expenses map[uuid.UUID]models.Expense
	now      func() time.Time
}

func New() *Store {
	return &Store{
		users:    make(map[uuid.UUID]models.User),
		emails:   make(map[string]uuid.UUID),
		expenses: make(map[uuid.UUID]models.Expense),
		now:      time.Now,
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) CreateUser(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(user.Email)
	if _, taken := s.emails[key]; taken {
		return models.User{}, storage.ErrAlreadyExists
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := s.now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	s.users[user.ID] = user
	s.emails[key] = user.ID
	return user, nil
}

func (s *Store) FindByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emails[strings.ToLower(email)]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return s.users[id], nil
}

func (s *Store) FindByID(_ context.Context, id uuid.UUID) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return user, nil
}

func (s *Store) CreateExpense(_ context.Context, expense models.Expense) (models.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[expense.UserID]; !ok {
		return models.Expense{}, storage.ErrNotFound
	}
	if expense.ID == uuid.Nil {
		expense.ID = uuid.New()
	}
	now := s.now().UTC()
	if expense.Date.IsZero() {
		expense.Date = now
	}
	expense.CreatedAt, expense.UpdatedAt = now, now
	s.expenses[expense.ID] = expense
	return expense, nil
}

func (s *Store) FindExpenses(_ context.Context, filter storage.ExpenseFilter) ([]models.Expense, error) {
	s.mu.RLock()
	matched := s.matching(filter)
	s.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID.String() > b.ID.String()
	})

	offset := max(filter.Offset, 0)
	if offset >= len(matched) {
		return []models.Expense{}, nil
	}
	matched = matched[offset:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func (s *Store) CountExpenses(_ context.Context, filter storage.ExpenseFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.matching(filter))), nil
}

// matching must be called with the lock held.
func (s *Store) matching(filter storage.ExpenseFilter) []models.Expense {
	out := make([]models.Expense, 0)
	for _, e := range s.expenses {
		if filter.Matches(e) {
			out = append(out, e)
		}
	}
	return out
}

func (s *Store) FindExpenseByID(_ context.Context, id uuid.UUID) (models.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	expense, ok := s.expenses[id]
	if !ok {
		return models.Expense{}, storage.ErrNotFound
	}
	return expense, nil
}

func (s *Store) FindOwnedExpense(_ context.Context, id, ownerID uuid.UUID) (models.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	expense, ok := s.expenses[id]
	if !ok || !expense.OwnedBy(ownerID) {
		return models.Expense{}, storage.ErrNotFound
	}
	return expense, nil
}

func (s *Store) UpdateExpense(_ context.Context, expense models.Expense) (models.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.expenses[expense.ID]
	if !ok || !current.OwnedBy(expense.UserID) {
		return models.Expense{}, storage.ErrNotFound
	}
	current.Title = expense.Title
	current.Amount = expense.Amount
	current.Category = expense.Category
	current.Date = expense.Date
	current.UpdatedAt = s.now().UTC()
	s.expenses[current.ID] = current
	return current, nil
}

func (s *Store) DeleteOwnedExpense(_ context.Context, id, ownerID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	expense, ok := s.expenses[id]
	if !ok || !expense.OwnedBy(ownerID) {
		return storage.ErrNotFound
	}
	delete(s.expenses, id)
	return nil
}
