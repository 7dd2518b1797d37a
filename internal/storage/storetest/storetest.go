// Package storetest holds the behavioural suite every storage backend must pass.
package storetest

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/hongminglow/expense-api/internal/models"
	"github.com/hongminglow/expense-api/internal/storage"
)

// Suite exercises a storage.Store produced by Open for every test.
type Suite struct {
	suite.Suite
	Open  func(t *testing.T) storage.Store
	store storage.Store
	ctx   context.Context
	owner models.User
	other models.User
}

// Run executes the suite against the backend returned by open.
func Run(t *testing.T, open func(t *testing.T) storage.Store) {
	suite.Run(t, &Suite{Open: open})
}

func (s *Suite) SetupTest() {
	s.ctx = context.Background()
	s.store = s.Open(s.T())
	s.owner = s.mustCreateUser("owner@example.com")
	s.other = s.mustCreateUser("other@example.com")
}

func (s *Suite) TearDownTest() {
	if s.store != nil {
		s.Require().NoError(s.store.Close())
	}
}

func (s *Suite) mustCreateUser(email string) models.User {
	user, err := s.store.CreateUser(s.ctx, models.User{
		Name:         "Test " + email,
		Email:        email,
		PasswordHash: "$2a$10$hash",
	})
	s.Require().NoError(err, "create user %s", email)
	return user
}

func (s *Suite) mustCreateExpense(owner uuid.UUID, title string, category models.Category, date time.Time) models.Expense {
	expense, err := s.store.CreateExpense(s.ctx, models.Expense{
		UserID:   owner,
		Title:    title,
		Amount:   decimal.RequireFromString("12.34"),
		Category: category,
		Date:     date,
	})
	s.Require().NoError(err, "create expense %s", title)
	return expense
}

func (s *Suite) TestCreateUserAssignsIDAndTimestamps() {
	s.NotEqual(uuid.Nil, s.owner.ID)
	s.False(s.owner.CreatedAt.IsZero())

	found, err := s.store.FindByEmail(s.ctx, "owner@example.com")
	s.Require().NoError(err)
	s.Equal(s.owner.ID, found.ID)
	s.Equal("$2a$10$hash", found.PasswordHash)

	byID, err := s.store.FindByID(s.ctx, s.owner.ID)
	s.Require().NoError(err)
	s.Equal(s.owner.Email, byID.Email)
}

func (s *Suite) TestCreateUserDuplicateEmail() {
	_, err := s.store.CreateUser(s.ctx, models.User{Name: "Dup", Email: "owner@example.com", PasswordHash: "x"})
	s.ErrorIs(err, storage.ErrAlreadyExists)
}

func (s *Suite) TestFindUserMissing() {
	_, err := s.store.FindByEmail(s.ctx, "nobody@example.com")
	s.ErrorIs(err, storage.ErrNotFound)

	_, err = s.store.FindByID(s.ctx, uuid.New())
	s.ErrorIs(err, storage.ErrNotFound)
}

func (s *Suite) TestCreateExpenseRoundTrip() {
	date := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)
	created := s.mustCreateExpense(s.owner.ID, "Milk", models.CategoryGroceries, date)

	s.NotEqual(uuid.Nil, created.ID)
	s.False(created.CreatedAt.IsZero())

	found, err := s.store.FindExpenseByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal("Milk", found.Title)
	s.Equal(s.owner.ID, found.UserID)
	s.True(found.Amount.Equal(decimal.RequireFromString("12.34")))
	s.Equal(models.CategoryGroceries, found.Category)
	s.True(found.Date.Equal(date), "date %s != %s", found.Date, date)
}

func (s *Suite) TestCreateExpenseDefaultsDate() {
	before := time.Now().Add(-time.Second)
	created := s.mustCreateExpense(s.owner.ID, "Undated", models.CategoryOthers, time.Time{})
	s.True(created.Date.After(before))
}

func (s *Suite) TestFindExpensesOwnerScopedAndOrdered() {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.mustCreateExpense(s.owner.ID, "Old", models.CategoryGroceries, base)
	s.mustCreateExpense(s.owner.ID, "New", models.CategoryHealth, base.Add(48*time.Hour))
	s.mustCreateExpense(s.owner.ID, "Mid", models.CategoryGroceries, base.Add(24*time.Hour))
	s.mustCreateExpense(s.other.ID, "Foreign", models.CategoryGroceries, base.Add(72*time.Hour))

	got, err := s.store.FindExpenses(s.ctx, storage.ExpenseFilter{UserID: s.owner.ID, Limit: 10})
	s.Require().NoError(err)
	s.Require().Len(got, 3)
	s.Equal([]string{"New", "Mid", "Old"}, titles(got))

	total, err := s.store.CountExpenses(s.ctx, storage.ExpenseFilter{UserID: s.owner.ID})
	s.Require().NoError(err)
	s.EqualValues(3, total)
}

func (s *Suite) TestFindExpensesCategoryAndRange() {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.mustCreateExpense(s.owner.ID, "Jan 1", models.CategoryGroceries, base)
	s.mustCreateExpense(s.owner.ID, "Jan 2", models.CategoryGroceries, base.Add(24*time.Hour))
	s.mustCreateExpense(s.owner.ID, "Jan 3", models.CategoryGroceries, base.Add(48*time.Hour))
	s.mustCreateExpense(s.owner.ID, "Jan 2 health", models.CategoryHealth, base.Add(24*time.Hour))

	from := base.Add(24 * time.Hour)
	to := base.Add(48 * time.Hour)
	filter := storage.ExpenseFilter{
		UserID:   s.owner.ID,
		Category: models.CategoryGroceries,
		From:     &from,
		To:       &to,
		Limit:    10,
	}
	got, err := s.store.FindExpenses(s.ctx, filter)
	s.Require().NoError(err)
	s.Equal([]string{"Jan 3", "Jan 2"}, titles(got), "bounds are inclusive")

	total, err := s.store.CountExpenses(s.ctx, filter)
	s.Require().NoError(err)
	s.EqualValues(2, total)

	filter.To = nil
	filter.From = &to
	got, err = s.store.FindExpenses(s.ctx, filter)
	s.Require().NoError(err)
	s.Equal([]string{"Jan 3"}, titles(got))
}

func (s *Suite) TestFindExpensesPagination() {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		s.mustCreateExpense(s.owner.ID, base.Add(time.Duration(i)*time.Hour).Format("15:04"), models.CategoryOthers, base.Add(time.Duration(i)*time.Hour))
	}

	page, err := s.store.FindExpenses(s.ctx, storage.ExpenseFilter{UserID: s.owner.ID, Offset: 2, Limit: 2})
	s.Require().NoError(err)
	s.Equal([]string{"02:00", "01:00"}, titles(page))

	beyond, err := s.store.FindExpenses(s.ctx, storage.ExpenseFilter{UserID: s.owner.ID, Offset: 10, Limit: 2})
	s.Require().NoError(err)
	s.Empty(beyond)

	farBeyond, err := s.store.FindExpenses(s.ctx, storage.ExpenseFilter{UserID: s.owner.ID, Offset: math.MaxInt, Limit: 100})
	s.Require().NoError(err)
	s.Empty(farBeyond)

	negative, err := s.store.FindExpenses(s.ctx, storage.ExpenseFilter{UserID: s.owner.ID, Offset: -5, Limit: 2})
	s.Require().NoError(err)
	s.Equal([]string{"04:00", "03:00"}, titles(negative), "negative offsets read as zero")
}

func (s *Suite) TestFindOwnedExpense() {
	created := s.mustCreateExpense(s.owner.ID, "Mine", models.CategoryLeisure, time.Now())

	_, err := s.store.FindOwnedExpense(s.ctx, created.ID, s.owner.ID)
	s.NoError(err)

	_, err = s.store.FindOwnedExpense(s.ctx, created.ID, s.other.ID)
	s.ErrorIs(err, storage.ErrNotFound)

	_, err = s.store.FindExpenseByID(s.ctx, uuid.New())
	s.ErrorIs(err, storage.ErrNotFound)
}

func (s *Suite) TestUpdateExpenseOwnerScoped() {
	created := s.mustCreateExpense(s.owner.ID, "Before", models.CategoryLeisure, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))

	changed := created
	changed.Title = "After"
	changed.Amount = decimal.RequireFromString("99.99")
	changed.Category = models.CategoryElectronics
	changed.Date = time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)

	updated, err := s.store.UpdateExpense(s.ctx, changed)
	s.Require().NoError(err)
	s.Equal("After", updated.Title)
	s.True(updated.Amount.Equal(decimal.RequireFromString("99.99")))
	s.Equal(models.CategoryElectronics, updated.Category)
	s.True(updated.Date.Equal(changed.Date))
	s.Equal(s.owner.ID, updated.UserID)

	foreign := changed
	foreign.UserID = s.other.ID
	_, err = s.store.UpdateExpense(s.ctx, foreign)
	s.ErrorIs(err, storage.ErrNotFound)
}

func (s *Suite) TestDeleteOwnedExpense() {
	created := s.mustCreateExpense(s.owner.ID, "Gone", models.CategoryClothing, time.Now())

	s.ErrorIs(s.store.DeleteOwnedExpense(s.ctx, created.ID, s.other.ID), storage.ErrNotFound)
	s.Require().NoError(s.store.DeleteOwnedExpense(s.ctx, created.ID, s.owner.ID))
	s.ErrorIs(s.store.DeleteOwnedExpense(s.ctx, created.ID, s.owner.ID), storage.ErrNotFound)

	_, err := s.store.FindExpenseByID(s.ctx, created.ID)
	s.ErrorIs(err, storage.ErrNotFound)
}

func titles(expenses []models.Expense) []string {
	out := make([]string, len(expenses))
	for i, e := range expenses {
		out[i] = e.Title
	}
	return out
}
