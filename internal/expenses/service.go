// Package expenses implements the owner-scoped expense operations behind /api/expenses.
package expenses

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/hongminglow/expense-api/internal/apperr"
	"github.com/hongminglow/expense-api/internal/events"
	"github.com/hongminglow/expense-api/internal/models"
	"github.com/hongminglow/expense-api/internal/models/dto"
	"github.com/hongminglow/expense-api/internal/storage"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Time terms accepted by List.
const (
	TermPastWeek    = "past_week"
	TermPastMonth   = "past_month"
	TermLast3Months = "last_3_month"
	TermCustom      = "custom"
)

var termWindows = map[string]time.Duration{
	TermPastWeek:    7 * 24 * time.Hour,
	TermPastMonth:   30 * 24 * time.Hour,
	TermLast3Months: 90 * 24 * time.Hour,
}

// ListParams are the raw listing filters. Page and Limit below 1 fall back to defaults.
type ListParams struct {
	Category  string
	TimeTerm  string
	StartDate string
	EndDate   string
	Page      int
	Limit     int
}

// Service applies ownership rules on top of an ExpenseStore.
type Service struct {
	store     storage.ExpenseStore
	publisher events.Publisher
	now       func() time.Time
}

func NewService(store storage.ExpenseStore, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{store: store, publisher: publisher, now: time.Now}
}

func (s *Service) Create(ctx context.Context, caller models.Identity, req dto.ExpenseRequest) (models.Expense, error) {
	if caller.IsZero() {
		return models.Expense{}, apperr.Unauthenticated(msgUnauthenticated)
	}
	category, date, err := validateNew(req)
	if err != nil {
		return models.Expense{}, err
	}

	created, err := s.store.CreateExpense(ctx, models.Expense{
		UserID:   caller.ID,
		Title:    strings.TrimSpace(req.Title),
		Amount:   req.Amount.Decimal,
		Category: category,
		Date:     date,
	})
	if err != nil {
		return models.Expense{}, apperr.Internal(err)
	}
	s.publish(ctx, events.ExpenseCreated, created)
	return created, nil
}

func (s *Service) List(ctx context.Context, caller models.Identity, params ListParams) (dto.ExpenseList, error) {
	if caller.IsZero() {
		return dto.ExpenseList{}, apperr.Unauthenticated(msgUnauthenticated)
	}
	page, limit := normalizePage(params.Page, params.Limit)

	filter := storage.ExpenseFilter{
		UserID:   caller.ID,
		Category: models.Category(params.Category),
		Offset:   pageOffset(page, limit),
		Limit:    limit,
	}
	if err := s.applyTimeTerm(&filter, params); err != nil {
		return dto.ExpenseList{}, err
	}

	var (
		expenses []models.Expense
		total    int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		expenses, err = s.store.FindExpenses(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.store.CountExpenses(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return dto.ExpenseList{}, apperr.Internal(err)
	}
	if expenses == nil {
		expenses = []models.Expense{}
	}
	return dto.ExpenseList{Data: expenses, Page: page, Limit: limit, Total: total}, nil
}

// Get returns 403 when the record exists but belongs to someone else.
func (s *Service) Get(ctx context.Context, caller models.Identity, id uuid.UUID) (models.Expense, error) {
	if caller.IsZero() {
		return models.Expense{}, apperr.Unauthenticated(msgUnauthenticated)
	}
	expense, err := s.store.FindExpenseByID(ctx, id)
	if err != nil {
		return models.Expense{}, notFoundOrInternal(err)
	}
	if !expense.OwnedBy(caller.ID) {
		return models.Expense{}, apperr.Forbidden(msgForbidden)
	}
	return expense, nil
}

// Update hides foreign records behind 404 and only overwrites provided fields.
func (s *Service) Update(ctx context.Context, caller models.Identity, id uuid.UUID, req dto.ExpenseRequest) (models.Expense, error) {
	if caller.IsZero() {
		return models.Expense{}, apperr.Unauthenticated(msgUnauthenticated)
	}
	current, err := s.store.FindOwnedExpense(ctx, id, caller.ID)
	if err != nil {
		return models.Expense{}, notFoundOrInternal(err)
	}
	patched, err := applyPatch(current, req)
	if err != nil {
		return models.Expense{}, err
	}

	updated, err := s.store.UpdateExpense(ctx, patched)
	if err != nil {
		return models.Expense{}, notFoundOrInternal(err)
	}
	s.publish(ctx, events.ExpenseUpdated, updated)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, caller models.Identity, id uuid.UUID) error {
	if caller.IsZero() {
		return apperr.Unauthenticated(msgUnauthenticated)
	}
	if err := s.store.DeleteOwnedExpense(ctx, id, caller.ID); err != nil {
		return notFoundOrInternal(err)
	}
	s.publish(ctx, events.ExpenseDeleted, models.Expense{ID: id, UserID: caller.ID})
	return nil
}

func (s *Service) applyTimeTerm(filter *storage.ExpenseFilter, params ListParams) error {
	if window, ok := termWindows[params.TimeTerm]; ok {
		from := s.now().Add(-window)
		filter.From = &from
		return nil
	}
	if params.TimeTerm != TermCustom {
		return nil
	}
	if params.StartDate != "" {
		from, ok := ParseDate(params.StartDate)
		if !ok {
			return apperr.InvalidInput(msgInvalidStart)
		}
		filter.From = &from
	}
	if params.EndDate != "" {
		to, ok := ParseDate(params.EndDate)
		if !ok {
			return apperr.InvalidInput(msgInvalidEnd)
		}
		filter.To = &to
	}
	return nil
}

func (s *Service) publish(ctx context.Context, t events.Type, expense models.Expense) {
	if err := s.publisher.Publish(ctx, events.New(t, expense.ID, expense.UserID)); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).
			Str("event", string(t)).
			Str("expense_id", expense.ID.String()).
			Msg("publish expense event")
	}
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

// pageOffset saturates at math.MaxInt instead of overflowing; such a page is
// past the end of any result set.
func pageOffset(page, limit int) int {
	if page-1 > math.MaxInt/limit {
		return math.MaxInt
	}
	return (page - 1) * limit
}

func notFoundOrInternal(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return apperr.NotFound(msgNotFound)
	}
	return apperr.Internal(err)
}
