package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/hongminglow/expense-api/internal/models"
	"github.com/hongminglow/expense-api/internal/storage"
)

// Ensure Store satisfies the storage.Store interface at compile time.
var _ storage.Store = (*Store)(nil)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// Store provides Postgres-backed persistence for users and expenses.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store and runs migrations.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// Close releases database resources.
func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS users_email_unique_idx ON users (LOWER(email));`,
		`CREATE TABLE IF NOT EXISTS expenses (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id),
			title TEXT NOT NULL,
			amount NUMERIC NOT NULL,
			category TEXT NOT NULL,
			date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE INDEX IF NOT EXISTS expenses_user_date_idx ON expenses (user_id, date DESC);`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}

const userColumns = `id, name, email, password_hash, created_at, updated_at`

// CreateUser inserts a new user row.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	const query = `
		INSERT INTO users (id, name, email, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns
	row := s.pool.QueryRow(ctx, query, user.ID, user.Name, user.Email, user.PasswordHash)
	created, err := scanUser(row)
	if err != nil {
		if isPgCode(err, uniqueViolation) {
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, err
	}
	return created, nil
}

// FindByEmail fetches a user by email address, ignoring case.
func (s *Store) FindByEmail(ctx context.Context, email string) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1);`
	return scanUser(s.pool.QueryRow(ctx, query, email))
}

// FindByID fetches a user by primary key.
func (s *Store) FindByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1;`
	return scanUser(s.pool.QueryRow(ctx, query, id))
}

const expenseColumns = `id, user_id, title, amount::text, category, date, created_at, updated_at`

// CreateExpense inserts an expense owned by expense.UserID.
func (s *Store) CreateExpense(ctx context.Context, expense models.Expense) (models.Expense, error) {
	if expense.ID == uuid.Nil {
		expense.ID = uuid.New()
	}
	const query = `
		INSERT INTO expenses (id, user_id, title, amount, category, date)
		VALUES ($1, $2, $3, $4::numeric, $5, COALESCE($6, NOW()))
		RETURNING ` + expenseColumns
	var date any
	if !expense.Date.IsZero() {
		date = expense.Date
	}
	row := s.pool.QueryRow(ctx, query,
		expense.ID, expense.UserID, expense.Title, expense.Amount.String(), string(expense.Category), date)
	created, err := scanExpense(row)
	if err != nil {
		if isPgCode(err, foreignKeyViolation) {
			return models.Expense{}, fmt.Errorf("owner %s: %w", expense.UserID, storage.ErrNotFound)
		}
		return models.Expense{}, err
	}
	return created, nil
}

// FindExpenses returns one page of expenses matching the filter, newest first.
func (s *Store) FindExpenses(ctx context.Context, filter storage.ExpenseFilter) ([]models.Expense, error) {
	where, args := buildWhere(filter)
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE ` + where +
		` ORDER BY date DESC, created_at DESC, id DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	expenses := make([]models.Expense, 0)
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, expense)
	}
	return expenses, rows.Err()
}

// CountExpenses counts every expense matching the filter, ignoring pagination.
func (s *Store) CountExpenses(ctx context.Context, filter storage.ExpenseFilter) (int64, error) {
	where, args := buildWhere(filter)
	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM expenses WHERE `+where, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count expenses: %w", err)
	}
	return total, nil
}

// FindExpenseByID fetches an expense regardless of owner.
func (s *Store) FindExpenseByID(ctx context.Context, id uuid.UUID) (models.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE id = $1;`
	return scanExpense(s.pool.QueryRow(ctx, query, id))
}

// FindOwnedExpense fetches an expense only if ownerID owns it.
func (s *Store) FindOwnedExpense(ctx context.Context, id, ownerID uuid.UUID) (models.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE id = $1 AND user_id = $2;`
	return scanExpense(s.pool.QueryRow(ctx, query, id, ownerID))
}

// UpdateExpense overwrites the mutable fields of an owned expense.
func (s *Store) UpdateExpense(ctx context.Context, expense models.Expense) (models.Expense, error) {
	const query = `
		UPDATE expenses
		SET title = $3, amount = $4::numeric, category = $5, date = $6, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + expenseColumns
	row := s.pool.QueryRow(ctx, query,
		expense.ID, expense.UserID, expense.Title, expense.Amount.String(), string(expense.Category), expense.Date)
	return scanExpense(row)
}

// DeleteOwnedExpense removes an expense only if ownerID owns it.
func (s *Store) DeleteOwnedExpense(ctx context.Context, id, ownerID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM expenses WHERE id = $1 AND user_id = $2;`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func buildWhere(filter storage.ExpenseFilter) (string, []any) {
	clauses := []string{"user_id = $1"}
	args := []any{filter.UserID}
	if filter.Category != "" {
		args = append(args, string(filter.Category))
		clauses = append(clauses, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		clauses = append(clauses, fmt.Sprintf("date >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		clauses = append(clauses, fmt.Sprintf("date <= $%d", len(args)))
	}
	return strings.Join(clauses, " AND "), args
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func scanExpense(row pgx.Row) (models.Expense, error) {
	var (
		expense  models.Expense
		amount   string
		category string
	)
	err := row.Scan(&expense.ID, &expense.UserID, &expense.Title, &amount, &category,
		&expense.Date, &expense.CreatedAt, &expense.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Expense{}, storage.ErrNotFound
		}
		return models.Expense{}, err
	}
	if expense.Amount, err = decimal.NewFromString(amount); err != nil {
		return models.Expense{}, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	expense.Category = models.Category(category)
	return expense, nil
}

func isPgCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
