// Package sqlite is a single-file backend built on the pure-Go modernc driver.
// Timestamps are stored as unix milliseconds so range predicates compare numerically.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/hongminglow/expense-api/internal/models"
	"github.com/hongminglow/expense-api/internal/storage"
)

const driverName = "sqlite"

var _ storage.Store = (*Store)(nil)

// Store provides SQLite-backed persistence for users and expenses.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore opens (creating if needed) the database file at path and migrates it.
func NewStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

const userColumns = `id, name, email, password_hash, created_at_ms, updated_at_ms`

func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := s.now().UTC().Truncate(time.Millisecond)
	user.CreatedAt, user.UpdatedAt = now, now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID.String(), user.Name, user.Email, user.PasswordHash, now.UnixMilli(), now.UnixMilli())
	if err != nil {
		if hasCode(err, sqlite3.SQLITE_CONSTRAINT_UNIQUE) {
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

func (s *Store) FindByEmail(ctx context.Context, email string) (models.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

func (s *Store) FindByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id.String())
	return scanUser(row)
}

const expenseColumns = `id, user_id, title, amount, category, date_ms, created_at_ms, updated_at_ms`

func (s *Store) CreateExpense(ctx context.Context, expense models.Expense) (models.Expense, error) {
	if expense.ID == uuid.Nil {
		expense.ID = uuid.New()
	}
	now := s.now().UTC().Truncate(time.Millisecond)
	if expense.Date.IsZero() {
		expense.Date = now
	}
	expense.Date = expense.Date.UTC().Truncate(time.Millisecond)
	expense.CreatedAt, expense.UpdatedAt = now, now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO expenses (`+expenseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		expense.ID.String(), expense.UserID.String(), expense.Title, expense.Amount.String(),
		string(expense.Category), expense.Date.UnixMilli(), now.UnixMilli(), now.UnixMilli())
	if err != nil {
		if hasCode(err, sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY) {
			return models.Expense{}, fmt.Errorf("owner %s: %w", expense.UserID, storage.ErrNotFound)
		}
		return models.Expense{}, fmt.Errorf("insert expense: %w", err)
	}
	return expense, nil
}

func (s *Store) FindExpenses(ctx context.Context, filter storage.ExpenseFilter) ([]models.Expense, error) {
	where, args := buildWhere(filter)
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE ` + where +
		` ORDER BY date_ms DESC, created_at_ms DESC, id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, max(filter.Offset, 0))
	} else if filter.Offset > 0 {
		query += ` LIMIT -1 OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
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

func (s *Store) CountExpenses(ctx context.Context, filter storage.ExpenseFilter) (int64, error) {
	where, args := buildWhere(filter)
	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM expenses WHERE `+where, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count expenses: %w", err)
	}
	return total, nil
}

func (s *Store) FindExpenseByID(ctx context.Context, id uuid.UUID) (models.Expense, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id.String())
	return scanExpense(row)
}

func (s *Store) FindOwnedExpense(ctx context.Context, id, ownerID uuid.UUID) (models.Expense, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ? AND user_id = ?`, id.String(), ownerID.String())
	return scanExpense(row)
}

func (s *Store) UpdateExpense(ctx context.Context, expense models.Expense) (models.Expense, error) {
	now := s.now().UTC().Truncate(time.Millisecond)
	row := s.db.QueryRowContext(ctx, `
		UPDATE expenses
		SET title = ?, amount = ?, category = ?, date_ms = ?, updated_at_ms = ?
		WHERE id = ? AND user_id = ?
		RETURNING `+expenseColumns,
		expense.Title, expense.Amount.String(), string(expense.Category), expense.Date.UnixMilli(), now.UnixMilli(),
		expense.ID.String(), expense.UserID.String())
	return scanExpense(row)
}

func (s *Store) DeleteOwnedExpense(ctx context.Context, id, ownerID uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ? AND user_id = ?`, id.String(), ownerID.String())
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func buildWhere(filter storage.ExpenseFilter) (string, []any) {
	clauses := []string{"user_id = ?"}
	args := []any{filter.UserID.String()}
	if filter.Category != "" {
		clauses = append(clauses, "category = ?")
		args = append(args, string(filter.Category))
	}
	if filter.From != nil {
		clauses = append(clauses, "date_ms >= ?")
		args = append(args, filter.From.UnixMilli())
	}
	if filter.To != nil {
		clauses = append(clauses, "date_ms <= ?")
		args = append(args, filter.To.UnixMilli())
	}
	return strings.Join(clauses, " AND "), args
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (models.User, error) {
	var (
		user                 models.User
		createdMs, updatedMs int64
	)
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &createdMs, &updatedMs); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	user.CreatedAt = time.UnixMilli(createdMs).UTC()
	user.UpdatedAt = time.UnixMilli(updatedMs).UTC()
	return user, nil
}

func scanExpense(row scanner) (models.Expense, error) {
	var (
		expense                      models.Expense
		amount, category             string
		dateMs, createdMs, updatedMs int64
	)
	err := row.Scan(&expense.ID, &expense.UserID, &expense.Title, &amount, &category, &dateMs, &createdMs, &updatedMs)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Expense{}, storage.ErrNotFound
		}
		return models.Expense{}, err
	}
	if expense.Amount, err = decimal.NewFromString(amount); err != nil {
		return models.Expense{}, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	expense.Category = models.Category(category)
	expense.Date = time.UnixMilli(dateMs).UTC()
	expense.CreatedAt = time.UnixMilli(createdMs).UTC()
	expense.UpdatedAt = time.UnixMilli(updatedMs).UTC()
	return expense, nil
}

var constraintMessages = map[int]string{
	sqlite3.SQLITE_CONSTRAINT_UNIQUE:     "UNIQUE constraint failed",
	sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY: "FOREIGN KEY constraint failed",
}

// hasCode matches the extended result code, falling back to the message when
// the driver only reports the primary SQLITE_CONSTRAINT code.
func hasCode(err error, code int) bool {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	if sqliteErr.Code() == code {
		return true
	}
	return sqliteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT &&
		strings.Contains(sqliteErr.Error(), constraintMessages[code])
}
