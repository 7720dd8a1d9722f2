package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type SQLiteRepository struct {
	db *sql.DB
}

var _ ports.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime returns the zero time for values that do not parse; the report
// engine buckets those separately instead of failing the whole list.
func parseTime(ctx context.Context, field, id, v string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		slog.WarnContext(ctx, "Unparseable stored timestamp", "field", field, "id", id, "value", v, "error", err)
		return time.Time{}
	}
	return t
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

func (r *SQLiteRepository) AddTransaction(ctx context.Context, tx core.Transaction) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, owner_id, amount, category, description, type, date)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.OwnerID, tx.Amount, tx.Category, tx.Description, string(tx.Type), formatTime(tx.Date))
	if isUniqueViolation(err) {
		return fmt.Errorf("create transaction %s: %w", tx.ID, ports.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", tx.ID,
		"owner_id", tx.OwnerID,
		"type", tx.Type,
		"amount", tx.Amount.String())
	return nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	} else if n == 0 {
		return ports.ErrNotFound
	}
	slog.InfoContext(ctx, "Transaction deleted", "id", id, "owner_id", ownerID)
	return nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, ownerID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, amount, category, description, type, date
		 FROM transactions WHERE owner_id = ? ORDER BY date DESC, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := make([]core.Transaction, 0)
	for rows.Next() {
		var (
			tx        core.Transaction
			typ, date string
		)
		if err := rows.Scan(&tx.ID, &tx.OwnerID, &tx.Amount, &tx.Category, &tx.Description, &typ, &date); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Type = core.TransactionType(typ)
		tx.Date = parseTime(ctx, "date", tx.ID, date)
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) AddBudget(ctx context.Context, b core.BudgetCategory) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (id, owner_id, category, amount, spent, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, b.OwnerID, b.Category, b.Amount, b.Spent, formatTime(b.CreatedAt))
	if isUniqueViolation(err) {
		return fmt.Errorf("create budget %s: %w", b.ID, ports.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("create budget: %w", err)
	}
	slog.InfoContext(ctx, "Budget saved to SQLite", "id", b.ID, "owner_id", b.OwnerID, "category", b.Category)
	return nil
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context, ownerID string) ([]core.BudgetCategory, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, category, amount, spent, created_at
		 FROM budgets WHERE owner_id = ? ORDER BY created_at, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	out := make([]core.BudgetCategory, 0)
	for rows.Next() {
		b, err := scanBudget(ctx, rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBudget(ctx context.Context, s scanner) (core.BudgetCategory, error) {
	var (
		b       core.BudgetCategory
		created string
	)
	if err := s.Scan(&b.ID, &b.OwnerID, &b.Category, &b.Amount, &b.Spent, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return b, ports.ErrNotFound
		}
		return b, fmt.Errorf("scan budget: %w", err)
	}
	b.CreatedAt = parseTime(ctx, "created_at", b.ID, created)
	return b, nil
}

func (r *SQLiteRepository) UpdateBudgetSpent(ctx context.Context, ownerID, id string, spent decimal.Decimal) (core.BudgetCategory, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE budgets SET spent = ? WHERE id = ? AND owner_id = ?`, spent, id, ownerID)
	if err != nil {
		return core.BudgetCategory{}, fmt.Errorf("update budget spent: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return core.BudgetCategory{}, fmt.Errorf("update budget spent: %w", err)
	} else if n == 0 {
		return core.BudgetCategory{}, ports.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, category, amount, spent, created_at FROM budgets WHERE id = ? AND owner_id = ?`, id, ownerID)
	b, err := scanBudget(ctx, row)
	if err != nil {
		return core.BudgetCategory{}, err
	}
	slog.InfoContext(ctx, "Budget spent updated", "id", id, "owner_id", ownerID, "spent", spent.String())
	return b, nil
}

func (r *SQLiteRepository) GetProfile(ctx context.Context, ownerID string) (core.UserProfile, error) {
	var (
		p        core.UserProfile
		currency string
		updated  string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT owner_id, display_name, currency, monthly_budget, updated_at FROM profiles WHERE owner_id = ?`, ownerID).
		Scan(&p.OwnerID, &p.DisplayName, &currency, &p.MonthlyBudget, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return core.UserProfile{}, ports.ErrNotFound
	}
	if err != nil {
		return core.UserProfile{}, fmt.Errorf("get profile: %w", err)
	}
	p.Currency = core.Currency(currency)
	p.UpdatedAt = parseTime(ctx, "updated_at", ownerID, updated)
	return p, nil
}

func (r *SQLiteRepository) UpsertProfile(ctx context.Context, p core.UserProfile) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles (owner_id, display_name, currency, monthly_budget, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(owner_id) DO UPDATE SET
		   display_name = excluded.display_name,
		   currency = excluded.currency,
		   monthly_budget = excluded.monthly_budget,
		   updated_at = excluded.updated_at`,
		p.OwnerID, p.DisplayName, string(p.Currency), p.MonthlyBudget, formatTime(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	slog.InfoContext(ctx, "Profile saved", "owner_id", p.OwnerID, "currency", p.Currency)
	return nil
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, formatTime(u.CreatedAt))
	if isUniqueViolation(err) {
		return ports.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) UserByEmail(ctx context.Context, email string) (core.User, error) {
	var (
		u       core.User
		created string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE email = ?`, email).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, ports.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	u.CreatedAt = parseTime(ctx, "created_at", u.ID, created)
	return u, nil
}

func (r *SQLiteRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *SQLiteRepository) CreateSession(ctx context.Context, s core.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (token, owner_id, expires_at) VALUES (?, ?, ?)`,
		s.Token, s.OwnerID, formatTime(s.ExpiresAt))
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) SessionByToken(ctx context.Context, token string) (core.Session, error) {
	var (
		s       core.Session
		expires string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT token, owner_id, expires_at FROM sessions WHERE token = ?`, token).
		Scan(&s.Token, &s.OwnerID, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Session{}, ports.ErrNotFound
	}
	if err != nil {
		return core.Session{}, fmt.Errorf("get session: %w", err)
	}
	// An unparseable expiry yields the zero time, which reads as expired.
	s.ExpiresAt = parseTime(ctx, "expires_at", s.OwnerID, expires)
	return s, nil
}

func (r *SQLiteRepository) DeleteSession(ctx context.Context, token string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	} else if n == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, formatTime(now))
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	if n > 0 {
		slog.InfoContext(ctx, "Expired sessions removed", "count", n)
	}
	return int(n), nil
}
