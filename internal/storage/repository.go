// Package storage persists users, budgets, expenses and groups in SQLite.
// The repository is the single persistence handle: created at process start,
// passed into services explicitly, closed at shutdown.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"bilancio/internal/core"

	_ "modernc.org/sqlite"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
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

// Ping verifies the database is reachable, for readiness probes.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// CreateUser registers an email identity. A second registration of the same
// address returns ErrAlreadyExists.
func (r *SQLiteRepository) CreateUser(ctx context.Context, email string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO users (email) VALUES (?)`, email)
	if isUniqueViolation(err) {
		return fmt.Errorf("user %s: %w", email, ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) UserExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = ?)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query user existence: %w", err)
	}
	return exists, nil
}

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (email, category, month, limit_cents) VALUES (?, ?, ?, ?)`,
		b.Email, b.Category, string(b.Month), b.Limit.Cents)
	if err != nil {
		return 0, fmt.Errorf("insert budget: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("budget insert id: %w", err)
	}

	slog.InfoContext(ctx, "Budget saved",
		"id", id,
		"email", b.Email,
		"category", b.Category,
		"month", string(b.Month),
		"limit_cents", b.Limit.Cents)

	return id, nil
}

// FirstBudget returns the budget row with the lowest id for the triple, or
// found=false when none exists. Multiple rows per triple are legal; taking
// the first preserves the legacy selection.
func (r *SQLiteRepository) FirstBudget(ctx context.Context, email, category string, month core.MonthKey) (core.Budget, bool, error) {
	var b core.Budget
	var m string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, category, month, limit_cents
		 FROM budgets WHERE email = ? AND category = ? AND month = ?
		 ORDER BY id LIMIT 1`,
		email, category, string(month)).
		Scan(&b.ID, &b.Email, &b.Category, &m, &b.Limit.Cents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, false, nil
	}
	if err != nil {
		return core.Budget{}, false, fmt.Errorf("query budget: %w", err)
	}
	b.Month = core.MonthKey(m)
	return b, true, nil
}

// BudgetsForMonth returns one limit per category for the user's month,
// first-row-wins across duplicate triples.
func (r *SQLiteRepository) BudgetsForMonth(ctx context.Context, email string, month core.MonthKey) (map[string]core.Money, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT category, limit_cents FROM budgets
		 WHERE email = ? AND month = ? ORDER BY id`,
		email, string(month))
	if err != nil {
		return nil, fmt.Errorf("query budgets for month: %w", err)
	}
	defer rows.Close()

	budgets := make(map[string]core.Money)
	for rows.Next() {
		var category string
		var cents int64
		if err := rows.Scan(&category, &cents); err != nil {
			return nil, fmt.Errorf("scan budget row: %w", err)
		}
		if _, ok := budgets[category]; !ok {
			budgets[category] = core.Money{Cents: cents}
		}
	}
	return budgets, rows.Err()
}

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (email, category, amount_cents, date) VALUES (?, ?, ?, ?)`,
		e.Email, e.Category, e.Amount.Cents, e.Date.String())
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("expense insert id: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", id,
		"email", e.Email,
		"category", e.Category,
		"amount_cents", e.Amount.Cents,
		"date", e.Date.String())

	return id, nil
}

// SumExpensesForMonth sums the user's expense amounts for one category,
// restricted to dates inside the month. The date column is YYYY-MM-DD, so a
// 7-character prefix match selects the period.
func (r *SQLiteRepository) SumExpensesForMonth(ctx context.Context, email, category string, month core.MonthKey) (core.Money, error) {
	var cents sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`SELECT SUM(amount_cents) FROM expenses
		 WHERE email = ? AND category = ? AND substr(date, 1, 7) = ?`,
		email, category, string(month)).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum month expenses: %w", err)
	}
	return core.Money{Cents: cents.Int64}, nil
}

// CategoryTotals aggregates the user's all-time spend per category,
// alphabetical by category for stable rendering.
func (r *SQLiteRepository) CategoryTotals(ctx context.Context, email string) ([]core.CategoryAmount, core.Money, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT category, SUM(amount_cents) FROM expenses
		 WHERE email = ? GROUP BY category ORDER BY category`, email)
	if err != nil {
		return nil, core.Money{}, fmt.Errorf("query category totals: %w", err)
	}
	defer rows.Close()

	var out []core.CategoryAmount
	var total int64
	for rows.Next() {
		var ca core.CategoryAmount
		if err := rows.Scan(&ca.Category, &ca.Amount.Cents); err != nil {
			return nil, core.Money{}, fmt.Errorf("scan category total: %w", err)
		}
		total += ca.Amount.Cents
		out = append(out, ca)
	}
	return out, core.Money{Cents: total}, rows.Err()
}

func (r *SQLiteRepository) CreateGroup(ctx context.Context, name string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO groups (name) VALUES (?)`, name)
	if isUniqueViolation(err) {
		return 0, fmt.Errorf("group %s: %w", name, ErrAlreadyExists)
	}
	if err != nil {
		return 0, fmt.Errorf("insert group: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("group insert id: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) GroupByName(ctx context.Context, name string) (core.Group, error) {
	var g core.Group
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name FROM groups WHERE name = ?`, name).Scan(&g.ID, &g.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Group{}, fmt.Errorf("group %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return core.Group{}, fmt.Errorf("query group: %w", err)
	}
	return g, nil
}

func (r *SQLiteRepository) AddGroupMember(ctx context.Context, groupID int64, email string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO group_members (group_id, email) VALUES (?, ?)`, groupID, email)
	if err != nil {
		return fmt.Errorf("insert group member: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GroupMembers(ctx context.Context, groupID int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT email FROM group_members WHERE group_id = ? ORDER BY id`, groupID)
	if err != nil {
		return nil, fmt.Errorf("query group members: %w", err)
	}
	defer rows.Close()

	var members []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("scan group member: %w", err)
		}
		members = append(members, email)
	}
	return members, rows.Err()
}

func (r *SQLiteRepository) IsGroupMember(ctx context.Context, groupID int64, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM group_members WHERE group_id = ? AND email = ?)`,
		groupID, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query group membership: %w", err)
	}
	return exists, nil
}

func (r *SQLiteRepository) CreateGroupExpense(ctx context.Context, e core.GroupExpense) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO group_expenses (group_id, description, paid_by, amount_cents, date)
		 VALUES (?, ?, ?, ?, ?)`,
		e.GroupID, e.Description, e.PaidBy, e.Amount.Cents, e.Date.String())
	if err != nil {
		return 0, fmt.Errorf("insert group expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("group expense insert id: %w", err)
	}

	slog.InfoContext(ctx, "Group expense saved",
		"id", id,
		"group_id", e.GroupID,
		"paid_by", e.PaidBy,
		"amount_cents", e.Amount.Cents,
		"date", e.Date.String())

	return id, nil
}

// GroupExpenses returns the group's history ordered by date ascending, id as
// tie-break so same-day rows keep insertion order.
func (r *SQLiteRepository) GroupExpenses(ctx context.Context, groupID int64) ([]core.GroupExpense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, group_id, description, paid_by, amount_cents, date
		 FROM group_expenses WHERE group_id = ? ORDER BY date, id`, groupID)
	if err != nil {
		return nil, fmt.Errorf("query group expenses: %w", err)
	}
	defer rows.Close()

	var out []core.GroupExpense
	for rows.Next() {
		var e core.GroupExpense
		var date string
		if err := rows.Scan(&e.ID, &e.GroupID, &e.Description, &e.PaidBy, &e.Amount.Cents, &date); err != nil {
			return nil, fmt.Errorf("scan group expense: %w", err)
		}
		d, err := core.ParseDate(date)
		if err != nil {
			return nil, fmt.Errorf("parse group expense date %q: %w", date, err)
		}
		e.Date = d
		out = append(out, e)
	}
	return out, rows.Err()
}
