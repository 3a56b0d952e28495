// Package services orchestrates storage, the aggregate computations in core,
// and alert delivery. Handlers stay thin by calling into these services.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"bilancio/internal/core"
	"bilancio/internal/notify"
	"bilancio/internal/storage"
)

// ExpenseService covers user registration, budgets, personal expenses and the
// per-user report. Adding an expense evaluates the current month's budget and
// sends at most one alert per call.
type ExpenseService struct {
	storage  *storage.SQLiteRepository
	notifier notify.Notifier
}

func NewExpenseService(st *storage.SQLiteRepository, notifier notify.Notifier) *ExpenseService {
	if notifier == nil {
		notifier = notify.NewLogNotifier()
	}
	return &ExpenseService{
		storage:  st,
		notifier: notifier,
	}
}

// Ping reports whether the backing store is reachable.
func (s *ExpenseService) Ping(ctx context.Context) error {
	return s.storage.Ping(ctx)
}

// RegisterUser creates the email identity. The second registration of an
// address fails with storage.ErrAlreadyExists.
func (s *ExpenseService) RegisterUser(ctx context.Context, email string) error {
	if err := core.ValidateEmail(email); err != nil {
		return err
	}
	return s.storage.CreateUser(ctx, email)
}

// AddBudget stores a monthly limit after confirming the referenced user
// exists. Duplicate (email, category, month) triples are allowed.
func (s *ExpenseService) AddBudget(ctx context.Context, b core.Budget) (int64, error) {
	if err := b.Validate(); err != nil {
		return 0, err
	}
	if err := s.requireUser(ctx, b.Email); err != nil {
		return 0, err
	}
	return s.storage.CreateBudget(ctx, b)
}

// AddExpense records the expense, then evaluates the user's budget for the
// category in the current month and fires an alert on a threshold crossing.
// The evaluation result is returned so callers can surface it; alert delivery
// failure is logged and never fails the call, the write is already committed.
func (s *ExpenseService) AddExpense(ctx context.Context, e core.Expense) (core.BudgetEvaluation, error) {
	if e.Date.IsZero() {
		e.Date = core.Today()
	}
	if err := e.Validate(); err != nil {
		return core.BudgetEvaluation{}, err
	}
	if err := s.requireUser(ctx, e.Email); err != nil {
		return core.BudgetEvaluation{}, err
	}

	if _, err := s.storage.CreateExpense(ctx, e); err != nil {
		return core.BudgetEvaluation{}, fmt.Errorf("save expense: %w", err)
	}

	// The alert period comes from the clock, not from the expense date.
	month := core.CurrentMonthKey()
	ev, err := s.evaluateBudget(ctx, e.Email, e.Category, month)
	if err != nil {
		// The expense is saved; a failed evaluation only suppresses the alert.
		slog.ErrorContext(ctx, "Budget evaluation failed after expense write",
			"error", err,
			"email", e.Email,
			"category", e.Category,
			"month", string(month))
		return core.BudgetEvaluation{Status: core.StatusNoBudget}, nil
	}

	if ev.NeedsAlert() {
		s.sendAlert(ctx, e.Email, e.Category, month, ev)
	}

	return ev, nil
}

// evaluateBudget looks up the first matching limit row and sums the month's
// spend for the category. No limit row is the quiescent no-budget state.
func (s *ExpenseService) evaluateBudget(ctx context.Context, email, category string, month core.MonthKey) (core.BudgetEvaluation, error) {
	budget, found, err := s.storage.FirstBudget(ctx, email, category, month)
	if err != nil {
		return core.BudgetEvaluation{}, fmt.Errorf("look up budget: %w", err)
	}
	if !found {
		return core.BudgetEvaluation{Status: core.StatusNoBudget}, nil
	}

	spent, err := s.storage.SumExpensesForMonth(ctx, email, category, month)
	if err != nil {
		return core.BudgetEvaluation{}, fmt.Errorf("sum month spend: %w", err)
	}

	return core.Evaluate(budget.Limit, true, spent), nil
}

// sendAlert composes and sends one notification. Alerts re-fire on every
// qualifying expense addition; there is no dedup or rate limiting.
func (s *ExpenseService) sendAlert(ctx context.Context, email, category string, month core.MonthKey, ev core.BudgetEvaluation) {
	var subject, body string
	switch ev.Status {
	case core.StatusExceeded:
		subject = fmt.Sprintf("Budget alert: %s budget exceeded", category)
		body = fmt.Sprintf("You exceeded your %s budget of €%s for %s. Total spent: €%s.",
			category, ev.Limit, month, ev.TotalSpent)
	case core.StatusWarning:
		subject = fmt.Sprintf("Budget warning: %s budget at 90%%", category)
		body = fmt.Sprintf("You've used over 90%% of your %s budget of €%s for %s. Total spent: €%s.",
			category, ev.Limit, month, ev.TotalSpent)
	default:
		return
	}

	if err := s.notifier.Notify(ctx, email, subject, body); err != nil {
		// Best-effort delivery: the expense write stands regardless.
		slog.ErrorContext(ctx, "Failed to send budget alert",
			"error", err,
			"recipient", email,
			"category", category,
			"status", string(ev.Status))
		return
	}

	slog.InfoContext(ctx, "Budget alert sent",
		"recipient", email,
		"category", category,
		"status", string(ev.Status),
		"limit_cents", ev.Limit.Cents,
		"spent_cents", ev.TotalSpent.Cents)
}

// Report builds the user's spending summary: all-time per-category totals
// plus the limits configured for the current month.
func (s *ExpenseService) Report(ctx context.Context, email string) (core.UserReport, error) {
	if err := core.ValidateEmail(email); err != nil {
		return core.UserReport{}, err
	}
	if err := s.requireUser(ctx, email); err != nil {
		return core.UserReport{}, err
	}

	month := core.CurrentMonthKey()

	byCategory, total, err := s.storage.CategoryTotals(ctx, email)
	if err != nil {
		return core.UserReport{}, fmt.Errorf("aggregate expenses: %w", err)
	}

	budgets, err := s.storage.BudgetsForMonth(ctx, email, month)
	if err != nil {
		return core.UserReport{}, fmt.Errorf("load month budgets: %w", err)
	}

	return core.UserReport{
		Email:      email,
		Month:      month,
		ByCategory: byCategory,
		Total:      total,
		Budgets:    budgets,
	}, nil
}

func (s *ExpenseService) requireUser(ctx context.Context, email string) error {
	exists, err := s.storage.UserExists(ctx, email)
	if err != nil {
		return fmt.Errorf("check user existence: %w", err)
	}
	if !exists {
		return fmt.Errorf("user %s: %w", email, storage.ErrNotFound)
	}
	return nil
}
