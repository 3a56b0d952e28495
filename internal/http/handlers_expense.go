package http

import (
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/mux"

	"bilancio/internal/core"
)

func (s *Server) handleAddUserForm(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, "add_user.html", nil)
}

func (s *Server) handleAddUser(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeBadRequest(w, r, "invalid form data")
		return
	}
	email := sanitizeInput(r.Form.Get("email"))

	if err := s.expenses.RegisterUser(r.Context(), email); err != nil {
		writeError(w, r, err)
		return
	}

	if wantsJSON(r) {
		writeJSON(w, http.StatusCreated, map[string]string{"email": email})
		return
	}
	w.WriteHeader(http.StatusCreated)
	_, _ = fmt.Fprintf(w, `<div class="success">User %s registered</div>`,
		template.HTMLEscapeString(email))
}

func (s *Server) handleAddBudgetForm(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, "add_budget.html", map[string]string{
		"CurrentMonth": string(core.CurrentMonthKey()),
	})
}

func (s *Server) handleAddBudget(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeBadRequest(w, r, "invalid form data")
		return
	}

	limit, err := parseAmount(r.Form.Get("limit"))
	if err != nil {
		writeBadRequest(w, r, "invalid limit: "+err.Error())
		return
	}

	b := core.Budget{
		Email:    sanitizeInput(r.Form.Get("email")),
		Category: sanitizeInput(r.Form.Get("category")),
		Month:    core.MonthKey(sanitizeInput(r.Form.Get("month"))),
		Limit:    limit,
	}
	if b.Month == "" {
		b.Month = core.CurrentMonthKey()
	}

	id, err := s.expenses.AddBudget(r.Context(), b)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if wantsJSON(r) {
		writeJSON(w, http.StatusCreated, map[string]any{
			"id":       id,
			"email":    b.Email,
			"category": b.Category,
			"month":    string(b.Month),
			"limit":    limit.String(),
		})
		return
	}
	w.WriteHeader(http.StatusCreated)
	_, _ = fmt.Fprintf(w, `<div class="success">Budget for %s / %s (%s) set to %s</div>`,
		template.HTMLEscapeString(b.Email),
		template.HTMLEscapeString(b.Category),
		template.HTMLEscapeString(string(b.Month)),
		formatEuros(limit.Cents))
}

func (s *Server) handleAddExpenseForm(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, "add_expense.html", map[string]string{
		"Today": core.Today().String(),
	})
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeBadRequest(w, r, "invalid form data")
		return
	}

	amount, err := parseAmount(r.Form.Get("amount"))
	if err != nil {
		writeBadRequest(w, r, "invalid amount: "+err.Error())
		return
	}

	e := core.Expense{
		Email:    sanitizeInput(r.Form.Get("email")),
		Category: sanitizeInput(r.Form.Get("category")),
		Amount:   amount,
	}
	if v := strings.TrimSpace(r.Form.Get("date")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			writeBadRequest(w, r, "invalid date, want YYYY-MM-DD")
			return
		}
		e.Date = d
	}

	eval, err := s.expenses.AddExpense(r.Context(), e)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if wantsJSON(r) {
		writeJSON(w, http.StatusCreated, map[string]any{
			"email":         e.Email,
			"category":      e.Category,
			"amount":        amount.String(),
			"budget_status": string(eval.Status),
		})
		return
	}

	w.WriteHeader(http.StatusCreated)
	_, _ = fmt.Fprintf(w, `<div class="success">Expense recorded: %s — %s (%s)</div>`,
		template.HTMLEscapeString(e.Category),
		formatEuros(amount.Cents),
		template.HTMLEscapeString(e.Email))
	switch eval.Status {
	case core.StatusWarning:
		_, _ = fmt.Fprintf(w, `<div class="warning">Spending reached 90%% of the %s budget (%s of %s)</div>`,
			template.HTMLEscapeString(e.Category),
			formatEuros(eval.TotalSpent.Cents),
			formatEuros(eval.Limit.Cents))
	case core.StatusExceeded:
		_, _ = fmt.Fprintf(w, `<div class="error">The %s budget is exceeded (%s of %s)</div>`,
			template.HTMLEscapeString(e.Category),
			formatEuros(eval.TotalSpent.Cents),
			formatEuros(eval.Limit.Cents))
	}
}

// reportRow is one rendered category line of the user report.
type reportRow struct {
	Category string
	Amount   string
	Limit    string
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	email := mux.Vars(r)["email"]

	report, err := s.expenses.Report(r.Context(), email)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if wantsJSON(r) {
		byCategory := make([]map[string]string, 0, len(report.ByCategory))
		for _, row := range report.ByCategory {
			entry := map[string]string{
				"category": row.Category,
				"amount":   row.Amount.String(),
			}
			if limit, ok := report.Budgets[row.Category]; ok {
				entry["budget_limit"] = limit.String()
			}
			byCategory = append(byCategory, entry)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"email":       report.Email,
			"month":       string(report.Month),
			"by_category": byCategory,
			"total":       report.Total.String(),
		})
		return
	}

	data := struct {
		Email string
		Month string
		Total string
		Rows  []reportRow
	}{
		Email: report.Email,
		Month: string(report.Month),
		Total: formatEuros(report.Total.Cents),
	}
	for _, row := range report.ByCategory {
		rendered := reportRow{
			Category: row.Category,
			Amount:   formatEuros(row.Amount.Cents),
		}
		if limit, ok := report.Budgets[row.Category]; ok {
			rendered.Limit = formatEuros(limit.Cents)
		}
		data.Rows = append(data.Rows, rendered)
	}
	s.renderPage(w, r, "report.html", data)
}

// handleReportRedirect turns the report form's POST into a GET on the
// per-user report path.
func (s *Server) handleReportRedirect(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeBadRequest(w, r, "invalid form data")
		return
	}
	email := sanitizeInput(r.Form.Get("email"))
	if err := core.ValidateEmail(email); err != nil {
		writeError(w, r, err)
		return
	}
	http.Redirect(w, r, "/report/"+url.PathEscape(email), http.StatusSeeOther)
}
