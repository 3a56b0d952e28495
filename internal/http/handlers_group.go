package http

import (
	"fmt"
	"html/template"
	"net/http"
	"sort"
	"strings"

	"bilancio/internal/core"
)

func (s *Server) handleCreateGroupForm(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, "create_group.html", nil)
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeBadRequest(w, r, "invalid form data")
		return
	}
	name := sanitizeInput(r.Form.Get("group_name"))
	members := splitEmails(r.Form.Get("members"))

	g, err := s.groups.CreateGroup(r.Context(), name, members)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if wantsJSON(r) {
		writeJSON(w, http.StatusCreated, map[string]any{
			"id":      g.ID,
			"name":    g.Name,
			"members": members,
		})
		return
	}
	w.WriteHeader(http.StatusCreated)
	_, _ = fmt.Fprintf(w, `<div class="success">Group %s created with %d members</div>`,
		template.HTMLEscapeString(g.Name), len(members))
}

func (s *Server) handleAddGroupExpenseForm(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, "add_group_expense.html", map[string]string{
		"Today": core.Today().String(),
	})
}

func (s *Server) handleAddGroupExpense(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeBadRequest(w, r, "invalid form data")
		return
	}

	amount, err := parseAmount(r.Form.Get("amount"))
	if err != nil {
		writeBadRequest(w, r, "invalid amount: "+err.Error())
		return
	}

	groupName := sanitizeInput(r.Form.Get("group_name"))
	e := core.GroupExpense{
		Description: sanitizeInput(r.Form.Get("description")),
		PaidBy:      sanitizeInput(r.Form.Get("paid_by")),
		Amount:      amount,
	}
	if v := strings.TrimSpace(r.Form.Get("date")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			writeBadRequest(w, r, "invalid date, want YYYY-MM-DD")
			return
		}
		e.Date = d
	}

	id, err := s.groups.AddGroupExpense(r.Context(), groupName, e)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if wantsJSON(r) {
		writeJSON(w, http.StatusCreated, map[string]any{
			"id":      id,
			"group":   groupName,
			"paid_by": e.PaidBy,
			"amount":  amount.String(),
		})
		return
	}
	w.WriteHeader(http.StatusCreated)
	_, _ = fmt.Fprintf(w, `<div class="success">Group expense recorded: %s paid %s for %s</div>`,
		template.HTMLEscapeString(e.PaidBy),
		formatEuros(amount.Cents),
		template.HTMLEscapeString(e.Description))
}

// balanceRow is one rendered member line of the settlement report.
type balanceRow struct {
	Email   string
	Balance string
	// Owes is true when the member's net position is negative.
	Owes bool
}

type historyRow struct {
	Date        string
	Description string
	PaidBy      string
	Amount      string
}

func (s *Server) handleGroupReport(w http.ResponseWriter, r *http.Request) {
	groupName := strings.TrimSpace(r.URL.Query().Get("group_name"))
	if groupName == "" {
		writeBadRequest(w, r, "group_name query parameter is required")
		return
	}

	settlement, err := s.groups.Report(r.Context(), groupName)
	if err != nil {
		writeError(w, r, err)
		return
	}

	// Stable member order for rendering and JSON output.
	emails := make([]string, 0, len(settlement.Balances))
	for email := range settlement.Balances {
		emails = append(emails, email)
	}
	sort.Strings(emails)

	if wantsJSON(r) {
		balances := make(map[string]string, len(settlement.Balances))
		for email, b := range settlement.Balances {
			balances[email] = b.String()
		}
		history := make([]map[string]string, 0, len(settlement.History))
		for _, e := range settlement.History {
			history = append(history, map[string]string{
				"date":        e.Date.String(),
				"description": e.Description,
				"paid_by":     e.PaidBy,
				"amount":      e.Amount.String(),
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"group":      groupName,
			"total":      settlement.Total.String(),
			"fair_share": settlement.FairShare.String(),
			"balances":   balances,
			"history":    history,
		})
		return
	}

	data := struct {
		Group     string
		Total     string
		FairShare string
		Balances  []balanceRow
		History   []historyRow
	}{
		Group:     groupName,
		Total:     formatEuros(settlement.Total.Cents),
		FairShare: formatEuros(settlement.FairShare.Cents),
	}
	for _, email := range emails {
		b := settlement.Balances[email]
		data.Balances = append(data.Balances, balanceRow{
			Email:   email,
			Balance: formatEuros(b.Cents),
			Owes:    b.Cents < 0,
		})
	}
	for _, e := range settlement.History {
		data.History = append(data.History, historyRow{
			Date:        e.Date.String(),
			Description: e.Description,
			PaidBy:      e.PaidBy,
			Amount:      formatEuros(e.Amount.Cents),
		})
	}
	s.renderPage(w, r, "group_report.html", data)
}
