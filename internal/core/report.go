package core

// CategoryAmount is an amount aggregated under one category label.
type CategoryAmount struct {
	Category string
	Amount   Money
}

// UserReport is the per-user spending summary: all-time totals by category
// plus the budget limits configured for the current month.
type UserReport struct {
	Email      string
	Month      MonthKey
	ByCategory []CategoryAmount
	Total      Money
	Budgets    map[string]Money // category -> limit for Month
}
