package core

// BudgetStatus classifies monthly spend against a configured limit.
type BudgetStatus string

const (
	// StatusNoBudget means no limit is configured for the period. It is a
	// quiescent state, not an error, and never produces an alert.
	StatusNoBudget BudgetStatus = "no_budget"
	StatusOK       BudgetStatus = "ok"
	StatusWarning  BudgetStatus = "warning"
	StatusExceeded BudgetStatus = "exceeded"
)

// BudgetEvaluation is the result of comparing one period's cumulative spend
// to its configured limit.
type BudgetEvaluation struct {
	Status     BudgetStatus
	TotalSpent Money
	Limit      Money
}

// NeedsAlert reports whether the evaluation crosses a notification threshold.
func (e BudgetEvaluation) NeedsAlert() bool {
	return e.Status == StatusWarning || e.Status == StatusExceeded
}

// EvaluateBudget classifies spentCents against limitCents.
//
// Boundaries are exact in integer cents: spend equal to the limit is still
// "ok" against exceeded, and spend equal to 90% of the limit is still "ok"
// against warning. spent*10 > limit*9 is the overflow-safe form of
// spent > 0.9*limit.
func EvaluateBudget(limitCents, spentCents int64) BudgetStatus {
	switch {
	case spentCents > limitCents:
		return StatusExceeded
	case spentCents*10 > limitCents*9:
		return StatusWarning
	default:
		return StatusOK
	}
}

// Evaluate compares a period's cumulative spend to an optionally configured
// limit. hasBudget=false yields StatusNoBudget regardless of spend.
func Evaluate(limit Money, hasBudget bool, totalSpent Money) BudgetEvaluation {
	if !hasBudget {
		return BudgetEvaluation{Status: StatusNoBudget, TotalSpent: totalSpent}
	}
	return BudgetEvaluation{
		Status:     EvaluateBudget(limit.Cents, totalSpent.Cents),
		TotalSpent: totalSpent,
		Limit:      limit,
	}
}
