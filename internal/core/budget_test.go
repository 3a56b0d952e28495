package core

import "testing"

func TestEvaluateBudgetBoundaries(t *testing.T) {
	cases := []struct {
		name  string
		limit int64
		spent int64
		want  BudgetStatus
	}{
		{"well under", 10000, 5000, StatusOK},
		{"exactly 90 percent", 10000, 9000, StatusOK},
		{"one cent over 90 percent", 10000, 9001, StatusWarning},
		{"just under limit", 10000, 9999, StatusWarning},
		{"exactly at limit", 10000, 10000, StatusWarning},
		{"one cent over limit", 10000, 10001, StatusExceeded},
		{"zero spend", 10000, 0, StatusOK},
		{"odd limit 90 percent floor", 999, 899, StatusOK},  // 899*10=8990 <= 999*9=8991
		{"odd limit just over", 999, 900, StatusWarning},    // 9000 > 8991
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := EvaluateBudget(tc.limit, tc.spent); got != tc.want {
				t.Fatalf("EvaluateBudget(%d, %d) = %q, want %q", tc.limit, tc.spent, got, tc.want)
			}
		})
	}
}

func TestEvaluateSpendEqualToLimitIsNotExceeded(t *testing.T) {
	ev := Evaluate(Money{Cents: 5000}, true, Money{Cents: 5000})
	if ev.Status == StatusExceeded {
		t.Fatalf("spend equal to limit must not be exceeded, got %q", ev.Status)
	}
}

func TestEvaluateNoBudget(t *testing.T) {
	ev := Evaluate(Money{}, false, Money{Cents: 123456})
	if ev.Status != StatusNoBudget {
		t.Fatalf("expected %q, got %q", StatusNoBudget, ev.Status)
	}
	if ev.NeedsAlert() {
		t.Fatal("no_budget must never need an alert")
	}
}

func TestNeedsAlert(t *testing.T) {
	cases := []struct {
		status BudgetStatus
		want   bool
	}{
		{StatusNoBudget, false},
		{StatusOK, false},
		{StatusWarning, true},
		{StatusExceeded, true},
	}
	for _, tc := range cases {
		ev := BudgetEvaluation{Status: tc.status}
		if got := ev.NeedsAlert(); got != tc.want {
			t.Errorf("NeedsAlert(%q) = %v, want %v", tc.status, got, tc.want)
		}
	}
}
