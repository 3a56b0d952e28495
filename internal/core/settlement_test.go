package core

import (
	"errors"
	"testing"
)

func groupExpense(paidBy string, cents int64, date Date) GroupExpense {
	return GroupExpense{
		Description: "test",
		PaidBy:      paidBy,
		Amount:      Money{Cents: cents},
		Date:        date,
	}
}

func TestSettleEqualSplit(t *testing.T) {
	members := []string{"a@x.com", "b@x.com", "c@x.com"}
	expenses := []GroupExpense{
		groupExpense("a@x.com", 3000, NewDate(2025, 1, 10)),
	}

	s, err := Settle(members, expenses)
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	if s.Total.Cents != 3000 {
		t.Fatalf("total = %d, want 3000", s.Total.Cents)
	}
	if s.FairShare.Cents != 1000 {
		t.Fatalf("fair share = %d, want 1000", s.FairShare.Cents)
	}

	want := map[string]int64{"a@x.com": 2000, "b@x.com": -1000, "c@x.com": -1000}
	var sum int64
	for email, cents := range want {
		got, ok := s.Balances[email]
		if !ok {
			t.Fatalf("missing balance for %s", email)
		}
		if got.Cents != cents {
			t.Errorf("balance[%s] = %d, want %d", email, got.Cents, cents)
		}
		sum += got.Cents
	}
	if sum != 0 {
		t.Errorf("balances sum to %d, want 0", sum)
	}
}

func TestSettleNoMembers(t *testing.T) {
	_, err := Settle(nil, []GroupExpense{groupExpense("a@x.com", 100, NewDate(2025, 1, 1))})
	if !errors.Is(err, ErrNoMembers) {
		t.Fatalf("expected ErrNoMembers, got %v", err)
	}
}

func TestSettleNoExpenses(t *testing.T) {
	s, err := Settle([]string{"a@x.com", "b@x.com"}, nil)
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	for email, bal := range s.Balances {
		if bal.Cents != 0 {
			t.Errorf("balance[%s] = %d, want 0", email, bal.Cents)
		}
	}
	if len(s.Balances) != 2 {
		t.Fatalf("expected 2 balance entries, got %d", len(s.Balances))
	}
}

func TestSettleMultipleExpenses(t *testing.T) {
	members := []string{"a@x.com", "b@x.com"}
	expenses := []GroupExpense{
		groupExpense("a@x.com", 2500, NewDate(2025, 2, 1)),
		groupExpense("b@x.com", 1500, NewDate(2025, 2, 3)),
		groupExpense("a@x.com", 1000, NewDate(2025, 2, 5)),
	}

	s, err := Settle(members, expenses)
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	// total 5000, share 2500, a contributed 3500, b contributed 1500
	if got := s.Balances["a@x.com"].Cents; got != 1000 {
		t.Errorf("balance[a] = %d, want 1000", got)
	}
	if got := s.Balances["b@x.com"].Cents; got != -1000 {
		t.Errorf("balance[b] = %d, want -1000", got)
	}
	if len(s.History) != 3 {
		t.Fatalf("history length = %d, want 3", len(s.History))
	}
}

func TestSettleRoundsFairShareToCents(t *testing.T) {
	members := []string{"a@x.com", "b@x.com", "c@x.com"}
	expenses := []GroupExpense{
		groupExpense("a@x.com", 1000, NewDate(2025, 3, 1)), // 10.00 / 3 = 3.333...
	}

	s, err := Settle(members, expenses)
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	if s.FairShare.Cents != 333 {
		t.Fatalf("fair share = %d, want 333", s.FairShare.Cents)
	}
	// Sum is within one cent per member of zero.
	var sum int64
	for _, bal := range s.Balances {
		sum += bal.Cents
	}
	if sum < -int64(len(members)) || sum > int64(len(members)) {
		t.Errorf("balances sum %d outside rounding epsilon", sum)
	}
}

func TestSettleExternalPayer(t *testing.T) {
	members := []string{"a@x.com", "b@x.com"}
	expenses := []GroupExpense{
		groupExpense("outsider@x.com", 2000, NewDate(2025, 4, 1)),
	}

	s, err := Settle(members, expenses)
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	// Outsider's payment raises everyone's share but earns no share deduction.
	if got := s.Balances["outsider@x.com"].Cents; got != 2000 {
		t.Errorf("balance[outsider] = %d, want 2000", got)
	}
	if got := s.Balances["a@x.com"].Cents; got != -1000 {
		t.Errorf("balance[a] = %d, want -1000", got)
	}
	var sum int64
	for _, bal := range s.Balances {
		sum += bal.Cents
	}
	if sum != 0 {
		t.Errorf("balances sum to %d, want 0", sum)
	}
}
