package core

import "errors"

// ErrNoMembers is returned when settlement is requested for a group with an
// empty member list, instead of dividing by zero.
var ErrNoMembers = errors.New("group has no members")

// Settlement is the result of splitting a group's expense history equally
// across its members.
type Settlement struct {
	// Balances maps member email to net position in cents. Positive means the
	// member is owed money, negative means the member owes. Balances sum to
	// zero modulo cent rounding of the fair share.
	Balances map[string]Money

	// Total is the sum of all expense amounts.
	Total Money

	// FairShare is Total divided by the member count, rounded half-up to the
	// cent. Every expense benefits all members equally; there are no weighted
	// splits or per-expense participant subsets.
	FairShare Money

	// History is the expense list in chronological order, as supplied.
	History []GroupExpense
}

// Settle computes each member's net balance (contributed minus fair share)
// over the group's full expense history.
//
// expenses must already be ordered by date ascending; storage guarantees
// that. A payer missing from the member list is tolerated as an external
// contributor: the payment raises the total everyone shares, and the payer
// appears in the balance map with no share deducted, so the balances still
// sum to zero. Writes normally reject such payers before they reach storage.
func Settle(members []string, expenses []GroupExpense) (Settlement, error) {
	if len(members) == 0 {
		return Settlement{}, ErrNoMembers
	}

	contributed := make(map[string]int64, len(members))
	for _, m := range members {
		contributed[m] = 0
	}

	var total int64
	var external []string
	for _, e := range expenses {
		if _, ok := contributed[e.PaidBy]; !ok {
			external = append(external, e.PaidBy)
		}
		contributed[e.PaidBy] += e.Amount.Cents
		total += e.Amount.Cents
	}

	fairShare := divideRoundHalfUp(total, int64(len(members)))

	balances := make(map[string]Money, len(contributed))
	for _, m := range members {
		balances[m] = Money{Cents: contributed[m] - fairShare}
	}
	for _, p := range external {
		balances[p] = Money{Cents: contributed[p]}
	}

	return Settlement{
		Balances:  balances,
		Total:     Money{Cents: total},
		FairShare: Money{Cents: fairShare},
		History:   expenses,
	}, nil
}

// divideRoundHalfUp divides non-negative cents by n with half-up rounding.
func divideRoundHalfUp(cents, n int64) int64 {
	return (cents + n/2) / n
}
