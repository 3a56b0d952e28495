package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bilancio/internal/core"
	"bilancio/internal/storage"
)

// ErrPayerNotMember rejects a group expense whose payer is not in the group.
// Validating at write time keeps settlement free of orphan payers.
var ErrPayerNotMember = errors.New("payer is not a group member")

// GroupService covers group creation, shared expenses and the settlement
// report.
type GroupService struct {
	storage *storage.SQLiteRepository
}

func NewGroupService(st *storage.SQLiteRepository) *GroupService {
	return &GroupService{storage: st}
}

// CreateGroup creates the group and attaches its members. Member emails only
// need to be syntactically valid addresses; a group may include people who
// never registered individually.
func (s *GroupService) CreateGroup(ctx context.Context, name string, members []string) (core.Group, error) {
	g := core.Group{Name: strings.TrimSpace(name)}
	if err := g.Validate(); err != nil {
		return core.Group{}, err
	}

	var cleaned []string
	for _, m := range members {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		if err := core.ValidateEmail(m); err != nil {
			return core.Group{}, fmt.Errorf("member %q: %w", m, err)
		}
		cleaned = append(cleaned, m)
	}
	if len(cleaned) == 0 {
		return core.Group{}, core.ErrNoMembers
	}

	id, err := s.storage.CreateGroup(ctx, g.Name)
	if err != nil {
		return core.Group{}, err
	}
	g.ID = id

	for _, m := range cleaned {
		if err := s.storage.AddGroupMember(ctx, id, m); err != nil {
			return core.Group{}, fmt.Errorf("attach member %s: %w", m, err)
		}
	}

	return g, nil
}

// AddGroupExpense records a shared expense after confirming the group exists
// and the payer belongs to it.
func (s *GroupService) AddGroupExpense(ctx context.Context, groupName string, e core.GroupExpense) (int64, error) {
	if e.Date.IsZero() {
		e.Date = core.Today()
	}
	if err := e.Validate(); err != nil {
		return 0, err
	}

	g, err := s.storage.GroupByName(ctx, groupName)
	if err != nil {
		return 0, err
	}

	isMember, err := s.storage.IsGroupMember(ctx, g.ID, e.PaidBy)
	if err != nil {
		return 0, fmt.Errorf("check payer membership: %w", err)
	}
	if !isMember {
		return 0, fmt.Errorf("payer %s in group %s: %w", e.PaidBy, groupName, ErrPayerNotMember)
	}

	e.GroupID = g.ID
	return s.storage.CreateGroupExpense(ctx, e)
}

// Report resolves the group and computes the equal-split settlement over its
// full, date-ordered expense history.
func (s *GroupService) Report(ctx context.Context, groupName string) (core.Settlement, error) {
	g, err := s.storage.GroupByName(ctx, groupName)
	if err != nil {
		return core.Settlement{}, err
	}

	members, err := s.storage.GroupMembers(ctx, g.ID)
	if err != nil {
		return core.Settlement{}, fmt.Errorf("load members: %w", err)
	}

	expenses, err := s.storage.GroupExpenses(ctx, g.ID)
	if err != nil {
		return core.Settlement{}, fmt.Errorf("load expenses: %w", err)
	}

	return core.Settle(members, expenses)
}
