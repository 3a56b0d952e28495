package core

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
)

type (
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// MonthKey is a 7-character YYYY-MM budget period key. Zero-padded so
	// lexicographic comparison matches chronological order.
	MonthKey string

	User struct {
		Email string
	}

	// Budget is a monthly spending limit for one (email, category, month)
	// triple. The triple is not unique in storage; lookups take the first row.
	Budget struct {
		ID       int64
		Email    string
		Category string
		Month    MonthKey
		Limit    Money
	}

	Expense struct {
		ID       int64
		Email    string
		Category string
		Amount   Money
		Date     Date
	}

	Group struct {
		ID   int64
		Name string
	}

	GroupMember struct {
		ID      int64
		GroupID int64
		Email   string
	}

	GroupExpense struct {
		ID          int64
		GroupID     int64
		Description string
		PaidBy      string
		Amount      Money
		Date        Date
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidEmail     = errors.New("invalid email address")
	ErrInvalidMonthKey  = errors.New("invalid month key, want YYYY-MM")
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyGroupName   = errors.New("empty group name")
)

// NewDate creates a Date at day granularity in UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current date truncated to day granularity.
func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// String renders the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

// MonthKey returns the budget period the date falls in.
func (d Date) MonthKey() MonthKey {
	return MonthKeyOf(d.Time)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// MonthKeyOf derives the month key for an arbitrary time, always rendered as
// 4-digit year, hyphen, 2-digit zero-padded month.
func MonthKeyOf(t time.Time) MonthKey {
	return MonthKey(fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month())))
}

// CurrentMonthKey is the period key for the current date; alert evaluation
// derives its period from the clock, not from caller input.
func CurrentMonthKey() MonthKey {
	return MonthKeyOf(time.Now())
}

func (m MonthKey) Validate() error {
	if len(m) != 7 || m[4] != '-' {
		return ErrInvalidMonthKey
	}
	if _, err := time.Parse("2006-01", string(m)); err != nil {
		return ErrInvalidMonthKey
	}
	return nil
}

func (m MonthKey) String() string { return string(m) }

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// ValidateEmail checks the address syntactically. Email is the user identity,
// so every reference runs through this before hitting storage.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmail
	}
	return nil
}

func (b Budget) Validate() error {
	if err := ValidateEmail(b.Email); err != nil {
		return err
	}
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if err := b.Month.Validate(); err != nil {
		return err
	}
	return b.Limit.Validate()
}

func (e Expense) Validate() error {
	if err := ValidateEmail(e.Email); err != nil {
		return err
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	return e.Date.Validate()
}

func (g Group) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyGroupName
	}
	return nil
}

func (e GroupExpense) Validate() error {
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if err := ValidateEmail(e.PaidBy); err != nil {
		return err
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	return e.Date.Validate()
}
