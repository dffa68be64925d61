package core

import (
	"errors"
	"strings"
	"time"
)

const (
	CategoryFood           Category = "food"
	CategoryTransport      Category = "transport"
	CategoryCommunications Category = "communications"
	CategoryIncome         Category = "income"
	CategoryOther          Category = "other"
)

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

type (
	// Category is a label from the closed classification set.
	Category string

	// Kind tells income from expense. It is derived from the amount sign and never stored.
	Kind string

	// Transaction is one ledger record. Amount is positive for income, negative for expense.
	Transaction struct {
		Timestamp time.Time
		Amount    Money
		Note      string
		Category  Category
	}
)

var (
	ErrZeroAmount      = errors.New("amount cannot be zero")
	ErrZeroTimestamp   = errors.New("timestamp cannot be zero")
	ErrUnknownCategory = errors.New("unknown category")
	ErrAmountTooLarge  = errors.New("amount exceeds 1,000,000,000,000,000")
)

var categoryTitles = map[Category]string{
	CategoryFood:           "Oziq-ovqat",
	CategoryTransport:      "Transport",
	CategoryCommunications: "Aloqa",
	CategoryIncome:         "Daromad",
	CategoryOther:          "Boshqa",
}

// Categories returns the closed label set in classification priority order.
func Categories() []Category {
	return []Category{
		CategoryFood,
		CategoryTransport,
		CategoryCommunications,
		CategoryIncome,
		CategoryOther,
	}
}

// Valid reports whether c belongs to the closed label set.
func (c Category) Valid() bool {
	_, ok := categoryTitles[c]
	return ok
}

// Title returns the user-facing name of the category.
func (c Category) Title() string {
	if t, ok := categoryTitles[c]; ok {
		return t
	}
	return string(c)
}

// ParseCategory accepts either the label or its title, case-insensitively.
func ParseCategory(s string) (Category, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for c, title := range categoryTitles {
		if s == string(c) || s == strings.ToLower(title) {
			return c, nil
		}
	}
	return "", ErrUnknownCategory
}

// Title returns the Uzbek column value used in exports.
func (k Kind) Title() string {
	if k == KindIncome {
		return "Kirim"
	}
	return "Chiqim"
}

// Kind returns income for positive amounts and expense otherwise.
func (t Transaction) Kind() Kind {
	if t.Amount.Units > 0 {
		return KindIncome
	}
	return KindExpense
}

// Magnitude returns the absolute amount.
func (t Transaction) Magnitude() int64 {
	return t.Amount.Abs()
}

func (t Transaction) Validate() error {
	if t.Timestamp.IsZero() {
		return ErrZeroTimestamp
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if !t.Category.Valid() {
		return ErrUnknownCategory
	}
	return nil
}
