package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Debit  TransactionType = "DEBIT"
	Credit TransactionType = "CREDIT"
)

const (
	SplitAmount     SplitType = "AMOUNT"
	SplitPercentage SplitType = "PERCENTAGE"
	SplitShares     SplitType = "SHARES"
)

// MaxDescriptionLen bounds draft descriptions.
const MaxDescriptionLen = 100

type (
	TransactionType string

	// SplitType is the unit a user chose to express an apportionment in.
	SplitType string

	Date struct {
		time.Time
	}

	Category struct {
		ID   string
		Name string
	}

	// Recurrence is owned by the external store; the engine only needs to
	// carry it through updates and null it out on refund.
	Recurrence struct {
		Frequency      string
		VariableAmount bool
	}

	// Transaction mirrors the subset of the external store's record that the
	// engine reads and writes.
	Transaction struct {
		ID          string
		Amount      Money
		Category    Category
		Description string
		OccurredOn  Date
		Type        TransactionType
		AccountID   string

		// Only meaningful once the transaction has been apportioned.
		PersonalShare Money
		OwedShare     Money
		ShareMetadata string

		Recurrence *Recurrence
		Refunded   bool
	}

	// DraftSplit is an in-memory candidate child transaction. The amount stays
	// a raw string while the user types; arithmetic always goes through Amount.
	DraftSplit struct {
		RawAmount   string
		Description string
		Category    Category
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrMissingCategory    = errors.New("missing category")
	ErrDescriptionTooLong = errors.New("description too long")
	ErrInvalidSplitType   = errors.New("invalid split type")
)

func (tt TransactionType) IsValid() bool {
	switch tt {
	case Debit, Credit:
		return true
	default:
		return false
	}
}

func (st SplitType) IsValid() bool {
	switch st {
	case SplitAmount, SplitPercentage, SplitShares:
		return true
	default:
		return false
	}
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (c Category) IsSet() bool {
	return strings.TrimSpace(c.ID) != "" || strings.TrimSpace(c.Name) != ""
}

// Amount returns the parsed draft amount, zero while the input is incomplete.
func (d DraftSplit) Amount() Money {
	m, err := ParseAmount(d.RawAmount)
	if err != nil {
		return Money{}
	}
	return m
}

// Validate reports why a draft is not yet committable.
func (d DraftSplit) Validate() error {
	m, err := ParseAmount(d.RawAmount)
	if err != nil {
		return err
	}
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	if !d.Category.IsSet() {
		return ErrMissingCategory
	}
	if len(d.Description) > MaxDescriptionLen {
		return ErrDescriptionTooLong
	}
	return nil
}

// Valid is the ledger's per-draft validity: amount > 0 and a category set.
func (d DraftSplit) Valid() bool {
	return d.Validate() == nil
}

// HasVariableRecurrence reports whether the transaction carries a recurrence
// with the variable-amount flag, which must survive a parent amount update.
func (t Transaction) HasVariableRecurrence() bool {
	return t.Recurrence != nil && t.Recurrence.VariableAmount
}
