// Package ledger maintains the ordered list of draft child transactions for a
// single split and derives the aggregates the wizard and UI read on every
// keystroke.
package ledger

import (
	"errors"

	"fintrack/internal/core"
)

// ErrIndexOutOfRange is returned when an operation targets a draft that does
// not exist.
var ErrIndexOutOfRange = errors.New("draft index out of range")

// NoExpansion is the expanded index when no draft is open.
const NoExpansion = -1

// Aggregates are recomputed on every query, never cached, so they stay correct
// under rapid sequential edits.
type Aggregates struct {
	// Remaining is the parent total minus the sum of all draft amounts. It may
	// go negative when the user over-allocates; the ledger only reports it,
	// the review policy decides whether that blocks commit.
	Remaining core.Money

	// TotalSplit is the sum of all draft amounts.
	TotalSplit core.Money

	// Valid means at least one draft exists and every draft is valid.
	Valid bool
}

// Ledger holds the drafts for one parent transaction. Not safe for concurrent
// use; a wizard session owns exactly one.
type Ledger struct {
	total          core.Money
	parentCategory core.Category
	drafts         []core.DraftSplit
	expanded       int
}

// New creates an empty ledger for a parent of the given total amount. New
// drafts default to the parent's category.
func New(total core.Money, parentCategory core.Category) *Ledger {
	return &Ledger{
		total:          total,
		parentCategory: parentCategory,
		expanded:       NoExpansion,
	}
}

// Add appends a fresh draft defaulting to the parent category and makes it the
// expanded entry.
func (l *Ledger) Add() {
	l.drafts = append(l.drafts, core.DraftSplit{Category: l.parentCategory})
	l.expanded = len(l.drafts) - 1
}

// SetAmount replaces one draft's raw amount. Only strings matching the
// unsigned-decimal pattern are accepted; the empty string is fine while the
// user is still typing.
func (l *Ledger) SetAmount(index int, raw string) error {
	if err := l.check(index); err != nil {
		return err
	}
	if !core.ValidRawAmount(raw) {
		return core.ErrInvalidAmount
	}
	l.drafts[index].RawAmount = raw
	return nil
}

// SetDescription replaces one draft's description.
func (l *Ledger) SetDescription(index int, text string) error {
	if err := l.check(index); err != nil {
		return err
	}
	if len(text) > core.MaxDescriptionLen {
		return core.ErrDescriptionTooLong
	}
	l.drafts[index].Description = text
	return nil
}

// SetCategory replaces one draft's category.
func (l *Ledger) SetCategory(index int, c core.Category) error {
	if err := l.check(index); err != nil {
		return err
	}
	l.drafts[index].Category = c
	return nil
}

// Remove deletes a draft. If the removed draft was expanded, expansion moves
// to the previous entry, or away entirely when the list empties.
func (l *Ledger) Remove(index int) error {
	if err := l.check(index); err != nil {
		return err
	}
	l.drafts = append(l.drafts[:index], l.drafts[index+1:]...)
	switch {
	case len(l.drafts) == 0:
		l.expanded = NoExpansion
	case l.expanded == index:
		l.expanded = max(0, index-1)
	case l.expanded > index:
		l.expanded--
	}
	return nil
}

// SetExpanded opens exactly one draft (accordion semantics) or none with
// NoExpansion.
func (l *Ledger) SetExpanded(index int) error {
	if index != NoExpansion {
		if err := l.check(index); err != nil {
			return err
		}
	}
	l.expanded = index
	return nil
}

// Expanded returns the index of the open draft, or NoExpansion.
func (l *Ledger) Expanded() int {
	return l.expanded
}

// Len returns the number of drafts.
func (l *Ledger) Len() int {
	return len(l.drafts)
}

// Drafts returns a copy of the current drafts in order.
func (l *Ledger) Drafts() []core.DraftSplit {
	out := make([]core.DraftSplit, len(l.drafts))
	copy(out, l.drafts)
	return out
}

// Total returns the parent amount the ledger reconciles against.
func (l *Ledger) Total() core.Money {
	return l.total
}

// Aggregates derives remaining amount, total split amount and overall
// validity from the current drafts.
func (l *Ledger) Aggregates() Aggregates {
	var sum core.Money
	valid := len(l.drafts) > 0
	for _, d := range l.drafts {
		sum = sum.Add(d.Amount())
		if !d.Valid() {
			valid = false
		}
	}
	return Aggregates{
		Remaining:  l.total.Sub(sum),
		TotalSplit: sum,
		Valid:      valid,
	}
}

func (l *Ledger) check(index int) error {
	if index < 0 || index >= len(l.drafts) {
		return ErrIndexOutOfRange
	}
	return nil
}
