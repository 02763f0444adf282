// Package wizard implements the two-step flow (ENTRY -> REVIEW) shared by the
// split and share dialogs. A Wizard owns all in-flight state for one dialog
// session; nothing is shared ambiently and nothing is persisted until a plan
// is handed to the commit orchestrator.
package wizard

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"fintrack/internal/apportion"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/metadata"
)

const (
	ModeSplit Mode = "SPLIT"
	ModeShare Mode = "SHARE"
)

const (
	StepEntry  Step = "ENTRY"
	StepReview Step = "REVIEW"
)

const (
	// PolicyStrict blocks the review transition until the entry is complete
	// and, for splits, the remainder is non-negative.
	PolicyStrict Policy = "strict"

	// PolicyPermissive lets the user review anything; an over-allocated split
	// commits with the parent amount floored at zero.
	PolicyPermissive Policy = "permissive"
)

type (
	Mode   string
	Step   string
	Policy string
)

var (
	ErrWrongMode       = errors.New("command not valid for wizard mode")
	ErrWrongStep       = errors.New("command not valid in current step")
	ErrEntryIncomplete = errors.New("entry is not complete")
	ErrOverAllocated   = errors.New("split amounts exceed the transaction total")
	ErrUnknownCommand  = errors.New("unknown wizard command")
)

// ShareState holds the share-mode inputs. Personal and Owed are the computed
// money values; the remaining fields are raw scratch input per unit so a
// re-render never loses in-progress keystrokes.
type ShareState struct {
	SplitType core.SplitType
	Personal  core.Money
	Owed      core.Money

	AmountRaw   string
	Percentage  string
	YourShares  string
	TotalShares string
}

// SplitPlan is what REVIEW hands the commit orchestrator for a split.
type SplitPlan struct {
	// Parent is the transaction being decomposed, unmodified.
	Parent core.Transaction

	// Remaining is the parent's new amount, already floored at zero under the
	// permissive policy.
	Remaining core.Money

	// Drafts are the child candidates, all valid.
	Drafts []core.DraftSplit
}

// SharePlan is what REVIEW hands the commit orchestrator for a share.
type SharePlan struct {
	Transaction    core.Transaction
	Personal       core.Money
	Owed           core.Money
	Representation metadata.Representation
}

// Wizard is a single dialog session. Not safe for concurrent use.
type Wizard struct {
	txn    core.Transaction
	mode   Mode
	policy Policy
	step   Step

	ledger *ledger.Ledger
	share  ShareState
}

type Option func(*Wizard)

// WithPolicy selects the review-guard policy, strict by default.
func WithPolicy(p Policy) Option {
	return func(w *Wizard) { w.policy = p }
}

// New opens a wizard for one transaction. In share mode any previously
// persisted representation is reconstructed from the transaction's metadata;
// the stored personal and owed shares stay authoritative.
func New(txn core.Transaction, mode Mode, opts ...Option) *Wizard {
	w := &Wizard{policy: PolicyStrict, mode: mode}
	for _, opt := range opts {
		opt(w)
	}
	w.Reset(txn)
	return w
}

// Reset re-opens the wizard for a transaction with fresh state. A stale
// in-flight edit never leaks across transactions.
func (w *Wizard) Reset(txn core.Transaction) {
	w.txn = txn
	w.step = StepEntry
	w.ledger = ledger.New(txn.Amount, txn.Category)
	w.share = ShareState{SplitType: core.SplitAmount}

	if w.mode == ModeShare {
		rep := metadata.Decode(txn.ShareMetadata)
		w.share.SplitType = rep.SplitType
		w.share.Percentage = rep.Percentage
		w.share.YourShares = rep.YourShares
		w.share.TotalShares = rep.TotalShares
		w.share.Personal = txn.PersonalShare
		w.share.Owed = txn.OwedShare
		if rep.SplitType == core.SplitAmount && txn.PersonalShare.Cents != 0 {
			w.share.AmountRaw = txn.PersonalShare.String()
		}
	}
}

func (w *Wizard) Transaction() core.Transaction { return w.txn }
func (w *Wizard) Mode() Mode                    { return w.mode }
func (w *Wizard) Policy() Policy                { return w.policy }
func (w *Wizard) Step() Step                    { return w.step }
func (w *Wizard) Share() ShareState             { return w.share }
func (w *Wizard) Drafts() []core.DraftSplit     { return w.ledger.Drafts() }
func (w *Wizard) Expanded() int                 { return w.ledger.Expanded() }

// Aggregates re-derives remaining/total/validity from the current drafts.
func (w *Wizard) Aggregates() ledger.Aggregates {
	return w.ledger.Aggregates()
}

// Apply executes one transition command.
func (w *Wizard) Apply(cmd Command) error {
	switch c := cmd.(type) {
	case AddDraft:
		if err := w.entryCommand(ModeSplit); err != nil {
			return err
		}
		w.ledger.Add()
		return nil
	case SetDraftAmount:
		if err := w.entryCommand(ModeSplit); err != nil {
			return err
		}
		return w.ledger.SetAmount(c.Index, c.Raw)
	case SetDraftDescription:
		if err := w.entryCommand(ModeSplit); err != nil {
			return err
		}
		return w.ledger.SetDescription(c.Index, c.Text)
	case SetDraftCategory:
		if err := w.entryCommand(ModeSplit); err != nil {
			return err
		}
		return w.ledger.SetCategory(c.Index, c.Category)
	case RemoveDraft:
		if err := w.entryCommand(ModeSplit); err != nil {
			return err
		}
		return w.ledger.Remove(c.Index)
	case ExpandDraft:
		if err := w.entryCommand(ModeSplit); err != nil {
			return err
		}
		return w.ledger.SetExpanded(c.Index)

	case SetSplitType:
		if err := w.entryCommand(ModeShare); err != nil {
			return err
		}
		return w.setSplitType(c.Type)
	case SetShareAmount:
		if err := w.entryCommand(ModeShare); err != nil {
			return err
		}
		return w.setShareAmount(c.Raw)
	case SetPercentage:
		if err := w.entryCommand(ModeShare); err != nil {
			return err
		}
		return w.setPercentage(c.Raw)
	case SetYourShares:
		if err := w.entryCommand(ModeShare); err != nil {
			return err
		}
		return w.setShares(c.Raw, w.share.TotalShares)
	case SetTotalShares:
		if err := w.entryCommand(ModeShare); err != nil {
			return err
		}
		return w.setShares(w.share.YourShares, c.Raw)

	case RequestReview:
		return w.requestReview()
	case Back:
		if w.step != StepReview {
			return ErrWrongStep
		}
		w.step = StepEntry
		return nil
	default:
		return fmt.Errorf("%w: %T", ErrUnknownCommand, cmd)
	}
}

// entryCommand gates editing commands: correct mode, ENTRY step only.
func (w *Wizard) entryCommand(mode Mode) error {
	if w.mode != mode {
		return ErrWrongMode
	}
	if w.step != StepEntry {
		return ErrWrongStep
	}
	return nil
}

func (w *Wizard) setSplitType(st core.SplitType) error {
	if !st.IsValid() {
		return core.ErrInvalidSplitType
	}
	// Switching units always starts from scratch, even back to the same unit.
	w.share = ShareState{SplitType: st}
	return nil
}

func (w *Wizard) setShareAmount(raw string) error {
	if w.share.SplitType != core.SplitAmount {
		return core.ErrInvalidSplitType
	}
	value, err := core.ParseAmount(raw)
	if err != nil {
		return err
	}
	w.share.AmountRaw = raw
	w.share.Personal, w.share.Owed = apportion.FromAmount(w.txn.Amount, value)
	return nil
}

func (w *Wizard) setPercentage(raw string) error {
	if w.share.SplitType != core.SplitPercentage {
		return core.ErrInvalidSplitType
	}
	pct, err := parsePercentage(raw)
	if err != nil {
		return err
	}
	personal, owed, clamped := apportion.FromPercentage(w.txn.Amount, pct)
	w.share.Personal, w.share.Owed = personal, owed
	if clamped == pct {
		w.share.Percentage = raw
	} else {
		w.share.Percentage = strconv.FormatFloat(clamped, 'f', -1, 64)
	}
	return nil
}

func (w *Wizard) setShares(yoursRaw, totalRaw string) error {
	if w.share.SplitType != core.SplitShares {
		return core.ErrInvalidSplitType
	}
	yours, err := parseShareCount(yoursRaw)
	if err != nil {
		return err
	}
	all, err := parseShareCount(totalRaw)
	if err != nil {
		return err
	}
	// Scratch always reflects what was typed, even when the ratio is not yet
	// computable.
	w.share.YourShares = yoursRaw
	w.share.TotalShares = totalRaw
	if personal, owed, ok := apportion.FromShares(w.txn.Amount, yours, all); ok {
		w.share.Personal, w.share.Owed = personal, owed
	}
	return nil
}

func (w *Wizard) requestReview() error {
	if w.step != StepEntry {
		return ErrWrongStep
	}
	if w.policy == PolicyStrict {
		if err := w.entryComplete(); err != nil {
			return err
		}
	}
	w.step = StepReview
	return nil
}

// entryComplete is the strict review guard.
func (w *Wizard) entryComplete() error {
	if w.mode == ModeSplit {
		agg := w.ledger.Aggregates()
		if !agg.Valid {
			return ErrEntryIncomplete
		}
		if agg.Remaining.IsNegative() {
			return ErrOverAllocated
		}
		return nil
	}
	if !w.shareComplete() {
		return ErrEntryIncomplete
	}
	return nil
}

// shareComplete holds once a recalculation has produced shares reconciling to
// the total. After a unit switch both shares are zero and (for a non-zero
// total) the sum no longer matches, which is exactly "nothing entered yet".
func (w *Wizard) shareComplete() bool {
	return w.share.Personal.Cents+w.share.Owed.Cents == w.txn.Amount.Cents
}

// Representation captures how the user expressed the share, for persistence.
func (w *Wizard) Representation() metadata.Representation {
	rep := metadata.Representation{SplitType: w.share.SplitType}
	switch w.share.SplitType {
	case core.SplitPercentage:
		rep.Percentage = w.share.Percentage
	case core.SplitShares:
		rep.YourShares = w.share.YourShares
		rep.TotalShares = w.share.TotalShares
	}
	return rep
}

// SplitPlan builds the commit input for a split. Only available in REVIEW.
func (w *Wizard) SplitPlan() (SplitPlan, error) {
	if w.mode != ModeSplit {
		return SplitPlan{}, ErrWrongMode
	}
	if w.step != StepReview {
		return SplitPlan{}, ErrWrongStep
	}
	agg := w.ledger.Aggregates()
	if !agg.Valid {
		return SplitPlan{}, ErrEntryIncomplete
	}
	remaining := agg.Remaining
	if remaining.IsNegative() {
		// Permissive policy only: the parent amount bottoms out at zero.
		remaining = core.Money{}
	}
	return SplitPlan{
		Parent:    w.txn,
		Remaining: remaining,
		Drafts:    w.ledger.Drafts(),
	}, nil
}

// SharePlan builds the commit input for a share. Only available in REVIEW.
func (w *Wizard) SharePlan() (SharePlan, error) {
	if w.mode != ModeShare {
		return SharePlan{}, ErrWrongMode
	}
	if w.step != StepReview {
		return SharePlan{}, ErrWrongStep
	}
	if !w.shareComplete() {
		return SharePlan{}, ErrEntryIncomplete
	}
	return SharePlan{
		Transaction:    w.txn,
		Personal:       w.share.Personal,
		Owed:           w.share.Owed,
		Representation: w.Representation(),
	}, nil
}

// parsePercentage accepts unsigned decimal input with dot or comma.
func parsePercentage(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if !core.ValidRawAmount(raw) {
		return 0, core.ErrInvalidAmount
	}
	if raw == "" || raw == "." || raw == "," {
		return 0, nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
	if err != nil {
		return 0, core.ErrInvalidAmount
	}
	return v, nil
}

// parseShareCount accepts unsigned integer input; empty means not yet typed.
func parseShareCount(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return 0, core.ErrInvalidAmount
	}
	return v, nil
}
