package wizard

import "fintrack/internal/core"

// Command is the closed set of transitions a wizard accepts. Every command is
// handled by an explicit type switch in Apply; an unknown command is an error,
// not a silent no-op.
type Command interface {
	isCommand()
}

// Split-mode entry commands.
type (
	// AddDraft appends a new child draft defaulting to the parent category.
	AddDraft struct{}

	// SetDraftAmount replaces one draft's raw amount string.
	SetDraftAmount struct {
		Index int
		Raw   string
	}

	// SetDraftDescription replaces one draft's description.
	SetDraftDescription struct {
		Index int
		Text  string
	}

	// SetDraftCategory replaces one draft's category.
	SetDraftCategory struct {
		Index    int
		Category core.Category
	}

	// RemoveDraft deletes one draft.
	RemoveDraft struct {
		Index int
	}

	// ExpandDraft opens one draft (accordion), or none with ledger.NoExpansion.
	ExpandDraft struct {
		Index int
	}
)

// Share-mode entry commands.
type (
	// SetSplitType switches the input unit. Shares and all unit scratch
	// fields reset; stale cross-unit values are never shown.
	SetSplitType struct {
		Type core.SplitType
	}

	// SetShareAmount sets the personal share as an absolute amount.
	SetShareAmount struct {
		Raw string
	}

	// SetPercentage sets the personal share as a percentage of the total.
	SetPercentage struct {
		Raw string
	}

	// SetYourShares sets the owner's share count.
	SetYourShares struct {
		Raw string
	}

	// SetTotalShares sets the total share count.
	SetTotalShares struct {
		Raw string
	}
)

// Step transitions.
type (
	// RequestReview moves ENTRY -> REVIEW, guarded under the strict policy.
	RequestReview struct{}

	// Back moves REVIEW -> ENTRY.
	Back struct{}
)

func (AddDraft) isCommand()            {}
func (SetDraftAmount) isCommand()      {}
func (SetDraftDescription) isCommand() {}
func (SetDraftCategory) isCommand()    {}
func (RemoveDraft) isCommand()         {}
func (ExpandDraft) isCommand()         {}
func (SetSplitType) isCommand()        {}
func (SetShareAmount) isCommand()      {}
func (SetPercentage) isCommand()       {}
func (SetYourShares) isCommand()       {}
func (SetTotalShares) isCommand()      {}
func (RequestReview) isCommand()       {}
func (Back) isCommand()                {}
