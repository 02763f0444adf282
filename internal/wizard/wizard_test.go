package wizard

import (
	"errors"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/metadata"
)

var (
	groceries = core.Category{ID: "cat-1", Name: "Groceries"}
	dining    = core.Category{ID: "cat-2", Name: "Dining"}
)

func splitTxn(cents int64) core.Transaction {
	return core.Transaction{
		ID:          "txn-1",
		Amount:      core.Money{Cents: cents},
		Category:    groceries,
		Description: "card payment",
		OccurredOn:  core.NewDate(2026, 8, 30),
		Type:        core.Debit,
		AccountID:   "acc-1",
	}
}

func apply(t *testing.T, w *Wizard, cmds ...Command) {
	t.Helper()
	for _, cmd := range cmds {
		if err := w.Apply(cmd); err != nil {
			t.Fatalf("Apply(%T) = %v", cmd, err)
		}
	}
}

func TestSplitFlowExampleScenario(t *testing.T) {
	w := New(splitTxn(10000), ModeSplit)

	apply(t, w,
		AddDraft{},
		SetDraftAmount{Index: 0, Raw: "30.00"},
		AddDraft{},
		SetDraftAmount{Index: 1, Raw: "45.00"},
		SetDraftCategory{Index: 1, Category: dining},
	)

	agg := w.Aggregates()
	if agg.Remaining.Cents != 2500 || agg.TotalSplit.Cents != 7500 || !agg.Valid {
		t.Fatalf("aggregates = %+v, want remaining 25.00, total 75.00, valid", agg)
	}

	apply(t, w, RequestReview{})
	if w.Step() != StepReview {
		t.Fatalf("step = %s, want REVIEW", w.Step())
	}

	plan, err := w.SplitPlan()
	if err != nil {
		t.Fatalf("SplitPlan: %v", err)
	}
	if plan.Remaining.Cents != 2500 {
		t.Errorf("plan remaining = %s, want 25.00", plan.Remaining)
	}
	if len(plan.Drafts) != 2 {
		t.Fatalf("plan has %d drafts, want 2", len(plan.Drafts))
	}
	if plan.Drafts[0].Category != groceries || plan.Drafts[1].Category != dining {
		t.Error("draft categories not preserved in plan")
	}
}

func TestStrictGuardBlocksReview(t *testing.T) {
	w := New(splitTxn(10000), ModeSplit)

	// No drafts at all.
	if err := w.Apply(RequestReview{}); !errors.Is(err, ErrEntryIncomplete) {
		t.Errorf("empty entry: err = %v, want ErrEntryIncomplete", err)
	}

	// Over-allocated.
	apply(t, w, AddDraft{}, SetDraftAmount{Index: 0, Raw: "150.00"})
	if err := w.Apply(RequestReview{}); !errors.Is(err, ErrOverAllocated) {
		t.Errorf("over-allocated: err = %v, want ErrOverAllocated", err)
	}
	if w.Step() != StepEntry {
		t.Errorf("step = %s after blocked review, want ENTRY", w.Step())
	}
}

func TestPermissiveFloorsParentAtZero(t *testing.T) {
	w := New(splitTxn(10000), ModeSplit, WithPolicy(PolicyPermissive))

	apply(t, w,
		AddDraft{},
		SetDraftAmount{Index: 0, Raw: "150.00"},
		RequestReview{}, // permissive: negative remainder does not block
	)

	plan, err := w.SplitPlan()
	if err != nil {
		t.Fatalf("SplitPlan: %v", err)
	}
	if plan.Remaining.Cents != 0 {
		t.Errorf("remaining = %s, want 0.00 floor", plan.Remaining)
	}
}

func TestBackReturnsToEntry(t *testing.T) {
	w := New(splitTxn(10000), ModeSplit)
	apply(t, w, AddDraft{}, SetDraftAmount{Index: 0, Raw: "10"}, RequestReview{})

	// Editing is rejected while reviewing.
	if err := w.Apply(AddDraft{}); !errors.Is(err, ErrWrongStep) {
		t.Errorf("edit in REVIEW: err = %v, want ErrWrongStep", err)
	}

	apply(t, w, Back{})
	if w.Step() != StepEntry {
		t.Fatalf("step = %s after Back, want ENTRY", w.Step())
	}
	if err := w.Apply(Back{}); !errors.Is(err, ErrWrongStep) {
		t.Errorf("Back in ENTRY: err = %v, want ErrWrongStep", err)
	}
}

func TestModeGating(t *testing.T) {
	split := New(splitTxn(10000), ModeSplit)
	if err := split.Apply(SetPercentage{Raw: "50"}); !errors.Is(err, ErrWrongMode) {
		t.Errorf("share command in split mode: err = %v, want ErrWrongMode", err)
	}

	share := New(splitTxn(10000), ModeShare)
	if err := share.Apply(AddDraft{}); !errors.Is(err, ErrWrongMode) {
		t.Errorf("split command in share mode: err = %v, want ErrWrongMode", err)
	}
}

func TestResetDiscardsInFlightState(t *testing.T) {
	w := New(splitTxn(10000), ModeSplit)
	apply(t, w, AddDraft{}, SetDraftAmount{Index: 0, Raw: "30"}, RequestReview{})

	other := splitTxn(5000)
	other.ID = "txn-2"
	w.Reset(other)

	if w.Step() != StepEntry {
		t.Errorf("step = %s after reset, want ENTRY", w.Step())
	}
	if len(w.Drafts()) != 0 {
		t.Errorf("drafts leaked across transactions: %d", len(w.Drafts()))
	}
	if w.Expanded() != ledger.NoExpansion {
		t.Errorf("expanded = %d after reset", w.Expanded())
	}
	if agg := w.Aggregates(); agg.Remaining.Cents != 5000 {
		t.Errorf("remaining = %s, want the new total", agg.Remaining)
	}
}

func TestShareByAmount(t *testing.T) {
	w := New(splitTxn(10000), ModeShare)

	apply(t, w, SetShareAmount{Raw: "30.00"})
	s := w.Share()
	if s.Personal.Cents != 3000 || s.Owed.Cents != 7000 {
		t.Errorf("shares = (%s, %s), want (30.00, 70.00)", s.Personal, s.Owed)
	}

	// Above the total clamps to the total.
	apply(t, w, SetShareAmount{Raw: "150.00"})
	s = w.Share()
	if s.Personal.Cents != 10000 || s.Owed.Cents != 0 {
		t.Errorf("clamped shares = (%s, %s), want (100.00, 0.00)", s.Personal, s.Owed)
	}
}

func TestShareByPercentage(t *testing.T) {
	w := New(splitTxn(10000), ModeShare)
	apply(t, w, SetSplitType{Type: core.SplitPercentage})

	apply(t, w, SetPercentage{Raw: "35"})
	s := w.Share()
	if s.Personal.Cents != 3500 || s.Owed.Cents != 6500 {
		t.Errorf("shares = (%s, %s), want (35.00, 65.00)", s.Personal, s.Owed)
	}
	if s.Percentage != "35" {
		t.Errorf("scratch percentage = %q, want the typed value", s.Percentage)
	}

	// Over 100 clamps, and the clamped value is what gets displayed.
	apply(t, w, SetPercentage{Raw: "150"})
	s = w.Share()
	if s.Personal.Cents != 10000 {
		t.Errorf("personal = %s, want 100.00", s.Personal)
	}
	if s.Percentage != "100" {
		t.Errorf("scratch percentage = %q, want clamped \"100\"", s.Percentage)
	}
}

func TestShareBySharesUnit(t *testing.T) {
	// 90.00 with 1 of 3 shares -> 30.00 personal, 60.00 owed.
	w := New(splitTxn(9000), ModeShare)
	apply(t, w,
		SetSplitType{Type: core.SplitShares},
		SetYourShares{Raw: "1"},
		SetTotalShares{Raw: "3"},
	)

	s := w.Share()
	if s.Personal.Cents != 3000 || s.Owed.Cents != 6000 {
		t.Errorf("shares = (%s, %s), want (30.00, 60.00)", s.Personal, s.Owed)
	}
	if s.Personal.Cents+s.Owed.Cents != 9000 {
		t.Error("share sum invariant broken")
	}
}

func TestInvalidSharesKeepPriorValues(t *testing.T) {
	w := New(splitTxn(9000), ModeShare)
	apply(t, w,
		SetSplitType{Type: core.SplitShares},
		SetYourShares{Raw: "1"},
		SetTotalShares{Raw: "3"},
	)

	// totalShares=0 with yourShares=5: no partial update, no NaN, no change.
	apply(t, w, SetTotalShares{Raw: "0"}, SetYourShares{Raw: "5"})
	s := w.Share()
	if s.Personal.Cents != 3000 || s.Owed.Cents != 6000 {
		t.Errorf("shares changed on invalid input: (%s, %s)", s.Personal, s.Owed)
	}
	// The scratch still shows what was typed.
	if s.YourShares != "5" || s.TotalShares != "0" {
		t.Errorf("scratch = (%q, %q), want typed values", s.YourShares, s.TotalShares)
	}
}

func TestUnitSwitchResets(t *testing.T) {
	w := New(splitTxn(9000), ModeShare)
	apply(t, w,
		SetSplitType{Type: core.SplitShares},
		SetYourShares{Raw: "1"},
		SetTotalShares{Raw: "3"},
		SetSplitType{Type: core.SplitPercentage},
	)

	s := w.Share()
	if s.Personal.Cents != 0 || s.Owed.Cents != 0 {
		t.Errorf("shares = (%s, %s) after unit switch, want zeros", s.Personal, s.Owed)
	}
	if s.Percentage != "" || s.YourShares != "" || s.TotalShares != "" || s.AmountRaw != "" {
		t.Errorf("scratch fields not cleared: %+v", s)
	}

	// A reset entry is incomplete under the strict guard.
	if err := w.Apply(RequestReview{}); !errors.Is(err, ErrEntryIncomplete) {
		t.Errorf("review after reset: err = %v, want ErrEntryIncomplete", err)
	}
}

func TestSharePlanCarriesRepresentation(t *testing.T) {
	w := New(splitTxn(9000), ModeShare)
	apply(t, w,
		SetSplitType{Type: core.SplitShares},
		SetYourShares{Raw: "1"},
		SetTotalShares{Raw: "3"},
		RequestReview{},
	)

	plan, err := w.SharePlan()
	if err != nil {
		t.Fatalf("SharePlan: %v", err)
	}
	want := metadata.Representation{SplitType: core.SplitShares, YourShares: "1", TotalShares: "3"}
	if plan.Representation != want {
		t.Errorf("representation = %+v, want %+v", plan.Representation, want)
	}
	if plan.Personal.Cents != 3000 || plan.Owed.Cents != 6000 {
		t.Errorf("plan shares = (%s, %s)", plan.Personal, plan.Owed)
	}
}

func TestShareHydrationFromMetadata(t *testing.T) {
	blob, err := metadata.Encode(metadata.Representation{
		SplitType: core.SplitPercentage, Percentage: "33.5",
	})
	if err != nil {
		t.Fatal(err)
	}
	txn := splitTxn(10000)
	txn.ShareMetadata = blob
	txn.PersonalShare = core.Money{Cents: 3350}
	txn.OwedShare = core.Money{Cents: 6650}

	w := New(txn, ModeShare)
	s := w.Share()
	if s.SplitType != core.SplitPercentage || s.Percentage != "33.5" {
		t.Errorf("representation not reconstructed: %+v", s)
	}
	// Stored money values are authoritative, not recomputed.
	if s.Personal.Cents != 3350 || s.Owed.Cents != 6650 {
		t.Errorf("shares = (%s, %s), want stored values", s.Personal, s.Owed)
	}
}

func TestShareHydrationFromGarbageMetadata(t *testing.T) {
	txn := splitTxn(10000)
	txn.ShareMetadata = "{{{not json"

	w := New(txn, ModeShare)
	if w.Share().SplitType != core.SplitAmount {
		t.Errorf("split type = %q, want AMOUNT default", w.Share().SplitType)
	}
}
