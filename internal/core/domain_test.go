package core

import (
	"errors"
	"strings"
	"testing"
)

func TestDraftSplitValidate(t *testing.T) {
	groceries := Category{ID: "cat-1", Name: "Groceries"}

	tests := []struct {
		name    string
		draft   DraftSplit
		wantErr error
	}{
		{
			name:  "valid draft",
			draft: DraftSplit{RawAmount: "30.00", Category: groceries},
		},
		{
			name:    "empty amount",
			draft:   DraftSplit{RawAmount: "", Category: groceries},
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "zero amount",
			draft:   DraftSplit{RawAmount: "0", Category: groceries},
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "missing category",
			draft:   DraftSplit{RawAmount: "30.00"},
			wantErr: ErrMissingCategory,
		},
		{
			name: "description too long",
			draft: DraftSplit{
				RawAmount:   "30.00",
				Category:    groceries,
				Description: strings.Repeat("x", MaxDescriptionLen+1),
			},
			wantErr: ErrDescriptionTooLong,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.draft.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				if !tt.draft.Valid() {
					t.Error("Valid() = false for valid draft")
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSplitTypeIsValid(t *testing.T) {
	for _, st := range []SplitType{SplitAmount, SplitPercentage, SplitShares} {
		if !st.IsValid() {
			t.Errorf("SplitType(%q).IsValid() = false", st)
		}
	}
	if SplitType("EQUAL").IsValid() {
		t.Error("unknown split type reported valid")
	}
}

func TestHasVariableRecurrence(t *testing.T) {
	txn := Transaction{}
	if txn.HasVariableRecurrence() {
		t.Error("transaction without recurrence reported variable")
	}
	txn.Recurrence = &Recurrence{Frequency: "monthly"}
	if txn.HasVariableRecurrence() {
		t.Error("fixed recurrence reported variable")
	}
	txn.Recurrence.VariableAmount = true
	if !txn.HasVariableRecurrence() {
		t.Error("variable recurrence not detected")
	}
}
