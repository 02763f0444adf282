package session

import (
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/wizard"
)

func testTxn(id string) core.Transaction {
	return core.Transaction{
		ID:     id,
		Amount: core.Money{Cents: 10000},
		Type:   core.Debit,
	}
}

func TestCreateAndGet(t *testing.T) {
	s := NewStore(10, time.Minute, wizard.PolicyStrict)
	defer s.Close()

	sess := s.Create(testTxn("txn-1"), wizard.ModeSplit)
	if sess.ID == "" {
		t.Fatal("session id is empty")
	}
	if sess.TransactionID != "txn-1" {
		t.Errorf("TransactionID = %q", sess.TransactionID)
	}

	got, ok := s.Get(sess.ID)
	if !ok || got.ID != sess.ID {
		t.Fatalf("Get(%q) = %v, %v", sess.ID, got, ok)
	}

	if _, ok := s.Get("no-such-session"); ok {
		t.Error("Get returned a session for an unknown id")
	}
}

func TestSessionIDsAreUnique(t *testing.T) {
	s := NewStore(10, time.Minute, wizard.PolicyStrict)
	defer s.Close()

	a := s.Create(testTxn("txn-1"), wizard.ModeSplit)
	b := s.Create(testTxn("txn-1"), wizard.ModeShare)
	if a.ID == b.ID {
		t.Error("two sessions share an id")
	}
}

func TestDelete(t *testing.T) {
	s := NewStore(10, time.Minute, wizard.PolicyStrict)
	defer s.Close()

	sess := s.Create(testTxn("txn-1"), wizard.ModeSplit)
	s.Delete(sess.ID)
	if _, ok := s.Get(sess.ID); ok {
		t.Error("deleted session still retrievable")
	}
}

func TestLRUBoundEvictsOldest(t *testing.T) {
	s := NewStore(2, time.Minute, wizard.PolicyStrict)
	defer s.Close()

	first := s.Create(testTxn("txn-1"), wizard.ModeSplit)
	second := s.Create(testTxn("txn-2"), wizard.ModeSplit)
	third := s.Create(testTxn("txn-3"), wizard.ModeSplit)

	if _, ok := s.Get(first.ID); ok {
		t.Error("oldest session survived past the LRU bound")
	}
	for _, id := range []string{second.ID, third.ID} {
		if _, ok := s.Get(id); !ok {
			t.Errorf("recent session %s evicted", id)
		}
	}
}

func TestExpiry(t *testing.T) {
	s := NewStore(10, 10*time.Millisecond, wizard.PolicyStrict)
	defer s.Close()

	sess := s.Create(testTxn("txn-1"), wizard.ModeSplit)
	time.Sleep(20 * time.Millisecond)
	if _, ok := s.Get(sess.ID); ok {
		t.Error("expired session still retrievable")
	}
}

func TestStorePolicyReachesWizard(t *testing.T) {
	s := NewStore(10, time.Minute, wizard.PolicyPermissive)
	defer s.Close()

	sess := s.Create(testTxn("txn-1"), wizard.ModeSplit)
	w := sess.Wizard

	// Over-allocation passes review only under the permissive policy.
	for _, cmd := range []wizard.Command{
		wizard.AddDraft{},
		wizard.SetDraftAmount{Index: 0, Raw: "150.00"},
		wizard.RequestReview{},
	} {
		if err := w.Apply(cmd); err != nil {
			t.Fatalf("Apply(%T) = %v", cmd, err)
		}
	}
}
