// Package commit realizes wizard decisions against the remote transaction
// store. A split is a two-phase operation: update the parent, then create the
// children. The two calls are not atomic; the journal keeps the partial state
// visible instead of hiding it.
package commit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/metadata"
	"fintrack/internal/store"
	"fintrack/internal/wizard"
)

const (
	KindSplit = "split"
	KindShare = "share"
)

const (
	StageUpdateParent   = "update_parent"
	StageCreateChildren = "create_children"
	StageUpdateShare    = "update_share"
)

// ErrChildrenNotCreated marks the known partial-failure state: the parent
// amount was reduced but the children were not created. Already-created state
// is never rolled back; the journal worker retries the children.
var ErrChildrenNotCreated = errors.New("parent updated but children not created")

// Recorder persists commit attempts so partial failures survive a crash.
type Recorder interface {
	Begin(ctx context.Context, kind, transactionID string, payload []byte) (int64, error)
	MarkParentUpdated(ctx context.Context, id int64) error
	MarkCompleted(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, stage, cause string) error
}

// Publisher announces committed decisions to downstream consumers.
type Publisher interface {
	TransactionSplit(ctx context.Context, parentID string, childIDs []string) error
	TransactionShared(ctx context.Context, transactionID string, personal, owed core.Money) error
}

type SplitResult struct {
	Parent   core.Transaction
	Children []core.Transaction
}

type ShareResult struct {
	Transaction core.Transaction
}

// Orchestrator sequences store calls for one commit at a time. Recorder and
// publisher are optional; a nil collaborator is skipped.
type Orchestrator struct {
	store     store.TransactionStore
	recorder  Recorder
	publisher Publisher
	timeout   time.Duration
}

func NewOrchestrator(s store.TransactionStore, recorder Recorder, publisher Publisher, timeout time.Duration) *Orchestrator {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Orchestrator{
		store:     s,
		recorder:  recorder,
		publisher: publisher,
		timeout:   timeout,
	}
}

// BuildChildren maps drafts to child transactions. Children inherit the
// parent's date, type and account; a blank description falls back to the
// parent's.
func BuildChildren(plan wizard.SplitPlan) []core.Transaction {
	children := make([]core.Transaction, len(plan.Drafts))
	for i, d := range plan.Drafts {
		desc := d.Description
		if desc == "" {
			desc = plan.Parent.Description
		}
		children[i] = core.Transaction{
			Amount:      d.Amount(),
			Category:    d.Category,
			Description: desc,
			OccurredOn:  plan.Parent.OccurredOn,
			Type:        plan.Parent.Type,
			AccountID:   plan.Parent.AccountID,
		}
	}
	return children
}

// CommitSplit performs the two-phase split. Phase 2 never runs when phase 1
// fails; a phase 2 failure returns ErrChildrenNotCreated with the journal
// entry left in the retryable state.
//
// The commit is detached from the caller's cancellation: a client disconnect
// mid-confirm must not abort between the two phases and manufacture a partial
// split. Only the commit timeout bounds it.
func (o *Orchestrator) CommitSplit(ctx context.Context, plan wizard.SplitPlan) (SplitResult, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.timeout)
	defer cancel()

	children := BuildChildren(plan)

	parent := plan.Parent
	parent.Amount = plan.Remaining
	// Recurrence (including the variable-amount flag) rides along unchanged.

	payload, err := (&SplitPayload{Parent: parent, Children: children}).ToJSON()
	if err != nil {
		return SplitResult{}, fmt.Errorf("encode split payload: %w", err)
	}
	entryID := o.begin(ctx, KindSplit, parent.ID, payload)

	updatedParent, err := o.store.UpdateTransaction(ctx, parent)
	if err != nil {
		o.markFailed(ctx, entryID, StageUpdateParent, err)
		return SplitResult{}, fmt.Errorf("update parent %s: %w", parent.ID, err)
	}
	o.markParentUpdated(ctx, entryID)

	created, err := o.store.CreateTransactions(ctx, children)
	if err != nil {
		o.markFailed(ctx, entryID, StageCreateChildren, err)
		return SplitResult{}, fmt.Errorf("%w: %v", ErrChildrenNotCreated, err)
	}
	o.markCompleted(ctx, entryID)

	childIDs := make([]string, len(created))
	for i, c := range created {
		childIDs[i] = c.ID
	}
	o.publishSplit(ctx, updatedParent.ID, childIDs)

	slog.InfoContext(ctx, "Split committed",
		"transaction_id", updatedParent.ID,
		"children", len(created),
		"remaining", plan.Remaining.String())

	return SplitResult{Parent: updatedParent, Children: created}, nil
}

// CommitShare merges the apportionment into the existing transaction with a
// single update. Detached from caller cancellation like CommitSplit.
func (o *Orchestrator) CommitShare(ctx context.Context, plan wizard.SharePlan) (ShareResult, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.timeout)
	defer cancel()

	blob, err := metadata.Encode(plan.Representation)
	if err != nil {
		return ShareResult{}, err
	}

	txn := plan.Transaction
	txn.PersonalShare = plan.Personal
	txn.OwedShare = plan.Owed
	txn.ShareMetadata = blob

	entryID := o.begin(ctx, KindShare, txn.ID, nil)

	updated, err := o.store.UpdateTransaction(ctx, txn)
	if err != nil {
		o.markFailed(ctx, entryID, StageUpdateShare, err)
		return ShareResult{}, fmt.Errorf("update share on %s: %w", txn.ID, err)
	}
	o.markCompleted(ctx, entryID)
	o.publishShared(ctx, updated.ID, plan.Personal, plan.Owed)

	slog.InfoContext(ctx, "Share committed",
		"transaction_id", updated.ID,
		"split_type", string(plan.Representation.SplitType),
		"personal", plan.Personal.String(),
		"owed", plan.Owed.String())

	return ShareResult{Transaction: updated}, nil
}

// MarkRefunded flags a transaction refunded and strips its recurrence: a
// refunded transaction must never continue to recur.
func (o *Orchestrator) MarkRefunded(ctx context.Context, txn core.Transaction) (core.Transaction, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.timeout)
	defer cancel()

	txn.Refunded = true
	txn.Recurrence = nil
	updated, err := o.store.UpdateTransaction(ctx, txn)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("mark refunded %s: %w", txn.ID, err)
	}
	return updated, nil
}

// ClearRefunded removes the refund flag. A recurrence stripped by a refund is
// not restored.
func (o *Orchestrator) ClearRefunded(ctx context.Context, txn core.Transaction) (core.Transaction, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.timeout)
	defer cancel()

	txn.Refunded = false
	updated, err := o.store.UpdateTransaction(ctx, txn)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("clear refunded %s: %w", txn.ID, err)
	}
	return updated, nil
}

// Journal and event calls are best effort: the commit itself must not fail
// because a local collaborator is down.

func (o *Orchestrator) begin(ctx context.Context, kind, txnID string, payload []byte) int64 {
	if o.recorder == nil {
		return 0
	}
	id, err := o.recorder.Begin(ctx, kind, txnID, payload)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to journal commit begin",
			"kind", kind, "transaction_id", txnID, "error", err)
		return 0
	}
	return id
}

func (o *Orchestrator) markParentUpdated(ctx context.Context, id int64) {
	if o.recorder == nil || id == 0 {
		return
	}
	if err := o.recorder.MarkParentUpdated(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to journal parent update", "journal_id", id, "error", err)
	}
}

func (o *Orchestrator) markCompleted(ctx context.Context, id int64) {
	if o.recorder == nil || id == 0 {
		return
	}
	if err := o.recorder.MarkCompleted(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to journal completion", "journal_id", id, "error", err)
	}
}

func (o *Orchestrator) markFailed(ctx context.Context, id int64, stage string, cause error) {
	if o.recorder == nil || id == 0 {
		return
	}
	if err := o.recorder.MarkFailed(ctx, id, stage, cause.Error()); err != nil {
		slog.ErrorContext(ctx, "Failed to journal failure",
			"journal_id", id, "stage", stage, "error", err)
	}
}

func (o *Orchestrator) publishSplit(ctx context.Context, parentID string, childIDs []string) {
	if o.publisher == nil {
		return
	}
	if err := o.publisher.TransactionSplit(ctx, parentID, childIDs); err != nil {
		slog.WarnContext(ctx, "Failed to publish split event",
			"transaction_id", parentID, "error", err)
	}
}

func (o *Orchestrator) publishShared(ctx context.Context, txnID string, personal, owed core.Money) {
	if o.publisher == nil {
		return
	}
	if err := o.publisher.TransactionShared(ctx, txnID, personal, owed); err != nil {
		slog.WarnContext(ctx, "Failed to publish share event",
			"transaction_id", txnID, "error", err)
	}
}
