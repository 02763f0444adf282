package journal

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fintrack/internal/commit"
	"fintrack/internal/store"
)

// AuditExporter receives completed commit entries for external audit. The
// Google Sheets adapter implements it; tests use an in-memory one.
type AuditExporter interface {
	Append(ctx context.Context, e Entry) (string, error)
}

// ProcessorConfig holds configuration for the journal processor
type ProcessorConfig struct {
	// PollInterval is how often to check for retryable entries (default: 10s)
	PollInterval time.Duration

	// BatchSize is the max number of entries to process per poll cycle (default: 10)
	BatchSize int

	// MaxRetries is the maximum retry attempts before abandoning an entry (default: 3)
	MaxRetries int

	// CleanupInterval is how often to clean up exported entries (default: 1h)
	CleanupInterval time.Duration

	// CleanupAge is how old exported entries must be before cleanup (default: 24h)
	CleanupAge time.Duration
}

// DefaultProcessorConfig returns sensible defaults
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		PollInterval:    10 * time.Second,
		BatchSize:       10,
		MaxRetries:      3,
		CleanupInterval: 1 * time.Hour,
		CleanupAge:      24 * time.Hour,
	}
}

// Processor drains the journal in the background: it re-creates the missing
// children of partially committed splits and pushes completed entries to the
// audit exporter.
type Processor struct {
	journal  *Journal
	store    store.TransactionStore
	exporter AuditExporter
	config   ProcessorConfig

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewProcessor(j *Journal, s store.TransactionStore, exporter AuditExporter, config ProcessorConfig) *Processor {
	return &Processor{
		journal:  j,
		store:    s,
		exporter: exporter,
		config:   config,
	}
}

// Start begins the processing loop. Returns an error if already running.
func (p *Processor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("journal processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Journal processor started",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize)

	return nil
}

// Stop gracefully stops the processor and waits for completion.
func (p *Processor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	close(p.stopCh)

	select {
	case <-p.doneCh:
		slog.InfoContext(ctx, "Journal processor stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Journal processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()

	return nil
}

// IsRunning returns whether the processor is currently running
func (p *Processor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Processor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	pollTicker := time.NewTicker(p.config.PollInterval)
	defer pollTicker.Stop()

	cleanupTicker := time.NewTicker(p.config.CleanupInterval)
	defer cleanupTicker.Stop()

	// Process immediately on startup
	p.processBatch(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-pollTicker.C:
			p.processBatch(ctx)
		case <-cleanupTicker.C:
			p.cleanup(ctx)
		}
	}
}

// processBatch retries partial splits, then exports completed entries.
func (p *Processor) processBatch(ctx context.Context) {
	p.retryPartialSplits(ctx)
	p.exportCompleted(ctx)
}

func (p *Processor) retryPartialSplits(ctx context.Context) {
	entries, err := p.journal.ListRetryable(ctx, commit.KindSplit, p.config.BatchSize)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to list retryable entries", "error", err)
		return
	}

	if len(entries) == 0 {
		return
	}

	slog.DebugContext(ctx, "Retrying partial splits", "count", len(entries))

	for _, entry := range entries {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		if err := p.retryEntry(ctx, entry); err != nil {
			p.handleFailure(ctx, entry, err)
		} else {
			p.handleSuccess(ctx, entry)
		}
	}
}

// retryEntry re-runs the create-children phase from the journaled payload.
func (p *Processor) retryEntry(ctx context.Context, entry Entry) error {
	payload, err := commit.SplitPayloadFromJSON(entry.Payload)
	if err != nil {
		return fmt.Errorf("decode payload of entry %d: %w", entry.ID, err)
	}

	created, err := p.store.CreateTransactions(ctx, payload.Children)
	if err != nil {
		return fmt.Errorf("create children for %s: %w", entry.TransactionID, err)
	}

	slog.InfoContext(ctx, "Recovered partial split",
		"journal_id", entry.ID,
		"transaction_id", entry.TransactionID,
		"children", len(created))

	return nil
}

func (p *Processor) handleSuccess(ctx context.Context, entry Entry) {
	if err := p.journal.MarkCompleted(ctx, entry.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to mark entry completed",
			"journal_id", entry.ID, "error", err)
	}
}

func (p *Processor) handleFailure(ctx context.Context, entry Entry, processErr error) {
	slog.WarnContext(ctx, "Split retry failed",
		"journal_id", entry.ID,
		"transaction_id", entry.TransactionID,
		"attempt", entry.Attempts+1,
		"error", processErr)

	if entry.Attempts+1 >= int64(p.config.MaxRetries) {
		if err := p.journal.MarkAbandoned(ctx, entry.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to abandon entry",
				"journal_id", entry.ID, "error", err)
		}
		return
	}

	if err := p.journal.IncrementAttempt(ctx, entry.ID, processErr.Error()); err != nil {
		slog.ErrorContext(ctx, "Failed to increment attempt",
			"journal_id", entry.ID, "error", err)
	}
}

func (p *Processor) exportCompleted(ctx context.Context) {
	if p.exporter == nil {
		return
	}

	entries, err := p.journal.ListUnexported(ctx, p.config.BatchSize)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to list unexported entries", "error", err)
		return
	}

	for _, entry := range entries {
		ref, err := p.exporter.Append(ctx, entry)
		if err != nil {
			slog.WarnContext(ctx, "Failed to export journal entry",
				"journal_id", entry.ID, "error", err)
			continue
		}
		if err := p.journal.MarkExported(ctx, entry.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to mark entry exported",
				"journal_id", entry.ID, "error", err)
			continue
		}
		slog.DebugContext(ctx, "Exported journal entry",
			"journal_id", entry.ID, "audit_ref", ref)
	}
}

func (p *Processor) cleanup(ctx context.Context) {
	cutoff := time.Now().Add(-p.config.CleanupAge)
	if err := p.journal.CleanupCompleted(ctx, cutoff); err != nil {
		slog.ErrorContext(ctx, "Failed to cleanup journal", "error", err)
	}
}
