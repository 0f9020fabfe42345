package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/caffeinepub/rk-solutions/internal/adapter/metrics"
	"github.com/caffeinepub/rk-solutions/internal/domain"
)

// Drain outcomes per item.
const (
	OutcomeSynced     = "synced"
	OutcomeFailed     = "failed"
	OutcomeSuperseded = "superseded"
	// OutcomeDeferred marks an item that went back to pending because the
	// remote became unreachable; nothing was applied.
	OutcomeDeferred = "deferred"
)

// DrainOutcome reports what happened to one queued operation during a drain.
type DrainOutcome struct {
	OperationID string               `json:"operation_id"`
	Type        domain.OperationType `json:"type"`
	Outcome     string               `json:"outcome"`
	Error       string               `json:"error,omitempty"`
}

// DrainReport summarizes a drain attempt. Interrupted is set when the remote
// became unreachable mid-drain; the in-flight item was reverted to pending
// and the drain is safe to retry.
type DrainReport struct {
	Synced      int            `json:"synced"`
	Failed      int            `json:"failed"`
	Superseded  int            `json:"superseded"`
	Interrupted bool           `json:"interrupted"`
	Outcomes    []DrainOutcome `json:"outcomes"`
}

// SyncQueue buffers mutations issued while the remote service is unreachable
// and replays them FIFO on reconnect. One item is in flight at a time, so
// per-product movement ordering is preserved. A domain rejection fails that
// single item and the rest keep draining; a transport failure reverts the
// in-flight item to pending and stops the attempt.
//
// Every state change is persisted to the journal so the queue survives an
// agent restart.
type SyncQueue struct {
	remote  domain.Remote
	journal domain.QueueJournal
	caller  domain.Principal
	logger  *slog.Logger
	metrics *metrics.LedgerMetrics

	mu       sync.Mutex
	items    []*domain.QueuedOperation
	draining bool

	online atomic.Bool
}

// NewSyncQueue creates a queue draining to remote on behalf of caller.
// Metrics may be nil.
func NewSyncQueue(remote domain.Remote, journal domain.QueueJournal, caller domain.Principal, logger *slog.Logger, m *metrics.LedgerMetrics) *SyncQueue {
	q := &SyncQueue{
		remote:  remote,
		journal: journal,
		caller:  caller,
		logger:  logger.With("component", "sync_queue"),
		metrics: m,
	}
	q.online.Store(true)
	return q
}

// Restore reloads journaled operations after a restart. An operation that was
// journaled as syncing crashed mid-flight: its outcome is unknown, so it is
// restored as failed and left for the user to verify and retry, never
// silently re-sent.
func (q *SyncQueue) Restore(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.items = nil
	err := q.journal.Replay(ctx, func(op domain.QueuedOperation) error {
		if op.Status == domain.StatusSyncing {
			op.Status = domain.StatusFailed
			op.Error = "interrupted mid-sync; verify server state before retrying"
		}
		cp := op
		q.items = append(q.items, &cp)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to restore sync queue: %w", err)
	}
	q.gauge()
	q.logger.Info("sync queue restored", "items", len(q.items))
	return nil
}

// Enqueue buffers an operation. The id, issue timestamp, and pending status
// are assigned here; payload fields come from the caller.
func (q *SyncQueue) Enqueue(ctx context.Context, op domain.QueuedOperation) (string, error) {
	switch op.Type {
	case domain.OpCreateProduct, domain.OpUpdateProduct, domain.OpDeleteProduct,
		domain.OpRecordMovement, domain.OpSaveProfile:
	default:
		return "", fmt.Errorf("%w: unknown operation type %q", domain.ErrInvalidInput, op.Type)
	}
	if op.Type == domain.OpRecordMovement && op.QuantityChange == 0 {
		return "", fmt.Errorf("%w: quantity change must be non-zero", domain.ErrInvalidInput)
	}

	op.ID = uuid.NewString()
	op.IssuedAt = time.Now().UTC()
	op.Status = domain.StatusPending
	op.Error = ""

	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.journal.Write(ctx, op); err != nil {
		return "", fmt.Errorf("failed to journal operation: %w", err)
	}
	cp := op
	q.items = append(q.items, &cp)
	q.gauge()
	q.logger.Debug("operation queued", "operation_id", op.ID, "type", op.Type)
	return op.ID, nil
}

// Items returns a snapshot of the queue in FIFO order.
func (q *SyncQueue) Items() []domain.QueuedOperation {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := make([]domain.QueuedOperation, 0, len(q.items))
	for _, op := range q.items {
		items = append(items, *op)
	}
	return items
}

// PendingCount returns the number of operations awaiting drain.
func (q *SyncQueue) PendingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	count := 0
	for _, op := range q.items {
		if op.Status == domain.StatusPending {
			count++
		}
	}
	return count
}

// Retry flips a failed operation back to pending for the next drain. Only
// failed items can be retried.
func (q *SyncQueue) Retry(ctx context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	op := q.find(id)
	if op == nil {
		return domain.ErrNotFound
	}
	if op.Status != domain.StatusFailed {
		return fmt.Errorf("%w: only failed operations can be retried", domain.ErrInvalidInput)
	}
	if err := op.Transition(domain.StatusPending); err != nil {
		return err
	}
	return q.persistLocked(ctx)
}

// Discard abandons a queued operation. An in-flight item cannot be discarded:
// its outcome must be awaited to avoid duplicate application.
func (q *SyncQueue) Discard(ctx context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	op := q.find(id)
	if op == nil {
		return domain.ErrNotFound
	}
	if op.Status == domain.StatusSyncing {
		return fmt.Errorf("%w: operation %s is in flight", domain.ErrInvalidInput, id)
	}
	q.remove(id)
	q.gauge()
	return q.persistLocked(ctx)
}

// Drain replays all pending operations in FIFO order, one at a time. It
// returns a per-item report; the error is non-nil only for journal failures.
func (q *SyncQueue) Drain(ctx context.Context) (*DrainReport, error) {
	q.mu.Lock()
	if q.draining {
		q.mu.Unlock()
		return nil, fmt.Errorf("%w: drain already in progress", domain.ErrInvalidInput)
	}
	q.draining = true
	q.mu.Unlock()
	defer func() {
		q.mu.Lock()
		q.draining = false
		q.mu.Unlock()
	}()

	report := &DrainReport{}
	var journalErr error
	for {
		op, err := q.nextPending(ctx)
		if err != nil {
			journalErr = err
			break
		}
		if op == nil {
			break
		}

		outcome := q.dispatch(ctx, op)
		report.Outcomes = append(report.Outcomes, outcome)
		q.countOutcome(outcome.Outcome)

		switch outcome.Outcome {
		case OutcomeSynced:
			report.Synced++
		case OutcomeSuperseded:
			report.Superseded++
		case OutcomeFailed:
			report.Failed++
		}
		if report.Interrupted = !q.online.Load(); report.Interrupted {
			break
		}
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	q.gauge()
	if journalErr != nil {
		return report, journalErr
	}
	return report, q.persistLocked(ctx)
}

// nextPending marks the first pending item as syncing, journals the
// transition, and returns a copy. The in-flight state must hit disk before
// the remote call goes out: a crash mid-flight then restores the item as
// failed instead of re-sending an operation the server may already have
// applied.
func (q *SyncQueue) nextPending(ctx context.Context) (*domain.QueuedOperation, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, op := range q.items {
		if op.Status != domain.StatusPending {
			continue
		}
		if err := op.Transition(domain.StatusSyncing); err != nil {
			q.logger.Error("queue state machine violation", "error", err)
			return nil, nil
		}
		if err := q.persistLocked(ctx); err != nil {
			if terr := op.Transition(domain.StatusPending); terr != nil {
				q.logger.Error("queue state machine violation", "error", terr)
			}
			return nil, err
		}
		cp := *op
		return &cp, nil
	}
	return nil, nil
}

// dispatch replays one in-flight operation and settles its status.
func (q *SyncQueue) dispatch(ctx context.Context, op *domain.QueuedOperation) DrainOutcome {
	err := q.apply(ctx, op)

	q.mu.Lock()
	defer q.mu.Unlock()
	live := q.find(op.ID)
	if live == nil {
		// Cannot happen: in-flight items are not removable.
		return DrainOutcome{OperationID: op.ID, Type: op.Type, Outcome: OutcomeFailed, Error: "operation vanished mid-sync"}
	}

	var outcome DrainOutcome
	switch {
	case err == nil:
		q.remove(op.ID)
		outcome = DrainOutcome{OperationID: op.ID, Type: op.Type, Outcome: OutcomeSynced}

	case errors.Is(err, domain.ErrSuperseded):
		// A newer server-side edit wins; the stale queued edit is dropped.
		q.remove(op.ID)
		q.logger.Info("queued edit superseded", "operation_id", op.ID, "product_id", op.ProductID)
		outcome = DrainOutcome{OperationID: op.ID, Type: op.Type, Outcome: OutcomeSuperseded}

	case errors.Is(err, domain.ErrRemoteUnavailable):
		// Transport failure: the item goes back to pending and the drain
		// stops. Retrying is safe because nothing was applied.
		if terr := live.Transition(domain.StatusPending); terr != nil {
			q.logger.Error("queue state machine violation", "error", terr)
		}
		q.online.Store(false)
		q.logger.Warn("remote unavailable during drain", "operation_id", op.ID)
		outcome = DrainOutcome{OperationID: op.ID, Type: op.Type, Outcome: OutcomeDeferred, Error: err.Error()}

	default:
		// Domain rejection (insufficient stock, unauthorized, ...): this item
		// fails and stays queued for manual resolution; the rest continue.
		if terr := live.Transition(domain.StatusFailed); terr != nil {
			q.logger.Error("queue state machine violation", "error", terr)
		}
		live.Error = err.Error()
		q.logger.Warn("queued operation rejected", "operation_id", op.ID, "type", op.Type, "error", err)
		outcome = DrainOutcome{OperationID: op.ID, Type: op.Type, Outcome: OutcomeFailed, Error: err.Error()}
	}

	// Settle the item on disk before the next one goes out, so a crash
	// between items never resurrects an already-applied operation.
	if perr := q.persistLocked(ctx); perr != nil {
		q.logger.Error("failed to journal drain outcome", "operation_id", op.ID, "error", perr)
	}
	return outcome
}

// apply performs the remote call for one operation.
func (q *SyncQueue) apply(ctx context.Context, op *domain.QueuedOperation) error {
	switch op.Type {
	case domain.OpCreateProduct:
		_, err := q.remote.CreateProduct(ctx, q.caller, op.ShopID, op.Name, op.Description, op.Quantity, op.LowStockThreshold)
		return err

	case domain.OpUpdateProduct:
		// Last write wins by issue time: the queued edit applies only if it
		// was issued after the server's current edit time for the product.
		current, err := q.remote.GetProduct(ctx, q.caller, op.ProductID)
		if err != nil {
			return err
		}
		if !op.IssuedAt.After(current.UpdatedAt) {
			return domain.ErrSuperseded
		}
		return q.remote.UpdateProduct(ctx, q.caller, op.ProductID, op.Name, op.Description, op.LowStockThreshold)

	case domain.OpDeleteProduct:
		return q.remote.DeleteProduct(ctx, q.caller, op.ProductID)

	case domain.OpRecordMovement:
		return q.remote.RecordMovement(ctx, q.caller, op.ProductID, op.QuantityChange)

	case domain.OpSaveProfile:
		return q.remote.SaveProfile(ctx, q.caller, op.Profile)

	default:
		return fmt.Errorf("%w: unknown operation type %q", domain.ErrInvalidInput, op.Type)
	}
}

// Online reports the last observed remote reachability.
func (q *SyncQueue) Online() bool {
	return q.online.Load()
}

// StartHealthCheck pings the remote on the given interval and triggers a
// drain when connectivity comes back, the reconnect-detection path.
func (q *SyncQueue) StartHealthCheck(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	q.logger.Info("starting remote health check")
	for {
		select {
		case <-ctx.Done():
			q.logger.Info("stopping remote health check")
			return
		case <-ticker.C:
			err := q.remote.Ping(ctx)
			if err != nil {
				if q.online.CompareAndSwap(true, false) {
					q.logger.Warn("remote connection lost", "error", err)
				}
				continue
			}
			if q.online.CompareAndSwap(false, true) {
				q.logger.Info("remote connection recovered, draining queue")
				if _, err := q.Drain(ctx); err != nil {
					q.logger.Error("drain after reconnect failed", "error", err)
				}
			}
		}
	}
}

// persistLocked rewrites the journal from the current queue contents. Caller
// holds q.mu.
func (q *SyncQueue) persistLocked(ctx context.Context) error {
	if err := q.journal.Truncate(ctx); err != nil {
		return fmt.Errorf("failed to truncate journal: %w", err)
	}
	for _, op := range q.items {
		if err := q.journal.Write(ctx, *op); err != nil {
			return fmt.Errorf("failed to rewrite journal: %w", err)
		}
	}
	return nil
}

func (q *SyncQueue) find(id string) *domain.QueuedOperation {
	for _, op := range q.items {
		if op.ID == id {
			return op
		}
	}
	return nil
}

func (q *SyncQueue) remove(id string) {
	for i, op := range q.items {
		if op.ID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return
		}
	}
}

func (q *SyncQueue) gauge() {
	if q.metrics != nil {
		q.metrics.QueueDepth.Set(float64(len(q.items)))
	}
}

func (q *SyncQueue) countOutcome(outcome string) {
	if q.metrics != nil {
		q.metrics.DrainOutcomes.WithLabelValues(outcome).Inc()
	}
}
