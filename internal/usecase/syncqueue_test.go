package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/caffeinepub/rk-solutions/internal/adapter/repository/memory"
	"github.com/caffeinepub/rk-solutions/internal/adapter/repository/wal"
	"github.com/caffeinepub/rk-solutions/internal/domain"
	"github.com/caffeinepub/rk-solutions/internal/domain/mocks"
)

func newTestQueue(remote *mocks.MockRemote) (*SyncQueue, *mocks.MockJournal) {
	journal := &mocks.MockJournal{}
	queue := NewSyncQueue(remote, journal, "shop-owner", testLogger(), nil)
	return queue, journal
}

func TestEnqueue(t *testing.T) {
	ctx := context.Background()

	t.Run("assigns id and pending status", func(t *testing.T) {
		queue, journal := newTestQueue(&mocks.MockRemote{})

		id, err := queue.Enqueue(ctx, domain.QueuedOperation{Type: domain.OpRecordMovement, ProductID: 1, QuantityChange: 5})
		if err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
		if id == "" {
			t.Error("expected a generated id")
		}

		items := queue.Items()
		if len(items) != 1 {
			t.Fatalf("expected 1 item, got %d", len(items))
		}
		if items[0].Status != domain.StatusPending || items[0].IssuedAt.IsZero() {
			t.Errorf("unexpected item: %+v", items[0])
		}
		if len(journal.Entries) != 1 {
			t.Errorf("expected the operation journaled, got %d entries", len(journal.Entries))
		}
	})

	t.Run("unknown type is rejected", func(t *testing.T) {
		queue, _ := newTestQueue(&mocks.MockRemote{})
		if _, err := queue.Enqueue(ctx, domain.QueuedOperation{Type: "dropTable"}); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("zero movement change is rejected", func(t *testing.T) {
		queue, _ := newTestQueue(&mocks.MockRemote{})
		if _, err := queue.Enqueue(ctx, domain.QueuedOperation{Type: domain.OpRecordMovement, ProductID: 1}); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("journal failure refuses the operation", func(t *testing.T) {
		queue, journal := newTestQueue(&mocks.MockRemote{})
		journal.WriteErr = errors.New("disk full")
		if _, err := queue.Enqueue(ctx, domain.QueuedOperation{Type: domain.OpDeleteProduct, ProductID: 1}); err == nil {
			t.Error("expected enqueue to fail when journaling fails")
		}
		if queue.PendingCount() != 0 {
			t.Error("unjournaled operation must not be buffered")
		}
	})
}

func TestDrainFIFO(t *testing.T) {
	ctx := context.Background()
	remote := &mocks.MockRemote{}
	queue, journal := newTestQueue(remote)

	// Offline period: restock then partial sale, order matters.
	if _, err := queue.Enqueue(ctx, domain.QueuedOperation{Type: domain.OpRecordMovement, ProductID: 7, QuantityChange: 5}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if _, err := queue.Enqueue(ctx, domain.QueuedOperation{Type: domain.OpRecordMovement, ProductID: 7, QuantityChange: -3}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	report, err := queue.Drain(ctx)
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if report.Synced != 2 || report.Failed != 0 || report.Interrupted {
		t.Errorf("unexpected report: %+v", report)
	}
	if len(remote.Movements) != 2 {
		t.Fatalf("expected 2 replayed movements, got %d", len(remote.Movements))
	}
	if remote.Movements[0].QuantityChange != 5 || remote.Movements[1].QuantityChange != -3 {
		t.Errorf("movements replayed out of order: %+v", remote.Movements)
	}
	if len(queue.Items()) != 0 {
		t.Errorf("queue should be empty after a clean drain")
	}
	if len(journal.Entries) != 0 {
		t.Errorf("journal should be empty after a clean drain, got %d entries", len(journal.Entries))
	}
}

func TestDrainRejectionDoesNotBlockQueue(t *testing.T) {
	ctx := context.Background()
	remote := &mocks.MockRemote{MovementErr: domain.ErrInsufficientStock}
	queue, _ := newTestQueue(remote)

	if _, err := queue.Enqueue(ctx, domain.QueuedOperation{Type: domain.OpRecordMovement, ProductID: 7, QuantityChange: -3}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if _, err := queue.Enqueue(ctx, domain.QueuedOperation{Type: domain.OpDeleteProduct, ProductID: 8}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	report, err := queue.Drain(ctx)
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if report.Failed != 1 || report.Synced != 1 || report.Interrupted {
		t.Errorf("unexpected report: %+v", report)
	}
	if len(remote.DeletedProducts) != 1 {
		t.Error("the operation behind the failed one should still sync")
	}

	items := queue.Items()
	if len(items) != 1 {
		t.Fatalf("expected the failed item to stay queued, got %d items", len(items))
	}
	if items[0].Status != domain.StatusFailed || items[0].Error == "" {
		t.Errorf("failed item should carry its error: %+v", items[0])
	}
}

func TestDrainRemoteUnavailable(t *testing.T) {
	ctx := context.Background()
	remote := &mocks.MockRemote{MovementErr: domain.ErrRemoteUnavailable}
	queue, _ := newTestQueue(remote)

	if _, err := queue.Enqueue(ctx, domain.QueuedOperation{Type: domain.OpRecordMovement, ProductID: 7, QuantityChange: -3}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if _, err := queue.Enqueue(ctx, domain.QueuedOperation{Type: domain.OpDeleteProduct, ProductID: 8}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	report, err := queue.Drain(ctx)
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if !report.Interrupted {
		t.Error("expected the drain to report interruption")
	}
	if report.Synced != 0 || report.Failed != 0 {
		t.Errorf("nothing should have settled: %+v", report)
	}
	if queue.Online() {
		t.Error("queue should mark itself offline")
	}
	if len(remote.DeletedProducts) != 0 {
		t.Error("drain must stop at the transport failure, not skip ahead")
	}

	// Both items survive as pending; a later drain picks them both up.
	if queue.PendingCount() != 2 {
		t.Fatalf("expected 2 pending items, got %d", queue.PendingCount())
	}
	remote.MovementErr = nil
	queue.online.Store(true)
	report, err = queue.Drain(ctx)
	if err != nil {
		t.Fatalf("second Drain: %v", err)
	}
	if report.Synced != 2 {
		t.Errorf("expected full drain on retry, got %+v", report)
	}
}

func TestDrainSupersededEdit(t *testing.T) {
	ctx := context.Background()
	remote := &mocks.MockRemote{
		// The server-side edit is fresher than anything queued below.
		GetProductResult: &domain.Product{ID: 7, UpdatedAt: time.Now().Add(time.Hour)},
	}
	queue, _ := newTestQueue(remote)

	if _, err := queue.Enqueue(ctx, domain.QueuedOperation{Type: domain.OpUpdateProduct, ProductID: 7, Name: "Stale Name"}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	report, err := queue.Drain(ctx)
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if report.Superseded != 1 {
		t.Errorf("expected 1 superseded, got %+v", report)
	}
	if len(remote.UpdatedProducts) != 0 {
		t.Error("a superseded edit must not reach the server")
	}
	if len(queue.Items()) != 0 {
		t.Error("superseded edits are dropped, not retried")
	}
}

func TestDrainAppliesFresherEdit(t *testing.T) {
	ctx := context.Background()
	remote := &mocks.MockRemote{
		GetProductResult: &domain.Product{ID: 7, UpdatedAt: time.Now().Add(-time.Hour)},
	}
	queue, _ := newTestQueue(remote)

	if _, err := queue.Enqueue(ctx, domain.QueuedOperation{Type: domain.OpUpdateProduct, ProductID: 7, Name: "Fresh Name"}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	report, err := queue.Drain(ctx)
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if report.Synced != 1 {
		t.Errorf("expected the fresher edit applied, got %+v", report)
	}
	if len(remote.UpdatedProducts) != 1 || remote.UpdatedProducts[0].Name != "Fresh Name" {
		t.Errorf("unexpected update calls: %+v", remote.UpdatedProducts)
	}
}

func TestRetryAndDiscard(t *testing.T) {
	ctx := context.Background()
	remote := &mocks.MockRemote{MovementErr: domain.ErrInsufficientStock}
	queue, _ := newTestQueue(remote)

	id, err := queue.Enqueue(ctx, domain.QueuedOperation{Type: domain.OpRecordMovement, ProductID: 7, QuantityChange: -3})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	t.Run("pending items cannot be retried", func(t *testing.T) {
		if err := queue.Retry(ctx, id); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	if _, err := queue.Drain(ctx); err != nil {
		t.Fatalf("Drain: %v", err)
	}

	t.Run("failed items return to pending on retry", func(t *testing.T) {
		if err := queue.Retry(ctx, id); err != nil {
			t.Fatalf("Retry: %v", err)
		}
		items := queue.Items()
		if items[0].Status != domain.StatusPending || items[0].Error != "" {
			t.Errorf("retried item should be clean pending: %+v", items[0])
		}
	})

	t.Run("retried item syncs once the cause clears", func(t *testing.T) {
		remote.MovementErr = nil
		report, err := queue.Drain(ctx)
		if err != nil {
			t.Fatalf("Drain: %v", err)
		}
		if report.Synced != 1 {
			t.Errorf("expected retried item to sync, got %+v", report)
		}
	})

	t.Run("unknown ids", func(t *testing.T) {
		if err := queue.Retry(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("Retry: expected ErrNotFound, got %v", err)
		}
		if err := queue.Discard(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("Discard: expected ErrNotFound, got %v", err)
		}
	})

	t.Run("discard removes a pending item", func(t *testing.T) {
		id, err := queue.Enqueue(ctx, domain.QueuedOperation{Type: domain.OpDeleteProduct, ProductID: 9})
		if err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
		if err := queue.Discard(ctx, id); err != nil {
			t.Fatalf("Discard: %v", err)
		}
		if len(queue.Items()) != 0 {
			t.Error("discarded item still present")
		}
	})
}

// TestCrashMidFlightIsNotReapplied simulates the agent dying while a movement
// is in flight. The durable journal must already carry the syncing state at
// that point, so a restarted agent surfaces the item as failed for review
// instead of sending a movement the server may already have applied.
func TestCrashMidFlightIsNotReapplied(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	journal, err := wal.NewJournal(dir, 1024*1024, 4*1024*1024, testLogger())
	if err != nil {
		t.Fatalf("NewJournal: %v", err)
	}
	defer journal.Close()

	remote := &mocks.MockRemote{}
	queue := NewSyncQueue(remote, journal, "shop-owner", testLogger(), nil)

	if _, err := queue.Enqueue(ctx, domain.QueuedOperation{Type: domain.OpRecordMovement, ProductID: 7, QuantityChange: -3}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	// While the remote call is in flight, capture what a crash right now
	// would leave on disk and restart a second agent over the same journal.
	var journaledInFlight []domain.QueuedOperation
	var restored *SyncQueue
	restoredRemote := &mocks.MockRemote{}
	remote.MovementFn = func(ctx context.Context, productID, quantityChange int64) error {
		if err := journal.Replay(ctx, func(op domain.QueuedOperation) error {
			journaledInFlight = append(journaledInFlight, op)
			return nil
		}); err != nil {
			t.Errorf("Replay mid-flight: %v", err)
		}
		recoveredJournal, err := wal.NewJournal(dir, 1024*1024, 4*1024*1024, testLogger())
		if err != nil {
			t.Fatalf("reopen journal: %v", err)
		}
		restored = NewSyncQueue(restoredRemote, recoveredJournal, "shop-owner", testLogger(), nil)
		return restored.Restore(ctx)
	}

	if _, err := queue.Drain(ctx); err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if len(remote.Movements) != 1 {
		t.Fatalf("expected exactly one application, got %d", len(remote.Movements))
	}

	if len(journaledInFlight) != 1 || journaledInFlight[0].Status != domain.StatusSyncing {
		t.Fatalf("journal during the remote call = %+v, want one syncing entry", journaledInFlight)
	}

	items := restored.Items()
	if len(items) != 1 || items[0].Status != domain.StatusFailed || items[0].Error == "" {
		t.Fatalf("restored queue = %+v, want the item failed for manual review", items)
	}
	report, err := restored.Drain(ctx)
	if err != nil {
		t.Fatalf("restored Drain: %v", err)
	}
	if report.Synced != 0 || len(restoredRemote.Movements) != 0 {
		t.Errorf("restarted agent re-sent the movement: report %+v, %d calls", report, len(restoredRemote.Movements))
	}
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	journal := &mocks.MockJournal{
		Entries: []domain.QueuedOperation{
			{ID: "op-1", Type: domain.OpRecordMovement, ProductID: 1, QuantityChange: 5, Status: domain.StatusPending, IssuedAt: time.Now()},
			{ID: "op-2", Type: domain.OpUpdateProduct, ProductID: 1, Name: "X", Status: domain.StatusSyncing, IssuedAt: time.Now()},
			{ID: "op-3", Type: domain.OpDeleteProduct, ProductID: 2, Status: domain.StatusFailed, Error: "insufficient stock", IssuedAt: time.Now()},
		},
	}
	queue := NewSyncQueue(&mocks.MockRemote{}, journal, "shop-owner", testLogger(), nil)

	if err := queue.Restore(ctx); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	items := queue.Items()
	if len(items) != 3 {
		t.Fatalf("expected 3 restored items, got %d", len(items))
	}
	if items[0].Status != domain.StatusPending {
		t.Errorf("op-1 should stay pending: %+v", items[0])
	}
	// An operation caught mid-sync by the crash has an unknown outcome; it
	// must come back failed, never silently re-sent.
	if items[1].Status != domain.StatusFailed || items[1].Error == "" {
		t.Errorf("op-2 should be restored as failed with an explanation: %+v", items[1])
	}
	if items[2].Status != domain.StatusFailed || items[2].Error != "insufficient stock" {
		t.Errorf("op-3 should keep its failure: %+v", items[2])
	}
	if queue.PendingCount() != 1 {
		t.Errorf("PendingCount = %d, want 1", queue.PendingCount())
	}
}

// TestOfflineReplayAgainstLedger drains a queue built up offline against a
// real in-process ledger, including movements recorded server-side in the
// meantime by someone else at the counter.
func TestOfflineReplayAgainstLedger(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	guard := NewGuard(store, store, testLogger(), nil)
	ledger := NewLedger(store, store, guard, testLogger(), nil)
	facade := NewRemoteFacade(ledger, guard)

	shop := seedShop(t, store, "shop-owner", "Offline Shop")
	product, err := ledger.CreateProduct(ctx, "shop-owner", shop.ID, "Widget", "", 10, 3)
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}

	queue := NewSyncQueue(facade, &mocks.MockJournal{}, "shop-owner", testLogger(), nil)

	// Offline edits: restock +5, sell -3.
	if _, err := queue.Enqueue(ctx, domain.QueuedOperation{Type: domain.OpRecordMovement, ProductID: product.ID, QuantityChange: 5}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if _, err := queue.Enqueue(ctx, domain.QueuedOperation{Type: domain.OpRecordMovement, ProductID: product.ID, QuantityChange: -3}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	// Meanwhile the server recorded a direct sale.
	if _, err := ledger.RecordMovement(ctx, "shop-owner", product.ID, -4); err != nil {
		t.Fatalf("server-side RecordMovement: %v", err)
	}

	report, err := queue.Drain(ctx)
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if report.Synced != 2 {
		t.Fatalf("expected both offline movements applied, got %+v", report)
	}

	// 10 - 4 + 5 - 3 = 8, and the ledger invariant holds.
	got, err := ledger.GetProduct(ctx, "shop-owner", product.ID)
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	if got.Quantity != 8 {
		t.Errorf("quantity = %d, want 8", got.Quantity)
	}
	movements, _ := store.ListByProduct(ctx, product.ID)
	var sum int64
	for _, m := range movements {
		sum += m.QuantityChange
	}
	if sum != got.Quantity {
		t.Errorf("quantity %d diverged from movement sum %d", got.Quantity, sum)
	}
}

func TestHealthCheckDrainsOnRecovery(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	remote := &mocks.MockRemote{PingErr: domain.ErrRemoteUnavailable}
	queue, _ := newTestQueue(remote)

	if _, err := queue.Enqueue(ctx, domain.QueuedOperation{Type: domain.OpRecordMovement, ProductID: 7, QuantityChange: 5}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	go queue.StartHealthCheck(ctx, 10*time.Millisecond)

	// Wait until the failed ping is observed.
	deadline := time.Now().Add(2 * time.Second)
	for queue.Online() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if queue.Online() {
		t.Fatal("queue never noticed the remote going away")
	}

	// Recover the remote; the next ping should trigger a drain.
	remote.SetPingErr(nil)
	for queue.PendingCount() > 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if queue.PendingCount() != 0 {
		t.Fatal("queue did not drain after the remote recovered")
	}
	if len(remote.Movements) != 1 {
		t.Errorf("expected 1 replayed movement, got %d", len(remote.Movements))
	}
}
