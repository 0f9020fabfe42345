package wal

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/caffeinepub/rk-solutions/internal/domain"
)

func setupTestJournal(t *testing.T, maxSegmentSize, maxTotalSize int64) *Journal {
	t.Helper()
	dir := t.TempDir()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	journal, err := NewJournal(dir, maxSegmentSize, maxTotalSize, logger)
	if err != nil {
		t.Fatalf("failed to create journal: %v", err)
	}
	t.Cleanup(func() { journal.Close() })

	return journal
}

func queuedMovement(productID, change int64) domain.QueuedOperation {
	return domain.QueuedOperation{
		ID:             uuid.NewString(),
		Type:           domain.OpRecordMovement,
		Status:         domain.StatusPending,
		ProductID:      productID,
		QuantityChange: change,
	}
}

func TestJournal_WriteAndReplay(t *testing.T) {
	journal := setupTestJournal(t, 1024, 10*1024)

	ops := []domain.QueuedOperation{
		queuedMovement(1, 5),
		queuedMovement(1, -3),
		queuedMovement(2, 10),
	}

	for _, op := range ops {
		if err := journal.Write(context.Background(), op); err != nil {
			t.Fatalf("failed to write operation: %v", err)
		}
	}
	journal.Close() // Close to ensure data is flushed

	// Re-open the journal to simulate an agent restart.
	var err error
	journal, err = NewJournal(journal.dir, 1024, 10*1024, journal.logger)
	if err != nil {
		t.Fatalf("failed to re-open journal: %v", err)
	}

	var replayed []domain.QueuedOperation
	if err := journal.Replay(context.Background(), func(op domain.QueuedOperation) error {
		replayed = append(replayed, op)
		return nil
	}); err != nil {
		t.Fatalf("failed to replay operations: %v", err)
	}

	if len(replayed) != len(ops) {
		t.Fatalf("expected %d replayed operations, got %d", len(ops), len(replayed))
	}
	for i, op := range ops {
		if replayed[i].ID != op.ID || replayed[i].QuantityChange != op.QuantityChange {
			t.Errorf("replayed operation mismatch at index %d: got %+v, want %+v", i, replayed[i], op)
		}
	}
}

func TestJournal_SegmentRotation(t *testing.T) {
	// Set a very small segment size to force rotation.
	journal := setupTestJournal(t, 100, 4096)

	op := queuedMovement(1, 7)
	opBytes, _ := json.Marshal(op)
	opSize := len(opBytes)

	numWrites := (100 / opSize) + 2
	for i := 0; i < numWrites; i++ {
		if err := journal.Write(context.Background(), op); err != nil {
			t.Fatalf("failed to write operation: %v", err)
		}
	}

	segments, err := journal.getSortedSegments()
	if err != nil {
		t.Fatalf("failed to get segments: %v", err)
	}
	if len(segments) < 2 {
		t.Errorf("expected at least 2 segments, got %d", len(segments))
	}
}

func TestJournal_Truncate(t *testing.T) {
	journal := setupTestJournal(t, 1024, 1024)

	if err := journal.Write(context.Background(), queuedMovement(1, 3)); err != nil {
		t.Fatalf("failed to write operation: %v", err)
	}

	if err := journal.Truncate(context.Background()); err != nil {
		t.Fatalf("failed to truncate journal: %v", err)
	}

	segments, _ := journal.getSortedSegments()
	if len(segments) != 1 { // Truncate starts a fresh empty segment
		t.Fatalf("expected 1 segment after truncate, got %d", len(segments))
	}
	info, _ := os.Stat(segments[0])
	if info.Size() != 0 {
		t.Errorf("expected new segment to be empty, size is %d", info.Size())
	}
}

func TestJournal_MaxTotalSize(t *testing.T) {
	journal := setupTestJournal(t, 100, 150)

	var err error
	for i := 0; i < 5; i++ {
		err = journal.Write(context.Background(), queuedMovement(1, int64(i+1)))
		if err != nil {
			break
		}
	}

	if err == nil {
		t.Fatal("expected an error when writing beyond max total size, but got nil")
	}
}
