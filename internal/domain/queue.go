package domain

import (
	"fmt"
	"time"
)

// OperationType identifies the kind of mutation buffered by the offline queue.
type OperationType string

const (
	OpCreateProduct  = OperationType("createProduct")
	OpUpdateProduct  = OperationType("updateProduct")
	OpDeleteProduct  = OperationType("deleteProduct")
	OpRecordMovement = OperationType("recordMovement")
	OpSaveProfile    = OperationType("saveProfile")
)

// QueueStatus is the lifecycle state of a queued operation.
type QueueStatus string

const (
	// StatusPending means the operation is buffered and eligible for the next
	// drain.
	StatusPending = QueueStatus("pending")
	// StatusSyncing means a drain attempt has the operation in flight. The
	// outcome must be awaited before the item can be removed or retried.
	StatusSyncing = QueueStatus("syncing")
	// StatusFailed means replay was rejected by the server. The item stays
	// queued and is retried only on explicit user action.
	StatusFailed = QueueStatus("failed")
)

// queueTransitions enumerates the allowed status transitions. Anything else
// (discarding mid-sync, retrying an item that never failed) is an error.
var queueTransitions = map[QueueStatus][]QueueStatus{
	StatusPending: {StatusSyncing},
	StatusSyncing: {StatusPending, StatusFailed},
	StatusFailed:  {StatusPending},
}

// QueuedOperation is one buffered mutation, tagged with a client-side issue
// timestamp. IssuedAt is the reference point for the last-write-wins check on
// product edits.
type QueuedOperation struct {
	ID       string        `json:"id"`
	Type     OperationType `json:"type"`
	IssuedAt time.Time     `json:"issued_at"`
	Status   QueueStatus   `json:"status"`
	Error    string        `json:"error,omitempty"`

	// Payload fields; which ones are meaningful depends on Type.
	ShopID            int64       `json:"shop_id,omitempty"`
	ProductID         int64       `json:"product_id,omitempty"`
	Name              string      `json:"name,omitempty"`
	Description       string      `json:"description,omitempty"`
	Quantity          int64       `json:"quantity,omitempty"`
	LowStockThreshold int64       `json:"low_stock_threshold,omitempty"`
	QuantityChange    int64       `json:"quantity_change,omitempty"`
	Profile           *UserProfile `json:"profile,omitempty"`
}

// Transition moves the operation to the given status, enforcing the allowed
// transitions of the queue state machine.
func (op *QueuedOperation) Transition(to QueueStatus) error {
	for _, allowed := range queueTransitions[op.Status] {
		if allowed == to {
			op.Status = to
			if to != StatusFailed {
				op.Error = ""
			}
			return nil
		}
	}
	return fmt.Errorf("invalid queue transition %s -> %s for operation %s", op.Status, to, op.ID)
}
