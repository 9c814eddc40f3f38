package store

import (
	"context"
	"time"

	"github.com/pylin/shelflife/models"
)

// QueueRepository is the durable retry queue. Entries survive restarts and
// keep their enqueue order; identifiers are monotonically increasing so FIFO
// replay can simply walk ids upward.
//
// Resolved entries stay in the queue as an audit trail until PruneResolved
// removes them.
type QueueRepository interface {
	// Enqueue appends a new entry. A zero entry ID is assigned by the
	// repository; EnqueuedAt defaults to now. Returns the stored entry.
	Enqueue(ctx context.Context, entry models.QueueEntry) (models.QueueEntry, error)

	// Replace overwrites the entry with entry.ID in place, preserving its
	// queue position. Returns ErrQueueEntryNotFound for unknown ids.
	Replace(ctx context.Context, entry models.QueueEntry) error

	// Get returns a single entry by id.
	Get(ctx context.Context, id int64) (models.QueueEntry, error)

	// ListPending returns all unresolved entries of both kinds in enqueue
	// order.
	ListPending(ctx context.Context) ([]models.QueueEntry, error)

	// MarkResolved flags an entry as synced at the given time and advances
	// the last-sync marker. Resolving an already-resolved entry is a no-op.
	MarkResolved(ctx context.Context, id int64, at time.Time) error

	// PruneResolved removes every resolved entry and reports how many were
	// dropped.
	PruneResolved(ctx context.Context) (int64, error)

	// Snapshot returns the full queue state, resolved entries included.
	Snapshot(ctx context.Context) (models.QueueSnapshot, error)

	// Close flushes and releases the backing storage.
	Close() error
}
