package service

import (
	"context"
	"time"

	"github.com/pylin/shelflife/models"
)

// InventoryService is the single source of truth for in-process entity state.
// Local mutations always succeed synchronously; mirroring to the remote store
// happens in the background and failures are downgraded into retry-queue
// entries. The only hard failure a caller ever sees is not-found on lookups.
type InventoryService interface {
	// Create assigns the next local id, fills defaults for missing fields,
	// computes derived fields, and returns the stored entity immediately.
	// The remote create runs detached; callers inspect the entity's SyncState
	// later to see whether it went through.
	Create(ctx context.Context, kind models.Kind, draft models.Entity) (models.Entity, error)

	// Get returns a single entity with freshly computed derived fields.
	Get(ctx context.Context, kind models.Kind, localID int64) (models.Entity, error)

	// GetAll returns every entity of the kind, most recently updated first.
	GetAll(ctx context.Context, kind models.Kind) ([]models.Entity, error)

	// Update merges the non-empty patch fields into the entity, recomputes
	// derived fields, and bumps updatedAt. Mirroring runs detached.
	Update(ctx context.Context, kind models.Kind, localID int64, patch models.EntityPatch) (models.Entity, error)

	// Delete removes the entity locally and returns the removed snapshot.
	// Remote deletion runs detached and only happens when the entity ever
	// reached the remote store.
	Delete(ctx context.Context, kind models.Kind, localID int64) (models.Entity, error)

	// Search filters by case-insensitive substring over name, brand/url, and
	// status. An empty query returns everything in GetAll order.
	Search(ctx context.Context, kind models.Kind, query string) ([]models.Entity, error)

	// Stats aggregates expiry buckets for the kind.
	Stats(ctx context.Context, kind models.Kind) (models.Stats, error)
}

// BootstrapService populates the inventory at startup.
type BootstrapService interface {
	// LoadInitialData hydrates both collections from the remote store. Any
	// remote failure falls back to the fixed seed dataset. The hydrate is all
	// or nothing; reports whether the session is online.
	LoadInitialData(ctx context.Context) bool

	// Online reports whether the last hydrate reached the remote store.
	Online() bool
}

// SyncService is the ledger over the retry queue: inspection, manual
// reconciliation, and housekeeping.
type SyncService interface {
	// Report summarises queue totals per kind plus the last sync timestamp.
	Report(ctx context.Context) (models.SyncReport, error)

	// PendingItems returns the unresolved entries in replay order.
	PendingItems(ctx context.Context) ([]models.QueueEntry, error)

	// ExportPending produces (and best-effort writes to disk) a transportable
	// document of all pending entries with remediation instructions.
	ExportPending(ctx context.Context) (models.ExportSnapshot, error)

	// MarkSynced resolves a queue entry after manual reconciliation.
	MarkSynced(ctx context.Context, queueID int64) error

	// PruneResolved drops resolved entries and reports how many were removed.
	PruneResolved(ctx context.Context) (int64, error)
}

// ReplayService replays pending queue entries against the remote store.
type ReplayService interface {
	// ReplayPending walks the pending entries oldest-first, retrying each with
	// backoff. A missing or rejected write credential aborts the whole cycle.
	ReplayPending(ctx context.Context) error
}

// ReplayJob runs ReplayPending on a ticker. Idle until Start is called.
type ReplayJob interface {
	Start(ctx context.Context, interval time.Duration)
	Stop()
}
