package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pylin/shelflife/internal/logger"
	"github.com/pylin/shelflife/models"
)

// fileQueueRepository keeps the whole queue in memory and rewrites a JSON
// snapshot file after every mutation. The snapshot layout matches the wire
// format exposed by the sync report endpoints, so the file doubles as a
// human-readable audit trail.
//
// A failed persist never fails the mutation: the in-memory queue is the
// source of truth for the running process, and losing the snapshot only
// costs durability across a crash.
type fileQueueRepository struct {
	path     string
	inMemory bool
	logger   *logger.Logger
	nowFn    func() time.Time

	mu       sync.RWMutex
	nextID   int64
	entries  []models.QueueEntry
	lastSync *time.Time
}

// NewFileQueueRepository loads (or starts) a JSON-snapshot queue at path.
// The path ":memory:" skips persistence entirely.
func NewFileQueueRepository(path string, log *logger.Logger) (QueueRepository, error) {
	if path == "" {
		path = ":memory:"
	}

	r := &fileQueueRepository{
		path:     path,
		inMemory: path == ":memory:",
		logger:   log,
		nowFn:    time.Now,
	}
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *fileQueueRepository) load() error {
	if !r.inMemory {
		data, err := os.ReadFile(r.path)
		switch {
		case os.IsNotExist(err):
			// fresh queue
		case err != nil:
			return fmt.Errorf("read queue snapshot: %w", err)
		default:
			var snap models.QueueSnapshot
			if err = json.Unmarshal(data, &snap); err != nil {
				return fmt.Errorf("decode queue snapshot: %w", err)
			}
			r.entries = mergeSections(snap)
			r.lastSync = snap.LastSync
		}
	}

	// Seeding above both the persisted maximum and the current clock keeps
	// ids monotonic even if an older snapshot is restored from backup.
	var maxID int64
	for _, e := range r.entries {
		if e.ID > maxID {
			maxID = e.ID
		}
	}
	r.nextID = maxID + 1
	if ms := r.nowFn().UnixMilli(); ms > r.nextID {
		r.nextID = ms
	}

	return nil
}

// mergeSections flattens the per-kind snapshot sections back into one
// id-ordered slice.
func mergeSections(snap models.QueueSnapshot) []models.QueueEntry {
	entries := make([]models.QueueEntry, 0, len(snap.PendingFood)+len(snap.PendingSubscriptions))
	entries = append(entries, snap.PendingFood...)
	entries = append(entries, snap.PendingSubscriptions...)

	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && entries[j].ID < entries[j-1].ID; j-- {
			entries[j], entries[j-1] = entries[j-1], entries[j]
		}
	}
	return entries
}

func (r *fileQueueRepository) snapshotLocked() models.QueueSnapshot {
	snap := models.QueueSnapshot{
		PendingFood:          []models.QueueEntry{},
		PendingSubscriptions: []models.QueueEntry{},
		LastSync:             r.lastSync,
	}
	for _, e := range r.entries {
		if e.Kind == models.KindSubscription {
			snap.PendingSubscriptions = append(snap.PendingSubscriptions, e)
		} else {
			snap.PendingFood = append(snap.PendingFood, e)
		}
	}
	return snap
}

// persist rewrites the snapshot file. Errors are logged and swallowed.
func (r *fileQueueRepository) persist() {
	if r.inMemory {
		return
	}

	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			r.logger.Err(err).Str("func", "fileQueueRepository.persist").Msg("failed to create queue snapshot dir")
			return
		}
	}

	payload, err := json.MarshalIndent(r.snapshotLocked(), "", "  ")
	if err != nil {
		r.logger.Err(err).Str("func", "fileQueueRepository.persist").Msg("failed to encode queue snapshot")
		return
	}

	if err = os.WriteFile(r.path, payload, 0o600); err != nil {
		r.logger.Err(err).Str("func", "fileQueueRepository.persist").Msg("failed to write queue snapshot")
	}
}

func (r *fileQueueRepository) Enqueue(_ context.Context, entry models.QueueEntry) (models.QueueEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry.ID == 0 {
		entry.ID = r.nextID
		r.nextID++
	} else if entry.ID >= r.nextID {
		r.nextID = entry.ID + 1
	}
	if entry.EnqueuedAt.IsZero() {
		entry.EnqueuedAt = r.nowFn()
	}

	r.entries = append(r.entries, entry)
	r.persist()

	return entry, nil
}

func (r *fileQueueRepository) Replace(_ context.Context, entry models.QueueEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.entries {
		if r.entries[i].ID == entry.ID {
			// Keep the original enqueue time so the entry holds its place.
			entry.EnqueuedAt = r.entries[i].EnqueuedAt
			r.entries[i] = entry
			r.persist()
			return nil
		}
	}
	return ErrQueueEntryNotFound
}

func (r *fileQueueRepository) Get(_ context.Context, id int64) (models.QueueEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return models.QueueEntry{}, ErrQueueEntryNotFound
}

func (r *fileQueueRepository) ListPending(_ context.Context) ([]models.QueueEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pending := make([]models.QueueEntry, 0)
	for _, e := range r.entries {
		if !e.Synced {
			pending = append(pending, e)
		}
	}
	return pending, nil
}

func (r *fileQueueRepository) MarkResolved(_ context.Context, id int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.entries {
		if r.entries[i].ID != id {
			continue
		}
		if r.entries[i].Synced {
			return nil
		}
		r.entries[i].Synced = true
		syncedAt := at
		r.entries[i].SyncedAt = &syncedAt
		if r.lastSync == nil || at.After(*r.lastSync) {
			lastSync := at
			r.lastSync = &lastSync
		}
		r.persist()
		return nil
	}
	return ErrQueueEntryNotFound
}

func (r *fileQueueRepository) PruneResolved(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.entries[:0]
	var pruned int64
	for _, e := range r.entries {
		if e.Synced {
			pruned++
			continue
		}
		kept = append(kept, e)
	}
	r.entries = kept

	if pruned > 0 {
		r.persist()
	}
	return pruned, nil
}

func (r *fileQueueRepository) Snapshot(_ context.Context) (models.QueueSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked(), nil
}

func (r *fileQueueRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.persist()
	return nil
}
