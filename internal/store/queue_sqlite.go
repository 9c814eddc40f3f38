package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/pylin/shelflife/internal/logger"
	"github.com/pylin/shelflife/models"
)

const lastSyncMetaKey = "last_sync"

// sqliteQueueRepository stores the retry queue in a local SQLite database.
// Ids are assigned by the repository, not AUTOINCREMENT, so the monotonic
// seeding rule is the same across both queue backends.
type sqliteQueueRepository struct {
	db     *DB
	logger *logger.Logger
	nowFn  func() time.Time

	mu     sync.Mutex
	nextID int64
}

// NewSQLiteQueueRepository builds a QueueRepository on an already migrated
// SQLite connection.
func NewSQLiteQueueRepository(ctx context.Context, db *DB, log *logger.Logger) (QueueRepository, error) {
	r := &sqliteQueueRepository{db: db, logger: log, nowFn: time.Now}

	var maxID sql.NullInt64
	row := db.QueryRowContext(ctx, selectMaxQueueID)
	if err := row.Scan(&maxID); err != nil {
		return nil, fmt.Errorf("seed queue id counter: %w", err)
	}

	r.nextID = maxID.Int64 + 1
	if ms := r.nowFn().UnixMilli(); ms > r.nextID {
		r.nextID = ms
	}

	return r, nil
}

func (r *sqliteQueueRepository) claimID(entry *models.QueueEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry.ID == 0 {
		entry.ID = r.nextID
		r.nextID++
	} else if entry.ID >= r.nextID {
		r.nextID = entry.ID + 1
	}
}

func (r *sqliteQueueRepository) Enqueue(ctx context.Context, entry models.QueueEntry) (models.QueueEntry, error) {
	r.claimID(&entry)
	if entry.EnqueuedAt.IsZero() {
		entry.EnqueuedAt = r.nowFn()
	}

	payload, err := marshalPayload(entry.Payload)
	if err != nil {
		return models.QueueEntry{}, err
	}

	query, args, err := sq.Insert("sync_queue").
		Columns("id", "action", "kind", "payload", "remote_id", "enqueued_at", "synced", "synced_at").
		Values(entry.ID, entry.Action, entry.Kind, payload, entry.RemoteID, entry.EnqueuedAt, entry.Synced, entry.SyncedAt).
		ToSql()
	if err != nil {
		return models.QueueEntry{}, fmt.Errorf("build enqueue query: %w", err)
	}

	if _, err = r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.Err(err).
			Str("func", "sqliteQueueRepository.Enqueue").
			Int64("id", entry.ID).
			Msg("failed to insert queue entry")
		return models.QueueEntry{}, fmt.Errorf("failed to insert queue entry (id=%d): %w", entry.ID, err)
	}

	return entry, nil
}

func (r *sqliteQueueRepository) Replace(ctx context.Context, entry models.QueueEntry) error {
	payload, err := marshalPayload(entry.Payload)
	if err != nil {
		return err
	}

	query, args, err := sq.Update("sync_queue").
		Set("action", entry.Action).
		Set("kind", entry.Kind).
		Set("payload", payload).
		Set("remote_id", entry.RemoteID).
		Set("synced", entry.Synced).
		Set("synced_at", entry.SyncedAt).
		Where(sq.Eq{"id": entry.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build replace query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Err(err).
			Str("func", "sqliteQueueRepository.Replace").
			Int64("id", entry.ID).
			Msg("failed to replace queue entry")
		return fmt.Errorf("failed to replace queue entry (id=%d): %w", entry.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("replace rows affected: %w", err)
	}
	if affected == 0 {
		return ErrQueueEntryNotFound
	}
	return nil
}

func (r *sqliteQueueRepository) Get(ctx context.Context, id int64) (models.QueueEntry, error) {
	query, args, err := selectEntries().Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return models.QueueEntry{}, fmt.Errorf("build get query: %w", err)
	}

	entry, err := scanQueueEntry(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return models.QueueEntry{}, ErrQueueEntryNotFound
	}
	if err != nil {
		return models.QueueEntry{}, fmt.Errorf("failed to get queue entry (id=%d): %w", id, err)
	}
	return entry, nil
}

func (r *sqliteQueueRepository) ListPending(ctx context.Context) ([]models.QueueEntry, error) {
	query, args, err := selectEntries().
		Where(sq.Eq{"synced": false}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list pending query: %w", err)
	}

	return r.queryEntries(ctx, query, args...)
}

func (r *sqliteQueueRepository) MarkResolved(ctx context.Context, id int64, at time.Time) error {
	query, args, err := sq.Update("sync_queue").
		Set("synced", true).
		Set("synced_at", at).
		Where(sq.Eq{"id": id, "synced": false}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark resolved query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Err(err).
			Str("func", "sqliteQueueRepository.MarkResolved").
			Int64("id", id).
			Msg("failed to mark queue entry resolved")
		return fmt.Errorf("failed to mark queue entry resolved (id=%d): %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark resolved rows affected: %w", err)
	}
	if affected == 0 {
		// Either already resolved (no-op) or missing.
		if _, err = r.Get(ctx, id); err != nil {
			return err
		}
		return nil
	}

	return r.bumpLastSync(ctx, at)
}

func (r *sqliteQueueRepository) PruneResolved(ctx context.Context) (int64, error) {
	query, args, err := sq.Delete("sync_queue").Where(sq.Eq{"synced": true}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build prune query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Err(err).
			Str("func", "sqliteQueueRepository.PruneResolved").
			Msg("failed to prune resolved queue entries")
		return 0, fmt.Errorf("failed to prune resolved queue entries: %w", err)
	}

	return res.RowsAffected()
}

func (r *sqliteQueueRepository) Snapshot(ctx context.Context) (models.QueueSnapshot, error) {
	query, args, err := selectEntries().OrderBy("id ASC").ToSql()
	if err != nil {
		return models.QueueSnapshot{}, fmt.Errorf("build snapshot query: %w", err)
	}

	entries, err := r.queryEntries(ctx, query, args...)
	if err != nil {
		return models.QueueSnapshot{}, err
	}

	snap := models.QueueSnapshot{
		PendingFood:          []models.QueueEntry{},
		PendingSubscriptions: []models.QueueEntry{},
	}
	for _, e := range entries {
		if e.Kind == models.KindSubscription {
			snap.PendingSubscriptions = append(snap.PendingSubscriptions, e)
		} else {
			snap.PendingFood = append(snap.PendingFood, e)
		}
	}

	snap.LastSync, err = r.lastSync(ctx)
	if err != nil {
		return models.QueueSnapshot{}, err
	}
	return snap, nil
}

func (r *sqliteQueueRepository) Close() error {
	return r.db.Close()
}

func (r *sqliteQueueRepository) queryEntries(ctx context.Context, query string, args ...any) ([]models.QueueEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Err(err).
			Str("func", "sqliteQueueRepository.queryEntries").
			Msg("failed to query queue entries")
		return nil, fmt.Errorf("failed to query queue entries: %w", err)
	}
	defer rows.Close()

	entries := make([]models.QueueEntry, 0)
	for rows.Next() {
		entry, scanErr := scanQueueEntry(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan queue entry row: %w", scanErr)
		}
		entries = append(entries, entry)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate queue entry rows: %w", err)
	}
	return entries, nil
}

func (r *sqliteQueueRepository) bumpLastSync(ctx context.Context, at time.Time) error {
	_, err := r.db.ExecContext(ctx, upsertLastSync, lastSyncMetaKey, at.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to update last sync marker: %w", err)
	}
	return nil
}

func (r *sqliteQueueRepository) lastSync(ctx context.Context) (*time.Time, error) {
	var raw string
	row := r.db.QueryRowContext(ctx, selectLastSync, lastSyncMetaKey)
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read last sync marker: %w", err)
	}

	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse last sync marker: %w", err)
	}
	return &ts, nil
}

func marshalPayload(payload *models.Entity) (sql.NullString, error) {
	if payload == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encode queue payload: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQueueEntry(row rowScanner) (models.QueueEntry, error) {
	var (
		entry    models.QueueEntry
		payload  sql.NullString
		syncedAt sql.NullTime
	)

	err := row.Scan(
		&entry.ID,
		&entry.Action,
		&entry.Kind,
		&payload,
		&entry.RemoteID,
		&entry.EnqueuedAt,
		&entry.Synced,
		&syncedAt,
	)
	if err != nil {
		return models.QueueEntry{}, err
	}

	if payload.Valid {
		var e models.Entity
		if err = json.Unmarshal([]byte(payload.String), &e); err != nil {
			return models.QueueEntry{}, fmt.Errorf("decode queue payload: %w", err)
		}
		entry.Payload = &e
	}
	if syncedAt.Valid {
		ts := syncedAt.Time
		entry.SyncedAt = &ts
	}

	return entry, nil
}
