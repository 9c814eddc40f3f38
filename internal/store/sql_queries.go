package store

import (
	sq "github.com/Masterminds/squirrel"
)

const (
	selectMaxQueueID = `SELECT MAX(id) FROM sync_queue;`

	selectLastSync = `SELECT value FROM sync_meta WHERE key = ?;`

	upsertLastSync = `INSERT INTO sync_meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value;`
)

func selectEntries() sq.SelectBuilder {
	return sq.Select("id", "action", "kind", "payload", "remote_id", "enqueued_at", "synced", "synced_at").
		From("sync_queue")
}
