package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pylin/shelflife/internal/logger"
	"github.com/pylin/shelflife/models"
)

var queueColumns = []string{"id", "action", "kind", "payload", "remote_id", "enqueued_at", "synced", "synced_at"}

func newTestDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func newTestQueueRepo(t *testing.T, mock sqlmock.Sqlmock, db *sql.DB, maxID any) QueueRepository {
	t.Helper()

	mock.ExpectQuery(regexp.QuoteMeta(selectMaxQueueID)).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(maxID))

	r, err := NewSQLiteQueueRepository(context.Background(), &DB{DB: db, logger: logger.Nop()}, logger.Nop())
	require.NoError(t, err)
	return r
}

func entityJSON(t *testing.T, e models.Entity) string {
	t.Helper()
	data, err := json.Marshal(e)
	require.NoError(t, err)
	return string(data)
}

func TestSQLiteQueue_SeedsIDCounterAboveClock(t *testing.T) {
	db, mock := newTestDB(t)
	before := time.Now().UnixMilli()
	r := newTestQueueRepo(t, mock, db, int64(5))

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sync_queue")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	entry, err := r.Enqueue(context.Background(), foodCreateEntry("鮮奶"))
	require.NoError(t, err)

	assert.GreaterOrEqual(t, entry.ID, before, "id counter starts at the clock when it is ahead of the table")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteQueue_Enqueue(t *testing.T) {
	db, mock := newTestDB(t)
	r := newTestQueueRepo(t, mock, db, nil)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sync_queue (id,action,kind,payload,remote_id,enqueued_at,synced,synced_at)")).
		WithArgs(sqlmock.AnyArg(), models.ActionCreate, models.KindFood, sqlmock.AnyArg(), "", sqlmock.AnyArg(), false, nil).
		WillReturnResult(sqlmock.NewResult(1, 1))

	entry, err := r.Enqueue(context.Background(), foodCreateEntry("鮮奶"))
	require.NoError(t, err)

	assert.Greater(t, entry.ID, int64(0))
	assert.False(t, entry.EnqueuedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteQueue_ListPending(t *testing.T) {
	db, mock := newTestDB(t)
	r := newTestQueueRepo(t, mock, db, int64(10))

	enqueued := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	payload := entityJSON(t, models.Entity{Kind: models.KindFood, Name: "鮮奶", TargetDate: "2026-09-10"})

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, action, kind, payload, remote_id, enqueued_at, synced, synced_at FROM sync_queue WHERE synced = ? ORDER BY id ASC")).
		WithArgs(false).
		WillReturnRows(sqlmock.NewRows(queueColumns).
			AddRow(int64(3), "create", "food", payload, "", enqueued, false, nil).
			AddRow(int64(4), "delete", "subscription", nil, "rem-5", enqueued, false, nil))

	pending, err := r.ListPending(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 2)

	assert.Equal(t, int64(3), pending[0].ID)
	require.NotNil(t, pending[0].Payload)
	assert.Equal(t, "鮮奶", pending[0].Payload.Name)
	assert.Nil(t, pending[1].Payload)
	assert.Equal(t, "rem-5", pending[1].RemoteID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteQueue_MarkResolved(t *testing.T) {
	db, mock := newTestDB(t)
	r := newTestQueueRepo(t, mock, db, int64(10))

	at := time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE sync_queue SET synced = ?, synced_at = ? WHERE id = ? AND synced = ?")).
		WithArgs(true, at, int64(3), false).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sync_meta")).
		WithArgs(lastSyncMetaKey, at.UTC().Format(time.RFC3339Nano)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, r.MarkResolved(context.Background(), 3, at))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteQueue_MarkResolved_AlreadyResolved(t *testing.T) {
	db, mock := newTestDB(t)
	r := newTestQueueRepo(t, mock, db, int64(10))

	at := time.Now()
	enqueued := at.Add(-time.Hour)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE sync_queue")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, action, kind, payload, remote_id, enqueued_at, synced, synced_at FROM sync_queue WHERE id = ?")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(queueColumns).
			AddRow(int64(3), "create", "food", nil, "", enqueued, true, enqueued))

	require.NoError(t, r.MarkResolved(context.Background(), 3, at))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteQueue_MarkResolved_NotFound(t *testing.T) {
	db, mock := newTestDB(t)
	r := newTestQueueRepo(t, mock, db, int64(10))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE sync_queue")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, action, kind, payload, remote_id, enqueued_at, synced, synced_at FROM sync_queue WHERE id = ?")).
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows(queueColumns))

	err := r.MarkResolved(context.Background(), 404, time.Now())
	require.ErrorIs(t, err, ErrQueueEntryNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteQueue_Replace_NotFound(t *testing.T) {
	db, mock := newTestDB(t)
	r := newTestQueueRepo(t, mock, db, int64(10))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE sync_queue SET action = ?, kind = ?, payload = ?, remote_id = ?, synced = ?, synced_at = ? WHERE id = ?")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := r.Replace(context.Background(), models.QueueEntry{ID: 404, Action: models.ActionUpdate, Kind: models.KindFood})
	require.ErrorIs(t, err, ErrQueueEntryNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteQueue_PruneResolved(t *testing.T) {
	db, mock := newTestDB(t)
	r := newTestQueueRepo(t, mock, db, int64(10))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sync_queue WHERE synced = ?")).
		WithArgs(true).
		WillReturnResult(sqlmock.NewResult(0, 2))

	pruned, err := r.PruneResolved(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), pruned)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteQueue_Snapshot(t *testing.T) {
	db, mock := newTestDB(t)
	r := newTestQueueRepo(t, mock, db, int64(10))

	enqueued := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	lastSync := time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, action, kind, payload, remote_id, enqueued_at, synced, synced_at FROM sync_queue ORDER BY id ASC")).
		WillReturnRows(sqlmock.NewRows(queueColumns).
			AddRow(int64(1), "create", "food", nil, "", enqueued, false, nil).
			AddRow(int64(2), "update", "subscription", nil, "rem-2", enqueued, true, lastSync))
	mock.ExpectQuery(regexp.QuoteMeta(selectLastSync)).
		WithArgs(lastSyncMetaKey).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(lastSync.Format(time.RFC3339Nano)))

	snap, err := r.Snapshot(context.Background())
	require.NoError(t, err)

	require.Len(t, snap.PendingFood, 1)
	require.Len(t, snap.PendingSubscriptions, 1)
	assert.True(t, snap.PendingSubscriptions[0].Synced)
	require.NotNil(t, snap.LastSync)
	assert.True(t, snap.LastSync.Equal(lastSync))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteQueue_Snapshot_NoLastSync(t *testing.T) {
	db, mock := newTestDB(t)
	r := newTestQueueRepo(t, mock, db, nil)

	mock.ExpectQuery(regexp.QuoteMeta("FROM sync_queue ORDER BY id ASC")).
		WillReturnRows(sqlmock.NewRows(queueColumns))
	mock.ExpectQuery(regexp.QuoteMeta(selectLastSync)).
		WithArgs(lastSyncMetaKey).
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	snap, err := r.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Empty(t, snap.PendingFood)
	assert.Empty(t, snap.PendingSubscriptions)
	assert.Nil(t, snap.LastSync)
	require.NoError(t, mock.ExpectationsWereMet())
}
