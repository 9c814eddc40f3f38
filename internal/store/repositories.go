package store

import (
	"context"
	"strings"

	"github.com/pylin/shelflife/internal/config"
	"github.com/pylin/shelflife/internal/logger"
)

// NewQueueRepository selects the retry-queue backend from the configured
// path: .db / .sqlite selects SQLite, anything else a JSON snapshot file.
// The special path ":memory:" keeps the queue in memory only.
func NewQueueRepository(ctx context.Context, cfg config.Queue, log *logger.Logger) (QueueRepository, error) {
	if strings.HasSuffix(cfg.Path, ".db") || strings.HasSuffix(cfg.Path, ".sqlite") {
		db, err := NewConnectSQLite(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		if err = db.Migrate(); err != nil {
			return nil, err
		}
		return NewSQLiteQueueRepository(ctx, db, log)
	}

	return NewFileQueueRepository(cfg.Path, log)
}
