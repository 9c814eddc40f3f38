package service

import (
	"path/filepath"

	"github.com/pylin/shelflife/internal/adapter"
	"github.com/pylin/shelflife/internal/config"
	"github.com/pylin/shelflife/internal/logger"
	"github.com/pylin/shelflife/internal/store"
)

type Services struct {
	Inventory InventoryService
	Bootstrap BootstrapService
	Sync      SyncService
	Replay    ReplayService
	ReplayJob ReplayJob
}

func NewServices(queue store.QueueRepository, remote adapter.RemoteStore, cfg config.StructuredConfig, log *logger.Logger) *Services {
	inventory := newInventoryService(queue, remote, log)
	replay := newReplayService(queue, remote, inventory, cfg.Workers.ReplayMaxAttempts, log)

	return &Services{
		Inventory: inventory,
		Bootstrap: newBootstrapService(inventory, remote, log),
		Sync:      newSyncService(queue, exportDirFor(cfg.Storage.Queue.Path), log),
		Replay:    replay,
		ReplayJob: NewReplayJob(replay),
	}
}

// exportDirFor places export documents next to the queue storage, or nowhere
// when the queue lives only in memory.
func exportDirFor(queuePath string) string {
	if queuePath == "" || queuePath == ":memory:" {
		return ""
	}
	return filepath.Dir(queuePath)
}
