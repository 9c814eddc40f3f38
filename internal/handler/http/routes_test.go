package http

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/pylin/shelflife/internal/logger"
	"github.com/pylin/shelflife/internal/service"
	"github.com/pylin/shelflife/models"
)

// ---- Stub: InventoryService ----

type stubInventorySvc struct {
	entities []models.Entity
	stats    models.Stats
	err      error
}

func (s *stubInventorySvc) Create(_ context.Context, kind models.Kind, draft models.Entity) (models.Entity, error) {
	if s.err != nil {
		return models.Entity{}, s.err
	}
	draft.Kind = kind
	draft.LocalID = 1
	return draft, nil
}

func (s *stubInventorySvc) Get(_ context.Context, _ models.Kind, _ int64) (models.Entity, error) {
	if s.err != nil {
		return models.Entity{}, s.err
	}
	return s.entities[0], nil
}

func (s *stubInventorySvc) GetAll(_ context.Context, _ models.Kind) ([]models.Entity, error) {
	return s.entities, s.err
}

func (s *stubInventorySvc) Update(_ context.Context, kind models.Kind, id int64, patch models.EntityPatch) (models.Entity, error) {
	if s.err != nil {
		return models.Entity{}, s.err
	}
	return models.Entity{Kind: kind, LocalID: id, Name: patch.Name}, nil
}

func (s *stubInventorySvc) Delete(_ context.Context, kind models.Kind, id int64) (models.Entity, error) {
	if s.err != nil {
		return models.Entity{}, s.err
	}
	return models.Entity{Kind: kind, LocalID: id}, nil
}

func (s *stubInventorySvc) Search(_ context.Context, _ models.Kind, _ string) ([]models.Entity, error) {
	return s.entities, s.err
}

func (s *stubInventorySvc) Stats(_ context.Context, _ models.Kind) (models.Stats, error) {
	return s.stats, s.err
}

// ---- Stub: BootstrapService ----

type stubBootstrapSvc struct {
	online bool
}

func (s *stubBootstrapSvc) LoadInitialData(_ context.Context) bool { return s.online }
func (s *stubBootstrapSvc) Online() bool                           { return s.online }

// ---- Stub: SyncService ----

type stubSyncSvc struct {
	report   models.SyncReport
	pending  []models.QueueEntry
	snapshot models.ExportSnapshot
	pruned   int64
	err      error
}

func (s *stubSyncSvc) Report(_ context.Context) (models.SyncReport, error) {
	return s.report, s.err
}

func (s *stubSyncSvc) PendingItems(_ context.Context) ([]models.QueueEntry, error) {
	return s.pending, s.err
}

func (s *stubSyncSvc) ExportPending(_ context.Context) (models.ExportSnapshot, error) {
	return s.snapshot, s.err
}

func (s *stubSyncSvc) MarkSynced(_ context.Context, _ int64) error { return s.err }

func (s *stubSyncSvc) PruneResolved(_ context.Context) (int64, error) {
	return s.pruned, s.err
}

// ---- Stub: ReplayService / ReplayJob ----

type stubReplaySvc struct{}

func (s *stubReplaySvc) ReplayPending(_ context.Context) error { return nil }

type stubReplayJob struct{}

func (s *stubReplayJob) Start(_ context.Context, _ time.Duration) {}
func (s *stubReplayJob) Stop()                                    {}

// ---- Helper ----

type testServices struct {
	inventory *stubInventorySvc
	bootstrap *stubBootstrapSvc
	sync      *stubSyncSvc
}

func newTestRouter(t *testing.T, svc testServices) http.Handler {
	t.Helper()

	if svc.inventory == nil {
		svc.inventory = &stubInventorySvc{}
	}
	if svc.bootstrap == nil {
		svc.bootstrap = &stubBootstrapSvc{}
	}
	if svc.sync == nil {
		svc.sync = &stubSyncSvc{}
	}

	h := &Handler{
		logger: logger.Nop(),
		services: &service.Services{
			Inventory: svc.inventory,
			Bootstrap: svc.bootstrap,
			Sync:      svc.sync,
			Replay:    &stubReplaySvc{},
			ReplayJob: &stubReplayJob{},
		},
	}
	return h.Init()
}
