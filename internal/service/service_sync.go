package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/pylin/shelflife/internal/logger"
	"github.com/pylin/shelflife/internal/store"
	"github.com/pylin/shelflife/models"
)

type syncService struct {
	queue     store.QueueRepository
	logger    *logger.Logger
	nowFn     func() time.Time
	exportDir string
}

func newSyncService(queue store.QueueRepository, exportDir string, log *logger.Logger) *syncService {
	return &syncService{
		queue:     queue,
		logger:    log,
		nowFn:     time.Now,
		exportDir: exportDir,
	}
}

func (s *syncService) Report(ctx context.Context) (models.SyncReport, error) {
	snap, err := s.queue.Snapshot(ctx)
	if err != nil {
		return models.SyncReport{}, fmt.Errorf("snapshot queue for report: %w", err)
	}

	food := countSection(snap.PendingFood)
	subs := countSection(snap.PendingSubscriptions)

	return models.SyncReport{
		TotalItems:    food.Total + subs.Total,
		SyncedItems:   food.Synced + subs.Synced,
		PendingItems:  food.Pending + subs.Pending,
		Food:          food,
		Subscriptions: subs,
		LastSync:      snap.LastSync,
	}, nil
}

func countSection(entries []models.QueueEntry) models.KindReport {
	r := models.KindReport{Total: len(entries)}
	for _, e := range entries {
		if e.Synced {
			r.Synced++
		}
	}
	r.Pending = r.Total - r.Synced
	return r
}

func (s *syncService) PendingItems(ctx context.Context) ([]models.QueueEntry, error) {
	return s.queue.ListPending(ctx)
}

func (s *syncService) ExportPending(ctx context.Context) (models.ExportSnapshot, error) {
	pending, err := s.queue.ListPending(ctx)
	if err != nil {
		return models.ExportSnapshot{}, fmt.Errorf("list pending for export: %w", err)
	}

	snapshot := models.ExportSnapshot{
		ExportID:     uuid.NewString(),
		ExportTime:   s.nowFn().UTC(),
		Items:        pending,
		Instructions: exportInstructions(),
	}

	s.writeExportFile(snapshot)
	return snapshot, nil
}

// writeExportFile drops the export document next to the queue storage so it
// survives even if the caller discards the response. Best effort only.
func (s *syncService) writeExportFile(snapshot models.ExportSnapshot) {
	if s.exportDir == "" {
		return
	}

	payload, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		s.logger.Err(err).Str("func", "syncService.writeExportFile").Msg("failed to encode export document")
		return
	}

	name := fmt.Sprintf("contentful-export-%d.json", snapshot.ExportTime.UnixMilli())
	if err = os.WriteFile(filepath.Join(s.exportDir, name), payload, 0o600); err != nil {
		s.logger.Err(err).Str("func", "syncService.writeExportFile").Msg("failed to write export document")
	}
}

func exportInstructions() models.ExportInstructions {
	return models.ExportInstructions{
		Food:         "請在 Contentful 後台手動創建 'food' 類型的條目",
		Subscription: "請在 Contentful 後台手動創建 'subscription' 類型的條目",
		Fields: map[string][]string{
			"food":         {"name", "amount", "todate"},
			"subscription": {"name", "price", "nextdate", "site"},
		},
	}
}

func (s *syncService) MarkSynced(ctx context.Context, queueID int64) error {
	return s.queue.MarkResolved(ctx, queueID, s.nowFn())
}

func (s *syncService) PruneResolved(ctx context.Context) (int64, error) {
	return s.queue.PruneResolved(ctx)
}
