package service

import (
	"context"
	"sync"
	"time"

	"github.com/pylin/shelflife/internal/adapter"
	"github.com/pylin/shelflife/internal/logger"
	"github.com/pylin/shelflife/models"
)

type bootstrapService struct {
	inventory *inventoryService
	remote    adapter.RemoteStore
	logger    *logger.Logger
	nowFn     func() time.Time

	mu     sync.RWMutex
	online bool
}

// NewBootstrapService wires bootstrap against the concrete inventory so it
// can swap whole collections during hydrate.
func newBootstrapService(inventory *inventoryService, remote adapter.RemoteStore, log *logger.Logger) *bootstrapService {
	return &bootstrapService{
		inventory: inventory,
		remote:    remote,
		logger:    log,
		nowFn:     time.Now,
	}
}

// LoadInitialData hydrates both collections from the remote store in one
// all-or-nothing pass. Zero remote entries is a legitimate empty online
// state; only an actual remote failure falls back to the seed dataset.
func (b *bootstrapService) LoadInitialData(ctx context.Context) bool {
	if b.remote == nil {
		b.logger.Info().Msg("no remote store configured, loading seed dataset")
		b.loadSeeds()
		b.setOnline(false)
		return false
	}

	foods, err := b.remote.List(ctx, models.KindFood)
	if err != nil {
		b.logger.Warn().Err(err).
			Str("kind", string(models.KindFood)).
			Msg("remote hydrate failed, loading seed dataset")
		b.loadSeeds()
		b.setOnline(false)
		return false
	}

	subs, err := b.remote.List(ctx, models.KindSubscription)
	if err != nil {
		b.logger.Warn().Err(err).
			Str("kind", string(models.KindSubscription)).
			Msg("remote hydrate failed, loading seed dataset")
		b.loadSeeds()
		b.setOnline(false)
		return false
	}

	b.inventory.replaceAll(models.KindFood, foods)
	b.inventory.replaceAll(models.KindSubscription, subs)
	b.setOnline(true)

	b.logger.Info().
		Int("foods", len(foods)).
		Int("subscriptions", len(subs)).
		Msg("hydrated inventory from remote store")
	return true
}

func (b *bootstrapService) Online() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.online
}

func (b *bootstrapService) setOnline(online bool) {
	b.mu.Lock()
	b.online = online
	b.mu.Unlock()
}

// loadSeeds writes the fixed fallback dataset straight into the inventory.
// Seeds are local-only sample data: nothing is mirrored and nothing queued.
func (b *bootstrapService) loadSeeds() {
	b.inventory.replaceAll(models.KindFood, seedFoods())
	b.inventory.replaceAll(models.KindSubscription, seedSubscriptions())
}

func seedFoods() []models.Entity {
	return []models.Entity{
		{
			Kind:       models.KindFood,
			Name:       "【張君雅】五香海苔休閒丸子",
			Brand:      "張君雅",
			Price:      "NT$ 25",
			Status:     models.StatusGood,
			TargetDate: "2026-01-06",
		},
		{
			Kind:       models.KindFood,
			Name:       "【張君雅】日式串燒休閒丸子",
			Brand:      "張君雅",
			Price:      "NT$ 25",
			Status:     models.StatusGood,
			TargetDate: "2026-01-07",
		},
	}
}

func seedSubscriptions() []models.Entity {
	return []models.Entity{
		{
			Kind:       models.KindSubscription,
			Name:       "天虎/黃信訊/心臟內科",
			URL:        "https://www.tcmg.com.tw/index.php/main/schedule_time?id=18",
			Price:      "NT$ 530",
			TargetDate: "2025-12-26",
		},
		{
			Kind:       models.KindSubscription,
			Name:       "kiro pro",
			URL:        "https://app.kiro.dev/account/",
			Price:      "NT$ 640",
			TargetDate: "2026-01-01",
		},
	}
}
