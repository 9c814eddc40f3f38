package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/pylin/shelflife/internal/adapter"
	"github.com/pylin/shelflife/internal/logger"
	"github.com/pylin/shelflife/internal/mock"
	"github.com/pylin/shelflife/internal/store"
	"github.com/pylin/shelflife/models"
)

func newTestBootstrap(t *testing.T, remote adapter.RemoteStore) (*bootstrapService, *inventoryService, store.QueueRepository) {
	t.Helper()

	inventory, queue := newTestInventory(t, remote)
	b := newBootstrapService(inventory, remote, logger.Nop())
	b.nowFn = func() time.Time { return testNow }
	return b, inventory, queue
}

func TestBootstrap_RemoteFailureLoadsSeedsOffline(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	remote := mock.NewMockRemoteStore(ctrl)
	remote.EXPECT().
		List(gomock.Any(), models.KindFood).
		Return(nil, errors.New("connection refused"))

	b, inventory, queue := newTestBootstrap(t, remote)
	ctx := context.Background()

	online := b.LoadInitialData(ctx)
	assert.False(t, online)
	assert.False(t, b.Online())

	foods, err := inventory.GetAll(ctx, models.KindFood)
	require.NoError(t, err)
	require.Len(t, foods, 2)

	subs, err := inventory.GetAll(ctx, models.KindSubscription)
	require.NoError(t, err)
	require.Len(t, subs, 2)

	names := []string{subs[0].Name, subs[1].Name}
	assert.Contains(t, names, "天虎/黃信訊/心臟內科")
	assert.Contains(t, names, "kiro pro")

	pending, err := queue.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending, "seed data is local-only, nothing is queued")
}

func TestBootstrap_SecondListFailureAlsoFallsBack(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	remote := mock.NewMockRemoteStore(ctrl)
	remote.EXPECT().List(gomock.Any(), models.KindFood).Return([]models.Entity{}, nil)
	remote.EXPECT().
		List(gomock.Any(), models.KindSubscription).
		Return(nil, errors.New("timeout"))

	b, inventory, _ := newTestBootstrap(t, remote)

	online := b.LoadInitialData(context.Background())
	assert.False(t, online, "hydrate is all or nothing")

	foods, err := inventory.GetAll(context.Background(), models.KindFood)
	require.NoError(t, err)
	assert.Len(t, foods, 2, "partial remote data is discarded in favour of seeds")
}

func TestBootstrap_SuccessReplacesCollections(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	remote := mock.NewMockRemoteStore(ctrl)
	remote.EXPECT().List(gomock.Any(), models.KindFood).Return([]models.Entity{
		{Kind: models.KindFood, RemoteID: "rem-a", Name: "鮮奶", TargetDate: dateIn(5)},
		{Kind: models.KindFood, RemoteID: "rem-b", Name: "泡麵", TargetDate: dateIn(90)},
	}, nil)
	remote.EXPECT().List(gomock.Any(), models.KindSubscription).Return([]models.Entity{}, nil)

	b, inventory, _ := newTestBootstrap(t, remote)
	ctx := context.Background()

	online := b.LoadInitialData(ctx)
	assert.True(t, online)
	assert.True(t, b.Online())

	foods, err := inventory.GetAll(ctx, models.KindFood)
	require.NoError(t, err)
	require.Len(t, foods, 2)
	for _, f := range foods {
		assert.Contains(t, []string{"rem-a", "rem-b"}, f.RemoteID, "remote identities are preserved")
		assert.Contains(t, []int64{1, 2}, f.LocalID, "local ids are freshly assigned")
	}

	subs, err := inventory.GetAll(ctx, models.KindSubscription)
	require.NoError(t, err)
	assert.Empty(t, subs, "zero remote entries is a legitimate empty online state")
}

func TestBootstrap_NilRemoteStaysOffline(t *testing.T) {
	b, inventory, _ := newTestBootstrap(t, nil)

	online := b.LoadInitialData(context.Background())
	assert.False(t, online)

	foods, err := inventory.GetAll(context.Background(), models.KindFood)
	require.NoError(t, err)
	assert.Len(t, foods, 2)
}
