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

var testNow = time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)

func dateIn(days int) string {
	return testNow.AddDate(0, 0, days).Format(models.DateLayout)
}

// newTestInventory wires the service with an in-memory queue, a fixed clock,
// and an inline dispatcher so remote mirroring runs synchronously in tests.
func newTestInventory(t *testing.T, remote adapter.RemoteStore) (*inventoryService, store.QueueRepository) {
	t.Helper()

	queue, err := store.NewFileQueueRepository(":memory:", logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = queue.Close() })

	s := newInventoryService(queue, remote, logger.Nop())
	s.nowFn = func() time.Time { return testNow }
	s.dispatch = func(f func()) { f() }
	return s, queue
}

func TestInventory_Create_RemoteSuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	remote := mock.NewMockRemoteStore(ctrl)
	remote.EXPECT().
		Create(gomock.Any(), models.KindFood, gomock.Any()).
		Return("rem-1", nil)

	s, queue := newTestInventory(t, remote)
	ctx := context.Background()

	created, err := s.Create(ctx, models.KindFood, models.Entity{Name: "鮮奶", TargetDate: dateIn(5)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.LocalID)
	assert.Equal(t, 5, created.DaysRemaining)

	got, err := s.Get(ctx, models.KindFood, created.LocalID)
	require.NoError(t, err)
	assert.Equal(t, "rem-1", got.RemoteID)
	assert.Equal(t, models.SyncStateSynced, got.SyncState())

	pending, err := queue.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestInventory_Create_RemoteFailureQueues(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	remote := mock.NewMockRemoteStore(ctrl)
	remote.EXPECT().
		Create(gomock.Any(), models.KindFood, gomock.Any()).
		Return("", errors.New("connection refused"))

	s, queue := newTestInventory(t, remote)
	ctx := context.Background()

	created, err := s.Create(ctx, models.KindFood, models.Entity{Name: "X", TargetDate: dateIn(5)})
	require.NoError(t, err, "local write always succeeds")

	all, err := s.GetAll(ctx, models.KindFood)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "X", all[0].Name)
	assert.Equal(t, 5, all[0].DaysRemaining)

	pending, err := queue.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, models.ActionCreate, pending[0].Action)
	assert.Equal(t, "X", pending[0].Payload.Name)

	got, err := s.Get(ctx, models.KindFood, created.LocalID)
	require.NoError(t, err)
	assert.Equal(t, pending[0].ID, got.PendingSyncID)
	assert.Equal(t, models.SyncStatePending, got.SyncState())
}

func TestInventory_Create_AppliesDefaults(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	remote := mock.NewMockRemoteStore(ctrl)
	remote.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Return("rem-1", nil).Times(2)

	s, _ := newTestInventory(t, remote)
	ctx := context.Background()

	food, err := s.Create(ctx, models.KindFood, models.Entity{})
	require.NoError(t, err)
	assert.Equal(t, defaultFoodName, food.Name)
	assert.Equal(t, defaultBrand, food.Brand)
	assert.Equal(t, defaultPrice, food.Price)
	assert.Equal(t, models.StatusGood, food.Status)
	assert.Equal(t, dateIn(30), food.TargetDate)
	assert.Equal(t, 30, food.DaysRemaining)

	sub, err := s.Create(ctx, models.KindSubscription, models.Entity{})
	require.NoError(t, err)
	assert.Equal(t, defaultSubscriptionName, sub.Name)
	assert.Empty(t, sub.Brand, "brand default is food-only")
	assert.Equal(t, models.StatusActive, sub.Status, "subscription status is derived")
}

func TestInventory_Create_UnknownKind(t *testing.T) {
	s, _ := newTestInventory(t, nil)

	_, err := s.Create(context.Background(), models.Kind("media"), models.Entity{})
	require.ErrorIs(t, err, ErrUnknownKind)
}

func TestInventory_Create_LocalIDsNeverReused(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	remote := mock.NewMockRemoteStore(ctrl)
	remote.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Return("rem", nil).AnyTimes()
	remote.EXPECT().Delete(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	s, _ := newTestInventory(t, remote)
	ctx := context.Background()

	first, err := s.Create(ctx, models.KindFood, models.Entity{Name: "a"})
	require.NoError(t, err)
	_, err = s.Delete(ctx, models.KindFood, first.LocalID)
	require.NoError(t, err)

	second, err := s.Create(ctx, models.KindFood, models.Entity{Name: "b"})
	require.NoError(t, err)
	assert.Greater(t, second.LocalID, first.LocalID)
}

func TestInventory_Update_NotFound(t *testing.T) {
	s, queue := newTestInventory(t, nil)
	ctx := context.Background()

	_, err := s.Update(ctx, models.KindFood, 99, models.EntityPatch{Name: "nope"})
	require.ErrorIs(t, err, ErrEntityNotFound)

	pending, err := queue.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending, "failed lookups never queue anything")
}

func TestInventory_Update_MergesPartialPatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	remote := mock.NewMockRemoteStore(ctrl)
	remote.EXPECT().Create(gomock.Any(), models.KindFood, gomock.Any()).Return("rem-1", nil)
	remote.EXPECT().Update(gomock.Any(), models.KindFood, "rem-1", gomock.Any()).Return(nil)

	s, _ := newTestInventory(t, remote)
	ctx := context.Background()

	created, err := s.Create(ctx, models.KindFood, models.Entity{
		Name: "鮮奶", Brand: "義美", Price: "NT$ 92", TargetDate: dateIn(5),
	})
	require.NoError(t, err)

	updated, err := s.Update(ctx, models.KindFood, created.LocalID, models.EntityPatch{TargetDate: dateIn(2)})
	require.NoError(t, err)

	assert.Equal(t, "鮮奶", updated.Name, "untouched fields survive")
	assert.Equal(t, "義美", updated.Brand)
	assert.Equal(t, dateIn(2), updated.TargetDate)
	assert.Equal(t, 2, updated.DaysRemaining)
}

func TestInventory_Update_RemoteFailureQueues(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	remote := mock.NewMockRemoteStore(ctrl)
	remote.EXPECT().Create(gomock.Any(), models.KindSubscription, gomock.Any()).Return("rem-7", nil)
	remote.EXPECT().Update(gomock.Any(), models.KindSubscription, "rem-7", gomock.Any()).
		Return(errors.New("server unreachable"))

	s, queue := newTestInventory(t, remote)
	ctx := context.Background()

	created, err := s.Create(ctx, models.KindSubscription, models.Entity{Name: "Netflix", TargetDate: dateIn(20)})
	require.NoError(t, err)

	_, err = s.Update(ctx, models.KindSubscription, created.LocalID, models.EntityPatch{Price: "NT$ 490"})
	require.NoError(t, err)

	pending, err := queue.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, models.ActionUpdate, pending[0].Action)
	assert.Equal(t, "rem-7", pending[0].RemoteID)
	assert.Equal(t, "NT$ 490", pending[0].Payload.Price)
}

func TestInventory_Update_SupersedesPendingCreate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	remote := mock.NewMockRemoteStore(ctrl)
	remote.EXPECT().
		Create(gomock.Any(), models.KindFood, gomock.Any()).
		Return("", errors.New("offline"))

	s, queue := newTestInventory(t, remote)
	ctx := context.Background()

	created, err := s.Create(ctx, models.KindFood, models.Entity{Name: "鮮奶"})
	require.NoError(t, err)

	_, err = s.Update(ctx, models.KindFood, created.LocalID, models.EntityPatch{Name: "鮮奶(改)"})
	require.NoError(t, err)

	pending, err := queue.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1, "update folds into the pending entry instead of appending")
	assert.Equal(t, models.ActionCreate, pending[0].Action, "a pending create stays a create")
	assert.Equal(t, "鮮奶(改)", pending[0].Payload.Name)
}

func TestInventory_Delete_NotFound(t *testing.T) {
	s, _ := newTestInventory(t, nil)

	_, err := s.Delete(context.Background(), models.KindFood, 12345)
	require.ErrorIs(t, err, ErrEntityNotFound)
}

func TestInventory_Delete_NeverSyncedEntityRetiresPendingEntry(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	remote := mock.NewMockRemoteStore(ctrl)
	remote.EXPECT().
		Create(gomock.Any(), models.KindFood, gomock.Any()).
		Return("", errors.New("offline"))

	s, queue := newTestInventory(t, remote)
	ctx := context.Background()

	created, err := s.Create(ctx, models.KindFood, models.Entity{Name: "鮮奶"})
	require.NoError(t, err)

	removed, err := s.Delete(ctx, models.KindFood, created.LocalID)
	require.NoError(t, err)
	assert.Equal(t, "鮮奶", removed.Name)

	pending, err := queue.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending, "the pending create is resolved, nothing new is queued")

	entry, err := queue.Get(ctx, removed.PendingSyncID)
	require.NoError(t, err)
	assert.True(t, entry.Synced)
}

func TestInventory_Delete_NoRemoteIDQueuesNothing(t *testing.T) {
	s, queue := newTestInventory(t, nil)
	ctx := context.Background()

	// nil remote: the create itself goes straight to the queue, so build the
	// never-mirrored case by resolving that entry first.
	created, err := s.Create(ctx, models.KindFood, models.Entity{Name: "鮮奶"})
	require.NoError(t, err)

	got, err := s.Get(ctx, models.KindFood, created.LocalID)
	require.NoError(t, err)
	require.NoError(t, queue.MarkResolved(ctx, got.PendingSyncID, testNow))
	s.adoptRemoteID(models.KindFood, created.LocalID, "", got.PendingSyncID)

	_, err = s.Delete(ctx, models.KindFood, created.LocalID)
	require.NoError(t, err)

	pending, err := queue.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestInventory_Delete_RemoteFailureQueuesRemoteID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	remote := mock.NewMockRemoteStore(ctrl)
	remote.EXPECT().Create(gomock.Any(), models.KindFood, gomock.Any()).Return("rem-3", nil)
	remote.EXPECT().Delete(gomock.Any(), models.KindFood, "rem-3").Return(errors.New("timeout"))

	s, queue := newTestInventory(t, remote)
	ctx := context.Background()

	created, err := s.Create(ctx, models.KindFood, models.Entity{Name: "鮮奶"})
	require.NoError(t, err)

	_, err = s.Delete(ctx, models.KindFood, created.LocalID)
	require.NoError(t, err)

	pending, err := queue.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, models.ActionDelete, pending[0].Action)
	assert.Equal(t, "rem-3", pending[0].RemoteID)
	assert.Nil(t, pending[0].Payload)
}

func TestInventory_Search(t *testing.T) {
	s, _ := newTestInventory(t, nil)
	ctx := context.Background()

	for _, name := range []string{"鮮奶", "泡麵", "Milk Tea"} {
		_, err := s.Create(ctx, models.KindFood, models.Entity{Name: name})
		require.NoError(t, err)
	}

	all, err := s.Search(ctx, models.KindFood, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Same updatedAt under the fixed clock: newest local id first.
	assert.Equal(t, "Milk Tea", all[0].Name)

	matched, err := s.Search(ctx, models.KindFood, "milk")
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, "Milk Tea", matched[0].Name)

	matched, err = s.Search(ctx, models.KindFood, "nonexistent-zzz")
	require.NoError(t, err)
	assert.Empty(t, matched)
}

func TestInventory_Search_MatchesBrandAndStatus(t *testing.T) {
	s, _ := newTestInventory(t, nil)
	ctx := context.Background()

	_, err := s.Create(ctx, models.KindFood, models.Entity{Name: "鮮奶", Brand: "義美"})
	require.NoError(t, err)
	_, err = s.Create(ctx, models.KindFood, models.Entity{Name: "泡麵", Brand: "統一"})
	require.NoError(t, err)

	byBrand, err := s.Search(ctx, models.KindFood, "義美")
	require.NoError(t, err)
	require.Len(t, byBrand, 1)
	assert.Equal(t, "鮮奶", byBrand[0].Name)

	byStatus, err := s.Search(ctx, models.KindFood, "good")
	require.NoError(t, err)
	assert.Len(t, byStatus, 2)
}

func TestInventory_Stats_Subscriptions(t *testing.T) {
	s, _ := newTestInventory(t, nil)
	ctx := context.Background()

	for _, days := range []int{2, 6, 40} {
		_, err := s.Create(ctx, models.KindSubscription, models.Entity{TargetDate: dateIn(days)})
		require.NoError(t, err)
	}

	st, err := s.Stats(ctx, models.KindSubscription)
	require.NoError(t, err)

	assert.Equal(t, 3, st.Total)
	assert.Equal(t, 1, st.Expiring3Days)
	assert.Equal(t, 2, st.Expiring7Days)
	assert.Equal(t, 2, st.Expiring30Days)
	assert.Equal(t, 0, st.Expired)
	assert.Equal(t, 1, st.Active, "only the 40-day subscription derives to active")
}

func TestInventory_Stats_CountsExpired(t *testing.T) {
	s, _ := newTestInventory(t, nil)
	ctx := context.Background()

	_, err := s.Create(ctx, models.KindFood, models.Entity{TargetDate: dateIn(-3)})
	require.NoError(t, err)
	_, err = s.Create(ctx, models.KindFood, models.Entity{TargetDate: dateIn(10)})
	require.NoError(t, err)

	st, err := s.Stats(ctx, models.KindFood)
	require.NoError(t, err)

	assert.Equal(t, 2, st.Total)
	assert.Equal(t, 1, st.Expired)
	assert.Equal(t, 1, st.Expiring3Days, "expired items fall into every bucket")
}
