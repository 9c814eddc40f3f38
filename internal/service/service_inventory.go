package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"dario.cat/mergo"

	"github.com/pylin/shelflife/internal/adapter"
	"github.com/pylin/shelflife/internal/logger"
	"github.com/pylin/shelflife/internal/store"
	"github.com/pylin/shelflife/models"
)

// Default field values applied on create when the caller leaves them empty.
const (
	defaultFoodName         = "未命名食品"
	defaultSubscriptionName = "未命名訂閱"
	defaultBrand            = "未知品牌"
	defaultPrice            = "NT$ 0"
	defaultTargetDays       = 30
)

type inventoryService struct {
	queue  store.QueueRepository
	remote adapter.RemoteStore
	logger *logger.Logger

	nowFn    func() time.Time
	dispatch func(func())

	mu     sync.RWMutex
	nextID map[models.Kind]int64
	items  map[models.Kind]map[int64]models.Entity
}

// NewInventoryService builds the entity store. The remote store is optional:
// with a nil remote every mutation is queued for later replay instead of
// mirrored immediately.
func NewInventoryService(queue store.QueueRepository, remote adapter.RemoteStore, log *logger.Logger) InventoryService {
	return newInventoryService(queue, remote, log)
}

func newInventoryService(queue store.QueueRepository, remote adapter.RemoteStore, log *logger.Logger) *inventoryService {
	return &inventoryService{
		queue:    queue,
		remote:   remote,
		logger:   log,
		nowFn:    time.Now,
		dispatch: func(f func()) { go f() },
		nextID: map[models.Kind]int64{
			models.KindFood:         1,
			models.KindSubscription: 1,
		},
		items: map[models.Kind]map[int64]models.Entity{
			models.KindFood:         {},
			models.KindSubscription: {},
		},
	}
}

func (s *inventoryService) Create(ctx context.Context, kind models.Kind, draft models.Entity) (models.Entity, error) {
	if !kind.Valid() {
		return models.Entity{}, ErrUnknownKind
	}

	now := s.nowFn()
	e := draft
	e.Kind = kind
	e.RemoteID = ""
	e.PendingSyncID = 0
	applyCreateDefaults(&e, now)
	e.CreatedAt = now
	e.UpdatedAt = now
	e.Recompute(now)

	s.mu.Lock()
	e.LocalID = s.nextID[kind]
	s.nextID[kind]++
	s.items[kind][e.LocalID] = e
	s.mu.Unlock()

	snapshot := e
	s.dispatch(func() { s.mirrorCreate(context.WithoutCancel(ctx), snapshot) })

	return e, nil
}

func applyCreateDefaults(e *models.Entity, now time.Time) {
	if e.Name == "" {
		if e.Kind == models.KindSubscription {
			e.Name = defaultSubscriptionName
		} else {
			e.Name = defaultFoodName
		}
	}
	if e.Kind == models.KindFood && e.Brand == "" {
		e.Brand = defaultBrand
	}
	if e.Price == "" {
		e.Price = defaultPrice
	}
	if e.Kind == models.KindFood && e.Status == "" {
		e.Status = models.StatusGood
	}
	if e.TargetDate == "" {
		e.TargetDate = now.AddDate(0, 0, defaultTargetDays).Format(models.DateLayout)
	}
}

func (s *inventoryService) Get(_ context.Context, kind models.Kind, localID int64) (models.Entity, error) {
	if !kind.Valid() {
		return models.Entity{}, ErrUnknownKind
	}

	s.mu.RLock()
	e, ok := s.items[kind][localID]
	s.mu.RUnlock()
	if !ok {
		return models.Entity{}, ErrEntityNotFound
	}

	e.Recompute(s.nowFn())
	return e, nil
}

func (s *inventoryService) GetAll(_ context.Context, kind models.Kind) ([]models.Entity, error) {
	if !kind.Valid() {
		return nil, ErrUnknownKind
	}
	return s.collect(kind), nil
}

// collect returns recomputed copies of a kind's entities, most recently
// updated first.
func (s *inventoryService) collect(kind models.Kind) []models.Entity {
	now := s.nowFn()

	s.mu.RLock()
	entities := make([]models.Entity, 0, len(s.items[kind]))
	for _, e := range s.items[kind] {
		e.Recompute(now)
		entities = append(entities, e)
	}
	s.mu.RUnlock()

	sort.Slice(entities, func(i, j int) bool {
		if !entities[i].UpdatedAt.Equal(entities[j].UpdatedAt) {
			return entities[i].UpdatedAt.After(entities[j].UpdatedAt)
		}
		return entities[i].LocalID > entities[j].LocalID
	})
	return entities
}

func (s *inventoryService) Update(ctx context.Context, kind models.Kind, localID int64, patch models.EntityPatch) (models.Entity, error) {
	if !kind.Valid() {
		return models.Entity{}, ErrUnknownKind
	}

	now := s.nowFn()
	overlay := models.Entity{
		Name:       patch.Name,
		Brand:      patch.Brand,
		URL:        patch.URL,
		Price:      patch.Price,
		Status:     patch.Status,
		TargetDate: patch.TargetDate,
	}

	s.mu.Lock()
	e, ok := s.items[kind][localID]
	if !ok {
		s.mu.Unlock()
		return models.Entity{}, ErrEntityNotFound
	}
	if err := mergo.Merge(&e, overlay, mergo.WithOverride); err != nil {
		s.mu.Unlock()
		return models.Entity{}, fmt.Errorf("merge update patch: %w", err)
	}
	e.UpdatedAt = now
	e.Recompute(now)
	s.items[kind][localID] = e
	s.mu.Unlock()

	snapshot := e
	s.dispatch(func() { s.mirrorUpdate(context.WithoutCancel(ctx), snapshot) })

	return e, nil
}

func (s *inventoryService) Delete(ctx context.Context, kind models.Kind, localID int64) (models.Entity, error) {
	if !kind.Valid() {
		return models.Entity{}, ErrUnknownKind
	}

	s.mu.Lock()
	e, ok := s.items[kind][localID]
	if !ok {
		s.mu.Unlock()
		return models.Entity{}, ErrEntityNotFound
	}
	delete(s.items[kind], localID)
	s.mu.Unlock()

	removed := e
	s.dispatch(func() { s.mirrorDelete(context.WithoutCancel(ctx), removed) })

	return removed, nil
}

func (s *inventoryService) Search(ctx context.Context, kind models.Kind, query string) ([]models.Entity, error) {
	all, err := s.GetAll(ctx, kind)
	if err != nil {
		return nil, err
	}
	if query == "" {
		return all, nil
	}

	q := strings.ToLower(query)
	matched := make([]models.Entity, 0, len(all))
	for _, e := range all {
		if strings.Contains(strings.ToLower(e.Name), q) ||
			strings.Contains(strings.ToLower(e.Brand), q) ||
			strings.Contains(strings.ToLower(e.URL), q) ||
			strings.Contains(strings.ToLower(e.Status), q) {
			matched = append(matched, e)
		}
	}
	return matched, nil
}

func (s *inventoryService) Stats(_ context.Context, kind models.Kind) (models.Stats, error) {
	if !kind.Valid() {
		return models.Stats{}, ErrUnknownKind
	}

	var st models.Stats
	for _, e := range s.collect(kind) {
		st.Total++
		if e.DaysRemaining <= 0 {
			st.Expired++
		}
		if e.DaysRemaining <= 3 {
			st.Expiring3Days++
		}
		if e.DaysRemaining <= 7 {
			st.Expiring7Days++
		}
		if e.DaysRemaining <= 30 {
			st.Expiring30Days++
		}
		if kind == models.KindSubscription && e.Status == models.StatusActive {
			st.Active++
		}
	}
	return st, nil
}

// replaceAll swaps a kind's whole collection, assigning fresh sequential
// local ids and preserving the remote identities. Used only by bootstrap.
func (s *inventoryService) replaceAll(kind models.Kind, entities []models.Entity) {
	now := s.nowFn()

	s.mu.Lock()
	defer s.mu.Unlock()

	coll := make(map[int64]models.Entity, len(entities))
	var id int64 = 1
	for _, e := range entities {
		e.Kind = kind
		e.LocalID = id
		e.PendingSyncID = 0
		if e.CreatedAt.IsZero() {
			e.CreatedAt = now
		}
		e.UpdatedAt = now
		e.Recompute(now)
		coll[id] = e
		id++
	}

	s.items[kind] = coll
	s.nextID[kind] = id
}

// adoptRemoteID records a replayed entry's outcome on the live entity: the
// remote identity (for creates) and the cleared pending reference. A no-op
// when the entity was deleted in the meantime.
func (s *inventoryService) adoptRemoteID(kind models.Kind, localID int64, remoteID string, queueID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.items[kind][localID]
	if !ok {
		return
	}
	if remoteID != "" {
		e.RemoteID = remoteID
	}
	if e.PendingSyncID == queueID {
		e.PendingSyncID = 0
	}
	s.items[kind][localID] = e
}

// mirrorCreate runs detached from the caller. Success writes the remote id
// back onto the live entity; failure downgrades into a queued create.
func (s *inventoryService) mirrorCreate(ctx context.Context, snapshot models.Entity) {
	if s.remote != nil {
		remoteID, err := s.remote.Create(ctx, snapshot.Kind, snapshot)
		if err == nil {
			s.mu.Lock()
			if e, ok := s.items[snapshot.Kind][snapshot.LocalID]; ok {
				e.RemoteID = remoteID
				s.items[snapshot.Kind][snapshot.LocalID] = e
			}
			s.mu.Unlock()
			return
		}
		s.logger.Warn().Err(err).
			Str("op", "create").
			Str("kind", string(snapshot.Kind)).
			Int64("local_id", snapshot.LocalID).
			Msg("remote create failed, queueing for retry")
	}

	s.enqueueFailed(ctx, models.QueueEntry{
		Action:  models.ActionCreate,
		Kind:    snapshot.Kind,
		Payload: &snapshot,
	}, snapshot.Kind, snapshot.LocalID)
}

func (s *inventoryService) mirrorUpdate(ctx context.Context, snapshot models.Entity) {
	if snapshot.PendingSyncID != 0 {
		s.supersede(ctx, snapshot)
		return
	}
	if snapshot.RemoteID == "" {
		// Never created remotely and nothing queued: the in-flight create
		// attempt carries the data, or its failure will queue the full
		// snapshot anyway.
		return
	}

	if s.remote != nil {
		err := s.remote.Update(ctx, snapshot.Kind, snapshot.RemoteID, snapshot)
		if err == nil {
			return
		}
		s.logger.Warn().Err(err).
			Str("op", "update").
			Str("kind", string(snapshot.Kind)).
			Int64("local_id", snapshot.LocalID).
			Str("remote_id", snapshot.RemoteID).
			Msg("remote update failed, queueing for retry")
	}

	s.enqueueFailed(ctx, models.QueueEntry{
		Action:   models.ActionUpdate,
		Kind:     snapshot.Kind,
		Payload:  &snapshot,
		RemoteID: snapshot.RemoteID,
	}, snapshot.Kind, snapshot.LocalID)
}

func (s *inventoryService) mirrorDelete(ctx context.Context, removed models.Entity) {
	if removed.PendingSyncID != 0 {
		if removed.RemoteID == "" {
			// The entity never reached the remote store; retiring the pending
			// create is all there is to do.
			if err := s.queue.MarkResolved(ctx, removed.PendingSyncID, s.nowFn()); err != nil {
				s.logger.Err(err).
					Str("op", "delete").
					Int64("queue_id", removed.PendingSyncID).
					Msg("failed to retire pending entry for deleted entity")
			}
			return
		}

		entry, err := s.queue.Get(ctx, removed.PendingSyncID)
		if err != nil {
			s.logger.Err(err).
				Str("op", "delete").
				Int64("queue_id", removed.PendingSyncID).
				Msg("failed to load pending entry for supersede")
			return
		}
		entry.Action = models.ActionDelete
		entry.Payload = nil
		entry.RemoteID = removed.RemoteID
		if err = s.queue.Replace(ctx, entry); err != nil {
			s.logger.Err(err).
				Str("op", "delete").
				Int64("queue_id", entry.ID).
				Msg("failed to supersede pending entry with delete")
		}
		return
	}

	if removed.RemoteID == "" {
		return
	}

	if s.remote != nil {
		err := s.remote.Delete(ctx, removed.Kind, removed.RemoteID)
		if err == nil {
			return
		}
		s.logger.Warn().Err(err).
			Str("op", "delete").
			Str("kind", string(removed.Kind)).
			Int64("local_id", removed.LocalID).
			Str("remote_id", removed.RemoteID).
			Msg("remote delete failed, queueing for retry")
	}

	s.enqueueFailed(ctx, models.QueueEntry{
		Action:   models.ActionDelete,
		Kind:     removed.Kind,
		RemoteID: removed.RemoteID,
	}, removed.Kind, removed.LocalID)
}

// supersede folds a newer mutation into the entity's still-pending queue
// entry instead of appending a second one. A pending create keeps its action
// so replay still creates the entry with the latest fields.
func (s *inventoryService) supersede(ctx context.Context, snapshot models.Entity) {
	entry, err := s.queue.Get(ctx, snapshot.PendingSyncID)
	if err != nil {
		s.logger.Err(err).
			Str("op", "update").
			Int64("queue_id", snapshot.PendingSyncID).
			Msg("failed to load pending entry for supersede")
		return
	}

	entry.Payload = &snapshot
	if entry.Action != models.ActionCreate {
		entry.Action = models.ActionUpdate
		entry.RemoteID = snapshot.RemoteID
	}
	if err = s.queue.Replace(ctx, entry); err != nil {
		s.logger.Err(err).
			Str("op", "update").
			Int64("queue_id", entry.ID).
			Msg("failed to supersede pending entry")
	}
}

// enqueueFailed records a failed remote write in the retry queue and points
// the live entity at the new entry.
func (s *inventoryService) enqueueFailed(ctx context.Context, entry models.QueueEntry, kind models.Kind, localID int64) {
	stored, err := s.queue.Enqueue(ctx, entry)
	if err != nil {
		s.logger.Err(err).
			Str("kind", string(kind)).
			Int64("local_id", localID).
			Msg("failed to enqueue retry entry")
		return
	}

	s.mu.Lock()
	if e, ok := s.items[kind][localID]; ok {
		e.PendingSyncID = stored.ID
		s.items[kind][localID] = e
	}
	s.mu.Unlock()
}
