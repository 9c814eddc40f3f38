package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/pylin/shelflife/internal/adapter"
	"github.com/pylin/shelflife/internal/logger"
	"github.com/pylin/shelflife/internal/store"
	"github.com/pylin/shelflife/models"
)

const (
	defaultReplayInterval = 5 * time.Minute
	replayBaseBackoff     = 500 * time.Millisecond
)

type replayService struct {
	queue     store.QueueRepository
	remote    adapter.RemoteStore
	inventory *inventoryService
	logger    *logger.Logger

	nowFn       func() time.Time
	maxAttempts uint64
	baseBackoff time.Duration
}

func newReplayService(queue store.QueueRepository, remote adapter.RemoteStore, inventory *inventoryService, maxAttempts uint64, log *logger.Logger) *replayService {
	if maxAttempts == 0 {
		maxAttempts = 3
	}
	return &replayService{
		queue:       queue,
		remote:      remote,
		inventory:   inventory,
		logger:      log,
		nowFn:       time.Now,
		maxAttempts: maxAttempts,
		baseBackoff: replayBaseBackoff,
	}
}

// ReplayPending walks the pending entries oldest-first. Entries that still
// fail after backoff stay pending for the next cycle; an unusable or rejected
// write credential aborts the cycle since no later entry can succeed either.
func (r *replayService) ReplayPending(ctx context.Context) error {
	if r.remote == nil {
		return adapter.ErrWriteUnavailable
	}

	pending, err := r.queue.ListPending(ctx)
	if err != nil {
		return fmt.Errorf("list pending entries for replay: %w", err)
	}

	for _, entry := range pending {
		remoteID, err := r.replayEntry(ctx, entry)
		if errors.Is(err, adapter.ErrWriteUnavailable) || errors.Is(err, adapter.ErrUnauthorized) {
			r.logger.Warn().Err(err).
				Int64("queue_id", entry.ID).
				Msg("replay cycle aborted, remote writes unavailable")
			return err
		}
		if err != nil {
			r.logger.Warn().Err(err).
				Int64("queue_id", entry.ID).
				Str("action", string(entry.Action)).
				Str("kind", string(entry.Kind)).
				Msg("replay attempt failed, entry stays pending")
			continue
		}

		if err = r.queue.MarkResolved(ctx, entry.ID, r.nowFn()); err != nil {
			r.logger.Err(err).
				Int64("queue_id", entry.ID).
				Msg("failed to resolve replayed entry")
			continue
		}
		if entry.Payload != nil {
			r.inventory.adoptRemoteID(entry.Kind, entry.Payload.LocalID, remoteID, entry.ID)
		}

		r.logger.Info().
			Int64("queue_id", entry.ID).
			Str("action", string(entry.Action)).
			Str("kind", string(entry.Kind)).
			Msg("replayed queue entry")
	}

	return nil
}

// replayEntry retries a single entry with exponential backoff. Credential and
// validation failures are permanent; everything else is assumed transient.
func (r *replayService) replayEntry(ctx context.Context, entry models.QueueEntry) (string, error) {
	backoff := retry.WithMaxRetries(r.maxAttempts, retry.NewExponential(r.baseBackoff))

	var remoteID string
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var attemptErr error
		remoteID, attemptErr = r.applyEntry(ctx, entry)
		if attemptErr == nil {
			return nil
		}
		if errors.Is(attemptErr, adapter.ErrWriteUnavailable) ||
			errors.Is(attemptErr, adapter.ErrUnauthorized) ||
			errors.Is(attemptErr, adapter.ErrValidation) {
			return attemptErr
		}
		return retry.RetryableError(attemptErr)
	})
	return remoteID, err
}

func (r *replayService) applyEntry(ctx context.Context, entry models.QueueEntry) (string, error) {
	switch entry.Action {
	case models.ActionCreate:
		if entry.Payload == nil {
			return "", fmt.Errorf("create entry %d has no payload", entry.ID)
		}
		return r.remote.Create(ctx, entry.Kind, *entry.Payload)

	case models.ActionUpdate:
		if entry.Payload == nil {
			return "", fmt.Errorf("update entry %d has no payload", entry.ID)
		}
		remoteID := entry.RemoteID
		if remoteID == "" {
			remoteID = entry.Payload.RemoteID
		}
		return "", r.remote.Update(ctx, entry.Kind, remoteID, *entry.Payload)

	case models.ActionDelete:
		err := r.remote.Delete(ctx, entry.Kind, entry.RemoteID)
		if errors.Is(err, adapter.ErrRemoteNotFound) {
			// Already gone remotely; the intent is satisfied.
			return "", nil
		}
		return "", err

	default:
		return "", fmt.Errorf("unknown queue action %q", entry.Action)
	}
}

// replayJob runs ReplayPending on a ticker. Idle until Start is called.
type replayJob struct {
	replay ReplayService

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewReplayJob creates a job that replays the retry queue every interval.
func NewReplayJob(replay ReplayService) ReplayJob {
	return &replayJob{replay: replay}
}

// Start stops any previously running job, then launches a goroutine calling
// ReplayPending every interval until ctx is cancelled or Stop is called. A
// non-positive interval falls back to five minutes.
func (j *replayJob) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = defaultReplayInterval
	}

	j.Stop()

	j.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.wg.Add(1)
	j.mu.Unlock()

	go func() {
		defer j.wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-jobCtx.Done():
				return
			case <-t.C:
				_ = j.replay.ReplayPending(jobCtx)
			}
		}
	}()
}

// Stop cancels the background goroutine and blocks until it has exited.
// Safe to call when the job is not running.
func (j *replayJob) Stop() {
	j.mu.Lock()
	cancel := j.cancel
	j.cancel = nil
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	j.wg.Wait()
}
