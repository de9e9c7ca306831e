package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"

	"github.com/bnema/aeye-cli/internal/domain"
	"github.com/bnema/aeye-cli/internal/logging"
	"github.com/bnema/aeye-cli/internal/ports"
)

const DefaultPollInterval = 500 * time.Millisecond

var (
	ErrNoFeedSources   = errors.New("no feed sources")
	ErrInvalidInterval = errors.New("poll interval must be positive")
)

// FeedPoller fetches the latest image of every source at a fixed rate and
// keeps exactly one published handle per source.
type FeedPoller struct {
	fetcher ports.ImageFetcher
	display ports.Display
	metrics ports.PollMetrics
	clock   ports.Clock
	logger  *slog.Logger
}

func NewFeedPoller(fetcher ports.ImageFetcher, display ports.Display, metrics ports.PollMetrics, clock ports.Clock, logger *slog.Logger) *FeedPoller {
	if metrics == nil {
		metrics = ports.NopPollMetrics{}
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &FeedPoller{
		fetcher: fetcher,
		display: display,
		metrics: metrics,
		clock:   clock,
		logger:  logging.Default(logger).With("component", "feed-poller"),
	}
}

type PollStats struct {
	Attempts  uint64
	Successes uint64
	Failures  uint64
	Skipped   uint64
	LastSeq   uint64
	LastError string
}

type pollSlot struct {
	source domain.FeedSource
	busy   atomic.Bool
	ticks  atomic.Uint64

	// guarded by PollRun.mu
	current *domain.ResourceHandle
	stats   PollStats
}

// PollRun is one started polling session. It ends when Stop is called or
// the context passed to Start is done.
type PollRun struct {
	poller    *FeedPoller
	interval  time.Duration
	ctx       context.Context
	cancel    context.CancelFunc
	scheduler gocron.Scheduler
	slots     []*pollSlot
	live      atomic.Int64
	inflight  sync.WaitGroup
	stopOnce  sync.Once
	done      chan struct{}

	mu      sync.Mutex
	stopped bool
	unwatch func() bool
}

// Start fires the first cycle for every source immediately and then every
// interval, measured between scheduled ticks rather than completions. A
// tick that finds the source's previous fetch still outstanding is skipped.
func (p *FeedPoller) Start(ctx context.Context, sources []domain.FeedSource, interval time.Duration) (*PollRun, error) {
	if interval <= 0 {
		return nil, ErrInvalidInterval
	}
	if len(sources) == 0 {
		return nil, ErrNoFeedSources
	}

	seen := make(map[domain.FeedSourceID]struct{}, len(sources))
	slots := make([]*pollSlot, 0, len(sources))
	for _, source := range sources {
		if err := source.Validate(); err != nil {
			return nil, fmt.Errorf("feed source %q: %w", source.ID, err)
		}
		if _, ok := seen[source.ID]; ok {
			return nil, fmt.Errorf("duplicate feed source %q", source.ID)
		}
		seen[source.ID] = struct{}{}
		slots = append(slots, &pollSlot{source: source})
	}

	scheduler, err := gocron.NewScheduler(gocron.WithLogger(p.logger))
	if err != nil {
		return nil, fmt.Errorf("create poll scheduler: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	run := &PollRun{
		poller:    p,
		interval:  interval,
		ctx:       runCtx,
		cancel:    cancel,
		scheduler: scheduler,
		slots:     slots,
		done:      make(chan struct{}),
	}

	for _, slot := range slots {
		_, err := scheduler.NewJob(
			gocron.DurationJob(interval),
			gocron.NewTask(run.tick, slot),
			gocron.WithName("poll:"+string(slot.source.ID)),
			gocron.WithStartAt(gocron.WithStartImmediately()),
		)
		if err != nil {
			cancel()
			_ = scheduler.Shutdown()
			return nil, fmt.Errorf("schedule feed source %q: %w", slot.source.ID, err)
		}
	}

	scheduler.Start()
	run.mu.Lock()
	run.unwatch = context.AfterFunc(ctx, run.Stop)
	run.mu.Unlock()
	p.logger.Info("feed polling started", "sources", len(slots), "interval", interval)

	return run, nil
}

func (r *PollRun) Interval() time.Duration {
	return r.interval
}

func (r *PollRun) tick(slot *pollSlot) {
	id := slot.source.ID

	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	// every counted tick ends up as exactly one attempt or one skip
	cycle := slot.ticks.Add(1) - 1
	if !slot.busy.CompareAndSwap(false, true) {
		slot.stats.Skipped++
		r.mu.Unlock()
		r.poller.metrics.RecordSkippedTick(id)
		r.poller.logger.Debug("tick skipped, fetch outstanding", "source_id", id, "cycle", cycle)
		return
	}
	slot.stats.Attempts++
	r.inflight.Add(1)
	r.mu.Unlock()

	r.poller.metrics.RecordFetchAttempt(id)
	go r.fetch(slot, cycle)
}

func (r *PollRun) fetch(slot *pollSlot, cycle uint64) {
	defer r.inflight.Done()
	defer slot.busy.Store(false)

	id := slot.source.ID
	started := r.poller.clock.Now()

	image, err := r.poller.fetcher.FetchImage(r.ctx, slot.source)
	if err != nil {
		if r.ctx.Err() != nil {
			return
		}
		r.mu.Lock()
		slot.stats.Failures++
		slot.stats.LastError = err.Error()
		r.mu.Unlock()

		r.poller.metrics.RecordFetchFailure(id)
		r.poller.logger.Warn("feed fetch failed", "source_id", id, "cycle", cycle, "error", err)
		return
	}

	handle := r.allocate(id, cycle, image)

	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		handle.Release()
		return
	}
	previous := slot.current
	slot.current = handle
	slot.stats.Successes++
	slot.stats.LastSeq = cycle
	slot.stats.LastError = ""
	r.poller.display.Publish(handle)
	r.mu.Unlock()

	r.poller.metrics.RecordFetchSuccess(id, r.poller.clock.Now().Sub(started))
	if previous != nil {
		previous.Release()
	}
}

func (r *PollRun) allocate(id domain.FeedSourceID, cycle uint64, image domain.Image) *domain.ResourceHandle {
	r.live.Add(1)
	r.poller.metrics.HandleAllocated()

	return domain.NewResourceHandle(id, "mem:"+uuid.NewString(), cycle, r.poller.clock.Now(), image, func() {
		r.live.Add(-1)
		r.poller.metrics.HandleReleased()
	})
}

// Stop is idempotent. When it returns no tick will fire, nothing more is
// published, and every handle this run allocated has been released.
func (r *PollRun) Stop() {
	r.stopOnce.Do(func() {
		r.mu.Lock()
		r.stopped = true
		handles := make([]*domain.ResourceHandle, 0, len(r.slots))
		for _, slot := range r.slots {
			if slot.current != nil {
				handles = append(handles, slot.current)
				slot.current = nil
			}
		}
		r.mu.Unlock()

		r.cancel()
		if err := r.scheduler.Shutdown(); err != nil {
			r.poller.logger.Warn("shutdown poll scheduler", "error", err)
		}

		for _, slot := range r.slots {
			r.poller.display.Withdraw(slot.source.ID)
		}
		for _, handle := range handles {
			handle.Release()
		}

		r.inflight.Wait()
		r.mu.Lock()
		unwatch := r.unwatch
		r.mu.Unlock()
		if unwatch != nil {
			unwatch()
		}

		r.poller.logger.Info("feed polling stopped", "live_handles", r.LiveHandles())
		close(r.done)
	})
}

// Cancel is Stop under the name used by teardown paths.
func (r *PollRun) Cancel() {
	r.Stop()
}

func (r *PollRun) Done() <-chan struct{} {
	return r.done
}

func (r *PollRun) Stopped() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopped
}

func (r *PollRun) LiveHandles() int {
	return int(r.live.Load())
}

func (r *PollRun) Current(id domain.FeedSourceID) (domain.HandleInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, slot := range r.slots {
		if slot.source.ID == id && slot.current != nil {
			return slot.current.Info(), true
		}
	}
	return domain.HandleInfo{}, false
}

func (r *PollRun) Stats() map[domain.FeedSourceID]PollStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[domain.FeedSourceID]PollStats, len(r.slots))
	for _, slot := range r.slots {
		out[slot.source.ID] = slot.stats
	}
	return out
}
