package genqueue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrProcessorHeld is returned when another operator or replica already
// holds the processor lock.
var ErrProcessorHeld = errors.New("genqueue: processor already held elsewhere")

// ErrQueuePaused is returned when Start is called on a paused queue. Paused
// items are only returned to pending by Resume; starting around them would
// strand them.
var ErrQueuePaused = errors.New("genqueue: queue is paused, resume it instead")

// Locker is the single-flight guard: exactly one processor per queue may
// run across all replicas and operator sessions. Refresh extends the hold
// while the loop is alive so a crashed holder expires instead of wedging
// the queue.
type Locker interface {
	Acquire(ctx context.Context) (bool, error)
	Refresh(ctx context.Context) error
	Release(ctx context.Context) error
}

// Processor drives the queue: one immediate tick on start, then one tick
// per interval, one item per tick, one generation call in flight
// system-wide. It owns its timer; ambient globals are deliberately absent
// so the lifecycle is testable.
type Processor struct {
	store    StorePort
	exec     Executor
	notifier *Notifier
	locker   Locker
	logger   *slog.Logger
	metrics  *Metrics
	interval time.Duration

	clock     func() time.Time
	newTicker func(time.Duration) (<-chan time.Time, func())

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	done    chan struct{}
}

// NewProcessor wires a processor. interval <= 0 falls back to 30 seconds,
// matching the original cadence.
func NewProcessor(store StorePort, exec Executor, notifier *Notifier, locker Locker, logger *slog.Logger, metrics *Metrics, interval time.Duration) *Processor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Processor{
		store:    store,
		exec:     exec,
		notifier: notifier,
		locker:   locker,
		logger:   logger,
		metrics:  metrics,
		interval: interval,
		clock: func() time.Time {
			return time.Now().UTC()
		},
		newTicker: func(d time.Duration) (<-chan time.Time, func()) {
			t := time.NewTicker(d)
			return t.C, t.Stop
		},
	}
}

// Start begins the processing loop. Starting while already running is a
// no-op: there is never more than one timer. Returns ErrProcessorHeld when
// another session owns the queue and ErrQueuePaused when the queue is
// paused; only Resume clears a pause, because it also returns paused items
// to pending.
func (p *Processor) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return nil
	}
	ok, err := p.locker.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("genqueue: acquire processor lock: %w", err)
	}
	if !ok {
		return ErrProcessorHeld
	}

	settings, err := p.store.GetSettings(ctx)
	if err != nil {
		_ = p.locker.Release(ctx)
		return err
	}
	if settings.Status == QueuePaused {
		_ = p.locker.Release(ctx)
		return ErrQueuePaused
	}
	settings.Status = QueueRunning
	settings.PausedAt = nil
	settings.PauseReason = ""
	if err := p.store.SaveSettings(ctx, settings); err != nil {
		_ = p.locker.Release(ctx)
		return err
	}

	p.running = true
	p.stopCh = make(chan struct{})
	p.done = make(chan struct{})
	go p.run(ctx, p.stopCh, p.done)
	return nil
}

// Pause records the queue-wide pause and stops scheduling further ticks.
// An in-flight generation call is left to settle; pause only prevents the
// next one.
func (p *Processor) Pause(ctx context.Context, reason PauseReason) error {
	settings, err := p.store.GetSettings(ctx)
	if err != nil {
		return err
	}
	now := p.clock()
	settings.Status = QueuePaused
	settings.PausedAt = &now
	settings.PauseReason = reason
	if err := p.store.SaveSettings(ctx, settings); err != nil {
		return err
	}
	p.signalStop()
	return nil
}

// Resume returns paused items to pending, clears the queue-wide pause and
// restarts the loop.
func (p *Processor) Resume(ctx context.Context) error {
	if _, err := p.store.ResetPausedItems(ctx); err != nil {
		return err
	}
	settings, err := p.store.GetSettings(ctx)
	if err != nil {
		return err
	}
	settings.Status = QueueIdle
	settings.PausedAt = nil
	settings.PauseReason = ""
	if err := p.store.SaveSettings(ctx, settings); err != nil {
		return err
	}
	return p.Start(ctx)
}

// Stop halts the loop without touching queue state, for shutdown.
func (p *Processor) Stop() {
	p.signalStop()
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Running reports whether the loop is active.
func (p *Processor) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Processor) signalStop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running || p.stopCh == nil {
		return
	}
	select {
	case <-p.stopCh:
	default:
		close(p.stopCh)
	}
}

func (p *Processor) run(ctx context.Context, stopCh <-chan struct{}, done chan<- struct{}) {
	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
		if err := p.locker.Release(context.WithoutCancel(ctx)); err != nil {
			p.log().Warn("release processor lock", slog.Any("error", err))
		}
		close(done)
	}()

	tickC, stopTicker := p.newTicker(p.interval)
	defer stopTicker()

	for {
		if err := p.locker.Refresh(ctx); err != nil {
			p.log().Warn("refresh processor lock", slog.Any("error", err))
		}
		if !p.tick(ctx) {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-tickC:
		}
	}
}

// tick processes at most one item. The return value is false when the loop
// must stop: queue paused, drained to idle, or a pause circuit-breaker
// fired. Transient store errors keep the loop alive for the next tick.
func (p *Processor) tick(ctx context.Context) bool {
	start := p.clock()
	defer func() {
		p.metrics.ObserveTick(time.Since(start))
	}()

	settings, err := p.store.GetSettings(ctx)
	if err != nil {
		p.log().Error("load queue settings", slog.Any("error", err))
		return true
	}
	if settings.Status == QueuePaused {
		return false
	}

	item, ok, err := p.store.NextPending(ctx)
	if err != nil {
		p.log().Error("select pending item", slog.Any("error", err))
		return true
	}
	if !ok {
		p.setIdle(ctx)
		return false
	}

	if err := p.store.MarkProcessing(ctx, item.ID, p.clock()); err != nil {
		p.log().Error("mark processing", slog.String("item", item.ID.String()), slog.Any("error", err))
		return true
	}

	result := p.exec.Generate(ctx, item)
	switch {
	case result.Success:
		if err := p.store.MarkCompleted(ctx, item.ID, p.clock()); err != nil {
			p.log().Error("mark completed", slog.String("item", item.ID.String()), slog.Any("error", err))
		}
		p.metrics.ItemProcessed(true)
		p.notifier.Notify(ctx, item, NotifyCompleted,
			fmt.Sprintf("Content generation for %s completed", item.CourseCode))

	case result.Paused:
		// Systemic condition: the item is parked, not failed, and the
		// whole queue stops until someone resumes it.
		if err := p.store.MarkPausedInFlight(ctx, item.ID); err != nil {
			p.log().Error("mark paused", slog.String("item", item.ID.String()), slog.Any("error", err))
		}
		now := p.clock()
		settings.Status = QueuePaused
		settings.PausedAt = &now
		settings.PauseReason = result.Reason
		if err := p.store.SaveSettings(ctx, settings); err != nil {
			p.log().Error("save paused settings", slog.Any("error", err))
		}
		p.notifier.Notify(ctx, item, NotifyPaused,
			fmt.Sprintf("Generation queue paused: %s", result.Reason))
		p.log().Warn("queue paused by executor", slog.String("reason", string(result.Reason)))
		return false

	default:
		// Fail fast: every item failure is terminal until a human
		// retries it. No automatic backoff by design.
		if err := p.store.MarkFailed(ctx, item.ID, result.Message); err != nil {
			p.log().Error("mark failed", slog.String("item", item.ID.String()), slog.Any("error", err))
		}
		p.metrics.ItemProcessed(false)
		p.notifier.Notify(ctx, item, NotifyFailed,
			fmt.Sprintf("Content generation for %s failed: %s", item.CourseCode, result.Message))
	}

	pending, err := p.store.CountPending(ctx)
	if err != nil {
		p.log().Error("count pending", slog.Any("error", err))
		return true
	}
	p.metrics.SetPendingDepth(pending)
	if pending == 0 {
		p.setIdle(ctx)
		return false
	}
	return true
}

func (p *Processor) setIdle(ctx context.Context) {
	settings, err := p.store.GetSettings(ctx)
	if err != nil {
		p.log().Error("load queue settings", slog.Any("error", err))
		return
	}
	if settings.Status == QueuePaused {
		return
	}
	settings.Status = QueueIdle
	settings.PausedAt = nil
	settings.PauseReason = ""
	if err := p.store.SaveSettings(ctx, settings); err != nil {
		p.log().Error("save idle settings", slog.Any("error", err))
	}
}

func (p *Processor) log() *slog.Logger {
	if p.logger != nil {
		return p.logger
	}
	return slog.Default()
}
