package genqueue

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeLocker struct {
	mu       sync.Mutex
	held     bool
	acquires int
	releases int
}

func (l *fakeLocker) Acquire(context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.acquires++
	if l.held {
		return false, nil
	}
	l.held = true
	return true, nil
}

func (l *fakeLocker) Refresh(context.Context) error { return nil }

func (l *fakeLocker) Release(context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held = false
	l.releases++
	return nil
}

func (l *fakeLocker) acquireCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.acquires
}

type fakeExecutor struct {
	mu     sync.Mutex
	codes  []string
	result func(Item) Result
	gate   chan struct{}
}

func (e *fakeExecutor) Generate(_ context.Context, item Item) Result {
	e.mu.Lock()
	e.codes = append(e.codes, item.CourseCode)
	gate := e.gate
	e.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return e.result(item)
}

func (e *fakeExecutor) calls() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.codes))
	copy(out, e.codes)
	return out
}

func successResult(Item) Result { return Result{Success: true} }

// newTestProcessor wires a processor with a pre-filled manual ticker so the
// loop never sleeps on a real timer.
func newTestProcessor(store StorePort, exec Executor, locker Locker) *Processor {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	notifier := NewNotifier(store, nil, logger)
	p := NewProcessor(store, exec, notifier, locker, logger, nil, 30*time.Second)
	tickC := make(chan time.Time, 64)
	for i := 0; i < 64; i++ {
		tickC <- time.Unix(int64(i), 0)
	}
	p.newTicker = func(time.Duration) (<-chan time.Time, func()) {
		return tickC, func() {}
	}
	p.clock = func() time.Time { return time.Unix(0, 0).UTC() }
	return p
}

func waitStopped(t *testing.T, p *Processor) {
	t.Helper()
	require.Eventually(t, func() bool { return !p.Running() }, 2*time.Second, 5*time.Millisecond)
}

func TestStartWhileRunningIsNoOp(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()
	item, err := store.UpsertItem(ctx, Course{CourseID: 1, CourseCode: "CS101", CourseName: "Intro"}, 1)
	require.NoError(t, err)

	gate := make(chan struct{})
	exec := &fakeExecutor{result: successResult, gate: gate}
	locker := &fakeLocker{}
	p := newTestProcessor(store, exec, locker)

	require.NoError(t, p.Start(ctx))
	require.Eventually(t, func() bool { return len(exec.calls()) == 1 }, 2*time.Second, 5*time.Millisecond)

	// Second start while the first call is in flight must not spawn a
	// second loop or touch the lock again.
	require.NoError(t, p.Start(ctx))
	require.Equal(t, 1, locker.acquireCount())

	close(gate)
	waitStopped(t, p)

	require.Equal(t, []string{"CS101"}, exec.calls())
	require.Equal(t, StatusCompleted, store.item(item.ID).Status)

	settings, err := store.GetSettings(ctx)
	require.NoError(t, err)
	require.Equal(t, QueueIdle, settings.Status)

	locker.mu.Lock()
	defer locker.mu.Unlock()
	require.False(t, locker.held)
	require.Equal(t, 1, locker.releases)
}

func TestStartWhenLockHeldElsewhere(t *testing.T) {
	store := newMemStore()
	locker := &fakeLocker{held: true}
	p := newTestProcessor(store, &fakeExecutor{result: successResult}, locker)

	err := p.Start(context.Background())
	require.ErrorIs(t, err, ErrProcessorHeld)
	require.False(t, p.Running())
}

func TestProcessingOrderPriorityThenFIFO(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()
	_, err := store.UpsertItem(ctx, Course{CourseID: 1, CourseCode: "A", CourseName: "A", Priority: 2}, 1)
	require.NoError(t, err)
	_, err = store.UpsertItem(ctx, Course{CourseID: 2, CourseCode: "B", CourseName: "B", Priority: 1}, 1)
	require.NoError(t, err)
	_, err = store.UpsertItem(ctx, Course{CourseID: 3, CourseCode: "C", CourseName: "C", Priority: 1}, 1)
	require.NoError(t, err)

	exec := &fakeExecutor{result: successResult}
	p := newTestProcessor(store, exec, &fakeLocker{})

	require.NoError(t, p.Start(ctx))
	waitStopped(t, p)

	require.Equal(t, []string{"B", "C", "A"}, exec.calls())

	notifications, err := store.ListNotifications(ctx, true)
	require.NoError(t, err)
	require.Len(t, notifications, 3)
	for _, n := range notifications {
		require.Equal(t, NotifyCompleted, n.Kind)
		require.False(t, n.IsRead)
	}
}

func TestFailureIsTerminalAndQueueContinues(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()
	bad, err := store.UpsertItem(ctx, Course{CourseID: 1, CourseCode: "A", CourseName: "A", Priority: 1}, 1)
	require.NoError(t, err)
	good, err := store.UpsertItem(ctx, Course{CourseID: 2, CourseCode: "B", CourseName: "B", Priority: 2}, 1)
	require.NoError(t, err)

	exec := &fakeExecutor{result: func(item Item) Result {
		if item.CourseCode == "A" {
			return Result{Message: "generation call: boom"}
		}
		return Result{Success: true}
	}}
	p := newTestProcessor(store, exec, &fakeLocker{})

	require.NoError(t, p.Start(ctx))
	waitStopped(t, p)

	failed := store.item(bad.ID)
	require.Equal(t, StatusFailed, failed.Status)
	require.Equal(t, 1, failed.Retries)
	require.Equal(t, "generation call: boom", failed.ErrorMessage)
	require.Equal(t, StatusCompleted, store.item(good.ID).Status)

	settings, err := store.GetSettings(ctx)
	require.NoError(t, err)
	require.Equal(t, QueueIdle, settings.Status)
}

func TestExecutorPauseStopsQueueAndResumeRecovers(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()
	item, err := store.UpsertItem(ctx, Course{CourseID: 1, CourseCode: "A", CourseName: "A"}, 1)
	require.NoError(t, err)

	exec := &fakeExecutor{result: func(Item) Result {
		return Result{Paused: true, Reason: PauseCreditsExhausted, Message: "credits exhausted"}
	}}
	p := newTestProcessor(store, exec, &fakeLocker{})

	require.NoError(t, p.Start(ctx))
	waitStopped(t, p)

	require.Equal(t, StatusPaused, store.item(item.ID).Status)
	settings, err := store.GetSettings(ctx)
	require.NoError(t, err)
	require.Equal(t, QueuePaused, settings.Status)
	require.Equal(t, PauseCreditsExhausted, settings.PauseReason)
	require.NotNil(t, settings.PausedAt)

	notifications, err := store.ListNotifications(ctx, true)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	require.Equal(t, NotifyPaused, notifications[0].Kind)

	exec.mu.Lock()
	exec.result = successResult
	exec.mu.Unlock()

	require.NoError(t, p.Resume(ctx))
	waitStopped(t, p)

	require.Equal(t, StatusCompleted, store.item(item.ID).Status)
	settings, err = store.GetSettings(ctx)
	require.NoError(t, err)
	require.Equal(t, QueueIdle, settings.Status)
	require.Empty(t, settings.PauseReason)
}

func TestStartOnPausedQueueRefuses(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()
	item, err := store.UpsertItem(ctx, Course{CourseID: 1, CourseCode: "A", CourseName: "A"}, 1)
	require.NoError(t, err)

	exec := &fakeExecutor{result: func(Item) Result {
		return Result{Paused: true, Reason: PauseCreditsExhausted, Message: "credits exhausted"}
	}}
	p := newTestProcessor(store, exec, &fakeLocker{})

	require.NoError(t, p.Start(ctx))
	waitStopped(t, p)
	require.Equal(t, StatusPaused, store.item(item.ID).Status)

	// Start must not clear the pause and drain to idle around the parked
	// item; only Resume returns it to pending.
	err = p.Start(ctx)
	require.ErrorIs(t, err, ErrQueuePaused)
	require.False(t, p.Running())
	require.Equal(t, StatusPaused, store.item(item.ID).Status)
	require.Equal(t, []string{"A"}, exec.calls())

	settings, err := store.GetSettings(ctx)
	require.NoError(t, err)
	require.Equal(t, QueuePaused, settings.Status)
	require.Equal(t, PauseCreditsExhausted, settings.PauseReason)

	exec.mu.Lock()
	exec.result = successResult
	exec.mu.Unlock()

	require.NoError(t, p.Resume(ctx))
	waitStopped(t, p)
	require.Equal(t, StatusCompleted, store.item(item.ID).Status)
}

func TestManualPauseLetsInFlightItemSettle(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()
	item, err := store.UpsertItem(ctx, Course{CourseID: 1, CourseCode: "A", CourseName: "A"}, 1)
	require.NoError(t, err)
	_, err = store.UpsertItem(ctx, Course{CourseID: 2, CourseCode: "B", CourseName: "B"}, 1)
	require.NoError(t, err)

	gate := make(chan struct{})
	exec := &fakeExecutor{result: successResult, gate: gate}
	p := newTestProcessor(store, exec, &fakeLocker{})

	require.NoError(t, p.Start(ctx))
	require.Eventually(t, func() bool { return len(exec.calls()) == 1 }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, p.Pause(ctx, PauseManual))
	close(gate)
	waitStopped(t, p)

	// The in-flight item finishes; the pause only blocks the next tick.
	require.Equal(t, StatusCompleted, store.item(item.ID).Status)
	require.Equal(t, []string{"A"}, exec.calls())

	settings, err := store.GetSettings(ctx)
	require.NoError(t, err)
	require.Equal(t, QueuePaused, settings.Status)
	require.Equal(t, PauseManual, settings.PauseReason)
}
