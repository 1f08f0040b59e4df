package eventloop

import (
	"context"
	"sync"
	"time"
)

// Loop is a serialized task executor. All reconciler and configuration
// state in lumen is confined to a single Loop, which gives the same
// ordering guarantees as a GUI-toolkit main loop: tasks run one at a
// time, in submission order, and derived state is consistent before the
// next task starts.
type Loop struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []func()
	closed  bool
	pending sync.WaitGroup
}

// New creates an empty loop. Call Run to start executing tasks.
func New() *Loop {
	l := &Loop{}
	l.cond = sync.NewCond(&l.mu)
	return l
}

// Run executes tasks until ctx is cancelled, then finishes whatever is
// already queued and returns. It must be called from exactly one
// goroutine.
func (l *Loop) Run(ctx context.Context) {
	stop := context.AfterFunc(ctx, func() {
		l.mu.Lock()
		l.closed = true
		l.cond.Signal()
		l.mu.Unlock()
	})
	defer stop()

	l.mu.Lock()
	for {
		for len(l.queue) == 0 && !l.closed {
			l.cond.Wait()
		}
		if len(l.queue) == 0 {
			l.mu.Unlock()
			return
		}
		fn := l.queue[0]
		l.queue = l.queue[1:]
		l.mu.Unlock()

		fn()
		l.pending.Done()

		l.mu.Lock()
	}
}

// Post schedules fn to run on the loop. Safe to call from any goroutine.
// After the loop has shut down, tasks are silently dropped.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.pending.Add(1)
	l.queue = append(l.queue, fn)
	l.cond.Signal()
}

// Wait blocks until every task posted so far has finished. Intended for
// tests and shutdown paths.
func (l *Loop) Wait() {
	l.pending.Wait()
}

// Timer is a cancellable delayed task handle returned by After.
type Timer struct {
	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

// Stop cancels the timer. Returns false if the task already fired or was
// already stopped. A task that is mid-flight on the loop still runs; the
// callback must tolerate that (the same contract as time.AfterFunc).
func (t *Timer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return false
	}
	t.stopped = true
	return t.timer.Stop()
}

// After schedules fn to run on the loop after d. The returned Timer can
// cancel the task before it fires.
func (l *Loop) After(d time.Duration, fn func()) *Timer {
	t := &Timer{}
	t.timer = time.AfterFunc(d, func() {
		t.mu.Lock()
		if t.stopped {
			t.mu.Unlock()
			return
		}
		t.stopped = true
		t.mu.Unlock()
		l.Post(fn)
	})
	return t
}

// Every schedules fn to run on the loop every interval until the returned
// cancel function is called. The first run happens one interval from now.
func (l *Loop) Every(interval time.Duration, fn func()) (cancel func()) {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				l.Post(fn)
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
		})
	}
}
