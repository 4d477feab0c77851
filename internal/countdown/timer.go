package countdown

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

const (
	// TickInterval is the wall-clock period between two ticks.
	TickInterval = time.Second

	// DefaultPageDuration is the countdown for a page-scoped session.
	DefaultPageDuration = 300 * time.Second

	// DefaultMockTestDuration is the countdown for a whole-test session.
	DefaultMockTestDuration = 30 * time.Minute
)

// Timer is a one-second countdown with start/stop/reset and an expiry callback.
//
// At most one ticking goroutine exists per Timer. Start while running is a no-op,
// Stop and Reset are idempotent and never block on the ticking goroutine.
// Callbacks run on the ticking goroutine without any Timer lock held, so they
// may call Stop or Reset.
type Timer struct {
	clock clockwork.Clock

	mu        sync.Mutex
	remaining int
	running   bool
	gen       uint64
	done      chan struct{}
}

// New creates a stopped Timer driven by clock. A nil clock means wall-clock time.
func New(clock clockwork.Clock) *Timer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Timer{clock: clock}
}

// Start begins counting down from initialSeconds. onTick receives the remaining
// seconds after every decrement; onExpire runs exactly once when zero is reached.
// Returns false (and changes nothing) if the timer is already running.
func (t *Timer) Start(initialSeconds int, onTick func(remaining int), onExpire func()) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return false
	}

	if initialSeconds < 0 {
		initialSeconds = 0
	}

	t.gen++
	t.remaining = initialSeconds
	t.running = true
	t.done = make(chan struct{})

	ticker := t.clock.NewTicker(TickInterval)
	go t.run(t.gen, t.done, ticker, onTick, onExpire)
	return true
}

// Stop halts the countdown and keeps the remaining seconds.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

// Reset stops the countdown and sets the remaining seconds for the next Start.
func (t *Timer) Reset(seconds int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()
	if seconds < 0 {
		seconds = 0
	}
	t.remaining = seconds
}

// Remaining returns the seconds left.
func (t *Timer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

// Running reports whether a countdown is in progress.
func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

func (t *Timer) stopLocked() {
	if !t.running {
		return
	}
	t.running = false
	// Bumping gen drops a tick the goroutine may already have received.
	t.gen++
	close(t.done)
	t.done = nil
}

func (t *Timer) run(gen uint64, done <-chan struct{}, ticker clockwork.Ticker, onTick func(int), onExpire func()) {
	defer ticker.Stop()

	// A zero-length countdown expires without ticking.
	if t.expireIfDrained(gen, onExpire) {
		return
	}

	for {
		select {
		case <-done:
			return
		case <-ticker.Chan():
			remaining, expired, ok := t.tick(gen)
			if !ok {
				return
			}
			if onTick != nil {
				onTick(remaining)
			}
			if expired {
				if onExpire != nil {
					onExpire()
				}
				return
			}
		}
	}
}

// tick decrements under the lock. ok is false when the run was stopped meanwhile.
func (t *Timer) tick(gen uint64) (remaining int, expired, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.running || t.gen != gen {
		return 0, false, false
	}

	if t.remaining > 0 {
		t.remaining--
	}
	if t.remaining == 0 {
		t.running = false
		t.gen++
		close(t.done)
		t.done = nil
		return 0, true, true
	}
	return t.remaining, false, true
}

func (t *Timer) expireIfDrained(gen uint64, onExpire func()) bool {
	t.mu.Lock()
	if !t.running || t.gen != gen {
		t.mu.Unlock()
		return true
	}
	if t.remaining > 0 {
		t.mu.Unlock()
		return false
	}
	t.running = false
	t.gen++
	close(t.done)
	t.done = nil
	t.mu.Unlock()

	if onExpire != nil {
		onExpire()
	}
	return true
}
