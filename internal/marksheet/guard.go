package marksheet

import (
	"sync"
	"time"
)

// DefaultSubmitFallback is how long the submit control stays in the
// processing state before it is released.
const DefaultSubmitFallback = 10 * time.Second

// SubmitGuard holds the transient "processing" state of the submit control.
// Once engaged it is released by a timer after a fixed delay, whether or not
// the submission itself has finished. It keeps the form usable when a
// response never arrives; it says nothing about the outcome of the
// submission.
type SubmitGuard struct {
	mu         sync.Mutex
	timeout    time.Duration
	processing bool
	timer      *time.Timer
	released   func()
}

// NewSubmitGuard returns a guard that releases after timeout. A non-positive
// timeout selects DefaultSubmitFallback.
func NewSubmitGuard(timeout time.Duration) *SubmitGuard {
	if timeout <= 0 {
		timeout = DefaultSubmitFallback
	}
	return &SubmitGuard{timeout: timeout}
}

// OnRelease registers a callback run, on the timer goroutine, each time the
// guard releases.
func (g *SubmitGuard) OnRelease(fn func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.released = fn
}

// Engage enters the processing state and arms the release timer. It returns
// false if the guard is already engaged.
func (g *SubmitGuard) Engage() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.processing {
		return false
	}
	g.processing = true
	g.timer = time.AfterFunc(g.timeout, g.release)
	return true
}

func (g *SubmitGuard) release() {
	g.mu.Lock()
	g.processing = false
	g.timer = nil
	fn := g.released
	g.mu.Unlock()

	if fn != nil {
		fn()
	}
}

func (g *SubmitGuard) Processing() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.processing
}

func (g *SubmitGuard) Timeout() time.Duration {
	return g.timeout
}

// Stop cancels a pending release and clears the processing state. It is
// used when the owning session is discarded.
func (g *SubmitGuard) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
	g.processing = false
}
