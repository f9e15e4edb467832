package buffer

import (
	"sync"
	"time"
)

// ScrollThrottle limits scroll handling to one call per interval. The first
// event after a quiet period runs immediately; events arriving during the
// interval collapse into one trailing call with the latest position.
type ScrollThrottle struct {
	mu       sync.Mutex
	interval time.Duration
	fn       func(scrollTop, windowHeight float64)

	last         time.Time
	timer        *time.Timer
	scrollTop    float64
	windowHeight float64
	stopped      bool
}

// NewScrollThrottle wraps fn
func NewScrollThrottle(interval time.Duration, fn func(scrollTop, windowHeight float64)) *ScrollThrottle {
	return &ScrollThrottle{interval: interval, fn: fn}
}

// Scroll records a scroll event
func (t *ScrollThrottle) Scroll(scrollTop, windowHeight float64) {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.scrollTop = scrollTop
	t.windowHeight = windowHeight
	if t.timer != nil {
		t.mu.Unlock()
		return
	}

	wait := t.interval - time.Since(t.last)
	if wait > 0 {
		t.timer = time.AfterFunc(wait, t.fire)
		t.mu.Unlock()
		return
	}
	t.last = time.Now()
	t.mu.Unlock()
	t.fn(scrollTop, windowHeight)
}

func (t *ScrollThrottle) fire() {
	t.mu.Lock()
	t.timer = nil
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.last = time.Now()
	scrollTop, windowHeight := t.scrollTop, t.windowHeight
	t.mu.Unlock()
	t.fn(scrollTop, windowHeight)
}

// Stop drops any pending trailing call. Later events are ignored.
func (t *ScrollThrottle) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
