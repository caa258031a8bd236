package llm

import (
	"sync"
	"time"
)

// pacer enforces a minimum interval between provider calls. It is the
// only shared mutable state in this package. The mutex is held across the
// whole read-decide-sleep-update sequence: two callers must never both
// observe a stale "enough time has passed" reading, so the check and the
// update have to be one critical section.
type pacer struct {
	mu       sync.Mutex
	interval time.Duration
	lastCall time.Time
}

func newPacer(interval time.Duration) *pacer {
	return &pacer{interval: interval}
}

// Wait blocks until the configured interval has elapsed since the
// previous call began, then records the current call. It returns how long
// it slept, for metrics.
func (p *pacer) Wait() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	var waited time.Duration
	if !p.lastCall.IsZero() {
		if elapsed := time.Since(p.lastCall); elapsed < p.interval {
			waited = p.interval - elapsed
			time.Sleep(waited)
		}
	}
	p.lastCall = time.Now()
	return waited
}
