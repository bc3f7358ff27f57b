package server

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// tokenBucket throttles the actions one connection may submit. It starts
// full with Burst tokens and regains Burst tokens every RefillInterval.
type tokenBucket struct {
	mu      sync.Mutex
	clock   clockwork.Clock
	burst   float64
	perSec  float64
	level   float64
	updated time.Time
}

func newTokenBucket(cfg RateLimitConfig, clock clockwork.Clock) *tokenBucket {
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.RefillInterval <= 0 {
		cfg.RefillInterval = time.Second
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	burst := float64(cfg.Burst)
	return &tokenBucket{
		clock:   clock,
		burst:   burst,
		perSec:  burst / cfg.RefillInterval.Seconds(),
		level:   burst,
		updated: clock.Now(),
	}
}

// take consumes one token, reporting false when the bucket is empty.
func (b *tokenBucket) take() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill(b.clock.Now())
	if b.level < 1 {
		return false
	}
	b.level--
	return true
}

func (b *tokenBucket) refill(now time.Time) {
	if elapsed := now.Sub(b.updated); elapsed > 0 {
		b.level = min(b.burst, b.level+elapsed.Seconds()*b.perSec)
	}
	b.updated = now
}
