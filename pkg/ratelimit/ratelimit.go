// Package ratelimit enforces the session-creation rate limit (spec §6
// RATE_LIMIT_SESSIONS_PER_MIN, default 10/min) per caller identity, on top
// of golang.org/x/time/rate's token bucket.
package ratelimit

import (
	"sync"

	"golang.org/x/time/rate"
)

// PerCaller keeps one token bucket per identity (e.g. API key, remote addr),
// lazily created on first use.
type PerCaller struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

// New creates a PerCaller limiter allowing ratePerMinute sustained requests
// per minute, per caller, with a burst equal to the same count (one minute's
// worth can be spent immediately).
func New(ratePerMinute int) *PerCaller {
	if ratePerMinute <= 0 {
		ratePerMinute = 10
	}
	return &PerCaller{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(float64(ratePerMinute) / 60.0),
		burst:    ratePerMinute,
	}
}

// Allow reports whether caller may proceed now, consuming one token if so.
func (p *PerCaller) Allow(caller string) bool {
	return p.limiterFor(caller).Allow()
}

func (p *PerCaller) limiterFor(caller string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.limiters[caller]
	if !ok {
		l = rate.NewLimiter(p.rps, p.burst)
		p.limiters[caller] = l
	}
	return l
}
