// Package ratelimit bounds how often expensive MCP tools may be invoked.
package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// Rate is a sustained per-minute allowance with a burst on top.
type Rate struct {
	PerMinute float64
	Burst     int
}

// Limiter is a token bucket per key. It is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	rate    Rate
	tokens  map[string]float64
	updated map[string]time.Time
	now     func() time.Time
}

// NewLimiter creates a limiter. Each key starts with a full burst.
func NewLimiter(rate Rate) *Limiter {
	return &Limiter{
		rate:    rate,
		tokens:  make(map[string]float64),
		updated: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Allow takes one token for key and reports whether one was available.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	burst := float64(l.rate.Burst)

	last, seen := l.updated[key]
	tokens := burst
	if seen {
		tokens = l.tokens[key] + now.Sub(last).Minutes()*l.rate.PerMinute
		if tokens > burst {
			tokens = burst
		}
	}
	l.updated[key] = now

	if tokens < 1 {
		l.tokens[key] = tokens
		return false
	}
	l.tokens[key] = tokens - 1
	return true
}

// ToolLimiters holds one limiter per MCP tool name.
type ToolLimiters map[string]*Limiter

// DefaultToolRates are the allowances for coopnet's MCP tools. Sweeps run
// many simulations per call and get the tightest budget.
var DefaultToolRates = map[string]Rate{
	"coopnet_simulate":    {PerMinute: 30, Burst: 5},
	"coopnet_sweep":       {PerMinute: 6, Burst: 2},
	"coopnet_network":     {PerMinute: 30, Burst: 5},
	"coopnet_sweeps_list": {PerMinute: 60, Burst: 10},
}

// NewToolLimiters builds limiters from rates.
func NewToolLimiters(rates map[string]Rate) ToolLimiters {
	out := make(ToolLimiters, len(rates))
	for tool, r := range rates {
		out[tool] = NewLimiter(r)
	}
	return out
}

// Check returns an error when tool has exhausted its allowance. Tools
// without a limiter are never limited.
func (tl ToolLimiters) Check(tool string) error {
	l, ok := tl[tool]
	if !ok {
		return nil
	}
	if !l.Allow(tool) {
		return fmt.Errorf("rate limit exceeded for %s, please try again shortly", tool)
	}
	return nil
}
