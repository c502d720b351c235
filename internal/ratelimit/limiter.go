// Package ratelimit throttles MCP tool calls with one token bucket per tool.
package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// Limiter is a token bucket. It starts full, holds at most burst tokens and
// refills at rate tokens per second. It is safe for concurrent use.
type Limiter struct {
	mu     sync.Mutex
	tokens float64
	last   time.Time
	rate   float64
	burst  int
	now    func() time.Time
}

// NewLimiter creates a full bucket refilling at rate tokens per second.
func NewLimiter(rate float64, burst int) *Limiter {
	return &Limiter{
		tokens: float64(burst),
		rate:   rate,
		burst:  burst,
		now:    time.Now,
	}
}

// Allow takes one token and reports whether one was available.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if !l.last.IsZero() {
		refill := now.Sub(l.last).Seconds() * l.rate
		l.tokens = min(l.tokens+max(refill, 0), float64(l.burst))
	}
	l.last = now

	if l.tokens < 1 {
		return false
	}
	l.tokens--
	return true
}

// Limit is the budget of a single tool.
type Limit struct {
	PerMinute float64
	Burst     int
}

// DefaultLimits budgets each coevolve tool. Simulations are CPU bound, so
// coevolve_simulate gets the tightest budget.
var DefaultLimits = map[string]Limit{
	"coevolve_simulate": {PerMinute: 6, Burst: 2},
	"coevolve_runs":     {PerMinute: 60, Burst: 10},
	"coevolve_export":   {PerMinute: 30, Burst: 5},
}

// ToolLimiters maps tool names to their limiters.
type ToolLimiters map[string]*Limiter

// NewToolLimiters builds limiters from DefaultLimits.
func NewToolLimiters() ToolLimiters {
	return NewToolLimitersFrom(DefaultLimits)
}

// NewToolLimitersFrom builds one limiter per entry of limits.
func NewToolLimitersFrom(limits map[string]Limit) ToolLimiters {
	out := make(ToolLimiters, len(limits))
	for tool, lim := range limits {
		out[tool] = NewLimiter(lim.PerMinute/60.0, lim.Burst)
	}
	return out
}

// CheckLimit returns an error when toolName has exhausted its budget. Tools
// without a limiter are never throttled.
func CheckLimit(limiters ToolLimiters, toolName string) error {
	limiter, ok := limiters[toolName]
	if !ok {
		return nil
	}
	if !limiter.Allow() {
		return fmt.Errorf("rate limit exceeded for %s, please try again shortly", toolName)
	}
	return nil
}
