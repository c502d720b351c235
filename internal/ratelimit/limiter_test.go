package ratelimit

import (
	"math"
	"sync"
	"testing"
	"time"
)

// fakeClock freezes l's clock and returns a function that moves it forward.
func fakeClock(l *Limiter) (advance func(time.Duration)) {
	now := time.Now()
	l.now = func() time.Time { return now }
	return func(d time.Duration) { now = now.Add(d) }
}

// step waits, then expects one Allow call to return want.
type step struct {
	wait time.Duration
	want bool
}

func TestAllow(t *testing.T) {
	tests := []struct {
		name  string
		rate  float64
		burst int
		steps []step
	}{
		{
			name: "burst then reject", rate: 1, burst: 2,
			steps: []step{{0, true}, {0, true}, {0, false}},
		},
		{
			name: "refill after wait", rate: 10, burst: 2,
			steps: []step{{0, true}, {0, true}, {0, false}, {200 * time.Millisecond, true}},
		},
		{
			name: "refill capped at burst", rate: 100, burst: 2,
			steps: []step{{0, true}, {0, true}, {10 * time.Second, true}, {0, true}, {0, false}},
		},
		{
			name: "zero rate never refills", rate: 0, burst: 1,
			steps: []step{{0, true}, {time.Hour, false}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLimiter(tt.rate, tt.burst)
			advance := fakeClock(l)
			for i, s := range tt.steps {
				advance(s.wait)
				if got := l.Allow(); got != s.want {
					t.Fatalf("step %d: Allow() = %v, want %v", i, got, s.want)
				}
			}
		})
	}
}

func TestToolLimiters_IndependentBuckets(t *testing.T) {
	limiters := NewToolLimitersFrom(map[string]Limit{
		"coevolve_simulate": {PerMinute: 0, Burst: 1},
		"coevolve_export":   {PerMinute: 0, Burst: 1},
	})

	limiters["coevolve_simulate"].Allow()
	if limiters["coevolve_simulate"].Allow() {
		t.Error("coevolve_simulate should be exhausted")
	}
	if !limiters["coevolve_export"].Allow() {
		t.Error("coevolve_export has its own bucket")
	}
}

func TestAllow_Concurrent(t *testing.T) {
	l := NewLimiter(0, 50)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for range 200 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow() {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != 50 {
		t.Errorf("allowed %d calls, want exactly the burst of 50", allowed)
	}
}

func TestNewToolLimiters(t *testing.T) {
	limiters := NewToolLimiters()

	for tool, lim := range DefaultLimits {
		l, ok := limiters[tool]
		if !ok {
			t.Errorf("missing limiter for %s", tool)
			continue
		}
		if l.burst != lim.Burst {
			t.Errorf("%s burst = %d, want %d", tool, l.burst, lim.Burst)
		}
		if math.Abs(l.rate*60-lim.PerMinute) > 1e-9 {
			t.Errorf("%s rate = %v/s, want %v/min", tool, l.rate, lim.PerMinute)
		}
	}
}

func TestCheckLimit(t *testing.T) {
	limiters := NewToolLimitersFrom(map[string]Limit{"coevolve_simulate": {PerMinute: 0, Burst: 1}})

	if err := CheckLimit(limiters, "coevolve_simulate"); err != nil {
		t.Fatalf("first call should pass: %v", err)
	}
	if err := CheckLimit(limiters, "coevolve_simulate"); err == nil {
		t.Error("expected rate limit error after burst exhaustion")
	}
	if err := CheckLimit(limiters, "coevolve_unknown"); err != nil {
		t.Errorf("tools without a limiter are never throttled: %v", err)
	}
}
