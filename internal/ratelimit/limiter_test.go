package ratelimit

import (
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeClock returns a limiter whose clock only moves when advance is called.
func fakeClock(l *Limiter) (advance func(time.Duration)) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return func(d time.Duration) { now = now.Add(d) }
}

func TestAllow_Burst(t *testing.T) {
	l := NewLimiter(Rate{PerMinute: 60, Burst: 3})
	fakeClock(l)

	for i := 0; i < 3; i++ {
		if !l.Allow("k") {
			t.Fatalf("request %d should be allowed within burst", i+1)
		}
	}
	if l.Allow("k") {
		t.Error("request after burst should be rejected")
	}
}

func TestAllow_Refill(t *testing.T) {
	l := NewLimiter(Rate{PerMinute: 60, Burst: 2})
	advance := fakeClock(l)

	l.Allow("k")
	l.Allow("k")
	if l.Allow("k") {
		t.Fatal("expected rejection after burst")
	}

	advance(time.Second)
	if !l.Allow("k") {
		t.Error("one token should refill after a second at 60/minute")
	}
	if l.Allow("k") {
		t.Error("only one token should have refilled")
	}

	advance(time.Hour)
	for i := 0; i < 2; i++ {
		if !l.Allow("k") {
			t.Errorf("request %d: refill should cap at burst", i+1)
		}
	}
	if l.Allow("k") {
		t.Error("refill must not exceed burst")
	}
}

func TestAllow_KeysIndependent(t *testing.T) {
	l := NewLimiter(Rate{PerMinute: 1, Burst: 1})
	fakeClock(l)

	if !l.Allow("a") || !l.Allow("b") {
		t.Fatal("first request per key should pass")
	}
	if l.Allow("a") {
		t.Error("key a should be exhausted")
	}
}

func TestAllow_Concurrent(t *testing.T) {
	l := NewLimiter(Rate{PerMinute: 0, Burst: 50})
	fakeClock(l)

	var allowed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow("k") {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := allowed.Load(); got != 50 {
		t.Errorf("allowed %d requests, want exactly the burst of 50", got)
	}
}

func TestToolLimiters_Check(t *testing.T) {
	limiters := NewToolLimiters(map[string]Rate{"coopnet_sweep": {PerMinute: 0, Burst: 1}})

	if err := limiters.Check("coopnet_sweep"); err != nil {
		t.Fatalf("first call should pass: %v", err)
	}
	err := limiters.Check("coopnet_sweep")
	if err == nil || !strings.Contains(err.Error(), "coopnet_sweep") {
		t.Errorf("expected rate limit error naming the tool, got %v", err)
	}
	if err := limiters.Check("unlimited_tool"); err != nil {
		t.Errorf("tools without a limiter should pass: %v", err)
	}
}

func TestDefaultToolRates(t *testing.T) {
	limiters := NewToolLimiters(DefaultToolRates)
	for _, tool := range []string{"coopnet_simulate", "coopnet_sweep", "coopnet_network", "coopnet_sweeps_list"} {
		if _, ok := limiters[tool]; !ok {
			t.Errorf("no limiter for %s", tool)
		}
	}
}
