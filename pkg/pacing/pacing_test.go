package pacing

import (
	"math/rand"
	"testing"
	"time"
)

func testPacer(cfg Config) (*Pacer, *time.Time) {
	current := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	p := New(cfg)
	p.rand = rand.New(rand.NewSource(1))
	p.now = func() time.Time { return current }
	p.sleep = func(d time.Duration) { current = current.Add(d) }
	return p, &current
}

func TestNextDelay_FirstRequestFree(t *testing.T) {
	p, _ := testPacer(DefaultConfig())

	if d := p.NextDelay(); d != 0 {
		t.Errorf("NextDelay() first request = %v, want 0", d)
	}
	if p.RequestCount() != 1 {
		t.Errorf("RequestCount() = %d, want 1", p.RequestCount())
	}
}

func TestNextDelay_EnforcesFloorPlusJitter(t *testing.T) {
	cfg := DefaultConfig()
	p, _ := testPacer(cfg)

	p.NextDelay() // first request, free

	// Clock has not moved since the last request, so the full floor applies.
	d := p.NextDelay()
	min := cfg.MinInterval + cfg.JitterMin
	max := cfg.MinInterval + cfg.JitterMax
	if d < min || d > max {
		t.Errorf("NextDelay() = %v, want within [%v, %v]", d, min, max)
	}
}

func TestNextDelay_ElapsedTimeReducesFloor(t *testing.T) {
	cfg := DefaultConfig()
	p, current := testPacer(cfg)

	p.NextDelay()
	*current = current.Add(cfg.MinInterval + time.Second) // well past the floor

	d := p.NextDelay()
	if d < cfg.JitterMin || d > cfg.JitterMax {
		t.Errorf("NextDelay() after floor elapsed = %v, want jitter-only within [%v, %v]",
			d, cfg.JitterMin, cfg.JitterMax)
	}
}

func TestNextDelay_PeriodicCoolDown(t *testing.T) {
	cfg := Config{
		MinInterval:   time.Second,
		JitterMin:     time.Second,
		JitterMax:     2 * time.Second,
		CoolDownEvery: 3,
		CoolDownMin:   time.Minute,
		CoolDownMax:   2 * time.Minute,
	}
	p, current := testPacer(cfg)

	var coolDowns int
	for i := 0; i < 9; i++ {
		d := p.NextDelay()
		if d >= cfg.CoolDownMin {
			coolDowns++
		}
		// Simulate sleeping out the delay plus some page-processing time.
		*current = current.Add(d + 10*time.Second)
	}

	// Requests 3 and 6 trip the every-3rd cool-down (the first request is free,
	// request 9 pays it on the following call).
	if coolDowns != 2 {
		t.Errorf("cool-downs in 9 requests = %d, want 2", coolDowns)
	}
}

func TestWait_AdvancesClock(t *testing.T) {
	p, current := testPacer(DefaultConfig())
	start := *current

	p.Wait() // free
	p.Wait() // pays floor + jitter

	if !current.After(start) {
		t.Error("Wait() did not advance the injected clock")
	}
	if p.RequestCount() != 2 {
		t.Errorf("RequestCount() = %d, want 2", p.RequestCount())
	}
}
