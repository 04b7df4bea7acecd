// Package pacing spaces outbound requests so the crawl stays under the
// source's anti-automation radar: a hard floor between requests, random
// jitter on top, and a long cool-down after every Nth request.
package pacing

import (
	"math/rand"
	"time"
)

// Config holds the tuned pacing intervals. The defaults are the values the
// crawler was calibrated against; they are configuration, not derived.
type Config struct {
	MinInterval   time.Duration // floor between consecutive requests
	JitterMin     time.Duration
	JitterMax     time.Duration
	CoolDownEvery int // every Nth request pays the long cool-down
	CoolDownMin   time.Duration
	CoolDownMax   time.Duration
}

// DefaultConfig returns the calibrated pacing intervals.
func DefaultConfig() Config {
	return Config{
		MinInterval:   5 * time.Second,
		JitterMin:     2 * time.Second,
		JitterMax:     6 * time.Second,
		CoolDownEvery: 10,
		CoolDownMin:   15 * time.Second,
		CoolDownMax:   30 * time.Second,
	}
}

// Pacer tracks request timing for one crawl session. It is not safe for
// concurrent use; concurrent sessions each get their own Pacer.
type Pacer struct {
	cfg Config

	requestCount int
	lastRequest  time.Time

	rand  *rand.Rand
	now   func() time.Time
	sleep func(time.Duration)
}

// New returns a Pacer with the given config, using the wall clock.
func New(cfg Config) *Pacer {
	return &Pacer{
		cfg:   cfg,
		rand:  rand.New(rand.NewSource(time.Now().UnixNano())),
		now:   time.Now,
		sleep: time.Sleep,
	}
}

// NextDelay computes the mandatory delay before the next request and advances
// the pacing counters. The first request of a session is free.
func (p *Pacer) NextDelay() time.Duration {
	var delay time.Duration

	if p.requestCount > 0 {
		sinceLast := p.now().Sub(p.lastRequest)
		if sinceLast < p.cfg.MinInterval {
			delay = p.cfg.MinInterval - sinceLast
		}
		delay += p.uniform(p.cfg.JitterMin, p.cfg.JitterMax)

		if p.cfg.CoolDownEvery > 0 && p.requestCount%p.cfg.CoolDownEvery == 0 {
			delay += p.uniform(p.cfg.CoolDownMin, p.cfg.CoolDownMax)
		}
	}

	p.requestCount++
	p.lastRequest = p.now().Add(delay)
	return delay
}

// Wait blocks for the computed delay.
func (p *Pacer) Wait() {
	if d := p.NextDelay(); d > 0 {
		p.sleep(d)
	}
}

// RequestCount returns the number of requests paced so far.
func (p *Pacer) RequestCount() int {
	return p.requestCount
}

func (p *Pacer) uniform(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(p.rand.Int63n(int64(max-min)))
}
