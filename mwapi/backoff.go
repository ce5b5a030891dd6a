package mwapi

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Backoff spaces out requests to sites that keep failing. After n
// consecutive failures a site is held back for base·2^(n-1), at most max,
// plus up to a tenth of that as jitter. One success clears the site.
type Backoff struct {
	base, max time.Duration

	mu    sync.Mutex
	sites map[string]*siteBackoff
}

type siteBackoff struct {
	failures int
	until    time.Time
}

// NewBackoff returns a Backoff with the given first and longest delay.
func NewBackoff(base, max time.Duration) *Backoff {
	return &Backoff{base: base, max: max, sites: make(map[string]*siteBackoff)}
}

// Wait blocks while site is held back, or until ctx is done.
func (b *Backoff) Wait(ctx context.Context, site string) error {
	b.mu.Lock()
	var until time.Time
	if sb := b.sites[site]; sb != nil {
		until = sb.until
	}
	b.mu.Unlock()

	wait := time.Until(until)
	if wait <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Failed records a failed request to site and returns how long the site
// is held back.
func (b *Backoff) Failed(site string) time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	sb := b.sites[site]
	if sb == nil {
		sb = &siteBackoff{}
		b.sites[site] = sb
	}
	sb.failures++
	d := b.delay(sb.failures)
	d += time.Duration(rand.Int63n(int64(d)/10 + 1))
	sb.until = time.Now().Add(d)
	return d
}

// Succeeded clears the failures of site.
func (b *Backoff) Succeeded(site string) {
	b.mu.Lock()
	delete(b.sites, site)
	b.mu.Unlock()
}

// Attempts is the number of tries a retry loop makes: one, plus one per
// doubling from the first delay up to the longest.
func (b *Backoff) Attempts() int {
	n := 1
	for d := b.base; d > 0 && d < b.max; d *= 2 {
		n++
	}
	return n
}

func (b *Backoff) delay(failures int) time.Duration {
	d := b.base
	for i := 1; i < failures && d < b.max; i++ {
		d *= 2
	}
	if d > b.max {
		d = b.max
	}
	return d
}
