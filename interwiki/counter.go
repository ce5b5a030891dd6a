package interwiki

import (
	"fmt"
	"sort"
	"sync"

	"github.com/garyhouston/interwiki/family"
)

// Counter tracks the number of outstanding todo pages per site across all
// subjects. The scheduler reads it to decide which site to query next.
type Counter struct {
	mu     sync.Mutex
	counts map[*family.Site]int
}

// NewCounter returns an empty counter.
func NewCounter() *Counter {
	return &Counter{counts: make(map[*family.Site]int)}
}

// Plus records one more outstanding page on site.
func (c *Counter) Plus(site *family.Site) {
	c.Add(site, 1)
}

// Minus records one outstanding page on site less.
func (c *Counter) Minus(site *family.Site) {
	c.Add(site, -1)
}

// Add changes the count of site by n. A negative count means the
// bookkeeping is broken.
func (c *Counter) Add(site *family.Site, n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	count := c.counts[site] + n
	if count < 0 {
		panic(fmt.Sprintf("interwiki: negative page count for %v", site))
	}
	if count == 0 {
		delete(c.counts, site)
		return
	}
	c.counts[site] = count
}

// Count returns the number of outstanding pages on site.
func (c *Counter) Count(site *family.Site) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[site]
}

// Sites returns the sites with outstanding pages, ordered by site.
func (c *Counter) Sites() []*family.Site {
	c.mu.Lock()
	defer c.mu.Unlock()
	sites := make([]*family.Site, 0, len(c.counts))
	for s := range c.counts {
		sites = append(sites, s)
	}
	sort.Slice(sites, func(i, j int) bool { return sites[i].String() < sites[j].String() })
	return sites
}

// Total returns the number of outstanding pages on all sites.
func (c *Counter) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, n := range c.counts {
		total += n
	}
	return total
}
