// Package wikitest provides an in-memory wiki.Client for tests.
package wikitest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/garyhouston/interwiki/family"
	"github.com/garyhouston/interwiki/wiki"
)

// Edit records one successful Write.
type Edit struct {
	Page    wiki.Page
	Text    string
	Summary string
}

// Client serves pages from memory. Page texts are keyed by page Key().
type Client struct {
	mu        sync.Mutex
	texts     map[string]string
	fail      map[string]error // Write errors by page key.
	readOnly  map[string]bool  // Site strings we can't edit.
	unfetched map[string]bool  // Page keys absent from fetch results.
	Fetches   []string         // "site:title1|title2", one entry per batch.
	Edits     []Edit
}

// New returns an empty client.
func New() *Client {
	return &Client{
		texts:     make(map[string]string),
		fail:      make(map[string]error),
		readOnly:  make(map[string]bool),
		unfetched: make(map[string]bool),
	}
}

// Set stores the text of a page.
func (c *Client) Set(p wiki.Page, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.texts[p.Key()] = text
}

// Text returns the current text of a page.
func (c *Client) Text(p wiki.Page) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.texts[p.Key()]
	return t, ok
}

// FailWrite makes writes to p fail with err.
func (c *Client) FailWrite(p wiki.Page, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fail[p.Key()] = err
}

// ReadOnly marks a site as one we hold no credentials for.
func (c *Client) ReadOnly(site *family.Site) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readOnly[site.String()] = true
}

// Unfetchable makes p absent from fetch results, as after exhausted retries.
func (c *Client) Unfetchable(p wiki.Page) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unfetched[p.Key()] = true
}

func (c *Client) FetchBatch(ctx context.Context, site *family.Site, titles []string) (map[string]*wiki.Content, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	sorted := append([]string(nil), titles...)
	sort.Strings(sorted)
	entry := site.String() + ":"
	for i, t := range sorted {
		if i > 0 {
			entry += "|"
		}
		entry += t
	}
	c.Fetches = append(c.Fetches, entry)

	out := make(map[string]*wiki.Content, len(titles))
	for _, title := range titles {
		p := wiki.Page{Site: site, Title: title}
		if c.unfetched[p.Key()] {
			continue
		}
		text, ok := c.texts[p.Key()]
		content := &wiki.Content{Page: p, Exists: ok, Text: text}
		if ok {
			content.Timestamp = "2024-01-01T00:00:00Z"
			if target, isRedirect := wiki.ParseRedirect(site, text); isRedirect {
				content.Redirect = target
			}
		}
		out[title] = content
	}
	return out, nil
}

func (c *Client) Write(ctx context.Context, page wiki.Page, text, baseTimestamp, summary string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err, ok := c.fail[page.Key()]; ok {
		return err
	}
	if _, ok := c.texts[page.Key()]; !ok {
		return &wiki.SaveError{Kind: wiki.PageNotSaved, Page: page, Reason: fmt.Sprintf("%v does not exist", page)}
	}
	c.texts[page.Key()] = text
	c.Edits = append(c.Edits, Edit{Page: page, Text: text, Summary: summary})
	return nil
}

func (c *Client) CanWrite(ctx context.Context, site *family.Site) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.readOnly[site.String()]
}

// EditedPages returns the keys of all edited pages, sorted.
func (c *Client) EditedPages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.Edits))
	for _, e := range c.Edits {
		keys = append(keys, e.Page.Key())
	}
	sort.Strings(keys)
	return keys
}
