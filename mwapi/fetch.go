package mwapi

import (
	"context"
	"fmt"
	"sync"

	"cgt.name/pkg/go-mwclient/params"
	"github.com/antonholmquist/jason"
	"golang.org/x/sync/errgroup"

	"github.com/garyhouston/interwiki/family"
	"github.com/garyhouston/interwiki/mwlib"
	"github.com/garyhouston/interwiki/wiki"
)

// Maximum number of titles per API query.
const maxTitles = 50

// FetchBatch retrieves the latest revision of each title on site. Titles
// are queried in chunks, up to Config.Parallel chunks at once. A chunk that
// still fails after the retries is reported as a warning and its titles are
// left out of the result.
func (p *Pool) FetchBatch(ctx context.Context, site *family.Site, titles []string) (map[string]*wiki.Content, error) {
	sc, err := p.siteClient(site)
	if err != nil {
		return nil, err
	}
	result := make(map[string]*wiki.Content, len(titles))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Parallel)
	for start := 0; start < len(titles); start += maxTitles {
		end := start + maxTitles
		if end > len(titles) {
			end = len(titles)
		}
		chunk := titles[start:end]
		g.Go(func() error {
			contents, err := p.fetchChunk(gctx, sc, chunk)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				p.warn.Printf("Could not retrieve %d pages from %v: %v", len(chunk), site, err)
				return nil
			}
			mu.Lock()
			for title, c := range contents {
				result[title] = c
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

// fetchChunk queries titles, following the API's continuation when the
// revisions don't fit into one response.
func (p *Pool) fetchChunk(ctx context.Context, sc *siteClient, titles []string) (map[string]*wiki.Content, error) {
	values := params.Values{
		"action":        "query",
		"titles":        mwlib.MakeTitleString(titles),
		"prop":          "revisions",
		"rvprop":        "content|timestamp",
		"rvslots":       "main",
		"formatversion": "2",
		"continue":      "",
	}
	p.verbose.Printf("Getting %d pages from %v", len(titles), sc.site)
	result := make(map[string]*wiki.Content, len(titles))
	for {
		var json *jason.Object
		err := p.retry(ctx, p.fetchBackoff, sc.site, func() error {
			var err error
			// Post, since the title list can be long.
			json, err = sc.client.Post(values)
			return err
		})
		if err != nil {
			return nil, err
		}
		contents, err := parseRevisions(sc.site, titles, json)
		if err != nil {
			return nil, err
		}
		// Pages whose revisions were held back are left out of a response
		// until a continuation delivers them.
		for title, c := range contents {
			if _, ok := result[title]; !ok {
				result[title] = c
			}
		}
		more, err := continueFrom(json, values)
		if err != nil || !more {
			return result, err
		}
	}
}

// continueFrom copies the "continue" parameters of a query response into
// values. It reports false when the query is complete.
func continueFrom(json *jason.Object, values params.Values) (bool, error) {
	cont, err := json.GetObject("continue")
	if err != nil {
		return false, nil
	}
	for k, v := range cont.Map() {
		s, err := v.String()
		if err != nil {
			return false, fmt.Errorf("continue parameter %s: %w", k, err)
		}
		values.Set(k, s)
	}
	return true, nil
}

// parseRevisions maps a formatversion=2 query response back to the
// requested titles. The API may normalize a title differently from us, so
// the "normalized" list is followed.
func parseRevisions(site *family.Site, titles []string, json *jason.Object) (map[string]*wiki.Content, error) {
	requested := make(map[string][]string, len(titles))
	for _, t := range titles {
		requested[t] = append(requested[t], t)
	}
	if normalized, err := json.GetObjectArray("query", "normalized"); err == nil {
		for _, n := range normalized {
			from, err1 := n.GetString("from")
			to, err2 := n.GetString("to")
			if err1 != nil || err2 != nil {
				continue
			}
			if _, ok := requested[from]; ok {
				requested[to] = append(requested[to], from)
			}
		}
	}

	pages, err := json.GetObjectArray("query", "pages")
	if err != nil {
		return nil, err
	}
	result := make(map[string]*wiki.Content, len(titles))
	for _, page := range pages {
		title, err := page.GetString("title")
		if err != nil {
			return nil, err
		}
		if invalid, _ := page.GetBoolean("invalid"); invalid {
			continue
		}
		content := &wiki.Content{}
		if missing, _ := page.GetBoolean("missing"); !missing {
			revisions, err := page.GetObjectArray("revisions")
			if err != nil || len(revisions) == 0 {
				// Deleted between listing and reading, or hidden.
				continue
			}
			content.Exists = true
			content.Text, _ = revisions[0].GetString("slots", "main", "content")
			content.Timestamp, _ = revisions[0].GetString("timestamp")
			if target, ok := wiki.ParseRedirect(site, content.Text); ok {
				content.Redirect = target
			}
		}
		for _, req := range requested[title] {
			c := *content
			c.Page = wiki.Page{Site: site, Title: req}
			result[req] = &c
		}
	}
	return result, nil
}
