package mwapi

import (
	"context"
	"io"
	"strconv"

	"cgt.name/pkg/go-mwclient/params"
	"github.com/antonholmquist/jason"

	"github.com/garyhouston/interwiki/family"
	"github.com/garyhouston/interwiki/wiki"
)

// AllPages lists the non-redirect pages of one namespace of a site in
// title order, starting at a given title. A failed request is retried on
// the next call from where the listing stopped.
type AllPages struct {
	pool     *Pool
	site     *family.Site
	values   params.Values
	buffered []wiki.Page
	done     bool
}

// AllPages returns a generator of the pages of site in namespace ns whose
// title sorts at or after start.
func (p *Pool) AllPages(site *family.Site, start string, ns int) *AllPages {
	return &AllPages{pool: p, site: site, values: params.Values{
		"action":        "query",
		"list":          "allpages",
		"apfrom":        site.StripNamespace(start),
		"apnamespace":   strconv.Itoa(ns),
		"apfilterredir": "nonredirects",
		"aplimit":       "max",
		"continue":      "",
	}}
}

// Next returns the next page, or io.EOF when the listing is exhausted.
func (a *AllPages) Next(ctx context.Context) (wiki.Page, error) {
	for len(a.buffered) == 0 {
		if a.done {
			return wiki.Page{}, io.EOF
		}
		if err := ctx.Err(); err != nil {
			return wiki.Page{}, err
		}
		if err := a.fill(ctx); err != nil {
			return wiki.Page{}, err
		}
	}
	page := a.buffered[0]
	a.buffered = a.buffered[1:]
	return page, nil
}

func (a *AllPages) fill(ctx context.Context) error {
	sc, err := a.pool.siteClient(a.site)
	if err != nil {
		return err
	}
	var json *jason.Object
	err = a.pool.retry(ctx, a.pool.fetchBackoff, a.site, func() error {
		var err error
		json, err = sc.client.Get(a.values)
		return err
	})
	if err != nil {
		return err
	}
	// An empty listing has no "allpages" array.
	pages, _ := json.GetObjectArray("query", "allpages")
	var buffered []wiki.Page
	for _, page := range pages {
		title, err := page.GetString("title")
		if err != nil {
			return err
		}
		buffered = append(buffered, wiki.NewPage(a.site, title))
	}
	next := make(params.Values, len(a.values))
	for k, v := range a.values {
		next[k] = v
	}
	more, err := continueFrom(json, next)
	if err != nil {
		return err
	}
	a.values = next
	a.buffered = buffered
	a.done = !more
	return nil
}
