package wiki

import (
	"context"

	"github.com/garyhouston/interwiki/family"
)

// Content is the state of a page as fetched from its site.
type Content struct {
	Page      Page
	Exists    bool
	Text      string
	Timestamp string // Timestamp of the fetched revision, used to detect edit conflicts.
	Redirect  string // Target title if the page is a redirect.
}

// IsRedirect reports whether the page is a redirect.
func (c *Content) IsRedirect() bool {
	return c.Exists && c.Redirect != ""
}

// RedirectTarget returns the page the redirect points to.
func (c *Content) RedirectTarget() Page {
	return NewPage(c.Page.Site, c.Redirect)
}

// Interwiki returns the interwiki links in the page text.
func (c *Content) Interwiki(fam *family.Family) []Page {
	return InterwikiLinks(fam, c.Text)
}

// IsDisambiguation reports whether the page is a disambiguation page.
func (c *Content) IsDisambiguation() bool {
	return IsDisambiguation(c.Page.Site, c.Text)
}

// IsEmpty reports whether the page has (almost) no text besides interwiki
// links and categories.
func (c *Content) IsEmpty(fam *family.Family) bool {
	return IsEmpty(fam, c.Page.Site, c.Text)
}

// Client is what the bot needs from a wiki: bulk reads and single writes.
type Client interface {
	// FetchBatch returns the content of the given normalized titles on
	// site, keyed by the requested title. Titles that could not be
	// retrieved are absent from the map. Pages that don't exist are
	// present with Exists false.
	FetchBatch(ctx context.Context, site *family.Site, titles []string) (map[string]*Content, error)

	// Write replaces the text of page. baseTimestamp is the timestamp of
	// the revision the new text was derived from. Failures that only
	// concern this page are returned as *SaveError.
	Write(ctx context.Context, page Page, text, baseTimestamp, summary string) error

	// CanWrite reports whether we hold credentials for editing site.
	CanWrite(ctx context.Context, site *family.Site) bool
}
