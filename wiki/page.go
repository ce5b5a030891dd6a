// Package wiki models pages of MediaWiki sites, the capability the bot
// needs from a wiki client, and the wikitext handling of interwiki links.
package wiki

import (
	"strings"

	"github.com/garyhouston/interwiki/family"
)

// Page is a reference to a page on a site. It is a value type: two pages
// are the same page iff Key() is equal, which ignores the section anchor.
type Page struct {
	Site    *family.Site
	Title   string // Normalized title, without section.
	Section string // Anchor after '#', if any.
}

// NewPage builds a page reference, normalizing the title for the site.
func NewPage(site *family.Site, title string) Page {
	section := ""
	if i := strings.Index(title, "#"); i >= 0 {
		section = strings.TrimSpace(title[i+1:])
		title = title[:i]
	}
	return Page{Site: site, Title: site.Normalize(title), Section: section}
}

// IsZero reports whether p is the empty reference.
func (p Page) IsZero() bool {
	return p.Site == nil
}

// Key identifies the page across sites: "family:code:Title".
func (p Page) Key() string {
	if p.Site == nil {
		return ""
	}
	return p.Site.String() + ":" + p.Title
}

// Equal reports whether p and o refer to the same page.
func (p Page) Equal(o Page) bool {
	return p.Key() == o.Key()
}

// Namespace returns the namespace number of the page.
func (p Page) Namespace() int {
	return p.Site.Namespace(p.Title)
}

// IsCategory reports whether the page is a category page.
func (p Page) IsCategory() bool {
	return p.Namespace() == family.CategoryNamespace
}

// FullTitle returns the title including the section anchor.
func (p Page) FullTitle() string {
	if p.Section != "" {
		return p.Title + "#" + p.Section
	}
	return p.Title
}

// InterwikiLink returns the link as it is written on other sites, e.g.
// "[[de:Hund]]".
func (p Page) InterwikiLink() string {
	return "[[" + p.Site.Code + ":" + p.FullTitle() + "]]"
}

// String returns the page as an interwiki link, which identifies the site.
func (p Page) String() string {
	if p.Site == nil {
		return "[[]]"
	}
	return p.InterwikiLink()
}
