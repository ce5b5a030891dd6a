// Package titletranslate guesses the titles of a page on other sites, from
// hints given by the operator and from calendar page formats.
package titletranslate

import (
	"io"
	"log"
	"regexp"
	"strings"

	"github.com/garyhouston/interwiki/date"
	"github.com/garyhouston/interwiki/family"
	"github.com/garyhouston/interwiki/wiki"
)

var bracketRe = regexp.MustCompile(`\W*?\(.*?\)\W*?`)

// Translator expands hints for pages of one family.
type Translator struct {
	family  *family.Family
	dates   *date.Tables
	verbose *log.Logger
}

// New returns a Translator. dates may be nil to disable automatic
// translation; verbose may be nil.
func New(fam *family.Family, dates *date.Tables, verbose *log.Logger) *Translator {
	if verbose == nil {
		verbose = log.New(io.Discard, "", 0)
	}
	return &Translator{family: fam, dates: dates, verbose: verbose}
}

// Translate returns candidate pages on other sites for page. Each hint has
// the form "codes:title" or just "codes", where codes is a language code, a
// comma separated list of codes, "all", a number N (the N largest
// languages) or a named group such as "cyril". A hint without title means
// the page's own title. Unknown codes are ignored. With auto set, day and
// year titles are translated into every language with a calendar format.
func (t *Translator) Translate(page wiki.Page, hints []string, auto, removeBrackets bool) []wiki.Page {
	var result []wiki.Page
	seen := make(map[string]bool)
	add := func(p wiki.Page) {
		if p.Site == page.Site || seen[p.Key()] {
			return
		}
		seen[p.Key()] = true
		result = append(result, p)
	}

	for _, h := range hints {
		codes, newname := h, ""
		if i := strings.Index(h, ":"); i >= 0 {
			codes, newname = h[:i], strings.TrimSpace(h[i+1:])
		}
		for _, code := range t.expand(codes) {
			site, err := t.family.Site(code)
			if err != nil {
				t.verbose.Printf("Ignoring unknown language code %s", code)
				continue
			}
			title := newname
			if title == "" {
				title = t.sameTitle(page, site, removeBrackets)
			}
			add(wiki.NewPage(site, title))
		}
	}

	if auto && t.dates != nil {
		v, ok := t.dates.Parse(page.Site.Code, page.Title)
		if ok {
			t.verbose.Printf("TitleTranslate: %s was recognized as %v", page.Title, v.Kind)
			for _, code := range t.dates.Languages() {
				if code == page.Site.Code {
					continue
				}
				site, err := t.family.Site(code)
				if err != nil {
					continue
				}
				title, ok := t.dates.Format(code, v)
				if !ok {
					continue
				}
				add(wiki.NewPage(site, title))
			}
		}
	}
	return result
}

// IsAutoTranslatable reports whether the page title is a calendar title
// that Translate handles on its own.
func (t *Translator) IsAutoTranslatable(page wiki.Page) bool {
	if t.dates == nil {
		return false
	}
	_, ok := t.dates.Parse(page.Site.Code, page.Title)
	return ok
}

func (t *Translator) expand(codes string) []string {
	codes = strings.TrimSpace(codes)
	if group, ok := t.family.Group(codes); ok {
		return group
	}
	var out []string
	for _, c := range strings.Split(codes, ",") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// sameTitle renders page's title for another site, translating the
// namespace prefix.
func (t *Translator) sameTitle(page wiki.Page, site *family.Site, removeBrackets bool) string {
	ns := page.Namespace()
	title := page.Site.StripNamespace(page.Title)
	if removeBrackets {
		title = strings.TrimSpace(bracketRe.ReplaceAllString(title, " "))
	}
	if ns != family.MainNamespace {
		if name := site.NamespaceName(ns); name != "" {
			return name + ":" + title
		}
	}
	return title
}
