package interwiki

import (
	"sort"
	"strings"

	"github.com/garyhouston/interwiki/family"
	"github.com/garyhouston/interwiki/wiki"
)

// Diff is the difference between the interwiki links a page has and the
// links it should have. The lists hold site codes, sorted.
type Diff struct {
	Changes   string // e.g. "Adding: [[de:Hund]] Removing: [[fr:Chat]]"
	Summary   string // Edit summary: the localized robot prefix and Changes.
	Adding    []string
	Removing  []string
	Modifying []string
}

// Empty reports whether nothing changes.
func (d Diff) Empty() bool {
	return len(d.Adding)+len(d.Removing)+len(d.Modifying) == 0
}

// CompareLanguages compares the old and the new link maps of a page on
// site, both keyed by site code. Links to site itself are left out of the
// comparison. The summary is in the language of site.
func CompareLanguages(old, new map[string]wiki.Page, site *family.Site) Diff {
	var d Diff
	for code, page := range old {
		if code == site.Code {
			continue
		}
		if n, ok := new[code]; !ok {
			d.Removing = append(d.Removing, code)
		} else if !n.Equal(page) || n.Section != page.Section {
			d.Modifying = append(d.Modifying, code)
		}
	}
	for code := range new {
		if code == site.Code {
			continue
		}
		if _, ok := old[code]; !ok {
			d.Adding = append(d.Adding, code)
		}
	}
	sort.Strings(d.Adding)
	sort.Strings(d.Removing)
	sort.Strings(d.Modifying)
	d.Changes, d.Summary = summarize(site, old, new, d.Adding, d.Removing, d.Modifying)
	return d
}

// summarize describes the changes with full links when there are only a
// few, or with bare site codes otherwise.
func summarize(site *family.Site, old, new map[string]wiki.Page, adding, removing, modifying []string) (changes, summary string) {
	short := len(adding)+len(removing)+len(modifying) > 3
	format := func(pages map[string]wiki.Page, codes []string) string {
		out := make([]string, len(codes))
		for i, code := range codes {
			if short {
				out[i] = code
			} else {
				out[i] = pages[code].InterwikiLink()
			}
		}
		return strings.Join(out, ", ")
	}
	var parts []string
	if len(adding) > 0 {
		parts = append(parts, site.Message("adding")+": "+format(new, adding))
	}
	if len(removing) > 0 {
		parts = append(parts, site.Message("removing")+": "+format(old, removing))
	}
	if len(modifying) > 0 {
		parts = append(parts, site.Message("modifying")+": "+format(new, modifying))
	}
	changes = strings.Join(parts, " ")
	return changes, strings.TrimSpace(site.Message("robot") + " " + changes)
}
