package wiki

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/garyhouston/interwiki/family"
)

// Comments, nowiki and pre blocks. Links inside them are not live.
var disabledRe = regexp.MustCompile(`(?is)<!--.*?-->|<nowiki>.*?</nowiki>|<pre>.*?</pre>|<source[^>]*>.*?</source>`)

var interwikiRe = regexp.MustCompile(`\[\[([a-zA-Z][a-zA-Z\-]*)\s?:\s?([^\[\]\n|]*)(?:\|[^\[\]\n]*)?\]\]`)

var templateRe = regexp.MustCompile(`\{\{\s*([^{}|\n]+?)\s*(?:\|[^{}]*)?\}\}`)

var headingRe = regexp.MustCompile(`(?m)^(=+)\s*(.+?)\s*=+\s*$`)

var blankLinesRe = regexp.MustCompile(`\n{3,}`)

func disabledRanges(text string) [][]int {
	return disabledRe.FindAllStringIndex(text, -1)
}

func inRanges(ranges [][]int, pos int) bool {
	for _, r := range ranges {
		if pos >= r[0] && pos < r[1] {
			return true
		}
	}
	return false
}

type linkMatch struct {
	start, end int
	page       Page
}

func liveInterwiki(fam *family.Family, text string) []linkMatch {
	ranges := disabledRanges(text)
	var out []linkMatch
	for _, m := range interwikiRe.FindAllStringSubmatchIndex(text, -1) {
		if inRanges(ranges, m[0]) {
			continue
		}
		code := strings.ToLower(text[m[2]:m[3]])
		site, err := fam.Site(code)
		if err != nil {
			continue
		}
		title := strings.TrimSpace(text[m[4]:m[5]])
		if title == "" {
			continue
		}
		out = append(out, linkMatch{start: m[0], end: m[1], page: NewPage(site, title)})
	}
	return out
}

// InterwikiLinks returns the pages that text links to through interwiki
// links of family fam, in order of appearance, without duplicates.
func InterwikiLinks(fam *family.Family, text string) []Page {
	seen := make(map[string]bool)
	var pages []Page
	for _, m := range liveInterwiki(fam, text) {
		if seen[m.page.Key()] {
			continue
		}
		seen[m.page.Key()] = true
		pages = append(pages, m.page)
	}
	return pages
}

func tidy(text string) string {
	return strings.TrimRight(blankLinesRe.ReplaceAllString(text, "\n\n"), " \t\n")
}

// RemoveInterwiki strips every live interwiki link of family fam from text.
func RemoveInterwiki(fam *family.Family, text string) string {
	matches := liveInterwiki(fam, text)
	if len(matches) == 0 {
		return text
	}
	var sb strings.Builder
	last := 0
	for _, m := range matches {
		sb.WriteString(text[last:m.start])
		last = m.end
	}
	sb.WriteString(text[last:])
	return tidy(sb.String())
}

func categoryRe(site *family.Site) *regexp.Regexp {
	names := site.NamespaceNames(family.CategoryNamespace)
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = regexp.QuoteMeta(n)
	}
	return regexp.MustCompile(`(?i)\[\[\s*(?:` + strings.Join(quoted, "|") + `)\s*:[^\[\]\n]*\]\]`)
}

// RemoveCategories strips category links from text.
func RemoveCategories(site *family.Site, text string) string {
	if len(site.NamespaceNames(family.CategoryNamespace)) == 0 {
		return text
	}
	return tidy(categoryRe(site).ReplaceAllString(text, ""))
}

// IsEmpty reports whether text, without comments, interwiki links and
// categories, is shorter than the site's threshold.
func IsEmpty(fam *family.Family, site *family.Site, text string) bool {
	text = disabledRe.ReplaceAllString(text, "")
	text = RemoveCategories(site, RemoveInterwiki(fam, text))
	return utf8.RuneCountInString(strings.TrimSpace(text)) < site.EmptyThreshold
}

// IsDisambiguation reports whether text transcludes one of the site's
// disambiguation templates or carries the __DISAMBIG__ magic word.
func IsDisambiguation(site *family.Site, text string) bool {
	text = disabledRe.ReplaceAllString(text, "")
	if strings.Contains(text, "__DISAMBIG__") {
		return true
	}
	for _, m := range templateRe.FindAllStringSubmatch(text, -1) {
		name := m[1]
		if site.Namespace(name) == family.TemplateNamespace {
			name = site.StripNamespace(name)
		}
		if site.IsDisambiguationTemplate(name) {
			return true
		}
	}
	return false
}

// ParseRedirect returns the target of a redirect page text.
func ParseRedirect(site *family.Site, text string) (string, bool) {
	words := make([]string, len(site.RedirectWords))
	for i, w := range site.RedirectWords {
		words[i] = regexp.QuoteMeta(w)
	}
	re := regexp.MustCompile(`(?i)^\s*#\s*(?:` + strings.Join(words, "|") + `)\s*:?\s*\[\[([^\[\]|\n]+)(?:\|[^\[\]\n]*)?\]\]`)
	m := re.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// HasSection reports whether text has a heading named section.
func HasSection(text, section string) bool {
	want := strings.ReplaceAll(section, "_", " ")
	for _, m := range headingRe.FindAllStringSubmatch(text, -1) {
		if strings.TrimSpace(m[2]) == want {
			return true
		}
	}
	return false
}

// ReplaceInterwiki removes all interwiki links from text and appends the
// given links, one per line and sorted by language code, at the end.
// A link to site itself is never written.
func ReplaceInterwiki(fam *family.Family, site *family.Site, text string, links map[string]Page) string {
	text = RemoveInterwiki(fam, text)
	codes := make([]string, 0, len(links))
	for code, p := range links {
		if p.Site == nil || p.Site.Code == site.Code {
			continue
		}
		codes = append(codes, code)
	}
	if len(codes) == 0 {
		return text
	}
	sort.Strings(codes)
	var sb strings.Builder
	sb.WriteString(strings.TrimRight(text, " \t\n"))
	sb.WriteString("\n\n")
	for i, code := range codes {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(links[code].InterwikiLink())
	}
	return sb.String()
}

var commentedLinkRe = regexp.MustCompile(`<!--\s*\[\[([^\[\]\n]*?:[^\[\]\n]*?)\]\]\s*-->`)

// CommentedInterwiki returns the interwiki links that text carries inside
// comments, such as "<!-- [[fr:Chien]] -->". Editors use them to mark links
// that must not be added.
func CommentedInterwiki(fam *family.Family, text string) []Page {
	var pages []Page
	for _, m := range commentedLinkRe.FindAllStringSubmatch(text, -1) {
		i := strings.Index(m[1], ":")
		site, err := fam.Site(strings.TrimSpace(m[1][:i]))
		if err != nil {
			continue
		}
		title := strings.TrimSpace(m[1][i+1:])
		if title == "" {
			continue
		}
		pages = append(pages, NewPage(site, title))
	}
	return pages
}

var botsRe = regexp.MustCompile(`(?i)\{\{\s*(nobots|bots)\s*(\|[^{}]*)?\}\}`)

// BotMayEdit reports whether the page text allows edits by bots, following
// the {{bots}} and {{nobots}} exclusion templates. user is the bot's
// account name and may be empty.
func BotMayEdit(text, user string) bool {
	text = disabledRe.ReplaceAllString(text, "")
	for _, m := range botsRe.FindAllStringSubmatch(text, -1) {
		if strings.EqualFold(m[1], "nobots") {
			return false
		}
		for _, param := range strings.Split(strings.TrimPrefix(m[2], "|"), "|") {
			key, value, ok := strings.Cut(param, "=")
			if !ok {
				continue
			}
			names := strings.Split(value, ",")
			switch strings.TrimSpace(strings.ToLower(key)) {
			case "deny":
				for _, n := range names {
					n = strings.TrimSpace(n)
					if strings.EqualFold(n, "all") || (user != "" && strings.EqualFold(n, user)) {
						return false
					}
				}
			case "allow":
				allowed := false
				for _, n := range names {
					n = strings.TrimSpace(n)
					if strings.EqualFold(n, "all") || (user != "" && strings.EqualFold(n, user)) {
						allowed = true
					}
				}
				if !allowed {
					return false
				}
			}
		}
	}
	return true
}
