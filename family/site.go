package family

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Capitalization says how a site treats the first letter of a title.
type Capitalization int

const (
	FirstLetter   Capitalization = iota // "dog" and "Dog" are the same page.
	CaseSensitive                       // Wiktionary style, titles are taken as-is.
)

func (c Capitalization) String() string {
	if c == CaseSensitive {
		return "case-sensitive"
	}
	return "first-letter"
}

func parseCapitalization(s string) (Capitalization, error) {
	switch s {
	case "", "first-letter":
		return FirstLetter, nil
	case "case-sensitive":
		return CaseSensitive, nil
	}
	return FirstLetter, fmt.Errorf("unknown capitalization %q", s)
}

// Well known namespace numbers.
const (
	MainNamespace     = 0
	FileNamespace     = 6
	TemplateNamespace = 10
	CategoryNamespace = 14
)

// Site is the read-only configuration of one wiki, such as en.wikipedia.org.
type Site struct {
	Family         string
	Code           string
	Host           string
	Case           Capitalization
	EmptyThreshold int      // Pages with fewer runes of body text are empty.
	Disambiguation []string // Normalized template names marking disambiguation pages.
	RedirectWords  []string // Upper case magic words, e.g. "REDIRECT".

	namespaces map[int][]string // First name is the preferred one.
	nsLookup   map[string]int   // Lower case name -> number.
	messages   map[string]string
}

// String returns "family:code", the key used for per-site maps.
func (s *Site) String() string {
	return s.Family + ":" + s.Code
}

// APIURL returns the action API endpoint of the site.
func (s *Site) APIURL() string {
	return "https://" + s.Host + "/w/api.php"
}

// NamespaceName returns the preferred local name of namespace ns.
func (s *Site) NamespaceName(ns int) string {
	names := s.namespaces[ns]
	if len(names) == 0 {
		return ""
	}
	return names[0]
}

// NamespaceNames returns all names (local and canonical) of namespace ns.
func (s *Site) NamespaceNames(ns int) []string {
	return s.namespaces[ns]
}

func (s *Site) lookupNamespace(prefix string) (int, bool) {
	key := strings.ToLower(strings.Join(strings.Fields(strings.ReplaceAll(prefix, "_", " ")), " "))
	ns, ok := s.nsLookup[key]
	return ns, ok
}

// Namespace returns the namespace number of a normalized title.
func (s *Site) Namespace(title string) int {
	if i := strings.Index(title, ":"); i > 0 {
		if ns, ok := s.lookupNamespace(title[:i]); ok {
			return ns
		}
	}
	return MainNamespace
}

// StripNamespace returns the part of the title after the namespace prefix.
func (s *Site) StripNamespace(title string) string {
	if i := strings.Index(title, ":"); i > 0 {
		if _, ok := s.lookupNamespace(title[:i]); ok {
			return strings.TrimSpace(title[i+1:])
		}
	}
	return title
}

func (s *Site) capitalize(title string) string {
	if s.Case == CaseSensitive || title == "" {
		return title
	}
	r, size := utf8.DecodeRuneInString(title)
	return string(unicode.ToUpper(r)) + title[size:]
}

// Normalize brings a title into the canonical form used by the site: NFC,
// spaces instead of underscores, single spaces, local namespace name and
// first letter capitalization where the site uses it. Two titles refer to
// the same page iff their normalized forms are equal.
func (s *Site) Normalize(title string) string {
	title = norm.NFC.String(strings.ReplaceAll(title, "_", " "))
	title = strings.Join(strings.Fields(title), " ")
	title = strings.TrimPrefix(title, ":")
	if i := strings.Index(title, ":"); i > 0 {
		if ns, ok := s.lookupNamespace(title[:i]); ok && ns != MainNamespace {
			return s.NamespaceName(ns) + ":" + s.capitalize(strings.TrimSpace(title[i+1:]))
		}
	}
	return s.capitalize(title)
}

func (s *Site) capitalizeAlways(title string) string {
	if title == "" {
		return title
	}
	r, size := utf8.DecodeRuneInString(title)
	return string(unicode.ToUpper(r)) + title[size:]
}

// Message returns the localized edit summary word for key, falling back to
// the family default.
func (s *Site) Message(key string) string {
	return s.messages[key]
}

// IsDisambiguationTemplate reports whether name is one of the site's
// disambiguation templates.
func (s *Site) IsDisambiguationTemplate(name string) bool {
	name = s.capitalizeAlways(strings.Join(strings.Fields(strings.ReplaceAll(name, "_", " ")), " "))
	for _, t := range s.Disambiguation {
		if t == name {
			return true
		}
	}
	return false
}
