// Package family holds the data-driven description of wiki families
// (wikipedia, wiktionary, ...) and their per-language sites.
package family

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed families.yaml
var defaultFamilies []byte

// ErrUnknownSite is returned when a language code is not part of a family.
var ErrUnknownSite = errors.New("unknown site")

type languageConfig struct {
	Host           string            `yaml:"host"`
	Capitalization string            `yaml:"capitalization"`
	Namespaces     map[int][]string  `yaml:"namespaces"`
	Redirect       []string          `yaml:"redirect"`
	Disambiguation []string          `yaml:"disambiguation"`
	Messages       map[string]string `yaml:"messages"`
}

type familyConfig struct {
	Host            string                    `yaml:"host"`
	Capitalization  string                    `yaml:"capitalization"`
	EmptyThreshold  int                       `yaml:"empty_threshold"`
	LanguagesBySize []string                  `yaml:"languages_by_size"`
	Groups          map[string][]string       `yaml:"groups"`
	Aliases         map[string]string         `yaml:"aliases"`
	Mirrors         map[string][]string       `yaml:"mirrors"`
	CrossNamespace  map[int][]int             `yaml:"crossnamespace"`
	Namespaces      map[int][]string          `yaml:"namespaces"`
	Redirect        []string                  `yaml:"redirect"`
	Disambiguation  []string                  `yaml:"disambiguation"`
	Messages        map[string]string         `yaml:"messages"`
	Languages       map[string]languageConfig `yaml:"languages"`
}

type registryConfig struct {
	Families map[string]familyConfig `yaml:"families"`
}

// Family is a set of sites that link to each other through interwiki links.
type Family struct {
	Name            string
	languagesBySize []string
	codes           []string
	sites           map[string]*Site
	groups          map[string][]string
	aliases         map[string]string
	mirrors         map[string][]string
	crossNamespace  map[int][]int
}

// Registry looks up families by name.
type Registry struct {
	families map[string]*Family
}

// Default returns the registry built from the embedded family tables.
func Default() (*Registry, error) {
	return Load(defaultFamilies)
}

// LoadFile reads a registry from a YAML file.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Load(data)
}

// Load parses YAML family tables.
func Load(data []byte) (*Registry, error) {
	var cfg registryConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("family tables: %w", err)
	}
	if len(cfg.Families) == 0 {
		return nil, errors.New("family tables: no families defined")
	}
	reg := &Registry{families: make(map[string]*Family, len(cfg.Families))}
	for name, fc := range cfg.Families {
		fam, err := buildFamily(name, fc)
		if err != nil {
			return nil, err
		}
		reg.families[name] = fam
	}
	return reg, nil
}

// Family returns the named family.
func (r *Registry) Family(name string) (*Family, error) {
	fam, ok := r.families[name]
	if !ok {
		return nil, fmt.Errorf("unknown family %q", name)
	}
	return fam, nil
}

// Site returns the site for (family, code).
func (r *Registry) Site(family, code string) (*Site, error) {
	fam, err := r.Family(family)
	if err != nil {
		return nil, err
	}
	return fam.Site(code)
}

func buildFamily(name string, fc familyConfig) (*Family, error) {
	if fc.Host == "" {
		return nil, fmt.Errorf("family %s: host pattern missing", name)
	}
	fam := &Family{
		Name:            name,
		languagesBySize: fc.LanguagesBySize,
		sites:           make(map[string]*Site),
		groups:          fc.Groups,
		aliases:         fc.Aliases,
		mirrors:         fc.Mirrors,
		crossNamespace:  fc.CrossNamespace,
	}
	seen := make(map[string]bool)
	for _, code := range fc.LanguagesBySize {
		if !seen[code] {
			seen[code] = true
			fam.codes = append(fam.codes, code)
		}
	}
	var rest []string
	for code := range fc.Languages {
		if !seen[code] {
			seen[code] = true
			rest = append(rest, code)
		}
	}
	sort.Strings(rest)
	fam.codes = append(fam.codes, rest...)

	for _, code := range fam.codes {
		site, err := buildSite(name, code, fc, fc.Languages[code])
		if err != nil {
			return nil, err
		}
		fam.sites[code] = site
	}
	for from, to := range fam.aliases {
		if _, ok := fam.sites[to]; !ok {
			return nil, fmt.Errorf("family %s: alias %s points to unknown code %s", name, from, to)
		}
	}
	return fam, nil
}

func buildSite(famName, code string, fc familyConfig, lc languageConfig) (*Site, error) {
	host := lc.Host
	if host == "" {
		host = strings.ReplaceAll(fc.Host, "{code}", code)
	}
	capName := fc.Capitalization
	if lc.Capitalization != "" {
		capName = lc.Capitalization
	}
	capitalization, err := parseCapitalization(capName)
	if err != nil {
		return nil, fmt.Errorf("site %s:%s: %w", famName, code, err)
	}
	threshold := fc.EmptyThreshold
	if threshold <= 0 {
		threshold = 4
	}
	site := &Site{
		Family:         famName,
		Code:           code,
		Host:           host,
		Case:           capitalization,
		EmptyThreshold: threshold,
		RedirectWords:  []string{"REDIRECT"},
		namespaces:     make(map[int][]string),
		nsLookup:       make(map[string]int),
		messages:       make(map[string]string),
	}
	addNames := func(tables ...map[int][]string) {
		for _, table := range tables {
			for ns, names := range table {
				for _, n := range names {
					key := strings.ToLower(n)
					if _, dup := site.nsLookup[key]; dup {
						continue
					}
					site.nsLookup[key] = ns
					site.namespaces[ns] = append(site.namespaces[ns], n)
				}
			}
		}
	}
	// Local names first so they become the preferred spelling.
	addNames(lc.Namespaces, fc.Namespaces)

	for _, words := range [][]string{lc.Redirect, fc.Redirect} {
		for _, w := range words {
			w = strings.ToUpper(w)
			if w != "REDIRECT" {
				site.RedirectWords = append(site.RedirectWords, w)
			}
		}
	}
	for _, templates := range [][]string{lc.Disambiguation, fc.Disambiguation} {
		for _, t := range templates {
			site.Disambiguation = append(site.Disambiguation, site.capitalizeAlways(t))
		}
	}
	for k, v := range fc.Messages {
		site.messages[k] = v
	}
	for k, v := range lc.Messages {
		site.messages[k] = v
	}
	return site, nil
}

// Site returns the site for a language code, following aliases of obsolete
// codes.
func (f *Family) Site(code string) (*Site, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if to, ok := f.aliases[code]; ok {
		code = to
	}
	site, ok := f.sites[code]
	if !ok {
		return nil, fmt.Errorf("%w %s:%s", ErrUnknownSite, f.Name, code)
	}
	return site, nil
}

// Has reports whether code (or an alias of it) belongs to the family.
func (f *Family) Has(code string) bool {
	_, err := f.Site(code)
	return err == nil
}

// Codes returns every language code, largest wikis first.
func (f *Family) Codes() []string {
	return f.codes
}

// LanguagesBySize returns the configured size ranking.
func (f *Family) LanguagesBySize() []string {
	return f.languagesBySize
}

// Group expands a hint site group: "all", a number N meaning the N largest
// languages, or a named group such as "cyril".
func (f *Family) Group(name string) ([]string, bool) {
	if name == "all" {
		return f.languagesBySize, true
	}
	if n, err := strconv.Atoi(name); err == nil {
		if n < 0 {
			return nil, false
		}
		if n > len(f.languagesBySize) {
			n = len(f.languagesBySize)
		}
		return f.languagesBySize[:n], true
	}
	codes, ok := f.groups[name]
	return codes, ok
}

// Mirrors returns the codes that must carry a copy of every link to code.
func (f *Family) Mirrors(code string) []string {
	return f.mirrors[code]
}

// CrossNamespaceAllowed reports whether a page in namespace from may link to
// a page in namespace to without counting as a mismatch.
func (f *Family) CrossNamespaceAllowed(from, to int) bool {
	for _, ns := range f.crossNamespace[from] {
		if ns == to {
			return true
		}
	}
	return false
}
