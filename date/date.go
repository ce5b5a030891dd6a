// Package date recognizes and produces the titles of calendar pages (days of
// the year and years) in the formats used by each language.
package date

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed dates.yaml
var defaultTables []byte

// Kind says which kind of calendar page a title is.
type Kind int

const (
	DayMonth Kind = iota + 1
	YearAD
	YearBC
)

func (k Kind) String() string {
	switch k {
	case DayMonth:
		return "day-month"
	case YearAD:
		return "yearsAD"
	case YearBC:
		return "yearsBC"
	}
	return "unknown"
}

// Value is a recognized calendar title. Year is positive for both AD and BC.
type Value struct {
	Kind  Kind
	Day   int
	Month int
	Year  int
}

const defaultMaxAD = 2100

type languageConfig struct {
	DayMonth string   `yaml:"day_month"`
	FirstDay string   `yaml:"first_day"`
	Months   []string `yaml:"months"`
	YearAD   string   `yaml:"year_ad"`
	YearBC   string   `yaml:"year_bc"`
	MinAD    int      `yaml:"min_ad"`
	MaxAD    int      `yaml:"max_ad"`
	MaxBC    int      `yaml:"max_bc"`
	SkipAD   []int    `yaml:"skip_ad"`
}

type tablesConfig struct {
	Languages map[string]languageConfig `yaml:"languages"`
}

type format struct {
	pattern string
	re      *regexp.Regexp
	groups  []string
}

type language struct {
	cfg      languageConfig
	dayMonth *format
	yearAD   *format
	yearBC   *format
	skip     map[int]bool
}

// Tables holds the compiled formats of every configured language.
type Tables struct {
	langs map[string]*language
}

// Default returns the embedded tables.
func Default() (*Tables, error) {
	return Load(defaultTables)
}

// LoadFile reads tables from a YAML file.
func LoadFile(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Load(data)
}

// Load compiles YAML date tables.
func Load(data []byte) (*Tables, error) {
	var cfg tablesConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("date tables: %w", err)
	}
	if len(cfg.Languages) == 0 {
		return nil, errors.New("date tables: no languages")
	}
	t := &Tables{langs: make(map[string]*language, len(cfg.Languages))}
	for code, lc := range cfg.Languages {
		lang, err := compileLanguage(lc)
		if err != nil {
			return nil, fmt.Errorf("date tables %s: %w", code, err)
		}
		t.langs[code] = lang
	}
	return t, nil
}

func compileLanguage(lc languageConfig) (*language, error) {
	if lc.MaxAD == 0 {
		lc.MaxAD = defaultMaxAD
	}
	if lc.MinAD == 0 {
		lc.MinAD = 1
	}
	lang := &language{cfg: lc, skip: make(map[int]bool)}
	for _, y := range lc.SkipAD {
		lang.skip[y] = true
	}
	var err error
	if lc.DayMonth != "" {
		if strings.Contains(lc.DayMonth, "{month}") && len(lc.Months) != 12 {
			return nil, fmt.Errorf("day_month uses {month} but %d month names given", len(lc.Months))
		}
		if lang.dayMonth, err = compileFormat(lc.DayMonth, lc); err != nil {
			return nil, err
		}
	}
	if lc.YearAD != "" {
		if lang.yearAD, err = compileFormat(lc.YearAD, lc); err != nil {
			return nil, err
		}
	}
	if lc.YearBC != "" {
		if lang.yearBC, err = compileFormat(lc.YearBC, lc); err != nil {
			return nil, err
		}
	}
	return lang, nil
}

var placeholder = regexp.MustCompile(`\{(day|month|month_num|year)\}`)

func compileFormat(pattern string, lc languageConfig) (*format, error) {
	f := &format{pattern: pattern}
	var sb strings.Builder
	sb.WriteString("^")
	last := 0
	for _, loc := range placeholder.FindAllStringSubmatchIndex(pattern, -1) {
		sb.WriteString(regexp.QuoteMeta(pattern[last:loc[0]]))
		name := pattern[loc[2]:loc[3]]
		switch name {
		case "day":
			if lc.FirstDay != "" {
				sb.WriteString(`(` + regexp.QuoteMeta(lc.FirstDay) + `|\d{1,2})`)
			} else {
				sb.WriteString(`(\d{1,2})`)
			}
		case "month":
			names := make([]string, len(lc.Months))
			for i, m := range lc.Months {
				names[i] = regexp.QuoteMeta(m)
			}
			sb.WriteString(`(` + strings.Join(names, "|") + `)`)
		case "month_num":
			sb.WriteString(`(\d{1,2})`)
		case "year":
			sb.WriteString(`(\d{1,4})`)
		}
		f.groups = append(f.groups, name)
		last = loc[1]
	}
	sb.WriteString(regexp.QuoteMeta(pattern[last:]))
	sb.WriteString("$")
	re, err := regexp.Compile(sb.String())
	if err != nil {
		return nil, err
	}
	f.re = re
	return f, nil
}

var daysInMonth = [13]int{0, 31, 29, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

func (l *language) parseDayMonth(title string) (Value, bool) {
	if l.dayMonth == nil {
		return Value{}, false
	}
	m := l.dayMonth.re.FindStringSubmatch(title)
	if m == nil {
		return Value{}, false
	}
	v := Value{Kind: DayMonth}
	for i, name := range l.dayMonth.groups {
		s := m[i+1]
		switch name {
		case "day":
			if l.cfg.FirstDay != "" && s == l.cfg.FirstDay {
				v.Day = 1
			} else {
				v.Day, _ = strconv.Atoi(s)
			}
		case "month":
			for j, name := range l.cfg.Months {
				if name == s {
					v.Month = j + 1
				}
			}
		case "month_num":
			v.Month, _ = strconv.Atoi(s)
		}
	}
	if v.Month < 1 || v.Month > 12 || v.Day < 1 || v.Day > daysInMonth[v.Month] {
		return Value{}, false
	}
	return v, true
}

func (l *language) parseYear(f *format, kind Kind, title string) (Value, bool) {
	if f == nil {
		return Value{}, false
	}
	m := f.re.FindStringSubmatch(title)
	if m == nil {
		return Value{}, false
	}
	// Leading zeros are not year titles.
	if strings.HasPrefix(m[1], "0") {
		return Value{}, false
	}
	year, err := strconv.Atoi(m[1])
	if err != nil {
		return Value{}, false
	}
	v := Value{Kind: kind, Year: year}
	if !l.inRange(v) {
		return Value{}, false
	}
	return v, true
}

func (l *language) inRange(v Value) bool {
	switch v.Kind {
	case YearAD:
		return v.Year >= l.cfg.MinAD && v.Year <= l.cfg.MaxAD && !l.skip[v.Year]
	case YearBC:
		return v.Year >= 1 && (l.cfg.MaxBC == 0 || v.Year <= l.cfg.MaxBC)
	case DayMonth:
		return v.Month >= 1 && v.Month <= 12 && v.Day >= 1 && v.Day <= daysInMonth[v.Month]
	}
	return false
}

// Parse recognizes title as a calendar page title of language lang.
func (t *Tables) Parse(lang, title string) (Value, bool) {
	l, ok := t.langs[lang]
	if !ok {
		return Value{}, false
	}
	if v, ok := l.parseDayMonth(title); ok {
		return v, true
	}
	// BC first: its pattern is the more specific one.
	if v, ok := l.parseYear(l.yearBC, YearBC, title); ok {
		return v, true
	}
	return l.parseYear(l.yearAD, YearAD, title)
}

// Format renders v in the format of language lang. It fails when the
// language has no format for the kind, or when the value lies outside the
// range the language uses for calendar pages.
func (t *Tables) Format(lang string, v Value) (string, bool) {
	l, ok := t.langs[lang]
	if !ok || !l.inRange(v) {
		return "", false
	}
	var f *format
	switch v.Kind {
	case DayMonth:
		f = l.dayMonth
	case YearAD:
		f = l.yearAD
	case YearBC:
		f = l.yearBC
	}
	if f == nil {
		return "", false
	}
	out := placeholder.ReplaceAllStringFunc(f.pattern, func(token string) string {
		switch token {
		case "{day}":
			if v.Day == 1 && l.cfg.FirstDay != "" {
				return l.cfg.FirstDay
			}
			return strconv.Itoa(v.Day)
		case "{month}":
			return l.cfg.Months[v.Month-1]
		case "{month_num}":
			return strconv.Itoa(v.Month)
		case "{year}":
			return strconv.Itoa(v.Year)
		}
		return token
	})
	return out, true
}

// Languages returns the codes of all configured languages, sorted.
func (t *Tables) Languages() []string {
	codes := make([]string, 0, len(t.langs))
	for code := range t.langs {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
