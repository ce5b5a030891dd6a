// Package pagegen provides the sources of origin pages for a bot run.
package pagegen

import (
	"bufio"
	"context"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/garyhouston/interwiki/family"
	"github.com/garyhouston/interwiki/wiki"
)

// Generator yields pages one at a time. Next returns io.EOF when there are
// no more pages.
type Generator interface {
	Next(ctx context.Context) (wiki.Page, error)
}

// Slice yields a fixed list of pages.
type Slice struct {
	pages []wiki.Page
}

// NewSlice returns a generator over pages.
func NewSlice(pages ...wiki.Page) *Slice {
	return &Slice{pages: pages}
}

// Titles returns a generator over titles on site.
func Titles(site *family.Site, titles ...string) *Slice {
	pages := make([]wiki.Page, 0, len(titles))
	for _, t := range titles {
		if strings.TrimSpace(t) == "" {
			continue
		}
		pages = append(pages, wiki.NewPage(site, t))
	}
	return &Slice{pages: pages}
}

func (s *Slice) Next(ctx context.Context) (wiki.Page, error) {
	if err := ctx.Err(); err != nil {
		return wiki.Page{}, err
	}
	if len(s.pages) == 0 {
		return wiki.Page{}, io.EOF
	}
	p := s.pages[0]
	s.pages = s.pages[1:]
	return p, nil
}

var linkRe = regexp.MustCompile(`\[\[([^\[\]|]+)(?:\|[^\[\]]*)?\]\]`)

// ReadTitles reads the pages listed in r. If the text contains [[links]],
// the link targets are the titles; otherwise each non-blank line is one.
func ReadTitles(site *family.Site, r io.Reader) ([]wiki.Page, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	var titles []string
	for _, line := range lines {
		for _, m := range linkRe.FindAllStringSubmatch(line, -1) {
			titles = append(titles, strings.TrimPrefix(strings.TrimSpace(m[1]), ":"))
		}
	}
	if titles == nil {
		for _, line := range lines {
			if line = strings.TrimSpace(line); line != "" {
				titles = append(titles, line)
			}
		}
	}
	return Titles(site, titles...).pages, nil
}

// FromFile returns a generator over the pages listed in a file, see
// ReadTitles.
func FromFile(site *family.Site, path string) (*Slice, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	pages, err := ReadTitles(site, f)
	if err != nil {
		return nil, err
	}
	return NewSlice(pages...), nil
}

type limited struct {
	gen  Generator
	left int
}

// Limit stops gen after n pages.
func Limit(gen Generator, n int) Generator {
	return &limited{gen: gen, left: n}
}

func (l *limited) Next(ctx context.Context) (wiki.Page, error) {
	if l.left <= 0 {
		return wiki.Page{}, io.EOF
	}
	p, err := l.gen.Next(ctx)
	if err != nil {
		return p, err
	}
	l.left--
	return p, nil
}

type filtered struct {
	gen  Generator
	keep func(wiki.Page) bool
}

// Filter yields the pages of gen for which keep returns true.
func Filter(gen Generator, keep func(wiki.Page) bool) Generator {
	return &filtered{gen: gen, keep: keep}
}

func (f *filtered) Next(ctx context.Context) (wiki.Page, error) {
	for {
		p, err := f.gen.Next(ctx)
		if err != nil || f.keep(p) {
			return p, err
		}
	}
}

type chain struct {
	gens []Generator
}

// Chain yields the pages of each generator in turn.
func Chain(gens ...Generator) Generator {
	return &chain{gens: gens}
}

func (c *chain) Next(ctx context.Context) (wiki.Page, error) {
	for len(c.gens) > 0 {
		p, err := c.gens[0].Next(ctx)
		if err == io.EOF {
			c.gens = c.gens[1:]
			continue
		}
		return p, err
	}
	return wiki.Page{}, io.EOF
}
