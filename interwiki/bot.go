package interwiki

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/garyhouston/interwiki/family"
	"github.com/garyhouston/interwiki/pagegen"
	"github.com/garyhouston/interwiki/titletranslate"
	"github.com/garyhouston/interwiki/wiki"
)

// Config holds what a Bot works with.
type Config struct {
	Options    *Options
	Family     *family.Family
	Home       *family.Site // Site of the origin pages.
	Client     wiki.Client
	Translator *titletranslate.Translator
	Resolver   Resolver    // Asked in interactive runs; nil refuses everything.
	Problems   *ProblemLog // May be nil.
	Metrics    *Metrics    // May be nil.
	Loggers    Loggers
	// Backoff between attempts to get more pages from the generator.
	GeneratorRetryBase, GeneratorRetryMax time.Duration
}

// Bot schedules the fetches of many subjects at once, so that each request
// to a site serves as many subjects as possible.
type Bot struct {
	opts       *Options
	fam        *family.Family
	home       *family.Site
	client     wiki.Client
	translator *titletranslate.Translator
	resolver   Resolver
	problems   *ProblemLog
	metrics    *Metrics
	warn       *log.Logger
	verbose    *log.Logger
	retryBase  time.Duration
	retryMax   time.Duration

	neverLink map[string]bool
	ignore    map[string]bool
	skip      map[string]bool

	counter   *Counter
	subjects  []*Subject
	gen       pagegen.Generator

	Stats Stats
}

// NewBot returns a Bot without subjects.
func NewBot(cfg Config) *Bot {
	opts := cfg.Options
	if opts == nil {
		def := DefaultOptions()
		opts = &def
	}
	b := &Bot{
		opts:       opts,
		fam:        cfg.Family,
		home:       cfg.Home,
		client:     cfg.Client,
		translator: cfg.Translator,
		resolver:   cfg.Resolver,
		problems:   cfg.Problems,
		metrics:    cfg.Metrics,
		warn:       orDiscard(cfg.Loggers.Warn),
		verbose:    orDiscard(cfg.Loggers.Verbose),
		retryBase:  cfg.GeneratorRetryBase,
		retryMax:   cfg.GeneratorRetryMax,
		neverLink:  make(map[string]bool),
		ignore:     keySet(opts.Ignore),
		skip:       keySet(opts.Skip),
		counter:    NewCounter(),
	}
	if b.translator == nil {
		b.translator = titletranslate.New(cfg.Family, nil, b.verbose)
	}
	if b.retryBase <= 0 {
		b.retryBase = 60 * time.Second
	}
	if b.retryMax < b.retryBase {
		b.retryMax = 3600 * time.Second
	}
	for _, code := range opts.NeverLink {
		b.neverLink[strings.ToLower(strings.TrimSpace(code))] = true
	}
	return b
}

// Add starts work on an origin page.
func (b *Bot) Add(page wiki.Page) *Subject {
	s := newSubject(b, page)
	b.subjects = append(b.subjects, s)
	b.Stats.Subjects++
	return s
}

// Subjects returns the subjects in work, oldest first.
func (b *Bot) Subjects() []*Subject {
	return append([]*Subject(nil), b.subjects...)
}

// Counter returns the per-site count of pages waiting to be fetched.
func (b *Bot) Counter() *Counter {
	return b.counter
}

// SetPageGenerator sets the source of further origin pages. Pages on the
// skip list, with date titles when SkipAuto is set, or without
// parentheses when ParenthesesOnly is set are passed over.
func (b *Bot) SetPageGenerator(gen pagegen.Generator) {
	b.gen = pagegen.Filter(gen, b.wanted)
}

func (b *Bot) wanted(page wiki.Page) bool {
	switch {
	case b.skip[page.Key()]:
		b.verbose.Printf("Skipping: %v is in the skip list", page)
	case b.opts.SkipAuto && b.translator.IsAutoTranslatable(page):
		b.verbose.Printf("Skipping: %v is an automatically translated date", page)
	case b.opts.ParenthesesOnly && !strings.Contains(page.Title, "("):
	default:
		return true
	}
	b.Stats.Skipped++
	return false
}

// FirstSubject returns the oldest subject in work, or nil.
func (b *Bot) FirstSubject() *Subject {
	if len(b.subjects) == 0 {
		return nil
	}
	return b.subjects[0]
}

// GenerateMore takes up to n more origin pages from the generator.
func (b *Bot) GenerateMore(ctx context.Context, n int) error {
	if b.gen == nil {
		return nil
	}
	if fs := b.FirstSubject(); fs != nil {
		b.verbose.Printf("NOTE: The first unfinished subject is %v", fs.origin)
	}
	b.verbose.Printf("NOTE: Number of pages queued is %d, trying to add %d more.", len(b.subjects), n)
	for i := 0; i < n; i++ {
		page, err := b.nextPage(ctx)
		if errors.Is(err, io.EOF) {
			b.gen = nil
			return nil
		}
		if err != nil {
			return err
		}
		b.Add(page)
	}
	return nil
}

func (b *Bot) nextPage(ctx context.Context) (wiki.Page, error) {
	delay := b.retryBase
	for {
		page, err := b.gen.Next(ctx)
		switch {
		case err == nil || errors.Is(err, io.EOF) || ctx.Err() != nil:
			return page, err
		case delay > b.retryMax:
			b.warn.Printf("ERROR: could not retrieve more pages: %v", err)
			return page, io.EOF
		}
		b.warn.Printf("ERROR: could not retrieve more pages. Will try again in %v", delay)
		if err := sleep(ctx, delay); err != nil {
			return page, err
		}
		delay *= 2
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// maxOpenSite returns the site the first subject still needs that has the
// most outstanding pages over all subjects. Serving the first subject
// keeps the number of subjects in work bounded.
func (b *Bot) maxOpenSite() *family.Site {
	fs := b.FirstSubject()
	if fs == nil {
		return nil
	}
	candidates := fs.OpenSites()
	if len(candidates) == 0 {
		// The first subject is waiting to be finished.
		candidates = b.counter.Sites()
	}
	var best *family.Site
	max := 0
	for _, site := range candidates {
		if site == b.home && b.counter.Count(site) > 0 {
			return site
		}
		if count := b.counter.Count(site); count > max {
			best, max = site, count
		}
	}
	return best
}

// SelectQuerySite chooses the site of the next fetch. The home site is
// preferred while it has a few pages waiting, since fetching origin pages
// is what refills the pool; otherwise the site with the most waiting pages
// wins. nil means there is nothing to fetch.
func (b *Bot) SelectQuerySite(ctx context.Context) (*family.Site, error) {
	mycount := b.counter.Count(b.home)
	if len(b.subjects)-mycount < b.opts.MinArraySize {
		if b.gen != nil && mycount < b.opts.MaxQuerySize {
			if err := b.GenerateMore(ctx, b.opts.MaxQuerySize-mycount); err != nil {
				return nil, err
			}
		}
		if b.counter.Count(b.home) > 4 {
			return b.home, nil
		}
	}
	return b.maxOpenSite(), nil
}

// OneQuery fetches one batch of pages from one site for as many subjects
// as fit, and hands the results to the subjects. It reports false when
// there was nothing to fetch.
func (b *Bot) OneQuery(ctx context.Context) (bool, error) {
	site, err := b.SelectQuerySite(ctx)
	if err != nil {
		return false, err
	}
	if site == nil {
		b.verbose.Print("NOTE: Nothing left to do")
		return false, nil
	}

	var group []*Subject
	var pages []wiki.Page
	for _, s := range b.subjects {
		promised := s.WillWorkOn(site)
		if len(promised) == 0 {
			continue
		}
		group = append(group, s)
		pages = append(pages, promised...)
		if len(pages) >= b.opts.MaxQuerySize {
			break
		}
	}
	if len(pages) == 0 {
		b.verbose.Print("NOTE: Nothing left to do 2")
		return false, nil
	}

	seen := make(map[string]bool, len(pages))
	titles := make([]string, 0, len(pages))
	for _, p := range pages {
		if !seen[p.Title] {
			seen[p.Title] = true
			titles = append(titles, p.Title)
		}
	}
	b.verbose.Printf("Getting %d pages from %v...", len(titles), site)
	fetched, err := b.client.FetchBatch(ctx, site, titles)
	if err != nil {
		return false, err
	}
	b.Stats.Queries++
	b.Stats.Fetched += int32(len(titles))
	b.metrics.fetchedBatch(site, len(titles))

	contents := make(map[string]*wiki.Content, len(pages))
	for _, p := range pages {
		if c, ok := fetched[p.Title]; ok {
			contents[p.Key()] = c
		}
	}
	for _, s := range group {
		s.WorkDone(contents)
	}
	return true, nil
}

// QueryStep runs one query and finishes the subjects that are done.
func (b *Bot) QueryStep(ctx context.Context) error {
	if _, err := b.OneQuery(ctx); err != nil {
		return err
	}
	subjects := b.subjects
	var kept []*Subject
	for i, s := range subjects {
		if !s.IsDone() {
			kept = append(kept, s)
			continue
		}
		if err := s.Finish(ctx); err != nil {
			// Keep it, so it is part of the dump.
			b.subjects = append(append(kept, s), subjects[i+1:]...)
			return err
		}
	}
	b.subjects = kept
	b.metrics.progress(len(b.subjects), b.counter.Total())
	return nil
}

// IsDone reports whether all subjects are finished and the generator is
// exhausted.
func (b *Bot) IsDone() bool {
	return len(b.subjects) == 0 && b.gen == nil
}

// Run works until all pages are done or ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	for !b.IsDone() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := b.QueryStep(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bot) finished(outcome string) {
	b.metrics.finished(outcome)
}

func (b *Bot) aborted() {
	b.Stats.Aborted++
	b.metrics.finished("aborted")
}

// DumpPath returns where the origin pages in work on site are dumped.
func DumpPath(dir string, site *family.Site) string {
	return filepath.Join(dir, "interwiki-dumps", fmt.Sprintf("interwikidump-%s-%s.txt", site.Family, site.Code))
}

// Dump writes the origin pages still in work to the dump file in dir, one
// "[[Title]]" per line, so that a later run can restore them.
func (b *Bot) Dump(dir string) (string, error) {
	path := DumpPath(dir, b.home)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, s := range b.subjects {
		sb.WriteString("[[" + s.origin.FullTitle() + "]]\n")
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return "", err
	}
	b.warn.Printf("Dump %s (%s) saved", b.home.Code, b.home.Family)
	return path, nil
}

// LastDumped returns the title of the last page in a dump file, where a
// continued run resumes its generator.
func LastDumped(site *family.Site, path string) (string, error) {
	gen, err := pagegen.FromFile(site, path)
	if err != nil {
		return "", err
	}
	last := ""
	for {
		p, err := gen.Next(context.Background())
		if err != nil {
			break
		}
		last = p.Title
	}
	if last == "" {
		return "", fmt.Errorf("%s lists no pages", path)
	}
	return last, nil
}
