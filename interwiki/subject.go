package interwiki

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/garyhouston/interwiki/family"
	"github.com/garyhouston/interwiki/wiki"
)

// State of a Subject. A subject moves forward through the states once.
type State int

const (
	Seeding     State = iota // The origin page has not been fetched yet.
	Discovering              // Pages are being fetched and links followed.
	Assembling               // Nothing left to fetch; Finish has not run.
	Finished
)

func (s State) String() string {
	switch s {
	case Seeding:
		return "seeding"
	case Discovering:
		return "discovering"
	case Assembling:
		return "assembling"
	}
	return "finished"
}

// What a fetch told us about a page.
type pageStatus int

const (
	statusQueued pageStatus = iota
	statusOK
	statusMissing
	statusRedirect
	statusEmpty
	statusRejected
	statusUnretrievable
)

// Subject resolves the interwiki links of one origin page. Pages are
// identified by Key; a page is in at most one of todo, pending and done.
type Subject struct {
	bot    *Bot
	origin wiki.Page
	state  State

	todo    []wiki.Page
	pending []wiki.Page
	done    []wiki.Page
	// foundIn maps every page ever seen to the pages linking to it. A zero
	// page stands for a hint. Entries are only ever appended to.
	foundIn  map[string][]wiki.Page
	status   map[string]pageStatus
	contents map[string]*wiki.Content

	problemFound bool
	untranslated bool
	hintsAsked   bool
	forcedStop   bool
}

func newSubject(bot *Bot, origin wiki.Page) *Subject {
	s := &Subject{
		bot:      bot,
		origin:   origin,
		foundIn:  map[string][]wiki.Page{origin.Key(): nil},
		status:   make(map[string]pageStatus),
		contents: make(map[string]*wiki.Content),
	}
	s.todo = []wiki.Page{origin}
	bot.counter.Plus(origin.Site)
	return s
}

// Origin returns the page the subject started from.
func (s *Subject) Origin() wiki.Page {
	return s.origin
}

// State returns the lifecycle state.
func (s *Subject) State() State {
	return s.state
}

// IsDone reports whether nothing is left to fetch.
func (s *Subject) IsDone() bool {
	return len(s.todo) == 0 && len(s.pending) == 0
}

// OpenSites returns the sites with pages still to fetch, in the order the
// pages were found.
func (s *Subject) OpenSites() []*family.Site {
	var sites []*family.Site
	seen := make(map[*family.Site]bool)
	for _, p := range s.todo {
		if !seen[p.Site] {
			seen[p.Site] = true
			sites = append(sites, p.Site)
		}
	}
	return sites
}

// FoundIn returns the pages that link to page; a zero page stands for a
// hint. ok is false if page was never found.
func (s *Subject) FoundIn(page wiki.Page) (linking []wiki.Page, ok bool) {
	linking, ok = s.foundIn[page.Key()]
	return append([]wiki.Page(nil), linking...), ok
}

// WillWorkOn moves the todo pages of site to pending and returns them. The
// scheduler must call WorkDone before asking for another site.
func (s *Subject) WillWorkOn(site *family.Site) []wiki.Page {
	if len(s.pending) > 0 {
		panic(fmt.Sprintf("interwiki: %v: WillWorkOn(%v) while %d pages are pending", s.origin, site, len(s.pending)))
	}
	var rest []wiki.Page
	for _, p := range s.todo {
		if p.Site == site {
			s.pending = append(s.pending, p)
		} else {
			rest = append(rest, p)
		}
	}
	s.todo = rest
	return append([]wiki.Page(nil), s.pending...)
}

// AddIfNew queues page unless it was seen before, in which case linking is
// only recorded as another place where it was found. A zero linking page
// means page came from a hint. It reports whether page was new.
func (s *Subject) AddIfNew(page, linking wiki.Page) bool {
	key := page.Key()
	if found, ok := s.foundIn[key]; ok {
		s.foundIn[key] = append(found, linking)
		return false
	}
	s.foundIn[key] = []wiki.Page{linking}
	s.todo = append(s.todo, page)
	s.bot.counter.Plus(page.Site)
	return true
}

// WorkDone classifies the pending pages from their fetched contents,
// keyed by page Key, and follows their links. Pages missing from contents
// could not be retrieved.
func (s *Subject) WorkDone(contents map[string]*wiki.Content) {
	pending := s.pending
	s.pending = nil
	for _, page := range pending {
		s.bot.counter.Minus(page.Site)
		s.done = append(s.done, page)
		key := page.Key()
		if s.forcedStop {
			s.status[key] = statusRejected
			continue
		}
		c, ok := contents[key]
		if !ok {
			s.status[key] = statusUnretrievable
			s.bot.warn.Printf("NOTE: %v could not be retrieved", page)
			if page.Equal(s.origin) {
				s.abandon()
			}
			continue
		}
		cc := *c
		s.contents[key] = &cc
		s.classify(page, &cc)
	}
	if s.state == Seeding && s.status[s.origin.Key()] != statusQueued {
		s.state = Discovering
	}
	if s.IsDone() && s.state == Discovering {
		s.state = Assembling
	}
}

func (s *Subject) classify(page wiki.Page, c *wiki.Content) {
	key := page.Key()
	isOrigin := page.Equal(s.origin)
	switch {
	case !c.Exists:
		s.status[key] = statusMissing
		s.bot.verbose.Printf("NOTE: %v does not exist", page)
		if isOrigin {
			// Nothing to link from.
			s.abandon()
		}
		return

	case c.IsRedirect():
		s.status[key] = statusRedirect
		target := c.RedirectTarget()
		s.bot.verbose.Printf("NOTE: %v is redirect to %v", page, target)
		switch {
		case isOrigin:
			s.bot.warn.Printf("NOTE: %v is a redirect; not working on it", page)
			s.abandon()
		case target.Equal(s.origin):
			s.bot.verbose.Printf("NOTE: %v leads back to the origin page", page)
			s.abandon()
		case !s.bot.opts.FollowRedirect:
			s.bot.verbose.Print("NOTE: not following redirects.")
		case s.isIgnored(target) || s.namespaceMismatch(page, target):
		default:
			if s.AddIfNew(target, page) {
				s.bot.verbose.Printf("Adding %v (redirect target of %v)", target, page)
			}
		}
		return

	case page.Section != "" && !wiki.HasSection(c.Text, page.Section):
		s.status[key] = statusMissing
		s.bot.verbose.Printf("NOTE: section %v does not exist", page)
		if isOrigin {
			s.abandon()
		}
		return

	case c.IsEmpty(s.bot.fam) && !page.IsCategory():
		s.status[key] = statusEmpty
		s.bot.verbose.Printf("NOTE: %v is empty; ignoring it and its interwiki links", page)
		if isOrigin {
			s.seed(c)
		}
		return
	}

	s.status[key] = statusOK
	links := c.Interwiki(s.bot.fam)
	switch {
	case isOrigin:
		s.untranslated = len(links) == 0
		if s.bot.opts.UntranslatedOnly && !s.untranslated {
			s.bot.verbose.Printf("NOTE: %v already has interwiki links; skipping it", page)
			s.abandon()
			return
		}
		s.seed(c)
		if s.forcedStop {
			return
		}
	case s.bot.opts.Autonomous && !s.duplicateOf(page).IsZero():
		dup := s.duplicateOf(page)
		s.bot.warn.Printf("Stopping work on %v because duplicate pages %v and %v are found", s.origin, dup, page)
		s.problem(fmt.Sprintf("Found more than one link for %v", page.Site))
		s.makeForcedStop()
		return
	default:
		if skip, alternative := s.disambigMismatch(page, c); skip {
			s.status[key] = statusRejected
			s.bot.verbose.Printf("NOTE: ignoring %v and its interwiki links", page)
			if !alternative.IsZero() {
				s.AddIfNew(alternative, wiki.Page{})
			}
			return
		}
	}

	for _, linked := range links {
		if s.forcedStop {
			return
		}
		if s.isIgnored(linked) || s.namespaceMismatch(page, linked) {
			continue
		}
		if s.AddIfNew(linked, page) {
			s.bot.verbose.Printf("Adding %v (found in %v)", linked, page)
		}
	}
}

// seed adds the hinted and translated pages once the origin is known,
// asking the operator for hints where wanted.
func (s *Subject) seed(origin *wiki.Content) {
	opts := s.bot.opts
	hints := append([]string(nil), opts.Hints...)
	if opts.Same {
		hints = append(hints, "all")
	}
	s.addTranslations(hints, opts.Auto)

	wantHints := opts.AskHints || (s.untranslated && (opts.Untranslated || opts.UntranslatedOnly))
	if !wantHints || s.hintsAsked || opts.Autonomous {
		return
	}
	s.hintsAsked = true
	answer, err := s.ask(Question{Kind: AskHints, Origin: s.origin, Page: s.origin, Text: origin.Text})
	if err != nil {
		s.makeForcedStop()
		return
	}
	s.addTranslations(answer.Hints, false)
}

func (s *Subject) addTranslations(hints []string, auto bool) {
	if len(hints) == 0 && !auto {
		return
	}
	for _, p := range s.bot.translator.Translate(s.origin, hints, auto, s.bot.opts.HintNoBracket) {
		if s.isIgnored(p) {
			continue
		}
		if s.AddIfNew(p, wiki.Page{}) {
			s.bot.verbose.Printf("Adding %v (hint)", p)
		}
	}
}

// abandon drops all remaining todo pages.
func (s *Subject) abandon() {
	for _, p := range s.todo {
		s.bot.counter.Minus(p.Site)
	}
	s.todo = nil
}

// makeForcedStop abandons the subject; Finish won't write anything.
func (s *Subject) makeForcedStop() {
	s.abandon()
	s.forcedStop = true
}

// problem reports a problem with the resolution of the subject. In
// autonomous runs it is also appended to the problem log.
func (s *Subject) problem(msg string) {
	s.problemFound = true
	s.report(msg)
}

func (s *Subject) report(msg string) {
	s.bot.warn.Printf("ERROR: %s", msg)
	s.bot.Stats.Problems++
	if s.bot.opts.Autonomous {
		if err := s.bot.problems.Record(s.origin, msg); err != nil {
			s.bot.warn.Printf("Could not log problem: %v", err)
		}
	}
}

func (s *Subject) whereReport(page wiki.Page) {
	for _, p := range s.foundIn[page.Key()] {
		if p.IsZero() {
			s.bot.warn.Print("    Given as a hint.")
		} else {
			s.bot.warn.Printf("    %v", p)
		}
	}
}

// ask passes a question to the resolver. Without a resolver nothing is
// accepted.
func (s *Subject) ask(q Question) (Answer, error) {
	if s.bot.resolver == nil {
		return Answer{}, nil
	}
	return s.bot.resolver.Resolve(q)
}

func (s *Subject) isIgnored(page wiki.Page) bool {
	if s.bot.neverLink[page.Site.Code] {
		s.bot.verbose.Printf("Skipping link %v to an ignored language", page)
		return true
	}
	if s.bot.ignore[page.Key()] {
		s.bot.verbose.Printf("Skipping link %v to an ignored page", page)
		return true
	}
	return false
}

// foundPage returns a fetched, existing page on site, other than except,
// for which match is true.
func (s *Subject) foundPage(site *family.Site, except wiki.Page, match func(p wiki.Page, c *wiki.Content) bool) wiki.Page {
	for _, p := range s.done {
		if p.Site != site || p.Equal(except) || s.status[p.Key()] != statusOK {
			continue
		}
		if match(p, s.contents[p.Key()]) {
			return p
		}
	}
	return wiki.Page{}
}

// duplicateOf returns another existing page already found on the site of
// page.
func (s *Subject) duplicateOf(page wiki.Page) wiki.Page {
	return s.foundPage(page.Site, page, func(wiki.Page, *wiki.Content) bool { return true })
}

// namespaceMismatch reports whether the link from linking to linked must
// not be followed because linked is in another namespace than the origin.
func (s *Subject) namespaceMismatch(linking, linked wiki.Page) bool {
	if s.forcedStop {
		return true
	}
	if _, known := s.foundIn[linked.Key()]; known {
		return false
	}
	want, got := s.origin.Namespace(), linked.Namespace()
	if want == got || s.bot.fam.CrossNamespaceAllowed(want, got) {
		return false
	}
	if s.bot.opts.Autonomous {
		s.bot.verbose.Printf("NOTE: Ignoring link from page %v in namespace %d to page %v in namespace %d.", linking, linking.Namespace(), linked, got)
		// Remember it, so the note is given once.
		s.foundIn[linked.Key()] = []wiki.Page{linking}
		return true
	}
	preferred := s.foundPage(linked.Site, linked, func(p wiki.Page, _ *wiki.Content) bool { return p.Namespace() == want })
	if !preferred.IsZero() {
		s.bot.verbose.Printf("NOTE: Ignoring link from page %v in namespace %d to page %v in namespace %d because page %v in the correct namespace has already been found.",
			linking, linking.Namespace(), linked, got, preferred)
		return true
	}
	answer, err := s.ask(Question{Kind: NamespaceMismatch, Origin: s.origin, Page: linked, Linking: linking, Site: linked.Site})
	if err == nil && answer.Accept {
		return false
	}
	// Remember the answer, so we don't ask again.
	s.foundIn[linked.Key()] = []wiki.Page{linking}
	switch {
	case err != nil:
		s.makeForcedStop()
	case !answer.Choice.IsZero():
		s.AddIfNew(answer.Choice, wiki.Page{})
	default:
		s.bot.verbose.Printf("NOTE: ignoring %v and its interwiki links", linked)
	}
	return true
}

// disambigMismatch checks whether page has another disambiguation status
// than the origin. It reports whether page must be skipped, and an
// alternative page to use instead, if one was given.
func (s *Subject) disambigMismatch(page wiki.Page, c *wiki.Content) (skip bool, alternative wiki.Page) {
	if s.forcedStop {
		return true, wiki.Page{}
	}
	origin := s.contents[s.origin.Key()]
	if origin == nil {
		return false, wiki.Page{}
	}
	originDisambig := origin.IsDisambiguation()
	if originDisambig == c.IsDisambiguation() {
		return false, wiki.Page{}
	}
	kind := func(disambig bool) string {
		if disambig {
			return "disambiguation"
		}
		return "non-disambiguation"
	}
	found := s.foundPage(page.Site, page, func(_ wiki.Page, fc *wiki.Content) bool {
		return fc.IsDisambiguation() == originDisambig
	})
	if !found.IsZero() {
		s.bot.verbose.Printf("NOTE: Ignoring %s page %v for %v because %s page %v has already been found.",
			kind(!originDisambig), page, s.origin, kind(originDisambig), found)
		return true, wiki.Page{}
	}
	if s.bot.opts.Autonomous {
		s.bot.verbose.Printf("NOTE: Ignoring link from %s page %v to %s page %v.", kind(originDisambig), s.origin, kind(!originDisambig), page)
		return true, wiki.Page{}
	}
	answer, err := s.ask(Question{Kind: DisambiguationMismatch, Origin: s.origin, Page: page, Site: page.Site, OriginDisambiguation: originDisambig})
	switch {
	case err != nil:
		s.makeForcedStop()
		return true, wiki.Page{}
	case answer.Accept:
		return false, wiki.Page{}
	}
	return true, answer.Choice
}

// Assemble picks at most one page per site from the pages found, asking
// the resolver about conflicts and, with Select, about every page. The
// result is keyed by site code and never holds the origin's site. It is
// nil if the subject must not be finished, with ErrGiveUp if the operator
// gave up.
func (s *Subject) Assemble() (map[string]wiki.Page, error) {
	errorCount := 0
	if s.problemFound {
		errorCount++
	}
	candidates := make(map[string][]wiki.Page)
	for _, p := range s.done {
		if s.status[p.Key()] != statusOK {
			continue
		}
		if p.Site == s.origin.Site {
			if !p.Equal(s.origin) {
				s.problem(fmt.Sprintf("Found link to %v", p))
				s.whereReport(p)
				errorCount++
			}
			continue
		}
		candidates[p.Site.Code] = append(candidates[p.Site.Code], p)
	}
	codes := make([]string, 0, len(candidates))
	for code := range candidates {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		if len(candidates[code]) > 1 {
			errorCount++
			s.problem(fmt.Sprintf("Found more than one link for %v", candidates[code][0].Site))
		}
	}

	result := make(map[string]wiki.Page, len(codes))
	if errorCount == 0 && !s.bot.opts.Select {
		for _, code := range codes {
			result[code] = candidates[code][0]
		}
		return result, nil
	}
	if s.bot.opts.Autonomous {
		return nil, nil
	}

	for _, code := range codes {
		pages := candidates[code]
		if len(pages) < 2 {
			continue
		}
		q := Question{Kind: Conflict, Origin: s.origin, Site: pages[0].Site}
		for _, p := range pages {
			q.Candidates = append(q.Candidates, Candidate{Page: p, FoundIn: s.foundIn[p.Key()]})
		}
		answer, err := s.ask(q)
		if err != nil {
			return nil, err
		}
		for _, p := range pages {
			if p.Equal(answer.Choice) {
				result[code] = p
			}
		}
	}

	acceptAll := false
	for _, code := range codes {
		pages := candidates[code]
		if len(pages) != 1 {
			continue
		}
		if !acceptAll {
			answer, err := s.ask(Question{Kind: ConfirmLink, Origin: s.origin, Page: pages[0], Site: pages[0].Site, FoundIn: s.foundIn[pages[0].Key()]})
			if err != nil {
				return nil, err
			}
			acceptAll = answer.All
			if !answer.Accept && !answer.All {
				continue
			}
		}
		result[code] = pages[0]
	}
	return result, nil
}

// Finish writes the assembled links to the pages where we can edit. It
// must be called exactly once, after the subject is done. Only
// cancellation of ctx is returned as an error; everything else is
// reported and ends the subject.
func (s *Subject) Finish(ctx context.Context) error {
	if !s.IsDone() {
		panic(fmt.Sprintf("interwiki: Finish called for %v before it is done", s.origin))
	}
	if s.state == Finished {
		panic(fmt.Sprintf("interwiki: Finish called twice for %v", s.origin))
	}
	s.state = Finished

	if st := s.status[s.origin.Key()]; st != statusOK && st != statusEmpty {
		s.bot.finished("skipped")
		return nil
	}
	if s.bot.opts.UntranslatedOnly && !s.untranslated {
		s.bot.finished("skipped")
		return nil
	}
	if s.forcedStop {
		s.bot.warn.Printf("======Aborted processing %v======", s.origin)
		s.bot.aborted()
		return nil
	}
	s.bot.warn.Printf("======Post-processing %v======", s.origin)
	links, err := s.Assemble()
	if links == nil {
		if err != nil && !errors.Is(err, ErrGiveUp) {
			s.bot.warn.Print(err)
		}
		s.bot.warn.Printf("======Aborted processing %v======", s.origin)
		s.bot.aborted()
		return nil
	}
	links[s.origin.Site.Code] = s.origin
	s.addMirrors(links)

	var updated []string
	write := func(page wiki.Page) (attempted bool, err error) {
		if s.bot.opts.LocalOnly && !page.Equal(s.origin) {
			return false, nil
		}
		if !s.bot.client.CanWrite(ctx, page.Site) {
			return false, nil
		}
		changed, err := s.replaceLinks(ctx, page, links)
		if changed {
			updated = append(updated, page.Site.Code)
		}
		return true, err
	}
	stop := func(err error) (bool, error) {
		if err == nil {
			return false, nil
		}
		if ctx.Err() != nil {
			return true, ctx.Err()
		}
		if errors.Is(err, ErrGiveUp) {
			return true, nil
		}
		s.bot.Stats.SaveErrors++
		s.bot.warn.Printf("NOTE: not updated: %v", err)
		return false, nil
	}

	if s.bot.opts.LimitTwo {
		home := s.origin.Site
		homeDone, foreignDone := false, false
		for _, code := range s.bot.fam.Codes() {
			page, ok := links[code]
			if !ok {
				continue
			}
			if (!homeDone && code == home.Code) || (!foreignDone && code != home.Code) {
				if code == home.Code {
					homeDone = true
				}
				attempted, err := write(page)
				if code != home.Code && attempted && err == nil {
					foreignDone = true
				}
				if halt, err := stop(err); halt {
					s.bot.finished("gave up")
					return err
				}
			} else if !s.bot.opts.StrictLimitTwo && code != home.Code && s.needsUpdate(page, links) {
				_, err := write(page)
				if halt, err := stop(err); halt {
					s.bot.finished("gave up")
					return err
				}
			}
		}
	} else {
		codes := make([]string, 0, len(links))
		for code := range links {
			if code != s.origin.Site.Code {
				codes = append(codes, code)
			}
		}
		sort.Strings(codes)
		codes = append([]string{s.origin.Site.Code}, codes...)
		for _, code := range codes {
			_, err := write(links[code])
			if halt, err := stop(err); halt {
				s.bot.finished("gave up")
				return err
			}
		}
	}
	s.reportBacklinks(links, updated)
	s.bot.finished("done")
	return nil
}

// needsUpdate decides, for the non-strict form of LimitTwo, whether a
// foreign page other than the first one is worth an edit.
func (s *Subject) needsUpdate(page wiki.Page, links map[string]wiki.Page) bool {
	c := s.contents[page.Key()]
	if c == nil || !c.Exists {
		s.bot.warn.Printf("BUG>>> %v no longer exists?", page)
		return false
	}
	old := linkMap(c.Interwiki(s.bot.fam))
	d := CompareLanguages(old, links, page.Site)
	opts := s.bot.opts
	return (len(d.Removing) > 0 && !opts.Autonomous) ||
		(len(d.Modifying) > 0 && s.problemFound) ||
		len(old) == 0 ||
		(opts.NeedLimit > 0 && len(d.Adding)+len(d.Modifying) >= opts.NeedLimit)
}

// addMirrors copies links to the codes the family mirrors them to.
func (s *Subject) addMirrors(links map[string]wiki.Page) {
	codes := make([]string, 0, len(links))
	for code := range links {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		for _, mirror := range s.bot.fam.Mirrors(code) {
			if _, ok := links[mirror]; ok {
				continue
			}
			site, err := s.bot.fam.Site(mirror)
			if err != nil {
				continue
			}
			links[mirror] = wiki.NewPage(site, links[code].FullTitle())
		}
	}
}

func linkMap(pages []wiki.Page) map[string]wiki.Page {
	m := make(map[string]wiki.Page, len(pages))
	for _, p := range pages {
		m[p.Site.Code] = p
	}
	return m
}

func saveError(page wiki.Page, reason string) error {
	return &wiki.SaveError{Kind: wiki.PageNotSaved, Page: page, Reason: reason}
}

// replaceLinks rewrites the interwiki links of page to newPages, which
// must contain page itself. It reports whether the page was saved.
func (s *Subject) replaceLinks(ctx context.Context, page wiki.Page, newPages map[string]wiki.Page) (bool, error) {
	opts := s.bot.opts
	if page.Section != "" {
		s.bot.verbose.Printf("Not editing %v: not doing interwiki on page sections", page)
		return false, saveError(page, "link has a #section")
	}
	c := s.contents[page.Key()]
	if c == nil || !c.Exists {
		s.bot.verbose.Printf("Not editing %v: page does not exist", page)
		return false, saveError(page, "page doesn't exist")
	}

	want := make(map[string]wiki.Page, len(newPages))
	for code, p := range newPages {
		want[code] = p
	}
	existing := c.Interwiki(s.bot.fam)
	existingKeys := keySet(existing)
	for _, ignored := range wiki.CommentedInterwiki(s.bot.fam, c.Text) {
		code := ignored.Site.Code
		if p, ok := want[code]; !ok || !p.Equal(ignored) || code == page.Site.Code {
			continue
		}
		if !existingKeys[ignored.Key()] {
			s.bot.verbose.Printf("Ignoring link to %v for %v", ignored, page)
			delete(want, code)
		} else {
			s.bot.verbose.Printf("NOTE: Not removing interwiki from %v to %v (exists both commented and non-commented)", page, ignored)
		}
	}

	if self, ok := want[page.Site.Code]; !ok || !self.Equal(page) {
		s.bot.warn.Printf("BUG>>> %v is not in the list of want links! Found %v.", page, self)
		return false, saveError(page, "BUG: sanity check failed")
	}
	delete(want, page.Site.Code)

	old := linkMap(existing)
	d := CompareLanguages(old, want, page.Site)
	if opts.Autonomous && !opts.Force && len(d.Removing) > 0 {
		for _, code := range d.Removing {
			want[code] = old[code]
			s.bot.warn.Printf("WARNING: %v is either deleted or has a mismatch. It won't be deleted in autonomous mode", old[code])
		}
		d = CompareLanguages(old, want, page.Site)
	}
	_, selfLink := old[page.Site.Code]
	if selfLink {
		// A link to the page's own site is dropped without asking.
		removing := append(append([]string(nil), d.Removing...), page.Site.Code)
		sort.Strings(removing)
		d.Changes, d.Summary = summarize(page.Site, old, want, d.Adding, removing, d.Modifying)
	}
	if d.Empty() && !selfLink {
		s.bot.verbose.Printf("No changes needed on page %v", page)
		return false, nil
	}

	s.bot.warn.Printf("Updating links on page %v.", page)
	s.bot.warn.Printf("Changes to be made: %s", d.Changes)
	newText := wiki.ReplaceInterwiki(s.bot.fam, page.Site, c.Text, want)
	if !wiki.BotMayEdit(c.Text, opts.User) {
		s.bot.warn.Printf("SKIPPING: %v does not allow bot edits.", page)
		return false, nil
	}
	if newText == c.Text {
		return false, nil
	}

	ask := false
	if len(d.Removing) > 0 {
		s.report(fmt.Sprintf("Found incorrect link to %s in %v", strings.Join(d.Removing, ","), page))
		ask = true
	}
	if opts.Force {
		ask = false
	}
	if opts.Confirm {
		ask = true
	}
	accept := true
	if ask {
		if opts.Autonomous {
			// Nobody to ask: no permission.
			accept = false
		} else {
			answer, err := s.ask(Question{Kind: ConfirmWrite, Origin: s.origin, Page: page, Site: page.Site, Diff: d})
			if err != nil {
				return false, err
			}
			accept = answer.Accept
		}
	}
	if !accept {
		if len(d.Removing) > 0 {
			return false, saveError(page, fmt.Sprintf("found incorrect link to %s", strings.Join(d.Removing, ",")))
		}
		return false, saveError(page, "not confirmed")
	}

	s.bot.warn.Print("NOTE: Updating live wiki...")
	if err := s.bot.client.Write(ctx, page, newText, c.Timestamp, d.Summary); err != nil {
		s.bot.metrics.saved(page.Site, "error")
		if se, ok := wiki.AsSaveError(err); ok {
			s.bot.warn.Printf("ERROR putting page: %v", se)
		}
		return false, err
	}
	s.bot.metrics.saved(page.Site, "ok")
	s.bot.Stats.Edited++
	c.Text = newText
	return true, nil
}

// reportBacklinks warns about pages we did not update that lack links to
// the other pages of the subject, or link to wrong ones.
func (s *Subject) reportBacklinks(links map[string]wiki.Page, updated []string) {
	skip := make(map[string]bool, len(updated))
	for _, code := range updated {
		skip[code] = true
	}
	expected := make(map[string]wiki.Page, len(links))
	for _, p := range links {
		expected[p.Key()] = p
	}
	codes := make([]string, 0, len(links))
	for code := range links {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		page := links[code]
		if skip[code] || page.Section != "" {
			continue
		}
		c := s.contents[page.Key()]
		if c == nil || !c.Exists {
			s.bot.warn.Printf("WARNING: Page %v does no longer exist?!", page)
			continue
		}
		linked := c.Interwiki(s.bot.fam)
		linkedKeys := keySet(linked)
		bySite := linkMap(linked)
		for _, ec := range codes {
			exp := links[ec]
			if exp.Equal(page) || linkedKeys[exp.Key()] {
				continue
			}
			if other, ok := bySite[ec]; ok {
				s.bot.verbose.Printf("WARNING: %s: %v does not link to %v but to %v", page.Site.Family, page, exp, other)
			} else {
				s.bot.verbose.Printf("WARNING: %s: %v does not link to %v", page.Site.Family, page, exp)
			}
		}
		for _, l := range linked {
			if _, ok := expected[l.Key()]; !ok {
				if _, ok := links[l.Site.Code]; !ok {
					s.bot.verbose.Printf("WARNING: %s: %v links to incorrect %v", page.Site.Family, page, l)
				}
			}
		}
	}
}
