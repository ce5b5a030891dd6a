// Package interwiki finds the pages that cover the same topic on the other
// language sites of a wiki family and reconciles the interwiki links between
// them.
package interwiki

import (
	"io"
	"log"

	"github.com/garyhouston/interwiki/wiki"
)

// Options control a run. They are built once at startup and are never
// modified afterwards; Bot and every Subject share the same pointer.
type Options struct {
	Autonomous bool // Never ask; take the conservative branch and log problems.
	Force      bool // Remove links without asking.
	Confirm    bool // Ask before every write.
	Select     bool // Confirm every found link, not only conflicting ones.

	Hints            []string // Applied to every origin page, e.g. "de:Hund", "all".
	Same             bool     // Look for the same title on all sites.
	AskHints         bool     // Ask for hints for every origin page.
	Untranslated     bool     // Ask for hints for pages without any interwiki link.
	UntranslatedOnly bool     // Only work on pages without any interwiki link.
	Auto             bool     // Translate date and year titles automatically.
	HintNoBracket    bool     // Drop "(...)" qualifiers from titles derived from hints.

	FollowRedirect bool        // Follow redirects found through interwiki links.
	NeverLink      []string    // Site codes never linked to.
	Ignore         []wiki.Page // Pages never linked to.

	LocalOnly      bool // Only update the origin page.
	LimitTwo       bool // Only update the origin page and one foreign page...
	StrictLimitTwo bool // ...and no other page at all.
	NeedLimit      int  // With LimitTwo but not strict: update others when at least this many links change.

	Skip            []wiki.Page // Origin pages to leave alone.
	SkipAuto        bool        // Skip origin pages with date or year titles.
	ParenthesesOnly bool        // Only work on origin pages with "(" in the title.

	MinArraySize int // Keep at least this many subjects in work.
	MaxQuerySize int // Maximum number of pages per fetch.

	User string // Account name, for {{bots}} exclusions.
}

// DefaultOptions returns the options of a plain interactive run.
func DefaultOptions() Options {
	return Options{
		Auto:           true,
		FollowRedirect: true,
		MinArraySize:   100,
		MaxQuerySize:   60,
	}
}

// Loggers used by the bot. Warn receives problems and progress, Verbose
// receives details. Either may be nil.
type Loggers struct {
	Warn    *log.Logger
	Verbose *log.Logger
}

func orDiscard(l *log.Logger) *log.Logger {
	if l == nil {
		return log.New(io.Discard, "", 0)
	}
	return l
}

func keySet(pages []wiki.Page) map[string]bool {
	set := make(map[string]bool, len(pages))
	for _, p := range pages {
		set[p.Key()] = true
	}
	return set
}
