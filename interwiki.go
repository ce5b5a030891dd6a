package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	goflags "github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/garyhouston/interwiki/date"
	"github.com/garyhouston/interwiki/family"
	"github.com/garyhouston/interwiki/interwiki"
	"github.com/garyhouston/interwiki/mwapi"
	"github.com/garyhouston/interwiki/mwlib"
	"github.com/garyhouston/interwiki/pagegen"
	"github.com/garyhouston/interwiki/titletranslate"
	"github.com/garyhouston/interwiki/wiki"
)

type flags struct {
	Operator   string `long:"operator" env:"interwiki_operator" description:"Operator's email address or Wiki user name"`
	Family     string `long:"family" env:"interwiki_family" description:"Wiki family of the origin pages" default:"wikipedia"`
	Lang       string `long:"lang" env:"interwiki_lang" description:"Language code of the origin pages" default:"en"`
	FamilyFile string `long:"familyfile" env:"interwiki_familyfile" description:"YAML file replacing the built-in family tables"`
	Verbose    bool   `short:"v" long:"verbose" description:"Print details of the work"`

	Autonomous bool `short:"a" long:"autonomous" description:"Never ask; skip anything doubtful and log it to the problems file"`
	Force      bool `long:"force" description:"Remove links without asking"`
	Confirm    bool `long:"confirm" description:"Ask before every change"`
	Select     bool `long:"select" description:"Confirm every link found"`

	Hint             []string `long:"hint" description:"Hint for every origin page, e.g. de:Hund, fr, 10 or all (repeatable)"`
	Same             bool     `long:"same" description:"Look for the same title on every site"`
	AskHints         bool     `long:"askhints" description:"Ask for hints for every origin page"`
	Untranslated     bool     `long:"untranslated" description:"Ask for hints for origin pages without interwiki links"`
	UntranslatedOnly bool     `long:"untranslatedonly" description:"Only work on origin pages without interwiki links"`
	NoAuto           bool     `long:"noauto" description:"Don't translate date and year titles"`
	HintNoBracket    bool     `long:"hintnobracket" description:"Drop parenthesised parts of titles taken from hints"`

	NoRedirect bool     `long:"noredirect" description:"Don't follow redirects"`
	NeverLink  string   `long:"neverlink" description:"Comma separated language codes never to link to"`
	Ignore     []string `long:"ignore" description:"Page never to link to, as lang:Title (repeatable)"`

	LocalOnly  bool   `long:"localonly" description:"Only update the origin page"`
	LimitTwo   bool   `long:"limittwo" description:"Only update the origin page and one other page"`
	WhenNeeded string `long:"whenneeded" optional:"yes" optional-value:"0" description:"Like --limittwo, but also update pages that need it, or with at least N changes"`

	Start     string `long:"start" description:"Work through all pages, starting at this title (! for the first)"`
	Namespace int    `long:"namespace" description:"Namespace for --start" default:"0"`
	Number    int    `long:"number" description:"Stop after this many origin pages"`
	File      string `long:"file" description:"File listing origin pages, as [[links]] or one title per line"`
	SkipFile  string `long:"skipfile" description:"File listing origin pages to leave alone"`
	Restore   bool   `long:"restore" description:"Work on the pages dumped by an aborted run"`
	Continue  bool   `long:"continue" description:"Like --restore, then continue through all pages after the last dumped one"`
	Bracket   bool   `long:"bracket" description:"Only work on origin pages with parentheses in the title"`
	SkipAuto  bool   `long:"skipauto" description:"Skip origin pages with date or year titles"`

	Array int `long:"array" description:"Number of origin pages to keep in work" default:"100"`
	Query int `long:"query" description:"Maximum number of pages per fetch" default:"60"`

	RetryBase   time.Duration `long:"retrybase" env:"interwiki_retrybase" description:"First delay after a failed save" default:"60s"`
	RetryMax    time.Duration `long:"retrymax" env:"interwiki_retrymax" description:"Longest delay after failed saves" default:"3600s"`
	Parallel    int           `long:"parallel" env:"interwiki_parallel" description:"Concurrent requests per fetch" default:"4"`
	MetricsFile string        `long:"metricsfile" env:"interwiki_metricsfile" description:"Write Prometheus metrics to this file at the end of the run"`
	MetricsAddr string        `long:"metricsaddr" env:"interwiki_metricsaddr" description:"Serve Prometheus metrics on this address, e.g. :9100"`
}

var warn = log.New(os.Stdout, "", 0)

// Return the logger to be used for displaying (or not displaying) verbose
// messages.
func getVerbose(verbose bool) *log.Logger {
	if verbose {
		return log.New(os.Stdout, "", 0)
	}
	return log.New(io.Discard, "", 0)
}

func parseFlags() ([]string, flags) {
	var flags flags
	parser := goflags.NewParser(&flags, goflags.HelpFlag)
	parser.Usage = "[OPTIONS] [Title...]"
	args, err := parser.Parse()
	if err != nil {
		log.Fatal(err)
	}
	return args, flags
}

// Credentials come from the environment, which may be set in a .env file
// in the working directory.
func credentials(dir string) mwapi.Credentials {
	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		warn.Print(err)
	}
	return mwapi.Credentials{
		Username:       os.Getenv("interwiki_username"),
		Password:       os.Getenv("interwiki_password"),
		ConsumerToken:  os.Getenv("interwiki_oauth_consumer_token"),
		ConsumerSecret: os.Getenv("interwiki_oauth_consumer_secret"),
		AccessToken:    os.Getenv("interwiki_oauth_access_token"),
		AccessSecret:   os.Getenv("interwiki_oauth_access_secret"),
	}
}

func loadFamily(flags flags) (*family.Family, *family.Site, error) {
	var reg *family.Registry
	var err error
	if flags.FamilyFile != "" {
		reg, err = family.LoadFile(flags.FamilyFile)
	} else {
		reg, err = family.Default()
	}
	if err != nil {
		return nil, nil, err
	}
	fam, err := reg.Family(flags.Family)
	if err != nil {
		return nil, nil, err
	}
	home, err := fam.Site(flags.Lang)
	if err != nil {
		return nil, nil, err
	}
	return fam, home, nil
}

// Parse "lang:Title" page references.
func parsePages(fam *family.Family, refs []string) ([]wiki.Page, error) {
	pages := make([]wiki.Page, 0, len(refs))
	for _, ref := range refs {
		code, title, ok := strings.Cut(ref, ":")
		if !ok {
			return nil, fmt.Errorf("%q is not of the form lang:Title", ref)
		}
		site, err := fam.Site(code)
		if err != nil {
			return nil, err
		}
		pages = append(pages, wiki.NewPage(site, title))
	}
	return pages, nil
}

func buildOptions(flags flags, fam *family.Family, home *family.Site, user string) (interwiki.Options, error) {
	opts := interwiki.DefaultOptions()
	opts.Autonomous = flags.Autonomous
	opts.Force = flags.Force
	opts.Confirm = flags.Confirm
	opts.Select = flags.Select
	opts.Hints = flags.Hint
	opts.Same = flags.Same
	opts.AskHints = flags.AskHints
	opts.Untranslated = flags.Untranslated
	opts.UntranslatedOnly = flags.UntranslatedOnly
	opts.Auto = !flags.NoAuto
	opts.HintNoBracket = flags.HintNoBracket
	opts.FollowRedirect = !flags.NoRedirect
	opts.LocalOnly = flags.LocalOnly
	opts.LimitTwo = flags.LimitTwo
	opts.StrictLimitTwo = flags.LimitTwo
	if flags.WhenNeeded != "" {
		n, err := strconv.Atoi(flags.WhenNeeded)
		if err != nil {
			return opts, fmt.Errorf("--whenneeded: %w", err)
		}
		opts.LimitTwo = true
		opts.StrictLimitTwo = false
		opts.NeedLimit = n
	}
	opts.SkipAuto = flags.SkipAuto
	opts.ParenthesesOnly = flags.Bracket
	opts.MinArraySize = flags.Array
	opts.MaxQuerySize = flags.Query
	opts.User = user
	if flags.NeverLink != "" {
		opts.NeverLink = strings.Split(flags.NeverLink, ",")
		for _, code := range opts.NeverLink {
			if !fam.Has(code) {
				return opts, fmt.Errorf("--neverlink: unknown language code %q", code)
			}
		}
	}
	ignore, err := parsePages(fam, flags.Ignore)
	if err != nil {
		return opts, fmt.Errorf("--ignore: %w", err)
	}
	opts.Ignore = ignore
	if flags.SkipFile != "" {
		skip, err := pagegen.FromFile(home, flags.SkipFile)
		if err != nil {
			return opts, err
		}
		for {
			p, err := skip.Next(context.Background())
			if err != nil {
				break
			}
			opts.Skip = append(opts.Skip, p)
		}
	}
	return opts, nil
}

// Select the source of origin pages. The dump is read before the run can
// overwrite it.
func generator(args []string, flags flags, pool *mwapi.Pool, home *family.Site, dir string) (pagegen.Generator, error) {
	var gens []pagegen.Generator
	if len(args) > 0 {
		gens = append(gens, pagegen.Titles(home, args...))
	}
	if flags.File != "" {
		gen, err := pagegen.FromFile(home, flags.File)
		if err != nil {
			return nil, err
		}
		gens = append(gens, gen)
	}
	start := flags.Start
	if flags.Restore || flags.Continue {
		dump := interwiki.DumpPath(dir, home)
		gen, err := pagegen.FromFile(home, dump)
		if err != nil {
			return nil, err
		}
		gens = append(gens, gen)
		if flags.Continue {
			start = resumeAfter(home, dump)
		}
	}
	if start != "" {
		if start == "!" {
			start = ""
		}
		gens = append(gens, pool.AllPages(home, start, flags.Namespace))
	}
	if len(gens) == 0 {
		return nil, nil
	}
	gen := pagegen.Chain(gens...)
	if flags.Number > 0 {
		gen = pagegen.Limit(gen, flags.Number)
	}
	return gen, nil
}

// resumeAfter returns where a continued run starts listing pages: just
// after the last dumped title, which the dump itself covers. apfrom is
// inclusive, and no title character sorts below "!".
func resumeAfter(home *family.Site, dump string) string {
	last, err := interwiki.LastDumped(home, dump)
	if err != nil {
		warn.Printf("%v; starting at the beginning.", err)
		return "!"
	}
	return last + "!"
}

// removeDump deletes the dump a finished run was restored from. With
// --number some dumped pages may not have been reached, so it stays.
func removeDump(flags flags, dir string, home *family.Site) {
	if !(flags.Restore || flags.Continue) || flags.Number > 0 {
		return
	}
	dump := interwiki.DumpPath(dir, home)
	if err := os.Remove(dump); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			warn.Print(err)
		}
		return
	}
	warn.Printf("Dump file %s deleted", dump)
}

// Handler for processing to be done when bot is terminating.
func endProc(pool *mwapi.Pool, bot *interwiki.Bot, metrics *interwiki.Metrics, flags flags) {
	// Cookies can change while the bot is running, so save the latest values for the next run.
	if err := pool.Close(); err != nil {
		warn.Print(err)
	}
	if flags.MetricsFile != "" {
		if err := metrics.WriteToTextfile(flags.MetricsFile); err != nil {
			warn.Print(err)
		}
	}
	if bot != nil && bot.Stats.Subjects > 1 {
		fmt.Println()
		bot.Stats.Print(os.Stdout)
	}
}

func run(ctx context.Context, args []string, flags flags) (code int) {
	verbose := getVerbose(flags.Verbose)
	dir := mwlib.GetWorkingDir()

	fam, home, err := loadFamily(flags)
	if err != nil {
		warn.Print(err)
		return 2
	}
	dates, err := date.Default()
	if err != nil {
		warn.Print(err)
		return 2
	}
	creds := credentials(dir)
	opts, err := buildOptions(flags, fam, home, creds.Username)
	if err != nil {
		warn.Print(err)
		return 2
	}

	pool := mwapi.NewPool(mwapi.Config{
		UserAgent:     "interwiki " + flags.Operator,
		CookieDir:     dir,
		Credentials:   creds,
		SaveRetryBase: flags.RetryBase,
		SaveRetryMax:  flags.RetryMax,
		Parallel:      flags.Parallel,
		Warn:          warn,
		Verbose:       verbose,
	})
	metrics := interwiki.NewMetrics()
	if flags.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
		go func() {
			if err := http.ListenAndServe(flags.MetricsAddr, mux); err != nil {
				warn.Print(err)
			}
		}()
	}

	gen, err := generator(args, flags, pool, home, dir)
	if err != nil {
		warn.Print(err)
		return 2
	}
	if gen == nil {
		warn.Print("No origin pages given: pass titles, --file, --start, --restore or --continue.")
		return 2
	}

	var resolver interwiki.Resolver = interwiki.NewConsole(os.Stdin, os.Stdout)
	var problems *interwiki.ProblemLog
	if opts.Autonomous {
		resolver = interwiki.Conservative{}
		problems = interwiki.NewProblemLog(filepath.Join(dir, interwiki.ProblemsFile))
	}
	bot := interwiki.NewBot(interwiki.Config{
		Options:            &opts,
		Family:             fam,
		Home:               home,
		Client:             pool,
		Translator:         titletranslate.New(fam, dates, verbose),
		Resolver:           resolver,
		Problems:           problems,
		Metrics:            metrics,
		Loggers:            interwiki.Loggers{Warn: warn, Verbose: verbose},
		GeneratorRetryBase: flags.RetryBase,
		GeneratorRetryMax:  flags.RetryMax,
	})
	bot.SetPageGenerator(gen)
	defer endProc(pool, bot, metrics, flags)

	// Keep the pages in work for --restore if the run doesn't finish.
	defer func() {
		if r := recover(); r != nil {
			warn.Printf("Crashed: %v", r)
			code = 1
		}
		if code != 0 {
			if _, err := bot.Dump(dir); err != nil {
				warn.Print(err)
			}
		}
	}()
	if err := bot.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			warn.Print("Interrupted.")
		} else {
			warn.Print(err)
		}
		return 1
	}
	removeDump(flags, dir, home)
	return 0
}

func main() {
	args, flags := parseFlags()
	if flags.Operator == "" {
		warn.Print("Operator email / username not set.")
		return
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, args, flags)
	stop()
	os.Exit(code)
}
