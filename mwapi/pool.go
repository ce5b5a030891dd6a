// Package mwapi implements wiki.Client over the MediaWiki action API, with
// one go-mwclient client per site.
package mwapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	mwclient "cgt.name/pkg/go-mwclient"
	"cgt.name/pkg/go-mwclient/params"

	"github.com/garyhouston/interwiki/family"
	"github.com/garyhouston/interwiki/mwlib"
	"github.com/garyhouston/interwiki/wiki"
)

// Credentials for editing. OAuth tokens take precedence over the password.
type Credentials struct {
	Username       string
	Password       string
	ConsumerToken  string
	ConsumerSecret string
	AccessToken    string
	AccessSecret   string
}

// HasOAuth reports whether all four OAuth tokens are set.
func (c Credentials) HasOAuth() bool {
	return c.ConsumerToken != "" && c.ConsumerSecret != "" && c.AccessToken != "" && c.AccessSecret != ""
}

// HasPassword reports whether a username and password are set.
func (c Credentials) HasPassword() bool {
	return c.Username != "" && c.Password != ""
}

// Config for a Pool.
type Config struct {
	UserAgent   string
	CookieDir   string // Where per-site cookie caches live. No caching if empty.
	Credentials Credentials
	// Backoff policy for failed reads and for failed saves.
	FetchRetryBase, FetchRetryMax time.Duration
	SaveRetryBase, SaveRetryMax   time.Duration
	Parallel                      int // Concurrent requests per FetchBatch.
	// APIURL overrides the endpoint of a site. Defaults to Site.APIURL.
	APIURL  func(site *family.Site) string
	Warn    *log.Logger
	Verbose *log.Logger
}

// Pool holds one logged-in client per site and implements wiki.Client.
type Pool struct {
	cfg          Config
	fetchBackoff *Backoff
	saveBackoff  *Backoff
	warn         *log.Logger
	verbose      *log.Logger

	mu      sync.Mutex
	clients map[string]*siteClient
	closed  bool
}

var _ wiki.Client = (*Pool)(nil)

type siteClient struct {
	site      *family.Site
	client    *mwclient.Client
	loginOnce sync.Once
	canWrite  bool
}

// NewPool returns a Pool. Clients are created on first use.
func NewPool(cfg Config) *Pool {
	if cfg.FetchRetryBase <= 0 {
		cfg.FetchRetryBase = 5 * time.Second
	}
	if cfg.FetchRetryMax < cfg.FetchRetryBase {
		cfg.FetchRetryMax = 120 * time.Second
	}
	if cfg.SaveRetryBase <= 0 {
		cfg.SaveRetryBase = 60 * time.Second
	}
	if cfg.SaveRetryMax < cfg.SaveRetryBase {
		cfg.SaveRetryMax = 3600 * time.Second
	}
	if cfg.Parallel <= 0 {
		cfg.Parallel = 1
	}
	if cfg.APIURL == nil {
		cfg.APIURL = func(site *family.Site) string { return site.APIURL() }
	}
	p := &Pool{
		cfg:          cfg,
		fetchBackoff: NewBackoff(cfg.FetchRetryBase, cfg.FetchRetryMax),
		saveBackoff:  NewBackoff(cfg.SaveRetryBase, cfg.SaveRetryMax),
		warn:         cfg.Warn,
		verbose:      cfg.Verbose,
		clients:      make(map[string]*siteClient),
	}
	if p.warn == nil {
		p.warn = log.New(io.Discard, "", 0)
	}
	if p.verbose == nil {
		p.verbose = log.New(io.Discard, "", 0)
	}
	return p
}

func (p *Pool) cookieFile(site *family.Site) string {
	if p.cfg.CookieDir == "" {
		return ""
	}
	return mwlib.CookieFile(p.cfg.CookieDir, site.Family, site.Code)
}

// siteClient returns the client of site, creating it and loading its cached
// cookies the first time.
func (p *Pool) siteClient(site *family.Site) (*siteClient, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, errors.New("mwapi: pool is closed")
	}
	if sc, ok := p.clients[site.String()]; ok {
		return sc, nil
	}
	client, err := mwclient.New(p.cfg.APIURL(site), p.cfg.UserAgent)
	if err != nil {
		return nil, err
	}
	client.Maxlag.On = true
	if path := p.cookieFile(site); path != "" {
		cookies, err := mwlib.ReadCookies(path)
		if err != nil {
			p.warn.Printf("Could not read cookies for %v: %v", site, err)
		} else if len(cookies) > 0 {
			client.LoadCookies(cookies)
		}
	}
	sc := &siteClient{site: site, client: client}
	p.clients[site.String()] = sc
	return sc, nil
}

// Close saves the cookies of every client for the next run. Cookies can
// change while the bot is running.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	var errs []error
	for _, sc := range p.clients {
		path := p.cookieFile(sc.site)
		if path == "" {
			continue
		}
		if err := mwlib.WriteCookies(sc.client.DumpCookies(), path); err != nil {
			errs = append(errs, fmt.Errorf("%v: %w", sc.site, err))
		}
	}
	return errors.Join(errs...)
}

// CanWrite reports whether we are logged in on site, logging in with the
// configured credentials if the cached session has expired. The answer is
// decided once per site and run.
func (p *Pool) CanWrite(ctx context.Context, site *family.Site) bool {
	sc, err := p.siteClient(site)
	if err != nil {
		p.warn.Print(err)
		return false
	}
	sc.loginOnce.Do(func() {
		if checkLogin(sc.client) {
			sc.canWrite = true
			return
		}
		sc.canWrite = p.login(sc)
	})
	return sc.canWrite
}

// Return true if the client is logged in.
func checkLogin(client *mwclient.Client) bool {
	params := params.Values{
		"action":   "query",
		"assert":   "user",
		"continue": "",
	}
	_, err := client.Get(params)
	return err == nil
}

func (p *Pool) clearCookies(sc *siteClient) {
	path := p.cookieFile(sc.site)
	if path == "" {
		return
	}
	cookies, err := mwlib.ReadCookies(path)
	if err != nil {
		return
	}
	for idx := range cookies {
		cookies[idx].MaxAge = -1
	}
	sc.client.LoadCookies(cookies)
}

func (p *Pool) login(sc *siteClient) bool {
	creds := p.cfg.Credentials
	if creds.HasOAuth() {
		if err := sc.client.OAuth(creds.ConsumerToken, creds.ConsumerSecret, creds.AccessToken, creds.AccessSecret); err != nil {
			p.warn.Printf("OAuth login on %v failed: %v", sc.site, err)
			return false
		}
		return checkLogin(sc.client)
	}
	if !creds.HasPassword() {
		p.verbose.Printf("No credentials for %v, not editing there.", sc.site)
		return false
	}
	// Clear old session cookies, otherwise they remain in the cookiejar
	// as duplicates and remain in use.
	p.clearCookies(sc)
	if err := sc.client.Login(creds.Username, creds.Password); err != nil {
		p.warn.Printf("Login on %v failed: %v", sc.site, err)
		return false
	}
	return true
}

// retry runs op until it succeeds, fails permanently, or b's ceiling is
// reached. Waits between attempts are tracked per site.
func (p *Pool) retry(ctx context.Context, b *Backoff, site *family.Site, op func() error) error {
	key := site.String()
	attempts := b.Attempts()
	for attempt := 1; ; attempt++ {
		if err := b.Wait(ctx, key); err != nil {
			return err
		}
		err := op()
		if err == nil || isWarning(err) {
			b.Succeeded(key)
			return nil
		}
		if !transient(err) || attempt >= attempts || ctx.Err() != nil {
			return err
		}
		delay := b.Failed(key)
		p.warn.Printf("%v: %v; retrying in %v", site, err, delay.Round(time.Second))
	}
}

// apiErrorCode returns the code of an API error in err's chain.
func apiErrorCode(err error) (string, bool) {
	var apiErr mwclient.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, true
	}
	var apiErrPtr *mwclient.APIError
	if errors.As(err, &apiErrPtr) {
		return apiErrPtr.Code, true
	}
	return "", false
}

func isWarning(err error) bool {
	var warnings mwclient.APIWarnings
	return errors.As(err, &warnings)
}

// Codes of API errors that go away by themselves.
var transientCodes = map[string]bool{
	"maxlag":      true,
	"readonly":    true,
	"ratelimited": true,
	"badtoken":    true,
}

// transient reports whether err is worth retrying. Transport failures,
// HTTP status errors and malformed responses are; API errors only when
// their code says so.
func transient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if code, ok := apiErrorCode(err); ok {
		return transientCodes[code] || strings.HasPrefix(code, "internal_api_error")
	}
	return true
}
