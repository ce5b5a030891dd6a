package mwapi

import (
	"context"
	"errors"
	"strings"

	mwclient "cgt.name/pkg/go-mwclient"
	"cgt.name/pkg/go-mwclient/params"

	"github.com/garyhouston/interwiki/wiki"
)

// Write saves text as the new revision of page. The edit is based on the
// revision with baseTimestamp so the server detects conflicting edits.
// Transient failures are retried with the save backoff; everything else is
// returned as *wiki.SaveError.
func (p *Pool) Write(ctx context.Context, page wiki.Page, text, baseTimestamp, summary string) error {
	sc, err := p.siteClient(page.Site)
	if err != nil {
		return err
	}
	editcfg := params.Values{
		"action":        "edit",
		"title":         page.Title,
		"text":          text,
		"summary":       summary,
		"minor":         "",
		"bot":           "",
		"nocreate":      "",
		"basetimestamp": baseTimestamp,
	}
	err = p.retry(ctx, p.saveBackoff, page.Site, func() error {
		return sc.client.Edit(editcfg)
	})
	if err == nil || errors.Is(err, mwclient.ErrEditNoChange) {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return classifySaveError(page, err)
}

// classifySaveError turns an edit failure into a wiki.SaveError.
func classifySaveError(page wiki.Page, err error) error {
	se := &wiki.SaveError{Kind: wiki.PageNotSaved, Page: page, Err: err}
	code, ok := apiErrorCode(err)
	if !ok {
		se.Reason = err.Error()
		return se
	}
	se.Reason = code
	switch {
	case code == "editconflict":
		se.Kind = wiki.EditConflict
	case code == "protectedpage", code == "cascadeprotected", code == "protectedtitle",
		code == "protectednamespace", code == "protectednamespace-interface",
		code == "blocked", code == "autoblocked":
		se.Kind = wiki.LockedPage
	case code == "spamblacklist", code == "spamdetected", strings.HasPrefix(code, "abusefilter"):
		se.Kind = wiki.SpamfilterRejected
	}
	return se
}
