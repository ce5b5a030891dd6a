package interwiki

import (
	"errors"

	"github.com/garyhouston/interwiki/family"
	"github.com/garyhouston/interwiki/wiki"
)

// ErrGiveUp is returned by a Resolver when the operator gives up on the
// current origin page. It stops all remaining work and writes for it.
var ErrGiveUp = errors.New("interwiki: gave up on page")

// QuestionKind tags the decisions a Subject can't take on its own.
type QuestionKind int

const (
	// NamespaceMismatch: follow Page, which is in another namespace than
	// the origin? Answer.Accept, or Answer.Choice as an alternative.
	NamespaceMismatch QuestionKind = iota
	// DisambiguationMismatch: follow Page although exactly one of Page and
	// the origin is a disambiguation page? Same answers as above.
	DisambiguationMismatch
	// Conflict: several pages on Site were found. Answer.Choice is the one
	// to use, or zero for none.
	Conflict
	// ConfirmLink: use Page, the only page found on its site?
	// Answer.Accept, and Answer.All to accept the remaining ones too.
	ConfirmLink
	// ConfirmWrite: save the changes in Diff to Page? Answer.Accept.
	ConfirmWrite
	// AskHints: give hints for the origin page. Answer.Hints.
	AskHints
)

func (k QuestionKind) String() string {
	switch k {
	case NamespaceMismatch:
		return "namespace mismatch"
	case DisambiguationMismatch:
		return "disambiguation mismatch"
	case Conflict:
		return "conflict"
	case ConfirmLink:
		return "confirm link"
	case ConfirmWrite:
		return "confirm write"
	case AskHints:
		return "ask hints"
	}
	return "unknown question"
}

// Candidate is one of several pages found on a site, with the pages that
// link to it. A zero page in FoundIn stands for a hint.
type Candidate struct {
	Page    wiki.Page
	FoundIn []wiki.Page
}

// Question describes a decision the Subject needs from outside.
type Question struct {
	Kind       QuestionKind
	Origin     wiki.Page
	Page       wiki.Page
	Linking    wiki.Page // Page that linked to Page, for mismatches.
	Site       *family.Site
	Candidates []Candidate // For Conflict.
	FoundIn    []wiki.Page // For ConfirmLink.
	Diff       Diff        // For ConfirmWrite.
	Text       string      // Origin text, for AskHints.

	// For DisambiguationMismatch: whether the origin is the
	// disambiguation page.
	OriginDisambiguation bool
}

// Answer to a Question. Fields not meaningful for the kind are ignored.
type Answer struct {
	Accept bool
	All    bool
	Choice wiki.Page
	Hints  []string
}

// Resolver takes the decisions a Subject asks for. Returning ErrGiveUp
// abandons the origin page.
type Resolver interface {
	Resolve(q Question) (Answer, error)
}

// Conservative is the Resolver of autonomous runs: it follows nothing
// doubtful, picks no candidate, confirms found links and refuses writes
// that needed confirmation.
type Conservative struct{}

func (Conservative) Resolve(q Question) (Answer, error) {
	switch q.Kind {
	case Conflict:
		return Answer{}, ErrGiveUp
	case ConfirmLink:
		return Answer{Accept: true}, nil
	}
	return Answer{}, nil
}
