package wiki

import (
	"errors"
	"fmt"
)

// SaveErrorKind classifies a failed write.
type SaveErrorKind int

const (
	PageNotSaved SaveErrorKind = iota
	EditConflict
	LockedPage
	SpamfilterRejected
)

func (k SaveErrorKind) String() string {
	switch k {
	case EditConflict:
		return "edit conflict"
	case LockedPage:
		return "page is locked"
	case SpamfilterRejected:
		return "rejected by spam filter"
	}
	return "page not saved"
}

// SaveError is returned by Client.Write when a page could not be saved. It
// only aborts the write of that one page.
type SaveError struct {
	Kind   SaveErrorKind
	Page   Page
	Reason string
	Err    error
}

func (e *SaveError) Error() string {
	msg := fmt.Sprintf("saving %v: %v", e.Page, e.Kind)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *SaveError) Unwrap() error {
	return e.Err
}

// AsSaveError returns the SaveError in err's chain, if any.
func AsSaveError(err error) (*SaveError, bool) {
	var se *SaveError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
