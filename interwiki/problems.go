package interwiki

import (
	"fmt"
	"os"
	"sync"

	"github.com/garyhouston/interwiki/wiki"
)

// ProblemsFile is the default name of the problem log of autonomous runs.
const ProblemsFile = "autonomous_problems.dat"

// ProblemLog appends the problems of autonomous runs to a file, one line
// per problem: "* [[en:Dog]] {Found more than one link for wikipedia:de}".
type ProblemLog struct {
	mu   sync.Mutex
	path string
}

// NewProblemLog returns a log appending to path. The file is created on
// the first problem.
func NewProblemLog(path string) *ProblemLog {
	return &ProblemLog{path: path}
}

// Record appends one problem about origin.
func (l *ProblemLog) Record(origin wiki.Page, reason string) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(f, "* %s {%s}\n", origin.InterwikiLink(), reason); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
