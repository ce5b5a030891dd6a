package interwiki

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/garyhouston/interwiki/wiki"
)

// Console asks the operator on a terminal.
type Console struct {
	in  *bufio.Scanner
	out io.Writer
}

// NewConsole returns a Console reading answers from in and writing prompts
// to out.
func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{in: bufio.NewScanner(in), out: out}
}

func (c *Console) input(prompt string) (string, error) {
	fmt.Fprint(c.out, prompt+" ")
	if !c.in.Scan() {
		if err := c.in.Err(); err != nil {
			return "", err
		}
		// No more input: nobody is there to answer.
		return "", ErrGiveUp
	}
	return strings.TrimSpace(c.in.Text()), nil
}

// choice prompts until one of the shortcuts is entered. An empty answer
// selects def, if def is not empty.
func (c *Console) choice(question string, options, shortcuts []string, def string) (string, error) {
	parts := make([]string, len(options))
	for i, o := range options {
		if n := len(shortcuts[i]); strings.HasPrefix(strings.ToLower(o), shortcuts[i]) {
			parts[i] = "(" + o[:n] + ")" + o[n:]
		} else {
			parts[i] = o + " (" + shortcuts[i] + ")"
		}
	}
	prompt := question + " [" + strings.Join(parts, ", ") + "]"
	for {
		answer, err := c.input(prompt)
		if err != nil {
			return "", err
		}
		answer = strings.ToLower(answer)
		if answer == "" {
			answer = def
		}
		for _, s := range shortcuts {
			if answer == s {
				return s, nil
			}
		}
	}
}

func (c *Console) whereReport(foundIn []wiki.Page, indent int) {
	pad := strings.Repeat(" ", indent)
	if len(foundIn) == 0 {
		fmt.Fprintln(c.out, pad+"(origin page)")
	}
	for _, p := range foundIn {
		if p.IsZero() {
			fmt.Fprintln(c.out, pad+"Given as a hint.")
		} else {
			fmt.Fprintln(c.out, pad+p.String())
		}
	}
}

func (c *Console) Resolve(q Question) (Answer, error) {
	switch q.Kind {
	case NamespaceMismatch:
		return c.mismatch(q, fmt.Sprintf("WARNING: %v is in namespace %d, but %v is in namespace %d. Follow it anyway?",
			q.Origin, q.Origin.Namespace(), q.Page, q.Page.Namespace()))
	case DisambiguationMismatch:
		msg := "WARNING: %v is a disambiguation page, but %v doesn't seem to be one. Follow it anyway?"
		if !q.OriginDisambiguation {
			msg = "WARNING: %v doesn't seem to be a disambiguation page, but %v is one. Follow it anyway?"
		}
		return c.mismatch(q, fmt.Sprintf(msg, q.Origin, q.Page))
	case Conflict:
		return c.conflict(q)
	case ConfirmLink:
		fmt.Fprintln(c.out, strings.Repeat("=", 30))
		fmt.Fprintf(c.out, "Found link to %v in:\n", q.Page)
		c.whereReport(q.FoundIn, 4)
		answer, err := c.choice("What should be done?", []string{"accept", "reject", "give up", "accept all"}, []string{"a", "r", "g", "l"}, "a")
		if err != nil {
			return Answer{}, err
		}
		switch answer {
		case "g":
			return Answer{}, ErrGiveUp
		case "l":
			return Answer{Accept: true, All: true}, nil
		}
		return Answer{Accept: answer == "a"}, nil
	case ConfirmWrite:
		fmt.Fprintf(c.out, "Changes to be made on %v: %s\n", q.Page, q.Diff.Changes)
		answer, err := c.choice("Submit?", []string{"Yes", "No", "Give up"}, []string{"y", "n", "g"}, "")
		if err != nil {
			return Answer{}, err
		}
		if answer == "g" {
			return Answer{}, ErrGiveUp
		}
		return Answer{Accept: answer == "y"}, nil
	case AskHints:
		return c.hints(q)
	}
	return Answer{}, fmt.Errorf("interwiki: unknown question %v", q.Kind)
}

func (c *Console) mismatch(q Question, warning string) (Answer, error) {
	answer, err := c.choice(warning, []string{"Yes", "No", "Add an alternative", "Give up"}, []string{"y", "n", "a", "g"}, "")
	if err != nil {
		return Answer{}, err
	}
	switch answer {
	case "y":
		return Answer{Accept: true}, nil
	case "g":
		return Answer{}, ErrGiveUp
	case "a":
		title, err := c.input(fmt.Sprintf("Give the alternative for language %s, not using a language code:", q.Page.Site.Code))
		if err != nil {
			return Answer{}, err
		}
		if title != "" {
			return Answer{Choice: wiki.NewPage(q.Page.Site, title)}, nil
		}
	}
	return Answer{}, nil
}

func (c *Console) conflict(q Question) (Answer, error) {
	fmt.Fprintln(c.out, strings.Repeat("=", 30))
	fmt.Fprintf(c.out, "Links to %v\n", q.Site)
	for i, cand := range q.Candidates {
		fmt.Fprintf(c.out, "  (%d) Found link to %v in:\n", i+1, cand.Page)
		c.whereReport(cand.FoundIn, 8)
	}
	for {
		answer, err := c.input("Which variant should be used [number, (n)one, (g)ive up] :")
		if err != nil {
			return Answer{}, err
		}
		switch answer {
		case "g":
			return Answer{}, ErrGiveUp
		case "n":
			return Answer{}, nil
		}
		if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(q.Candidates) {
			return Answer{Choice: q.Candidates[n-1].Page}, nil
		}
	}
}

func (c *Console) hints(q Question) (Answer, error) {
	var hints []string
	for {
		hint, err := c.input(fmt.Sprintf("Give a hint for %v (? to see pagetext):", q.Origin))
		if err != nil {
			return Answer{}, err
		}
		switch hint {
		case "":
			return Answer{Hints: hints}, nil
		case "?":
			fmt.Fprintln(c.out, q.Text)
		default:
			if !strings.Contains(hint, ":") {
				fmt.Fprintln(c.out, "Please enter a hint in the format language:pagename or type nothing if you do not have a hint.")
				continue
			}
			hints = append(hints, hint)
		}
	}
}
