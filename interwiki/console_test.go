package interwiki

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyhouston/interwiki/wiki"
)

func TestConsoleMismatch(t *testing.T) {
	f := newFixture(t)
	q := Question{Kind: NamespaceMismatch, Origin: f.page("en", "Dog"), Page: f.page("de", "Kategorie:Hund"), Site: f.site("de")}

	var out bytes.Buffer
	answer, err := NewConsole(strings.NewReader("maybe\ny\n"), &out).Resolve(q)
	require.NoError(t, err)
	assert.True(t, answer.Accept)
	assert.Contains(t, out.String(), "(A)dd an alternative")
	assert.Equal(t, 2, strings.Count(out.String(), "Follow it anyway?"))

	answer, err = NewConsole(strings.NewReader("a\nHaushund\n"), &out).Resolve(q)
	require.NoError(t, err)
	assert.False(t, answer.Accept)
	assert.True(t, answer.Choice.Equal(f.page("de", "Haushund")))

	q.Kind = DisambiguationMismatch
	q.OriginDisambiguation = true
	out.Reset()
	answer, err = NewConsole(strings.NewReader("n\n"), &out).Resolve(q)
	require.NoError(t, err)
	assert.Equal(t, Answer{}, answer)
	assert.Contains(t, out.String(), "is a disambiguation page")

	_, err = NewConsole(strings.NewReader("g\n"), &out).Resolve(q)
	assert.ErrorIs(t, err, ErrGiveUp)
}

func TestConsoleConflict(t *testing.T) {
	f := newFixture(t)
	hund, haushund := f.page("de", "Hund"), f.page("de", "Haushund")
	q := Question{Kind: Conflict, Origin: f.page("en", "Dog"), Site: f.site("de"), Candidates: []Candidate{
		{Page: hund, FoundIn: []wiki.Page{f.page("en", "Dog")}},
		{Page: haushund, FoundIn: []wiki.Page{{}}},
	}}

	var out bytes.Buffer
	answer, err := NewConsole(strings.NewReader("3\n2\n"), &out).Resolve(q)
	require.NoError(t, err)
	assert.True(t, answer.Choice.Equal(haushund))
	assert.Contains(t, out.String(), "(1) Found link to [[de:Hund]] in:")
	assert.Contains(t, out.String(), "Given as a hint.")

	answer, err = NewConsole(strings.NewReader("n\n"), &out).Resolve(q)
	require.NoError(t, err)
	assert.True(t, answer.Choice.IsZero())

	_, err = NewConsole(strings.NewReader(""), &out).Resolve(q)
	assert.ErrorIs(t, err, ErrGiveUp)
}

func TestConsoleConfirm(t *testing.T) {
	f := newFixture(t)
	link := Question{Kind: ConfirmLink, Origin: f.page("en", "Dog"), Page: f.page("fr", "Chien")}

	tests := []struct {
		input string
		want  Answer
		err   error
	}{
		{"\n", Answer{Accept: true}, nil},
		{"r\n", Answer{}, nil},
		{"l\n", Answer{Accept: true, All: true}, nil},
		{"g\n", Answer{}, ErrGiveUp},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		answer, err := NewConsole(strings.NewReader(tt.input), &out).Resolve(link)
		if tt.err != nil {
			assert.ErrorIs(t, err, tt.err, tt.input)
			continue
		}
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, answer, tt.input)
	}

	write := Question{Kind: ConfirmWrite, Origin: f.page("en", "Dog"), Page: f.page("en", "Dog"), Diff: Diff{Changes: "Adding: [[fr:Chien]]"}}
	var out bytes.Buffer
	// A blank answer has no default here.
	answer, err := NewConsole(strings.NewReader("\nY\n"), &out).Resolve(write)
	require.NoError(t, err)
	assert.True(t, answer.Accept)
	assert.Contains(t, out.String(), "Changes to be made on [[en:Dog]]: Adding: [[fr:Chien]]")
}

func TestConsoleHints(t *testing.T) {
	f := newFixture(t)
	q := Question{Kind: AskHints, Origin: f.page("en", "Dog"), Text: "The dog is a domesticated animal."}

	var out bytes.Buffer
	answer, err := NewConsole(strings.NewReader("?\nde\nde:Hund\nfr:\n\n"), &out).Resolve(q)
	require.NoError(t, err)
	assert.Equal(t, []string{"de:Hund", "fr:"}, answer.Hints)
	assert.Contains(t, out.String(), "The dog is a domesticated animal.")
	assert.Contains(t, out.String(), "Please enter a hint in the format language:pagename")
}

func TestConservative(t *testing.T) {
	var r Conservative
	answer, err := r.Resolve(Question{Kind: ConfirmLink})
	require.NoError(t, err)
	assert.True(t, answer.Accept)

	_, err = r.Resolve(Question{Kind: Conflict})
	assert.ErrorIs(t, err, ErrGiveUp)

	for _, kind := range []QuestionKind{NamespaceMismatch, DisambiguationMismatch, ConfirmWrite, AskHints} {
		answer, err := r.Resolve(Question{Kind: kind})
		require.NoError(t, err)
		assert.Equal(t, Answer{}, answer, kind.String())
	}
}
