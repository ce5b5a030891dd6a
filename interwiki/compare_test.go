package interwiki

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyhouston/interwiki/wiki"
)

func TestCompareLanguages(t *testing.T) {
	f := newFixture(t)
	en := f.site("en")
	old := map[string]wiki.Page{
		"en": f.page("en", "Dog"),
		"de": f.page("de", "Hund"),
		"fr": f.page("fr", "Chat"),
		"it": f.page("it", "Cane"),
	}
	new := map[string]wiki.Page{
		"de": f.page("de", "Hund"),
		"fr": f.page("fr", "Chien"),
		"sv": f.page("sv", "Hund"),
	}
	d := CompareLanguages(old, new, en)
	assert.Equal(t, []string{"sv"}, d.Adding)
	assert.Equal(t, []string{"it"}, d.Removing)
	assert.Equal(t, []string{"fr"}, d.Modifying)
	assert.Equal(t, "Adding: [[sv:Hund]] Removing: [[it:Cane]] Modifying: [[fr:Chien]]", d.Changes)
	assert.Equal(t, "robot Adding: [[sv:Hund]] Removing: [[it:Cane]] Modifying: [[fr:Chien]]", d.Summary)
	assert.False(t, d.Empty())

	// More than three changes are listed by code, in the site's language.
	new["es"] = f.page("es", "Perro")
	d = CompareLanguages(old, new, f.site("de"))
	assert.Equal(t, []string{"es", "sv"}, d.Adding)
	assert.Equal(t, []string{"en", "it"}, d.Removing)
	assert.Contains(t, d.Changes, "Ergänze: es, sv")
	assert.Contains(t, d.Summary, "Bot:")

	// A section change is a modification.
	d = CompareLanguages(
		map[string]wiki.Page{"de": f.page("de", "Hund")},
		map[string]wiki.Page{"de": f.page("de", "Hund#Rassen")}, en)
	assert.Equal(t, []string{"de"}, d.Modifying)

	assert.True(t, CompareLanguages(old, old, en).Empty())
}

func TestCounter(t *testing.T) {
	f := newFixture(t)
	c := NewCounter()
	de, fr := f.site("de"), f.site("fr")
	c.Plus(fr)
	c.Plus(de)
	c.Plus(de)
	assert.Equal(t, 2, c.Count(de))
	assert.Equal(t, 3, c.Total())
	assert.Equal(t, []string{"wikipedia:de", "wikipedia:fr"}, []string{c.Sites()[0].String(), c.Sites()[1].String()})

	c.Minus(fr)
	assert.Len(t, c.Sites(), 1)
	assert.Panics(t, func() { c.Minus(fr) })
}

func TestProblemLog(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(t.TempDir(), ProblemsFile)
	l := NewProblemLog(path)
	require.NoError(t, l.Record(f.page("en", "Dog"), "Found link to [[en:Doggy]]"))
	require.NoError(t, l.Record(f.page("de", "Hund"), "Found more than one link for wikipedia:fr"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "* [[en:Dog]] {Found link to [[en:Doggy]]}\n* [[de:Hund]] {Found more than one link for wikipedia:fr}\n", string(data))

	var nilLog *ProblemLog
	assert.NoError(t, nilLog.Record(f.page("en", "Dog"), "ignored"))
}

func TestMetrics(t *testing.T) {
	f := newFixture(t)
	m := NewMetrics()
	m.fetchedBatch(f.site("de"), 30)
	m.fetchedBatch(f.site("de"), 20)
	m.saved(f.site("en"), "ok")
	m.finished("done")
	m.progress(7, 12)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.queries.WithLabelValues("wikipedia:de")))
	assert.Equal(t, 50.0, testutil.ToFloat64(m.fetched.WithLabelValues("wikipedia:de")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.edits.WithLabelValues("wikipedia:en", "ok")))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.open))

	path := filepath.Join(t.TempDir(), "interwiki.prom")
	require.NoError(t, m.WriteToTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `interwiki_subjects_total{outcome="done"} 1`)

	var none *Metrics
	none.saved(f.site("en"), "ok")
	assert.NoError(t, none.WriteToTextfile(path))
}

func TestStatsPrint(t *testing.T) {
	var buf bytes.Buffer
	Stats{Subjects: 3, Edited: 2}.Print(&buf)
	assert.Contains(t, buf.String(), "Origin pages examined:  3")
	assert.Contains(t, buf.String(), "Pages edited:  2")
}
