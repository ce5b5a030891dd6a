package pagegen

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyhouston/interwiki/family"
	"github.com/garyhouston/interwiki/wiki"
)

func enSite(t *testing.T) *family.Site {
	t.Helper()
	reg, err := family.Default()
	require.NoError(t, err)
	site, err := reg.Site("wikipedia", "en")
	require.NoError(t, err)
	return site
}

func drain(t *testing.T, gen Generator) []string {
	t.Helper()
	var titles []string
	for {
		p, err := gen.Next(context.Background())
		if errors.Is(err, io.EOF) {
			return titles
		}
		require.NoError(t, err)
		titles = append(titles, p.Title)
	}
}

func TestReadTitles(t *testing.T) {
	en := enSite(t)
	pages, err := ReadTitles(en, strings.NewReader("[[Dog]]\n[[cat|Cats]] and [[:Category:Pets]]\n"))
	require.NoError(t, err)
	titles := make([]string, len(pages))
	for i, p := range pages {
		titles[i] = p.Title
	}
	assert.Equal(t, []string{"Dog", "Cat", "Category:Pets"}, titles)

	pages, err = ReadTitles(en, strings.NewReader("Dog\n\n  horse  \n"))
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, "Horse", pages[1].Title)
}

func TestFromFile(t *testing.T) {
	en := enSite(t)
	path := filepath.Join(t.TempDir(), "titles.txt")
	require.NoError(t, os.WriteFile(path, []byte("[[Dog]]\n[[Cat]]\n"), 0o644))
	gen, err := FromFile(en, path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Dog", "Cat"}, drain(t, gen))

	_, err = FromFile(en, filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestWrappers(t *testing.T) {
	en := enSite(t)
	gen := Limit(Titles(en, "A", "B", "C"), 2)
	assert.Equal(t, []string{"A", "B"}, drain(t, gen))

	gen = Filter(Titles(en, "Apple", "Banana", "Avocado"), func(p wiki.Page) bool {
		return strings.HasPrefix(p.Title, "A")
	})
	assert.Equal(t, []string{"Apple", "Avocado"}, drain(t, gen))

	gen = Chain(Titles(en, "A"), Titles(en), Titles(en, "B", "C"))
	assert.Equal(t, []string{"A", "B", "C"}, drain(t, gen))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Titles(en, "A").Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
