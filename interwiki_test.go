package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyhouston/interwiki/interwiki"
	"github.com/garyhouston/interwiki/mwapi"
)

func TestBuildOptions(t *testing.T) {
	f := flags{Family: "wikipedia", Lang: "en", Array: 100, Query: 60}
	fam, home, err := loadFamily(f)
	require.NoError(t, err)

	skip := filepath.Join(t.TempDir(), "skip.txt")
	require.NoError(t, os.WriteFile(skip, []byte("Dog\nCat\n"), 0o644))
	f.SkipFile = skip
	f.Ignore = []string{"de:Haushund"}
	f.NeverLink = "fr,it"
	f.NoAuto = true
	f.WhenNeeded = "3"
	opts, err := buildOptions(f, fam, home, "InterwikiBot")
	require.NoError(t, err)

	assert.False(t, opts.Auto)
	assert.True(t, opts.FollowRedirect)
	assert.True(t, opts.LimitTwo)
	assert.False(t, opts.StrictLimitTwo)
	assert.Equal(t, 3, opts.NeedLimit)
	assert.Equal(t, []string{"fr", "it"}, opts.NeverLink)
	require.Len(t, opts.Ignore, 1)
	assert.Equal(t, "[[de:Haushund]]", opts.Ignore[0].InterwikiLink())
	require.Len(t, opts.Skip, 2)
	assert.Equal(t, "InterwikiBot", opts.User)

	f.WhenNeeded = ""
	f.LimitTwo = true
	opts, err = buildOptions(f, fam, home, "")
	require.NoError(t, err)
	assert.True(t, opts.StrictLimitTwo)

	f.Ignore = []string{"Haushund"}
	_, err = buildOptions(f, fam, home, "")
	assert.Error(t, err)

	f.Ignore = nil
	f.NeverLink = "fr,xx"
	_, err = buildOptions(f, fam, home, "")
	assert.ErrorContains(t, err, `unknown language code "xx"`)
}

func TestGenerator(t *testing.T) {
	f := flags{Family: "wikipedia", Lang: "en", Number: 3}
	_, home, err := loadFamily(f)
	require.NoError(t, err)
	dir := t.TempDir()
	pool := mwapi.NewPool(mwapi.Config{})

	gen, err := generator(nil, f, pool, home, dir)
	require.NoError(t, err)
	assert.Nil(t, gen)

	dump := interwiki.DumpPath(dir, home)
	require.NoError(t, os.MkdirAll(filepath.Dir(dump), 0o755))
	require.NoError(t, os.WriteFile(dump, []byte("[[Cat]]\n[[Horse]]\n"), 0o644))
	f.Restore = true
	gen, err = generator([]string{"Dog", "Mercury (planet)"}, f, pool, home, dir)
	require.NoError(t, err)

	var titles []string
	for {
		p, err := gen.Next(context.Background())
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		titles = append(titles, p.Title)
	}
	assert.Equal(t, []string{"Dog", "Mercury (planet)", "Cat"}, titles)
}

func TestContinueAndDumpRemoval(t *testing.T) {
	f := flags{Family: "wikipedia", Lang: "en"}
	_, home, err := loadFamily(f)
	require.NoError(t, err)
	dir := t.TempDir()
	dump := interwiki.DumpPath(dir, home)

	assert.Equal(t, "!", resumeAfter(home, dump), "no dump: start at the beginning")

	require.NoError(t, os.MkdirAll(filepath.Dir(dump), 0o755))
	require.NoError(t, os.WriteFile(dump, []byte("[[Cat]]\n[[Horse]]\n"), 0o644))
	assert.Equal(t, "Horse!", resumeAfter(home, dump))

	// Not restored from it: the dump stays.
	removeDump(f, dir, home)
	assert.FileExists(t, dump)

	f.Continue = true
	f.Number = 1
	removeDump(f, dir, home)
	assert.FileExists(t, dump)

	f.Number = 0
	removeDump(f, dir, home)
	assert.NoFileExists(t, dump)
	removeDump(f, dir, home)
}
