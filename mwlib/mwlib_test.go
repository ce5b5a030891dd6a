package mwlib

import (
	"net/http"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCookiesRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := CookieFile(dir, "wikipedia", "de")
	assert.Equal(t, filepath.Join(dir, "cookies-wikipedia-de"), path)

	cookies, err := ReadCookies(path)
	require.NoError(t, err)
	assert.Empty(t, cookies)

	in := []*http.Cookie{{Name: "session", Value: "abc"}, {Name: "token", Value: "x y"}}
	require.NoError(t, WriteCookies(in, path))

	out, err := ReadCookies(path)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "session", out[0].Name)
	assert.Equal(t, "abc", out[0].Value)
	assert.Equal(t, "x y", out[1].Value)
}

func TestWorkingDir(t *testing.T) {
	t.Setenv("WIKI_BOTTING_DIR", "/tmp/bots")
	assert.Equal(t, "/tmp/bots", GetWorkingDir())
}

func TestMakeTitleString(t *testing.T) {
	assert.Equal(t, "Dog|Cat", MakeTitleString([]string{"Dog", "Cat"}))
	assert.Equal(t, "", MakeTitleString(nil))
}
