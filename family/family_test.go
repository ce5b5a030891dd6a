package family

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wikipedia(t *testing.T) *Family {
	t.Helper()
	reg, err := Default()
	require.NoError(t, err)
	fam, err := reg.Family("wikipedia")
	require.NoError(t, err)
	return fam
}

func TestDefaultRegistry(t *testing.T) {
	reg, err := Default()
	require.NoError(t, err)

	site, err := reg.Site("wikipedia", "de")
	require.NoError(t, err)
	assert.Equal(t, "de.wikipedia.org", site.Host)
	assert.Equal(t, "https://de.wikipedia.org/w/api.php", site.APIURL())
	assert.Equal(t, "wikipedia:de", site.String())

	wikt, err := reg.Site("wiktionary", "en")
	require.NoError(t, err)
	assert.Equal(t, CaseSensitive, wikt.Case)

	_, err = reg.Family("wikibooks")
	assert.Error(t, err)
}

func TestSiteAliasesAndUnknownCodes(t *testing.T) {
	fam := wikipedia(t)

	site, err := fam.Site("be-x-old")
	require.NoError(t, err)
	assert.Equal(t, "be-tarask", site.Code)
	assert.True(t, fam.Has("nb"))

	_, err = fam.Site("xx")
	assert.True(t, errors.Is(err, ErrUnknownSite))
}

func TestGroups(t *testing.T) {
	fam := wikipedia(t)

	ten, ok := fam.Group("10")
	require.True(t, ok)
	assert.Equal(t, []string{"en", "de", "fr", "nl", "ru", "es", "it", "pl", "ja", "zh"}, ten)

	all, ok := fam.Group("all")
	require.True(t, ok)
	assert.Equal(t, fam.LanguagesBySize(), all)

	huge, ok := fam.Group("5000")
	require.True(t, ok)
	assert.Len(t, huge, len(fam.LanguagesBySize()))

	cyril, ok := fam.Group("cyril")
	require.True(t, ok)
	assert.Contains(t, cyril, "ru")

	_, ok = fam.Group("klingon")
	assert.False(t, ok)
}

func TestNormalize(t *testing.T) {
	fam := wikipedia(t)
	de, err := fam.Site("de")
	require.NoError(t, err)

	tests := []struct {
		in, want string
	}{
		{"hund", "Hund"},
		{"Deutscher_Schäferhund", "Deutscher Schäferhund"},
		{"  Berliner   Mauer ", "Berliner Mauer"},
		{"category:haustier", "Kategorie:Haustier"},
		{"Kategorie:haustier", "Kategorie:Haustier"},
		{"Bild:foo.jpg", "Datei:Foo.jpg"},
		{"Dog: a story", "Dog: a story"},
		// Decomposed umlaut becomes the composed form.
		{"Mu\u0308nchen", "M\u00fcnchen"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, de.Normalize(tt.in), tt.in)
	}

	reg, err := Default()
	require.NoError(t, err)
	wikt, err := reg.Site("wiktionary", "en")
	require.NoError(t, err)
	assert.Equal(t, "dog", wikt.Normalize("dog"))
}

func TestNamespace(t *testing.T) {
	fam := wikipedia(t)
	fr, err := fam.Site("fr")
	require.NoError(t, err)

	assert.Equal(t, CategoryNamespace, fr.Namespace("Catégorie:Chien"))
	assert.Equal(t, CategoryNamespace, fr.Namespace("Category:Chien"))
	assert.Equal(t, MainNamespace, fr.Namespace("Chien"))
	assert.Equal(t, "Chien", fr.StripNamespace("Catégorie:Chien"))
	assert.Equal(t, "Catégorie", fr.NamespaceName(CategoryNamespace))
}

func TestCrossNamespaceAndMirrors(t *testing.T) {
	fam := wikipedia(t)
	assert.True(t, fam.CrossNamespaceAllowed(0, 100))
	assert.False(t, fam.CrossNamespaceAllowed(0, 14))
	assert.Empty(t, fam.Mirrors("be"))

	reg, err := Load([]byte(`
families:
  test:
    host: "{code}.example.org"
    languages_by_size: [aa, bb]
    mirrors:
      aa: [bb]
`))
	require.NoError(t, err)
	test, err := reg.Family("test")
	require.NoError(t, err)
	assert.Equal(t, []string{"bb"}, test.Mirrors("aa"))
}

func TestLoadErrors(t *testing.T) {
	_, err := Load([]byte("families: {}"))
	assert.Error(t, err)

	_, err = Load([]byte(`
families:
  broken:
    languages_by_size: [aa]
`))
	assert.Error(t, err)

	_, err = Load([]byte(`
families:
  broken:
    host: "{code}.example.org"
    languages_by_size: [aa]
    aliases:
      zz: yy
`))
	assert.Error(t, err)
}

func TestMessagesAndDisambiguation(t *testing.T) {
	fam := wikipedia(t)
	de, err := fam.Site("de")
	require.NoError(t, err)
	assert.Equal(t, "Ergänze", de.Message("adding"))
	assert.True(t, de.IsDisambiguationTemplate("begriffsklärung"))
	assert.True(t, de.IsDisambiguationTemplate("Disambig"))
	assert.False(t, de.IsDisambiguationTemplate("Infobox"))

	fi, err := fam.Site("fi")
	require.NoError(t, err)
	assert.Equal(t, "Adding", fi.Message("adding"))
}
