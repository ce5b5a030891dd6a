package date

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tables(t *testing.T) *Tables {
	t.Helper()
	tab, err := Default()
	require.NoError(t, err)
	return tab
}

func TestParse(t *testing.T) {
	tab := tables(t)
	tests := []struct {
		lang, title string
		want        Value
		ok          bool
	}{
		{"en", "January 5", Value{Kind: DayMonth, Day: 5, Month: 1}, true},
		{"de", "5. Januar", Value{Kind: DayMonth, Day: 5, Month: 1}, true},
		{"fr", "1er mai", Value{Kind: DayMonth, Day: 1, Month: 5}, true},
		{"fr", "14 juillet", Value{Kind: DayMonth, Day: 14, Month: 7}, true},
		{"ja", "3月14日", Value{Kind: DayMonth, Day: 14, Month: 3}, true},
		{"en", "February 30", Value{}, false},
		{"en", "1984", Value{Kind: YearAD, Year: 1984}, true},
		{"en", "44 BC", Value{Kind: YearBC, Year: 44}, true},
		{"fr", "-44", Value{Kind: YearBC, Year: 44}, true},
		{"ja", "1984年", Value{Kind: YearAD, Year: 1984}, true},
		{"ko", "기원전 44년", Value{Kind: YearBC, Year: 44}, true},
		{"en", "0044", Value{}, false},
		{"en", "3001 BC", Value{}, false},
		{"nl", "5", Value{}, false},
		{"da", "7", Value{}, false},
		{"da", "13", Value{Kind: YearAD, Year: 13}, true},
		{"en", "Dog", Value{}, false},
		{"xx", "1984", Value{}, false},
	}
	for _, tt := range tests {
		got, ok := tab.Parse(tt.lang, tt.title)
		assert.Equal(t, tt.ok, ok, "%s:%s", tt.lang, tt.title)
		assert.Equal(t, tt.want, got, "%s:%s", tt.lang, tt.title)
	}
}

func TestFormat(t *testing.T) {
	tab := tables(t)

	s, ok := tab.Format("de", Value{Kind: DayMonth, Day: 5, Month: 1})
	require.True(t, ok)
	assert.Equal(t, "5. Januar", s)

	s, ok = tab.Format("fr", Value{Kind: DayMonth, Day: 1, Month: 8})
	require.True(t, ok)
	assert.Equal(t, "1er août", s)

	s, ok = tab.Format("zh", Value{Kind: YearBC, Year: 221})
	require.True(t, ok)
	assert.Equal(t, "前221年", s)

	// ja keeps BC pages only up to 1000.
	_, ok = tab.Format("ja", Value{Kind: YearBC, Year: 2500})
	assert.False(t, ok)

	_, ok = tab.Format("da", Value{Kind: YearAD, Year: 3})
	assert.False(t, ok)
}

// Translating a day-month title into every other language and back must
// give the same day and month again.
func TestDayMonthRoundTrip(t *testing.T) {
	tab := tables(t)
	langs := tab.Languages()
	for _, from := range langs {
		for _, day := range []int{1, 5, 29, 31} {
			v := Value{Kind: DayMonth, Day: day, Month: 1}
			title, ok := tab.Format(from, v)
			require.True(t, ok, from)
			for _, to := range langs {
				parsed, ok := tab.Parse(from, title)
				require.True(t, ok, "%s %q", from, title)
				other, ok := tab.Format(to, parsed)
				require.True(t, ok, to)
				back, ok := tab.Parse(to, other)
				require.True(t, ok, "%s %q", to, other)
				title2, ok := tab.Format(from, back)
				require.True(t, ok)
				assert.Equal(t, title, title2)
				assert.Equal(t, day, back.Day)
			}
		}
	}
}

func TestLoadRejectsIncompleteMonths(t *testing.T) {
	_, err := Load([]byte(`
languages:
  xx:
    day_month: "{day} {month}"
    months: [one, two]
`))
	assert.Error(t, err)

	_, err = Load([]byte(`languages: {}`))
	assert.Error(t, err)
}
