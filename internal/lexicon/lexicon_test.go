package lexicon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFold(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "latin diacritics", in: "Nemačkoj", want: "nemackoj"},
		{name: "dj digraph", in: "Mađarska", want: "madjarska"},
		{name: "cyrillic", in: "Београд", want: "beograd"},
		{name: "cyrillic digraphs", in: "Љубљана", want: "ljubljana"},
		{name: "whitespace collapsed", in: "  Novi   Sad ", want: "novi sad"},
		{name: "german umlaut", in: "München", want: "munchen"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Fold(tt.in))
		})
	}
}

func TestASCII_KeepsCase(t *testing.T) {
	assert.Equal(t, "Nis", ASCII("Niš"))
	assert.Equal(t, "Djakovo", ASCII("Đakovo"))
	assert.Equal(t, "Beograd", ASCII("Београд"))
}

func TestLookupLocation_SameCanonical(t *testing.T) {
	lex := MustDefault()

	forms := []string{"Belgrade", "beograd", "Belgrade, Serbia", "БЕОГРАД", "Beogradu"}
	var first *Location
	for _, form := range forms {
		loc, ok := lex.LookupLocation(form)
		require.True(t, ok, form)
		if first == nil {
			first = loc
		}
		assert.Equal(t, "Belgrade", loc.Canonical, form)
		assert.Equal(t, first.Variants, loc.Variants, form)
	}

	assert.True(t, first.IsCity)
	assert.Equal(t, "Serbia", first.Country)
	assert.Equal(t, "rs", first.CountryCode)
	assert.Contains(t, first.Variants, "Belgrade, Serbia")
	assert.Contains(t, first.Variants, "Beograd")
	assert.Contains(t, first.Variants, "Београд")
}

func TestLookupLocation_TransliteratedVariant(t *testing.T) {
	lex := MustDefault()

	loc, ok := lex.LookupLocation("Nis")
	require.True(t, ok)
	assert.Equal(t, "Niš", loc.Canonical)
	assert.Equal(t, []string{"Niš", "Nish", "Nis", "Niš, Serbia", "Ниш"}, loc.Variants)
}

func TestLookupLocation_Country(t *testing.T) {
	lex := MustDefault()

	loc, ok := lex.LookupLocation("Nemačkoj")
	require.True(t, ok)
	assert.Equal(t, "Germany", loc.Canonical)
	assert.False(t, loc.IsCity)
	assert.Equal(t, "de", loc.CountryCode)

	_, ok = lex.LookupLocation("Atlantis")
	assert.False(t, ok)
}

func TestFindLocation(t *testing.T) {
	lex := MustDefault()

	tests := []struct {
		name      string
		text      string
		canonical string
		start     int
		found     bool
	}{
		{name: "single word", text: "developer from beograd", canonical: "Belgrade", start: 15, found: true},
		{name: "longest wins", text: "novi sad area", canonical: "Novi Sad", start: 0, found: true},
		{name: "word boundary", text: "parisian style", found: false},
		{name: "none", text: "react developer", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, start, end, ok := lex.FindLocation(tt.text)
			assert.Equal(t, tt.found, ok)
			if !tt.found {
				return
			}
			assert.Equal(t, tt.canonical, loc.Canonical)
			assert.Equal(t, tt.start, start)
			assert.Greater(t, end, start)
		})
	}
}

func TestTitleVariants(t *testing.T) {
	lex := MustDefault()

	v, ok := lex.TitleVariants("React Developer")
	require.True(t, ok)
	assert.Equal(t, "React developer", v[0])

	v, ok = lex.TitleVariants("react developers")
	require.True(t, ok)
	assert.Equal(t, "React developer", v[0])

	_, ok = lex.TitleVariants("astronaut")
	assert.False(t, ok)
}

func TestKeywordVariants_Bilingual(t *testing.T) {
	lex := MustDefault()

	v, ok := lex.KeywordVariants("obradu metala")
	require.True(t, ok)
	assert.Contains(t, v, "metal machining")
	assert.Contains(t, v, "obrada metala")
}

func TestVocab_Has(t *testing.T) {
	lex := MustDefault()

	assert.True(t, lex.Vocab.Has(ListNationalities, "serbian"))
	assert.True(t, lex.Vocab.Has(ListOwner, "osnivac"))
	assert.True(t, lex.Vocab.Has(ListTitleHints, "developer"))
	assert.False(t, lex.Vocab.Has(ListTitleHints, "react"))

	d, ok := lex.Vocab.SeniorityDisplay("senior")
	require.True(t, ok)
	assert.Equal(t, "Senior", d)
}

func TestMatcher_All(t *testing.T) {
	m := NewMatcher([]string{"full time", "in house", "time"})
	assert.ElementsMatch(t, []string{"full time", "time"}, m.All("looking for full time staff"))
	assert.Empty(t, m.All("overtime"))
}
