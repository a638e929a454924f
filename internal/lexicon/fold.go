package lexicon

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// cyrillicToLatin maps Serbian and Russian Cyrillic letters to their Serbian
// Latin spelling. Lowercase only; callers lowercase first or handle case.
var cyrillicToLatin = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'ђ': "đ", 'е': "e",
	'ж': "ž", 'з': "z", 'и': "i", 'ј': "j", 'к': "k", 'л': "l", 'љ': "lj",
	'м': "m", 'н': "n", 'њ': "nj", 'о': "o", 'п': "p", 'р': "r", 'с': "s",
	'т': "t", 'ћ': "ć", 'у': "u", 'ф': "f", 'х': "h", 'ц': "c", 'ч': "č",
	'џ': "dž", 'ш': "š",
	// Russian letters absent from the Serbian alphabet
	'й': "j", 'ы': "y", 'э': "e", 'ю': "ju", 'я': "ja", 'ё': "e", 'щ': "šč",
	'ъ': "", 'ь': "",
}

// Transliterate converts Cyrillic text to Serbian Latin script, preserving
// case on the first letter of each transliterated rune.
func Transliterate(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		lower := unicode.ToLower(r)
		latin, ok := cyrillicToLatin[lower]
		if !ok {
			b.WriteRune(r)
			continue
		}
		if lower != r && latin != "" {
			rs := []rune(latin)
			rs[0] = unicode.ToUpper(rs[0])
			latin = string(rs)
		}
		b.WriteString(latin)
	}
	return b.String()
}

// HasCyrillic reports whether s contains any Cyrillic letter.
func HasCyrillic(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Cyrillic, r) {
			return true
		}
	}
	return false
}

// ASCII strips diacritics while keeping case: "Niš" -> "Nis", "Đakovo" -> "Djakovo".
// Cyrillic input is transliterated first.
func ASCII(s string) string {
	s = Transliterate(s)
	s = strings.NewReplacer("đ", "dj", "Đ", "Dj").Replace(s)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Fold returns the lookup form of s: lowercase, Latin script, no diacritics,
// single-spaced. All table keys are stored folded.
func Fold(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(ASCII(s))), " ")
}
