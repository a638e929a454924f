package lexicon

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cloudflare/ahocorasick"
)

// Matcher finds dictionary phrases inside folded text on word boundaries.
type Matcher struct {
	keys []string
	ac   *ahocorasick.Matcher
}

// NewMatcher builds a matcher over folded keys.
func NewMatcher(keys []string) *Matcher {
	return &Matcher{
		keys: keys,
		ac:   ahocorasick.NewStringMatcher(keys),
	}
}

// Longest returns the longest key that occurs in text as whole words, and its
// byte offset. Ties go to the earliest occurrence.
func (m *Matcher) Longest(text string) (string, int, bool) {
	hits := m.ac.Match([]byte(text))
	best, bestStart := "", -1
	for _, idx := range hits {
		key := m.keys[idx]
		start := wordIndex(text, key)
		if start < 0 {
			continue
		}
		if len(key) > len(best) || (len(key) == len(best) && start < bestStart) {
			best, bestStart = key, start
		}
	}
	if bestStart < 0 {
		return "", 0, false
	}
	return best, bestStart, true
}

// All returns every key occurring in text as whole words.
func (m *Matcher) All(text string) []string {
	var out []string
	for _, idx := range m.ac.Match([]byte(text)) {
		if wordIndex(text, m.keys[idx]) >= 0 {
			out = append(out, m.keys[idx])
		}
	}
	return out
}

// ContainsWord reports whether phrase occurs in text delimited by non-word runes.
func ContainsWord(text, phrase string) bool {
	return wordIndex(text, phrase) >= 0
}

func wordIndex(text, phrase string) int {
	if phrase == "" {
		return -1
	}
	offset := 0
	for {
		i := strings.Index(text[offset:], phrase)
		if i < 0 {
			return -1
		}
		start := offset + i
		end := start + len(phrase)
		if boundaryBefore(text, start) && boundaryAfter(text, end) {
			return start
		}
		offset = start + 1
	}
}

func boundaryBefore(text string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return !isWordRune(r)
}

func boundaryAfter(text string, i int) bool {
	if i >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[i:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
