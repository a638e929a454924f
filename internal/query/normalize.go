package query

import (
	"errors"
	"sort"
	"strings"

	"github.com/jonathan/profile-sourcer/internal/lexicon"
)

// ErrNoTerms is returned when a prompt has nothing left to search for.
var ErrNoTerms = errors.New("no terms extracted")

// Normalized is a cleaned prompt with its folded lookup form.
type Normalized struct {
	Text   string
	Folded string
}

var punctuation = strings.NewReplacer(
	"‘", "'", "’", "'", "‚", "'", "‛", "'", "`", "'",
	"“", `"`, "”", `"`, "„", `"`, "‟", `"`, "«", `"`, "»", `"`,
	"?", ".", "!", ".", "…", ".",
)

// edgeTrim is stripped from tokens when comparing them to filler phrases;
// textTrim from both ends of the cleaned text.
const (
	edgeTrim = " ,.;:-–—\"'"
	textTrim = " ,.;:-–—"
)

// Normalize neutralizes punctuation, collapses whitespace and strips lead-in
// filler phrases and articles. Text is empty when the prompt was all filler.
func Normalize(lex *lexicon.Lexicon, prompt string) Normalized {
	text := punctuation.Replace(prompt)
	tokens := strings.Fields(text)

	fillers := splitPhrases(lex.Vocab.Fillers)
	for {
		n := leadingFiller(tokens, fillers, lex)
		if n == 0 {
			break
		}
		tokens = tokens[n:]
	}

	text = strings.Trim(strings.Join(tokens, " "), textTrim)
	return Normalized{Text: text, Folded: lexicon.Fold(text)}
}

// splitPhrases returns folded phrases as word lists, longest first.
func splitPhrases(phrases []string) [][]string {
	out := make([][]string, 0, len(phrases))
	for _, p := range phrases {
		out = append(out, strings.Fields(p))
	}
	sort.SliceStable(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	return out
}

// leadingFiller returns how many leading tokens form a filler phrase or an article.
func leadingFiller(tokens []string, fillers [][]string, lex *lexicon.Lexicon) int {
	if len(tokens) == 0 {
		return 0
	}
	folded := make([]string, len(tokens))
	for i, tok := range tokens {
		folded[i] = lexicon.Fold(strings.Trim(tok, edgeTrim))
	}

	if folded[0] == "" {
		return 1
	}
	for _, phrase := range fillers {
		if hasWordPrefix(folded, phrase) {
			return len(phrase)
		}
	}
	if lex.Vocab.Has(lexicon.ListArticles, folded[0]) {
		return 1
	}
	return 0
}

func hasWordPrefix(words, prefix []string) bool {
	if len(prefix) == 0 || len(prefix) > len(words) {
		return false
	}
	for i, w := range prefix {
		if words[i] != w {
			return false
		}
	}
	return true
}
