package query

import (
	"regexp"
	"slices"
	"strings"

	"github.com/jonathan/profile-sourcer/internal/lexicon"
)

var (
	// sentenceSplit breaks on sentence punctuation; a period inside "Node.js" or ".NET" is kept.
	sentenceSplit = regexp.MustCompile(`[.;](?:\s+|$)|[;\n]+`)
	// locationBoundary is the language-spanning "in"/"u" location preposition.
	locationBoundary = regexp.MustCompile(`(?i)\s+(?:in|u)\s+`)
	experiencePattern = regexp.MustCompile(`(\d+)\s*(?:(?:-|–|to|do)\s*(\d+))?\s*\+?\s*(?:years?|yrs?|godin[aeu]?)\b`)
	entryLevelRange   = regexp.MustCompile(`\b0\s*(?:-|–|to|do)\s*[12]\s*(?:years?|yrs?|godin[aeu]?)\b`)
)

// tokenTrim is removed from both ends of every token.
const tokenTrim = "\"'()[]{}:!?"

type token struct {
	raw  string
	fold string
}

func tokenize(s string) []token {
	s = strings.ReplaceAll(s, ",", " , ")
	var out []token
	for _, f := range strings.Fields(s) {
		raw := strings.Trim(f, tokenTrim)
		raw = strings.TrimRight(raw, ".")
		if raw == "" {
			continue
		}
		out = append(out, token{raw: raw, fold: lexicon.Fold(raw)})
	}
	return out
}

func joinRaw(tokens []token) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = t.raw
	}
	return strings.Join(parts, " ")
}

func joinFold(tokens []token) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = t.fold
	}
	return strings.Join(parts, " ")
}

// tokenAt maps a byte offset in joinFold(tokens) to a token index.
func tokenAt(tokens []token, offset int) int {
	pos := 0
	for i, t := range tokens {
		if offset < pos+len(t.fold)+1 {
			return i
		}
		pos += len(t.fold) + 1
	}
	return len(tokens)
}

type classifier struct {
	lex *lexicon.Lexicon
	set *TermSet
	// positive collects folded fragments that were not exclusions.
	positive []string
}

// Classify splits a normalized prompt into fragments and sorts each into
// title, skill, location, experience or exclusion terms.
func Classify(lex *lexicon.Lexicon, n Normalized) *TermSet {
	c := &classifier{lex: lex, set: &TermSet{}}

	for _, sentence := range sentenceSplit.Split(n.Text, -1) {
		tokens := tokenize(sentence)
		if len(tokens) == 0 {
			continue
		}
		if k := c.negativePrefix(tokens); k > 0 {
			c.addNegatives(tokens[k:])
			continue
		}
		for _, clause := range strings.Split(sentence, ",") {
			for _, fragment := range locationBoundary.Split(clause, -1) {
				if tokens := tokenize(fragment); len(tokens) > 0 {
					c.classify(tokens)
				}
			}
		}
	}

	c.finish(n)
	return c.set
}

func (c *classifier) classify(tokens []token) {
	// (a) exclusion marker
	if k := c.negativePrefix(tokens); k > 0 {
		c.addNegatives(tokens[k:])
		return
	}

	// (b) location; the text on either side is classified again
	loc, start, end, ok := c.lex.FindLocation(joinFold(tokens))
	if !ok {
		c.classifyRest(tokens)
		return
	}
	c.set.Locations = appendUnique(c.set.Locations, loc.Canonical)
	first, last := tokenAt(tokens, start), tokenAt(tokens, end-1)
	c.positive = append(c.positive, joinFold(tokens[first:last+1]))

	if prefix := c.trimTrailing(tokens[:first], lexicon.ListPrepositions); len(prefix) > 0 {
		c.classify(prefix)
	}
	// "in Belgrade without agency people", "in Belgrade with 5 years"
	if tail := c.trimLeading(tokens[last+1:], lexicon.ListPrepositions); len(tail) > 0 {
		c.classify(tail)
	}
}

// classifyRest runs rules (c) through (e) on a fragment with no location.
func (c *classifier) classifyRest(tokens []token) {
	if k := c.negativePrefix(tokens); k > 0 {
		c.addNegatives(tokens[k:])
		return
	}
	// "Go developer without agency people": the tail is an exclusion
	if i, k := c.negativeInside(tokens); i > 0 {
		c.addNegatives(tokens[i+k:])
		tokens = tokens[:i]
	}
	c.positive = append(c.positive, joinFold(tokens))

	// (c) experience; the remainder falls through to role and skill rules
	folded := joinFold(tokens)
	if loc := experiencePattern.FindStringIndex(folded); loc != nil {
		first, last := tokenAt(tokens, loc[0]), tokenAt(tokens, loc[1]-1)
		c.set.Experience = appendUnique(c.set.Experience, joinRaw(tokens[first:last+1]))
		rest := append(append([]token{}, tokens[:first]...), tokens[last+1:]...)
		if len(rest) == 0 {
			return
		}
		tokens = rest
	}

	// ownership phrasing: "owners of metal machining companies"
	if c.hasAny(tokens, lexicon.ListOwner) {
		c.set.Ownership = true
		if c.hasAny(tokens, lexicon.ListCompany) {
			c.set.Entity = true
		}
		c.addSkillRuns(tokens, func(t token) bool {
			return c.lex.Vocab.Has(lexicon.ListOwner, t.fold) || c.lex.Vocab.Has(lexicon.ListCompany, t.fold)
		})
		return
	}

	// (d) job title, with the non-role words kept as skills
	if last := c.lastIndex(tokens, lexicon.ListTitleHints); last >= 0 {
		title := c.trimLeading(tokens[:last+1], lexicon.ListStopwords)
		c.set.Titles = appendUnique(c.set.Titles, joinRaw(title))
		c.addSkillRuns(tokens, func(t token) bool {
			return c.lex.Vocab.Has(lexicon.ListTitleHints, t.fold)
		})
		return
	}

	// (e) skills
	c.addSkillRuns(tokens, nil)
}

// addSkillRuns adds each contiguous run of content words as one skill. skip
// marks additional separator words.
func (c *classifier) addSkillRuns(tokens []token, skip func(token) bool) {
	var run []token
	flush := func() {
		if len(run) > 0 {
			c.set.Skills = appendUnique(c.set.Skills, joinRaw(run))
			run = nil
		}
	}
	for _, t := range tokens {
		if c.isFunctionWord(t) || (skip != nil && skip(t)) {
			flush()
			continue
		}
		run = append(run, t)
	}
	flush()
}

func (c *classifier) isFunctionWord(t token) bool {
	v := &c.lex.Vocab
	if t.raw == "," || v.Has(lexicon.ListStopwords, t.fold) || v.Has(lexicon.ListConjunctions, t.fold) ||
		v.Has(lexicon.ListArticles, t.fold) || v.Has(lexicon.ListPrepositions, t.fold) {
		return true
	}
	if _, ok := v.SeniorityDisplay(t.fold); ok {
		return true
	}
	for _, m := range v.EntryLevelMarkers {
		if m == t.fold {
			return true
		}
	}
	return false
}

// negativePrefix returns the token length of a leading exclusion marker.
func (c *classifier) negativePrefix(tokens []token) int {
	words := make([]string, len(tokens))
	for i, t := range tokens {
		words[i] = t.fold
	}
	best := 0
	for _, marker := range c.lex.Vocab.NegativeMarkers {
		m := strings.Fields(marker)
		if len(m) > best && hasWordPrefix(words, m) {
			best = len(m)
		}
	}
	return best
}

// shortMarkers are too common mid-sentence to open an exclusion there.
var shortMarkers = map[string]bool{"no": true, "not": true, "ne": true}

// negativeInside finds an exclusion marker after the first token and returns
// its index and token length.
func (c *classifier) negativeInside(tokens []token) (int, int) {
	for i := 1; i < len(tokens); i++ {
		if shortMarkers[tokens[i].fold] {
			continue
		}
		if k := c.negativePrefix(tokens[i:]); k > 0 {
			return i, k
		}
	}
	return -1, 0
}

// addNegatives splits an exclusion body on conjunctions and records each part.
// Parts naming a nationality or ethnicity are set aside, never excluded.
func (c *classifier) addNegatives(tokens []token) {
	var part []token
	flush := func() {
		part = c.trimLeading(part, lexicon.ListStopwords)
		part = c.trimLeading(part, lexicon.ListArticles)
		part = c.trimTrailing(part, lexicon.ListGroupNouns)
		part = c.trimTrailing(part, lexicon.ListStopwords)
		if len(part) == 0 {
			return
		}
		surface := joinRaw(part)
		if c.hasAny(part, lexicon.ListNationalities) {
			c.set.DroppedNegatives = appendUnique(c.set.DroppedNegatives, surface)
		} else {
			c.set.Negatives = appendUnique(c.set.Negatives, surface)
		}
		part = nil
	}
	for _, t := range tokens {
		if t.raw == "," || c.lex.Vocab.Has(lexicon.ListConjunctions, t.fold) {
			flush()
			continue
		}
		part = append(part, t)
	}
	flush()
}

func (c *classifier) hasAny(tokens []token, list string) bool {
	return c.lastIndex(tokens, list) >= 0
}

func (c *classifier) lastIndex(tokens []token, list string) int {
	for i := len(tokens) - 1; i >= 0; i-- {
		if c.lex.Vocab.Has(list, tokens[i].fold) {
			return i
		}
	}
	return -1
}

func (c *classifier) trimLeading(tokens []token, list string) []token {
	for len(tokens) > 0 && (tokens[0].raw == "," || c.lex.Vocab.Has(list, tokens[0].fold)) {
		tokens = tokens[1:]
	}
	return tokens
}

func (c *classifier) trimTrailing(tokens []token, list string) []token {
	for len(tokens) > 0 {
		last := tokens[len(tokens)-1]
		if last.raw != "," && !c.lex.Vocab.Has(list, last.fold) {
			break
		}
		tokens = tokens[:len(tokens)-1]
	}
	return tokens
}

// finish resolves prompt-level signals once every fragment is classified.
func (c *classifier) finish(n Normalized) {
	set := c.set
	v := &c.lex.Vocab
	positive := strings.Join(c.positive, " . ")

	// last resort: any location anywhere outside exclusion clauses
	if len(set.Locations) == 0 {
		if loc, _, _, ok := c.lex.FindLocation(positive); ok {
			set.Locations = appendUnique(set.Locations, loc.Canonical)
		}
	}
	set.Locations = c.dropImpliedCountries(set.Locations)

	set.Intent.Owner = set.Ownership || containsAnyWord(positive, v.OwnerMarkers)
	set.Intent.Educator = containsAnyWord(positive, v.EducatorMarkers)
	set.Intent.EntryLevel = containsAnyWord(positive, v.EntryLevelMarkers) || entryLevelRange.MatchString(positive)
	set.Intent.NonFreelancer = containsAnyWord(n.Folded, v.NonFreelancerMarkers)

	if !set.Intent.Educator && c.onlyDefaultNegatives() {
		for _, d := range v.DefaultExclusions {
			set.Negatives = appendUnique(set.Negatives, d)
		}
	}
}

// onlyDefaultNegatives reports whether every requested exclusion is itself a
// default one. "without bootcamp grads" keeps the other defaults; "without
// agency people" replaces them.
func (c *classifier) onlyDefaultNegatives() bool {
	for _, neg := range c.set.Negatives {
		folded := lexicon.Fold(neg)
		if !slices.ContainsFunc(c.lex.Vocab.DefaultExclusions, func(d string) bool { return lexicon.Fold(d) == folded }) {
			return false
		}
	}
	return true
}

// dropImpliedCountries removes a country already implied by one of the cities.
func (c *classifier) dropImpliedCountries(locations []string) []string {
	implied := make(map[string]bool)
	for _, name := range locations {
		if loc, ok := c.lex.LookupLocation(name); ok && loc.IsCity {
			implied[loc.Country] = true
		}
	}
	var out []string
	for _, name := range locations {
		loc, ok := c.lex.LookupLocation(name)
		if ok && !loc.IsCity && implied[loc.Canonical] {
			continue
		}
		out = append(out, name)
	}
	return out
}

func containsAnyWord(text string, words []string) bool {
	for _, w := range words {
		if lexicon.ContainsWord(text, w) {
			return true
		}
	}
	return false
}
