package query

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/jonathan/profile-sourcer/internal/lexicon"
)

// Group is one OR-group of interchangeable surface forms.
type Group struct {
	Kind     Kind     `json:"kind"`
	Variants []string `json:"variants"`
	// Entity marks the company-noun group emitted for ownership phrasing.
	Entity bool `json:"entity,omitempty"`
}

var experienceNumbers = regexp.MustCompile(`(\d+)(?:\s*(?:-|–|to|do)\s*(\d+))?`)

// ExpandTitle recombines the seniority modifier with each curated variant of
// the modifier-stripped title. Unknown titles are their own only variant.
func ExpandTitle(lex *lexicon.Lexicon, title string) []string {
	var modifier string
	var base []string
	for _, word := range strings.Fields(title) {
		if display, ok := lex.Vocab.SeniorityDisplay(lexicon.Fold(word)); ok {
			if modifier == "" {
				modifier = display
			}
			continue
		}
		base = append(base, word)
	}
	stripped := strings.Join(base, " ")
	if stripped == "" {
		return []string{title}
	}

	variants, ok := lex.TitleVariants(strings.ToLower(stripped))
	if !ok {
		variants = []string{stripped}
	}
	if modifier == "" {
		return dedupe(variants)
	}

	out := make([]string, 0, len(variants))
	for _, v := range variants {
		out = append(out, modifier+" "+v)
	}
	return dedupe(out)
}

// ExpandSkill returns the keyword synonyms for a skill, or the skill itself.
func ExpandSkill(lex *lexicon.Lexicon, skill string) []string {
	if v, ok := lex.KeywordVariants(skill); ok {
		return dedupe(v)
	}
	return []string{skill}
}

// ExpandLocation returns the curated variant set of a location term.
func ExpandLocation(lex *lexicon.Lexicon, name string) []string {
	if loc, ok := lex.LookupLocation(name); ok {
		return dedupe(loc.Variants)
	}
	return []string{name}
}

// ExpandExperience maps "N years" phrasing to search wording. Ranges use the
// lower bound for the number words and the upper bound for the entry-level test.
func ExpandExperience(lex *lexicon.Lexicon, surface string) []string {
	m := experienceNumbers.FindStringSubmatch(surface)
	if m == nil {
		return []string{surface}
	}
	low, err := strconv.Atoi(m[1])
	if err != nil {
		return []string{surface}
	}
	high := low
	if m[2] != "" {
		if h, err := strconv.Atoi(m[2]); err == nil {
			high = h
		}
	}

	var out []string
	if high <= 2 {
		out = append(out, lex.Vocab.EntryLevelVariants...)
	}
	if low >= 1 && low <= 6 && low < len(lex.Vocab.NumberWords) {
		word := lex.Vocab.NumberWords[low]
		unit := "years"
		if low == 1 {
			unit = "year"
		}
		out = append(out, word+" "+unit, word+" "+unit+" experience")
	}
	if len(out) == 0 {
		return []string{surface}
	}
	return dedupe(out)
}

// Expand turns a term set into ordered groups: title, entity, skill,
// location, experience. Empty groups are left out.
func Expand(lex *lexicon.Lexicon, set *TermSet) []Group {
	var groups []Group

	var titles []string
	if set.Ownership {
		titles = append(titles, lex.Vocab.OwnerVariants...)
	}
	for _, t := range set.Titles {
		titles = append(titles, ExpandTitle(lex, t)...)
	}
	groups = appendGroup(groups, Group{Kind: JobTitle, Variants: titles})

	if set.Entity {
		groups = appendGroup(groups, Group{Kind: Skill, Variants: lex.Vocab.EntityVariants, Entity: true})
	}

	var skills []string
	for _, s := range set.Skills {
		skills = append(skills, ExpandSkill(lex, s)...)
	}
	groups = appendGroup(groups, Group{Kind: Skill, Variants: skills})

	var locations []string
	for _, l := range set.Locations {
		locations = append(locations, ExpandLocation(lex, l)...)
	}
	groups = appendGroup(groups, Group{Kind: Location, Variants: locations})

	var experience []string
	for _, e := range set.Experience {
		experience = append(experience, ExpandExperience(lex, e)...)
	}
	if set.Intent.EntryLevel {
		experience = append(experience, lex.Vocab.EntryLevelVariants...)
	}
	groups = appendGroup(groups, Group{Kind: Experience, Variants: experience})

	return groups
}

func appendGroup(groups []Group, g Group) []Group {
	g.Variants = dedupe(g.Variants)
	if len(g.Variants) == 0 {
		return groups
	}
	return append(groups, g)
}

// dedupe drops empty and case-insensitively repeated entries, keeping order.
func dedupe(in []string) []string {
	var out []string
	for _, s := range in {
		out = appendUnique(out, s)
	}
	return out
}
