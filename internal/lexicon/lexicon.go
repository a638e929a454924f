// Package lexicon holds the curated vocabularies the query compiler works from:
// location names, job-title variants, bilingual keyword pairs and the word
// lists that drive clause classification. Tables are embedded JSON, parsed
// once and treated as immutable. Every key is stored in folded form (see Fold).
package lexicon

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

//go:embed data/*.json
var dataFiles embed.FS

// Location is a resolved location table entry.
type Location struct {
	// Canonical is the English display name ("Belgrade").
	Canonical string
	// Country is the canonical country name; equal to Canonical for countries.
	Country string
	// CountryCode is the localized professional-network subdomain ("rs"); empty if none.
	CountryCode string
	IsCity      bool
	// Variants are the surface forms searched for this location.
	Variants []string
}

// Lexicon is the loaded, read-only set of tables.
type Lexicon struct {
	locations map[string]*Location
	matcher   *Matcher
	titles    map[string][]string
	keywords  map[string][]string

	Vocab Vocab
}

// Vocab is the classifier word lists. Word lists are folded on load.
type Vocab struct {
	Fillers              []string          `json:"fillers"`
	Articles             []string          `json:"articles"`
	NegativeMarkers      []string          `json:"negative_markers"`
	Conjunctions         []string          `json:"conjunctions"`
	Prepositions         []string          `json:"prepositions"`
	GroupNouns           []string          `json:"group_nouns"`
	Nationalities        []string          `json:"nationalities"`
	TitleHints           []string          `json:"title_hints"`
	Seniority            map[string]string `json:"seniority"`
	EducatorMarkers      []string          `json:"educator_markers"`
	OwnerMarkers         []string          `json:"owner_markers"`
	CompanyWords         []string          `json:"company_words"`
	OwnerVariants        []string          `json:"owner_variants"`
	EntityVariants       []string          `json:"entity_variants"`
	NonFreelancerMarkers []string          `json:"non_freelancer_markers"`
	EntryLevelMarkers    []string          `json:"entry_level_markers"`
	EntryLevelVariants   []string          `json:"entry_level_variants"`
	NumberWords          []string          `json:"number_words"`
	DefaultExclusions    []string          `json:"default_exclusions"`
	Stopwords            []string          `json:"stopwords"`

	sets map[string]map[string]bool
}

// Word list names accepted by Vocab.Has.
const (
	ListArticles      = "articles"
	ListConjunctions  = "conjunctions"
	ListPrepositions  = "prepositions"
	ListGroupNouns    = "group_nouns"
	ListNationalities = "nationalities"
	ListTitleHints    = "title_hints"
	ListEducator      = "educator_markers"
	ListOwner         = "owner_markers"
	ListCompany       = "company_words"
	ListStopwords     = "stopwords"
)

// Has reports whether the folded word is in the named list.
func (v *Vocab) Has(list, folded string) bool {
	return v.sets[list][folded]
}

// SeniorityDisplay returns the display form of a seniority modifier.
func (v *Vocab) SeniorityDisplay(folded string) (string, bool) {
	d, ok := v.Seniority[folded]
	return d, ok
}

type countryEntry struct {
	Name     string   `json:"name"`
	Code     string   `json:"code"`
	Aliases  []string `json:"aliases"`
	Lookup   []string `json:"lookup"`
	Cyrillic string   `json:"cyrillic"`
}

type cityEntry struct {
	Name     string   `json:"name"`
	Country  string   `json:"country"`
	Aliases  []string `json:"aliases"`
	Lookup   []string `json:"lookup"`
	Cyrillic string   `json:"cyrillic"`
}

type locationFile struct {
	Countries []countryEntry `json:"countries"`
	Cities    []cityEntry    `json:"cities"`
}

var (
	defaultOnce sync.Once
	defaultLex  *Lexicon
	defaultErr  error
)

// Default returns the embedded lexicon, loading it on first use.
func Default() (*Lexicon, error) {
	defaultOnce.Do(func() {
		defaultLex, defaultErr = load()
	})
	return defaultLex, defaultErr
}

// MustDefault is Default for callers that treat a broken embedded table as fatal.
func MustDefault() *Lexicon {
	lex, err := Default()
	if err != nil {
		panic(fmt.Sprintf("failed to load lexicon: %v", err))
	}
	return lex
}

func load() (*Lexicon, error) {
	var locs locationFile
	if err := readJSON("data/locations.json", &locs); err != nil {
		return nil, err
	}
	var titles map[string][]string
	if err := readJSON("data/titles.json", &titles); err != nil {
		return nil, err
	}
	var keywords map[string][]string
	if err := readJSON("data/keywords.json", &keywords); err != nil {
		return nil, err
	}
	var vocab Vocab
	if err := readJSON("data/vocab.json", &vocab); err != nil {
		return nil, err
	}

	lex := &Lexicon{
		locations: make(map[string]*Location),
		titles:    foldKeys(titles),
		keywords:  foldKeys(keywords),
		Vocab:     vocab,
	}
	lex.Vocab.fold()

	if err := lex.indexLocations(locs); err != nil {
		return nil, err
	}
	return lex, nil
}

func readJSON(name string, v any) error {
	data, err := dataFiles.ReadFile(name)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return nil
}

func foldKeys(m map[string][]string) map[string][]string {
	out := make(map[string][]string, len(m))
	for k, v := range m {
		out[Fold(k)] = v
	}
	return out
}

func foldAll(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if f := Fold(w); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func (v *Vocab) fold() {
	v.Fillers = foldAll(v.Fillers)
	v.Articles = foldAll(v.Articles)
	v.NegativeMarkers = foldAll(v.NegativeMarkers)
	v.Conjunctions = foldAll(v.Conjunctions)
	v.Prepositions = foldAll(v.Prepositions)
	v.GroupNouns = foldAll(v.GroupNouns)
	v.Nationalities = foldAll(v.Nationalities)
	v.TitleHints = foldAll(v.TitleHints)
	v.EducatorMarkers = foldAll(v.EducatorMarkers)
	v.OwnerMarkers = foldAll(v.OwnerMarkers)
	v.CompanyWords = foldAll(v.CompanyWords)
	v.NonFreelancerMarkers = foldAll(v.NonFreelancerMarkers)
	v.EntryLevelMarkers = foldAll(v.EntryLevelMarkers)
	v.Stopwords = foldAll(v.Stopwords)

	seniority := make(map[string]string, len(v.Seniority))
	for k, d := range v.Seniority {
		seniority[Fold(k)] = d
	}
	v.Seniority = seniority

	v.sets = map[string]map[string]bool{
		ListArticles:      toSet(v.Articles),
		ListConjunctions:  toSet(v.Conjunctions),
		ListPrepositions:  toSet(v.Prepositions),
		ListGroupNouns:    toSet(v.GroupNouns),
		ListNationalities: toSet(v.Nationalities),
		ListTitleHints:    toSet(v.TitleHints),
		ListEducator:      toSet(v.EducatorMarkers),
		ListOwner:         toSet(v.OwnerMarkers),
		ListCompany:       toSet(v.CompanyWords),
		ListStopwords:     toSet(v.Stopwords),
	}
}

func toSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

func (lex *Lexicon) indexLocations(f locationFile) error {
	countries := make(map[string]*Location, len(f.Countries))
	for _, c := range f.Countries {
		loc := &Location{
			Canonical:   c.Name,
			Country:     c.Name,
			CountryCode: c.Code,
		}
		loc.Variants = buildVariants(c.Name, c.Aliases, "", c.Cyrillic)
		countries[c.Name] = loc
		lex.register(loc, c.Name, c.Aliases, c.Lookup, c.Cyrillic)
	}

	for _, c := range f.Cities {
		country, ok := countries[c.Country]
		if !ok {
			return fmt.Errorf("city %q references unknown country %q", c.Name, c.Country)
		}
		loc := &Location{
			Canonical:   c.Name,
			Country:     country.Canonical,
			CountryCode: country.CountryCode,
			IsCity:      true,
		}
		loc.Variants = buildVariants(c.Name, c.Aliases, c.Name+", "+country.Canonical, c.Cyrillic)
		lex.register(loc, c.Name, c.Aliases, c.Lookup, c.Cyrillic)

		// "Belgrade, Serbia" and "Beograd, Srbija" resolve to the city.
		for _, cityName := range append([]string{c.Name}, c.Aliases...) {
			for _, countryName := range append([]string{country.Canonical}, countryAliases(f, c.Country)...) {
				lex.locations[Fold(cityName+", "+countryName)] = loc
			}
		}
	}

	keys := make([]string, 0, len(lex.locations))
	for k := range lex.locations {
		if !strings.Contains(k, ",") {
			keys = append(keys, k)
		}
	}
	lex.matcher = NewMatcher(keys)
	return nil
}

func countryAliases(f locationFile, name string) []string {
	for _, c := range f.Countries {
		if c.Name == name {
			return c.Aliases
		}
	}
	return nil
}

func (lex *Lexicon) register(loc *Location, name string, aliases, lookup []string, cyrillic string) {
	forms := append([]string{name}, aliases...)
	forms = append(forms, lookup...)
	if cyrillic != "" {
		forms = append(forms, cyrillic)
	}
	for _, form := range forms {
		if key := Fold(form); key != "" {
			lex.locations[key] = loc
		}
	}
}

// buildVariants orders a location's surface forms: canonical, aliases,
// ASCII transliterations, the "City, Country" composite, then the Cyrillic form.
func buildVariants(name string, aliases []string, composite, cyrillic string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(s string) {
		s = strings.TrimSpace(s)
		key := strings.ToLower(s)
		if s == "" || seen[key] {
			return
		}
		seen[key] = true
		out = append(out, s)
	}

	add(name)
	for _, a := range aliases {
		add(a)
	}
	add(ASCII(name))
	for _, a := range aliases {
		add(ASCII(a))
	}
	add(composite)
	add(cyrillic)
	return out
}

// LookupLocation resolves any known surface form, in any case or script.
func (lex *Lexicon) LookupLocation(s string) (*Location, bool) {
	loc, ok := lex.locations[Fold(s)]
	return loc, ok
}

// FindLocation returns the longest location mentioned in folded text, with the
// byte offsets of the match inside that text.
func (lex *Lexicon) FindLocation(folded string) (*Location, int, int, bool) {
	key, start, ok := lex.matcher.Longest(folded)
	if !ok {
		return nil, 0, 0, false
	}
	return lex.locations[key], start, start + len(key), true
}

// TitleVariants returns the curated variants of a modifier-stripped title.
func (lex *Lexicon) TitleVariants(title string) ([]string, bool) {
	key := Fold(title)
	if v, ok := lex.titles[key]; ok {
		return v, true
	}
	if singular := strings.TrimSuffix(key, "s"); singular != key {
		if v, ok := lex.titles[singular]; ok {
			return v, true
		}
	}
	return nil, false
}

// KeywordVariants returns the synonym set for a skill phrase.
func (lex *Lexicon) KeywordVariants(skill string) ([]string, bool) {
	v, ok := lex.keywords[Fold(skill)]
	return v, ok
}
