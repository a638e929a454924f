package query

import (
	"fmt"

	"github.com/jonathan/profile-sourcer/internal/lexicon"
	"github.com/jonathan/profile-sourcer/internal/sources"
)

// Options tune one compilation.
type Options struct {
	// CityHint names the city used to rank results; it does not change the query.
	CityHint string
}

// Compiled is the rule-based result for one prompt.
type Compiled struct {
	Cleaned   string   `json:"cleaned"`
	Terms     *TermSet `json:"terms"`
	Groups    []Group  `json:"groups"`
	Negatives []string `json:"negatives"`
	// Country and CountryCode are inferred from the first location term.
	Country     string `json:"country,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
	// City and CityVariants drive location-match ranking of results.
	City         string   `json:"city,omitempty"`
	CityVariants []string `json:"city_variants,omitempty"`
	// Query is scoped to the professional network; use For for other destinations.
	Query string `json:"query"`
}

// For adapts the compiled query to a destination.
func (c *Compiled) For(dest sources.Destination) (string, error) {
	return sources.Adapt(c.Query, dest, c.CountryCode)
}

// Compiler turns prompts into queries using one lexicon.
type Compiler struct {
	lex *lexicon.Lexicon
}

// NewCompiler creates a compiler over lex.
func NewCompiler(lex *lexicon.Lexicon) *Compiler {
	return &Compiler{lex: lex}
}

// NewDefaultCompiler creates a compiler over the embedded lexicon.
func NewDefaultCompiler() (*Compiler, error) {
	lex, err := lexicon.Default()
	if err != nil {
		return nil, err
	}
	return NewCompiler(lex), nil
}

// Compile runs normalize, classify, expand and assemble. It returns
// ErrNoTerms when the prompt is empty after normalization.
func (c *Compiler) Compile(prompt string, opts Options) (*Compiled, error) {
	n := Normalize(c.lex, prompt)
	if n.Text == "" {
		return nil, ErrNoTerms
	}

	set := Classify(c.lex, n)

	out := &Compiled{
		Cleaned:   n.Text,
		Terms:     set,
		Groups:    Expand(c.lex, set),
		Negatives: set.Negatives,
	}

	for _, name := range set.Locations {
		loc, ok := c.lex.LookupLocation(name)
		if !ok {
			continue
		}
		if out.Country == "" {
			out.Country, out.CountryCode = loc.Country, loc.CountryCode
		}
		if loc.IsCity && out.City == "" {
			out.City, out.CityVariants = loc.Canonical, loc.Variants
		}
	}
	if opts.CityHint != "" {
		if loc, ok := c.lex.LookupLocation(opts.CityHint); ok {
			out.City, out.CityVariants = loc.Canonical, loc.Variants
		} else {
			out.City, out.CityVariants = opts.CityHint, []string{opts.CityHint}
		}
	}

	network, ok := sources.Lookup(sources.ProfessionalNetwork)
	if !ok {
		return nil, fmt.Errorf("professional network destination not configured")
	}
	out.Query = Assemble(network.ScopeToken(out.CountryCode), out.Cleaned, out.Groups, out.Negatives)
	return out, nil
}
