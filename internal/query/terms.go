// Package query compiles a free-text candidate description into a boolean
// web-search expression: normalize, classify clauses into terms, expand each
// term into its surface variants, then assemble OR-groups behind a scope token.
package query

import (
	"strings"
)

// Kind is the classification of one extracted term.
type Kind int

const (
	JobTitle Kind = iota
	Skill
	Location
	Experience
	Negative
)

func (k Kind) String() string {
	switch k {
	case JobTitle:
		return "job_title"
	case Skill:
		return "skill"
	case Location:
		return "location"
	case Experience:
		return "experience"
	case Negative:
		return "negative"
	default:
		return "unknown"
	}
}

// MarshalText renders the kind by name in JSON output.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Term is one classified surface form.
type Term struct {
	Kind    Kind   `json:"kind"`
	Surface string `json:"surface"`
}

// Intent holds prompt-level signals that change query shape or routing.
type Intent struct {
	Owner         bool `json:"owner"`
	NonFreelancer bool `json:"non_freelancer"`
	Educator      bool `json:"educator"`
	EntryLevel    bool `json:"entry_level"`
}

// TermSet is the classifier output. Each list is duplicate-free under
// case-insensitive comparison and keeps first-seen order.
type TermSet struct {
	Titles     []string `json:"titles,omitempty"`
	Skills     []string `json:"skills,omitempty"`
	Locations  []string `json:"locations,omitempty"`
	Experience []string `json:"experience,omitempty"`
	Negatives  []string `json:"negatives,omitempty"`
	// DroppedNegatives are requested exclusions that are never applied.
	DroppedNegatives []string `json:"dropped_negatives,omitempty"`
	// Ownership marks owner/founder phrasing; Entity marks a company noun alongside it.
	Ownership bool   `json:"ownership,omitempty"`
	Entity    bool   `json:"entity,omitempty"`
	Intent    Intent `json:"intent"`
}

// Terms flattens the set into classified terms, in group order.
func (s *TermSet) Terms() []Term {
	var out []Term
	add := func(kind Kind, list []string) {
		for _, v := range list {
			out = append(out, Term{Kind: kind, Surface: v})
		}
	}
	add(JobTitle, s.Titles)
	add(Skill, s.Skills)
	add(Location, s.Locations)
	add(Experience, s.Experience)
	add(Negative, s.Negatives)
	return out
}

func appendUnique(list []string, s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return list
	}
	for _, existing := range list {
		if strings.EqualFold(existing, s) {
			return list
		}
	}
	return append(list, s)
}
