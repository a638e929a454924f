package query

import (
	"strings"
)

// Quote wraps a term in double quotes, dropping any quotes inside it.
func Quote(term string) string {
	return `"` + strings.TrimSpace(strings.ReplaceAll(term, `"`, "")) + `"`
}

// RenderGroup renders `("a" OR "b")`. A single variant keeps its parentheses.
func RenderGroup(variants []string) string {
	quoted := make([]string, 0, len(variants))
	for _, v := range dedupe(variants) {
		if q := Quote(v); q != `""` {
			quoted = append(quoted, q)
		}
	}
	if len(quoted) == 0 {
		return ""
	}
	return "(" + strings.Join(quoted, " OR ") + ")"
}

// Assemble builds the boolean expression behind scope. With no title group,
// the cleaned prompt stands in as the title; with no skill group, the title
// group is repeated in its place.
func Assemble(scope, cleaned string, groups []Group, negatives []string) string {
	var title, skill *Group
	for i := range groups {
		switch {
		case groups[i].Kind == JobTitle && title == nil:
			title = &groups[i]
		case groups[i].Kind == Skill && !groups[i].Entity && skill == nil:
			skill = &groups[i]
		}
	}

	ordered := make([]Group, 0, len(groups)+2)
	if title == nil {
		ordered = append(ordered, Group{Kind: JobTitle, Variants: []string{cleaned}})
	}
	for _, g := range groups {
		ordered = append(ordered, g)
		if skill == nil && g.Kind == JobTitle {
			ordered = append(ordered, Group{Kind: Skill, Variants: g.Variants})
		}
	}
	if skill == nil && title == nil {
		ordered = append([]Group{ordered[0], {Kind: Skill, Variants: ordered[0].Variants}}, ordered[1:]...)
	}

	parts := []string{scope}
	for _, g := range ordered {
		if r := RenderGroup(g.Variants); r != "" {
			parts = append(parts, r)
		}
	}
	for _, n := range dedupe(negatives) {
		if q := Quote(n); q != `""` {
			parts = append(parts, "-"+q)
		}
	}
	return strings.Join(parts, " ")
}
