package sources

import (
	"fmt"
	"strings"

	"github.com/jonathan/profile-sourcer/internal/lexicon"
)

// Adapt rewrites a compiled query for one destination: the leading scope
// token is replaced with the destination's own and, where the destination
// needs it, nested OR-groups are flattened.
func Adapt(query string, dest Destination, countryCode string) (string, error) {
	cfg, ok := Lookup(dest)
	if !ok {
		return "", fmt.Errorf("unknown destination %q", dest)
	}

	out := cfg.ScopeToken(countryCode)
	if body := StripScope(query); body != "" {
		out += " " + body
	}
	if cfg.Flatten {
		out = FlattenGroups(out)
	}
	return out, nil
}

// StripScope removes a leading site: token and returns the remainder verbatim.
func StripScope(query string) string {
	q := strings.TrimSpace(query)
	if !strings.HasPrefix(strings.ToLower(q), "site:") {
		return q
	}
	if i := strings.IndexAny(q, " \t\n"); i >= 0 {
		return strings.TrimSpace(q[i:])
	}
	return ""
}

// ScopeOf returns the leading site: token of a query, or "".
func ScopeOf(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 || !strings.HasPrefix(strings.ToLower(fields[0]), "site:") {
		return ""
	}
	return fields[0]
}

// FlattenGroups rewrites every "((A) (B) (C))" into "(A OR B OR C)".
// Quoted text is never treated as structure.
func FlattenGroups(q string) string {
	var b strings.Builder
	b.Grow(len(q))
	for i := 0; i < len(q); {
		if q[i] == '"' {
			end := strings.IndexByte(q[i+1:], '"')
			if end < 0 {
				b.WriteString(q[i:])
				break
			}
			b.WriteString(q[i : i+end+2])
			i += end + 2
			continue
		}
		if q[i] == '(' {
			if end := matchParen(q, i); end > 0 {
				if groups, ok := splitGroups(q[i+1 : end]); ok && len(groups) >= 2 {
					b.WriteString("(" + strings.Join(groups, " OR ") + ")")
					i = end + 1
					continue
				}
			}
		}
		b.WriteByte(q[i])
		i++
	}
	return b.String()
}

// matchParen returns the index of the parenthesis closing the one at open, or -1.
func matchParen(q string, open int) int {
	depth := 0
	inQuote := false
	for i := open; i < len(q); i++ {
		switch q[i] {
		case '"':
			inQuote = !inQuote
		case '(':
			if !inQuote {
				depth++
			}
		case ')':
			if !inQuote {
				depth--
				if depth == 0 {
					return i
				}
			}
		}
	}
	return -1
}

// splitGroups succeeds only when s is nothing but whitespace-separated
// parenthesized groups; it returns their contents.
func splitGroups(s string) ([]string, bool) {
	var groups []string
	for i := 0; i < len(s); {
		switch s[i] {
		case ' ', '\t', '\n':
			i++
		case '(':
			end := matchParen(s, i)
			if end < 0 {
				return nil, false
			}
			inner := strings.TrimSpace(s[i+1 : end])
			if inner == "" {
				return nil, false
			}
			groups = append(groups, FlattenGroups(inner))
			i = end + 1
		default:
			return nil, false
		}
	}
	return groups, true
}

// ShouldSkip applies the destination's skip policy to one request.
func (c *Config) ShouldSkip(ownerIntent, nonFreelancerIntent bool, finalQuery string) bool {
	if !c.SkipOnOwnerIntent {
		return false
	}
	if ownerIntent || nonFreelancerIntent {
		return true
	}

	lex, err := lexicon.Default()
	if err != nil {
		return false
	}
	folded := lexicon.Fold(finalQuery)
	for _, marker := range lex.Vocab.OwnerMarkers {
		if lexicon.ContainsWord(folded, marker) {
			return true
		}
	}
	for _, marker := range lex.Vocab.NonFreelancerMarkers {
		if lexicon.ContainsWord(folded, marker) {
			return true
		}
	}
	return false
}
