// Package aggregate turns raw provider hits into one ordered, deduplicated,
// capped candidate list.
package aggregate

import (
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"github.com/jonathan/profile-sourcer/internal/lexicon"
	"github.com/jonathan/profile-sourcer/internal/search"
	"github.com/jonathan/profile-sourcer/internal/sources"
	"github.com/jonathan/profile-sourcer/internal/types"
)

// Bucket is one destination's hits in provider order.
type Bucket struct {
	Destination sources.Destination
	Items       []search.Item
}

// Options control merging.
type Options struct {
	// Cap is the maximum number of candidates; zero means unlimited.
	Cap int
	// CityVariants are matched against name and snippet to rank local candidates first.
	CityVariants []string
}

var rawSnippetPolicy = bluemonday.UGCPolicy()

// Merge filters, converts and merges buckets. With one bucket the provider
// order is kept; with several, each bucket is ranked by city match and the
// buckets are interleaved by position.
func Merge(buckets []Bucket, opts Options) []types.Candidate {
	converted := make([][]types.Candidate, 0, len(buckets))
	for _, b := range buckets {
		converted = append(converted, Convert(b))
	}

	if len(converted) == 1 {
		return truncate(dedupe(converted[0]), opts.Cap)
	}

	cities := foldAll(opts.CityVariants)
	if len(cities) > 0 {
		for _, bucket := range converted {
			sort.SliceStable(bucket, func(i, j int) bool {
				return matchesCity(bucket[i], cities) && !matchesCity(bucket[j], cities)
			})
		}
	}
	return interleave(converted, opts.Cap)
}

// Convert keeps the hits whose URL is a profile of the bucket's destination.
func Convert(b Bucket) []types.Candidate {
	cfg, ok := sources.Lookup(b.Destination)
	if !ok {
		return nil
	}
	out := make([]types.Candidate, 0, len(b.Items))
	for _, item := range b.Items {
		canonical, ok := cfg.Profile(item.Link)
		if !ok {
			continue
		}
		out = append(out, types.Candidate{
			Name:       cfg.CandidateName(item.Title),
			ProfileURL: canonical,
			Snippet:    MergeSnippets(item.Snippet, item.HTMLSnippet),
			RawSnippet: strings.TrimSpace(rawSnippetPolicy.Sanitize(item.HTMLSnippet)),
			Source:     cfg.Label,
		})
	}
	return out
}

// MergeSnippets joins the plain snippet and the text of the HTML snippet,
// dropping a part whose normalized text was already seen.
func MergeSnippets(plain, html string) string {
	var parts []string
	seen := make(map[string]bool)
	for _, part := range []string{plain, StripHTML(html)} {
		part = strings.Join(strings.Fields(part), " ")
		key := normalizeSnippet(part)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		parts = append(parts, part)
	}
	return strings.Join(parts, "\n")
}

// StripHTML returns the text content of an HTML fragment.
func StripHTML(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return bluemonday.StrictPolicy().Sanitize(html)
	}
	return doc.Text()
}

func normalizeSnippet(s string) string {
	s = lexicon.Fold(s)
	s = strings.Trim(s, " .…")
	return strings.ReplaceAll(s, "...", "")
}

func matchesCity(c types.Candidate, cities []string) bool {
	text := lexicon.Fold(c.Name + " " + c.Snippet)
	for _, city := range cities {
		if lexicon.ContainsWord(text, city) {
			return true
		}
	}
	return false
}

func foldAll(in []string) []string {
	var out []string
	for _, s := range in {
		if f := lexicon.Fold(s); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func dedupe(in []types.Candidate) []types.Candidate {
	seen := make(map[string]bool, len(in))
	out := make([]types.Candidate, 0, len(in))
	for _, c := range in {
		if seen[c.ProfileURL] {
			continue
		}
		seen[c.ProfileURL] = true
		out = append(out, c)
	}
	return out
}

func truncate(in []types.Candidate, limit int) []types.Candidate {
	if limit > 0 && len(in) > limit {
		return in[:limit]
	}
	return in
}

// interleave takes index 0 of every bucket, then index 1, and so on, skipping
// URLs already taken, until the buckets run out or the cap is reached.
func interleave(buckets [][]types.Candidate, limit int) []types.Candidate {
	var out []types.Candidate
	seen := make(map[string]bool)
	for i := 0; ; i++ {
		progressed := false
		for _, bucket := range buckets {
			if i >= len(bucket) {
				continue
			}
			progressed = true
			c := bucket[i]
			if seen[c.ProfileURL] {
				continue
			}
			seen[c.ProfileURL] = true
			out = append(out, c)
			if limit > 0 && len(out) >= limit {
				return out
			}
		}
		if !progressed {
			return out
		}
	}
}
