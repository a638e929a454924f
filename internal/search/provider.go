// Package search executes compiled queries against web search providers,
// one paginated stream per destination, with isolated failures.
package search

import (
	"context"
)

// Item is one provider hit.
type Item struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Snippet     string `json:"snippet"`
	HTMLSnippet string `json:"html_snippet"`
}

// Page is one page of hits. NextStart is the offset of the following page,
// or 0 when the provider reports none.
type Page struct {
	Items     []Item `json:"items"`
	NextStart int64  `json:"next_start"`
}

// Provider executes a query from a start offset.
type Provider interface {
	Search(ctx context.Context, query string, start int64) (*Page, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, query string, start int64) (*Page, error)

// Search calls f.
func (f ProviderFunc) Search(ctx context.Context, query string, start int64) (*Page, error) {
	return f(ctx, query, start)
}
