package search

import (
	"context"
	"fmt"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
)

// Programmable Search serves at most 10 results per call and 100 per query.
const (
	GooglePageSize = 10
	GoogleMaxPages = 10
)

// GoogleProvider queries one Programmable Search Engine.
type GoogleProvider struct {
	svc *customsearch.Service
	cx  string
}

// NewGoogleProvider creates a provider for the search engine cx.
func NewGoogleProvider(ctx context.Context, apiKey, cx string) (*GoogleProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("search API key is required")
	}
	if cx == "" {
		return nil, fmt.Errorf("search engine ID is required")
	}
	svc, err := customsearch.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create customsearch service: %w", err)
	}
	return &GoogleProvider{svc: svc, cx: cx}, nil
}

// Search fetches one page. start is 1-based; values below 1 mean the first page.
func (g *GoogleProvider) Search(ctx context.Context, query string, start int64) (*Page, error) {
	if start < 1 {
		start = 1
	}
	resp, err := g.svc.Cse.List().
		Cx(g.cx).
		Q(query).
		Start(start).
		Num(GooglePageSize).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	return convertResponse(resp), nil
}

func convertResponse(resp *customsearch.Search) *Page {
	page := &Page{}
	for _, r := range resp.Items {
		if r == nil {
			continue
		}
		page.Items = append(page.Items, Item{
			Title:       r.Title,
			Link:        r.Link,
			Snippet:     r.Snippet,
			HTMLSnippet: r.HtmlSnippet,
		})
	}
	if resp.Queries != nil && len(resp.Queries.NextPage) > 0 && resp.Queries.NextPage[0] != nil {
		page.NextStart = resp.Queries.NextPage[0].StartIndex
	}
	return page
}
