// Package prompts holds the externalized LLM prompt templates. Templates are
// JSON files embedded at compile time.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
)

//go:embed sourcing.json
var promptFiles embed.FS

// Sourcing is the query-drafting prompt set.
type Sourcing struct {
	// System is the standing instruction sent with every draft.
	System string `json:"system"`
	// Query is the per-request template; see QueryVars for placeholders.
	Query string `json:"query"`
	// Platforms describes each destination to the model, keyed by destination name.
	Platforms map[string]string `json:"platforms"`
}

// QueryVars fills the Query template.
type QueryVars struct {
	Scope     string
	Prompt    string
	Reference string
}

var loadSourcing = sync.OnceValues(func() (*Sourcing, error) {
	data, err := promptFiles.ReadFile("sourcing.json")
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file: %w", err)
	}
	return parseSourcing(data)
})

// LoadSourcing returns the embedded sourcing prompts. The file is parsed once.
func LoadSourcing() (*Sourcing, error) {
	return loadSourcing()
}

func parseSourcing(data []byte) (*Sourcing, error) {
	var s Sourcing
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse sourcing prompts: %w", err)
	}
	if s.System == "" || s.Query == "" {
		return nil, fmt.Errorf("sourcing prompts need both system and query")
	}
	return &s, nil
}

// Destinations lists the platforms that have a description, sorted.
func (s *Sourcing) Destinations() []string {
	out := make([]string, 0, len(s.Platforms))
	for d := range s.Platforms {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Render fills the query template for one destination.
func (s *Sourcing) Render(destination string, v QueryVars) (string, error) {
	platform, ok := s.Platforms[destination]
	if !ok {
		return "", fmt.Errorf("no prompt for destination %q", destination)
	}
	return Format(s.Query, map[string]string{
		"Platform":  platform,
		"Scope":     v.Scope,
		"Prompt":    v.Prompt,
		"Reference": v.Reference,
	}), nil
}

// Format replaces {{.Key}} placeholders with values from data in one pass, so
// a value that itself looks like a placeholder is left alone.
func Format(template string, data map[string]string) string {
	pairs := make([]string, 0, len(data)*2)
	for key, value := range data {
		pairs = append(pairs, "{{."+key+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
