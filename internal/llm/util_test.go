package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanJSONBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "json code block",
			input:    "```json\n{\"query\": \"site:github.com (\\\"Go\\\")\"}\n```",
			expected: `{"query": "site:github.com (\"Go\")"}`,
		},
		{
			name:     "generic code block",
			input:    "```\n{\"query\": \"x\"}\n```",
			expected: `{"query": "x"}`,
		},
		{
			name:     "plain JSON",
			input:    `{"query": "x"}`,
			expected: `{"query": "x"}`,
		},
		{
			name:     "preamble",
			input:    "Here is the query:\n{\"query\": \"site:linkedin.com/in (\\\"QA\\\")\"}",
			expected: `{"query": "site:linkedin.com/in (\"QA\")"}`,
		},
		{
			name:     "trailing prose",
			input:    "{\"query\": \"x\"}\nLet me know if you need changes.",
			expected: `{"query": "x"}`,
		},
		{
			name:     "no object",
			input:    "  site:github.com  ",
			expected: "site:github.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanJSONBlock(tt.input))
		})
	}
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "nested", input: `x {"a": {"b": 1}} y`, expected: `{"a": {"b": 1}}`},
		{name: "brace inside string", input: `{"q": "a } b"}`, expected: `{"q": "a } b"}`},
		{name: "escaped quote", input: `{"q": "say \"}\""}`, expected: `{"q": "say \"}\""}`},
		{name: "unbalanced", input: `{"q": "x"`, expected: ""},
		{name: "none", input: "nothing here", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractJSONObject(tt.input))
		})
	}
}
