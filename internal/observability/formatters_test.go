package observability

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/profile-sourcer/internal/pipeline"
	"github.com/jonathan/profile-sourcer/internal/query"
	"github.com/jonathan/profile-sourcer/internal/sources"
)

func TestPrintTerms(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintTerms(&query.Compiled{
		Cleaned: "senior react developer in Belgrade",
		Terms: &query.TermSet{
			Titles:           []string{"senior React developer"},
			Skills:           []string{"React", "Redux", "TypeScript", "Jest", "Webpack", "Vite"},
			Locations:        []string{"Belgrade"},
			DroppedNegatives: []string{"Serbian"},
			Intent:           query.Intent{NonFreelancer: true},
		},
		Negatives:    []string{"bootcamp"},
		Country:      "Serbia",
		CountryCode:  "rs",
		City:         "Belgrade",
		CityVariants: []string{"Belgrade", "Beograd"},
	})
	output := buf.String()

	assert.Contains(t, output, "COMPILED PROMPT")
	assert.Contains(t, output, "senior React developer")
	assert.Contains(t, output, "... and 1 more")
	assert.NotContains(t, output, "Vite")
	assert.Contains(t, output, "Serbia (rs)")
	assert.Contains(t, output, "Belgrade, Beograd")
	assert.Contains(t, output, "Ignored:    Serbian")
	assert.Contains(t, output, "non-freelancer")
	assert.NotContains(t, output, "Experience:")
}

func TestPrintTerms_Nil(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintTerms(nil)
	p.PrintTerms(&query.Compiled{})

	assert.Empty(t, buf.String())
}

func TestPrintPlan(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	long := `site:linkedin.com/in ("owner" OR "founder" OR "co-founder" OR "CEO" OR "vlasnik" OR "osnivač") ("company" OR "firma")`
	p.PrintPlan(&pipeline.Plan{
		Routes:  []pipeline.Route{{Destination: sources.ProfessionalNetwork, Query: long}},
		Skipped: []sources.Destination{sources.FreelanceMarketplace},
	})
	output := buf.String()

	assert.Contains(t, output, "QUERIES (1)")
	assert.Contains(t, output, "professional-network")
	assert.Contains(t, output, "freelance-marketplace: skipped for this prompt")

	// Wrapped, not truncated: every rune of the query survives.
	var body strings.Builder
	for _, line := range strings.Split(output, "\n") {
		if strings.HasPrefix(line, "│ ") {
			body.WriteString(strings.TrimSuffix(strings.TrimPrefix(line, "│ "), " │"))
		}
	}
	assert.Contains(t, strings.ReplaceAll(body.String(), " ", ""), strings.ReplaceAll(long, " ", ""))
}

func TestPrintPlan_Nil(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintPlan(nil)
	assert.Empty(t, buf.String())
}

func TestWrap(t *testing.T) {
	assert.Equal(t, []string{"abc"}, wrap("abc", 5))
	assert.Equal(t, []string{"abcde", "fg"}, wrap("abcdefg", 5))
	assert.Equal(t, []string{"čćžšđ", "x"}, wrap("čćžšđx", 5))
}
