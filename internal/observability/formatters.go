// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/profile-sourcer/internal/pipeline"
	"github.com/jonathan/profile-sourcer/internal/query"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 72
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content. Long lines are
// wrapped rather than cut so queries stay copyable.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	inner := boxWidth - 4
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", inner, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		for _, part := range wrap(line, inner) {
			fmt.Fprintf(p.out, "│ %s%s │\n", part, strings.Repeat(" ", inner-len([]rune(part))))
		}
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// wrap splits line into rune chunks of at most width.
func wrap(line string, width int) []string {
	runes := []rune(line)
	if len(runes) <= width {
		return []string{line}
	}
	var parts []string
	for len(runes) > width {
		parts = append(parts, string(runes[:width]))
		runes = runes[width:]
	}
	return append(parts, string(runes))
}

// listLine renders up to maxItemsToShow values.
func listLine(label string, values []string) string {
	if len(values) == 0 {
		return ""
	}
	shown := values[:min(len(values), maxItemsToShow)]
	line := fmt.Sprintf("%-11s %s", label+":", strings.Join(shown, ", "))
	if len(values) > maxItemsToShow {
		line += fmt.Sprintf(" ... and %d more", len(values)-maxItemsToShow)
	}
	return line + "\n"
}

// PrintTerms outputs the classified terms of a compiled prompt.
func (p *Printer) PrintTerms(compiled *query.Compiled) {
	if compiled == nil || compiled.Terms == nil {
		return
	}
	terms := compiled.Terms

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Prompt:     %s\n\n", compiled.Cleaned))
	sb.WriteString(listLine("Titles", terms.Titles))
	sb.WriteString(listLine("Skills", terms.Skills))
	sb.WriteString(listLine("Locations", terms.Locations))
	sb.WriteString(listLine("Experience", terms.Experience))
	sb.WriteString(listLine("Excluding", compiled.Negatives))
	sb.WriteString(listLine("Ignored", terms.DroppedNegatives))

	if compiled.Country != "" {
		sb.WriteString(fmt.Sprintf("Country:    %s (%s)\n", compiled.Country, compiled.CountryCode))
	}
	if compiled.City != "" {
		sb.WriteString(fmt.Sprintf("City rank:  %s\n", strings.Join(compiled.CityVariants, ", ")))
	}

	var intent []string
	if terms.Intent.Owner {
		intent = append(intent, "owner")
	}
	if terms.Intent.NonFreelancer {
		intent = append(intent, "non-freelancer")
	}
	if terms.Intent.Educator {
		intent = append(intent, "educator")
	}
	if terms.Intent.EntryLevel {
		intent = append(intent, "entry-level")
	}
	if len(intent) > 0 {
		sb.WriteString(fmt.Sprintf("Intent:     %s\n", strings.Join(intent, ", ")))
	}

	p.printBox("COMPILED PROMPT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintPlan outputs each routed query and the skipped destinations.
func (p *Printer) PrintPlan(plan *pipeline.Plan) {
	if plan == nil {
		return
	}

	var sb strings.Builder
	for i, r := range plan.Routes {
		sb.WriteString(fmt.Sprintf("%s\n  %s\n", r.Destination, r.Query))
		if i < len(plan.Routes)-1 {
			sb.WriteString("\n")
		}
	}
	for _, d := range plan.Skipped {
		sb.WriteString(fmt.Sprintf("\n%s: skipped for this prompt", d))
	}

	p.printBox(fmt.Sprintf("QUERIES (%d)", len(plan.Routes)), strings.TrimSuffix(sb.String(), "\n"))
}
