package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/profile-sourcer/internal/observability"
	"github.com/jonathan/profile-sourcer/internal/pipeline"
	"github.com/jonathan/profile-sourcer/internal/query"
	"github.com/jonathan/profile-sourcer/internal/sources"
)

var (
	compileCity         string
	compileDestinations []string
	compileJSON         bool
	compileVerbose      bool
)

var compileCmd = &cobra.Command{
	Use:   "compile <prompt>",
	Short: "Print the per-destination search queries for a prompt",
	Long: `Compile a hiring request into site-scoped boolean queries without calling any
search provider or touching an account.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCompile,
}

func init() {
	compileCmd.Flags().StringVar(&compileCity, "city", "", "City hint used for result ranking")
	compileCmd.Flags().StringSliceVar(&compileDestinations, "destination", nil,
		"Destination to compile for (repeatable): "+destinationNames())
	compileCmd.Flags().BoolVar(&compileJSON, "json", false, "Print the full compiled plan as JSON")
	compileCmd.Flags().BoolVarP(&compileVerbose, "verbose", "v", false, "Print classified terms and queries in boxes")
	rootCmd.AddCommand(compileCmd)
}

func runCompile(cmd *cobra.Command, args []string) error {
	compiler, err := query.NewDefaultCompiler()
	if err != nil {
		return fmt.Errorf("failed to load lexicon: %w", err)
	}

	dests := make([]sources.Destination, 0, len(compileDestinations))
	for _, name := range compileDestinations {
		d, err := sources.Parse(name)
		if err != nil {
			return err
		}
		dests = append(dests, d)
	}

	p := pipeline.New(pipeline.Deps{Compiler: compiler}, pipeline.Config{})
	plan, err := p.Compile(strings.Join(args, " "), compileCity, dests)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if compileJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(plan)
	}

	if compileVerbose {
		printer := observability.NewPrinter(out)
		printer.PrintTerms(plan.Compiled)
		printer.PrintPlan(plan)
		return nil
	}

	for _, r := range plan.Routes {
		fmt.Fprintf(out, "%s\t%s\n", r.Destination, r.Query)
	}
	for _, d := range plan.Skipped {
		fmt.Fprintf(out, "%s\tskipped\n", d)
	}
	return nil
}

func destinationNames() string {
	names := make([]string, 0, 3)
	for _, d := range sources.All() {
		names = append(names, string(d))
	}
	return strings.Join(names, ", ")
}
