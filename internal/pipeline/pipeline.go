// Package pipeline runs one sourcing search end to end: compile the prompt,
// route it to destinations, search them in parallel, merge the hits and
// charge the account once for a non-empty result.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/profile-sourcer/internal/aggregate"
	"github.com/jonathan/profile-sourcer/internal/credits"
	"github.com/jonathan/profile-sourcer/internal/logger"
	"github.com/jonathan/profile-sourcer/internal/metrics"
	"github.com/jonathan/profile-sourcer/internal/oracle"
	"github.com/jonathan/profile-sourcer/internal/query"
	"github.com/jonathan/profile-sourcer/internal/search"
	"github.com/jonathan/profile-sourcer/internal/sources"
	"github.com/jonathan/profile-sourcer/internal/types"
)

// Defaults for Config.
const (
	DefaultHistoryTimeout = 5 * time.Second
	DefaultHistoryResults = 20
)

// QueryGenerator drafts a query with a generative model. Any error means the
// rule-based query is used.
type QueryGenerator interface {
	GenerateQuery(ctx context.Context, req oracle.Request) (string, error)
}

// HistoryRecorder stores completed searches.
type HistoryRecorder interface {
	RecordSearch(ctx context.Context, rec *types.SearchRecord) (uuid.UUID, error)
}

// Config holds configuration for the pipeline.
type Config struct {
	// MaxPages is the provider's pagination ceiling.
	MaxPages int
	// HistoryTimeout bounds the background history write.
	HistoryTimeout time.Duration
	// HistoryResults is how many candidates a history record keeps.
	HistoryResults int
}

// Deps are the pipeline's collaborators. Oracle and History are optional.
type Deps struct {
	Compiler *query.Compiler
	Accounts credits.AccountService
	Executor *search.Executor
	Oracle   QueryGenerator
	History  HistoryRecorder
	Logger   *zap.Logger
}

// Pipeline is safe for concurrent use.
type Pipeline struct {
	compiler *query.Compiler
	guard    *credits.Guard
	executor *search.Executor
	oracle   QueryGenerator
	history  HistoryRecorder
	cfg      Config
	logger   *zap.Logger

	background sync.WaitGroup
}

// New creates a pipeline.
func New(deps Deps, cfg Config) *Pipeline {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = search.GoogleMaxPages
	}
	if cfg.HistoryTimeout <= 0 {
		cfg.HistoryTimeout = DefaultHistoryTimeout
	}
	if cfg.HistoryResults <= 0 {
		cfg.HistoryResults = DefaultHistoryResults
	}
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		compiler: deps.Compiler,
		guard:    credits.NewGuard(deps.Accounts),
		executor: deps.Executor,
		oracle:   deps.Oracle,
		history:  deps.History,
		cfg:      cfg,
		logger:   log,
	}
}

// Request is one search.
type Request struct {
	Prompt   string
	CityHint string
	// Destinations defaults to sources.DefaultDestinations.
	Destinations []sources.Destination
	AccountID    uuid.UUID
	ProjectID    *uuid.UUID
	OnProgress   ProgressCallback
}

// Route is one destination that will be searched.
type Route struct {
	Destination sources.Destination `json:"destination"`
	Query       string              `json:"query"`
	config      *sources.Config
}

// Plan is a compiled prompt with its per-destination routing.
type Plan struct {
	Compiled *query.Compiled       `json:"compiled"`
	Routes   []Route               `json:"routes"`
	Skipped  []sources.Destination `json:"skipped,omitempty"`
}

// Queries returns the routed queries keyed by destination.
func (p *Plan) Queries() map[string]string {
	out := make(map[string]string, len(p.Routes))
	for _, r := range p.Routes {
		out[string(r.Destination)] = r.Query
	}
	return out
}

// Compile builds the rule-based plan for a prompt without touching the
// account, the oracle or any provider.
func (p *Pipeline) Compile(prompt, cityHint string, dests []sources.Destination) (*Plan, error) {
	compiled, err := p.compiler.Compile(prompt, query.Options{CityHint: cityHint})
	if err != nil {
		if errors.Is(err, query.ErrNoTerms) {
			return nil, fail(KindInvalidInput, "no terms extracted", err)
		}
		return nil, fmt.Errorf("failed to compile prompt: %w", err)
	}

	if len(dests) == 0 {
		dests = sources.DefaultDestinations
	}

	plan := &Plan{Compiled: compiled}
	seen := make(map[sources.Destination]bool, len(dests))
	intent := compiled.Terms.Intent
	for _, dest := range dests {
		if seen[dest] {
			continue
		}
		seen[dest] = true

		cfg, ok := sources.Lookup(dest)
		if !ok {
			return nil, fail(KindInvalidInput, fmt.Sprintf("unknown destination %q", dest), nil)
		}
		q, err := compiled.For(dest)
		if err != nil {
			return nil, fmt.Errorf("failed to adapt query for %s: %w", dest, err)
		}
		if cfg.ShouldSkip(intent.Owner, intent.NonFreelancer, q) {
			plan.Skipped = append(plan.Skipped, dest)
			continue
		}
		plan.Routes = append(plan.Routes, Route{Destination: dest, Query: q, config: cfg})
	}

	if len(plan.Routes) == 0 {
		return nil, fail(KindInvalidInput, "every requested destination was skipped for this prompt", nil)
	}
	return plan, nil
}

// Run executes one search. Failures are *Failure values; anything else is an
// internal error.
func (p *Pipeline) Run(ctx context.Context, req Request) (resp *types.SearchResponse, err error) {
	started := time.Now()
	defer func() {
		outcome := "success"
		if f, ok := AsFailure(err); ok {
			outcome = string(f.Kind)
		} else if err != nil {
			outcome = "error"
		}
		metrics.SearchesTotal.WithLabelValues(outcome).Inc()
		metrics.SearchDuration.WithLabelValues(outcome).Observe(time.Since(started).Seconds())
	}()

	if req.AccountID == uuid.Nil {
		return nil, fail(KindUnauthorized, "no account", nil)
	}

	plan, err := p.Compile(req.Prompt, req.CityHint, req.Destinations)
	if err != nil {
		return nil, err
	}
	emit(req.OnProgress, StepCompiled, "prompt compiled", plan)

	snap, err := p.guard.Check(ctx, req.AccountID)
	switch {
	case errors.Is(err, credits.ErrInsufficientCredits):
		return nil, fail(KindInsufficientCredits, "balance is below the cost of one search", nil)
	case errors.Is(err, credits.ErrUnknownAccount):
		return nil, fail(KindUnauthorized, "unknown account", err)
	case err != nil:
		return nil, err
	}

	var warnings []string
	routes := p.generate(ctx, plan, &warnings)
	if len(routes) == 0 {
		return nil, fail(KindInvalidInput, "every requested destination was skipped for this prompt", nil)
	}

	tasks := make([]search.Task, len(routes))
	queries := make(map[string]string, len(routes))
	for i, r := range routes {
		tasks[i] = search.Task{
			Destination: r.Destination,
			Query:       r.Query,
			Pages:       snap.Tier.PageBudget(r.config.PageBudget, p.cfg.MaxPages),
		}
		queries[string(r.Destination)] = r.Query
	}
	emit(req.OnProgress, StepSearching, "searching destinations", queries)

	outcomes := p.executor.Execute(ctx, tasks)
	buckets := make([]aggregate.Bucket, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Warning != "" {
			warnings = append(warnings, o.Warning)
		}
		buckets = append(buckets, aggregate.Bucket{Destination: o.Destination, Items: o.Items})
		emit(req.OnProgress, StepDestination, string(o.Destination), map[string]any{
			"destination": o.Destination,
			"pages":       o.Pages,
			"items":       len(o.Items),
			"failed":      o.Failed,
		})
	}
	if search.AllFailed(outcomes) {
		return nil, fail(KindProviderUnavailable, "every destination failed", errors.New(strings.Join(warnings, "; ")))
	}

	results := aggregate.Merge(buckets, aggregate.Options{
		Cap:          snap.Tier.ContactCap(),
		CityVariants: plan.Compiled.CityVariants,
	})
	if len(results) == 0 {
		return nil, fail(KindProviderUnavailable, "no profiles found", nil)
	}
	emit(req.OnProgress, StepAggregated, fmt.Sprintf("%d candidates", len(results)), nil)

	if err := p.guard.Charge(ctx, req.AccountID); err != nil {
		if errors.Is(err, credits.ErrInsufficientCredits) {
			p.logger.Warn("balance drained before charge, discarding results",
				zap.String("account_id", req.AccountID.String()),
				zap.Int("results", len(results)))
			return nil, fail(KindInsufficientCredits, "balance is below the cost of one search", nil)
		}
		return nil, err
	}

	skipped := make([]string, len(plan.Skipped))
	for i, d := range plan.Skipped {
		skipped[i] = string(d)
	}
	resp = &types.SearchResponse{
		Results:        results,
		Queries:        queries,
		Skipped:        skipped,
		Warnings:       warnings,
		CreditsCharged: credits.SearchCost,
	}

	p.record(ctx, req, queries, results)

	p.logger.Info("search completed",
		zap.String("account_id", req.AccountID.String()),
		zap.String("prompt", logger.TruncateForLog(req.Prompt, 120)),
		zap.Int("destinations", len(routes)),
		zap.Int("results", len(results)),
		zap.Int("warnings", len(warnings)),
		zap.Duration("duration", time.Since(started)))
	emit(req.OnProgress, StepComplete, "search complete", resp)
	return resp, nil
}

// Wait blocks until background history writes finish.
func (p *Pipeline) Wait() {
	p.background.Wait()
}

// generate replaces each rule-based query with an oracle draft where one is
// available. Drafts are scoped and flattened like compiled queries, and a
// draft that trips the destination's skip policy drops the destination; the
// dropped destinations are appended to plan.Skipped.
func (p *Pipeline) generate(ctx context.Context, plan *Plan, warnings *[]string) []Route {
	routes := append([]Route(nil), plan.Routes...)
	if p.oracle == nil {
		return routes
	}

	intent := plan.Compiled.Terms.Intent
	fallbacks := make([]string, len(routes))
	skip := make([]bool, len(routes))
	g, gctx := errgroup.WithContext(ctx)
	for i := range routes {
		g.Go(func() error {
			r := &routes[i]
			drafted, err := p.oracle.GenerateQuery(gctx, oracle.Request{
				Prompt:      plan.Compiled.Cleaned,
				Destination: r.Destination,
				Scope:       r.config.ScopeToken(plan.Compiled.CountryCode),
				Reference:   r.Query,
			})
			if err == nil {
				drafted, err = sources.Adapt(drafted, r.Destination, plan.Compiled.CountryCode)
			}
			if err != nil {
				reason := oracle.Reason(err)
				metrics.OracleFallbacks.WithLabelValues(string(r.Destination), reason).Inc()
				p.logger.Debug("using rule-based query",
					zap.String("destination", string(r.Destination)),
					zap.String("reason", reason),
					zap.Error(err))
				fallbacks[i] = fmt.Sprintf("%s: generated query unavailable (%s), using rule-based query", r.Destination, reason)
				return nil
			}
			if r.config.ShouldSkip(intent.Owner, intent.NonFreelancer, drafted) {
				skip[i] = true
				return nil
			}
			r.Query = drafted
			return nil
		})
	}
	_ = g.Wait()

	kept := routes[:0]
	for i, r := range routes {
		if skip[i] {
			plan.Skipped = append(plan.Skipped, r.Destination)
			*warnings = append(*warnings, fmt.Sprintf("%s: skipped, the generated query targets owners or non-freelancers", r.Destination))
			continue
		}
		kept = append(kept, r)
	}
	routes = kept

	for _, w := range fallbacks {
		if w != "" {
			*warnings = append(*warnings, w)
		}
	}
	return routes
}

func (p *Pipeline) record(ctx context.Context, req Request, queries map[string]string, results []types.Candidate) {
	if p.history == nil {
		return
	}
	kept := results
	if len(kept) > p.cfg.HistoryResults {
		kept = kept[:p.cfg.HistoryResults]
	}
	rec := &types.SearchRecord{
		AccountID:   req.AccountID,
		ProjectID:   req.ProjectID,
		Prompt:      req.Prompt,
		Queries:     queries,
		ResultCount: len(results),
		Results:     append([]types.Candidate(nil), kept...),
	}

	bg := context.WithoutCancel(ctx)
	p.background.Add(1)
	go func() {
		defer p.background.Done()
		ctx, cancel := context.WithTimeout(bg, p.cfg.HistoryTimeout)
		defer cancel()
		if _, err := p.history.RecordSearch(ctx, rec); err != nil {
			p.logger.Warn("failed to record search history",
				zap.String("account_id", rec.AccountID.String()),
				zap.Error(err))
		}
	}()
}
