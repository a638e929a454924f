package search

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/jonathan/profile-sourcer/internal/metrics"
	"github.com/jonathan/profile-sourcer/internal/sources"
)

// Defaults for ExecutorConfig.
const (
	DefaultPageTimeout = 8 * time.Second
	DefaultQPS         = 5.0
)

// Task is one destination's search.
type Task struct {
	Destination sources.Destination
	Query       string
	// Pages is the page budget, already tier-scaled and capped.
	Pages int
}

// Outcome is what one destination produced. A failed destination has an
// empty or partial Items slice and a Warning; it never fails its siblings.
type Outcome struct {
	Destination sources.Destination
	Items       []Item
	Pages       int
	Failed      bool
	Warning     string
}

// ExecutorConfig holds configuration for the executor.
type ExecutorConfig struct {
	PageTimeout time.Duration
	// QPS paces provider calls across all destinations; zero disables pacing.
	QPS   float64
	Burst int
}

// Executor fans out tasks to per-destination providers.
type Executor struct {
	providers   map[sources.Destination]Provider
	pageTimeout time.Duration
	limiter     *rate.Limiter
	tracer      trace.Tracer
	logger      *zap.Logger
}

// NewExecutor creates an executor over the given providers.
func NewExecutor(providers map[sources.Destination]Provider, cfg ExecutorConfig, logger *zap.Logger) *Executor {
	if cfg.PageTimeout <= 0 {
		cfg.PageTimeout = DefaultPageTimeout
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Executor{
		providers:   providers,
		pageTimeout: cfg.PageTimeout,
		tracer:      otel.Tracer("github.com/jonathan/profile-sourcer/internal/search"),
		logger:      logger,
	}
	if cfg.QPS > 0 {
		e.limiter = rate.NewLimiter(rate.Limit(cfg.QPS), cfg.Burst)
	}
	return e
}

// Execute runs every task concurrently and waits for all of them. Outcomes
// are returned in task order.
func (e *Executor) Execute(ctx context.Context, tasks []Task) []Outcome {
	outcomes := make([]Outcome, len(tasks))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for i, task := range tasks {
		g.Go(func() error {
			out := e.run(gctx, task)
			mu.Lock()
			outcomes[i] = out
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

// AllFailed reports whether no destination completed its first page.
func AllFailed(outcomes []Outcome) bool {
	for _, o := range outcomes {
		if !o.Failed || len(o.Items) > 0 {
			return false
		}
	}
	return true
}

func (e *Executor) run(ctx context.Context, task Task) Outcome {
	ctx, span := e.tracer.Start(ctx, "search.destination", trace.WithAttributes(
		attribute.String("destination", string(task.Destination)),
		attribute.Int("page_budget", task.Pages),
	))
	defer span.End()

	out := Outcome{Destination: task.Destination}
	provider, ok := e.providers[task.Destination]
	if !ok {
		out.Failed = true
		out.Warning = fmt.Sprintf("%s: no search provider configured", task.Destination)
		span.SetStatus(codes.Error, "no provider")
		return out
	}

	start := int64(1)
	for out.Pages < task.Pages {
		page, err := e.fetch(ctx, provider, task.Query, start)
		if err != nil {
			stage := "first_page"
			if out.Pages > 0 {
				stage = "later_page"
			}
			metrics.DestinationFailures.WithLabelValues(string(task.Destination), stage).Inc()
			e.logger.Warn("destination search failed",
				zap.String("destination", string(task.Destination)),
				zap.Int("pages_fetched", out.Pages),
				zap.Error(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())

			out.Failed = true
			if out.Pages == 0 {
				out.Warning = fmt.Sprintf("%s: search failed: %v", task.Destination, err)
			} else {
				out.Warning = fmt.Sprintf("%s: search stopped after %d pages: %v", task.Destination, out.Pages, err)
			}
			return out
		}

		out.Pages++
		out.Items = append(out.Items, page.Items...)
		metrics.ProviderPages.WithLabelValues(string(task.Destination)).Inc()

		if page.NextStart <= start || len(page.Items) == 0 {
			break
		}
		start = page.NextStart
	}

	span.SetAttributes(attribute.Int("pages_fetched", out.Pages), attribute.Int("items", len(out.Items)))
	return out
}

func (e *Executor) fetch(ctx context.Context, p Provider, query string, start int64) (*Page, error) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	pageCtx, cancel := context.WithTimeout(ctx, e.pageTimeout)
	defer cancel()

	page, err := p.Search(pageCtx, query, start)
	if err != nil {
		return nil, err
	}
	if page == nil {
		return &Page{}, nil
	}
	return page, nil
}
