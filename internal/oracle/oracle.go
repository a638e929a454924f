// Package oracle asks a generative model for a better boolean query than the
// rule-based compiler produced. It is best effort: every failure is returned
// as an error the caller answers by keeping the compiled query.
package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/jonathan/profile-sourcer/internal/llm"
	"github.com/jonathan/profile-sourcer/internal/logger"
	"github.com/jonathan/profile-sourcer/internal/prompts"
	"github.com/jonathan/profile-sourcer/internal/schemas"
	"github.com/jonathan/profile-sourcer/internal/sources"
)

// Defaults for Config.
const (
	DefaultTimeout   = 6 * time.Second
	DefaultCacheSize = 512
)

// Fallback reasons, also used as metric labels.
const (
	ReasonTimeout    = "timeout"
	ReasonProvider   = "provider_error"
	ReasonMalformed  = "malformed"
	ReasonUnprefixed = "unprefixed"
)

// Request is one query to draft.
type Request struct {
	// Prompt is the cleaned user prompt.
	Prompt      string
	Destination sources.Destination
	// Scope is the destination's scope token; the answer must start with site:.
	Scope string
	// Reference is the rule-based query, given to the model as a baseline.
	Reference string
}

// ResponseError is a model answer that cannot be used.
type ResponseError struct {
	Reason string
	Raw    string
	Cause  error
}

func (e *ResponseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("unusable oracle response (%s): %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("unusable oracle response (%s)", e.Reason)
}

func (e *ResponseError) Unwrap() error {
	return e.Cause
}

// Reason classifies a GenerateQuery error for warnings and metrics.
func Reason(err error) string {
	var respErr *ResponseError
	switch {
	case errors.As(err, &respErr):
		return respErr.Reason
	case errors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	default:
		return ReasonProvider
	}
}

// Config holds configuration for the generator.
type Config struct {
	Timeout   time.Duration
	CacheSize int
	Tier      llm.ModelTier
}

// Generator drafts queries with an LLM and memoizes accepted answers.
type Generator struct {
	client  llm.Client
	cache   *lru.Cache[string, string]
	timeout time.Duration
	tier    llm.ModelTier
	logger  *zap.Logger
}

// NewGenerator creates a generator over an LLM client.
func NewGenerator(client llm.Client, cfg Config, log *zap.Logger) (*Generator, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultCacheSize
	}
	if cfg.Tier == "" {
		cfg.Tier = llm.TierLite
	}
	if log == nil {
		log = zap.NewNop()
	}
	cache, err := lru.New[string, string](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create oracle cache: %w", err)
	}
	return &Generator{
		client:  client,
		cache:   cache,
		timeout: cfg.Timeout,
		tier:    cfg.Tier,
		logger:  log,
	}, nil
}

// GenerateQuery returns a model-drafted query for one destination.
func (g *Generator) GenerateQuery(ctx context.Context, req Request) (string, error) {
	key := string(req.Destination) + "\x00" + req.Scope + "\x00" + req.Prompt
	if q, ok := g.cache.Get(key); ok {
		return q, nil
	}

	llmReq, err := g.render(req)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	raw, err := g.client.GenerateJSON(ctx, llmReq, g.tier)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("oracle timed out: %w", context.DeadlineExceeded)
		}
		return "", fmt.Errorf("oracle call failed: %w", err)
	}

	query, err := parseResponse(raw)
	if err != nil {
		g.logger.Debug("oracle response rejected",
			zap.String("destination", string(req.Destination)),
			zap.String("raw", logger.TruncateForLog(raw, 200)),
			zap.Error(err))
		return "", err
	}

	g.cache.Add(key, query)
	return query, nil
}

func (g *Generator) render(req Request) (llm.Request, error) {
	set, err := prompts.LoadSourcing()
	if err != nil {
		return llm.Request{}, err
	}
	text, err := set.Render(string(req.Destination), prompts.QueryVars{
		Scope:     req.Scope,
		Prompt:    req.Prompt,
		Reference: req.Reference,
	})
	if err != nil {
		return llm.Request{}, err
	}
	return llm.Request{System: set.System, Prompt: text, Fields: []string{"query"}}, nil
}

func parseResponse(raw string) (string, error) {
	raw = llm.CleanJSONBlock(raw)
	if err := schemas.Validate(schemas.OracleQuery, raw); err != nil {
		reason := ReasonMalformed
		var verr *schemas.ValidationError
		if errors.As(err, &verr) && onlyPatternFailed(raw) {
			reason = ReasonUnprefixed
		}
		return "", &ResponseError{Reason: reason, Raw: raw, Cause: err}
	}

	var out struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return "", &ResponseError{Reason: ReasonMalformed, Raw: raw, Cause: err}
	}

	query := strings.Join(strings.Fields(out.Query), " ")
	if !balanced(query) {
		return "", &ResponseError{Reason: ReasonMalformed, Raw: raw, Cause: errors.New("unbalanced parentheses or quotes")}
	}
	return query, nil
}

// onlyPatternFailed reports whether the document has a non-empty string query
// that merely lacks the site: prefix.
func onlyPatternFailed(raw string) bool {
	var out struct {
		Query *string `json:"query"`
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil || out.Query == nil {
		return false
	}
	q := strings.TrimSpace(*out.Query)
	return q != "" && !strings.HasPrefix(strings.ToLower(q), "site:")
}

func balanced(q string) bool {
	depth := 0
	inQuote := false
	for _, r := range q {
		switch {
		case r == '"':
			inQuote = !inQuote
		case inQuote:
		case r == '(':
			depth++
		case r == ')':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0 && !inQuote
}
