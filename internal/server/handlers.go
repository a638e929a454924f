package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/profile-sourcer/internal/pipeline"
	"github.com/jonathan/profile-sourcer/internal/query"
	"github.com/jonathan/profile-sourcer/internal/server/middleware"
	"github.com/jonathan/profile-sourcer/internal/sources"
	"github.com/jonathan/profile-sourcer/internal/types"
)

// History listing bounds.
const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// CompileResponse is the response for /api/compile
type CompileResponse struct {
	Queries  map[string]string `json:"queries"`
	Skipped  []string          `json:"skipped,omitempty"`
	Compiled *query.Compiled   `json:"compiled"`
}

// HistoryResponse is the response for /api/history
type HistoryResponse struct {
	Searches []types.SearchRecord `json:"searches"`
	Count    int                  `json:"count"`
}

// handleSearch runs one charged search.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	req, err := s.searchRequest(w, r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	resp, err := s.searcher.Run(r.Context(), req)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, resp)
}

// handleSearchStream runs a search and streams progress via SSE
func (s *Server) handleSearchStream(w http.ResponseWriter, r *http.Request) {
	req, err := s.searchRequest(w, r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	stop := sse.KeepAlive(r.Context(), sseKeepAlive)
	defer stop()

	req.OnProgress = func(event pipeline.ProgressEvent) {
		if err := sse.WriteEvent("step", event); err != nil {
			s.logger.Warn("failed to write SSE event", zap.String("step", event.Step), zap.Error(err))
		}
	}

	resp, err := s.searcher.Run(r.Context(), req)
	if err != nil {
		if HTTPStatus(err) == http.StatusInternalServerError {
			s.logger.Error("streaming search failed", zap.Error(err))
		}
		sse.WriteError(err)
		return
	}

	sse.WriteEvent("complete", map[string]any{ //nolint:errcheck
		"status":          "completed",
		"results":         len(resp.Results),
		"credits_charged": resp.CreditsCharged,
	})
}

// searchRequest decodes and validates a search body for the authenticated account.
func (s *Server) searchRequest(w http.ResponseWriter, r *http.Request) (pipeline.Request, error) {
	accountID, err := middleware.GetAccountID(r)
	if err != nil {
		return pipeline.Request{}, &pipeline.Failure{Kind: pipeline.KindUnauthorized, Message: "no account"}
	}

	var body types.SearchRequest
	if err := decodeBody(w, r, &body); err != nil {
		return pipeline.Request{}, err
	}
	if err := body.Validate(); err != nil {
		return pipeline.Request{}, validationError(err)
	}
	dests, err := parseDestinations(body.Destinations)
	if err != nil {
		return pipeline.Request{}, err
	}

	return pipeline.Request{
		Prompt:       body.Prompt,
		CityHint:     body.CityHint,
		Destinations: dests,
		AccountID:    accountID,
		ProjectID:    body.ProjectID,
	}, nil
}

// handleCompile returns the rule-based queries for a prompt. Nothing is charged.
func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	var body types.CompileRequest
	if err := decodeBody(w, r, &body); err != nil {
		s.errorResponse(w, r, err)
		return
	}
	if err := body.Validate(); err != nil {
		s.errorResponse(w, r, validationError(err))
		return
	}
	dests, err := parseDestinations(body.Destinations)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	plan, err := s.searcher.Compile(body.Prompt, body.CityHint, dests)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	skipped := make([]string, len(plan.Skipped))
	for i, d := range plan.Skipped {
		skipped[i] = string(d)
	}
	s.jsonResponse(w, http.StatusOK, CompileResponse{
		Queries:  plan.Queries(),
		Skipped:  skipped,
		Compiled: plan.Compiled,
	})
}

// handleListHistory lists the account's recent searches, newest first.
func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	accountID, err := middleware.GetAccountID(r)
	if err != nil {
		s.errorResponse(w, r, &pipeline.Failure{Kind: pipeline.KindUnauthorized, Message: "no account"})
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.errorResponse(w, r, &ErrValidation{Field: "limit", Message: "must be a positive integer"})
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	records, err := s.history.ListSearches(r.Context(), accountID, limit)
	if err != nil {
		s.errorResponse(w, r, fmt.Errorf("failed to list searches: %w", err))
		return
	}
	if records == nil {
		records = []types.SearchRecord{}
	}

	s.jsonResponse(w, http.StatusOK, HistoryResponse{Searches: records, Count: len(records)})
}

// handleGetHistory returns one recorded search owned by the account.
func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	accountID, err := middleware.GetAccountID(r)
	if err != nil {
		s.errorResponse(w, r, &pipeline.Failure{Kind: pipeline.KindUnauthorized, Message: "no account"})
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, r, &ErrValidation{Field: "id", Message: "invalid search ID format"})
		return
	}

	record, err := s.history.GetSearch(r.Context(), accountID, id)
	if err != nil {
		s.errorResponse(w, r, fmt.Errorf("failed to get search: %w", err))
		return
	}
	if record == nil {
		s.errorResponse(w, r, &ErrNotFound{What: "search"})
		return
	}

	s.jsonResponse(w, http.StatusOK, record)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &ErrValidation{Field: "body", Message: "invalid request body: " + err.Error()}
	}
	return nil
}

// validationError reports the first failed field of a validator error.
func validationError(err error) error {
	var fields validator.ValidationErrors
	if errors.As(err, &fields) && len(fields) > 0 {
		fe := fields[0]
		return &ErrValidation{Field: fe.Field(), Message: fmt.Sprintf("failed on %q", fe.Tag())}
	}
	return &ErrValidation{Field: "body", Message: err.Error()}
}

func parseDestinations(names []string) ([]sources.Destination, error) {
	dests := make([]sources.Destination, 0, len(names))
	for _, name := range names {
		d, err := sources.Parse(name)
		if err != nil {
			return nil, &ErrValidation{Field: "destinations", Message: err.Error()}
		}
		dests = append(dests, d)
	}
	return dests, nil
}
