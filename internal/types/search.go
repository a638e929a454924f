package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Candidate is one public profile returned by a search.
type Candidate struct {
	Name       string `json:"name"`
	ProfileURL string `json:"profile_url"`
	Snippet    string `json:"snippet"`
	RawSnippet string `json:"raw_snippet,omitempty"`
	Source     string `json:"source"`
}

// SearchRequest is the body of POST /api/search.
type SearchRequest struct {
	Prompt       string     `json:"prompt" validate:"required,min=2,max=2000"`
	CityHint     string     `json:"city_hint,omitempty" validate:"max=100"`
	Destinations []string   `json:"destinations,omitempty" validate:"omitempty,max=3,dive,oneof=professional-network freelance-marketplace code-hosting"`
	ProjectID    *uuid.UUID `json:"project_id,omitempty"`
}

// SearchResponse is returned by a successful search.
type SearchResponse struct {
	Results []Candidate       `json:"results"`
	Queries map[string]string `json:"queries"`
	// Skipped lists destinations dropped by routing policy.
	Skipped  []string `json:"skipped,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
	// CreditsCharged is always 1 on success.
	CreditsCharged float64 `json:"credits_charged"`
}

// CompileRequest is the body of POST /api/compile.
type CompileRequest struct {
	Prompt       string   `json:"prompt" validate:"required,min=2,max=2000"`
	CityHint     string   `json:"city_hint,omitempty" validate:"max=100"`
	Destinations []string `json:"destinations,omitempty" validate:"omitempty,max=3,dive,oneof=professional-network freelance-marketplace code-hosting"`
}

// SearchRecord is the stored summary of one completed search.
type SearchRecord struct {
	ID          uuid.UUID         `json:"id"`
	AccountID   uuid.UUID         `json:"account_id"`
	ProjectID   *uuid.UUID        `json:"project_id,omitempty"`
	Prompt      string            `json:"prompt"`
	Queries     map[string]string `json:"queries"`
	ResultCount int               `json:"result_count"`
	Results     []Candidate       `json:"results"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Validate validates the SearchRequest using the validator.
func (r *SearchRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the CompileRequest using the validator.
func (r *CompileRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
