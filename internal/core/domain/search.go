package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	MaxQueryLength   = 1000
	MaxContextLength = 2000
	MaxResultsLimit  = 50

	DefaultMaxResults   = 10
	DefaultMinRelevance = 0.7
)

// SearchRequest is a validated citation search request.
type SearchRequest struct {
	Query          string        `json:"query"`
	Context        string        `json:"context,omitempty"`
	MaxResults     int           `json:"max_results"`
	CitationStyle  CitationStyle `json:"citation_style"`
	Filter         bool          `json:"filter"`
	MinRelevance   float64       `json:"min_relevance"`
	IncludeContext bool          `json:"include_context"`
}

// Validate checks the request against the API bounds. Defaults must already
// be applied by the boundary; Validate never mutates.
func (r SearchRequest) Validate() error {
	query := strings.TrimSpace(r.Query)
	if query == "" {
		return WrapError(ErrInvalidInput, "validate search request", fmt.Errorf("query is required"))
	}
	if utf8.RuneCountInString(r.Query) > MaxQueryLength {
		return WrapError(ErrInvalidInput, "validate search request", fmt.Errorf("query exceeds %d characters", MaxQueryLength))
	}
	if utf8.RuneCountInString(r.Context) > MaxContextLength {
		return WrapError(ErrInvalidInput, "validate search request", fmt.Errorf("context exceeds %d characters", MaxContextLength))
	}
	if r.MaxResults < 1 || r.MaxResults > MaxResultsLimit {
		return WrapError(ErrInvalidInput, "validate search request", fmt.Errorf("max_results must be between 1 and %d", MaxResultsLimit))
	}
	if !ValidCitationStyle(r.CitationStyle) {
		return WrapError(ErrInvalidInput, "validate search request", fmt.Errorf("unsupported citation_style: %s", r.CitationStyle))
	}
	if r.MinRelevance < 0 || r.MinRelevance > 1 {
		return WrapError(ErrInvalidInput, "validate search request", fmt.Errorf("min_relevance must be between 0 and 1"))
	}
	return nil
}

// SearchOutcome says how a pipeline run ended; it is not part of the API
// payload and exists for observability.
type SearchOutcome string

const (
	OutcomeOK          SearchOutcome = "ok"
	OutcomeNoResults   SearchOutcome = "no_results"
	OutcomeFilteredOut SearchOutcome = "filtered_out"
)

// SearchResult is the pipeline output for one request.
type SearchResult struct {
	Query           string        `json:"query"`
	Chunks          []Chunk       `json:"chunks"`
	FormattedOutput string        `json:"formatted_output"`
	Outcome         SearchOutcome `json:"-"`
}
