package httpadapter

import "github.com/gcite/gcite-backend/internal/core/domain"

// searchRequestBody uses pointers where absence and zero value differ, so
// omitted fields pick up their documented defaults.
type searchRequestBody struct {
	Query          string   `json:"query"`
	Context        string   `json:"context"`
	MaxResults     *int     `json:"max_results"`
	CitationStyle  *string  `json:"citation_style"`
	Filter         *bool    `json:"filter"`
	MinRelevance   *float64 `json:"min_relevance"`
	IncludeContext *bool    `json:"include_context"`
}

func (b searchRequestBody) toDomain() domain.SearchRequest {
	req := domain.SearchRequest{
		Query:          b.Query,
		Context:        b.Context,
		MaxResults:     domain.DefaultMaxResults,
		CitationStyle:  domain.StyleAPA,
		Filter:         true,
		MinRelevance:   domain.DefaultMinRelevance,
		IncludeContext: true,
	}
	if b.MaxResults != nil {
		req.MaxResults = *b.MaxResults
	}
	if b.CitationStyle != nil {
		req.CitationStyle = domain.CitationStyle(*b.CitationStyle)
	}
	if b.Filter != nil {
		req.Filter = *b.Filter
	}
	if b.MinRelevance != nil {
		req.MinRelevance = *b.MinRelevance
	}
	if b.IncludeContext != nil {
		req.IncludeContext = *b.IncludeContext
	}
	return req
}

type searchResponseBody struct {
	Query            string         `json:"query"`
	ResultsCount     int            `json:"results_count"`
	Chunks           []domain.Chunk `json:"chunks"`
	FormattedOutput  string         `json:"formatted_output"`
	ProcessingTimeMS int64          `json:"processing_time_ms"`
}
