package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gcite/gcite-backend/internal/core/domain"
	"github.com/gcite/gcite-backend/internal/core/ports"
)

const (
	noResultsMessage            = "No results found. Try refining your query."
	nothingPassedFilterMessage  = "No relevant citations found after filtering. Try broadening your query."
	searchHeadroomWhenFiltering = 2
)

// SearchCitationsUseCase runs the four-stage pipeline: semantic search via
// the collaborator, then optional AI filtering, ranking and formatting.
// Only the collaborator can fail the request; every AI stage degrades to its
// non-AI fallback on its own.
type SearchCitationsUseCase struct {
	searcher ports.ChunkSearcher
	filter   *FilterStage
	rank     *RankStage
	format   *FormatStage
}

func NewSearchCitationsUseCase(
	searcher ports.ChunkSearcher,
	filter *FilterStage,
	rank *RankStage,
	format *FormatStage,
) *SearchCitationsUseCase {
	return &SearchCitationsUseCase{
		searcher: searcher,
		filter:   filter,
		rank:     rank,
		format:   format,
	}
}

func (uc *SearchCitationsUseCase) Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResult, error) {
	// Fetch extra candidates when filtering is on so drops leave enough.
	limit := req.MaxResults
	if req.Filter {
		limit *= searchHeadroomWhenFiltering
	}

	chunks, err := uc.searcher.Search(ctx, req.Query, limit)
	if err != nil {
		return nil, fmt.Errorf("search citations: %w", err)
	}
	if len(chunks) == 0 {
		slog.Info("search returned no candidates", "query", req.Query)
		return &domain.SearchResult{
			Query:           req.Query,
			Chunks:          []domain.Chunk{},
			FormattedOutput: noResultsMessage,
			Outcome:         domain.OutcomeNoResults,
		}, nil
	}

	if req.Filter {
		chunks = uc.filter.Filter(ctx, req.Query, req.Context, chunks, req.MinRelevance)
	}
	if len(chunks) > req.MaxResults {
		chunks = chunks[:req.MaxResults]
	}
	if len(chunks) == 0 {
		slog.Info("all candidates filtered out", "query", req.Query)
		return &domain.SearchResult{
			Query:           req.Query,
			Chunks:          []domain.Chunk{},
			FormattedOutput: nothingPassedFilterMessage,
			Outcome:         domain.OutcomeFilteredOut,
		}, nil
	}

	chunks = uc.rank.Rank(ctx, req.Query, req.Context, chunks)
	formatted := uc.format.Format(ctx, chunks, req.CitationStyle, req.IncludeContext)

	return &domain.SearchResult{
		Query:           req.Query,
		Chunks:          chunks,
		FormattedOutput: formatted,
		Outcome:         domain.OutcomeOK,
	}, nil
}
