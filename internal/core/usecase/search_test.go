package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/gcite/gcite-backend/internal/core/domain"
)

type searcherFake struct {
	chunks []domain.Chunk
	err    error
	limit  int
	query  string
}

func (f *searcherFake) Search(_ context.Context, query string, limit int) ([]domain.Chunk, error) {
	f.query = query
	f.limit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.chunks, nil
}

func newSearchUseCase(t *testing.T, searcher *searcherFake, generator *generatorFake) *SearchCitationsUseCase {
	t.Helper()
	return NewSearchCitationsUseCase(
		searcher,
		NewFilterStage(generator, newTestPool(t)),
		NewRankStage(generator),
		NewFormatStage(generator),
	)
}

func defaultRequest() domain.SearchRequest {
	return domain.SearchRequest{
		Query:          "climate policy",
		MaxResults:     10,
		CitationStyle:  domain.StyleAPA,
		Filter:         true,
		MinRelevance:   0.7,
		IncludeContext: true,
	}
}

// Scenario A: filter off, adapter disabled — all chunks pass through with
// trivial ranks and basic-rendered output.
func TestSearchNoFilterDisabledAdapter(t *testing.T) {
	searcher := &searcherFake{chunks: testChunks(6)}
	generator := &generatorFake{enabled: false}
	uc := newSearchUseCase(t, searcher, generator)

	req := defaultRequest()
	req.Filter = false

	result, err := uc.Search(context.Background(), req)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(result.Chunks) != 6 {
		t.Fatalf("expected 6 chunks, got %d", len(result.Chunks))
	}
	if searcher.limit != 10 {
		t.Fatalf("filter off must search with max_results, got limit %d", searcher.limit)
	}
	for i, chunk := range result.Chunks {
		if chunk.AgentRank != i+1 {
			t.Fatalf("expected rank %d at position %d, got %d", i+1, i, chunk.AgentRank)
		}
		if !strings.Contains(result.FormattedOutput, chunk.Source.Title) {
			t.Fatalf("formatted output missing title %q", chunk.Source.Title)
		}
	}
	if generator.callCount() != 0 {
		t.Fatalf("disabled adapter must never be called, got %d calls", generator.callCount())
	}
	if result.Outcome != domain.OutcomeOK {
		t.Fatalf("expected ok outcome, got %s", result.Outcome)
	}
}

// Scenario B: every evaluation says not relevant — distinct filtered-out
// message, zero chunks.
func TestSearchEverythingFilteredOut(t *testing.T) {
	searcher := &searcherFake{chunks: testChunks(12)}
	generator := &generatorFake{
		enabled: true,
		respond: func(prompt string) (string, error) {
			if strings.Contains(prompt, "relevance evaluator") {
				return `{"relevant": false, "confidence": 0.9, "reasoning": "off topic"}`, nil
			}
			return "", errors.New("unexpected call")
		},
	}
	uc := newSearchUseCase(t, searcher, generator)

	req := defaultRequest()
	req.MaxResults = 5

	result, err := uc.Search(context.Background(), req)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if searcher.limit != 10 {
		t.Fatalf("filtering must search with 2x headroom, got limit %d", searcher.limit)
	}
	if len(result.Chunks) != 0 {
		t.Fatalf("expected 0 chunks, got %d", len(result.Chunks))
	}
	if result.FormattedOutput != "No relevant citations found after filtering. Try broadening your query." {
		t.Fatalf("unexpected filtered-out message: %q", result.FormattedOutput)
	}
	if result.Outcome != domain.OutcomeFilteredOut {
		t.Fatalf("expected filtered_out outcome, got %s", result.Outcome)
	}
}

// Scenario C: collaborator returns nothing — no AI stage runs at all.
func TestSearchNoResultsShortCircuits(t *testing.T) {
	searcher := &searcherFake{}
	generator := &generatorFake{enabled: true}
	uc := newSearchUseCase(t, searcher, generator)

	result, err := uc.Search(context.Background(), defaultRequest())
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(result.Chunks) != 0 {
		t.Fatalf("expected no chunks, got %d", len(result.Chunks))
	}
	if result.FormattedOutput != "No results found. Try refining your query." {
		t.Fatalf("unexpected no-results message: %q", result.FormattedOutput)
	}
	if generator.callCount() != 0 {
		t.Fatalf("no AI stage may run on empty search, got %d calls", generator.callCount())
	}
	if result.Outcome != domain.OutcomeNoResults {
		t.Fatalf("expected no_results outcome, got %s", result.Outcome)
	}
}

func TestSearchTruncatesAfterFilter(t *testing.T) {
	searcher := &searcherFake{chunks: testChunks(8)}
	generator := &generatorFake{enabled: false}
	uc := newSearchUseCase(t, searcher, generator)

	req := defaultRequest()
	req.Filter = false
	req.MaxResults = 3

	result, err := uc.Search(context.Background(), req)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(result.Chunks) != 3 {
		t.Fatalf("expected truncation to 3 chunks, got %d", len(result.Chunks))
	}
	assertContiguousRanks(t, result.Chunks)
}

func TestSearchPropagatesCollaboratorFailure(t *testing.T) {
	searcher := &searcherFake{err: domain.WrapError(domain.ErrTemporary, "citeassist search", errors.New("all attempts failed"))}
	uc := newSearchUseCase(t, searcher, &generatorFake{enabled: false})

	_, err := uc.Search(context.Background(), defaultRequest())
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary kind preserved, got %v", err)
	}
}

func TestSearchFullAIPath(t *testing.T) {
	searcher := &searcherFake{chunks: testChunks(3)}
	generator := &generatorFake{
		enabled: true,
		respond: func(prompt string) (string, error) {
			switch {
			case strings.Contains(prompt, "relevance evaluator"):
				return `{"relevant": true, "confidence": 0.9, "reasoning": "good"}`, nil
			case strings.Contains(prompt, "ranking specialist"):
				return `{"ranked_ids": [2, 1, 0], "reasoning": "reversed"}`, nil
			case strings.Contains(prompt, "formatting specialist"):
				return "formatted by model", nil
			default:
				return "", errors.New("unexpected prompt")
			}
		},
	}
	uc := newSearchUseCase(t, searcher, generator)

	result, err := uc.Search(context.Background(), defaultRequest())
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(result.Chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(result.Chunks))
	}
	if result.Chunks[0].ID != "c" {
		t.Fatalf("expected model ordering applied, got %s first", result.Chunks[0].ID)
	}
	assertContiguousRanks(t, result.Chunks)
	if !strings.Contains(result.FormattedOutput, "formatted by model") {
		t.Fatalf("expected model-formatted output, got %q", result.FormattedOutput)
	}
}
