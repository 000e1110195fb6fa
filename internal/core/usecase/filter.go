package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/gcite/gcite-backend/internal/core/domain"
	"github.com/gcite/gcite-backend/internal/core/ports"
)

// FilterStage asks the generative model to judge each chunk's relevance to
// the query and drops chunks below the confidence threshold. Every failure
// mode is fail-open: an unavailable call, a malformed verdict or a missing
// field keeps the chunk rather than losing a result to a transient error.
type FilterStage struct {
	generator ports.TextGenerator
	pool      *ants.Pool
}

func NewFilterStage(generator ports.TextGenerator, pool *ants.Pool) *FilterStage {
	return &FilterStage{
		generator: generator,
		pool:      pool,
	}
}

type relevanceVerdict struct {
	Relevant   bool
	Confidence float64
	Reasoning  string

	// failed marks an evaluation that never produced a usable verdict;
	// the chunk is kept with its prior score and AgentFiltered=false.
	failed bool
}

// Filter returns the surviving subset of chunks in their original order,
// annotated with relevance scores. A disabled generator or empty input
// returns the input unchanged.
func (s *FilterStage) Filter(ctx context.Context, query, queryContext string, chunks []domain.Chunk, threshold float64) []domain.Chunk {
	if !s.generator.Enabled() || len(chunks) == 0 {
		return chunks
	}

	slog.Info("filtering chunks", "count", len(chunks), "threshold", threshold)

	// Evaluations are independent; each writes its own slot, so the kept
	// set always follows input order regardless of completion order.
	verdicts := make([]relevanceVerdict, len(chunks))
	var wg sync.WaitGroup
	for i := range chunks {
		wg.Add(1)
		evaluate := func() {
			defer wg.Done()
			verdicts[i] = s.evaluateChunk(ctx, query, queryContext, chunks[i])
		}
		if err := s.pool.Submit(evaluate); err != nil {
			// Pool released or unusable: evaluate inline rather than drop.
			evaluate()
		}
	}
	wg.Wait()

	kept := make([]domain.Chunk, 0, len(chunks))
	for i, verdict := range verdicts {
		chunk := chunks[i]

		if verdict.failed {
			chunk.AgentFiltered = false
			score := chunk.SimilarityScore
			if score == 0 {
				score = 0.5
			}
			chunk.RelevanceScore = clamp01(score)
			chunk.FilterReasoning = verdict.Reasoning
			kept = append(kept, chunk)
			continue
		}

		confidence := clamp01(verdict.Confidence)
		if verdict.Relevant && confidence >= threshold {
			chunk.AgentFiltered = true
			chunk.RelevanceScore = confidence
			chunk.FilterReasoning = verdict.Reasoning
			kept = append(kept, chunk)
			continue
		}

		slog.Debug("chunk dropped below threshold",
			"chunk_id", chunk.ID,
			"confidence", confidence,
			"relevant", verdict.Relevant,
		)
	}

	slog.Info("filter stage done", "kept", len(kept), "dropped", len(chunks)-len(kept))
	return kept
}

func (s *FilterStage) evaluateChunk(ctx context.Context, query, queryContext string, chunk domain.Chunk) relevanceVerdict {
	raw, err := s.generator.Generate(ctx, buildFilterPrompt(query, queryContext, chunk), domain.GenerationOptions{
		Temperature:     0.1,
		MaxOutputTokens: 200,
	})
	if err != nil {
		slog.Warn("chunk evaluation unavailable", "chunk_id", chunk.ID, "error", err)
		return relevanceVerdict{failed: true, Reasoning: "evaluation unavailable, chunk kept"}
	}

	verdict, err := parseRelevanceVerdict(raw)
	if err != nil {
		slog.Warn("chunk evaluation verdict malformed", "chunk_id", chunk.ID, "error", err, "raw", truncateRunes(raw, 200))
		return relevanceVerdict{failed: true, Reasoning: "verdict parse error, chunk kept"}
	}
	return verdict
}

func parseRelevanceVerdict(raw string) (relevanceVerdict, error) {
	var parsed struct {
		Relevant   *bool    `json:"relevant"`
		Confidence *float64 `json:"confidence"`
		Reasoning  string   `json:"reasoning"`
	}
	cleaned := extractJSONObject(stripCodeFences(raw))
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return relevanceVerdict{}, fmt.Errorf("unmarshal relevance verdict: %w", err)
	}
	if parsed.Relevant == nil || parsed.Confidence == nil {
		return relevanceVerdict{}, fmt.Errorf("relevance verdict missing required fields")
	}
	return relevanceVerdict{
		Relevant:   *parsed.Relevant,
		Confidence: clamp01(*parsed.Confidence),
		Reasoning:  parsed.Reasoning,
	}, nil
}

func buildFilterPrompt(query, queryContext string, chunk domain.Chunk) string {
	contextLine := ""
	if queryContext != "" {
		contextLine = "Context: " + queryContext + "\n"
	}

	return fmt.Sprintf(`You are a citation relevance evaluator. Determine if this chunk is relevant to the user's query.

Query: %s
%s
Chunk Text:
%s

Source: %s (%s)

Evaluate:
1. Does this chunk directly address the query topic?
2. Is the information substantive (not just tangential mention)?
3. Would this be a good citation for someone writing about the query topic?
4. Is the source credible and relevant?

Respond ONLY with valid JSON in this exact format:
{
  "relevant": true,
  "confidence": 0.95,
  "reasoning": "brief explanation"
}`, query, contextLine, chunk.Text, chunk.Source.Title, yearLabel(chunk.Source.Year))
}
