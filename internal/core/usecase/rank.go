package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/gcite/gcite-backend/internal/core/domain"
	"github.com/gcite/gcite-backend/internal/core/ports"
)

const rankTextPreviewLength = 200

// RankStage reorders chunks by importance using a single model call over the
// whole set. The output is always a total, gap-free reordering of the input:
// invalid, duplicate or missing ids in the model's answer degrade to the
// original relative order, never to dropped chunks.
type RankStage struct {
	generator ports.TextGenerator
}

func NewRankStage(generator ports.TextGenerator) *RankStage {
	return &RankStage{generator: generator}
}

type rankingVerdict struct {
	RankedIDs []int  `json:"ranked_ids"`
	Reasoning string `json:"reasoning"`
}

// Rank returns the same chunks annotated with a contiguous 1-based AgentRank.
// No model call is made for fewer than two chunks.
func (s *RankStage) Rank(ctx context.Context, query, queryContext string, chunks []domain.Chunk) []domain.Chunk {
	if !s.generator.Enabled() || len(chunks) <= 1 {
		return assignSequentialRanks(chunks)
	}

	slog.Info("ranking chunks", "count", len(chunks))

	raw, err := s.generator.Generate(ctx, buildRankPrompt(query, queryContext, chunks), domain.GenerationOptions{
		Temperature:     0.2,
		MaxOutputTokens: 500,
	})
	if err != nil {
		slog.Warn("ranking unavailable, using original order", "error", err)
		return assignSequentialRanks(chunks)
	}

	verdict, err := parseRankingVerdict(raw)
	if err != nil {
		slog.Warn("ranking verdict malformed, using original order", "error", err, "raw", truncateRunes(raw, 200))
		return assignSequentialRanks(chunks)
	}

	return reorderByVerdict(chunks, verdict)
}

// reorderByVerdict walks the model's id list, taking each valid first
// occurrence, then appends every unreferenced chunk in original order so the
// rank sequence stays contiguous whatever the model returned.
func reorderByVerdict(chunks []domain.Chunk, verdict rankingVerdict) []domain.Chunk {
	out := make([]domain.Chunk, 0, len(chunks))
	used := make([]bool, len(chunks))

	for _, id := range verdict.RankedIDs {
		if id < 0 || id >= len(chunks) || used[id] {
			continue
		}
		chunk := chunks[id]
		chunk.AgentRank = len(out) + 1
		chunk.RankReasoning = verdict.Reasoning
		out = append(out, chunk)
		used[id] = true
	}

	for i, chunk := range chunks {
		if used[i] {
			continue
		}
		chunk.AgentRank = len(out) + 1
		chunk.RankReasoning = "not included in model ranking"
		out = append(out, chunk)
	}

	return out
}

func assignSequentialRanks(chunks []domain.Chunk) []domain.Chunk {
	out := make([]domain.Chunk, len(chunks))
	copy(out, chunks)
	for i := range out {
		out[i].AgentRank = i + 1
	}
	return out
}

func parseRankingVerdict(raw string) (rankingVerdict, error) {
	var verdict rankingVerdict
	cleaned := extractJSONObject(stripCodeFences(raw))
	if err := json.Unmarshal([]byte(cleaned), &verdict); err != nil {
		return rankingVerdict{}, fmt.Errorf("unmarshal ranking verdict: %w", err)
	}
	return verdict, nil
}

func buildRankPrompt(query, queryContext string, chunks []domain.Chunk) string {
	type chunkSummary struct {
		ID              int     `json:"id"`
		TextPreview     string  `json:"text_preview"`
		Source          string  `json:"source"`
		Year            string  `json:"year"`
		SimilarityScore float64 `json:"similarity_score"`
	}

	summaries := make([]chunkSummary, 0, len(chunks))
	for i, chunk := range chunks {
		summaries = append(summaries, chunkSummary{
			ID:              i,
			TextPreview:     truncateRunes(chunk.Text, rankTextPreviewLength),
			Source:          chunk.Source.Title,
			Year:            yearLabel(chunk.Source.Year),
			SimilarityScore: chunk.SimilarityScore,
		})
	}
	payload, _ := json.MarshalIndent(summaries, "", "  ")

	contextLine := ""
	if queryContext != "" {
		contextLine = "Context: " + queryContext + "\n"
	}

	return fmt.Sprintf(`You are a citation ranking specialist. Rank these chunks by their importance and relevance to the query.

Query: %s
%s
Chunks to rank:
%s

Rank by:
1. Direct relevance to query (primary factor)
2. Strength and quality of evidence
3. Source credibility and impact
4. Recency (prefer newer unless historical context needed)

Respond ONLY with valid JSON in this exact format:
{
  "ranked_ids": [2, 0, 5, 1],
  "reasoning": "brief explanation of ranking logic"
}`, query, contextLine, payload)
}
