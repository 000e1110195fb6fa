package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gcite/gcite-backend/internal/core/domain"
	"github.com/gcite/gcite-backend/internal/core/ports"
)

const (
	noCitationsMessage = "No citations found."

	bannerLine    = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"
	separatorLine = "─────────────────────────────────────────────────"
	footerText    = "Generated by gCite • cite-assist + Gemini AI"
)

// FormatStage turns ranked chunks into publication-style citation text.
// It always succeeds: when the model is disabled, fails or returns nothing,
// the deterministic basic renderer takes over.
type FormatStage struct {
	generator ports.TextGenerator
}

func NewFormatStage(generator ports.TextGenerator) *FormatStage {
	return &FormatStage{generator: generator}
}

func (s *FormatStage) Format(ctx context.Context, chunks []domain.Chunk, style domain.CitationStyle, includeContext bool) string {
	if len(chunks) == 0 {
		return noCitationsMessage
	}
	if !s.generator.Enabled() {
		return s.renderBasic(chunks, includeContext)
	}

	slog.Info("formatting chunks", "count", len(chunks), "style", style)

	raw, err := s.generator.Generate(ctx, buildFormatPrompt(chunks, style, includeContext), domain.GenerationOptions{
		Temperature:     0.3,
		MaxOutputTokens: 2000,
	})
	if err != nil {
		slog.Warn("formatting unavailable, using basic renderer", "error", err)
		return s.renderBasic(chunks, includeContext)
	}

	return wrapBanner(raw, len(chunks))
}

// renderBasic emits a fixed block per chunk in rank order: rank, title, star
// rating, score, optional quoted text and the citation string.
func (s *FormatStage) renderBasic(chunks []domain.Chunk, includeContext bool) string {
	var b strings.Builder
	for _, chunk := range chunks {
		fmt.Fprintf(&b, "[%d] %s\n", chunk.AgentRank, chunk.Source.Title)
		b.WriteString(separatorLine + "\n")
		fmt.Fprintf(&b, "Relevance: %s (%.2f)\n\n", starRating(chunk.RelevanceScore), chunk.RelevanceScore)
		if includeContext {
			fmt.Fprintf(&b, "\"%s\"\n\n", chunk.Text)
		}
		fmt.Fprintf(&b, "Citation: %s\n\n", chunk.Source.Citation)
		b.WriteString(separatorLine + "\n\n")
	}
	return wrapBanner(b.String(), len(chunks))
}

// starRating renders exactly five symbols: floor(relevance*5) filled stars
// and the remainder empty, for relevance already clamped to [0,1].
func starRating(relevance float64) string {
	filled := int(clamp01(relevance) * 5)
	if filled > 5 {
		filled = 5
	}
	return strings.Repeat("★", filled) + strings.Repeat("☆", 5-filled)
}

func wrapBanner(content string, count int) string {
	return fmt.Sprintf(`%s
📚 CITATION RESULTS (%d citations)
%s

%s

%s
%s
%s`, bannerLine, count, bannerLine, strings.TrimSpace(content), bannerLine, footerText, bannerLine)
}

func buildFormatPrompt(chunks []domain.Chunk, style domain.CitationStyle, includeContext bool) string {
	type sourcePayload struct {
		Title    string   `json:"title"`
		Authors  []string `json:"authors"`
		Year     string   `json:"year"`
		Citation string   `json:"citation"`
	}
	type chunkPayload struct {
		Rank      int           `json:"rank"`
		Text      string        `json:"text"`
		Source    sourcePayload `json:"source"`
		Relevance float64       `json:"relevance"`
	}

	payloads := make([]chunkPayload, 0, len(chunks))
	for _, chunk := range chunks {
		payloads = append(payloads, chunkPayload{
			Rank: chunk.AgentRank,
			Text: chunk.Text,
			Source: sourcePayload{
				Title:    chunk.Source.Title,
				Authors:  chunk.Source.Authors,
				Year:     yearLabel(chunk.Source.Year),
				Citation: chunk.Source.Citation,
			},
			Relevance: chunk.RelevanceScore,
		})
	}
	payload, _ := json.MarshalIndent(payloads, "", "  ")

	return fmt.Sprintf(`You are a citation formatting specialist. Format these chunks as professional citations.

Citation Style: %s
Include Context: %t

Chunks to format:
%s

Format requirements:
1. Clean, professional output ready to paste into a document
2. Proper %s citation style formatting
3. Include relevance indicators (use stars: ★★★★★ for high, ★★★☆☆ for medium, etc.)
4. Group by source if multiple chunks from same paper
5. Include key quotes from the text
6. Add visual separators (use ─ characters) for readability
7. Make it immediately useful for academic writing

Output the formatted citations as plain text.`, style, includeContext, payload, style)
}
