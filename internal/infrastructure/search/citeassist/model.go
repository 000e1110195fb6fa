package citeassist

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/gcite/gcite-backend/internal/core/domain"
)

type searchResponse struct {
	Results []searchResult `json:"results"`
}

type searchResult struct {
	ChunkID   string        `json:"chunk_id"`
	Text      string        `json:"text"`
	Metadata  chunkMetadata `json:"metadata"`
	SourceKey string        `json:"source_key"`
	Score     float64       `json:"score"`
}

type chunkMetadata struct {
	Title    string
	Authors  []string
	Year     int
	Citation string
}

// UnmarshalJSON tolerates the year arriving as a JSON number or a string.
// Some upstream libraries export publication years either way.
func (m *chunkMetadata) UnmarshalJSON(data []byte) error {
	var raw struct {
		Title    string          `json:"title"`
		Authors  []string        `json:"authors"`
		Year     json.RawMessage `json:"year"`
		Citation string          `json:"citation"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.Title = raw.Title
	m.Authors = raw.Authors
	m.Citation = raw.Citation
	m.Year = parseYear(raw.Year)
	return nil
}

func parseYear(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return n
		}
	}
	return 0
}

func (r searchResult) toDomain() domain.Chunk {
	title := r.Metadata.Title
	if strings.TrimSpace(title) == "" {
		title = "Unknown"
	}
	authors := r.Metadata.Authors
	if authors == nil {
		authors = []string{}
	}
	return domain.Chunk{
		ID:   r.ChunkID,
		Text: r.Text,
		Source: domain.Source{
			Title:    title,
			Authors:  authors,
			Year:     r.Metadata.Year,
			Citation: r.Metadata.Citation,
			ItemKey:  r.SourceKey,
		},
		SimilarityScore: r.Score,
		RelevanceScore:  r.Score,
	}
}
