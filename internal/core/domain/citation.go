package domain

// Source is the bibliographic metadata of the document a chunk came from.
// It is attached once when the chunk is built from collaborator output and
// never modified by the pipeline.
type Source struct {
	Title    string   `json:"title"`
	Authors  []string `json:"authors"`
	Year     int      `json:"year"`
	Citation string   `json:"citation"`
	ItemKey  string   `json:"item_key,omitempty"`
}

// Chunk is a unit of retrieved text considered as a citation candidate.
// SimilarityScore comes from the search collaborator; the remaining score,
// rank and reasoning fields are filled in by the pipeline stages.
type Chunk struct {
	ID              string  `json:"id"`
	Text            string  `json:"text"`
	Source          Source  `json:"source"`
	SimilarityScore float64 `json:"similarity_score"`
	RelevanceScore  float64 `json:"relevance_score"`
	AgentFiltered   bool    `json:"agent_filtered"`
	AgentRank       int     `json:"agent_rank"`
	FilterReasoning string  `json:"filter_reasoning,omitempty"`
	RankReasoning   string  `json:"rank_reasoning,omitempty"`
}

type CitationStyle string

const (
	StyleAPA      CitationStyle = "APA"
	StyleMLA      CitationStyle = "MLA"
	StyleChicago  CitationStyle = "Chicago"
	StyleBluebook CitationStyle = "Bluebook"
)

func ValidCitationStyle(style CitationStyle) bool {
	switch style {
	case StyleAPA, StyleMLA, StyleChicago, StyleBluebook:
		return true
	default:
		return false
	}
}

// GenerationOptions are the per-call knobs of the generative text adapter.
type GenerationOptions struct {
	Temperature     float64
	MaxOutputTokens int
}
