package usecase

import (
	"context"
	"sync"

	"github.com/gcite/gcite-backend/internal/core/domain"
)

// generatorFake scripts the generative adapter for stage tests. The respond
// callback sees every prompt; calls are counted under a mutex because the
// filter stage invokes Generate concurrently.
type generatorFake struct {
	enabled bool
	respond func(prompt string) (string, error)

	mu      sync.Mutex
	prompts []string
}

func (f *generatorFake) Enabled() bool { return f.enabled }

func (f *generatorFake) Generate(_ context.Context, prompt string, _ domain.GenerationOptions) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.respond == nil {
		return "", domain.ErrGenerationUnavailable
	}
	return f.respond(prompt)
}

func (f *generatorFake) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func testChunks(n int) []domain.Chunk {
	chunks := make([]domain.Chunk, 0, n)
	for i := 0; i < n; i++ {
		chunks = append(chunks, domain.Chunk{
			ID:   string(rune('a' + i)),
			Text: "text " + string(rune('a'+i)),
			Source: domain.Source{
				Title:    "Title " + string(rune('A'+i)),
				Authors:  []string{"Author " + string(rune('A'+i))},
				Year:     2020 + i,
				Citation: "Citation " + string(rune('A'+i)),
			},
			SimilarityScore: 0.9 - float64(i)*0.05,
			RelevanceScore:  0.9 - float64(i)*0.05,
		})
	}
	return chunks
}
