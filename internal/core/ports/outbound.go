package ports

import (
	"context"

	"github.com/gcite/gcite-backend/internal/core/domain"
)

// ChunkSearcher retrieves citation candidates from the external semantic
// search collaborator.
type ChunkSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]domain.Chunk, error)
}

// TextGenerator wraps a single call to the external generative model.
// Implementations return domain.ErrGenerationUnavailable (possibly wrapped)
// for every failure mode; callers must treat it as an outcome, not an error
// to propagate. Enabled is fixed at construction: true iff a credential is
// configured.
type TextGenerator interface {
	Enabled() bool
	Generate(ctx context.Context, prompt string, opts domain.GenerationOptions) (string, error)
}
