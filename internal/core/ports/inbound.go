package ports

import (
	"context"

	"github.com/gcite/gcite-backend/internal/core/domain"
)

// CitationSearchService is the inbound contract for the citation pipeline.
type CitationSearchService interface {
	Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResult, error)
}
