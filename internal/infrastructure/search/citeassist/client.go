package citeassist

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gcite/gcite-backend/internal/core/domain"
	"github.com/gcite/gcite-backend/internal/infrastructure/resilience"
)

const searchMode = "chunks"

// Client talks to the cite-assist semantic search service. Transient
// failures are retried through the executor; client errors from the
// collaborator degrade to an empty result set.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, apiKey string, timeout time.Duration, executor *resilience.Executor) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		executor:   executor,
	}
}

func (c *Client) Search(ctx context.Context, query string, limit int) ([]domain.Chunk, error) {
	payload := searchPayload{
		Query:      query,
		Limit:      limit,
		SearchMode: searchMode,
	}

	var decoded *searchResponse
	err := c.executor.Execute(ctx, "citeassist_search", func(callCtx context.Context) error {
		resp, callErr := c.postSearch(callCtx, payload)
		if callErr != nil {
			return callErr
		}
		decoded = resp
		return nil
	}, classifySearchError)

	if err != nil {
		var statusErr *HTTPStatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode >= 400 && statusErr.StatusCode < 500 && !isRetryableHTTPStatus(statusErr.StatusCode) {
			slog.Error("citeassist_client_error", "status", statusErr.StatusCode, "body", statusErr.Body)
			return []domain.Chunk{}, nil
		}
		return nil, wrapTemporaryIfNeeded("citeassist search", err)
	}

	chunks := make([]domain.Chunk, 0, len(decoded.Results))
	for _, result := range decoded.Results {
		chunks = append(chunks, result.toDomain())
	}
	slog.Info("citeassist_search_done", "query", query, "limit", limit, "results", len(chunks))
	return chunks, nil
}
