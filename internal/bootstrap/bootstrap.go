package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/gcite/gcite-backend/internal/config"
	"github.com/gcite/gcite-backend/internal/core/ports"
	"github.com/gcite/gcite-backend/internal/core/usecase"
	"github.com/gcite/gcite-backend/internal/infrastructure/llm/gemini"
	"github.com/gcite/gcite-backend/internal/infrastructure/resilience"
	"github.com/gcite/gcite-backend/internal/infrastructure/search/citeassist"
	"github.com/gcite/gcite-backend/internal/observability/metrics"
)

const ServiceName = "gcite-api"

type App struct {
	Config config.Config

	SearchSvc ports.CitationSearchService
	Metrics   *metrics.HTTPServerMetrics

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	m := metrics.NewHTTPServerMetrics(ServiceName)

	executor := resilience.NewExecutor(resilience.Policy{
		MaxAttempts:       cfg.RetryMaxAttempts,
		InitialBackoff:    cfg.RetryInitialBackoff,
		MaxBackoff:        cfg.RetryMaxBackoff,
		BackoffMultiplier: 2,
		BreakerEnabled:    true,
	})
	searcher := citeassist.New(
		cfg.CiteAssistAPIURL,
		cfg.CiteAssistAPIKey,
		time.Duration(cfg.SearchTimeoutSeconds)*time.Second,
		executor,
	)

	generator, err := gemini.New(
		ctx,
		cfg.GoogleGenAIAPIKey,
		cfg.GeminiModel,
		time.Duration(cfg.AgentTimeoutSeconds)*time.Second,
		generativeCallRecorder{metrics: m, service: ServiceName},
	)
	if err != nil {
		return nil, fmt.Errorf("init gemini client: %w", err)
	}

	pool, err := ants.NewPool(cfg.FilterMaxConcurrency)
	if err != nil {
		return nil, fmt.Errorf("init filter worker pool: %w", err)
	}

	searchSvc := usecase.NewSearchCitationsUseCase(
		searcher,
		usecase.NewFilterStage(generator, pool),
		usecase.NewRankStage(generator),
		usecase.NewFormatStage(generator),
	)

	return &App{
		Config:    cfg,
		SearchSvc: searchSvc,
		Metrics:   m,

		closeFn: func() {
			pool.Release()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

type generativeCallRecorder struct {
	metrics *metrics.HTTPServerMetrics
	service string
}

func (r generativeCallRecorder) RecordGenerativeCall(duration time.Duration, err error) {
	r.metrics.RecordGenerativeCall(r.service, duration, err)
}
