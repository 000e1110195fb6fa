package gemini

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"

	"github.com/gcite/gcite-backend/internal/core/domain"
)

// UsageRecorder receives one observation per generation attempt. A nil
// recorder disables instrumentation.
type UsageRecorder interface {
	RecordGenerativeCall(duration time.Duration, err error)
}

// Client adapts a Gemini model behind the text-generation port. Without an
// API key the client stays disabled and every call degrades gracefully.
type Client struct {
	model     llms.Model
	modelName string
	timeout   time.Duration
	recorder  UsageRecorder
}

func New(ctx context.Context, apiKey, modelName string, timeout time.Duration, recorder UsageRecorder) (*Client, error) {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	client := &Client{
		modelName: modelName,
		timeout:   timeout,
		recorder:  recorder,
	}
	if strings.TrimSpace(apiKey) == "" {
		slog.Warn("gemini_disabled", "reason", "missing api key")
		return client, nil
	}

	model, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(modelName),
	)
	if err != nil {
		return nil, err
	}
	client.model = model
	slog.Info("gemini_ready", "model", modelName)
	return client, nil
}

// newWithModel exists for tests that need a fake model behind the client.
func newWithModel(model llms.Model, modelName string, timeout time.Duration, recorder UsageRecorder) *Client {
	return &Client{
		model:     model,
		modelName: modelName,
		timeout:   timeout,
		recorder:  recorder,
	}
}

func (c *Client) Enabled() bool {
	return c != nil && c.model != nil
}

func (c *Client) Generate(ctx context.Context, prompt string, opts domain.GenerationOptions) (string, error) {
	if !c.Enabled() {
		return "", domain.WrapError(domain.ErrGenerationUnavailable, "gemini generate", errors.New("client disabled"))
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	started := time.Now()
	text, err := llms.GenerateFromSinglePrompt(callCtx, c.model, prompt,
		llms.WithTemperature(opts.Temperature),
		llms.WithMaxTokens(opts.MaxOutputTokens),
	)
	if c.recorder != nil {
		c.recorder.RecordGenerativeCall(time.Since(started), err)
	}
	if err != nil {
		return "", domain.WrapError(domain.ErrGenerationUnavailable, "gemini generate", err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", domain.WrapError(domain.ErrGenerationUnavailable, "gemini generate", errors.New("empty completion"))
	}
	return text, nil
}
