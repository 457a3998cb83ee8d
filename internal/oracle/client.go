package oracle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/creedhall/doctrine/internal/types"
)

const (
	defaultModel      = "gpt-4o-mini"
	defaultTimeout    = 120 * time.Second
	defaultMaxRetries = 3
	defaultRetryDelay = 2 * time.Second
)

const extractionSystemPrompt = `You extract doctrinal content from book chapter text.

Return ONLY a JSON object (no markdown, no commentary) with exactly these keys:
  "principles": array of strings, general principles stated in the text
  "claims": array of strings, factual or normative claims
  "rules": array of strings, explicit rules or directives
  "warnings": array of strings, cautions and admonitions
  "cross_references": array of integers, chapter numbers referenced by the text

Use empty arrays for anything absent. Every array item must be a plain string
(or integer for cross_references).`

// ClientConfig configures the OpenAI-backed extraction client.
type ClientConfig struct {
	APIKey     string
	Model      string        // "gpt-4o-mini" (default)
	Timeout    time.Duration // Per-attempt call timeout
	MaxRetries int           // Attempts per window before the chapter fails
	RetryDelay time.Duration // Base backoff delay between attempts
	BaseURL    string        // Optional (tests)
	HTTPClient *http.Client  // Optional (tests)
	Logger     *slog.Logger
}

// Client implements Oracle against an OpenAI-compatible chat completions API.
type Client struct {
	model      string
	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration
	client     openai.Client
	logger     *slog.Logger
}

// NewClient creates a new extraction client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	// SDK-level retries stay off: the retry policy lives here so attempts
	// are bounded and observable in one place.
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Client{
		model:      cfg.Model,
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		client:     openai.NewClient(opts...),
		logger:     logger.With("oracle", "openai", "model", cfg.Model),
	}
}

// Extract calls the chat completions API for one window, retrying transient
// failures with backoff. A ShapeError from payload decoding is not retried:
// it signals a content bug, not a transient fault.
func (c *Client) Extract(ctx context.Context, window string) (*types.PartialExtraction, error) {
	var result *types.PartialExtraction

	err := retry.Do(
		func() error {
			attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()

			pe, err := c.extractOnce(attemptCtx, window)
			if err != nil {
				var serr *ShapeError
				if errors.As(err, &serr) {
					return retry.Unrecoverable(err)
				}
				c.logger.Warn("extraction attempt failed", "error", err)
				return err
			}
			result = pe
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(c.maxRetries)),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		var serr *ShapeError
		if errors.As(err, &serr) {
			return nil, serr
		}
		return nil, &OracleError{Attempts: c.maxRetries, Err: err}
	}
	return result, nil
}

func (c *Client) extractOnce(ctx context.Context, window string) (*types.PartialExtraction, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(extractionSystemPrompt),
			openai.UserMessage(window),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	content := stripCodeFences(resp.Choices[0].Message.Content)
	if content == "" {
		return nil, fmt.Errorf("chat completion returned empty content")
	}
	return DecodePayload([]byte(content))
}

// stripCodeFences removes a surrounding markdown code fence if present.
// Models wrap JSON in fences often enough that this is worth one pass.
func stripCodeFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return trimmed
	}
	lines = lines[1:]
	if strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
