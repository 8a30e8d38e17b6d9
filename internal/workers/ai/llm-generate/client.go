// internal/workers/ai/llm-generate/client.go
package llmgenerate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	httpclient "primoboost-workers/internal/common/http"
	"primoboost-workers/internal/common/logger"
	"primoboost-workers/internal/common/metrics"
)

var (
	ErrNotConfigured    = errors.New("LLM_NOT_CONFIGURED")
	ErrLLMTimeout       = errors.New("LLM_TIMEOUT")
	ErrLLMRequestFailed = errors.New("LLM_REQUEST_FAILED")
	ErrRetriesExhausted = errors.New("LLM_RETRIES_EXHAUSTED")
	ErrEmptyContent     = errors.New("LLM_EMPTY_CONTENT")
)

// Generator turns a prompt into text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// OpenRouterClient calls the chat completions API with a single user message.
// Rate limits and server errors are retried with doubling backoff; any other
// failure is returned at once.
type OpenRouterClient struct {
	config *Config
	client *httpclient.Client
	logger logger.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

func NewOpenRouterClient(config *Config, log logger.Logger) *OpenRouterClient {
	return &OpenRouterClient{
		config: config,
		client: httpclient.NewClient(0),
		logger: log.WithFields(map[string]interface{}{"service": "llm", "model": config.Model}),
		sleep:  sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *OpenRouterClient) Generate(ctx context.Context, prompt string) (string, error) {
	if c.config.APIKey == "" {
		return "", ErrNotConfigured
	}

	headers := map[string]string{
		"Authorization": "Bearer " + c.config.APIKey,
		"HTTP-Referer":  c.config.Referer,
		"X-Title":       c.config.Title,
	}
	body := chatRequest{
		Model:    c.config.Model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	}

	delay := c.config.InitialDelay
	for attempt := 1; attempt <= c.config.MaxAttempts; attempt++ {
		var resp chatResponse
		err := c.client.DoJSON(ctx, http.MethodPost, c.config.BaseURL+"/chat/completions", headers, body, &resp)
		if err == nil {
			metrics.UpstreamCalls.WithLabelValues("llm", "success").Inc()
			if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
				return "", ErrEmptyContent
			}
			return resp.Choices[0].Message.Content, nil
		}
		metrics.UpstreamCalls.WithLabelValues("llm", "error").Inc()

		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %v", ErrLLMTimeout, err)
		}
		var statusErr *httpclient.StatusError
		if !errors.As(err, &statusErr) || !statusErr.Transient() {
			return "", fmt.Errorf("%w: %v", ErrLLMRequestFailed, err)
		}
		if attempt == c.config.MaxAttempts {
			break
		}

		c.logger.Warn("llm request throttled, retrying", map[string]interface{}{
			"attempt": attempt,
			"status":  statusErr.StatusCode,
			"delayMs": delay.Milliseconds(),
		})
		if err := c.sleep(ctx, delay); err != nil {
			return "", fmt.Errorf("%w: %v", ErrLLMTimeout, err)
		}
		delay *= 2
	}
	return "", fmt.Errorf("%w after %d attempts", ErrRetriesExhausted, c.config.MaxAttempts)
}
