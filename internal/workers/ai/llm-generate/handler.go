// internal/workers/ai/llm-generate/handler.go
package llmgenerate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	apperrors "primoboost-workers/internal/common/errors"
	"primoboost-workers/internal/common/logger"
	"primoboost-workers/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "llm-generate"
)

var (
	ErrPromptRequired = errors.New("PROMPT_REQUIRED")
	ErrPromptTooLong  = errors.New("PROMPT_TOO_LONG")
)

type Handler struct {
	config     *Config
	generator  Generator
	logger     logger.Logger
	errHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, generator Generator, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		generator:  generator,
		logger:     l,
		errHandler: apperrors.NewErrorHandler(l),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.errHandler.HandleJobError(context.Background(), client, job,
			apperrors.NewValidationError("Invalid job variables", err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.errHandler.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

// Execute generates text for input.Prompt. The HTTP API calls it directly.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	prompt := strings.TrimSpace(input.Prompt)
	if prompt == "" {
		return nil, toStandardError(ErrPromptRequired)
	}
	if len(prompt) > h.config.MaxPromptLen {
		return nil, toStandardError(fmt.Errorf("%w: %d characters", ErrPromptTooLong, len(prompt)))
	}

	text, err := h.generator.Generate(ctx, prompt)
	if err != nil {
		h.logger.Error("generation failed", map[string]interface{}{"error": err.Error()})
		return nil, toStandardError(err)
	}

	h.logger.Info("generation completed", map[string]interface{}{
		"promptChars": len(prompt),
		"textChars":   len(text),
	})
	return &Output{Text: text, Model: h.config.Model}, nil
}

func toStandardError(err error) error {
	switch {
	case errors.Is(err, ErrPromptRequired):
		return apperrors.NewValidationError("Prompt is required", "")
	case errors.Is(err, ErrPromptTooLong):
		return apperrors.NewValidationError("Prompt is too long", err.Error())
	case errors.Is(err, ErrNotConfigured):
		return apperrors.NewInternalError(errors.New("OpenRouter API key is not configured"))
	case errors.Is(err, ErrLLMTimeout):
		return apperrors.NewTimeoutError("llm", err)
	default:
		return apperrors.NewUpstreamError("llm", err)
	}
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	if _, err = cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}
