// internal/workers/content/blog/handler.go
package blog

import (
	"context"

	apperrors "primoboost-workers/internal/common/errors"
	"primoboost-workers/internal/common/logger"
	"primoboost-workers/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "publish-scheduled-posts"
)

type PublishOutput struct {
	Published int `json:"published"`
}

// PublishHandler runs the scheduled-post publisher as a Zeebe job, for
// processes that publish on a timer event instead of the in-process cron.
type PublishHandler struct {
	config     *Config
	store      *Store
	logger     logger.Logger
	errHandler *apperrors.ErrorHandler
}

func NewPublishHandler(config *Config, store *Store, log logger.Logger) *PublishHandler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &PublishHandler{
		config:     config,
		store:      store,
		logger:     l,
		errHandler: apperrors.NewErrorHandler(l),
	}
}

func (h *PublishHandler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	n, err := h.store.PublishScheduled(ctx)
	if err != nil {
		h.errHandler.HandleJobError(ctx, client, job, err)
		return
	}

	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(PublishOutput{Published: n})
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}
