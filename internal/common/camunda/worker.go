// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"primoboost-workers/internal/common/config"
	"primoboost-workers/internal/common/metrics"
	"primoboost-workers/internal/common/observability"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// HandlerFunc is the Zeebe job handler signature every worker Handle method has.
type HandlerFunc func(client worker.JobClient, job entities.Job)

// Instrument wraps a handler with active-job and duration metrics. A non-nil
// obs also gets a span and the otel job instruments.
func Instrument(taskType string, handler HandlerFunc, obs *observability.Observability) HandlerFunc {
	return func(client worker.JobClient, job entities.Job) {
		metrics.WorkerJobsActive.WithLabelValues(taskType).Inc()
		start := time.Now()

		ctx := context.Background()
		if obs != nil {
			var span trace.Span
			ctx, span = obs.StartSpan(ctx, "job "+taskType,
				attribute.String("task_type", taskType),
				attribute.Int64("job_key", job.Key),
			)
			defer span.End()
		}

		defer func() {
			elapsed := time.Since(start)
			metrics.WorkerJobsActive.WithLabelValues(taskType).Dec()
			metrics.WorkerJobDuration.WithLabelValues(taskType).Observe(elapsed.Seconds())
			if obs != nil {
				obs.RecordJobProcessed(ctx, taskType, "handled")
				obs.RecordJobDuration(ctx, taskType, elapsed, "handled")
			}
		}()
		handler(client, job)
	}
}

// StartWorker opens a job worker for taskType unless it is disabled in config.
// The returned worker is nil when disabled.
func StartWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handler HandlerFunc, obs *observability.Observability, log *zap.Logger) worker.JobWorker {
	if !wcfg.Enabled {
		log.Info("worker disabled", zap.String("taskType", taskType))
		return nil
	}

	jw := client.NewJobWorker().
		JobType(taskType).
		Handler(worker.JobHandler(Instrument(taskType, handler, obs))).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()

	log.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeout_ms", wcfg.Timeout),
	)
	return jw
}
