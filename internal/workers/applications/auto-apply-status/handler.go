// internal/workers/applications/auto-apply-status/handler.go
package autoapplystatus

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"primoboost-workers/internal/common/database"
	apperrors "primoboost-workers/internal/common/errors"
	"primoboost-workers/internal/common/logger"
	"primoboost-workers/internal/common/metrics"
	"primoboost-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "auto-apply-status"
)

var (
	ErrApplicationIDRequired = errors.New("APPLICATION_ID_REQUIRED")
	ErrApplicationNotFound   = errors.New("APPLICATION_NOT_FOUND")
	ErrLookupFailed          = errors.New("APPLICATION_LOOKUP_FAILED")
)

const selectLogQuery = `SELECT id, application_date, status, job_listing_id, screenshot_url, error_message FROM auto_apply_logs WHERE id = $1`

type Handler struct {
	config     *Config
	db         *sql.DB
	redis      *redis.Client
	logger     logger.Logger
	errHandler *apperrors.ErrorHandler
	now        func() time.Time
}

// NewHandler creates the status handler. redis may be nil to disable caching.
func NewHandler(config *Config, db *sql.DB, redis *redis.Client, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		db:         db,
		redis:      redis,
		logger:     l,
		errHandler: apperrors.NewErrorHandler(l),
		now:        time.Now,
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

// Execute projects the status of one application and returns a StandardError
// on failure.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	output, err := h.execute(ctx, input)
	if err != nil {
		return nil, toStandardError(err)
	}
	return output, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	id := strings.TrimSpace(input.ApplicationID)
	if id == "" {
		return nil, ErrApplicationIDRequired
	}

	cacheKey := "auto_apply_status:" + id
	if h.redis != nil {
		var cached Output
		found, err := database.GetJSON(ctx, h.redis, cacheKey, &cached)
		if err != nil {
			h.logger.Warn("status cache read failed", map[string]interface{}{
				"applicationId": id,
				"error":         err.Error(),
			})
		} else if found {
			metrics.StatusProjections.WithLabelValues(cached.Status).Inc()
			return &cached, nil
		}
	}

	var log models.ApplicationLog
	err := h.db.QueryRowContext(ctx, selectLogQuery, id).Scan(
		&log.ID, &log.ApplicationDate, &log.Status, &log.JobListingID, &log.ScreenshotURL, &log.ErrorMessage,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrApplicationNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}

	output := &Output{
		StatusProjection: Project(log, h.now()),
		ApplicationID:    log.ID,
		JobID:            log.JobListingID,
		ScreenshotURL:    log.ScreenshotURL,
		ErrorMessage:     log.ErrorMessage,
	}
	metrics.StatusProjections.WithLabelValues(output.Status).Inc()

	if h.redis != nil && h.config.CacheTTL > 0 && IsTerminal(log.Status) {
		if err := database.SetJSON(ctx, h.redis, cacheKey, output, h.config.CacheTTL); err != nil {
			h.logger.Warn("status cache write failed", map[string]interface{}{
				"applicationId": id,
				"error":         err.Error(),
			})
		}
	}

	return output, nil
}

func toStandardError(err error) error {
	switch {
	case errors.Is(err, ErrApplicationIDRequired):
		return apperrors.NewValidationError("Application ID is required", "")
	case errors.Is(err, ErrApplicationNotFound):
		return apperrors.NewNotFoundError("Application not found", "")
	default:
		return apperrors.NewUpstreamError("database", err)
	}
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}
