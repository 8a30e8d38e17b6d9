// internal/workers/applications/auto-apply-status/projector.go
package autoapplystatus

import (
	"math"
	"time"

	"primoboost-workers/internal/models"
)

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// processingWindow is how long a pending log is walked through the bucket table.
const processingWindow = 120 * time.Second

type bucket struct {
	upTo     time.Duration // exclusive upper bound of elapsed time
	progress int
	step     string
	eta      int
}

// buckets must stay ordered by upTo.
var buckets = []bucket{
	{10 * time.Second, 10, "Analyzing application form...", 110},
	{30 * time.Second, 30, "Filling personal details...", 90},
	{60 * time.Second, 60, "Uploading resume...", 60},
	{90 * time.Second, 80, "Submitting application...", 30},
	{processingWindow, 95, "Capturing confirmation...", 5},
}

var (
	completedProjection  = models.StatusProjection{Status: StatusCompleted, Progress: 100, CurrentStep: "Application submitted successfully", EstimatedTimeRemaining: 0}
	failedProjection     = models.StatusProjection{Status: StatusFailed, Progress: 0, CurrentStep: "Application failed", EstimatedTimeRemaining: 0}
	finalizingProjection = models.StatusProjection{Status: StatusProcessing, Progress: 95, CurrentStep: "Finalizing submission...", EstimatedTimeRemaining: 5}
)

// Elapsed returns whole seconds between the application date and now, floored.
func Elapsed(applicationDate, now time.Time) time.Duration {
	secs := math.Floor(now.Sub(applicationDate).Seconds())
	return time.Duration(secs) * time.Second
}

// Project derives the coarse progress view of an auto-apply log at now.
// Negative elapsed time (clock skew) lands in the first bucket.
func Project(log models.ApplicationLog, now time.Time) models.StatusProjection {
	switch log.Status {
	case models.ApplicationStatusSubmitted:
		return completedProjection
	case models.ApplicationStatusFailed:
		return failedProjection
	case models.ApplicationStatusPending:
		elapsed := Elapsed(log.ApplicationDate, now)
		for _, b := range buckets {
			if elapsed < b.upTo {
				return models.StatusProjection{
					Status:                 StatusProcessing,
					Progress:               b.progress,
					CurrentStep:            b.step,
					EstimatedTimeRemaining: b.eta,
				}
			}
		}
	}
	return finalizingProjection
}

// IsTerminal reports whether a log status can no longer change its projection.
func IsTerminal(status string) bool {
	return status == models.ApplicationStatusSubmitted || status == models.ApplicationStatusFailed
}
