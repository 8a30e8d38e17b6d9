// internal/models/application.go
package models

import "time"

// Auto-apply log statuses as persisted by the browser automation service.
const (
	ApplicationStatusPending   = "pending"
	ApplicationStatusSubmitted = "submitted"
	ApplicationStatusFailed    = "failed"
)

// ApplicationLog is a row of auto_apply_logs. This service only reads it.
type ApplicationLog struct {
	ID              string    `json:"id"`
	ApplicationDate time.Time `json:"applicationDate"`
	Status          string    `json:"status"`
	JobListingID    string    `json:"jobListingId"`
	ScreenshotURL   *string   `json:"screenshotUrl,omitempty"`
	ErrorMessage    *string   `json:"errorMessage,omitempty"`
}

type StatusProjection struct {
	Status                 string `json:"status"`
	Progress               int    `json:"progress"`
	CurrentStep            string `json:"currentStep"`
	EstimatedTimeRemaining int    `json:"estimatedTimeRemaining"`
}

// ApplicationStatus is the projection returned to callers for one log.
type ApplicationStatus struct {
	StatusProjection
	ApplicationID string  `json:"applicationId"`
	JobID         string  `json:"jobId"`
	ScreenshotURL *string `json:"screenshotUrl,omitempty"`
	ErrorMessage  *string `json:"errorMessage,omitempty"`
}
