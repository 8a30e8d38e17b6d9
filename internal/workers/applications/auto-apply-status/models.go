// internal/workers/applications/auto-apply-status/models.go
package autoapplystatus

import "primoboost-workers/internal/models"

type Input struct {
	ApplicationID string `json:"applicationId"`
}

// Output is the projected status returned to the polling client.
type Output = models.ApplicationStatus
