// internal/workers/automation/browser-proxy/models.go
package browserproxy

import (
	"encoding/json"

	"primoboost-workers/internal/common/validation"
)

type AnalyzeFormRequest struct {
	URL string `json:"url"`
}

// AutoApplyRequest is forwarded to the browser service as-is.
type AutoApplyRequest struct {
	JobID          string                 `json:"jobId"`
	ApplicationURL string                 `json:"applicationUrl"`
	UserID         string                 `json:"userId"`
	ResumeURL      string                 `json:"resumeUrl,omitempty"`
	CoverLetter    string                 `json:"coverLetter,omitempty"`
	UserData       map[string]interface{} `json:"userData,omitempty"`
	Options        map[string]interface{} `json:"options,omitempty"`
}

type AutoApplyResponse struct {
	Success       bool    `json:"success"`
	ApplicationID string  `json:"applicationId,omitempty"`
	Status        string  `json:"status,omitempty"`
	Message       string  `json:"message,omitempty"`
	ScreenshotURL *string `json:"screenshotUrl,omitempty"`
	FallbackURL   *string `json:"fallbackUrl,omitempty"`
	Error         string  `json:"error,omitempty"`
}

// FormAnalysis is the browser service's description of a form. Its shape
// belongs to that service, so it is passed through untouched.
type FormAnalysis = json.RawMessage

var autoApplySchema = validation.MustCompile(`{
	"type": "object",
	"required": ["jobId", "applicationUrl", "userId"],
	"properties": {
		"jobId":          {"type": "string", "minLength": 1},
		"applicationUrl": {"type": "string", "pattern": "^https?://"},
		"userId":         {"type": "string", "minLength": 1},
		"resumeUrl":      {"type": "string"},
		"coverLetter":    {"type": "string", "maxLength": 20000}
	}
}`)
