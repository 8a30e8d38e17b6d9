// internal/workers/automation/browser-proxy/client.go
package browserproxy

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	apperrors "primoboost-workers/internal/common/errors"
	httpclient "primoboost-workers/internal/common/http"
	"primoboost-workers/internal/common/logger"
	"primoboost-workers/internal/common/metrics"
	"primoboost-workers/internal/common/validation"
	"primoboost-workers/internal/models"
)

const serviceName = "browser"

var (
	ErrAnalyzeFailed   = errors.New("FORM_ANALYSIS_FAILED")
	ErrAutoApplyFailed = errors.New("AUTO_APPLY_FAILED")
)

// fallbackStatus is served whenever the browser service cannot report.
var fallbackStatus = models.StatusProjection{
	Status:                 "processing",
	Progress:               50,
	CurrentStep:            "Processing application...",
	EstimatedTimeRemaining: 60,
}

// Client proxies the external browser automation service. Every call carries
// its own deadline, so the underlying HTTP client has none.
type Client struct {
	config *Config
	client *httpclient.Client
	logger logger.Logger
}

func NewClient(config *Config, log logger.Logger) *Client {
	return &Client{
		config: config,
		client: httpclient.NewClient(0),
		logger: log.WithFields(map[string]interface{}{"service": "browser-proxy", "mockMode": config.MockMode}),
	}
}

func (c *Client) MockMode() bool {
	return c.config.MockMode
}

func (c *Client) headers() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + c.config.APIKey,
		"X-Origin":      c.config.Origin,
	}
}

func (c *Client) record(err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	metrics.UpstreamCalls.WithLabelValues(serviceName, outcome).Inc()
}

// AnalyzeForm asks the browser service to describe the application form at
// applicationURL.
func (c *Client) AnalyzeForm(ctx context.Context, applicationURL string) (FormAnalysis, error) {
	if !validation.ValidateURL(applicationURL) {
		return nil, apperrors.NewValidationError("Invalid application URL", applicationURL)
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	var out FormAnalysis
	err := c.client.DoJSON(ctx, http.MethodPost, c.config.BaseURL+"/analyze-form", c.headers(),
		AnalyzeFormRequest{URL: applicationURL}, &out)
	c.record(err)
	if err != nil {
		c.logger.Error("form analysis failed", map[string]interface{}{"url": applicationURL, "error": err.Error()})
		return nil, toStandardError(fmt.Errorf("%w: %w", ErrAnalyzeFailed, err))
	}
	return out, nil
}

// AutoApply submits an application and waits for the browser run to finish.
func (c *Client) AutoApply(ctx context.Context, req *AutoApplyRequest) (*AutoApplyResponse, error) {
	if result := autoApplySchema.Validate(req); !result.Valid {
		return nil, apperrors.NewValidationError("Invalid auto-apply request", strings.Join(result.GetErrorMessages(), "; "))
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.ApplyTimeout)
	defer cancel()

	c.logger.Info("submitting auto-apply", map[string]interface{}{"jobId": req.JobID, "userId": req.UserID})

	var out AutoApplyResponse
	err := c.client.DoJSON(ctx, http.MethodPost, c.config.BaseURL+"/auto-apply", c.headers(), req, &out)
	c.record(err)
	if err != nil {
		c.logger.Error("auto-apply failed", map[string]interface{}{"jobId": req.JobID, "error": err.Error()})
		return nil, toStandardError(fmt.Errorf("%w: %w", ErrAutoApplyFailed, err))
	}

	c.logger.Info("auto-apply completed", map[string]interface{}{
		"jobId":         req.JobID,
		"applicationId": out.ApplicationID,
		"success":       out.Success,
	})
	return &out, nil
}

// Status reports progress of a running application. It never fails: any
// error yields the generic processing status.
func (c *Client) Status(ctx context.Context, applicationID string) models.StatusProjection {
	endpoint := c.config.BaseURL + "/auto-apply/status/" + url.PathEscape(applicationID)
	if c.config.MockMode {
		endpoint = c.config.BaseURL + "/auto-apply-status/" + url.PathEscape(applicationID)
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	headers := c.headers()
	headers["apikey"] = c.config.APIKey

	var out models.StatusProjection
	err := c.client.DoJSON(ctx, http.MethodGet, endpoint, headers, nil, &out)
	c.record(err)
	if err != nil || out.Status == "" {
		if err != nil {
			c.logger.Warn("status check failed, returning default status", map[string]interface{}{
				"applicationId": applicationID,
				"error":         err.Error(),
			})
		}
		return fallbackStatus
	}
	return out
}

// Cancel stops a running application and reports whether the service
// accepted the request.
func (c *Client) Cancel(ctx context.Context, applicationID string) bool {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	err := c.client.DoJSON(ctx, http.MethodPost,
		c.config.BaseURL+"/auto-apply/cancel/"+url.PathEscape(applicationID), c.headers(), nil, nil)
	c.record(err)
	if err != nil {
		c.logger.Warn("cancel failed", map[string]interface{}{"applicationId": applicationID, "error": err.Error()})
		return false
	}
	return true
}

// Health checks connectivity. In mock mode there is nothing to reach.
func (c *Client) Health(ctx context.Context) bool {
	if c.config.MockMode {
		return true
	}
	ctx, cancel := context.WithTimeout(ctx, c.config.HealthTimeout)
	defer cancel()

	err := c.client.DoJSON(ctx, http.MethodGet, c.config.BaseURL+"/health", c.headers(), nil, nil)
	if err != nil {
		c.logger.Warn("browser service unreachable", map[string]interface{}{"error": err.Error()})
		return false
	}
	return true
}

func toStandardError(err error) error {
	var stdErr *apperrors.StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewTimeoutError("browser service", err)
	}
	return apperrors.NewUpstreamError("browser service", err)
}
