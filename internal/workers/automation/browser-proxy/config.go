// internal/workers/automation/browser-proxy/config.go
package browserproxy

import (
	"strings"
	"time"

	"primoboost-workers/internal/common/config"
)

type Config struct {
	BaseURL       string
	APIKey        string
	Origin        string
	MockMode      bool
	Timeout       time.Duration
	ApplyTimeout  time.Duration
	HealthTimeout time.Duration
}

// ConfigFrom picks the external browser service when one is configured and
// otherwise the hosted functions endpoint, which only simulates the flow.
func ConfigFrom(cfg *config.Config) *Config {
	b := cfg.APIs.Browser
	c := &Config{
		BaseURL:       strings.TrimRight(b.BaseURL, "/"),
		APIKey:        b.APIKey,
		Origin:        b.Origin,
		Timeout:       time.Duration(b.Timeout) * time.Millisecond,
		ApplyTimeout:  time.Duration(b.ApplyTimeout) * time.Millisecond,
		HealthTimeout: time.Duration(b.HealthTimeout) * time.Millisecond,
	}
	if c.BaseURL == "" {
		c.MockMode = true
		c.BaseURL = strings.TrimRight(cfg.Auth.BaseURL, "/") + "/functions/v1"
		if c.APIKey == "" {
			c.APIKey = cfg.Auth.ServiceKey
		}
	}
	return c
}
