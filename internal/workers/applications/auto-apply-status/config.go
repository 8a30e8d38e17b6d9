// internal/workers/applications/auto-apply-status/config.go
package autoapplystatus

import "time"

type Config struct {
	Timeout time.Duration
	// CacheTTL bounds how long a terminal (submitted/failed) projection is
	// served from Redis. Pending logs are never cached.
	CacheTTL time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout:  10 * time.Second,
		CacheTTL: 5 * time.Minute,
	}
}
