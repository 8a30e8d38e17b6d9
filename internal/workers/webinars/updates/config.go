// internal/workers/webinars/updates/config.go
package updates

import "time"

type Config struct {
	Timeout        time.Duration
	UnreadCacheTTL time.Duration
	NotifyTimeout  time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout:        10 * time.Second,
		UnreadCacheTTL: 30 * time.Second,
		NotifyTimeout:  5 * time.Second,
	}
}
