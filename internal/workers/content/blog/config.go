// internal/workers/content/blog/config.go
package blog

import "time"

type Config struct {
	Timeout          time.Duration
	DefaultPageSize  int
	MaxPageSize      int
	RelatedLimit     int
	TaxonomyCacheTTL time.Duration
	IndexName        string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:          15 * time.Second,
		DefaultPageSize:  12,
		MaxPageSize:      50,
		RelatedLimit:     4,
		TaxonomyCacheTTL: 10 * time.Minute,
		IndexName:        "blog_posts",
	}
}
