// internal/workers/users/preferences/config.go
package preferences

import "time"

type Config struct {
	Timeout          time.Duration
	ResumeBucket     string
	MaxResumeBytes   int64
	ResumeExtensions []string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:          15 * time.Second,
		ResumeBucket:     "user-resumes",
		MaxResumeBytes:   5 << 20,
		ResumeExtensions: []string{"pdf", "doc", "docx", "txt"},
	}
}
