// internal/workers/ai/llm-generate/config.go
package llmgenerate

import (
	"strings"
	"time"

	"primoboost-workers/internal/common/config"
)

type Config struct {
	BaseURL      string
	APIKey       string
	Model        string
	Referer      string
	Title        string
	Timeout      time.Duration
	MaxAttempts  int
	InitialDelay time.Duration
	MaxPromptLen int
}

func LoadConfig() *Config {
	return &Config{
		BaseURL:      "https://openrouter.ai/api/v1",
		Model:        "google/gemini-2.5-flash",
		Referer:      "https://primoboost.ai",
		Title:        "PrimoBoost AI",
		Timeout:      60 * time.Second,
		MaxAttempts:  3,
		InitialDelay: 800 * time.Millisecond,
		MaxPromptLen: 100000,
	}
}

// ConfigFrom overlays the apis.llm section on the defaults.
func ConfigFrom(cfg *config.Config) *Config {
	c := LoadConfig()
	l := cfg.APIs.LLM
	if l.BaseURL != "" {
		c.BaseURL = strings.TrimRight(l.BaseURL, "/")
	}
	c.APIKey = l.APIKey
	if l.Model != "" {
		c.Model = l.Model
	}
	if l.Referer != "" {
		c.Referer = l.Referer
	}
	if l.Title != "" {
		c.Title = l.Title
	}
	if l.Timeout > 0 {
		c.Timeout = time.Duration(l.Timeout) * time.Millisecond
	}
	if l.MaxAttempts > 0 {
		c.MaxAttempts = l.MaxAttempts
	}
	if l.InitialDelay > 0 {
		c.InitialDelay = time.Duration(l.InitialDelay) * time.Millisecond
	}
	return c
}
