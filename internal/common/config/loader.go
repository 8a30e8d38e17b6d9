// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // environment overlay is optional

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up from the working directory looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			if expanded := os.ExpandEnv(strVal); expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig fills secrets from the conventional environment names
// used by the hosting platform when the YAML left them blank.
func overrideEmptyConfig(cfg *Config) {
	setIfEmpty(&cfg.Auth.BaseURL, "SUPABASE_URL")
	setIfEmpty(&cfg.Auth.ServiceKey, "SUPABASE_SERVICE_ROLE_KEY")
	setIfEmpty(&cfg.Storage.BaseURL, "SUPABASE_URL")
	setIfEmpty(&cfg.Storage.ServiceKey, "SUPABASE_SERVICE_ROLE_KEY")

	setIfEmpty(&cfg.Payments.Razorpay.KeyID, "RAZORPAY_KEY_ID")
	setIfEmpty(&cfg.Payments.Razorpay.KeySecret, "RAZORPAY_KEY_SECRET")

	setIfEmpty(&cfg.APIs.LLM.APIKey, "OPENROUTER_API_KEY")
	setIfEmpty(&cfg.APIs.Browser.BaseURL, "EXTERNAL_BROWSER_SERVICE_URL")
	setIfEmpty(&cfg.APIs.Browser.APIKey, "EXTERNAL_BROWSER_API_KEY")

	setIfEmpty(&cfg.Database.Postgres.User, "DB_USER")
	setIfEmpty(&cfg.Database.Postgres.Password, "DB_PASSWORD")
}

func setIfEmpty(target *string, envKey string) {
	if *target != "" {
		return
	}
	if val := os.Getenv(envKey); val != "" {
		*target = val
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "primoboost-workers"
	}

	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15000
	}
	if cfg.Server.WriteTimeout == 0 {
		// auto-apply proxies may hold a request for three minutes
		cfg.Server.WriteTimeout = 200000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30000
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Elasticsearch.BlogIndex == "" {
		cfg.Database.Elasticsearch.BlogIndex = "blog_posts"
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 30000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}

	if cfg.Auth.Timeout == 0 {
		cfg.Auth.Timeout = 10000
	}
	if cfg.Auth.CacheTTL == 0 {
		cfg.Auth.CacheTTL = 60
	}

	if cfg.Payments.Razorpay.BaseURL == "" {
		cfg.Payments.Razorpay.BaseURL = "https://api.razorpay.com"
	}
	if cfg.Payments.Razorpay.Timeout == 0 {
		cfg.Payments.Razorpay.Timeout = 15000
	}
	if cfg.Payments.Currency == "" {
		cfg.Payments.Currency = "INR"
	}

	if cfg.APIs.LLM.BaseURL == "" {
		cfg.APIs.LLM.BaseURL = "https://openrouter.ai/api/v1"
	}
	if cfg.APIs.LLM.Model == "" {
		cfg.APIs.LLM.Model = "google/gemini-2.5-flash"
	}
	if cfg.APIs.LLM.Referer == "" {
		cfg.APIs.LLM.Referer = "https://primoboost.ai"
	}
	if cfg.APIs.LLM.Title == "" {
		cfg.APIs.LLM.Title = "PrimoBoost AI"
	}
	if cfg.APIs.LLM.MaxAttempts == 0 {
		cfg.APIs.LLM.MaxAttempts = 3
	}
	if cfg.APIs.LLM.InitialDelay == 0 {
		cfg.APIs.LLM.InitialDelay = 800
	}
	if cfg.APIs.LLM.Timeout == 0 {
		cfg.APIs.LLM.Timeout = 60000
	}

	if cfg.APIs.Browser.Origin == "" {
		cfg.APIs.Browser.Origin = "primoboost-ai"
	}
	if cfg.APIs.Browser.Timeout == 0 {
		cfg.APIs.Browser.Timeout = 30000
	}
	if cfg.APIs.Browser.ApplyTimeout == 0 {
		cfg.APIs.Browser.ApplyTimeout = 180000
	}
	if cfg.APIs.Browser.HealthTimeout == 0 {
		cfg.APIs.Browser.HealthTimeout = 10000
	}

	if cfg.Storage.ResumeBucket == "" {
		cfg.Storage.ResumeBucket = "user-resumes"
	}
	if cfg.Storage.Timeout == 0 {
		cfg.Storage.Timeout = 30000
	}

	if cfg.Scheduler.PublishScheduled == "" {
		cfg.Scheduler.PublishScheduled = "@every 1m"
	}
	if cfg.Scheduler.ReindexBlog == "" {
		cfg.Scheduler.ReindexBlog = "@daily"
	}

	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = cfg.App.Name
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Camunda.Enabled && cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required when camunda is enabled")
	}

	if cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if cfg.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if cfg.Database.Postgres.User == "" {
		return fmt.Errorf("database.postgres.user is required")
	}

	if cfg.Database.Elasticsearch.Enabled && len(cfg.Database.Elasticsearch.Addresses) == 0 {
		return fmt.Errorf("database.elasticsearch.addresses is required when elasticsearch is enabled")
	}

	if cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required")
	}

	if cfg.Auth.BaseURL == "" {
		return fmt.Errorf("auth.base_url is required")
	}

	for _, c := range cfg.Catalog.Coupons {
		if c.Percent <= 0 || c.Percent > 100 {
			return fmt.Errorf("catalog.coupons[%s].percent must be within 1..100", c.Code)
		}
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}

	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30000,
		MaxRetries:    3,
	}
}

// IsWorkerEnabled checks if a specific worker is enabled
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}

// IsAdmin reports whether userID may use the admin routes.
func (a AuthConfig) IsAdmin(userID string) bool {
	for _, id := range a.AdminUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}
