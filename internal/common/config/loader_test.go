package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const minimalYAML = `
database:
  postgres:
    host: localhost
    database: primoboost
    user: app
  redis:
    address: localhost:6379
auth:
  base_url: https://project.supabase.co
`

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Equal(t, "blog_posts", cfg.Database.Elasticsearch.BlogIndex)
	assert.Equal(t, "https://api.razorpay.com", cfg.Payments.Razorpay.BaseURL)
	assert.Equal(t, "INR", cfg.Payments.Currency)
	assert.Equal(t, "google/gemini-2.5-flash", cfg.APIs.LLM.Model)
	assert.Equal(t, 3, cfg.APIs.LLM.MaxAttempts)
	assert.Equal(t, 800, cfg.APIs.LLM.InitialDelay)
	assert.Equal(t, 180000, cfg.APIs.Browser.ApplyTimeout)
	assert.Equal(t, "primoboost-ai", cfg.APIs.Browser.Origin)
	assert.Equal(t, "user-resumes", cfg.Storage.ResumeBucket)
	assert.Equal(t, "@every 1m", cfg.Scheduler.PublishScheduled)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromFile_EnvOverrides(t *testing.T) {
	t.Setenv("RAZORPAY_KEY_ID", "rzp_test_key")
	t.Setenv("RAZORPAY_KEY_SECRET", "rzp_secret")
	t.Setenv("OPENROUTER_API_KEY", "or-key")

	cfg, err := LoadFromFile(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "rzp_test_key", cfg.Payments.Razorpay.KeyID)
	assert.Equal(t, "rzp_secret", cfg.Payments.Razorpay.KeySecret)
	assert.Equal(t, "or-key", cfg.APIs.LLM.APIKey)
}

func TestLoadFromFile_ExpandsPlaceholders(t *testing.T) {
	t.Setenv("TEST_PG_HOST", "db.internal")
	body := `
database:
  postgres:
    host: ${TEST_PG_HOST}
    database: primoboost
    user: app
  redis:
    address: localhost:6379
auth:
  base_url: https://project.supabase.co
`
	cfg, err := LoadFromFile(writeConfig(t, body))
	require.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.Database.Postgres.Host)
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing postgres host",
			yaml:    "database:\n  redis:\n    address: x\nauth:\n  base_url: y\n",
			wantErr: "database.postgres.host is required",
		},
		{
			name: "camunda enabled without broker",
			yaml: minimalYAML + "camunda:\n  enabled: true\n",
			wantErr: "camunda.broker_address is required",
		},
		{
			name: "coupon percent out of range",
			yaml: minimalYAML + "catalog:\n  coupons:\n    - code: bogus\n      percent: 150\n",
			wantErr: "catalog.coupons[bogus].percent",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetWorkerConfig_FallsBackToDefaults(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{
		"create-order": {Enabled: false, MaxJobsActive: 2, Timeout: 1000, MaxRetries: 1},
	}}

	assert.False(t, IsWorkerEnabled(cfg, "create-order"))
	assert.True(t, IsWorkerEnabled(cfg, "llm-generate"))

	wc := GetWorkerConfig(cfg, "llm-generate")
	assert.True(t, wc.Enabled)
	assert.Equal(t, 5, wc.MaxJobsActive)
	assert.Equal(t, 30000, wc.Timeout)
}

func TestAuthConfig_IsAdmin(t *testing.T) {
	a := AuthConfig{AdminUserIDs: []string{"admin-1"}}
	assert.True(t, a.IsAdmin("admin-1"))
	assert.False(t, a.IsAdmin("user-2"))
}
