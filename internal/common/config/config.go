// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Server        ServerConfig            `mapstructure:"server"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Auth          AuthConfig              `mapstructure:"auth"`
	Payments      PaymentsConfig          `mapstructure:"payments"`
	Catalog       CatalogConfig           `mapstructure:"catalog"`
	APIs          APIsConfig              `mapstructure:"apis"`
	Storage       StorageConfig           `mapstructure:"storage"`
	Integrations  IntegrationConfig       `mapstructure:"integrations"`
	Scheduler     SchedulerConfig         `mapstructure:"scheduler"`
	Observability ObservabilityConfig     `mapstructure:"observability"`
	Logging       LoggingConfig           `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address         string   `mapstructure:"address"`
	ReadTimeout     int      `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int      `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int      `mapstructure:"shutdown_timeout"` // milliseconds
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
}

type CamundaConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
	AutoMigrate    bool   `mapstructure:"auto_migrate"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Enabled   bool     `mapstructure:"enabled"`
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	BlogIndex string   `mapstructure:"blog_index"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// --- Domain Configuration Sections ---

// AuthConfig points at the hosted auth provider that issues user bearer tokens.
type AuthConfig struct {
	BaseURL      string   `mapstructure:"base_url"`
	ServiceKey   string   `mapstructure:"service_key"`
	Timeout      int      `mapstructure:"timeout"`   // milliseconds
	CacheTTL     int      `mapstructure:"cache_ttl"` // seconds
	AdminUserIDs []string `mapstructure:"admin_user_ids"`
}

type PaymentsConfig struct {
	Razorpay struct {
		BaseURL   string `mapstructure:"base_url"`
		KeyID     string `mapstructure:"key_id"`
		KeySecret string `mapstructure:"key_secret"`
		Timeout   int    `mapstructure:"timeout"` // milliseconds
	} `mapstructure:"razorpay"`
	Currency string `mapstructure:"currency"`
}

// CatalogConfig lets deployments add or override plans, add-ons and coupon rules.
// Entries are merged over the compiled-in defaults once at startup.
type CatalogConfig struct {
	Plans   []PlanEntry   `mapstructure:"plans"`
	AddOns  []AddOnEntry  `mapstructure:"add_ons"`
	Coupons []CouponEntry `mapstructure:"coupons"`
}

type PlanEntry struct {
	ID                 string   `mapstructure:"id"`
	Name               string   `mapstructure:"name"`
	Price              int64    `mapstructure:"price"`
	MRP                int64    `mapstructure:"mrp"`
	DiscountPercentage int      `mapstructure:"discount_percentage"`
	Duration           string   `mapstructure:"duration"`
	Optimizations      int      `mapstructure:"optimizations"`
	ScoreChecks        int      `mapstructure:"score_checks"`
	LinkedinMessages   int      `mapstructure:"linkedin_messages"`
	GuidedBuilds       int      `mapstructure:"guided_builds"`
	DurationInHours    int      `mapstructure:"duration_in_hours"`
	Tag                string   `mapstructure:"tag"`
	TagColor           string   `mapstructure:"tag_color"`
	Gradient           string   `mapstructure:"gradient"`
	Icon               string   `mapstructure:"icon"`
	Features           []string `mapstructure:"features"`
}

type AddOnEntry struct {
	ID       string `mapstructure:"id"`
	Name     string `mapstructure:"name"`
	Price    int64  `mapstructure:"price"`
	Type     string `mapstructure:"type"`
	Quantity int    `mapstructure:"quantity"`
}

type CouponEntry struct {
	Code        string `mapstructure:"code"`
	PlanID      string `mapstructure:"plan_id"` // empty applies to every plan
	Percent     int    `mapstructure:"percent"` // 100 is a full waiver
	GlobalLimit int    `mapstructure:"global_limit"`
}

// APIsConfig holds settings for external API integrations.
type APIsConfig struct {
	LLM struct {
		BaseURL      string `mapstructure:"base_url"`
		APIKey       string `mapstructure:"api_key"`
		Model        string `mapstructure:"model"`
		Referer      string `mapstructure:"referer"`
		Title        string `mapstructure:"title"`
		MaxAttempts  int    `mapstructure:"max_attempts"`
		InitialDelay int    `mapstructure:"initial_delay"` // milliseconds
		Timeout      int    `mapstructure:"timeout"`       // milliseconds
	} `mapstructure:"llm"`

	Browser struct {
		BaseURL       string `mapstructure:"base_url"`
		APIKey        string `mapstructure:"api_key"`
		Origin        string `mapstructure:"origin"`
		Timeout       int    `mapstructure:"timeout"`        // milliseconds
		ApplyTimeout  int    `mapstructure:"apply_timeout"`  // milliseconds
		HealthTimeout int    `mapstructure:"health_timeout"` // milliseconds
	} `mapstructure:"browser"`
}

// StorageConfig is the object storage used for resume uploads.
type StorageConfig struct {
	BaseURL      string `mapstructure:"base_url"`
	ServiceKey   string `mapstructure:"service_key"`
	ResumeBucket string `mapstructure:"resume_bucket"`
	Timeout      int    `mapstructure:"timeout"` // milliseconds
}

// IntegrationConfig holds settings for outbound notification channels.
type IntegrationConfig struct {
	AWS struct {
		Region string `mapstructure:"region"`
		SES    struct {
			Enabled   bool   `mapstructure:"enabled"`
			FromEmail string `mapstructure:"from_email"`
		} `mapstructure:"ses"`
		SNS struct {
			Enabled         bool   `mapstructure:"enabled"`
			WebinarTopicARN string `mapstructure:"webinar_topic_arn"`
		} `mapstructure:"sns"`
	} `mapstructure:"aws"`
}

type SchedulerConfig struct {
	Enabled          bool   `mapstructure:"enabled"`
	PublishScheduled string `mapstructure:"publish_scheduled"`
	ReindexBlog      string `mapstructure:"reindex_blog"`
}

type ObservabilityConfig struct {
	ServiceName    string `mapstructure:"service_name"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
