package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRemote   = "remote"
)

type Config struct {
	Port         string `mapstructure:"PORT"`
	Env          string `mapstructure:"ENV"`
	PatientStore string `mapstructure:"PATIENT_STORE"`

	DatabaseURL   string `mapstructure:"DATABASE_URL"`
	DBMaxConns    int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns    int32  `mapstructure:"DB_MIN_CONNS"`
	MigrationsDir string `mapstructure:"MIGRATIONS_DIR"`

	PatientServiceURL string        `mapstructure:"PATIENT_SERVICE_URL"`
	RAGBaseURL        string        `mapstructure:"RAG_BASE_URL"`
	RAGStatusPath     string        `mapstructure:"RAG_STATUS_PATH"`
	RAGQueryPath      string        `mapstructure:"RAG_QUERY_PATH"`
	RAGReadyValues    []string      `mapstructure:"RAG_READY_VALUES"`
	RAGTopResults     int           `mapstructure:"RAG_TOP_RESULTS"`
	HTTPTimeout       time.Duration `mapstructure:"HTTP_TIMEOUT"`

	AuthToken      string `mapstructure:"AUTH_TOKEN"`
	AuthSigningKey string `mapstructure:"AUTH_SIGNING_KEY"`
	AuthIssuer     string `mapstructure:"AUTH_ISSUER"`

	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`
	BodyLimit   string   `mapstructure:"BODY_LIMIT"`
	PageSize    int      `mapstructure:"PAGE_SIZE"`

	ExportDir      string `mapstructure:"EXPORT_DIR"`
	ExportS3Bucket string `mapstructure:"EXPORT_S3_BUCKET"`
	ExportS3Prefix string `mapstructure:"EXPORT_S3_PREFIX"`

	KafkaBrokers []string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic   string   `mapstructure:"KAFKA_TOPIC"`

	WebhookURL    string `mapstructure:"WEBHOOK_URL"`
	WebhookSecret string `mapstructure:"WEBHOOK_SECRET"`
}

var keys = []string{
	"PORT", "ENV", "PATIENT_STORE",
	"DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS", "MIGRATIONS_DIR",
	"PATIENT_SERVICE_URL", "RAG_BASE_URL", "RAG_STATUS_PATH", "RAG_QUERY_PATH",
	"RAG_READY_VALUES", "RAG_TOP_RESULTS", "HTTP_TIMEOUT",
	"AUTH_TOKEN", "AUTH_SIGNING_KEY", "AUTH_ISSUER",
	"CORS_ORIGINS", "BODY_LIMIT", "PAGE_SIZE",
	"EXPORT_DIR", "EXPORT_S3_BUCKET", "EXPORT_S3_PREFIX",
	"KAFKA_BROKERS", "KAFKA_TOPIC",
	"WEBHOOK_URL", "WEBHOOK_SECRET",
}

// Load reads .env (if present) and the environment. Environment variables
// win over the file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("PATIENT_STORE", StoreMemory)
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("MIGRATIONS_DIR", "migrations")
	v.SetDefault("PATIENT_SERVICE_URL", "http://localhost:8000")
	v.SetDefault("RAG_BASE_URL", "http://localhost:8000")
	v.SetDefault("RAG_STATUS_PATH", "/api/status")
	v.SetDefault("RAG_QUERY_PATH", "/api/query")
	v.SetDefault("RAG_READY_VALUES", "ready")
	v.SetDefault("RAG_TOP_RESULTS", 3)
	v.SetDefault("HTTP_TIMEOUT", "10s")
	v.SetDefault("AUTH_ISSUER", "recorder")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("BODY_LIMIT", "1M")
	v.SetDefault("PAGE_SIZE", 5)
	v.SetDefault("EXPORT_DIR", ".")
	v.SetDefault("EXPORT_S3_PREFIX", "exports")
	v.SetDefault("KAFKA_TOPIC", "patient-events")

	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// A missing .env is fine.
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Comma-separated lists arrive as a single string from the environment.
	cfg.CORSOrigins = splitList(v.GetString("CORS_ORIGINS"))
	cfg.RAGReadyValues = splitList(v.GetString("RAG_READY_VALUES"))
	cfg.KafkaBrokers = splitList(v.GetString("KAFKA_BROKERS"))
	cfg.PatientStore = strings.ToLower(strings.TrimSpace(cfg.PatientStore))

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the chosen store has what it needs and that
// production deployments protect mutations.
func (c *Config) Validate() error {
	switch c.PatientStore {
	case StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when PATIENT_STORE is %q", StorePostgres)
		}
	case StoreRemote:
		if err := checkURL("PATIENT_SERVICE_URL", c.PatientServiceURL); err != nil {
			return err
		}
	default:
		return fmt.Errorf("PATIENT_STORE must be %q, %q, or %q, got %q",
			StoreMemory, StorePostgres, StoreRemote, c.PatientStore)
	}

	if err := checkURL("RAG_BASE_URL", c.RAGBaseURL); err != nil {
		return err
	}
	if c.RAGTopResults < 1 {
		return fmt.Errorf("RAG_TOP_RESULTS must be positive, got %d", c.RAGTopResults)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %s", c.HTTPTimeout)
	}
	if c.PageSize < 1 {
		return fmt.Errorf("PAGE_SIZE must be positive, got %d", c.PageSize)
	}
	if c.IsProduction() && c.AuthSigningKey == "" {
		return fmt.Errorf("AUTH_SIGNING_KEY is required in production")
	}
	if c.AuthSigningKey != "" && len(c.AuthSigningKey) < 32 {
		return fmt.Errorf("AUTH_SIGNING_KEY must be at least 32 bytes, got %d", len(c.AuthSigningKey))
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		return fmt.Errorf("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}
	if c.WebhookURL != "" {
		if err := checkURL("WEBHOOK_URL", c.WebhookURL); err != nil {
			return err
		}
	}
	return nil
}

func checkURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL, got %q", key, raw)
	}
	return nil
}
