package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/AnTengye/projectbrief/pkg/logger"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Minio     MinioConfig     `yaml:"minio"`
	Store     StoreConfig     `yaml:"store"`
	LLM       LLMConfig       `yaml:"llm"`
	Admin     AdminConfig     `yaml:"admin"`
	Session   SessionConfig   `yaml:"session"`
	Drafts    DraftsConfig    `yaml:"drafts"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type MinioConfig struct {
	Endpoint      string `yaml:"endpoint"`
	AccessKey     string `yaml:"access_key"`
	SecretKey     string `yaml:"secret_key"`
	Bucket        string `yaml:"bucket"`
	UseSSL        bool   `yaml:"use_ssl"`
	Region        string `yaml:"region"`
	PublicBaseURL string `yaml:"public_base_url"`
	Overwrite     bool   `yaml:"overwrite"`
	MaxRetries    int    `yaml:"max_retries"`
}

// Store drivers
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type StoreConfig struct {
	Driver     string `yaml:"driver"`
	DSN        string `yaml:"dsn"`
	SQLitePath string `yaml:"sqlite_path"`
	MaxRows    int    `yaml:"max_rows"` // memory driver only, 0 = unlimited
}

// LLM providers
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderStub   = "stub"
)

type LLMConfig struct {
	Provider string        `yaml:"provider"`
	APIKey   string        `yaml:"api_key"`
	BaseURL  string        `yaml:"base_url"`
	Model    string        `yaml:"model"`
	Timeout  time.Duration `yaml:"timeout"`
}

type AdminConfig struct {
	Secret   string `yaml:"secret"`
	QueryKey string `yaml:"query_key"`
}

type SessionConfig struct {
	Secret   string `yaml:"secret"`
	TTLHours int    `yaml:"ttl_hours"`
}

type DraftsConfig struct {
	Size int           `yaml:"size"`
	TTL  time.Duration `yaml:"ttl"`
}

// Storage failure policies
const (
	StorageFailureContinue = "continue"
	StorageFailureHalt     = "halt"
)

type PipelineConfig struct {
	StorageFailure string `yaml:"storage_failure"`
}

type RateLimitConfig struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

// applyEnv lets secrets come from the environment instead of the file.
func (c *Config) applyEnv() {
	override := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	switch c.LLM.Provider {
	case ProviderGemini:
		override(&c.LLM.APIKey, "GEMINI_API_KEY")
	default:
		override(&c.LLM.APIKey, "OPENAI_API_KEY")
	}
	override(&c.Minio.AccessKey, "MINIO_ACCESS_KEY")
	override(&c.Minio.SecretKey, "MINIO_SECRET_KEY")
	override(&c.Store.DSN, "DATABASE_DSN")
	override(&c.Admin.Secret, "ADMIN_SECRET")
	override(&c.Session.Secret, "SESSION_SECRET")
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 60 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 120 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Minio.Bucket == "" {
		c.Minio.Bucket = "pdfs"
	}
	if c.Minio.MaxRetries == 0 {
		c.Minio.MaxRetries = 1
	}
	if c.Store.Driver == "" {
		c.Store.Driver = DriverMemory
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = ProviderOpenAI
	}
	if c.LLM.Model == "" {
		switch c.LLM.Provider {
		case ProviderGemini:
			c.LLM.Model = "gemini-2.0-flash"
		default:
			c.LLM.Model = "gpt-4"
		}
	}
	if c.LLM.Timeout == 0 {
		c.LLM.Timeout = 60 * time.Second
	}
	if c.Admin.QueryKey == "" {
		c.Admin.QueryKey = "admin"
	}
	if c.Session.TTLHours == 0 {
		c.Session.TTLHours = 24
	}
	if c.Drafts.Size == 0 {
		c.Drafts.Size = 1024
	}
	if c.Drafts.TTL == 0 {
		c.Drafts.TTL = 2 * time.Hour
	}
	if c.Pipeline.StorageFailure == "" {
		c.Pipeline.StorageFailure = StorageFailureContinue
	}
	if c.RateLimit.Requests == 0 {
		c.RateLimit.Requests = 100
	}
	if c.RateLimit.Window == 0 {
		c.RateLimit.Window = time.Minute
	}
}

// Validate checks the settings that have no defaults and must be present at startup.
func (c *Config) Validate() error {
	var errs []error

	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderGemini:
		if c.LLM.APIKey == "" {
			errs = append(errs, fmt.Errorf("llm.api_key is required for provider %s", c.LLM.Provider))
		}
	case ProviderStub:
	default:
		errs = append(errs, fmt.Errorf("unknown llm.provider %q", c.LLM.Provider))
	}

	if c.Minio.Endpoint == "" {
		errs = append(errs, errors.New("minio.endpoint is required"))
	}
	if c.Minio.AccessKey == "" || c.Minio.SecretKey == "" {
		errs = append(errs, errors.New("minio.access_key and minio.secret_key are required"))
	}

	switch c.Store.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Store.DSN == "" {
			errs = append(errs, errors.New("store.dsn is required for the postgres driver"))
		}
	case DriverSQLite:
		if c.Store.SQLitePath == "" {
			errs = append(errs, errors.New("store.sqlite_path is required for the sqlite driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store.driver %q", c.Store.Driver))
	}

	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}

	if c.Session.Secret == "" {
		errs = append(errs, errors.New("session.secret is required"))
	}

	switch c.Pipeline.StorageFailure {
	case StorageFailureContinue, StorageFailureHalt:
	default:
		errs = append(errs, fmt.Errorf("unknown pipeline.storage_failure %q", c.Pipeline.StorageFailure))
	}

	return errors.Join(errs...)
}
