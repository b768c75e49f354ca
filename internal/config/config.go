// Package config provides configuration loading and management for the phone registry server.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/stacklok/phone-registry-server/internal/telemetry"
)

const (
	// JobStoreMemory keeps sync job status in process memory
	JobStoreMemory = "memory"

	// JobStoreRedis keeps sync job status in Redis
	JobStoreRedis = "redis"
)

// EnvPrefix is the prefix of the process-level environment variables, such
// as PHONE_REGISTRY_LOG_LEVEL
const EnvPrefix = "PHONE_REGISTRY"

// Environment variables consulted when a secret is not configured in the file
const (
	EnvAccountSID       = "TWILIO_ACCOUNT_SID"
	EnvAuthToken        = "TWILIO_AUTH_TOKEN"
	EnvDatabasePassword = "PHONE_REGISTRY_DATABASE_PASSWORD"
)

const (
	// DefaultSyncConcurrency is the per-job ceiling of concurrent provider calls
	DefaultSyncConcurrency = 10

	// DefaultProviderTimeout is the per-call provider timeout
	DefaultProviderTimeout = 30 * time.Second

	// DefaultProviderMaxRetries is the retry ceiling for a single provider call
	DefaultProviderMaxRetries = 3

	// MaxProviderRetries bounds provider.maxRetries
	MaxProviderRetries = 10
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	Provider  ProviderConfig    `yaml:"provider"`
	Sync      SyncConfig        `yaml:"sync"`
	Jobs      JobsConfig        `yaml:"jobs"`
	Database  *DatabaseConfig   `yaml:"database,omitempty"`
	Telemetry *telemetry.Config `yaml:"telemetry,omitempty"`
}

// ProviderConfig defines how the telephony provider is reached
type ProviderConfig struct {
	// AccountSID identifies the provider account. Falls back to TWILIO_ACCOUNT_SID.
	AccountSID string `yaml:"accountSid,omitempty"`

	// AuthTokenFile is the path to a file containing the auth token.
	// Falls back to TWILIO_AUTH_TOKEN.
	AuthTokenFile string `yaml:"authTokenFile,omitempty"`

	// BaseURL overrides the core API base URL
	BaseURL string `yaml:"baseURL,omitempty"`

	// NumbersBaseURL overrides the regulatory compliance API base URL
	NumbersBaseURL string `yaml:"numbersBaseURL,omitempty"`

	// Timeout is the per-call timeout (e.g., "30s")
	Timeout string `yaml:"timeout,omitempty"`

	// MaxRetries is the retry ceiling for rate-limited and failed calls
	MaxRetries *int `yaml:"maxRetries,omitempty"`

	// RequestsPerSecond paces outgoing calls. Zero disables pacing.
	RequestsPerSecond float64 `yaml:"requestsPerSecond,omitempty"`
}

// SyncConfig defines sync pipeline behavior
type SyncConfig struct {
	// Concurrency is the fan-out ceiling, defaults to 10
	Concurrency int `yaml:"concurrency,omitempty"`

	// Schedule is a cron spec (e.g., "0 3 * * *" or "@every 24h") for periodic syncs.
	// Empty disables scheduling.
	Schedule string `yaml:"schedule,omitempty"`

	// RunOnStartup triggers both sync kinds once when the server starts
	RunOnStartup bool `yaml:"runOnStartup,omitempty"`
}

// JobsConfig selects the job status store
type JobsConfig struct {
	// Store is "memory" (default) or "redis"
	Store string `yaml:"store,omitempty"`

	Redis *RedisConfig `yaml:"redis,omitempty"`
}

// RedisConfig defines the Redis job status store
type RedisConfig struct {
	// URL is a redis:// connection URL
	URL string `yaml:"url"`

	// KeyPrefix namespaces the keys written by the server
	KeyPrefix string `yaml:"keyPrefix,omitempty"`

	// TTL bounds how long a job record is kept (e.g., "24h")
	TTL string `yaml:"ttl,omitempty"`
}

// DatabaseConfig defines database connection settings
type DatabaseConfig struct {
	// Host is the database server hostname or IP address
	Host string `yaml:"host"`

	// Port is the database server port
	Port int `yaml:"port"`

	// User is the database username
	User string `yaml:"user"`

	// PasswordFile is the path to a file containing the database password
	// This is the recommended approach for production deployments
	// The file should contain only the password with optional trailing whitespace
	PasswordFile string `yaml:"passwordFile,omitempty"`

	// Database is the database name
	Database string `yaml:"database"`

	// SSLMode is the SSL mode for the connection (disable, require, verify-ca, verify-full)
	SSLMode string `yaml:"sslMode,omitempty"`

	// MaxOpenConns is the maximum number of open connections to the database
	MaxOpenConns int32 `yaml:"maxOpenConns,omitempty"`

	// MaxIdleConns is the maximum number of idle connections in the pool
	MaxIdleConns int32 `yaml:"maxIdleConns,omitempty"`

	// ConnMaxLifetime is the maximum lifetime of a connection (e.g., "1h", "30m")
	ConnMaxLifetime string `yaml:"connMaxLifetime,omitempty"`
}

// GetAccountSID returns the configured account SID or the TWILIO_ACCOUNT_SID variable
func (p *ProviderConfig) GetAccountSID() string {
	if p.AccountSID != "" {
		return p.AccountSID
	}
	return os.Getenv(EnvAccountSID)
}

// GetAuthToken returns the auth token using the following priority:
// 1. Read from AuthTokenFile if specified
// 2. Read from TWILIO_AUTH_TOKEN environment variable
//
// An empty token with no error means no token is configured.
func (p *ProviderConfig) GetAuthToken() (string, error) {
	if p.AuthTokenFile != "" {
		data, err := os.ReadFile(filepath.Clean(p.AuthTokenFile))
		if err != nil {
			return "", fmt.Errorf("failed to read auth token from file %s: %w", p.AuthTokenFile, err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	return os.Getenv(EnvAuthToken), nil
}

// HasCredentials reports whether both the account SID and auth token are available
func (p *ProviderConfig) HasCredentials() bool {
	token, err := p.GetAuthToken()
	return err == nil && token != "" && p.GetAccountSID() != ""
}

// GetTimeout returns the per-call timeout, using DefaultProviderTimeout if not specified
func (p *ProviderConfig) GetTimeout() time.Duration {
	if p.Timeout == "" {
		return DefaultProviderTimeout
	}
	d, err := time.ParseDuration(p.Timeout)
	if err != nil || d <= 0 {
		return DefaultProviderTimeout
	}
	return d
}

// GetMaxRetries returns the retry ceiling, using DefaultProviderMaxRetries if not specified
func (p *ProviderConfig) GetMaxRetries() int {
	if p.MaxRetries == nil {
		return DefaultProviderMaxRetries
	}
	return *p.MaxRetries
}

// GetConcurrency returns the fan-out ceiling, using DefaultSyncConcurrency if not specified
func (s *SyncConfig) GetConcurrency() int {
	if s.Concurrency <= 0 {
		return DefaultSyncConcurrency
	}
	return s.Concurrency
}

// GetStore returns the job store type, defaulting to memory
func (j *JobsConfig) GetStore() string {
	if j.Store == "" {
		return JobStoreMemory
	}
	return j.Store
}

// GetTTL returns the job record lifetime, zero meaning the store default
func (r *RedisConfig) GetTTL() time.Duration {
	if r == nil || r.TTL == "" {
		return 0
	}
	d, err := time.ParseDuration(r.TTL)
	if err != nil {
		return 0
	}
	return d
}

// GetPassword returns the database password using the following priority:
// 1. Read from PasswordFile if specified
// 2. Read from PHONE_REGISTRY_DATABASE_PASSWORD environment variable
//
// The password from file will have leading/trailing whitespace trimmed.
func (d *DatabaseConfig) GetPassword() (string, error) {
	if d.PasswordFile != "" {
		// Use filepath.Clean to prevent path traversal attacks
		cleanPath := filepath.Clean(d.PasswordFile)

		data, err := os.ReadFile(cleanPath)
		if err != nil {
			return "", fmt.Errorf("failed to read password from file %s: %w", d.PasswordFile, err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	if envPassword := os.Getenv(EnvDatabasePassword); envPassword != "" {
		return envPassword, nil
	}

	return "", fmt.Errorf(
		"no database password configured: set passwordFile or %s environment variable", EnvDatabasePassword,
	)
}

// GetConnectionString builds a PostgreSQL connection string with proper password handling.
// The password is URL-escaped to handle special characters safely.
func (d *DatabaseConfig) GetConnectionString() (string, error) {
	password, err := d.GetPassword()
	if err != nil {
		return "", err
	}

	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}

	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(d.User),
		url.QueryEscape(password),
		d.Host,
		d.Port,
		d.Database,
		sslMode,
	)
	return connString, nil
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	var errs []error
	if err := c.Provider.validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Sync.validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Jobs.validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Database == nil {
		errs = append(errs, fmt.Errorf("database configuration is required"))
	} else if err := c.Database.validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Telemetry.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("telemetry: %w", err))
	}
	return errors.Join(errs...)
}

func (p *ProviderConfig) validate() error {
	for name, raw := range map[string]string{"baseURL": p.BaseURL, "numbersBaseURL": p.NumbersBaseURL} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("provider.%s must be an absolute URL, got %q", name, raw)
		}
	}
	if p.Timeout != "" {
		d, err := time.ParseDuration(p.Timeout)
		if err != nil {
			return fmt.Errorf("provider.timeout: invalid duration %q: %w", p.Timeout, err)
		}
		if d <= 0 {
			return fmt.Errorf("provider.timeout must be positive, got %s", p.Timeout)
		}
	}
	if p.MaxRetries != nil && (*p.MaxRetries < 0 || *p.MaxRetries > MaxProviderRetries) {
		return fmt.Errorf("provider.maxRetries must be between 0 and %d, got %d", MaxProviderRetries, *p.MaxRetries)
	}
	if p.RequestsPerSecond < 0 {
		return fmt.Errorf("provider.requestsPerSecond must not be negative, got %f", p.RequestsPerSecond)
	}
	return nil
}

func (s *SyncConfig) validate() error {
	if s.Concurrency < 0 {
		return fmt.Errorf("sync.concurrency must not be negative, got %d", s.Concurrency)
	}
	if s.Schedule != "" {
		if _, err := cron.ParseStandard(s.Schedule); err != nil {
			return fmt.Errorf("sync.schedule: invalid cron spec %q: %w", s.Schedule, err)
		}
	}
	return nil
}

func (j *JobsConfig) validate() error {
	switch j.GetStore() {
	case JobStoreMemory:
		return nil
	case JobStoreRedis:
		if j.Redis == nil || j.Redis.URL == "" {
			return fmt.Errorf("jobs.redis.url is required when jobs.store is %q", JobStoreRedis)
		}
		if j.Redis.TTL != "" {
			if _, err := time.ParseDuration(j.Redis.TTL); err != nil {
				return fmt.Errorf("jobs.redis.ttl: invalid duration %q: %w", j.Redis.TTL, err)
			}
		}
		return nil
	default:
		return fmt.Errorf("jobs.store must be %q or %q, got %q", JobStoreMemory, JobStoreRedis, j.Store)
	}
}

func (d *DatabaseConfig) validate() error {
	switch {
	case d.Host == "":
		return fmt.Errorf("database.host is required")
	case d.Port == 0:
		return fmt.Errorf("database.port is required")
	case d.User == "":
		return fmt.Errorf("database.user is required")
	case d.Database == "":
		return fmt.Errorf("database.database is required")
	}
	if d.ConnMaxLifetime != "" {
		if _, err := time.ParseDuration(d.ConnMaxLifetime); err != nil {
			return fmt.Errorf("database.connMaxLifetime: invalid duration %q: %w", d.ConnMaxLifetime, err)
		}
	}
	return nil
}
