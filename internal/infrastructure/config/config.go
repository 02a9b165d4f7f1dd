package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full application configuration tree.
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Linnworks LinnworksConfig
	Sync      SyncConfig
}

// AppConfig identifies the service and its listen port.
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig carries PostgreSQL connection and pool settings.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig carries http.Server tuning.
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	TrustedProxies []string
}

// LinnworksConfig holds credentials for the remote order management API.
type LinnworksConfig struct {
	ApplicationID     string
	ApplicationSecret string
	InstallToken      string
	AuthBaseURL       string
	OpenOrdersViewID  int
	LocationID        string
	TimeoutSeconds    int
	PageSize          int
	MaxItems          int
}

// SyncConfig holds order synchronization settings.
type SyncConfig struct {
	Enabled                 bool
	OpenOrdersInterval      int // minutes between open-order runs
	ProcessedOrdersInterval int // minutes between processed-order runs
	PollInterval            time.Duration
	FailedRetryEnabled      bool
	FailedRetryBatchSize    int
	ShutdownTimeout         time.Duration
	MaxConcurrentJobs       int
}

// Load reads config.toml and the environment and returns the merged
// configuration. Environment variables with the ORDERDASH_ prefix (for
// example ORDERDASH_DATABASE_PASSWORD) override file values, and the file
// overrides built-in defaults. A missing config file is not an error.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./backend")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("ORDERDASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
			TrustedProxies: v.GetStringSlice("http.trusted_proxies"),
		},
		Linnworks: LinnworksConfig{
			ApplicationID:     v.GetString("linnworks.application_id"),
			ApplicationSecret: v.GetString("linnworks.application_secret"),
			InstallToken:      v.GetString("linnworks.install_token"),
			AuthBaseURL:       v.GetString("linnworks.auth_base_url"),
			OpenOrdersViewID:  v.GetInt("linnworks.open_orders_view_id"),
			LocationID:        v.GetString("linnworks.location_id"),
			TimeoutSeconds:    v.GetInt("linnworks.timeout_seconds"),
			PageSize:          v.GetInt("linnworks.page_size"),
			MaxItems:          v.GetInt("linnworks.max_items"),
		},
		Sync: SyncConfig{
			Enabled:                 v.GetBool("sync.enabled"),
			OpenOrdersInterval:      v.GetInt("sync.open_orders_interval"),
			ProcessedOrdersInterval: v.GetInt("sync.processed_orders_interval"),
			PollInterval:            v.GetDuration("sync.poll_interval"),
			FailedRetryEnabled:      v.GetBool("sync.failed_retry_enabled"),
			FailedRetryBatchSize:    v.GetInt("sync.failed_retry_batch_size"),
			ShutdownTimeout:         v.GetDuration("sync.shutdown_timeout"),
			MaxConcurrentJobs:       v.GetInt("sync.max_concurrent_jobs"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults fills every zero-valued field with its built-in default.
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "orderdash-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "orderdash"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.Linnworks.AuthBaseURL == "" {
		cfg.Linnworks.AuthBaseURL = "https://api.linnworks.net"
	}
	if cfg.Linnworks.TimeoutSeconds == 0 {
		cfg.Linnworks.TimeoutSeconds = 30
	}
	if cfg.Linnworks.PageSize == 0 {
		cfg.Linnworks.PageSize = 200
	}
	if cfg.Linnworks.MaxItems == 0 {
		cfg.Linnworks.MaxItems = 10000
	}
	if cfg.Sync.OpenOrdersInterval == 0 {
		cfg.Sync.OpenOrdersInterval = 15
	}
	if cfg.Sync.ProcessedOrdersInterval == 0 {
		cfg.Sync.ProcessedOrdersInterval = 60
	}
	if cfg.Sync.PollInterval == 0 {
		cfg.Sync.PollInterval = time.Minute
	}
	if cfg.Sync.FailedRetryBatchSize == 0 {
		cfg.Sync.FailedRetryBatchSize = 50
	}
	if cfg.Sync.ShutdownTimeout == 0 {
		cfg.Sync.ShutdownTimeout = 30 * time.Second
	}
	if cfg.Sync.MaxConcurrentJobs == 0 {
		cfg.Sync.MaxConcurrentJobs = 2
	}
}

// validate rejects configurations the server cannot run with.
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Sync.OpenOrdersInterval < 0 || c.Sync.ProcessedOrdersInterval < 0 {
		return fmt.Errorf("sync intervals cannot be negative")
	}

	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if c.Sync.Enabled && c.Linnworks.InstallToken == "" {
			return fmt.Errorf("linnworks.install_token is required when sync is enabled in production")
		}
	}

	return nil
}

// DSN builds a postgres URL, escaping credentials that contain reserved
// characters.
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
