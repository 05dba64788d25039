package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// DefaultFile is the configuration file read by Load.
const DefaultFile = "config.yaml"

// Config holds all configuration for orderdesk.
// Values come from config.yaml with environment variable overrides.
// Secrets (passwords) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"3443"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// ShutdownTimeout bounds graceful HTTP shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" env-default:"15s"`

	// MigrationsPath is the golang-migrate source directory.
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"migrations"`

	// SeedFile is an optional YAML fixture applied at startup through the services.
	SeedFile string `yaml:"seed_file" env:"SEED_FILE" env-default:""`

	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	MCP      MCPConfig      `yaml:"mcp"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"orderdesk"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"orderdesk"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`

	// Pool lifetimes and the per-statement limit for request traffic.
	MaxConnLifetime  time.Duration `yaml:"max_conn_lifetime" env:"PGMAX_CONN_LIFETIME" env-default:"1h"`
	MaxConnIdleTime  time.Duration `yaml:"max_conn_idle_time" env:"PGMAX_CONN_IDLE_TIME" env-default:"30m"`
	StatementTimeout time.Duration `yaml:"statement_timeout" env:"PGSTATEMENT_TIMEOUT" env-default:"30s"`
}

// RedisConfig holds the optional selection-cache Redis configuration.
// An empty Host disables the cache.
type RedisConfig struct {
	Host                string `yaml:"host" env:"REDIS_HOST" env-default:""`
	Port                int    `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password            string `yaml:"-" env:"REDIS_PASSWORD"` // Secret - not in YAML
	DB                  int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
	SelectionTTLSeconds int    `yaml:"selection_ttl_seconds" env:"REDIS_SELECTION_TTL_SECONDS" env-default:"300"`

	PoolSize    int           `yaml:"pool_size" env:"REDIS_POOL_SIZE" env-default:"10"`
	DialTimeout time.Duration `yaml:"dial_timeout" env:"REDIS_DIAL_TIMEOUT" env-default:"5s"`
}

// SelectionTTL returns the cache lifetime for selection lists.
func (c *RedisConfig) SelectionTTL() time.Duration {
	return time.Duration(c.SelectionTTLSeconds) * time.Second
}

// MCPConfig controls the MCP tool endpoint.
type MCPConfig struct {
	Enabled bool `yaml:"enabled" env:"MCP_ENABLED" env-default:"true"`
}

// Load reads configuration from config.yaml with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
func Load(version string) (*Config, error) {
	return LoadFrom(DefaultFile, version)
}

// LoadFrom reads configuration from the given YAML file with environment overrides.
func LoadFrom(path, version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("port must be numeric, got %q", c.Port)
	}
	if c.Database.Port <= 0 {
		return fmt.Errorf("database port must be positive")
	}
	if c.Database.StatementTimeout < 0 {
		return fmt.Errorf("database statement_timeout must not be negative")
	}
	if c.Redis.Host != "" && c.Redis.SelectionTTLSeconds <= 0 {
		return fmt.Errorf("redis selection_ttl_seconds must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive")
	}
	return nil
}

// ListenAddr returns the host:port the HTTP server binds to.
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.BindAddr, c.Port)
}

// URL returns a PostgreSQL connection URL. Extra query parameters (for example
// statement_timeout for migrations) are appended.
func (c *DatabaseConfig) URL(extra url.Values) string {
	q := url.Values{}
	q.Set("sslmode", c.SSLMode)
	for k, vs := range extra {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(ResolveHostForDocker(c.Host), strconv.Itoa(c.Port)),
		Path:     "/" + c.Database,
		RawQuery: q.Encode(),
	}
	return u.String()
}

var (
	dockerOnce sync.Once
	inDocker   bool
)

// ResolveHostForDocker maps a loopback host to host.docker.internal when the
// process runs inside a container, so a database on the host stays reachable.
func ResolveHostForDocker(host string) string {
	dockerOnce.Do(func() {
		_, err := os.Stat("/.dockerenv")
		inDocker = err == nil
	})
	if inDocker && (host == "localhost" || host == "127.0.0.1") {
		return "host.docker.internal"
	}
	return host
}
