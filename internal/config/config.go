// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Admin        AdminConfig        `yaml:"admin"`
	Auth         AuthConfig         `yaml:"auth"`
	Feed         FeedConfig         `yaml:"feed"`
	Definitions  DefinitionsConfig  `yaml:"definitions"`
	Orchestrator OrchestratorConfig `yaml:"orchestrator"`
	Journal      JournalConfig      `yaml:"journal"`
	Archive      ArchiveConfig      `yaml:"archive"`
	Accounts     []AccountConfig    `yaml:"accounts"`
}

type ServerConfig struct {
	Port          int     `yaml:"port"`
	LogLevel      string  `yaml:"log_level"`
	RatePerSecond float64 `yaml:"rate_per_second"`
	RateBurst     int     `yaml:"rate_burst"`
}

type AdminConfig struct {
	Port int `yaml:"port"`
}

type AuthConfig struct {
	Enabled   bool   `yaml:"enabled"`
	JWTSecret string `yaml:"jwt_secret"`
	// BasicUsers maps usernames to bcrypt password hashes for the
	// registry webhook endpoints, which speak basic auth.
	BasicUsers map[string]string `yaml:"basic_users"`
}

type FeedConfig struct {
	QueueSize int `yaml:"queue_size"`
	Workers   int `yaml:"workers"`
}

// DefinitionsConfig points at the pipeline definition service. When URL is empty
// the engine falls back to the pipeline file, which suits dev setups.
type DefinitionsConfig struct {
	URL             string        `yaml:"url"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	PipelineFile    string        `yaml:"pipeline_file"`
	OAuth           OAuthConfig   `yaml:"oauth"`
}

// OrchestratorConfig points at the pipeline orchestrator that actually runs
// pipelines once we decide they should fire.
type OrchestratorConfig struct {
	URL            string        `yaml:"url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	MaxRetries     int           `yaml:"max_retries"`
	RetryInterval  time.Duration `yaml:"retry_interval"`
	OAuth          OAuthConfig   `yaml:"oauth"`
}

type OAuthConfig struct {
	TokenURL     string   `yaml:"token_url"`
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	Scopes       []string `yaml:"scopes"`
}

func (o OAuthConfig) Enabled() bool {
	return o.TokenURL != "" && o.ClientID != ""
}

type JournalConfig struct {
	Backend     string `yaml:"backend"`
	PostgresDSN string `yaml:"postgres_dsn"`
	MemorySize  int    `yaml:"memory_size"`
}

type ArchiveConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Bucket      string `yaml:"bucket"`
	Prefix      string `yaml:"prefix"`
	Region      string `yaml:"region"`
	Endpoint    string `yaml:"endpoint"`
	AccessKey   string `yaml:"access_key"`
	SecretKey   string `yaml:"secret_key"`
	Compression string `yaml:"compression"`
}

// AccountConfig names a docker registry this engine accepts webhooks for.
// Address is matched against the registry host in pushed image references.
type AccountConfig struct {
	Name    string `yaml:"name"`
	Address string `yaml:"address"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:          8089,
			LogLevel:      "info",
			RatePerSecond: 50,
			RateBurst:     100,
		},
		Admin: AdminConfig{
			Port: 8090,
		},
		Feed: FeedConfig{
			QueueSize: 1000,
			Workers:   4,
		},
		Definitions: DefinitionsConfig{
			RefreshInterval: 30 * time.Second,
		},
		Orchestrator: OrchestratorConfig{
			RequestTimeout: 30 * time.Second,
			MaxRetries:     3,
			RetryInterval:  time.Second,
		},
		Journal: JournalConfig{
			Backend:    "memory",
			MemorySize: 1000,
		},
		Archive: ArchiveConfig{
			Prefix:      "events",
			Compression: "gzip",
		},
	}
}

// Load reads the config file at path, applies it over the defaults, then
// applies environment overrides. An empty path skips the file entirely.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	LoadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the engine cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid server port %d", c.Server.Port)
	}
	if c.Admin.Port <= 0 || c.Admin.Port > 65535 {
		return fmt.Errorf("config: invalid admin port %d", c.Admin.Port)
	}
	if c.Feed.QueueSize <= 0 {
		return fmt.Errorf("config: feed queue size must be positive, got %d", c.Feed.QueueSize)
	}
	if c.Feed.Workers <= 0 {
		return fmt.Errorf("config: feed workers must be positive, got %d", c.Feed.Workers)
	}
	if c.Auth.Enabled && c.Auth.JWTSecret == "" {
		return fmt.Errorf("config: auth enabled but jwt_secret is empty")
	}
	switch c.Journal.Backend {
	case "memory":
		if c.Journal.MemorySize <= 0 {
			return fmt.Errorf("config: journal memory size must be positive, got %d", c.Journal.MemorySize)
		}
	case "postgres":
		if c.Journal.PostgresDSN == "" {
			return fmt.Errorf("config: journal backend postgres requires postgres_dsn")
		}
	default:
		return fmt.Errorf("config: unknown journal backend %q", c.Journal.Backend)
	}
	if c.Archive.Enabled {
		if c.Archive.Bucket == "" {
			return fmt.Errorf("config: archive enabled but bucket is empty")
		}
		switch c.Archive.Compression {
		case "", "none", "gzip", "zstd", "snappy":
		default:
			return fmt.Errorf("config: unknown archive compression %q", c.Archive.Compression)
		}
	}
	seen := make(map[string]struct{}, len(c.Accounts))
	for _, a := range c.Accounts {
		if a.Name == "" {
			return fmt.Errorf("config: account with empty name")
		}
		if _, dup := seen[a.Name]; dup {
			return fmt.Errorf("config: duplicate account %q", a.Name)
		}
		seen[a.Name] = struct{}{}
	}
	return nil
}
