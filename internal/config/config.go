package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Queue    QueueConfig    `yaml:"queue"`
	Format   FormatConfig   `yaml:"format"`
	Routing  RoutingConfig  `yaml:"routing"`
	Auth     AuthConfig     `yaml:"auth"`
	Webhooks WebhooksConfig `yaml:"webhooks"`
}

type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type QueueConfig struct {
	Limit         int           `yaml:"limit"`
	OrderBy       string        `yaml:"order_by"`
	Claim         bool          `yaml:"claim"`
	LeaseTTL      time.Duration `yaml:"lease_ttl"`
	ActiveStatus  string        `yaml:"active_status"`
	ExcludeStatus string        `yaml:"exclude_status"`
}

type FormatConfig struct {
	Labels string `yaml:"labels"`
}

type RouteConfig struct {
	Prefix  string `yaml:"prefix"`
	Printer string `yaml:"printer"`
	Address string `yaml:"address"`
}

type RoutingConfig struct {
	Routes  []RouteConfig `yaml:"routes"`
	Default RouteConfig   `yaml:"default"`
}

type AuthConfig struct {
	// Secret signs/verifies bearer tokens. Empty means only bearer
	// presence is enforced; token issuance lives in the identity
	// service that fronts this one.
	Secret string `yaml:"secret"`
}

type WebhookEndpoint struct {
	Name   string   `yaml:"name"`
	URL    string   `yaml:"url"`
	Secret string   `yaml:"secret"`
	Events []string `yaml:"events"`
}

type WebhooksConfig struct {
	Endpoints   []WebhookEndpoint `yaml:"endpoints"`
	RetryCount  int               `yaml:"retry_count"`
	RetryDelay  time.Duration     `yaml:"retry_delay"`
	Timeout     time.Duration     `yaml:"timeout"`
	WorkerCount int               `yaml:"worker_count"`
	QueueSize   int               `yaml:"queue_size"`
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Path: "./data/printq.db",
		},
		Queue: QueueConfig{
			Limit:        5,
			OrderBy:      "printed_at",
			Claim:        true,
			LeaseTTL:     2 * time.Minute,
			ActiveStatus: "1",
		},
		Format: FormatConfig{
			Labels: "plain",
		},
		Routing: RoutingConfig{
			Routes: []RouteConfig{
				{Prefix: "SD", Printer: "cashier", Address: "192.168.1.51:9100"},
				{Prefix: "BL", Printer: "bar", Address: "192.168.1.52:9100"},
				{Prefix: "GR", Printer: "grill", Address: "192.168.1.53:9100"},
				{Prefix: "FR", Printer: "fryer", Address: "192.168.1.54:9100"},
				{Prefix: "FT", Printer: "fountain", Address: "192.168.1.55:9100"},
				{Prefix: "SN", Printer: "snacks", Address: "192.168.1.56:9100"},
			},
			Default: RouteConfig{Printer: "cashier", Address: "192.168.1.51:9100"},
		},
		Webhooks: WebhooksConfig{
			RetryCount:  3,
			RetryDelay:  5 * time.Second,
			Timeout:     10 * time.Second,
			WorkerCount: 3,
			QueueSize:   100,
		},
	}
}

func Load(configPath string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PRINTQ_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("PRINTQ_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}

	if v := os.Getenv("PRINTQ_AUTH_SECRET"); v != "" {
		cfg.Auth.Secret = v
	}

	if v := os.Getenv("PRINTQ_QUEUE_LIMIT"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil {
			cfg.Queue.Limit = limit
		}
	}
}

func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout < 0 {
		return fmt.Errorf("server read timeout must be non-negative")
	}

	if c.Server.WriteTimeout < 0 {
		return fmt.Errorf("server write timeout must be non-negative")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	if c.Queue.Limit < 1 {
		return fmt.Errorf("queue limit must be at least 1")
	}

	switch c.Queue.OrderBy {
	case "printed_at", "id":
	default:
		return fmt.Errorf("invalid queue order_by: %s (valid: printed_at, id)", c.Queue.OrderBy)
	}

	if c.Queue.Claim && c.Queue.LeaseTTL <= 0 {
		return fmt.Errorf("queue lease_ttl must be positive when claiming is enabled")
	}

	switch c.Format.Labels {
	case "", "plain", "khmer":
	default:
		return fmt.Errorf("invalid format labels: %s (valid: plain, khmer)", c.Format.Labels)
	}

	seen := make(map[string]bool)
	for _, r := range c.Routing.Routes {
		if len(r.Prefix) != 2 {
			return fmt.Errorf("route prefix must be exactly two characters, got %q", r.Prefix)
		}
		if seen[r.Prefix] {
			return fmt.Errorf("duplicate route prefix: %s", r.Prefix)
		}
		seen[r.Prefix] = true
		if r.Printer == "" && r.Address == "" {
			return fmt.Errorf("route %s has no printer and no address", r.Prefix)
		}
	}

	if c.Routing.Default.Printer == "" && c.Routing.Default.Address == "" {
		return fmt.Errorf("default route must name a printer or an address")
	}

	for _, w := range c.Webhooks.Endpoints {
		if w.URL == "" {
			return fmt.Errorf("webhook endpoint %q has no url", w.Name)
		}
	}

	return nil
}
