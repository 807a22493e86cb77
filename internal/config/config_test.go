package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults do not validate: %v", err)
	}

	if cfg.Queue.Limit != 5 {
		t.Errorf("default limit %d, want 5", cfg.Queue.Limit)
	}
	if cfg.Queue.OrderBy != "printed_at" {
		t.Errorf("default order_by %q", cfg.Queue.OrderBy)
	}
	if !cfg.Queue.Claim {
		t.Error("claiming should default on")
	}
	if len(cfg.Routing.Routes) != 6 {
		t.Errorf("default route table has %d entries, want 6", len(cfg.Routing.Routes))
	}
	if cfg.Routing.Default.Printer == "" {
		t.Error("default destination missing")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	content := `
server:
  port: 9090
queue:
  limit: 10
  order_by: id
  claim: false
format:
  labels: khmer
routing:
  routes:
    - prefix: XX
      printer: expo
      address: 10.0.0.9:9100
  default:
    printer: expo
    address: 10.0.0.9:9100
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("port %d", cfg.Server.Port)
	}
	if cfg.Queue.Limit != 10 || cfg.Queue.OrderBy != "id" || cfg.Queue.Claim {
		t.Errorf("queue config not applied: %+v", cfg.Queue)
	}
	if cfg.Format.Labels != "khmer" {
		t.Errorf("labels %q", cfg.Format.Labels)
	}
	if len(cfg.Routing.Routes) != 1 || cfg.Routing.Routes[0].Prefix != "XX" {
		t.Errorf("routes not overridden: %+v", cfg.Routing.Routes)
	}
	// Untouched sections keep their defaults.
	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("read timeout %v", cfg.Server.ReadTimeout)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PRINTQ_PORT", "7070")
	t.Setenv("PRINTQ_DB_PATH", "/tmp/q.db")
	t.Setenv("PRINTQ_AUTH_SECRET", "sekrit")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("port %d", cfg.Server.Port)
	}
	if cfg.Database.Path != "/tmp/q.db" {
		t.Errorf("db path %q", cfg.Database.Path)
	}
	if cfg.Auth.Secret != "sekrit" {
		t.Errorf("secret %q", cfg.Auth.Secret)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"no db path", func(c *Config) { c.Database.Path = "" }},
		{"zero limit", func(c *Config) { c.Queue.Limit = 0 }},
		{"bad order_by", func(c *Config) { c.Queue.OrderBy = "priority" }},
		{"claim without lease", func(c *Config) { c.Queue.LeaseTTL = 0 }},
		{"bad labels", func(c *Config) { c.Format.Labels = "latin" }},
		{"long prefix", func(c *Config) { c.Routing.Routes[0].Prefix = "SDX" }},
		{"dup prefix", func(c *Config) { c.Routing.Routes[1].Prefix = c.Routing.Routes[0].Prefix }},
		{"empty default route", func(c *Config) { c.Routing.Default = RouteConfig{} }},
		{"webhook without url", func(c *Config) {
			c.Webhooks.Endpoints = []WebhookEndpoint{{Name: "pos"}}
		}},
	}

	for _, c := range cases {
		cfg := defaults()
		c.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", c.name)
		}
	}
}
