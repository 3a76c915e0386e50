package config

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"storefront/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.SetOutput(io.Discard, io.Discard)
	os.Exit(m.Run())
}

func TestLoad_DefaultsAndAliases(t *testing.T) {
	t.Setenv("PORT", "6060")
	t.Setenv("ADMIN_TOKEN", "tok")
	t.Setenv("MAIL_FROM", "site@example.com")
	t.Setenv("MAIL_TO", "owner@example.com")
	t.Setenv("CLOUDINARY_FOLDER", "acme/gallery")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatalf("expected an error for an explicit missing config file, got %+v", cfg)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("app:\n  business_name: Acme Doors\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err = Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 6060 {
		t.Errorf("port = %d, want 6060", cfg.Server.Port)
	}
	if cfg.Admin.Token != "tok" {
		t.Errorf("admin token = %q", cfg.Admin.Token)
	}
	if cfg.Mail.To != "owner@example.com" {
		t.Errorf("mail.to = %q", cfg.Mail.To)
	}
	if cfg.ImageHost.Folder != "acme/gallery" {
		t.Errorf("folder = %q", cfg.ImageHost.Folder)
	}
	if cfg.App.BusinessName != "Acme Doors" {
		t.Errorf("business name = %q", cfg.App.BusinessName)
	}
	if cfg.MinElapsed() != 1500*time.Millisecond {
		t.Errorf("min elapsed = %v", cfg.MinElapsed())
	}
	if cfg.MaxUploadBytes() != 10<<20 {
		t.Errorf("max upload = %d", cfg.MaxUploadBytes())
	}
	if cfg.GetBaseUrl() != "http://localhost:6060" {
		t.Errorf("base url = %q", cfg.GetBaseUrl())
	}
}

func validConfig() *Config {
	cfg := &Config{}
	cfg.Mail.From = "a@example.com"
	cfg.Mail.To = "b@example.com"
	cfg.Contact.MinElapsed = "1500ms"
	cfg.ImageHost.Driver = DriverCloudinary
	cfg.ImageHost.MaxUploadSize = "10MB"
	cfg.Cache.Driver = CacheMemory
	cfg.Cache.TTL = "60s"
	cfg.Security.RateLimit.Window = "1s"
	cfg.Contact.RateLimit.Window = "1m"
	return cfg
}

func TestValidate(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cases := map[string]func(c *Config){
		"bad min elapsed":   func(c *Config) { c.Contact.MinElapsed = "soon" },
		"bad upload size":   func(c *Config) { c.ImageHost.MaxUploadSize = "lots" },
		"unknown driver":    func(c *Config) { c.ImageHost.Driver = "s3" },
		"redis without url": func(c *Config) { c.Cache.Driver = CacheRedis },
		"bad ttl":           func(c *Config) { c.Cache.TTL = "forever" },
		"half basic auth":   func(c *Config) { c.Admin.User.Username = "admin" },
		"prod without mail": func(c *Config) { c.Server.Env = "production"; c.Mail.To = "" },
		"local bad size": func(c *Config) {
			c.ImageHost.Driver = DriverLocal
			c.ImageHost.Local.MaxSize = "huge"
			c.ImageHost.Local.PruneInterval = "1m"
		},
	}
	for name, mutate := range cases {
		cfg := validConfig()
		mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestValidate_MissingAdminTokenIsAllowed(t *testing.T) {
	cfg := validConfig()
	cfg.Admin.Token = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("missing admin token must not block startup: %v", err)
	}
}
