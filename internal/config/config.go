package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"storefront/pkg/logger"
	"storefront/pkg/utils"
)

const (
	DriverCloudinary = "cloudinary"
	DriverLocal      = "local"

	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

func (c *Config) GetBaseUrl() string {
	if c.BaseURL != "" {
		return strings.TrimRight(c.BaseURL, "/")
	}
	return fmt.Sprintf("http://localhost:%d", c.Server.Port)
}

func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// MinElapsed returns the parsed contact timing threshold. Validate guarantees it parses.
func (c *Config) MinElapsed() time.Duration {
	d, err := time.ParseDuration(c.Contact.MinElapsed)
	if err != nil {
		return 1500 * time.Millisecond
	}
	return d
}

// MaxUploadBytes returns the upload ceiling in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return utils.SizeToBytes(c.ImageHost.MaxUploadSize, 10<<20)
}

// CacheTTL returns the gallery listing TTL.
func (c *Config) CacheTTL() time.Duration {
	d, err := time.ParseDuration(c.Cache.TTL)
	if err != nil {
		return time.Minute
	}
	return d
}

// Load reads configuration from defaults, an optional YAML file and the environment.
// An empty path looks for ./config.yaml.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("STOREFRONT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Conventional names used by existing deployments
	_ = v.BindEnv("server.port", "STOREFRONT_SERVER_PORT", "PORT")
	_ = v.BindEnv("mail.username", "STOREFRONT_MAIL_USERNAME", "EMAIL_USER")
	_ = v.BindEnv("mail.password", "STOREFRONT_MAIL_PASSWORD", "EMAIL_PASS")
	_ = v.BindEnv("mail.from", "STOREFRONT_MAIL_FROM", "MAIL_FROM")
	_ = v.BindEnv("mail.to", "STOREFRONT_MAIL_TO", "MAIL_TO")
	_ = v.BindEnv("imagehost.cloudinary.cloud_name", "STOREFRONT_IMAGEHOST_CLOUDINARY_CLOUD_NAME", "CLOUDINARY_CLOUD_NAME")
	_ = v.BindEnv("imagehost.cloudinary.api_key", "STOREFRONT_IMAGEHOST_CLOUDINARY_API_KEY", "CLOUDINARY_API_KEY")
	_ = v.BindEnv("imagehost.cloudinary.api_secret", "STOREFRONT_IMAGEHOST_CLOUDINARY_API_SECRET", "CLOUDINARY_API_SECRET")
	_ = v.BindEnv("imagehost.folder", "STOREFRONT_IMAGEHOST_FOLDER", "CLOUDINARY_FOLDER")
	_ = v.BindEnv("admin.token", "STOREFRONT_ADMIN_TOKEN", "ADMIN_TOKEN")
	_ = v.BindEnv("admin.user.username", "STOREFRONT_ADMIN_USER_USERNAME", "ADMIN_USERNAME")
	_ = v.BindEnv("admin.user.password", "STOREFRONT_ADMIN_USER_PASSWORD", "ADMIN_PASSWORD")
	_ = v.BindEnv("cache.redis_url", "STOREFRONT_CACHE_REDIS_URL", "REDIS_URL")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			logger.LogInfo("Config file not found. Using Environment Variables and Defaults.")
		} else if path != "" {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		} else {
			logger.LogWarn("Config file found but unreadable: %v", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse configuration: %w", err)
	}

	cfg.BaseURL = cfg.GetBaseUrl()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// App
	v.SetDefault("app.name", "Storefront")
	v.SetDefault("app.version", "0.1.0")
	v.SetDefault("app.business_name", "Warrior Joinery")
	v.SetDefault("app.signature", "Brandon")
	v.SetDefault("app.start_message", true)

	// Server
	v.SetDefault("server.port", 5050)
	v.SetDefault("server.env", "development")
	v.SetDefault("server.static_dir", "dist")

	// Contact
	v.SetDefault("contact.min_elapsed", "1500ms")
	v.SetDefault("contact.min_name_length", 2)
	v.SetDefault("contact.min_message_length", 10)
	v.SetDefault("contact.max_message_length", 5000)
	v.SetDefault("contact.rate_limit.enabled", true)
	v.SetDefault("contact.rate_limit.requests", 5)
	v.SetDefault("contact.rate_limit.window", "1m")
	v.SetDefault("contact.rate_limit.burst", 3)

	// Mail
	v.SetDefault("mail.host", "smtp.gmail.com")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.plaintext", false)

	// Image host
	v.SetDefault("imagehost.driver", DriverCloudinary)
	v.SetDefault("imagehost.folder", "warrior-joinery/gallery")
	v.SetDefault("imagehost.max_upload_size", "10MB")
	v.SetDefault("imagehost.public_limit", 50)
	v.SetDefault("imagehost.admin_limit", 100)
	v.SetDefault("imagehost.local.path", "./data/gallery.db")
	v.SetDefault("imagehost.local.max_size", "2GB")
	v.SetDefault("imagehost.local.prune_interval", "10m")

	// Caching
	v.SetDefault("cache.driver", CacheMemory)
	v.SetDefault("cache.max_capacity", 16)
	v.SetDefault("cache.ttl", "60s")

	// Security & Limits
	v.SetDefault("security.cors_origins", []string{})
	v.SetDefault("security.rate_limit.enabled", true)
	v.SetDefault("security.rate_limit.requests", 20)
	v.SetDefault("security.rate_limit.window", "1s")
	v.SetDefault("security.rate_limit.burst", 50)
}

func (c *Config) Validate() error {
	// A missing admin token is legal: admin routes answer 500 until it is set.
	if c.Admin.Token == "" {
		logger.LogWarn("ADMIN_TOKEN is not set: admin routes will report a configuration error.")
	}

	if c.Mail.From == "" || c.Mail.To == "" {
		if c.IsProduction() {
			return fmt.Errorf("mail.from and mail.to are required in production")
		}
		logger.LogWarn("MAIL_FROM / MAIL_TO not set: contact submissions cannot be delivered.")
	}

	if d, err := time.ParseDuration(c.Contact.MinElapsed); err != nil || d < 0 {
		return fmt.Errorf("invalid contact.min_elapsed '%s'", c.Contact.MinElapsed)
	}

	if _, err := utils.ParseSize(c.ImageHost.MaxUploadSize); err != nil {
		return fmt.Errorf("invalid imagehost.max_upload_size: %w", err)
	}

	switch c.ImageHost.Driver {
	case DriverCloudinary:
		if c.ImageHost.Cloudinary.CloudName == "" {
			logger.LogWarn("CLOUDINARY_CLOUD_NAME not set: gallery requests will fail.")
		}
	case DriverLocal:
		if _, err := utils.ParseSize(c.ImageHost.Local.MaxSize); err != nil {
			return fmt.Errorf("invalid imagehost.local.max_size: %w", err)
		}
		if _, err := time.ParseDuration(c.ImageHost.Local.PruneInterval); err != nil {
			return fmt.Errorf("invalid imagehost.local.prune_interval '%s': %v", c.ImageHost.Local.PruneInterval, err)
		}
	default:
		return fmt.Errorf("unknown imagehost.driver '%s'", c.ImageHost.Driver)
	}

	switch c.Cache.Driver {
	case CacheMemory, CacheNone:
	case CacheRedis:
		if c.Cache.RedisURL == "" {
			return fmt.Errorf("cache.driver is redis but cache.redis_url is empty")
		}
	default:
		return fmt.Errorf("unknown cache.driver '%s'", c.Cache.Driver)
	}

	if _, err := time.ParseDuration(c.Cache.TTL); err != nil {
		return fmt.Errorf("invalid cache.ttl format '%s': %v", c.Cache.TTL, err)
	}

	for _, rl := range []RateLimitConfig{c.Security.RateLimit, c.Contact.RateLimit} {
		if _, err := time.ParseDuration(rl.Window); err != nil {
			return fmt.Errorf("invalid rate_limit.window format '%s': %v", rl.Window, err)
		}
	}

	if (c.Admin.User.Username == "") != (c.Admin.User.Password == "") {
		return fmt.Errorf("admin basic auth needs both admin.user.username and admin.user.password")
	}
	return nil
}
