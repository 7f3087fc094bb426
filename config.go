package folio

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Content source names.
const (
	SourceSanity = "sanity"
	SourceSQLite = "sqlite"
)

// SiteConfig holds all configuration for a folio site.
type SiteConfig struct {
	Name        string `yaml:"name"`        // Site name (default "AI Portfolio")
	URL         string `yaml:"url" validate:"required,url"`
	Description string `yaml:"description"` // Meta description, RSS channel description
	Author      string `yaml:"author"`      // Author name for JSON-LD
	Icon        string `yaml:"icon"`        // Favicon path (default "/favicon.ico")
	FontsURL    string `yaml:"fonts_url"`   // Hosted font stylesheet

	Addr string `yaml:"addr"` // Listen address (default ":3000")

	Content   ContentConfig   `yaml:"content"`
	Sanity    SanityConfig    `yaml:"sanity"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Chat      ChatConfig      `yaml:"chat"`

	SessionSecret string `yaml:"session_secret" validate:"required,min=16"`
	CookieSecure  bool   `yaml:"cookie_secure"` // Set true for HTTPS

	LogLevel string `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

// ContentConfig selects and tunes the content store.
type ContentConfig struct {
	Source       string        `yaml:"source" validate:"oneof=sanity sqlite"`
	DatabasePath string        `yaml:"database_path"` // SQLite path (default "data/content.db")
	ImageDir     string        `yaml:"image_dir"`     // Local images (default "data/images")
	CacheTTL     time.Duration `yaml:"cache_ttl" validate:"gte=0"`
}

// SanityConfig locates the hosted CMS dataset.
type SanityConfig struct {
	ProjectID  string `yaml:"project_id"`
	Dataset    string `yaml:"dataset"`     // default "production"
	APIVersion string `yaml:"api_version"` // default "2024-01-01"
	Token      string `yaml:"token"`
	UseCDN     bool   `yaml:"use_cdn"`
}

// TelemetryConfig configures the first-party collectors.
type TelemetryConfig struct {
	Enabled       bool   `yaml:"enabled"`
	DatabasePath  string `yaml:"database_path"`  // default "data/telemetry.db"
	RetentionDays int    `yaml:"retention_days" validate:"gte=0"` // default 365
	RateLimit     int    `yaml:"rate_limit" validate:"gte=0"`     // beacons per IP per minute, default 60
}

// ChatConfig locates the hosted chat widget.
type ChatConfig struct {
	ScriptURL string `yaml:"script_url" validate:"omitempty,url"`
	Endpoint  string `yaml:"endpoint" validate:"omitempty,url"`
	Title     string `yaml:"title"`
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "AI Portfolio"
	}
	if c.Description == "" {
		c.Description = "AI Portfolio featuring projects in Generative AI, LLMs, and Computer Vision."
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	c.URL = strings.TrimRight(c.URL, "/")
	if c.Icon == "" {
		c.Icon = "/favicon.ico"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Content.Source == "" {
		c.Content.Source = SourceSanity
		if c.Sanity.ProjectID == "" {
			c.Content.Source = SourceSQLite
		}
	}
	if c.Content.DatabasePath == "" {
		c.Content.DatabasePath = "data/content.db"
	}
	if c.Content.ImageDir == "" {
		c.Content.ImageDir = "data/images"
	}
	if c.Sanity.Dataset == "" {
		c.Sanity.Dataset = "production"
	}
	if c.Sanity.APIVersion == "" {
		c.Sanity.APIVersion = "2024-01-01"
	}
	if c.Telemetry.DatabasePath == "" {
		c.Telemetry.DatabasePath = "data/telemetry.db"
	}
	if c.Telemetry.RetentionDays == 0 {
		c.Telemetry.RetentionDays = 365
	}
	if c.Telemetry.RateLimit == 0 {
		c.Telemetry.RateLimit = 60
	}
	if c.Chat.Title == "" {
		c.Chat.Title = "Chat"
	}
}

var configValidator = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration after defaults are applied.
func (c *SiteConfig) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return fmt.Errorf("folio: invalid config: %w", err)
	}
	if c.Content.Source == SourceSanity {
		if err := configValidator.Var(c.Sanity.ProjectID, "required,alphanum"); err != nil {
			return fmt.Errorf("folio: invalid config: sanity project_id: %w", err)
		}
	}
	return nil
}

// LoadConfig reads .env (if present), then the YAML file at path (if
// non-empty), then environment overrides, and applies defaults.
func LoadConfig(path string) (SiteConfig, error) {
	var cfg SiteConfig
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("folio: load .env: %w", err)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("folio: read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("folio: parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	cfg.setDefaults()
	return cfg, nil
}

func (c *SiteConfig) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	var errs []error
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}

	str("SITE_NAME", &c.Name)
	str("SITE_URL", &c.URL)
	str("SITE_DESCRIPTION", &c.Description)
	str("SITE_AUTHOR", &c.Author)
	str("FONTS_URL", &c.FontsURL)
	str("ADDR", &c.Addr)
	str("LOG_LEVEL", &c.LogLevel)
	str("SESSION_SECRET", &c.SessionSecret)
	boolean("COOKIE_SECURE", &c.CookieSecure)

	str("CONTENT_SOURCE", &c.Content.Source)
	str("CONTENT_DATABASE_PATH", &c.Content.DatabasePath)
	str("CONTENT_IMAGE_DIR", &c.Content.ImageDir)
	if v, ok := lookup("CONTENT_CACHE_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("CONTENT_CACHE_TTL: %w", err))
		} else {
			c.Content.CacheTTL = d
		}
	}

	str("SANITY_PROJECT_ID", &c.Sanity.ProjectID)
	str("SANITY_DATASET", &c.Sanity.Dataset)
	str("SANITY_API_VERSION", &c.Sanity.APIVersion)
	str("SANITY_TOKEN", &c.Sanity.Token)
	boolean("SANITY_USE_CDN", &c.Sanity.UseCDN)

	boolean("TELEMETRY_ENABLED", &c.Telemetry.Enabled)
	str("TELEMETRY_DATABASE_PATH", &c.Telemetry.DatabasePath)
	integer("TELEMETRY_RETENTION_DAYS", &c.Telemetry.RetentionDays)
	integer("TELEMETRY_RATE_LIMIT", &c.Telemetry.RateLimit)

	str("CHAT_SCRIPT_URL", &c.Chat.ScriptURL)
	str("CHAT_ENDPOINT", &c.Chat.Endpoint)
	str("CHAT_TITLE", &c.Chat.Title)

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("folio: environment: %w", err)
	}
	return nil
}
