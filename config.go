package spacetraveling

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Content sources.
const (
	SourcePrismic = "prismic"
	SourceSQLite  = "sqlite"
)

// SiteConfig holds all configuration for a site.
type SiteConfig struct {
	Name        string `env:"SITE_NAME"`        // Site name (default "spacetraveling")
	URL         string `env:"SITE_URL"`         // Canonical URL (default "http://localhost:3000")
	Description string `env:"SITE_DESCRIPTION"` // Site description for RSS and meta tags
	Author      string `env:"SITE_AUTHOR"`      // Publisher name for JSON-LD
	Locale      string `env:"SITE_LOCALE"`      // BCP 47 tag for dates and UI strings (default "pt-BR")

	Addr string `env:"ADDR"` // Listen address (default ":3000")

	Source             string `env:"CONTENT_SOURCE"`       // "prismic" (default) or "sqlite"
	PrismicEndpoint    string `env:"PRISMIC_ENDPOINT"`     // e.g. https://repo.cdn.prismic.io/api/v2
	PrismicAccessToken string `env:"PRISMIC_ACCESS_TOKEN"` // optional for public repositories
	PrismicOrderings   string `env:"PRISMIC_ORDERINGS"`    // optional orderings predicate
	ContentType        string `env:"CONTENT_TYPE"`         // Post document type (default "posts")
	PageSize           int    `env:"PAGE_SIZE"`            // Posts per listing page (default 1)
	DatabasePath       string `env:"DATABASE_PATH"`        // SQLite path (default "data/content.db")

	SessionSecret string `env:"SESSION_SECRET"` // Preview session secret; previews are off when empty
	CookieSecure  bool   `env:"COOKIE_SECURE"`  // Set true for HTTPS

	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"` // Upstream timeout per request (default 10s)
	LoadMoreLimit  int           `env:"LOAD_MORE_LIMIT"` // Load-more requests per IP per minute (default 30)
	LogLevel       string        `env:"LOG_LEVEL"`       // debug, info, warn, error (default info)
}

// LoadConfig reads a SiteConfig from the environment, fills defaults and
// validates it.
func LoadConfig() (SiteConfig, error) {
	var cfg SiteConfig
	if err := env.Parse(&cfg); err != nil {
		return SiteConfig{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return SiteConfig{}, err
	}
	return cfg, nil
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "spacetraveling"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Locale == "" {
		c.Locale = "pt-BR"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.Source == "" {
		c.Source = SourcePrismic
	}
	if c.ContentType == "" {
		c.ContentType = "posts"
	}
	if c.PageSize == 0 {
		c.PageSize = 1
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/content.db"
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 10 * time.Second
	}
	if c.LoadMoreLimit == 0 {
		c.LoadMoreLimit = 30
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate reports the first configuration problem found.
func (c SiteConfig) Validate() error {
	switch c.Source {
	case SourcePrismic:
		if c.PrismicEndpoint == "" {
			return fmt.Errorf("PRISMIC_ENDPOINT is required when CONTENT_SOURCE=%s", SourcePrismic)
		}
	case SourceSQLite:
		if c.DatabasePath == "" {
			return fmt.Errorf("DATABASE_PATH is required when CONTENT_SOURCE=%s", SourceSQLite)
		}
	default:
		return fmt.Errorf("CONTENT_SOURCE must be %q or %q, got %q", SourcePrismic, SourceSQLite, c.Source)
	}
	if c.PageSize < 0 || c.PageSize > 100 {
		return fmt.Errorf("PAGE_SIZE must be between 1 and 100")
	}
	if c.LoadMoreLimit < 0 {
		return fmt.Errorf("LOAD_MORE_LIMIT cannot be negative")
	}
	return nil
}

// PreviewEnabled reports whether preview sessions can be issued.
func (c SiteConfig) PreviewEnabled() bool {
	return c.SessionSecret != ""
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for user-owned static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}
