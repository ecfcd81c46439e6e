// Package spacetraveling is a blog front-end for a headless CMS built with Go,
// Echo, and templ. It pages through posts, renders post pages with a reading
// time estimate, and can serve them live or export them as static files.
//
// Users provide their own templ templates via the ViewFuncs struct, and
// spacetraveling handles content fetching, pagination, and routing.
package spacetraveling

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/eringen/spacetraveling/cms"
	"github.com/eringen/spacetraveling/cms/prismic"
)

// ViewFuncs holds the templ components the app renders. Load-more URLs are
// passed in already built ("" when there is nothing left to load), so the
// same components serve the live server and the static export.
type ViewFuncs struct {
	Home           func(page ListingPage, moreURL string) templ.Component
	PostList       func(items []ListItem, moreURL string) templ.Component
	LoadMoreFailed func(retryURL string) templ.Component
	Post           func(post PostDetail, preview bool) templ.Component
	NotFound       func() templ.Component
	ServerError    func() templ.Component
}

// App wires a Site to an Echo server, its middleware, and the views.
type App struct {
	Config SiteConfig
	Echo   *echo.Echo
	Site   *Site
	Views  ViewFuncs

	loadMoreLimiter *RateLimiter
	customRoutes    []func(*App)
	staticDir       string
	ready           bool
}

// New creates an App serving content from src.
func New(cfg SiteConfig, src cms.Source, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
		Site: &Site{
			Source:      src,
			ContentType: cfg.ContentType,
			PageSize:    cfg.PageSize,
		},
		Views:     views,
		staticDir: "public",
	}
	a.Echo.HideBanner = true
	a.Echo.Logger.SetLevel(ParseLogLevel(cfg.LogLevel))

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Setup installs middleware and routes. It is called by Start and Run, and
// may be called directly to use the App as an http.Handler in tests.
func (a *App) Setup() {
	if a.ready {
		return
	}
	a.ready = true

	if a.Config.LoadMoreLimit > 0 {
		a.loadMoreLimiter = NewRateLimiter(a.Config.LoadMoreLimit, time.Minute)
	}

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
}

// Start sets the app up and serves until the server fails or is closed.
func (a *App) Start() error {
	a.Setup()
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() { errc <- a.Start() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.Echo.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errc
}

func (a *App) setupRoutes() {
	e := a.Echo

	// Embedded scripts are served under /public/ ahead of the user's static dir.
	embeddedFS, _ := fs.Sub(EmbeddedAssets, "embedded")
	embeddedHandler := http.FileServer(http.FS(embeddedFS))
	e.GET("/public/loadmore.js", echo.WrapHandler(http.StripPrefix("/public/", embeddedHandler)))

	e.Static("/public", a.staticDir)
	e.GET("/robots.txt", a.handleRobots)

	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/", a.handleHome)
	e.GET("/posts/more/", a.handleLoadMore)
	e.GET("/post/:slug/", a.handlePost)

	if a.Config.PreviewEnabled() {
		e.GET("/api/preview/", a.handlePreview)
		e.GET("/api/exit-preview/", a.handleExitPreview)
	}
}

// Close releases the app's background resources. The content source is
// owned by the caller.
func (a *App) Close() error {
	if a.loadMoreLimiter != nil {
		a.loadMoreLimiter.Close()
	}
	return nil
}

// NewSource opens the content source selected by cfg. The returned close
// function releases it.
func NewSource(cfg SiteConfig) (cms.Source, func() error, error) {
	switch cfg.Source {
	case SourceSQLite:
		store, err := NewStore(cfg.DatabasePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open store: %w", err)
		}
		return store, store.Close, nil
	case SourcePrismic:
		opts := []prismic.Option{prismic.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout})}
		if cfg.PrismicAccessToken != "" {
			opts = append(opts, prismic.WithAccessToken(cfg.PrismicAccessToken))
		}
		if cfg.PrismicOrderings != "" {
			opts = append(opts, prismic.WithOrderings(cfg.PrismicOrderings))
		}
		client, err := prismic.New(cfg.PrismicEndpoint, opts...)
		if err != nil {
			return nil, nil, err
		}
		return client, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown content source %q", cfg.Source)
	}
}

// ParseLogLevel maps a LOG_LEVEL value to a gommon log level, defaulting to
// INFO.
func ParseLogLevel(s string) log.Lvl {
	switch s {
	case "debug":
		return log.DEBUG
	case "warn":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	default:
		return log.INFO
	}
}
