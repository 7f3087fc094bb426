// Package folio serves a personal portfolio site built with Go, Echo, and
// templ: a page shell with hosted fonts and first-party telemetry, a blog
// listing fed by a headless CMS (or a local SQLite store), and a sidebar that
// lazily mounts a hosted chat widget.
package folio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/folio/chat"
	"github.com/eringen/folio/content"
	"github.com/eringen/folio/imageurl"
	"github.com/eringen/folio/suspense"
	"github.com/eringen/folio/telemetry"
	"github.com/eringen/folio/views"
)

// ChatBoundaryID names the suspense boundary that holds the chat widget.
const ChatBoundaryID = "chat"

// App is the central folio application. It wires together the content
// source, image derivation, suspense boundaries, telemetry, middleware and
// handlers.
type App struct {
	Config   SiteConfig
	Echo     *echo.Echo
	Logger   *zap.Logger
	Content  content.Source
	Images   imageurl.Builder
	Suspense *suspense.Registry

	chatLoad     suspense.Loader
	chatBoundary *suspense.Boundary

	telemetryStore   *telemetry.Store
	telemetryHandler *telemetry.Handler
	stopCleanup      func()

	closers      []io.Closer
	customRoutes []func(*App)
	staticDir    string
	initialized  bool
}

// New creates a folio App. Call Init (or Start) before serving.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	a := &App{
		Config:    cfg,
		Echo:      e,
		Logger:    zap.NewNop(),
		Suspense:  suspense.NewRegistry("/_suspense"),
		staticDir: "public",
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Init validates configuration, opens stores, and registers middleware and
// routes. It is idempotent.
func (a *App) Init() error {
	if a.initialized {
		return nil
	}
	if err := a.Config.Validate(); err != nil {
		return err
	}
	if err := a.initContent(); err != nil {
		return err
	}
	if err := a.initTelemetry(); err != nil {
		return err
	}
	if err := a.initSuspense(); err != nil {
		return err
	}

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	a.initialized = true
	return nil
}

func (a *App) initContent() error {
	if a.Content == nil {
		src, closer, err := OpenContent(a.Config, a.Logger)
		if err != nil {
			return err
		}
		if closer != nil {
			a.closers = append(a.closers, closer)
		}
		a.Content = src
	}
	if a.Images == nil {
		a.Images = ImageBuilder(a.Config)
	}
	return nil
}

// OpenContent builds the content source selected by cfg, wrapped in a cache
// when a TTL is set. The closer is nil for sources that hold no resources.
func OpenContent(cfg SiteConfig, logger *zap.Logger) (content.Source, io.Closer, error) {
	var (
		src    content.Source
		closer io.Closer
	)
	switch cfg.Content.Source {
	case SourceSanity:
		src = content.NewSanityClient(
			cfg.Sanity.ProjectID,
			cfg.Sanity.Dataset,
			cfg.Sanity.APIVersion,
			content.WithToken(cfg.Sanity.Token),
			content.WithCDN(cfg.Sanity.UseCDN),
			content.WithLogger(logger),
		)
	case SourceSQLite:
		store, err := content.NewSQLiteStore(cfg.Content.DatabasePath)
		if err != nil {
			return nil, nil, fmt.Errorf("folio: init content store: %w", err)
		}
		src, closer = store, store
	default:
		return nil, nil, fmt.Errorf("folio: unknown content source %q", cfg.Content.Source)
	}
	if cfg.Content.CacheTTL > 0 {
		src = content.NewCache(src, cfg.Content.CacheTTL)
	}
	return src, closer, nil
}

// ImageBuilder returns the image URL builder matching the content source.
func ImageBuilder(cfg SiteConfig) imageurl.Builder {
	if cfg.Content.Source == SourceSanity {
		return imageurl.SanityCDN{ProjectID: cfg.Sanity.ProjectID, Dataset: cfg.Sanity.Dataset}
	}
	return imageurl.Local{Prefix: "/images"}
}

func (a *App) initTelemetry() error {
	tc := a.Config.Telemetry
	if !tc.Enabled {
		return nil
	}
	store, err := telemetry.NewStore(tc.DatabasePath)
	if err != nil {
		return fmt.Errorf("folio: init telemetry: %w", err)
	}
	salt, err := telemetry.LoadSalt(context.Background(), store)
	if err != nil {
		store.Close()
		return fmt.Errorf("folio: init telemetry salt: %w", err)
	}
	a.telemetryStore = store
	a.telemetryHandler = telemetry.NewHandler(store, salt, tc.RateLimit, a.Logger.Named("telemetry"))
	a.stopCleanup = store.StartCleanupScheduler(tc.RetentionDays, 24*time.Hour, a.Logger.Named("telemetry"))
	return nil
}

func (a *App) initSuspense() error {
	load := a.chatLoad
	if load == nil {
		load = chat.Widget{
			ScriptURL: a.Config.Chat.ScriptURL,
			Endpoint:  a.Config.Chat.Endpoint,
			Title:     a.Config.Chat.Title,
		}.Load
	}
	b, err := a.Suspense.Register(ChatBoundaryID, views.LoadingFallback(), load)
	if err != nil {
		return fmt.Errorf("folio: register chat boundary: %w", err)
	}
	a.chatBoundary = b
	return nil
}

// Start initializes the app and serves until the server is shut down.
func (a *App) Start() error {
	if err := a.Init(); err != nil {
		return err
	}
	a.Logger.Info("listening", zap.String("addr", a.Config.Addr), zap.String("content", a.Config.Content.Source))
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}

func (a *App) setupRoutes() {
	e := a.Echo

	// Framework assets first; anything else under /public comes from the
	// user's static directory.
	embeddedFS, _ := fs.Sub(EmbeddedAssets, "embedded")
	embeddedHandler := http.StripPrefix("/public/", http.FileServer(http.FS(embeddedFS)))
	for _, name := range embeddedAssetNames {
		e.GET("/public/"+name, echo.WrapHandler(embeddedHandler))
	}
	e.Static("/public", a.staticDir)
	e.GET("/favicon.ico", a.handleFavicon)
	e.GET("/robots.txt", a.handleRobots)

	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/", a.handleHome)
	e.GET("/blog", handleBlogRedirect)
	e.GET("/blog/:slug", a.handlePost)
	e.GET("/_suspense/:id", a.handleSuspense)
	e.POST("/sidebar/toggle", a.handleSidebarToggle)

	if _, ok := a.Images.(imageurl.Local); ok {
		e.GET("/images/:name", imageurl.Resizer{Dir: a.Config.Content.ImageDir}.Handle)
	}

	if a.telemetryHandler != nil {
		a.telemetryHandler.RegisterRoutes(e)
	}
}

// Close releases stores and background work. Call it when shutting down.
func (a *App) Close() error {
	if a.stopCleanup != nil {
		a.stopCleanup()
	}
	if a.telemetryHandler != nil {
		a.telemetryHandler.Close()
	}
	var errs []error
	if a.telemetryStore != nil {
		errs = append(errs, a.telemetryStore.Close())
	}
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// TelemetryStore returns the telemetry store, or nil when telemetry is off.
func (a *App) TelemetryStore() *telemetry.Store {
	return a.telemetryStore
}

// Option configures additional App behavior.
type Option func(*App)

// WithLogger sets the application logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.Logger = l
			a.Echo.Logger.SetOutput(io.Discard)
		}
	}
}

// WithContentSource replaces the configured content store.
func WithContentSource(src content.Source) Option {
	return func(a *App) {
		a.Content = src
	}
}

// WithImageBuilder replaces the configured image URL builder.
func WithImageBuilder(b imageurl.Builder) Option {
	return func(a *App) {
		a.Images = b
	}
}

// WithChatLoader replaces the chat widget loader behind the chat boundary.
func WithChatLoader(load suspense.Loader) Option {
	return func(a *App) {
		a.chatLoad = load
	}
}

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback runs after the built-in routes are registered.
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
