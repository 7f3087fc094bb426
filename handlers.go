package folio

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/folio/content"
	"github.com/eringen/folio/markdown"
	"github.com/eringen/folio/suspense"
	"github.com/eringen/folio/telemetry"
	"github.com/eringen/folio/views"
)

// Hero image size on the detail page; also used for og:image.
const (
	heroWidth  = 1200
	heroHeight = 630
)

func (a *App) handleHome(c echo.Context) error {
	ctx := c.Request().Context()
	posts, err := a.Content.ListPosts(ctx)
	if err != nil {
		return fmt.Errorf("list posts: %w", err)
	}
	cards := a.cards(c, posts)

	meta := views.PageMeta{
		URL:    BuildURL(a.Config.URL),
		OGType: "website",
		JSONLD: views.WebsiteJsonLD(a.site()),
	}
	return Render(c, views.Home(a.site(), meta, a.sidebar(c), views.BlogSection(cards)))
}

// cards normalizes posts and derives their cards, logging every degradation.
func (a *App) cards(c echo.Context, posts []content.PostSummary) []views.Card {
	log := a.requestLogger(c)
	posts, issues := content.Normalize(posts)
	for _, is := range issues {
		log.Warn("post failed validation",
			zap.Int("index", is.Index),
			zap.String("slug", is.Slug),
			zap.String("field", is.Field),
			zap.String("rule", is.Rule))
	}
	cards, err := views.NewCards(posts, a.Images)
	if err != nil {
		log.Warn("card image derivation failed", zap.Error(err))
	}
	for _, card := range cards {
		if card.Degraded {
			log.Warn("post has no slug; rendering without link", zap.String("key", card.Key), zap.String("title", card.Title))
		}
	}
	return cards
}

func (a *App) handlePost(c echo.Context) error {
	slug := c.Param("slug")
	post, err := a.Content.GetPost(c.Request().Context(), slug)
	if errors.Is(err, content.ErrNotFound) {
		return RenderStatus(c, http.StatusNotFound, views.NotFound(a.site()))
	}
	if err != nil {
		return fmt.Errorf("get post %q: %w", slug, err)
	}

	log := a.requestLogger(c)
	card, err := views.NewCard(0, post.PostSummary, a.Images)
	if err != nil {
		log.Warn("card image derivation failed", zap.Error(err))
	}
	var hero string
	if post.FeaturedImage != nil && a.Images != nil {
		if hero, err = a.Images.URL(*post.FeaturedImage, heroWidth, heroHeight); err != nil {
			log.Warn("hero image derivation failed", zap.String("slug", slug), zap.Error(err))
			hero = ""
		}
	}

	site := a.site()
	meta := views.PageMeta{
		Title:  post.Title + " | " + site.Name,
		URL:    views.PostURL(site, post.Slug),
		OGType: "article",
		Image:  absoluteURL(site.URL, hero),
		JSONLD: views.BlogPostingJsonLD(site, post.PostSummary, absoluteURL(site.URL, hero)),
	}
	if post.Excerpt != nil {
		meta.Description = *post.Excerpt
	}
	detail := views.PostDetail{Card: card, Body: markdown.Markdown(post.Body), HeroURL: hero}
	return Render(c, views.PostPage(site, meta, a.sidebar(c), detail))
}

// handleSuspense resolves one boundary and returns its ready markup. A
// failed load answers 503 so the client keeps the fallback.
func (a *App) handleSuspense(c echo.Context) error {
	b, err := a.Suspense.Lookup(c.Param("id"))
	if errors.Is(err, suspense.ErrUnknownBoundary) {
		return echo.ErrNotFound
	}
	if err != nil {
		return err
	}
	m := b.Mount()
	if err := m.Resolve(c.Request().Context()); err != nil {
		a.requestLogger(c).Warn("suspense boundary failed", zap.String("boundary", b.ID), zap.Error(err))
		return c.NoContent(http.StatusServiceUnavailable)
	}
	return Render(c, m.Component())
}

func (a *App) handleSidebarToggle(c echo.Context) error {
	next := SidebarState(c).Toggle()
	if err := setSidebarState(c, next); err != nil {
		return fmt.Errorf("save sidebar state: %w", err)
	}
	return c.Redirect(http.StatusSeeOther, safeRedirect(c.Request().Referer(), c.Request().Host))
}

func (a *App) handleSitemap(c echo.Context) error {
	posts, err := a.Content.ListPosts(c.Request().Context())
	if err != nil {
		return err
	}
	return a.renderSitemap(c, posts)
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.Content.ListPosts(c.Request().Context())
	if err != nil {
		return err
	}
	return a.renderRSS(c, posts)
}

func handleBlogRedirect(c echo.Context) error {
	return c.Redirect(http.StatusMovedPermanently, "/#blog")
}

func (a *App) handleFavicon(c echo.Context) error {
	return c.File(filepath.Join(a.staticDir, "favicon.ico"))
}

// handleRobots serves the static robots.txt, or a permissive default that
// points at the sitemap.
func (a *App) handleRobots(c echo.Context) error {
	path := filepath.Join(a.staticDir, "robots.txt")
	if _, err := os.Stat(path); err == nil {
		return c.File(path)
	}
	body := "User-agent: *\nAllow: /\n\nSitemap: " + BuildURL(a.Config.URL, "sitemap.xml") + "\n"
	return c.String(http.StatusOK, body)
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	ok := errors.As(err, &he)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, views.NotFound(a.site()))
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		a.requestLogger(c).Error("server error", zap.Error(err))
		_ = RenderStatus(c, code, views.ServerError(a.site()))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}

// site converts configuration into the view model every page reads.
func (a *App) site() views.Site {
	cfg := a.Config
	s := views.Site{
		Name:        cfg.Name,
		URL:         cfg.URL,
		Description: cfg.Description,
		Author:      cfg.Author,
		Icon:        cfg.Icon,
		FontsURL:    cfg.FontsURL,
	}
	if a.telemetryHandler != nil {
		s.Telemetry = views.Telemetry{
			Enabled:        true,
			ViewEndpoint:   telemetry.ViewPath,
			VitalsEndpoint: telemetry.VitalsPath,
		}
	}
	return s
}

// sidebar builds the frame with a fresh pending mount of the chat boundary.
func (a *App) sidebar(c echo.Context) views.Sidebar {
	return views.Sidebar{
		Title:   a.Config.Chat.Title,
		State:   SidebarState(c),
		CSRF:    CsrfToken(c),
		Content: a.chatBoundary.Mount().Component(),
	}
}

func (a *App) requestLogger(c echo.Context) *zap.Logger {
	id := c.Response().Header().Get(echo.HeaderXRequestID)
	if id == "" {
		return a.Logger
	}
	return a.Logger.With(zap.String("request_id", id))
}

// safeRedirect returns ref when it points at this host, else "/".
func safeRedirect(ref, host string) string {
	if ref == "" {
		return "/"
	}
	if strings.HasPrefix(ref, "/") && !strings.HasPrefix(ref, "//") {
		return ref
	}
	for _, scheme := range []string{"http://", "https://"} {
		prefix := scheme + host
		if ref == prefix {
			return "/"
		}
		if strings.HasPrefix(ref, prefix+"/") {
			return strings.TrimPrefix(ref, prefix)
		}
	}
	return "/"
}
